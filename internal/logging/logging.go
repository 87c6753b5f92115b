// Package logging provides the package-level structured logger shared by
// slackerserver, slackerclient, dispatch, and middleware. It replaces the
// teacher's bare log.Println/log.Printf calls with go.uber.org/zap, the
// way other_examples' appnet-org-arpc rpc client logs per-call RPC events
// with zap.
package logging

import "go.uber.org/zap"

var logger = mustNewProductionLogger()

func mustNewProductionLogger() *zap.Logger {
	l, err := zap.NewProduction()
	if err != nil {
		// zap.NewProduction only fails on a broken encoder/sink config,
		// which cannot happen with the default config used here.
		panic(err)
	}
	return l
}

// L returns the current package-level logger.
func L() *zap.Logger {
	return logger
}

// SetLogger replaces the package-level logger. Intended for callers that
// want a *zap.Logger configured differently (development mode, a custom
// core, zap.NewNop() in tests that don't want log output).
func SetLogger(l *zap.Logger) {
	if l != nil {
		logger = l
	}
}
