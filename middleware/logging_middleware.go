package middleware

import (
	"context"
	"time"

	"slacker/internal/logging"

	"go.uber.org/zap"
)

// LoggingMiddleware records the function name, duration, and any error for
// each dispatched call. It captures the start time before calling next, and
// logs the elapsed time after next returns.
func LoggingMiddleware() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, call *Call) *Result {
			start := time.Now()

			result := next(ctx, call)

			duration := time.Since(start)
			if result.Err != nil {
				logging.L().Info("rpc call failed",
					zap.String("fname", call.Fname),
					zap.Duration("duration", duration),
					zap.Error(result.Err))
			} else {
				logging.L().Info("rpc call completed",
					zap.String("fname", call.Fname),
					zap.Duration("duration", duration))
			}
			return result
		}
	}
}
