package middleware

import (
	"context"
	"errors"
	"time"

	"slacker/internal/logging"
	"slacker/slackererrors"

	"go.uber.org/zap"
)

// RetryMiddleware retries a failed call with exponential backoff, but only
// for errors judged transient: a handler timeout or a connection-closed
// failure surfaced mid-call. Any other error is returned immediately.
func RetryMiddleware(maxRetries int, baseDelay time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, call *Call) *Result {
			result := next(ctx, call)
			for i := 0; i < maxRetries; i++ {
				if result.Err == nil {
					return result
				}
				if !isRetryable(result.Err) {
					return result
				}
				logging.L().Info("retrying rpc call",
					zap.String("fname", call.Fname),
					zap.Int("attempt", i+1),
					zap.Error(result.Err))
				time.Sleep(baseDelay * time.Duration(1<<i)) // Exponential backoff
				result = next(ctx, call)
			}
			return result
		}
	}
}

func isRetryable(err error) bool {
	return errors.Is(err, slackererrors.ErrHandlerTimeout) || errors.Is(err, slackererrors.ErrConnectionClosed)
}
