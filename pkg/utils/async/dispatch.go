package async

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/gjum/newsroom/pkg/utils/logging"
)

// Dispatch runs handler in its own goroutine. Slack requires the webhook
// to respond within seconds, so event processing is detached from the
// request context; only the logger is carried over.
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	bgCtx := context.Background()
	if logger := logging.From(ctx); logger != nil {
		bgCtx = logging.With(bgCtx, logger)
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger := logging.From(bgCtx)
				logger.Error("panic in async handler", "panic", r)
			}
		}()

		if err := handler(bgCtx); err != nil {
			logger := logging.From(bgCtx)
			logger.Error("async handler failed", "error", goerr.Unwrap(err))
		}
	}()
}
