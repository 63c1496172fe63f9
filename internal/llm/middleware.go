package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	llmerrors "github.com/quorumai/quorum/internal/llm/errors"
	"github.com/quorumai/quorum/internal/llm/transport"
)

// LoggingMiddleware emits structured start/finish logs for every provider
// call and assigns a trace id when the caller did not.
func LoggingMiddleware(logger *slog.Logger) transport.Middleware {
	return func(next transport.Handler) transport.Handler {
		return transport.HandlerFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			if req.TraceID == "" {
				req.TraceID = uuid.New().String()
			}

			log := logger.With(
				slog.String("trace_id", req.TraceID),
				slog.String("provider", req.Provider),
				slog.String("model", req.Model),
				slog.String("operation", string(req.Operation)),
			)
			log.DebugContext(ctx, "provider call started")

			start := time.Now()
			resp, err := next.Handle(ctx, req)
			elapsed := time.Since(start)

			if err != nil {
				log.WarnContext(ctx, "provider call failed",
					slog.Duration("elapsed", elapsed),
					slog.String("error_type", string(llmerrors.Classify(err))),
					slog.String("error", err.Error()),
				)
				return nil, err
			}

			log.InfoContext(ctx, "provider call completed",
				slog.Duration("elapsed", elapsed),
				slog.Int("content_len", len(resp.Content)),
				slog.String("finish_reason", resp.FinishReason),
			)
			return resp, nil
		})
	}
}
