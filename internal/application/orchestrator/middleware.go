package orchestrator

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/campus-agents/campus-hub/internal/application/command"
	"github.com/campus-agents/campus-hub/internal/domain/shared"
	"github.com/campus-agents/campus-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// Handler обрабатывает проверенную команду.
type Handler func(ctx context.Context, cmd command.Command) error

// Middleware оборачивает обработку команды.
type Middleware func(Handler) Handler

// DefaultMiddlewares возвращает стандартную цепочку: запрос, трассировка,
// восстановление после паники, логирование.
func DefaultMiddlewares(log *logger.Logger, tracer trace.Tracer) []Middleware {
	return []Middleware{
		RequestMiddleware(log),
		TracingMiddleware(tracer),
		RecoveryMiddleware(log),
		LoggingMiddleware(),
	}
}

// RequestMiddleware кладёт в контекст логгер с request_id и action.
// Существующий request_id из контекста сохраняется.
func RequestMiddleware(log *logger.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, cmd command.Command) error {
			id, _ := ctx.Value(requestIDKey{}).(string)
			if id == "" {
				id = uuid.NewString()
				ctx = WithRequestID(ctx, id)
			}
			l := log.WithRequestID(id).With(logger.Action(cmd.Kind().String()))
			return next(logger.WithContext(ctx, l), cmd)
		}
	}
}

// RecoveryMiddleware перехватывает панику специалиста.
func RecoveryMiddleware(log *logger.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, cmd command.Command) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("handler panic recovered",
						logger.Action(cmd.Kind().String()),
						logger.Any("panic", r),
						logger.String("stack", string(debug.Stack())),
					)
					err = shared.WrapError("orchestrator", "Dispatch", shared.ErrInvalidState,
						"handler panic", fmt.Errorf("%v", r))
				}
			}()
			return next(ctx, cmd)
		}
	}
}

// LoggingMiddleware логирует выполнение через логгер из контекста.
func LoggingMiddleware() Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, cmd command.Command) error {
			start := time.Now()
			err := next(ctx, cmd)
			log := logger.FromContext(ctx)

			if err != nil {
				log.Error("action failed", logger.Latency(time.Since(start)), logger.Err(err))
			} else {
				log.Info("action dispatched", logger.Latency(time.Since(start)))
			}
			return err
		}
	}
}

// TracingMiddleware открывает span на каждое действие.
// Nil tracer означает глобальный провайдер.
func TracingMiddleware(tracer trace.Tracer) Middleware {
	if tracer == nil {
		tracer = otel.Tracer("campus-hub/orchestrator")
	}
	return func(next Handler) Handler {
		return func(ctx context.Context, cmd command.Command) error {
			ctx, span := tracer.Start(ctx, "campus.dispatch."+cmd.Kind().String(),
				trace.WithAttributes(attribute.String("campus.action", cmd.Kind().String())),
			)
			defer span.End()

			err := next(ctx, cmd)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			return err
		}
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST ID
// ══════════════════════════════════════════════════════════════════════════════

type requestIDKey struct{}

// WithRequestID сохраняет request_id для RequestMiddleware.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom возвращает request_id из контекста.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
