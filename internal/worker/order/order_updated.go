package order

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fishtvlvoe/buygo/internal/config"
	"github.com/fishtvlvoe/buygo/internal/messaging"
	ordersvc "github.com/fishtvlvoe/buygo/internal/service/order"
	"github.com/fishtvlvoe/buygo/internal/worker"
)

var workerTracer = otel.Tracer("github.com/fishtvlvoe/buygo/worker/order")

// Module registers order-related worker handlers.
var Module = fx.Module("worker_order",
	fx.Provide(
		fx.Annotate(
			NewOrderUpdatedHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewOrderUpdatedHandler sets up a worker handler that records processed
// order transitions. Notification fan-out hangs off this hook.
func NewOrderUpdatedHandler(logger *zap.Logger, cfg config.Config) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.orders.process", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
		))
		defer span.End()

		var event ordersvc.OrderUpdatedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("failed to decode order updated", zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}

		fields := []zap.Field{
			zap.Int64("order_id", event.OrderID),
			zap.String("previous_status", event.Previous.Status),
			zap.String("previous_payment_status", event.Previous.PaymentStatus),
		}
		for field, value := range event.Changes {
			fields = append(fields, zap.String("changed_"+field, value))
		}
		logger.Info("order updated event processed", fields...)

		return nil
	}

	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: handler,
	}
}
