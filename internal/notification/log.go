package notification

import (
	"context"

	"go.uber.org/zap"

	"github.com/xenking/checkout-service/internal/domain/order"
)

// LogSender records confirmations in the service log. It is the sender of
// last resort when no broker is configured, so the service stays runnable in
// development and tests.
type LogSender struct {
	lg *zap.Logger
}

var _ order.ConfirmationSender = (*LogSender)(nil)

// NewLogSender creates a LogSender writing to lg.
func NewLogSender(lg *zap.Logger) *LogSender {
	return &LogSender{lg: lg}
}

// SendOrderConfirmation logs the confirmation and always succeeds.
func (s *LogSender) SendOrderConfirmation(_ context.Context, o *order.Order) error {
	s.lg.Info("Order confirmation",
		zap.String("order_id", o.ID),
		zap.String("customer_id", o.CustomerID),
		zap.String("total", o.Total().StringFixed(2)),
		zap.String("payment_method", string(o.Payment.Method)),
	)
	return nil
}
