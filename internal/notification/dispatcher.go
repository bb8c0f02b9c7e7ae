package notification

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/checkout-service/internal/domain/order"
)

// ErrQueueFull is returned when a confirmation cannot be enqueued without
// blocking. The caller logs it and moves on.
var ErrQueueFull = errors.New("confirmation queue full")

// DefaultQueueSize is the dispatcher queue capacity when none is configured.
const DefaultQueueSize = 256

// Dispatcher decouples confirmation delivery from the order workflow: the
// workflow enqueues and returns immediately, a background worker delivers.
// Delivery failures are observable only through logs and counters.
type Dispatcher struct {
	sender  order.ConfirmationSender
	queue   chan *order.Order
	lg      *zap.Logger
	timeout time.Duration

	g       *errgroup.Group
	baseCtx context.Context

	sent    metric.Int64Counter
	failed  metric.Int64Counter
	dropped metric.Int64Counter
}

var _ order.ConfirmationSender = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher over sender. queueSize <= 0 falls back
// to DefaultQueueSize; sendTimeout bounds each delivery attempt.
func NewDispatcher(sender order.ConfirmationSender, lg *zap.Logger, meter metric.Meter, queueSize int, sendTimeout time.Duration) (*Dispatcher, error) {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}

	sent, err := meter.Int64Counter("checkout.confirmations.sent")
	if err != nil {
		return nil, errors.Wrap(err, "create sent counter")
	}
	failed, err := meter.Int64Counter("checkout.confirmations.failed")
	if err != nil {
		return nil, errors.Wrap(err, "create failed counter")
	}
	dropped, err := meter.Int64Counter("checkout.confirmations.dropped")
	if err != nil {
		return nil, errors.Wrap(err, "create dropped counter")
	}

	return &Dispatcher{
		sender:  sender,
		queue:   make(chan *order.Order, queueSize),
		lg:      lg,
		timeout: sendTimeout,
		sent:    sent,
		failed:  failed,
		dropped: dropped,
	}, nil
}

// Start launches the delivery worker. ctx bounds individual deliveries; the
// worker itself runs until Close drains the queue.
func (d *Dispatcher) Start(ctx context.Context) {
	d.baseCtx = context.WithoutCancel(ctx)
	d.g = &errgroup.Group{}
	d.g.Go(d.run)
}

func (d *Dispatcher) run() error {
	for o := range d.queue {
		ctx, cancel := context.WithTimeout(d.baseCtx, d.timeout)
		err := d.sender.SendOrderConfirmation(ctx, o)
		cancel()

		if err != nil {
			d.failed.Add(d.baseCtx, 1)
			d.lg.Warn("Confirmation delivery failed",
				zap.String("order_id", o.ID),
				zap.Error(err),
			)
			continue
		}
		d.sent.Add(d.baseCtx, 1)
	}
	return nil
}

// SendOrderConfirmation enqueues the order without blocking. A full queue
// drops the confirmation and returns ErrQueueFull.
func (d *Dispatcher) SendOrderConfirmation(ctx context.Context, o *order.Order) error {
	select {
	case d.queue <- o:
		return nil
	default:
		d.dropped.Add(ctx, 1)
		return ErrQueueFull
	}
}

// Close stops accepting confirmations, drains the queue, and waits for the
// worker to finish. Must be called after the HTTP server has stopped.
func (d *Dispatcher) Close() error {
	close(d.queue)
	if d.g == nil {
		return nil
	}
	return d.g.Wait()
}
