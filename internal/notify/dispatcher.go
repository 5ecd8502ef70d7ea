package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	defaultBuffer         = 256
	defaultPublishTimeout = 5 * time.Second
)

// Publisher доставляет уведомления до брокера.
type Publisher interface {
	Publish(ctx context.Context, m Message) error
}

// Dispatcher принимает уведомления без блокировки вызывающего и отправляет их
// в фоне. При переполненной очереди уведомление отбрасывается с предупреждением.
type Dispatcher struct {
	publisher Publisher
	logger    *zap.Logger
	queue     chan Message
	now       func() time.Time
}

// NewDispatcher создаёт диспетчер с очередью на buffer сообщений.
func NewDispatcher(publisher Publisher, logger *zap.Logger, buffer int) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Dispatcher{
		publisher: publisher,
		logger:    logger,
		queue:     make(chan Message, buffer),
		now:       time.Now,
	}
}

// Notify ставит уведомление в очередь.
func (d *Dispatcher) Notify(guestID int64, message string, metadata map[string]string) {
	m := Message{
		GuestID:  guestID,
		Message:  message,
		Metadata: metadata,
		SentAt:   d.now().UTC(),
	}

	select {
	case d.queue <- m:
	default:
		d.logger.Warn("notification queue is full, dropping message", zap.Int64("guestID", guestID))
	}
}

// Run отправляет уведомления до отмены ctx, затем дописывает оставшиеся в очереди.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			d.drain()
			return nil
		case m := <-d.queue:
			d.publish(ctx, m)
		}
	}
}

func (d *Dispatcher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), defaultPublishTimeout)
	defer cancel()

	for {
		select {
		case m := <-d.queue:
			d.publish(ctx, m)
		default:
			return
		}
	}
}

func (d *Dispatcher) publish(ctx context.Context, m Message) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultPublishTimeout)
	defer cancel()

	if err := d.publisher.Publish(pubCtx, m); err != nil {
		d.logger.Error("publish notification error", zap.Int64("guestID", m.GuestID), zap.Error(err))
	}
}
