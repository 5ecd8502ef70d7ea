package loyalty

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/model"
)

const (
	defaultInterval  = time.Second
	defaultBatchSize = 100
)

// Outbox хранит недоставленные события лояльности.
type Outbox interface {
	ListPendingLoyaltyEvents(ctx context.Context, limit int) ([]model.LoyaltyEvent, error)
	MarkLoyaltyDelivered(ctx context.Context, id string) error
	MarkLoyaltyFailed(ctx context.Context, id string, reason string) error
}

// Ledger принимает события лояльности.
type Ledger interface {
	Record(ctx context.Context, e model.LoyaltyEvent) (int, time.Duration, error)
}

// Relay периодически переносит события из outbox в систему лояльности.
// Рассчитан на один экземпляр на базу.
type Relay struct {
	outbox   Outbox
	ledger   Ledger
	logger   *zap.Logger
	interval time.Duration
	batch    int
}

// NewRelay создаёт доставщик событий. interval <= 0 означает раз в секунду.
func NewRelay(outbox Outbox, ledger Ledger, logger *zap.Logger, interval time.Duration) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Relay{
		outbox:   outbox,
		ledger:   ledger,
		logger:   logger,
		interval: interval,
		batch:    defaultBatchSize,
	}
}

// Run доставляет события до отмены ctx.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.processBatch(ctx)
		}
	}
}

// processBatch отправляет одну порцию событий и возвращает число доставленных.
func (r *Relay) processBatch(ctx context.Context) int {
	events, err := r.outbox.ListPendingLoyaltyEvents(ctx, r.batch)
	if err != nil {
		r.logger.Error("list pending loyalty events error", zap.Error(err))
		return 0
	}

	delivered := 0
	for _, e := range events {
		statusCode, retryAfter, err := r.ledger.Record(ctx, e)
		if err != nil {
			r.logger.Warn("loyalty event delivery failed",
				zap.String("eventID", e.ID),
				zap.Int64("guestID", e.GuestID),
				zap.Int("attempts", e.Attempts+1),
				zap.Error(err),
			)
			if markErr := r.outbox.MarkLoyaltyFailed(ctx, e.ID, err.Error()); markErr != nil {
				r.logger.Error("mark loyalty event failed error", zap.String("eventID", e.ID), zap.Error(markErr))
			}
			continue
		}

		if statusCode == http.StatusTooManyRequests {
			if retryAfter > 0 {
				timer := time.NewTimer(retryAfter)
				select {
				case <-ctx.Done():
					timer.Stop()
					return delivered
				case <-timer.C:
				}
			}
			return delivered
		}

		if err := r.outbox.MarkLoyaltyDelivered(ctx, e.ID); err != nil {
			r.logger.Error("mark loyalty event delivered error", zap.String("eventID", e.ID), zap.Error(err))
			continue
		}
		delivered++
	}

	return delivered
}
