// Package scheduler запускает ежедневный проход по просроченным броням.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/service"
)

// DefaultSchedule запускает проход ежедневно в 00:05 по времени отеля.
const DefaultSchedule = "5 0 * * *"

// Sweeper выполняет проход по просроченным броням.
type Sweeper interface {
	SweepOverdue(ctx context.Context, today time.Time) (service.SweepResult, error)
}

// Scheduler вызывает Sweeper по cron-расписанию.
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	logger  *zap.Logger
	timeout time.Duration
}

// New создаёт планировщик. Расписание задаётся в формате cron из пяти полей
// и интерпретируется в часовом поясе loc.
func New(sweeper Sweeper, schedule string, loc *time.Location, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	if schedule == "" {
		schedule = DefaultSchedule
	}

	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		sweeper: sweeper,
		logger:  logger,
		timeout: 5 * time.Minute,
	}

	if _, err := s.cron.AddFunc(schedule, s.runOnce); err != nil {
		return nil, fmt.Errorf("add sweep job %q: %w", schedule, err)
	}

	return s, nil
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	res, err := s.sweeper.SweepOverdue(ctx, time.Time{})
	if err != nil {
		s.logger.Error("scheduled sweep error", zap.Int("failedRooms", res.FailedRooms), zap.Error(err))
	}
	s.logger.Info("scheduled sweep done",
		zap.Int("autoCheckedOut", res.AutoCheckedOut),
		zap.Int("markedNoShow", res.MarkedNoShow),
		zap.Int("roomsRefreshed", res.RoomsRefreshed),
		zap.Int("failedRooms", res.FailedRooms),
	)
}

// Run запускает расписание и останавливает его при отмене ctx, дожидаясь текущего прохода.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	return nil
}
