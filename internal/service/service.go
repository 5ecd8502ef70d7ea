// Package service реализует ядро бронирования: доступность, расчёт стоимости,
// жизненный цикл брони и согласованность состояния номеров.
package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/apperr"
	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/model"
	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/pricing"
	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/repository"
)

// Options задаёт политики сервиса.
type Options struct {
	// GateTimeout ограничивает ожидание захвата номера.
	GateTimeout time.Duration
	// OperationTimeout ограничивает операцию после захвата номера.
	OperationTimeout time.Duration
	// AllowCheckedInCancel разрешает отмену уже заселённой брони со штрафом.
	AllowCheckedInCancel bool
	// SkipCleaning переводит номер после выезда сразу в Available.
	SkipCleaning bool
	// PointsPerDollar задаёт число баллов за каждый доллар итоговой стоимости.
	PointsPerDollar int64
	// Location задаёт часовой пояс отеля, по которому определяется «сегодня».
	Location *time.Location
	// Now возвращает текущее время.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.GateTimeout <= 0 {
		o.GateTimeout = 5 * time.Second
	}
	if o.OperationTimeout <= 0 {
		o.OperationTimeout = 30 * time.Second
	}
	if o.PointsPerDollar <= 0 {
		o.PointsPerDollar = 10
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Service содержит бизнес-логику ядра бронирования. Создаётся один раз на процесс.
type Service struct {
	store    Store
	gate     *Gate
	calc     *pricing.Calculator
	cache    AvailabilityCache
	notifier Notifier
	logger   *zap.Logger
	opts     Options
}

// NewService создаёт сервис. cache и notifier могут быть nil.
func NewService(store Store, cache AvailabilityCache, notifier Notifier, logger *zap.Logger, opts Options) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = opts.withDefaults()

	return &Service{
		store:    store,
		gate:     NewGate(opts.GateTimeout),
		calc:     pricing.NewCalculator(),
		cache:    cache,
		notifier: notifier,
		logger:   logger,
		opts:     opts,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

func (s *Service) now() time.Time {
	return s.opts.Now().In(s.opts.Location)
}

// today возвращает текущую дату отеля.
func (s *Service) today() time.Time {
	return model.Day(s.now())
}

// detached отвязывает операцию от отмены запроса: после захвата номера транзакция
// либо фиксируется, либо откатывается по собственному таймауту.
func (s *Service) detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.opts.OperationTimeout)
}

// withRooms захватывает номера и выполняет fn в транзакции на запись.
func (s *Service) withRooms(ctx context.Context, roomIDs []int64, fn func(ctx context.Context, tx repository.Tx, pass *Pass) error) error {
	pass, err := s.gate.Acquire(ctx, roomIDs...)
	if err != nil {
		return err
	}
	defer pass.Release()

	opCtx, cancel := s.detached(ctx)
	defer cancel()

	err = s.store.InTx(opCtx, func(tx repository.Tx) error {
		return fn(opCtx, tx, pass)
	})
	return translate(err)
}

// translate переводит ошибки хранилища в типизированные ошибки ядра.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case apperr.KindOf(err) != "":
		return err
	case errors.Is(err, repository.ErrOverlap):
		return apperr.Wrap(apperr.KindRoomNotAvailable, apperr.ErrRoomNotAvailable.Message, err)
	case errors.Is(err, repository.ErrLockTimeout):
		return apperr.Wrap(apperr.KindRoomBusy, apperr.ErrRoomBusy.Message, err)
	default:
		return err
	}
}

func notFound(err error, kind apperr.Kind, message string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.Wrap(kind, message, err)
	}
	return err
}

// resolveGuest ищет гостя в справочнике.
func resolveGuest(ctx context.Context, tx repository.Tx, guestID int64) (*model.Guest, error) {
	g, err := tx.GetGuest(ctx, guestID)
	if err != nil {
		return nil, notFound(err, apperr.KindInvalidGuest, apperr.ErrInvalidGuest.Message)
	}
	return g, nil
}

func getReservation(ctx context.Context, tx repository.Tx, id int64) (*model.Reservation, error) {
	r, err := tx.GetReservation(ctx, id)
	if err != nil {
		return nil, notFound(err, apperr.KindNotFound, apperr.ErrNotFound.Message)
	}
	return r, nil
}

func logEntry(r *model.Reservation, action string, actorID *int64, notes string) model.BookingLog {
	return model.BookingLog{
		ReservationID: r.ID,
		Action:        action,
		ActorID:       actorID,
		Notes:         notes,
	}
}

// recordLoyalty пишет событие лояльности в outbox текущей транзакции.
func recordLoyalty(ctx context.Context, tx repository.Tx, guestID, points int64, kind model.LoyaltyEventKind, reason string, reservationID int64) error {
	if points == 0 {
		return nil
	}
	rid := reservationID
	return tx.InsertLoyaltyEvent(ctx, &model.LoyaltyEvent{
		ID:            uuid.NewString(),
		GuestID:       guestID,
		ReservationID: &rid,
		Points:        points,
		Kind:          kind,
		Reason:        reason,
	})
}

// afterCommit сбрасывает кэш доступности и отправляет уведомление гостю.
// Ошибки только логируются: состояние брони уже зафиксировано.
func (s *Service) afterCommit(ctx context.Context, r *model.Reservation, message string) {
	if s.cache != nil {
		if err := s.cache.Invalidate(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("availability cache invalidation failed", zap.Error(err))
		}
	}
	if s.notifier != nil && r != nil {
		s.notifier.Notify(r.GuestID, message, map[string]string{
			"reservation_id":    formatID(r.ID),
			"confirmation_code": r.ConfirmationCode,
			"status":            string(r.Status),
		})
	}
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
