package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/apperr"
	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/model"
	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/repository"
)

// RemoveGuest удаляет гостя вместе с его бронями, журналами и событиями лояльности.
// Сначала активные брони отменяются под шлюзом своего номера, чтобы пересчитать
// состояние номеров, затем одной транзакцией удаляются данные гостя.
func (s *Service) RemoveGuest(ctx context.Context, guestID int64, actorID *int64) error {
	var reservations []model.Reservation
	err := s.store.ReadTx(ctx, func(tx repository.Tx) error {
		if _, err := resolveGuest(ctx, tx, guestID); err != nil {
			return err
		}
		var err error
		reservations, err = tx.ListReservationsByGuest(ctx, guestID)
		if err != nil {
			return fmt.Errorf("list guest reservations: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, r := range reservations {
		if !r.Status.Active() {
			continue
		}
		err := s.releaseForRemoval(ctx, r.ID, r.RoomID, actorID)
		if err != nil {
			return fmt.Errorf("release reservation %d: %w", r.ID, err)
		}
	}

	opCtx, cancel := s.detached(ctx)
	defer cancel()

	err = s.store.InTx(opCtx, func(tx repository.Tx) error {
		if err := tx.DeleteReservationsByGuest(opCtx, guestID); err != nil {
			return fmt.Errorf("delete guest reservations: %w", err)
		}
		if err := tx.DeleteGuest(opCtx, guestID); err != nil {
			return notFound(err, apperr.KindInvalidGuest, apperr.ErrInvalidGuest.Message)
		}
		return nil
	})
	if err != nil {
		return translate(err)
	}

	s.logger.Info("guest removed", zap.Int64("guestID", guestID), zap.Int("reservations", len(reservations)))
	s.afterCommit(ctx, nil, "")

	return nil
}

// releaseForRemoval отменяет активную бронь удаляемого гостя без штрафа и пересчитывает номер.
func (s *Service) releaseForRemoval(ctx context.Context, id, roomID int64, actorID *int64) error {
	return s.withRooms(ctx, []int64{roomID}, func(ctx context.Context, tx repository.Tx, _ *Pass) error {
		if _, err := tx.LockRoom(ctx, roomID); err != nil {
			return fmt.Errorf("lock room: %w", err)
		}
		r, err := getReservation(ctx, tx, id)
		if err != nil {
			return err
		}
		if !r.Status.Active() {
			return nil
		}
		if r.RoomID != roomID {
			return apperr.New(apperr.KindRoomBusy, "reservation was moved concurrently, retry")
		}

		wasCheckedIn := r.Status == model.ReservationCheckedIn
		now := s.now()
		r.Status = model.ReservationCancelled
		r.CancellationReason = "guest removed"
		r.CancelledAt = &now
		if err := tx.UpdateReservation(ctx, r); err != nil {
			return fmt.Errorf("update reservation: %w", err)
		}

		_, err = s.refreshRoomStatus(ctx, tx, r.RoomID, refreshOptions{
			vacated: wasCheckedIn,
			actorID: actorID,
			notes:   "guest removed",
		})
		return err
	})
}
