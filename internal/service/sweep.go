package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/model"
	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/repository"
)

// SweepResult содержит итог прохода по просроченным броням.
type SweepResult struct {
	AutoCheckedOut int `json:"auto_checked_out"`
	MarkedNoShow   int `json:"marked_no_show"`
	RoomsRefreshed int `json:"rooms_refreshed"`
	FailedRooms    int `json:"failed_rooms"`
}

// SweepOverdue помечает неприехавших гостей как No Show, выселяет тех, чей выезд прошёл,
// и пересчитывает состояние всех номеров на дату today. Повторный запуск ничего не меняет.
// Каждый номер обрабатывается под тем же шлюзом, что и обычные операции. Ошибка на одном
// номере не останавливает проход: остальные номера обрабатываются, ошибки возвращаются вместе.
func (s *Service) SweepOverdue(ctx context.Context, today time.Time) (SweepResult, error) {
	if today.IsZero() {
		today = s.today()
	}
	today = model.Day(today)

	var (
		overdue []model.Reservation
		rooms   []model.Room
	)
	err := s.store.ReadTx(ctx, func(tx repository.Tx) error {
		var err error
		if overdue, err = tx.ListOverdue(ctx, today); err != nil {
			return fmt.Errorf("list overdue reservations: %w", err)
		}
		if rooms, err = tx.ListRooms(ctx, nil); err != nil {
			return fmt.Errorf("list rooms: %w", err)
		}
		return nil
	})
	if err != nil {
		return SweepResult{}, err
	}

	byRoom := map[int64][]int64{}
	for _, r := range overdue {
		byRoom[r.RoomID] = append(byRoom[r.RoomID], r.ID)
	}

	var (
		res     SweepResult
		touched []*model.Reservation
		errs    []error
	)
	for _, room := range rooms {
		ids := byRoom[room.ID]

		var (
			roomRes     SweepResult
			roomTouched []*model.Reservation
		)
		err := s.withRooms(ctx, []int64{room.ID}, func(ctx context.Context, tx repository.Tx, _ *Pass) error {
			if _, err := tx.LockRoom(ctx, room.ID); err != nil {
				return fmt.Errorf("lock room: %w", err)
			}

			roomRes, roomTouched = SweepResult{}, nil
			vacated := false
			for _, id := range ids {
				r, err := tx.GetReservation(ctx, id)
				if err != nil {
					return fmt.Errorf("get reservation %d: %w", id, err)
				}
				if r.RoomID != room.ID {
					continue
				}

				switch {
				case r.Status == model.ReservationReserved && model.Day(r.CheckIn).Before(today):
					r.Status = model.ReservationNoShow
					if err := tx.UpdateReservation(ctx, r); err != nil {
						return fmt.Errorf("update reservation: %w", err)
					}
					if err := tx.AppendBookingLog(ctx, logEntry(r, "no_show", nil, "guest did not arrive")); err != nil {
						return fmt.Errorf("append booking log: %w", err)
					}
					roomRes.MarkedNoShow++
				case r.Status == model.ReservationCheckedIn && model.Day(r.CheckOut).Before(today):
					if err := s.completeStay(ctx, tx, r, nil, "automatic check-out"); err != nil {
						return err
					}
					vacated = true
					roomRes.AutoCheckedOut++
				default:
					continue
				}
				roomTouched = append(roomTouched, r)
			}

			changed, err := s.refreshRoomStatus(ctx, tx, room.ID, refreshOptions{
				today:   today,
				vacated: vacated,
				notes:   "daily sweep",
			})
			if err != nil {
				return err
			}
			if changed {
				roomRes.RoomsRefreshed++
			}
			return nil
		})
		if err != nil {
			s.logger.Error("sweep room failed", zap.Int64("roomID", room.ID), zap.Error(err))
			res.FailedRooms++
			errs = append(errs, fmt.Errorf("sweep room %d: %w", room.ID, err))
			continue
		}

		res.AutoCheckedOut += roomRes.AutoCheckedOut
		res.MarkedNoShow += roomRes.MarkedNoShow
		res.RoomsRefreshed += roomRes.RoomsRefreshed
		touched = append(touched, roomTouched...)
	}

	s.logger.Info("overdue sweep finished",
		zap.Time("today", today),
		zap.Int("autoCheckedOut", res.AutoCheckedOut),
		zap.Int("markedNoShow", res.MarkedNoShow),
		zap.Int("roomsRefreshed", res.RoomsRefreshed),
		zap.Int("failedRooms", res.FailedRooms),
	)

	if len(touched) == 0 && res.RoomsRefreshed > 0 {
		s.afterCommit(ctx, nil, "")
	}
	for _, r := range touched {
		switch r.Status {
		case model.ReservationNoShow:
			s.afterCommit(ctx, r, "Your reservation "+r.ConfirmationCode+" was marked as no-show")
		case model.ReservationCheckedOut:
			s.afterCommit(ctx, r, "You were checked out automatically, thank you for staying with us")
		}
	}

	return res, errors.Join(errs...)
}
