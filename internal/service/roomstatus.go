package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/apperr"
	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/model"
	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/repository"
)

// roomStatusInput собирает всё, от чего зависит состояние номера.
type roomStatusInput struct {
	Current model.RoomStatus
	// Requested выставлено персоналом (уборка, ремонт).
	Requested model.RoomStatus
	// Active содержит активные брони номера.
	Active []model.Reservation
	Today  time.Time
	// Vacated означает, что гость только что освободил номер.
	Vacated      bool
	SkipCleaning bool
}

// nextRoomStatus вычисляет состояние номера. Другого места для этого нет.
// Occupied ровно тогда, когда номер занимает заселённая бронь. Booked, когда на сегодня
// приходится ночь брони Reserved. Ремонт и вывод из эксплуатации снимает только персонал.
func nextRoomStatus(in roomStatusInput) model.RoomStatus {
	current := in.Current
	if in.Requested != "" {
		current = in.Requested
	}

	switch current {
	case model.RoomStatusUnderMaintenance, model.RoomStatusOutOfService:
		return current
	}

	for _, r := range in.Active {
		if r.Status == model.ReservationCheckedIn {
			return model.RoomStatusOccupied
		}
	}

	if in.Vacated && !in.SkipCleaning {
		return model.RoomStatusNeedsCleaning
	}
	if current == model.RoomStatusNeedsCleaning {
		return model.RoomStatusNeedsCleaning
	}

	for _, r := range in.Active {
		if r.Status == model.ReservationReserved && r.Range().Contains(in.Today) {
			return model.RoomStatusBooked
		}
	}

	return model.RoomStatusAvailable
}

type refreshOptions struct {
	today     time.Time
	requested model.RoomStatus
	vacated   bool
	actorID   *int64
	notes     string
}

// refreshRoomStatus пересчитывает состояние номера в текущей транзакции и возвращает,
// изменилось ли оно. Номер должен быть заблокирован вызывающим.
func (s *Service) refreshRoomStatus(ctx context.Context, tx repository.Tx, roomID int64, o refreshOptions) (bool, error) {
	room, err := tx.GetRoom(ctx, roomID)
	if err != nil {
		return false, fmt.Errorf("get room %d: %w", roomID, err)
	}

	active, err := tx.ListActiveByRoom(ctx, roomID)
	if err != nil {
		return false, fmt.Errorf("list active reservations: %w", err)
	}

	today := o.today
	if today.IsZero() {
		today = s.today()
	}

	next := nextRoomStatus(roomStatusInput{
		Current:      room.Status,
		Requested:    o.requested,
		Active:       active,
		Today:        today,
		Vacated:      o.vacated,
		SkipCleaning: s.opts.SkipCleaning,
	})
	if next == room.Status {
		return false, nil
	}

	err = tx.SetRoomStatus(ctx, model.RoomStatusLog{
		RoomID:    roomID,
		OldStatus: room.Status,
		NewStatus: next,
		ActorID:   o.actorID,
		Notes:     o.notes,
	})
	if err != nil {
		return false, fmt.Errorf("set room status: %w", err)
	}

	return true, nil
}

// SetRoomStatus выставляет состояние номера по решению персонала: уборка завершена,
// номер нуждается в уборке, ремонт или вывод из эксплуатации.
func (s *Service) SetRoomStatus(ctx context.Context, roomID int64, status model.RoomStatus, staffID int64) (*model.Room, error) {
	switch status {
	case model.RoomStatusAvailable, model.RoomStatusNeedsCleaning,
		model.RoomStatusUnderMaintenance, model.RoomStatusOutOfService:
	default:
		return nil, apperr.New(apperr.KindValidation, fmt.Sprintf("status %q cannot be set manually", status))
	}

	var updated *model.Room
	err := s.withRooms(ctx, []int64{roomID}, func(ctx context.Context, tx repository.Tx, _ *Pass) error {
		if _, err := tx.LockRoom(ctx, roomID); err != nil {
			return notFound(err, apperr.KindInvalidRoom, apperr.ErrInvalidRoom.Message)
		}

		if !status.Bookable() {
			active, err := tx.ListActiveByRoom(ctx, roomID)
			if err != nil {
				return fmt.Errorf("list active reservations: %w", err)
			}
			for _, r := range active {
				if r.Status == model.ReservationCheckedIn {
					return apperr.New(apperr.KindInvalidState, "room is occupied by a checked-in guest")
				}
			}
		}

		actor := staffID
		if _, err := s.refreshRoomStatus(ctx, tx, roomID, refreshOptions{
			requested: status,
			actorID:   &actor,
			notes:     "set by staff",
		}); err != nil {
			return err
		}

		room, err := tx.GetRoom(ctx, roomID)
		if err != nil {
			return fmt.Errorf("get room: %w", err)
		}
		updated = room
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, nil, "")
	return updated, nil
}
