package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/apperr"
	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/model"
	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/pricing"
	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/repository"
)

// maxCalendarDays ограничивает длину календаря доступности.
const maxCalendarDays = 366

// CheckMode определяет, на какие гарантии может опираться вызывающий.
type CheckMode int

const (
	// Advisory проверяет без блокировок, результат может устареть.
	Advisory CheckMode = iota
	// Authoritative проверяет под захваченным номером и блокировкой строки.
	Authoritative
)

var errGateNotHeld = errors.New("authoritative availability check requires the room gate")

// isAvailable проверяет, свободен ли номер на интервал. excludeID исключает саму бронь при изменении.
func isAvailable(ctx context.Context, tx repository.Tx, pass *Pass, roomID int64, stay model.DateRange, mode CheckMode, excludeID int64) (bool, error) {
	if mode == Authoritative && !pass.Holds(roomID) {
		return false, fmt.Errorf("room %d: %w", roomID, errGateNotHeld)
	}

	overlapping, err := tx.FindOverlapping(ctx, roomID, stay, excludeID)
	if err != nil {
		return false, fmt.Errorf("find overlapping reservations: %w", err)
	}
	return len(overlapping) == 0, nil
}

// IsAvailable выполняет рекомендательную проверку доступности номера.
func (s *Service) IsAvailable(ctx context.Context, roomID int64, checkIn, checkOut time.Time) (bool, error) {
	stay := model.NewDateRange(checkIn, checkOut)
	if !stay.Valid() {
		return false, apperr.ErrInvalidRange
	}

	var ok bool
	err := s.store.ReadTx(ctx, func(tx repository.Tx) error {
		room, err := tx.GetRoom(ctx, roomID)
		if err != nil {
			return notFound(err, apperr.KindInvalidRoom, apperr.ErrInvalidRoom.Message)
		}
		if !room.Status.Bookable() {
			return nil
		}
		ok, err = isAvailable(ctx, tx, nil, roomID, stay, Advisory, 0)
		return err
	})
	return ok, err
}

type availableRoomsKey struct {
	RoomTypeID *int64
	CheckIn    string
	CheckOut   string
}

func (k availableRoomsKey) String() string {
	t := "all"
	if k.RoomTypeID != nil {
		t = formatID(*k.RoomTypeID)
	}
	return "rooms:" + t + ":" + k.CheckIn + ":" + k.CheckOut
}

// GetAvailableRooms возвращает номера, свободные на весь интервал. Результат рекомендательный.
func (s *Service) GetAvailableRooms(ctx context.Context, roomTypeID *int64, checkIn, checkOut time.Time) ([]model.Room, error) {
	stay := model.NewDateRange(checkIn, checkOut)
	if !stay.Valid() {
		return nil, apperr.ErrInvalidRange
	}

	key := availableRoomsKey{
		RoomTypeID: roomTypeID,
		CheckIn:    stay.CheckIn.Format(model.DateLayout),
		CheckOut:   stay.CheckOut.Format(model.DateLayout),
	}.String()

	var rooms []model.Room
	gen, hit := s.loadCached(ctx, key, &rooms)
	if hit {
		return rooms, nil
	}

	err := s.store.ReadTx(ctx, func(tx repository.Tx) error {
		all, err := tx.ListRooms(ctx, roomTypeID)
		if err != nil {
			return fmt.Errorf("list rooms: %w", err)
		}

		active, err := tx.ListActiveInRange(ctx, stay)
		if err != nil {
			return fmt.Errorf("list active reservations: %w", err)
		}

		busy := make(map[int64]bool, len(active))
		for _, r := range active {
			busy[r.RoomID] = true
		}

		rooms = make([]model.Room, 0, len(all))
		for _, room := range all {
			if room.Status.Bookable() && !busy[room.ID] {
				rooms = append(rooms, room)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.storeCached(ctx, gen, key, rooms)
	return rooms, nil
}

// AvailabilityCalendar возвращает по каждой категории число свободных номеров на каждую дату [from, to).
func (s *Service) AvailabilityCalendar(ctx context.Context, roomTypeID *int64, from, to time.Time) ([]model.TypeAvailability, error) {
	window := model.NewDateRange(from, to)
	if !window.Valid() {
		return nil, apperr.ErrInvalidRange
	}
	if window.Nights() > maxCalendarDays {
		return nil, apperr.New(apperr.KindValidation, fmt.Sprintf("calendar is limited to %d days", maxCalendarDays))
	}

	key := "calendar:" + availableRoomsKey{
		RoomTypeID: roomTypeID,
		CheckIn:    window.CheckIn.Format(model.DateLayout),
		CheckOut:   window.CheckOut.Format(model.DateLayout),
	}.String()

	var res []model.TypeAvailability
	gen, hit := s.loadCached(ctx, key, &res)
	if hit {
		return res, nil
	}

	err := s.store.ReadTx(ctx, func(tx repository.Tx) error {
		types, err := tx.ListRoomTypes(ctx)
		if err != nil {
			return fmt.Errorf("list room types: %w", err)
		}
		rooms, err := tx.ListRooms(ctx, roomTypeID)
		if err != nil {
			return fmt.Errorf("list rooms: %w", err)
		}
		active, err := tx.ListActiveInRange(ctx, window)
		if err != nil {
			return fmt.Errorf("list active reservations: %w", err)
		}

		byRoom := map[int64][]model.Reservation{}
		for _, r := range active {
			byRoom[r.RoomID] = append(byRoom[r.RoomID], r)
		}

		res = make([]model.TypeAvailability, 0, len(types))
		for _, rt := range types {
			if roomTypeID != nil && rt.ID != *roomTypeID {
				continue
			}
			ta := model.TypeAvailability{RoomType: rt}
			for _, day := range window.EachNight() {
				da := model.DayAvailability{Date: day}
				for _, room := range rooms {
					if room.RoomTypeID != rt.ID || !room.Status.Bookable() {
						continue
					}
					da.Total++
					if !coversDay(byRoom[room.ID], day) {
						da.Available++
					}
				}
				ta.Days = append(ta.Days, da)
			}
			res = append(res, ta)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.storeCached(ctx, gen, key, res)
	return res, nil
}

func coversDay(reservations []model.Reservation, day time.Time) bool {
	for _, r := range reservations {
		if r.Range().Contains(day) {
			return true
		}
	}
	return false
}

// EstimatePrice считает стоимость без бронирования. Датой бронирования считается сегодняшний день.
func (s *Service) EstimatePrice(ctx context.Context, roomID int64, checkIn, checkOut time.Time, earlyHours, lateHours int) (pricing.Breakdown, error) {
	var b pricing.Breakdown
	err := s.store.ReadTx(ctx, func(tx repository.Tx) error {
		var err error
		b, err = s.calc.Calculate(ctx, tx, pricing.Quote{
			RoomID:     roomID,
			CheckIn:    checkIn,
			CheckOut:   checkOut,
			EarlyHours: earlyHours,
			LateHours:  lateHours,
			BookedOn:   s.today(),
		})
		return err
	})
	return b, err
}

// noGeneration означает, что поколение кэша неизвестно и результат не сохраняется.
const noGeneration = -1

// loadCached читает ответ из кэша. Поколение нужно прочитать до запроса к хранилищу:
// Invalidate после коммита сменит его, и устаревший ответ не попадёт в новое поколение.
func (s *Service) loadCached(ctx context.Context, key string, dst any) (int64, bool) {
	if s.cache == nil {
		return noGeneration, false
	}
	gen, ok, err := s.cache.Load(ctx, key, dst)
	if err != nil {
		s.logger.Warn("availability cache read failed", zap.String("key", key), zap.Error(err))
		return noGeneration, false
	}
	return gen, ok
}

func (s *Service) storeCached(ctx context.Context, gen int64, key string, v any) {
	if s.cache == nil || gen == noGeneration {
		return
	}
	if err := s.cache.Store(ctx, gen, key, v); err != nil {
		s.logger.Warn("availability cache write failed", zap.String("key", key), zap.Error(err))
	}
}
