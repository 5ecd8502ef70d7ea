package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/apperr"
	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/model"
	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/pricing"
	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/repository"
)

// CreateRequest содержит параметры новой брони.
type CreateRequest struct {
	RoomID       int64
	GuestID      int64
	CheckIn      time.Time
	CheckOut     time.Time
	GuestCount   int
	EarlyHours   int
	LateHours    int
	RedeemPoints int64
	ActorID      *int64
}

// UpdateRequest содержит изменяемые поля брони. Пустые поля остаются прежними.
type UpdateRequest struct {
	RoomID     *int64
	CheckIn    *time.Time
	CheckOut   *time.Time
	GuestCount *int
	EarlyHours *int
	LateHours  *int
	ActorID    *int64
}

func validateStay(stay model.DateRange, guests, early, late int) error {
	if !stay.Valid() {
		return apperr.ErrInvalidRange
	}
	if guests < 1 {
		return apperr.New(apperr.KindValidation, "guest count must be at least 1")
	}
	if early < 0 || late < 0 {
		return apperr.New(apperr.KindValidation, "early and late hours must not be negative")
	}
	return nil
}

// checkRoom проверяет, что номер существует, вмещает гостей и принимает брони.
func checkRoom(ctx context.Context, tx repository.Tx, room *model.Room, guests int) error {
	rt, err := tx.GetRoomType(ctx, room.RoomTypeID)
	if err != nil {
		return notFound(err, apperr.KindInvalidRoom, "room type not found")
	}
	if guests > rt.Capacity {
		return apperr.New(apperr.KindCapacityExceeded,
			fmt.Sprintf("room %s holds %d guests, requested %d", room.Number, rt.Capacity, guests))
	}
	if !room.Status.Bookable() {
		return apperr.New(apperr.KindRoomNotAvailable, fmt.Sprintf("room %s is %s", room.Number, room.Status))
	}
	return nil
}

// CreateReservation создаёт бронь. Проверка доступности, расчёт цены, запись брони и
// пересчёт состояния номера выполняются под захваченным номером в одной транзакции.
func (s *Service) CreateReservation(ctx context.Context, req CreateRequest) (*model.Reservation, error) {
	stay := model.NewDateRange(req.CheckIn, req.CheckOut)
	if err := validateStay(stay, req.GuestCount, req.EarlyHours, req.LateHours); err != nil {
		return nil, err
	}
	if req.RedeemPoints < 0 {
		return nil, apperr.New(apperr.KindValidation, "redeemed points must not be negative")
	}

	err := s.store.ReadTx(ctx, func(tx repository.Tx) error {
		if _, err := resolveGuest(ctx, tx, req.GuestID); err != nil {
			return err
		}
		room, err := tx.GetRoom(ctx, req.RoomID)
		if err != nil {
			return notFound(err, apperr.KindInvalidRoom, apperr.ErrInvalidRoom.Message)
		}
		return checkRoom(ctx, tx, room, req.GuestCount)
	})
	if err != nil {
		return nil, err
	}

	bookedOn := s.today()

	var created *model.Reservation
	err = s.withRooms(ctx, []int64{req.RoomID}, func(ctx context.Context, tx repository.Tx, pass *Pass) error {
		room, err := tx.LockRoom(ctx, req.RoomID)
		if err != nil {
			return notFound(err, apperr.KindInvalidRoom, apperr.ErrInvalidRoom.Message)
		}
		if err := checkRoom(ctx, tx, room, req.GuestCount); err != nil {
			return err
		}

		ok, err := isAvailable(ctx, tx, pass, room.ID, stay, Authoritative, 0)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.ErrRoomNotAvailable
		}

		b, err := s.calc.Calculate(ctx, tx, pricing.Quote{
			RoomID:     room.ID,
			CheckIn:    stay.CheckIn,
			CheckOut:   stay.CheckOut,
			EarlyHours: req.EarlyHours,
			LateHours:  req.LateHours,
			BookedOn:   bookedOn,
		})
		if err != nil {
			return err
		}

		r := &model.Reservation{
			RoomID:          room.ID,
			GuestID:         req.GuestID,
			CheckIn:         stay.CheckIn,
			CheckOut:        stay.CheckOut,
			GuestCount:      req.GuestCount,
			Status:          model.ReservationReserved,
			EarlyHours:      b.EarlyHours,
			LateHours:       b.LateHours,
			TotalPriceCents: b.TotalCents,
			PaymentStatus:   model.PaymentUnpaid,
			RedeemedPoints:  req.RedeemPoints,
		}
		if err := tx.InsertReservation(ctx, r); err != nil {
			return fmt.Errorf("insert reservation: %w", err)
		}

		if _, err := s.refreshRoomStatus(ctx, tx, room.ID, refreshOptions{
			actorID: req.ActorID,
			notes:   "reservation " + r.ConfirmationCode + " created",
		}); err != nil {
			return err
		}

		if err := tx.AppendBookingLog(ctx, logEntry(r, "created", req.ActorID, "")); err != nil {
			return fmt.Errorf("append booking log: %w", err)
		}

		if err := recordLoyalty(ctx, tx, r.GuestID, -req.RedeemPoints, model.LoyaltyRedeem,
			"points redeemed for reservation "+r.ConfirmationCode, r.ID); err != nil {
			return fmt.Errorf("record loyalty redeem: %w", err)
		}

		created = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("reservation created",
		zap.Int64("reservationID", created.ID),
		zap.Int64("roomID", created.RoomID),
		zap.String("code", created.ConfirmationCode),
		zap.Int64("totalCents", created.TotalPriceCents),
	)
	s.afterCommit(ctx, created, "Your reservation "+created.ConfirmationCode+" is confirmed")

	return created, nil
}

// UpdateReservation меняет номер, даты, число гостей или часы брони в состоянии Reserved.
// Доступность проверяется без учёта самой брони, цена пересчитывается.
func (s *Service) UpdateReservation(ctx context.Context, id int64, req UpdateRequest) (*model.Reservation, error) {
	var current *model.Reservation
	err := s.store.ReadTx(ctx, func(tx repository.Tx) error {
		var err error
		current, err = getReservation(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	oldRoomID := current.RoomID
	newRoomID := oldRoomID
	if req.RoomID != nil {
		newRoomID = *req.RoomID
	}

	var updated *model.Reservation
	err = s.withRooms(ctx, []int64{oldRoomID, newRoomID}, func(ctx context.Context, tx repository.Tx, pass *Pass) error {
		r, err := getReservation(ctx, tx, id)
		if err != nil {
			return err
		}
		if r.RoomID != oldRoomID {
			return apperr.New(apperr.KindRoomBusy, "reservation was moved concurrently, retry")
		}
		if r.Status != model.ReservationReserved {
			return apperr.Wrap(apperr.KindInvalidState, "only reserved bookings can be modified",
				fmt.Errorf("status %s", r.Status))
		}

		applyUpdate(r, req, newRoomID)
		stay := r.Range()
		if err := validateStay(stay, r.GuestCount, r.EarlyHours, r.LateHours); err != nil {
			return err
		}

		for _, roomID := range pass.rooms {
			if _, err := tx.LockRoom(ctx, roomID); err != nil {
				return notFound(err, apperr.KindInvalidRoom, apperr.ErrInvalidRoom.Message)
			}
		}

		room, err := tx.GetRoom(ctx, newRoomID)
		if err != nil {
			return notFound(err, apperr.KindInvalidRoom, apperr.ErrInvalidRoom.Message)
		}
		if err := checkRoom(ctx, tx, room, r.GuestCount); err != nil {
			return err
		}

		ok, err := isAvailable(ctx, tx, pass, newRoomID, stay, Authoritative, r.ID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.ErrRoomNotAvailable
		}

		b, err := s.calc.Calculate(ctx, tx, pricing.Quote{
			RoomID:     newRoomID,
			CheckIn:    stay.CheckIn,
			CheckOut:   stay.CheckOut,
			EarlyHours: r.EarlyHours,
			LateHours:  r.LateHours,
			BookedOn:   model.Day(r.CreatedAt.In(s.opts.Location)),
		})
		if err != nil {
			return err
		}
		r.EarlyHours = b.EarlyHours
		r.LateHours = b.LateHours
		r.TotalPriceCents = b.TotalCents

		if err := tx.UpdateReservation(ctx, r); err != nil {
			return fmt.Errorf("update reservation: %w", err)
		}

		for _, roomID := range pass.rooms {
			if _, err := s.refreshRoomStatus(ctx, tx, roomID, refreshOptions{
				actorID: req.ActorID,
				notes:   "reservation " + r.ConfirmationCode + " modified",
			}); err != nil {
				return err
			}
		}

		notes := ""
		if newRoomID != oldRoomID {
			notes = fmt.Sprintf("moved from room %d to room %d", oldRoomID, newRoomID)
		}
		if err := tx.AppendBookingLog(ctx, logEntry(r, "modified", req.ActorID, notes)); err != nil {
			return fmt.Errorf("append booking log: %w", err)
		}

		updated = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("reservation modified",
		zap.Int64("reservationID", updated.ID),
		zap.Int64("roomID", updated.RoomID),
		zap.Int64("totalCents", updated.TotalPriceCents),
	)
	s.afterCommit(ctx, updated, "Your reservation "+updated.ConfirmationCode+" was modified")

	return updated, nil
}

func applyUpdate(r *model.Reservation, req UpdateRequest, roomID int64) {
	r.RoomID = roomID
	if req.CheckIn != nil {
		r.CheckIn = model.Day(*req.CheckIn)
	}
	if req.CheckOut != nil {
		r.CheckOut = model.Day(*req.CheckOut)
	}
	if req.GuestCount != nil {
		r.GuestCount = *req.GuestCount
	}
	if req.EarlyHours != nil {
		r.EarlyHours = *req.EarlyHours
	}
	if req.LateHours != nil {
		r.LateHours = *req.LateHours
	}
}

// cancellationFeePercent возвращает штраф за отмену в процентах от стоимости:
// не позднее чем за сутки до заезда 50%, не позднее чем за трое суток 25%.
func cancellationFeePercent(today, checkIn time.Time) int64 {
	days := int(model.Day(checkIn).Sub(model.Day(today)).Hours() / 24)
	switch {
	case days <= 1:
		return 50
	case days <= 3:
		return 25
	default:
		return 0
	}
}

// CancelReservation отменяет бронь и освобождает даты. Списанные баллы возвращаются гостю.
func (s *Service) CancelReservation(ctx context.Context, id int64, reason string, actorID *int64) (*model.Reservation, error) {
	var cancelled *model.Reservation
	err := s.transition(ctx, id, func(ctx context.Context, tx repository.Tx, r *model.Reservation) error {
		wasCheckedIn := r.Status == model.ReservationCheckedIn
		switch {
		case r.Status == model.ReservationReserved:
		case wasCheckedIn && s.opts.AllowCheckedInCancel:
		default:
			return apperr.Wrap(apperr.KindInvalidState, "reservation cannot be cancelled",
				fmt.Errorf("status %s", r.Status))
		}

		now := s.now()
		r.Status = model.ReservationCancelled
		r.CancellationReason = reason
		r.CancellationFeeCents = r.TotalPriceCents * cancellationFeePercent(model.Day(now), r.CheckIn) / 100
		r.CancelledAt = &now

		if err := tx.UpdateReservation(ctx, r); err != nil {
			return fmt.Errorf("update reservation: %w", err)
		}

		if _, err := s.refreshRoomStatus(ctx, tx, r.RoomID, refreshOptions{
			vacated: wasCheckedIn,
			actorID: actorID,
			notes:   "reservation " + r.ConfirmationCode + " cancelled",
		}); err != nil {
			return err
		}

		if err := tx.AppendBookingLog(ctx, logEntry(r, "cancelled", actorID, reason)); err != nil {
			return fmt.Errorf("append booking log: %w", err)
		}

		if err := recordLoyalty(ctx, tx, r.GuestID, r.RedeemedPoints, model.LoyaltyRefund,
			"refund for cancelled reservation "+r.ConfirmationCode, r.ID); err != nil {
			return fmt.Errorf("record loyalty refund: %w", err)
		}

		cancelled = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("reservation cancelled",
		zap.Int64("reservationID", cancelled.ID),
		zap.Int64("feeCents", cancelled.CancellationFeeCents),
	)
	s.afterCommit(ctx, cancelled, "Your reservation "+cancelled.ConfirmationCode+" was cancelled")

	return cancelled, nil
}

// CheckIn заселяет гостя. Допустимо только из Reserved в пределах дат брони.
func (s *Service) CheckIn(ctx context.Context, id int64, staffID int64) (*model.Reservation, error) {
	actor := staffID

	var checkedIn *model.Reservation
	err := s.transition(ctx, id, func(ctx context.Context, tx repository.Tx, r *model.Reservation) error {
		if r.Status != model.ReservationReserved {
			return apperr.Wrap(apperr.KindInvalidState, "only reserved bookings can be checked in",
				fmt.Errorf("status %s", r.Status))
		}

		today := s.today()
		if today.Before(model.Day(r.CheckIn)) || !today.Before(model.Day(r.CheckOut)) {
			return apperr.New(apperr.KindInvalidState, "check-in is only possible during the stay dates")
		}

		room, err := tx.GetRoom(ctx, r.RoomID)
		if err != nil {
			return fmt.Errorf("get room: %w", err)
		}
		if !room.Status.Bookable() {
			return apperr.New(apperr.KindRoomNotAvailable, fmt.Sprintf("room %s is %s", room.Number, room.Status))
		}

		r.Status = model.ReservationCheckedIn
		if err := tx.UpdateReservation(ctx, r); err != nil {
			return fmt.Errorf("update reservation: %w", err)
		}

		if _, err := s.refreshRoomStatus(ctx, tx, r.RoomID, refreshOptions{
			actorID: &actor,
			notes:   "guest checked in",
		}); err != nil {
			return err
		}

		if err := tx.AppendBookingLog(ctx, logEntry(r, "checked_in", &actor, "")); err != nil {
			return fmt.Errorf("append booking log: %w", err)
		}

		checkedIn = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("guest checked in", zap.Int64("reservationID", checkedIn.ID), zap.Int64("staffID", staffID))
	s.afterCommit(ctx, checkedIn, "Welcome! You are checked in")

	return checkedIn, nil
}

// CheckOut выселяет гостя, обновляет его статистику и начисляет баллы лояльности.
func (s *Service) CheckOut(ctx context.Context, id int64, staffID int64) (*model.Reservation, error) {
	actor := staffID

	var checkedOut *model.Reservation
	err := s.transition(ctx, id, func(ctx context.Context, tx repository.Tx, r *model.Reservation) error {
		if r.Status != model.ReservationCheckedIn {
			return apperr.Wrap(apperr.KindInvalidState, "only checked-in bookings can be checked out",
				fmt.Errorf("status %s", r.Status))
		}
		if err := s.completeStay(ctx, tx, r, &actor, "guest checked out"); err != nil {
			return err
		}
		checkedOut = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("guest checked out",
		zap.Int64("reservationID", checkedOut.ID),
		zap.Int64("staffID", staffID),
		zap.Int64("totalCents", checkedOut.TotalPriceCents),
	)
	s.afterCommit(ctx, checkedOut, "Thank you for staying with us")

	return checkedOut, nil
}

// completeStay переводит заселённую бронь в Checked Out со всеми побочными эффектами.
func (s *Service) completeStay(ctx context.Context, tx repository.Tx, r *model.Reservation, actorID *int64, notes string) error {
	r.Status = model.ReservationCheckedOut
	if err := tx.UpdateReservation(ctx, r); err != nil {
		return fmt.Errorf("update reservation: %w", err)
	}

	if _, err := s.refreshRoomStatus(ctx, tx, r.RoomID, refreshOptions{
		vacated: true,
		actorID: actorID,
		notes:   notes,
	}); err != nil {
		return err
	}

	if err := tx.AddGuestStay(ctx, r.GuestID, r.TotalPriceCents); err != nil {
		return fmt.Errorf("update guest stats: %w", err)
	}

	if err := tx.AppendBookingLog(ctx, logEntry(r, "checked_out", actorID, notes)); err != nil {
		return fmt.Errorf("append booking log: %w", err)
	}

	points := r.TotalPriceCents * s.opts.PointsPerDollar / 100
	if err := recordLoyalty(ctx, tx, r.GuestID, points, model.LoyaltyEarn,
		"stay "+r.ConfirmationCode, r.ID); err != nil {
		return fmt.Errorf("record loyalty earn: %w", err)
	}

	return nil
}

// transition читает бронь, захватывает её номер и выполняет fn над свежей копией брони
// в транзакции под блокировкой строки номера.
func (s *Service) transition(ctx context.Context, id int64, fn func(ctx context.Context, tx repository.Tx, r *model.Reservation) error) error {
	var roomID int64
	err := s.store.ReadTx(ctx, func(tx repository.Tx) error {
		r, err := getReservation(ctx, tx, id)
		if err != nil {
			return err
		}
		roomID = r.RoomID
		return nil
	})
	if err != nil {
		return err
	}

	return s.withRooms(ctx, []int64{roomID}, func(ctx context.Context, tx repository.Tx, _ *Pass) error {
		if _, err := tx.LockRoom(ctx, roomID); err != nil {
			return fmt.Errorf("lock room: %w", err)
		}
		r, err := getReservation(ctx, tx, id)
		if err != nil {
			return err
		}
		if r.RoomID != roomID {
			return apperr.New(apperr.KindRoomBusy, "reservation was moved concurrently, retry")
		}
		return fn(ctx, tx, r)
	})
}

// GetReservation возвращает бронь по идентификатору.
func (s *Service) GetReservation(ctx context.Context, id int64) (*model.Reservation, error) {
	var r *model.Reservation
	err := s.store.ReadTx(ctx, func(tx repository.Tx) error {
		var err error
		r, err = getReservation(ctx, tx, id)
		return err
	})
	return r, err
}

// ReservationHistory возвращает журнал действий над бронью.
func (s *Service) ReservationHistory(ctx context.Context, id int64) ([]model.BookingLog, error) {
	var logs []model.BookingLog
	err := s.store.ReadTx(ctx, func(tx repository.Tx) error {
		if _, err := getReservation(ctx, tx, id); err != nil {
			return err
		}
		var err error
		logs, err = tx.ListBookingLogs(ctx, id)
		return err
	})
	return logs, err
}
