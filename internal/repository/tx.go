// Package repository содержит хранилища данных отеля: PostgreSQL и хранилище в памяти.
package repository

import (
	"context"
	"time"

	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/model"
)

// Tx предоставляет транзакционный доступ к данным отеля.
type Tx interface {
	GetRoom(ctx context.Context, id int64) (*model.Room, error)
	// LockRoom читает номер с эксклюзивной блокировкой строки до конца транзакции.
	LockRoom(ctx context.Context, id int64) (*model.Room, error)
	ListRooms(ctx context.Context, roomTypeID *int64) ([]model.Room, error)
	SetRoomStatus(ctx context.Context, entry model.RoomStatusLog) error

	GetRoomType(ctx context.Context, id int64) (*model.RoomType, error)
	ListRoomTypes(ctx context.Context) ([]model.RoomType, error)
	ListRatePeriods(ctx context.Context, from, to time.Time) ([]model.RatePeriod, error)

	GetGuest(ctx context.Context, id int64) (*model.Guest, error)
	AddGuestStay(ctx context.Context, guestID int64, spentCents int64) error
	DeleteGuest(ctx context.Context, guestID int64) error

	GetReservation(ctx context.Context, id int64) (*model.Reservation, error)
	// FindOverlapping возвращает активные брони номера, пересекающие интервал, кроме excludeID.
	FindOverlapping(ctx context.Context, roomID int64, r model.DateRange, excludeID int64) ([]model.Reservation, error)
	// ListActiveInRange возвращает все активные брони, пересекающие интервал.
	ListActiveInRange(ctx context.Context, r model.DateRange) ([]model.Reservation, error)
	ListActiveByRoom(ctx context.Context, roomID int64) ([]model.Reservation, error)
	ListReservationsByGuest(ctx context.Context, guestID int64) ([]model.Reservation, error)
	// ListOverdue возвращает брони Reserved с заездом до today и Checked In с выездом до today.
	ListOverdue(ctx context.Context, today time.Time) ([]model.Reservation, error)
	// InsertReservation сохраняет бронь, присваивая ей ID и код подтверждения.
	InsertReservation(ctx context.Context, r *model.Reservation) error
	UpdateReservation(ctx context.Context, r *model.Reservation) error
	DeleteReservationsByGuest(ctx context.Context, guestID int64) error

	AppendBookingLog(ctx context.Context, entry model.BookingLog) error
	ListBookingLogs(ctx context.Context, reservationID int64) ([]model.BookingLog, error)

	// InsertLoyaltyEvent пишет событие лояльности в outbox той же транзакции.
	InsertLoyaltyEvent(ctx context.Context, e *model.LoyaltyEvent) error
}
