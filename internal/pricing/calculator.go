package pricing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/apperr"
	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/model"
	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/repository"
)

const (
	// SurchargePerHour задаёт долю базовой ставки за каждый час раннего заезда или позднего выезда.
	SurchargePerHour = 0.10
	// MaxAdjustmentHours ограничивает число часов раннего заезда и позднего выезда.
	MaxAdjustmentHours = 12
)

// Source описывает данные, необходимые калькулятору. Реализуется транзакцией хранилища.
type Source interface {
	GetRoom(ctx context.Context, id int64) (*model.Room, error)
	GetRoomType(ctx context.Context, id int64) (*model.RoomType, error)
	ListRatePeriods(ctx context.Context, from, to time.Time) ([]model.RatePeriod, error)
}

// Quote содержит входные параметры расчёта.
type Quote struct {
	RoomID     int64
	CheckIn    time.Time
	CheckOut   time.Time
	EarlyHours int
	LateHours  int
	BookedOn   time.Time
}

// NightPrice содержит стоимость одной ночи до финального округления.
type NightPrice struct {
	Date  time.Time `json:"date"`
	Cents float64   `json:"cents"`
}

// Breakdown содержит результат расчёта стоимости проживания.
type Breakdown struct {
	RoomID         int64        `json:"room_id"`
	RoomTypeID     int64        `json:"room_type_id"`
	Nights         []NightPrice `json:"nights"`
	EarlyHours     int          `json:"early_hours"`
	LateHours      int          `json:"late_hours"`
	SurchargeCents float64      `json:"surcharge_cents"`
	TotalCents     int64        `json:"total_cents"`
}

// Total возвращает итог в основной валюте.
func (b Breakdown) Total() float64 {
	return float64(b.TotalCents) / 100
}

// Calculator рассчитывает стоимость брони. Все пути расчёта идут через него.
type Calculator struct{}

// NewCalculator создаёт калькулятор стоимости.
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Calculate считает стоимость проживания: сумма ночных ставок по [CheckIn, CheckOut)
// плюс доплаты за ранний заезд и поздний выезд. Округление до цента выполняется один раз.
func (c *Calculator) Calculate(ctx context.Context, src Source, q Quote) (Breakdown, error) {
	stay := model.NewDateRange(q.CheckIn, q.CheckOut)
	if !stay.Valid() {
		return Breakdown{}, apperr.ErrInvalidRange
	}
	if q.EarlyHours < 0 || q.LateHours < 0 {
		return Breakdown{}, apperr.New(apperr.KindValidation, "early and late hours must not be negative")
	}

	room, err := src.GetRoom(ctx, q.RoomID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Breakdown{}, apperr.Wrap(apperr.KindInvalidRoom, "room not found", err)
		}
		return Breakdown{}, fmt.Errorf("get room: %w", err)
	}

	rt, err := src.GetRoomType(ctx, room.RoomTypeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Breakdown{}, apperr.Wrap(apperr.KindInvalidRoom, "room type not found", err)
		}
		return Breakdown{}, fmt.Errorf("get room type: %w", err)
	}

	periods, err := src.ListRatePeriods(ctx, stay.CheckIn, stay.CheckOut)
	if err != nil {
		return Breakdown{}, fmt.Errorf("list rate periods: %w", err)
	}

	return price(*rt, room.ID, stay, q.EarlyHours, q.LateHours, q.BookedOn, periods), nil
}

// price считает стоимость по уже загруженным данным.
func price(rt model.RoomType, roomID int64, stay model.DateRange, early, late int, bookedOn time.Time, periods []model.RatePeriod) Breakdown {
	early = clampHours(early)
	late = clampHours(late)

	sc := StayContext{
		CheckIn:  stay.CheckIn,
		Nights:   stay.Nights(),
		BookedOn: bookedOn,
		Periods:  periods,
	}

	b := Breakdown{
		RoomID:     roomID,
		RoomTypeID: rt.ID,
		EarlyHours: early,
		LateHours:  late,
	}

	var total float64
	for _, night := range stay.EachNight() {
		rate := NightlyRate(rt, night, sc)
		b.Nights = append(b.Nights, NightPrice{Date: night, Cents: rate})
		total += rate
	}

	b.SurchargeCents = float64(early+late) * SurchargePerHour * float64(rt.BaseRateCents)
	total += b.SurchargeCents

	b.TotalCents = int64(math.Round(total))
	if b.TotalCents < 0 {
		b.TotalCents = 0
	}

	return b
}

func clampHours(h int) int {
	if h > MaxAdjustmentHours {
		return MaxAdjustmentHours
	}
	if h < 0 {
		return 0
	}
	return h
}
