// Package pricing рассчитывает стоимость проживания по тарифным правилам категории номера.
package pricing

import (
	"time"

	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/model"
)

const (
	// LastMinuteWindowDays: заезд не позже чем через столько дней после бронирования считается «горящим».
	LastMinuteWindowDays = 2
	// ExtendedStayNights задаёт минимальное число ночей для скидки за длительное проживание.
	ExtendedStayNights = 7
)

// StayContext описывает параметры всего проживания, от которых зависят скидки.
type StayContext struct {
	CheckIn  time.Time
	Nights   int
	BookedOn time.Time
	Periods  []model.RatePeriod
}

// NightlyRate возвращает стоимость одной ночи в центах без округления.
//
// Множители применяются в фиксированном порядке: выходные, пиковый сезон, особое событие.
// Затем скидки: «горящее» бронирование, длительное проживание.
func NightlyRate(rt model.RoomType, night time.Time, stay StayContext) float64 {
	rate := float64(rt.BaseRateCents)
	rules := rt.Rules

	if isWeekend(night) {
		rate *= rules.WeekendMultiplier
	}
	if inPeriod(rt.ID, night, stay.Periods, model.RatePeriodPeak) {
		rate *= rules.PeakSeasonMultiplier
	}
	if inPeriod(rt.ID, night, stay.Periods, model.RatePeriodEvent) {
		rate *= rules.SpecialEventMultiplier
	}

	if isLastMinute(stay) {
		rate *= rules.LastMinuteDiscount
	}
	if stay.Nights >= ExtendedStayNights {
		rate *= rules.ExtendedStayDiscount
	}

	return rate
}

func isWeekend(night time.Time) bool {
	wd := model.Day(night).Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func inPeriod(roomTypeID int64, night time.Time, periods []model.RatePeriod, kind model.RatePeriodKind) bool {
	for _, p := range periods {
		if p.Kind != kind {
			continue
		}
		if p.RoomTypeID != nil && *p.RoomTypeID != roomTypeID {
			continue
		}
		if p.Covers(night) {
			return true
		}
	}
	return false
}

func isLastMinute(stay StayContext) bool {
	if stay.BookedOn.IsZero() {
		return false
	}
	lead := model.Day(stay.CheckIn).Sub(model.Day(stay.BookedOn))
	return lead <= LastMinuteWindowDays*24*time.Hour
}
