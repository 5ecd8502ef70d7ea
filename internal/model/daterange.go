package model

import "time"

// DateLayout задаёт формат дат в API.
const DateLayout = "2006-01-02"

// Day приводит момент времени к календарной дате (полночь UTC) по часам переданного момента.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDay разбирает дату в формате YYYY-MM-DD.
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// DateRange описывает полуоткрытый интервал ночей [CheckIn, CheckOut).
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// NewDateRange нормализует границы до календарных дат.
func NewDateRange(checkIn, checkOut time.Time) DateRange {
	return DateRange{CheckIn: Day(checkIn), CheckOut: Day(checkOut)}
}

// Valid сообщает, что выезд строго позже заезда.
func (r DateRange) Valid() bool {
	return Day(r.CheckIn).Before(Day(r.CheckOut))
}

// Nights возвращает число ночей в интервале.
func (r DateRange) Nights() int {
	if !r.Valid() {
		return 0
	}
	return int(Day(r.CheckOut).Sub(Day(r.CheckIn)).Hours()/24 + 0.5)
}

// Overlaps сообщает, пересекаются ли интервалы. Соприкасающиеся интервалы не пересекаются.
func (r DateRange) Overlaps(o DateRange) bool {
	return Day(r.CheckIn).Before(Day(o.CheckOut)) && Day(o.CheckIn).Before(Day(r.CheckOut))
}

// Contains сообщает, попадает ли ночь с датой day в интервал.
func (r DateRange) Contains(day time.Time) bool {
	d := Day(day)
	return !d.Before(Day(r.CheckIn)) && d.Before(Day(r.CheckOut))
}

// EachNight возвращает даты всех ночей интервала по порядку.
func (r DateRange) EachNight() []time.Time {
	n := r.Nights()
	nights := make([]time.Time, 0, n)
	start := Day(r.CheckIn)
	for i := 0; i < n; i++ {
		nights = append(nights, start.AddDate(0, 0, i))
	}
	return nights
}
