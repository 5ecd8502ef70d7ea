// Package model содержит доменные сущности ядра бронирования отеля.
package model

import "time"

// RoomStatus описывает физическое состояние номера.
type RoomStatus string

const (
	RoomStatusAvailable        RoomStatus = "Available"
	RoomStatusBooked           RoomStatus = "Booked"
	RoomStatusOccupied         RoomStatus = "Occupied"
	RoomStatusNeedsCleaning    RoomStatus = "Needs Cleaning"
	RoomStatusUnderMaintenance RoomStatus = "Under Maintenance"
	RoomStatusOutOfService     RoomStatus = "Out of Service"
)

// Bookable сообщает, можно ли вообще принимать брони на номер в этом состоянии.
func (s RoomStatus) Bookable() bool {
	return s != RoomStatusUnderMaintenance && s != RoomStatusOutOfService
}

// ReservationStatus описывает этап жизненного цикла брони.
type ReservationStatus string

const (
	ReservationReserved   ReservationStatus = "Reserved"
	ReservationCheckedIn  ReservationStatus = "Checked In"
	ReservationCheckedOut ReservationStatus = "Checked Out"
	ReservationCancelled  ReservationStatus = "Cancelled"
	ReservationNoShow     ReservationStatus = "No Show"
)

// Active сообщает, занимает ли бронь даты номера.
func (s ReservationStatus) Active() bool {
	return s == ReservationReserved || s == ReservationCheckedIn
}

// ActiveReservationStatuses перечисляет статусы, блокирующие пересекающиеся даты.
var ActiveReservationStatuses = []ReservationStatus{ReservationReserved, ReservationCheckedIn}

// PaymentStatus описывает состояние оплаты брони.
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// RateRules содержит множители и скидки тарифа категории номера.
type RateRules struct {
	WeekendMultiplier      float64 `json:"weekend_multiplier"`
	PeakSeasonMultiplier   float64 `json:"peak_season_multiplier"`
	SpecialEventMultiplier float64 `json:"special_event_multiplier"`
	LastMinuteDiscount     float64 `json:"last_minute_discount"`
	ExtendedStayDiscount   float64 `json:"extended_stay_discount"`
}

// DefaultRateRules возвращает значения тарифа по умолчанию.
func DefaultRateRules() RateRules {
	return RateRules{
		WeekendMultiplier:      1.25,
		PeakSeasonMultiplier:   1.5,
		SpecialEventMultiplier: 1.75,
		LastMinuteDiscount:     0.85,
		ExtendedStayDiscount:   0.9,
	}
}

// RoomType описывает категорию номера: базовую ставку, вместимость и правила тарифа.
type RoomType struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	BaseRateCents int64     `json:"base_rate_cents"`
	Capacity      int       `json:"capacity"`
	Rules         RateRules `json:"rules"`
}

// RatePeriodKind различает пиковый сезон и особые события.
type RatePeriodKind string

const (
	RatePeriodPeak  RatePeriodKind = "peak"
	RatePeriodEvent RatePeriodKind = "event"
)

// RatePeriod описывает интервал дат (включительно), в который действует множитель сезона или события.
// Пустой RoomTypeID означает, что период действует для всего отеля.
type RatePeriod struct {
	ID         int64          `json:"id"`
	RoomTypeID *int64         `json:"room_type_id,omitempty"`
	Kind       RatePeriodKind `json:"kind"`
	Name       string         `json:"name"`
	StartDate  time.Time      `json:"start_date"`
	EndDate    time.Time      `json:"end_date"`
}

// Covers сообщает, попадает ли дата в период.
func (p RatePeriod) Covers(day time.Time) bool {
	d := Day(day)
	return !d.Before(Day(p.StartDate)) && !d.After(Day(p.EndDate))
}

// Room описывает номер отеля и его текущее физическое состояние.
type Room struct {
	ID         int64      `json:"id"`
	Number     string     `json:"number"`
	Floor      int        `json:"floor"`
	RoomTypeID int64      `json:"room_type_id"`
	Status     RoomStatus `json:"status"`
}

// Guest описывает гостя и его статистику проживаний.
type Guest struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	StayCount       int    `json:"stay_count"`
	TotalSpentCents int64  `json:"total_spent_cents"`
}

// Reservation описывает бронь номера на полуоткрытый интервал дат [CheckIn, CheckOut).
type Reservation struct {
	ID                   int64             `json:"id"`
	ConfirmationCode     string            `json:"confirmation_code"`
	RoomID               int64             `json:"room_id"`
	GuestID              int64             `json:"guest_id"`
	CheckIn              time.Time         `json:"check_in"`
	CheckOut             time.Time         `json:"check_out"`
	GuestCount           int               `json:"guest_count"`
	Status               ReservationStatus `json:"status"`
	EarlyHours           int               `json:"early_hours"`
	LateHours            int               `json:"late_hours"`
	TotalPriceCents      int64             `json:"total_price_cents"`
	PaymentStatus        PaymentStatus     `json:"payment_status"`
	RedeemedPoints       int64             `json:"redeemed_points"`
	CancellationReason   string            `json:"cancellation_reason,omitempty"`
	CancellationFeeCents int64             `json:"cancellation_fee_cents"`
	CancelledAt          *time.Time        `json:"cancelled_at,omitempty"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

// Range возвращает интервал дат брони.
func (r Reservation) Range() DateRange {
	return DateRange{CheckIn: r.CheckIn, CheckOut: r.CheckOut}
}

// LoyaltyEventKind описывает тип операции в журнале лояльности.
type LoyaltyEventKind string

const (
	LoyaltyEarn   LoyaltyEventKind = "earn"
	LoyaltyRedeem LoyaltyEventKind = "redeem"
	LoyaltyRefund LoyaltyEventKind = "refund"
)

// LoyaltyEvent представляет неизменяемую запись о начислении или списании баллов, ожидающую доставки
// во внешнюю систему лояльности.
type LoyaltyEvent struct {
	ID            string           `json:"id"`
	GuestID       int64            `json:"guest_id"`
	ReservationID *int64           `json:"reservation_id,omitempty"`
	Points        int64            `json:"points"`
	Kind          LoyaltyEventKind `json:"kind"`
	Reason        string           `json:"reason"`
	CreatedAt     time.Time        `json:"created_at"`
	Delivered     bool             `json:"-"`
	Attempts      int              `json:"-"`
	LastError     string           `json:"-"`
}

// BookingLog представляет запись истории действий над бронью.
type BookingLog struct {
	ReservationID int64     `json:"reservation_id"`
	Action        string    `json:"action"`
	ActorID       *int64    `json:"actor_id,omitempty"`
	Notes         string    `json:"notes"`
	CreatedAt     time.Time `json:"created_at"`
}

// RoomStatusLog представляет запись о смене состояния номера.
type RoomStatusLog struct {
	RoomID    int64      `json:"room_id"`
	OldStatus RoomStatus `json:"old_status"`
	NewStatus RoomStatus `json:"new_status"`
	ActorID   *int64     `json:"actor_id,omitempty"`
	Notes     string     `json:"notes"`
	CreatedAt time.Time  `json:"created_at"`
}

// DayAvailability содержит число свободных номеров категории на дату.
type DayAvailability struct {
	Date      time.Time `json:"date"`
	Available int       `json:"available"`
	Total     int       `json:"total"`
}

// TypeAvailability содержит календарь доступности одной категории номеров.
type TypeAvailability struct {
	RoomType RoomType          `json:"room_type"`
	Days     []DayAvailability `json:"days"`
}
