package handler

import (
	"time"

	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/model"
)

type createReservationRequest struct {
	RoomID       int64  `json:"room_id" validate:"required,gt=0"`
	GuestID      int64  `json:"guest_id" validate:"required,gt=0"`
	CheckIn      string `json:"check_in" validate:"required,date"`
	CheckOut     string `json:"check_out" validate:"required,date"`
	GuestCount   int    `json:"guest_count" validate:"required,min=1"`
	EarlyHours   int    `json:"early_hours" validate:"min=0"`
	LateHours    int    `json:"late_hours" validate:"min=0"`
	RedeemPoints int64  `json:"redeem_points" validate:"min=0"`
}

type updateReservationRequest struct {
	RoomID     *int64  `json:"room_id" validate:"omitempty,gt=0"`
	CheckIn    *string `json:"check_in" validate:"omitempty,date"`
	CheckOut   *string `json:"check_out" validate:"omitempty,date"`
	GuestCount *int    `json:"guest_count" validate:"omitempty,min=1"`
	EarlyHours *int    `json:"early_hours" validate:"omitempty,min=0"`
	LateHours  *int    `json:"late_hours" validate:"omitempty,min=0"`
}

type cancelReservationRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type setRoomStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type sweepRequest struct {
	Date string `json:"date" validate:"omitempty,date"`
}

type reservationResponse struct {
	ID                 int64   `json:"id"`
	ConfirmationCode   string  `json:"confirmation_code"`
	RoomID             int64   `json:"room_id"`
	GuestID            int64   `json:"guest_id"`
	CheckIn            string  `json:"check_in"`
	CheckOut           string  `json:"check_out"`
	Nights             int     `json:"nights"`
	GuestCount         int     `json:"guest_count"`
	Status             string  `json:"status"`
	EarlyHours         int     `json:"early_hours"`
	LateHours          int     `json:"late_hours"`
	TotalPrice         float64 `json:"total_price"`
	PaymentStatus      string  `json:"payment_status"`
	RedeemedPoints     int64   `json:"redeemed_points"`
	CancellationReason string  `json:"cancellation_reason,omitempty"`
	CancellationFee    float64 `json:"cancellation_fee,omitempty"`
	CancelledAt        string  `json:"cancelled_at,omitempty"`
	CreatedAt          string  `json:"created_at"`
}

func toReservationResponse(r *model.Reservation) reservationResponse {
	resp := reservationResponse{
		ID:                 r.ID,
		ConfirmationCode:   r.ConfirmationCode,
		RoomID:             r.RoomID,
		GuestID:            r.GuestID,
		CheckIn:            r.CheckIn.Format(model.DateLayout),
		CheckOut:           r.CheckOut.Format(model.DateLayout),
		Nights:             r.Range().Nights(),
		GuestCount:         r.GuestCount,
		Status:             string(r.Status),
		EarlyHours:         r.EarlyHours,
		LateHours:          r.LateHours,
		TotalPrice:         float64(r.TotalPriceCents) / 100,
		PaymentStatus:      string(r.PaymentStatus),
		RedeemedPoints:     r.RedeemedPoints,
		CancellationReason: r.CancellationReason,
		CancellationFee:    float64(r.CancellationFeeCents) / 100,
		CreatedAt:          r.CreatedAt.Format(time.RFC3339),
	}
	if r.CancelledAt != nil {
		resp.CancelledAt = r.CancelledAt.Format(time.RFC3339)
	}
	return resp
}

type historyResponse struct {
	Action    string `json:"action"`
	ActorID   *int64 `json:"actor_id,omitempty"`
	Notes     string `json:"notes,omitempty"`
	CreatedAt string `json:"created_at"`
}

type priceResponse struct {
	RoomID     int64           `json:"room_id"`
	Nights     []nightResponse `json:"nights"`
	EarlyHours int             `json:"early_hours"`
	LateHours  int             `json:"late_hours"`
	Surcharge  float64         `json:"surcharge"`
	Total      float64         `json:"total"`
}

type nightResponse struct {
	Date string  `json:"date"`
	Rate float64 `json:"rate"`
}

type dayResponse struct {
	Date      string `json:"date"`
	Available int    `json:"available"`
	Total     int    `json:"total"`
}

type calendarResponse struct {
	RoomTypeID int64         `json:"room_type_id"`
	RoomType   string        `json:"room_type"`
	Days       []dayResponse `json:"days"`
}
