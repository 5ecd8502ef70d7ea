package handler

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/middleware"
	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/model"
	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/service"
)

// CreateReservation создаёт бронь и возвращает её с кодом подтверждения.
func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req createReservationRequest
	if err := decodeBody(r, &req, false); err != nil {
		h.writeError(w, err, "decode create reservation")
		return
	}

	checkIn, _ := model.ParseDay(req.CheckIn)
	checkOut, _ := model.ParseDay(req.CheckOut)

	res, err := h.service.CreateReservation(r.Context(), service.CreateRequest{
		RoomID:       req.RoomID,
		GuestID:      req.GuestID,
		CheckIn:      checkIn,
		CheckOut:     checkOut,
		GuestCount:   req.GuestCount,
		EarlyHours:   req.EarlyHours,
		LateHours:    req.LateHours,
		RedeemPoints: req.RedeemPoints,
		ActorID:      actorFromRequest(r),
	})
	if err != nil {
		h.writeError(w, err, "create reservation error", zap.Int64("roomID", req.RoomID), zap.Int64("guestID", req.GuestID))
		return
	}

	writeJSON(w, http.StatusCreated, toReservationResponse(res))
}

// GetReservation возвращает бронь по идентификатору.
func (h *Handler) GetReservation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err, "parse reservation id")
		return
	}

	res, err := h.service.GetReservation(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "get reservation error", zap.Int64("reservationID", id))
		return
	}

	writeJSON(w, http.StatusOK, toReservationResponse(res))
}

// UpdateReservation меняет номер, даты, число гостей или часы брони.
func (h *Handler) UpdateReservation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err, "parse reservation id")
		return
	}

	var req updateReservationRequest
	if err := decodeBody(r, &req, false); err != nil {
		h.writeError(w, err, "decode update reservation")
		return
	}

	upd := service.UpdateRequest{
		RoomID:     req.RoomID,
		GuestCount: req.GuestCount,
		EarlyHours: req.EarlyHours,
		LateHours:  req.LateHours,
		ActorID:    actorFromRequest(r),
	}
	if req.CheckIn != nil {
		d, _ := model.ParseDay(*req.CheckIn)
		upd.CheckIn = &d
	}
	if req.CheckOut != nil {
		d, _ := model.ParseDay(*req.CheckOut)
		upd.CheckOut = &d
	}

	res, err := h.service.UpdateReservation(r.Context(), id, upd)
	if err != nil {
		h.writeError(w, err, "update reservation error", zap.Int64("reservationID", id))
		return
	}

	writeJSON(w, http.StatusOK, toReservationResponse(res))
}

// CancelReservation отменяет бронь.
func (h *Handler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err, "parse reservation id")
		return
	}

	var req cancelReservationRequest
	if err := decodeBody(r, &req, true); err != nil {
		h.writeError(w, err, "decode cancel reservation")
		return
	}

	res, err := h.service.CancelReservation(r.Context(), id, req.Reason, actorFromRequest(r))
	if err != nil {
		h.writeError(w, err, "cancel reservation error", zap.Int64("reservationID", id))
		return
	}

	writeJSON(w, http.StatusOK, toReservationResponse(res))
}

// ReservationHistory возвращает журнал действий над бронью.
func (h *Handler) ReservationHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err, "parse reservation id")
		return
	}

	logs, err := h.service.ReservationHistory(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "reservation history error", zap.Int64("reservationID", id))
		return
	}

	resp := make([]historyResponse, 0, len(logs))
	for _, l := range logs {
		resp = append(resp, historyResponse{
			Action:    l.Action,
			ActorID:   l.ActorID,
			Notes:     l.Notes,
			CreatedAt: l.CreatedAt.Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// CheckIn заселяет гостя. Доступно только сотрудникам.
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	h.staffTransition(w, r, "check in", h.service.CheckIn)
}

// CheckOut выселяет гостя. Доступно только сотрудникам.
func (h *Handler) CheckOut(w http.ResponseWriter, r *http.Request) {
	h.staffTransition(w, r, "check out", h.service.CheckOut)
}

func (h *Handler) staffTransition(
	w http.ResponseWriter,
	r *http.Request,
	op string,
	fn func(ctx context.Context, id int64, staffID int64) (*model.Reservation, error),
) {
	staffID, ok := middleware.GetStaffIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Code: "UNAUTHORIZED", Message: "staff token required"})
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err, "parse reservation id")
		return
	}

	res, err := fn(r.Context(), id, staffID)
	if err != nil {
		h.writeError(w, err, op+" error", zap.Int64("reservationID", id), zap.Int64("staffID", staffID))
		return
	}

	writeJSON(w, http.StatusOK, toReservationResponse(res))
}
