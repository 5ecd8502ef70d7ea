package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/middleware"
	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/model"
)

// GetAvailableRooms возвращает номера, свободные на весь интервал [check_in, check_out).
func (h *Handler) GetAvailableRooms(w http.ResponseWriter, r *http.Request) {
	checkIn, err := queryDate(r, "check_in")
	if err != nil {
		h.writeError(w, err, "parse check_in")
		return
	}
	checkOut, err := queryDate(r, "check_out")
	if err != nil {
		h.writeError(w, err, "parse check_out")
		return
	}
	roomTypeID, err := queryOptionalID(r, "room_type_id")
	if err != nil {
		h.writeError(w, err, "parse room_type_id")
		return
	}

	rooms, err := h.service.GetAvailableRooms(r.Context(), roomTypeID, checkIn, checkOut)
	if err != nil {
		h.writeError(w, err, "get available rooms error")
		return
	}

	if rooms == nil {
		rooms = []model.Room{}
	}

	writeJSON(w, http.StatusOK, rooms)
}

// EstimatePrice рассчитывает стоимость проживания без создания брони.
func (h *Handler) EstimatePrice(w http.ResponseWriter, r *http.Request) {
	roomID, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err, "parse room id")
		return
	}
	checkIn, err := queryDate(r, "check_in")
	if err != nil {
		h.writeError(w, err, "parse check_in")
		return
	}
	checkOut, err := queryDate(r, "check_out")
	if err != nil {
		h.writeError(w, err, "parse check_out")
		return
	}
	early, err := queryInt(r, "early_hours")
	if err != nil {
		h.writeError(w, err, "parse early_hours")
		return
	}
	late, err := queryInt(r, "late_hours")
	if err != nil {
		h.writeError(w, err, "parse late_hours")
		return
	}

	b, err := h.service.EstimatePrice(r.Context(), roomID, checkIn, checkOut, early, late)
	if err != nil {
		h.writeError(w, err, "estimate price error", zap.Int64("roomID", roomID))
		return
	}

	resp := priceResponse{
		RoomID:     b.RoomID,
		Nights:     make([]nightResponse, 0, len(b.Nights)),
		EarlyHours: b.EarlyHours,
		LateHours:  b.LateHours,
		Surcharge:  b.SurchargeCents / 100,
		Total:      b.Total(),
	}
	for _, n := range b.Nights {
		resp.Nights = append(resp.Nights, nightResponse{
			Date: n.Date.Format(model.DateLayout),
			Rate: n.Cents / 100,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// AvailabilityCalendar возвращает число свободных номеров по категориям на каждую дату [from, to).
func (h *Handler) AvailabilityCalendar(w http.ResponseWriter, r *http.Request) {
	from, err := queryDate(r, "from")
	if err != nil {
		h.writeError(w, err, "parse from")
		return
	}
	to, err := queryDate(r, "to")
	if err != nil {
		h.writeError(w, err, "parse to")
		return
	}
	roomTypeID, err := queryOptionalID(r, "room_type_id")
	if err != nil {
		h.writeError(w, err, "parse room_type_id")
		return
	}

	calendar, err := h.service.AvailabilityCalendar(r.Context(), roomTypeID, from, to)
	if err != nil {
		h.writeError(w, err, "availability calendar error")
		return
	}

	resp := make([]calendarResponse, 0, len(calendar))
	for _, c := range calendar {
		days := make([]dayResponse, 0, len(c.Days))
		for _, d := range c.Days {
			days = append(days, dayResponse{
				Date:      d.Date.Format(model.DateLayout),
				Available: d.Available,
				Total:     d.Total,
			})
		}
		resp = append(resp, calendarResponse{
			RoomTypeID: c.RoomType.ID,
			RoomType:   c.RoomType.Name,
			Days:       days,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// SetRoomStatus выставляет состояние номера. Доступно только сотрудникам.
func (h *Handler) SetRoomStatus(w http.ResponseWriter, r *http.Request) {
	staffID, ok := middleware.GetStaffIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	roomID, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err, "parse room id")
		return
	}

	var req setRoomStatusRequest
	if err := decodeBody(r, &req, false); err != nil {
		h.writeError(w, err, "decode room status")
		return
	}

	room, err := h.service.SetRoomStatus(r.Context(), roomID, model.RoomStatus(req.Status), staffID)
	if err != nil {
		h.writeError(w, err, "set room status error", zap.Int64("roomID", roomID), zap.String("status", req.Status))
		return
	}

	writeJSON(w, http.StatusOK, room)
}
