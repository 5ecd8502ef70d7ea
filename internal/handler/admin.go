package handler

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/model"
)

// Sweep запускает проход по просроченным броням вне расписания.
// В теле можно передать дату, на которую выполняется проход.
func (h *Handler) Sweep(w http.ResponseWriter, r *http.Request) {
	var req sweepRequest
	if err := decodeBody(r, &req, true); err != nil {
		h.writeError(w, err, "decode sweep request")
		return
	}

	var today time.Time
	if req.Date != "" {
		today, _ = model.ParseDay(req.Date)
	}

	res, err := h.service.SweepOverdue(r.Context(), today)
	if err != nil {
		h.writeError(w, err, "sweep error")
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// RemoveGuest удаляет гостя и все его брони.
func (h *Handler) RemoveGuest(w http.ResponseWriter, r *http.Request) {
	guestID, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err, "parse guest id")
		return
	}

	if err := h.service.RemoveGuest(r.Context(), guestID, actorFromRequest(r)); err != nil {
		h.writeError(w, err, "remove guest error", zap.Int64("guestID", guestID))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
