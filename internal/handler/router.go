package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	custommiddleware "github.com/pjcs50/hotel-management-snapshot-sub002/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware ядра бронирования.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Optional)

			r.Post("/reservations", h.CreateReservation)
			r.Get("/reservations/{id}", h.GetReservation)
			r.Patch("/reservations/{id}", h.UpdateReservation)
			r.Post("/reservations/{id}/cancel", h.CancelReservation)
			r.Get("/reservations/{id}/history", h.ReservationHistory)

			r.Get("/rooms/available", h.GetAvailableRooms)
			r.Get("/rooms/{id}/price", h.EstimatePrice)
			r.Get("/availability", h.AvailabilityCalendar)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Post("/reservations/{id}/check-in", h.CheckIn)
			r.Post("/reservations/{id}/check-out", h.CheckOut)
			r.Put("/rooms/{id}/status", h.SetRoomStatus)

			r.Post("/admin/sweep", h.Sweep)
			r.Delete("/admin/guests/{id}", h.RemoveGuest)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
