// Package handler содержит HTTP-обработчики API ядра бронирования.
package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/apperr"
	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/middleware"
	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/model"
	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/pricing"
	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/service"
	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	CreateReservation(ctx context.Context, req service.CreateRequest) (*model.Reservation, error)
	GetReservation(ctx context.Context, id int64) (*model.Reservation, error)
	UpdateReservation(ctx context.Context, id int64, req service.UpdateRequest) (*model.Reservation, error)
	CancelReservation(ctx context.Context, id int64, reason string, actorID *int64) (*model.Reservation, error)
	ReservationHistory(ctx context.Context, id int64) ([]model.BookingLog, error)
	CheckIn(ctx context.Context, id int64, staffID int64) (*model.Reservation, error)
	CheckOut(ctx context.Context, id int64, staffID int64) (*model.Reservation, error)

	GetAvailableRooms(ctx context.Context, roomTypeID *int64, checkIn, checkOut time.Time) ([]model.Room, error)
	EstimatePrice(ctx context.Context, roomID int64, checkIn, checkOut time.Time, earlyHours, lateHours int) (pricing.Breakdown, error)
	AvailabilityCalendar(ctx context.Context, roomTypeID *int64, from, to time.Time) ([]model.TypeAvailability, error)
	SetRoomStatus(ctx context.Context, roomID int64, status model.RoomStatus, staffID int64) (*model.Room, error)

	SweepOverdue(ctx context.Context, today time.Time) (service.SweepResult, error)
	RemoveGuest(ctx context.Context, guestID int64, actorID *int64) error
}

// Handler реализует HTTP-обработчики API ядра бронирования.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindInvalidRange:
		return http.StatusBadRequest
	case apperr.KindInvalidRoom, apperr.KindInvalidGuest, apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindCapacityExceeded:
		return http.StatusUnprocessableEntity
	case apperr.KindRoomNotAvailable, apperr.KindInvalidState:
		return http.StatusConflict
	case apperr.KindRoomBusy:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// statusClientClosedRequest отдаётся, если клиент ушёл, не дождавшись номера.
const statusClientClosedRequest = 499

// writeError отвечает клиенту по категории ошибки. Внутренние ошибки логируются
// и отдаются без подробностей.
func (h *Handler) writeError(w http.ResponseWriter, err error, msg string, fields ...zap.Field) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) && errors.Is(err, context.Canceled) {
		h.logger.Debug("client went away", append(fields, zap.Error(err))...)
		writeJSON(w, statusClientClosedRequest, errorResponse{
			Code:    "CANCELLED",
			Message: "request cancelled",
		})
		return
	}
	if appErr == nil {
		h.logger.Error(msg, append(fields, zap.Error(err))...)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Code:    "INTERNAL",
			Message: http.StatusText(http.StatusInternalServerError),
		})
		return
	}

	if appErr.Kind == apperr.KindRoomBusy {
		w.Header().Set("Retry-After", "1")
	}
	writeJSON(w, statusForKind(appErr.Kind), errorResponse{Code: string(appErr.Kind), Message: appErr.Message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeBody читает JSON и проверяет его по тегам validate. Пустое тело допустимо, если allowEmpty.
func decodeBody(r *http.Request, dst any, allowEmpty bool) error {
	defer r.Body.Close()

	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) && allowEmpty {
		return nil
	}
	if err != nil {
		return apperr.Wrap(apperr.KindValidation, "malformed JSON body", err)
	}

	if err := validation.Struct(dst); err != nil {
		return apperr.Wrap(apperr.KindValidation, err.Error(), err)
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.New(apperr.KindValidation, "invalid "+name)
	}
	return id, nil
}

func queryDate(r *http.Request, name string) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}, apperr.New(apperr.KindValidation, name+" is required")
	}
	d, err := model.ParseDay(v)
	if err != nil {
		return time.Time{}, apperr.Wrap(apperr.KindValidation, name+" must be YYYY-MM-DD", err)
	}
	return d, nil
}

func queryOptionalID(r *http.Request, name string) (*int64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return nil, apperr.New(apperr.KindValidation, "invalid "+name)
	}
	return &id, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperr.New(apperr.KindValidation, "invalid "+name)
	}
	return n, nil
}

func actorFromRequest(r *http.Request) *int64 {
	if id, ok := middleware.GetStaffIDFromContext(r.Context()); ok {
		return &id
	}
	return nil
}
