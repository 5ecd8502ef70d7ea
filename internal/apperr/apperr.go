// Package apperr описывает типизированные ошибки ядра бронирования.
package apperr

import (
	"errors"
	"fmt"
)

// Kind определяет категорию ошибки, по которой транспортный слой выбирает ответ клиенту.
type Kind string

const (
	KindInvalidRange     Kind = "INVALID_RANGE"
	KindCapacityExceeded Kind = "CAPACITY_EXCEEDED"
	KindRoomNotAvailable Kind = "ROOM_NOT_AVAILABLE"
	KindRoomBusy         Kind = "ROOM_BUSY"
	KindInvalidState     Kind = "INVALID_STATE"
	KindInvalidRoom      Kind = "INVALID_ROOM"
	KindInvalidGuest     Kind = "INVALID_GUEST"
	KindNotFound         Kind = "NOT_FOUND"
	KindValidation       Kind = "VALIDATION"
)

// Error описывает ошибку ядра: категорию, сообщение для клиента и исходную причину.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is сравнивает ошибки по категории, чтобы errors.Is работал с сентинелами пакета.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Сентинелы для errors.Is.
var (
	ErrInvalidRange     = &Error{Kind: KindInvalidRange, Message: "check-out must be after check-in"}
	ErrCapacityExceeded = &Error{Kind: KindCapacityExceeded, Message: "guest count exceeds room capacity"}
	ErrRoomNotAvailable = &Error{Kind: KindRoomNotAvailable, Message: "room is not available for the requested dates"}
	ErrRoomBusy         = &Error{Kind: KindRoomBusy, Message: "room is busy, retry later"}
	ErrInvalidState     = &Error{Kind: KindInvalidState, Message: "transition is not allowed in the current state"}
	ErrInvalidRoom      = &Error{Kind: KindInvalidRoom, Message: "room not found"}
	ErrInvalidGuest     = &Error{Kind: KindInvalidGuest, Message: "guest not found"}
	ErrNotFound         = &Error{Kind: KindNotFound, Message: "reservation not found"}
	ErrValidation       = &Error{Kind: KindValidation, Message: "invalid input"}
)

// New создаёт ошибку указанной категории.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap создаёт ошибку указанной категории с исходной причиной.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf возвращает категорию ошибки или пустую строку для внутренних ошибок.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Retryable сообщает, можно ли автоматически повторить запрос. Только ROOM_BUSY.
func Retryable(err error) bool {
	return KindOf(err) == KindRoomBusy
}
