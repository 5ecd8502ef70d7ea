package repository

import "errors"

var (
	// ErrNotFound возвращается, если запись не найдена.
	ErrNotFound = errors.New("not found")
	// ErrOverlap возвращается, если активная бронь пересекается с другой бронью того же номера.
	ErrOverlap = errors.New("reservation overlaps an active reservation")
	// ErrLockTimeout возвращается, если блокировку строки номера не удалось получить вовремя.
	ErrLockTimeout = errors.New("room row lock timeout")
	// ErrReadOnly возвращается при попытке записи в транзакции только на чтение.
	ErrReadOnly = errors.New("read-only transaction")
)
