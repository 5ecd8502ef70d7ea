package service

import (
	"context"

	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/repository"
)

// Store описывает хранилище, с которым работает сервис. Каждая операция получает явную транзакцию.
type Store interface {
	// InTx выполняет fn в транзакции на запись. Ошибка fn откатывает транзакцию.
	InTx(ctx context.Context, fn func(tx repository.Tx) error) error
	// ReadTx выполняет fn в транзакции только на чтение.
	ReadTx(ctx context.Context, fn func(tx repository.Tx) error) error
	Close() error
}

// AvailabilityCache кэширует результаты поиска свободных номеров. Данные рекомендательные.
// Load возвращает поколение кэша на момент чтения, Store пишет под этим поколением.
type AvailabilityCache interface {
	Load(ctx context.Context, key string, dst any) (gen int64, ok bool, err error)
	Store(ctx context.Context, gen int64, key string, v any) error
	Invalidate(ctx context.Context) error
}

// Notifier принимает уведомления гостям. Вызов не должен блокировать.
type Notifier interface {
	Notify(guestID int64, message string, metadata map[string]string)
}
