package service

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/apperr"
)

// Gate обеспечивает взаимное исключение операций над одним номером внутри процесса.
// Ожидающие получают номер в порядке прихода. Между процессами операции сериализует
// блокировка строки номера в транзакции.
type Gate struct {
	mu      sync.Mutex
	slots   map[int64]chan struct{}
	timeout time.Duration
}

// NewGate создаёт шлюз с ограничением времени ожидания.
func NewGate(timeout time.Duration) *Gate {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Gate{
		slots:   map[int64]chan struct{}{},
		timeout: timeout,
	}
}

// Pass подтверждает, что вызывающий владеет перечисленными номерами.
type Pass struct {
	gate  *Gate
	rooms []int64
	once  sync.Once
}

func (g *Gate) slot(roomID int64) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()

	ch, ok := g.slots[roomID]
	if !ok {
		ch = make(chan struct{}, 1)
		g.slots[roomID] = ch
	}
	return ch
}

// Acquire захватывает номера по возрастанию идентификаторов.
// Если время ожидания истекло, возвращается ошибка ROOM_BUSY.
func (g *Gate) Acquire(ctx context.Context, roomIDs ...int64) (*Pass, error) {
	ids := slices.Clone(roomIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	p := &Pass{gate: g}

	timer := time.NewTimer(g.timeout)
	defer timer.Stop()

	for _, id := range ids {
		select {
		case g.slot(id) <- struct{}{}:
			p.rooms = append(p.rooms, id)
		case <-timer.C:
			p.Release()
			return nil, apperr.Wrap(apperr.KindRoomBusy, fmt.Sprintf("room %d is busy, retry later", id), context.DeadlineExceeded)
		case <-ctx.Done():
			p.Release()
			return nil, fmt.Errorf("acquire room %d: %w", id, ctx.Err())
		}
	}

	return p, nil
}

// Holds сообщает, захвачен ли номер этим пропуском.
func (p *Pass) Holds(roomID int64) bool {
	if p == nil {
		return false
	}
	return slices.Contains(p.rooms, roomID)
}

// Release освобождает номера в обратном порядке. Повторный вызов ничего не делает.
func (p *Pass) Release() {
	if p == nil {
		return
	}
	p.once.Do(func() {
		for i := len(p.rooms) - 1; i >= 0; i-- {
			<-p.gate.slot(p.rooms[i])
		}
		p.rooms = nil
	})
}
