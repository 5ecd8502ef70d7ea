package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/model"
)

// Fixtures содержит справочные данные отеля для заполнения хранилища в памяти.
type Fixtures struct {
	RoomTypes []model.RoomType
	Rooms     []model.Room
	Guests    []model.Guest
	Periods   []model.RatePeriod
}

// MemoryStore хранит данные отеля в памяти процесса. Используется в тестах и при запуске без БД.
//
// Транзакция пишет в собственный буфер и применяет его при фиксации под общей блокировкой.
// Перед применением повторно проверяется отсутствие пересечений активных броней.
type MemoryStore struct {
	mu sync.RWMutex

	roomTypes    map[int64]model.RoomType
	rooms        map[int64]model.Room
	periods      []model.RatePeriod
	guests       map[int64]model.Guest
	reservations map[int64]model.Reservation
	codes        map[string]int64
	bookingLogs  []model.BookingLog
	roomLogs     []model.RoomStatusLog
	events       []model.LoyaltyEvent

	nextReservationID int64

	locksMu     sync.Mutex
	rowLocks    map[int64]chan struct{}
	lockTimeout time.Duration

	now func() time.Time
}

// NewMemoryStore создаёт пустое хранилище в памяти.
func NewMemoryStore(lockTimeout time.Duration) *MemoryStore {
	if lockTimeout <= 0 {
		lockTimeout = 5 * time.Second
	}
	return &MemoryStore{
		roomTypes:    map[int64]model.RoomType{},
		rooms:        map[int64]model.Room{},
		guests:       map[int64]model.Guest{},
		reservations: map[int64]model.Reservation{},
		codes:        map[string]int64{},
		rowLocks:     map[int64]chan struct{}{},
		lockTimeout:  lockTimeout,
		now:          time.Now,
	}
}

// Seed добавляет справочные данные.
func (s *MemoryStore) Seed(f Fixtures) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rt := range f.RoomTypes {
		s.roomTypes[rt.ID] = rt
	}
	for _, r := range f.Rooms {
		if r.Status == "" {
			r.Status = model.RoomStatusAvailable
		}
		s.rooms[r.ID] = r
	}
	for _, g := range f.Guests {
		s.guests[g.ID] = g
	}
	s.periods = append(s.periods, f.Periods...)
}

// Close ничего не делает, хранилище живёт вместе с процессом.
func (s *MemoryStore) Close() error {
	return nil
}

// InTx выполняет fn в транзакции на запись.
func (s *MemoryStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	tx := s.begin(false)
	defer tx.releaseLocks()

	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.commit(tx)
}

// ReadTx выполняет fn в транзакции только на чтение.
func (s *MemoryStore) ReadTx(ctx context.Context, fn func(tx Tx) error) error {
	tx := s.begin(true)
	defer tx.releaseLocks()
	return fn(tx)
}

func (s *MemoryStore) begin(readOnly bool) *memTx {
	return &memTx{
		s:            s,
		readOnly:     readOnly,
		rooms:        map[int64]model.Room{},
		reservations: map[int64]model.Reservation{},
		guestDeltas:  map[int64]guestDelta{},
		deletedGuest: map[int64]bool{},
		purgedGuest:  map[int64]bool{},
		locked:       map[int64]bool{},
	}
}

func (s *MemoryStore) commit(tx *memTx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, r := range tx.reservations {
		if !r.Status.Active() {
			continue
		}
		for otherID, other := range s.reservations {
			if otherID == id || other.RoomID != r.RoomID || !other.Status.Active() {
				continue
			}
			if pending, ok := tx.reservations[otherID]; ok && !pending.Status.Active() {
				continue
			}
			if r.Range().Overlaps(other.Range()) {
				return fmt.Errorf("%w: reservation %d conflicts with %d", ErrOverlap, id, otherID)
			}
		}
		if owner, ok := s.codes[r.ConfirmationCode]; ok && owner != id {
			return fmt.Errorf("confirmation code %s already taken", r.ConfirmationCode)
		}
	}

	for id, r := range tx.rooms {
		s.rooms[id] = r
	}
	for id, r := range tx.reservations {
		s.reservations[id] = r
		s.codes[r.ConfirmationCode] = id
	}
	for id, d := range tx.guestDeltas {
		g, ok := s.guests[id]
		if !ok {
			continue
		}
		g.StayCount += d.stays
		g.TotalSpentCents += d.spentCents
		s.guests[id] = g
	}
	s.bookingLogs = append(s.bookingLogs, tx.bookingLogs...)
	s.roomLogs = append(s.roomLogs, tx.roomLogs...)
	s.events = append(s.events, tx.events...)

	for guestID := range tx.purgedGuest {
		s.purgeReservations(guestID)
	}
	for guestID := range tx.deletedGuest {
		delete(s.guests, guestID)
	}

	return nil
}

func (s *MemoryStore) purgeReservations(guestID int64) {
	removed := map[int64]bool{}
	for id, r := range s.reservations {
		if r.GuestID == guestID {
			removed[id] = true
			delete(s.codes, r.ConfirmationCode)
			delete(s.reservations, id)
		}
	}

	logs := s.bookingLogs[:0]
	for _, l := range s.bookingLogs {
		if !removed[l.ReservationID] {
			logs = append(logs, l)
		}
	}
	s.bookingLogs = logs

	events := s.events[:0]
	for _, e := range s.events {
		if e.GuestID != guestID {
			events = append(events, e)
		}
	}
	s.events = events
}

// lockRoom захватывает блокировку строки номера, аналог SELECT ... FOR UPDATE.
func (s *MemoryStore) lockRoom(ctx context.Context, id int64) error {
	s.locksMu.Lock()
	ch, ok := s.rowLocks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		s.rowLocks[id] = ch
	}
	s.locksMu.Unlock()

	timer := time.NewTimer(s.lockTimeout)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		return nil
	case <-timer.C:
		return ErrLockTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *MemoryStore) unlockRoom(id int64) {
	s.locksMu.Lock()
	ch := s.rowLocks[id]
	s.locksMu.Unlock()
	<-ch
}

// ListPendingLoyaltyEvents возвращает недоставленные события: сначала с меньшим числом
// попыток, при равенстве в порядке создания.
func (s *MemoryStore) ListPendingLoyaltyEvents(ctx context.Context, limit int) ([]model.LoyaltyEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var res []model.LoyaltyEvent
	for _, e := range s.events {
		if !e.Delivered {
			res = append(res, e)
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Attempts < res[j].Attempts
	})
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

// MarkLoyaltyDelivered отмечает событие доставленным.
func (s *MemoryStore) MarkLoyaltyDelivered(ctx context.Context, id string) error {
	return s.updateEvent(id, func(e *model.LoyaltyEvent) {
		e.Delivered = true
		e.Attempts++
		e.LastError = ""
	})
}

// MarkLoyaltyFailed фиксирует неудачную попытку доставки.
func (s *MemoryStore) MarkLoyaltyFailed(ctx context.Context, id string, reason string) error {
	return s.updateEvent(id, func(e *model.LoyaltyEvent) {
		e.Attempts++
		e.LastError = reason
	})
}

func (s *MemoryStore) updateEvent(id string, fn func(e *model.LoyaltyEvent)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.events {
		if s.events[i].ID == id {
			fn(&s.events[i])
			return nil
		}
	}
	return ErrNotFound
}

// LoyaltyEvents возвращает копию журнала событий лояльности.
func (s *MemoryStore) LoyaltyEvents() []model.LoyaltyEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.LoyaltyEvent(nil), s.events...)
}

// RoomStatusLogs возвращает копию журнала смены состояний номеров.
func (s *MemoryStore) RoomStatusLogs() []model.RoomStatusLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.RoomStatusLog(nil), s.roomLogs...)
}

type guestDelta struct {
	stays      int
	spentCents int64
}

type memTx struct {
	s        *MemoryStore
	readOnly bool

	rooms        map[int64]model.Room
	reservations map[int64]model.Reservation
	guestDeltas  map[int64]guestDelta
	deletedGuest map[int64]bool
	purgedGuest  map[int64]bool
	bookingLogs  []model.BookingLog
	roomLogs     []model.RoomStatusLog
	events       []model.LoyaltyEvent

	locked map[int64]bool
}

var _ Tx = (*memTx)(nil)

func (t *memTx) releaseLocks() {
	for id := range t.locked {
		t.s.unlockRoom(id)
	}
	t.locked = map[int64]bool{}
}

func (t *memTx) writable() error {
	if t.readOnly {
		return ErrReadOnly
	}
	return nil
}

func (t *memTx) GetRoom(ctx context.Context, id int64) (*model.Room, error) {
	if r, ok := t.rooms[id]; ok {
		return &r, nil
	}

	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	r, ok := t.s.rooms[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (t *memTx) LockRoom(ctx context.Context, id int64) (*model.Room, error) {
	if _, err := t.GetRoom(ctx, id); err != nil {
		return nil, err
	}
	if !t.locked[id] {
		if err := t.s.lockRoom(ctx, id); err != nil {
			return nil, err
		}
		t.locked[id] = true
	}
	return t.GetRoom(ctx, id)
}

func (t *memTx) ListRooms(ctx context.Context, roomTypeID *int64) ([]model.Room, error) {
	t.s.mu.RLock()
	rooms := make([]model.Room, 0, len(t.s.rooms))
	for id, r := range t.s.rooms {
		if pending, ok := t.rooms[id]; ok {
			r = pending
		}
		if roomTypeID != nil && r.RoomTypeID != *roomTypeID {
			continue
		}
		rooms = append(rooms, r)
	}
	t.s.mu.RUnlock()

	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
	return rooms, nil
}

func (t *memTx) SetRoomStatus(ctx context.Context, entry model.RoomStatusLog) error {
	if err := t.writable(); err != nil {
		return err
	}
	room, err := t.GetRoom(ctx, entry.RoomID)
	if err != nil {
		return err
	}
	if room.Status == entry.NewStatus {
		return nil
	}

	entry.OldStatus = room.Status
	entry.CreatedAt = t.s.now()
	room.Status = entry.NewStatus
	t.rooms[room.ID] = *room
	t.roomLogs = append(t.roomLogs, entry)
	return nil
}

func (t *memTx) GetRoomType(ctx context.Context, id int64) (*model.RoomType, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	rt, ok := t.s.roomTypes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &rt, nil
}

func (t *memTx) ListRoomTypes(ctx context.Context) ([]model.RoomType, error) {
	t.s.mu.RLock()
	res := make([]model.RoomType, 0, len(t.s.roomTypes))
	for _, rt := range t.s.roomTypes {
		res = append(res, rt)
	}
	t.s.mu.RUnlock()

	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (t *memTx) ListRatePeriods(ctx context.Context, from, to time.Time) ([]model.RatePeriod, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	var res []model.RatePeriod
	for _, p := range t.s.periods {
		if model.Day(p.EndDate).Before(model.Day(from)) || !model.Day(p.StartDate).Before(model.Day(to)) {
			continue
		}
		res = append(res, p)
	}
	return res, nil
}

func (t *memTx) GetGuest(ctx context.Context, id int64) (*model.Guest, error) {
	if t.deletedGuest[id] {
		return nil, ErrNotFound
	}

	t.s.mu.RLock()
	g, ok := t.s.guests[id]
	t.s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	d := t.guestDeltas[id]
	g.StayCount += d.stays
	g.TotalSpentCents += d.spentCents
	return &g, nil
}

func (t *memTx) AddGuestStay(ctx context.Context, guestID int64, spentCents int64) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, err := t.GetGuest(ctx, guestID); err != nil {
		return err
	}
	d := t.guestDeltas[guestID]
	d.stays++
	d.spentCents += spentCents
	t.guestDeltas[guestID] = d
	return nil
}

func (t *memTx) DeleteGuest(ctx context.Context, guestID int64) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, err := t.GetGuest(ctx, guestID); err != nil {
		return err
	}
	t.deletedGuest[guestID] = true
	delete(t.guestDeltas, guestID)
	return nil
}

// allReservations возвращает committed-состояние броней с наложенными изменениями транзакции.
func (t *memTx) allReservations() []model.Reservation {
	t.s.mu.RLock()
	merged := make(map[int64]model.Reservation, len(t.s.reservations)+len(t.reservations))
	for id, r := range t.s.reservations {
		merged[id] = r
	}
	t.s.mu.RUnlock()

	for id, r := range t.reservations {
		merged[id] = r
	}

	res := make([]model.Reservation, 0, len(merged))
	for _, r := range merged {
		if t.purgedGuest[r.GuestID] {
			continue
		}
		res = append(res, r)
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].CheckIn.Equal(res[j].CheckIn) {
			return res[i].CheckIn.Before(res[j].CheckIn)
		}
		return res[i].ID < res[j].ID
	})
	return res
}

func (t *memTx) GetReservation(ctx context.Context, id int64) (*model.Reservation, error) {
	if r, ok := t.reservations[id]; ok {
		return &r, nil
	}

	t.s.mu.RLock()
	r, ok := t.s.reservations[id]
	t.s.mu.RUnlock()
	if !ok || t.purgedGuest[r.GuestID] {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (t *memTx) FindOverlapping(ctx context.Context, roomID int64, dr model.DateRange, excludeID int64) ([]model.Reservation, error) {
	var res []model.Reservation
	for _, r := range t.allReservations() {
		if r.RoomID != roomID || r.ID == excludeID || !r.Status.Active() {
			continue
		}
		if r.Range().Overlaps(dr) {
			res = append(res, r)
		}
	}
	return res, nil
}

func (t *memTx) ListActiveInRange(ctx context.Context, dr model.DateRange) ([]model.Reservation, error) {
	var res []model.Reservation
	for _, r := range t.allReservations() {
		if r.Status.Active() && r.Range().Overlaps(dr) {
			res = append(res, r)
		}
	}
	return res, nil
}

func (t *memTx) ListActiveByRoom(ctx context.Context, roomID int64) ([]model.Reservation, error) {
	var res []model.Reservation
	for _, r := range t.allReservations() {
		if r.RoomID == roomID && r.Status.Active() {
			res = append(res, r)
		}
	}
	return res, nil
}

func (t *memTx) ListReservationsByGuest(ctx context.Context, guestID int64) ([]model.Reservation, error) {
	var res []model.Reservation
	for _, r := range t.allReservations() {
		if r.GuestID == guestID {
			res = append(res, r)
		}
	}
	return res, nil
}

func (t *memTx) ListOverdue(ctx context.Context, today time.Time) ([]model.Reservation, error) {
	day := model.Day(today)

	var res []model.Reservation
	for _, r := range t.allReservations() {
		switch r.Status {
		case model.ReservationReserved:
			if model.Day(r.CheckIn).Before(day) {
				res = append(res, r)
			}
		case model.ReservationCheckedIn:
			if model.Day(r.CheckOut).Before(day) {
				res = append(res, r)
			}
		}
	}
	return res, nil
}

func (t *memTx) InsertReservation(ctx context.Context, r *model.Reservation) error {
	if err := t.writable(); err != nil {
		return err
	}

	code, err := t.freeCode()
	if err != nil {
		return err
	}

	t.s.mu.Lock()
	t.s.nextReservationID++
	id := t.s.nextReservationID
	t.s.mu.Unlock()

	now := t.s.now()
	r.ID = id
	r.ConfirmationCode = code
	r.CreatedAt = now
	r.UpdatedAt = now
	t.reservations[id] = *r
	return nil
}

func (t *memTx) freeCode() (string, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	for i := 0; i < maxCodeAttempts; i++ {
		code := newConfirmationCode()
		if _, taken := t.s.codes[code]; taken {
			continue
		}
		clash := false
		for _, r := range t.reservations {
			if r.ConfirmationCode == code {
				clash = true
				break
			}
		}
		if !clash {
			return code, nil
		}
	}
	return "", fmt.Errorf("generate confirmation code: %d attempts exhausted", maxCodeAttempts)
}

func (t *memTx) UpdateReservation(ctx context.Context, r *model.Reservation) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, err := t.GetReservation(ctx, r.ID); err != nil {
		return err
	}
	r.UpdatedAt = t.s.now()
	t.reservations[r.ID] = *r
	return nil
}

func (t *memTx) DeleteReservationsByGuest(ctx context.Context, guestID int64) error {
	if err := t.writable(); err != nil {
		return err
	}
	for id, r := range t.reservations {
		if r.GuestID == guestID {
			delete(t.reservations, id)
		}
	}
	t.purgedGuest[guestID] = true
	return nil
}

func (t *memTx) AppendBookingLog(ctx context.Context, entry model.BookingLog) error {
	if err := t.writable(); err != nil {
		return err
	}
	entry.CreatedAt = t.s.now()
	t.bookingLogs = append(t.bookingLogs, entry)
	return nil
}

func (t *memTx) ListBookingLogs(ctx context.Context, reservationID int64) ([]model.BookingLog, error) {
	t.s.mu.RLock()
	var res []model.BookingLog
	for _, l := range t.s.bookingLogs {
		if l.ReservationID == reservationID {
			res = append(res, l)
		}
	}
	t.s.mu.RUnlock()

	for _, l := range t.bookingLogs {
		if l.ReservationID == reservationID {
			res = append(res, l)
		}
	}
	return res, nil
}

func (t *memTx) InsertLoyaltyEvent(ctx context.Context, e *model.LoyaltyEvent) error {
	if err := t.writable(); err != nil {
		return err
	}
	e.CreatedAt = t.s.now()
	t.events = append(t.events, *e)
	return nil
}
