package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/apperr"
	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/model"
	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/repository"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type countingCache struct {
	mu          sync.Mutex
	invalidated int
}

func (c *countingCache) Load(ctx context.Context, key string, dst any) (int64, bool, error) {
	return 0, false, nil
}

func (c *countingCache) Store(ctx context.Context, gen int64, key string, v any) error {
	return nil
}

func (c *countingCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated++
	return nil
}

type notification struct {
	guestID  int64
	message  string
	metadata map[string]string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *recordingNotifier) Notify(guestID int64, message string, metadata map[string]string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{guestID: guestID, message: message, metadata: metadata})
}

type fixture struct {
	svc      *Service
	store    *repository.MemoryStore
	clock    *testClock
	cache    *countingCache
	notifier *recordingNotifier
}

func day(s string) time.Time {
	d, err := model.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newFixture(t *testing.T, mutate ...func(*Options)) *fixture {
	t.Helper()

	store := repository.NewMemoryStore(time.Second)
	store.Seed(repository.DemoFixtures())

	clock := &testClock{now: day("2027-03-01").Add(10 * time.Hour)}
	opts := Options{
		GateTimeout: time.Second,
		Now:         clock.Now,
	}
	for _, m := range mutate {
		m(&opts)
	}

	f := &fixture{
		store:    store,
		clock:    clock,
		cache:    &countingCache{},
		notifier: &recordingNotifier{},
	}
	f.svc = NewService(store, f.cache, f.notifier, nil, opts)
	return f
}

func (f *fixture) roomStatus(t *testing.T, roomID int64) model.RoomStatus {
	t.Helper()
	var status model.RoomStatus
	err := f.store.ReadTx(context.Background(), func(tx repository.Tx) error {
		room, err := tx.GetRoom(context.Background(), roomID)
		if err != nil {
			return err
		}
		status = room.Status
		return nil
	})
	require.NoError(t, err)
	return status
}

func (f *fixture) guest(t *testing.T, guestID int64) *model.Guest {
	t.Helper()
	var g *model.Guest
	err := f.store.ReadTx(context.Background(), func(tx repository.Tx) error {
		var err error
		g, err = tx.GetGuest(context.Background(), guestID)
		return err
	})
	require.NoError(t, err)
	return g
}

func booking(roomID int64, in, out string) CreateRequest {
	return CreateRequest{
		RoomID:     roomID,
		GuestID:    1,
		CheckIn:    day(in),
		CheckOut:   day(out),
		GuestCount: 2,
	}
}

func TestCreateReservation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, err := f.svc.CreateReservation(ctx, booking(1, "2027-04-02", "2027-04-04"))
	require.NoError(t, err)

	assert.NotZero(t, r.ID)
	assert.Len(t, r.ConfirmationCode, 8)
	assert.Equal(t, model.ReservationReserved, r.Status)
	assert.Equal(t, model.PaymentUnpaid, r.PaymentStatus)
	assert.Equal(t, int64(22500), r.TotalPriceCents)

	estimate, err := f.svc.EstimatePrice(ctx, 1, day("2027-04-02"), day("2027-04-04"), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, estimate.TotalCents, r.TotalPriceCents)

	history, err := f.svc.ReservationHistory(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "created", history[0].Action)

	assert.Equal(t, model.RoomStatusAvailable, f.roomStatus(t, 1))
	assert.Equal(t, 1, f.cache.invalidated)
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, r.ConfirmationCode, f.notifier.sent[0].metadata["confirmation_code"])
}

func TestCreateReservationValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  CreateRequest
		want *apperr.Error
	}{
		{
			name: "check-out equals check-in",
			req:  booking(1, "2027-04-02", "2027-04-02"),
			want: apperr.ErrInvalidRange,
		},
		{
			name: "unknown room",
			req:  booking(999, "2027-04-02", "2027-04-04"),
			want: apperr.ErrInvalidRoom,
		},
		{
			name: "unknown guest",
			req: func() CreateRequest {
				r := booking(1, "2027-04-02", "2027-04-04")
				r.GuestID = 42
				return r
			}(),
			want: apperr.ErrInvalidGuest,
		},
		{
			name: "too many guests",
			req: func() CreateRequest {
				r := booking(1, "2027-04-02", "2027-04-04")
				r.GuestCount = 3
				return r
			}(),
			want: apperr.ErrCapacityExceeded,
		},
		{
			name: "negative hours",
			req: func() CreateRequest {
				r := booking(1, "2027-04-02", "2027-04-04")
				r.LateHours = -1
				return r
			}(),
			want: apperr.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateReservation(ctx, tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreateReservationConcurrentSingleWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const callers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		conflict int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CreateReservation(ctx, booking(1, "2027-04-02", "2027-04-05"))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, apperr.ErrRoomNotAvailable):
				conflict++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, callers-1, conflict)
}

func TestTouchingReservationsBothSucceed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateReservation(ctx, booking(1, "2027-04-02", "2027-04-04"))
	require.NoError(t, err)
	_, err = f.svc.CreateReservation(ctx, booking(1, "2027-04-04", "2027-04-06"))
	require.NoError(t, err)

	_, err = f.svc.CreateReservation(ctx, booking(1, "2027-04-03", "2027-04-05"))
	assert.ErrorIs(t, err, apperr.ErrRoomNotAvailable)
}

func TestCreateThenAvailableRoomsExcludesRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	standard := int64(1)

	before, err := f.svc.GetAvailableRooms(ctx, &standard, day("2027-04-02"), day("2027-04-04"))
	require.NoError(t, err)
	require.Len(t, before, 4)

	_, err = f.svc.CreateReservation(ctx, booking(2, "2027-04-01", "2027-04-03"))
	require.NoError(t, err)

	after, err := f.svc.GetAvailableRooms(ctx, &standard, day("2027-04-02"), day("2027-04-04"))
	require.NoError(t, err)
	require.Len(t, after, 3)
	for _, room := range after {
		assert.NotEqual(t, int64(2), room.ID)
	}

	free, err := f.svc.IsAvailable(ctx, 2, day("2027-04-03"), day("2027-04-05"))
	require.NoError(t, err)
	assert.True(t, free)
}

func TestAvailabilityCalendar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	standard := int64(1)

	_, err := f.svc.CreateReservation(ctx, booking(1, "2027-04-02", "2027-04-04"))
	require.NoError(t, err)

	cal, err := f.svc.AvailabilityCalendar(ctx, &standard, day("2027-04-01"), day("2027-04-05"))
	require.NoError(t, err)
	require.Len(t, cal, 1)
	require.Len(t, cal[0].Days, 4)

	available := make([]int, 0, 4)
	for _, d := range cal[0].Days {
		assert.Equal(t, 4, d.Total)
		available = append(available, d.Available)
	}
	assert.Equal(t, []int{4, 3, 3, 4}, available)

	_, err = f.svc.AvailabilityCalendar(ctx, nil, day("2027-01-01"), day("2028-06-01"))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCheckInCheckOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, err := f.svc.CreateReservation(ctx, booking(1, "2027-03-01", "2027-03-03"))
	require.NoError(t, err)
	assert.Equal(t, model.RoomStatusBooked, f.roomStatus(t, 1))

	r, err = f.svc.CheckIn(ctx, r.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationCheckedIn, r.Status)
	assert.Equal(t, model.RoomStatusOccupied, f.roomStatus(t, 1))

	_, err = f.svc.CheckIn(ctx, r.ID, 7)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	r, err = f.svc.CheckOut(ctx, r.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationCheckedOut, r.Status)
	assert.Equal(t, model.RoomStatusNeedsCleaning, f.roomStatus(t, 1))

	g := f.guest(t, 1)
	assert.Equal(t, 1, g.StayCount)
	assert.Equal(t, r.TotalPriceCents, g.TotalSpentCents)

	events := f.store.LoyaltyEvents()
	require.Len(t, events, 1)
	assert.Equal(t, model.LoyaltyEarn, events[0].Kind)
	assert.Equal(t, r.TotalPriceCents*10/100, events[0].Points)
	assert.Equal(t, r.ID, *events[0].ReservationID)

	history, err := f.svc.ReservationHistory(ctx, r.ID)
	require.NoError(t, err)
	actions := make([]string, 0, len(history))
	for _, h := range history {
		actions = append(actions, h.Action)
	}
	assert.Equal(t, []string{"created", "checked_in", "checked_out"}, actions)

	_, err = f.svc.SetRoomStatus(ctx, 1, model.RoomStatusAvailable, 7)
	require.NoError(t, err)
	assert.Equal(t, model.RoomStatusAvailable, f.roomStatus(t, 1))
}

func TestCheckOutSkipCleaning(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.SkipCleaning = true })
	ctx := context.Background()

	r, err := f.svc.CreateReservation(ctx, booking(1, "2027-03-01", "2027-03-03"))
	require.NoError(t, err)
	_, err = f.svc.CheckIn(ctx, r.ID, 7)
	require.NoError(t, err)
	_, err = f.svc.CheckOut(ctx, r.ID, 7)
	require.NoError(t, err)

	assert.Equal(t, model.RoomStatusAvailable, f.roomStatus(t, 1))
}

func TestCheckInOutsideStayDates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, err := f.svc.CreateReservation(ctx, booking(1, "2027-04-02", "2027-04-04"))
	require.NoError(t, err)

	_, err = f.svc.CheckIn(ctx, r.ID, 7)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestCheckInCancelledReservation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, err := f.svc.CreateReservation(ctx, booking(1, "2027-03-01", "2027-03-03"))
	require.NoError(t, err)
	_, err = f.svc.CancelReservation(ctx, r.ID, "plans changed", nil)
	require.NoError(t, err)

	_, err = f.svc.CheckIn(ctx, r.ID, 7)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
}

func TestCheckOutRequiresCheckIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, err := f.svc.CreateReservation(ctx, booking(1, "2027-03-01", "2027-03-03"))
	require.NoError(t, err)

	_, err = f.svc.CheckOut(ctx, r.ID, 7)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestCancelReservationRefundsPoints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := booking(1, "2027-03-03", "2027-03-05")
	req.RedeemPoints = 500
	r, err := f.svc.CreateReservation(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, model.RoomStatusAvailable, f.roomStatus(t, 1))

	cancelled, err := f.svc.CancelReservation(ctx, r.ID, "plans changed", nil)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationCancelled, cancelled.Status)
	assert.Equal(t, "plans changed", cancelled.CancellationReason)
	require.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, r.TotalPriceCents*25/100, cancelled.CancellationFeeCents)

	events := f.store.LoyaltyEvents()
	require.Len(t, events, 2)
	assert.Equal(t, model.LoyaltyRedeem, events[0].Kind)
	assert.Equal(t, int64(-500), events[0].Points)
	assert.Equal(t, model.LoyaltyRefund, events[1].Kind)
	assert.Equal(t, int64(500), events[1].Points)

	_, err = f.svc.CancelReservation(ctx, r.ID, "again", nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	again, err := f.svc.CreateReservation(ctx, booking(1, "2027-03-03", "2027-03-05"))
	require.NoError(t, err)
	assert.NotEqual(t, r.ID, again.ID)
}

func TestCancelCheckedInReservation(t *testing.T) {
	ctx := context.Background()

	f := newFixture(t)
	r, err := f.svc.CreateReservation(ctx, booking(1, "2027-03-01", "2027-03-03"))
	require.NoError(t, err)
	_, err = f.svc.CheckIn(ctx, r.ID, 7)
	require.NoError(t, err)
	_, err = f.svc.CancelReservation(ctx, r.ID, "left early", nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	f = newFixture(t, func(o *Options) { o.AllowCheckedInCancel = true })
	r, err = f.svc.CreateReservation(ctx, booking(1, "2027-03-01", "2027-03-03"))
	require.NoError(t, err)
	_, err = f.svc.CheckIn(ctx, r.ID, 7)
	require.NoError(t, err)
	cancelled, err := f.svc.CancelReservation(ctx, r.ID, "left early", nil)
	require.NoError(t, err)
	assert.Equal(t, r.TotalPriceCents/2, cancelled.CancellationFeeCents)
	assert.Equal(t, model.RoomStatusNeedsCleaning, f.roomStatus(t, 1))
}

func TestCancellationFeePercent(t *testing.T) {
	today := day("2027-03-01")
	tests := []struct {
		checkIn string
		want    int64
	}{
		{"2027-03-01", 50},
		{"2027-03-02", 50},
		{"2027-03-03", 25},
		{"2027-03-04", 25},
		{"2027-03-05", 0},
		{"2027-05-01", 0},
	}
	for _, tt := range tests {
		t.Run(tt.checkIn, func(t *testing.T) {
			assert.Equal(t, tt.want, cancellationFeePercent(today, day(tt.checkIn)))
		})
	}
}

func TestUpdateReservation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, err := f.svc.CreateReservation(ctx, booking(1, "2027-04-02", "2027-04-04"))
	require.NoError(t, err)
	blocker, err := f.svc.CreateReservation(ctx, booking(2, "2027-04-10", "2027-04-12"))
	require.NoError(t, err)

	shiftedIn, shiftedOut := day("2027-04-03"), day("2027-04-05")
	updated, err := f.svc.UpdateReservation(ctx, r.ID, UpdateRequest{CheckIn: &shiftedIn, CheckOut: &shiftedOut})
	require.NoError(t, err)
	assert.Equal(t, shiftedIn, updated.CheckIn)
	assert.Equal(t, int64(12500+12500), updated.TotalPriceCents)

	room2 := int64(2)
	blockedIn, blockedOut := day("2027-04-11"), day("2027-04-13")
	_, err = f.svc.UpdateReservation(ctx, r.ID, UpdateRequest{RoomID: &room2, CheckIn: &blockedIn, CheckOut: &blockedOut})
	assert.ErrorIs(t, err, apperr.ErrRoomNotAvailable)

	late := 2
	moved, err := f.svc.UpdateReservation(ctx, r.ID, UpdateRequest{RoomID: &room2, LateHours: &late})
	require.NoError(t, err)
	assert.Equal(t, room2, moved.RoomID)
	assert.Equal(t, int64(25000+2000), moved.TotalPriceCents)

	free, err := f.svc.IsAvailable(ctx, 1, shiftedIn, shiftedOut)
	require.NoError(t, err)
	assert.True(t, free)

	suiteGuests := 4
	_, err = f.svc.UpdateReservation(ctx, r.ID, UpdateRequest{GuestCount: &suiteGuests})
	assert.ErrorIs(t, err, apperr.ErrCapacityExceeded)

	_, err = f.svc.CancelReservation(ctx, blocker.ID, "", nil)
	require.NoError(t, err)
	_, err = f.svc.UpdateReservation(ctx, blocker.ID, UpdateRequest{GuestCount: &late})
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestSweepOverdue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stay, err := f.svc.CreateReservation(ctx, booking(1, "2027-03-01", "2027-03-03"))
	require.NoError(t, err)
	_, err = f.svc.CheckIn(ctx, stay.ID, 7)
	require.NoError(t, err)

	noShow, err := f.svc.CreateReservation(ctx, booking(2, "2027-03-01", "2027-03-02"))
	require.NoError(t, err)

	upcoming, err := f.svc.CreateReservation(ctx, booking(3, "2027-03-05", "2027-03-07"))
	require.NoError(t, err)

	f.clock.Set(day("2027-03-05").Add(time.Hour))

	res, err := f.svc.SweepOverdue(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.AutoCheckedOut)
	assert.Equal(t, 1, res.MarkedNoShow)
	assert.GreaterOrEqual(t, res.RoomsRefreshed, 2)

	got, err := f.svc.GetReservation(ctx, stay.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationCheckedOut, got.Status)
	got, err = f.svc.GetReservation(ctx, noShow.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationNoShow, got.Status)
	got, err = f.svc.GetReservation(ctx, upcoming.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationReserved, got.Status)

	assert.Equal(t, model.RoomStatusNeedsCleaning, f.roomStatus(t, 1))
	assert.Equal(t, model.RoomStatusAvailable, f.roomStatus(t, 2))
	assert.Equal(t, model.RoomStatusBooked, f.roomStatus(t, 3))
	assert.Equal(t, 1, f.guest(t, 1).StayCount)

	again, err := f.svc.SweepOverdue(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, SweepResult{}, again)
	assert.Equal(t, 1, f.guest(t, 1).StayCount)
}

func TestSweepOverdueContinuesPastBusyRoom(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.GateTimeout = 50 * time.Millisecond })
	ctx := context.Background()

	blocked, err := f.svc.CreateReservation(ctx, booking(1, "2027-03-01", "2027-03-02"))
	require.NoError(t, err)
	noShow, err := f.svc.CreateReservation(ctx, booking(2, "2027-03-01", "2027-03-02"))
	require.NoError(t, err)

	f.clock.Set(day("2027-03-05").Add(time.Hour))

	pass, err := f.svc.gate.Acquire(ctx, 1)
	require.NoError(t, err)

	res, err := f.svc.SweepOverdue(ctx, time.Time{})
	pass.Release()

	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrRoomBusy)
	assert.Equal(t, 1, res.FailedRooms)
	assert.Equal(t, 1, res.MarkedNoShow)

	got, err := f.svc.GetReservation(ctx, noShow.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationNoShow, got.Status)
	got, err = f.svc.GetReservation(ctx, blocked.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationReserved, got.Status)

	res, err = f.svc.SweepOverdue(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.FailedRooms)
	assert.Equal(t, 1, res.MarkedNoShow)
}

func TestSetRoomStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, err := f.svc.SetRoomStatus(ctx, 1, model.RoomStatusUnderMaintenance, 7)
	require.NoError(t, err)
	assert.Equal(t, model.RoomStatusUnderMaintenance, room.Status)

	_, err = f.svc.CreateReservation(ctx, booking(1, "2027-04-02", "2027-04-04"))
	assert.ErrorIs(t, err, apperr.ErrRoomNotAvailable)

	free, err := f.svc.IsAvailable(ctx, 1, day("2027-04-02"), day("2027-04-04"))
	require.NoError(t, err)
	assert.False(t, free)

	_, err = f.svc.SetRoomStatus(ctx, 1, model.RoomStatusOccupied, 7)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	r, err := f.svc.CreateReservation(ctx, booking(2, "2027-03-01", "2027-03-02"))
	require.NoError(t, err)
	_, err = f.svc.CheckIn(ctx, r.ID, 7)
	require.NoError(t, err)
	_, err = f.svc.SetRoomStatus(ctx, 2, model.RoomStatusOutOfService, 7)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestRemoveGuest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	active, err := f.svc.CreateReservation(ctx, booking(1, "2027-03-01", "2027-03-03"))
	require.NoError(t, err)
	_, err = f.svc.CheckIn(ctx, active.ID, 7)
	require.NoError(t, err)

	future := booking(2, "2027-04-02", "2027-04-04")
	future.RedeemPoints = 100
	_, err = f.svc.CreateReservation(ctx, future)
	require.NoError(t, err)

	other := booking(3, "2027-04-02", "2027-04-04")
	other.GuestID = 2
	kept, err := f.svc.CreateReservation(ctx, other)
	require.NoError(t, err)

	require.NoError(t, f.svc.RemoveGuest(ctx, 1, nil))

	_, err = f.svc.GetReservation(ctx, active.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.svc.GetReservation(ctx, kept.ID)
	assert.NoError(t, err)

	assert.Equal(t, model.RoomStatusNeedsCleaning, f.roomStatus(t, 1))
	for _, e := range f.store.LoyaltyEvents() {
		assert.NotEqual(t, int64(1), e.GuestID)
	}

	free, err := f.svc.IsAvailable(ctx, 2, day("2027-04-02"), day("2027-04-04"))
	require.NoError(t, err)
	assert.True(t, free)

	err = f.svc.RemoveGuest(ctx, 1, nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidGuest)
}

func TestGetReservationNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetReservation(context.Background(), 404)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.svc.ReservationHistory(context.Background(), 404)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAuthoritativeCheckRequiresGate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stay := model.NewDateRange(day("2027-04-02"), day("2027-04-04"))

	err := f.store.ReadTx(ctx, func(tx repository.Tx) error {
		_, err := isAvailable(ctx, tx, nil, 1, stay, Authoritative, 0)
		return err
	})
	assert.ErrorIs(t, err, errGateNotHeld)

	pass, err := f.svc.gate.Acquire(ctx, 1)
	require.NoError(t, err)
	defer pass.Release()

	err = f.store.ReadTx(ctx, func(tx repository.Tx) error {
		ok, err := isAvailable(ctx, tx, pass, 1, stay, Authoritative, 0)
		assert.True(t, ok)
		return err
	})
	assert.NoError(t, err)
}
