package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var retryDelays = []time.Duration{100 * time.Millisecond, 300 * time.Millisecond, 500 * time.Millisecond}

// PostgresStore хранит данные отеля в PostgreSQL.
type PostgresStore struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// NewPostgresStore подключается к БД и применяет миграции.
// lockTimeout ограничивает ожидание блокировки строки номера внутри транзакции.
func NewPostgresStore(dsn string, lockTimeout time.Duration) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if lockTimeout <= 0 {
		lockTimeout = 5 * time.Second
	}
	s := &PostgresStore{pool: pool, lockTimeout: lockTimeout}

	if err := s.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

func (s *PostgresStore) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// Close закрывает пул соединений с БД.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// InTx выполняет fn в транзакции READ COMMITTED. Сбои сериализации и взаимоблокировки повторяются.
func (s *PostgresStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return s.withRetry(ctx, func() error {
		return s.runTx(ctx, pgx.TxOptions{}, fn)
	})
}

// ReadTx выполняет fn в транзакции только на чтение.
func (s *PostgresStore) ReadTx(ctx context.Context, fn func(tx Tx) error) error {
	return s.withRetry(ctx, func() error {
		return s.runTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly}, fn)
	})
}

func (s *PostgresStore) runTx(ctx context.Context, opts pgx.TxOptions, fn func(tx Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `SELECT set_config('lock_timeout', $1, true)`,
		fmt.Sprintf("%dms", s.lockTimeout.Milliseconds()))
	if err != nil {
		return fmt.Errorf("set lock timeout: %w", err)
	}

	if err := fn(&pgTx{tx: tx}); err != nil {
		return mapPgError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return mapPgError(fmt.Errorf("commit tx: %w", err))
	}

	return nil
}

// mapPgError переводит нарушения ограничений в ошибки пакета, сохраняя исходную причину.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgerrcode.LockNotAvailable:
		return fmt.Errorf("%w: %w", ErrLockTimeout, err)
	case pgerrcode.ExclusionViolation:
		return fmt.Errorf("%w: %w", ErrOverlap, err)
	case pgerrcode.UniqueViolation:
		if pgErr.ConstraintName == "reservations_no_overlap" {
			return fmt.Errorf("%w: %w", ErrOverlap, err)
		}
	}
	return err
}

func (s *PostgresStore) withRetry(ctx context.Context, fn func() error) error {
	var err error

	for i := 0; i <= len(retryDelays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		if !isRetryable(err) || i == len(retryDelays) {
			break
		}

		timer := time.NewTimer(retryDelays[i])
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
	}
	return isConnectionError(err)
}

func isConnectionError(err error) bool {
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// ListPendingLoyaltyEvents возвращает недоставленные события: сначала с меньшим числом
// попыток, при равенстве в порядке создания.
func (s *PostgresStore) ListPendingLoyaltyEvents(ctx context.Context, limit int) ([]model.LoyaltyEvent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, guest_id, reservation_id, points, kind, reason, created_at, attempts, COALESCE(last_error, '')
		 FROM loyalty_outbox
		 WHERE delivered_at IS NULL
		 ORDER BY attempts, created_at
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select loyalty outbox: %w", err)
	}
	defer rows.Close()

	var res []model.LoyaltyEvent
	for rows.Next() {
		var (
			e    model.LoyaltyEvent
			kind string
		)
		if err := rows.Scan(&e.ID, &e.GuestID, &e.ReservationID, &e.Points, &kind, &e.Reason, &e.CreatedAt, &e.Attempts, &e.LastError); err != nil {
			return nil, fmt.Errorf("scan loyalty event: %w", err)
		}
		e.Kind = model.LoyaltyEventKind(kind)
		res = append(res, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// MarkLoyaltyDelivered отмечает событие доставленным.
func (s *PostgresStore) MarkLoyaltyDelivered(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE loyalty_outbox SET delivered_at = now(), attempts = attempts + 1, last_error = NULL WHERE id = $1::text::uuid`,
		id,
	)
	if err != nil {
		return fmt.Errorf("mark loyalty delivered: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkLoyaltyFailed фиксирует неудачную попытку доставки.
func (s *PostgresStore) MarkLoyaltyFailed(ctx context.Context, id string, reason string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE loyalty_outbox SET attempts = attempts + 1, last_error = $2 WHERE id = $1::text::uuid`,
		id, reason,
	)
	if err != nil {
		return fmt.Errorf("mark loyalty failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Tx = (*pgTx)(nil)

type pgTx struct {
	tx pgx.Tx
}

type rowScanner interface {
	Scan(dest ...any) error
}

var activeStatuses = []string{string(model.ReservationReserved), string(model.ReservationCheckedIn)}

const roomColumns = `id, number, floor, room_type_id, status`

func scanRoom(row rowScanner) (*model.Room, error) {
	var (
		r      model.Room
		status string
	)
	if err := row.Scan(&r.ID, &r.Number, &r.Floor, &r.RoomTypeID, &status); err != nil {
		return nil, err
	}
	r.Status = model.RoomStatus(status)
	return &r, nil
}

func (t *pgTx) GetRoom(ctx context.Context, id int64) (*model.Room, error) {
	r, err := scanRoom(t.tx.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get room: %w", err)
	}
	return r, nil
}

func (t *pgTx) LockRoom(ctx context.Context, id int64) (*model.Room, error) {
	r, err := scanRoom(t.tx.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock room for update: %w", mapPgError(err))
	}
	return r, nil
}

func (t *pgTx) ListRooms(ctx context.Context, roomTypeID *int64) ([]model.Room, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+roomColumns+`
		 FROM rooms
		 WHERE $1::bigint IS NULL OR room_type_id = $1
		 ORDER BY id`,
		roomTypeID,
	)
	if err != nil {
		return nil, fmt.Errorf("select rooms: %w", err)
	}
	defer rows.Close()

	var res []model.Room
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		res = append(res, *r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

func (t *pgTx) SetRoomStatus(ctx context.Context, entry model.RoomStatusLog) error {
	var old string
	err := t.tx.QueryRow(ctx, `SELECT status FROM rooms WHERE id = $1`, entry.RoomID).Scan(&old)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("select room status: %w", err)
	}
	if model.RoomStatus(old) == entry.NewStatus {
		return nil
	}

	if _, err := t.tx.Exec(ctx, `UPDATE rooms SET status = $2 WHERE id = $1`, entry.RoomID, string(entry.NewStatus)); err != nil {
		return fmt.Errorf("update room status: %w", err)
	}

	_, err = t.tx.Exec(ctx,
		`INSERT INTO room_status_logs (room_id, old_status, new_status, actor_id, notes) VALUES ($1, $2, $3, $4, $5)`,
		entry.RoomID, old, string(entry.NewStatus), entry.ActorID, entry.Notes,
	)
	if err != nil {
		return fmt.Errorf("insert room status log: %w", err)
	}

	return nil
}

const roomTypeColumns = `id, name, base_rate_cents, capacity,
	weekend_multiplier, peak_season_multiplier, special_event_multiplier,
	last_minute_discount, extended_stay_discount`

func scanRoomType(row rowScanner) (*model.RoomType, error) {
	var rt model.RoomType
	err := row.Scan(&rt.ID, &rt.Name, &rt.BaseRateCents, &rt.Capacity,
		&rt.Rules.WeekendMultiplier, &rt.Rules.PeakSeasonMultiplier, &rt.Rules.SpecialEventMultiplier,
		&rt.Rules.LastMinuteDiscount, &rt.Rules.ExtendedStayDiscount)
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

func (t *pgTx) GetRoomType(ctx context.Context, id int64) (*model.RoomType, error) {
	rt, err := scanRoomType(t.tx.QueryRow(ctx, `SELECT `+roomTypeColumns+` FROM room_types WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get room type: %w", err)
	}
	return rt, nil
}

func (t *pgTx) ListRoomTypes(ctx context.Context) ([]model.RoomType, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+roomTypeColumns+` FROM room_types ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select room types: %w", err)
	}
	defer rows.Close()

	var res []model.RoomType
	for rows.Next() {
		rt, err := scanRoomType(rows)
		if err != nil {
			return nil, fmt.Errorf("scan room type: %w", err)
		}
		res = append(res, *rt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

func (t *pgTx) ListRatePeriods(ctx context.Context, from, to time.Time) ([]model.RatePeriod, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT id, room_type_id, kind, name, start_date, end_date
		 FROM rate_periods
		 WHERE start_date < $2 AND end_date >= $1
		 ORDER BY start_date, id`,
		model.Day(from), model.Day(to),
	)
	if err != nil {
		return nil, fmt.Errorf("select rate periods: %w", err)
	}
	defer rows.Close()

	var res []model.RatePeriod
	for rows.Next() {
		var (
			p    model.RatePeriod
			kind string
		)
		if err := rows.Scan(&p.ID, &p.RoomTypeID, &kind, &p.Name, &p.StartDate, &p.EndDate); err != nil {
			return nil, fmt.Errorf("scan rate period: %w", err)
		}
		p.Kind = model.RatePeriodKind(kind)
		res = append(res, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

func (t *pgTx) GetGuest(ctx context.Context, id int64) (*model.Guest, error) {
	var g model.Guest
	err := t.tx.QueryRow(ctx,
		`SELECT id, name, email, stay_count, total_spent_cents FROM guests WHERE id = $1`,
		id,
	).Scan(&g.ID, &g.Name, &g.Email, &g.StayCount, &g.TotalSpentCents)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get guest: %w", err)
	}
	return &g, nil
}

func (t *pgTx) AddGuestStay(ctx context.Context, guestID int64, spentCents int64) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE guests SET stay_count = stay_count + 1, total_spent_cents = total_spent_cents + $2 WHERE id = $1`,
		guestID, spentCents,
	)
	if err != nil {
		return fmt.Errorf("update guest stats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *pgTx) DeleteGuest(ctx context.Context, guestID int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM guests WHERE id = $1`, guestID)
	if err != nil {
		return fmt.Errorf("delete guest: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const reservationColumns = `id, confirmation_code, room_id, guest_id, check_in, check_out, guest_count, status,
	early_hours, late_hours, total_price_cents, payment_status, redeemed_points,
	cancellation_reason, cancellation_fee_cents, cancelled_at, created_at, updated_at`

func scanReservation(row rowScanner) (*model.Reservation, error) {
	var (
		r             model.Reservation
		status        string
		paymentStatus string
	)
	err := row.Scan(&r.ID, &r.ConfirmationCode, &r.RoomID, &r.GuestID, &r.CheckIn, &r.CheckOut, &r.GuestCount, &status,
		&r.EarlyHours, &r.LateHours, &r.TotalPriceCents, &paymentStatus, &r.RedeemedPoints,
		&r.CancellationReason, &r.CancellationFeeCents, &r.CancelledAt, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.Status = model.ReservationStatus(status)
	r.PaymentStatus = model.PaymentStatus(paymentStatus)
	return &r, nil
}

func (t *pgTx) queryReservations(ctx context.Context, query string, args ...any) ([]model.Reservation, error) {
	rows, err := t.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select reservations: %w", err)
	}
	defer rows.Close()

	var res []model.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		res = append(res, *r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

func (t *pgTx) GetReservation(ctx context.Context, id int64) (*model.Reservation, error) {
	r, err := scanReservation(t.tx.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return r, nil
}

func (t *pgTx) FindOverlapping(ctx context.Context, roomID int64, dr model.DateRange, excludeID int64) ([]model.Reservation, error) {
	return t.queryReservations(ctx,
		`SELECT `+reservationColumns+`
		 FROM reservations
		 WHERE room_id = $1
		   AND status = ANY($2)
		   AND check_in < $4 AND $3 < check_out
		   AND id <> $5
		 ORDER BY check_in`,
		roomID, activeStatuses, model.Day(dr.CheckIn), model.Day(dr.CheckOut), excludeID,
	)
}

func (t *pgTx) ListActiveInRange(ctx context.Context, dr model.DateRange) ([]model.Reservation, error) {
	return t.queryReservations(ctx,
		`SELECT `+reservationColumns+`
		 FROM reservations
		 WHERE status = ANY($1) AND check_in < $3 AND $2 < check_out
		 ORDER BY room_id, check_in`,
		activeStatuses, model.Day(dr.CheckIn), model.Day(dr.CheckOut),
	)
}

func (t *pgTx) ListActiveByRoom(ctx context.Context, roomID int64) ([]model.Reservation, error) {
	return t.queryReservations(ctx,
		`SELECT `+reservationColumns+`
		 FROM reservations
		 WHERE room_id = $1 AND status = ANY($2)
		 ORDER BY check_in`,
		roomID, activeStatuses,
	)
}

func (t *pgTx) ListReservationsByGuest(ctx context.Context, guestID int64) ([]model.Reservation, error) {
	return t.queryReservations(ctx,
		`SELECT `+reservationColumns+`
		 FROM reservations
		 WHERE guest_id = $1
		 ORDER BY check_in, id`,
		guestID,
	)
}

func (t *pgTx) ListOverdue(ctx context.Context, today time.Time) ([]model.Reservation, error) {
	return t.queryReservations(ctx,
		`SELECT `+reservationColumns+`
		 FROM reservations
		 WHERE (status = $1 AND check_in < $3)
		    OR (status = $2 AND check_out < $3)
		 ORDER BY room_id, check_in`,
		string(model.ReservationReserved), string(model.ReservationCheckedIn), model.Day(today),
	)
}

func (t *pgTx) InsertReservation(ctx context.Context, r *model.Reservation) error {
	for i := 0; i < maxCodeAttempts; i++ {
		code := newConfirmationCode()

		err := t.tx.QueryRow(ctx,
			`INSERT INTO reservations (confirmation_code, room_id, guest_id, check_in, check_out, guest_count, status,
				early_hours, late_hours, total_price_cents, payment_status, redeemed_points)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			 ON CONFLICT (confirmation_code) DO NOTHING
			 RETURNING id, created_at, updated_at`,
			code, r.RoomID, r.GuestID, model.Day(r.CheckIn), model.Day(r.CheckOut), r.GuestCount, string(r.Status),
			r.EarlyHours, r.LateHours, r.TotalPriceCents, string(r.PaymentStatus), r.RedeemedPoints,
		).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return fmt.Errorf("insert reservation: %w", mapPgError(err))
		}

		r.ConfirmationCode = code
		return nil
	}

	return fmt.Errorf("generate confirmation code: %d attempts exhausted", maxCodeAttempts)
}

func (t *pgTx) UpdateReservation(ctx context.Context, r *model.Reservation) error {
	err := t.tx.QueryRow(ctx,
		`UPDATE reservations SET
			room_id = $2, check_in = $3, check_out = $4, guest_count = $5, status = $6,
			early_hours = $7, late_hours = $8, total_price_cents = $9, payment_status = $10,
			redeemed_points = $11, cancellation_reason = $12, cancellation_fee_cents = $13,
			cancelled_at = $14, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at`,
		r.ID, r.RoomID, model.Day(r.CheckIn), model.Day(r.CheckOut), r.GuestCount, string(r.Status),
		r.EarlyHours, r.LateHours, r.TotalPriceCents, string(r.PaymentStatus),
		r.RedeemedPoints, r.CancellationReason, r.CancellationFeeCents, r.CancelledAt,
	).Scan(&r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update reservation: %w", mapPgError(err))
	}
	return nil
}

func (t *pgTx) DeleteReservationsByGuest(ctx context.Context, guestID int64) error {
	_, err := t.tx.Exec(ctx,
		`DELETE FROM booking_logs WHERE reservation_id IN (SELECT id FROM reservations WHERE guest_id = $1)`,
		guestID,
	)
	if err != nil {
		return fmt.Errorf("delete booking logs: %w", err)
	}

	if _, err := t.tx.Exec(ctx, `DELETE FROM loyalty_outbox WHERE guest_id = $1`, guestID); err != nil {
		return fmt.Errorf("delete loyalty outbox: %w", err)
	}

	if _, err := t.tx.Exec(ctx, `DELETE FROM reservations WHERE guest_id = $1`, guestID); err != nil {
		return fmt.Errorf("delete reservations: %w", err)
	}

	return nil
}

func (t *pgTx) AppendBookingLog(ctx context.Context, entry model.BookingLog) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO booking_logs (reservation_id, action, actor_id, notes) VALUES ($1, $2, $3, $4)`,
		entry.ReservationID, entry.Action, entry.ActorID, entry.Notes,
	)
	if err != nil {
		return fmt.Errorf("insert booking log: %w", err)
	}
	return nil
}

func (t *pgTx) ListBookingLogs(ctx context.Context, reservationID int64) ([]model.BookingLog, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT reservation_id, action, actor_id, notes, created_at
		 FROM booking_logs
		 WHERE reservation_id = $1
		 ORDER BY created_at, id`,
		reservationID,
	)
	if err != nil {
		return nil, fmt.Errorf("select booking logs: %w", err)
	}
	defer rows.Close()

	var res []model.BookingLog
	for rows.Next() {
		var l model.BookingLog
		if err := rows.Scan(&l.ReservationID, &l.Action, &l.ActorID, &l.Notes, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan booking log: %w", err)
		}
		res = append(res, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

func (t *pgTx) InsertLoyaltyEvent(ctx context.Context, e *model.LoyaltyEvent) error {
	err := t.tx.QueryRow(ctx,
		`INSERT INTO loyalty_outbox (id, guest_id, reservation_id, points, kind, reason)
		 VALUES ($1::text::uuid, $2, $3, $4, $5, $6)
		 RETURNING created_at`,
		e.ID, e.GuestID, e.ReservationID, e.Points, string(e.Kind), e.Reason,
	).Scan(&e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert loyalty event: %w", err)
	}
	return nil
}
