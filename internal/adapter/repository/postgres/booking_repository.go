package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/srgjo27/hotel_ledger/internal/core/domain"
)

const bookingColumns = `id, guest_id, room_id, check_in, check_out, status, total_amount, currency, version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(
		&b.ID,
		&b.GuestID,
		&b.RoomID,
		&b.CheckIn,
		&b.CheckOut,
		&b.Status,
		&b.TotalAmount,
		&b.Currency,
		&b.Version,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	return b, err
}

type BookingRepository struct {
	db *sql.DB
}

func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// lockRoom takes a row lock on the room so concurrent writers for the same
// room queue behind this transaction.
func lockRoom(ctx context.Context, tx *sql.Tx, roomID uuid.UUID) error {
	var id uuid.UUID
	err := tx.QueryRowContext(ctx, `SELECT id FROM rooms WHERE id = $1 FOR UPDATE`, roomID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("room %s: %w", roomID, domain.ErrNotFound)
		}
		return fmt.Errorf("failed to lock room %s: %w", roomID, err)
	}

	return nil
}

// ensureVacant re-runs the overlap check under the room lock. The SQL
// prefilter is the same half-open test; status filtering uses the domain
// rules.
func ensureVacant(ctx context.Context, tx *sql.Tx, b *domain.Booking) error {
	query := `
	SELECT id, check_in, check_out, status
	FROM bookings
	WHERE room_id = $1 AND id <> $2 AND check_in < $3 AND check_out > $4
	`

	rows, err := tx.QueryContext(ctx, query, b.RoomID, b.ID, b.CheckOut, b.CheckIn)
	if err != nil {
		return fmt.Errorf("failed to re-check availability: %w", err)
	}

	defer rows.Close()

	for rows.Next() {
		var other domain.Booking
		if err := rows.Scan(&other.ID, &other.CheckIn, &other.CheckOut, &other.Status); err != nil {
			return err
		}

		if other.Status.BlocksRoom() && other.Overlaps(b.CheckIn, b.CheckOut) {
			return domain.ErrRoomUnavailable
		}
	}

	return rows.Err()
}

func (r *BookingRepository) CreateBooking(ctx context.Context, booking *domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer tx.Rollback()

	if err := lockRoom(ctx, tx, booking.RoomID); err != nil {
		return err
	}

	if err := ensureVacant(ctx, tx, booking); err != nil {
		return err
	}

	query := `
	INSERT INTO bookings (id, guest_id, room_id, check_in, check_out, status, total_amount, currency, version, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	if booking.Version == 0 {
		booking.Version = 1
	}

	_, err = tx.ExecContext(ctx, query,
		booking.ID,
		booking.GuestID,
		booking.RoomID,
		booking.CheckIn,
		booking.CheckOut,
		booking.Status,
		booking.TotalAmount,
		booking.Currency,
		booking.Version,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.db.QueryRowContext(ctx, query, bookingID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("booking %s: %w", bookingID, domain.ErrNotFound)
		}

		return nil, err
	}

	charges, err := r.listCharges(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	booking.Charges = charges

	return &booking, nil
}

func (r *BookingRepository) listCharges(ctx context.Context, bookingID uuid.UUID) ([]domain.Charge, error) {
	query := `
	SELECT id, booking_id, description, category, amount, posted_at
	FROM booking_charges
	WHERE booking_id = $1
	ORDER BY posted_at
	`

	rows, err := r.db.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load charges: %w", err)
	}

	defer rows.Close()

	var charges []domain.Charge
	for rows.Next() {
		var c domain.Charge
		if err := rows.Scan(&c.ID, &c.BookingID, &c.Description, &c.Category, &c.Amount, &c.PostedAt); err != nil {
			return nil, err
		}

		charges = append(charges, c)
	}

	return charges, rows.Err()
}

func (r *BookingRepository) queryBookings(ctx context.Context, query string, args ...any) ([]domain.Booking, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}

		bookings = append(bookings, b)
	}

	return bookings, rows.Err()
}

func (r *BookingRepository) ListByRoom(ctx context.Context, roomID uuid.UUID) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE room_id = $1 ORDER BY check_in`
	return r.queryBookings(ctx, query, roomID)
}

func (r *BookingRepository) ListOverlapping(ctx context.Context, start, end domain.Date) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE check_in < $1 AND check_out > $2 ORDER BY check_in`
	return r.queryBookings(ctx, query, end, start)
}

// UpdateBooking moves a stay to new dates or another room. The target room
// is locked and re-checked like an insert.
func (r *BookingRepository) UpdateBooking(ctx context.Context, booking *domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer tx.Rollback()

	if err := lockRoom(ctx, tx, booking.RoomID); err != nil {
		return err
	}

	if err := ensureVacant(ctx, tx, booking); err != nil {
		return err
	}

	query := `
	UPDATE bookings
	SET room_id = $1,
		check_in = $2,
		check_out = $3,
		total_amount = $4,
		currency = $5,
		updated_at = $6,
		version = version + 1
	WHERE id = $7 AND version = $8
	`

	result, err := tx.ExecContext(ctx, query,
		booking.RoomID,
		booking.CheckIn,
		booking.CheckOut,
		booking.TotalAmount,
		booking.Currency,
		booking.UpdatedAt,
		booking.ID,
		booking.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}

	if err := expectOneRow(result); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	booking.Version++
	return nil
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, bookingID uuid.UUID, status domain.BookingStatus, version int) error {
	query := `
	UPDATE bookings
	SET status = $1, updated_at = NOW(), version = version + 1
	WHERE id = $2 AND version = $3
	`

	result, err := r.db.ExecContext(ctx, query, status, bookingID, version)
	if err != nil {
		return err
	}

	return expectOneRow(result)
}

func (r *BookingRepository) AddCharge(ctx context.Context, charge *domain.Charge) error {
	query := `
	INSERT INTO booking_charges (id, booking_id, description, category, amount, posted_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query, charge.ID, charge.BookingID, charge.Description, charge.Category, charge.Amount, charge.PostedAt)
	if err != nil {
		return fmt.Errorf("failed to insert charge: %w", err)
	}

	return nil
}

// GetNoShowCandidates returns confirmed bookings whose check-in day is
// already behind us.
func (r *BookingRepository) GetNoShowCandidates(ctx context.Context, today domain.Date) ([]uuid.UUID, error) {
	query := `
	SELECT id FROM bookings
	WHERE status = $1 AND check_in < $2
	ORDER BY check_in
	LIMIT 100
	`

	rows, err := r.db.QueryContext(ctx, query, domain.BookingConfirmed, today)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}

		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (r *BookingRepository) MarkNoShow(ctx context.Context, bookingID uuid.UUID) error {
	query := `
	UPDATE bookings
	SET status = $1, updated_at = NOW(), version = version + 1
	WHERE id = $2 AND status = $3
	`

	result, err := r.db.ExecContext(ctx, query, domain.BookingNoShow, bookingID, domain.BookingConfirmed)
	if err != nil {
		return err
	}

	return expectOneRow(result)
}

// expectOneRow turns a guarded UPDATE that matched nothing into a conflict.
func expectOneRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return domain.ErrConcurrencyConflict
	}

	return nil
}
