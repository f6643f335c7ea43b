package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/srgjo27/hotel_ledger/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db, mock
}

var bookingColumnNames = []string{"id", "guest_id", "room_id", "check_in", "check_out", "status", "total_amount", "currency", "version", "created_at", "updated_at"}

func newTestBooking() *domain.Booking {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return &domain.Booking{
		ID:          uuid.New(),
		GuestID:     uuid.New(),
		RoomID:      uuid.New(),
		CheckIn:     "2024-03-10",
		CheckOut:    "2024-03-12",
		Status:      domain.BookingConfirmed,
		TotalAmount: decimal.NewFromInt(5000),
		Currency:    "INR",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func expectRoomLock(mock sqlmock.Sqlmock, roomID uuid.UUID) {
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM rooms WHERE id = $1 FOR UPDATE`)).
		WithArgs(roomID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(roomID.String()))
}

func TestBookingRepository_CreateBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts when the room is free", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewBookingRepository(db)
		b := newTestBooking()

		mock.ExpectBegin()
		expectRoomLock(mock, b.RoomID)
		mock.ExpectQuery(regexp.QuoteMeta(`FROM bookings`)).
			WithArgs(b.RoomID, b.ID, b.CheckOut, b.CheckIn).
			WillReturnRows(sqlmock.NewRows([]string{"id", "check_in", "check_out", "status"}).
				AddRow(uuid.New().String(), "2024-03-08", "2024-03-10", "confirmed").
				AddRow(uuid.New().String(), "2024-03-09", "2024-03-11", "cancelled"))
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO bookings`)).
			WithArgs(b.ID, b.GuestID, b.RoomID, b.CheckIn, b.CheckOut, b.Status, b.TotalAmount, "INR", 1, b.CreatedAt, b.UpdatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.CreateBooking(ctx, b)

		require.NoError(t, err)
		assert.Equal(t, 1, b.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects an overlapping stay", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewBookingRepository(db)
		b := newTestBooking()

		mock.ExpectBegin()
		expectRoomLock(mock, b.RoomID)
		mock.ExpectQuery(regexp.QuoteMeta(`FROM bookings`)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "check_in", "check_out", "status"}).
				AddRow(uuid.New().String(), "2024-03-11", "2024-03-14", "checked-in"))
		mock.ExpectRollback()

		err := repo.CreateBooking(ctx, b)

		assert.ErrorIs(t, err, domain.ErrRoomUnavailable)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown room", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewBookingRepository(db)
		b := newTestBooking()

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE`)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectRollback()

		err := repo.CreateBooking(ctx, b)

		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookingRepository_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("loads booking with charges", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewBookingRepository(db)
		b := newTestBooking()
		chargeID := uuid.New()

		mock.ExpectQuery(regexp.QuoteMeta(`FROM bookings WHERE id = $1`)).
			WithArgs(b.ID).
			WillReturnRows(sqlmock.NewRows(bookingColumnNames).AddRow(
				b.ID.String(), b.GuestID.String(), b.RoomID.String(), "2024-03-10", "2024-03-12",
				"checked-in", "5000.00", "INR", int64(2), b.CreatedAt, b.UpdatedAt,
			))
		mock.ExpectQuery(regexp.QuoteMeta(`FROM booking_charges`)).
			WithArgs(b.ID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "booking_id", "description", "category", "amount", "posted_at"}).
				AddRow(chargeID.String(), b.ID.String(), "Dinner", "restaurant", "850.50", b.CreatedAt))

		got, err := repo.GetByID(ctx, b.ID)

		require.NoError(t, err)
		assert.Equal(t, domain.BookingCheckedIn, got.Status)
		assert.Equal(t, domain.Date("2024-03-10"), got.CheckIn)
		assert.Equal(t, 2, got.Version)
		require.Len(t, got.Charges, 1)
		assert.Equal(t, domain.CategoryRestaurant, got.Charges[0].Category)
		assert.True(t, decimal.RequireFromString("850.5").Equal(got.Charges[0].Amount))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewBookingRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta(`FROM bookings WHERE id = $1`)).
			WillReturnRows(sqlmock.NewRows(bookingColumnNames))

		_, err := repo.GetByID(ctx, uuid.New())

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestBookingRepository_ListOverlapping(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBookingRepository(db)
	b := newTestBooking()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE check_in < $1 AND check_out > $2`)).
		WithArgs(domain.Date("2024-04-01"), domain.Date("2024-03-01")).
		WillReturnRows(sqlmock.NewRows(bookingColumnNames).AddRow(
			b.ID.String(), b.GuestID.String(), b.RoomID.String(), "2024-03-10", "2024-03-12",
			"confirmed", "5000", "INR", int64(1), b.CreatedAt, b.UpdatedAt,
		))

	got, err := repo.ListOverlapping(context.Background(), "2024-03-01", "2024-04-01")

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, b.ID, got[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_UpdateBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("bumps the version", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewBookingRepository(db)
		b := newTestBooking()
		b.Version = 4

		mock.ExpectBegin()
		expectRoomLock(mock, b.RoomID)
		mock.ExpectQuery(regexp.QuoteMeta(`FROM bookings`)).
			WithArgs(b.RoomID, b.ID, b.CheckOut, b.CheckIn).
			WillReturnRows(sqlmock.NewRows([]string{"id", "check_in", "check_out", "status"}))
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE bookings`)).
			WithArgs(b.RoomID, b.CheckIn, b.CheckOut, b.TotalAmount, b.Currency, b.UpdatedAt, b.ID, 4).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, repo.UpdateBooking(ctx, b))
		assert.Equal(t, 5, b.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale version", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewBookingRepository(db)
		b := newTestBooking()
		b.Version = 4

		mock.ExpectBegin()
		expectRoomLock(mock, b.RoomID)
		mock.ExpectQuery(regexp.QuoteMeta(`FROM bookings`)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "check_in", "check_out", "status"}))
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE bookings`)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.UpdateBooking(ctx, b)

		assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)
		assert.Equal(t, 4, b.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookingRepository_UpdateStatus(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBookingRepository(db)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE bookings`)).
		WithArgs(domain.BookingCheckedIn, id, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE bookings`)).
		WithArgs(domain.BookingCheckedOut, id, 3).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.UpdateStatus(context.Background(), id, domain.BookingCheckedIn, 3))
	assert.ErrorIs(t, repo.UpdateStatus(context.Background(), id, domain.BookingCheckedOut, 3), domain.ErrConcurrencyConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_NoShows(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBookingRepository(db)
	ctx := context.Background()
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE status = $1 AND check_in < $2`)).
		WithArgs(domain.BookingConfirmed, domain.Date("2024-03-15")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id.String()))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE bookings`)).
		WithArgs(domain.BookingNoShow, id, domain.BookingConfirmed).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ids, err := repo.GetNoShowCandidates(ctx, "2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{id}, ids)

	require.NoError(t, repo.MarkNoShow(ctx, id))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_AddCharge(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBookingRepository(db)

	charge := &domain.Charge{
		ID:          uuid.New(),
		BookingID:   uuid.New(),
		Description: "Minibar",
		Category:    domain.CategoryOther,
		Amount:      decimal.NewFromInt(300),
		PostedAt:    time.Date(2024, 3, 11, 22, 0, 0, 0, time.UTC),
	}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO booking_charges`)).
		WithArgs(charge.ID, charge.BookingID, "Minibar", domain.CategoryOther, charge.Amount, charge.PostedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.AddCharge(context.Background(), charge))
	assert.NoError(t, mock.ExpectationsWereMet())
}
