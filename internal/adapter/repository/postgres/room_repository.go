package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/srgjo27/hotel_ledger/internal/core/domain"
)

type RoomRepository struct {
	db *sql.DB
}

func NewRoomRepository(db *sql.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

func (r *RoomRepository) GetByID(ctx context.Context, roomID uuid.UUID) (*domain.Room, error) {
	query := `
	SELECT id, number, room_type, nightly_rate, currency, status
	FROM rooms
	WHERE id = $1
	`

	var room domain.Room
	err := r.db.QueryRowContext(ctx, query, roomID).Scan(
		&room.ID,
		&room.Number,
		&room.RoomType,
		&room.NightlyRate,
		&room.Currency,
		&room.Status,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("room %s: %w", roomID, domain.ErrNotFound)
		}

		return nil, err
	}

	return &room, nil
}

func (r *RoomRepository) ListBookable(ctx context.Context) ([]domain.Room, error) {
	query := `
	SELECT id, number, room_type, nightly_rate, currency, status
	FROM rooms
	WHERE status = $1
	ORDER BY number
	`

	rows, err := r.db.QueryContext(ctx, query, domain.RoomInService)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var rooms []domain.Room
	for rows.Next() {
		var room domain.Room
		if err := rows.Scan(
			&room.ID,
			&room.Number,
			&room.RoomType,
			&room.NightlyRate,
			&room.Currency,
			&room.Status,
		); err != nil {
			return nil, err
		}

		rooms = append(rooms, room)
	}

	return rooms, rows.Err()
}

func (r *RoomRepository) CountBookable(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rooms WHERE status = $1`, domain.RoomInService).Scan(&n)
	return n, err
}
