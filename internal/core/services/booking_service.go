package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/srgjo27/hotel_ledger/internal/core/domain"
	"github.com/srgjo27/hotel_ledger/internal/core/ports"
	"go.uber.org/zap"
)

// releaseLockScript deletes the lock only if it is still held by the caller.
const releaseLockScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`

type CreateBookingRequest struct {
	GuestID  string `json:"guest_id"`
	RoomID   string `json:"room_id"`
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
}

type UpdateBookingRequest struct {
	RoomID   string `json:"room_id,omitempty"`
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
}

type ChargeRequest struct {
	Description string `json:"description"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
}

type BookingResponse struct {
	BookingID   string          `json:"booking_id"`
	RoomID      string          `json:"room_id"`
	CheckIn     string          `json:"check_in"`
	CheckOut    string          `json:"check_out"`
	Nights      int             `json:"nights"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Currency    string          `json:"currency"`
	Status      string          `json:"status"`
}

func newBookingResponse(b *domain.Booking) *BookingResponse {
	return &BookingResponse{
		BookingID:   b.ID.String(),
		RoomID:      b.RoomID.String(),
		CheckIn:     b.CheckIn.String(),
		CheckOut:    b.CheckOut.String(),
		Nights:      b.Nights(),
		TotalAmount: b.TotalAmount,
		Currency:    b.Currency,
		Status:      string(b.Status),
	}
}

type BookingService struct {
	roomRepo    ports.RoomRepository
	bookingRepo ports.BookingRepository
	redis       *redis.Client
	opts        Options
}

func NewBookingService(roomRepo ports.RoomRepository, bookingRepo ports.BookingRepository, redisClient *redis.Client, opts ...Option) *BookingService {
	return &BookingService{
		roomRepo:    roomRepo,
		bookingRepo: bookingRepo,
		redis:       redisClient,
		opts:        newOptions(opts),
	}
}

func parseID(field, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(field, value, "must be a UUID")
	}
	return id, nil
}

func parseStay(checkIn, checkOut string) (domain.Date, domain.Date, error) {
	in, err := domain.ParseDate("check_in", checkIn)
	if err != nil {
		return "", "", err
	}

	out, err := domain.ParseDate("check_out", checkOut)
	if err != nil {
		return "", "", err
	}

	if !in.Before(out) {
		return "", "", domain.NewValidationError("check_out", checkOut, "must be after check_in")
	}

	return in, out, nil
}

func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*BookingResponse, error) {
	guestID, err := parseID("guest_id", req.GuestID)
	if err != nil {
		return nil, err
	}

	roomID, err := parseID("room_id", req.RoomID)
	if err != nil {
		return nil, err
	}

	checkIn, checkOut, err := parseStay(req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}

	room, err := s.bookableRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	bookingID := s.opts.NewID()

	unlock, err := s.lockRoom(ctx, roomID, bookingID.String())
	if err != nil {
		return nil, err
	}
	defer unlock()

	existing, err := s.bookingRepo.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings for room %s: %w", room.Number, err)
	}

	if NewAvailabilityChecker(existing).IsRoomBooked(roomID, checkIn, checkOut, nil) {
		return nil, domain.ErrRoomUnavailable
	}

	now := s.opts.Now()
	booking := &domain.Booking{
		ID:        bookingID,
		GuestID:   guestID,
		RoomID:    roomID,
		CheckIn:   checkIn,
		CheckOut:  checkOut,
		Status:    domain.BookingConfirmed,
		Currency:  s.currencyFor(room),
		CreatedAt: now,
		UpdatedAt: now,
	}
	booking.TotalAmount = room.NightlyRate.Mul(decimal.NewFromInt(int64(booking.Nights())))

	if err := s.bookingRepo.CreateBooking(ctx, booking); err != nil {
		if errors.Is(err, domain.ErrRoomUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	s.opts.Logger.Info("booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("room", room.Number),
		zap.String("check_in", checkIn.String()),
		zap.String("check_out", checkOut.String()),
	)

	return newBookingResponse(booking), nil
}

// UpdateBookingDates moves a confirmed booking to new dates and optionally a
// new room. The booking itself is excluded from the conflict check.
func (s *BookingService) UpdateBookingDates(ctx context.Context, bookingID string, req UpdateBookingRequest) (*BookingResponse, error) {
	id, err := parseID("booking_id", bookingID)
	if err != nil {
		return nil, err
	}

	checkIn, checkOut, err := parseStay(req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}

	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if booking.Status != domain.BookingConfirmed {
		return nil, fmt.Errorf("%w: cannot change dates of a %s booking", domain.ErrInvalidTransition, booking.Status)
	}

	roomID := booking.RoomID
	if req.RoomID != "" {
		if roomID, err = parseID("room_id", req.RoomID); err != nil {
			return nil, err
		}
	}

	room, err := s.bookableRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.lockRoom(ctx, roomID, booking.ID.String())
	if err != nil {
		return nil, err
	}
	defer unlock()

	existing, err := s.bookingRepo.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings for room %s: %w", room.Number, err)
	}

	if NewAvailabilityChecker(existing).IsRoomBooked(roomID, checkIn, checkOut, &booking.ID) {
		return nil, domain.ErrRoomUnavailable
	}

	booking.RoomID = roomID
	booking.CheckIn = checkIn
	booking.CheckOut = checkOut
	booking.Currency = s.currencyFor(room)
	booking.TotalAmount = room.NightlyRate.Mul(decimal.NewFromInt(int64(booking.Nights())))
	booking.UpdatedAt = s.opts.Now()

	if err := s.bookingRepo.UpdateBooking(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}

	return newBookingResponse(booking), nil
}

// CheckAvailability is the read-only probe used by the booking wizard.
func (s *BookingService) CheckAvailability(ctx context.Context, roomID, checkIn, checkOut, excludeBookingID string) (bool, error) {
	room, err := parseID("room_id", roomID)
	if err != nil {
		return false, err
	}

	in, out, err := parseStay(checkIn, checkOut)
	if err != nil {
		return false, err
	}

	var exclude *uuid.UUID
	if excludeBookingID != "" {
		id, err := parseID("exclude_booking_id", excludeBookingID)
		if err != nil {
			return false, err
		}
		exclude = &id
	}

	existing, err := s.bookingRepo.ListByRoom(ctx, room)
	if err != nil {
		return false, err
	}

	return !NewAvailabilityChecker(existing).IsRoomBooked(room, in, out, exclude), nil
}

// AvailableRooms lists bookable rooms free for the whole stay.
func (s *BookingService) AvailableRooms(ctx context.Context, checkIn, checkOut string) ([]domain.Room, error) {
	in, out, err := parseStay(checkIn, checkOut)
	if err != nil {
		return nil, err
	}

	rooms, err := s.roomRepo.ListBookable(ctx)
	if err != nil {
		return nil, err
	}

	bookings, err := s.bookingRepo.ListOverlapping(ctx, in, out)
	if err != nil {
		return nil, err
	}

	checker := NewAvailabilityChecker(bookings)
	free := make([]domain.Room, 0, len(rooms))
	for _, room := range rooms {
		if !checker.IsRoomBooked(room.ID, in, out, nil) {
			free = append(free, room)
		}
	}

	return free, nil
}

func (s *BookingService) CheckIn(ctx context.Context, bookingID string) (*BookingResponse, error) {
	return s.transition(ctx, bookingID, domain.BookingCheckedIn)
}

func (s *BookingService) CheckOut(ctx context.Context, bookingID string) (*BookingResponse, error) {
	return s.transition(ctx, bookingID, domain.BookingCheckedOut)
}

func (s *BookingService) Cancel(ctx context.Context, bookingID string) (*BookingResponse, error) {
	return s.transition(ctx, bookingID, domain.BookingCancelled)
}

func (s *BookingService) MarkNoShow(ctx context.Context, bookingID string) (*BookingResponse, error) {
	return s.transition(ctx, bookingID, domain.BookingNoShow)
}

// ChangeStatus applies a status given as text, as sent by the front desk.
func (s *BookingService) ChangeStatus(ctx context.Context, bookingID, status string) (*BookingResponse, error) {
	next, err := domain.ParseBookingStatus(status)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, bookingID, next)
}

func (s *BookingService) transition(ctx context.Context, bookingID string, next domain.BookingStatus) (*BookingResponse, error) {
	id, err := parseID("booking_id", bookingID)
	if err != nil {
		return nil, err
	}

	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !booking.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, booking.Status, next)
	}

	if err := s.bookingRepo.UpdateStatus(ctx, booking.ID, next, booking.Version); err != nil {
		return nil, err
	}

	s.opts.Logger.Info("booking status changed",
		zap.String("booking_id", booking.ID.String()),
		zap.String("from", string(booking.Status)),
		zap.String("to", string(next)),
	)

	booking.Status = next
	booking.Version++

	return newBookingResponse(booking), nil
}

func (s *BookingService) AddCharge(ctx context.Context, bookingID string, req ChargeRequest) (*domain.Charge, error) {
	id, err := parseID("booking_id", bookingID)
	if err != nil {
		return nil, err
	}

	category, err := domain.ParseRevenueCategory(req.Category)
	if err != nil {
		return nil, err
	}

	amount, err := domain.ParseAmount("amount", req.Amount)
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, domain.NewValidationError("amount", req.Amount, "must be a positive amount")
	}

	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if booking.Status != domain.BookingConfirmed && booking.Status != domain.BookingCheckedIn {
		return nil, fmt.Errorf("%w: cannot post charges to a %s booking", domain.ErrInvalidTransition, booking.Status)
	}

	charge := &domain.Charge{
		ID:          s.opts.NewID(),
		BookingID:   booking.ID,
		Description: req.Description,
		Category:    category,
		Amount:      amount,
		PostedAt:    s.opts.Now(),
	}

	if err := s.bookingRepo.AddCharge(ctx, charge); err != nil {
		return nil, fmt.Errorf("failed to post charge: %w", err)
	}

	return charge, nil
}

func (s *BookingService) bookableRoom(ctx context.Context, roomID uuid.UUID) (*domain.Room, error) {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}

	if !room.IsBookable() {
		return nil, domain.ErrRoomOutOfService
	}

	return room, nil
}

func (s *BookingService) currencyFor(room *domain.Room) string {
	if room.Currency != "" {
		return room.Currency
	}
	return s.opts.Currency
}

func roomLockKey(roomID uuid.UUID) string {
	return fmt.Sprintf("room-lock:%s", roomID.String())
}

// lockRoom serializes check-then-insert for one room across API instances.
func (s *BookingService) lockRoom(ctx context.Context, roomID uuid.UUID, token string) (func(), error) {
	key := roomLockKey(roomID)

	ok, err := s.redis.SetNX(ctx, key, token, s.opts.LockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire room lock: %w", err)
	}

	if !ok {
		return nil, domain.ErrRoomLocked
	}

	return func() {
		if err := s.redis.Eval(context.WithoutCancel(ctx), releaseLockScript, []string{key}, token).Err(); err != nil {
			s.opts.Logger.Warn("failed to release room lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

func (s *BookingService) RunBackgroundCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.opts.Logger.Info("no-show sweep started", zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			s.opts.Logger.Info("no-show sweep stopped")
			return
		case <-ticker.C:
			s.processNoShows(ctx)
		}
	}
}

// processNoShows flags confirmed bookings whose check-in day has passed.
func (s *BookingService) processNoShows(ctx context.Context) {
	today := domain.DateOf(s.opts.today())

	ids, err := s.bookingRepo.GetNoShowCandidates(ctx, today)
	if err != nil {
		s.opts.Logger.Error("failed to fetch no-show candidates", zap.Error(err))
		return
	}

	if len(ids) == 0 {
		return
	}

	s.opts.Logger.Info("marking no-show bookings", zap.Int("count", len(ids)))

	for _, id := range ids {
		if err := s.bookingRepo.MarkNoShow(ctx, id); err != nil {
			s.opts.Logger.Error("failed to mark booking as no-show", zap.String("booking_id", id.String()), zap.Error(err))
		}
	}
}
