package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingConfirmed  BookingStatus = "confirmed"
	BookingCheckedIn  BookingStatus = "checked-in"
	BookingCheckedOut BookingStatus = "checked-out"
	BookingCancelled  BookingStatus = "cancelled"
	BookingNoShow     BookingStatus = "no-show"
)

func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	switch status {
	case BookingConfirmed, BookingCheckedIn, BookingCheckedOut, BookingCancelled, BookingNoShow:
		return status, nil
	}
	return "", NewValidationError("status", s, "unknown booking status")
}

// BlocksRoom reports whether a booking in this status still occupies its
// room. Cancelled and checked-out stays have vacated the slot.
func (s BookingStatus) BlocksRoom() bool {
	switch s {
	case BookingConfirmed, BookingCheckedIn, BookingNoShow:
		return true
	case BookingCancelled, BookingCheckedOut:
		return false
	}
	return false
}

// CountsAsOccupied reports whether the stay's nights count towards occupancy.
func (s BookingStatus) CountsAsOccupied() bool {
	switch s {
	case BookingConfirmed, BookingCheckedIn, BookingCheckedOut:
		return true
	case BookingCancelled, BookingNoShow:
		return false
	}
	return false
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	switch s {
	case BookingConfirmed:
		return next == BookingCheckedIn || next == BookingCancelled || next == BookingNoShow
	case BookingCheckedIn:
		return next == BookingCheckedOut
	case BookingNoShow:
		return next == BookingCancelled
	case BookingCheckedOut, BookingCancelled:
		return false
	}
	return false
}

type Booking struct {
	ID          uuid.UUID       `json:"id"`
	GuestID     uuid.UUID       `json:"guest_id"`
	RoomID      uuid.UUID       `json:"room_id"`
	CheckIn     Date            `json:"check_in"`
	CheckOut    Date            `json:"check_out"`
	Status      BookingStatus   `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Currency    string          `json:"currency"`
	Charges     []Charge        `json:"charges"`
	Version     int             `json:"-"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Charge is an incidental posted to a stay (restaurant, banquet, minibar...).
type Charge struct {
	ID          uuid.UUID       `json:"id"`
	BookingID   uuid.UUID       `json:"booking_id"`
	Description string          `json:"description"`
	Category    RevenueCategory `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	PostedAt    time.Time       `json:"posted_at"`
}

func (b *Booking) Validate() error {
	if !b.CheckIn.Before(b.CheckOut) {
		return NewValidationError("check_out", b.CheckOut.String(), "must be after check_in")
	}
	return nil
}

func (b *Booking) Nights() int {
	return DaysBetween(b.CheckIn, b.CheckOut)
}

// Overlaps reports whether [checkIn, checkOut) intersects the booking's
// half-open stay. A stay starting on this booking's check-out date does not
// overlap.
func (b *Booking) Overlaps(checkIn, checkOut Date) bool {
	return (!checkIn.Before(b.CheckIn) && checkIn.Before(b.CheckOut)) ||
		(checkOut.After(b.CheckIn) && !checkOut.After(b.CheckOut)) ||
		(!checkIn.After(b.CheckIn) && !checkOut.Before(b.CheckOut))
}

func (b *Booking) ChargesTotal() decimal.Decimal {
	total := decimal.Zero
	for _, c := range b.Charges {
		total = total.Add(c.Amount)
	}
	return total
}
