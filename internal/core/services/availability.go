package services

import (
	"github.com/google/uuid"
	"github.com/srgjo27/hotel_ledger/internal/core/domain"
)

// AvailabilityChecker answers double-booking questions over a read-only
// booking snapshot.
type AvailabilityChecker struct {
	bookings []domain.Booking
}

func NewAvailabilityChecker(bookings []domain.Booking) *AvailabilityChecker {
	return &AvailabilityChecker{bookings: bookings}
}

// IsRoomBooked reports whether roomID already has a blocking booking that
// overlaps [checkIn, checkOut). The booking with excludeBookingID is ignored
// so an edit does not conflict with itself. Callers guarantee checkIn < checkOut.
func (c *AvailabilityChecker) IsRoomBooked(roomID uuid.UUID, checkIn, checkOut domain.Date, excludeBookingID *uuid.UUID) bool {
	for i := range c.bookings {
		b := &c.bookings[i]

		if excludeBookingID != nil && b.ID == *excludeBookingID {
			continue
		}

		if !b.Status.BlocksRoom() || b.RoomID != roomID {
			continue
		}

		if b.Overlaps(checkIn, checkOut) {
			return true
		}
	}

	return false
}
