package services_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/srgjo27/hotel_ledger/internal/core/domain"
	"github.com/srgjo27/hotel_ledger/internal/core/services"
	"github.com/stretchr/testify/assert"
)

func stay(roomID uuid.UUID, checkIn, checkOut string, status domain.BookingStatus) domain.Booking {
	return domain.Booking{
		ID:       uuid.New(),
		GuestID:  uuid.New(),
		RoomID:   roomID,
		CheckIn:  domain.Date(checkIn),
		CheckOut: domain.Date(checkOut),
		Status:   status,
	}
}

func TestIsRoomBooked_Overlap(t *testing.T) {
	r1 := uuid.New()
	checker := services.NewAvailabilityChecker([]domain.Booking{
		stay(r1, "2024-03-01", "2024-03-05", domain.BookingConfirmed),
	})

	tests := []struct {
		name     string
		checkIn  string
		checkOut string
		want     bool
	}{
		{"starts inside existing stay", "2024-03-04", "2024-03-06", true},
		{"ends inside existing stay", "2024-02-27", "2024-03-02", true},
		{"covers existing stay", "2024-02-28", "2024-03-08", true},
		{"inside existing stay", "2024-03-02", "2024-03-03", true},
		{"identical dates", "2024-03-01", "2024-03-05", true},
		{"back-to-back after", "2024-03-05", "2024-03-07", false},
		{"back-to-back before", "2024-02-25", "2024-03-01", false},
		{"entirely later", "2024-04-01", "2024-04-03", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checker.IsRoomBooked(r1, domain.Date(tt.checkIn), domain.Date(tt.checkOut), nil)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsRoomBooked_IgnoresVacatedStatuses(t *testing.T) {
	r1 := uuid.New()

	for _, status := range []domain.BookingStatus{domain.BookingCancelled, domain.BookingCheckedOut} {
		checker := services.NewAvailabilityChecker([]domain.Booking{
			stay(r1, "2024-03-01", "2024-03-05", status),
		})
		assert.False(t, checker.IsRoomBooked(r1, "2024-03-02", "2024-03-04", nil), string(status))
	}

	for _, status := range []domain.BookingStatus{domain.BookingConfirmed, domain.BookingCheckedIn, domain.BookingNoShow} {
		checker := services.NewAvailabilityChecker([]domain.Booking{
			stay(r1, "2024-03-01", "2024-03-05", status),
		})
		assert.True(t, checker.IsRoomBooked(r1, "2024-03-02", "2024-03-04", nil), string(status))
	}
}

func TestIsRoomBooked_SelfExclusion(t *testing.T) {
	r1 := uuid.New()
	existing := stay(r1, "2024-03-01", "2024-03-05", domain.BookingConfirmed)
	checker := services.NewAvailabilityChecker([]domain.Booking{existing})

	assert.False(t, checker.IsRoomBooked(r1, "2024-03-02", "2024-03-06", &existing.ID))

	other := uuid.New()
	assert.True(t, checker.IsRoomBooked(r1, "2024-03-02", "2024-03-06", &other))
}

func TestIsRoomBooked_OtherRoomsAndUnknownRoom(t *testing.T) {
	r1, r2 := uuid.New(), uuid.New()
	checker := services.NewAvailabilityChecker([]domain.Booking{
		stay(r1, "2024-03-01", "2024-03-05", domain.BookingConfirmed),
	})

	assert.False(t, checker.IsRoomBooked(r2, "2024-03-01", "2024-03-05", nil))
	assert.False(t, services.NewAvailabilityChecker(nil).IsRoomBooked(r1, "2024-03-01", "2024-03-05", nil))
}

// Every pair of intersecting half-open stays on one room must conflict,
// and every disjoint pair must not.
func TestIsRoomBooked_MatchesIntervalIntersection(t *testing.T) {
	r1 := uuid.New()
	base := domain.Date("2024-05-10")

	for aStart := 0; aStart < 6; aStart++ {
		for aLen := 1; aLen < 4; aLen++ {
			for bStart := 0; bStart < 6; bStart++ {
				for bLen := 1; bLen < 4; bLen++ {
					a := stay(r1, base.AddDays(aStart).String(), base.AddDays(aStart+aLen).String(), domain.BookingConfirmed)
					bIn, bOut := base.AddDays(bStart), base.AddDays(bStart+bLen)

					intersects := aStart < bStart+bLen && bStart < aStart+aLen
					got := services.NewAvailabilityChecker([]domain.Booking{a}).IsRoomBooked(r1, bIn, bOut, nil)

					assert.Equal(t, intersects, got, "a=[%s,%s) b=[%s,%s)", a.CheckIn, a.CheckOut, bIn, bOut)
				}
			}
		}
	}
}
