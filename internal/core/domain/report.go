package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ReportType string

const (
	ReportDaily     ReportType = "daily"
	ReportWeekly    ReportType = "weekly"
	ReportMonthly   ReportType = "monthly"
	ReportQuarterly ReportType = "quarterly"
	ReportYearly    ReportType = "yearly"
	ReportCustom    ReportType = "custom"
)

func ParseReportType(s string) (ReportType, error) {
	t := ReportType(s)
	switch t {
	case ReportDaily, ReportWeekly, ReportMonthly, ReportQuarterly, ReportYearly, ReportCustom:
		return t, nil
	}
	return "", NewValidationError("type", s, "unknown report type")
}

type RevenueBreakdown struct {
	Rooms      decimal.Decimal `json:"rooms"`
	Restaurant decimal.Decimal `json:"restaurant"`
	Banquet    decimal.Decimal `json:"banquet"`
	Other      decimal.Decimal `json:"other"`
}

func (b RevenueBreakdown) Total() decimal.Decimal {
	return b.Rooms.Add(b.Restaurant).Add(b.Banquet).Add(b.Other)
}

func (b *RevenueBreakdown) Add(category RevenueCategory, amount decimal.Decimal) {
	switch category {
	case CategoryRooms:
		b.Rooms = b.Rooms.Add(amount)
	case CategoryRestaurant:
		b.Restaurant = b.Restaurant.Add(amount)
	case CategoryBanquet:
		b.Banquet = b.Banquet.Add(amount)
	case CategoryOther:
		b.Other = b.Other.Add(amount)
	default:
		b.Other = b.Other.Add(amount)
	}
}

type MonthlyRevenue struct {
	Year    int             `json:"year"`
	Month   time.Month      `json:"month"`
	Label   string          `json:"label"`
	Revenue decimal.Decimal `json:"revenue"`
}

// OccupancyMetrics is only meaningful when Available is true, i.e. a room
// inventory was known when the report was generated.
type OccupancyMetrics struct {
	Available           bool            `json:"available"`
	RoomCount           int             `json:"room_count"`
	AvailableRoomNights int             `json:"available_room_nights"`
	OccupiedRoomNights  int             `json:"occupied_room_nights"`
	RoomRevenue         decimal.Decimal `json:"room_revenue"`
	OccupancyRate       decimal.Decimal `json:"occupancy_rate"`
	ADR                 decimal.Decimal `json:"adr"`
	RevPAR              decimal.Decimal `json:"revpar"`
}

type ReportData struct {
	TotalRevenue      decimal.Decimal                   `json:"total_revenue"`
	PaidInvoiceCount  int                               `json:"paid_invoice_count"`
	Breakdown         RevenueBreakdown                  `json:"breakdown"`
	PaymentMethods    map[PaymentMethod]decimal.Decimal `json:"payment_methods"`
	OutstandingCount  int                               `json:"outstanding_count"`
	OutstandingAmount decimal.Decimal                   `json:"outstanding_amount"`
	OverdueCount      int                               `json:"overdue_count"`
	OverdueAmount     decimal.Decimal                   `json:"overdue_amount"`
	Occupancy         OccupancyMetrics                  `json:"occupancy"`
}

// FinancialReport is an immutable snapshot; it is never updated once generated.
type FinancialReport struct {
	ID          uuid.UUID  `json:"id"`
	Type        ReportType `json:"type"`
	StartDate   Date       `json:"start_date"`
	EndDate     Date       `json:"end_date"`
	GeneratedAt time.Time  `json:"generated_at"`
	Data        ReportData `json:"data"`
}
