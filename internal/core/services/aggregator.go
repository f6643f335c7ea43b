package services

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/srgjo27/hotel_ledger/internal/core/domain"
)

// Fixed category shares used by RevenueBreakdown. They approximate the mix
// of a typical month; ItemizedRevenueBreakdown sums real invoice lines.
var (
	roomsShare      = decimal.RequireFromString("0.50")
	restaurantShare = decimal.RequireFromString("0.30")
	banquetShare    = decimal.RequireFromString("0.15")
	otherShare      = decimal.RequireFromString("0.05")
)

var hundred = decimal.NewFromInt(100)

// FinancialAggregator computes dashboard figures over an invoice/payment
// snapshot. It never mutates the snapshot.
type FinancialAggregator struct {
	snapshot  domain.Snapshot
	now       func() time.Time
	loc       *time.Location
	roomCount int
}

type AggregatorOption func(*FinancialAggregator)

func WithAggregatorClock(now func() time.Time) AggregatorOption {
	return func(a *FinancialAggregator) {
		a.now = now
	}
}

func WithAggregatorLocation(loc *time.Location) AggregatorOption {
	return func(a *FinancialAggregator) {
		a.loc = loc
	}
}

// WithRoomInventory enables occupancy metrics in generated reports.
func WithRoomInventory(rooms int) AggregatorOption {
	return func(a *FinancialAggregator) {
		a.roomCount = rooms
	}
}

func NewFinancialAggregator(snapshot domain.Snapshot, opts ...AggregatorOption) *FinancialAggregator {
	a := &FinancialAggregator{
		snapshot: snapshot,
		now:      time.Now,
		loc:      time.UTC,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

func (a *FinancialAggregator) today() domain.Date {
	return domain.DateOf(a.now().In(a.loc))
}

func parseWindow(start, end string) (domain.Date, domain.Date, error) {
	s, err := domain.ParseDate("start_date", start)
	if err != nil {
		return "", "", err
	}

	e, err := domain.ParseDate("end_date", end)
	if err != nil {
		return "", "", err
	}

	return s, e, nil
}

// RevenueByPeriod sums paid invoices issued within [start, end].
func (a *FinancialAggregator) RevenueByPeriod(start, end string) (decimal.Decimal, error) {
	s, e, err := parseWindow(start, end)
	if err != nil {
		return decimal.Zero, err
	}

	total, _ := a.revenueBetween(s, e)
	return total, nil
}

func (a *FinancialAggregator) revenueBetween(start, end domain.Date) (decimal.Decimal, int) {
	total := decimal.Zero
	count := 0

	for i := range a.snapshot.Invoices {
		inv := &a.snapshot.Invoices[i]
		if inv.Status != domain.InvoicePaid || inv.IssueDate.Before(start) || inv.IssueDate.After(end) {
			continue
		}

		total = total.Add(inv.TotalAmount)
		count++
	}

	return total, count
}

// OutstandingInvoices returns invoices sent but not yet paid or classified overdue.
func (a *FinancialAggregator) OutstandingInvoices() []domain.Invoice {
	var out []domain.Invoice
	for _, inv := range a.snapshot.Invoices {
		if inv.Status == domain.InvoiceSent {
			out = append(out, inv)
		}
	}
	return out
}

// OverdueInvoices returns sent invoices whose due date is before today.
func (a *FinancialAggregator) OverdueInvoices() []domain.Invoice {
	today := a.today()

	var out []domain.Invoice
	for i := range a.snapshot.Invoices {
		if a.snapshot.Invoices[i].IsOverdueOn(today) {
			out = append(out, a.snapshot.Invoices[i])
		}
	}
	return out
}

// ClassifiedOverdueInvoices returns invoices the overdue sweep has already
// moved to the overdue status. OverdueInvoices only sees unswept ones.
func (a *FinancialAggregator) ClassifiedOverdueInvoices() []domain.Invoice {
	var out []domain.Invoice
	for _, inv := range a.snapshot.Invoices {
		if inv.Status == domain.InvoiceOverdue {
			out = append(out, inv)
		}
	}
	return out
}

// RevenueBreakdown splits period revenue by the fixed category shares.
func (a *FinancialAggregator) RevenueBreakdown(start, end string) (domain.RevenueBreakdown, error) {
	total, err := a.RevenueByPeriod(start, end)
	if err != nil {
		return domain.RevenueBreakdown{}, err
	}

	return shareBreakdown(total), nil
}

func shareBreakdown(total decimal.Decimal) domain.RevenueBreakdown {
	return domain.RevenueBreakdown{
		Rooms:      total.Mul(roomsShare),
		Restaurant: total.Mul(restaurantShare),
		Banquet:    total.Mul(banquetShare),
		Other:      total.Mul(otherShare),
	}
}

// ItemizedRevenueBreakdown sums the pre-tax line totals of paid invoices
// issued within [start, end] by item category.
func (a *FinancialAggregator) ItemizedRevenueBreakdown(start, end string) (domain.RevenueBreakdown, error) {
	s, e, err := parseWindow(start, end)
	if err != nil {
		return domain.RevenueBreakdown{}, err
	}

	breakdown := domain.RevenueBreakdown{}
	for i := range a.snapshot.Invoices {
		inv := &a.snapshot.Invoices[i]
		if inv.Status != domain.InvoicePaid || inv.IssueDate.Before(s) || inv.IssueDate.After(e) {
			continue
		}

		for _, item := range inv.Items {
			breakdown.Add(item.Category, item.LineTotal())
		}
	}

	return breakdown, nil
}

// PaymentMethodStats sums payment amounts by method for payments processed
// on a calendar day within [start, end].
func (a *FinancialAggregator) PaymentMethodStats(start, end string) (map[domain.PaymentMethod]decimal.Decimal, error) {
	s, e, err := parseWindow(start, end)
	if err != nil {
		return nil, err
	}

	stats := make(map[domain.PaymentMethod]decimal.Decimal)
	for i := range a.snapshot.Payments {
		p := &a.snapshot.Payments[i]
		if p.ProcessedAt.IsZero() {
			continue
		}

		day := domain.DateOf(p.ProcessedAt.In(a.loc))
		if day.Before(s) || day.After(e) {
			continue
		}

		stats[p.Method] = stats[p.Method].Add(p.Amount)
	}

	return stats, nil
}

// MonthlyRevenueTrend returns revenue for the last months calendar months,
// oldest first, ending with the current month.
func (a *FinancialAggregator) MonthlyRevenueTrend(months int) []domain.MonthlyRevenue {
	if months <= 0 {
		return []domain.MonthlyRevenue{}
	}

	now := a.now().In(a.loc)
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	trend := make([]domain.MonthlyRevenue, 0, months)
	for i := months - 1; i >= 0; i-- {
		first := current.AddDate(0, -i, 0)
		last := first.AddDate(0, 1, -1)

		revenue, _ := a.revenueBetween(domain.DateOf(first), domain.DateOf(last))
		trend = append(trend, domain.MonthlyRevenue{
			Year:    first.Year(),
			Month:   first.Month(),
			Label:   first.Format("Jan 2006"),
			Revenue: revenue,
		})
	}

	return trend
}

// GenerateReport builds an immutable report for [start, end]. Only malformed
// input fails; missing data yields zero values. The caller assigns the ID.
func (a *FinancialAggregator) GenerateReport(reportType, start, end string) (*domain.FinancialReport, error) {
	t, err := domain.ParseReportType(reportType)
	if err != nil {
		return nil, err
	}

	s, e, err := parseWindow(start, end)
	if err != nil {
		return nil, err
	}

	revenue, paidCount := a.revenueBetween(s, e)
	methods, _ := a.PaymentMethodStats(start, end)

	data := domain.ReportData{
		TotalRevenue:      revenue,
		PaidInvoiceCount:  paidCount,
		Breakdown:         shareBreakdown(revenue),
		PaymentMethods:    methods,
		OutstandingAmount: decimal.Zero,
		OverdueAmount:     decimal.Zero,
		Occupancy:         a.occupancy(s, e),
	}

	classified := a.ClassifiedOverdueInvoices()

	for _, inv := range append(a.OutstandingInvoices(), classified...) {
		data.OutstandingCount++
		data.OutstandingAmount = data.OutstandingAmount.Add(inv.TotalAmount)
	}

	for _, inv := range append(a.OverdueInvoices(), classified...) {
		data.OverdueCount++
		data.OverdueAmount = data.OverdueAmount.Add(inv.TotalAmount)
	}

	return &domain.FinancialReport{
		Type:        t,
		StartDate:   s,
		EndDate:     e,
		GeneratedAt: a.now().UTC(),
		Data:        data,
	}, nil
}

// occupancy derives occupancy rate, ADR and RevPAR from the booking snapshot.
// Room nights are counted inside the inclusive window; a stay's room revenue
// is prorated by night.
func (a *FinancialAggregator) occupancy(start, end domain.Date) domain.OccupancyMetrics {
	metrics := domain.OccupancyMetrics{
		RoomRevenue:   decimal.Zero,
		OccupancyRate: decimal.Zero,
		ADR:           decimal.Zero,
		RevPAR:        decimal.Zero,
	}

	if a.roomCount <= 0 || end.Before(start) {
		return metrics
	}

	windowEnd := end.AddDays(1)
	metrics.Available = true
	metrics.RoomCount = a.roomCount
	metrics.AvailableRoomNights = a.roomCount * domain.DaysBetween(start, windowEnd)

	for i := range a.snapshot.Bookings {
		b := &a.snapshot.Bookings[i]
		if !b.Status.CountsAsOccupied() {
			continue
		}

		stayNights := b.Nights()
		if stayNights <= 0 {
			continue
		}

		nights := domain.DaysBetween(domain.MaxDate(b.CheckIn, start), domain.MinDate(b.CheckOut, windowEnd))
		if nights <= 0 {
			continue
		}

		nightly := b.TotalAmount.Div(decimal.NewFromInt(int64(stayNights)))
		metrics.OccupiedRoomNights += nights
		metrics.RoomRevenue = metrics.RoomRevenue.Add(nightly.Mul(decimal.NewFromInt(int64(nights))))
	}

	metrics.RoomRevenue = metrics.RoomRevenue.Round(2)
	available := decimal.NewFromInt(int64(metrics.AvailableRoomNights))
	occupied := decimal.NewFromInt(int64(metrics.OccupiedRoomNights))

	metrics.OccupancyRate = occupied.Div(available).Mul(hundred).Round(2)
	metrics.RevPAR = metrics.RoomRevenue.Div(available).Round(2)
	if metrics.OccupiedRoomNights > 0 {
		metrics.ADR = metrics.RoomRevenue.Div(occupied).Round(2)
	}

	return metrics
}
