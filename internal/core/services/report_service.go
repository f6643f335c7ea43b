package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/srgjo27/hotel_ledger/internal/core/domain"
	"github.com/srgjo27/hotel_ledger/internal/core/ports"
	"go.uber.org/zap"
)

// maxTrendMonths bounds the dashboard trend request.
const maxTrendMonths = 120

// trendCacheKey is the hash holding cached trends for the current month,
// one field per requested month count.
func trendCacheKey(now time.Time) string {
	return fmt.Sprintf("report:trend:%s", now.Format("2006-01"))
}

// ReportService loads read-only snapshots from the stores and answers
// dashboard queries through the FinancialAggregator.
type ReportService struct {
	bookingRepo ports.BookingRepository
	invoiceRepo ports.InvoiceRepository
	paymentRepo ports.PaymentRepository
	roomRepo    ports.RoomRepository
	reportRepo  ports.ReportRepository
	redis       *redis.Client
	opts        Options
}

func NewReportService(
	bookingRepo ports.BookingRepository,
	invoiceRepo ports.InvoiceRepository,
	paymentRepo ports.PaymentRepository,
	roomRepo ports.RoomRepository,
	reportRepo ports.ReportRepository,
	redisClient *redis.Client,
	opts ...Option,
) *ReportService {
	return &ReportService{
		bookingRepo: bookingRepo,
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		roomRepo:    roomRepo,
		reportRepo:  reportRepo,
		redis:       redisClient,
		opts:        newOptions(opts),
	}
}

func (s *ReportService) aggregator(snapshot domain.Snapshot, extra ...AggregatorOption) *FinancialAggregator {
	opts := append([]AggregatorOption{
		WithAggregatorClock(s.opts.Now),
		WithAggregatorLocation(s.opts.Location),
	}, extra...)
	return NewFinancialAggregator(snapshot, opts...)
}

func (s *ReportService) loadInvoices(ctx context.Context) (domain.Snapshot, error) {
	invoices, err := s.invoiceRepo.ListInvoices(ctx)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to load invoices: %w", err)
	}
	return domain.Snapshot{Invoices: invoices}, nil
}

func (s *ReportService) loadLedger(ctx context.Context) (domain.Snapshot, error) {
	snapshot, err := s.loadInvoices(ctx)
	if err != nil {
		return snapshot, err
	}

	payments, err := s.paymentRepo.ListPayments(ctx)
	if err != nil {
		return snapshot, fmt.Errorf("failed to load payments: %w", err)
	}
	snapshot.Payments = payments

	return snapshot, nil
}

func (s *ReportService) RevenueByPeriod(ctx context.Context, start, end string) (decimal.Decimal, error) {
	if _, _, err := parseWindow(start, end); err != nil {
		return decimal.Zero, err
	}

	snapshot, err := s.loadInvoices(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	return s.aggregator(snapshot).RevenueByPeriod(start, end)
}

// OutstandingInvoices lists every unpaid receivable: sent invoices plus those
// the overdue sweep has reclassified.
func (s *ReportService) OutstandingInvoices(ctx context.Context) ([]domain.Invoice, error) {
	snapshot, err := s.loadInvoices(ctx)
	if err != nil {
		return nil, err
	}

	agg := s.aggregator(snapshot)
	return append(agg.OutstandingInvoices(), agg.ClassifiedOverdueInvoices()...), nil
}

// OverdueInvoices lists past-due sent invoices and those already marked overdue.
func (s *ReportService) OverdueInvoices(ctx context.Context) ([]domain.Invoice, error) {
	snapshot, err := s.loadInvoices(ctx)
	if err != nil {
		return nil, err
	}

	agg := s.aggregator(snapshot)
	return append(agg.OverdueInvoices(), agg.ClassifiedOverdueInvoices()...), nil
}

// RevenueBreakdown uses the fixed category shares unless itemized is set,
// in which case paid invoice lines are summed per category.
func (s *ReportService) RevenueBreakdown(ctx context.Context, start, end string, itemized bool) (domain.RevenueBreakdown, error) {
	if _, _, err := parseWindow(start, end); err != nil {
		return domain.RevenueBreakdown{}, err
	}

	snapshot, err := s.loadInvoices(ctx)
	if err != nil {
		return domain.RevenueBreakdown{}, err
	}

	if itemized {
		return s.aggregator(snapshot).ItemizedRevenueBreakdown(start, end)
	}
	return s.aggregator(snapshot).RevenueBreakdown(start, end)
}

func (s *ReportService) PaymentMethodStats(ctx context.Context, start, end string) (map[domain.PaymentMethod]decimal.Decimal, error) {
	if _, _, err := parseWindow(start, end); err != nil {
		return nil, err
	}

	payments, err := s.paymentRepo.ListPayments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}

	return s.aggregator(domain.Snapshot{Payments: payments}).PaymentMethodStats(start, end)
}

// MonthlyRevenueTrend is served from Redis when possible. Cache errors are
// logged and the trend is recomputed.
func (s *ReportService) MonthlyRevenueTrend(ctx context.Context, months int) ([]domain.MonthlyRevenue, error) {
	if months > maxTrendMonths {
		return nil, domain.NewValidationError("months", strconv.Itoa(months), fmt.Sprintf("must not exceed %d", maxTrendMonths))
	}

	if months <= 0 {
		return []domain.MonthlyRevenue{}, nil
	}

	key := trendCacheKey(s.opts.today())
	field := strconv.Itoa(months)

	cached, err := s.redis.HGet(ctx, key, field).Result()
	switch {
	case err == nil:
		var trend []domain.MonthlyRevenue
		if err := json.Unmarshal([]byte(cached), &trend); err == nil {
			return trend, nil
		}
		s.opts.Logger.Warn("discarding unreadable trend cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		s.opts.Logger.Warn("trend cache lookup failed", zap.String("key", key), zap.Error(err))
	}

	snapshot, err := s.loadInvoices(ctx)
	if err != nil {
		return nil, err
	}

	trend := s.aggregator(snapshot).MonthlyRevenueTrend(months)

	payload, err := json.Marshal(trend)
	if err != nil {
		return trend, nil
	}

	if err := s.redis.HSet(ctx, key, field, string(payload)).Err(); err != nil {
		s.opts.Logger.Warn("failed to cache trend", zap.String("key", key), zap.Error(err))
		return trend, nil
	}

	if err := s.redis.Expire(ctx, key, s.opts.CacheTTL).Err(); err != nil {
		s.opts.Logger.Warn("failed to set trend cache ttl", zap.String("key", key), zap.Error(err))
	}

	return trend, nil
}

// GenerateReport builds a report over [start, end] and appends it to the
// report history. Occupancy metrics use the count of bookable rooms.
func (s *ReportService) GenerateReport(ctx context.Context, reportType, start, end string) (*domain.FinancialReport, error) {
	if _, err := domain.ParseReportType(reportType); err != nil {
		return nil, err
	}

	startDate, endDate, err := parseWindow(start, end)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.loadLedger(ctx)
	if err != nil {
		return nil, err
	}

	if !endDate.Before(startDate) {
		bookings, err := s.bookingRepo.ListOverlapping(ctx, startDate, endDate.AddDays(1))
		if err != nil {
			return nil, fmt.Errorf("failed to load bookings: %w", err)
		}
		snapshot.Bookings = bookings
	}

	rooms, err := s.roomRepo.CountBookable(ctx)
	if err != nil {
		s.opts.Logger.Warn("room inventory unavailable, occupancy metrics omitted", zap.Error(err))
		rooms = 0
	}

	report, err := s.aggregator(snapshot, WithRoomInventory(rooms)).GenerateReport(reportType, start, end)
	if err != nil {
		return nil, err
	}
	report.ID = s.opts.NewID()

	if err := s.reportRepo.AppendReport(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to store report: %w", err)
	}

	s.opts.Logger.Info("financial report generated",
		zap.String("report_id", report.ID.String()),
		zap.String("type", string(report.Type)),
		zap.String("start_date", start),
		zap.String("end_date", end),
		zap.String("total_revenue", report.Data.TotalRevenue.String()),
	)

	return report, nil
}

func (s *ReportService) ReportHistory(ctx context.Context, limit int) ([]domain.FinancialReport, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.reportRepo.ListReports(ctx, limit)
}
