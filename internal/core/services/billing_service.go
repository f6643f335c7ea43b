package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/srgjo27/hotel_ledger/internal/core/domain"
	"github.com/srgjo27/hotel_ledger/internal/core/ports"
	"go.uber.org/zap"
)

type InvoiceItemRequest struct {
	Description string `json:"description"`
	Category    string `json:"category"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	TaxRate     string `json:"tax_rate"`
}

type CreateInvoiceRequest struct {
	GuestID        string               `json:"guest_id"`
	BookingID      string               `json:"booking_id,omitempty"`
	IssueDate      string               `json:"issue_date"`
	DueDate        string               `json:"due_date"`
	Currency       string               `json:"currency,omitempty"`
	DiscountAmount string               `json:"discount_amount,omitempty"`
	Items          []InvoiceItemRequest `json:"items"`
}

type RefundRequest struct {
	Amount string `json:"amount"`
	Reason string `json:"reason"`
}

// BillingService owns every invoice and payment mutation. The aggregator
// only ever reads what this service writes.
type BillingService struct {
	bookingRepo ports.BookingRepository
	invoiceRepo ports.InvoiceRepository
	paymentRepo ports.PaymentRepository
	redis       *redis.Client
	opts        Options
}

func NewBillingService(bookingRepo ports.BookingRepository, invoiceRepo ports.InvoiceRepository, paymentRepo ports.PaymentRepository, redisClient *redis.Client, opts ...Option) *BillingService {
	return &BillingService{
		bookingRepo: bookingRepo,
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		redis:       redisClient,
		opts:        newOptions(opts),
	}
}

func parseAmount(field, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}

	return domain.ParseAmount(field, value)
}

func (s *BillingService) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*domain.Invoice, error) {
	guestID, err := parseID("guest_id", req.GuestID)
	if err != nil {
		return nil, err
	}

	issueDate, err := domain.ParseDate("issue_date", req.IssueDate)
	if err != nil {
		return nil, err
	}

	dueDate, err := domain.ParseDate("due_date", req.DueDate)
	if err != nil {
		return nil, err
	}

	discount, err := parseAmount("discount_amount", req.DiscountAmount)
	if err != nil {
		return nil, err
	}

	invoice := &domain.Invoice{
		ID:             s.opts.NewID(),
		GuestID:        guestID,
		IssueDate:      issueDate,
		DueDate:        dueDate,
		DiscountAmount: discount,
		Currency:       req.Currency,
		Status:         domain.InvoiceDraft,
	}

	if req.BookingID != "" {
		bookingID, err := parseID("booking_id", req.BookingID)
		if err != nil {
			return nil, err
		}
		invoice.BookingID = &bookingID
	}

	for _, itemReq := range req.Items {
		category, err := domain.ParseRevenueCategory(itemReq.Category)
		if err != nil {
			return nil, err
		}

		unitPrice, err := parseAmount("unit_price", itemReq.UnitPrice)
		if err != nil {
			return nil, err
		}

		taxRate, err := parseAmount("tax_rate", itemReq.TaxRate)
		if err != nil {
			return nil, err
		}

		invoice.Items = append(invoice.Items, domain.InvoiceItem{
			ID:          s.opts.NewID(),
			InvoiceID:   invoice.ID,
			Description: itemReq.Description,
			Category:    category,
			Quantity:    itemReq.Quantity,
			UnitPrice:   unitPrice,
			TaxRate:     taxRate,
		})
	}

	if err := s.issue(ctx, invoice); err != nil {
		return nil, err
	}

	return invoice, nil
}

// CreateInvoiceFromBooking bills a stay: one room line for all nights plus
// one line per posted charge, taxed at the configured rate.
func (s *BillingService) CreateInvoiceFromBooking(ctx context.Context, bookingID string) (*domain.Invoice, error) {
	id, err := parseID("booking_id", bookingID)
	if err != nil {
		return nil, err
	}

	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if booking.Status == domain.BookingCancelled {
		return nil, fmt.Errorf("%w: cannot bill a cancelled booking", domain.ErrInvalidTransition)
	}

	today := domain.DateOf(s.opts.today())
	invoice := &domain.Invoice{
		ID:             s.opts.NewID(),
		BookingID:      &booking.ID,
		GuestID:        booking.GuestID,
		IssueDate:      today,
		DueDate:        today.AddDays(s.opts.DefaultDueDays),
		DiscountAmount: decimal.Zero,
		Currency:       booking.Currency,
		Status:         domain.InvoiceDraft,
	}

	nights := booking.Nights()
	if nights > 0 && booking.TotalAmount.IsPositive() {
		invoice.Items = append(invoice.Items, domain.InvoiceItem{
			ID:          s.opts.NewID(),
			InvoiceID:   invoice.ID,
			Description: fmt.Sprintf("Room charges %s to %s (%d nights)", booking.CheckIn, booking.CheckOut, nights),
			Category:    domain.CategoryRooms,
			Quantity:    nights,
			UnitPrice:   booking.TotalAmount.Div(decimal.NewFromInt(int64(nights))).Round(2),
			TaxRate:     s.opts.TaxRate,
		})
	}

	for _, charge := range booking.Charges {
		invoice.Items = append(invoice.Items, domain.InvoiceItem{
			ID:          s.opts.NewID(),
			InvoiceID:   invoice.ID,
			Description: charge.Description,
			Category:    charge.Category,
			Quantity:    1,
			UnitPrice:   charge.Amount,
			TaxRate:     s.opts.TaxRate,
		})
	}

	if err := s.issue(ctx, invoice); err != nil {
		return nil, err
	}

	return invoice, nil
}

// issue totals, validates and stores a new draft invoice. The store assigns
// the invoice number.
func (s *BillingService) issue(ctx context.Context, invoice *domain.Invoice) error {
	if invoice.Currency == "" {
		invoice.Currency = s.opts.Currency
	}

	invoice.Recalculate()
	if err := invoice.Validate(); err != nil {
		return err
	}

	invoice.CreatedAt = s.opts.Now()

	if err := s.invoiceRepo.CreateInvoice(ctx, invoice); err != nil {
		return fmt.Errorf("failed to create invoice for guest %s: %w", invoice.GuestID, err)
	}

	s.opts.Logger.Info("invoice created",
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("total_amount", invoice.TotalAmount.String()),
	)

	return nil
}

func (s *BillingService) SendInvoice(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	return s.transition(ctx, invoiceID, domain.InvoiceSent)
}

func (s *BillingService) CancelInvoice(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	return s.transition(ctx, invoiceID, domain.InvoiceCancelled)
}

func (s *BillingService) transition(ctx context.Context, invoiceID string, next domain.InvoiceStatus) (*domain.Invoice, error) {
	invoice, err := s.loadInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	if !invoice.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: invoice %s is %s", domain.ErrInvalidTransition, invoice.InvoiceNumber, invoice.Status)
	}

	if err := s.invoiceRepo.UpdateStatus(ctx, invoice.ID, invoice.Status, next); err != nil {
		return nil, err
	}

	invoice.Status = next
	return invoice, nil
}

// MarkInvoiceAsPaid settles an invoice in full and records the payment.
func (s *BillingService) MarkInvoiceAsPaid(ctx context.Context, invoiceID, method string) (*domain.Payment, error) {
	paymentMethod, err := domain.ParsePaymentMethod(method)
	if err != nil {
		return nil, err
	}

	invoice, err := s.loadInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	if !invoice.Status.CanTransitionTo(domain.InvoicePaid) {
		return nil, fmt.Errorf("%w: invoice %s is %s", domain.ErrInvalidTransition, invoice.InvoiceNumber, invoice.Status)
	}

	payment := &domain.Payment{
		ID:          s.opts.NewID(),
		InvoiceID:   invoice.ID,
		Amount:      invoice.TotalAmount,
		Currency:    invoice.Currency,
		Method:      paymentMethod,
		Status:      domain.PaymentCompleted,
		ProcessedAt: s.opts.Now().UTC(),
	}

	if err := s.invoiceRepo.MarkPaid(ctx, invoice.ID, payment); err != nil {
		return nil, fmt.Errorf("failed to settle invoice %s: %w", invoice.InvoiceNumber, err)
	}

	s.invalidateReportCache(ctx)

	s.opts.Logger.Info("invoice paid",
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("method", string(paymentMethod)),
		zap.String("amount", payment.Amount.String()),
	)

	return payment, nil
}

func (s *BillingService) RefundPayment(ctx context.Context, paymentID string, req RefundRequest) (*domain.Payment, error) {
	id, err := parseID("payment_id", paymentID)
	if err != nil {
		return nil, err
	}

	amount, err := domain.ParseAmount("amount", req.Amount)
	if err != nil {
		return nil, err
	}

	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := payment.Refund(amount, req.Reason, s.opts.Now().UTC()); err != nil {
		return nil, err
	}

	if err := s.paymentRepo.SaveRefund(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to record refund: %w", err)
	}

	s.opts.Logger.Info("payment refunded",
		zap.String("payment_id", payment.ID.String()),
		zap.String("amount", amount.String()),
	)

	return payment, nil
}

func (s *BillingService) loadInvoice(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	id, err := parseID("invoice_id", invoiceID)
	if err != nil {
		return nil, err
	}
	return s.invoiceRepo.GetByID(ctx, id)
}

// invalidateReportCache drops the cached dashboard trend for this month.
// A failure only costs a stale dashboard until the TTL expires.
func (s *BillingService) invalidateReportCache(ctx context.Context) {
	key := trendCacheKey(s.opts.today())
	if err := s.redis.Del(ctx, key).Err(); err != nil {
		s.opts.Logger.Warn("failed to invalidate report cache", zap.String("key", key), zap.Error(err))
	}
}

func (s *BillingService) RunOverdueSweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.opts.Logger.Info("overdue sweep started", zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			s.opts.Logger.Info("overdue sweep stopped")
			return
		case <-ticker.C:
			s.processOverdue(ctx)
		}
	}
}

func (s *BillingService) processOverdue(ctx context.Context) {
	today := domain.DateOf(s.opts.today())

	n, err := s.invoiceRepo.MarkOverdue(ctx, today)
	if err != nil {
		s.opts.Logger.Error("failed to mark overdue invoices", zap.Error(err))
		return
	}

	if n > 0 {
		s.opts.Logger.Info("invoices marked overdue", zap.Int64("count", n), zap.String("today", today.String()))
	}
}
