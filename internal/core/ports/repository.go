package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/srgjo27/hotel_ledger/internal/core/domain"
)

type RoomRepository interface {
	GetByID(ctx context.Context, roomID uuid.UUID) (*domain.Room, error)
	ListBookable(ctx context.Context) ([]domain.Room, error)
	CountBookable(ctx context.Context) (int, error)
}

type BookingRepository interface {
	// CreateBooking must re-check room availability inside its own
	// transaction and return domain.ErrRoomUnavailable on overlap.
	CreateBooking(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error)
	ListByRoom(ctx context.Context, roomID uuid.UUID) ([]domain.Booking, error)
	// ListOverlapping returns bookings whose stay intersects [start, end).
	ListOverlapping(ctx context.Context, start, end domain.Date) ([]domain.Booking, error)
	UpdateBooking(ctx context.Context, booking *domain.Booking) error
	UpdateStatus(ctx context.Context, bookingID uuid.UUID, status domain.BookingStatus, version int) error
	AddCharge(ctx context.Context, charge *domain.Charge) error
	GetNoShowCandidates(ctx context.Context, today domain.Date) ([]uuid.UUID, error)
	MarkNoShow(ctx context.Context, bookingID uuid.UUID) error
}

type InvoiceRepository interface {
	// CreateInvoice assigns the next per-year invoice number and stores the
	// invoice; the number is only consumed if the insert commits.
	CreateInvoice(ctx context.Context, invoice *domain.Invoice) error
	GetByID(ctx context.Context, invoiceID uuid.UUID) (*domain.Invoice, error)
	ListInvoices(ctx context.Context) ([]domain.Invoice, error)
	UpdateStatus(ctx context.Context, invoiceID uuid.UUID, from, to domain.InvoiceStatus) error
	// MarkPaid settles the invoice and records the payment atomically.
	MarkPaid(ctx context.Context, invoiceID uuid.UUID, payment *domain.Payment) error
	MarkOverdue(ctx context.Context, today domain.Date) (int64, error)
}

type PaymentRepository interface {
	GetByID(ctx context.Context, paymentID uuid.UUID) (*domain.Payment, error)
	ListPayments(ctx context.Context) ([]domain.Payment, error)
	SaveRefund(ctx context.Context, payment *domain.Payment) error
}

// ReportRepository is append-only.
type ReportRepository interface {
	AppendReport(ctx context.Context, report *domain.FinancialReport) error
	ListReports(ctx context.Context, limit int) ([]domain.FinancialReport, error)
}
