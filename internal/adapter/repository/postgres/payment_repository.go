package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/srgjo27/hotel_ledger/internal/core/domain"
)

const paymentColumns = `id, invoice_id, amount, currency, method, status, processed_at, refund_amount, refund_reason, refunded_at`

func scanPayment(row rowScanner) (domain.Payment, error) {
	var p domain.Payment
	var refundAmount decimal.NullDecimal
	var refundReason sql.NullString
	var refundedAt sql.NullTime

	err := row.Scan(
		&p.ID,
		&p.InvoiceID,
		&p.Amount,
		&p.Currency,
		&p.Method,
		&p.Status,
		&p.ProcessedAt,
		&refundAmount,
		&refundReason,
		&refundedAt,
	)
	if err != nil {
		return p, err
	}

	if refundAmount.Valid {
		p.RefundAmount = &refundAmount.Decimal
	}

	p.RefundReason = refundReason.String

	if refundedAt.Valid {
		p.RefundedAt = &refundedAt.Time
	}

	return p, nil
}

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) GetByID(ctx context.Context, paymentID uuid.UUID) (*domain.Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, paymentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("payment %s: %w", paymentID, domain.ErrNotFound)
		}

		return nil, err
	}

	return &p, nil
}

func (r *PaymentRepository) ListPayments(ctx context.Context) ([]domain.Payment, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+paymentColumns+` FROM payments ORDER BY processed_at`)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}

		payments = append(payments, p)
	}

	return payments, rows.Err()
}

// SaveRefund persists the refund fields of a payment that was completed.
// The original amount is never touched.
func (r *PaymentRepository) SaveRefund(ctx context.Context, payment *domain.Payment) error {
	query := `
	UPDATE payments
	SET status = $1, refund_amount = $2, refund_reason = $3, refunded_at = $4
	WHERE id = $5 AND status = $6
	`

	result, err := r.db.ExecContext(ctx, query,
		payment.Status,
		payment.RefundAmount,
		payment.RefundReason,
		payment.RefundedAt,
		payment.ID,
		domain.PaymentCompleted,
	)
	if err != nil {
		return fmt.Errorf("failed to save refund: %w", err)
	}

	return expectOneRow(result)
}
