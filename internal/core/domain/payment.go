package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentCard         PaymentMethod = "card"
	PaymentBankTransfer PaymentMethod = "bank-transfer"
	PaymentUPI          PaymentMethod = "upi"
	PaymentOther        PaymentMethod = "other"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	method := PaymentMethod(s)
	switch method {
	case PaymentCash, PaymentCard, PaymentBankTransfer, PaymentUPI, PaymentOther:
		return method, nil
	}
	return "", NewValidationError("method", s, "unknown payment method")
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentRefunded  PaymentStatus = "refunded"
)

type Payment struct {
	ID           uuid.UUID        `json:"id"`
	InvoiceID    uuid.UUID        `json:"invoice_id"`
	Amount       decimal.Decimal  `json:"amount"`
	Currency     string           `json:"currency"`
	Method       PaymentMethod    `json:"method"`
	Status       PaymentStatus    `json:"status"`
	ProcessedAt  time.Time        `json:"processed_at"`
	RefundAmount *decimal.Decimal `json:"refund_amount,omitempty"`
	RefundReason string           `json:"refund_reason,omitempty"`
	RefundedAt   *time.Time       `json:"refunded_at,omitempty"`
}

// Refund records a refund against a completed payment. Only the refund
// fields and the status change.
func (p *Payment) Refund(amount decimal.Decimal, reason string, at time.Time) error {
	if p.Status != PaymentCompleted {
		return ErrInvalidTransition
	}

	if !amount.IsPositive() || amount.GreaterThan(p.Amount) {
		return NewValidationError("amount", amount.String(), "must be positive and not exceed the payment amount")
	}

	p.Status = PaymentRefunded
	p.RefundAmount = &amount
	p.RefundReason = reason
	p.RefundedAt = &at

	return nil
}
