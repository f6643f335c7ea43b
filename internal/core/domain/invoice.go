package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RevenueCategory string

const (
	CategoryRooms      RevenueCategory = "rooms"
	CategoryRestaurant RevenueCategory = "restaurant"
	CategoryBanquet    RevenueCategory = "banquet"
	CategoryOther      RevenueCategory = "other"
)

func ParseRevenueCategory(s string) (RevenueCategory, error) {
	category := RevenueCategory(s)
	switch category {
	case CategoryRooms, CategoryRestaurant, CategoryBanquet, CategoryOther:
		return category, nil
	}
	return "", NewValidationError("category", s, "unknown revenue category")
}

type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoiceSent      InvoiceStatus = "sent"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

func (s InvoiceStatus) CanTransitionTo(next InvoiceStatus) bool {
	switch s {
	case InvoiceDraft:
		return next == InvoiceSent || next == InvoiceCancelled
	case InvoiceSent:
		return next == InvoicePaid || next == InvoiceOverdue || next == InvoiceCancelled
	case InvoiceOverdue:
		return next == InvoicePaid || next == InvoiceCancelled
	case InvoicePaid, InvoiceCancelled:
		return false
	}
	return false
}

// InvoiceItem is a single invoice line. TaxRate is a percentage (18 = 18%).
type InvoiceItem struct {
	ID          uuid.UUID       `json:"id"`
	InvoiceID   uuid.UUID       `json:"invoice_id"`
	Description string          `json:"description"`
	Category    RevenueCategory `json:"category"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

func (i InvoiceItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i InvoiceItem) Tax() decimal.Decimal {
	return i.LineTotal().Mul(i.TaxRate).Div(decimal.NewFromInt(100))
}

type Invoice struct {
	ID             uuid.UUID       `json:"id"`
	InvoiceNumber  string          `json:"invoice_number"`
	BookingID      *uuid.UUID      `json:"booking_id,omitempty"`
	GuestID        uuid.UUID       `json:"guest_id"`
	IssueDate      Date            `json:"issue_date"`
	DueDate        Date            `json:"due_date"`
	Items          []InvoiceItem   `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Currency       string          `json:"currency"`
	Status         InvoiceStatus   `json:"status"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// InvoiceNumber formats the yearly sequence, e.g. INV-2024-0007.
func InvoiceNumber(year, seq int) string {
	return fmt.Sprintf("INV-%04d-%04d", year, seq)
}

// Recalculate derives Subtotal, TaxAmount and TotalAmount from the items.
func (inv *Invoice) Recalculate() {
	subtotal := decimal.Zero
	tax := decimal.Zero
	for _, item := range inv.Items {
		subtotal = subtotal.Add(item.LineTotal())
		tax = tax.Add(item.Tax())
	}

	inv.Subtotal = subtotal.Round(2)
	inv.TaxAmount = tax.Round(2)
	inv.TotalAmount = inv.Subtotal.Add(inv.TaxAmount).Sub(inv.DiscountAmount)
}

func (inv *Invoice) Validate() error {
	if len(inv.Items) == 0 {
		return NewValidationError("items", "", "invoice needs at least one item")
	}

	for _, item := range inv.Items {
		if item.Quantity <= 0 {
			return NewValidationError("quantity", fmt.Sprint(item.Quantity), "must be positive")
		}
		if item.UnitPrice.IsNegative() {
			return NewValidationError("unit_price", item.UnitPrice.String(), "must not be negative")
		}
		if item.TaxRate.IsNegative() {
			return NewValidationError("tax_rate", item.TaxRate.String(), "must not be negative")
		}
		if item.TaxRate.GreaterThan(maxTaxRate) {
			return NewValidationError("tax_rate", item.TaxRate.String(), "must not exceed 100")
		}
	}

	if inv.DueDate.Before(inv.IssueDate) {
		return NewValidationError("due_date", inv.DueDate.String(), "must not be before issue_date")
	}

	if inv.DiscountAmount.IsNegative() {
		return NewValidationError("discount_amount", inv.DiscountAmount.String(), "must not be negative")
	}

	if inv.TotalAmount.IsNegative() {
		return NewValidationError("discount_amount", inv.DiscountAmount.String(), "exceeds invoice amount")
	}

	if !inv.TotalAmount.Equal(inv.Subtotal.Add(inv.TaxAmount).Sub(inv.DiscountAmount)) {
		return NewValidationError("total_amount", inv.TotalAmount.String(), "must equal subtotal + tax - discount")
	}

	return nil
}

// IsOverdueOn reports whether a sent invoice is past due. An invoice due on
// today itself is not overdue.
func (inv *Invoice) IsOverdueOn(today Date) bool {
	return inv.Status == InvoiceSent && inv.DueDate.Before(today)
}
