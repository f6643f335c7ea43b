package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/srgjo27/hotel_ledger/internal/core/domain"
)

const uniqueViolation = "23505"

const invoiceColumns = `id, invoice_number, booking_id, guest_id, issue_date, due_date, subtotal, tax_amount, discount_amount, total_amount, currency, status, paid_at, created_at`

func scanInvoice(row rowScanner) (domain.Invoice, error) {
	var inv domain.Invoice
	var bookingID uuid.NullUUID
	var paidAt sql.NullTime

	err := row.Scan(
		&inv.ID,
		&inv.InvoiceNumber,
		&bookingID,
		&inv.GuestID,
		&inv.IssueDate,
		&inv.DueDate,
		&inv.Subtotal,
		&inv.TaxAmount,
		&inv.DiscountAmount,
		&inv.TotalAmount,
		&inv.Currency,
		&inv.Status,
		&paidAt,
		&inv.CreatedAt,
	)
	if err != nil {
		return inv, err
	}

	if bookingID.Valid {
		inv.BookingID = &bookingID.UUID
	}

	if paidAt.Valid {
		inv.PaidAt = &paidAt.Time
	}

	return inv, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

type InvoiceRepository struct {
	db *sql.DB
}

func NewInvoiceRepository(db *sql.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// nextInvoiceSequence hands out the next number for year, starting at 1.
// The counter row stays locked until tx ends, so a rolled back insert
// returns its number.
func nextInvoiceSequence(ctx context.Context, tx *sql.Tx, year int) (int, error) {
	query := `
	INSERT INTO invoice_sequences (year, last_value)
	VALUES ($1, 1)
	ON CONFLICT (year) DO UPDATE SET last_value = invoice_sequences.last_value + 1
	RETURNING last_value
	`

	var seq int
	if err := tx.QueryRowContext(ctx, query, year).Scan(&seq); err != nil {
		return 0, fmt.Errorf("failed to allocate invoice number: %w", err)
	}

	return seq, nil
}

// CreateInvoice numbers the invoice from its issue year and stores the
// header and lines in the same transaction.
func (r *InvoiceRepository) CreateInvoice(ctx context.Context, invoice *domain.Invoice) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer tx.Rollback()

	seq, err := nextInvoiceSequence(ctx, tx, invoice.IssueDate.Year())
	if err != nil {
		return err
	}
	invoice.InvoiceNumber = domain.InvoiceNumber(invoice.IssueDate.Year(), seq)

	queryHeader := `
	INSERT INTO invoices (id, invoice_number, booking_id, guest_id, issue_date, due_date, subtotal, tax_amount, discount_amount, total_amount, currency, status, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err = tx.ExecContext(ctx, queryHeader,
		invoice.ID,
		invoice.InvoiceNumber,
		invoice.BookingID,
		invoice.GuestID,
		invoice.IssueDate,
		invoice.DueDate,
		invoice.Subtotal,
		invoice.TaxAmount,
		invoice.DiscountAmount,
		invoice.TotalAmount,
		invoice.Currency,
		invoice.Status,
		invoice.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("invoice %s: %w", invoice.InvoiceNumber, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to insert invoice header: %w", err)
	}

	queryItem := `
	INSERT INTO invoice_items (id, invoice_id, description, category, quantity, unit_price, tax_rate)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	stmt, err := tx.PrepareContext(ctx, queryItem)
	if err != nil {
		return fmt.Errorf("failed to prepare item statement: %w", err)
	}

	defer stmt.Close()

	for _, item := range invoice.Items {
		_, err := stmt.ExecContext(ctx, item.ID, item.InvoiceID, item.Description, item.Category, item.Quantity, item.UnitPrice, item.TaxRate)
		if err != nil {
			return fmt.Errorf("failed to insert invoice item %q: %w", item.Description, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *InvoiceRepository) GetByID(ctx context.Context, invoiceID uuid.UUID) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`

	inv, err := scanInvoice(r.db.QueryRowContext(ctx, query, invoiceID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("invoice %s: %w", invoiceID, domain.ErrNotFound)
		}

		return nil, err
	}

	items, err := r.listItems(ctx, `WHERE invoice_id = $1`, invoiceID)
	if err != nil {
		return nil, err
	}
	inv.Items = items

	return &inv, nil
}

// ListInvoices returns every invoice with its lines. Reports need the lines
// for the itemized breakdown.
func (r *InvoiceRepository) ListInvoices(ctx context.Context) ([]domain.Invoice, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+invoiceColumns+` FROM invoices ORDER BY issue_date, invoice_number`)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var invoices []domain.Invoice
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}

		index[inv.ID] = len(invoices)
		invoices = append(invoices, inv)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	items, err := r.listItems(ctx, ``)
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		if i, ok := index[item.InvoiceID]; ok {
			invoices[i].Items = append(invoices[i].Items, item)
		}
	}

	return invoices, nil
}

func (r *InvoiceRepository) listItems(ctx context.Context, where string, args ...any) ([]domain.InvoiceItem, error) {
	query := `SELECT id, invoice_id, description, category, quantity, unit_price, tax_rate FROM invoice_items ` + where + ` ORDER BY invoice_id, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice items: %w", err)
	}

	defer rows.Close()

	var items []domain.InvoiceItem
	for rows.Next() {
		var item domain.InvoiceItem
		if err := rows.Scan(
			&item.ID,
			&item.InvoiceID,
			&item.Description,
			&item.Category,
			&item.Quantity,
			&item.UnitPrice,
			&item.TaxRate,
		); err != nil {
			return nil, err
		}

		items = append(items, item)
	}

	return items, rows.Err()
}

// UpdateStatus moves an invoice from one status to another. It fails with
// ErrConcurrencyConflict if the invoice is no longer in the from status.
func (r *InvoiceRepository) UpdateStatus(ctx context.Context, invoiceID uuid.UUID, from, to domain.InvoiceStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE invoices SET status = $1 WHERE id = $2 AND status = $3`, to, invoiceID, from)
	if err != nil {
		return err
	}

	return expectOneRow(result)
}

func (r *InvoiceRepository) MarkPaid(ctx context.Context, invoiceID uuid.UUID, payment *domain.Payment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
	UPDATE invoices
	SET status = $1, paid_at = $2
	WHERE id = $3 AND status IN ($4, $5)
	`, domain.InvoicePaid, payment.ProcessedAt, invoiceID, domain.InvoiceSent, domain.InvoiceOverdue)
	if err != nil {
		return fmt.Errorf("failed to settle invoice: %w", err)
	}

	if err := expectOneRow(result); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
	INSERT INTO payments (id, invoice_id, amount, currency, method, status, processed_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, payment.ID, invoiceID, payment.Amount, payment.Currency, payment.Method, payment.Status, payment.ProcessedAt)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}

	return tx.Commit()
}

func (r *InvoiceRepository) MarkOverdue(ctx context.Context, today domain.Date) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
	UPDATE invoices
	SET status = $1
	WHERE status = $2 AND due_date < $3
	`, domain.InvoiceOverdue, domain.InvoiceSent, today)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
