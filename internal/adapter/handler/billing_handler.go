package handler

import (
	"context"
	"net/http"

	"github.com/srgjo27/hotel_ledger/internal/core/domain"
	"github.com/srgjo27/hotel_ledger/internal/core/services"
	"go.uber.org/zap"
)

type BillingHandler struct {
	svc *services.BillingService
	log *zap.Logger
}

func NewBillingHandler(svc *services.BillingService, log *zap.Logger) *BillingHandler {
	return &BillingHandler{svc: svc, log: log}
}

func (h *BillingHandler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req services.CreateInvoiceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	invoice, err := h.svc.CreateInvoice(r.Context(), req)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, invoice)
}

type bookingRefBody struct {
	BookingID string `json:"booking_id"`
}

func (h *BillingHandler) InvoiceBooking(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var body bookingRefBody
	if !decodeBody(w, r, &body) {
		return
	}

	invoice, err := h.svc.CreateInvoiceFromBooking(r.Context(), body.BookingID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, invoice)
}

type invoiceRefBody struct {
	InvoiceID string `json:"invoice_id"`
	Method    string `json:"method,omitempty"`
}

func (h *BillingHandler) SendInvoice(w http.ResponseWriter, r *http.Request) {
	h.invoiceAction(w, r, h.svc.SendInvoice)
}

func (h *BillingHandler) CancelInvoice(w http.ResponseWriter, r *http.Request) {
	h.invoiceAction(w, r, h.svc.CancelInvoice)
}

func (h *BillingHandler) invoiceAction(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, invoiceID string) (*domain.Invoice, error)) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var body invoiceRefBody
	if !decodeBody(w, r, &body) {
		return
	}

	invoice, err := action(r.Context(), body.InvoiceID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, invoice)
}

func (h *BillingHandler) PayInvoice(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var body invoiceRefBody
	if !decodeBody(w, r, &body) {
		return
	}

	payment, err := h.svc.MarkInvoiceAsPaid(r.Context(), body.InvoiceID, body.Method)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, payment)
}

type refundBody struct {
	PaymentID string `json:"payment_id"`
	services.RefundRequest
}

func (h *BillingHandler) RefundPayment(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var body refundBody
	if !decodeBody(w, r, &body) {
		return
	}

	payment, err := h.svc.RefundPayment(r.Context(), body.PaymentID, body.RefundRequest)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, payment)
}
