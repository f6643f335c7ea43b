package handler

import (
	"net/http"
	"strconv"

	"github.com/srgjo27/hotel_ledger/internal/core/domain"
	"github.com/srgjo27/hotel_ledger/internal/core/services"
	"go.uber.org/zap"
)

type ReportHandler struct {
	svc *services.ReportService
	log *zap.Logger
}

func NewReportHandler(svc *services.ReportService, log *zap.Logger) *ReportHandler {
	return &ReportHandler{svc: svc, log: log}
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError(name, raw, "must be an integer")
	}
	return n, nil
}

func (h *ReportHandler) Revenue(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	start, end := r.URL.Query().Get("start_date"), r.URL.Query().Get("end_date")

	total, err := h.svc.RevenueByPeriod(r.Context(), start, end)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"start_date":    start,
		"end_date":      end,
		"total_revenue": total,
	})
}

func (h *ReportHandler) Breakdown(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	q := r.URL.Query()
	itemized := q.Get("itemized") == "true"

	breakdown, err := h.svc.RevenueBreakdown(r.Context(), q.Get("start_date"), q.Get("end_date"), itemized)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"itemized":  itemized,
		"breakdown": breakdown,
		"total":     breakdown.Total(),
	})
}

func (h *ReportHandler) PaymentMethods(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	q := r.URL.Query()
	stats, err := h.svc.PaymentMethodStats(r.Context(), q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *ReportHandler) Trend(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	months, err := queryInt(r, "months", 6)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	trend, err := h.svc.MonthlyRevenueTrend(r.Context(), months)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, trend)
}

func (h *ReportHandler) Outstanding(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	invoices, err := h.svc.OutstandingInvoices(r.Context())
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, invoices)
}

func (h *ReportHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	invoices, err := h.svc.OverdueInvoices(r.Context())
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, invoices)
}

type generateReportBody struct {
	Type      string `json:"type"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func (h *ReportHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var body generateReportBody
	if !decodeBody(w, r, &body) {
		return
	}

	report, err := h.svc.GenerateReport(r.Context(), body.Type, body.StartDate, body.EndDate)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, report)
}

func (h *ReportHandler) History(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	reports, err := h.svc.ReportHistory(r.Context(), limit)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, reports)
}
