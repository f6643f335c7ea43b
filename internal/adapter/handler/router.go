package handler

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

func NewRouter(bookings *BookingHandler, billing *BillingHandler, reports *ReportHandler, log *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/bookings", bookings.CreateBooking)
	mux.HandleFunc("/bookings/update", bookings.UpdateBooking)
	mux.HandleFunc("/bookings/availability", bookings.Availability)
	mux.HandleFunc("/bookings/status", bookings.ChangeStatus)
	mux.HandleFunc("/bookings/charges", bookings.AddCharge)

	mux.HandleFunc("/invoices", billing.CreateInvoice)
	mux.HandleFunc("/invoices/from-booking", billing.InvoiceBooking)
	mux.HandleFunc("/invoices/send", billing.SendInvoice)
	mux.HandleFunc("/invoices/cancel", billing.CancelInvoice)
	mux.HandleFunc("/invoices/pay", billing.PayInvoice)
	mux.HandleFunc("/payments/refund", billing.RefundPayment)

	mux.HandleFunc("/reports", reports.Generate)
	mux.HandleFunc("/reports/history", reports.History)
	mux.HandleFunc("/reports/revenue", reports.Revenue)
	mux.HandleFunc("/reports/breakdown", reports.Breakdown)
	mux.HandleFunc("/reports/payment-methods", reports.PaymentMethods)
	mux.HandleFunc("/reports/trend", reports.Trend)
	mux.HandleFunc("/reports/outstanding", reports.Outstanding)
	mux.HandleFunc("/reports/overdue", reports.Overdue)

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return requestLogger(log, mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func requestLogger(log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("latency", time.Since(start)),
		}

		switch {
		case rec.status >= 500:
			log.Error("http request", fields...)
		case rec.status >= 400:
			log.Warn("http request", fields...)
		default:
			log.Info("http request", fields...)
		}
	})
}
