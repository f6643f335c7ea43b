package handler

import (
	"net/http"

	"github.com/srgjo27/hotel_ledger/internal/core/services"
	"go.uber.org/zap"
)

type BookingHandler struct {
	svc *services.BookingService
	log *zap.Logger
}

func NewBookingHandler(svc *services.BookingService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{svc: svc, log: log}
}

func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req services.CreateBookingRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.svc.CreateBooking(r.Context(), req)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

type updateBookingBody struct {
	BookingID string `json:"booking_id"`
	services.UpdateBookingRequest
}

func (h *BookingHandler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var body updateBookingBody
	if !decodeBody(w, r, &body) {
		return
	}

	resp, err := h.svc.UpdateBookingDates(r.Context(), body.BookingID, body.UpdateBookingRequest)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Availability answers for one room when room_id is given, otherwise it
// lists every bookable room that is free for the stay.
func (h *BookingHandler) Availability(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	q := r.URL.Query()
	checkIn, checkOut := q.Get("check_in"), q.Get("check_out")

	if roomID := q.Get("room_id"); roomID != "" {
		available, err := h.svc.CheckAvailability(r.Context(), roomID, checkIn, checkOut, q.Get("exclude_booking_id"))
		if err != nil {
			writeError(w, h.log, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"room_id":   roomID,
			"check_in":  checkIn,
			"check_out": checkOut,
			"available": available,
		})
		return
	}

	rooms, err := h.svc.AvailableRooms(r.Context(), checkIn, checkOut)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"rooms": rooms})
}

type statusBody struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

func (h *BookingHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var body statusBody
	if !decodeBody(w, r, &body) {
		return
	}

	resp, err := h.svc.ChangeStatus(r.Context(), body.BookingID, body.Status)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

type chargeBody struct {
	BookingID string `json:"booking_id"`
	services.ChargeRequest
}

func (h *BookingHandler) AddCharge(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var body chargeBody
	if !decodeBody(w, r, &body) {
		return
	}

	charge, err := h.svc.AddCharge(r.Context(), body.BookingID, body.ChargeRequest)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, charge)
}
