package handler_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/srgjo27/hotel_ledger/internal/adapter/handler"
	"github.com/srgjo27/hotel_ledger/internal/core/domain"
	"github.com/srgjo27/hotel_ledger/internal/core/ports/mocks"
	"github.com/srgjo27/hotel_ledger/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	rooms    *mocks.RoomRepository
	bookings *mocks.BookingRepository
	invoices *mocks.InvoiceRepository
	payments *mocks.PaymentRepository
	reports  *mocks.ReportRepository
	redis    redismock.ClientMock
	router   http.Handler
}

var (
	fixedNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	fixedID  = uuid.MustParse("2b1f6a52-5a3e-4c55-9a7e-0d5f1e2c3b4a")
)

func newTestServer(t *testing.T) *testServer {
	ts := &testServer{
		rooms:    mocks.NewRoomRepository(t),
		bookings: mocks.NewBookingRepository(t),
		invoices: mocks.NewInvoiceRepository(t),
		payments: mocks.NewPaymentRepository(t),
		reports:  mocks.NewReportRepository(t),
	}

	db, mockRedis := redismock.NewClientMock()
	ts.redis = mockRedis

	opts := []services.Option{
		services.WithClock(func() time.Time { return fixedNow }),
		services.WithIDGenerator(func() uuid.UUID { return fixedID }),
		services.WithLockTTL(10 * time.Second),
	}

	log := zap.NewNop()
	ts.router = handler.NewRouter(
		handler.NewBookingHandler(services.NewBookingService(ts.rooms, ts.bookings, db, opts...), log),
		handler.NewBillingHandler(services.NewBillingService(ts.bookings, ts.invoices, ts.payments, db, opts...), log),
		handler.NewReportHandler(services.NewReportService(ts.bookings, ts.invoices, ts.payments, ts.rooms, ts.reports, db, opts...), log),
		log,
	)

	return ts
}

func (ts *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func bookableRoom() *domain.Room {
	return &domain.Room{
		ID:          uuid.New(),
		Number:      "305",
		NightlyRate: decimal.NewFromInt(3200),
		Currency:    "INR",
		Status:      domain.RoomInService,
	}
}

func TestCreateBooking(t *testing.T) {
	t.Run("201 with the booking", func(t *testing.T) {
		ts := newTestServer(t)
		room := bookableRoom()
		key := "room-lock:" + room.ID.String()

		ts.rooms.On("GetByID", mock.Anything, room.ID).Return(room, nil)
		ts.redis.ExpectSetNX(key, fixedID.String(), 10*time.Second).SetVal(true)
		ts.bookings.On("ListByRoom", mock.Anything, room.ID).Return(nil, nil)
		ts.bookings.On("CreateBooking", mock.Anything, mock.AnythingOfType("*domain.Booking")).Return(nil)

		body := fmt.Sprintf(`{"guest_id":%q,"room_id":%q,"check_in":"2024-04-01","check_out":"2024-04-03"}`, uuid.NewString(), room.ID)
		rec := ts.do(http.MethodPost, "/bookings", body)

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		got := decode(t, rec)
		assert.Equal(t, fixedID.String(), got["booking_id"])
		assert.Equal(t, float64(2), got["nights"])
		assert.Equal(t, "6400", got["total_amount"])
	})

	t.Run("409 when the room is taken", func(t *testing.T) {
		ts := newTestServer(t)
		room := bookableRoom()
		key := "room-lock:" + room.ID.String()

		ts.rooms.On("GetByID", mock.Anything, room.ID).Return(room, nil)
		ts.redis.ExpectSetNX(key, fixedID.String(), 10*time.Second).SetVal(true)
		ts.bookings.On("ListByRoom", mock.Anything, room.ID).Return([]domain.Booking{
			{ID: uuid.New(), RoomID: room.ID, CheckIn: "2024-04-02", CheckOut: "2024-04-04", Status: domain.BookingCheckedIn},
		}, nil)

		body := fmt.Sprintf(`{"guest_id":%q,"room_id":%q,"check_in":"2024-04-01","check_out":"2024-04-03"}`, uuid.NewString(), room.ID)
		rec := ts.do(http.MethodPost, "/bookings", body)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "ROOM_UNAVAILABLE", decode(t, rec)["code"])
	})

	t.Run("400 on malformed json", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(http.MethodPost, "/bookings", `{"guest_id":`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("405 on wrong method", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(http.MethodGet, "/bookings", "")

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
	})
}

func TestAvailability(t *testing.T) {
	t.Run("single room", func(t *testing.T) {
		ts := newTestServer(t)
		roomID := uuid.New()
		self := uuid.New()

		ts.bookings.On("ListByRoom", mock.Anything, roomID).Return([]domain.Booking{
			{ID: self, RoomID: roomID, CheckIn: "2024-04-01", CheckOut: "2024-04-05", Status: domain.BookingConfirmed},
		}, nil)

		target := fmt.Sprintf("/bookings/availability?room_id=%s&check_in=2024-04-02&check_out=2024-04-06&exclude_booking_id=%s", roomID, self)
		rec := ts.do(http.MethodGet, target, "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, decode(t, rec)["available"])
	})

	t.Run("inverted stay is a validation error", func(t *testing.T) {
		ts := newTestServer(t)

		target := fmt.Sprintf("/bookings/availability?room_id=%s&check_in=2024-04-06&check_out=2024-04-02", uuid.New())
		rec := ts.do(http.MethodGet, target, "")

		require.Equal(t, http.StatusBadRequest, rec.Code)
		got := decode(t, rec)
		assert.Equal(t, "check_out", got["field"])
		assert.Equal(t, "VALIDATION_FAILED", got["code"])
	})

	t.Run("lists free rooms", func(t *testing.T) {
		ts := newTestServer(t)
		free, taken := bookableRoom(), bookableRoom()

		ts.rooms.On("ListBookable", mock.Anything).Return([]domain.Room{*free, *taken}, nil)
		ts.bookings.On("ListOverlapping", mock.Anything, domain.Date("2024-04-01"), domain.Date("2024-04-03")).Return([]domain.Booking{
			{ID: uuid.New(), RoomID: taken.ID, CheckIn: "2024-03-30", CheckOut: "2024-04-02", Status: domain.BookingConfirmed},
		}, nil)

		rec := ts.do(http.MethodGet, "/bookings/availability?check_in=2024-04-01&check_out=2024-04-03", "")

		require.Equal(t, http.StatusOK, rec.Code)
		rooms := decode(t, rec)["rooms"].([]any)
		require.Len(t, rooms, 1)
		assert.Equal(t, free.ID.String(), rooms[0].(map[string]any)["id"])
	})
}

func TestChangeStatus_InvalidTransition(t *testing.T) {
	ts := newTestServer(t)
	id := uuid.New()

	ts.bookings.On("GetByID", mock.Anything, id).Return(&domain.Booking{ID: id, Status: domain.BookingCancelled}, nil)

	rec := ts.do(http.MethodPost, "/bookings/status", fmt.Sprintf(`{"booking_id":%q,"status":"checked-in"}`, id))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "INVALID_TRANSITION", decode(t, rec)["code"])
}

func TestPayInvoice(t *testing.T) {
	t.Run("404 for unknown invoice", func(t *testing.T) {
		ts := newTestServer(t)
		id := uuid.New()

		ts.invoices.On("GetByID", mock.Anything, id).Return(nil, fmt.Errorf("invoice %s: %w", id, domain.ErrNotFound))

		rec := ts.do(http.MethodPost, "/invoices/pay", fmt.Sprintf(`{"invoice_id":%q,"method":"card"}`, id))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("201 with the payment", func(t *testing.T) {
		ts := newTestServer(t)
		inv := &domain.Invoice{ID: uuid.New(), InvoiceNumber: "INV-2024-0003", TotalAmount: decimal.NewFromInt(900), Currency: "INR", Status: domain.InvoiceSent}

		ts.invoices.On("GetByID", mock.Anything, inv.ID).Return(inv, nil)
		ts.invoices.On("MarkPaid", mock.Anything, inv.ID, mock.AnythingOfType("*domain.Payment")).Return(nil)
		ts.redis.ExpectDel("report:trend:2024-03").SetVal(1)

		rec := ts.do(http.MethodPost, "/invoices/pay", fmt.Sprintf(`{"invoice_id":%q,"method":"upi"}`, inv.ID))

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		got := decode(t, rec)
		assert.Equal(t, "upi", got["method"])
		assert.Equal(t, "900", got["amount"])
		assert.Equal(t, "completed", got["status"])
	})
}

func TestReports(t *testing.T) {
	t.Run("revenue", func(t *testing.T) {
		ts := newTestServer(t)

		ts.invoices.On("ListInvoices", mock.Anything).Return([]domain.Invoice{
			{ID: uuid.New(), IssueDate: "2024-03-02", TotalAmount: decimal.NewFromInt(250), Status: domain.InvoicePaid},
			{ID: uuid.New(), IssueDate: "2024-03-03", TotalAmount: decimal.NewFromInt(50), Status: domain.InvoicePaid},
		}, nil)

		rec := ts.do(http.MethodGet, "/reports/revenue?start_date=2024-03-01&end_date=2024-03-31", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "300", decode(t, rec)["total_revenue"])
	})

	t.Run("trend rejects non numeric months", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(http.MethodGet, "/reports/trend?months=six", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "months", decode(t, rec)["field"])
	})

	t.Run("trend with zero months is empty", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(http.MethodGet, "/reports/trend?months=0", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("store failure is a 500 without details", func(t *testing.T) {
		ts := newTestServer(t)

		ts.invoices.On("ListInvoices", mock.Anything).Return(nil, errors.New("pq: connection reset"))

		rec := ts.do(http.MethodGet, "/reports/outstanding", "")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "internal server error", decode(t, rec)["error"])
	})

	t.Run("generate", func(t *testing.T) {
		ts := newTestServer(t)

		ts.invoices.On("ListInvoices", mock.Anything).Return(nil, nil)
		ts.payments.On("ListPayments", mock.Anything).Return(nil, nil)
		ts.bookings.On("ListOverlapping", mock.Anything, domain.Date("2024-03-01"), domain.Date("2024-04-01")).Return(nil, nil)
		ts.rooms.On("CountBookable", mock.Anything).Return(40, nil)
		ts.reports.On("AppendReport", mock.Anything, mock.AnythingOfType("*domain.FinancialReport")).Return(nil)

		rec := ts.do(http.MethodPost, "/reports", `{"type":"monthly","start_date":"2024-03-01","end_date":"2024-03-31"}`)

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		got := decode(t, rec)
		assert.Equal(t, fixedID.String(), got["id"])
		assert.Equal(t, "monthly", got["type"])
	})
}
