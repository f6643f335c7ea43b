package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/srgjo27/hotel_ledger/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayment_Refund(t *testing.T) {
	at := time.Date(2024, 3, 20, 9, 30, 0, 0, time.UTC)

	newPayment := func() *domain.Payment {
		return &domain.Payment{ID: uuid.New(), Amount: d("500"), Status: domain.PaymentCompleted}
	}

	t.Run("full refund", func(t *testing.T) {
		p := newPayment()
		require.NoError(t, p.Refund(d("500"), "cancelled event", at))

		assert.Equal(t, domain.PaymentRefunded, p.Status)
		assert.True(t, d("500").Equal(*p.RefundAmount))
		assert.True(t, d("500").Equal(p.Amount))
		assert.Equal(t, at, *p.RefundedAt)
	})

	t.Run("rejects zero and excess amounts", func(t *testing.T) {
		for _, amount := range []string{"0", "-1", "500.01"} {
			p := newPayment()
			var verr *domain.ValidationError
			assert.ErrorAs(t, p.Refund(d(amount), "", at), &verr, amount)
			assert.Equal(t, domain.PaymentCompleted, p.Status)
			assert.Nil(t, p.RefundAmount)
		}
	})

	t.Run("only completed payments", func(t *testing.T) {
		for _, status := range []domain.PaymentStatus{domain.PaymentPending, domain.PaymentRefunded} {
			p := newPayment()
			p.Status = status
			assert.ErrorIs(t, p.Refund(d("1"), "", at), domain.ErrInvalidTransition)
		}
	})
}

func TestParsePaymentMethod(t *testing.T) {
	m, err := domain.ParsePaymentMethod("bank-transfer")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentBankTransfer, m)

	_, err = domain.ParsePaymentMethod("crypto")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "method", verr.Field)
}
