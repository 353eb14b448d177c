package billing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRefund(t *testing.T) *Refund {
	t.Helper()
	r, err := NewRefund(uuid.New(), uuid.New(), uuid.New(), uuid.New(), "damaged goods")
	require.NoError(t, err)
	return r
}

func TestNewRefund(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		r := newTestRefund(t)
		assert.Equal(t, RefundStatusPending, r.Status)
		assert.True(t, r.TotalAmount.IsZero())
	})

	t.Run("missing transaction rejected", func(t *testing.T) {
		_, err := NewRefund(uuid.New(), uuid.Nil, uuid.New(), uuid.New(), "")
		assert.Error(t, err)
	})
}

func TestRefund_AddItem(t *testing.T) {
	t.Run("accumulates total", func(t *testing.T) {
		r := newTestRefund(t)
		require.NoError(t, r.AddItem(uuid.New(), 2, decimal.RequireFromString("20.00")))
		require.NoError(t, r.AddItem(uuid.New(), 1, decimal.RequireFromString("4.50")))
		assert.Len(t, r.Items, 2)
		assert.True(t, r.TotalAmount.Equal(decimal.RequireFromString("24.50")))
	})

	t.Run("rejected once approved", func(t *testing.T) {
		r := newTestRefund(t)
		require.NoError(t, r.AddItem(uuid.New(), 1, decimal.NewFromInt(5)))
		require.NoError(t, r.Approve())
		assert.ErrorIs(t, r.AddItem(uuid.New(), 1, decimal.NewFromInt(5)), shared.ErrInvalidState)
	})
}

func TestRefund_StateMachine(t *testing.T) {
	t.Run("pending to approved to completed", func(t *testing.T) {
		r := newTestRefund(t)
		require.NoError(t, r.AddItem(uuid.New(), 1, decimal.NewFromInt(5)))
		require.NoError(t, r.Approve())
		assert.Equal(t, RefundStatusApproved, r.Status)

		require.NoError(t, r.Complete())
		assert.Equal(t, RefundStatusCompleted, r.Status)
		assert.NotNil(t, r.ProcessedAt)

		events := r.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeRefundCompleted, events[0].EventType())
	})

	t.Run("pending to rejected is terminal", func(t *testing.T) {
		r := newTestRefund(t)
		require.NoError(t, r.Reject("items not returned"))
		assert.Equal(t, RefundStatusRejected, r.Status)
		assert.ErrorIs(t, r.Approve(), shared.ErrInvalidState)
		assert.ErrorIs(t, r.Complete(), shared.ErrInvalidState)
	})

	t.Run("cannot complete without approval", func(t *testing.T) {
		r := newTestRefund(t)
		assert.ErrorIs(t, r.Complete(), shared.ErrInvalidState)
	})
}
