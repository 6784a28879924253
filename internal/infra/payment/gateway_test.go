package payment

import (
	"context"
	"testing"
	"time"

	"resale-market/internal/pkg/clock"
	"resale-market/internal/pkg/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGateway(t *testing.T, successRate float64) *SimulatedGateway {
	t.Helper()
	cfg := config.PaymentConfig{SuccessRate: successRate, MinLatency: 0, MaxLatency: 0}
	clk := clock.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	return NewSimulatedGateway(cfg, clk)
}

func TestSimulatedGateway_Authorize(t *testing.T) {
	t.Run("always succeeds at rate 1.0", func(t *testing.T) {
		g := newGateway(t, 1.0)

		res, err := g.Authorize(context.Background(), uuid.New(), 15000, "ZAR")
		require.NoError(t, err)

		assert.True(t, res.Success)
		assert.NotEmpty(t, res.AuthorizationID)
		assert.NotEmpty(t, res.TransactionID)
		assert.Empty(t, res.DeclineReason)
	})

	t.Run("always declines at rate 0.0 with a known reason", func(t *testing.T) {
		g := newGateway(t, 0.0)
		known := map[string]bool{
			"INSUFFICIENT_FUNDS": true,
			"CARD_DECLINED":      true,
			"EXPIRED_CARD":       true,
			"FRAUD_SUSPECTED":    true,
			"NETWORK_ERROR":      true,
		}

		for i := 0; i < 20; i++ {
			res, err := g.Authorize(context.Background(), uuid.New(), 15000, "ZAR")
			require.NoError(t, err)

			assert.False(t, res.Success)
			assert.Empty(t, res.AuthorizationID)
			assert.True(t, known[string(res.DeclineReason)], "unexpected reason %q", res.DeclineReason)
			assert.NotEmpty(t, res.Message)
		}
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		g := newGateway(t, 1.0)

		_, err := g.Authorize(context.Background(), uuid.New(), 0, "ZAR")
		assert.ErrorIs(t, err, ErrInvalidAmount)

		_, err = g.Authorize(context.Background(), uuid.New(), -100, "ZAR")
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("propagates cancellation during latency", func(t *testing.T) {
		cfg := config.PaymentConfig{SuccessRate: 1.0, MinLatency: time.Second, MaxLatency: 2 * time.Second}
		g := NewSimulatedGateway(cfg, clock.NewRealClock())

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err := g.Authorize(ctx, uuid.New(), 15000, "ZAR")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestSimulatedGateway_CaptureRefundVoid(t *testing.T) {
	t.Run("capture then refund up to the captured amount", func(t *testing.T) {
		g := newGateway(t, 1.0)
		auth, err := g.Authorize(context.Background(), uuid.New(), 30000, "ZAR")
		require.NoError(t, err)

		cap, err := g.Capture(context.Background(), auth.AuthorizationID)
		require.NoError(t, err)
		assert.NotEmpty(t, cap.TransactionID)

		_, err = g.Refund(context.Background(), cap.TransactionID, 10000)
		require.NoError(t, err)

		_, err = g.Refund(context.Background(), cap.TransactionID, 25000)
		assert.ErrorIs(t, err, ErrRefundExceedsTxn)
	})

	t.Run("capture is rejected twice", func(t *testing.T) {
		g := newGateway(t, 1.0)
		auth, err := g.Authorize(context.Background(), uuid.New(), 5000, "ZAR")
		require.NoError(t, err)

		_, err = g.Capture(context.Background(), auth.AuthorizationID)
		require.NoError(t, err)

		_, err = g.Capture(context.Background(), auth.AuthorizationID)
		assert.ErrorIs(t, err, ErrAlreadyCaptured)
	})

	t.Run("void releases an uncaptured hold", func(t *testing.T) {
		g := newGateway(t, 1.0)
		auth, err := g.Authorize(context.Background(), uuid.New(), 5000, "ZAR")
		require.NoError(t, err)

		require.NoError(t, g.Void(context.Background(), auth.AuthorizationID))

		_, err = g.Capture(context.Background(), auth.AuthorizationID)
		assert.ErrorIs(t, err, ErrAlreadyVoided)
	})

	t.Run("void after capture is rejected", func(t *testing.T) {
		g := newGateway(t, 1.0)
		auth, err := g.Authorize(context.Background(), uuid.New(), 5000, "ZAR")
		require.NoError(t, err)

		_, err = g.Capture(context.Background(), auth.AuthorizationID)
		require.NoError(t, err)

		assert.ErrorIs(t, g.Void(context.Background(), auth.AuthorizationID), ErrAlreadyCaptured)
	})

	t.Run("unknown ids are rejected", func(t *testing.T) {
		g := newGateway(t, 1.0)

		_, err := g.Capture(context.Background(), "AUTH-missing")
		assert.ErrorIs(t, err, ErrUnknownAuth)

		_, err = g.Refund(context.Background(), "CAP-missing", 100)
		assert.ErrorIs(t, err, ErrUnknownTxn)

		assert.ErrorIs(t, g.Void(context.Background(), "AUTH-missing"), ErrUnknownAuth)
	})
}
