package payment

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"resale-market/internal/domain/payment"
	"resale-market/internal/pkg/clock"
	"resale-market/internal/pkg/config"
	"resale-market/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrInvalidAmount    = errs.New("authorization amount must be positive")
	ErrUnknownAuth      = errs.New("unknown authorization id")
	ErrAlreadyCaptured  = errs.New("authorization already captured")
	ErrAlreadyVoided    = errs.New("authorization already voided")
	ErrUnknownTxn       = errs.New("unknown transaction id")
	ErrRefundExceedsTxn = errs.New("refund exceeds captured amount")
)

// declineReasons is the taxonomy a simulated failure is drawn from,
// weighted roughly like a real acquirer's decline mix.
var declineReasons = []struct {
	reason payment.DeclineReason
	weight int
}{
	{payment.ReasonInsufficientFunds, 40},
	{payment.ReasonCardDeclined, 30},
	{payment.ReasonExpiredCard, 15},
	{payment.ReasonFraudSuspected, 10},
	{payment.ReasonNetworkError, 5},
}

// SimulatedGateway mimics an acquiring bank: configurable latency and a
// configurable share of random declines. It keeps authorizations and
// captures in memory so Capture/Refund/Void behave statefully.
type SimulatedGateway struct {
	cfg config.PaymentConfig
	clk clock.Clock

	mu       sync.Mutex
	rng      *rand.Rand
	auths    map[string]*authRecord
	captures map[string]*captureRecord
}

type authRecord struct {
	orderID  uuid.UUID
	amount   int64
	currency string
	captured bool
	voided   bool
}

type captureRecord struct {
	amount   int64
	refunded int64
}

func NewSimulatedGateway(cfg config.PaymentConfig, clk clock.Clock) *SimulatedGateway {
	return &SimulatedGateway{
		cfg:      cfg,
		clk:      clk,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		auths:    make(map[string]*authRecord),
		captures: make(map[string]*captureRecord),
	}
}

// Authorize places a hold for the given amount. A decline is a normal
// business outcome reported in the result; the error return is reserved
// for context cancellation and invalid input.
func (g *SimulatedGateway) Authorize(ctx context.Context, orderID uuid.UUID, amount int64, currency string) (payment.AuthResult, error) {
	if amount <= 0 {
		return payment.AuthResult{}, ErrInvalidAmount
	}
	if err := g.sleep(ctx); err != nil {
		return payment.AuthResult{}, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clk.Now()
	if g.rng.Float64() >= g.cfg.SuccessRate {
		reason := g.pickDeclineLocked()
		return payment.AuthResult{
			Success:       false,
			TransactionID: g.newIDLocked("TXN", now),
			DeclineReason: reason,
			Message:       declineMessage(reason),
			ProcessedAt:   now,
		}, nil
	}

	authID := g.newIDLocked("AUTH", now)
	g.auths[authID] = &authRecord{orderID: orderID, amount: amount, currency: currency}
	return payment.AuthResult{
		Success:         true,
		AuthorizationID: authID,
		TransactionID:   g.newIDLocked("TXN", now),
		Message:         "Payment authorized",
		ProcessedAt:     now,
	}, nil
}

// Capture settles a previously placed hold in full.
func (g *SimulatedGateway) Capture(ctx context.Context, authorizationID string) (payment.CaptureResult, error) {
	if err := g.sleep(ctx); err != nil {
		return payment.CaptureResult{}, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	auth, ok := g.auths[authorizationID]
	if !ok {
		return payment.CaptureResult{}, ErrUnknownAuth
	}
	if auth.voided {
		return payment.CaptureResult{}, ErrAlreadyVoided
	}
	if auth.captured {
		return payment.CaptureResult{}, ErrAlreadyCaptured
	}

	now := g.clk.Now()
	auth.captured = true
	txnID := g.newIDLocked("CAP", now)
	g.captures[txnID] = &captureRecord{amount: auth.amount}
	return payment.CaptureResult{TransactionID: txnID, ProcessedAt: now}, nil
}

// Refund returns part or all of a captured amount.
func (g *SimulatedGateway) Refund(ctx context.Context, transactionID string, amount int64) (payment.RefundResult, error) {
	if amount <= 0 {
		return payment.RefundResult{}, ErrInvalidAmount
	}
	if err := g.sleep(ctx); err != nil {
		return payment.RefundResult{}, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	captured, ok := g.captures[transactionID]
	if !ok {
		return payment.RefundResult{}, ErrUnknownTxn
	}
	if captured.refunded+amount > captured.amount {
		return payment.RefundResult{}, ErrRefundExceedsTxn
	}

	now := g.clk.Now()
	captured.refunded += amount
	return payment.RefundResult{RefundID: g.newIDLocked("REF", now), ProcessedAt: now}, nil
}

// Void releases an uncaptured hold. Voiding twice is a no-op.
func (g *SimulatedGateway) Void(ctx context.Context, authorizationID string) error {
	if err := g.sleep(ctx); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	auth, ok := g.auths[authorizationID]
	if !ok {
		return ErrUnknownAuth
	}
	if auth.captured {
		return ErrAlreadyCaptured
	}
	auth.voided = true
	return nil
}

// sleep simulates processing latency while honoring cancellation.
func (g *SimulatedGateway) sleep(ctx context.Context) error {
	g.mu.Lock()
	latency := g.cfg.MinLatency
	if span := g.cfg.MaxLatency - g.cfg.MinLatency; span > 0 {
		latency += time.Duration(g.rng.Int63n(int64(span)))
	}
	g.mu.Unlock()

	if latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (g *SimulatedGateway) pickDeclineLocked() payment.DeclineReason {
	total := 0
	for _, d := range declineReasons {
		total += d.weight
	}
	n := g.rng.Intn(total)
	for _, d := range declineReasons {
		if n < d.weight {
			return d.reason
		}
		n -= d.weight
	}
	return payment.ReasonCardDeclined
}

func (g *SimulatedGateway) newIDLocked(prefix string, now time.Time) string {
	return fmt.Sprintf("%s-%s-%06X", prefix, now.UTC().Format("20060102150405"), g.rng.Intn(1<<24))
}

func declineMessage(reason payment.DeclineReason) string {
	switch reason {
	case payment.ReasonInsufficientFunds:
		return "Insufficient funds on card"
	case payment.ReasonCardDeclined:
		return "Card declined by issuer"
	case payment.ReasonExpiredCard:
		return "Card has expired"
	case payment.ReasonFraudSuspected:
		return "Transaction flagged for review"
	case payment.ReasonNetworkError:
		return "Gateway connection error"
	default:
		return "Payment declined"
	}
}
