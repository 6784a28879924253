package payment

import "time"

// DeclineReason is the gateway's machine-readable code for a failed
// authorization attempt.
type DeclineReason string

const (
	ReasonInsufficientFunds DeclineReason = "INSUFFICIENT_FUNDS"
	ReasonCardDeclined      DeclineReason = "CARD_DECLINED"
	ReasonExpiredCard       DeclineReason = "EXPIRED_CARD"
	ReasonFraudSuspected    DeclineReason = "FRAUD_SUSPECTED"
	ReasonNetworkError      DeclineReason = "NETWORK_ERROR"
)

type AuthResult struct {
	Success         bool
	AuthorizationID string
	TransactionID   string
	DeclineReason   DeclineReason
	Message         string
	ProcessedAt     time.Time
}

type CaptureResult struct {
	TransactionID string
	ProcessedAt   time.Time
}

type RefundResult struct {
	RefundID    string
	ProcessedAt time.Time
}
