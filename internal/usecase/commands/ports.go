package commands

import (
	"context"

	"resale-market/internal/domain/payment"
	"resale-market/internal/infra/events"

	"github.com/google/uuid"
)

// PaymentGateway is the slice of the acquirer API the fulfillment
// pipeline needs: place a hold, release it when fulfillment fails after
// authorization.
type PaymentGateway interface {
	Authorize(ctx context.Context, orderID uuid.UUID, amount int64, currency string) (payment.AuthResult, error)
	Void(ctx context.Context, authorizationID string) error
}

// EventPublisher emits integration events after the transaction commits.
type EventPublisher interface {
	PublishOrderFulfilled(ctx context.Context, event events.OrderFulfilled) error
}
