package bootstrap

import (
	"resale-market/internal/infra/payment"
	"resale-market/internal/pkg/clock"
	"resale-market/internal/pkg/config"
	"resale-market/internal/usecase/commands"

	"go.uber.org/fx"
)

var PaymentModule = fx.Module("payment",
	fx.Provide(
		fx.Annotate(
			NewPaymentGateway,
			fx.As(new(commands.PaymentGateway)),
		),
	),
)

func NewPaymentGateway(cfg config.Config, clk clock.Clock) *payment.SimulatedGateway {
	return payment.NewSimulatedGateway(cfg.Payment, clk)
}
