package components

import (
	"resale-market/internal/domain/discount"
	"resale-market/internal/pkg/clock"
	"resale-market/internal/pkg/config"
	"resale-market/internal/usecase/commands"
	"resale-market/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	fx.Provide(
		clock.NewRealClock,
		discount.DefaultCatalog,
		func(cfg config.Config) config.OrderConfig {
			return cfg.Order
		},
		queries.NewOrderQueries,
		commands.NewOrderCommands,
	),
)
