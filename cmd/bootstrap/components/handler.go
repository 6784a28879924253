package components

import (
	"resale-market/internal/handler"
	"resale-market/internal/handler/api"
	"resale-market/internal/handler/middleware"
	"resale-market/internal/pkg/jwt"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewOrderHandler,
		func(s *jwt.Service) middleware.TokenValidator { return s },
		middleware.NewAuthMiddleware,
	),
	fx.Invoke(handler.NewRouter),
)
