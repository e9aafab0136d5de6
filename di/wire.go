//go:build wireinject
// +build wireinject

package di

import (
	"reserve/config"
	"reserve/infras/otel"
	"reserve/infras/postgres"
	"reserve/infras/redis"
	"reserve/internal/rooms"
	"reserve/shared/cache"
	"reserve/transport/http"
	"reserve/transport/http/middleware"
	"reserve/transport/http/router"

	reservationRepository "reserve/internal/domains/reservation/repository"
	reservationService "reserve/internal/domains/reservation/service"
	healthHandler "reserve/internal/handlers/health"
	reservationHandler "reserve/internal/handlers/reservation"
	roomHandler "reserve/internal/handlers/room"

	"github.com/google/wire"
)

var configurations = wire.NewSet(
	config.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
)

var reservationDomain = wire.NewSet(
	rooms.New,
	reservationRepository.New,
	reservationService.New,
)

var domains = wire.NewSet(
	reservationDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	reservationHandler.New,
	roomHandler.New,
	healthHandler.New,
	router.New,
)

func InitializeService() *http.HTTP {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
	)

	return &http.HTTP{}
}
