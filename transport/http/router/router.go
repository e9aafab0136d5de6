package router

import (
	"reserve/internal/handlers/health"
	"reserve/internal/handlers/reservation"
	"reserve/internal/handlers/room"

	"github.com/go-chi/chi/v5"
)

type DomainHandlers struct {
	Reservation reservation.Handler
	Room        room.Handler
	Health      health.Handler
}

type Router struct {
	DomainHandlers DomainHandlers
}

func (r *Router) SetupRoutes(router chi.Router) {
	r.DomainHandlers.Health.Router(router)

	router.Route("/v1", func(routerGroup chi.Router) {
		r.DomainHandlers.Reservation.Router(routerGroup)
		r.DomainHandlers.Room.Router(routerGroup)
	})
}

func New(domainHandlers DomainHandlers) Router {
	return Router{
		DomainHandlers: domainHandlers,
	}
}
