package room

import (
	"net/http"
	"time"

	"reserve/infras/otel"
	"reserve/internal/domains/reservation/service"
	"reserve/internal/rooms"
	"reserve/shared/constant"
	"reserve/shared/failure"
	"reserve/shared/timezone"
	"reserve/transport/http/response"

	"github.com/go-chi/chi/v5"

	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Reservation
	catalog *rooms.Catalog
	otel    otel.Otel
}

func New(service service.Reservation, catalog *rooms.Catalog, otel otel.Otel) Handler {
	return Handler{
		service: service,
		catalog: catalog,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/rooms", func(routerGroup chi.Router) {
		routerGroup.Get("/", handler.GetRooms)
		routerGroup.Get("/status", handler.GetRoomStatus)
	})
}

// GetRooms lists the bookable rooms.
// @Summary Get all rooms
// @Description Retrieve the static catalog of bookable rooms.
// @Tags Room
// @Accept json
// @Produce json
// @Success 200 {object} response.Data[[]rooms.Room] "List of rooms"
// @Router /v1/rooms [get]
func (handler *Handler) GetRooms(w http.ResponseWriter, r *http.Request) {
	_, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetRooms")
	defer scope.End()

	scope.AddEvent("Rooms retrieved successfully")

	response.WithJSON(w, http.StatusOK, handler.catalog.Rooms())
}

// GetRoomStatus reports the occupancy of every room at a point in time.
// @Summary Get room occupancy status
// @Description Report, for every room, whether it is occupied at the given instant and which reservation comes next.
// @Tags Room
// @Accept json
// @Produce json
// @Param as_of query string false "Instant to evaluate (RFC 3339); defaults to now"
// @Success 200 {object} response.Data[dto.OccupancyResponse] "Occupancy per room"
// @Failure 400 {object} response.Error
// @Failure 503 {object} response.Error
// @Router /v1/rooms/status [get]
func (handler *Handler) GetRoomStatus(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetRoomStatus")
	defer scope.End()

	asOf := timezone.Now()

	if raw := r.URL.Query().Get(constant.RequestQueryAsOf); raw != constant.Empty {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			err = failure.BadRequestFromString("as_of must be a valid RFC 3339 timestamp")
			scope.TraceError(err)

			response.WithError(w, err)

			return
		}

		asOf = timezone.ToUTC(parsed)
	}

	occupancy, err := handler.service.CurrentOccupancy(ctx, asOf)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get room status")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Room status retrieved successfully")

	response.WithJSON(w, http.StatusOK, occupancy)
}
