package reservation

import (
	"context"
	"net/http"
	"time"

	"reserve/infras/otel"
	"reserve/internal/domains/reservation/model/dto"
	"reserve/internal/domains/reservation/service"
	"reserve/shared/constant"
	"reserve/shared/failure"
	"reserve/shared/timezone"
	"reserve/shared/validator"
	"reserve/transport/http/response"

	"github.com/go-chi/chi/v5"

	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Reservation
	otel    otel.Otel
}

func New(service service.Reservation, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/reservations", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateReservation)
		routerGroup.Get("/", handler.GetReservations)
		routerGroup.Get("/day/{date}", handler.GetReservationsByDay)
		routerGroup.Get("/{id}", handler.GetReservationByID)
		routerGroup.Patch("/{id}", handler.UpdateReservation)
		routerGroup.Delete("/{id}", handler.DeleteReservation)
	})
}

// CreateReservation handles the creation of a new reservation.
// @Summary Create a new reservation
// @Description Book a room for a half-open time slot. Returns 409 when the slot is already taken.
// @Tags Reservation
// @Accept json
// @Produce json
// @Param request body dto.CreateReservationRequest true "Create Reservation Request"
// @Success 201 {object} response.Data[dto.ReservationResponse] "Reservation created successfully"
// @Failure 400 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 503 {object} response.Error
// @Router /v1/reservations [post]
func (handler *Handler) CreateReservation(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateReservation")
	defer scope.End()

	req := dto.CreateReservationRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	res, err := handler.service.Create(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create reservation")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Reservation created successfully for room " + res.RoomID)

	response.WithJSON(writer, http.StatusCreated, res)
}

// GetReservations retrieves reservations based on query parameters.
// @Summary Get all reservations
// @Description Retrieve reservations, optionally filtered by room, restricted to a time range, or split into upcoming and past.
// @Tags Reservation
// @Accept json
// @Produce json
// @Param room_id query string false "Filter by room ID"
// @Param date query string false "Filter to one UTC calendar day (YYYY-MM-DD)"
// @Param from query string false "Range start (RFC 3339); requires to"
// @Param to query string false "Range end (RFC 3339); requires from"
// @Param split query string false "Set to 1 to split the result into upcoming and past"
// @Success 200 {object} response.Data[dto.GetReservationsResponse] "List of reservations"
// @Failure 400 {object} response.Error
// @Failure 503 {object} response.Error
// @Router /v1/reservations [get]
func (handler *Handler) GetReservations(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetReservations")
	defer scope.End()

	from := r.URL.Query().Get(constant.RequestQueryFrom)
	to := r.URL.Query().Get(constant.RequestQueryTo)

	if from != constant.Empty || to != constant.Empty {
		handler.getReservationsInRange(ctx, w, scope, from, to)

		return
	}

	if date := r.URL.Query().Get(constant.RequestQueryDate); date != constant.Empty {
		handler.getReservationsOnDate(ctx, w, scope, date)

		return
	}

	filter := service.ListFilter{
		RoomID: r.URL.Query().Get(constant.RequestQueryRoomID),
		Split:  r.URL.Query().Get(constant.RequestQuerySplit) == "1",
	}

	reservations, err := handler.service.GetAll(ctx, filter)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get reservations")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Reservations retrieved successfully")

	response.WithJSON(w, http.StatusOK, reservations)
}

func (handler *Handler) getReservationsInRange(ctx context.Context, w http.ResponseWriter, scope otel.Scope, from, to string) {
	rangeStart, err := time.Parse(time.RFC3339, from)
	if err != nil {
		err = failure.BadRequestFromString("from must be a valid RFC 3339 timestamp")
		scope.TraceError(err)
		response.WithError(w, err)

		return
	}

	rangeEnd, err := time.Parse(time.RFC3339, to)
	if err != nil {
		err = failure.BadRequestFromString("to must be a valid RFC 3339 timestamp")
		scope.TraceError(err)
		response.WithError(w, err)

		return
	}

	reservations, err := handler.service.GetRange(ctx, rangeStart, rangeEnd)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get reservations in range")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Reservations in range retrieved successfully")

	response.WithJSON(w, http.StatusOK, reservations)
}

func (handler *Handler) getReservationsOnDate(ctx context.Context, w http.ResponseWriter, scope otel.Scope, date string) {
	day, err := timezone.ParseDate(date)
	if err != nil {
		err = failure.BadRequestFromString("date must be in YYYY-MM-DD format")
		scope.TraceError(err)
		response.WithError(w, err)

		return
	}

	reservations, err := handler.service.GetDay(ctx, day)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get reservations by date")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Reservations by date retrieved successfully")

	response.WithJSON(w, http.StatusOK, reservations)
}

// GetReservationsByDay retrieves the reservations of a single UTC calendar day.
// @Summary Get reservations for a day
// @Description Retrieve all reservations whose start time falls on the given UTC calendar day.
// @Tags Reservation
// @Accept json
// @Produce json
// @Param date path string true "Day (YYYY-MM-DD, UTC)"
// @Success 200 {object} response.Data[dto.GetReservationsResponse] "Reservations for the day"
// @Failure 400 {object} response.Error
// @Failure 503 {object} response.Error
// @Router /v1/reservations/day/{date} [get]
func (handler *Handler) GetReservationsByDay(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetReservationsByDay")
	defer scope.End()

	day, err := timezone.ParseDate(chi.URLParam(r, constant.RequestParamDate))
	if err != nil {
		err = failure.BadRequestFromString("date must be in YYYY-MM-DD format")
		scope.TraceError(err)

		response.WithError(w, err)

		return
	}

	reservations, err := handler.service.GetDay(ctx, day)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get reservations by day")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Reservations by day retrieved successfully")

	response.WithJSON(w, http.StatusOK, reservations)
}

// GetReservationByID retrieves a reservation by its ID.
// @Summary Get a reservation by ID
// @Description Retrieve a reservation by its unique identifier.
// @Tags Reservation
// @Accept json
// @Produce json
// @Param id path string true "Reservation ID"
// @Success 200 {object} response.Data[dto.ReservationResponse] "Reservation details"
// @Failure 404 {object} response.Error
// @Failure 503 {object} response.Error
// @Router /v1/reservations/{id} [get]
func (handler *Handler) GetReservationByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetReservationByID")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	reservation, err := handler.service.Get(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get reservation by ID")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Reservation retrieved successfully")

	response.WithJSON(w, http.StatusOK, reservation)
}

// UpdateReservation updates an existing reservation by its ID.
// @Summary Update a reservation by ID
// @Description Update the details of an existing reservation. Moving the slot re-checks availability.
// @Tags Reservation
// @Accept json
// @Produce json
// @Param id path string true "Reservation ID"
// @Param request body dto.UpdateReservationRequest true "Update Reservation Request"
// @Success 200 {object} response.Data[dto.ReservationResponse] "Reservation updated successfully"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 503 {object} response.Error
// @Router /v1/reservations/{id} [patch]
func (handler *Handler) UpdateReservation(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateReservation")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	req := dto.UpdateReservationRequest{}
	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	reservation, err := handler.service.Update(ctx, req, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update reservation")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Reservation updated successfully")

	response.WithJSON(w, http.StatusOK, reservation)
}

// DeleteReservation deletes a reservation by its ID.
// @Summary Delete a reservation by ID
// @Description Cancel a reservation using its unique identifier.
// @Tags Reservation
// @Accept json
// @Produce json
// @Param id path string true "Reservation ID"
// @Success 200 {object} response.Message "Reservation deleted successfully"
// @Failure 404 {object} response.Error
// @Failure 503 {object} response.Error
// @Router /v1/reservations/{id} [delete]
func (handler *Handler) DeleteReservation(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteReservation")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	if err := handler.service.Delete(ctx, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to delete reservation")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Reservation deleted successfully")

	response.WithMessage(w, http.StatusOK, "Reservation deleted successfully")
}
