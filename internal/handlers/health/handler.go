package health

import (
	"net/http"

	"reserve/infras/otel"
	"reserve/internal/domains/reservation/repository"
	"reserve/shared/constant"
	"reserve/transport/http/response"

	"github.com/go-chi/chi/v5"

	"github.com/rs/zerolog/log"
)

type Handler struct {
	repo repository.Reservation
	otel otel.Otel
}

func New(repo repository.Reservation, otel otel.Otel) Handler {
	return Handler{
		repo: repo,
		otel: otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Get("/health", handler.Health)
}

// Health reports whether the service can reach its storage.
// @Summary Health check
// @Description Returns 200 when storage is reachable, 503 otherwise.
// @Tags Health
// @Produce json
// @Success 200 {object} response.Message "OK"
// @Failure 503 {object} response.Message
// @Router /health [get]
func (handler *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".Health")
	defer scope.End()

	if err := handler.repo.Ping(ctx); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("health check failed")

		response.WithUnhealthy(w)

		return
	}

	response.WithMessage(w, http.StatusOK, "OK")
}
