package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"reserve/config"
	otelMocks "reserve/infras/otel/mocks"
	"reserve/shared/cache"
	"reserve/shared/cache/mocks"
	"reserve/shared/constant"
	"reserve/transport/http/middleware"
)

func newLimiter(t *testing.T, enabled bool, maxRequests int) (func(http.Handler) http.Handler, *mocks.MockRedisCache) {
	t.Helper()

	ctrl := gomock.NewController(t)
	mockCache := mocks.NewMockRedisCache(ctrl)

	cfg := &config.Config{}
	cfg.App.RateLimiter.Enable = enabled
	cfg.App.RateLimiter.MaxRequests = maxRequests
	cfg.App.RateLimiter.WindowSeconds = 60

	appMiddleware := middleware.NewAppMiddleware(otelMocks.NewOtel(), cfg, mockCache)

	return appMiddleware.RateLimit(), mockCache
}

func serveThrough(limit func(http.Handler) http.Handler) *httptest.ResponseRecorder {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	request := httptest.NewRequest(http.MethodGet, "/v1/reservations", nil)
	request.Header.Set(constant.RequestHeaderUserAgent, "test-agent")

	recorder := httptest.NewRecorder()
	limit(next).ServeHTTP(recorder, request)

	return recorder
}

func TestRateLimitDisabled(t *testing.T) {
	limit, _ := newLimiter(t, false, 1)

	recorder := serveThrough(limit)

	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestRateLimitFirstRequest(t *testing.T) {
	limit, mockCache := newLimiter(t, true, 2)

	mockCache.EXPECT().
		Get(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(cache.Nil)
	mockCache.EXPECT().
		Save(gomock.Any(), gomock.Any(), 1, 60).
		Return(nil)

	recorder := serveThrough(limit)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "2", recorder.Header().Get(constant.RequestHeaderRateLimit))
	assert.Equal(t, "1", recorder.Header().Get(constant.RequestHeaderRateLimitRemaining))
}

func TestRateLimitExceeded(t *testing.T) {
	limit, mockCache := newLimiter(t, true, 2)

	mockCache.EXPECT().
		Get(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, value any) error {
			*value.(*int) = 2

			return nil
		})

	recorder := serveThrough(limit)

	assert.Equal(t, http.StatusTooManyRequests, recorder.Code)
}

func TestRateLimitFailsOpenOnCacheError(t *testing.T) {
	limit, mockCache := newLimiter(t, true, 1)

	mockCache.EXPECT().
		Get(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("redis down"))

	recorder := serveThrough(limit)

	assert.Equal(t, http.StatusOK, recorder.Code)
}
