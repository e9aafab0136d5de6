package failure_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"reserve/shared/failure"
)

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "bad request", err: failure.BadRequestFromString("endTime must be after startTime"), want: http.StatusBadRequest},
		{name: "not found", err: failure.NotFound("reservation not found"), want: http.StatusNotFound},
		{name: "conflict", err: failure.Conflict("slot already booked"), want: http.StatusConflict},
		{name: "unavailable", err: failure.Unavailable("storage unreachable"), want: http.StatusServiceUnavailable},
		{name: "plain error", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, failure.GetCode(tt.err))
		})
	}
}

func TestGetCodeWrapped(t *testing.T) {
	err := fmt.Errorf("creating reservation: %w", failure.Conflict("slot already booked"))

	assert.Equal(t, http.StatusConflict, failure.GetCode(err))
	assert.True(t, failure.IsCode(err, http.StatusConflict))
	assert.False(t, failure.IsCode(err, http.StatusNotFound))
}

func TestBadRequestNil(t *testing.T) {
	assert.NoError(t, failure.BadRequest(nil))
	assert.NoError(t, failure.InternalError(nil))
}
