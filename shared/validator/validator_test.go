package validator_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"reserve/shared/failure"
	"reserve/shared/validator"
)

type createRequest struct {
	RoomID    string `json:"room_id"    validate:"required"`
	UserName  string `json:"user_name"  validate:"required,max=100"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time"   validate:"required"`
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name: "valid body",
			body: `{"room_id":"room-1","user_name":"Alice","start_time":"2025-01-01T10:00:00Z","end_time":"2025-01-01T11:00:00Z"}`,
		},
		{
			name:    "missing room",
			body:    `{"user_name":"Alice","start_time":"2025-01-01T10:00:00Z","end_time":"2025-01-01T11:00:00Z"}`,
			wantErr: "RoomID is required",
		},
		{
			name:    "missing name",
			body:    `{"room_id":"room-1","start_time":"2025-01-01T10:00:00Z","end_time":"2025-01-01T11:00:00Z"}`,
			wantErr: "UserName is required",
		},
		{
			name:    "malformed json",
			body:    `{"room_id":`,
			wantErr: "failed to decode request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := createRequest{}
			err := validator.Validate(strings.NewReader(tt.body), &req)

			if tt.wantErr == "" {
				assert.NoError(t, err)

				return
			}

			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
		})
	}
}

func TestValidateVar(t *testing.T) {
	assert.NoError(t, validator.ValidateVar("2025-01-01", "datetime=2006-01-02"))
	assert.Error(t, validator.ValidateVar("not-a-date", "datetime=2006-01-02"))
}
