package dto_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reserve/internal/domains/reservation/model"
	"reserve/internal/domains/reservation/model/dto"
)

func strptr(s string) *string { return &s }

func TestCreateToModel(t *testing.T) {
	req := dto.CreateReservationRequest{
		RoomID:         "room-1",
		UserName:       "Alice Johnson",
		UserRoomNumber: "301",
		StartTime:      "2025-05-20T10:00:00+02:00",
		EndTime:        "2025-05-20T11:00:00+02:00",
		AllowSharing:   true,
	}

	mod, err := req.ToModel()
	require.NoError(t, err)

	assert.NotEmpty(t, mod.ID)
	assert.False(t, mod.CreatedAt.IsZero())
	assert.Equal(t, time.UTC, mod.StartTime.Location(), "instants are normalized to UTC")
	assert.Equal(t, time.Date(2025, 5, 20, 8, 0, 0, 0, time.UTC), mod.StartTime)
	assert.NotNil(t, mod.SharedWith)
	assert.Empty(t, mod.SharedWith)
}

func TestCreateToModelRejectsBadIntervals(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
	}{
		{name: "zero length", start: "2025-05-20T10:00:00Z", end: "2025-05-20T10:00:00Z"},
		{name: "end before start", start: "2025-05-20T11:00:00Z", end: "2025-05-20T10:00:00Z"},
		{name: "malformed start", start: "20/05/2025 10:00", end: "2025-05-20T11:00:00Z"},
		{name: "malformed end", start: "2025-05-20T10:00:00Z", end: "tomorrow"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := dto.CreateReservationRequest{
				RoomID:         "room-1",
				UserName:       "Alice",
				UserRoomNumber: "301",
				StartTime:      tt.start,
				EndTime:        tt.end,
			}

			_, err := req.ToModel()
			assert.Error(t, err)
		})
	}
}

func TestUpdateApplyTo(t *testing.T) {
	stored := model.Reservation{
		ID:             "res-1",
		RoomID:         "room-1",
		UserName:       "Alice",
		UserRoomNumber: "301",
		StartTime:      time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC),
		EndTime:        time.Date(2025, 5, 20, 11, 0, 0, 0, time.UTC),
		CreatedAt:      time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
	}

	req := dto.UpdateReservationRequest{
		EndTime:    strptr("2025-05-20T12:00:00Z"),
		SharedWith: &[]string{"Bob"},
	}

	merged, err := req.ApplyTo(stored)
	require.NoError(t, err)

	assert.Equal(t, "res-1", merged.ID)
	assert.Equal(t, stored.CreatedAt, merged.CreatedAt)
	assert.Equal(t, stored.StartTime, merged.StartTime)
	assert.Equal(t, time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC), merged.EndTime)
	assert.Equal(t, []string{"Bob"}, []string(merged.SharedWith))
}

func TestUpdateApplyToRejectsInvertedInterval(t *testing.T) {
	stored := model.Reservation{
		StartTime: time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2025, 5, 20, 11, 0, 0, 0, time.UTC),
	}

	req := dto.UpdateReservationRequest{EndTime: strptr("2025-05-20T09:00:00Z")}

	_, err := req.ApplyTo(stored)
	assert.Error(t, err)
}

func TestUpdateIsEmpty(t *testing.T) {
	assert.True(t, (&dto.UpdateReservationRequest{}).IsEmpty())
	assert.False(t, (&dto.UpdateReservationRequest{RoomID: strptr("room-2")}).IsEmpty())
}
