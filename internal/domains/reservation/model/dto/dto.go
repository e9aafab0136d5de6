package dto

import (
	"time"

	"github.com/google/uuid"

	"reserve/internal/domains/reservation/model"
	"reserve/internal/rooms"
	"reserve/shared/failure"
	"reserve/shared/timezone"
)

type CreateReservationRequest struct {
	RoomID         string   `json:"room_id"          validate:"required"`
	UserName       string   `json:"user_name"        validate:"required,max=100"`
	UserRoomNumber string   `json:"user_room_number" validate:"required,max=20"`
	StartTime      string   `json:"start_time"       validate:"required"`
	EndTime        string   `json:"end_time"         validate:"required"`
	AllowSharing   bool     `json:"allow_sharing"`
	SharedWith     []string `json:"shared_with"      validate:"omitempty,dive,max=100"`
}

// ToModel validates the time fields and builds a reservation ready for insert.
// The id and created_at are assigned here; timestamps are normalized to UTC.
func (c *CreateReservationRequest) ToModel() (model.Reservation, error) {
	start, err := time.Parse(time.RFC3339, c.StartTime)
	if err != nil {
		return model.Reservation{}, failure.BadRequestFromString("start_time must be a valid RFC3339 timestamp") //nolint:wrapcheck
	}

	end, err := time.Parse(time.RFC3339, c.EndTime)
	if err != nil {
		return model.Reservation{}, failure.BadRequestFromString("end_time must be a valid RFC3339 timestamp") //nolint:wrapcheck
	}

	start = timezone.ToUTC(start)
	end = timezone.ToUTC(end)

	if !end.After(start) {
		return model.Reservation{}, failure.BadRequestFromString("end_time must be after start_time") //nolint:wrapcheck
	}

	sharedWith := c.SharedWith
	if sharedWith == nil {
		sharedWith = []string{}
	}

	return model.Reservation{
		ID:             uuid.NewString(),
		RoomID:         c.RoomID,
		UserName:       c.UserName,
		UserRoomNumber: c.UserRoomNumber,
		StartTime:      start,
		EndTime:        end,
		AllowSharing:   c.AllowSharing,
		SharedWith:     sharedWith,
		CreatedAt:      timezone.Now(),
	}, nil
}

// UpdateReservationRequest is a partial update: nil fields keep the stored value.
// The id and created_at are never updatable.
type UpdateReservationRequest struct {
	RoomID         *string   `json:"room_id"          validate:"omitempty,min=1"`
	UserName       *string   `json:"user_name"        validate:"omitempty,min=1,max=100"`
	UserRoomNumber *string   `json:"user_room_number" validate:"omitempty,min=1,max=20"`
	StartTime      *string   `json:"start_time"       validate:"omitempty"`
	EndTime        *string   `json:"end_time"         validate:"omitempty"`
	AllowSharing   *bool     `json:"allow_sharing"`
	SharedWith     *[]string `json:"shared_with"      validate:"omitempty,dive,max=100"`
}

// IsEmpty reports whether the request carries no field at all.
func (u *UpdateReservationRequest) IsEmpty() bool {
	return u.RoomID == nil && u.UserName == nil && u.UserRoomNumber == nil &&
		u.StartTime == nil && u.EndTime == nil && u.AllowSharing == nil && u.SharedWith == nil
}

// ApplyTo merges the request onto a stored reservation and re-validates the
// resulting interval. The merged copy is returned; the input is not mutated.
func (u *UpdateReservationRequest) ApplyTo(stored model.Reservation) (model.Reservation, error) {
	merged := stored

	if u.RoomID != nil {
		merged.RoomID = *u.RoomID
	}

	if u.UserName != nil {
		merged.UserName = *u.UserName
	}

	if u.UserRoomNumber != nil {
		merged.UserRoomNumber = *u.UserRoomNumber
	}

	if u.StartTime != nil {
		start, err := time.Parse(time.RFC3339, *u.StartTime)
		if err != nil {
			return model.Reservation{}, failure.BadRequestFromString("start_time must be a valid RFC3339 timestamp") //nolint:wrapcheck
		}

		merged.StartTime = timezone.ToUTC(start)
	}

	if u.EndTime != nil {
		end, err := time.Parse(time.RFC3339, *u.EndTime)
		if err != nil {
			return model.Reservation{}, failure.BadRequestFromString("end_time must be a valid RFC3339 timestamp") //nolint:wrapcheck
		}

		merged.EndTime = timezone.ToUTC(end)
	}

	if u.AllowSharing != nil {
		merged.AllowSharing = *u.AllowSharing
	}

	if u.SharedWith != nil {
		merged.SharedWith = *u.SharedWith
	}

	if !merged.EndTime.After(merged.StartTime) {
		return model.Reservation{}, failure.BadRequestFromString("end_time must be after start_time") //nolint:wrapcheck
	}

	return merged, nil
}

type ReservationResponse struct {
	ID             string   `json:"id"`
	RoomID         string   `json:"room_id"`
	UserName       string   `json:"user_name"`
	UserRoomNumber string   `json:"user_room_number"`
	StartTime      string   `json:"start_time"`
	EndTime        string   `json:"end_time"`
	AllowSharing   bool     `json:"allow_sharing"`
	SharedWith     []string `json:"shared_with"`
	CreatedAt      string   `json:"created_at"`
}

func (r *ReservationResponse) FromModel(mod model.Reservation) {
	r.ID = mod.ID
	r.RoomID = mod.RoomID
	r.UserName = mod.UserName
	r.UserRoomNumber = mod.UserRoomNumber
	r.StartTime = timezone.ToUTC(mod.StartTime).Format(time.RFC3339)
	r.EndTime = timezone.ToUTC(mod.EndTime).Format(time.RFC3339)
	r.AllowSharing = mod.AllowSharing
	r.SharedWith = mod.SharedWith
	r.CreatedAt = timezone.ToUTC(mod.CreatedAt).Format(time.RFC3339)

	if r.SharedWith == nil {
		r.SharedWith = []string{}
	}
}

type GetReservationsResponse struct {
	Reservations []ReservationResponse `json:"reservations"`
	Upcoming     []ReservationResponse `json:"upcoming,omitempty"`
	Past         []ReservationResponse `json:"past,omitempty"`
	TotalData    int                   `json:"total_data"`
}

func (r *GetReservationsResponse) FromModels(models []model.Reservation) {
	r.TotalData = len(models)
	r.Reservations = responsesFromModels(models)
}

// WithPartition attaches the upcoming/past split to an already populated response.
func (r *GetReservationsResponse) WithPartition(upcoming, past []model.Reservation) {
	r.Upcoming = responsesFromModels(upcoming)
	r.Past = responsesFromModels(past)
}

func responsesFromModels(models []model.Reservation) []ReservationResponse {
	res := make([]ReservationResponse, len(models))
	for i, mod := range models {
		res[i].FromModel(mod)
	}

	return res
}

// RoomStatus is one entry of the occupancy map: the reservation covering the
// evaluation instant, if any, plus the next one starting after it.
type RoomStatus struct {
	Room     rooms.Room           `json:"room"`
	Occupied bool                 `json:"occupied"`
	Current  *ReservationResponse `json:"current,omitempty"`
	Next     *ReservationResponse `json:"next,omitempty"`
}

type OccupancyResponse struct {
	AsOf  string                `json:"as_of"`
	Rooms map[string]RoomStatus `json:"rooms"`
}
