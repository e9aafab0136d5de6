package model

import (
	"time"

	"github.com/lib/pq"
)

const (
	TableName  = "reservations"
	EntityName = "reservation"

	FieldID             = "id"
	FieldRoomID         = "room_id"
	FieldUserName       = "user_name"
	FieldUserRoomNumber = "user_room_number"
	FieldStartTime      = "start_time"
	FieldEndTime        = "end_time"
	FieldAllowSharing   = "allow_sharing"
	FieldSharedWith     = "shared_with"
	FieldCreatedAt      = "created_at"
)

// Reservation is the sole mutable entity of the service. StartTime and EndTime are
// UTC instants forming the half-open interval [StartTime, EndTime); ID and CreatedAt
// are assigned on insert and never change afterwards. AllowSharing and SharedWith
// are advisory for humans and never affect overlap enforcement.
type Reservation struct {
	ID             string         `db:"id"`
	RoomID         string         `db:"room_id"`
	UserName       string         `db:"user_name"`
	UserRoomNumber string         `db:"user_room_number"`
	StartTime      time.Time      `db:"start_time"`
	EndTime        time.Time      `db:"end_time"`
	AllowSharing   bool           `db:"allow_sharing"`
	SharedWith     pq.StringArray `db:"shared_with"`
	CreatedAt      time.Time      `db:"created_at"`
}

// Overlaps reports whether the reservation's interval shares at least one instant
// with [start, end) under the half-open rule. Touching intervals do not overlap.
func (r Reservation) Overlaps(start, end time.Time) bool {
	return r.StartTime.Before(end) && start.Before(r.EndTime)
}

// ActiveAt reports whether the reservation covers the given instant,
// i.e. StartTime <= asOf < EndTime.
func (r Reservation) ActiveAt(asOf time.Time) bool {
	return !r.StartTime.After(asOf) && asOf.Before(r.EndTime)
}
