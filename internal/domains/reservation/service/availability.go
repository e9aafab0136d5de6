package service

import (
	"sort"
	"time"

	"reserve/internal/domains/reservation/model"
)

// The functions in this file are the pure half of the availability engine: they
// operate on repository results only and carry no storage logic, so the boundary
// semantics can be tested without a database.

// sortByStart orders reservations ascending by start time, in place.
func sortByStart(reservations []model.Reservation) {
	sort.SliceStable(reservations, func(i, j int) bool {
		return reservations[i].StartTime.Before(reservations[j].StartTime)
	})
}

// activeAt returns the reservations covering asOf (start <= asOf < end) for one
// room, earliest start first. Under the no-overlap invariant the result has at
// most one entry; more than one means the stored data is corrupt and the caller
// is expected to surface a warning while still answering deterministically.
func activeAt(reservations []model.Reservation, roomID string, asOf time.Time) []model.Reservation {
	var active []model.Reservation

	for _, res := range reservations {
		if res.RoomID == roomID && res.ActiveAt(asOf) {
			active = append(active, res)
		}
	}

	sortByStart(active)

	return active
}

// nextAfter returns the upcoming reservation for a room with the earliest start
// strictly after asOf, or nil when the room has no future booking.
func nextAfter(reservations []model.Reservation, roomID string, asOf time.Time) *model.Reservation {
	var next *model.Reservation

	for i := range reservations {
		res := reservations[i]
		if res.RoomID != roomID || !res.StartTime.After(asOf) {
			continue
		}

		if next == nil || res.StartTime.Before(next.StartTime) {
			next = &reservations[i]
		}
	}

	return next
}

// partition splits reservations into upcoming and past relative to asOf. The
// boundary is exclusive on the upcoming side: a reservation ending exactly at
// asOf is already past. Both halves are sorted ascending by start time.
func partition(reservations []model.Reservation, asOf time.Time) (upcoming, past []model.Reservation) {
	upcoming = []model.Reservation{}
	past = []model.Reservation{}

	for _, res := range reservations {
		if res.EndTime.After(asOf) {
			upcoming = append(upcoming, res)
		} else {
			past = append(past, res)
		}
	}

	sortByStart(upcoming)
	sortByStart(past)

	return upcoming, past
}

// onDay filters reservations whose start time falls on the same UTC calendar day
// as day, sorted ascending by start time.
func onDay(reservations []model.Reservation, dayStart, dayEnd time.Time) []model.Reservation {
	selected := []model.Reservation{}

	for _, res := range reservations {
		if !res.StartTime.Before(dayStart) && res.StartTime.Before(dayEnd) {
			selected = append(selected, res)
		}
	}

	sortByStart(selected)

	return selected
}
