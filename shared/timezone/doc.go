// Package timezone pins every calendar computation in the service to UTC.
//
// Reservation instants are stored and served as absolute UTC timestamps, but the
// schedule endpoints group them by "day", which is a human concept. The policy here
// is deliberate and fixed: a reservation belongs to the UTC calendar day its start
// time falls on. Keeping this in one package prevents handlers and services from
// silently reintroducing server-local time.
package timezone
