package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"reserve/config"
	"reserve/infras/otel"
	"reserve/infras/postgres"
	"reserve/internal/domains/reservation/model"
	"reserve/shared/constant"
	"reserve/shared/logger"
)

var (
	// ErrOverlap is returned when a write would produce two reservations on the same
	// room with intersecting half-open intervals.
	ErrOverlap = errors.New("reservation overlaps an existing booking")

	// ErrNotFound is returned when no reservation with the requested id exists.
	ErrNotFound = errors.New("reservation not found")
)

const defaultQueryTimeoutSeconds = 5

// Reservation is the durable store of reservation records. Insert and Update run
// their availability check and the write inside one transaction, serialized per
// room, so concurrent writers targeting the same room cannot both pass the check.
type Reservation interface {
	Insert(ctx context.Context, res model.Reservation) error
	Update(ctx context.Context, res model.Reservation) error
	GetByID(ctx context.Context, id string) (model.Reservation, error)
	GetAll(ctx context.Context) ([]model.Reservation, error)
	GetByRoom(ctx context.Context, roomID string) ([]model.Reservation, error)
	GetIntersecting(ctx context.Context, rangeStart, rangeEnd time.Time) ([]model.Reservation, error)
	GetEndingAfter(ctx context.Context, asOf time.Time) ([]model.Reservation, error)
	HasOverlap(ctx context.Context, roomID string, start, end time.Time, excludeID string) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	Ping(ctx context.Context) error
}

type repositoryImpl struct {
	db           *postgres.Connection
	otel         otel.Otel
	queryTimeout time.Duration
}

func New(db *postgres.Connection, cfg *config.Config, otl otel.Otel) Reservation {
	timeoutSeconds := cfg.DB.Postgres.QueryTimeoutSeconds
	if timeoutSeconds <= 0 {
		timeoutSeconds = defaultQueryTimeoutSeconds
	}

	return &repositoryImpl{
		db:           db,
		otel:         otl,
		queryTimeout: time.Duration(timeoutSeconds) * time.Second,
	}
}

const selectColumns = `id, room_id, user_name, user_room_number, start_time, end_time, allow_sharing, shared_with, created_at`

// overlapExistsQuery is the half-open intersection test: two intervals overlap iff
// each starts before the other ends. $4 carries the id to exclude (empty for none).
const overlapExistsQuery = `
	SELECT EXISTS(
		SELECT 1 FROM reservations
		WHERE room_id = $1
		  AND start_time < $3
		  AND $2 < end_time
		  AND ($4 = '' OR id <> $4::uuid)
	)`

// advisoryLockQuery serializes writers per room for the duration of the enclosing
// transaction. The exclusion constraint on the table remains the last line of
// defense if the lock is ever bypassed.
const advisoryLockQuery = `SELECT pg_advisory_xact_lock(hashtext($1))`

func (repo *repositoryImpl) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, repo.queryTimeout)
}

func (repo *repositoryImpl) Insert(ctx context.Context, res model.Reservation) error {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".reservation.Insert")
	defer scope.End()

	ctx, cancel := repo.withTimeout(ctx)
	defer cancel()

	tx, err := repo.db.Write.BeginTxx(ctx, nil)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return fmt.Errorf("failed to begin insert transaction (%s): %w", model.EntityName, err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	if _, err = tx.ExecContext(ctx, advisoryLockQuery, res.RoomID); err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return fmt.Errorf("failed to acquire room lock (%s): %w", res.RoomID, err)
	}

	var taken bool
	if err = tx.GetContext(ctx, &taken, overlapExistsQuery, res.RoomID, res.StartTime, res.EndTime, ""); err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return fmt.Errorf("failed to check availability (%s): %w", res.RoomID, err)
	}

	if taken {
		return ErrOverlap
	}

	query := `
		INSERT INTO reservations (` + selectColumns + `)
		VALUES (:id, :room_id, :user_name, :user_room_number, :start_time, :end_time, :allow_sharing, :shared_with, :created_at)`
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	if _, err = tx.NamedExecContext(ctx, query, res); err != nil {
		if isExclusionViolation(err) {
			return ErrOverlap
		}

		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return fmt.Errorf("failed to insert data (%s): %w", model.EntityName, err)
	}

	if err = tx.Commit(); err != nil {
		if isExclusionViolation(err) {
			return ErrOverlap
		}

		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return fmt.Errorf("failed to commit insert (%s): %w", model.EntityName, err)
	}

	return nil
}

func (repo *repositoryImpl) Update(ctx context.Context, res model.Reservation) error {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".reservation.Update")
	defer scope.End()

	ctx, cancel := repo.withTimeout(ctx)
	defer cancel()

	tx, err := repo.db.Write.BeginTxx(ctx, nil)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return fmt.Errorf("failed to begin update transaction (%s): %w", model.EntityName, err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	if _, err = tx.ExecContext(ctx, advisoryLockQuery, res.RoomID); err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return fmt.Errorf("failed to acquire room lock (%s): %w", res.RoomID, err)
	}

	var taken bool
	if err = tx.GetContext(ctx, &taken, overlapExistsQuery, res.RoomID, res.StartTime, res.EndTime, res.ID); err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return fmt.Errorf("failed to check availability (%s): %w", res.RoomID, err)
	}

	if taken {
		return ErrOverlap
	}

	query := `
		UPDATE reservations SET
			room_id = :room_id,
			user_name = :user_name,
			user_room_number = :user_room_number,
			start_time = :start_time,
			end_time = :end_time,
			allow_sharing = :allow_sharing,
			shared_with = :shared_with
		WHERE id = :id`
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	result, err := tx.NamedExecContext(ctx, query, res)
	if err != nil {
		if isExclusionViolation(err) {
			return ErrOverlap
		}

		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return fmt.Errorf("failed to update data (%s): %w", model.EntityName, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return fmt.Errorf("failed to read update result (%s): %w", model.EntityName, err)
	}

	if rows == 0 {
		return ErrNotFound
	}

	if err = tx.Commit(); err != nil {
		if isExclusionViolation(err) {
			return ErrOverlap
		}

		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return fmt.Errorf("failed to commit update (%s): %w", model.EntityName, err)
	}

	return nil
}

func (repo *repositoryImpl) GetByID(ctx context.Context, id string) (model.Reservation, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".reservation.GetByID")
	defer scope.End()

	ctx, cancel := repo.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + selectColumns + ` FROM reservations WHERE id = $1`
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	var res model.Reservation

	err := repo.db.Read.GetContext(ctx, &res, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return res, ErrNotFound
	}

	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return res, fmt.Errorf("failed to get data (%s): %w", model.EntityName, err)
	}

	return res, nil
}

func (repo *repositoryImpl) GetAll(ctx context.Context) ([]model.Reservation, error) {
	query := `SELECT ` + selectColumns + ` FROM reservations ORDER BY start_time`

	return repo.selectMany(ctx, "GetAll", query)
}

func (repo *repositoryImpl) GetByRoom(ctx context.Context, roomID string) ([]model.Reservation, error) {
	query := `SELECT ` + selectColumns + ` FROM reservations WHERE room_id = $1 ORDER BY start_time`

	return repo.selectMany(ctx, "GetByRoom", query, roomID)
}

// GetIntersecting returns every reservation, across all rooms, whose interval
// intersects [rangeStart, rangeEnd) under the half-open rule.
func (repo *repositoryImpl) GetIntersecting(ctx context.Context, rangeStart, rangeEnd time.Time) ([]model.Reservation, error) {
	query := `SELECT ` + selectColumns + ` FROM reservations WHERE start_time < $2 AND $1 < end_time ORDER BY start_time`

	return repo.selectMany(ctx, "GetIntersecting", query, rangeStart, rangeEnd)
}

// GetEndingAfter returns reservations still running or yet to start at asOf,
// i.e. those with end_time > asOf. Used for occupancy and "next booking" lookups.
func (repo *repositoryImpl) GetEndingAfter(ctx context.Context, asOf time.Time) ([]model.Reservation, error) {
	query := `SELECT ` + selectColumns + ` FROM reservations WHERE end_time > $1 ORDER BY start_time`

	return repo.selectMany(ctx, "GetEndingAfter", query, asOf)
}

func (repo *repositoryImpl) HasOverlap(ctx context.Context, roomID string, start, end time.Time, excludeID string) (bool, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".reservation.HasOverlap")
	defer scope.End()

	ctx, cancel := repo.withTimeout(ctx)
	defer cancel()

	scope.SetAttribute(constant.OtelQueryAttributeKey, overlapExistsQuery)

	var taken bool
	if err := repo.db.Read.GetContext(ctx, &taken, overlapExistsQuery, roomID, start, end, excludeID); err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return false, fmt.Errorf("failed to check overlap (%s): %w", roomID, err)
	}

	return taken, nil
}

func (repo *repositoryImpl) Delete(ctx context.Context, id string) (bool, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".reservation.Delete")
	defer scope.End()

	ctx, cancel := repo.withTimeout(ctx)
	defer cancel()

	query := `DELETE FROM reservations WHERE id = $1`
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	result, err := repo.db.Write.ExecContext(ctx, query, id)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return false, fmt.Errorf("failed to delete data (%s): %w", model.EntityName, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return false, fmt.Errorf("failed to read delete result (%s): %w", model.EntityName, err)
	}

	return rows > 0, nil
}

func (repo *repositoryImpl) Ping(ctx context.Context) error {
	ctx, cancel := repo.withTimeout(ctx)
	defer cancel()

	if err := repo.db.Read.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (repo *repositoryImpl) selectMany(ctx context.Context, op, query string, args ...any) ([]model.Reservation, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".reservation."+op)
	defer scope.End()

	ctx, cancel := repo.withTimeout(ctx)
	defer cancel()

	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	models := []model.Reservation{}

	if err := repo.db.Read.SelectContext(ctx, &models, query, args...); err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return nil, fmt.Errorf("failed to get all data (%s): %w", model.EntityName, err)
	}

	return models, nil
}

func isExclusionViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == constant.PqErrorCodeExclusionViolation ||
			string(pqErr.Code) == constant.PqErrorCodeUniqueViolation
	}

	return false
}
