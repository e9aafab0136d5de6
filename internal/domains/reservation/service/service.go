package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"reserve/config"
	"reserve/infras/otel"
	"reserve/internal/domains/reservation/model"
	"reserve/internal/domains/reservation/model/dto"
	"reserve/internal/domains/reservation/repository"
	"reserve/internal/rooms"
	"reserve/shared"
	"reserve/shared/cache"
	"reserve/shared/constant"
	"reserve/shared/failure"
	"reserve/shared/timezone"
)

const (
	cacheGetReservation     = "reservation:get"
	cacheGetAllReservations = "reservation:gets"

	msgSlotUnavailable    = "this room is already booked for the selected time slot"
	msgReservationMissing = "reservation not found"
	msgStorageUnavailable = "reservation storage is unavailable"
)

// ListFilter narrows GetAll. Zero values mean "no filter"; Split additionally
// partitions the result into upcoming and past halves relative to now.
type ListFilter struct {
	RoomID string
	Split  bool
}

// Reservation is the availability engine plus the write path built on it. All
// overlap decisions use the half-open interval rule: [start, end) instants
// conflict iff each interval starts before the other ends.
type Reservation interface {
	Create(ctx context.Context, req dto.CreateReservationRequest) (dto.ReservationResponse, error)
	GetAll(ctx context.Context, filter ListFilter) (dto.GetReservationsResponse, error)
	Get(ctx context.Context, id string) (dto.ReservationResponse, error)
	Update(ctx context.Context, req dto.UpdateReservationRequest, id string) (dto.ReservationResponse, error)
	Delete(ctx context.Context, id string) error
	IsAvailable(ctx context.Context, roomID string, start, end time.Time, excludeID string) (bool, error)
	CurrentOccupancy(ctx context.Context, asOf time.Time) (dto.OccupancyResponse, error)
	GetDay(ctx context.Context, day time.Time) (dto.GetReservationsResponse, error)
	GetRange(ctx context.Context, rangeStart, rangeEnd time.Time) (dto.GetReservationsResponse, error)
}

type serviceImpl struct {
	repo    repository.Reservation
	catalog *rooms.Catalog
	cfg     *config.Config
	cache   cache.RedisCache
	otel    otel.Otel
}

func New(repo repository.Reservation, catalog *rooms.Catalog, cfg *config.Config, cache cache.RedisCache, otel otel.Otel) Reservation {
	return &serviceImpl{
		repo:    repo,
		catalog: catalog,
		cfg:     cfg,
		cache:   cache,
		otel:    otel,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateReservationRequest) (res dto.ReservationResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	if !s.catalog.Exists(req.RoomID) {
		return res, failure.BadRequestFromString("room does not exist") //nolint:wrapcheck
	}

	reservation, err := req.ToModel()
	if err != nil {
		return res, err
	}

	// The repository runs the availability check and the insert in one
	// transaction serialized per room, so two concurrent creates for an
	// overlapping slot cannot both succeed.
	if err = s.repo.Insert(ctx, reservation); err != nil {
		return res, s.mapRepoError(err, "failed to create reservation")
	}

	s.invalidateListCaches(ctx)

	res.FromModel(reservation)

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, filter ListFilter) (res dto.GetReservationsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheGetAllReservations, filter.RoomID)

	if !filter.Split {
		if err := s.cache.Get(ctx, cacheKey, &res); err == nil {
			log.Debug().Str("cacheKey", cacheKey).Msg("cache hit for reservations")

			return res, nil
		}
	}

	var models []model.Reservation
	if filter.RoomID != "" {
		models, err = s.repo.GetByRoom(ctx, filter.RoomID)
	} else {
		models, err = s.repo.GetAll(ctx)
	}

	if err != nil {
		return res, s.mapRepoError(err, "failed to get reservations")
	}

	res.FromModels(models)

	if filter.Split {
		// Past/upcoming is derived from the clock at query time, never stored,
		// so the split variant bypasses the cache.
		upcoming, past := partition(models, timezone.Now())
		res.WithPartition(upcoming, past)

		return res, nil
	}

	s.saveToCache(ctx, cacheKey, res)

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.ReservationResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheGetReservation, id)

	if err := s.cache.Get(ctx, cacheKey, &res); err == nil {
		log.Debug().Str("cacheKey", cacheKey).Msg("cache hit for reservation")

		return res, nil
	}

	reservation, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return res, s.mapRepoError(err, "failed to get reservation")
	}

	res.FromModel(reservation)

	s.saveToCache(ctx, cacheKey, res)

	return res, nil
}

func (s *serviceImpl) Update(ctx context.Context, req dto.UpdateReservationRequest, id string) (res dto.ReservationResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Update")
	defer scope.End()
	defer scope.TraceIfError(err)

	if req.IsEmpty() {
		return res, failure.BadRequestFromString("update request cannot be empty") //nolint:wrapcheck
	}

	stored, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return res, s.mapRepoError(err, "failed to get reservation for update")
	}

	merged, err := req.ApplyTo(stored)
	if err != nil {
		return res, err
	}

	if !s.catalog.Exists(merged.RoomID) {
		return res, failure.BadRequestFromString("room does not exist") //nolint:wrapcheck
	}

	// The availability re-check excludes the reservation itself and runs inside
	// the update transaction.
	if err = s.repo.Update(ctx, merged); err != nil {
		return res, s.mapRepoError(err, "failed to update reservation")
	}

	s.invalidateItemCache(ctx, id)
	s.invalidateListCaches(ctx)

	res.FromModel(merged)

	return res, nil
}

func (s *serviceImpl) Delete(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Delete")
	defer scope.End()
	defer scope.TraceIfError(err)

	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return s.mapRepoError(err, "failed to delete reservation")
	}

	if !removed {
		return failure.NotFound(msgReservationMissing) //nolint:wrapcheck
	}

	s.invalidateItemCache(ctx, id)
	s.invalidateListCaches(ctx)

	return nil
}

// IsAvailable reports whether [start, end) is free on the given room. excludeID
// skips one reservation, which update-in-place checks use to ignore themselves.
// This is a point-in-time answer; the commit-time check inside Insert/Update is
// what actually closes the race against concurrent writers.
func (s *serviceImpl) IsAvailable(ctx context.Context, roomID string, start, end time.Time, excludeID string) (available bool, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".IsAvailable")
	defer scope.End()
	defer scope.TraceIfError(err)

	taken, err := s.repo.HasOverlap(ctx, roomID, start, end, excludeID)
	if err != nil {
		return false, s.mapRepoError(err, "failed to check availability")
	}

	return !taken, nil
}

func (s *serviceImpl) CurrentOccupancy(ctx context.Context, asOf time.Time) (res dto.OccupancyResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".CurrentOccupancy")
	defer scope.End()
	defer scope.TraceIfError(err)

	asOf = timezone.ToUTC(asOf)

	reservations, err := s.repo.GetEndingAfter(ctx, asOf)
	if err != nil {
		return res, s.mapRepoError(err, "failed to get occupancy")
	}

	res.AsOf = asOf.Format(time.RFC3339)
	res.Rooms = make(map[string]dto.RoomStatus, len(s.catalog.Rooms()))

	for _, room := range s.catalog.Rooms() {
		status := dto.RoomStatus{Room: room}

		active := activeAt(reservations, room.ID, asOf)
		if len(active) > 1 {
			log.Warn().
				Str("room_id", room.ID).
				Int("active", len(active)).
				Time("as_of", asOf).
				Msg("data integrity: room has overlapping active reservations, answering with earliest start")
		}

		if len(active) > 0 {
			current := dto.ReservationResponse{}
			current.FromModel(active[0])
			status.Occupied = true
			status.Current = &current
		}

		if next := nextAfter(reservations, room.ID, asOf); next != nil {
			upcoming := dto.ReservationResponse{}
			upcoming.FromModel(*next)
			status.Next = &upcoming
		}

		res.Rooms[room.ID] = status
	}

	return res, nil
}

// GetDay lists reservations whose start time falls on the given UTC calendar day.
func (s *serviceImpl) GetDay(ctx context.Context, day time.Time) (res dto.GetReservationsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetDay")
	defer scope.End()
	defer scope.TraceIfError(err)

	dayStart := timezone.DayStart(day)
	dayEnd := timezone.DayEnd(day)

	cacheKey := shared.BuildCacheKey(cacheGetAllReservations, "day", dayStart.Format(timezone.DateFormat))

	if err := s.cache.Get(ctx, cacheKey, &res); err == nil {
		log.Debug().Str("cacheKey", cacheKey).Msg("cache hit for day reservations")

		return res, nil
	}

	// Fetch everything intersecting the day, then keep only reservations that
	// start on it: a booking running past midnight belongs to its start day.
	models, err := s.repo.GetIntersecting(ctx, dayStart, dayEnd)
	if err != nil {
		return res, s.mapRepoError(err, "failed to get day reservations")
	}

	res.FromModels(onDay(models, dayStart, dayEnd))

	s.saveToCache(ctx, cacheKey, res)

	return res, nil
}

func (s *serviceImpl) GetRange(ctx context.Context, rangeStart, rangeEnd time.Time) (res dto.GetReservationsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetRange")
	defer scope.End()
	defer scope.TraceIfError(err)

	if !rangeEnd.After(rangeStart) {
		return res, failure.BadRequestFromString("to must be after from") //nolint:wrapcheck
	}

	models, err := s.repo.GetIntersecting(ctx, timezone.ToUTC(rangeStart), timezone.ToUTC(rangeEnd))
	if err != nil {
		return res, s.mapRepoError(err, "failed to get reservations in range")
	}

	res.FromModels(models)

	return res, nil
}

// mapRepoError translates repository sentinels into the typed failures the
// transport layer renders. Anything else is a storage fault and is reported as
// unavailable rather than degraded to an empty result.
func (s *serviceImpl) mapRepoError(err error, msg string) error {
	switch {
	case errors.Is(err, repository.ErrOverlap):
		return failure.Conflict(msgSlotUnavailable) //nolint:wrapcheck
	case errors.Is(err, repository.ErrNotFound):
		return failure.NotFound(msgReservationMissing) //nolint:wrapcheck
	default:
		log.Error().Err(err).Msg(msg)

		return failure.Unavailable(msgStorageUnavailable) //nolint:wrapcheck
	}
}

func (s *serviceImpl) saveToCache(ctx context.Context, key string, value any) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, key, value, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Str("cacheKey", key).Msg("failed to save reservations to cache")
		}
	}()
}

func (s *serviceImpl) invalidateItemCache(ctx context.Context, id string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetReservation, id)); err != nil {
			log.Error().Err(err).Str("id", id).Msg("failed to delete reservation from cache")
		}
	}()
}

func (s *serviceImpl) invalidateListCaches(ctx context.Context) {
	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllReservations)
	}()
}
