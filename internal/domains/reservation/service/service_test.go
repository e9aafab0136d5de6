package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"reserve/config"
	otelMocks "reserve/infras/otel/mocks"
	"reserve/internal/domains/reservation/mocks"
	"reserve/internal/domains/reservation/model"
	"reserve/internal/domains/reservation/model/dto"
	"reserve/internal/domains/reservation/repository"
	"reserve/internal/domains/reservation/service"
	"reserve/internal/rooms"
	"reserve/shared/failure"
)

// fakeCache is a deterministic in-memory stand-in for redis: the service writes
// to it from goroutines, so a mutex-guarded map beats a gomock here.
type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: map[string][]byte{}}
}

func (f *fakeCache) Save(_ context.Context, key string, value any, _ int) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.store[key] = raw

	return nil
}

func (f *fakeCache) Get(_ context.Context, key string, value any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, ok := f.store[key]
	if !ok {
		return errors.New("cache miss")
	}

	return json.Unmarshal(raw, value)
}

func (f *fakeCache) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.store, key)

	return nil
}

func (f *fakeCache) Clear(_ context.Context, prefix string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	prefix = strings.TrimSuffix(prefix, "*")
	for key := range f.store {
		if strings.HasPrefix(key, prefix) {
			delete(f.store, key)
		}
	}

	return nil
}

func newService(t *testing.T) (service.Reservation, *mocks.MockReservation) {
	t.Helper()

	ctrl := gomock.NewController(t)
	mockRepo := mocks.NewMockReservation(ctrl)

	catalog, err := rooms.Load("")
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Cache.TTL = 60

	svc := service.New(mockRepo, catalog, cfg, newFakeCache(), otelMocks.NewOtel())

	return svc, mockRepo
}

func at(hour, minute int) time.Time {
	return time.Date(2025, 5, 20, hour, minute, 0, 0, time.UTC)
}

func validCreate() dto.CreateReservationRequest {
	return dto.CreateReservationRequest{
		RoomID:         "room-1",
		UserName:       "Alice Johnson",
		UserRoomNumber: "301",
		StartTime:      "2025-05-20T10:00:00Z",
		EndTime:        "2025-05-20T11:00:00Z",
		AllowSharing:   true,
	}
}

func TestCreate(t *testing.T) {
	tests := []struct {
		name      string
		req       dto.CreateReservationRequest
		setupMock func(repo *mocks.MockReservation)
		wantCode  int
	}{
		{
			name: "successful creation",
			req:  validCreate(),
			setupMock: func(repo *mocks.MockReservation) {
				repo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, res model.Reservation) error {
						assert.NotEmpty(t, res.ID)
						assert.False(t, res.CreatedAt.IsZero())
						assert.Equal(t, at(10, 0), res.StartTime)

						return nil
					})
			},
		},
		{
			name: "slot already taken",
			req:  validCreate(),
			setupMock: func(repo *mocks.MockReservation) {
				repo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					Return(repository.ErrOverlap)
			},
			wantCode: http.StatusConflict,
		},
		{
			name: "storage down",
			req:  validCreate(),
			setupMock: func(repo *mocks.MockReservation) {
				repo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					Return(errors.New("connection refused"))
			},
			wantCode: http.StatusServiceUnavailable,
		},
		{
			name: "unknown room never reaches storage",
			req: func() dto.CreateReservationRequest {
				req := validCreate()
				req.RoomID = "room-99"

				return req
			}(),
			setupMock: func(*mocks.MockReservation) {},
			wantCode:  http.StatusBadRequest,
		},
		{
			name: "zero-length interval never reaches storage",
			req: func() dto.CreateReservationRequest {
				req := validCreate()
				req.EndTime = req.StartTime

				return req
			}(),
			setupMock: func(*mocks.MockReservation) {},
			wantCode:  http.StatusBadRequest,
		},
		{
			name: "inverted interval never reaches storage",
			req: func() dto.CreateReservationRequest {
				req := validCreate()
				req.StartTime, req.EndTime = req.EndTime, req.StartTime

				return req
			}(),
			setupMock: func(*mocks.MockReservation) {},
			wantCode:  http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mockRepo := newService(t)
			tt.setupMock(mockRepo)

			res, err := svc.Create(context.Background(), tt.req)

			if tt.wantCode == 0 {
				require.NoError(t, err)
				assert.NotEmpty(t, res.ID)
				assert.Equal(t, tt.req.RoomID, res.RoomID)
				assert.Equal(t, tt.req.UserName, res.UserName)
				assert.Equal(t, "2025-05-20T10:00:00Z", res.StartTime)
				assert.NotNil(t, res.SharedWith)

				return
			}

			require.Error(t, err)
			assert.Equal(t, tt.wantCode, failure.GetCode(err))
		})
	}
}

func TestGet(t *testing.T) {
	svc, mockRepo := newService(t)

	stored := model.Reservation{
		ID:             "res-1",
		RoomID:         "room-1",
		UserName:       "Alice",
		UserRoomNumber: "301",
		StartTime:      at(10, 0),
		EndTime:        at(11, 0),
		CreatedAt:      at(8, 0),
	}

	mockRepo.EXPECT().GetByID(gomock.Any(), "res-1").Return(stored, nil)

	res, err := svc.Get(context.Background(), "res-1")
	require.NoError(t, err)
	assert.Equal(t, "res-1", res.ID)
	assert.Equal(t, "2025-05-20T10:00:00Z", res.StartTime)
	assert.Equal(t, "2025-05-20T11:00:00Z", res.EndTime)
}

func TestGetNotFound(t *testing.T) {
	svc, mockRepo := newService(t)

	mockRepo.EXPECT().
		GetByID(gomock.Any(), "missing").
		Return(model.Reservation{}, repository.ErrNotFound)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
}

func TestGetAll(t *testing.T) {
	svc, mockRepo := newService(t)

	mockRepo.EXPECT().GetAll(gomock.Any()).Return([]model.Reservation{
		{ID: "a", RoomID: "room-1", StartTime: at(10, 0), EndTime: at(11, 0)},
		{ID: "b", RoomID: "room-2", StartTime: at(12, 0), EndTime: at(13, 0)},
	}, nil)

	res, err := svc.GetAll(context.Background(), service.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalData)
	assert.Len(t, res.Reservations, 2)
}

func TestGetAllByRoom(t *testing.T) {
	svc, mockRepo := newService(t)

	mockRepo.EXPECT().GetByRoom(gomock.Any(), "room-2").Return([]model.Reservation{
		{ID: "b", RoomID: "room-2", StartTime: at(12, 0), EndTime: at(13, 0)},
	}, nil)

	res, err := svc.GetAll(context.Background(), service.ListFilter{RoomID: "room-2"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalData)
}

func TestGetAllStorageFaultIsNotAnEmptyList(t *testing.T) {
	svc, mockRepo := newService(t)

	mockRepo.EXPECT().GetAll(gomock.Any()).Return(nil, errors.New("i/o timeout"))

	_, err := svc.GetAll(context.Background(), service.ListFilter{})
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, failure.GetCode(err))
}

func TestUpdate(t *testing.T) {
	svc, mockRepo := newService(t)

	stored := model.Reservation{
		ID:             "res-1",
		RoomID:         "room-1",
		UserName:       "Alice",
		UserRoomNumber: "301",
		StartTime:      at(10, 0),
		EndTime:        at(11, 0),
		CreatedAt:      at(8, 0),
	}

	newEnd := "2025-05-20T12:00:00Z"

	mockRepo.EXPECT().GetByID(gomock.Any(), "res-1").Return(stored, nil)
	mockRepo.EXPECT().
		Update(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, res model.Reservation) error {
			assert.Equal(t, "res-1", res.ID)
			assert.Equal(t, stored.CreatedAt, res.CreatedAt)
			assert.Equal(t, at(12, 0), res.EndTime)

			return nil
		})

	res, err := svc.Update(context.Background(), dto.UpdateReservationRequest{EndTime: &newEnd}, "res-1")
	require.NoError(t, err)
	assert.Equal(t, "2025-05-20T12:00:00Z", res.EndTime)
}

func TestUpdateConflicts(t *testing.T) {
	svc, mockRepo := newService(t)

	stored := model.Reservation{
		ID: "res-1", RoomID: "room-1",
		UserName: "Alice", UserRoomNumber: "301",
		StartTime: at(10, 0), EndTime: at(11, 0),
	}

	newEnd := "2025-05-20T12:00:00Z"

	mockRepo.EXPECT().GetByID(gomock.Any(), "res-1").Return(stored, nil)
	mockRepo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(repository.ErrOverlap)

	_, err := svc.Update(context.Background(), dto.UpdateReservationRequest{EndTime: &newEnd}, "res-1")
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, failure.GetCode(err))
}

func TestUpdateEmptyRequest(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Update(context.Background(), dto.UpdateReservationRequest{}, "res-1")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
}

func TestUpdateUnknownID(t *testing.T) {
	svc, mockRepo := newService(t)

	name := "Bob"

	mockRepo.EXPECT().
		GetByID(gomock.Any(), "missing").
		Return(model.Reservation{}, repository.ErrNotFound)

	_, err := svc.Update(context.Background(), dto.UpdateReservationRequest{UserName: &name}, "missing")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
}

func TestDelete(t *testing.T) {
	svc, mockRepo := newService(t)

	mockRepo.EXPECT().Delete(gomock.Any(), "res-1").Return(true, nil)

	assert.NoError(t, svc.Delete(context.Background(), "res-1"))
}

func TestDeleteUnknownID(t *testing.T) {
	svc, mockRepo := newService(t)

	mockRepo.EXPECT().Delete(gomock.Any(), "missing").Return(false, nil)

	err := svc.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
}

func TestIsAvailable(t *testing.T) {
	svc, mockRepo := newService(t)

	mockRepo.EXPECT().
		HasOverlap(gomock.Any(), "room-1", at(10, 0), at(11, 0), "").
		Return(false, nil)
	mockRepo.EXPECT().
		HasOverlap(gomock.Any(), "room-1", at(10, 30), at(11, 30), "res-1").
		Return(true, nil)

	free, err := svc.IsAvailable(context.Background(), "room-1", at(10, 0), at(11, 0), "")
	require.NoError(t, err)
	assert.True(t, free)

	free, err = svc.IsAvailable(context.Background(), "room-1", at(10, 30), at(11, 30), "res-1")
	require.NoError(t, err)
	assert.False(t, free)
}

func TestCurrentOccupancy(t *testing.T) {
	svc, mockRepo := newService(t)

	asOf := at(10, 30)

	mockRepo.EXPECT().GetEndingAfter(gomock.Any(), asOf).Return([]model.Reservation{
		{ID: "current", RoomID: "room-1", StartTime: at(10, 0), EndTime: at(11, 0)},
		{ID: "next", RoomID: "room-1", StartTime: at(14, 0), EndTime: at(15, 0)},
		{ID: "later", RoomID: "room-2", StartTime: at(12, 0), EndTime: at(13, 0)},
	}, nil)

	res, err := svc.CurrentOccupancy(context.Background(), asOf)
	require.NoError(t, err)
	require.Len(t, res.Rooms, 3)

	roomOne := res.Rooms["room-1"]
	assert.True(t, roomOne.Occupied)
	require.NotNil(t, roomOne.Current)
	assert.Equal(t, "current", roomOne.Current.ID)
	require.NotNil(t, roomOne.Next)
	assert.Equal(t, "next", roomOne.Next.ID)

	roomTwo := res.Rooms["room-2"]
	assert.False(t, roomTwo.Occupied)
	assert.Nil(t, roomTwo.Current)
	require.NotNil(t, roomTwo.Next)
	assert.Equal(t, "later", roomTwo.Next.ID)

	roomThree := res.Rooms["room-3"]
	assert.False(t, roomThree.Occupied)
	assert.Nil(t, roomThree.Next)
}

func TestCurrentOccupancyAtExactEnd(t *testing.T) {
	svc, mockRepo := newService(t)

	// end_time == asOf rows are already filtered out by the repository query;
	// the engine must not resurrect them.
	asOf := at(11, 0)
	mockRepo.EXPECT().GetEndingAfter(gomock.Any(), asOf).Return([]model.Reservation{}, nil)

	res, err := svc.CurrentOccupancy(context.Background(), asOf)
	require.NoError(t, err)
	assert.False(t, res.Rooms["room-1"].Occupied)
}

func TestGetDay(t *testing.T) {
	svc, mockRepo := newService(t)

	day := time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC)

	mockRepo.EXPECT().
		GetIntersecting(gomock.Any(), day, day.AddDate(0, 0, 1)).
		Return([]model.Reservation{
			{ID: "spill", RoomID: "room-1", StartTime: day.Add(-time.Hour), EndTime: day.Add(time.Hour)},
			{ID: "on-day", RoomID: "room-1", StartTime: at(13, 0), EndTime: at(14, 0)},
		}, nil)

	res, err := svc.GetDay(context.Background(), day)
	require.NoError(t, err)
	require.Len(t, res.Reservations, 1)
	assert.Equal(t, "on-day", res.Reservations[0].ID)
}

func TestGetRange(t *testing.T) {
	svc, mockRepo := newService(t)

	mockRepo.EXPECT().
		GetIntersecting(gomock.Any(), at(9, 0), at(12, 0)).
		Return([]model.Reservation{
			{ID: "a", RoomID: "room-1", StartTime: at(10, 0), EndTime: at(11, 0)},
		}, nil)

	res, err := svc.GetRange(context.Background(), at(9, 0), at(12, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalData)
}

func TestGetRangeRejectsInvertedRange(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.GetRange(context.Background(), at(12, 0), at(9, 0))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
}

func TestGetAllSplit(t *testing.T) {
	svc, mockRepo := newService(t)

	past := model.Reservation{ID: "old", RoomID: "room-1", StartTime: at(8, 0), EndTime: at(9, 0)}
	future := model.Reservation{
		ID: "soon", RoomID: "room-1",
		StartTime: time.Now().UTC().Add(time.Hour),
		EndTime:   time.Now().UTC().Add(2 * time.Hour),
	}

	mockRepo.EXPECT().GetAll(gomock.Any()).Return([]model.Reservation{past, future}, nil)

	res, err := svc.GetAll(context.Background(), service.ListFilter{Split: true})
	require.NoError(t, err)
	require.Len(t, res.Upcoming, 1)
	assert.Equal(t, "soon", res.Upcoming[0].ID)
	require.Len(t, res.Past, 1)
	assert.Equal(t, "old", res.Past[0].ID)
}
