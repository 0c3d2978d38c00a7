package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ms-events/internal/events/db"
	"ms-events/internal/events/service"
	"ms-events/internal/events/validation"
	"ms-events/internal/models"
)

// MockEventDBLayer is a mock implementation of the EventDBLayer interface
type MockEventDBLayer struct {
	mock.Mock
}

func (m *MockEventDBLayer) CreateEvent(ctx context.Context, event models.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventDBLayer) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventDBLayer) GetAllEvents(ctx context.Context) ([]models.Event, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Event), args.Error(1)
}

func (m *MockEventDBLayer) UpdateEvent(ctx context.Context, event models.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventDBLayer) DeleteEvent(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockKafkaPublisher records lifecycle publications
type MockKafkaPublisher struct {
	mock.Mock
}

func (m *MockKafkaPublisher) PublishEventCreated(event models.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

func (m *MockKafkaPublisher) PublishEventUpdated(event models.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

func (m *MockKafkaPublisher) PublishEventDeleted(event models.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// fakeCache tracks the invalidation calls the service makes
type fakeCache struct {
	invalidatedAll bool
	invalidatedIDs []string
}

func (f *fakeCache) GetAll(ctx context.Context) ([]models.Event, bool)       { return nil, false }
func (f *fakeCache) GetByID(ctx context.Context, id string) (*models.Event, bool) {
	return nil, false
}
func (f *fakeCache) SetAll(ctx context.Context, events []models.Event) {}
func (f *fakeCache) SetByID(ctx context.Context, event *models.Event)  {}
func (f *fakeCache) InvalidateAll(ctx context.Context)                 { f.invalidatedAll = true }
func (f *fakeCache) InvalidateByID(ctx context.Context, id string) {
	f.invalidatedIDs = append(f.invalidatedIDs, id)
}

func validCreate() validation.ValidatedCreate {
	return validation.ValidatedCreate{
		Title:       "Game Night",
		Description: "A fun evening event",
		StartDate:   time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 1, 1, 21, 0, 0, 0, time.UTC),
		Location:    "Arena",
		Status:      models.StatusDraft,
	}
}

func storedEvent() *models.Event {
	created := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	return &models.Event{
		ID:          uuid.New().String(),
		Title:       "Game Night",
		Description: "A fun evening event",
		StartDate:   time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 1, 1, 21, 0, 0, 0, time.UTC),
		Location:    "Arena",
		Status:      models.StatusDraft,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func TestCreateAssignsServerFields(t *testing.T) {
	mockDB := new(MockEventDBLayer)
	svc := service.NewEventService(mockDB, nil, nil, nil)

	mockDB.On("CreateEvent", mock.Anything, mock.MatchedBy(func(e models.Event) bool {
		return e.Title == "Game Night" && e.ID != ""
	})).Return(nil)

	event, err := svc.Create(context.Background(), validCreate())

	require.NoError(t, err)
	assert.NotEmpty(t, event.ID)
	_, parseErr := uuid.Parse(event.ID)
	assert.NoError(t, parseErr)
	assert.Equal(t, event.CreatedAt, event.UpdatedAt)
	require.NotNil(t, event.NFTNetwork)
	assert.Equal(t, models.DefaultNFTNetwork, *event.NFTNetwork)
	assert.Nil(t, event.NFTMintAddress)
	mockDB.AssertExpectations(t)
}

func TestCreateWrapsStoreFailure(t *testing.T) {
	mockDB := new(MockEventDBLayer)
	svc := service.NewEventService(mockDB, nil, nil, nil)

	cause := errors.New("connection refused")
	mockDB.On("CreateEvent", mock.Anything, mock.Anything).Return(cause)

	event, err := svc.Create(context.Background(), validCreate())

	assert.Nil(t, event)
	var storeErr *service.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.ErrorIs(t, err, cause)
}

func TestGetByIDNotFound(t *testing.T) {
	mockDB := new(MockEventDBLayer)
	svc := service.NewEventService(mockDB, nil, nil, nil)

	mockDB.On("GetEventByID", mock.Anything, "missing").Return(nil, db.ErrNoRows)

	event, err := svc.GetByID(context.Background(), "missing")

	assert.Nil(t, event)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestGetAll(t *testing.T) {
	mockDB := new(MockEventDBLayer)
	svc := service.NewEventService(mockDB, nil, nil, nil)

	stored := storedEvent()
	mockDB.On("GetAllEvents", mock.Anything).Return([]models.Event{*stored}, nil)

	events, err := svc.GetAll(context.Background())

	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, stored.ID, events[0].ID)
}

func TestUpdateMergesOnlySuppliedFields(t *testing.T) {
	mockDB := new(MockEventDBLayer)
	svc := service.NewEventService(mockDB, nil, nil, nil)

	existing := storedEvent()
	mockDB.On("GetEventByID", mock.Anything, existing.ID).Return(existing, nil)

	var persisted models.Event
	mockDB.On("UpdateEvent", mock.Anything, mock.MatchedBy(func(e models.Event) bool {
		persisted = e
		return e.ID == existing.ID
	})).Return(nil)

	title := "Renamed Night"
	updated, err := svc.Update(context.Background(), existing.ID, validation.ValidatedUpdate{
		Title: &title,
	})

	require.NoError(t, err)
	assert.Equal(t, "Renamed Night", updated.Title)

	// Everything else untouched except updatedAt
	assert.Equal(t, existing.Description, persisted.Description)
	assert.Equal(t, existing.StartDate, persisted.StartDate)
	assert.Equal(t, existing.EndDate, persisted.EndDate)
	assert.Equal(t, existing.Status, persisted.Status)
	assert.Equal(t, existing.CreatedAt, persisted.CreatedAt)
	assert.True(t, persisted.UpdatedAt.After(existing.UpdatedAt))
}

func TestUpdateEmptyPatchRefreshesUpdatedAt(t *testing.T) {
	mockDB := new(MockEventDBLayer)
	svc := service.NewEventService(mockDB, nil, nil, nil)

	existing := storedEvent()
	mockDB.On("GetEventByID", mock.Anything, existing.ID).Return(existing, nil)
	mockDB.On("UpdateEvent", mock.Anything, mock.Anything).Return(nil)

	updated, err := svc.Update(context.Background(), existing.ID, validation.ValidatedUpdate{})

	require.NoError(t, err)
	assert.Equal(t, existing.Title, updated.Title)
	assert.True(t, updated.UpdatedAt.After(existing.UpdatedAt))
}

func TestUpdateChecksDatesOnMergedRecord(t *testing.T) {
	mockDB := new(MockEventDBLayer)
	svc := service.NewEventService(mockDB, nil, nil, nil)

	existing := storedEvent()
	mockDB.On("GetEventByID", mock.Anything, existing.ID).Return(existing, nil)

	// endDate alone, earlier than the stored startDate: must be rejected
	// even though the update validator could not see the pair.
	badEnd := existing.StartDate.Add(-time.Hour)
	updated, err := svc.Update(context.Background(), existing.ID, validation.ValidatedUpdate{
		EndDate: &badEnd,
	})

	assert.Nil(t, updated)
	var vErr *validation.Error
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "endDate")
	mockDB.AssertNotCalled(t, "UpdateEvent", mock.Anything, mock.Anything)
}

func TestUpdateNotFound(t *testing.T) {
	mockDB := new(MockEventDBLayer)
	svc := service.NewEventService(mockDB, nil, nil, nil)

	mockDB.On("GetEventByID", mock.Anything, "missing").Return(nil, db.ErrNoRows)

	updated, err := svc.Update(context.Background(), "missing", validation.ValidatedUpdate{})

	assert.Nil(t, updated)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestRemove(t *testing.T) {
	mockDB := new(MockEventDBLayer)
	svc := service.NewEventService(mockDB, nil, nil, nil)

	mockDB.On("DeleteEvent", mock.Anything, "event1").Return(nil)

	err := svc.Remove(context.Background(), "event1")
	assert.NoError(t, err)
	mockDB.AssertExpectations(t)
}

func TestRemoveNotFound(t *testing.T) {
	mockDB := new(MockEventDBLayer)
	svc := service.NewEventService(mockDB, nil, nil, nil)

	mockDB.On("DeleteEvent", mock.Anything, "missing").Return(db.ErrNoRows)

	err := svc.Remove(context.Background(), "missing")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestMutationsInvalidateCache(t *testing.T) {
	mockDB := new(MockEventDBLayer)
	cache := &fakeCache{}
	svc := service.NewEventService(mockDB, cache, nil, nil)

	existing := storedEvent()
	mockDB.On("GetEventByID", mock.Anything, existing.ID).Return(existing, nil)
	mockDB.On("UpdateEvent", mock.Anything, mock.Anything).Return(nil)

	_, err := svc.Update(context.Background(), existing.ID, validation.ValidatedUpdate{})
	require.NoError(t, err)

	assert.True(t, cache.invalidatedAll)
	assert.Contains(t, cache.invalidatedIDs, existing.ID)
}

func TestCacheNotInvalidatedWhenStoreFails(t *testing.T) {
	mockDB := new(MockEventDBLayer)
	cache := &fakeCache{}
	svc := service.NewEventService(mockDB, cache, nil, nil)

	mockDB.On("CreateEvent", mock.Anything, mock.Anything).Return(errors.New("down"))

	_, err := svc.Create(context.Background(), validCreate())
	assert.Error(t, err)
	assert.False(t, cache.invalidatedAll)
}

func TestKafkaPublishedAfterCreate(t *testing.T) {
	mockDB := new(MockEventDBLayer)
	mockKafka := new(MockKafkaPublisher)
	svc := service.NewEventService(mockDB, nil, mockKafka, nil)

	mockDB.On("CreateEvent", mock.Anything, mock.Anything).Return(nil)
	mockKafka.On("PublishEventCreated", mock.Anything).Return(nil)

	_, err := svc.Create(context.Background(), validCreate())
	require.NoError(t, err)
	mockKafka.AssertExpectations(t)
}

func TestKafkaFailureDoesNotFailMutation(t *testing.T) {
	mockDB := new(MockEventDBLayer)
	mockKafka := new(MockKafkaPublisher)
	svc := service.NewEventService(mockDB, nil, mockKafka, nil)

	mockDB.On("CreateEvent", mock.Anything, mock.Anything).Return(nil)
	mockKafka.On("PublishEventCreated", mock.Anything).Return(errors.New("broker gone"))

	event, err := svc.Create(context.Background(), validCreate())
	assert.NoError(t, err)
	assert.NotNil(t, event)
}
