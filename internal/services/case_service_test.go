package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/crimesense/casesearch/api/internal/logger"
	"github.com/crimesense/casesearch/api/internal/models"
	"github.com/crimesense/casesearch/api/internal/query"
	"github.com/crimesense/casesearch/api/internal/repository"
)

// MockCaseRepository is a mock implementation of CaseRepository for testing
type MockCaseRepository struct {
	mock.Mock
}

func (m *MockCaseRepository) ListCases(ctx context.Context, p repository.ListParams) (*models.CaseList, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CaseList), args.Error(1)
}

func (m *MockCaseRepository) FindByID(ctx context.Context, caseID string) (models.CaseRecord, error) {
	args := m.Called(ctx, caseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(models.CaseRecord), args.Error(1)
}

func (m *MockCaseRepository) AllFilters(ctx context.Context, f query.Filter) (*models.FilterSet, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FilterSet), args.Error(1)
}

func (m *MockCaseRepository) ListCenters(ctx context.Context, f query.Filter) ([]models.FilterValue, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FilterValue), args.Error(1)
}

func (m *MockCaseRepository) ListProvinces(ctx context.Context, f query.Filter) ([]models.FilterValue, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FilterValue), args.Error(1)
}

func (m *MockCaseRepository) ListAmphurs(ctx context.Context, f query.Filter, province string) ([]models.FilterValue, error) {
	args := m.Called(ctx, f, province)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FilterValue), args.Error(1)
}

func (m *MockCaseRepository) ListTambols(ctx context.Context, f query.Filter, amphur, province string) ([]models.FilterValue, error) {
	args := m.Called(ctx, f, amphur, province)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FilterValue), args.Error(1)
}

func (m *MockCaseRepository) Stats(ctx context.Context) (*models.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Stats), args.Error(1)
}

func (m *MockCaseRepository) Health(ctx context.Context) (string, time.Time, error) {
	args := m.Called(ctx)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func newTestService(repo repository.CaseRepository) CaseService {
	return NewCaseService(repo, logger.New("test"))
}

func TestListCases_Success(t *testing.T) {
	mockRepo := new(MockCaseRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	expected := &models.CaseList{
		Total: 3,
		Items: []models.CaseRecord{
			{"case_id": "AA-1-57-001", "CaseCategoryName": "Theft"},
		},
	}
	params := repository.ListParams{
		Filter: query.Filter{Category: "Theft"},
		Limit:  10,
	}
	mockRepo.On("ListCases", ctx, params).Return(expected, nil)

	list, err := service.ListCases(ctx, params)

	require.NoError(t, err)
	assert.Equal(t, int64(3), list.Total)
	assert.Len(t, list.Items, 1)
	mockRepo.AssertExpectations(t)
}

func TestListCases_DefaultsLimit(t *testing.T) {
	mockRepo := new(MockCaseRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	mockRepo.On("ListCases", ctx, mock.MatchedBy(func(p repository.ListParams) bool {
		return p.Limit == DefaultLimit
	})).Return(&models.CaseList{Items: []models.CaseRecord{}}, nil)

	_, err := service.ListCases(ctx, repository.ListParams{})

	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestListCases_InvalidLimit(t *testing.T) {
	mockRepo := new(MockCaseRepository)
	service := newTestService(mockRepo)

	_, err := service.ListCases(context.Background(), repository.ListParams{Limit: 5001})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidLimit)
	mockRepo.AssertNotCalled(t, "ListCases")
}

func TestListCases_InvalidOffset(t *testing.T) {
	mockRepo := new(MockCaseRepository)
	service := newTestService(mockRepo)

	_, err := service.ListCases(context.Background(), repository.ListParams{Limit: 10, Offset: -1})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidOffset)
	mockRepo.AssertNotCalled(t, "ListCases")
}

func TestListCases_InvalidDateRange(t *testing.T) {
	mockRepo := new(MockCaseRepository)
	service := newTestService(mockRepo)

	_, err := service.ListCases(context.Background(), repository.ListParams{
		Limit: 10,
		Filter: query.Filter{
			DateFrom: "2021-06-01",
			DateTo:   "2021-01-01",
		},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidDateRange)
	mockRepo.AssertNotCalled(t, "ListCases")
}

func TestListCases_RepositoryError(t *testing.T) {
	mockRepo := new(MockCaseRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	dbErr := errors.New("connection refused")
	mockRepo.On("ListCases", ctx, mock.Anything).Return(nil, dbErr)

	_, err := service.ListCases(ctx, repository.ListParams{Limit: 10})

	require.Error(t, err)
	assert.ErrorIs(t, err, dbErr)
}

func TestGetCase_Success(t *testing.T) {
	mockRepo := new(MockCaseRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	expected := models.CaseRecord{"fids_no": "AA-1-57-001", "province_name": "Chiang Mai"}
	mockRepo.On("FindByID", ctx, "AA-1-57-001").Return(expected, nil)

	record, err := service.GetCase(ctx, "AA-1-57-001")

	require.NoError(t, err)
	assert.Equal(t, "Chiang Mai", record["province_name"])
	mockRepo.AssertExpectations(t)
}

func TestGetCase_NotFound(t *testing.T) {
	mockRepo := new(MockCaseRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	// Repository returns nil, nil when no case matches
	mockRepo.On("FindByID", ctx, "ABC-123").Return(nil, nil)

	record, err := service.GetCase(ctx, "ABC-123")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCaseNotFound)
	assert.Nil(t, record)
}

func TestGetCase_NoIdentifierColumn(t *testing.T) {
	mockRepo := new(MockCaseRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	mockRepo.On("FindByID", ctx, "X").Return(nil, repository.ErrNoIdentifierColumn)

	_, err := service.GetCase(ctx, "X")

	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrNoIdentifierColumn)
}

func TestGetFilters_Success(t *testing.T) {
	mockRepo := new(MockCaseRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	expected := &models.FilterSet{
		Centers: []models.FilterValue{{Code: "C01", Name: "C01", Count: 5}},
		Years:   []models.YearBucket{{Code: 2014, Name: 2014, Count: 5}},
	}
	f := query.Filter{Center: "C01"}
	mockRepo.On("AllFilters", ctx, f).Return(expected, nil)

	set, err := service.GetFilters(ctx, f)

	require.NoError(t, err)
	assert.Equal(t, expected, set)
	mockRepo.AssertExpectations(t)
}

func TestGetFilters_InvalidDateRange(t *testing.T) {
	mockRepo := new(MockCaseRepository)
	service := newTestService(mockRepo)

	_, err := service.GetFilters(context.Background(), query.Filter{
		DateFrom: "2022-12-31",
		DateTo:   "2022-01-01",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidDateRange)
	mockRepo.AssertNotCalled(t, "AllFilters")
}

func TestListAmphurs_PassesProvince(t *testing.T) {
	mockRepo := new(MockCaseRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	expected := []models.FilterValue{{Code: "Mueang", Name: "Mueang", Count: 2}}
	mockRepo.On("ListAmphurs", ctx, query.Filter{}, "Chiang Mai").Return(expected, nil)

	values, err := service.ListAmphurs(ctx, query.Filter{}, "Chiang Mai")

	require.NoError(t, err)
	assert.Equal(t, expected, values)
	mockRepo.AssertExpectations(t)
}

func TestListTambols_PassesAmphurAndProvince(t *testing.T) {
	mockRepo := new(MockCaseRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	expected := []models.FilterValue{{Code: "Suthep", Name: "Suthep", Count: 1}}
	mockRepo.On("ListTambols", ctx, query.Filter{}, "Mueang", "Chiang Mai").Return(expected, nil)

	values, err := service.ListTambols(ctx, query.Filter{}, "Mueang", "Chiang Mai")

	require.NoError(t, err)
	assert.Equal(t, expected, values)
	mockRepo.AssertExpectations(t)
}

func TestGetStats_Success(t *testing.T) {
	mockRepo := new(MockCaseRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	mockRepo.On("Stats", ctx).Return(&models.Stats{Cases: 100, Evidences: 7}, nil)

	stats, err := service.GetStats(ctx)

	require.NoError(t, err)
	assert.Equal(t, int64(100), stats.Cases)
	assert.Equal(t, int64(7), stats.Evidences)
}

func TestCheckHealth_PassesThrough(t *testing.T) {
	mockRepo := new(MockCaseRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	now := time.Now()
	mockRepo.On("Health", ctx).Return("PostgreSQL 16.2", now, nil)

	version, dbNow, err := service.CheckHealth(ctx)

	require.NoError(t, err)
	assert.Equal(t, "PostgreSQL 16.2", version)
	assert.Equal(t, now, dbNow)
}

func TestCheckHealth_Error(t *testing.T) {
	mockRepo := new(MockCaseRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	dbErr := errors.New("dial tcp: connection refused")
	mockRepo.On("Health", ctx).Return("", time.Time{}, dbErr)

	_, _, err := service.CheckHealth(ctx)

	require.Error(t, err)
	assert.ErrorIs(t, err, dbErr)
}
