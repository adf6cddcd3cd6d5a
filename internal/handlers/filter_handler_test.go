package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/crimesense/casesearch/api/internal/models"
	"github.com/crimesense/casesearch/api/internal/query"
)

func TestFilters_HandlerSuccess(t *testing.T) {
	mockService := new(MockCaseService)
	router := setupTestRouter(mockService)

	mockService.On("GetFilters", mock.Anything, query.Filter{
		Center:   "C01",
		Category: "Theft",
		Search:   "gun",
	}).Return(&models.FilterSet{
		Centers:    []models.FilterValue{{Code: "C01", Name: "C01", Count: 5}},
		Provinces:  []models.FilterValue{{Code: "Chiang Mai", Name: "Chiang Mai", Count: 5}},
		Amphurs:    []models.FilterValue{},
		Tambols:    []models.FilterValue{},
		Categories: []models.FilterValue{{Code: "Theft", Name: "Theft", Count: 5}},
		Years:      []models.YearBucket{{Code: 2014, Name: 2014, Count: 5}},
	}, nil)

	w := doRequest(t, router, "/cases/filters?center=C01&category=Theft&q=gun")

	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Centers    []models.FilterValue `json:"centers"`
		Provinces  []models.FilterValue `json:"provinces"`
		Amphurs    []models.FilterValue `json:"amphurs"`
		Tambols    []models.FilterValue `json:"tambols"`
		Categories []models.FilterValue `json:"categories"`
		Years      []models.YearBucket  `json:"years"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Centers, 1)
	assert.Equal(t, "C01", body.Centers[0].Code)
	assert.NotNil(t, body.Amphurs, "empty dimensions serialize as arrays, not null")
	assert.Len(t, body.Years, 1)
	assert.Equal(t, 2014, body.Years[0].Code)
	assert.Equal(t, int64(5), body.Years[0].Count)
	mockService.AssertExpectations(t)
}

func TestFilters_HandlerMalformedDate(t *testing.T) {
	mockService := new(MockCaseService)
	router := setupTestRouter(mockService)

	w := doRequest(t, router, "/cases/filters?date_from=yesterday")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "GetFilters")
}

func TestCenters_HandlerSuccess(t *testing.T) {
	mockService := new(MockCaseService)
	router := setupTestRouter(mockService)

	mockService.On("ListCenters", mock.Anything, query.Filter{Category: "Theft"}).
		Return([]models.FilterValue{
			{Code: "C01", Name: "C01", Count: 3},
			{Code: "C02", Name: "C02", Count: 1},
		}, nil)

	w := doRequest(t, router, "/cases/centers?category=Theft")

	assert.Equal(t, http.StatusOK, w.Code)

	var values []models.FilterValue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &values))
	assert.Len(t, values, 2)
	mockService.AssertExpectations(t)
}

func TestCenters_HandlerIgnoresCenterParam(t *testing.T) {
	// A dimension is never scoped by itself: the centers endpoint does not
	// accept a center parameter.
	mockService := new(MockCaseService)
	router := setupTestRouter(mockService)

	mockService.On("ListCenters", mock.Anything, query.Filter{}).
		Return([]models.FilterValue{}, nil)

	w := doRequest(t, router, "/cases/centers?center=C01")

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestProvinces_HandlerSuccess(t *testing.T) {
	mockService := new(MockCaseService)
	router := setupTestRouter(mockService)

	mockService.On("ListProvinces", mock.Anything, query.Filter{Center: "C01"}).
		Return([]models.FilterValue{
			{Code: "Chiang Mai", Name: "Chiang Mai", Count: 4},
		}, nil)

	w := doRequest(t, router, "/cases/provinces?center=C01")

	assert.Equal(t, http.StatusOK, w.Code)

	var values []models.FilterValue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &values))
	require.Len(t, values, 1)
	assert.Equal(t, int64(4), values[0].Count)
}

func TestProvinces_FallbackListPassedThrough(t *testing.T) {
	// A center with zero cases yields the full unfiltered province list
	// from the repository fallback, and the handler returns it as-is.
	mockService := new(MockCaseService)
	router := setupTestRouter(mockService)

	mockService.On("ListProvinces", mock.Anything, query.Filter{Center: "EMPTY"}).
		Return([]models.FilterValue{
			{Code: "Bangkok", Name: "Bangkok", Count: 10},
			{Code: "Chiang Mai", Name: "Chiang Mai", Count: 4},
		}, nil)

	w := doRequest(t, router, "/cases/provinces?center=EMPTY")

	assert.Equal(t, http.StatusOK, w.Code)

	var values []models.FilterValue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &values))
	assert.Len(t, values, 2)
}

func TestAmphurs_HandlerRequiresProvince(t *testing.T) {
	mockService := new(MockCaseService)
	router := setupTestRouter(mockService)

	w := doRequest(t, router, "/cases/amphurs")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
	mockService.AssertNotCalled(t, "ListAmphurs")
}

func TestAmphurs_HandlerSuccess(t *testing.T) {
	mockService := new(MockCaseService)
	router := setupTestRouter(mockService)

	mockService.On("ListAmphurs", mock.Anything, query.Filter{}, "Chiang Mai").
		Return([]models.FilterValue{
			{Code: "Mueang", Name: "Mueang", Count: 2},
		}, nil)

	w := doRequest(t, router, "/cases/amphurs?province=Chiang+Mai")

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestTambols_HandlerRequiresAmphur(t *testing.T) {
	mockService := new(MockCaseService)
	router := setupTestRouter(mockService)

	w := doRequest(t, router, "/cases/tambols?province=Chiang+Mai")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "ListTambols")
}

func TestTambols_HandlerSuccess(t *testing.T) {
	mockService := new(MockCaseService)
	router := setupTestRouter(mockService)

	mockService.On("ListTambols", mock.Anything, query.Filter{}, "Mueang", "Chiang Mai").
		Return([]models.FilterValue{
			{Code: "Suthep", Name: "Suthep", Count: 1},
		}, nil)

	w := doRequest(t, router, "/cases/tambols?amphur=Mueang&province=Chiang+Mai")

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestTambols_HandlerProvinceOptional(t *testing.T) {
	mockService := new(MockCaseService)
	router := setupTestRouter(mockService)

	mockService.On("ListTambols", mock.Anything, query.Filter{}, "Mueang", "").
		Return([]models.FilterValue{}, nil)

	w := doRequest(t, router, "/cases/tambols?amphur=Mueang")

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestDimensions_HandlerServiceError(t *testing.T) {
	mockService := new(MockCaseService)
	router := setupTestRouter(mockService)

	mockService.On("ListProvinces", mock.Anything, mock.Anything).
		Return(nil, assert.AnError)

	w := doRequest(t, router, "/cases/provinces")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
