package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crimesense/casesearch/api/internal/logger"
	"github.com/crimesense/casesearch/api/internal/models"
	"github.com/crimesense/casesearch/api/internal/query"
	"github.com/crimesense/casesearch/api/internal/repository"
)

// Pagination bounds for case listings.
const (
	MinLimit     = 1
	MaxLimit     = 5000
	DefaultLimit = 100
)

// Service-level errors
var (
	ErrCaseNotFound     = errors.New("case not found")
	ErrInvalidDateRange = errors.New("date_from must not be after date_to")
	ErrInvalidLimit     = fmt.Errorf("limit must be between %d and %d", MinLimit, MaxLimit)
	ErrInvalidOffset    = errors.New("offset must be non-negative")
)

// CaseService defines the interface for case business logic operations.
type CaseService interface {
	// ListCases retrieves a filtered page of cases plus the total count.
	// Returns ErrInvalidLimit, ErrInvalidOffset or ErrInvalidDateRange on
	// bad parameters; error for database failures.
	ListCases(ctx context.Context, p repository.ListParams) (*models.CaseList, error)

	// GetCase retrieves a single case by identifier.
	// Returns ErrCaseNotFound if no row matches.
	// Returns repository.ErrNoIdentifierColumn when the schema cannot
	// support detail lookups at all.
	GetCase(ctx context.Context, caseID string) (models.CaseRecord, error)

	// GetFilters retrieves every dropdown dimension under the shared filter.
	GetFilters(ctx context.Context, f query.Filter) (*models.FilterSet, error)

	// Single-dimension dropdown variants. Amphurs filter by province,
	// tambols by amphur and optionally province.
	ListCenters(ctx context.Context, f query.Filter) ([]models.FilterValue, error)
	ListProvinces(ctx context.Context, f query.Filter) ([]models.FilterValue, error)
	ListAmphurs(ctx context.Context, f query.Filter, province string) ([]models.FilterValue, error)
	ListTambols(ctx context.Context, f query.Filter, amphur, province string) ([]models.FilterValue, error)

	// GetStats retrieves table row counts.
	GetStats(ctx context.Context) (*models.Stats, error)

	// CheckHealth probes the database and reports its version and clock.
	CheckHealth(ctx context.Context) (version string, now time.Time, err error)
}

// caseService is the concrete implementation of CaseService.
type caseService struct {
	repo repository.CaseRepository
	log  *logger.Logger
}

// NewCaseService creates a new instance of CaseService.
func NewCaseService(repo repository.CaseRepository, log *logger.Logger) CaseService {
	return &caseService{
		repo: repo,
		log:  log,
	}
}

// ListCases validates pagination and date parameters, then delegates to the
// repository.
func (s *caseService) ListCases(ctx context.Context, p repository.ListParams) (*models.CaseList, error) {
	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit < MinLimit || p.Limit > MaxLimit {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLimit, p.Limit)
	}
	if p.Offset < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidOffset, p.Offset)
	}
	if err := validateDateRange(p.Filter); err != nil {
		return nil, err
	}

	s.log.Info("Querying cases", map[string]interface{}{
		"limit":  p.Limit,
		"offset": p.Offset,
	})

	list, err := s.repo.ListCases(ctx, p)
	if err != nil {
		s.log.Error("Failed to query cases", err, map[string]interface{}{
			"limit":  p.Limit,
			"offset": p.Offset,
		})
		return nil, fmt.Errorf("failed to query cases: %w", err)
	}

	s.log.Info("Cases found", map[string]interface{}{
		"total":    list.Total,
		"returned": len(list.Items),
	})

	return list, nil
}

// GetCase retrieves a single case, transforming the repository's nil result
// into a business-level not-found error.
func (s *caseService) GetCase(ctx context.Context, caseID string) (models.CaseRecord, error) {
	s.log.Info("Querying case by id", map[string]interface{}{
		"case_id": caseID,
	})

	record, err := s.repo.FindByID(ctx, caseID)
	if err != nil {
		if errors.Is(err, repository.ErrNoIdentifierColumn) {
			s.log.Error("Case lookup unsupported by schema", err, nil)
			return nil, err
		}
		s.log.Error("Failed to query case", err, map[string]interface{}{
			"case_id": caseID,
		})
		return nil, fmt.Errorf("failed to query case: %w", err)
	}

	if record == nil {
		s.log.Debug("Case not found", map[string]interface{}{
			"case_id": caseID,
		})
		return nil, ErrCaseNotFound
	}

	return record, nil
}

// GetFilters validates the shared filter and retrieves all dimensions.
func (s *caseService) GetFilters(ctx context.Context, f query.Filter) (*models.FilterSet, error) {
	if err := validateDateRange(f); err != nil {
		return nil, err
	}

	set, err := s.repo.AllFilters(ctx, f)
	if err != nil {
		s.log.Error("Failed to query filter dimensions", err, nil)
		return nil, fmt.Errorf("failed to query filter dimensions: %w", err)
	}

	return set, nil
}

func (s *caseService) ListCenters(ctx context.Context, f query.Filter) ([]models.FilterValue, error) {
	if err := validateDateRange(f); err != nil {
		return nil, err
	}
	values, err := s.repo.ListCenters(ctx, f)
	if err != nil {
		s.log.Error("Failed to query centers", err, nil)
		return nil, fmt.Errorf("failed to query centers: %w", err)
	}
	return values, nil
}

func (s *caseService) ListProvinces(ctx context.Context, f query.Filter) ([]models.FilterValue, error) {
	if err := validateDateRange(f); err != nil {
		return nil, err
	}
	values, err := s.repo.ListProvinces(ctx, f)
	if err != nil {
		s.log.Error("Failed to query provinces", err, nil)
		return nil, fmt.Errorf("failed to query provinces: %w", err)
	}
	return values, nil
}

func (s *caseService) ListAmphurs(ctx context.Context, f query.Filter, province string) ([]models.FilterValue, error) {
	if err := validateDateRange(f); err != nil {
		return nil, err
	}
	values, err := s.repo.ListAmphurs(ctx, f, province)
	if err != nil {
		s.log.Error("Failed to query amphurs", err, map[string]interface{}{
			"province": province,
		})
		return nil, fmt.Errorf("failed to query amphurs: %w", err)
	}
	return values, nil
}

func (s *caseService) ListTambols(ctx context.Context, f query.Filter, amphur, province string) ([]models.FilterValue, error) {
	if err := validateDateRange(f); err != nil {
		return nil, err
	}
	values, err := s.repo.ListTambols(ctx, f, amphur, province)
	if err != nil {
		s.log.Error("Failed to query tambols", err, map[string]interface{}{
			"amphur":   amphur,
			"province": province,
		})
		return nil, fmt.Errorf("failed to query tambols: %w", err)
	}
	return values, nil
}

func (s *caseService) GetStats(ctx context.Context) (*models.Stats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		s.log.Error("Failed to query stats", err, nil)
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	return stats, nil
}

func (s *caseService) CheckHealth(ctx context.Context) (string, time.Time, error) {
	return s.repo.Health(ctx)
}

// validateDateRange rejects a from/to pair in the wrong order. The strings
// are already format-validated, so lexical comparison is date comparison.
func validateDateRange(f query.Filter) error {
	if f.DateFrom != "" && f.DateTo != "" && f.DateFrom > f.DateTo {
		return fmt.Errorf("%w: got %s..%s", ErrInvalidDateRange, f.DateFrom, f.DateTo)
	}
	return nil
}
