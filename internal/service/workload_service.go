package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-planner/internal/dto"
	"github.com/noah-isme/timetable-planner/internal/models"
	appErrors "github.com/noah-isme/timetable-planner/pkg/errors"
)

const workloadCachePrefix = "timetable:workload:"

func workloadCacheKey(termID string) string {
	return workloadCachePrefix + termID
}

type workloadTermReader interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
}

type workloadAggregator interface {
	Workload(ctx context.Context, termID string) ([]models.TeacherWorkload, error)
}

// WorkloadService reports committed periods per teacher for a term.
type WorkloadService struct {
	terms     workloadTermReader
	lessons   workloadAggregator
	cache     *CacheService
	ttl       time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewWorkloadService constructs the workload service. cache may be nil.
func NewWorkloadService(terms workloadTermReader, lessons workloadAggregator, cache *CacheService, ttl time.Duration, validate *validator.Validate, logger *zap.Logger) *WorkloadService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkloadService{terms: terms, lessons: lessons, cache: cache, ttl: ttl, validator: validate, logger: logger}
}

// Workload returns teacher period counts for the term ordered by count descending, ties by
// teacher id. The boolean reports a cache hit.
func (s *WorkloadService) Workload(ctx context.Context, termID string) (*dto.WorkloadResponse, bool, error) {
	if err := s.validator.Struct(dto.WorkloadQuery{TermID: termID}); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "termId is required")
	}
	if _, err := s.terms.FindByID(ctx, termID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrTermNotFound, "term not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}

	key := workloadCacheKey(termID)
	var cached dto.WorkloadResponse
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	rows, err := s.lessons.Workload(ctx, termID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate teacher workload")
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Periods != rows[j].Periods {
			return rows[i].Periods > rows[j].Periods
		}
		return rows[i].TeacherID < rows[j].TeacherID
	})

	resp := &dto.WorkloadResponse{TermID: termID, Teachers: rows}
	if resp.Teachers == nil {
		resp.Teachers = []models.TeacherWorkload{}
	}
	for _, row := range rows {
		resp.Total += row.Periods
	}

	_ = s.cache.Set(ctx, key, resp, s.ttl)
	return resp, false, nil
}

// Invalidate drops the cached report of a term.
func (s *WorkloadService) Invalidate(ctx context.Context, termID string) error {
	return s.cache.Delete(ctx, workloadCacheKey(termID))
}
