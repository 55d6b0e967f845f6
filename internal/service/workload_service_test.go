package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-planner/internal/models"
	appErrors "github.com/noah-isme/timetable-planner/pkg/errors"
)

type stubTermRepo struct {
	terms  map[string]models.Term
	latest *models.Term
	err    error
}

func (s *stubTermRepo) FindByID(_ context.Context, id string) (*models.Term, error) {
	if s.err != nil {
		return nil, s.err
	}
	term, ok := s.terms[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &term, nil
}

func (s *stubTermRepo) FindLatest(_ context.Context) (*models.Term, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.latest == nil {
		return nil, sql.ErrNoRows
	}
	term := *s.latest
	return &term, nil
}

type stubWorkloadRepo struct {
	rows  []models.TeacherWorkload
	calls int
	err   error
}

func (s *stubWorkloadRepo) Workload(_ context.Context, _ string) ([]models.TeacherWorkload, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return append([]models.TeacherWorkload(nil), s.rows...), nil
}

type stubCacheRepo struct {
	store map[string][]byte
}

func (s *stubCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	payload, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (s *stubCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if s.store == nil {
		s.store = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = payload
	return nil
}

func (s *stubCacheRepo) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.store, key)
	}
	return nil
}

func workloadTerms() *stubTermRepo {
	return &stubTermRepo{terms: map[string]models.Term{"term-1": {ID: "term-1", Year: 2026, Number: 1}}}
}

func TestWorkloadServiceOrdersAndTotals(t *testing.T) {
	repo := &stubWorkloadRepo{rows: []models.TeacherWorkload{
		{TeacherID: "t3", TeacherName: "C", Periods: 4},
		{TeacherID: "t2", TeacherName: "B", Periods: 9},
		{TeacherID: "t1", TeacherName: "A", Periods: 4},
	}}
	svc := NewWorkloadService(workloadTerms(), repo, nil, time.Minute, nil, zap.NewNop())

	resp, hit, err := svc.Workload(context.Background(), "term-1")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 17, resp.Total)

	var ids []string
	for _, row := range resp.Teachers {
		ids = append(ids, row.TeacherID)
	}
	assert.Equal(t, []string{"t2", "t1", "t3"}, ids)
}

func TestWorkloadServiceCaching(t *testing.T) {
	repo := &stubWorkloadRepo{rows: []models.TeacherWorkload{{TeacherID: "t1", TeacherName: "A", Periods: 6}}}
	cacheRepo := &stubCacheRepo{}
	cacheSvc := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc := NewWorkloadService(workloadTerms(), repo, cacheSvc, time.Minute, nil, zap.NewNop())
	ctx := context.Background()

	first, hit, err := svc.Workload(ctx, "term-1")
	require.NoError(t, err)
	assert.False(t, hit)

	second, hit, err := svc.Workload(ctx, "term-1")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.calls)

	require.NoError(t, svc.Invalidate(ctx, "term-1"))
	_, hit, err = svc.Workload(ctx, "term-1")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, repo.calls)
}

func TestWorkloadServiceTermNotFound(t *testing.T) {
	svc := NewWorkloadService(workloadTerms(), &stubWorkloadRepo{}, nil, time.Minute, nil, zap.NewNop())

	_, _, err := svc.Workload(context.Background(), "term-9")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrTermNotFound)
}

func TestWorkloadServiceValidation(t *testing.T) {
	svc := NewWorkloadService(workloadTerms(), &stubWorkloadRepo{}, nil, time.Minute, nil, zap.NewNop())

	_, _, err := svc.Workload(context.Background(), "")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestWorkloadServiceRepositoryFailure(t *testing.T) {
	svc := NewWorkloadService(workloadTerms(), &stubWorkloadRepo{err: assert.AnError}, nil, time.Minute, nil, zap.NewNop())

	_, _, err := svc.Workload(context.Background(), "term-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInternal)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestWorkloadServiceEmptyTerm(t *testing.T) {
	svc := NewWorkloadService(workloadTerms(), &stubWorkloadRepo{}, nil, time.Minute, nil, zap.NewNop())

	resp, _, err := svc.Workload(context.Background(), "term-1")
	require.NoError(t, err)
	assert.Empty(t, resp.Teachers)
	assert.NotNil(t, resp.Teachers)
	assert.Zero(t, resp.Total)
}
