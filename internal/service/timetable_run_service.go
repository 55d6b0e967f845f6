package service

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-planner/internal/dto"
	appErrors "github.com/noah-isme/timetable-planner/pkg/errors"
	"github.com/noah-isme/timetable-planner/pkg/jobs"
)

// JobTypeTimetableGeneration tags queued generation jobs.
const JobTypeTimetableGeneration = "timetable.generate"

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type timetableGenerator interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error)
}

// GenerationRunStore keeps asynchronous runs in memory until their ttl elapses.
type GenerationRunStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]dto.GenerationRun
	now   func() time.Time
}

// NewGenerationRunStore constructs a run store. Non-positive ttl defaults to 30 minutes.
func NewGenerationRunStore(ttl time.Duration) *GenerationRunStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &GenerationRunStore{ttl: ttl, items: make(map[string]dto.GenerationRun), now: time.Now}
}

// Save stores the run and drops expired entries.
func (s *GenerationRunStore) Save(run dto.GenerationRun) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, item := range s.items {
		if s.expired(item, now) {
			delete(s.items, id)
		}
	}
	s.items[run.ID] = run
}

// Get returns a copy of the run unless it is unknown or expired.
func (s *GenerationRunStore) Get(id string) (dto.GenerationRun, bool) {
	s.mu.RLock()
	run, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return dto.GenerationRun{}, false
	}
	if s.expired(run, s.now()) {
		s.Delete(id)
		return dto.GenerationRun{}, false
	}
	return run, true
}

// Update applies fn to a stored run. It reports false when the run is gone.
func (s *GenerationRunStore) Update(id string, fn func(*dto.GenerationRun)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.items[id]
	if !ok {
		return false
	}
	fn(&run)
	s.items[id] = run
	return true
}

// Delete removes a run.
func (s *GenerationRunStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

// expired measures the ttl from completion for finished runs, from the request otherwise.
func (s *GenerationRunStore) expired(run dto.GenerationRun, now time.Time) bool {
	ref := run.RequestedAt
	if run.FinishedAt != nil {
		ref = *run.FinishedAt
	}
	return now.Sub(ref) > s.ttl
}

// TimetableRunService queues generation requests for background execution.
type TimetableRunService struct {
	store     *GenerationRunStore
	queue     jobDispatcher
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimetableRunService constructs the run service.
func NewTimetableRunService(store *GenerationRunStore, queue jobDispatcher, validate *validator.Validate, logger *zap.Logger) *TimetableRunService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableRunService{store: store, queue: queue, validator: validate, logger: logger}
}

// Enqueue registers a QUEUED run and dispatches it to the worker pool.
func (s *TimetableRunService) Enqueue(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerationRun, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable generation payload")
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "generation queue unavailable")
	}

	run := dto.GenerationRun{
		ID:          uuid.NewString(),
		Status:      dto.GenerationRunQueued,
		Request:     req,
		RequestedAt: time.Now().UTC(),
	}
	s.store.Save(run)

	if err := s.queue.Enqueue(jobs.Job{ID: run.ID, Type: JobTypeTimetableGeneration, Payload: run.ID}); err != nil {
		s.store.Delete(run.ID)
		s.logger.Error("enqueue timetable generation", zap.String("run_id", run.ID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue timetable generation")
	}
	s.logger.Info("timetable generation queued", zap.String("run_id", run.ID), zap.String("term_id", req.TermID))
	return &run, nil
}

// Get returns the state of a run.
func (s *TimetableRunService) Get(_ context.Context, id string) (*dto.GenerationRun, error) {
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "run id is required")
	}
	run, ok := s.store.Get(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "generation run not found or expired")
	}
	return &run, nil
}

// TimetableWorker executes queued generation runs.
type TimetableWorker struct {
	generator  timetableGenerator
	store      *GenerationRunStore
	logger     *zap.Logger
	maxRetries int
}

// NewTimetableWorker constructs a worker. maxRetries counts retries after the first attempt.
func NewTimetableWorker(generator timetableGenerator, store *GenerationRunStore, maxRetries int, logger *zap.Logger) *TimetableWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &TimetableWorker{generator: generator, store: store, logger: logger, maxRetries: maxRetries}
}

// Handle processes a queue job. Client-side failures such as a missing term or a held lock
// finish the run immediately; infrastructure failures are handed back to the queue until
// retries run out.
func (w *TimetableWorker) Handle(ctx context.Context, job jobs.Job) error {
	run, ok := w.store.Get(job.ID)
	if !ok {
		w.logger.Warn("generation run vanished before processing", zap.String("run_id", job.ID))
		return nil
	}
	w.store.Update(job.ID, func(r *dto.GenerationRun) {
		r.Status = dto.GenerationRunRunning
		r.Attempts = job.Attempt + 1
	})

	resp, err := w.generator.Generate(ctx, run.Request)
	if err != nil {
		appErr := appErrors.FromError(err)
		if appErr.Status < 500 || job.Attempt >= w.maxRetries {
			w.fail(job.ID, appErr)
			return nil
		}
		w.logger.Warn("timetable generation attempt failed", zap.String("run_id", job.ID), zap.Int("attempt", job.Attempt+1), zap.Error(err))
		return err
	}

	finished := time.Now().UTC()
	w.store.Update(job.ID, func(r *dto.GenerationRun) {
		r.Status = dto.GenerationRunSucceeded
		r.Result = resp
		r.Error = ""
		r.FinishedAt = &finished
	})
	return nil
}

// Exhausted marks a run failed once the queue gives up on it.
func (w *TimetableWorker) Exhausted(job jobs.Job, err error) {
	w.fail(job.ID, appErrors.FromError(err))
}

func (w *TimetableWorker) fail(runID string, err *appErrors.Error) {
	finished := time.Now().UTC()
	w.store.Update(runID, func(r *dto.GenerationRun) {
		r.Status = dto.GenerationRunFailed
		r.Error = err.Message
		r.FinishedAt = &finished
	})
	w.logger.Error("timetable generation failed", zap.String("run_id", runID), zap.String("code", err.Code), zap.Error(err))
}
