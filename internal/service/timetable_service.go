package service

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-planner/internal/dto"
	"github.com/noah-isme/timetable-planner/internal/models"
	appErrors "github.com/noah-isme/timetable-planner/pkg/errors"
	"github.com/noah-isme/timetable-planner/pkg/lock"
)

const uniqueViolation = "23505"

type timetableTermReader interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
	FindLatest(ctx context.Context) (*models.Term, error)
}

type timetableClassReader interface {
	List(ctx context.Context) ([]models.SchoolClass, error)
}

type timetableSubjectReader interface {
	ListOfferings(ctx context.Context) ([]models.SubjectOffering, error)
	ListQualifiedTeachers(ctx context.Context) ([]models.SubjectTeacher, error)
	ListSubjectClasses(ctx context.Context) ([]models.SubjectClass, error)
}

type timetableSlotReader interface {
	List(ctx context.Context) ([]models.TimeSlot, error)
}

type timetableLessonStore interface {
	ListByTerm(ctx context.Context, termID string) ([]models.Lesson, error)
	DeleteByTermWithTx(ctx context.Context, tx *sqlx.Tx, termID string) (int64, error)
	BulkCreateWithTx(ctx context.Context, tx *sqlx.Tx, lessons []models.Lesson) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type workloadInvalidator interface {
	Invalidate(ctx context.Context, termID string) error
}

// TimetableConfig governs generation behaviour.
type TimetableConfig struct {
	Engine EngineConfig
	// Seed fixes the random source when the request carries none. Zero seeds from the clock.
	Seed    int64
	LockTTL time.Duration
}

// TimetableService resolves the target term, runs the scheduling engine and persists the
// resulting lessons atomically.
type TimetableService struct {
	terms     timetableTermReader
	classes   timetableClassReader
	subjects  timetableSubjectReader
	slots     timetableSlotReader
	lessons   timetableLessonStore
	tx        txProvider
	locker    lock.Locker
	workload  workloadInvalidator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       TimetableConfig
	now       func() time.Time
}

// NewTimetableService wires generator dependencies. locker, workload and metrics may be nil.
func NewTimetableService(
	terms timetableTermReader,
	classes timetableClassReader,
	subjects timetableSubjectReader,
	slots timetableSlotReader,
	lessons timetableLessonStore,
	tx txProvider,
	locker lock.Locker,
	workload workloadInvalidator,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 5 * time.Minute
	}
	cfg.Engine = cfg.Engine.normalized()
	return &TimetableService{
		terms:     terms,
		classes:   classes,
		subjects:  subjects,
		slots:     slots,
		lessons:   lessons,
		tx:        tx,
		locker:    locker,
		workload:  workload,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Generate builds and commits the weekly timetable of a term. Shortfalls are returned as
// warnings; only an unresolvable term, a held lock or a storage failure is an error.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable generation payload")
	}

	term, err := s.resolveTerm(ctx, req.TermID)
	if err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, "timetable:term:"+term.ID, s.cfg.LockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrLocked) {
			return nil, appErrors.Clone(appErrors.ErrGenerationInProgress, "timetable generation already running for "+term.Label())
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire generation lock")
	}
	defer func() {
		if relErr := release(context.WithoutCancel(ctx)); relErr != nil {
			s.logger.Warn("release generation lock", zap.String("term_id", term.ID), zap.Error(relErr))
		}
	}()

	start := s.now()
	resp, err := s.generateLocked(ctx, term, req)
	duration := s.now().Sub(start)
	if err != nil {
		s.metrics.ObserveGeneration("error", duration, 0, nil)
		return nil, err
	}
	s.metrics.ObserveGeneration("success", duration, resp.Placed, resp.Warnings)

	if s.workload != nil {
		if invErr := s.workload.Invalidate(ctx, term.ID); invErr != nil {
			s.logger.Warn("invalidate workload cache", zap.String("term_id", term.ID), zap.Error(invErr))
		}
	}

	s.logger.Info("timetable generated",
		zap.String("term_id", term.ID),
		zap.String("term", term.Label()),
		zap.Int64("seed", resp.Seed),
		zap.Int64("cleared", resp.Cleared),
		zap.Int("placed", resp.Placed),
		zap.Int("warnings", len(resp.Warnings)),
		zap.Duration("duration", duration))
	return resp, nil
}

func (s *TimetableService) generateLocked(ctx context.Context, term *models.Term, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	input, err := s.loadInput(ctx, term.ID, req.ClearExisting)
	if err != nil {
		return nil, err
	}

	seed := s.resolveSeed(req.Seed)
	engine := newTimetableEngine(s.cfg.Engine, rand.New(rand.NewSource(seed)), s.logger.With(zap.String("term_id", term.ID)))
	result := engine.Run(input)

	cleared, err := s.persist(ctx, term.ID, req.ClearExisting, result.Lessons)
	if err != nil {
		return nil, err
	}

	return &dto.GenerateTimetableResponse{
		TermID:    term.ID,
		TermLabel: term.Label(),
		Seed:      seed,
		Cleared:   cleared,
		Placed:    len(result.Lessons),
		Lessons:   result.Lessons,
		Warnings:  result.Warnings,
	}, nil
}

func (s *TimetableService) resolveTerm(ctx context.Context, termID string) (*models.Term, error) {
	if termID != "" {
		term, err := s.terms.FindByID(ctx, termID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrTermNotFound, "term not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
		}
		return term, nil
	}
	term, err := s.terms.FindLatest(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNoTermAvailable, "no academic term available; create one first")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve latest term")
	}
	return term, nil
}

func (s *TimetableService) resolveSeed(requested *int64) int64 {
	if requested != nil {
		return *requested
	}
	if s.cfg.Seed != 0 {
		return s.cfg.Seed
	}
	return s.now().UnixNano()
}

func (s *TimetableService) loadInput(ctx context.Context, termID string, clearExisting bool) (engineInput, error) {
	in := engineInput{TermID: termID}
	var err error
	if in.Classes, err = s.classes.List(ctx); err != nil {
		return in, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classes")
	}
	if in.Offerings, err = s.subjects.ListOfferings(ctx); err != nil {
		return in, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject offerings")
	}
	if in.Qualified, err = s.subjects.ListQualifiedTeachers(ctx); err != nil {
		return in, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load qualified teachers")
	}
	if in.SubjectClasses, err = s.subjects.ListSubjectClasses(ctx); err != nil {
		return in, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject classes")
	}
	if in.Slots, err = s.slots.List(ctx); err != nil {
		return in, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time slots")
	}
	if !clearExisting {
		if in.Existing, err = s.lessons.ListByTerm(ctx, termID); err != nil {
			return in, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load existing lessons")
		}
	}
	return in, nil
}

func (s *TimetableService) persist(ctx context.Context, termID string, clearExisting bool, lessons []models.Lesson) (cleared int64, err error) {
	if s.tx == nil {
		return 0, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if clearExisting {
		if cleared, err = s.lessons.DeleteByTermWithTx(ctx, tx, termID); err != nil {
			return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear existing lessons")
		}
	}
	if len(lessons) > 0 {
		if err = s.lessons.BulkCreateWithTx(ctx, tx, lessons); err != nil {
			if isUniqueViolation(err) {
				return 0, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "lesson overlaps an existing teacher or class slot")
			}
			return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist lessons")
		}
	}
	if err = tx.Commit(); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit timetable transaction")
	}
	return cleared, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
