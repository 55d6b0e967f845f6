package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-planner/internal/models"
)

// LessonRepository persists generated lessons and aggregates them.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository creates a new repository instance.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

// ListByTerm returns the lessons committed for a term.
func (r *LessonRepository) ListByTerm(ctx context.Context, termID string) ([]models.Lesson, error) {
	const query = `SELECT id, term_id, class_id, subject_id, teacher_id, day, time_slot_id, created_at
FROM lessons WHERE term_id = $1 ORDER BY class_id ASC, day ASC, time_slot_id ASC`
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, termID); err != nil {
		return nil, fmt.Errorf("list lessons by term: %w", err)
	}
	return lessons, nil
}

// DeleteByTermWithTx wipes a term's lessons inside an existing transaction.
func (r *LessonRepository) DeleteByTermWithTx(ctx context.Context, tx *sqlx.Tx, termID string) (int64, error) {
	if tx == nil {
		return 0, fmt.Errorf("nil transaction provided")
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM lessons WHERE term_id = $1`, termID)
	if err != nil {
		return 0, fmt.Errorf("delete lessons by term: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete lessons rows affected: %w", err)
	}
	return affected, nil
}

// BulkCreateWithTx inserts lessons using an existing transaction. Missing ids and
// timestamps are filled in place.
func (r *LessonRepository) BulkCreateWithTx(ctx context.Context, tx *sqlx.Tx, lessons []models.Lesson) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	now := time.Now().UTC()
	for i := range lessons {
		payload := &lessons[i]
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		if payload.CreatedAt.IsZero() {
			payload.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, tx, `INSERT INTO lessons (id, term_id, class_id, subject_id, teacher_id, day, time_slot_id, created_at) VALUES (:id, :term_id, :class_id, :subject_id, :teacher_id, :day, :time_slot_id, :created_at)`, payload); err != nil {
			return fmt.Errorf("bulk insert lesson: %w", err)
		}
	}
	return nil
}

// Workload groups a term's lessons by teacher, busiest first, ties by teacher id.
func (r *LessonRepository) Workload(ctx context.Context, termID string) ([]models.TeacherWorkload, error) {
	const query = `SELECT l.teacher_id, t.name AS teacher_name, COUNT(*) AS periods
FROM lessons l
JOIN teachers t ON t.id = l.teacher_id
WHERE l.term_id = $1
GROUP BY l.teacher_id, t.name
ORDER BY periods DESC, l.teacher_id ASC`
	var rows []models.TeacherWorkload
	if err := r.db.SelectContext(ctx, &rows, query, termID); err != nil {
		return nil, fmt.Errorf("teacher workload: %w", err)
	}
	return rows, nil
}
