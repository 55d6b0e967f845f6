package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-planner/internal/models"
)

// SubjectRepository exposes subject offerings and the subject link tables.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a new repository instance.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// ListOfferings returns every offering with its subject name.
func (r *SubjectRepository) ListOfferings(ctx context.Context) ([]models.SubjectOffering, error) {
	const query = `SELECT o.id, o.subject_id, s.name AS subject_name, o.class_level_id, o.periods_per_week
FROM subject_offerings o
JOIN subjects s ON s.id = o.subject_id
ORDER BY o.class_level_id ASC, o.subject_id ASC`
	var offerings []models.SubjectOffering
	if err := r.db.SelectContext(ctx, &offerings, query); err != nil {
		return nil, fmt.Errorf("list subject offerings: %w", err)
	}
	return offerings, nil
}

// ListQualifiedTeachers returns the subject to teacher qualification pairs.
func (r *SubjectRepository) ListQualifiedTeachers(ctx context.Context) ([]models.SubjectTeacher, error) {
	const query = `SELECT subject_id, teacher_id FROM subject_teachers ORDER BY subject_id ASC, teacher_id ASC`
	var links []models.SubjectTeacher
	if err := r.db.SelectContext(ctx, &links, query); err != nil {
		return nil, fmt.Errorf("list subject teachers: %w", err)
	}
	return links, nil
}

// ListSubjectClasses returns the subject to class links with the subject name.
func (r *SubjectRepository) ListSubjectClasses(ctx context.Context) ([]models.SubjectClass, error) {
	const query = `SELECT sc.subject_id, s.name AS subject_name, sc.class_id
FROM subject_classes sc
JOIN subjects s ON s.id = sc.subject_id
ORDER BY sc.class_id ASC, sc.subject_id ASC`
	var links []models.SubjectClass
	if err := r.db.SelectContext(ctx, &links, query); err != nil {
		return nil, fmt.Errorf("list subject classes: %w", err)
	}
	return links, nil
}
