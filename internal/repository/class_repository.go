package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-planner/internal/models"
)

// ClassRepository reads school classes together with their level.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository creates a new repository instance.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// List returns every class in a stable order: level name, stream, id.
func (r *ClassRepository) List(ctx context.Context) ([]models.SchoolClass, error) {
	const query = `SELECT c.id, c.school_id, c.class_level_id, l.name AS level_name, c.stream, c.created_at
FROM school_classes c
JOIN class_levels l ON l.id = c.class_level_id
ORDER BY l.name ASC, c.stream ASC, c.id ASC`
	var classes []models.SchoolClass
	if err := r.db.SelectContext(ctx, &classes, query); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}
