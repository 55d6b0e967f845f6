package models

import (
	"fmt"
	"time"
)

// Term models an academic term within a school year. (Year, Number) is unique.
type Term struct {
	ID        string    `db:"id" json:"id"`
	Year      int       `db:"year" json:"year"`
	Number    int       `db:"term" json:"term"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Label renders the human name used in logs and CLI output, e.g. "2026 Term 1".
func (t Term) Label() string {
	return fmt.Sprintf("%d Term %d", t.Year, t.Number)
}
