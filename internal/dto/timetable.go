package dto

import (
	"time"

	"github.com/noah-isme/timetable-planner/internal/models"
)

// Warning types reported by a generation run. None of them abort the run.
const (
	WarningMissingQualifiedTeacher = "MISSING_QUALIFIED_TEACHER"
	WarningMissingOffering         = "MISSING_OFFERING"
	WarningUnmetQuota              = "UNMET_QUOTA"
)

// GenerateTimetableRequest triggers timetable generation for a term. An empty TermID
// targets the latest term.
type GenerateTimetableRequest struct {
	TermID        string `json:"termId" validate:"omitempty,max=64"`
	ClearExisting bool   `json:"clearExisting"`
	Seed          *int64 `json:"seed,omitempty"`
	Async         bool   `json:"async"`
}

// GenerationWarning captures a skipped or under-placed class/subject combination.
type GenerationWarning struct {
	Type    string         `json:"type"`
	Message string         `json:"message"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// GenerateTimetableResponse summarises a completed generation run.
type GenerateTimetableResponse struct {
	TermID    string              `json:"termId"`
	TermLabel string              `json:"termLabel"`
	Seed      int64               `json:"seed"`
	Cleared   int64               `json:"cleared"`
	Placed    int                 `json:"placed"`
	Lessons   []models.Lesson     `json:"lessons"`
	Warnings  []GenerationWarning `json:"warnings"`
}

// GenerationRunStatus tracks asynchronous generation runs.
type GenerationRunStatus string

const (
	GenerationRunQueued    GenerationRunStatus = "QUEUED"
	GenerationRunRunning   GenerationRunStatus = "RUNNING"
	GenerationRunSucceeded GenerationRunStatus = "SUCCEEDED"
	GenerationRunFailed    GenerationRunStatus = "FAILED"
)

// GenerationRun is the externally visible state of an asynchronous run.
type GenerationRun struct {
	ID          string                     `json:"id"`
	Status      GenerationRunStatus        `json:"status"`
	Request     GenerateTimetableRequest   `json:"request"`
	Result      *GenerateTimetableResponse `json:"result,omitempty"`
	Error       string                     `json:"error,omitempty"`
	Attempts    int                        `json:"attempts"`
	RequestedAt time.Time                  `json:"requestedAt"`
	FinishedAt  *time.Time                 `json:"finishedAt,omitempty"`
}

// WorkloadQuery selects the term to aggregate.
type WorkloadQuery struct {
	TermID string `json:"termId" validate:"required,max=64"`
}

// WorkloadResponse lists teacher period counts for a term, busiest first.
type WorkloadResponse struct {
	TermID   string                   `json:"termId"`
	Teachers []models.TeacherWorkload `json:"teachers"`
	Total    int                      `json:"total"`
}
