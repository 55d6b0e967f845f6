package models

import (
	"strings"
	"time"
)

// Weekday names a teaching day. Values match the persisted column.
type Weekday string

const (
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
)

// SchoolWeek lists the teaching days in calendar order.
var SchoolWeek = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday}

// ParseWeekday matches a day name case-insensitively.
func ParseWeekday(raw string) (Weekday, bool) {
	raw = strings.TrimSpace(raw)
	for _, day := range SchoolWeek {
		if strings.EqualFold(string(day), raw) {
			return day, true
		}
	}
	return "", false
}

// Lesson is one committed weekly period: a class is taught a subject by a teacher at a
// day and slot within a term. No two lessons share (teacher, day, slot, term) or
// (class, day, slot, term).
type Lesson struct {
	ID         string    `db:"id" json:"id"`
	TermID     string    `db:"term_id" json:"term_id"`
	ClassID    string    `db:"class_id" json:"class_id"`
	SubjectID  string    `db:"subject_id" json:"subject_id"`
	TeacherID  string    `db:"teacher_id" json:"teacher_id"`
	Day        Weekday   `db:"day" json:"day"`
	TimeSlotID string    `db:"time_slot_id" json:"time_slot_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
