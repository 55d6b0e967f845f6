package models

import "time"

// SchoolClass is a (level, stream) pair and the unit that receives a timetable.
type SchoolClass struct {
	ID        string    `db:"id" json:"id"`
	SchoolID  string    `db:"school_id" json:"school_id"`
	LevelID   string    `db:"class_level_id" json:"class_level_id"`
	LevelName string    `db:"level_name" json:"level_name"`
	Stream    string    `db:"stream" json:"stream"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Name joins level and stream, e.g. "S1A".
func (c SchoolClass) Name() string {
	return c.LevelName + c.Stream
}
