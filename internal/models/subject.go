package models

// SubjectOffering is the weekly period quota a subject demands for every class at a level.
// At most one offering exists per (subject, level).
type SubjectOffering struct {
	ID             string `db:"id" json:"id"`
	SubjectID      string `db:"subject_id" json:"subject_id"`
	SubjectName    string `db:"subject_name" json:"subject_name"`
	ClassLevelID   string `db:"class_level_id" json:"class_level_id"`
	PeriodsPerWeek int    `db:"periods_per_week" json:"periods_per_week"`
}

// SubjectTeacher links a subject to a teacher qualified to teach it.
type SubjectTeacher struct {
	SubjectID string `db:"subject_id" json:"subject_id"`
	TeacherID string `db:"teacher_id" json:"teacher_id"`
}

// SubjectClass links a subject to a class it is taught to.
type SubjectClass struct {
	SubjectID   string `db:"subject_id" json:"subject_id"`
	SubjectName string `db:"subject_name" json:"subject_name"`
	ClassID     string `db:"class_id" json:"class_id"`
}
