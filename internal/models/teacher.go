package models

// TeacherWorkload is the committed period count for one teacher within a term.
type TeacherWorkload struct {
	TeacherID   string `db:"teacher_id" json:"teacher_id"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
	Periods     int    `db:"periods" json:"periods"`
}
