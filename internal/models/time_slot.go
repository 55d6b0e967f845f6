package models

// TimeSlot is a named period of the school day. Slots are ordered by start time;
// teaching slots carry none of the break, lunch or assembly flags.
type TimeSlot struct {
	ID         string `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	StartTime  string `db:"start_time" json:"start_time"`
	EndTime    string `db:"end_time" json:"end_time"`
	IsBreak    bool   `db:"is_break" json:"is_break"`
	IsLunch    bool   `db:"is_lunch" json:"is_lunch"`
	IsAssembly bool   `db:"is_assembly" json:"is_assembly"`
}

// IsTeaching reports whether lessons may be placed in the slot.
func (s TimeSlot) IsTeaching() bool {
	return !s.IsBreak && !s.IsLunch && !s.IsAssembly
}
