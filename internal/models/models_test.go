package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseWeekday(t *testing.T) {
	day, ok := ParseWeekday(" wednesday ")
	assert.True(t, ok)
	assert.Equal(t, Wednesday, day)

	_, ok = ParseWeekday("Saturday")
	assert.False(t, ok)
}

func TestTimeSlotIsTeaching(t *testing.T) {
	assert.True(t, TimeSlot{Name: "P1"}.IsTeaching())
	assert.False(t, TimeSlot{Name: "Break", IsBreak: true}.IsTeaching())
	assert.False(t, TimeSlot{Name: "Lunch", IsLunch: true}.IsTeaching())
	assert.False(t, TimeSlot{Name: "Assembly", IsAssembly: true}.IsTeaching())
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "2026 Term 1", Term{Year: 2026, Number: 1}.Label())
	assert.Equal(t, "S2B", SchoolClass{LevelName: "S2", Stream: "B"}.Name())
}
