package service

import (
	"sort"

	"github.com/noah-isme/timetable-planner/internal/models"
)

// slotCatalog holds the teaching slots of a day, ordered by start time.
type slotCatalog struct {
	slots []models.TimeSlot
}

func newSlotCatalog(all []models.TimeSlot) *slotCatalog {
	teaching := make([]models.TimeSlot, 0, len(all))
	for _, slot := range all {
		if slot.IsTeaching() {
			teaching = append(teaching, slot)
		}
	}
	sort.SliceStable(teaching, func(i, j int) bool {
		if teaching[i].StartTime == teaching[j].StartTime {
			return teaching[i].ID < teaching[j].ID
		}
		return teaching[i].StartTime < teaching[j].StartTime
	})
	return &slotCatalog{slots: teaching}
}

// TeachingSlots returns the catalog slots. Callers must not mutate the slice.
func (c *slotCatalog) TeachingSlots() []models.TimeSlot {
	return c.slots
}

type daySlot struct {
	day    models.Weekday
	slotID string
}

// availabilityTracker records the (day, slot) pairs committed per teacher and per class
// during one generation run.
type availabilityTracker struct {
	teacherBusy map[string]map[daySlot]struct{}
	classBusy   map[string]map[daySlot]struct{}
}

func newAvailabilityTracker() *availabilityTracker {
	return &availabilityTracker{
		teacherBusy: make(map[string]map[daySlot]struct{}),
		classBusy:   make(map[string]map[daySlot]struct{}),
	}
}

// IsFree reports whether neither the teacher nor the class holds the slot on that day.
func (t *availabilityTracker) IsFree(teacherID, classID string, day models.Weekday, slotID string) bool {
	key := daySlot{day: day, slotID: slotID}
	if _, busy := t.teacherBusy[teacherID][key]; busy {
		return false
	}
	if _, busy := t.classBusy[classID][key]; busy {
		return false
	}
	return true
}

// Commit marks the slot busy for both teacher and class.
func (t *availabilityTracker) Commit(teacherID, classID string, day models.Weekday, slotID string) {
	key := daySlot{day: day, slotID: slotID}
	markBusy(t.teacherBusy, teacherID, key)
	markBusy(t.classBusy, classID, key)
}

func markBusy(index map[string]map[daySlot]struct{}, owner string, key daySlot) {
	set, ok := index[owner]
	if !ok {
		set = make(map[daySlot]struct{})
		index[owner] = set
	}
	set[key] = struct{}{}
}

type classSubject struct {
	classID   string
	subjectID string
}

type classSubjectDay struct {
	classSubject
	day models.Weekday
}

// demandModel resolves weekly quotas per (class, subject) from the level offerings and
// tracks what is still left to place.
type demandModel struct {
	byLevel   map[string][]models.SubjectOffering
	placed    map[classSubject]int
	perDay    map[classSubjectDay]int
	remaining map[classSubject]int
}

func newDemandModel(offerings []models.SubjectOffering) *demandModel {
	byLevel := make(map[string][]models.SubjectOffering)
	for _, offering := range offerings {
		byLevel[offering.ClassLevelID] = append(byLevel[offering.ClassLevelID], offering)
	}
	for level := range byLevel {
		list := byLevel[level]
		sort.SliceStable(list, func(i, j int) bool { return list[i].SubjectID < list[j].SubjectID })
	}
	return &demandModel{
		byLevel:   byLevel,
		placed:    make(map[classSubject]int),
		perDay:    make(map[classSubjectDay]int),
		remaining: make(map[classSubject]int),
	}
}

// OfferingsFor lists the offerings of a class level ordered by subject id.
func (d *demandModel) OfferingsFor(levelID string) []models.SubjectOffering {
	return d.byLevel[levelID]
}

// PeriodsPerWeek returns the quota for a class and subject; ok is false when the class
// level has no offering for the subject.
func (d *demandModel) PeriodsPerWeek(class models.SchoolClass, subjectID string) (int, bool) {
	for _, offering := range d.byLevel[class.LevelID] {
		if offering.SubjectID == subjectID {
			return offering.PeriodsPerWeek, true
		}
	}
	return 0, false
}

// Open starts tracking a (class, subject) pair and returns the periods still to place,
// net of lessons already committed for the pair.
func (d *demandModel) Open(class models.SchoolClass, subjectID string) int {
	periods, _ := d.PeriodsPerWeek(class, subjectID)
	key := classSubject{classID: class.ID, subjectID: subjectID}
	left := periods - d.placed[key]
	if left < 0 {
		left = 0
	}
	d.remaining[key] = left
	return left
}

// Remaining reports the periods still to place for the pair.
func (d *demandModel) Remaining(classID, subjectID string) int {
	return d.remaining[classSubject{classID: classID, subjectID: subjectID}]
}

// PlacedOn counts committed lessons for the pair on a day.
func (d *demandModel) PlacedOn(classID, subjectID string, day models.Weekday) int {
	return d.perDay[classSubjectDay{classSubject: classSubject{classID: classID, subjectID: subjectID}, day: day}]
}

// Record accounts for one committed lesson.
func (d *demandModel) Record(classID, subjectID string, day models.Weekday) {
	key := classSubject{classID: classID, subjectID: subjectID}
	d.placed[key]++
	d.perDay[classSubjectDay{classSubject: key, day: day}]++
	if d.remaining[key] > 0 {
		d.remaining[key]--
	}
}
