package service

import (
	"fmt"
	"math/rand"
	"slices"
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-planner/internal/dto"
	"github.com/noah-isme/timetable-planner/internal/models"
)

// DefaultMaxPerDay caps the periods a class receives for one subject on one day.
const DefaultMaxPerDay = 2

// EngineConfig bounds lesson placement.
type EngineConfig struct {
	MaxPerDay int
	Days      []models.Weekday
}

func (c EngineConfig) normalized() EngineConfig {
	if c.MaxPerDay <= 0 {
		c.MaxPerDay = DefaultMaxPerDay
	}
	if len(c.Days) == 0 {
		c.Days = append([]models.Weekday(nil), models.SchoolWeek...)
	}
	return c
}

// NewEngineConfig parses configured weekday names. Unknown or repeated days are rejected.
func NewEngineConfig(maxPerDay int, days []string) (EngineConfig, error) {
	cfg := EngineConfig{MaxPerDay: maxPerDay}
	seen := make(map[models.Weekday]struct{}, len(days))
	for _, raw := range days {
		day, ok := models.ParseWeekday(raw)
		if !ok {
			return EngineConfig{}, fmt.Errorf("unknown school day %q", raw)
		}
		if _, dup := seen[day]; dup {
			return EngineConfig{}, fmt.Errorf("school day %q listed twice", raw)
		}
		seen[day] = struct{}{}
		cfg.Days = append(cfg.Days, day)
	}
	return cfg.normalized(), nil
}

// engineInput is the read model of one generation run.
type engineInput struct {
	TermID         string
	Classes        []models.SchoolClass
	Offerings      []models.SubjectOffering
	Qualified      []models.SubjectTeacher
	SubjectClasses []models.SubjectClass
	Slots          []models.TimeSlot
	// Existing lessons of the term stay in place and occupy the tracker.
	Existing []models.Lesson
}

type engineResult struct {
	Lessons  []models.Lesson
	Warnings []dto.GenerationWarning
}

// timetableEngine is a single-pass greedy placer with randomized tie-breaking. It is not
// safe for concurrent use; every run gets its own engine and random source.
type timetableEngine struct {
	cfg    EngineConfig
	rng    *rand.Rand
	logger *zap.Logger
}

func newTimetableEngine(cfg EngineConfig, rng *rand.Rand, logger *zap.Logger) *timetableEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &timetableEngine{cfg: cfg.normalized(), rng: rng, logger: logger}
}

func (e *timetableEngine) Run(in engineInput) engineResult {
	catalog := newSlotCatalog(in.Slots)
	tracker := newAvailabilityTracker()
	demand := newDemandModel(in.Offerings)
	assigned := make(map[classSubject]string)
	for _, lesson := range in.Existing {
		tracker.Commit(lesson.TeacherID, lesson.ClassID, lesson.Day, lesson.TimeSlotID)
		demand.Record(lesson.ClassID, lesson.SubjectID, lesson.Day)
		// Lowest id wins when stored lessons already disagree, so storage order does not matter.
		key := classSubject{classID: lesson.ClassID, subjectID: lesson.SubjectID}
		if current, ok := assigned[key]; !ok || lesson.TeacherID < current {
			assigned[key] = lesson.TeacherID
		}
	}

	teachers := groupQualifiedTeachers(in.Qualified)
	linked := groupSubjectClasses(in.SubjectClasses)

	classes := append([]models.SchoolClass(nil), in.Classes...)
	sort.SliceStable(classes, func(i, j int) bool {
		if classes[i].LevelName != classes[j].LevelName {
			return classes[i].LevelName < classes[j].LevelName
		}
		if classes[i].Stream != classes[j].Stream {
			return classes[i].Stream < classes[j].Stream
		}
		return classes[i].ID < classes[j].ID
	})

	res := engineResult{Lessons: []models.Lesson{}, Warnings: []dto.GenerationWarning{}}
	for _, class := range classes {
		offerings := demand.OfferingsFor(class.LevelID)
		if len(offerings) == 0 {
			res.Warnings = append(res.Warnings, dto.GenerationWarning{
				Type:    dto.WarningMissingOffering,
				Message: fmt.Sprintf("no subject offerings for level of class %s", class.Name()),
				Meta:    map[string]any{"classId": class.ID, "className": class.Name(), "classLevelId": class.LevelID},
			})
			e.logger.Warn("no subject offerings for class level",
				zap.String("class_id", class.ID),
				zap.String("class_level_id", class.LevelID))
			continue
		}
		for _, link := range linked[class.ID] {
			if _, ok := demand.PeriodsPerWeek(class, link.SubjectID); ok {
				continue
			}
			res.Warnings = append(res.Warnings, dto.GenerationWarning{
				Type:    dto.WarningMissingOffering,
				Message: fmt.Sprintf("%s is taught to %s but has no offering for its level", link.SubjectName, class.Name()),
				Meta:    map[string]any{"classId": class.ID, "className": class.Name(), "subjectId": link.SubjectID, "subjectName": link.SubjectName},
			})
			e.logger.Warn("subject has no offering for class level",
				zap.String("class_id", class.ID),
				zap.String("subject_id", link.SubjectID))
		}
		for _, offering := range offerings {
			current := assigned[classSubject{classID: class.ID, subjectID: offering.SubjectID}]
			e.placeOffering(in.TermID, class, offering, teachers[offering.SubjectID], current, catalog, tracker, demand, &res)
		}
	}
	return res
}

func (e *timetableEngine) placeOffering(
	termID string,
	class models.SchoolClass,
	offering models.SubjectOffering,
	qualified []string,
	current string,
	catalog *slotCatalog,
	tracker *availabilityTracker,
	demand *demandModel,
	res *engineResult,
) {
	if len(qualified) == 0 {
		res.Warnings = append(res.Warnings, dto.GenerationWarning{
			Type:    dto.WarningMissingQualifiedTeacher,
			Message: fmt.Sprintf("no qualified teacher for %s in %s", offering.SubjectName, class.Name()),
			Meta:    map[string]any{"classId": class.ID, "className": class.Name(), "subjectId": offering.SubjectID, "subjectName": offering.SubjectName},
		})
		e.logger.Warn("no qualified teacher for subject",
			zap.String("class_id", class.ID),
			zap.String("subject_id", offering.SubjectID))
		return
	}

	left := demand.Open(class, offering.SubjectID)
	if left == 0 {
		return
	}
	teacherID := current
	if teacherID == "" {
		teacherID = qualified[e.rng.Intn(len(qualified))]
	} else if !slices.Contains(qualified, teacherID) {
		res.Warnings = append(res.Warnings, dto.GenerationWarning{
			Type:    dto.WarningMissingQualifiedTeacher,
			Message: fmt.Sprintf("assigned teacher is no longer qualified for %s in %s", offering.SubjectName, class.Name()),
			Meta: map[string]any{
				"classId":     class.ID,
				"className":   class.Name(),
				"subjectId":   offering.SubjectID,
				"subjectName": offering.SubjectName,
				"teacherId":   teacherID,
				"remaining":   left,
			},
		})
		e.logger.Warn("assigned teacher no longer qualified",
			zap.String("class_id", class.ID),
			zap.String("subject_id", offering.SubjectID),
			zap.String("teacher_id", teacherID),
			zap.Int("remaining", left))
		return
	}

	maxPerDay := e.cfg.MaxPerDay
	daysNeeded := (left + maxPerDay - 1) / maxPerDay
	order := e.rng.Perm(len(e.cfg.Days))[:min(daysNeeded, len(e.cfg.Days))]

	for _, idx := range order {
		if demand.Remaining(class.ID, offering.SubjectID) == 0 {
			break
		}
		day := e.cfg.Days[idx]
		today := min(maxPerDay, demand.Remaining(class.ID, offering.SubjectID))

		free := make([]models.TimeSlot, 0, len(catalog.TeachingSlots()))
		for _, slot := range catalog.TeachingSlots() {
			if tracker.IsFree(teacherID, class.ID, day, slot.ID) {
				free = append(free, slot)
			}
		}
		e.rng.Shuffle(len(free), func(i, j int) { free[i], free[j] = free[j], free[i] })

		for _, slot := range free {
			if today == 0 || demand.PlacedOn(class.ID, offering.SubjectID, day) >= maxPerDay {
				break
			}
			tracker.Commit(teacherID, class.ID, day, slot.ID)
			demand.Record(class.ID, offering.SubjectID, day)
			res.Lessons = append(res.Lessons, models.Lesson{
				TermID:     termID,
				ClassID:    class.ID,
				SubjectID:  offering.SubjectID,
				TeacherID:  teacherID,
				Day:        day,
				TimeSlotID: slot.ID,
			})
			today--
		}
	}

	if remaining := demand.Remaining(class.ID, offering.SubjectID); remaining > 0 {
		res.Warnings = append(res.Warnings, dto.GenerationWarning{
			Type:    dto.WarningUnmetQuota,
			Message: fmt.Sprintf("could not place all periods for %s in %s: %d remaining", offering.SubjectName, class.Name(), remaining),
			Meta: map[string]any{
				"classId":     class.ID,
				"className":   class.Name(),
				"subjectId":   offering.SubjectID,
				"subjectName": offering.SubjectName,
				"teacherId":   teacherID,
				"required":    offering.PeriodsPerWeek,
				"remaining":   remaining,
			},
		})
		e.logger.Warn("could not place all periods",
			zap.String("class_id", class.ID),
			zap.String("subject_id", offering.SubjectID),
			zap.Int("remaining", remaining))
	}
}

func groupQualifiedTeachers(links []models.SubjectTeacher) map[string][]string {
	grouped := make(map[string][]string)
	seen := make(map[models.SubjectTeacher]bool, len(links))
	for _, link := range links {
		if seen[link] {
			continue
		}
		seen[link] = true
		grouped[link.SubjectID] = append(grouped[link.SubjectID], link.TeacherID)
	}
	for subject := range grouped {
		sort.Strings(grouped[subject])
	}
	return grouped
}

func groupSubjectClasses(links []models.SubjectClass) map[string][]models.SubjectClass {
	grouped := make(map[string][]models.SubjectClass)
	for _, link := range links {
		grouped[link.ClassID] = append(grouped[link.ClassID], link)
	}
	for classID := range grouped {
		list := grouped[classID]
		sort.SliceStable(list, func(i, j int) bool { return list[i].SubjectID < list[j].SubjectID })
	}
	return grouped
}
