package service

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/confplan/confplan/internal/models"
	"github.com/confplan/confplan/pkg/config"
)

// SkeletonService builds the empty programme grid: every day's time-slots
// with empty parallel session containers, reserved plenary slots, breaks,
// lunch and dinner. No papers, rooms or chairs are assigned here.
type SkeletonService struct {
	logger *zap.Logger
}

// NewSkeletonService wires the skeleton builder.
func NewSkeletonService(logger *zap.Logger) *SkeletonService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SkeletonService{logger: logger}
}

// Build creates a skeleton programme respecting the schedule configuration.
// Session ids are sequential across days (S01, S02, ...) so constraints can
// reference them; plenary sessions get P<day>_<n> ids and are fixed.
func (s *SkeletonService) Build(cfg *config.ScheduleConfig) *models.Program {
	// Section-label constraints pre-fix matching sessions.
	fixedLabels := make(map[string]string)
	for _, c := range cfg.Constraints {
		if c.SubjectType == "section" && c.Op == models.OpEQ && len(c.Value) > 0 {
			fixedLabels[c.SubjectID] = c.Value[0]
		}
	}

	counter := 0
	prog := &models.Program{}
	for day := 1; day <= cfg.NumDays; day++ {
		prog.Days = append(prog.Days, models.DayProgram{
			Day:   day,
			Slots: s.buildDaySlots(cfg, day, fixedLabels, &counter),
		})
	}

	prog.SetMeta("num_days", cfg.NumDays)
	prog.SetMeta("presentation_duration_min", cfg.PresentationDurationMin)
	prog.SetMeta("max_session_duration_min", cfg.MaxSessionDurationMin)
	prog.SetMeta("papers_per_session", cfg.PapersPerSession())
	prog.SetMeta("generated", "skeleton")

	s.logger.Info("skeleton programme built",
		zap.Int("days", cfg.NumDays),
		zap.Int("sessions", counter),
	)
	return prog
}

func (s *SkeletonService) buildDaySlots(cfg *config.ScheduleConfig, day int, fixedLabels map[string]string, counter *int) []models.SlotGroup {
	start := models.ClockMinutes(cfg.EffectiveDayStart(day))
	end := models.ClockMinutes(cfg.EffectiveDayEnd(day))

	plenaries := make([]config.PlenarySlot, 0)
	for _, ps := range cfg.PlenarySlots {
		if ps.Day == day {
			plenaries = append(plenaries, ps)
		}
	}
	sort.SliceStable(plenaries, func(i, j int) bool {
		return models.ClockMinutes(plenaries[i].Start) < models.ClockMinutes(plenaries[j].Start)
	})

	var slots []models.SlotGroup
	cursor := start
	plenaryIdx := 0

	// Breaks and lunch land at conventional clock times, shifted when the
	// day's regular sessions begin late (e.g. after an opening plenary).
	effStart := start
	for _, ps := range plenaries {
		if models.ClockMinutes(ps.Start) <= effStart+cfg.RoomChangePenaltyMin {
			effStart = models.ClockMinutes(ps.End)
		} else {
			break
		}
	}

	canMorning := cfg.MorningBreak && effStart < models.ClockMinutes("10:30")
	morningTarget := end + 1
	if canMorning {
		morningTarget = models.ClockMinutes("10:30")
	}
	lunchTarget := max(models.ClockMinutes("12:00"), effStart+80)
	afternoonTarget := max(models.ClockMinutes("15:00"), lunchTarget+cfg.LunchDurationMin+80)

	placedMorning := !canMorning
	placedLunch := !cfg.LunchIncluded
	placedAfternoon := !cfg.AfternoonBreak

	for cursor+cfg.PresentationDurationMin <= end {
		// A plenary slot that starts here (or within the room-change gap)
		// takes priority over everything else.
		if plenaryIdx < len(plenaries) {
			ps := plenaries[plenaryIdx]
			psStart, psEnd := models.ClockMinutes(ps.Start), models.ClockMinutes(ps.End)
			if psStart <= cursor+cfg.RoomChangePenaltyMin {
				ts := models.TimeSlot{
					Start: models.FormatClock(psStart),
					End:   models.FormatClock(psEnd),
					Kind:  models.SlotPlenary,
					Label: ps.Label,
					Day:   day,
				}
				sess := &models.Session{
					SessionID: fmt.Sprintf("P%d_%d", day, plenaryIdx+1),
					Day:       day,
					TimeSlot:  &ts,
					Label:     ps.Label,
					IsFixed:   true,
				}
				slots = append(slots, models.SlotGroup{TimeSlot: ts, Sessions: []*models.Session{sess}})
				cursor = psEnd
				plenaryIdx++
				continue
			}
		}

		if !placedMorning && cursor >= morningTarget {
			slots = append(slots, breakSlot(cursor, cfg.BreakDurationMin, models.SlotBreak, "Morning Break", day))
			cursor += cfg.BreakDurationMin
			placedMorning = true
			continue
		}

		if !placedLunch && cursor >= lunchTarget {
			slots = append(slots, breakSlot(cursor, cfg.LunchDurationMin, models.SlotLunch, "Lunch", day))
			cursor += cfg.LunchDurationMin
			placedLunch = true
			continue
		}

		if !placedAfternoon && cursor >= afternoonTarget {
			slots = append(slots, breakSlot(cursor, cfg.BreakDurationMin, models.SlotBreak, "Afternoon Break", day))
			cursor += cfg.BreakDurationMin
			placedAfternoon = true
			continue
		}

		sessEnd := min(cursor+cfg.MaxSessionDurationMin, end)
		// Never overshoot into the next plenary.
		if plenaryIdx < len(plenaries) {
			sessEnd = min(sessEnd, models.ClockMinutes(plenaries[plenaryIdx].Start))
		}
		if sessEnd-cursor < cfg.PresentationDurationMin {
			cursor = sessEnd
			continue
		}

		ts := models.TimeSlot{
			Start: models.FormatClock(cursor),
			End:   models.FormatClock(sessEnd),
			Kind:  models.SlotSession,
			Day:   day,
		}
		roomsThisDay := min(cfg.NumAvailableRooms, cfg.MaxRoomsPerDay)
		sessions := make([]*models.Session, 0, roomsThisDay)
		for r := 0; r < roomsThisDay; r++ {
			*counter++
			sid := fmt.Sprintf("S%02d", *counter)
			label, pinned := fixedLabels[sid]
			sessions = append(sessions, &models.Session{
				SessionID: sid,
				Day:       day,
				TimeSlot:  &ts,
				Label:     label,
				IsFixed:   pinned,
			})
		}
		slots = append(slots, models.SlotGroup{TimeSlot: ts, Sessions: sessions})
		cursor = sessEnd
	}

	if cfg.DinnerIncluded {
		dinnerStart := models.ClockMinutes(cfg.DinnerStart)
		slots = append(slots, models.SlotGroup{
			TimeSlot: models.TimeSlot{
				Start: models.FormatClock(dinnerStart),
				End:   models.FormatClock(dinnerStart + 120),
				Kind:  models.SlotDinner,
				Label: "Conference Dinner",
				Day:   day,
			},
		})
	}

	return slots
}

func breakSlot(cursor, duration int, kind models.SlotKind, label string, day int) models.SlotGroup {
	return models.SlotGroup{
		TimeSlot: models.TimeSlot{
			Start: models.FormatClock(cursor),
			End:   models.FormatClock(cursor + duration),
			Kind:  kind,
			Label: label,
			Day:   day,
		},
	}
}
