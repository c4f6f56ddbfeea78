package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/confplan/confplan/internal/models"
	"github.com/confplan/confplan/pkg/config"
)

func TestSkeletonBuildShape(t *testing.T) {
	cfg := config.DefaultScheduleConfig()
	prog := NewSkeletonService(zap.NewNop()).Build(cfg)

	require.Len(t, prog.Days, cfg.NumDays)
	sessions := prog.Sessions()
	require.NotEmpty(t, sessions)

	// Session ids are sequential across the whole programme.
	for i, sess := range sessions {
		assert.Equal(t, fmt.Sprintf("S%02d", i+1), sess.SessionID)
		assert.False(t, sess.IsFixed)
		require.NotNil(t, sess.TimeSlot)
		assert.Empty(t, sess.Papers)
	}

	// Every session slot runs the configured number of parallel sessions.
	for _, day := range prog.Days {
		for _, slot := range day.Slots {
			if slot.TimeSlot.Kind == models.SlotSession {
				assert.Len(t, slot.Sessions, cfg.MaxRoomsPerDay)
			}
		}
	}

	assert.Equal(t, "skeleton", prog.Metadata["generated"])
}

func TestSkeletonBreaksAndLunchPresent(t *testing.T) {
	cfg := config.DefaultScheduleConfig()
	prog := NewSkeletonService(zap.NewNop()).Build(cfg)

	day := prog.Days[0]
	var kinds []models.SlotKind
	for _, slot := range day.Slots {
		kinds = append(kinds, slot.TimeSlot.Kind)
	}
	assert.Contains(t, kinds, models.SlotBreak)
	assert.Contains(t, kinds, models.SlotLunch)
	assert.NotContains(t, kinds, models.SlotDinner, "dinner is off by default")

	// Lunch lands at or after noon.
	for _, slot := range day.Slots {
		if slot.TimeSlot.Kind == models.SlotLunch {
			assert.GreaterOrEqual(t, models.ClockMinutes(slot.TimeSlot.Start), models.ClockMinutes("12:00"))
		}
	}
}

func TestSkeletonSlotsAreChronological(t *testing.T) {
	cfg := config.DefaultScheduleConfig()
	prog := NewSkeletonService(zap.NewNop()).Build(cfg)

	for _, day := range prog.Days {
		cursor := 0
		for _, slot := range day.Slots {
			start := models.ClockMinutes(slot.TimeSlot.Start)
			end := models.ClockMinutes(slot.TimeSlot.End)
			assert.GreaterOrEqual(t, start, cursor)
			assert.Greater(t, end, start)
			cursor = end
		}
	}
}

func TestSkeletonReservedPlenarySlot(t *testing.T) {
	cfg := config.DefaultScheduleConfig()
	cfg.PlenarySlots = []config.PlenarySlot{
		{Label: "Opening Keynote", Day: 1, Start: "09:00", End: "10:00"},
	}
	prog := NewSkeletonService(zap.NewNop()).Build(cfg)

	first := prog.Days[0].Slots[0]
	require.Equal(t, models.SlotPlenary, first.TimeSlot.Kind)
	assert.Equal(t, "Opening Keynote", first.TimeSlot.Label)
	require.Len(t, first.Sessions, 1)
	assert.Equal(t, "P1_1", first.Sessions[0].SessionID)
	assert.True(t, first.Sessions[0].IsFixed)

	// Plenary sessions never appear among assignable sessions.
	for _, sess := range prog.Sessions() {
		assert.NotEqual(t, "P1_1", sess.SessionID)
	}

	// Regular sessions resume after the plenary.
	second := prog.Days[0].Slots[1]
	assert.GreaterOrEqual(t, models.ClockMinutes(second.TimeSlot.Start), models.ClockMinutes("10:00"))
}

func TestSkeletonDinnerSlot(t *testing.T) {
	cfg := config.DefaultScheduleConfig()
	cfg.DinnerIncluded = true
	cfg.DinnerStart = "19:00"
	prog := NewSkeletonService(zap.NewNop()).Build(cfg)

	last := prog.Days[0].Slots[len(prog.Days[0].Slots)-1]
	assert.Equal(t, models.SlotDinner, last.TimeSlot.Kind)
	assert.Equal(t, "19:00", last.TimeSlot.Start)
}

func TestSkeletonSectionLabelPreFixesSession(t *testing.T) {
	cfg := config.DefaultScheduleConfig()
	con, err := models.ParseConstraint(`section_S01 = "Industry Track"`, "C001")
	require.NoError(t, err)
	cfg.Constraints = []models.Constraint{con}

	prog := NewSkeletonService(zap.NewNop()).Build(cfg)
	sessions := prog.Sessions()
	require.NotEmpty(t, sessions)
	assert.Equal(t, "Industry Track", sessions[0].Label)
	assert.True(t, sessions[0].IsFixed)
	assert.False(t, sessions[1].IsFixed)
}

func TestSkeletonFirstDayStartOverride(t *testing.T) {
	cfg := config.DefaultScheduleConfig()
	cfg.FirstDayStart = "13:00"
	prog := NewSkeletonService(zap.NewNop()).Build(cfg)

	firstDay := prog.Days[0]
	assert.GreaterOrEqual(t, models.ClockMinutes(firstDay.Slots[0].TimeSlot.Start), models.ClockMinutes("13:00"))

	secondDay := prog.Days[1]
	assert.Equal(t, "09:00", secondDay.Slots[0].TimeSlot.Start)
}
