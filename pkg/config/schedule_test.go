package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confplan/confplan/pkg/errors"
)

func writeJSON(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDefaultScheduleConfig(t *testing.T) {
	cfg := DefaultScheduleConfig()
	assert.Equal(t, 3, cfg.NumDays)
	assert.Equal(t, 4, cfg.PapersPerSession())
	assert.True(t, cfg.LunchIncluded)
	assert.False(t, cfg.DinnerIncluded)
	require.NoError(t, cfg.Validate(validator.New()))
}

func TestScheduleValidateRejectsBadValues(t *testing.T) {
	cfg := DefaultScheduleConfig()
	cfg.MergeThreshold = 1.5
	assert.Error(t, cfg.Validate(nil))

	cfg = DefaultScheduleConfig()
	cfg.NumDays = 0
	assert.Error(t, cfg.Validate(nil))

	cfg = DefaultScheduleConfig()
	cfg.PlenarySlots = []PlenarySlot{{Day: 1, Start: "09:00", End: "09:30"}}
	assert.Error(t, cfg.Validate(nil), "plenary slots need a label")
}

func TestEffectiveDayTimes(t *testing.T) {
	cfg := DefaultScheduleConfig()
	cfg.FirstDayStart = "13:00"
	cfg.LastDayEnd = "15:00"

	assert.Equal(t, "13:00", cfg.EffectiveDayStart(1))
	assert.Equal(t, "09:00", cfg.EffectiveDayStart(2))
	assert.Equal(t, "17:30", cfg.EffectiveDayEnd(1))
	assert.Equal(t, "15:00", cfg.EffectiveDayEnd(cfg.NumDays))
}

func TestScheduleSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.json")

	cfg := DefaultScheduleConfig()
	cfg.NumDays = 2
	cfg.FirstDayStart = "13:00"
	cfg.PlenarySlots = []PlenarySlot{{Label: "Opening", Day: 1, Start: "13:00", End: "13:30", Room: "Aula"}}
	_, err := cfg.AddConstraint("paper_1 = day_2")
	require.NoError(t, err)
	_, err = cfg.AddConstraint("paper_3 < paper_4")
	require.NoError(t, err)

	require.NoError(t, SaveSchedule(cfg, path))

	got, err := LoadSchedule(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, got.NumDays)
	assert.Equal(t, "13:00", got.FirstDayStart)
	assert.Equal(t, cfg.PlenarySlots, got.PlenarySlots)
	require.Len(t, got.Constraints, 2)
	assert.Equal(t, "C001", got.Constraints[0].CID)
	assert.Equal(t, "paper_1 = day_2", got.Constraints[0].Text())
	assert.Equal(t, "paper_3 < paper_4", got.Constraints[1].Text())
}

func TestLoadScheduleFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.json")
	writeJSON(t, path, `{"num_days": 4}`)

	got, err := LoadSchedule(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, got.NumDays)
	assert.Equal(t, 90, got.MaxSessionDurationMin, "absent fields keep their defaults")
	assert.Equal(t, "09:00", got.DayStart)
}

func TestLoadScheduleRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.json")
	writeJSON(t, path, `{"num_days": 0, "presentation_duration_min": 2}`)

	_, err := LoadSchedule(path, nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrValidation, errors.FromError(err).Code)
}

func TestLoadScheduleReportsBadConstraintLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.json")
	writeJSON(t, path, `{"num_days": 2, "constraints": ["paper_1 = day_1", "this is nonsense"]}`)

	var bad []string
	got, err := LoadSchedule(path, func(line string, err error) { bad = append(bad, line) })
	require.NoError(t, err)
	require.Len(t, got.Constraints, 1)
	assert.Equal(t, []string{"this is nonsense"}, bad)
}

func TestConstraintEditing(t *testing.T) {
	cfg := DefaultScheduleConfig()
	c1, err := cfg.AddConstraint("paper_1 = day_1")
	require.NoError(t, err)
	c2, err := cfg.AddConstraint("paper_2 = day_2")
	require.NoError(t, err)
	assert.Equal(t, "C001", c1.CID)
	assert.Equal(t, "C002", c2.CID)

	edited, err := cfg.EditConstraint("C001", "paper_1 != day_3")
	require.NoError(t, err)
	assert.Equal(t, "paper_1 != day_3", edited.Text())
	assert.Equal(t, "C001", cfg.Constraints[0].CID)

	_, err = cfg.EditConstraint("C009", "paper_1 = day_1")
	assert.Error(t, err)

	assert.True(t, cfg.RemoveConstraint("C001"))
	assert.False(t, cfg.RemoveConstraint("C001"))
	require.Len(t, cfg.Constraints, 1)
	assert.Equal(t, "C002", cfg.Constraints[0].CID)

	_, err = cfg.AddConstraint("garbage without operator")
	assert.Error(t, err)
}
