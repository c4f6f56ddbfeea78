package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/confplan/confplan/internal/models"
	"github.com/confplan/confplan/pkg/errors"
)

// PlenarySlot reserves a slot in the schedule (keynote, welcome, closing).
type PlenarySlot struct {
	Label string `json:"label" validate:"required"`
	Day   int    `json:"day" validate:"min=1"`
	Start string `json:"start" validate:"required"`
	End   string `json:"end" validate:"required"`
	Room  string `json:"room,omitempty"` // optional: pin to a specific room
}

// ScheduleConfig holds every tunable for building a conference programme.
// It is persisted as a JSON file; constraints are stored in their text form.
type ScheduleConfig struct {
	// Conference shape.
	NumDays                 int `json:"num_days" validate:"min=1"`
	MaxSessionDurationMin   int `json:"max_session_duration_min" validate:"min=5"`
	PresentationDurationMin int `json:"presentation_duration_min" validate:"min=5"`
	NumAvailableRooms       int `json:"num_available_rooms" validate:"min=1"`
	MaxRoomsPerDay          int `json:"max_rooms_per_day" validate:"min=1"`

	// Daily times. FirstDayStart / LastDayEnd override the defaults for
	// day 1 and the final day when non-empty.
	DayStart      string `json:"day_start"`
	DayEnd        string `json:"day_end"`
	FirstDayStart string `json:"first_day_start,omitempty"`
	LastDayEnd    string `json:"last_day_end,omitempty"`

	// Breaks.
	BreakDurationMin int    `json:"break_duration_min"`
	MorningBreak     bool   `json:"morning_break"`
	AfternoonBreak   bool   `json:"afternoon_break"`
	LunchIncluded    bool   `json:"lunch_included"`
	LunchDurationMin int    `json:"lunch_duration_min"`
	DinnerIncluded   bool   `json:"dinner_included"`
	DinnerStart      string `json:"dinner_start,omitempty"`

	// Gap budget between back-to-back slots for moving rooms.
	RoomChangePenaltyMin int `json:"room_change_penalty_min"`

	// Reserved plenary slots.
	PlenarySlots []PlenarySlot `json:"plenary_slots,omitempty" validate:"dive"`

	// Topic handling.
	TopicDiversity bool    `json:"topic_diversity"`
	MergeThreshold float64 `json:"merge_threshold" validate:"min=0,max=1"`
	MinGroupSize   int     `json:"min_group_size" validate:"min=0"`

	// Constraints, parsed from their text form at load time.
	Constraints []models.Constraint `json:"-"`
}

// DefaultScheduleConfig mirrors a typical three-day single-track-per-room
// conference and is the base for Load when fields are absent.
func DefaultScheduleConfig() *ScheduleConfig {
	return &ScheduleConfig{
		NumDays:                 3,
		MaxSessionDurationMin:   90,
		PresentationDurationMin: 20,
		NumAvailableRooms:       5,
		MaxRoomsPerDay:          5,
		DayStart:                "09:00",
		DayEnd:                  "17:30",
		BreakDurationMin:        30,
		MorningBreak:            true,
		AfternoonBreak:          true,
		LunchIncluded:           true,
		LunchDurationMin:        60,
		DinnerStart:             "19:00",
		RoomChangePenaltyMin:    5,
		TopicDiversity:          true,
		MergeThreshold:          0.75,
		MinGroupSize:            3,
	}
}

// PapersPerSession is the derived capacity of one full-length session.
func (c *ScheduleConfig) PapersPerSession() int {
	if c.PresentationDurationMin <= 0 {
		return 0
	}
	return c.MaxSessionDurationMin / c.PresentationDurationMin
}

// EffectiveDayStart returns the start time for the given day.
func (c *ScheduleConfig) EffectiveDayStart(day int) string {
	if day == 1 && c.FirstDayStart != "" {
		return c.FirstDayStart
	}
	return c.DayStart
}

// EffectiveDayEnd returns the end time for the given day.
func (c *ScheduleConfig) EffectiveDayEnd(day int) string {
	if day == c.NumDays && c.LastDayEnd != "" {
		return c.LastDayEnd
	}
	return c.DayEnd
}

// Validate applies struct-level validation rules.
func (c *ScheduleConfig) Validate(v *validator.Validate) error {
	if v == nil {
		v = validator.New()
	}
	return v.Struct(c)
}

// scheduleConfigJSON is the on-disk shape: constraints as text lines.
type scheduleConfigJSON struct {
	ScheduleConfig
	ConstraintTexts []string `json:"constraints,omitempty"`
}

// SaveSchedule persists the schedule config as indented JSON.
func SaveSchedule(cfg *ScheduleConfig, path string) error {
	out := scheduleConfigJSON{ScheduleConfig: *cfg}
	for _, con := range cfg.Constraints {
		out.ConstraintTexts = append(out.ConstraintTexts, con.Text())
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode schedule config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write schedule config: %w", err)
	}
	return nil
}

// LoadSchedule reads a schedule config, parsing constraint lines. A line
// that fails to parse is reported through badLine (when non-nil) and
// skipped; it never aborts the load.
func LoadSchedule(path string, badLine func(line string, err error)) (*ScheduleConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schedule config: %w", err)
	}
	raw := scheduleConfigJSON{ScheduleConfig: *DefaultScheduleConfig()}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode schedule config: %w", err)
	}
	cfg := raw.ScheduleConfig
	if err := cfg.Validate(nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrValidation, fmt.Sprintf("invalid schedule config %s", path))
	}
	cfg.Constraints = nil
	for i, line := range raw.ConstraintTexts {
		con, err := models.ParseConstraint(line, fmt.Sprintf("C%03d", i+1))
		if err != nil {
			if badLine != nil {
				badLine(line, err)
			}
			continue
		}
		cfg.Constraints = append(cfg.Constraints, con)
	}
	return &cfg, nil
}

// AddConstraint parses and appends a constraint, assigning the next id.
func (c *ScheduleConfig) AddConstraint(text string) (models.Constraint, error) {
	con, err := models.ParseConstraint(text, fmt.Sprintf("C%03d", len(c.Constraints)+1))
	if err != nil {
		return models.Constraint{}, err
	}
	c.Constraints = append(c.Constraints, con)
	return con, nil
}

// RemoveConstraint deletes the constraint with the given id.
func (c *ScheduleConfig) RemoveConstraint(cid string) bool {
	kept := c.Constraints[:0]
	removed := false
	for _, con := range c.Constraints {
		if con.CID == cid {
			removed = true
			continue
		}
		kept = append(kept, con)
	}
	c.Constraints = kept
	return removed
}

// EditConstraint replaces the text of an existing constraint in place.
func (c *ScheduleConfig) EditConstraint(cid, text string) (models.Constraint, error) {
	for i, con := range c.Constraints {
		if con.CID != cid {
			continue
		}
		next, err := models.ParseConstraint(text, cid)
		if err != nil {
			return models.Constraint{}, err
		}
		c.Constraints[i] = next
		return next, nil
	}
	return models.Constraint{}, fmt.Errorf("constraint %s not found", cid)
}
