package models

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// SlotKind classifies a time-slot in the programme.
type SlotKind string

const (
	SlotSession     SlotKind = "session"
	SlotBreak       SlotKind = "break"
	SlotLunch       SlotKind = "lunch"
	SlotDinner      SlotKind = "dinner"
	SlotPlenary     SlotKind = "plenary"
	SlotPreliminary SlotKind = "preliminary"
	SlotRoomChange  SlotKind = "room_change"
)

// TimeSlot describes one period of the day. Only SlotSession slots are
// assignment targets.
type TimeSlot struct {
	Start string   `json:"start"` // "HH:MM"
	End   string   `json:"end"`   // "HH:MM"
	Kind  SlotKind `json:"kind"`
	Label string   `json:"label,omitempty"`
	Day   int      `json:"day"`
}

// DurationMinutes returns end minus start in minutes.
func (t TimeSlot) DurationMinutes() int {
	return ClockMinutes(t.End) - ClockMinutes(t.Start)
}

// ClockMinutes converts "HH:MM" into minutes since midnight. Malformed
// input yields 0.
func ClockMinutes(clock string) int {
	h, m, ok := strings.Cut(clock, ":")
	if !ok {
		return 0
	}
	hours, err := strconv.Atoi(h)
	if err != nil {
		return 0
	}
	mins, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return hours*60 + mins
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Session is the assignment target: one talk block inside a slot group.
// Sessions flagged IsFixed are never touched by the engine.
type Session struct {
	SessionID string    `json:"session_id"`
	Day       int       `json:"day"`
	TimeSlot  *TimeSlot `json:"time_slot,omitempty"`
	Topic     *Topic    `json:"topic,omitempty"`
	Room      *Room     `json:"room,omitempty"`
	Chair     *Chair    `json:"chair,omitempty"`
	Papers    []Paper   `json:"papers,omitempty"`
	Label     string    `json:"label,omitempty"`
	IsFixed   bool      `json:"is_fixed"`
}

// Capacity is how many talks of presentationMin minutes fit the session.
func (s *Session) Capacity(presentationMin int) int {
	if s.TimeSlot == nil || presentationMin <= 0 {
		return 0
	}
	return s.TimeSlot.DurationMinutes() / presentationMin
}

// SlotGroup pairs one time-slot with the sessions running concurrently in
// it: the scope within which no room or chair may be double-booked.
type SlotGroup struct {
	TimeSlot TimeSlot   `json:"time_slot"`
	Sessions []*Session `json:"sessions"`
}

// DayProgram is one calendar day of slot groups, in chronological order.
type DayProgram struct {
	Day   int         `json:"day"`
	Slots []SlotGroup `json:"slots"`
}

// Program is the root aggregate mutated in place by every assignment phase.
type Program struct {
	Days     []DayProgram   `json:"days"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// SetMeta records a metadata entry, allocating the map on first use.
func (p *Program) SetMeta(key string, value any) {
	if p.Metadata == nil {
		p.Metadata = make(map[string]any)
	}
	p.Metadata[key] = value
}

// Sessions flattens all sessions inside SlotSession slot groups, in
// programme order. The returned pointers alias the programme tree.
func (p *Program) Sessions() []*Session {
	var out []*Session
	for di := range p.Days {
		for si := range p.Days[di].Slots {
			slot := &p.Days[di].Slots[si]
			if slot.TimeSlot.Kind != SlotSession {
				continue
			}
			out = append(out, slot.Sessions...)
		}
	}
	return out
}

// Save writes the programme snapshot as indented JSON.
func (p *Program) Save(path string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode programme: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write programme: %w", err)
	}
	return nil
}

// LoadProgram reads a programme snapshot saved by Save.
func LoadProgram(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read programme: %w", err)
	}
	var p Program
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode programme: %w", err)
	}
	return &p, nil
}
