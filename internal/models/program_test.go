package models

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockMinutes(t *testing.T) {
	assert.Equal(t, 0, ClockMinutes("00:00"))
	assert.Equal(t, 570, ClockMinutes("09:30"))
	assert.Equal(t, 1050, ClockMinutes("17:30"))
	assert.Equal(t, 0, ClockMinutes("nonsense"))
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "09:05", FormatClock(545))
	assert.Equal(t, "17:30", FormatClock(1050))
}

func TestSessionCapacity(t *testing.T) {
	ts := &TimeSlot{Start: "09:00", End: "10:30", Kind: SlotSession}
	sess := &Session{SessionID: "S01", TimeSlot: ts}

	assert.Equal(t, 4, sess.Capacity(20))
	assert.Equal(t, 3, sess.Capacity(25))
	assert.Equal(t, 0, sess.Capacity(0))

	empty := &Session{SessionID: "S02"}
	assert.Equal(t, 0, empty.Capacity(20))
}

func TestProgramSessionsSkipsNonSessionSlots(t *testing.T) {
	ts := TimeSlot{Start: "09:00", End: "10:30", Kind: SlotSession, Day: 1}
	lunch := TimeSlot{Start: "12:00", End: "13:00", Kind: SlotLunch, Day: 1}
	plenary := TimeSlot{Start: "10:30", End: "11:30", Kind: SlotPlenary, Day: 1}

	prog := &Program{Days: []DayProgram{{
		Day: 1,
		Slots: []SlotGroup{
			{TimeSlot: ts, Sessions: []*Session{
				{SessionID: "S01", TimeSlot: &ts},
				{SessionID: "S02", TimeSlot: &ts},
			}},
			{TimeSlot: plenary, Sessions: []*Session{{SessionID: "P1_1", TimeSlot: &plenary, IsFixed: true}}},
			{TimeSlot: lunch},
		},
	}}}

	sessions := prog.Sessions()
	require.Len(t, sessions, 2)
	assert.Equal(t, "S01", sessions[0].SessionID)
	assert.Equal(t, "S02", sessions[1].SessionID)
}

func TestProgramSessionsAliasTree(t *testing.T) {
	ts := TimeSlot{Start: "09:00", End: "10:30", Kind: SlotSession, Day: 1}
	prog := &Program{Days: []DayProgram{{
		Day:   1,
		Slots: []SlotGroup{{TimeSlot: ts, Sessions: []*Session{{SessionID: "S01", TimeSlot: &ts}}}},
	}}}

	prog.Sessions()[0].Papers = append(prog.Sessions()[0].Papers, Paper{PaperID: 7})
	assert.Len(t, prog.Days[0].Slots[0].Sessions[0].Papers, 1)
}

func TestProgramSaveLoadRoundTrip(t *testing.T) {
	ts := TimeSlot{Start: "09:00", End: "10:30", Kind: SlotSession, Day: 1}
	prog := &Program{Days: []DayProgram{{
		Day: 1,
		Slots: []SlotGroup{{TimeSlot: ts, Sessions: []*Session{{
			SessionID: "S01",
			Day:       1,
			TimeSlot:  &ts,
			Topic:     &Topic{TopicID: 3, Name: "Robotics"},
			Papers:    []Paper{{PaperID: 42, Title: "On Widgets"}},
		}}}},
	}}}
	prog.SetMeta("generated", "papers_assigned")

	path := filepath.Join(t.TempDir(), "program.json")
	require.NoError(t, prog.Save(path))

	loaded, err := LoadProgram(path)
	require.NoError(t, err)
	require.Len(t, loaded.Days, 1)

	sess := loaded.Days[0].Slots[0].Sessions[0]
	assert.Equal(t, "S01", sess.SessionID)
	require.NotNil(t, sess.Topic)
	assert.Equal(t, "Robotics", sess.Topic.Name)
	require.Len(t, sess.Papers, 1)
	assert.Equal(t, 42, sess.Papers[0].PaperID)
	assert.Equal(t, "papers_assigned", loaded.Metadata["generated"])
}

func TestLoadProgramMissingFile(t *testing.T) {
	_, err := LoadProgram(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
