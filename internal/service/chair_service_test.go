package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/confplan/confplan/internal/models"
)

func testChairs() []models.Chair {
	return []models.Chair{
		{ChairID: 1, Name: "Ada", Email: "ada@example.org", ArrivalDay: 1, DepartureDay: 3},
		{ChairID: 2, Name: "Ben", Email: "ben@example.org", ArrivalDay: 1, DepartureDay: 3},
		{ChairID: 3, Name: "Cleo", Email: "cleo@example.org", ArrivalDay: 1, DepartureDay: 3},
	}
}

// chairProgram builds days of parallel session slots; widths[d] gives the
// number of sessions per slot on day d+1, one slot per day per entry.
func chairProgram(slotsPerDay, sessionsPerSlot, days int) *models.Program {
	prog := &models.Program{}
	id := 0
	for day := 1; day <= days; day++ {
		dp := models.DayProgram{Day: day}
		start := models.ClockMinutes("09:00")
		for s := 0; s < slotsPerDay; s++ {
			ts := models.TimeSlot{
				Start: models.FormatClock(start),
				End:   models.FormatClock(start + 60),
				Kind:  models.SlotSession,
				Day:   day,
			}
			var sessions []*models.Session
			for r := 0; r < sessionsPerSlot; r++ {
				id++
				sessions = append(sessions, &models.Session{SessionID: sid(id), Day: day, TimeSlot: &ts})
			}
			dp.Slots = append(dp.Slots, models.SlotGroup{TimeSlot: ts, Sessions: sessions})
			start += 60
		}
		prog.Days = append(prog.Days, dp)
	}
	return prog
}

func TestChairAssignSpreadsLoadEvenly(t *testing.T) {
	prog := chairProgram(3, 2, 1) // six sessions, three chairs
	chairs := testChairs()

	NewChairService(zap.NewNop()).Assign(prog, chairs, nil)

	load := map[int]int{}
	for _, sess := range prog.Sessions() {
		require.NotNil(t, sess.Chair, "session %s has a chair", sess.SessionID)
		load[sess.Chair.ChairID]++
	}
	require.Len(t, load, 3)
	for id, n := range load {
		assert.Equal(t, 2, n, "chair %d load", id)
	}
	assert.Equal(t, "chairs_assigned", prog.Metadata["generated"])
}

func TestChairAssignNeverTwiceInOneSlot(t *testing.T) {
	prog := chairProgram(1, 3, 1)
	NewChairService(zap.NewNop()).Assign(prog, testChairs(), nil)

	seen := map[int]bool{}
	for _, sess := range prog.Days[0].Slots[0].Sessions {
		require.NotNil(t, sess.Chair)
		assert.False(t, seen[sess.Chair.ChairID], "chair %s used twice in slot", sess.Chair.Name)
		seen[sess.Chair.ChairID] = true
	}
}

func TestChairAssignPrefersTopicMatch(t *testing.T) {
	prog := chairProgram(1, 1, 1)
	prog.Days[0].Slots[0].Sessions[0].Topic = &models.Topic{TopicID: 7, Name: "Optimisation"}

	chairs := testChairs()
	chairs[2].TopicIDs = []int{7}

	NewChairService(zap.NewNop()).Assign(prog, chairs, nil)

	sess := prog.Days[0].Slots[0].Sessions[0]
	require.NotNil(t, sess.Chair)
	assert.Equal(t, "Cleo", sess.Chair.Name)
}

func TestChairAssignSkipsPresentingAuthor(t *testing.T) {
	prog := chairProgram(1, 1, 1)
	sess := prog.Days[0].Slots[0].Sessions[0]
	sess.Papers = []models.Paper{{
		PaperID: 1,
		Title:   "Own work",
		Authors: []models.Author{{Name: "Ada", Email: "Ada@Example.org"}},
	}}

	chairs := testChairs()[:2]
	// Ada would win on topic affinity, but presents in this slot.
	sess.Topic = &models.Topic{TopicID: 4, Name: "T"}
	chairs[0].TopicIDs = []int{4}

	NewChairService(zap.NewNop()).Assign(prog, chairs, nil)

	require.NotNil(t, sess.Chair)
	assert.Equal(t, "Ben", sess.Chair.Name)
}

func TestChairAssignHonoursPresenceWindow(t *testing.T) {
	prog := chairProgram(1, 1, 2)
	chairs := []models.Chair{
		{ChairID: 1, Name: "Ada", ArrivalDay: 2, DepartureDay: 2},
		{ChairID: 2, Name: "Ben", ArrivalDay: 1, DepartureDay: 1},
	}

	NewChairService(zap.NewNop()).Assign(prog, chairs, nil)

	day1 := prog.Days[0].Slots[0].Sessions[0]
	day2 := prog.Days[1].Slots[0].Sessions[0]
	require.NotNil(t, day1.Chair)
	require.NotNil(t, day2.Chair)
	assert.Equal(t, "Ben", day1.Chair.Name)
	assert.Equal(t, "Ada", day2.Chair.Name)
}

func TestChairAssignNoEligibleChairLeavesSessionOpen(t *testing.T) {
	prog := chairProgram(1, 1, 1)
	chairs := []models.Chair{{ChairID: 1, Name: "Late", ArrivalDay: 2, DepartureDay: 3}}

	NewChairService(zap.NewNop()).Assign(prog, chairs, nil)

	assert.Nil(t, prog.Days[0].Slots[0].Sessions[0].Chair)
}

func TestChairAssignInfersTopicsFromAuthoredPapers(t *testing.T) {
	prog := chairProgram(2, 1, 1)
	prog.Days[0].Slots[0].Sessions[0].Topic = &models.Topic{TopicID: 9, Name: "T"}

	papers := []models.Paper{{
		PaperID: 1,
		PrefIDs: []int{9},
		Authors: []models.Author{{Name: "Cleo", Email: "cleo@example.org"}},
	}}
	chairs := testChairs()

	NewChairService(zap.NewNop()).Assign(prog, chairs, papers)

	assert.Equal(t, []int{9}, chairs[2].TopicIDs)
	sess := prog.Days[0].Slots[0].Sessions[0]
	require.NotNil(t, sess.Chair)
	assert.Equal(t, "Cleo", sess.Chair.Name)
}
