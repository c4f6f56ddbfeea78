package ingest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadTopics(t *testing.T) {
	path := writeFile(t, "topics.csv",
		"pref_id;topic name\n"+
			"1;Heuristics\n"+
			"2;Exact Methods\n"+
			"n/a;Broken\n")

	topics, err := LoadTopics(path, TopicFileOptions{}, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, topics, 2, "the non-numeric id row is skipped")
	assert.Equal(t, 1, topics[0].TopicID)
	assert.Equal(t, "Exact Methods", topics[1].Name)
}

func TestLoadTopicsCustomColumns(t *testing.T) {
	path := writeFile(t, "topics.csv", "id,label\n4,Routing\n")

	topics, err := LoadTopics(path, TopicFileOptions{IDColumn: "id", NameColumn: "label", Separator: ','}, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, topics, 1)
	assert.Equal(t, 4, topics[0].TopicID)
	assert.Equal(t, "Routing", topics[0].Name)
}

func TestLoadTopicsMissingColumn(t *testing.T) {
	path := writeFile(t, "topics.csv", "pref_id;something\n1;x\n")
	_, err := LoadTopics(path, TopicFileOptions{}, zap.NewNop())
	require.Error(t, err)
}

func TestLoadRooms(t *testing.T) {
	path := writeFile(t, "rooms.csv",
		"room_id;room_name;capacity\n"+
			"1;Aula;300\n"+
			"2;Seminar A;80\n")

	rooms, err := LoadRooms(path, RoomFileOptions{}, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "Aula", rooms[0].Name)
	assert.Equal(t, 300, rooms[0].Capacity)
}

func TestLoadRoomsPositionalIDs(t *testing.T) {
	path := writeFile(t, "rooms.csv", "room_name\nAula\nSeminar A\n")

	rooms, err := LoadRooms(path, RoomFileOptions{}, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, 1, rooms[0].RoomID)
	assert.Equal(t, 2, rooms[1].RoomID)
	assert.Zero(t, rooms[0].Capacity)
}

func TestGenerateDefaultRooms(t *testing.T) {
	rooms := GenerateDefaultRooms(2)
	require.Len(t, rooms, 2)
	assert.Equal(t, "Room 2", rooms[1].Name)
}

func TestLoadChairsSimpleLayout(t *testing.T) {
	path := writeFile(t, "chairs.csv",
		"chair_id;chair_name\n"+
			"1;Ada\n"+
			"2;MÃ¼ller\n")

	chairs, err := LoadChairs(path, ';', zap.NewNop())
	require.NoError(t, err)
	require.Len(t, chairs, 2)
	assert.Equal(t, "Ada", chairs[0].Name)
	assert.Equal(t, "Müller", chairs[1].Name)
	assert.Equal(t, 1, chairs[0].ArrivalDay)
	assert.Equal(t, departureOpenEnd, chairs[0].DepartureDay)
}

func TestLoadChairsExtendedLayout(t *testing.T) {
	path := writeFile(t, "chairs.csv",
		"lastname;firstname;email;arrival;departure\n"+
			"Lovelace;Ada;ada@a.org;1;2\n"+
			"Babbage;;cb@b.org;2;3\n")

	chairs, err := LoadChairs(path, ';', zap.NewNop())
	require.NoError(t, err)
	require.Len(t, chairs, 2)

	assert.Equal(t, "Ada Lovelace", chairs[0].Name)
	assert.Equal(t, "ada@a.org", chairs[0].Email)
	assert.Equal(t, 1, chairs[0].ArrivalDay)
	assert.Equal(t, 2, chairs[0].DepartureDay)

	assert.Equal(t, "Babbage", chairs[1].Name, "missing firstname is trimmed away")
	assert.Equal(t, 2, chairs[1].ChairID, "ids fall back to row position")
}

func TestGenerateDefaultChairs(t *testing.T) {
	chairs := GenerateDefaultChairs(2)
	require.Len(t, chairs, 2)
	assert.Equal(t, "Chair 1", chairs[0].Name)
	assert.Equal(t, departureOpenEnd, chairs[1].DepartureDay)
}

func TestLoadConstraintLines(t *testing.T) {
	path := writeFile(t, "constraints.txt",
		"# session constraints\n"+
			"paper_1 = day_2\n"+
			"\n"+
			"  paper_3 < paper_4  \n")

	lines, err := LoadConstraintLines(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"paper_1 = day_2", "paper_3 < paper_4"}, lines)
}

func TestLoadConstraintLinesMissingFile(t *testing.T) {
	_, err := LoadConstraintLines(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
}

func TestReadTableEmptyFile(t *testing.T) {
	path := writeFile(t, "empty.csv", "")
	_, err := readTable(path, ';', "utf-8")
	require.Error(t, err)
}
