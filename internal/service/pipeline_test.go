package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/confplan/confplan/internal/models"
	"github.com/confplan/confplan/internal/solver"
	"github.com/confplan/confplan/pkg/config"
	"github.com/confplan/confplan/pkg/errors"
	"github.com/confplan/confplan/pkg/storage"
)

func newPipeline(t *testing.T, dir string) *Pipeline {
	t.Helper()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	slv := solver.NewGreedySolver(solver.Options{TimeLimit: 5 * time.Second, Workers: 2})
	return NewPipeline(zap.NewNop(), store, slv)
}

func pipelineInput() PipelineInput {
	cfg := config.DefaultScheduleConfig()
	cfg.NumDays = 1
	cfg.NumAvailableRooms = 2
	cfg.MaxRoomsPerDay = 2
	return PipelineInput{
		Schedule: cfg,
		Papers:   testPapers(),
		Topics:   testTopics(),
		Rooms: []models.Room{
			{RoomID: 1, Name: "Aula", Capacity: 300},
			{RoomID: 2, Name: "Seminar A", Capacity: 80},
		},
		Chairs: testChairs(),
	}
}

func TestPipelineRun(t *testing.T) {
	dir := t.TempDir()
	prog, report, err := newPipeline(t, dir).Run(context.Background(), pipelineInput())
	require.NoError(t, err)
	require.NotNil(t, prog)
	require.NotNil(t, report)
	assert.True(t, report.Feasible())

	assigned := 0
	for _, sess := range prog.Sessions() {
		assigned += len(sess.Papers)
		if len(sess.Papers) > 0 {
			assert.NotNil(t, sess.Room, "session %s with papers has a room", sess.SessionID)
			assert.NotNil(t, sess.Chair, "session %s with papers has a chair", sess.SessionID)
		}
	}
	assert.Equal(t, 6, assigned)
	assert.Equal(t, "chairs_assigned", prog.Metadata["generated"])

	for _, stage := range []string{"skeleton", "papers", "rooms", "chairs"} {
		_, err := os.Stat(filepath.Join(dir, "program_"+stage+".json"))
		assert.NoError(t, err, "snapshot for stage %s", stage)
	}
}

func TestPipelineAbortsOnCapacityDeficit(t *testing.T) {
	in := pipelineInput()
	// One short day, one room: nowhere near enough slots for 40 papers.
	in.Schedule.NumAvailableRooms = 1
	in.Schedule.MaxRoomsPerDay = 1
	in.Papers = make([]models.Paper, 40)
	for i := range in.Papers {
		in.Papers[i] = models.Paper{PaperID: i + 1, PrefIDs: []int{1}}
	}

	prog, report, err := newPipeline(t, t.TempDir()).Run(context.Background(), in)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCapacity, errors.FromError(err).Code)
	assert.Nil(t, prog)
	require.NotNil(t, report)
	assert.Positive(t, report.Deficit)
}

func TestPipelineForceOverridesDeficit(t *testing.T) {
	in := pipelineInput()
	in.Schedule.NumAvailableRooms = 1
	in.Schedule.MaxRoomsPerDay = 1
	in.Papers = make([]models.Paper, 40)
	for i := range in.Papers {
		in.Papers[i] = models.Paper{PaperID: i + 1, PrefIDs: []int{1}}
	}
	in.Force = true

	prog, report, err := newPipeline(t, t.TempDir()).Run(context.Background(), in)
	require.NoError(t, err)
	require.NotNil(t, prog)
	assert.False(t, report.Feasible())

	assigned, ok := prog.Metadata["papers_assigned"].(int)
	require.True(t, ok)
	assert.Less(t, assigned, 40, "overflow papers stay unassigned")
	assert.Positive(t, assigned)
}

func TestPipelineWithoutStore(t *testing.T) {
	slv := solver.NewGreedySolver(solver.Options{TimeLimit: 5 * time.Second, Workers: 2})
	p := NewPipeline(zap.NewNop(), nil, slv)

	prog, _, err := p.Run(context.Background(), pipelineInput())
	require.NoError(t, err)
	require.NotNil(t, prog)
}
