package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/confplan/confplan/internal/models"
	"github.com/confplan/confplan/internal/similarity"
	"github.com/confplan/confplan/internal/solver"
	"github.com/confplan/confplan/pkg/config"
	"github.com/confplan/confplan/pkg/storage"
)

// PipelineInput bundles everything a full engine run consumes.
type PipelineInput struct {
	Schedule *config.ScheduleConfig
	Papers   []models.Paper
	Topics   []models.Topic
	Rooms    []models.Room
	Chairs   []models.Chair
	Scores   similarity.PaperTopicScores
	Matrix   *similarity.TopicMatrix

	// Force runs paper placement even when the capacity check reports a
	// deficit; the solver then leaves the overflow unassigned.
	Force bool
}

// Pipeline chains the engine stages: skeleton, capacity gate, paper
// placement, rooms, chairs. After each mutating stage the programme is
// snapshotted so a run can be inspected or resumed stage by stage.
type Pipeline struct {
	logger   *zap.Logger
	store    *storage.LocalStorage
	skeleton *SkeletonService
	capacity *CapacityService
	papers   *PaperService
	rooms    *RoomService
	chairs   *ChairService
}

func NewPipeline(logger *zap.Logger, store *storage.LocalStorage, slv solver.Solver) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	topics := NewTopicService(logger)
	return &Pipeline{
		logger:   logger,
		store:    store,
		skeleton: NewSkeletonService(logger),
		capacity: NewCapacityService(logger),
		papers:   NewPaperService(logger, slv, topics),
		rooms:    NewRoomService(logger),
		chairs:   NewChairService(logger),
	}
}

// Run executes the full pipeline and returns the finished programme along
// with the capacity report. A capacity deficit aborts before paper
// placement unless the input sets Force.
func (p *Pipeline) Run(ctx context.Context, in PipelineInput) (*models.Program, *CapacityReport, error) {
	prog := p.skeleton.Build(in.Schedule)
	p.snapshot(prog, "skeleton")

	report := p.capacity.Analyze(prog, in.Schedule, len(in.Papers))
	if err := p.capacity.Check(report, in.Force); err != nil {
		return nil, report, err
	}

	if err := p.papers.Assign(ctx, prog, in.Papers, in.Topics, in.Schedule, in.Scores, in.Matrix); err != nil {
		return nil, report, err
	}
	p.snapshot(prog, "papers")

	p.rooms.Assign(prog, in.Rooms, in.Schedule, in.Papers)
	p.snapshot(prog, "rooms")

	p.chairs.Assign(prog, in.Chairs, in.Papers)
	p.snapshot(prog, "chairs")

	return prog, report, nil
}

// snapshot persists the programme after a stage. Snapshot failures are
// logged, never fatal: the in-memory run continues.
func (p *Pipeline) snapshot(prog *models.Program, stage string) {
	if p.store == nil {
		return
	}
	data, err := json.MarshalIndent(prog, "", "  ")
	if err != nil {
		p.logger.Warn("snapshot encode failed", zap.String("stage", stage), zap.Error(err))
		return
	}
	name := fmt.Sprintf("program_%s.json", stage)
	if _, err := p.store.Save(name, data); err != nil {
		p.logger.Warn("snapshot write failed", zap.String("stage", stage), zap.Error(err))
		return
	}
	p.logger.Debug("snapshot saved", zap.String("stage", stage), zap.String("file", name))
}
