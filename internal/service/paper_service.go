package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/confplan/confplan/internal/constraint"
	"github.com/confplan/confplan/internal/models"
	"github.com/confplan/confplan/internal/similarity"
	"github.com/confplan/confplan/internal/solver"
	"github.com/confplan/confplan/pkg/config"
	"github.com/confplan/confplan/pkg/errors"
)

// assignBonus rewards assigning a paper at all, on top of its affinity
// score. Because every paper takes at most one session, the bonus is folded
// into each assignment variable's objective coefficient.
const assignBonus = 200

// PaperService runs the two-phase paper placement: a greedy topic-to-session
// pass followed by a solver-backed paper-to-session assignment that
// maximises topic affinity under the configured constraints.
type PaperService struct {
	logger *zap.Logger
	solver solver.Solver
	topics *TopicService
}

func NewPaperService(logger *zap.Logger, slv solver.Solver, topics *TopicService) *PaperService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaperService{logger: logger, solver: slv, topics: topics}
}

// Assign places papers into the programme's sessions in two phases and
// mutates it in place. Fixed sessions are never touched.
func (s *PaperService) Assign(
	ctx context.Context,
	prog *models.Program,
	papers []models.Paper,
	topics []models.Topic,
	cfg *config.ScheduleConfig,
	scores similarity.PaperTopicScores,
	matrix *similarity.TopicMatrix,
) error {
	sessions := prog.Sessions()
	if len(sessions) == 0 {
		return errors.New(errors.ErrPreconditionFailed, "programme has no sessions")
	}

	groups := s.topics.BuildGroups(papers, topics, matrix, cfg.MergeThreshold, cfg.MinGroupSize)
	topicByID := make(map[int]models.Topic, len(topics))
	for _, t := range topics {
		topicByID[t.TopicID] = t
	}

	tables := constraint.Interpret(cfg.Constraints, s.logger)

	caps := make([]int, len(sessions))
	totalCap := 0
	for j, sess := range sessions {
		caps[j] = sess.Capacity(cfg.PresentationDurationMin)
		if !sess.IsFixed {
			totalCap += caps[j]
		}
	}
	s.logger.Info("assigning papers",
		zap.Int("papers", len(papers)),
		zap.Int("sessions", len(sessions)),
		zap.Int("capacity", totalCap),
	)

	sessTopic := s.topics.PlaceTopics(sessions, papers, groups, caps, cfg.TopicDiversity)
	for j, ctid := range sessTopic {
		if t, ok := topicByID[ctid]; ok {
			topic := t
			sessions[j].Topic = &topic
		}
	}

	model, x := s.buildModel(sessions, papers, caps, sessTopic, groups, scores, matrix, tables)

	sol, err := s.solver.Solve(ctx, model)
	if err != nil {
		return errors.Wrap(err, errors.ErrSolver, "paper assignment solve failed")
	}
	if sol.Status != solver.StatusOptimal && sol.Status != solver.StatusFeasible {
		return errors.New(errors.ErrSolver, fmt.Sprintf("paper assignment solve ended with status %s", sol.Status))
	}

	assigned := 0
	for i := range papers {
		for j := range sessions {
			if sol.Value(x[i][j]) == 1 {
				sessions[j].Papers = append(sessions[j].Papers, papers[i])
				assigned++
				break
			}
		}
	}

	s.orderByPrecedence(sessions, tables.Precedence)

	prog.SetMeta("generated", "papers_assigned")
	prog.SetMeta("run_id", uuid.NewString())
	prog.SetMeta("solver_status", sol.Status.String())
	prog.SetMeta("solver_objective", sol.Objective)
	prog.SetMeta("papers_assigned", assigned)
	prog.SetMeta("papers_total", len(papers))

	s.logger.Info("paper assignment done",
		zap.String("status", sol.Status.String()),
		zap.Int("objective", sol.Objective),
		zap.Int("assigned", assigned),
		zap.Int("total", len(papers)),
	)
	return nil
}

// buildModel translates the placement problem into a boolean assignment
// model: one variable per (paper, session) pair, at most one session per
// paper, per-session capacity, and the constraint tables as fixed zeros or
// pairwise equalities.
func (s *PaperService) buildModel(
	sessions []*models.Session,
	papers []models.Paper,
	caps []int,
	sessTopic map[int]int,
	groups *TopicGroups,
	scores similarity.PaperTopicScores,
	matrix *similarity.TopicMatrix,
	tables *constraint.Tables,
) (*solver.Model, [][]solver.Var) {
	m := solver.NewModel()

	x := make([][]solver.Var, len(papers))
	for i, p := range papers {
		x[i] = make([]solver.Var, len(sessions))
		for j := range sessions {
			x[i][j] = m.NewBoolVar(fmt.Sprintf("x_%d_%s", p.PaperID, sessions[j].SessionID))
		}
		m.AddAtMost(x[i], 1)
	}

	for j := range sessions {
		col := make([]solver.Var, len(papers))
		for i := range papers {
			col[i] = x[i][j]
		}
		m.AddAtMost(col, caps[j])
	}

	for j, sess := range sessions {
		if !sess.IsFixed {
			continue
		}
		for i := range papers {
			m.FixVar(x[i][j], 0)
		}
	}

	paperIdx := make(map[int]int, len(papers))
	for i, p := range papers {
		paperIdx[p.PaperID] = i
	}

	for pid, allowedDays := range tables.PaperDays {
		i, ok := paperIdx[pid]
		if !ok {
			continue
		}
		for j, sess := range sessions {
			if !containsInt(allowedDays, sess.Day) {
				m.FixVar(x[i][j], 0)
			}
		}
	}
	for pid, notDays := range tables.PaperNotDays {
		i, ok := paperIdx[pid]
		if !ok {
			continue
		}
		for j, sess := range sessions {
			if containsInt(notDays, sess.Day) {
				m.FixVar(x[i][j], 0)
			}
		}
	}
	for pid, allowedSIDs := range tables.PaperSessions {
		i, ok := paperIdx[pid]
		if !ok {
			continue
		}
		for j, sess := range sessions {
			if !containsString(allowedSIDs, sess.SessionID) {
				m.FixVar(x[i][j], 0)
			}
		}
	}

	// Co-location pairs share a session; precedence pairs additionally get
	// ordered within the session after the solve.
	pairTables := [][]constraint.PaperPair{tables.SameSession, tables.Precedence}
	for _, pairs := range pairTables {
		for _, pair := range pairs {
			ia, okA := paperIdx[pair.A]
			ib, okB := paperIdx[pair.B]
			if !okA || !okB {
				s.logger.Warn("paper-pair constraint references unknown paper",
					zap.Int("paper_a", pair.A), zap.Int("paper_b", pair.B))
				continue
			}
			for j := range sessions {
				m.AddEquality(x[ia][j], x[ib][j])
			}
		}
	}

	var obj []solver.Term
	for i, paper := range papers {
		for j, sess := range sessions {
			if sess.IsFixed {
				continue
			}
			coef := assignBonus
			if ctid, ok := sessTopic[j]; ok {
				coef += PaperTopicScore(paper, ctid, groups, scores, matrix)
			}
			obj = append(obj, solver.Term{Var: x[i][j], Coef: coef})
		}
	}
	m.Maximize(obj)

	return m, x
}

// orderByPrecedence reorders papers inside each session so that every
// precedence pair holds, iterating swaps to a fixed point. A cyclic set of
// pairs cannot converge; it is reported and left as-is.
func (s *PaperService) orderByPrecedence(sessions []*models.Session, pairs []constraint.PaperPair) {
	if len(pairs) == 0 {
		return
	}
	for _, sess := range sessions {
		if len(sess.Papers) < 2 {
			continue
		}
		pos := make(map[int]int, len(sess.Papers))
		for idx, p := range sess.Papers {
			pos[p.PaperID] = idx
		}
		var relevant []constraint.PaperPair
		for _, pair := range pairs {
			if _, okA := pos[pair.A]; !okA {
				continue
			}
			if _, okB := pos[pair.B]; !okB {
				continue
			}
			relevant = append(relevant, pair)
		}
		if len(relevant) == 0 {
			continue
		}

		maxPasses := len(relevant)*len(sess.Papers) + 1
		settled := false
		for pass := 0; pass < maxPasses && !settled; pass++ {
			settled = true
			for _, pair := range relevant {
				pa, pb := pos[pair.A], pos[pair.B]
				if pa > pb {
					sess.Papers[pa], sess.Papers[pb] = sess.Papers[pb], sess.Papers[pa]
					pos[pair.A], pos[pair.B] = pb, pa
					settled = false
				}
			}
		}
		if !settled {
			s.logger.Warn("precedence constraints did not converge, likely cyclic",
				zap.String("session", sess.SessionID))
		}
	}
}

func containsString(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
