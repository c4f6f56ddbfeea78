// Package constraint turns the free-form constraint list into the typed
// lookup tables the assignment phases consume, so constraint text is parsed
// exactly once per run.
package constraint

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/confplan/confplan/internal/models"
)

// PaperPair links two papers for co-location or precedence.
type PaperPair struct {
	A int
	B int
}

// Tables is the typed interpretation of the raw constraint list.
type Tables struct {
	PaperDays     map[int][]int    // paper id -> allowed days
	PaperNotDays  map[int][]int    // paper id -> disallowed days
	PaperSessions map[int][]string // paper id -> allowed session ids
	SameSession   []PaperPair      // paper A shares a session with paper B
	Precedence    []PaperPair      // paper A precedes paper B within a session
	RoomDays      map[string][]int // room name -> allowed days
	SectionLabels map[string]string
}

// Interpret partitions constraints by subject type into Tables. A
// constraint that cannot be interpreted is logged and skipped; this
// function never fails.
func Interpret(constraints []models.Constraint, logger *zap.Logger) *Tables {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Tables{
		PaperDays:     make(map[int][]int),
		PaperNotDays:  make(map[int][]int),
		PaperSessions: make(map[int][]string),
		RoomDays:      make(map[string][]int),
		SectionLabels: make(map[string]string),
	}

	for _, c := range constraints {
		switch c.SubjectType {
		case "paper":
			t.interpretPaper(c, logger)
		case "room":
			t.interpretRoom(c, logger)
		case "section":
			if c.Op == models.OpEQ && len(c.Value) > 0 {
				t.SectionLabels[c.SubjectID] = c.Value[0]
			} else {
				logger.Warn("skipping section constraint", zap.String("cid", c.CID), zap.String("text", c.Text()))
			}
		default:
			logger.Warn("skipping constraint with unsupported subject",
				zap.String("cid", c.CID), zap.String("subject_type", c.SubjectType))
		}
	}

	return t
}

func (t *Tables) interpretPaper(c models.Constraint, logger *zap.Logger) {
	pid, err := strconv.Atoi(c.SubjectID)
	if err != nil || pid == 0 {
		logger.Warn("skipping paper constraint with invalid id",
			zap.String("cid", c.CID), zap.String("subject_id", c.SubjectID))
		return
	}

	// Value referencing another paper: paper_A = paper_B or paper_A < paper_B.
	if len(c.Value) > 0 && strings.HasPrefix(c.Value[0], "paper_") {
		other, err := strconv.Atoi(strings.TrimPrefix(c.Value[0], "paper_"))
		if err != nil {
			logger.Warn("skipping paper-pair constraint with invalid target",
				zap.String("cid", c.CID), zap.String("value", c.Value[0]))
			return
		}
		switch c.Op {
		case models.OpEQ:
			t.SameSession = append(t.SameSession, PaperPair{A: pid, B: other})
		case models.OpLT:
			t.Precedence = append(t.Precedence, PaperPair{A: pid, B: other})
		default:
			logger.Warn("skipping paper-pair constraint with unsupported operator",
				zap.String("cid", c.CID), zap.String("op", string(c.Op)))
		}
		return
	}

	days, sessionIDs := splitTargets(c.Value)
	switch c.Op {
	case models.OpEQ, models.OpIN:
		if len(days) > 0 {
			t.PaperDays[pid] = append(t.PaperDays[pid], days...)
		}
		if len(sessionIDs) > 0 {
			t.PaperSessions[pid] = append(t.PaperSessions[pid], sessionIDs...)
		}
	case models.OpNEQ, models.OpNotIn:
		if len(days) > 0 {
			t.PaperNotDays[pid] = append(t.PaperNotDays[pid], days...)
		}
	default:
		logger.Warn("skipping paper constraint with unsupported operator",
			zap.String("cid", c.CID), zap.String("op", string(c.Op)))
	}
}

func (t *Tables) interpretRoom(c models.Constraint, logger *zap.Logger) {
	days, _ := splitTargets(c.Value)
	if (c.Op == models.OpEQ || c.Op == models.OpIN) && len(days) > 0 {
		t.RoomDays[c.SubjectID] = append(t.RoomDays[c.SubjectID], days...)
		return
	}
	logger.Warn("skipping room constraint", zap.String("cid", c.CID), zap.String("text", c.Text()))
}

// splitTargets separates constraint values into day numbers (day_N tokens)
// and session ids (S-prefixed tokens).
func splitTargets(values []string) (days []int, sessionIDs []string) {
	for _, v := range values {
		if strings.HasPrefix(v, "day_") {
			if d, err := strconv.Atoi(strings.TrimPrefix(v, "day_")); err == nil {
				days = append(days, d)
			}
			continue
		}
		if strings.HasPrefix(v, "S") {
			sessionIDs = append(sessionIDs, v)
		}
	}
	return days, sessionIDs
}
