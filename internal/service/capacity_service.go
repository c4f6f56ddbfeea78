package service

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/confplan/confplan/internal/models"
	"github.com/confplan/confplan/pkg/config"
	"github.com/confplan/confplan/pkg/errors"
)

// CapacityReport compares the number of papers to place against the talk
// slots the skeleton actually offers.
type CapacityReport struct {
	TotalPapers   int      `json:"total_papers"`
	TotalCapacity int      `json:"total_capacity"`
	Deficit       int      `json:"deficit"`
	Sessions      int      `json:"sessions"`
	FixedSessions int      `json:"fixed_sessions"`
	Suggestions   []string `json:"suggestions,omitempty"`
}

// Feasible reports whether every paper has a slot to land in.
func (r *CapacityReport) Feasible() bool { return r.Deficit <= 0 }

// Summary renders the report as a short human-readable string.
func (r *CapacityReport) Summary() string {
	if r.Feasible() {
		return fmt.Sprintf("capacity ok: %d papers, %d slots (%d spare)",
			r.TotalPapers, r.TotalCapacity, r.TotalCapacity-r.TotalPapers)
	}
	return fmt.Sprintf("capacity deficit: %d papers, %d slots (%d short)",
		r.TotalPapers, r.TotalCapacity, r.Deficit)
}

// CapacityService analyzes a programme skeleton before any assignment runs.
// It is read-only: analyzing the same programme twice yields the same report.
type CapacityService struct {
	logger *zap.Logger
}

func NewCapacityService(logger *zap.Logger) *CapacityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CapacityService{logger: logger}
}

// Analyze counts assignable talk slots across all non-fixed sessions and
// compares them against the paper count.
func (s *CapacityService) Analyze(prog *models.Program, cfg *config.ScheduleConfig, numPapers int) *CapacityReport {
	report := &CapacityReport{TotalPapers: numPapers}
	for _, sess := range prog.Sessions() {
		if sess.IsFixed {
			report.FixedSessions++
			continue
		}
		report.Sessions++
		report.TotalCapacity += sess.Capacity(cfg.PresentationDurationMin)
	}
	report.Deficit = report.TotalPapers - report.TotalCapacity
	if report.Deficit > 0 {
		report.Suggestions = s.suggestions(report, cfg)
	}

	s.logger.Info("capacity analyzed",
		zap.Int("papers", report.TotalPapers),
		zap.Int("capacity", report.TotalCapacity),
		zap.Int("deficit", report.Deficit),
	)
	return report
}

// Check returns a typed capacity error when the report shows a deficit,
// unless force is set.
func (s *CapacityService) Check(report *CapacityReport, force bool) error {
	if report.Feasible() {
		return nil
	}
	if force {
		s.logger.Warn("capacity deficit overridden",
			zap.Int("deficit", report.Deficit))
		return nil
	}
	return errors.New(errors.ErrCapacity, report.Summary())
}

// suggestions lists the config knobs that would close the gap, the same
// list the planning team works through by hand: more rooms, more days,
// shorter talks, longer days, fewer breaks.
func (s *CapacityService) suggestions(report *CapacityReport, cfg *config.ScheduleConfig) []string {
	var out []string

	perSession := cfg.PapersPerSession()
	if perSession > 0 {
		missing := (report.Deficit + perSession - 1) / perSession
		extraRooms := missing
		if cfg.NumDays > 0 {
			extraRooms = (missing + cfg.NumDays - 1) / cfg.NumDays
		}
		out = append(out, fmt.Sprintf("add %d more session(s): raising num_available_rooms / max_rooms_per_day by %d would cover the deficit", missing, extraRooms))
	}

	if cfg.NumDays > 0 {
		extraDays := 1
		if perDay := report.TotalCapacity / cfg.NumDays; perDay > 0 {
			extraDays = (report.Deficit + perDay - 1) / perDay
		}
		out = append(out, fmt.Sprintf("raise num_days by %d", extraDays))
	}

	// Shorter presentations raise the per-session capacity.
	if cur := cfg.PresentationDurationMin; cur > 5 {
		shorter := cur - 5
		if shorter < 5 {
			shorter = 5
		}
		out = append(out, fmt.Sprintf("reduce presentation_duration_min from %d to %d min (~%d slots)",
			cur, shorter, report.TotalCapacity*cur/shorter))
	}

	out = append(out, fmt.Sprintf("extend day_start / day_end (currently %s-%s) to add session time",
		cfg.DayStart, cfg.DayEnd))

	if breaks := enabledBreaks(cfg); len(breaks) > 0 {
		out = append(out, "remove or shorten breaks ("+strings.Join(breaks, ", ")+")")
	}

	return out
}

func enabledBreaks(cfg *config.ScheduleConfig) []string {
	var names []string
	if cfg.MorningBreak {
		names = append(names, "morning_break")
	}
	if cfg.AfternoonBreak {
		names = append(names, "afternoon_break")
	}
	if cfg.LunchIncluded {
		names = append(names, "lunch")
	}
	return names
}
