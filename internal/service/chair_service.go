package service

import (
	"strings"

	"go.uber.org/zap"

	"github.com/confplan/confplan/internal/models"
)

// ChairService assigns a chair to every regular session. A chair must be
// present that day, must not chair a session containing their own paper,
// must not present anywhere in the same parallel slot, and is never used
// twice within one slot. Among the eligible, topic affinity scores +100 and
// each prior assignment costs 10, spreading the load evenly.
type ChairService struct {
	logger *zap.Logger
}

func NewChairService(logger *zap.Logger) *ChairService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChairService{logger: logger}
}

// Assign mutates the programme in place. Chairs without explicit topics get
// them inferred from the preferences of papers they authored.
func (s *ChairService) Assign(prog *models.Program, chairs []models.Chair, papers []models.Paper) {
	if len(chairs) == 0 {
		s.logger.Warn("no chairs provided, skipping chair assignment")
		return
	}
	if len(papers) > 0 {
		inferChairTopics(chairs, papers)
	}

	load := make(map[int]int)

	for di := range prog.Days {
		day := prog.Days[di].Day
		for si := range prog.Days[di].Slots {
			slot := &prog.Days[di].Slots[si]
			if slot.TimeSlot.Kind != models.SlotSession {
				continue
			}
			usedInSlot := make(map[int]bool)

			for _, sess := range slot.Sessions {
				var best *models.Chair
				bestScore := 0
				for ci := range chairs {
					ch := &chairs[ci]
					if usedInSlot[ch.ChairID] {
						continue
					}
					if day < ch.ArrivalDay || day > ch.DepartureDay {
						continue
					}
					if chairPresentsInSlot(ch, slot.Sessions) {
						continue
					}

					score := 0
					if sess.Topic != nil && containsInt(ch.TopicIDs, sess.Topic.TopicID) {
						score += 100
					}
					score -= load[ch.ChairID] * 10

					if best == nil || score > bestScore {
						bestScore = score
						best = ch
					}
				}
				if best == nil {
					s.logger.Warn("no eligible chair for session",
						zap.String("session", sess.SessionID),
						zap.Int("day", day),
					)
					continue
				}
				chair := *best
				sess.Chair = &chair
				usedInSlot[best.ChairID] = true
				load[best.ChairID]++
			}
		}
	}

	prog.SetMeta("generated", "chairs_assigned")
	s.logger.Info("chairs assigned", zap.Int("chairs", len(chairs)))
}

// inferChairTopics fills empty TopicIDs by matching the chair's email or
// name against paper authors and collecting those papers' preferences,
// deduplicated in first-seen order.
func inferChairTopics(chairs []models.Chair, papers []models.Paper) {
	emailPrefs := make(map[string][]int)
	namePrefs := make(map[string][]int)
	for _, p := range papers {
		for _, a := range p.Authors {
			if a.Email != "" {
				key := strings.ToLower(a.Email)
				emailPrefs[key] = append(emailPrefs[key], p.PrefIDs...)
			}
			if a.Name != "" {
				key := strings.ToLower(a.Name)
				namePrefs[key] = append(namePrefs[key], p.PrefIDs...)
			}
		}
	}

	for i := range chairs {
		ch := &chairs[i]
		if len(ch.TopicIDs) > 0 {
			continue
		}
		var prefs []int
		if ch.Email != "" {
			prefs = append(prefs, emailPrefs[strings.ToLower(ch.Email)]...)
		}
		if ch.Name != "" {
			prefs = append(prefs, namePrefs[strings.ToLower(ch.Name)]...)
		}
		seen := make(map[int]bool, len(prefs))
		for _, tid := range prefs {
			if !seen[tid] {
				seen[tid] = true
				ch.TopicIDs = append(ch.TopicIDs, tid)
			}
		}
	}
}

// chairPresentsInSlot reports whether the chair authored a paper in any
// session of the slot. Matching is by lowercase email.
func chairPresentsInSlot(ch *models.Chair, sessions []*models.Session) bool {
	if ch.Email == "" {
		return false
	}
	email := strings.ToLower(ch.Email)
	for _, sess := range sessions {
		for _, p := range sess.Papers {
			for _, a := range p.Authors {
				if a.Email != "" && strings.ToLower(a.Email) == email {
					return true
				}
			}
		}
	}
	return false
}
