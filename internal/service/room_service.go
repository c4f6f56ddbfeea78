package service

import (
	"sort"

	"go.uber.org/zap"

	"github.com/confplan/confplan/internal/constraint"
	"github.com/confplan/confplan/internal/models"
	"github.com/confplan/confplan/pkg/config"
)

// RoomService assigns rooms to every session in a programme. Plenary and
// other fixed sessions get their pinned room, or the largest one available.
// Regular sessions keep topic-to-room continuity across slots, and the rest
// are paired to rooms by descending popularity against descending capacity.
type RoomService struct {
	logger *zap.Logger
}

func NewRoomService(logger *zap.Logger) *RoomService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomService{logger: logger}
}

// Assign mutates the programme in place. Room-day constraints restrict
// which rooms a day may use; when they exclude every room the restriction
// is ignored for that day rather than leaving sessions roomless.
func (s *RoomService) Assign(prog *models.Program, rooms []models.Room, cfg *config.ScheduleConfig, papers []models.Paper) {
	tables := constraint.Interpret(cfg.Constraints, s.logger)
	topicPop := topicPopularity(papers)

	pinned := make(map[models.TimeSlot]string)
	for _, ps := range cfg.PlenarySlots {
		if ps.Room == "" {
			continue
		}
		pinned[models.TimeSlot{Day: ps.Day, Start: ps.Start}] = ps.Room
	}
	roomByName := make(map[string]models.Room, len(rooms))
	for _, r := range rooms {
		roomByName[r.Name] = r
	}

	sorted := make([]models.Room, len(rooms))
	copy(sorted, rooms)
	sort.SliceStable(sorted, func(a, b int) bool { return sorted[a].Capacity > sorted[b].Capacity })

	// topic id -> last room used, carried across slots and days.
	prevTopicRoom := make(map[int]models.Room)

	for di := range prog.Days {
		day := prog.Days[di].Day
		available := make([]models.Room, 0, len(sorted))
		for _, r := range sorted {
			allowed, constrained := tables.RoomDays[r.Name]
			if !constrained || containsInt(allowed, day) {
				available = append(available, r)
			}
		}
		if len(available) == 0 {
			available = sorted
		}

		for si := range prog.Days[di].Slots {
			slot := &prog.Days[di].Slots[si]
			switch slot.TimeSlot.Kind {
			case models.SlotPlenary, models.SlotPreliminary:
				for _, sess := range slot.Sessions {
					if sess.Room != nil {
						continue
					}
					key := models.TimeSlot{Day: day, Start: slot.TimeSlot.Start}
					if name, ok := pinned[key]; ok {
						if r, ok := roomByName[name]; ok {
							room := r
							sess.Room = &room
							continue
						}
						s.logger.Warn("pinned room not found", zap.String("room", name), zap.String("session", sess.SessionID))
					}
					if len(available) > 0 {
						room := available[0]
						sess.Room = &room
					}
				}
				continue
			case models.SlotSession:
			default:
				continue
			}

			used := make(map[int]bool)

			// Continuity first: a topic stays in its previous room when
			// that room is free in this slot.
			for _, sess := range slot.Sessions {
				if sess.Topic == nil {
					continue
				}
				candidate, ok := prevTopicRoom[sess.Topic.TopicID]
				if !ok || used[candidate.RoomID] || !roomAvailable(available, candidate.RoomID) {
					continue
				}
				room := candidate
				sess.Room = &room
				used[candidate.RoomID] = true
			}

			// Then most popular sessions take the largest free rooms.
			var unassigned []*models.Session
			for _, sess := range slot.Sessions {
				if sess.Room == nil {
					unassigned = append(unassigned, sess)
				}
			}
			sort.SliceStable(unassigned, func(a, b int) bool {
				return sessionPopularity(unassigned[a], topicPop) > sessionPopularity(unassigned[b], topicPop)
			})
			var free []models.Room
			for _, r := range available {
				if !used[r.RoomID] {
					free = append(free, r)
				}
			}
			for idx, sess := range unassigned {
				if idx >= len(free) {
					s.logger.Warn("no room left for session", zap.String("session", sess.SessionID))
					break
				}
				room := free[idx]
				sess.Room = &room
				used[room.RoomID] = true
			}

			for _, sess := range slot.Sessions {
				if sess.Topic != nil && sess.Room != nil {
					prevTopicRoom[sess.Topic.TopicID] = *sess.Room
				}
			}
		}
	}

	prog.SetMeta("generated", "rooms_assigned")
	s.logger.Info("rooms assigned", zap.Int("rooms", len(rooms)))
}

func topicPopularity(papers []models.Paper) map[int]int {
	pop := make(map[int]int)
	for _, p := range papers {
		for _, tid := range p.PrefIDs {
			pop[tid]++
		}
	}
	return pop
}

// sessionPopularity estimates audience size: assigned papers when present,
// topic preference counts otherwise.
func sessionPopularity(sess *models.Session, topicPop map[int]int) int {
	if len(sess.Papers) > 0 {
		return len(sess.Papers)
	}
	if sess.Topic != nil {
		return topicPop[sess.Topic.TopicID]
	}
	return 0
}

func roomAvailable(rooms []models.Room, roomID int) bool {
	for _, r := range rooms {
		if r.RoomID == roomID {
			return true
		}
	}
	return false
}
