package service

import (
	"sort"

	"go.uber.org/zap"

	"github.com/confplan/confplan/internal/models"
	"github.com/confplan/confplan/internal/similarity"
)

// TopicGroups clusters topic ids under a canonical topic so small or
// near-duplicate topics share sessions. Order keeps the canonical ids in
// their original topic order to make every downstream pass deterministic.
type TopicGroups struct {
	Order   []int
	Members map[int][]int
}

// MembersOf returns the member topic ids of a canonical topic. An unknown
// id is its own single-member group.
func (g *TopicGroups) MembersOf(canonical int) []int {
	if m, ok := g.Members[canonical]; ok {
		return m
	}
	return []int{canonical}
}

// TopicService groups topics and assigns a canonical topic to every
// non-fixed session ahead of paper placement.
type TopicService struct {
	logger *zap.Logger
}

func NewTopicService(logger *zap.Logger) *TopicService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TopicService{logger: logger}
}

// BuildGroups merges topics pairwise in a single forward pass: a later
// topic joins an earlier one when their similarity reaches the threshold
// and either side has at most minGroupSize first-preference papers. A
// merged topic never merges again.
func (s *TopicService) BuildGroups(papers []models.Paper, topics []models.Topic, matrix *similarity.TopicMatrix, mergeThreshold float64, minGroupSize int) *TopicGroups {
	groups := &TopicGroups{Members: make(map[int][]int, len(topics))}
	for _, t := range topics {
		groups.Order = append(groups.Order, t.TopicID)
		groups.Members[t.TopicID] = []int{t.TopicID}
	}
	if matrix == nil {
		return groups
	}

	prefCount := make(map[int]int)
	for _, p := range papers {
		if len(p.PrefIDs) > 0 {
			prefCount[p.PrefIDs[0]]++
		}
	}

	merged := make(map[int]bool)
	for i, tidI := range groups.Order {
		if merged[tidI] {
			continue
		}
		for _, tidJ := range groups.Order[i+1:] {
			if merged[tidJ] {
				continue
			}
			sim := matrix.Sim(tidI, tidJ)
			if sim < mergeThreshold {
				continue
			}
			if prefCount[tidI] > minGroupSize && prefCount[tidJ] > minGroupSize {
				continue
			}
			groups.Members[tidI] = append(groups.Members[tidI], tidJ)
			delete(groups.Members, tidJ)
			merged[tidJ] = true
			s.logger.Info("merging topics",
				zap.Int("topic", tidJ),
				zap.Int("into", tidI),
				zap.Float64("sim", sim),
				zap.Int("count", prefCount[tidJ]),
				zap.Int("into_count", prefCount[tidI]),
			)
		}
	}

	kept := groups.Order[:0]
	for _, tid := range groups.Order {
		if !merged[tid] {
			kept = append(kept, tid)
		}
	}
	groups.Order = kept
	return groups
}

// PaperTopicScore rates placing a paper in a session carrying the given
// canonical topic. Priority: sentence-embedding paper scores when present,
// then a direct preference match (100 first choice, 60 second), then a
// topic-similarity fallback scaled to 1..40, then a baseline of 1 so every
// paper can land somewhere.
func PaperTopicScore(paper models.Paper, canonical int, groups *TopicGroups, scores similarity.PaperTopicScores, matrix *similarity.TopicMatrix) int {
	members := groups.MembersOf(canonical)

	if pscores, ok := scores[paper.PaperID]; ok {
		best := 0.0
		for _, tid := range members {
			if v, ok := pscores[tid]; ok && v > best {
				best = v
			}
		}
		return int(best * 100)
	}

	weights := []int{100, 60}
	for rank, weight := range weights {
		if rank >= len(paper.PrefIDs) {
			break
		}
		for _, tid := range members {
			if paper.PrefIDs[rank] == tid {
				return weight
			}
		}
	}

	if matrix != nil && len(paper.PrefIDs) > 0 {
		best := 0.0
		for _, pref := range paper.PrefIDs {
			for _, tid := range members {
				if sim := matrix.Sim(pref, tid); sim > best {
					best = sim
				}
			}
		}
		if best > 0 {
			return max(1, int(best*40))
		}
	}

	return 1
}

// PlaceTopics greedily maps each non-fixed session index to a canonical
// topic. Largest topics claim sessions first; with diversity on, a topic
// already present in the same parallel slot costs 1000 per duplicate and
// 10 per duplicate on the same day. Leftover sessions absorb whichever
// topic still has the most overflow.
func (s *TopicService) PlaceTopics(sessions []*models.Session, papers []models.Paper, groups *TopicGroups, caps []int, diversity bool) map[int]int {
	paperCount := make(map[int]int)
	for _, p := range papers {
		if len(p.PrefIDs) == 0 {
			continue
		}
		for _, ctid := range groups.Order {
			if containsInt(groups.MembersOf(ctid), p.PrefIDs[0]) {
				paperCount[ctid]++
				break
			}
		}
	}

	sorted := make([]int, 0, len(paperCount))
	for _, tid := range groups.Order {
		if paperCount[tid] > 0 {
			sorted = append(sorted, tid)
		}
	}
	sort.SliceStable(sorted, func(a, b int) bool {
		return paperCount[sorted[a]] > paperCount[sorted[b]]
	})

	used := make(map[int]bool)
	for j, sess := range sessions {
		if sess.IsFixed {
			used[j] = true
		}
	}

	type slotKey struct {
		day   int
		start string
	}
	sessSlot := make(map[int]slotKey, len(sessions))
	for j, sess := range sessions {
		if sess.TimeSlot != nil {
			sessSlot[j] = slotKey{sess.Day, sess.TimeSlot.Start}
		}
	}
	slotTopicCount := make(map[slotKey]map[int]int)
	dayTopicCount := make(map[int]map[int]int)

	penalty := func(j, ctid int) float64 {
		if !diversity {
			return 0
		}
		p := 0.0
		if sk, ok := sessSlot[j]; ok {
			p += float64(slotTopicCount[sk][ctid]) * 1000
		}
		p += float64(dayTopicCount[sessions[j].Day][ctid]) * 10
		return p
	}
	record := func(j, ctid int) {
		if sk, ok := sessSlot[j]; ok {
			if slotTopicCount[sk] == nil {
				slotTopicCount[sk] = make(map[int]int)
			}
			slotTopicCount[sk][ctid]++
		}
		day := sessions[j].Day
		if dayTopicCount[day] == nil {
			dayTopicCount[day] = make(map[int]int)
		}
		dayTopicCount[day][ctid]++
	}

	sessTopic := make(map[int]int)
	for _, ctid := range sorted {
		remaining := paperCount[ctid]
		for remaining > 0 {
			bestJ, bestScore := -1, 0.0
			for j := range sessions {
				if used[j] {
					continue
				}
				score := float64(caps[j]) - penalty(j, ctid)
				if bestJ < 0 || score > bestScore {
					bestScore = score
					bestJ = j
				}
			}
			if bestJ < 0 {
				s.logger.Warn("no sessions left for topic",
					zap.Int("topic", ctid),
					zap.Int("papers_remaining", remaining),
				)
				break
			}
			sessTopic[bestJ] = ctid
			used[bestJ] = true
			record(bestJ, ctid)
			remaining -= caps[bestJ]
		}
	}

	// Spare sessions take the topic with the most unplaced papers.
	overflow := make(map[int]int, len(paperCount))
	for ctid, count := range paperCount {
		placed := 0
		for j, t := range sessTopic {
			if t == ctid {
				placed += caps[j]
			}
		}
		overflow[ctid] = count - placed
	}
	for j := range sessions {
		if used[j] || len(overflow) == 0 {
			continue
		}
		bestTid, bestVal, found := 0, 0.0, false
		for _, ctid := range groups.Order {
			if _, ok := overflow[ctid]; !ok {
				continue
			}
			val := float64(overflow[ctid]) - penalty(j, ctid)
			if !found || val > bestVal {
				bestVal = val
				bestTid = ctid
				found = true
			}
		}
		if found {
			sessTopic[j] = bestTid
			record(j, bestTid)
			overflow[bestTid] -= caps[j]
			used[j] = true
		}
	}

	return sessTopic
}

func containsInt(values []int, want int) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
