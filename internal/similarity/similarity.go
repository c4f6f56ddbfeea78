// Package similarity holds the precomputed semantic scores the engine
// consumes: paper↔topic scores and the topic↔topic matrix. Computing the
// embeddings is an external concern; this package only loads, saves and
// queries the results.
package similarity

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/confplan/confplan/internal/models"
)

// PaperTopicScores maps paper id -> topic id -> similarity in [0, 1].
type PaperTopicScores map[int]map[int]float64

// LoadPaperTopicScores reads a JSON score map keyed by stringified ids.
func LoadPaperTopicScores(path string) (PaperTopicScores, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read paper-topic scores: %w", err)
	}
	var raw map[string]map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode paper-topic scores: %w", err)
	}
	scores := make(PaperTopicScores, len(raw))
	for pidStr, topicScores := range raw {
		pid, err := strconv.Atoi(pidStr)
		if err != nil {
			return nil, fmt.Errorf("invalid paper id %q in scores", pidStr)
		}
		inner := make(map[int]float64, len(topicScores))
		for tidStr, s := range topicScores {
			tid, err := strconv.Atoi(tidStr)
			if err != nil {
				return nil, fmt.Errorf("invalid topic id %q in scores", tidStr)
			}
			inner[tid] = s
		}
		scores[pid] = inner
	}
	return scores, nil
}

// Save writes the score map as JSON with stringified ids.
func (s PaperTopicScores) Save(path string) error {
	raw := make(map[string]map[string]float64, len(s))
	for pid, topicScores := range s {
		inner := make(map[string]float64, len(topicScores))
		for tid, score := range topicScores {
			inner[strconv.Itoa(tid)] = score
		}
		raw[strconv.Itoa(pid)] = inner
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("encode paper-topic scores: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write paper-topic scores: %w", err)
	}
	return nil
}

// TopicMatrix is a symmetric topic↔topic similarity matrix with the topic
// ids and names it was computed over.
type TopicMatrix struct {
	TopicIDs   []int       `json:"topic_ids"`
	TopicNames []string    `json:"topic_names"`
	Values     [][]float64 `json:"matrix"`

	index map[int]int
}

// LoadTopicMatrix reads a matrix envelope saved by Save.
func LoadTopicMatrix(path string) (*TopicMatrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read topic matrix: %w", err)
	}
	var m TopicMatrix
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode topic matrix: %w", err)
	}
	if len(m.Values) != len(m.TopicIDs) {
		return nil, fmt.Errorf("topic matrix has %d rows for %d topics", len(m.Values), len(m.TopicIDs))
	}
	for i, row := range m.Values {
		if len(row) != len(m.TopicIDs) {
			return nil, fmt.Errorf("topic matrix row %d has %d columns for %d topics", i, len(row), len(m.TopicIDs))
		}
	}
	return &m, nil
}

// Save writes the matrix envelope as indented JSON.
func (m *TopicMatrix) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode topic matrix: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write topic matrix: %w", err)
	}
	return nil
}

// IndexOf returns the matrix row for a topic id, or -1 when absent.
func (m *TopicMatrix) IndexOf(topicID int) int {
	if m.index == nil {
		m.index = make(map[int]int, len(m.TopicIDs))
		for i, tid := range m.TopicIDs {
			m.index[tid] = i
		}
	}
	if i, ok := m.index[topicID]; ok {
		return i
	}
	return -1
}

// Sim returns the similarity between two topic ids, 0 when either is
// unknown to the matrix.
func (m *TopicMatrix) Sim(topicA, topicB int) float64 {
	if m == nil {
		return 0
	}
	i, j := m.IndexOf(topicA), m.IndexOf(topicB)
	if i < 0 || j < 0 {
		return 0
	}
	return m.Values[i][j]
}

// MergeSuggestion pairs two topics that could be merged.
type MergeSuggestion struct {
	TopicA models.Topic
	TopicB models.Topic
	Sim    float64
}

// SuggestMerges lists topic pairs whose similarity is at least threshold
// and where at least one side has prefCounts ≤ minPrefCount, sorted by
// similarity descending. This mirrors the grouping predicate without
// performing the merge.
func SuggestMerges(topics []models.Topic, m *TopicMatrix, prefCounts map[int]int, threshold float64, minPrefCount int) []MergeSuggestion {
	var out []MergeSuggestion
	if m == nil {
		return out
	}
	for i := 0; i < len(topics); i++ {
		for j := i + 1; j < len(topics); j++ {
			sim := m.Sim(topics[i].TopicID, topics[j].TopicID)
			if sim < threshold {
				continue
			}
			if prefCounts[topics[i].TopicID] <= minPrefCount || prefCounts[topics[j].TopicID] <= minPrefCount {
				out = append(out, MergeSuggestion{TopicA: topics[i], TopicB: topics[j], Sim: sim})
			}
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Sim > out[b].Sim })
	return out
}
