package search

import (
	"strings"
	"time"

	"github.com/poiesic/engram/core"
)

// Weights blends similarity, recency, and kind affinity into one relevance
// score. Weights are fixed at searcher construction; callers cannot vary them
// per query, which keeps ranking deterministic.
type Weights struct {
	Similarity float64
	Recency    float64
	TypeBoost  float64
}

// DefaultWeights returns the standard 0.7/0.2/0.1 relevance blend.
func DefaultWeights() Weights {
	return Weights{Similarity: 0.7, Recency: 0.2, TypeBoost: 0.1}
}

// DefaultRecencyWindow is the age at which a record's recency score reaches zero.
const DefaultRecencyWindow = 30 * 24 * time.Hour

// kindBoost is the flat bonus a record earns when the query vocabulary
// matches its kind. At most one boost applies per record per query since a
// record has exactly one kind.
const kindBoost = 0.3

// Query vocabularies per kind, matched as substrings of the lowercased query.
var (
	taskVocab = []string{
		"deadline", "due", "todo", "to do", "assignment", "task", "homework", "pending",
	}
	noteVocab = []string{
		"explain", "explanation", "definition", "define", "concept", "note", "summary",
	}
	studySessionVocab = []string{
		"study", "studied", "learn", "review", "session", "practice",
	}
)

// recencyScore maps record age onto [0,1]: 1 for brand-new content, linear
// decay over the window, floored at 0. Future-dated content scores 1, never more.
func recencyScore(createdAtMs int64, now time.Time, window time.Duration) float64 {
	if window <= 0 {
		return 0
	}
	age := now.Sub(time.UnixMilli(createdAtMs))
	if age <= 0 {
		return 1
	}
	score := 1 - float64(age)/float64(window)
	if score < 0 {
		return 0
	}
	return score
}

// typeBoost returns kindBoost when the lowercased query matches the
// vocabulary of the record's kind, else 0.
func typeBoost(kind core.Kind, loweredQuery string) float64 {
	var vocab []string
	switch kind {
	case core.KindTask:
		vocab = taskVocab
	case core.KindNote:
		vocab = noteVocab
	case core.KindStudySession:
		vocab = studySessionVocab
	default:
		return 0
	}
	for _, term := range vocab {
		if strings.Contains(loweredQuery, term) {
			return kindBoost
		}
	}
	return 0
}

// relevance computes the blended ranking score for one record against an
// already-lowercased query.
func (w Weights) relevance(similarity float32, record *core.VectorizedRecord, loweredQuery string, now time.Time, window time.Duration) float64 {
	return w.Similarity*float64(similarity) +
		w.Recency*recencyScore(record.CreatedAtMs, now, window) +
		w.TypeBoost*typeBoost(record.Kind, loweredQuery)
}
