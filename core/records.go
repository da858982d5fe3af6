package core

import (
	"slices"
	"strings"
	"time"
)

// Kind classifies the source entity a record's content was extracted from.
type Kind string

const (
	// KindTask represents an actionable item with a status and optional due date.
	KindTask Kind = "task"
	// KindNote represents free-form user notes.
	KindNote Kind = "note"
	// KindCourseMaterial represents material attached to a course.
	KindCourseMaterial Kind = "course_material"
	// KindStudySession represents a logged study session.
	KindStudySession Kind = "study_session"
)

// Kinds returns every valid record kind.
func Kinds() []Kind {
	return []Kind{KindTask, KindNote, KindCourseMaterial, KindStudySession}
}

// Valid reports whether k is a known record kind.
func (k Kind) Valid() bool {
	switch k {
	case KindTask, KindNote, KindCourseMaterial, KindStudySession:
		return true
	}
	return false
}

// ParseKind converts a string into a Kind, rejecting unknown values.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", ErrUnknownKind
	}
	return k, nil
}

// Well-known metadata keys. Records carry open-ended string metadata; these
// keys are the ones the engine itself reads for filtering and display.
const (
	MetaOwnerID  = "ownerId"
	MetaTitle    = "title"
	MetaStatus   = "status"
	MetaPriority = "priority"
	MetaCourseID = "courseId"
	MetaDueDate  = "dueDate"
)

// Status values stored under MetaStatus.
const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Priority values stored under MetaPriority.
const (
	PriorityHigh = "high"
	PriorityLow  = "low"
)

// VectorizedRecord is one unit of indexed content: normalized text plus its
// embedding and the metadata needed for filtering and ranking. Records are
// keyed by Id; indexing the same Id again replaces the stored record.
type VectorizedRecord struct {
	Id          string
	Content     string
	Kind        Kind
	Embedding   []float32         // Unit-length vector (populated at indexing time)
	Metadata    map[string]string // ownerId is mandatory; see Meta* keys
	CreatedAtMs int64             // Epoch milliseconds, set when the record is indexed
}

// Owner returns the record's owner id, or "" when unset.
func (r *VectorizedRecord) Owner() string {
	return r.Metadata[MetaOwnerID]
}

// CreatedAt returns the indexing time as a time.Time.
func (r *VectorizedRecord) CreatedAt() time.Time {
	return time.UnixMilli(r.CreatedAtMs)
}

// Title returns the display title from metadata, falling back to a short
// prefix of the content when no title was provided.
func (r *VectorizedRecord) Title() string {
	if t := r.Metadata[MetaTitle]; t != "" {
		return t
	}
	const max = 40
	content := strings.TrimSpace(r.Content)
	if len(content) <= max {
		return content
	}
	cut := strings.LastIndexByte(content[:max], ' ')
	if cut <= 0 {
		cut = max
	}
	return content[:cut] + "..."
}

// SearchResult pairs a record with its similarity to the query and the
// blended relevance score used for ranking.
type SearchResult struct {
	Record     VectorizedRecord
	Similarity float32
	Relevance  float64
}

// StoreStats summarizes the contents of the vector store.
type StoreStats struct {
	Count         int
	ByKind        map[Kind]int
	LastIndexedAt time.Time // Zero when nothing has been indexed yet
}

// ListFilter narrows record listings. The zero value matches every record of
// the requested owner. Slice fields are OR within the field and AND across
// fields.
type ListFilter struct {
	Kinds            []Kind
	Statuses         []string
	Priorities       []string
	CourseID         string
	ExcludeCompleted bool
}

// Match reports whether the record passes the filter. Owner scoping happens
// before Match is consulted; the filter never widens ownership.
func (f *ListFilter) Match(r *VectorizedRecord) bool {
	if len(f.Kinds) > 0 && !slices.Contains(f.Kinds, r.Kind) {
		return false
	}
	status := r.Metadata[MetaStatus]
	if f.ExcludeCompleted && status == StatusCompleted {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, status) {
		return false
	}
	if len(f.Priorities) > 0 && !slices.Contains(f.Priorities, r.Metadata[MetaPriority]) {
		return false
	}
	if f.CourseID != "" && r.Metadata[MetaCourseID] != f.CourseID {
		return false
	}
	return true
}
