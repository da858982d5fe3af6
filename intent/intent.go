package intent

import (
	"strings"

	"github.com/poiesic/engram/core"
)

// Intent captures the record filters implied by a question's wording.
// The zero value means no filtering. Intents are derived per query and never
// persisted.
type Intent struct {
	Statuses         []string
	Priorities       []string
	Kinds            []core.Kind
	ExcludeCompleted bool
}

// IsZero reports whether the intent carries no filters.
func (i Intent) IsZero() bool {
	return len(i.Statuses) == 0 &&
		len(i.Priorities) == 0 &&
		len(i.Kinds) == 0 &&
		!i.ExcludeCompleted
}

// Filter converts the intent into a store list filter. This is the single
// conversion point: a new Intent field has to be mapped here or it silently
// does nothing, so keep the two structs in sync.
func (i Intent) Filter() core.ListFilter {
	return core.ListFilter{
		Kinds:            i.Kinds,
		Statuses:         i.Statuses,
		Priorities:       i.Priorities,
		ExcludeCompleted: i.ExcludeCompleted,
	}
}

// Vocabularies matched against the question. Single words match whole tokens;
// terms containing a space match as phrases.
var (
	completedVocab = []string{
		"done", "completed", "finished", "accomplished", "submitted",
	}
	pendingVocab = []string{
		"pending", "incomplete", "unfinished", "todo", "todos",
		"remaining", "outstanding", "open", "left", "to do",
	}
	highPriorityVocab = []string{
		"urgent", "important", "critical", "asap", "overdue",
		"high priority", "due soon",
	}
	lowPriorityVocab = []string{
		"optional", "minor", "someday", "whenever", "low priority",
	}
	taskKindVocab = []string{
		"task", "tasks", "assignment", "assignments", "homework",
		"deadline", "deadlines", "due", "todo", "todos", "to do",
	}
	courseKindVocab = []string{
		"course", "courses", "class", "classes", "subject", "subjects",
		"lecture", "lectures", "material", "materials", "syllabus",
	}
)

// Classify derives an Intent from the question text. Pure pattern matching,
// no network calls; unrecognized questions yield the zero Intent so retrieval
// degrades to an unfiltered search.
func Classify(question string) Intent {
	var intent Intent

	lowered := strings.ToLower(question)
	tokens := tokenSet(lowered)

	// Status: completed detection wins when both vocabularies appear
	switch {
	case matchesAny(lowered, tokens, completedVocab):
		intent.Statuses = []string{core.StatusCompleted}
	case matchesAny(lowered, tokens, pendingVocab):
		intent.Statuses = []string{core.StatusTodo, core.StatusInProgress}
		intent.ExcludeCompleted = true
	}

	// Priority: high outranks low
	switch {
	case matchesAny(lowered, tokens, highPriorityVocab):
		intent.Priorities = []string{core.PriorityHigh}
	case matchesAny(lowered, tokens, lowPriorityVocab):
		intent.Priorities = []string{core.PriorityLow}
	}

	// Kind: task vocabulary before course vocabulary; otherwise unrestricted
	switch {
	case matchesAny(lowered, tokens, taskKindVocab):
		intent.Kinds = []core.Kind{core.KindTask}
	case matchesAny(lowered, tokens, courseKindVocab):
		intent.Kinds = []core.Kind{core.KindCourseMaterial}
	}

	return intent
}

// tokenSet splits the lowercased question into punctuation-trimmed words.
func tokenSet(lowered string) map[string]bool {
	set := make(map[string]bool)
	for _, word := range strings.Fields(lowered) {
		cleaned := strings.Trim(word, ".,!?;:'\"-()[]{}")
		if cleaned != "" {
			set[cleaned] = true
		}
	}
	return set
}

// matchesAny reports whether any vocabulary term appears in the question.
// Whole-token matching for single words avoids false hits inside longer words
// ("due" never matches "schedule").
func matchesAny(lowered string, tokens map[string]bool, vocab []string) bool {
	for _, term := range vocab {
		if strings.ContainsRune(term, ' ') {
			if strings.Contains(lowered, term) {
				return true
			}
		} else if tokens[term] {
			return true
		}
	}
	return false
}
