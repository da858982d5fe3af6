package answer

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/poiesic/engram/ai"
	"github.com/poiesic/engram/core"
	"github.com/poiesic/engram/intent"
	"github.com/poiesic/engram/search"
)

// Defaults for the answer path.
const (
	// DefaultTopK caps how many retrieved records feed the context block.
	DefaultTopK = 5

	// DefaultMinSimilarity is stricter than generic search because the
	// retrieved records feed a generation step.
	DefaultMinSimilarity = float32(0.4)

	// DefaultContextBudget caps the assembled context block, in characters.
	DefaultContextBudget = 2000

	// ConfidenceCap keeps reported confidence below certainty.
	ConfidenceCap = 95
)

// Canned responses for the degraded paths. The orchestrator always produces a
// well-formed answer, including when there is nothing to retrieve or an
// internal step fails.
const (
	clarifyAnswer = "Could you rephrase that? I need a bit more detail to find the right study records."

	guidanceAnswer = "I couldn't find anything matching that in your indexed study data. " +
		"Try re-indexing your content, or ask again without filters like \"pending\" or \"completed\"."

	problemAnswer = "I ran into a problem answering that. Please try again."
)

// Options tunes one Answer call.
type Options struct {
	// TopK caps retrieval. Non-positive uses DefaultTopK.
	TopK int

	// MinSimilarity is the retrieval floor. Non-positive uses
	// DefaultMinSimilarity.
	MinSimilarity float32

	// ContextBudget caps the context block in characters. Non-positive uses
	// DefaultContextBudget.
	ContextBudget int
}

// normalized resolves nil and zero fields to the package defaults.
func (o *Options) normalized() Options {
	resolved := Options{
		TopK:          DefaultTopK,
		MinSimilarity: DefaultMinSimilarity,
		ContextBudget: DefaultContextBudget,
	}
	if o == nil {
		return resolved
	}
	if o.TopK > 0 {
		resolved.TopK = o.TopK
	}
	if o.MinSimilarity > 0 {
		resolved.MinSimilarity = o.MinSimilarity
	}
	if o.ContextBudget > 0 {
		resolved.ContextBudget = o.ContextBudget
	}
	return resolved
}

// Response is the orchestrator's result. Answer is always non-empty; Sources
// lists the records actually used for the context block, for citation
// display; Confidence ranges 0 to ConfidenceCap.
type Response struct {
	Answer     string
	Sources    []core.SearchResult
	Confidence int
}

// Answerer orchestrates retrieval-augmented answering: it classifies the
// question's intent, retrieves and ranks matching records, assembles a
// bounded context block, and delegates text generation.
//
// Answer is a no-throw boundary: internal failures degrade into a canned
// Response, and only context cancellation is returned as an error.
type Answerer struct {
	searcher  *search.Searcher
	generator ai.Generator
	logger    *slog.Logger
}

// Option configures an Answerer.
type Option func(*Answerer) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Answerer) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// NewAnswerer creates a new answer orchestrator.
func NewAnswerer(searcher *search.Searcher, generator ai.Generator, opts ...Option) (*Answerer, error) {
	if searcher == nil {
		return nil, ErrSearcherRequired
	}
	if generator == nil {
		return nil, ErrGeneratorRequired
	}

	a := &Answerer{
		searcher:  searcher,
		generator: generator,
		logger:    slog.Default().With("component", "answerer"),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	return a, nil
}

// Answer responds to a natural-language question using the owner's indexed
// records. The returned Response is always usable; an error is returned only
// when ctx is cancelled.
func (a *Answerer) Answer(ctx context.Context, question, ownerID string, opts *Options) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resolved := opts.normalized()

	question = strings.TrimSpace(question)
	if question == "" {
		return &Response{Answer: clarifyAnswer, Confidence: 0}, nil
	}

	queryIntent := intent.Classify(question)

	results, err := a.searcher.Search(ctx, question, ownerID, &search.Options{
		TopK:          resolved.TopK,
		MinSimilarity: resolved.MinSimilarity,
		Filter:        queryIntent.Filter(),
	})
	if err != nil {
		return a.degrade(ctx, "retrieval", err)
	}

	if len(results) == 0 {
		return a.answerEmpty(ctx, question, ownerID, queryIntent, resolved)
	}

	contextBlock, used := assembleContext(results, resolved.ContextBudget)
	if len(used) == 0 {
		// Nothing fit the budget; treat like an empty retrieval
		a.logger.Warn("no retrieved entry fit the context budget",
			"budget", resolved.ContextBudget, "results", len(results))
		return &Response{Answer: guidanceAnswer, Confidence: 0}, nil
	}
	confidence := confidenceFrom(used)

	generated, err := a.generator.Generate(ctx, buildPrompt(contextBlock, question))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		a.logger.Warn("generation failed, falling back to source summary", "error", err)
		return &Response{Answer: offlineSummary(used), Sources: used, Confidence: confidence}, nil
	}

	return &Response{
		Answer:     postprocess(generated),
		Sources:    used,
		Confidence: confidence,
	}, nil
}

// answerEmpty handles the no-results paths: the all-caught-up check for
// pending-only questions, and the guidance response otherwise.
func (a *Answerer) answerEmpty(ctx context.Context, question, ownerID string, queryIntent intent.Intent, resolved Options) (*Response, error) {
	// When the question asked for pending work, check whether everything is
	// simply done before claiming there is no data at all.
	if queryIntent.ExcludeCompleted {
		completed, err := a.searcher.Search(ctx, question, ownerID, &search.Options{
			TopK:          resolved.TopK,
			MinSimilarity: resolved.MinSimilarity,
			Filter:        core.ListFilter{Statuses: []string{core.StatusCompleted}},
		})
		if err != nil {
			return a.degrade(ctx, "completed recovery", err)
		}
		if len(completed) > 0 {
			return &Response{
				Answer:     allDoneAnswer(completed),
				Sources:    completed,
				Confidence: confidenceFrom(completed),
			}, nil
		}
	}

	return &Response{Answer: guidanceAnswer, Confidence: 0}, nil
}

// degrade converts an internal failure into the neutral response, unless the
// context was cancelled, which is the one error callers see.
func (a *Answerer) degrade(ctx context.Context, stage string, err error) (*Response, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	a.logger.Warn("answer degraded", "stage", stage, "error", err)
	return &Response{Answer: problemAnswer, Confidence: 0}, nil
}

// confidenceFrom scales the mean similarity of the used entries to a
// percentage, capped at ConfidenceCap so the result never reads as certainty.
func confidenceFrom(used []core.SearchResult) int {
	if len(used) == 0 {
		return 0
	}
	var sum float64
	for _, result := range used {
		sum += float64(result.Similarity)
	}
	confidence := int(math.Round(sum / float64(len(used)) * 100))
	if confidence > ConfidenceCap {
		confidence = ConfidenceCap
	}
	if confidence < 0 {
		confidence = 0
	}
	return confidence
}

// allDoneAnswer acknowledges that nothing matching is pending, citing the
// completed records found by the recovery search.
func allDoneAnswer(completed []core.SearchResult) string {
	var b strings.Builder
	b.WriteString("You're all caught up: nothing matching is still pending.")
	b.WriteString(" Recently completed:\n")
	for _, result := range completed {
		fmt.Fprintf(&b, "- %s\n", result.Record.Title())
	}
	return strings.TrimRight(b.String(), "\n")
}

// offlineSummary lists the most relevant sources when generation is
// unavailable. Deterministic, so a flaky provider still yields a stable,
// useful response.
func offlineSummary(sources []core.SearchResult) string {
	var b strings.Builder
	b.WriteString("I couldn't reach the answer service, but these records look most relevant:\n")
	for _, result := range sources {
		fmt.Fprintf(&b, "- [%s] %s (%d%%)\n",
			strings.ToUpper(string(result.Record.Kind)),
			result.Record.Title(),
			similarityPercent(result.Similarity))
	}
	return strings.TrimRight(b.String(), "\n")
}
