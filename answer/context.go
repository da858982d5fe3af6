package answer

import (
	"fmt"
	"math"
	"strings"

	"github.com/poiesic/engram/core"
)

// entrySeparator sits between context entries.
const entrySeparator = "\n\n"

// assembleContext formats ranked results into the prompt's context block,
// stopping before the first entry that would push the block past the budget.
// Entries are whole or absent, never truncated mid-entry. Returns the block
// and the results actually included, in rank order.
func assembleContext(results []core.SearchResult, budget int) (string, []core.SearchResult) {
	var b strings.Builder
	used := make([]core.SearchResult, 0, len(results))

	for _, result := range results {
		entry := formatEntry(&result)
		addition := len(entry)
		if b.Len() > 0 {
			addition += len(entrySeparator)
		}
		if b.Len()+addition > budget {
			break
		}
		if b.Len() > 0 {
			b.WriteString(entrySeparator)
		}
		b.WriteString(entry)
		used = append(used, result)
	}

	return b.String(), used
}

// formatEntry renders one record as "[KIND] title (NN%)" followed by the
// content on the next line.
func formatEntry(result *core.SearchResult) string {
	return fmt.Sprintf("[%s] %s (%d%%)\n%s",
		strings.ToUpper(string(result.Record.Kind)),
		result.Record.Title(),
		similarityPercent(result.Similarity),
		result.Record.Content)
}

// similarityPercent converts a cosine similarity to a whole percentage,
// clamped to 0 for the rare negative similarity.
func similarityPercent(similarity float32) int {
	pct := int(math.Round(float64(similarity) * 100))
	if pct < 0 {
		return 0
	}
	return pct
}
