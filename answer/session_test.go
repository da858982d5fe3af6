package answer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_AppendAndLen(t *testing.T) {
	session := NewSession()
	assert.Equal(t, 0, session.Len())

	session.Append("what is due this week", &Response{Answer: "The lab report is due Friday.", Confidence: 80})
	session.Append("anything after that", &Response{Answer: "Nothing else is scheduled.", Confidence: 60})

	assert.Equal(t, 2, session.Len())
}

func TestSession_Recent(t *testing.T) {
	session := NewSession()
	session.Append("first question", &Response{Answer: "First answer."})
	session.Append("second question", &Response{Answer: "Second answer."})
	session.Append("third question", &Response{Answer: "Third answer."})

	t.Run("last n, oldest first", func(t *testing.T) {
		recent := session.Recent(2)
		require.Len(t, recent, 2)
		assert.Equal(t, "second question", recent[0].Question)
		assert.Equal(t, "third question", recent[1].Question)
	})

	t.Run("non-positive n returns everything", func(t *testing.T) {
		assert.Len(t, session.Recent(0), 3)
		assert.Len(t, session.Recent(-1), 3)
	})

	t.Run("n beyond history returns everything", func(t *testing.T) {
		assert.Len(t, session.Recent(10), 3)
	})

	t.Run("returns a copy", func(t *testing.T) {
		recent := session.Recent(1)
		recent[0].Question = "mutated"
		assert.Equal(t, "third question", session.Recent(1)[0].Question)
	})
}

func TestSession_RecentEmpty(t *testing.T) {
	session := NewSession()
	assert.Empty(t, session.Recent(3))
}

func TestSession_TranscriptPrompt(t *testing.T) {
	session := NewSession()

	t.Run("empty history renders nothing", func(t *testing.T) {
		assert.Equal(t, "", session.TranscriptPrompt(5))
	})

	session.Append("what is due this week", &Response{Answer: "The lab report is due Friday."})
	session.Append("when should I start", &Response{Answer: "Start by Wednesday to leave time for revisions."})

	t.Run("renders question and answer pairs", func(t *testing.T) {
		expected := "Earlier in this conversation:\n" +
			"Q: what is due this week\nA: The lab report is due Friday.\n" +
			"Q: when should I start\nA: Start by Wednesday to leave time for revisions."
		assert.Equal(t, expected, session.TranscriptPrompt(0))
	})

	t.Run("limits to the most recent exchanges", func(t *testing.T) {
		transcript := session.TranscriptPrompt(1)
		assert.Contains(t, transcript, "Q: when should I start")
		assert.NotContains(t, transcript, "Q: what is due this week")
	})
}
