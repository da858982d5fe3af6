package answer

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Exchange is one completed question/answer turn.
type Exchange struct {
	Question string
	Response Response
	AskedAt  time.Time
}

// Session accumulates conversation history on behalf of one caller. The
// engine itself never stores sessions: each UI surface owns its transcript
// and folds follow-up context into questions explicitly, so two screens can
// hold independent conversations against the same store.
//
// Session is not safe for concurrent use; it belongs to a single
// conversation.
type Session struct {
	exchanges []Exchange
}

// NewSession creates an empty conversation session.
func NewSession() *Session {
	return &Session{}
}

// Append records one completed exchange.
func (s *Session) Append(question string, response *Response) {
	s.exchanges = append(s.exchanges, Exchange{
		Question: question,
		Response: *response,
		AskedAt:  time.Now(),
	})
}

// Len returns the number of recorded exchanges.
func (s *Session) Len() int {
	return len(s.exchanges)
}

// Recent returns a copy of the last n exchanges, oldest first. Non-positive
// n, or n beyond the history, returns everything.
func (s *Session) Recent(n int) []Exchange {
	if n <= 0 || n > len(s.exchanges) {
		n = len(s.exchanges)
	}
	return slices.Clone(s.exchanges[len(s.exchanges)-n:])
}

// TranscriptPrompt renders the last n exchanges as a compact transcript the
// caller can prepend to a follow-up question. Empty history renders as "".
func (s *Session) TranscriptPrompt(n int) string {
	recent := s.Recent(n)
	if len(recent) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Earlier in this conversation:\n")
	for _, exchange := range recent {
		fmt.Fprintf(&b, "Q: %s\nA: %s\n", exchange.Question, exchange.Response.Answer)
	}
	return strings.TrimRight(b.String(), "\n")
}
