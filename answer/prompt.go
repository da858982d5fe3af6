package answer

import (
	"fmt"
)

const answerPromptTemplate = `You are a study assistant answering a question using the student's own indexed study data.

Rules:
- Use ONLY the study records provided below. Do not invent tasks, notes, courses, or dates that are not in the records.
- Respect status values exactly: never describe a completed item as pending, or a pending item as completed.
- If the records do not contain enough information to answer, say so plainly instead of guessing.
- Mention which records informed the answer (by their titles) so the student can check the sources.
- Keep the answer short and direct.

Study records:
%s

Question: %s

Answer:`

// buildPrompt embeds the context block and the question into the generation
// prompt.
func buildPrompt(contextBlock, question string) string {
	return fmt.Sprintf(answerPromptTemplate, contextBlock, question)
}
