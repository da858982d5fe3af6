// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package answer

import "strings"

// MinAnswerLength is the shortest generated answer accepted as-is. Anything
// shorter reads as a generation glitch and is replaced with a clarifying
// response.
const MinAnswerLength = 10

// rolePrefixes are chat-role artifacts some models echo at the start of their
// output. Matched case-insensitively and stripped repeatedly.
var rolePrefixes = []string{"assistant:", "ai:", "answer:"}

// postprocess cleans generated text: trims whitespace, strips leading role
// prefixes, and collapses immediately repeated identical lines.
func postprocess(generated string) string {
	text := strings.TrimSpace(generated)

	// Models occasionally stack prefixes ("Assistant: Answer: ..."), so keep
	// stripping until none remain
	for stripped := true; stripped; {
		stripped = false
		lowered := strings.ToLower(text)
		for _, prefix := range rolePrefixes {
			if strings.HasPrefix(lowered, prefix) {
				text = strings.TrimSpace(text[len(prefix):])
				stripped = true
				break
			}
		}
	}

	// Collapse immediately repeated identical lines
	lines := strings.Split(text, "\n")
	deduped := make([]string, 0, len(lines))
	prev := ""
	for i, line := range lines {
		trimmed := strings.TrimRight(line, " \t")
		if i > 0 && trimmed == prev {
			continue
		}
		deduped = append(deduped, trimmed)
		prev = trimmed
	}
	text = strings.TrimSpace(strings.Join(deduped, "\n"))

	if len(text) < MinAnswerLength {
		return clarifyAnswer
	}
	return text
}
