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


// Package intent derives record filters from natural-language questions.
//
// Classify inspects a question's vocabulary and produces an Intent: optional
// status, priority, and kind restrictions that narrow retrieval before
// scoring. "What's still pending?" filters to open tasks; "what did I finish
// this week?" filters to completed ones.
//
// Classification is a best-effort keyword heuristic. False negatives are
// expected and harmless: an unrecognized question produces the zero Intent
// and retrieval proceeds unfiltered. Two resolution rules are fixed:
// completed vocabulary outranks pending vocabulary when both appear, and
// high-priority vocabulary outranks low.
package intent
