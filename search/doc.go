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


// Package search provides semantic and hybrid retrieval over vectorized records.
//
// The Searcher type ranks an owner's records by a blended relevance score
// combining:
//   - Cosine similarity between query and record embeddings
//   - Recency decay over a configurable window
//   - A kind boost when the query vocabulary suggests the record's kind
//
// Hybrid search adds an independent keyword-overlap pass and reweights
// records matched by both paths, so exact-term matches surface even when the
// embedding signal is weak.
//
// All retrieval is owner-scoped: records are filtered by owner before any
// scoring, and optional intent filters can only narrow within that scope.
package search
