// Package answer turns natural-language questions into grounded answers
// over a caller's indexed study records.
//
// The Answerer type orchestrates the full pipeline for each question:
//   - Classifying the question into a retrieval filter (intent package)
//   - Retrieving relevant records via semantic search (search package)
//   - Assembling retrieved records into a budgeted context block
//   - Generating an answer through the configured ai.Generator
//
// Answer degrades instead of failing: retrieval errors, empty result sets,
// and generation failures all produce a usable canned or summarized Response.
// The only error Answer returns is context cancellation. Callers that want
// multi-turn conversations keep their own Session; the engine stores none.
package answer
