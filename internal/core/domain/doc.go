// Package domain defines the core entities for sercha-ask.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - QueryParameters: One immutable search or question submission
//   - SearchResultPage: One page of search hits plus the corpus-wide total
//   - Citation: A reference from answer text back to a source document
//   - AnswerState: The accumulated answer of a RAG request and its phase
//   - StreamEvent: One classified event from an answer stream
//   - HighlightSegment: A renderable piece of a highlighted snippet
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
