// Package domain defines the core business entities for medgrain.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An immutable unit of corpus text
//   - Token: An atomic unit produced by a tokenizer
//   - Passage: A retrieval result with score and rank
//   - ContextBlock: Budget-bounded concatenation of passages
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
