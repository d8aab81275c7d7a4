// Package tokenizers provides implementations of the Tokenizer
// interface for character-granular segmentation. Each variant knows
// how to split text at or below single-character granularity:
//
//   - plain: one token per Unicode code point
//   - stroke: Han characters decomposed to canonical stroke sequences
//   - pinyin: Han characters mapped to their most-frequent romanized reading
//
// Tokenizers are registered with the Registry at startup.
package tokenizers
