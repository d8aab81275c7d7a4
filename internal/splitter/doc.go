// Package splitter provides implementations of the Splitter interface
// that divide document text into passage spans before indexing:
//
//   - window: fixed-size spans with configurable overlap
//   - semantic: sentence grouping by adjacent-embedding similarity
package splitter
