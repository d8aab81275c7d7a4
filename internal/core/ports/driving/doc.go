// Package driving provides interfaces exposed to external actors
// (primary/inbound ports). These are the operations a caller of the
// library performs: ingest, build, retrieve, assemble, answer.
package driving
