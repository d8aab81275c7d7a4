// Package services implements the core retrieval pipeline: corpus
// ingestion, index construction, similarity retrieval, context
// assembly and answer generation. Services depend only on domain
// types and ports, never on concrete adapters.
package services
