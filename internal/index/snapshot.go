package index

import (
	"fmt"
	"math"

	"github.com/custodia-labs/medgrain/internal/core/domain"
)

// Snapshot is an immutable scoring view over a domain.Index. Entry
// weights and norms are derived once at construction from the
// persisted counts and corpus statistics, so query-time vectors are
// reproduced identically on every load.
type Snapshot struct {
	ix *domain.Index

	// Sparse scheme: per-term smoothed IDF and per-entry TF-IDF
	// weights with their Euclidean norms.
	idf     map[string]float64
	weights []map[string]float64
	norms   []float64

	// Dense scheme: per-entry embedding norms.
	denseNorms []float64
}

// Hit is a scored index entry.
type Hit struct {
	// Entry is the matched index entry.
	Entry *domain.IndexEntry

	// Score is the cosine similarity in [0, 1].
	Score float64
}

// NewSnapshot validates the index and precomputes scoring state.
// Returns domain.ErrIndexCorrupt if the index is inconsistent.
func NewSnapshot(ix *domain.Index) (*Snapshot, error) {
	if err := ix.Validate(); err != nil {
		return nil, err
	}

	s := &Snapshot{ix: ix}
	switch ix.Signature.Scheme {
	case domain.SchemeNgramTFIDF:
		s.idf = smoothedIDF(ix.DocFreq, len(ix.Entries))
		s.weights = make([]map[string]float64, len(ix.Entries))
		s.norms = make([]float64, len(ix.Entries))
		for i := range ix.Entries {
			w := make(map[string]float64, len(ix.Entries[i].Counts))
			var sq float64
			for term, count := range ix.Entries[i].Counts {
				v := float64(count) * s.termIDF(term)
				w[term] = v
				sq += v * v
			}
			s.weights[i] = w
			s.norms[i] = math.Sqrt(sq)
		}
	case domain.SchemeDense:
		s.denseNorms = make([]float64, len(ix.Entries))
		for i := range ix.Entries {
			s.denseNorms[i] = norm32(ix.Entries[i].Dense)
		}
	default:
		return nil, fmt.Errorf("unknown scheme %q: %w", ix.Signature.Scheme, domain.ErrIndexCorrupt)
	}
	return s, nil
}

// Signature returns the index signature.
func (s *Snapshot) Signature() domain.Signature {
	return s.ix.Signature
}

// Len returns the number of indexed entries.
func (s *Snapshot) Len() int {
	return len(s.ix.Entries)
}

// Index returns the underlying index. Callers must treat it as
// read-only.
func (s *Snapshot) Index() *domain.Index {
	return s.ix
}

// QueryWeights converts query n-gram counts into the same TF-IDF
// weighting the entries were vectorized with. The returned norm is
// zero only for an empty counts map.
func (s *Snapshot) QueryWeights(counts map[string]int) (map[string]float64, float64) {
	w := make(map[string]float64, len(counts))
	var sq float64
	for term, count := range counts {
		v := float64(count) * s.termIDF(term)
		w[term] = v
		sq += v * v
	}
	return w, math.Sqrt(sq)
}

// ScoreCounts scores every entry against query n-gram counts under
// the sparse scheme. Results are in entry order; ranking is the
// caller's concern.
func (s *Snapshot) ScoreCounts(counts map[string]int) []Hit {
	qw, qnorm := s.QueryWeights(counts)
	hits := make([]Hit, len(s.ix.Entries))
	for i := range s.ix.Entries {
		hits[i] = Hit{Entry: &s.ix.Entries[i]}
		if qnorm == 0 || s.norms[i] == 0 {
			continue
		}
		var dot float64
		for term, qv := range qw {
			if ev, ok := s.weights[i][term]; ok {
				dot += qv * ev
			}
		}
		hits[i].Score = dot / (qnorm * s.norms[i])
	}
	return hits
}

// ScoreDense scores every entry against a query embedding under the
// dense scheme.
func (s *Snapshot) ScoreDense(query []float32) []Hit {
	qnorm := norm32(query)
	hits := make([]Hit, len(s.ix.Entries))
	for i := range s.ix.Entries {
		hits[i] = Hit{Entry: &s.ix.Entries[i]}
		if qnorm == 0 || s.denseNorms[i] == 0 {
			continue
		}
		hits[i].Score = dot32(query, s.ix.Entries[i].Dense) / (qnorm * s.denseNorms[i])
	}
	return hits
}

// termIDF returns the smoothed inverse document frequency for a term,
// including terms never seen in the corpus (df = 0).
func (s *Snapshot) termIDF(term string) float64 {
	if v, ok := s.idf[term]; ok {
		return v
	}
	return idfValue(0, len(s.ix.Entries))
}

// smoothedIDF precomputes IDF for every known term.
func smoothedIDF(docFreq map[string]int, entries int) map[string]float64 {
	idf := make(map[string]float64, len(docFreq))
	for term, df := range docFreq {
		idf[term] = idfValue(df, entries)
	}
	return idf
}

// idfValue is ln((1+N)/(1+df)) + 1, always positive so rare and
// unseen terms never zero out a query vector.
func idfValue(df, entries int) float64 {
	return math.Log(float64(1+entries)/float64(1+df)) + 1
}

func dot32(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

func norm32(v []float32) float64 {
	var sq float64
	for _, x := range v {
		sq += float64(x) * float64(x)
	}
	return math.Sqrt(sq)
}
