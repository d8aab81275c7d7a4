// Package stroke provides a tokenizer that decomposes Han characters
// into their canonical stroke-order sequences via a fixed lookup
// table. Characters absent from the table are emitted whole with kind
// unknown_han; non-Han runes pass through as plain tokens.
package stroke

import (
	"bufio"
	"embed"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/custodia-labs/medgrain/internal/core/domain"
	"github.com/custodia-labs/medgrain/internal/core/ports/driven"
)

//go:embed data/zh2letter.txt
var dataFS embed.FS

// Ensure Tokenizer implements the interface.
var _ driven.Tokenizer = (*Tokenizer)(nil)

// SignatureName is the recorded variant name and version.
const SignatureName = "stroke/1"

// embeddedTable is the path of the bundled stroke mapping.
const embeddedTable = "data/zh2letter.txt"

// Tokenizer decomposes Han characters into stroke sequences.
type Tokenizer struct {
	table map[rune]string
}

// Option configures the stroke tokenizer.
type Option func(*config)

type config struct {
	tablePath string
}

// WithTablePath loads the stroke mapping from an external file
// instead of the embedded default.
func WithTablePath(path string) Option {
	return func(c *config) {
		c.tablePath = path
	}
}

// New creates a stroke tokenizer. Without options the embedded
// mapping table is used.
func New(opts ...Option) (*Tokenizer, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	var raw []byte
	var err error
	if cfg.tablePath != "" {
		raw, err = os.ReadFile(cfg.tablePath)
		if err != nil {
			return nil, fmt.Errorf("read stroke table: %w", err)
		}
	} else {
		raw, err = dataFS.ReadFile(embeddedTable)
		if err != nil {
			return nil, fmt.Errorf("read embedded stroke table: %w", err)
		}
	}

	table, err := parseTable(string(raw))
	if err != nil {
		return nil, err
	}
	return &Tokenizer{table: table}, nil
}

// parseTable reads the "字 hspnz" mapping format: whitespace-separated
// character and stroke sequence per line, # comments and blank lines
// skipped.
func parseTable(raw string) (map[rune]string, error) {
	table := make(map[rune]string)
	scanner := bufio.NewScanner(strings.NewReader(raw))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		chars := []rune(parts[0])
		if len(chars) != 1 {
			return nil, fmt.Errorf("stroke table entry %q: %w", parts[0], domain.ErrInvalidInput)
		}
		table[chars[0]] = parts[1]
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan stroke table: %w", err)
	}
	return table, nil
}

// TableSize returns the number of mapped characters.
func (t *Tokenizer) TableSize() int {
	return len(t.table)
}

// Tokenize decomposes text into stroke tokens. Every token's offsets
// point at the rune that produced it, so a character mapped to five
// strokes yields five tokens sharing the same offsets.
func (t *Tokenizer) Tokenize(text string, script domain.Script) ([]domain.Token, error) {
	if !t.Supports(script) {
		return nil, fmt.Errorf("stroke tokenizer on %s text: %w", script, domain.ErrUnsupportedScript)
	}

	var tokens []domain.Token
	for i, r := range []rune(text) {
		switch {
		case unicode.Is(unicode.Han, r):
			seq, ok := t.table[r]
			if !ok {
				tokens = append(tokens, domain.Token{
					Surface: string(r),
					Start:   i,
					End:     i + 1,
					Kind:    domain.KindUnknownHan,
				})
				continue
			}
			for _, s := range seq {
				tokens = append(tokens, domain.Token{
					Surface: string(s),
					Start:   i,
					End:     i + 1,
					Kind:    domain.KindStroke,
				})
			}
		default:
			tokens = append(tokens, domain.Token{
				Surface: string(r),
				Start:   i,
				End:     i + 1,
				Kind:    domain.KindPlain,
			})
		}
	}
	return tokens, nil
}

// Supports reports true for Han and mixed text. Pure Latin text has
// nothing to decompose and is rejected.
func (t *Tokenizer) Supports(script domain.Script) bool {
	return script == domain.ScriptHan || script == domain.ScriptMixed
}

// Signature returns the variant name and version.
func (t *Tokenizer) Signature() string {
	return SignatureName
}
