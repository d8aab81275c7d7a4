// Package pinyin provides a tokenizer that maps Han characters to
// their romanized syllables via a fixed priority table. Characters
// with multiple pronunciations always resolve to the most-frequent
// reading; characters absent from the table are emitted whole with
// kind unknown_han, and non-Han runes pass through as plain tokens.
package pinyin

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

//go:embed data/pinyin.txt
var dataFS embed.FS

// Ensure Tokenizer implements the interface.
var _ driven.Tokenizer = (*Tokenizer)(nil)

// SignatureName is the recorded variant name and version.
const SignatureName = "pinyin/1"

// embeddedTable is the path of the bundled pinyin mapping.
const embeddedTable = "data/pinyin.txt"

// initials of Mandarin syllables, longest first so that prefix
// matching prefers zh/ch/sh over z/c/s.
var initials = []string{
	"zh", "ch", "sh",
	"b", "p", "m", "f", "d", "t", "n", "l",
	"g", "k", "h", "j", "q", "x",
	"r", "z", "c", "s", "y", "w",
}

// Tokenizer maps Han characters to pinyin syllables.
type Tokenizer struct {
	table map[rune]string
}

// Option configures the pinyin tokenizer.
type Option func(*config)

type config struct {
	tablePath string
}

// WithTablePath loads the pinyin mapping from an external file
// instead of the embedded default.
func WithTablePath(path string) Option {
	return func(c *config) {
		c.tablePath = path
	}
}

// New creates a pinyin tokenizer. Without options the embedded
// priority table is used.
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
			return nil, fmt.Errorf("read pinyin table: %w", err)
		}
	} else {
		raw, err = dataFS.ReadFile(embeddedTable)
		if err != nil {
			return nil, fmt.Errorf("read embedded pinyin table: %w", err)
		}
	}

	table, err := parseTable(string(raw))
	if err != nil {
		return nil, err
	}
	return &Tokenizer{table: table}, nil
}

// parseTable reads the "字 fa1" mapping format. When a character
// appears more than once, the first (most-frequent) reading wins.
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
			return nil, fmt.Errorf("pinyin table entry %q: %w", parts[0], domain.ErrInvalidInput)
		}
		if _, exists := table[chars[0]]; !exists {
			table[chars[0]] = parts[1]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan pinyin table: %w", err)
	}
	return table, nil
}

// TableSize returns the number of mapped characters.
func (t *Tokenizer) TableSize() int {
	return len(t.table)
}

// Tokenize maps text to syllable tokens. Each mapped Han character
// yields exactly one token whose surface is the toned syllable.
func (t *Tokenizer) Tokenize(text string, script domain.Script) ([]domain.Token, error) {
	if !t.Supports(script) {
		return nil, fmt.Errorf("pinyin tokenizer on %s text: %w", script, domain.ErrUnsupportedScript)
	}

	var tokens []domain.Token
	for i, r := range []rune(text) {
		switch {
		case unicode.Is(unicode.Han, r):
			syllable, ok := t.table[r]
			if !ok {
				tokens = append(tokens, domain.Token{
					Surface: string(r),
					Start:   i,
					End:     i + 1,
					Kind:    domain.KindUnknownHan,
				})
				continue
			}
			tokens = append(tokens, domain.Token{
				Surface: syllable,
				Start:   i,
				End:     i + 1,
				Kind:    domain.KindPinyin,
			})
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

// Supports reports true for Han and mixed text.
func (t *Tokenizer) Supports(script domain.Script) bool {
	return script == domain.ScriptHan || script == domain.ScriptMixed
}

// Signature returns the variant name and version.
func (t *Tokenizer) Signature() string {
	return SignatureName
}

// Syllable is a pinyin syllable decomposed into its structural parts.
type Syllable struct {
	// Initial is the consonant onset (may be empty for zero-initial
	// syllables such as "ai").
	Initial string

	// Final is the vowel nucleus and coda.
	Final string

	// Tone is "1" through "4", or "5" for the neutral tone.
	Tone string
}

// SplitSyllable decomposes a toned syllable ("fa1") into initial,
// final and tone by longest-prefix initial matching. A trailing
// non-digit means the neutral tone.
func SplitSyllable(s string) Syllable {
	tone := "5"
	core := s
	if len(s) > 0 && s[len(s)-1] >= '1' && s[len(s)-1] <= '5' {
		tone = s[len(s)-1:]
		core = s[:len(s)-1]
	}
	for _, ini := range initials {
		if strings.HasPrefix(core, ini) && len(core) > len(ini) {
			return Syllable{Initial: ini, Final: core[len(ini):], Tone: tone}
		}
	}
	return Syllable{Final: core, Tone: tone}
}
