package pinyin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/medgrain/internal/core/domain"
)

func TestTokenizeMapsSyllables(t *testing.T) {
	tok, err := New()
	require.NoError(t, err)

	tokens, err := tok.Tokenize("糖尿病", domain.ScriptHan)
	require.NoError(t, err)
	require.Len(t, tokens, 3)

	assert.Equal(t, "tang2", tokens[0].Surface)
	assert.Equal(t, "niao4", tokens[1].Surface)
	assert.Equal(t, "bing4", tokens[2].Surface)
	for i, token := range tokens {
		assert.Equal(t, domain.KindPinyin, token.Kind)
		assert.Equal(t, i, token.Start)
		assert.Equal(t, i+1, token.End)
	}
}

func TestTokenizeUnknownHanFallback(t *testing.T) {
	tok, err := New()
	require.NoError(t, err)

	tokens, err := tok.Tokenize("齉", domain.ScriptHan)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "齉", tokens[0].Surface)
	assert.Equal(t, domain.KindUnknownHan, tokens[0].Kind)
}

func TestTokenizeRejectsLatin(t *testing.T) {
	tok, err := New()
	require.NoError(t, err)

	_, err = tok.Tokenize("fever for three days", domain.ScriptLatin)
	assert.ErrorIs(t, err, domain.ErrUnsupportedScript)
}

func TestTokenizeDeterministic(t *testing.T) {
	tok, err := New()
	require.NoError(t, err)

	text := "我得了糖尿病"
	first, err := tok.Tokenize(text, domain.ScriptHan)
	require.NoError(t, err)
	second, err := tok.Tokenize(text, domain.ScriptHan)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSplitSyllable(t *testing.T) {
	tests := []struct {
		in   string
		want Syllable
	}{
		{"fa1", Syllable{Initial: "f", Final: "a", Tone: "1"}},
		{"zhong1", Syllable{Initial: "zh", Final: "ong", Tone: "1"}},
		{"chuan3", Syllable{Initial: "ch", Final: "uan", Tone: "3"}},
		{"shi2", Syllable{Initial: "sh", Final: "i", Tone: "2"}},
		{"ai2", Syllable{Final: "ai", Tone: "2"}},
		{"le5", Syllable{Initial: "l", Final: "e", Tone: "5"}},
		{"ma", Syllable{Initial: "m", Final: "a", Tone: "5"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitSyllable(tt.in))
		})
	}
}

func TestParseTableKeepsFirstReading(t *testing.T) {
	table, err := parseTable("得 de2\n得 dei3\n")
	require.NoError(t, err)
	assert.Equal(t, "de2", table['得'])
}
