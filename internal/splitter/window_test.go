package splitter

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/medgrain/internal/core/ports/driven"
)

func TestWindowSplit(t *testing.T) {
	ctx := context.Background()

	t.Run("empty text yields no spans", func(t *testing.T) {
		w := NewWindow()
		spans, err := w.Split(ctx, "")
		require.NoError(t, err)
		assert.Empty(t, spans)
	})

	t.Run("short text yields one span", func(t *testing.T) {
		w := NewWindow(WithSize(10), WithOverlap(2))
		spans, err := w.Split(ctx, "fever")
		require.NoError(t, err)
		assert.Equal(t, []driven.Span{{Start: 0, End: 5}}, spans)
	})

	t.Run("spans overlap and cover the text", func(t *testing.T) {
		w := NewWindow(WithSize(10), WithOverlap(4))
		text := strings.Repeat("a", 25)
		spans, err := w.Split(ctx, text)
		require.NoError(t, err)

		assert.Equal(t, []driven.Span{
			{Start: 0, End: 10},
			{Start: 6, End: 16},
			{Start: 12, End: 22},
			{Start: 18, End: 25},
		}, spans)
	})

	t.Run("offsets are rune counts not bytes", func(t *testing.T) {
		w := NewWindow(WithSize(4), WithOverlap(0))
		spans, err := w.Split(ctx, "发热三天伴咳嗽")
		require.NoError(t, err)
		assert.Equal(t, []driven.Span{
			{Start: 0, End: 4},
			{Start: 4, End: 7},
		}, spans)
	})

	t.Run("overlap clamped below size", func(t *testing.T) {
		w := NewWindow(WithSize(8), WithOverlap(8))
		spans, err := w.Split(ctx, strings.Repeat("x", 20))
		require.NoError(t, err)
		// Degenerate overlap falls back to size/4, keeping progress.
		require.NotEmpty(t, spans)
		assert.Equal(t, 0, spans[0].Start)
	})
}

func TestWindowName(t *testing.T) {
	assert.Equal(t, "window", NewWindow().Name())
}
