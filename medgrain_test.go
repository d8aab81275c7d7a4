package medgrain

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig writes a config.toml pointing storage at its own temp dir.
func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	configDir := t.TempDir()
	dataDir := t.TempDir()
	content := "[storage]\ndata_dir = \"" + dataDir + "\"\n" + extra
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(content), 0600))
	return configDir
}

func TestPipelineIngestBuildRetrieve(t *testing.T) {
	configDir := writeConfig(t, "[tokenizer]\nname = \"stroke\"\n")

	p, err := Open(configDir)
	require.NoError(t, err)
	defer p.Close()

	ctx := context.Background()
	docs, err := p.Ingest(ctx, []RawDocument{
		{Text: "发热三天，咳嗽。", Metadata: map[string]string{"source": "a"}},
		{Text: "腹痛伴呕吐。", Metadata: map[string]string{"source": "b"}},
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)

	require.NoError(t, p.BuildIndex(ctx))

	status, ok := p.LastBuild()
	require.True(t, ok)
	assert.Equal(t, 2, status.DocumentsIndexed)

	passages, err := p.Retrieve(ctx, "发热", RetrieveOptions{TopK: 2})
	require.NoError(t, err)
	require.NotEmpty(t, passages)
	assert.Equal(t, docs[0].ID, passages[0].DocumentID)
	assert.Equal(t, 1, passages[0].Rank)
}

func TestPipelineIndexSurvivesReopen(t *testing.T) {
	configDir := writeConfig(t, "[tokenizer]\nname = \"stroke\"\n")
	ctx := context.Background()

	p, err := Open(configDir)
	require.NoError(t, err)

	docs, err := p.Ingest(ctx, []RawDocument{{Text: "我得了糖尿病。"}})
	require.NoError(t, err)
	require.NoError(t, p.BuildIndex(ctx))
	require.NoError(t, p.Close())

	reopened, err := Open(configDir)
	require.NoError(t, err)
	defer reopened.Close()

	passages, err := reopened.Retrieve(ctx, "糖尿病", RetrieveOptions{TopK: 1})
	require.NoError(t, err)
	require.Len(t, passages, 1)
	assert.Equal(t, docs[0].ID, passages[0].DocumentID)
}

func TestOpenRejectsPersistedSignatureMismatch(t *testing.T) {
	configDir := t.TempDir()
	dataDir := t.TempDir()
	configPath := filepath.Join(configDir, "config.toml")
	ctx := context.Background()

	content := "[storage]\ndata_dir = \"" + dataDir + "\"\n[tokenizer]\nname = \"stroke\"\n"
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0600))

	p, err := Open(configDir)
	require.NoError(t, err)
	_, err = p.Ingest(ctx, []RawDocument{{Text: "发热三天。"}})
	require.NoError(t, err)
	require.NoError(t, p.BuildIndex(ctx))
	require.NoError(t, p.Close())

	// Reconfiguring the tokenizer invalidates the persisted index.
	content = "[storage]\ndata_dir = \"" + dataDir + "\"\n[tokenizer]\nname = \"plain\"\n"
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0600))

	_, err = Open(configDir)
	assert.ErrorIs(t, err, ErrTokenizerMismatch)
}

func TestPipelineAppendIndex(t *testing.T) {
	configDir := writeConfig(t, "[tokenizer]\nname = \"stroke\"\n")
	ctx := context.Background()

	p, err := Open(configDir)
	require.NoError(t, err)
	defer p.Close()

	_, err = p.Ingest(ctx, []RawDocument{{Text: "发热三天。"}})
	require.NoError(t, err)
	require.NoError(t, p.BuildIndex(ctx))

	added, err := p.Ingest(ctx, []RawDocument{{Text: "腹痛伴呕吐。"}})
	require.NoError(t, err)
	require.NoError(t, p.AppendIndex(ctx, added))

	passages, err := p.Retrieve(ctx, "腹痛", RetrieveOptions{TopK: 1})
	require.NoError(t, err)
	require.Len(t, passages, 1)
	assert.Equal(t, added[0].ID, passages[0].DocumentID)
}

func TestPipelineConcurrentAppends(t *testing.T) {
	configDir := writeConfig(t, "")
	ctx := context.Background()

	p, err := Open(configDir)
	require.NoError(t, err)
	defer p.Close()

	_, err = p.Ingest(ctx, []RawDocument{{Text: "baseline record zero"}})
	require.NoError(t, err)
	require.NoError(t, p.BuildIndex(ctx))

	// Each round races two appends against each other. Writers are
	// serialized, so every appended document must survive into the
	// served index regardless of interleaving.
	var appended []Document
	for round := 0; round < 12; round++ {
		docs, err := p.Ingest(ctx, []RawDocument{
			{Text: fmt.Sprintf("patient %04d reports fever", 2*round)},
			{Text: fmt.Sprintf("patient %04d reports fever", 2*round+1)},
		})
		require.NoError(t, err)
		appended = append(appended, docs...)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = p.AppendIndex(ctx, []Document{docs[i]})
			}(i)
		}
		wg.Wait()
		require.NoError(t, errs[0])
		require.NoError(t, errs[1])
	}

	for _, doc := range appended {
		passages, err := p.Retrieve(ctx, doc.Text, RetrieveOptions{TopK: 1})
		require.NoError(t, err)
		require.NotEmpty(t, passages, "document %s missing from served index", doc.ID)
		assert.Equal(t, doc.ID, passages[0].DocumentID)
	}
}

func TestPipelineAppendWithoutIndex(t *testing.T) {
	configDir := writeConfig(t, "")

	p, err := Open(configDir)
	require.NoError(t, err)
	defer p.Close()

	err = p.AppendIndex(context.Background(), []Document{{ID: "x", Text: "y"}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPipelineAnswerWithoutGenerator(t *testing.T) {
	configDir := writeConfig(t, "")

	p, err := Open(configDir)
	require.NoError(t, err)
	defer p.Close()

	ctx := context.Background()
	_, err = p.Ingest(ctx, []RawDocument{{Text: "aspirin relieves headache"}})
	require.NoError(t, err)
	require.NoError(t, p.BuildIndex(ctx))

	_, err = p.Answer(ctx, "headache", AnswerOptions{})
	assert.ErrorIs(t, err, ErrGenerationUnavailable)
}

func TestOpenRejectsUnknownTokenizer(t *testing.T) {
	configDir := writeConfig(t, "[tokenizer]\nname = \"morse\"\n")

	_, err := Open(configDir)
	assert.Error(t, err)
}

func TestOpenRejectsUnknownSplitter(t *testing.T) {
	configDir := writeConfig(t, "[splitter]\nname = \"sentence\"\n")

	_, err := Open(configDir)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestOpenSemanticSplitterRequiresEmbedder(t *testing.T) {
	configDir := writeConfig(t, "[splitter]\nname = \"semantic\"\n")

	_, err := Open(configDir)
	assert.ErrorIs(t, err, ErrEmbeddingUnavailable)
}
