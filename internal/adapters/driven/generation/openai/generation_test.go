package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/medgrain/internal/core/domain"
)

func chatReply(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}, "finish_reason": "stop"},
		},
	}
}

func TestNewGenerationServiceRequiresAPIKey(t *testing.T) {
	_, err := NewGenerationService(Config{})
	assert.Error(t, err)
}

func TestGenerateBuildsChatMessages(t *testing.T) {
	var gotReq chatCompletionRequest
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(chatReply("an answer"))
	}))
	defer server.Close()

	svc, err := NewGenerationService(Config{APIKey: "sk-test", BaseURL: server.URL, Model: "gpt-4o-mini"})
	require.NoError(t, err)

	block := domain.ContextBlock{
		Passages: []domain.Passage{{DocumentID: "d1", Text: "糖尿病患者应控制血糖。", Rank: 1}},
	}
	answer, err := svc.Generate(context.Background(), block, "我得了糖尿病怎么办", domain.GenerateOptions{MaxTokens: 128})
	require.NoError(t, err)

	assert.Equal(t, "an answer", answer)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Contains(t, gotReq.Messages[1].Content, "[1] 糖尿病患者应控制血糖。")
	assert.Contains(t, gotReq.Messages[1].Content, "我得了糖尿病怎么办")
	assert.Equal(t, 128, gotReq.MaxTokens)
}

func TestGenerateAPIErrorWrapsGenerationFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "rate limit reached", "type": "requests"},
		})
	}))
	defer server.Close()

	svc, err := NewGenerationService(Config{APIKey: "sk-test", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), domain.ContextBlock{}, "q", domain.GenerateOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
	assert.Contains(t, err.Error(), "rate limit reached")
}

func TestGenerateNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer server.Close()

	svc, err := NewGenerationService(Config{APIKey: "sk-test", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), domain.ContextBlock{}, "q", domain.GenerateOptions{})
	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
}
