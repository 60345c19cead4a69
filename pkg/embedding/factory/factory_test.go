package factory

import (
	"testing"

	"newsbox-topics/pkg/apperr"
	"newsbox-topics/pkg/embedding"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmbeddingProvider(t *testing.T) {
	tests := []struct {
		provider string
		modelID  string
	}{
		{"ollama", "ollama/nomic-embed-text"},
		{"gemini", "gemini/text-embedding-004"},
		{"", "gemini/text-embedding-004"},
		{"jina", "jina/jina-embeddings-v2-base-en"},
		{"hash", "hash/v1"},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			p, err := NewEmbeddingProvider(embedding.ProviderConfig{Provider: tt.provider})
			require.NoError(t, err)
			assert.Equal(t, tt.modelID, p.ModelID())
		})
	}

	_, err := NewEmbeddingProvider(embedding.ProviderConfig{Provider: "nope"})
	assert.Equal(t, apperr.KindConfiguration, apperr.KindOf(err))
}
