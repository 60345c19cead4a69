package factory

import (
	"fmt"

	"newsbox-topics/pkg/apperr"
	"newsbox-topics/pkg/embedding"
	"newsbox-topics/pkg/embedding/jina"
)

// NewEmbeddingProvider selects the provider named in cfg.Provider.
// The hash provider is only returned when asked for explicitly.
func NewEmbeddingProvider(cfg embedding.ProviderConfig) (embedding.EmbeddingProvider, error) {
	switch cfg.Provider {
	case "ollama":
		return embedding.NewOllamaProvider(cfg), nil
	case "gemini", "":
		return embedding.NewGeminiProvider(cfg), nil
	case "jina":
		return jina.NewJinaProvider(cfg), nil
	case "hash":
		return embedding.NewHashProvider(cfg), nil
	default:
		return nil, apperr.New(apperr.KindConfiguration, "embedding provider",
			fmt.Sprintf("unsupported embedding provider: %s", cfg.Provider),
			"set EMBEDDING_PROVIDER to one of ollama, gemini, jina, hash")
	}
}
