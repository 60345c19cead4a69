package embedding

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"newsbox-topics/pkg/apperr"
	"newsbox-topics/pkg/vector"
)

// OllamaProvider implements EmbeddingProvider for local Ollama models (e.g., nomic-embed-text)
type OllamaProvider struct {
	BaseURL   string
	Model     string
	BatchSize int
	client    *http.Client
}

func NewOllamaProvider(cfg ProviderConfig) *OllamaProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	model := cfg.Model
	if model == "" {
		model = "nomic-embed-text"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &OllamaProvider{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		Model:     model,
		BatchSize: cfg.BatchSize,
		client:    &http.Client{Timeout: timeout},
	}
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

func (p *OllamaProvider) ModelID() string {
	return "ollama/" + p.Model
}

func (p *OllamaProvider) MaxBatchSize() int {
	if p.BatchSize > 0 {
		return p.BatchSize
	}
	return DefaultBatchSize
}

func (p *OllamaProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var resp ollamaEmbedResponse
	endpoint := fmt.Sprintf("%s/api/embed", p.BaseURL)
	if err := PostJSON(ctx, p.client, "ollama", endpoint, nil, ollamaEmbedRequest{Model: p.Model, Input: texts}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, apperr.New(apperr.KindProvider, "ollama embed",
			fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings)),
			"the provider returned a partial batch; retry later")
	}

	// Cosine comparisons downstream assume unit vectors
	out := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		out[i] = vector.Normalize(toFloat32(e))
	}
	return out, nil
}
