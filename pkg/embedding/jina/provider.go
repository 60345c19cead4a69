package jina

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"newsbox-topics/pkg/apperr"
	"newsbox-topics/pkg/embedding"
	"newsbox-topics/pkg/vector"
)

type JinaProvider struct {
	apiKey    string
	baseURL   string
	model     string
	batchSize int
	client    *http.Client
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func NewJinaProvider(cfg embedding.ProviderConfig) *JinaProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.jina.ai/v1/embeddings"
	}
	model := cfg.Model
	if model == "" {
		model = "jina-embeddings-v2-base-en"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = embedding.DefaultTimeout
	}
	return &JinaProvider{
		apiKey:    cfg.APIKey,
		baseURL:   baseURL,
		model:     model,
		batchSize: cfg.BatchSize,
		client:    &http.Client{Timeout: timeout},
	}
}

func (p *JinaProvider) ModelID() string {
	return "jina/" + p.model
}

// Jina rejects large request bodies well before its documented input limit.
func (p *JinaProvider) MaxBatchSize() int {
	if p.batchSize > 0 {
		return p.batchSize
	}
	return embedding.TightBatchSize
}

func (p *JinaProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if p.apiKey == "" {
		return nil, apperr.New(apperr.KindConfiguration, "jina embed", "missing API key", "set EMBEDDING_API_KEY").
			WithDetail("provider", "jina")
	}

	headers := map[string]string{"Authorization": fmt.Sprintf("Bearer %s", p.apiKey)}
	var resp embeddingResponse
	if err := embedding.PostJSON(ctx, p.client, "jina", p.baseURL, headers, embeddingRequest{Model: p.model, Input: texts}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, apperr.New(apperr.KindProvider, "jina embed",
			fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(resp.Data)),
			"the provider returned a partial batch; retry later")
	}

	// data is documented as ordered, but index is authoritative
	sort.SliceStable(resp.Data, func(i, j int) bool { return resp.Data[i].Index < resp.Data[j].Index })
	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		out[i] = vector.Normalize(d.Embedding)
	}
	return out, nil
}
