package embedding

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"newsbox-topics/pkg/apperr"
	"newsbox-topics/pkg/vector"
)

type GeminiProvider struct {
	ApiKey    string
	BaseURL   string
	Model     string
	TaskType  string
	BatchSize int
	client    *http.Client
}

func NewGeminiProvider(cfg ProviderConfig) *GeminiProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1"
	}
	model := cfg.Model
	if model == "" {
		model = "text-embedding-004"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &GeminiProvider{
		ApiKey:    cfg.APIKey,
		BaseURL:   strings.TrimRight(baseURL, "/"),
		Model:     model,
		TaskType:  "CLUSTERING",
		BatchSize: cfg.BatchSize,
		client:    &http.Client{Timeout: timeout},
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiEmbedRequest struct {
	Model    string        `json:"model"`
	Content  geminiContent `json:"content"`
	TaskType string        `json:"taskType,omitempty"`
}

type geminiBatchRequest struct {
	Requests []geminiEmbedRequest `json:"requests"`
}

type geminiBatchResponse struct {
	Embeddings []struct {
		Values []float32 `json:"values"`
	} `json:"embeddings"`
}

func (p *GeminiProvider) ModelID() string {
	return "gemini/" + p.Model
}

func (p *GeminiProvider) MaxBatchSize() int {
	if p.BatchSize > 0 {
		return p.BatchSize
	}
	return DefaultBatchSize
}

func (p *GeminiProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if p.ApiKey == "" {
		return nil, misconfigured("gemini", "missing API key", "set EMBEDDING_API_KEY (or GOOGLE_GEMINI_API_KEY)")
	}

	modelPath := "models/" + p.Model
	req := geminiBatchRequest{Requests: make([]geminiEmbedRequest, len(texts))}
	for i, text := range texts {
		req.Requests[i] = geminiEmbedRequest{
			Model:    modelPath,
			Content:  geminiContent{Parts: []geminiPart{{Text: text}}},
			TaskType: p.TaskType,
		}
	}

	endpoint := fmt.Sprintf("%s/%s:batchEmbedContents", p.BaseURL, modelPath)
	headers := map[string]string{"x-goog-api-key": p.ApiKey}

	var resp geminiBatchResponse
	if err := PostJSON(ctx, p.client, "gemini", endpoint, headers, req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, apperr.New(apperr.KindProvider, "gemini embed",
			fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings)),
			"the provider returned a partial batch; retry later")
	}

	out := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		out[i] = vector.Normalize(e.Values)
	}
	return out, nil
}
