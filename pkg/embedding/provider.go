package embedding

import (
	"context"
	"time"
)

// EmbeddingProvider turns a batch of texts into one vector per text, in input order.
type EmbeddingProvider interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// ModelID identifies the model; stored records are only valid under the same id.
	ModelID() string

	// MaxBatchSize is the default batch size for this provider.
	MaxBatchSize() int
}

const (
	DefaultBatchSize = 64
	// TightBatchSize is used for providers known to reject large request bodies.
	TightBatchSize = 16
	DefaultTimeout = 60 * time.Second
)

// ProviderConfig is the explicit configuration handed to a provider constructor.
type ProviderConfig struct {
	Provider   string // "ollama", "gemini", "jina", "hash"
	Model      string
	BaseURL    string
	APIKey     string
	Dimensions int // only used by the hash provider
	BatchSize  int // overrides MaxBatchSize when > 0
	Timeout    time.Duration
}
