package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"strings"
	"unicode"

	"newsbox-topics/pkg/vector"
)

// HashProvider is a deterministic, offline pseudo-embedding for development runs.
// Each token is hashed into a signed bucket (feature hashing), so texts sharing words land close together.
type HashProvider struct {
	Dimensions int
}

func NewHashProvider(cfg ProviderConfig) *HashProvider {
	dims := cfg.Dimensions
	if dims <= 0 {
		dims = 256
	}
	return &HashProvider{Dimensions: dims}
}

func (p *HashProvider) ModelID() string {
	return "hash/v1"
}

func (p *HashProvider) MaxBatchSize() int {
	return 256
}

func (p *HashProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = p.embedOne(text)
	}
	return out, nil
}

func (p *HashProvider) embedOne(text string) []float32 {
	v := make([]float32, p.Dimensions)
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, tok := range tokens {
		sum := sha256.Sum256([]byte(tok))
		bucket := binary.BigEndian.Uint32(sum[:4]) % uint32(p.Dimensions)
		if sum[4]&1 == 0 {
			v[bucket]++
		} else {
			v[bucket]--
		}
	}
	if len(tokens) == 0 {
		// keep empty documents valid and identical to each other
		v[0] = 1
	}
	return vector.Normalize(v)
}
