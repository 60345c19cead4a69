package embedding

import (
	"context"
	"fmt"
	"testing"

	"newsbox-topics/pkg/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// limitProvider rejects any batch larger than limit with payload_too_large.
type limitProvider struct {
	limit   int
	failAll error
	calls   []int
}

func (p *limitProvider) ModelID() string   { return "fake/model" }
func (p *limitProvider) MaxBatchSize() int { return 8 }

func (p *limitProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	p.calls = append(p.calls, len(texts))
	if p.failAll != nil {
		return nil, p.failAll
	}
	if len(texts) > p.limit {
		return nil, apperr.New(apperr.KindPayloadTooLarge, "fake embed", "413", "")
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(len(texts[i])), 1}
	}
	return out, nil
}

func sources(n int) []Source {
	out := make([]Source, n)
	for i := range out {
		text := fmt.Sprintf("doc-%d", i)
		out[i] = Source{NoteId: uuid.New(), Text: text, Hash: ContentHash(text)}
	}
	return out
}

func TestBatchQueue(t *testing.T) {
	q := &BatchQueue{}
	src := sources(3)
	q.Push(src[:1])
	q.Push(nil)
	q.Push(src[1:])
	assert.Equal(t, 2, q.Len())

	b, ok := q.Pop()
	require.True(t, ok)
	assert.Len(t, b, 2)
	b, ok = q.Pop()
	require.True(t, ok)
	assert.Len(t, b, 1)
	_, ok = q.Pop()
	assert.False(t, ok)
}

func TestBatcherBisectsOnPayloadTooLarge(t *testing.T) {
	p := &limitProvider{limit: 3}
	src := sources(10)

	records, stats, err := NewBatcher(p, 0).Embed(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, []int{8, 4, 2, 2, 4, 2, 2, 2}, p.calls)
	assert.Equal(t, 8, stats.Requests)
	assert.Equal(t, 3, stats.Bisected)
	assert.Equal(t, 10, stats.Documents)

	require.Len(t, records, 10)
	for i, r := range records {
		assert.Equal(t, src[i].NoteId, r.NoteId)
		assert.Equal(t, src[i].Hash, r.ContentHash)
		assert.Equal(t, "fake/model", r.ModelId)
	}
}

func TestBatcherSingleDocumentStillTooLarge(t *testing.T) {
	p := &limitProvider{limit: 0}
	src := sources(2)

	_, _, err := NewBatcher(p, 2).Embed(context.Background(), src)
	require.Error(t, err)
	assert.Equal(t, apperr.KindPayloadTooLarge, apperr.KindOf(err))

	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, src[0].NoteId.String(), ae.Details["note_id"])
	assert.Equal(t, []int{2, 1}, p.calls)
}

func TestBatcherFailsFastOnConfiguration(t *testing.T) {
	p := &limitProvider{limit: 100, failAll: apperr.New(apperr.KindConfiguration, "fake embed", "401", "check key")}

	_, stats, err := NewBatcher(p, 4).Embed(context.Background(), sources(9))
	require.Error(t, err)
	assert.Equal(t, apperr.KindConfiguration, apperr.KindOf(err))
	assert.Equal(t, 1, stats.Requests)
	assert.Equal(t, []int{4}, p.calls)
}

func TestBatcherEmptyInput(t *testing.T) {
	p := &limitProvider{limit: 3}
	records, stats, err := NewBatcher(p, 0).Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Zero(t, stats.Requests)
}
