package embedding

import (
	"context"
	"fmt"

	"newsbox-topics/pkg/apperr"
)

// BatchQueue is a LIFO stack of pending batches.
type BatchQueue struct {
	items [][]Source
}

func (q *BatchQueue) Push(batch []Source) {
	if len(batch) == 0 {
		return
	}
	q.items = append(q.items, batch)
}

func (q *BatchQueue) Pop() ([]Source, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	last := q.items[len(q.items)-1]
	q.items = q.items[:len(q.items)-1]
	return last, true
}

func (q *BatchQueue) Len() int {
	return len(q.items)
}

// BatchStats describes the provider traffic of one Embed call.
type BatchStats struct {
	Requests  int
	Bisected  int
	Documents int
}

// Batcher sends pending documents to a provider in batches, bisecting on payload-too-large.
type Batcher struct {
	provider  EmbeddingProvider
	batchSize int
}

func NewBatcher(provider EmbeddingProvider, batchSize int) *Batcher {
	if batchSize <= 0 {
		batchSize = provider.MaxBatchSize()
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Batcher{provider: provider, batchSize: batchSize}
}

// Embed returns a new record per pending source. Any error other than payload-too-large on a
// multi-document batch is returned unchanged, with nothing retried.
func (b *Batcher) Embed(ctx context.Context, pending []Source) ([]Record, BatchStats, error) {
	var stats BatchStats
	queue := &BatchQueue{}
	var chunks [][]Source
	for start := 0; start < len(pending); start += b.batchSize {
		end := start + b.batchSize
		if end > len(pending) {
			end = len(pending)
		}
		chunks = append(chunks, pending[start:end])
	}
	// pushed in reverse so batches are popped in input order
	for i := len(chunks) - 1; i >= 0; i-- {
		queue.Push(chunks[i])
	}

	records := make([]Record, 0, len(pending))
	modelID := b.provider.ModelID()

	for queue.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		batch, _ := queue.Pop()

		texts := make([]string, len(batch))
		for i, src := range batch {
			texts[i] = src.Text
		}

		stats.Requests++
		vectors, err := b.provider.Embed(ctx, texts)
		if err != nil {
			if !apperr.IsKind(err, apperr.KindPayloadTooLarge) {
				return nil, stats, err
			}
			if len(batch) == 1 {
				return nil, stats, apperr.Wrap(apperr.KindPayloadTooLarge, "embed document", err,
					"the document is too large for the provider even alone; lower EMBEDDING_MAX_CHARS").
					WithDetail("note_id", batch[0].NoteId.String())
			}
			mid := len(batch) / 2
			stats.Bisected++
			// second half first so the first half is retried next
			queue.Push(batch[mid:])
			queue.Push(batch[:mid])
			continue
		}
		if len(vectors) != len(batch) {
			return nil, stats, apperr.New(apperr.KindProvider, "embed batch",
				fmt.Sprintf("provider returned %d vectors for %d texts", len(vectors), len(batch)),
				"the provider returned a partial batch; retry later")
		}

		for i, src := range batch {
			records = append(records, Record{
				NoteId:      src.NoteId,
				ModelId:     modelID,
				ContentHash: src.Hash,
				Vector:      vectors[i],
			})
		}
		stats.Documents += len(batch)
	}

	return records, stats, nil
}
