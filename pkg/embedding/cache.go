package embedding

import (
	"github.com/google/uuid"
)

// Source is one document's embedding input.
type Source struct {
	NoteId uuid.UUID
	Text   string
	Hash   string
}

// Record is a stored embedding.
type Record struct {
	NoteId      uuid.UUID
	ModelId     string
	ContentHash string
	Vector      []float32
}

// Valid reports whether the record can be reused for src under modelID.
func (r Record) Valid(src Source, modelID string) bool {
	return r.ModelId == modelID && r.ContentHash == src.Hash && len(r.Vector) > 0
}

// Plan splits sources into reusable cached vectors and the queue that must be (re)computed.
func Plan(sources []Source, stored map[uuid.UUID]Record, modelID string) (pending []Source, cached map[uuid.UUID][]float32) {
	cached = make(map[uuid.UUID][]float32, len(sources))
	for _, src := range sources {
		if rec, ok := stored[src.NoteId]; ok && rec.Valid(src, modelID) {
			cached[src.NoteId] = rec.Vector
			continue
		}
		pending = append(pending, src)
	}
	return pending, cached
}
