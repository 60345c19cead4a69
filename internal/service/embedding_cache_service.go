package service

import (
	"context"

	"newsbox-topics/internal/entity"
	"newsbox-topics/internal/pkg/logger"
	"newsbox-topics/internal/repository/specification"
	"newsbox-topics/internal/repository/unitofwork"
	"newsbox-topics/pkg/apperr"
	"newsbox-topics/pkg/database"
	"newsbox-topics/pkg/embedding"
	"newsbox-topics/pkg/vector"

	"github.com/google/uuid"
)

// EmbeddingOutcome is the in-run vector map plus what it cost to build.
type EmbeddingOutcome struct {
	Vectors  map[uuid.UUID][]float32
	Embedded int
	Cached   int
	Skipped  int // notes with no text at all
	Stats    embedding.BatchStats
}

type IEmbeddingCacheService interface {
	Ensure(ctx context.Context, notes []*entity.Note) (*EmbeddingOutcome, error)
	// StoredVectors returns stored vectors for noteIds that are still valid for the current model and note text.
	StoredVectors(ctx context.Context, noteIds []uuid.UUID) (map[uuid.UUID][]float32, error)
	ModelID() string
}

type embeddingCacheService struct {
	uowFactory unitofwork.RepositoryFactory
	provider   embedding.EmbeddingProvider
	batcher    *embedding.Batcher
	maxChars   int
	logger     logger.ILogger
}

func NewEmbeddingCacheService(
	uowFactory unitofwork.RepositoryFactory,
	provider embedding.EmbeddingProvider,
	batchSize int,
	maxChars int,
	log logger.ILogger,
) IEmbeddingCacheService {
	return &embeddingCacheService{
		uowFactory: uowFactory,
		provider:   provider,
		batcher:    embedding.NewBatcher(provider, batchSize),
		maxChars:   maxChars,
		logger:     log,
	}
}

func (s *embeddingCacheService) ModelID() string {
	return s.provider.ModelID()
}

// Sources builds the embedding input of each note. Notes without any text are left out.
func Sources(notes []*entity.Note, maxChars int) []embedding.Source {
	sources := make([]embedding.Source, 0, len(notes))
	for _, n := range notes {
		text := embedding.BuildText(n.Title, n.Excerpt, n.Content, maxChars)
		if text == "" {
			continue
		}
		sources = append(sources, embedding.Source{NoteId: n.Id, Text: text, Hash: embedding.ContentHash(text)})
	}
	return sources
}

func (s *embeddingCacheService) Ensure(ctx context.Context, notes []*entity.Note) (*EmbeddingOutcome, error) {
	sources := Sources(notes, s.maxChars)
	ids := make([]uuid.UUID, len(sources))
	for i, src := range sources {
		ids[i] = src.NoteId
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	stored, err := uow.NoteEmbeddingRepository().FindByNoteIds(ctx, ids)
	if err != nil {
		return nil, persistenceError("load embeddings", err)
	}
	records := make(map[uuid.UUID]embedding.Record, len(stored))
	for _, e := range stored {
		records[e.NoteId] = embedding.Record{NoteId: e.NoteId, ModelId: e.ModelId, ContentHash: e.ContentHash, Vector: e.Vector}
	}

	modelID := s.provider.ModelID()
	pending, cached := embedding.Plan(sources, records, modelID)

	fresh, stats, err := s.batcher.Embed(ctx, pending)
	if err != nil {
		return nil, err
	}

	rows := make([]*entity.NoteEmbedding, len(fresh))
	for i, rec := range fresh {
		rows[i] = &entity.NoteEmbedding{
			NoteId:      rec.NoteId,
			ModelId:     rec.ModelId,
			ContentHash: rec.ContentHash,
			Vector:      vector.Normalize(rec.Vector),
		}
	}
	if err := uow.NoteEmbeddingRepository().Upsert(ctx, rows); err != nil {
		return nil, persistenceError("store embeddings", err)
	}

	out := &EmbeddingOutcome{
		Vectors:  make(map[uuid.UUID][]float32, len(sources)),
		Embedded: len(rows),
		Cached:   len(cached),
		Skipped:  len(notes) - len(sources),
		Stats:    stats,
	}
	for id, v := range cached {
		out.Vectors[id] = vector.Normalize(v)
	}
	for _, r := range rows {
		out.Vectors[r.NoteId] = r.Vector
	}

	s.logger.Info("EMBEDDING_CACHE", "Embeddings ready", map[string]interface{}{
		"model":    modelID,
		"embedded": out.Embedded,
		"cached":   out.Cached,
		"skipped":  out.Skipped,
		"requests": stats.Requests,
		"bisected": stats.Bisected,
	})
	return out, nil
}

func (s *embeddingCacheService) StoredVectors(ctx context.Context, noteIds []uuid.UUID) (map[uuid.UUID][]float32, error) {
	out := make(map[uuid.UUID][]float32, len(noteIds))
	if len(noteIds) == 0 {
		return out, nil
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	notes, err := uow.NoteRepository().FindAll(ctx, specification.ByIDs{IDs: noteIds})
	if err != nil {
		return nil, persistenceError("load notes", err)
	}
	stored, err := uow.NoteEmbeddingRepository().FindByNoteIds(ctx, noteIds)
	if err != nil {
		return nil, persistenceError("load embeddings", err)
	}
	records := make(map[uuid.UUID]embedding.Record, len(stored))
	for _, e := range stored {
		records[e.NoteId] = embedding.Record{NoteId: e.NoteId, ModelId: e.ModelId, ContentHash: e.ContentHash, Vector: e.Vector}
	}

	// A note edited since its vector was stored is left out rather than re-embedded here.
	modelID := s.provider.ModelID()
	for _, src := range Sources(notes, s.maxChars) {
		if rec, ok := records[src.NoteId]; ok && rec.Valid(src, modelID) {
			out[src.NoteId] = rec.Vector
		}
	}
	return out, nil
}

func persistenceError(op string, err error) *apperr.Error {
	return apperr.Wrap(apperr.KindPersistence, op, database.DescribeError(err), "check the database connection; the run can be retried safely")
}
