package implementation

import (
	"context"
	"testing"
	"time"

	"newsbox-topics/internal/entity"
	"newsbox-topics/internal/model"
	"newsbox-topics/internal/pkg/testdb"
	"newsbox-topics/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedNote(t *testing.T, db *gorm.DB, user uuid.UUID, title string, updated time.Time) *model.Note {
	t.Helper()
	n := &model.Note{
		Id:         uuid.New(),
		Title:      title,
		UserId:     user,
		NotebookId: uuid.New(),
		CreatedAt:  updated,
		UpdatedAt:  updated,
	}
	require.NoError(t, db.Create(n).Error)
	return n
}

func TestNoteRepositoryRecentWindowAndOwners(t *testing.T) {
	db := testdb.Open(t)
	repo := NewNoteRepository(db)
	ctx := context.Background()
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	alice, bob := uuid.New(), uuid.New()
	old := seedNote(t, db, alice, "old", now.Add(-72*time.Hour))
	fresh := seedNote(t, db, alice, "fresh", now.Add(-1*time.Hour))
	seedNote(t, db, bob, "bob", now.Add(-2*time.Hour))

	notes, err := repo.FindAll(ctx,
		specification.OwnedByUser{UserID: alice},
		specification.UpdatedSince{Since: now.Add(-24 * time.Hour)},
		specification.RecentFirst{},
	)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, fresh.Id, notes[0].Id)

	all, err := repo.FindAll(ctx, specification.OwnedByUser{UserID: alice}, specification.RecentFirst{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, old.Id, all[1].Id)

	owners, err := repo.FindActiveOwners(ctx, now.Add(-24*time.Hour), 10)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{alice, bob}, owners)

	owners, err = repo.FindActiveOwners(ctx, now.Add(-24*time.Hour), 1)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{alice}, owners)
}

func TestNoteEmbeddingUpsertKeepsOneRecordPerNote(t *testing.T) {
	db := testdb.Open(t)
	repo := NewNoteEmbeddingRepository(db)
	ctx := context.Background()
	note := uuid.New()

	require.NoError(t, repo.Upsert(ctx, []*entity.NoteEmbedding{
		{NoteId: note, ModelId: "hash/v1", ContentHash: "a", Vector: []float32{1, 0}},
	}))
	require.NoError(t, repo.Upsert(ctx, []*entity.NoteEmbedding{
		{NoteId: note, ModelId: "hash/v1", ContentHash: "b", Vector: []float32{0, 1}},
	}))

	got, err := repo.FindByNoteIds(ctx, []uuid.UUID{note})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ContentHash)
	assert.Equal(t, []float32{0, 1}, got[0].Vector)

	none, err := repo.FindByNoteIds(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMembershipUpsertAndDeleteAuto(t *testing.T) {
	db := testdb.Open(t)
	topics := NewTopicRepository(db)
	members := NewTopicMembershipRepository(db)
	ctx := context.Background()

	user := uuid.New()
	topic := &entity.Topic{Id: uuid.New(), UserId: user, Title: "Chips", CreatedAt: time.Now().UTC()}
	require.NoError(t, topics.Create(ctx, topic))

	auto, manual, excluded := uuid.New(), uuid.New(), uuid.New()
	require.NoError(t, members.Upsert(ctx, []*entity.TopicMembership{
		{TopicId: topic.Id, NoteId: auto, UserId: user, Score: 0.9, Source: entity.SourceAuto},
		{TopicId: topic.Id, NoteId: manual, UserId: user, Source: entity.SourceManual},
		{TopicId: topic.Id, NoteId: excluded, UserId: user, Source: entity.SourceManual, IsExcluded: true},
	}))
	// second write of the same pair updates in place
	require.NoError(t, members.Upsert(ctx, []*entity.TopicMembership{
		{TopicId: topic.Id, NoteId: auto, UserId: user, Score: 0.7, Source: entity.SourceAuto},
	}))

	count, err := members.CountIncluded(ctx, topic.Id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	row, err := members.FindOne(ctx, specification.ByTopicID{TopicID: topic.Id}, specification.Filter("note_id", auto))
	require.NoError(t, err)
	assert.InDelta(t, 0.7, row.Score, 1e-9)
	assert.Equal(t, entity.MembershipId(topic.Id, auto), row.Id)

	require.NoError(t, members.DeleteAuto(ctx, topic.Id))
	rest, err := members.FindAll(ctx, specification.ByTopicID{TopicID: topic.Id})
	require.NoError(t, err)
	require.Len(t, rest, 2)
	for _, m := range rest {
		assert.Equal(t, entity.SourceManual, m.Source)
	}
}

func TestTopicEventsReplace(t *testing.T) {
	db := testdb.Open(t)
	repo := NewTopicEventRepository(db)
	ctx := context.Background()
	owner := &entity.Topic{Id: uuid.New(), UserId: uuid.New(), Title: "Rates"}
	require.NoError(t, NewTopicRepository(db).Create(ctx, owner))
	topic := owner.Id
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.ReplaceForTopic(ctx, topic, []*entity.TopicEvent{
		{Fingerprint: "b", EventTime: day.Add(24 * time.Hour), Title: "later", NoteIds: []uuid.UUID{uuid.New()}},
		{Fingerprint: "a", EventTime: day, Title: "first", Importance: 1.1},
	}))
	require.NoError(t, repo.ReplaceForTopic(ctx, topic, []*entity.TopicEvent{
		{Fingerprint: "a", EventTime: day, Title: "first"},
	}))

	got, err := repo.FindByTopic(ctx, topic)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, entity.EventId(topic, "a"), got[0].Id)
	assert.Equal(t, topic, got[0].TopicId)
}

func TestArchiveStaleSkipsPinnedAndFresh(t *testing.T) {
	db := testdb.Open(t)
	repo := NewTopicRepository(db)
	ctx := context.Background()
	user := uuid.New()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	longAgo := now.AddDate(0, 0, -45)
	recent := now.AddDate(0, 0, -2)

	stale := &entity.Topic{Id: uuid.New(), UserId: user, Title: "stale", LastIngestedAt: &longAgo, CreatedAt: longAgo}
	neverIngested := &entity.Topic{Id: uuid.New(), UserId: user, Title: "never", CreatedAt: longAgo}
	pinned := &entity.Topic{Id: uuid.New(), UserId: user, Title: "pinned", IsPinned: true, PinnedAt: &longAgo, CreatedAt: longAgo}
	fresh := &entity.Topic{Id: uuid.New(), UserId: user, Title: "fresh", LastIngestedAt: &recent, CreatedAt: longAgo}
	for _, tp := range []*entity.Topic{stale, neverIngested, pinned, fresh} {
		require.NoError(t, repo.Create(ctx, tp))
	}

	n, err := repo.ArchiveStale(ctx, user, now.AddDate(0, 0, -30), now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	active, err := repo.FindAll(ctx, specification.OwnedByUser{UserID: user}, specification.NotArchived{}, specification.OrderBy{Field: "title"})
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "fresh", active[0].Title)
	assert.Equal(t, "pinned", active[1].Title)
}
