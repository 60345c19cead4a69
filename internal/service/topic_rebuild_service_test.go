package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"newsbox-topics/internal/config"
	"newsbox-topics/internal/dto"
	"newsbox-topics/internal/entity"
	"newsbox-topics/internal/model"
	"newsbox-topics/internal/pkg/logger"
	"newsbox-topics/internal/pkg/testdb"
	"newsbox-topics/internal/repository/implementation"
	"newsbox-topics/internal/repository/specification"
	"newsbox-topics/internal/repository/unitofwork"
	"newsbox-topics/pkg/apperr"
	"newsbox-topics/pkg/embedding"
	"newsbox-topics/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testDims = 16

// fakeEmbedder returns a fixed vector per embedding text.
type fakeEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	calls   int
	model   string
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = f.vectors[text]
	}
	return out, nil
}

func (f *fakeEmbedder) ModelID() string {
	if f.model != "" {
		return f.model
	}
	return "fake/v1"
}

func (f *fakeEmbedder) MaxBatchSize() int { return 64 }

// fakeNaming titles a topic after the alphabetically first note title it is given.
type fakeNaming struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (f *fakeNaming) Name(ctx context.Context, notes []*entity.Note) (*TopicNaming, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return nil, apperr.New(apperr.KindNaming, "name topic", "model unavailable", "")
	}
	titles := make([]string, len(notes))
	for i, n := range notes {
		titles[i] = n.Title
	}
	sort.Strings(titles)
	return &TopicNaming{Title: titles[0], Keywords: []string{"news"}, Report: "summary"}, nil
}

func (f *fakeNaming) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (f *fakePublisher) Publish(ctx context.Context, e events.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}

type rebuildFixture struct {
	db        *gorm.DB
	svc       *topicRebuildService
	embedder  *fakeEmbedder
	naming    *fakeNaming
	publisher *fakePublisher
	user      uuid.UUID
	now       time.Time
}

func newRebuildFixture(t *testing.T) *rebuildFixture {
	t.Helper()
	db := testdb.Open(t)
	uowFactory := unitofwork.NewRepositoryFactory(db)
	embedder := &fakeEmbedder{vectors: make(map[string][]float32)}
	naming := &fakeNaming{}
	publisher := &fakePublisher{}
	log := logger.NewNopLogger()

	cache := NewEmbeddingCacheService(uowFactory, embedder, 0, 0, log)
	svc := NewTopicRebuildService(uowFactory, cache, naming, publisher,
		config.TopicConfig{Concurrency: 1}, time.UTC, log).(*topicRebuildService)

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	return &rebuildFixture{
		db:        db,
		svc:       svc,
		embedder:  embedder,
		naming:    naming,
		publisher: publisher,
		user:      uuid.New(),
		now:       now,
	}
}

func axisVec(base, nudge int) []float32 {
	v := make([]float32, testDims)
	v[base] = 1
	v[nudge] = 0.1
	return v
}

func (f *rebuildFixture) addNote(t *testing.T, title, excerpt string, at time.Time, vec []float32) uuid.UUID {
	t.Helper()
	n := &model.Note{
		Id:         uuid.New(),
		Title:      title,
		Excerpt:    excerpt,
		UserId:     f.user,
		NotebookId: uuid.New(),
		CreatedAt:  at,
		UpdatedAt:  at,
	}
	require.NoError(t, f.db.Create(n).Error)
	if vec != nil {
		f.embedder.vectors[embedding.BuildText(title, excerpt, "", 0)] = vec
	}
	return n.Id
}

// Group A: central bank news, axis 0. Two notes share a title on the same day.
func (f *rebuildFixture) seedGroupA(t *testing.T) []uuid.UUID {
	at := f.now.AddDate(0, 0, -10)
	return []uuid.UUID{
		f.addNote(t, "Fed holds rates", "first wire", at, axisVec(0, 3)),
		f.addNote(t, "Fed holds rates", "second wire", at, axisVec(0, 4)),
		f.addNote(t, "Bond yields climb", "markets", at, axisVec(0, 5)),
		f.addNote(t, "Markets react to Fed", "analysis", at, axisVec(0, 6)),
	}
}

// Group B: election news, axis 1.
func (f *rebuildFixture) seedGroupB(t *testing.T) []uuid.UUID {
	at := f.now.AddDate(0, 0, -1)
	return []uuid.UUID{
		f.addNote(t, "Election results announced", "", at, axisVec(1, 7)),
		f.addNote(t, "Turnout hits record", "", at, axisVec(1, 8)),
		f.addNote(t, "Coalition talks begin", "", at, axisVec(1, 9)),
		f.addNote(t, "Opposition concedes", "", at, axisVec(1, 10)),
	}
}

// Group C: storm news, axis 2.
func (f *rebuildFixture) seedGroupC(t *testing.T) []uuid.UUID {
	at := f.now.Add(-2 * time.Hour)
	return []uuid.UUID{
		f.addNote(t, "Storm makes landfall", "", at, axisVec(2, 11)),
		f.addNote(t, "Evacuations ordered", "", at, axisVec(2, 12)),
		f.addNote(t, "Power outages spread", "", at, axisVec(2, 13)),
		f.addNote(t, "Relief funds approved", "", at, axisVec(2, 14)),
	}
}

func (f *rebuildFixture) rebuild(t *testing.T, opts dto.RebuildOptions) *dto.RebuildResult {
	t.Helper()
	res, err := f.svc.RebuildTopics(context.Background(), f.user, opts)
	require.NoError(t, err)
	return res
}

func (f *rebuildFixture) topic(t *testing.T, id uuid.UUID) *entity.Topic {
	t.Helper()
	topic, err := implementation.NewTopicRepository(f.db).FindOne(context.Background(), specification.ByID{ID: id})
	require.NoError(t, err)
	require.NotNil(t, topic)
	return topic
}

func (f *rebuildFixture) topicCount(t *testing.T) int64 {
	t.Helper()
	n, err := implementation.NewTopicRepository(f.db).Count(context.Background(), specification.OwnedByUser{UserID: f.user})
	require.NoError(t, err)
	return n
}

// topicOf finds the topic holding noteId as an auto member.
func (f *rebuildFixture) topicOf(t *testing.T, noteId uuid.UUID) uuid.UUID {
	t.Helper()
	m, err := implementation.NewTopicMembershipRepository(f.db).FindOne(context.Background(),
		specification.Filter("note_id", noteId),
		specification.Filter("source", string(entity.SourceAuto)),
	)
	require.NoError(t, err)
	require.NotNil(t, m, "note %s has no auto membership", noteId)
	return m.TopicId
}

func (f *rebuildFixture) members(t *testing.T, topicId uuid.UUID) []*entity.TopicMembership {
	t.Helper()
	rows, err := implementation.NewTopicMembershipRepository(f.db).FindAll(context.Background(), specification.ByTopicID{TopicID: topicId})
	require.NoError(t, err)
	return rows
}

func (f *rebuildFixture) events(t *testing.T, topicId uuid.UUID) []*entity.TopicEvent {
	t.Helper()
	evs, err := implementation.NewTopicEventRepository(f.db).FindByTopic(context.Background(), topicId)
	require.NoError(t, err)
	return evs
}

func (f *rebuildFixture) setManual(t *testing.T, topicId, noteId uuid.UUID, excluded bool) {
	t.Helper()
	err := implementation.NewTopicMembershipRepository(f.db).Upsert(context.Background(), []*entity.TopicMembership{{
		Id:         entity.MembershipId(topicId, noteId),
		TopicId:    topicId,
		NoteId:     noteId,
		UserId:     f.user,
		Score:      1,
		Source:     entity.SourceManual,
		IsExcluded: excluded,
	}})
	require.NoError(t, err)
}

func rowIDs(rows []*entity.TopicMembership) []uuid.UUID {
	ids := make([]uuid.UUID, len(rows))
	for i, r := range rows {
		ids[i] = r.Id
	}
	return ids
}

func eventIDs(evs []*entity.TopicEvent) []uuid.UUID {
	ids := make([]uuid.UUID, len(evs))
	for i, e := range evs {
		ids[i] = e.Id
	}
	return ids
}

func TestRebuildCreatesTopicsAndIsIdempotent(t *testing.T) {
	f := newRebuildFixture(t)
	a := f.seedGroupA(t)
	b := f.seedGroupB(t)

	first := f.rebuild(t, dto.RebuildOptions{})
	assert.Equal(t, "dbscan", first.Run.Algorithm)
	assert.Equal(t, 8, first.Run.Embedded)
	assert.Equal(t, 0, first.Run.Noise)
	assert.Equal(t, dto.MatchStats{ClustersFound: 2, Created: 2}, first.Stats)
	require.Len(t, first.Topics, 2)
	for _, topic := range first.Topics {
		assert.True(t, topic.Created)
		assert.Equal(t, 4, topic.MemberCount)
	}
	assert.Equal(t, 2, f.naming.Calls())

	topicA, topicB := f.topicOf(t, a[0]), f.topicOf(t, b[0])
	require.NotEqual(t, topicA, topicB)
	assert.Equal(t, "Bond yields climb", f.topic(t, topicA).Title)
	assert.Equal(t, "Coalition talks begin", f.topic(t, topicB).Title)

	evsA := f.events(t, topicA)
	require.Len(t, evsA, 3, "same-day notes sharing a title collapse into one event")
	var merged *entity.TopicEvent
	for _, ev := range evsA {
		if ev.Title == "Fed holds rates" {
			merged = ev
		}
	}
	require.NotNil(t, merged)
	assert.ElementsMatch(t, []uuid.UUID{a[0], a[1]}, merged.NoteIds)

	require.Len(t, f.publisher.events, 1)
	rebuilt, ok := f.publisher.events[0].(events.TopicsRebuilt)
	require.True(t, ok)
	assert.Equal(t, 2, rebuilt.Created)
	assert.ElementsMatch(t, []uuid.UUID{topicA, topicB}, rebuilt.TopicIds)

	membersBefore := rowIDs(f.members(t, topicA))
	eventsBefore := eventIDs(evsA)

	second := f.rebuild(t, dto.RebuildOptions{})
	assert.Equal(t, dto.MatchStats{ClustersFound: 2, Matched: 2, Updated: 2}, second.Stats)
	assert.Equal(t, 0, second.Run.Embedded)
	assert.Equal(t, 8, second.Run.Cached)
	assert.Equal(t, 2, f.naming.Calls(), "unchanged membership reuses stored naming")
	assert.EqualValues(t, 2, f.topicCount(t))
	assert.Equal(t, topicA, f.topicOf(t, a[0]))
	assert.ElementsMatch(t, membersBefore, rowIDs(f.members(t, topicA)))
	assert.ElementsMatch(t, eventsBefore, eventIDs(f.events(t, topicA)))
}

func TestRebuildUpdatesMatchedTopicInPlace(t *testing.T) {
	f := newRebuildFixture(t)
	a := f.seedGroupA(t)
	f.seedGroupB(t)
	f.rebuild(t, dto.RebuildOptions{})
	topicA := f.topicOf(t, a[0])

	require.NoError(t, f.db.Model(&model.Topic{}).Where("id = ?", topicA).
		Updates(map[string]interface{}{"is_pinned": true, "title": "My Fed topic"}).Error)
	added := f.addNote(t, "Dollar slips", "", f.now.AddDate(0, 0, -10), axisVec(0, 15))

	res := f.rebuild(t, dto.RebuildOptions{})
	assert.Equal(t, dto.MatchStats{ClustersFound: 2, Matched: 2, Updated: 2}, res.Stats)
	assert.Equal(t, 3, f.naming.Calls(), "only the changed topic is renamed")

	assert.Equal(t, topicA, f.topicOf(t, added))
	topic := f.topic(t, topicA)
	assert.Equal(t, 5, topic.MemberCount)
	assert.Equal(t, "My Fed topic", topic.Title, "pinned topics keep their title")
	assert.Equal(t, []string{"news"}, topic.Keywords)
	assert.EqualValues(t, 2, f.topicCount(t))
}

func TestRebuildClearsUnmatchedTopicKeepsManualMembers(t *testing.T) {
	f := newRebuildFixture(t)
	a := f.seedGroupA(t)
	b := f.seedGroupB(t)
	f.rebuild(t, dto.RebuildOptions{})
	topicA, topicB := f.topicOf(t, a[0]), f.topicOf(t, b[0])

	manual := f.addNote(t, "Analyst commentary", "", f.now.AddDate(0, 0, -20), nil)
	f.setManual(t, topicA, manual, false)
	c := f.seedGroupC(t)

	days := 3
	res := f.rebuild(t, dto.RebuildOptions{RecencyDays: &days})
	assert.Equal(t, dto.MatchStats{ClustersFound: 2, Matched: 1, Created: 1, Updated: 1, Cleared: 1}, res.Stats)
	assert.EqualValues(t, 3, f.topicCount(t))

	assert.Equal(t, topicB, f.topicOf(t, b[0]))
	topicC := f.topicOf(t, c[0])
	assert.NotEqual(t, topicA, topicC)
	assert.Equal(t, 4, f.topic(t, topicC).MemberCount)

	rows := f.members(t, topicA)
	require.Len(t, rows, 1)
	assert.Equal(t, manual, rows[0].NoteId)
	assert.Equal(t, entity.SourceManual, rows[0].Source)
	require.NotNil(t, rows[0].EventTime)
	assert.True(t, rows[0].EventTime.Equal(f.now.AddDate(0, 0, -20)))
	assert.Equal(t, 1, f.topic(t, topicA).MemberCount)

	evs := f.events(t, topicA)
	require.Len(t, evs, 1)
	assert.Equal(t, []uuid.UUID{manual}, evs[0].NoteIds)
}

func TestRebuildNeverRegeneratesExcludedNotes(t *testing.T) {
	f := newRebuildFixture(t)
	a := f.seedGroupA(t)
	f.seedGroupB(t)
	f.rebuild(t, dto.RebuildOptions{})
	topicA := f.topicOf(t, a[1])

	f.setManual(t, topicA, a[0], true)
	f.rebuild(t, dto.RebuildOptions{})

	assert.Equal(t, 3, f.topic(t, topicA).MemberCount)
	assert.Equal(t, 2, f.naming.Calls())

	var excluded *entity.TopicMembership
	for _, m := range f.members(t, topicA) {
		if m.NoteId == a[0] {
			excluded = m
		}
	}
	require.NotNil(t, excluded)
	assert.Equal(t, entity.SourceManual, excluded.Source)
	assert.True(t, excluded.IsExcluded)

	for _, ev := range f.events(t, topicA) {
		assert.NotContains(t, ev.NoteIds, a[0])
	}
}

func TestRebuildFallsBackToPlaceholderName(t *testing.T) {
	f := newRebuildFixture(t)
	a := f.seedGroupA(t)
	f.seedGroupB(t)
	f.naming.fail = true

	f.rebuild(t, dto.RebuildOptions{})
	topicA := f.topicOf(t, a[0])
	topic := f.topic(t, topicA)
	assert.Contains(t, []string{"Fed holds rates", "Bond yields climb", "Markets react to Fed"}, topic.Title)
	assert.True(t, topic.RunConfig.PlaceholderName)

	f.naming.fail = false
	f.rebuild(t, dto.RebuildOptions{})
	assert.Equal(t, 4, f.naming.Calls(), "placeholder names are retried")
	topic = f.topic(t, topicA)
	assert.Equal(t, "Bond yields climb", topic.Title)
	assert.False(t, topic.RunConfig.PlaceholderName)
}

func TestRebuildMarksIngestionSince(t *testing.T) {
	f := newRebuildFixture(t)
	a := f.seedGroupA(t)
	b := f.seedGroupB(t)

	since := f.now.AddDate(0, 0, -2)
	f.rebuild(t, dto.RebuildOptions{MarkRefreshedSince: &since})

	assert.Nil(t, f.topic(t, f.topicOf(t, a[0])).LastIngestedAt)
	ingestedAt := f.topic(t, f.topicOf(t, b[0])).LastIngestedAt
	require.NotNil(t, ingestedAt)
	assert.True(t, ingestedAt.Equal(f.now))
}

func TestRebuildInsufficientData(t *testing.T) {
	f := newRebuildFixture(t)

	_, err := f.svc.RebuildTopics(context.Background(), f.user, dto.RebuildOptions{})
	assert.True(t, apperr.IsKind(err, apperr.KindInsufficientData))

	f.addNote(t, "Lonely note", "", f.now, axisVec(0, 3))
	_, err = f.svc.RebuildTopics(context.Background(), f.user, dto.RebuildOptions{})
	assert.True(t, apperr.IsKind(err, apperr.KindInsufficientData))
	assert.EqualValues(t, 0, f.topicCount(t))
}

func TestRebuildRejectsBadOptions(t *testing.T) {
	f := newRebuildFixture(t)
	zero := 0

	tests := []struct {
		name string
		opts dto.RebuildOptions
	}{
		{"unknown algorithm", dto.RebuildOptions{Algorithm: "spectral"}},
		{"empty window", dto.RebuildOptions{RecencyDays: &zero}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.RebuildTopics(context.Background(), f.user, tt.opts)
			assert.True(t, apperr.IsKind(err, apperr.KindValidation))
		})
	}
}

func TestRebuildPersistenceFailureKeepsEarlierTopics(t *testing.T) {
	f := newRebuildFixture(t)
	f.seedGroupA(t)
	f.seedGroupB(t)

	inserts := 0
	require.NoError(t, f.db.Callback().Create().Before("gorm:create").Register("fail_second_topic", func(tx *gorm.DB) {
		if tx.Statement.Table != "topics" {
			return
		}
		inserts++
		if inserts == 2 {
			_ = tx.AddError(errors.New("disk full"))
		}
	}))

	_, err := f.svc.RebuildTopics(context.Background(), f.user, dto.RebuildOptions{})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindPersistence))
	assert.ErrorContains(t, err, "disk full")

	var ae *apperr.Error
	require.True(t, errors.As(err, &ae))
	assert.Contains(t, ae.Details, "topic_id")

	assert.EqualValues(t, 1, f.topicCount(t), "the topic committed before the failure stays")
	assert.Empty(t, f.publisher.events)
}
