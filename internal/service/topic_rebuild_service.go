package service

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"newsbox-topics/internal/config"
	"newsbox-topics/internal/dto"
	"newsbox-topics/internal/entity"
	"newsbox-topics/internal/pkg/logger"
	"newsbox-topics/internal/repository/specification"
	"newsbox-topics/internal/repository/unitofwork"
	"newsbox-topics/pkg/apperr"
	"newsbox-topics/pkg/clustering"
	"newsbox-topics/pkg/embedding"
	"newsbox-topics/pkg/events"
	"newsbox-topics/pkg/timeline"
	"newsbox-topics/pkg/topicmatch"
	"newsbox-topics/pkg/vector"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	defaultMaxNotes     = 500
	defaultConcurrency  = 4
	defaultNamingSample = 12
	timelineExcerpt     = 600
)

var tracer = otel.Tracer("topic-rebuild")

type ITopicRebuildService interface {
	// RebuildTopics clusters the user's recent notes and reconciles the result with their stored topics.
	RebuildTopics(ctx context.Context, userId uuid.UUID, opts dto.RebuildOptions) (*dto.RebuildResult, error)
}

type topicRebuildService struct {
	uowFactory unitofwork.RepositoryFactory
	embeddings IEmbeddingCacheService
	naming     ITopicNamingService
	publisher  events.Publisher
	cfg        config.TopicConfig
	loc        *time.Location
	logger     logger.ILogger
	now        func() time.Time
}

// NewTopicRebuildService wires the rebuild pipeline. publisher may be nil.
func NewTopicRebuildService(
	uowFactory unitofwork.RepositoryFactory,
	embeddings IEmbeddingCacheService,
	naming ITopicNamingService,
	publisher events.Publisher,
	cfg config.TopicConfig,
	loc *time.Location,
	log logger.ILogger,
) ITopicRebuildService {
	if cfg.MaxNotes <= 0 {
		cfg.MaxNotes = defaultMaxNotes
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.NamingSample <= 0 {
		cfg.NamingSample = defaultNamingSample
	}
	if cfg.MatchThreshold <= 0 {
		cfg.MatchThreshold = topicmatch.DefaultThreshold
	}
	if loc == nil {
		loc = time.UTC
	}
	return &topicRebuildService{
		uowFactory: uowFactory,
		embeddings: embeddings,
		naming:     naming,
		publisher:  publisher,
		cfg:        cfg,
		loc:        loc,
		logger:     log,
		now:        time.Now,
	}
}

// rebuildRun is the state shared by the per-cluster workers. It is read-only once the workers start.
type rebuildRun struct {
	userId    uuid.UUID
	opts      dto.RebuildOptions
	now       time.Time
	notes     map[uuid.UUID]*entity.Note
	clusters  *clustering.Result
	match     *topicmatch.Result
	topics    map[uuid.UUID]*entity.Topic
	members   map[uuid.UUID][]*entity.TopicMembership
	runConfig entity.TopicRunConfig
}

func (s *topicRebuildService) RebuildTopics(ctx context.Context, userId uuid.UUID, opts dto.RebuildOptions) (*dto.RebuildResult, error) {
	ctx, span := tracer.Start(ctx, "RebuildTopics", trace.WithAttributes(attribute.String("user_id", userId.String())))
	defer span.End()

	result, err := s.rebuild(ctx, userId, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperr.KindOf(err)))
		return nil, err
	}
	return result, nil
}

func (s *topicRebuildService) rebuild(ctx context.Context, userId uuid.UUID, opts dto.RebuildOptions) (*dto.RebuildResult, error) {
	if err := validateRebuildOptions(userId, opts); err != nil {
		return nil, err
	}
	now := s.now()

	notes, err := s.loadNotes(ctx, userId, opts, now)
	if err != nil {
		return nil, err
	}
	if len(notes) < 2 {
		return nil, apperr.New(apperr.KindInsufficientData, "rebuild topics",
			fmt.Sprintf("need at least 2 notes, found %d", len(notes)),
			"save more notes or widen the recency window before rebuilding topics").
			WithDetail("notes", len(notes))
	}

	embedCtx, embedSpan := tracer.Start(ctx, "embed")
	outcome, err := s.embeddings.Ensure(embedCtx, notes)
	embedSpan.End()
	if err != nil {
		return nil, err
	}

	points := make([]clustering.Point, 0, len(notes))
	for _, n := range notes {
		points = append(points, clustering.Point{ID: n.Id, Vector: outcome.Vectors[n.Id]})
	}
	_, clusterSpan := tracer.Start(ctx, "cluster")
	clusters, err := clustering.NewEngine(clusteringConfig(opts)).Run(points)
	clusterSpan.End()
	if err != nil {
		return nil, err
	}

	run := &rebuildRun{
		userId:   userId,
		opts:     opts,
		now:      now,
		notes:    make(map[uuid.UUID]*entity.Note, len(notes)),
		clusters: clusters,
		runConfig: entity.TopicRunConfig{
			Algorithm:  string(clusters.Algorithm),
			Epsilon:    clusters.Epsilon,
			MinSamples: clusters.MinSamples,
			K:          clusters.K,
			Threshold:  s.cfg.MatchThreshold,
			ModelId:    s.embeddings.ModelID(),
			BuiltAt:    now,
		},
	}
	for _, n := range notes {
		run.notes[n.Id] = n
	}

	if err := s.loadTopics(ctx, run); err != nil {
		return nil, err
	}
	if err := s.matchTopics(ctx, run, outcome.Vectors); err != nil {
		return nil, err
	}
	if err := s.loadMemberNotes(ctx, run); err != nil {
		return nil, err
	}

	affected := make([]*dto.AffectedTopic, len(clusters.Clusters))
	cleared := make([]bool, len(run.match.UnmatchedTopics))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i := range clusters.Clusters {
		i := i
		g.Go(func() error {
			a, err := s.applyCluster(gctx, run, i)
			affected[i] = a
			return err
		})
	}
	for i, topicId := range run.match.UnmatchedTopics {
		i, topicId := i, topicId
		g.Go(func() error {
			ok, err := s.clearTopic(gctx, run, topicId)
			cleared[i] = ok
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &dto.RebuildResult{
		Topics: make([]dto.AffectedTopic, 0, len(affected)),
		Run: dto.RunInfo{
			Algorithm:  string(clusters.Algorithm),
			Epsilon:    clusters.Epsilon,
			MinSamples: clusters.MinSamples,
			K:          clusters.K,
			States:     make([]string, len(clusters.States)),
			Model:      s.embeddings.ModelID(),
			Notes:      len(notes),
			Embedded:   outcome.Embedded,
			Cached:     outcome.Cached,
			Noise:      len(clusters.Noise),
			Excluded:   len(clusters.Excluded) + outcome.Skipped,
		},
		Stats: dto.MatchStats{
			ClustersFound: len(clusters.Clusters),
			Matched:       len(run.match.Matches),
		},
	}
	for i, st := range clusters.States {
		result.Run.States[i] = string(st)
	}

	touched := make([]uuid.UUID, 0, len(affected)+len(cleared))
	for _, a := range affected {
		result.Topics = append(result.Topics, *a)
		touched = append(touched, a.Id)
		if a.Created {
			result.Stats.Created++
		} else {
			result.Stats.Updated++
		}
	}
	for i, ok := range cleared {
		if ok {
			result.Stats.Cleared++
			touched = append(touched, run.match.UnmatchedTopics[i])
		}
	}

	s.logger.Info("TOPIC_REBUILD", "Topics rebuilt", map[string]interface{}{
		"user_id":   userId.String(),
		"notes":     len(notes),
		"algorithm": result.Run.Algorithm,
		"clusters":  result.Stats.ClustersFound,
		"matched":   result.Stats.Matched,
		"created":   result.Stats.Created,
		"updated":   result.Stats.Updated,
		"cleared":   result.Stats.Cleared,
		"noise":     result.Run.Noise,
	})
	s.announce(ctx, userId, touched, result, now)
	return result, nil
}

func validateRebuildOptions(userId uuid.UUID, opts dto.RebuildOptions) error {
	if userId == uuid.Nil {
		return apperr.New(apperr.KindValidation, "rebuild topics", "user id is required", "")
	}
	if opts.Algorithm != "" && clustering.ParseAlgorithm(opts.Algorithm) != clustering.Algorithm(opts.Algorithm) {
		return apperr.New(apperr.KindValidation, "rebuild topics", fmt.Sprintf("unknown algorithm %q", opts.Algorithm),
			"use auto, dbscan or kmeans")
	}
	if opts.RecencyDays != nil && *opts.RecencyDays <= 0 {
		return apperr.New(apperr.KindValidation, "rebuild topics", "recency window must be at least one day", "")
	}
	if opts.Epsilon != nil && (*opts.Epsilon <= 0 || *opts.Epsilon >= 2) {
		return apperr.New(apperr.KindValidation, "rebuild topics", "epsilon must be between 0 and 2", "")
	}
	return nil
}

func clusteringConfig(opts dto.RebuildOptions) clustering.Config {
	cfg := clustering.DefaultConfig()
	cfg.Algorithm = clustering.ParseAlgorithm(opts.Algorithm)
	if opts.Epsilon != nil {
		cfg.Epsilon = *opts.Epsilon
	}
	if opts.MinSamples != nil {
		cfg.MinSamples = *opts.MinSamples
	}
	if opts.K != nil {
		cfg.K = *opts.K
	}
	return cfg
}

func (s *topicRebuildService) loadNotes(ctx context.Context, userId uuid.UUID, opts dto.RebuildOptions, now time.Time) ([]*entity.Note, error) {
	specs := []specification.Specification{
		specification.OwnedByUser{UserID: userId},
		specification.RecentFirst{},
		specification.Pagination{Limit: s.cfg.MaxNotes},
	}
	if opts.RecencyDays != nil {
		specs = append(specs, specification.UpdatedSince{Since: now.AddDate(0, 0, -*opts.RecencyDays)})
	}
	notes, err := s.uowFactory.NewUnitOfWork(ctx).NoteRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, persistenceError("load notes", err)
	}
	return notes, nil
}

func (s *topicRebuildService) loadTopics(ctx context.Context, run *rebuildRun) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	topics, err := uow.TopicRepository().FindAll(ctx,
		specification.OwnedByUser{UserID: run.userId},
		specification.NotArchived{},
	)
	if err != nil {
		return persistenceError("load topics", err)
	}

	run.topics = make(map[uuid.UUID]*entity.Topic, len(topics))
	run.members = make(map[uuid.UUID][]*entity.TopicMembership, len(topics))
	if len(topics) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(topics))
	for i, t := range topics {
		ids[i] = t.Id
		run.topics[t.Id] = t
	}
	rows, err := uow.TopicMembershipRepository().FindAll(ctx, specification.ByTopicIDs{TopicIDs: ids})
	if err != nil {
		return persistenceError("load memberships", err)
	}
	for _, m := range rows {
		run.members[m.TopicId] = append(run.members[m.TopicId], m)
	}
	return nil
}

// matchTopics computes each stored topic's centroid from its included members and pairs topics with clusters.
func (s *topicRebuildService) matchTopics(ctx context.Context, run *rebuildRun, vectors map[uuid.UUID][]float32) error {
	_, span := tracer.Start(ctx, "match")
	defer span.End()

	var missing []uuid.UUID
	for _, rows := range run.members {
		for _, m := range rows {
			if m.Counts() && vectors[m.NoteId] == nil {
				missing = append(missing, m.NoteId)
			}
		}
	}
	stored, err := s.embeddings.StoredVectors(ctx, missing)
	if err != nil {
		return err
	}

	refs := make([]topicmatch.TopicRef, 0, len(run.topics))
	for id, t := range run.topics {
		var vs [][]float32
		for _, m := range run.members[id] {
			if !m.Counts() {
				continue
			}
			if v := vectors[m.NoteId]; v != nil {
				vs = append(vs, v)
			} else if v := stored[m.NoteId]; v != nil {
				vs = append(vs, v)
			}
		}
		refs = append(refs, topicmatch.TopicRef{ID: id, Pinned: t.IsPinned, Archived: t.IsArchived, Centroid: vector.Centroid(vs)})
	}

	clusters := make([]topicmatch.ClusterRef, len(run.clusters.Clusters))
	for i, c := range run.clusters.Clusters {
		clusters[i] = topicmatch.ClusterRef{Index: i, Size: c.Size(), Centroid: c.Centroid}
	}
	run.match = topicmatch.Match(clusters, refs, s.cfg.MatchThreshold)
	span.SetAttributes(
		attribute.Int("candidates", run.match.Candidates),
		attribute.Int("matched", len(run.match.Matches)),
	)
	return nil
}

// loadMemberNotes fetches manually included notes that fell outside the rebuild window, for naming and timelines.
func (s *topicRebuildService) loadMemberNotes(ctx context.Context, run *rebuildRun) error {
	var ids []uuid.UUID
	for _, rows := range run.members {
		for _, m := range rows {
			if m.Source == entity.SourceManual && m.Counts() && run.notes[m.NoteId] == nil {
				ids = append(ids, m.NoteId)
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}
	notes, err := s.uowFactory.NewUnitOfWork(ctx).NoteRepository().FindAll(ctx,
		specification.OwnedByUser{UserID: run.userId},
		specification.ByIDs{IDs: ids},
	)
	if err != nil {
		return persistenceError("load member notes", err)
	}
	for _, n := range notes {
		run.notes[n.Id] = n
	}
	return nil
}

func (s *topicRebuildService) applyCluster(ctx context.Context, run *rebuildRun, index int) (*dto.AffectedTopic, error) {
	cluster := run.clusters.Clusters[index]

	var topic entity.Topic
	created := false
	if id, ok := run.match.TopicFor(index); ok {
		topic = *run.topics[id]
	} else {
		topic = entity.Topic{Id: uuid.New(), UserId: run.userId, CreatedAt: run.now}
		created = true
	}
	existing := run.members[topic.Id]

	manual := make(map[uuid.UUID]*entity.TopicMembership)
	previousAuto := make(map[uuid.UUID]bool)
	for _, m := range existing {
		if m.Source == entity.SourceManual {
			manual[m.NoteId] = m
		} else {
			previousAuto[m.NoteId] = true
		}
	}

	// Notes the user placed or removed by hand are never regenerated as auto members.
	var auto []clustering.Member
	for _, m := range cluster.Members {
		if manual[m.ID] == nil {
			auto = append(auto, m)
		}
	}

	var included []*entity.Note
	var docs []timeline.Doc
	for _, m := range auto {
		if n := run.notes[m.ID]; n != nil {
			included = append(included, n)
			docs = append(docs, timelineDoc(n, m.Score))
		}
	}
	var keptManual []*entity.TopicMembership
	for _, m := range existing {
		if m.Source != entity.SourceManual || !m.Counts() {
			continue
		}
		keptManual = append(keptManual, m)
		if n := run.notes[m.NoteId]; n != nil {
			included = append(included, n)
			docs = append(docs, timelineDoc(n, m.Score))
		}
	}

	naming := s.resolveNaming(ctx, &topic, created, auto, previousAuto, included)
	if !topic.IsPinned || topic.Title == "" {
		topic.Title = naming.Title
	}
	topic.Keywords = naming.Keywords
	topic.Report = naming.Report
	topic.RunConfig = run.runConfig
	topic.RunConfig.PlaceholderName = naming.Placeholder
	if ingested(run, auto) {
		now := run.now
		topic.LastIngestedAt = &now
	}

	tl := timeline.Build(topic.Id, docs, s.loc)
	rows := make([]*entity.TopicMembership, 0, len(auto)+len(keptManual))
	for _, m := range auto {
		rows = append(rows, withAssignment(&entity.TopicMembership{
			Id:      entity.MembershipId(topic.Id, m.ID),
			TopicId: topic.Id,
			NoteId:  m.ID,
			UserId:  run.userId,
			Score:   m.Score,
			Source:  entity.SourceAuto,
		}, tl))
	}
	for _, m := range keptManual {
		row := *m
		rows = append(rows, withAssignment(&row, tl))
	}

	if err := s.persistTopic(ctx, &topic, created, rows, topicEvents(topic.Id, tl)); err != nil {
		return nil, err
	}

	return &dto.AffectedTopic{
		Id:          topic.Id,
		Title:       topic.Title,
		Keywords:    topic.Keywords,
		Report:      topic.Report,
		MemberCount: topic.MemberCount,
		Created:     created,
	}, nil
}

// resolveNaming reuses the stored naming when the auto membership did not change, and otherwise asks the naming
// service, falling back to a placeholder.
func (s *topicRebuildService) resolveNaming(
	ctx context.Context,
	topic *entity.Topic,
	created bool,
	auto []clustering.Member,
	previousAuto map[uuid.UUID]bool,
	included []*entity.Note,
) *TopicNaming {
	if !created && topic.Title != "" && !topic.RunConfig.PlaceholderName && sameMembers(auto, previousAuto) {
		return &TopicNaming{Title: topic.Title, Keywords: topic.Keywords, Report: topic.Report}
	}

	sample := append([]*entity.Note(nil), included...)
	sort.SliceStable(sample, func(i, j int) bool {
		a, b := noteRecency(sample[i]), noteRecency(sample[j])
		if !a.Equal(b) {
			return a.After(b)
		}
		return bytes.Compare(sample[i].Id[:], sample[j].Id[:]) < 0
	})
	if len(sample) > s.cfg.NamingSample {
		sample = sample[:s.cfg.NamingSample]
	}

	naming, err := s.naming.Name(ctx, sample)
	if err != nil {
		s.logger.Warn("TOPIC_REBUILD", "Naming failed, using placeholder", map[string]interface{}{
			"topic_id": topic.Id.String(),
			"kind":     string(apperr.KindOf(err)),
			"error":    err.Error(),
		})
		return PlaceholderNaming(sample)
	}
	return naming
}

// clearTopic drops the auto members of a stored topic no cluster matched. Topics without auto members are left alone.
func (s *topicRebuildService) clearTopic(ctx context.Context, run *rebuildRun, topicId uuid.UUID) (bool, error) {
	existing := run.members[topicId]
	hasAuto := false
	var keptManual []*entity.TopicMembership
	var docs []timeline.Doc
	for _, m := range existing {
		if m.Source == entity.SourceAuto {
			hasAuto = true
			continue
		}
		if !m.Counts() {
			continue
		}
		keptManual = append(keptManual, m)
		if n := run.notes[m.NoteId]; n != nil {
			docs = append(docs, timelineDoc(n, m.Score))
		}
	}
	if !hasAuto {
		return false, nil
	}

	topic := *run.topics[topicId]
	tl := timeline.Build(topic.Id, docs, s.loc)
	rows := make([]*entity.TopicMembership, len(keptManual))
	for i, m := range keptManual {
		row := *m
		rows[i] = withAssignment(&row, tl)
	}

	if err := s.persistTopic(ctx, &topic, false, rows, topicEvents(topic.Id, tl)); err != nil {
		return false, err
	}
	return true, nil
}

// persistTopic writes one topic with its members and events in a single transaction.
func (s *topicRebuildService) persistTopic(
	ctx context.Context,
	topic *entity.Topic,
	create bool,
	rows []*entity.TopicMembership,
	topicEvents []*entity.TopicEvent,
) error {
	fail := func(op string, err error) error {
		return persistenceError(op, err).WithDetail("topic_id", topic.Id.String())
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return fail("begin topic transaction", err)
	}
	defer uow.Rollback()

	if create {
		topic.MemberCount = len(rows)
		if err := uow.TopicRepository().Create(ctx, topic); err != nil {
			return fail("create topic", err)
		}
	}
	if err := uow.TopicMembershipRepository().DeleteAuto(ctx, topic.Id); err != nil {
		return fail("clear auto members", err)
	}
	if err := uow.TopicMembershipRepository().Upsert(ctx, rows); err != nil {
		return fail("store members", err)
	}
	if err := uow.TopicEventRepository().ReplaceForTopic(ctx, topic.Id, topicEvents); err != nil {
		return fail("store events", err)
	}
	if !create {
		count, err := uow.TopicMembershipRepository().CountIncluded(ctx, topic.Id)
		if err != nil {
			return fail("count members", err)
		}
		topic.MemberCount = int(count)
		if err := uow.TopicRepository().Update(ctx, topic); err != nil {
			return fail("update topic", err)
		}
	}

	if err := uow.Commit(); err != nil {
		return fail("commit topic", err)
	}
	return nil
}

func (s *topicRebuildService) announce(ctx context.Context, userId uuid.UUID, topicIds []uuid.UUID, result *dto.RebuildResult, at time.Time) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, events.TopicsRebuilt{
		UserId:    userId,
		TopicIds:  topicIds,
		Created:   result.Stats.Created,
		Updated:   result.Stats.Updated,
		Cleared:   result.Stats.Cleared,
		Algorithm: result.Run.Algorithm,
		At:        at,
	})
	if err != nil {
		s.logger.Warn("TOPIC_REBUILD", "Failed to publish rebuild event", map[string]interface{}{
			"user_id": userId.String(),
			"error":   err.Error(),
		})
	}
}

// ingested reports whether this run brought new notes into the topic. Without a refresh marker every run counts.
func ingested(run *rebuildRun, auto []clustering.Member) bool {
	since := run.opts.MarkRefreshedSince
	if since == nil {
		return true
	}
	for _, m := range auto {
		if n := run.notes[m.ID]; n != nil && !n.CreatedAt.Before(*since) {
			return true
		}
	}
	return false
}

func sameMembers(auto []clustering.Member, previous map[uuid.UUID]bool) bool {
	if len(auto) != len(previous) {
		return false
	}
	for _, m := range auto {
		if !previous[m.ID] {
			return false
		}
	}
	return true
}

func noteRecency(n *entity.Note) time.Time {
	if n.UpdatedAt != nil {
		return *n.UpdatedAt
	}
	return n.CreatedAt
}

func timelineDoc(n *entity.Note, score float64) timeline.Doc {
	return timeline.Doc{
		NoteId:      n.Id,
		Title:       n.Title,
		Excerpt:     embedding.FirstNonEmpty(n.Excerpt, embedding.BuildText("", "", n.Content, timelineExcerpt)),
		PublishedAt: n.PublishedAt,
		CreatedAt:   n.CreatedAt,
		Score:       score,
	}
}

func withAssignment(m *entity.TopicMembership, tl timeline.Timeline) *entity.TopicMembership {
	if a, ok := tl.Assignments[m.NoteId]; ok {
		when := a.Time
		m.EventTime = &when
		m.EventFingerprint = a.Fingerprint
		m.EvidenceRank = a.Rank
	} else {
		m.EventTime = nil
		m.EventFingerprint = ""
		m.EvidenceRank = 0
	}
	return m
}

func topicEvents(topicId uuid.UUID, tl timeline.Timeline) []*entity.TopicEvent {
	out := make([]*entity.TopicEvent, len(tl.Events))
	for i, ev := range tl.Events {
		out[i] = &entity.TopicEvent{
			Id:          entity.EventId(topicId, ev.Fingerprint),
			TopicId:     topicId,
			Fingerprint: ev.Fingerprint,
			EventTime:   ev.Time,
			Title:       ev.Title,
			Importance:  ev.Importance,
			NoteIds:     ev.NoteIds,
		}
	}
	return out
}
