package service

import (
	"context"
	"time"

	"newsbox-topics/internal/dto"
	"newsbox-topics/internal/entity"
	"newsbox-topics/internal/repository/specification"
	"newsbox-topics/internal/repository/unitofwork"
	"newsbox-topics/pkg/apperr"
	"newsbox-topics/pkg/timeline"

	"github.com/google/uuid"
)

const (
	MembershipInclude = "include"
	MembershipExclude = "exclude"

	defaultTopicPageSize = 50
)

type ITopicService interface {
	List(ctx context.Context, userId uuid.UUID, req dto.ListTopicsRequest) ([]*dto.TopicSummaryResponse, error)
	Show(ctx context.Context, userId, topicId uuid.UUID) (*dto.ShowTopicResponse, error)
	SetPinned(ctx context.Context, userId, topicId uuid.UUID, pinned bool) (*dto.TopicSummaryResponse, error)
	SetArchived(ctx context.Context, userId, topicId uuid.UUID, archived bool) (*dto.TopicSummaryResponse, error)
	// SetMembership records a manual include or exclude; rebuilds never override it.
	SetMembership(ctx context.Context, userId, topicId, noteId uuid.UUID, action string) (*dto.TopicSummaryResponse, error)
}

type topicService struct {
	uowFactory unitofwork.RepositoryFactory
	loc        *time.Location
	now        func() time.Time
}

func NewTopicService(uowFactory unitofwork.RepositoryFactory, loc *time.Location) ITopicService {
	if loc == nil {
		loc = time.UTC
	}
	return &topicService{
		uowFactory: uowFactory,
		loc:        loc,
		now:        time.Now,
	}
}

func (c *topicService) List(ctx context.Context, userId uuid.UUID, req dto.ListTopicsRequest) ([]*dto.TopicSummaryResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultTopicPageSize
	}
	specs := []specification.Specification{
		specification.OwnedByUser{UserID: userId},
		specification.PinnedFirst{},
		specification.Pagination{Limit: limit, Offset: req.Offset},
	}
	if !req.IncludeArchived {
		specs = append(specs, specification.NotArchived{})
	}

	topics, err := c.uowFactory.NewUnitOfWork(ctx).TopicRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, persistenceError("list topics", err)
	}
	res := make([]*dto.TopicSummaryResponse, len(topics))
	for i, t := range topics {
		res[i] = topicSummary(t)
	}
	return res, nil
}

func (c *topicService) Show(ctx context.Context, userId, topicId uuid.UUID) (*dto.ShowTopicResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	topic, err := c.findTopic(ctx, uow, userId, topicId)
	if err != nil {
		return nil, err
	}

	members, err := uow.TopicMembershipRepository().FindAll(ctx, specification.ByTopicID{TopicID: topicId})
	if err != nil {
		return nil, persistenceError("load memberships", err)
	}
	titles := make(map[uuid.UUID]string, len(members))
	if len(members) > 0 {
		ids := make([]uuid.UUID, len(members))
		for i, m := range members {
			ids[i] = m.NoteId
		}
		notes, err := uow.NoteRepository().FindAll(ctx, specification.OwnedByUser{UserID: userId}, specification.ByIDs{IDs: ids})
		if err != nil {
			return nil, persistenceError("load notes", err)
		}
		for _, n := range notes {
			titles[n.Id] = n.Title
		}
	}
	topicEvents, err := uow.TopicEventRepository().FindByTopic(ctx, topicId)
	if err != nil {
		return nil, persistenceError("load events", err)
	}

	res := &dto.ShowTopicResponse{
		TopicSummaryResponse: *topicSummary(topic),
		Report:               topic.Report,
		RunConfig:            topic.RunConfig,
		Members:              make([]dto.TopicMemberResponse, len(members)),
		Events:               make([]dto.TopicEventResponse, len(topicEvents)),
	}
	for i, m := range members {
		res.Members[i] = dto.TopicMemberResponse{
			NoteId:       m.NoteId,
			Title:        titles[m.NoteId],
			Score:        m.Score,
			Source:       string(m.Source),
			IsExcluded:   m.IsExcluded,
			EventTime:    m.EventTime,
			EvidenceRank: m.EvidenceRank,
		}
	}
	for i, ev := range topicEvents {
		res.Events[i] = dto.TopicEventResponse{
			Id:         ev.Id,
			EventTime:  ev.EventTime,
			Title:      ev.Title,
			Importance: ev.Importance,
			NoteIds:    ev.NoteIds,
		}
	}
	return res, nil
}

func (c *topicService) SetPinned(ctx context.Context, userId, topicId uuid.UUID, pinned bool) (*dto.TopicSummaryResponse, error) {
	return c.updateTopic(ctx, userId, topicId, func(t *entity.Topic, now time.Time) {
		if t.IsPinned == pinned {
			return
		}
		t.IsPinned = pinned
		t.PinnedAt = nil
		if pinned {
			t.PinnedAt = &now
		}
	})
}

func (c *topicService) SetArchived(ctx context.Context, userId, topicId uuid.UUID, archived bool) (*dto.TopicSummaryResponse, error) {
	return c.updateTopic(ctx, userId, topicId, func(t *entity.Topic, now time.Time) {
		if t.IsArchived == archived {
			return
		}
		t.IsArchived = archived
		t.ArchivedAt = nil
		if archived {
			t.ArchivedAt = &now
		}
	})
}

func (c *topicService) updateTopic(ctx context.Context, userId, topicId uuid.UUID, apply func(*entity.Topic, time.Time)) (*dto.TopicSummaryResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	topic, err := c.findTopic(ctx, uow, userId, topicId)
	if err != nil {
		return nil, err
	}
	apply(topic, c.now())
	if err := uow.TopicRepository().Update(ctx, topic); err != nil {
		return nil, persistenceError("update topic", err).WithDetail("topic_id", topicId.String())
	}
	return topicSummary(topic), nil
}

func (c *topicService) SetMembership(ctx context.Context, userId, topicId, noteId uuid.UUID, action string) (*dto.TopicSummaryResponse, error) {
	if action != MembershipInclude && action != MembershipExclude {
		return nil, apperr.New(apperr.KindValidation, "set membership", "action must be include or exclude", "")
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, persistenceError("begin transaction", err)
	}
	defer uow.Rollback()

	topic, err := c.findTopic(ctx, uow, userId, topicId)
	if err != nil {
		return nil, err
	}
	note, err := uow.NoteRepository().FindOne(ctx, specification.ByID{ID: noteId}, specification.OwnedByUser{UserID: userId})
	if err != nil {
		return nil, persistenceError("load note", err)
	}
	if note == nil {
		return nil, apperr.New(apperr.KindNotFound, "set membership", "note not found", "").WithDetail("note_id", noteId.String())
	}

	row, err := uow.TopicMembershipRepository().FindOne(ctx, specification.ByTopicID{TopicID: topicId}, specification.Filter("note_id", noteId))
	if err != nil {
		return nil, persistenceError("load membership", err)
	}
	if row == nil {
		row = &entity.TopicMembership{
			Id:      entity.MembershipId(topicId, noteId),
			TopicId: topicId,
			NoteId:  noteId,
			UserId:  userId,
			Score:   1,
		}
	}
	row.Source = entity.SourceManual
	row.IsExcluded = action == MembershipExclude
	if err := uow.TopicMembershipRepository().Upsert(ctx, []*entity.TopicMembership{row}); err != nil {
		return nil, persistenceError("store membership", err)
	}

	if err := c.refreshTimeline(ctx, uow, topic); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, persistenceError("commit membership", err)
	}
	return topicSummary(topic), nil
}

// refreshTimeline rebuilds the topic's events and member count from its included members.
func (c *topicService) refreshTimeline(ctx context.Context, uow unitofwork.UnitOfWork, topic *entity.Topic) error {
	members, err := uow.TopicMembershipRepository().FindAll(ctx, specification.ByTopicID{TopicID: topic.Id}, specification.Included{})
	if err != nil {
		return persistenceError("load memberships", err)
	}
	ids := make([]uuid.UUID, len(members))
	for i, m := range members {
		ids[i] = m.NoteId
	}
	var notes []*entity.Note
	if len(ids) > 0 {
		notes, err = uow.NoteRepository().FindAll(ctx, specification.OwnedByUser{UserID: topic.UserId}, specification.ByIDs{IDs: ids})
		if err != nil {
			return persistenceError("load notes", err)
		}
	}
	byId := make(map[uuid.UUID]*entity.Note, len(notes))
	for _, n := range notes {
		byId[n.Id] = n
	}

	docs := make([]timeline.Doc, 0, len(members))
	for _, m := range members {
		if n := byId[m.NoteId]; n != nil {
			docs = append(docs, timelineDoc(n, m.Score))
		}
	}
	tl := timeline.Build(topic.Id, docs, c.loc)
	for _, m := range members {
		withAssignment(m, tl)
	}

	fail := func(op string, err error) error {
		return persistenceError(op, err).WithDetail("topic_id", topic.Id.String())
	}
	if err := uow.TopicMembershipRepository().Upsert(ctx, members); err != nil {
		return fail("store members", err)
	}
	if err := uow.TopicEventRepository().ReplaceForTopic(ctx, topic.Id, topicEvents(topic.Id, tl)); err != nil {
		return fail("store events", err)
	}
	topic.MemberCount = len(members)
	if err := uow.TopicRepository().Update(ctx, topic); err != nil {
		return fail("update topic", err)
	}
	return nil
}

func (c *topicService) findTopic(ctx context.Context, uow unitofwork.UnitOfWork, userId, topicId uuid.UUID) (*entity.Topic, error) {
	topic, err := uow.TopicRepository().FindOne(ctx, specification.ByID{ID: topicId}, specification.OwnedByUser{UserID: userId})
	if err != nil {
		return nil, persistenceError("load topic", err)
	}
	if topic == nil {
		return nil, apperr.New(apperr.KindNotFound, "load topic", "topic not found", "").WithDetail("topic_id", topicId.String())
	}
	return topic, nil
}

func topicSummary(t *entity.Topic) *dto.TopicSummaryResponse {
	keywords := t.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return &dto.TopicSummaryResponse{
		Id:             t.Id,
		Title:          t.Title,
		Keywords:       keywords,
		MemberCount:    t.MemberCount,
		IsPinned:       t.IsPinned,
		IsArchived:     t.IsArchived,
		LastIngestedAt: t.LastIngestedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}
