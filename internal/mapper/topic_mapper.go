package mapper

import (
	"encoding/json"
	"time"

	"newsbox-topics/internal/entity"
	"newsbox-topics/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type TopicMapper struct{}

func NewTopicMapper() *TopicMapper {
	return &TopicMapper{}
}

func (m *TopicMapper) ToEntity(t *model.Topic) *entity.Topic {
	if t == nil {
		return nil
	}

	var keywords []string
	if len(t.Keywords) > 0 {
		_ = json.Unmarshal(t.Keywords, &keywords)
	}
	var runConfig entity.TopicRunConfig
	if len(t.RunConfig) > 0 {
		_ = json.Unmarshal(t.RunConfig, &runConfig)
	}

	var updatedAt *time.Time
	if !t.UpdatedAt.IsZero() {
		u := t.UpdatedAt
		updatedAt = &u
	}

	return &entity.Topic{
		Id:             t.Id,
		UserId:         t.UserId,
		Title:          t.Title,
		Keywords:       keywords,
		Report:         t.Report,
		MemberCount:    t.MemberCount,
		IsPinned:       t.IsPinned,
		PinnedAt:       t.PinnedAt,
		IsArchived:     t.IsArchived,
		ArchivedAt:     t.ArchivedAt,
		LastIngestedAt: t.LastIngestedAt,
		RunConfig:      runConfig,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      updatedAt,
	}
}

func (m *TopicMapper) ToModel(t *entity.Topic) *model.Topic {
	if t == nil {
		return nil
	}

	keywords := t.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	kw, _ := json.Marshal(keywords)
	rc, _ := json.Marshal(t.RunConfig)

	return &model.Topic{
		Id:             t.Id,
		UserId:         t.UserId,
		Title:          t.Title,
		Keywords:       datatypes.JSON(kw),
		Report:         t.Report,
		MemberCount:    t.MemberCount,
		IsPinned:       t.IsPinned,
		PinnedAt:       t.PinnedAt,
		IsArchived:     t.IsArchived,
		ArchivedAt:     t.ArchivedAt,
		LastIngestedAt: t.LastIngestedAt,
		RunConfig:      datatypes.JSON(rc),
		CreatedAt:      t.CreatedAt,
	}
}

func (m *TopicMapper) ToEntities(topics []*model.Topic) []*entity.Topic {
	entities := make([]*entity.Topic, len(topics))
	for i, t := range topics {
		entities[i] = m.ToEntity(t)
	}
	return entities
}

func (m *TopicMapper) MembershipToEntity(r *model.TopicMembership) *entity.TopicMembership {
	if r == nil {
		return nil
	}
	return &entity.TopicMembership{
		Id:               r.Id,
		TopicId:          r.TopicId,
		NoteId:           r.NoteId,
		UserId:           r.UserId,
		Score:            r.Score,
		Source:           entity.MembershipSource(r.Source),
		IsExcluded:       r.IsExcluded,
		EventTime:        r.EventTime,
		EventFingerprint: r.EventFingerprint,
		EvidenceRank:     r.EvidenceRank,
		CreatedAt:        r.CreatedAt,
	}
}

func (m *TopicMapper) MembershipToModel(e *entity.TopicMembership) *model.TopicMembership {
	if e == nil {
		return nil
	}
	id := e.Id
	if id == uuid.Nil {
		id = entity.MembershipId(e.TopicId, e.NoteId)
	}
	return &model.TopicMembership{
		Id:               id,
		TopicId:          e.TopicId,
		NoteId:           e.NoteId,
		UserId:           e.UserId,
		Score:            e.Score,
		Source:           string(e.Source),
		IsExcluded:       e.IsExcluded,
		EventTime:        e.EventTime,
		EventFingerprint: e.EventFingerprint,
		EvidenceRank:     e.EvidenceRank,
		CreatedAt:        e.CreatedAt,
	}
}

func (m *TopicMapper) MembershipsToEntities(rows []*model.TopicMembership) []*entity.TopicMembership {
	out := make([]*entity.TopicMembership, len(rows))
	for i, r := range rows {
		out[i] = m.MembershipToEntity(r)
	}
	return out
}

func (m *TopicMapper) EventToEntity(r *model.TopicEvent) *entity.TopicEvent {
	if r == nil {
		return nil
	}
	var noteIds []uuid.UUID
	if len(r.NoteIds) > 0 {
		_ = json.Unmarshal(r.NoteIds, &noteIds)
	}
	return &entity.TopicEvent{
		Id:          r.Id,
		TopicId:     r.TopicId,
		Fingerprint: r.Fingerprint,
		EventTime:   r.EventTime,
		Title:       r.Title,
		Importance:  r.Importance,
		NoteIds:     noteIds,
	}
}

func (m *TopicMapper) EventToModel(e *entity.TopicEvent) *model.TopicEvent {
	if e == nil {
		return nil
	}
	id := e.Id
	if id == uuid.Nil {
		id = entity.EventId(e.TopicId, e.Fingerprint)
	}
	noteIds := e.NoteIds
	if noteIds == nil {
		noteIds = []uuid.UUID{}
	}
	raw, _ := json.Marshal(noteIds)
	return &model.TopicEvent{
		Id:          id,
		TopicId:     e.TopicId,
		Fingerprint: e.Fingerprint,
		EventTime:   e.EventTime,
		Title:       e.Title,
		Importance:  e.Importance,
		NoteIds:     datatypes.JSON(raw),
	}
}

func (m *TopicMapper) EventsToEntities(rows []*model.TopicEvent) []*entity.TopicEvent {
	out := make([]*entity.TopicEvent, len(rows))
	for i, r := range rows {
		out[i] = m.EventToEntity(r)
	}
	return out
}
