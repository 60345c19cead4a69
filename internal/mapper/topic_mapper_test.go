package mapper

import (
	"testing"
	"time"

	"newsbox-topics/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTopicMapperKeepsJSONColumns(t *testing.T) {
	m := NewTopicMapper()
	built := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)
	in := &entity.Topic{
		Id:        uuid.New(),
		Title:     "Chips",
		Keywords:  []string{"tsmc", "fab"},
		RunConfig: entity.TopicRunConfig{Algorithm: "dbscan", Epsilon: 0.12, Threshold: 0.85, BuiltAt: built},
	}

	out := m.ToEntity(m.ToModel(in))
	assert.Equal(t, in.Keywords, out.Keywords)
	assert.Equal(t, "dbscan", out.RunConfig.Algorithm)
	assert.True(t, built.Equal(out.RunConfig.BuiltAt))
}

func TestMembershipAndEventIdsAreDerived(t *testing.T) {
	m := NewTopicMapper()
	topic, note := uuid.New(), uuid.New()

	row := m.MembershipToModel(&entity.TopicMembership{TopicId: topic, NoteId: note, Source: entity.SourceAuto})
	assert.Equal(t, entity.MembershipId(topic, note), row.Id)
	assert.Equal(t, "auto", row.Source)

	ev := m.EventToModel(&entity.TopicEvent{TopicId: topic, Fingerprint: "abc"})
	assert.Equal(t, entity.EventId(topic, "abc"), ev.Id)
	assert.JSONEq(t, `[]`, string(ev.NoteIds))
}
