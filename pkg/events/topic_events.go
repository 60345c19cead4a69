package events

import (
	"time"

	"github.com/google/uuid"
)

const TopicsRebuiltType = "TOPICS_REBUILT"

// TopicsRebuilt announces a finished rebuild for one user.
type TopicsRebuilt struct {
	UserId    uuid.UUID
	TopicIds  []uuid.UUID
	Created   int
	Updated   int
	Cleared   int
	Algorithm string
	At        time.Time
}

func (e TopicsRebuilt) EventType() string {
	return TopicsRebuiltType
}

func (e TopicsRebuilt) Payload() map[string]interface{} {
	ids := make([]string, len(e.TopicIds))
	for i, id := range e.TopicIds {
		ids[i] = id.String()
	}
	return map[string]interface{}{
		"user_id":   e.UserId.String(),
		"topic_ids": ids,
		"created":   e.Created,
		"updated":   e.Updated,
		"cleared":   e.Cleared,
		"algorithm": e.Algorithm,
	}
}

func (e TopicsRebuilt) Timestamp() time.Time {
	return e.At
}
