package model

// All lists every table this service owns or reads, in migration order.
func All() []interface{} {
	return []interface{}{
		&Note{},
		&NoteEmbedding{},
		&Topic{},
		&TopicMembership{},
		&TopicEvent{},
	}
}
