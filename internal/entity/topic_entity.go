package entity

import (
	"time"

	"github.com/google/uuid"
)

// TopicRunConfig records how the topic was last built.
type TopicRunConfig struct {
	Algorithm  string    `json:"algorithm"`
	Epsilon    float64   `json:"epsilon,omitempty"`
	MinSamples int       `json:"min_samples,omitempty"`
	K          int       `json:"k,omitempty"`
	Threshold  float64   `json:"threshold"`
	ModelId    string    `json:"model_id"`
	BuiltAt    time.Time `json:"built_at"`
	// PlaceholderName marks a fallback title; it is retried on the next run even if membership is unchanged.
	PlaceholderName bool `json:"placeholder_name,omitempty"`
}

type Topic struct {
	Id             uuid.UUID
	UserId         uuid.UUID
	Title          string
	Keywords       []string
	Report         string
	MemberCount    int
	IsPinned       bool
	PinnedAt       *time.Time
	IsArchived     bool
	ArchivedAt     *time.Time
	LastIngestedAt *time.Time
	RunConfig      TopicRunConfig
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}

type MembershipSource string

const (
	SourceAuto   MembershipSource = "auto"
	SourceManual MembershipSource = "manual"
)

type TopicMembership struct {
	Id               uuid.UUID
	TopicId          uuid.UUID
	NoteId           uuid.UUID
	UserId           uuid.UUID
	Score            float64
	Source           MembershipSource
	IsExcluded       bool
	EventTime        *time.Time
	EventFingerprint string
	EvidenceRank     int
	CreatedAt        time.Time
}

// Counts reports whether the membership adds the note to the topic.
func (m *TopicMembership) Counts() bool {
	return !m.IsExcluded
}

type TopicEvent struct {
	Id          uuid.UUID
	TopicId     uuid.UUID
	Fingerprint string
	EventTime   time.Time
	Title       string
	Importance  float64
	NoteIds     []uuid.UUID
}

// MembershipId is stable per (topic, note) so reruns address the same row.
func MembershipId(topicId, noteId uuid.UUID) uuid.UUID {
	return uuid.NewSHA1(topicId, noteId[:])
}

// EventId is stable per (topic, fingerprint).
func EventId(topicId uuid.UUID, fingerprint string) uuid.UUID {
	return uuid.NewSHA1(topicId, []byte(fingerprint))
}
