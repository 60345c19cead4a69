package dto

import (
	"time"

	"github.com/google/uuid"
)

// RebuildOptions tunes one rebuild. Nil fields use configured defaults.
type RebuildOptions struct {
	RecencyDays        *int       `json:"recency_days" validate:"omitempty,min=1,max=3650"`
	K                  *int       `json:"k" validate:"omitempty,min=1"`
	Algorithm          string     `json:"algorithm" validate:"omitempty,oneof=auto dbscan kmeans"`
	Epsilon            *float64   `json:"epsilon" validate:"omitempty,gt=0,lt=2"`
	MinSamples         *int       `json:"min_samples" validate:"omitempty,min=1"`
	MarkRefreshedSince *time.Time `json:"mark_refreshed_since"`
}

type AffectedTopic struct {
	Id          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Keywords    []string  `json:"keywords"`
	Report      string    `json:"report"`
	MemberCount int       `json:"member_count"`
	Created     bool      `json:"created"`
}

type RunInfo struct {
	Algorithm  string   `json:"algorithm"`
	Epsilon    float64  `json:"epsilon,omitempty"`
	MinSamples int      `json:"min_samples,omitempty"`
	K          int      `json:"k,omitempty"`
	States     []string `json:"states"`
	Model      string   `json:"model"`
	Notes      int      `json:"notes"`
	Embedded   int      `json:"embedded"`
	Cached     int      `json:"cached"`
	Noise      int      `json:"noise"`
	Excluded   int      `json:"excluded"`
}

type MatchStats struct {
	ClustersFound int `json:"clusters_found"`
	Matched       int `json:"matched"`
	Created       int `json:"created"`
	Updated       int `json:"updated"`
	Cleared       int `json:"cleared"`
}

type RebuildResult struct {
	Topics []AffectedTopic `json:"topics"`
	Run    RunInfo         `json:"run"`
	Stats  MatchStats      `json:"stats"`
}

// RebuildJob is the scheduler's message to the rebuild consumer.
type RebuildJob struct {
	UserId uuid.UUID `json:"user_id"`
	Since  time.Time `json:"since"`
}

type ListTopicsRequest struct {
	IncludeArchived bool `query:"include_archived"`
	Limit           int  `query:"limit" validate:"omitempty,min=1,max=200"`
	Offset          int  `query:"offset" validate:"omitempty,min=0"`
}

type TopicSummaryResponse struct {
	Id             uuid.UUID  `json:"id"`
	Title          string     `json:"title"`
	Keywords       []string   `json:"keywords"`
	MemberCount    int        `json:"member_count"`
	IsPinned       bool       `json:"is_pinned"`
	IsArchived     bool       `json:"is_archived"`
	LastIngestedAt *time.Time `json:"last_ingested_at"`
	UpdatedAt      *time.Time `json:"updated_at"`
}

type TopicMemberResponse struct {
	NoteId       uuid.UUID  `json:"note_id"`
	Title        string     `json:"title"`
	Score        float64    `json:"score"`
	Source       string     `json:"source"`
	IsExcluded   bool       `json:"is_excluded"`
	EventTime    *time.Time `json:"event_time"`
	EvidenceRank int        `json:"evidence_rank"`
}

type TopicEventResponse struct {
	Id         uuid.UUID   `json:"id"`
	EventTime  time.Time   `json:"event_time"`
	Title      string      `json:"title"`
	Importance float64     `json:"importance"`
	NoteIds    []uuid.UUID `json:"note_ids"`
}

type ShowTopicResponse struct {
	TopicSummaryResponse
	Report    string                `json:"report"`
	RunConfig interface{}           `json:"run_config"`
	Members   []TopicMemberResponse `json:"members"`
	Events    []TopicEventResponse  `json:"events"`
}

type PinTopicRequest struct {
	Pinned *bool `json:"pinned" validate:"required"`
}

type ArchiveTopicRequest struct {
	Archived *bool `json:"archived" validate:"required"`
}

type SetMembershipRequest struct {
	Action string `json:"action" validate:"required,oneof=include exclude"`
}
