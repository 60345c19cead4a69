package timeline

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventTimePrefersPublished(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	doc := Doc{
		Title:       "Report from 2023-01-09",
		PublishedAt: "2024-03-05T08:30:00Z",
		CreatedAt:   created,
	}
	got := EventTime(doc, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 5, 8, 30, 0, 0, time.UTC), got)
}

func TestEventTimeFromText(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	want := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		title   string
		excerpt string
	}{
		{"iso", "Launch on 2024-03-05", ""},
		{"slashes", "2024/03/05 recap", ""},
		{"dots", "Minutes 2024.3.5", ""},
		{"cjk", "发布会 2024年3月5日", ""},
		{"month first", "Keynote March 5, 2024", ""},
		{"short month", "Keynote Mar 5 2024 notes", ""},
		{"day first", "Held on 5 March 2024", ""},
		{"excerpt fallback", "Weekly digest", "Published 2024-03-05 by the team"},
		{"earliest mention wins", "March 5, 2024 follow up to 2023-12-01", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Doc{Title: tt.title, Excerpt: tt.excerpt, PublishedAt: "not a date", CreatedAt: created}
			assert.Equal(t, want, EventTime(doc, time.UTC))
		})
	}
}

func TestEventTimeFallsBackToCreated(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	doc := Doc{Title: "Nothing dated, 2024-02-31 is not real", CreatedAt: created}
	assert.Equal(t, created, EventTime(doc, time.UTC))
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Hello,   World!  ", "hello world"},
		{"Read https://example.com/a?b=c now", "read now"},
		{"GPT-5: what's new?", "gpt 5 what s new"},
		{"新品发布会！", "新品发布会"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeTitle(tt.in), tt.in)
	}

	long := NormalizeTitle(strings.Repeat("abcdefghij ", 10))
	assert.LessOrEqual(t, len([]rune(long)), MaxTitleRunes)
}

func TestFingerprint(t *testing.T) {
	topic := uuid.New()
	a := Fingerprint(topic, "2024-03-05", "launch")
	assert.Len(t, a, 32)
	assert.Equal(t, a, Fingerprint(topic, "2024-03-05", "launch"))
	assert.NotEqual(t, a, Fingerprint(topic, "2024-03-06", "launch"))
	assert.NotEqual(t, a, Fingerprint(uuid.New(), "2024-03-05", "launch"))
}

func TestBuildCollapsesSameDayDuplicates(t *testing.T) {
	topic := uuid.New()
	day1 := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC)

	first := Doc{NoteId: uuid.New(), Title: "Chip launch!", CreatedAt: day1.Add(2 * time.Hour), Score: 0.7}
	second := Doc{NoteId: uuid.New(), Title: "chip   launch", CreatedAt: day1, Score: 0.9}
	later := Doc{NoteId: uuid.New(), Title: "Chip launch", CreatedAt: day2, Score: 0.8}

	tl := Build(topic, []Doc{first, second, later}, time.UTC)

	require.Len(t, tl.Events, 2)
	merged := tl.Events[0]
	assert.InDelta(t, math.Log(3), merged.Importance, 1e-9)
	assert.Equal(t, []uuid.UUID{second.NoteId, first.NoteId}, merged.NoteIds)
	assert.Equal(t, day1, merged.Time)
	assert.Equal(t, "chip   launch", merged.Title)

	single := tl.Events[1]
	assert.InDelta(t, math.Log(2), single.Importance, 1e-9)
	assert.Equal(t, []uuid.UUID{later.NoteId}, single.NoteIds)

	assert.Equal(t, 1, tl.Assignments[second.NoteId].Rank)
	assert.Equal(t, 2, tl.Assignments[first.NoteId].Rank)
	assert.Equal(t, merged.Fingerprint, tl.Assignments[first.NoteId].Fingerprint)
	assert.Equal(t, 1, tl.Assignments[later.NoteId].Rank)
}

func TestBuildUntitledNotesStaySeparate(t *testing.T) {
	day := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	docs := []Doc{
		{NoteId: uuid.New(), CreatedAt: day},
		{NoteId: uuid.New(), Title: "!!!", CreatedAt: day},
	}
	tl := Build(uuid.New(), docs, time.UTC)
	assert.Len(t, tl.Events, 2)
}

func TestBuildDayBucketUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	// same UTC day, different local days
	a := Doc{NoteId: uuid.New(), Title: "Outage", CreatedAt: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)}
	b := Doc{NoteId: uuid.New(), Title: "Outage", CreatedAt: time.Date(2024, 3, 5, 16, 0, 0, 0, time.UTC)}

	assert.Len(t, Build(uuid.New(), []Doc{a, b}, time.UTC).Events, 1)
	assert.Len(t, Build(uuid.New(), []Doc{a, b}, loc).Events, 2)
}
