// Package timeline turns a topic's member notes into deduplicated, dated events.
package timeline

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

const (
	MaxTitleRunes = 64
	DayLayout     = "2006-01-02"
)

type Doc struct {
	NoteId      uuid.UUID
	Title       string
	Excerpt     string
	PublishedAt string
	CreatedAt   time.Time
	Score       float64
}

type Event struct {
	Fingerprint string
	Time        time.Time
	Title       string
	Importance  float64
	NoteIds     []uuid.UUID
}

type Assignment struct {
	Time        time.Time
	Fingerprint string
	Rank        int
}

type Timeline struct {
	Events      []Event
	Assignments map[uuid.UUID]Assignment
}

var urlPattern = regexp.MustCompile(`(?i)(https?://|www\.)\S+`)

// NormalizeTitle lower-cases, removes URLs, turns punctuation and symbols into spaces, collapses whitespace and
// truncates.
func NormalizeTitle(title string) string {
	s := urlPattern.ReplaceAllString(strings.ToLower(title), " ")
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return r
		}
		return ' '
	}, s)
	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > MaxTitleRunes {
		s = strings.TrimSpace(string(runes[:MaxTitleRunes]))
	}
	return s
}

func Fingerprint(topicID uuid.UUID, day, normTitle string) string {
	sum := sha256.Sum256([]byte(topicID.String() + "|" + day + "|" + normTitle))
	return hex.EncodeToString(sum[:])[:32]
}

// Build groups docs by day and normalized title. Notes without a usable title never merge with each other.
func Build(topicID uuid.UUID, docs []Doc, loc *time.Location) Timeline {
	if loc == nil {
		loc = time.UTC
	}

	type entry struct {
		doc  Doc
		when time.Time
	}
	groups := make(map[string][]entry)
	seen := make(map[uuid.UUID]bool, len(docs))
	for _, d := range docs {
		if seen[d.NoteId] {
			continue
		}
		seen[d.NoteId] = true

		when := EventTime(d, loc)
		title := NormalizeTitle(d.Title)
		if title == "" {
			title = "note:" + d.NoteId.String()
		}
		fp := Fingerprint(topicID, when.In(loc).Format(DayLayout), title)
		groups[fp] = append(groups[fp], entry{doc: d, when: when})
	}

	tl := Timeline{Assignments: make(map[uuid.UUID]Assignment, len(seen))}
	for fp, entries := range groups {
		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].doc.Score != entries[j].doc.Score {
				return entries[i].doc.Score > entries[j].doc.Score
			}
			return bytes.Compare(entries[i].doc.NoteId[:], entries[j].doc.NoteId[:]) < 0
		})

		ev := Event{Fingerprint: fp, Importance: math.Log1p(float64(len(entries)))}
		for i, e := range entries {
			if i == 0 || e.when.Before(ev.Time) {
				ev.Time = e.when
			}
			if ev.Title == "" {
				ev.Title = strings.TrimSpace(e.doc.Title)
			}
			ev.NoteIds = append(ev.NoteIds, e.doc.NoteId)
			tl.Assignments[e.doc.NoteId] = Assignment{Time: e.when, Fingerprint: fp, Rank: i + 1}
		}
		tl.Events = append(tl.Events, ev)
	}

	sort.Slice(tl.Events, func(i, j int) bool {
		if !tl.Events[i].Time.Equal(tl.Events[j].Time) {
			return tl.Events[i].Time.Before(tl.Events[j].Time)
		}
		return tl.Events[i].Fingerprint < tl.Events[j].Fingerprint
	})
	return tl
}
