package timeline

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var publishedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"January 2, 2006",
	"Jan 2, 2006",
}

var monthNames = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

const monthPattern = `(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?`

type datePattern struct {
	re *regexp.Regexp
	// submatch positions of year, month and day
	y, m, d int
	named   bool
}

var datePatterns = []datePattern{
	{re: regexp.MustCompile(`\b(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})\b`), y: 1, m: 2, d: 3},
	{re: regexp.MustCompile(`(\d{4})\s*年\s*(\d{1,2})\s*月\s*(\d{1,2})\s*日`), y: 1, m: 2, d: 3},
	{re: regexp.MustCompile(`(?i)\b` + monthPattern + `\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})\b`), y: 3, m: 1, d: 2, named: true},
	{re: regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+` + monthPattern + `,?\s+(\d{4})\b`), y: 3, m: 2, d: 1, named: true},
}

// EventTime decides when a note's event happened: its published field when parseable, otherwise the first date
// written in the title and then the excerpt, otherwise its creation time.
func EventTime(doc Doc, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	if t, ok := ParsePublished(doc.PublishedAt, loc); ok {
		return t.In(loc)
	}
	for _, text := range []string{doc.Title, doc.Excerpt} {
		if t, ok := FindDate(text, loc); ok {
			return t
		}
	}
	return doc.CreatedAt.In(loc)
}

// ParsePublished accepts the layouts feeds commonly use. Values without a zone are read in loc.
func ParsePublished(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range publishedLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FindDate returns the earliest valid calendar date mentioned in text, at midnight in loc.
func FindDate(text string, loc *time.Location) (time.Time, bool) {
	if text == "" {
		return time.Time{}, false
	}
	bestPos := -1
	var best time.Time
	for _, p := range datePatterns {
		for _, idx := range p.re.FindAllStringSubmatchIndex(text, -1) {
			if bestPos >= 0 && idx[0] >= bestPos {
				break
			}
			group := func(n int) string { return text[idx[2*n]:idx[2*n+1]] }

			year, _ := strconv.Atoi(group(p.y))
			day, _ := strconv.Atoi(group(p.d))
			var month time.Month
			if p.named {
				month = monthNames[strings.ToLower(group(p.m))[:3]]
			} else {
				m, _ := strconv.Atoi(group(p.m))
				month = time.Month(m)
			}
			t, ok := validDate(year, month, day, loc)
			if !ok {
				continue
			}
			bestPos, best = idx[0], t
			break
		}
	}
	return best, bestPos >= 0
}

func validDate(year int, month time.Month, day int, loc *time.Location) (time.Time, bool) {
	if year < 1900 || year > 2200 || month < time.January || month > time.December || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, loc)
	if t.Day() != day || t.Month() != month {
		return time.Time{}, false
	}
	return t, true
}
