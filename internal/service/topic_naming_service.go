package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"newsbox-topics/internal/entity"
	"newsbox-topics/internal/repository/memory"
	"newsbox-topics/pkg/apperr"
	"newsbox-topics/pkg/embedding"
	"newsbox-topics/pkg/llm"
)

const (
	PlaceholderTitle  = "Untitled topic"
	maxTitleRunes     = 80
	maxKeywords       = 8
	namingExcerptSize = 400
)

type TopicNaming struct {
	Title       string   `json:"title"`
	Keywords    []string `json:"keywords"`
	Report      string   `json:"report"`
	Placeholder bool     `json:"-"`
}

type ITopicNamingService interface {
	// Name asks the model for a title, keywords and a short markdown report describing notes.
	Name(ctx context.Context, notes []*entity.Note) (*TopicNaming, error)
}

type topicNamingService struct {
	provider llm.LLMProvider
	cache    *memory.NamingCache[TopicNaming]
}

func NewTopicNamingService(provider llm.LLMProvider, ttl time.Duration) ITopicNamingService {
	return &topicNamingService{
		provider: provider,
		cache:    memory.NewNamingCache[TopicNaming](ttl),
	}
}

const namingPrompt = `You group a reader's saved articles into topics.
Below are articles that belong to one topic. Answer with a JSON object only:
{"title": "<at most 8 words>", "keywords": ["<3 to 8 short keywords>"], "report": "<markdown, 3 to 6 sentences summarising what happened>"}

Articles:
%s`

func (s *topicNamingService) Name(ctx context.Context, notes []*entity.Note) (*TopicNaming, error) {
	if len(notes) == 0 {
		return nil, apperr.New(apperr.KindNaming, "name topic", "no notes to name", "")
	}
	key := namingKey(s.provider.ModelID(), notes)
	if cached, ok := s.cache.Get(key); ok {
		return &cached, nil
	}

	var b strings.Builder
	for i, n := range notes {
		excerpt := embedding.BuildText("", n.Excerpt, n.Content, namingExcerptSize)
		fmt.Fprintf(&b, "%d. %s\n", i+1, strings.TrimSpace(n.Title))
		if excerpt != "" {
			fmt.Fprintf(&b, "   %s\n", strings.ReplaceAll(excerpt, "\n", " "))
		}
	}

	raw, err := s.provider.Generate(ctx, fmt.Sprintf(namingPrompt, b.String()), llm.WithJSON(), llm.WithTemperature(0.2))
	if err != nil {
		return nil, err
	}
	naming, err := ParseNaming(raw)
	if err != nil {
		return nil, err
	}
	s.cache.Save(key, *naming)
	return naming, nil
}

// ParseNaming reads the model answer, tolerating code fences and surrounding prose.
func ParseNaming(raw string) (*TopicNaming, error) {
	body := strings.TrimSpace(raw)
	if start, end := strings.Index(body, "{"), strings.LastIndex(body, "}"); start >= 0 && end > start {
		body = body[start : end+1]
	}

	var n TopicNaming
	if err := json.Unmarshal([]byte(body), &n); err != nil {
		return nil, apperr.Wrap(apperr.KindNaming, "parse naming", err, "the naming model did not return JSON").
			WithDetail("answer", truncateRunes(raw, 300))
	}
	n.Title = truncateRunes(strings.TrimSpace(n.Title), maxTitleRunes)
	if n.Title == "" {
		return nil, apperr.New(apperr.KindNaming, "parse naming", "empty title", "")
	}

	keywords := make([]string, 0, len(n.Keywords))
	seen := make(map[string]bool)
	for _, k := range n.Keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		keywords = append(keywords, k)
		if len(keywords) == maxKeywords {
			break
		}
	}
	n.Keywords = keywords
	n.Report = strings.TrimSpace(n.Report)
	return &n, nil
}

// PlaceholderNaming is used when the model fails; the newest note's title stands in.
func PlaceholderNaming(notes []*entity.Note) *TopicNaming {
	title := PlaceholderTitle
	for _, n := range notes {
		if t := strings.TrimSpace(n.Title); t != "" {
			title = truncateRunes(t, maxTitleRunes)
			break
		}
	}
	return &TopicNaming{Title: title, Keywords: []string{}, Placeholder: true}
}

// namingKey identifies a naming request by model and the set of notes, ignoring order.
func namingKey(modelID string, notes []*entity.Note) string {
	ids := make([][]byte, len(notes))
	for i, n := range notes {
		id := n.Id
		ids[i] = id[:]
	}
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i], ids[j]) < 0 })

	h := sha256.New()
	h.Write([]byte(modelID))
	for _, id := range ids {
		h.Write(id)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
