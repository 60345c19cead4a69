package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"newsbox-topics/internal/dto"
	"newsbox-topics/internal/pkg/serverutils"
	"newsbox-topics/pkg/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRebuild struct {
	opts dto.RebuildOptions
	err  error
}

func (s *stubRebuild) RebuildTopics(ctx context.Context, userId uuid.UUID, opts dto.RebuildOptions) (*dto.RebuildResult, error) {
	s.opts = opts
	if s.err != nil {
		return nil, s.err
	}
	return &dto.RebuildResult{Stats: dto.MatchStats{ClustersFound: 2, Created: 2}}, nil
}

type stubTopics struct {
	action string
}

func (s *stubTopics) List(ctx context.Context, userId uuid.UUID, req dto.ListTopicsRequest) ([]*dto.TopicSummaryResponse, error) {
	return []*dto.TopicSummaryResponse{{Id: uuid.New(), Title: "Rates"}}, nil
}

func (s *stubTopics) Show(ctx context.Context, userId, topicId uuid.UUID) (*dto.ShowTopicResponse, error) {
	return nil, apperr.New(apperr.KindNotFound, "load topic", "topic not found", "")
}

func (s *stubTopics) SetPinned(ctx context.Context, userId, topicId uuid.UUID, pinned bool) (*dto.TopicSummaryResponse, error) {
	return &dto.TopicSummaryResponse{Id: topicId, IsPinned: pinned}, nil
}

func (s *stubTopics) SetArchived(ctx context.Context, userId, topicId uuid.UUID, archived bool) (*dto.TopicSummaryResponse, error) {
	return &dto.TopicSummaryResponse{Id: topicId, IsArchived: archived}, nil
}

func (s *stubTopics) SetMembership(ctx context.Context, userId, topicId, noteId uuid.UUID, action string) (*dto.TopicSummaryResponse, error) {
	s.action = action
	return &dto.TopicSummaryResponse{Id: topicId, MemberCount: 1}, nil
}

func newTestApp(rebuild *stubRebuild, topics *stubTopics) *fiber.App {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	user := uuid.New().String()
	auth := func(ctx *fiber.Ctx) error {
		ctx.Locals("user_id", user)
		return ctx.Next()
	}
	NewTopicController(rebuild, topics).RegisterRoutes(app.Group("/api"), auth)
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestRebuildEndpoint(t *testing.T) {
	rebuild := &stubRebuild{}
	app := newTestApp(rebuild, &stubTopics{})

	resp := do(t, app, http.MethodPost, "/api/topic/v1/rebuild", `{"recency_days": 7, "algorithm": "kmeans", "k": 4}`)
	assert.Equal(t, 200, resp.StatusCode)
	require.NotNil(t, rebuild.opts.RecencyDays)
	assert.Equal(t, 7, *rebuild.opts.RecencyDays)
	assert.Equal(t, "kmeans", rebuild.opts.Algorithm)

	var body serverutils.BaseResponse[dto.RebuildResult]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 2, body.Data.Stats.Created)

	resp = do(t, app, http.MethodPost, "/api/topic/v1/rebuild", "")
	assert.Equal(t, 200, resp.StatusCode, "an empty body uses defaults")

	resp = do(t, app, http.MethodPost, "/api/topic/v1/rebuild", `{"algorithm": "spectral"}`)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestRebuildEndpointInsufficientData(t *testing.T) {
	rebuild := &stubRebuild{err: apperr.New(apperr.KindInsufficientData, "rebuild topics", "need at least 2 notes, found 1", "save more notes")}
	app := newTestApp(rebuild, &stubTopics{})

	resp := do(t, app, http.MethodPost, "/api/topic/v1/rebuild", "")
	assert.Equal(t, 422, resp.StatusCode)
	var body serverutils.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "insufficient_data", body.Kind)
	assert.Equal(t, "save more notes", body.Hint)
}

func TestTopicCurationEndpoints(t *testing.T) {
	topics := &stubTopics{}
	app := newTestApp(&stubRebuild{}, topics)
	id, note := uuid.New(), uuid.New()

	assert.Equal(t, 200, do(t, app, http.MethodGet, "/api/topic/v1", "").StatusCode)
	assert.Equal(t, 404, do(t, app, http.MethodGet, "/api/topic/v1/"+id.String(), "").StatusCode)
	assert.Equal(t, 400, do(t, app, http.MethodGet, "/api/topic/v1/not-a-uuid", "").StatusCode)

	assert.Equal(t, 200, do(t, app, http.MethodPut, "/api/topic/v1/"+id.String()+"/pin", `{"pinned": true}`).StatusCode)
	assert.Equal(t, 400, do(t, app, http.MethodPut, "/api/topic/v1/"+id.String()+"/archive", `{}`).StatusCode)

	path := "/api/topic/v1/" + id.String() + "/members/" + note.String()
	assert.Equal(t, 200, do(t, app, http.MethodPut, path, `{"action": "exclude"}`).StatusCode)
	assert.Equal(t, "exclude", topics.action)
	assert.Equal(t, 400, do(t, app, http.MethodPut, path, `{"action": "drop"}`).StatusCode)
}
