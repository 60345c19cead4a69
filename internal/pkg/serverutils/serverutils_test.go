package serverutils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"newsbox-topics/pkg/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeError(t *testing.T, resp *http.Response) ErrorResponse {
	t.Helper()
	defer resp.Body.Close()
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestErrorHandlerMapsKinds(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   apperr.Kind
	}{
		{"insufficient data", apperr.New(apperr.KindInsufficientData, "rebuild", "need 2 notes", "save more"), 422, apperr.KindInsufficientData},
		{"not found", apperr.New(apperr.KindNotFound, "load topic", "topic not found", ""), 404, apperr.KindNotFound},
		{"provider", apperr.Wrap(apperr.KindProvider, "embed", errors.New("503"), "retry later"), 502, apperr.KindProvider},
		{"persistence", apperr.Wrap(apperr.KindPersistence, "store", errors.New("conn reset"), ""), 503, apperr.KindPersistence},
		{"fiber", fiber.NewError(fiber.StatusBadRequest, "bad body"), 400, apperr.KindValidation},
		{"plain", errors.New("boom"), 500, apperr.KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(ErrorHandlerMiddleware())
			app.Get("/", func(ctx *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			body := decodeError(t, resp)
			assert.Equal(t, string(tt.kind), body.Kind)
			assert.False(t, body.Success)
		})
	}
}

func TestErrorHandlerKeepsHint(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/", func(ctx *fiber.Ctx) error {
		return apperr.New(apperr.KindInsufficientData, "rebuild", "need 2 notes", "save more notes")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	body := decodeError(t, resp)
	assert.Equal(t, "need 2 notes", body.Message)
	assert.Equal(t, "save more notes", body.Hint)
}

func TestValidateRequest(t *testing.T) {
	type req struct {
		Action string `validate:"required,oneof=include exclude"`
	}
	assert.NoError(t, ValidateRequest(req{Action: "include"}))

	err := ValidateRequest(req{Action: "maybe"})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	var ae *apperr.Error
	require.True(t, errors.As(err, &ae))
	assert.Contains(t, ae.Details, "Action")
}

func TestJwtMiddleware(t *testing.T) {
	secret := "test-secret"
	app := fiber.New()
	app.Use(NewJwtMiddleware(secret))
	app.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.SendString(ctx.Locals("user_id").(string))
	})

	sign := func(key string, claims jwt.MapClaims) string {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
		require.NoError(t, err)
		return tok
	}
	call := func(header string) int {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		resp, err := app.Test(r)
		require.NoError(t, err)
		return resp.StatusCode
	}

	valid := jwt.MapClaims{"user_id": "2f1e7d1c-5b7a-4d55-9c1e-0d9f3a8e6b21", "exp": time.Now().Add(time.Hour).Unix()}
	assert.Equal(t, 200, call("Bearer "+sign(secret, valid)))
	assert.Equal(t, 401, call(""))
	assert.Equal(t, 401, call("Bearer "+sign("other-secret", valid)))
	assert.Equal(t, 401, call("Bearer "+sign(secret, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})))
}
