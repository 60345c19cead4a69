package llm

import (
	"fmt"
	"strings"

	"newsbox-topics/pkg/apperr"
)

// StatusError classifies a non-200 chat response.
func StatusError(provider string, status int, body []byte) *apperr.Error {
	details := strings.TrimSpace(string(body))
	if len(details) > 500 {
		details = details[:500]
	}
	kind, hint := apperr.KindNaming, "the naming model failed; topics keep a placeholder title"
	switch status {
	case 401, 403:
		kind, hint = apperr.KindConfiguration, "check the naming provider API key"
	case 404:
		kind, hint = apperr.KindConfiguration, "check LLM_MODEL and OLLAMA_BASE_URL"
	}
	return apperr.New(kind, provider+" chat", fmt.Sprintf("status %d", status), hint).
		WithDetail("provider", provider).
		WithDetail("body", details)
}

// TransportError classifies a request that never got an answer.
func TransportError(provider string, err error) *apperr.Error {
	return apperr.Wrap(apperr.KindNaming, provider+" chat", err, "the naming model is unreachable").
		WithDetail("provider", provider)
}
