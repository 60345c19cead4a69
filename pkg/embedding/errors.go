package embedding

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"newsbox-topics/pkg/apperr"
)

const maxDetailRunes = 500

var payloadMarkers = []string{"payload", "too large", "too many", "request entity", "exceeds", "max_batch", "batch size"}

// ClassifyStatus maps a non-200 provider response onto an apperr kind.
func ClassifyStatus(provider string, status int, body []byte) *apperr.Error {
	details := strings.TrimSpace(string(body))
	if r := []rune(details); len(r) > maxDetailRunes {
		details = string(r[:maxDetailRunes])
	}
	op := provider + " embed"
	msg := fmt.Sprintf("status %d", status)

	var e *apperr.Error
	switch {
	case status == http.StatusRequestEntityTooLarge:
		e = apperr.New(apperr.KindPayloadTooLarge, op, msg, "the batch is bisected automatically")
	case status == http.StatusBadRequest && containsAny(bytes.ToLower(body), payloadMarkers):
		e = apperr.New(apperr.KindPayloadTooLarge, op, msg, "the batch is bisected automatically")
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e = apperr.New(apperr.KindConfiguration, op, msg, "check the embedding API key (EMBEDDING_API_KEY)")
	case status == http.StatusNotFound:
		e = apperr.New(apperr.KindConfiguration, op, msg, "check EMBEDDING_BASE_URL and EMBEDDING_MODEL; the model or endpoint does not exist")
	default:
		e = apperr.New(apperr.KindProvider, op, msg, "the embedding provider failed; retry later")
	}
	return e.WithDetail("provider", provider).WithDetail("status", status).WithDetail("body", details)
}

// transportError classifies a failure to reach the provider at all.
func transportError(provider string, err error) *apperr.Error {
	return apperr.Wrap(apperr.KindProvider, provider+" embed", err, "the embedding provider is unreachable; check EMBEDDING_BASE_URL or retry later").
		WithDetail("provider", provider)
}

func misconfigured(provider, message, hint string) *apperr.Error {
	return apperr.New(apperr.KindConfiguration, provider+" embed", message, hint).WithDetail("provider", provider)
}

func containsAny(body []byte, markers []string) bool {
	for _, m := range markers {
		if bytes.Contains(body, []byte(m)) {
			return true
		}
	}
	return false
}
