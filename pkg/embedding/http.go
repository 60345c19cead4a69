package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"newsbox-topics/pkg/apperr"
)

// PostJSON sends body to url and decodes a 200 response into out.
// Non-200 responses come back classified by ClassifyStatus.
func PostJSON(ctx context.Context, client *http.Client, provider, url string, headers map[string]string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", provider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payload))
	if err != nil {
		return misconfigured(provider, fmt.Sprintf("invalid endpoint %q", url), "check EMBEDDING_BASE_URL")
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return transportError(provider, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(provider, err)
	}
	if resp.StatusCode != http.StatusOK {
		return ClassifyStatus(provider, resp.StatusCode, respBody)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return apperr.Wrap(apperr.KindProvider, provider+" embed", err, "the provider returned an unexpected response body").
			WithDetail("provider", provider)
	}
	return nil
}

func toFloat32(values []float64) []float32 {
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = float32(v)
	}
	return out
}
