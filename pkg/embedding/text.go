package embedding

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"newsbox-topics/pkg/lexical"
)

// DefaultMaxChars bounds the text sent to the provider per document.
const DefaultMaxChars = 8000

// FirstNonEmpty returns the first field that is not blank, in priority order.
func FirstNonEmpty(fields ...string) string {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return f
		}
	}
	return ""
}

// BuildText joins the available document fields and truncates to maxChars runes.
func BuildText(title, excerpt, body string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	parts := make([]string, 0, 3)
	for _, f := range []string{title, excerpt, lexical.PlainText(body)} {
		if f = strings.TrimSpace(f); f != "" {
			parts = append(parts, f)
		}
	}
	text := strings.Join(parts, "\n\n")

	runes := []rune(text)
	if len(runes) > maxChars {
		text = string(runes[:maxChars])
	}
	return text
}

// ContentHash is the cache key for a document's embedding text.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
