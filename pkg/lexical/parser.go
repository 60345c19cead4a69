package lexical

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Parse flattens a Lexical JSON document into plain text, one block per line.
func Parse(jsonContent string) (string, error) {
	var root Root
	if err := json.Unmarshal([]byte(jsonContent), &root); err != nil {
		return "", fmt.Errorf("failed to parse lexical json: %w", err)
	}

	var sb strings.Builder
	walk(root.Root, &sb)
	return strings.TrimSpace(collapseBlankLines(sb.String())), nil
}

// PlainText returns readable text for note content that may or may not be Lexical JSON.
// Content that is not Lexical, or fails to parse, is returned unchanged.
func PlainText(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, `{"root":`) {
		return content
	}
	text, err := Parse(trimmed)
	if err != nil {
		return content
	}
	return text
}

func walk(node Node, sb *strings.Builder) {
	switch node.Type {
	case "text":
		sb.WriteString(node.Text)

	case "linebreak":
		sb.WriteString("\n")

	case "paragraph", "heading", "quote", "code", "listitem", "tablerow":
		for _, child := range node.Children {
			walk(child, sb)
		}
		sb.WriteString("\n")

	case "tablecell":
		for _, child := range node.Children {
			walk(child, sb)
		}
		sb.WriteString(" ")

	case "horizontalrule":
		sb.WriteString("\n")

	default:
		for _, child := range node.Children {
			walk(child, sb)
		}
	}
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" && len(out) > 0 && out[len(out)-1] == "" {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
