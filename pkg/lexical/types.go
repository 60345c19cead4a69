package lexical

// Root is the top-level document saved by the editor.
type Root struct {
	Root Node `json:"root"`
}

// Node is any element of the editor tree. Only the fields that carry readable text are decoded.
type Node struct {
	Type     string `json:"type"`
	Children []Node `json:"children,omitempty"`

	Text     string `json:"text,omitempty"`
	URL      string `json:"url,omitempty"`
	ListType string `json:"listType,omitempty"`
	Checked  bool   `json:"checked,omitempty"`
}
