package factory

import (
	"testing"

	"newsbox-topics/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMProvider(t *testing.T) {
	p, err := NewLLMProvider("ollama", "llama3", "", "")
	require.NoError(t, err)
	assert.Equal(t, "ollama/llama3", p.ModelID())

	p, err = NewLLMProvider("huggingface", "qwen", "", "key")
	require.NoError(t, err)
	assert.Equal(t, "huggingface/qwen", p.ModelID())

	_, err = NewLLMProvider("huggingface", "qwen", "", "")
	assert.Equal(t, apperr.KindConfiguration, apperr.KindOf(err))

	_, err = NewLLMProvider("openai", "gpt", "", "")
	assert.Equal(t, apperr.KindConfiguration, apperr.KindOf(err))
}
