package factory

import (
	"fmt"

	"newsbox-topics/pkg/apperr"
	"newsbox-topics/pkg/llm"
	"newsbox-topics/pkg/llm/huggingface"
	"newsbox-topics/pkg/llm/ollama"
)

func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama", "":
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "huggingface":
		if apiKey == "" {
			return nil, apperr.New(apperr.KindConfiguration, "naming provider", "huggingface needs an API key",
				"set HUGGINGFACE_API_KEY or switch LLM_PROVIDER to ollama")
		}
		return huggingface.NewHuggingFaceProvider(apiKey, "", modelName), nil
	default:
		return nil, apperr.New(apperr.KindConfiguration, "naming provider",
			fmt.Sprintf("unsupported LLM provider: %s", providerType), "use LLM_PROVIDER=ollama or huggingface")
	}
}
