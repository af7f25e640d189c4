package bootstrap

import (
	"context"
	"fmt"
	"strings"

	appconfig "github.com/wolfman30/chatbot-decision-core/internal/config"
	"github.com/wolfman30/chatbot-decision-core/internal/llm"
	"github.com/wolfman30/chatbot-decision-core/pkg/logging"
)

// Provider names accepted in LLM_PROVIDER and LLM_FALLBACK_PROVIDER.
const (
	ProviderBedrock = "bedrock"
	ProviderOpenAI  = "openai"
	ProviderGemini  = "gemini"
)

// BuildLLMClient wires the category provider's model client. The primary is
// cfg.LLMProvider, or the first configured provider when unset; an optional
// secondary is tried once on failure. A nil client means no provider is
// configured and classification stays rule based.
func BuildLLMClient(ctx context.Context, cfg *appconfig.Config, bedrock llm.BedrockConverseAPI, logger *logging.Logger) (llm.Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	primaryName := cfg.LLMProvider
	if primaryName == "" {
		primaryName = firstConfiguredProvider(cfg, bedrock)
	}
	if primaryName == "" {
		logger.Warn("no LLM provider configured; category provider disabled")
		return nil, nil
	}

	primary, err := buildProvider(ctx, primaryName, cfg, bedrock)
	if err != nil {
		return nil, err
	}

	fallbackName := cfg.LLMFallbackProvider
	if fallbackName == "" || fallbackName == primaryName {
		logger.Info("llm provider enabled", "provider", primaryName)
		return primary, nil
	}
	secondary, err := buildProvider(ctx, fallbackName, cfg, bedrock)
	if err != nil {
		logger.Warn("fallback llm provider unavailable", "provider", fallbackName, "error", err)
		return primary, nil
	}
	logger.Info("llm provider enabled", "provider", primaryName, "fallback", fallbackName)
	return llm.NewFallbackClient(primary, secondary, logger), nil
}

func firstConfiguredProvider(cfg *appconfig.Config, bedrock llm.BedrockConverseAPI) string {
	switch {
	case bedrock != nil && strings.TrimSpace(cfg.BedrockModelID) != "":
		return ProviderBedrock
	case strings.TrimSpace(cfg.OpenAIAPIKey) != "":
		return ProviderOpenAI
	case strings.TrimSpace(cfg.GeminiAPIKey) != "":
		return ProviderGemini
	default:
		return ""
	}
}

func buildProvider(ctx context.Context, name string, cfg *appconfig.Config, bedrock llm.BedrockConverseAPI) (llm.Client, error) {
	switch name {
	case ProviderBedrock:
		if bedrock == nil {
			return nil, fmt.Errorf("bootstrap: bedrock client unavailable")
		}
		if strings.TrimSpace(cfg.BedrockModelID) == "" {
			return nil, fmt.Errorf("bootstrap: BEDROCK_MODEL_ID is required for bedrock")
		}
		return llm.NewBedrockClient(bedrock).WithDefaultModel(cfg.BedrockModelID), nil
	case ProviderOpenAI:
		return llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
	case ProviderGemini:
		return llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
	default:
		return nil, fmt.Errorf("bootstrap: unknown llm provider %q", name)
	}
}
