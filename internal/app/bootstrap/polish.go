package bootstrap

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	appconfig "github.com/wolfman30/sms-booking-bot/internal/config"
	"github.com/wolfman30/sms-booking-bot/internal/compose"
	"github.com/wolfman30/sms-booking-bot/internal/llm"
	"github.com/wolfman30/sms-booking-bot/pkg/logging"
)

// BuildPolisher wires the optional tone pass over outbound templates.
// Providers are tried in order Bedrock, Gemini, OpenAI. With none configured,
// or POLISH_ENABLED=false, templates are sent verbatim.
func BuildPolisher(ctx context.Context, cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) *compose.SafeRewriter {
	if cfg == nil || !cfg.PolishEnabled {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var chain []llm.Client
	var names []string
	if model := strings.TrimSpace(cfg.BedrockModelID); model != "" && awsCfg != nil {
		chain = append(chain, llm.NewBedrockClient(bedrockruntime.NewFromConfig(*awsCfg), model))
		names = append(names, "bedrock")
	}
	if cfg.GeminiAPIKey != "" {
		client, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			logger.Warn("gemini client unavailable", "error", err)
		} else {
			chain = append(chain, client)
			names = append(names, "gemini")
		}
	}
	if cfg.OpenAIAPIKey != "" {
		client, err := llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
		if err != nil {
			logger.Warn("openai client unavailable", "error", err)
		} else {
			chain = append(chain, client)
			names = append(names, "openai")
		}
	}
	if len(chain) == 0 {
		logger.Info("tone polish disabled: no language model configured")
		return nil
	}

	client := chain[len(chain)-1]
	for i := len(chain) - 2; i >= 0; i-- {
		client = llm.NewFallbackClient(chain[i], client, logger.Logger)
	}
	logger.Info("tone polish enabled", "providers", strings.Join(names, ","), "timeout", cfg.PolishTimeout)
	return compose.NewSafeRewriter(llm.NewToneRewriter(client, ""), cfg.PolishTimeout, logger)
}
