package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/wolfman30/telehealth-portal/internal/compliance"
	appconfig "github.com/wolfman30/telehealth-portal/internal/config"
	"github.com/wolfman30/telehealth-portal/internal/symptoms"
	"github.com/wolfman30/telehealth-portal/pkg/logging"
)

// BuildSymptomChecker wires the LLM named by LLM_PROVIDER. It returns nil
// when the provider is not configured, which leaves the endpoint unmounted.
func BuildSymptomChecker(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) (*symptoms.Checker, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	switch cfg.LLMProvider {
	case "gemini":
		if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
			logger.Warn("gemini selected but GEMINI_API_KEY empty; symptom checker disabled")
			return nil, nil
		}
		client, err := symptoms.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: gemini client: %w", err)
		}
		logger.Info("symptom checker enabled", "provider", "gemini", "model", cfg.GeminiModelID)
		return symptoms.NewChecker(client), nil
	case "bedrock":
		model := strings.TrimSpace(cfg.BedrockModelID)
		if model == "" {
			logger.Warn("bedrock selected but BEDROCK_MODEL_ID empty; symptom checker disabled")
			return nil, nil
		}
		client := symptoms.NewBedrockClient(bedrockruntime.NewFromConfig(awsCfg), model)
		logger.Info("symptom checker enabled", "provider", "bedrock", "model", model)
		return symptoms.NewChecker(client), nil
	case "", "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown llm provider %q", cfg.LLMProvider)
	}
}

// BuildCompliance returns the reply disclaimer and the audit trail. The
// audit service drops events when db is nil.
func BuildCompliance(cfg *appconfig.Config, db *sql.DB) (*compliance.DisclaimerService, *compliance.AuditService) {
	audit := compliance.NewAuditService(db)
	disclaimers := compliance.NewDisclaimerService(audit, compliance.DisclaimerConfig{
		Level:   compliance.ParseDisclaimerLevel(cfg.SymptomDisclaimerLevel),
		Enabled: cfg.SymptomDisclaimerEnabled,
	})
	return disclaimers, audit
}
