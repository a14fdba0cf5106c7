package compliance

import (
	"context"
	"strings"
)

// DisclaimerLevel picks the disclaimer wording.
type DisclaimerLevel string

const (
	DisclaimerShort  DisclaimerLevel = "short"
	DisclaimerMedium DisclaimerLevel = "medium"
	DisclaimerFull   DisclaimerLevel = "full"
)

const (
	disclaimerShortText = "Automated assistant. Not medical advice."

	disclaimerMediumText = "This is an automated symptom checker, not a diagnosis. For medical advice, please book a visit with a provider."

	disclaimerFullText = "This is an automated symptom checker. Its answers are general information, not a diagnosis or a substitute for professional medical advice. If you think you are having an emergency, call your local emergency number."
)

// ParseDisclaimerLevel maps a config value to a level. Unknown values
// fall back to medium.
func ParseDisclaimerLevel(value string) DisclaimerLevel {
	switch DisclaimerLevel(strings.ToLower(strings.TrimSpace(value))) {
	case DisclaimerShort:
		return DisclaimerShort
	case DisclaimerFull:
		return DisclaimerFull
	default:
		return DisclaimerMedium
	}
}

// DisclaimerConfig configures the disclaimer service.
type DisclaimerConfig struct {
	Level      DisclaimerLevel
	Enabled    bool
	CustomText string
}

func DefaultDisclaimerConfig() DisclaimerConfig {
	return DisclaimerConfig{Level: DisclaimerMedium, Enabled: true}
}

// DisclaimerService appends a disclaimer to symptom checker replies.
type DisclaimerService struct {
	audit  *AuditService
	config DisclaimerConfig
}

func NewDisclaimerService(audit *AuditService, config DisclaimerConfig) *DisclaimerService {
	return &DisclaimerService{audit: audit, config: config}
}

// Text returns the configured wording.
func (s *DisclaimerService) Text() string {
	if s.config.CustomText != "" {
		return s.config.CustomText
	}
	switch s.config.Level {
	case DisclaimerShort:
		return disclaimerShortText
	case DisclaimerFull:
		return disclaimerFullText
	default:
		return disclaimerMediumText
	}
}

// Annotate appends the disclaimer unless disabled or already present.
// Audit failures never block the reply.
func (s *DisclaimerService) Annotate(ctx context.Context, reply, userID string) string {
	if s == nil || !s.config.Enabled {
		return reply
	}
	disclaimer := s.Text()
	if strings.Contains(reply, disclaimer) {
		return reply
	}
	_ = s.audit.LogDisclaimerSent(ctx, userID, s.config.Level)
	return strings.TrimSpace(reply) + "\n\n" + disclaimer
}
