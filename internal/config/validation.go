package config

import (
	"fmt"
	"strings"
)

// validSSLModes are the PostgreSQL SSL modes accepted by pgx.
var validSSLModes = map[string]bool{
	"disable":     true,
	"allow":       true,
	"prefer":      true,
	"require":     true,
	"verify-ca":   true,
	"verify-full": true,
}

// Validate checks the configuration and returns the first violation found,
// wrapped around the corresponding sentinel error.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	for role, name := range map[string]string{
		"model_name":      c.ModelName,
		"grader_model":    c.GraderModel,
		"rewriter_model":  c.RewriterModel,
		"generator_model": c.GeneratorModel,
		"auditor_model":   c.AuditorModel,
	} {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: %s is empty", ErrInvalidModelName, role)
		}
	}

	if strings.TrimSpace(c.EmbedderModel) == "" {
		return fmt.Errorf("%w: embedder_model is empty", ErrInvalidEmbedderModel)
	}

	if c.RetrievalTopK < 1 || c.RetrievalTopK > 50 {
		return fmt.Errorf("%w: retrieval_top_k %d not in [1, 50]", ErrInvalidTopK, c.RetrievalTopK)
	}

	if c.MaxRewrites < 1 || c.MaxRewrites > MaxAllowedRewrites {
		return fmt.Errorf("%w: max_rewrites %d not in [1, %d]",
			ErrInvalidBudget, c.MaxRewrites, MaxAllowedRewrites)
	}
	if c.MaxRegenerations < 1 || c.MaxRegenerations > MaxAllowedRegenerations {
		return fmt.Errorf("%w: max_regenerations %d not in [1, %d]",
			ErrInvalidBudget, c.MaxRegenerations, MaxAllowedRegenerations)
	}

	for name, d := range map[string]interface{ Seconds() float64 }{
		"retrieve_timeout": c.RetrieveTimeout,
		"judgment_timeout": c.JudgmentTimeout,
		"generate_timeout": c.GenerateTimeout,
	} {
		if d.Seconds() <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidTimeout, name)
		}
	}

	if strings.TrimSpace(c.PostgresHost) == "" {
		return fmt.Errorf("%w: host is empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: port %d not in [1, 65535]", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if strings.TrimSpace(c.PostgresDBName) == "" {
		return fmt.Errorf("%w: database name is empty", ErrInvalidPostgresDBName)
	}
	if !validSSLModes[c.PostgresSSLMode] {
		return fmt.Errorf("%w: %q", ErrInvalidPostgresSSLMode, c.PostgresSSLMode)
	}

	return nil
}
