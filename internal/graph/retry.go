package graph

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// retryConfig bounds the transient-error retry for model calls.
type retryConfig struct {
	maxRetries      int
	initialInterval time.Duration
	maxInterval     time.Duration
}

func defaultRetryConfig() retryConfig {
	return retryConfig{
		maxRetries:      3,
		initialInterval: 500 * time.Millisecond,
		maxInterval:     10 * time.Second,
	}
}

// retryablePatterns groups error substrings by category, matched
// case-insensitively against err.Error().
//
// NOTE: string matching is used because Genkit and provider SDKs do not
// expose typed errors for transient failures.
var retryablePatterns = [][]string{
	{"rate limit", "quota exceeded", "429"},      // rate limiting
	{"500", "502", "503", "504", "unavailable"},  // transient server errors
	{"connection reset", "timeout", "temporary"}, // network errors
}

// retryableError reports whether err is transient and worth retrying.
func retryableError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, group := range retryablePatterns {
		for _, pattern := range group {
			if strings.Contains(msg, pattern) {
				return true
			}
		}
	}
	return false
}

// generateText runs one model completion with a per-call deadline and
// exponential-backoff retry on transient errors. It returns the trimmed
// response text.
func generateText(ctx context.Context, g *genkit.Genkit, model, system, prompt string,
	timeout time.Duration, cfg retryConfig, logger *slog.Logger,
) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var lastErr error
	delay := cfg.initialInterval
	start := time.Now()

	for attempt := 0; attempt <= cfg.maxRetries; attempt++ {
		resp, err := genkit.Generate(ctx, g,
			ai.WithModelName(model),
			ai.WithSystem(system),
			ai.WithPrompt(prompt),
		)
		if err == nil {
			logger.Debug("model call succeeded",
				"model", model,
				"attempts", attempt+1,
				"elapsed", time.Since(start),
			)
			return strings.TrimSpace(resp.Text()), nil
		}

		lastErr = err

		if !retryableError(err) {
			return "", fmt.Errorf("generate: %w", err)
		}
		if attempt == cfg.maxRetries {
			break
		}

		logger.Debug("retrying model call after transient error",
			"attempt", attempt+1,
			"delay", delay,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("context done during retry: %w", ctx.Err())
		case <-time.After(delay):
			delay = min(delay*2, cfg.maxInterval)
		}
	}

	return "", fmt.Errorf("generate after %d retries: %w", cfg.maxRetries, lastErr)
}

// stripCodeFences removes ```...``` wrapping from model output.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	return s
}

// truncate shortens s to at most n bytes for logging.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
