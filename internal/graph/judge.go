package graph

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/firebase/genkit/go/genkit"
)

// judge executes single judgment-model calls for one role. Each role (the
// grader, the rewriter, the auditors) carries its own judge so the backing
// model can be swapped per role.
type judge struct {
	g       *genkit.Genkit
	model   string
	timeout time.Duration
	retry   retryConfig
	logger  *slog.Logger
}

func newJudge(g *genkit.Genkit, model string, timeout time.Duration, logger *slog.Logger) judge {
	if logger == nil {
		logger = slog.Default()
	}
	return judge{
		g:       g,
		model:   model,
		timeout: timeout,
		retry:   defaultRetryConfig(),
		logger:  logger,
	}
}

// binary asks a yes/no question. The response is parsed narrowly; a
// response that is not a clear yes or no is retried once in place, then
// reported as ErrJudgmentParse. Callers that prefer fail-closed behavior
// map that error to their conservative verdict.
func (j judge) binary(ctx context.Context, system, prompt string) (bool, error) {
	var lastRaw string
	for attempt := 0; attempt < 2; attempt++ {
		raw, err := generateText(ctx, j.g, j.model, system, prompt, j.timeout, j.retry, j.logger)
		if err != nil {
			return false, err
		}

		verdict, ok := parseBinary(raw)
		if ok {
			return verdict, nil
		}

		lastRaw = raw
		j.logger.Debug("unparseable binary verdict, retrying in place",
			"model", j.model,
			"raw", truncate(raw, 120),
		)
	}

	return false, fmt.Errorf("%w: %q", ErrJudgmentParse, truncate(lastRaw, 120))
}

// text asks for a free-text completion that must be non-empty. Empty output
// is retried once in place, then reported as ErrJudgmentParse.
func (j judge) text(ctx context.Context, system, prompt string) (string, error) {
	for attempt := 0; attempt < 2; attempt++ {
		raw, err := generateText(ctx, j.g, j.model, system, prompt, j.timeout, j.retry, j.logger)
		if err != nil {
			return "", err
		}

		out := strings.TrimSpace(stripCodeFences(raw))
		if out != "" {
			return out, nil
		}

		j.logger.Debug("empty completion, retrying in place", "model", j.model)
	}

	return "", fmt.Errorf("%w: empty completion", ErrJudgmentParse)
}

// parseBinary interprets a model response as a yes/no verdict. Only a
// leading yes or no token counts; everything else is unparseable.
func parseBinary(raw string) (verdict, ok bool) {
	s := strings.ToLower(strings.TrimSpace(stripCodeFences(raw)))
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '\n' || r == '\t' || r == '.' || r == ',' || r == ':' || r == '!' || r == '"' || r == '\''
	})
	if len(fields) == 0 {
		return false, false
	}
	switch fields[0] {
	case "yes":
		return true, true
	case "no":
		return false, true
	default:
		return false, false
	}
}
