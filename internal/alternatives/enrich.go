package alternatives

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/claude/repcoach/internal/llm"
	"github.com/claude/repcoach/internal/taxonomy"
)

// enrichTimeoutMs bounds the optional reason enrichment. The
// deterministic result is already in hand when this runs; a slow or
// failing model changes nothing.
const enrichTimeoutMs = 2000

// Suggester bundles the deterministic scorer with optional model
// enrichment of the reason strings.
type Suggester struct {
	idx    *taxonomy.Index
	client llm.Client // nil disables enrichment
	log    *slog.Logger
}

// NewSuggester creates a Suggester. client may be nil.
func NewSuggester(idx *taxonomy.Index, client llm.Client, log *slog.Logger) *Suggester {
	return &Suggester{idx: idx, client: client, log: log}
}

// Suggest returns ranked substitutes. The ranking and scores come from
// the deterministic scorer; when a model client is configured, reasons
// are rephrased best-effort within a short timeout.
func (s *Suggester) Suggest(ctx context.Context, exerciseID string, c Criteria) ([]Suggestion, error) {
	suggestions, err := Suggest(s.idx, exerciseID, c)
	if err != nil {
		return nil, err
	}
	if s.client == nil || len(suggestions) == 0 {
		return suggestions, nil
	}

	target, err := s.idx.GetByID(exerciseID)
	if err != nil {
		return suggestions, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "In one short sentence each, explain why these exercises substitute for %s. ", target.Name)
	b.WriteString("Answer with one line per exercise, no numbering, same order:\n")
	for _, sug := range suggestions {
		fmt.Fprintf(&b, "- %s\n", sug.Exercise.Name)
	}

	raw, err := s.client.Complete(ctx, b.String(), llm.Options{TimeoutMs: enrichTimeoutMs, Temperature: 0.3, MaxTokens: 256})
	if err != nil {
		s.log.Debug("reason enrichment skipped", "error", err)
		return suggestions, nil
	}

	lines := nonEmptyLines(raw)
	if len(lines) != len(suggestions) {
		// Model didn't follow the format; keep templated reasons.
		return suggestions, nil
	}
	for i := range suggestions {
		suggestions[i].Reason = strings.TrimPrefix(strings.TrimSpace(lines[i]), "- ")
	}
	return suggestions, nil
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}
