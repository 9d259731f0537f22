package note

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/quillmed/quillmed/internal/resilience"
)

// Formatter turns corrected transcripts into notes, preferring an LLM
// strategy and degrading to rule-based extraction when the model backend is
// unavailable. The caller always receives a note with Method set; "LLM down"
// is not an error condition.
type Formatter struct {
	chain *resilience.Chain[Strategy]
}

// NewFormatter builds a Formatter. primary may be nil, in which case only the
// rule-based strategy is used. Repeated primary failures open a circuit
// breaker so later notes skip the dead backend without waiting on it.
func NewFormatter(primary Strategy) *Formatter {
	cbCfg := resilience.CircuitBreakerConfig{
		MaxFailures: 3,
		Cooldown:    2 * time.Minute,
	}

	var chain *resilience.Chain[Strategy]
	if primary != nil {
		chain = resilience.NewChain[Strategy]("llm", primary, cbCfg)
		chain.Add("rule-based", NewRuleBased())
	} else {
		chain = resilience.NewChain[Strategy]("rule-based", NewRuleBased(), cbCfg)
	}
	return &Formatter{chain: chain}
}

// Format produces a note from the corrected transcript. It only returns an
// error when every strategy fails, which the rule-based fallback prevents in
// practice.
func (f *Formatter) Format(ctx context.Context, transcript string) (*Note, error) {
	n, strategy, err := resilience.Run(f.chain, func(s Strategy) (*Note, error) {
		return s.Format(ctx, transcript)
	})
	if err != nil {
		return nil, fmt.Errorf("note: format: %w", err)
	}
	slog.Debug("note formatted", "strategy", strategy, "method", n.Method)
	return n, nil
}
