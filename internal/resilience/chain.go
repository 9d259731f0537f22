package resilience

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrAllFailed is returned when every entry in a [Chain] fails or has an open
// circuit breaker.
var ErrAllFailed = errors.New("all strategies failed")

// chainEntry pairs a strategy value with its dedicated circuit breaker.
type chainEntry[T any] struct {
	name    string
	value   T
	breaker *CircuitBreaker
}

// Chain wraps a primary and zero or more fallback instances of the same
// strategy type. When the primary fails (or its circuit breaker is open), the
// next healthy entry is tried in registration order. The note formatter uses
// a Chain to fall back from LLM formatting to rule-based extraction.
//
// Chain is safe for concurrent use once assembled; Add must not be called
// concurrently with Run.
type Chain[T any] struct {
	entries []chainEntry[T]
	cbCfg   CircuitBreakerConfig
}

// NewChain creates a [Chain] with primary as the first entry. cbCfg seeds the
// circuit breaker created for each entry; its Name field is replaced by the
// entry name.
func NewChain[T any](primaryName string, primary T, cbCfg CircuitBreakerConfig) *Chain[T] {
	c := &Chain[T]{cbCfg: cbCfg}
	c.Add(primaryName, primary)
	return c
}

// Add appends a fallback strategy. Entries are tried in the order added.
func (c *Chain[T]) Add(name string, value T) {
	cfg := c.cbCfg
	cfg.Name = name
	c.entries = append(c.entries, chainEntry[T]{
		name:    name,
		value:   value,
		breaker: NewCircuitBreaker(cfg),
	})
}

// Run tries fn against each entry in the chain until one succeeds, returning
// the result and the name of the entry that produced it. Entries with an open
// breaker are skipped. Returns [ErrAllFailed] wrapped with the last error if
// every entry fails. This is a package-level function because Go does not
// support method-level type parameters.
func Run[T any, R any](c *Chain[T], fn func(T) (R, error)) (R, string, error) {
	var (
		lastErr error
		zero    R
	)
	for i := range c.entries {
		entry := &c.entries[i]
		var result R
		err := entry.breaker.Execute(func() error {
			var innerErr error
			result, innerErr = fn(entry.value)
			return innerErr
		})
		if err == nil {
			return result, entry.name, nil
		}
		lastErr = err
		if errors.Is(err, ErrCircuitOpen) {
			slog.Debug("skipping strategy (circuit open)", "strategy", entry.name)
		} else {
			slog.Warn("strategy failed, trying next",
				"strategy", entry.name, "error", err)
		}
	}
	return zero, "", fmt.Errorf("%w: %v", ErrAllFailed, lastErr)
}
