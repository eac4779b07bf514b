package domain

import "context"

// SymbolSource looks up one symbol against a single tier.
// Implementations never return errors: every failure is an unavailable outcome.
type SymbolSource interface {
	Tier() Tier
	Fetch(ctx context.Context, symbol string) FetchOutcome
}

// BatchSource looks up many symbols in one call. A non-nil error means the
// whole tier failed and no per-symbol outcome can be trusted.
type BatchSource interface {
	FetchBatch(ctx context.Context, symbols []string) (map[string]FetchOutcome, error)
}

// Universe resolves descriptive data for configured symbols
type Universe interface {
	Symbols() []string
	Lookup(symbol string) (SecurityInfo, bool)
}
