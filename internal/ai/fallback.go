package ai

import (
	"context"
	"fmt"
	"log/slog"
)

// fallbackGenerator wraps two Generator implementations. It calls the primary
// first; if that returns an error it logs the failure and tries the secondary.
// Which provider is primary is decided in main.go.
type fallbackGenerator struct {
	primary   Generator
	secondary Generator
	logger    *slog.Logger
}

// NewFallbackGenerator returns a Generator that calls primary and, on failure,
// falls back to secondary. Either argument may be nil: if primary is nil it
// goes straight to secondary; if secondary is nil and primary fails, the
// primary error is returned directly.
func NewFallbackGenerator(primary, secondary Generator, logger *slog.Logger) Generator {
	return &fallbackGenerator{
		primary:   primary,
		secondary: secondary,
		logger:    logger,
	}
}

// Generate tries the primary Generator. If it fails and a secondary is
// configured, it logs the primary error and tries the secondary.
func (f *fallbackGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if f.primary != nil {
		text, err := f.primary.Generate(ctx, prompt)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			// The caller's deadline is spent; the secondary would fail too.
			return "", err
		}
		f.logger.Warn("ai: primary generator failed, trying secondary",
			"error", err,
			"prompt_len", len(prompt),
		)
		if f.secondary == nil {
			return "", fmt.Errorf("ai: primary failed and no secondary configured: %w", err)
		}
	}

	if f.secondary == nil {
		return "", fmt.Errorf("ai: no generator configured")
	}
	return f.secondary.Generate(ctx, prompt)
}
