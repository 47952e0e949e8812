package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// DefaultTimeout bounds a single generation call when the Gateway is built
// with a zero timeout.
const DefaultTimeout = 45 * time.Second

// Result is the outcome of one generation call. Exactly one of Text and
// Message is meaningful: OK reports which.
type Result struct {
	// OK is true when Text holds generated content.
	OK bool `json:"ok"`

	// Text is the generated text, trimmed of surrounding whitespace.
	Text string `json:"text,omitempty"`

	// Message is a human-readable explanation shown in place of the text when
	// generation failed.
	Message string `json:"message,omitempty"`
}

// Display returns what the caller should show: the text on success, the
// failure message otherwise.
func (r Result) Display() string {
	if r.OK {
		return r.Text
	}
	return r.Message
}

// Failed builds a failed Result with the given message.
func Failed(message string) Result {
	return Result{Message: message}
}

// Gateway is the failure-isolation boundary around a Generator. Generate never
// returns an error: every provider failure, timeout or empty answer becomes a
// failed Result. One attempt is made per call.
type Gateway struct {
	gen     Generator
	timeout time.Duration
	logger  *slog.Logger
}

// NewGateway wraps gen. A zero timeout selects DefaultTimeout.
func NewGateway(gen Generator, timeout time.Duration, logger *slog.Logger) *Gateway {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Gateway{gen: gen, timeout: timeout, logger: logger}
}

// Generate calls the provider once under the gateway timeout.
func (g *Gateway) Generate(ctx context.Context, prompt string) Result {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	text, err := g.call(ctx, prompt)
	if err == nil {
		text = strings.TrimSpace(text)
		if text == "" {
			err = ErrEmptyResponse
		}
	}

	if err != nil {
		g.logger.Warn("ai: generation failed",
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return Failed(failureMessage(err))
	}

	g.logger.Debug("ai: generation ok",
		"chars", len(text),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return Result{OK: true, Text: text}
}

// call invokes the provider and converts a panic into an error so that a
// misbehaving SDK cannot take down the request.
func (g *Gateway) call(ctx context.Context, prompt string) (text string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("ai: provider panic: %v", p)
		}
	}()
	if g.gen == nil {
		return "", errors.New("ai: no generator configured")
	}
	return g.gen.Generate(ctx, prompt)
}

func failureMessage(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "Generation unavailable: the AI service took too long to respond. Please try again."
	case errors.Is(err, context.Canceled):
		return "Generation unavailable: the request was cancelled."
	case errors.Is(err, ErrEmptyResponse):
		return "Generation unavailable: the AI service returned an empty answer. Please try again."
	default:
		return "Generation unavailable: " + err.Error()
	}
}
