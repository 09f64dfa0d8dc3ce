// Package generator turns a content type and a prompt into generated text and
// a metered cost. The text itself comes from a pluggable Backend.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/baharkarakas/copywriter-backend/internal/models"
	"google.golang.org/api/googleapi"
)

var (
	ErrBackend = errors.New("generator: backend failed")
	// ErrRateLimited means the backend asked us to slow down; callers may retry later.
	ErrRateLimited = errors.New("generator: rate limit exceeded, try again later")
)

// Backend is the raw text-generation capability.
type Backend interface {
	Complete(ctx context.Context, model, prompt string) (string, error)
}

type Result struct {
	Text       string
	TokensUsed int64
	Model      string
}

type Generator struct {
	backend      Backend
	defaultModel string
	timeout      time.Duration
}

func New(b Backend, defaultModel string, timeout time.Duration) *Generator {
	return &Generator{backend: b, defaultModel: defaultModel, timeout: timeout}
}

// FullPrompt prefixes the user prompt with the content type's system instruction.
func FullPrompt(ct models.ContentType, prompt string) string {
	return ct.SystemInstruction() + "\n\nUser Request: " + prompt
}

// EstimateTokens approximates usage at four characters per unit, rounded up.
// Characters are UTF-16 code units, so a character outside the BMP counts twice.
func EstimateTokens(text string) int64 {
	var n int64
	for _, r := range text {
		if l := utf16.RuneLen(r); l > 0 {
			n += int64(l)
		} else {
			n++
		}
	}
	return (n + 3) / 4
}

func (g *Generator) Generate(ctx context.Context, ct models.ContentType, prompt, model string) (Result, error) {
	if model == "" {
		model = g.defaultModel
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	full := FullPrompt(ct, prompt)
	text, err := g.backend.Complete(ctx, model, full)
	if err != nil {
		if isRateLimit(err) {
			return Result{}, fmt.Errorf("%w: %w", ErrRateLimited, err)
		}
		return Result{}, fmt.Errorf("%w: %w", ErrBackend, err)
	}

	return Result{
		Text:       text,
		TokensUsed: EstimateTokens(full + text),
		Model:      model,
	}, nil
}

func isRateLimit(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == 429 {
		return true
	}
	msg := strings.ToUpper(err.Error())
	return strings.Contains(msg, "RATE_LIMIT") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}
