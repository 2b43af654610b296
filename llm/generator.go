package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// RetryConfig bounds the generation retry loop. Both knobs are
// configuration, not constants of the algorithm.
type RetryConfig struct {
	Attempts int
	Delay    time.Duration
}

// DefaultRetryConfig is applied when an option leaves a knob unset.
var DefaultRetryConfig = RetryConfig{Attempts: 3, Delay: 2 * time.Second}

// Document is the generation outcome. Unparsed marks raw text that survived
// neither the fence-stripping pass nor the amended-prompt retry; the caller
// decides whether to accept it.
type Document struct {
	Raw      string
	Unparsed bool
}

// GenerateRequest carries the inputs for final document synthesis.
type GenerateRequest struct {
	Messages        []string
	SchemaContext   string
	CollectedParams string
}

// Generator synthesizes the final workflow document. Transient collaborator
// failures are retried with a fixed delay; malformed output gets exactly one
// amended-prompt retry before being returned unparsed.
type Generator struct {
	chatModel model.ToolCallingChatModel
	retry     RetryConfig
	sleep     func(ctx context.Context, d time.Duration) error
}

type GeneratorOption func(*Generator)

// WithRetryConfig overrides the retry policy. Zero fields keep defaults.
func WithRetryConfig(rc RetryConfig) GeneratorOption {
	return func(g *Generator) {
		if rc.Attempts > 0 {
			g.retry.Attempts = rc.Attempts
		}
		if rc.Delay > 0 {
			g.retry.Delay = rc.Delay
		}
	}
}

func NewGenerator(chatModel model.ToolCallingChatModel, opts ...GeneratorOption) *Generator {
	g := &Generator{
		chatModel: chatModel,
		retry:     DefaultRetryConfig,
		sleep:     sleepContext,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Generate produces the final document. On ErrDocumentParse the returned
// Document still carries the raw text with Unparsed set.
func (g *Generator) Generate(ctx context.Context, req *GenerateRequest) (*Document, error) {
	content, err := g.callWithRetry(ctx, buildGeneratePrompt(req, false))
	if err != nil {
		return nil, err
	}

	raw := StripFences(content)
	if validJSON(raw) {
		return &Document{Raw: raw}, nil
	}
	slog.Warn("generated document is not valid JSON, retrying with strict format prompt")

	content, err = g.callWithRetry(ctx, buildGeneratePrompt(req, true))
	if err != nil {
		return &Document{Raw: raw, Unparsed: true},
			fmt.Errorf("%w: strict retry failed: %v", ErrDocumentParse, err)
	}
	amended := StripFences(content)
	if validJSON(amended) {
		return &Document{Raw: amended}, nil
	}
	return &Document{Raw: amended, Unparsed: true},
		fmt.Errorf("%w: output is not valid JSON after strict retry", ErrDocumentParse)
}

func (g *Generator) callWithRetry(ctx context.Context, messages []*schema.Message) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= g.retry.Attempts; attempt++ {
		response, err := g.chatModel.Generate(ctx, messages)
		if err == nil {
			return response.Content, nil
		}
		lastErr = err
		slog.Warn("document generation attempt failed",
			"attempt", attempt, "attempts", g.retry.Attempts, "error", err)
		if attempt < g.retry.Attempts {
			if serr := g.sleep(ctx, g.retry.Delay); serr != nil {
				return "", serr
			}
		}
	}
	return "", fmt.Errorf("%w: %v", ErrCollaboratorUnavailable, lastErr)
}

func validJSON(s string) bool {
	var v any
	return sonic.UnmarshalString(s, &v) == nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
