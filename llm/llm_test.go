package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChatModel scripts model responses per call, in order.
type fakeChatModel struct {
	calls     int
	prompts   [][]*schema.Message
	responses []func() (*schema.Message, error)
}

func (f *fakeChatModel) Generate(_ context.Context, in []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.prompts = append(f.prompts, in)
	idx := f.calls
	f.calls++
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	return f.responses[idx]()
}

func (f *fakeChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

func (f *fakeChatModel) WithTools([]*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return f, nil
}

func text(content string) func() (*schema.Message, error) {
	return func() (*schema.Message, error) {
		return &schema.Message{Role: schema.Assistant, Content: content}, nil
	}
}

func toolCall(args string) func() (*schema.Message, error) {
	return func() (*schema.Message, error) {
		return &schema.Message{
			Role: schema.Assistant,
			ToolCalls: []schema.ToolCall{{
				Function: schema.FunctionCall{
					Name:      "report_classification",
					Arguments: args,
				},
			}},
		}, nil
	}
}

func fail(err error) func() (*schema.Message, error) {
	return func() (*schema.Message, error) { return nil, err }
}

func fastRetry(attempts int) GeneratorOption {
	return WithRetryConfig(RetryConfig{Attempts: attempts, Delay: time.Millisecond})
}

func TestClassifierParsesForcedToolCall(t *testing.T) {
	fake := &fakeChatModel{responses: []func() (*schema.Message, error){
		toolCall(`{
			"missing": ["wf_definition.name"],
			"mentioned_params": [{"path": "wf_definition.type", "value": "rest_call"}],
			"can_generate_schema": false,
			"message": "What should the workflow be called?"
		}`),
	}}
	c, err := NewClassifier(fake)
	require.NoError(t, err)

	result, err := c.Classify(context.Background(), &ClassifyRequest{
		Messages:       []string{"I need a rest call workflow"},
		RequiredFields: []string{"wf_definition.name", "wf_definition.type"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"wf_definition.name"}, result.Missing)
	require.Len(t, result.MentionedParams, 1)
	assert.Equal(t, "wf_definition.type", result.MentionedParams[0].Path)
	assert.False(t, result.CanGenerate)
	assert.Equal(t, "What should the workflow be called?", result.Message)
}

func TestClassifierNoToolCallIsParseError(t *testing.T) {
	fake := &fakeChatModel{responses: []func() (*schema.Message, error){
		text("I could not decide"),
	}}
	c, err := NewClassifier(fake)
	require.NoError(t, err)

	_, err = c.Classify(context.Background(), &ClassifyRequest{Messages: []string{"hi"}})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrClassificationParse)
}

func TestClassifierMalformedArgumentsIsParseError(t *testing.T) {
	fake := &fakeChatModel{responses: []func() (*schema.Message, error){
		toolCall(`{"missing": [`),
	}}
	c, err := NewClassifier(fake)
	require.NoError(t, err)

	_, err = c.Classify(context.Background(), &ClassifyRequest{Messages: []string{"hi"}})

	assert.ErrorIs(t, err, ErrClassificationParse)
}

func TestClassifierTransportErrorNotRetried(t *testing.T) {
	fake := &fakeChatModel{responses: []func() (*schema.Message, error){
		fail(errors.New("connection refused")),
	}}
	c, err := NewClassifier(fake)
	require.NoError(t, err)

	_, err = c.Classify(context.Background(), &ClassifyRequest{Messages: []string{"hi"}})

	assert.ErrorIs(t, err, ErrCollaboratorUnavailable)
	assert.Equal(t, 1, fake.calls)
}

func TestGeneratorSucceedsOnThirdAttempt(t *testing.T) {
	fake := &fakeChatModel{responses: []func() (*schema.Message, error){
		fail(errors.New("timeout")),
		fail(errors.New("timeout")),
		text(`{"wf_definition": {"name": "demo"}}`),
	}}
	g := NewGenerator(fake, fastRetry(3))

	doc, err := g.Generate(context.Background(), &GenerateRequest{Messages: []string{"go"}})

	require.NoError(t, err)
	assert.Equal(t, 3, fake.calls)
	assert.False(t, doc.Unparsed)
	assert.JSONEq(t, `{"wf_definition": {"name": "demo"}}`, doc.Raw)
}

func TestGeneratorExhaustsRetries(t *testing.T) {
	fake := &fakeChatModel{responses: []func() (*schema.Message, error){
		fail(errors.New("timeout")),
	}}
	g := NewGenerator(fake, fastRetry(2))

	_, err := g.Generate(context.Background(), &GenerateRequest{Messages: []string{"go"}})

	assert.ErrorIs(t, err, ErrCollaboratorUnavailable)
	assert.Equal(t, 2, fake.calls)
}

func TestGeneratorStripsMarkdownFences(t *testing.T) {
	fake := &fakeChatModel{responses: []func() (*schema.Message, error){
		text("```json\n{\"name\": \"demo\"}\n```"),
	}}
	g := NewGenerator(fake, fastRetry(3))

	doc, err := g.Generate(context.Background(), &GenerateRequest{Messages: []string{"go"}})

	require.NoError(t, err)
	assert.Equal(t, 1, fake.calls, "fenced but valid output needs no retry")
	assert.Equal(t, `{"name": "demo"}`, doc.Raw)
}

func TestGeneratorAmendedPromptRetry(t *testing.T) {
	fake := &fakeChatModel{responses: []func() (*schema.Message, error){
		text("Sure! Here is your document: name=demo"),
		text(`{"name": "demo"}`),
	}}
	g := NewGenerator(fake, fastRetry(3))

	doc, err := g.Generate(context.Background(), &GenerateRequest{Messages: []string{"go"}})

	require.NoError(t, err)
	assert.Equal(t, 2, fake.calls)
	assert.False(t, doc.Unparsed)

	// The second call must carry the strict-format amendment.
	require.Len(t, fake.prompts, 2)
	last := fake.prompts[1][len(fake.prompts[1])-1]
	assert.Contains(t, last.Content, "no markdown fences")
}

func TestGeneratorReturnsUnparsedAfterStrictRetry(t *testing.T) {
	fake := &fakeChatModel{responses: []func() (*schema.Message, error){
		text("still not json"),
		text("again not json"),
	}}
	g := NewGenerator(fake, fastRetry(3))

	doc, err := g.Generate(context.Background(), &GenerateRequest{Messages: []string{"go"}})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDocumentParse)
	require.NotNil(t, doc)
	assert.True(t, doc.Unparsed)
	assert.Equal(t, "again not json", doc.Raw)
}

func TestStripFences(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\": 1}\n```": `{"a": 1}`,
		"```\n{\"a\": 1}\n```":     `{"a": 1}`,
		"{\"a\": 1}":               `{"a": 1}`,
		"  {\"a\": 1}  ":           `{"a": 1}`,
	}
	for in, want := range cases {
		assert.Equal(t, want, StripFences(in))
	}
}
