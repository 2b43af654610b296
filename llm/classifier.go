// Package llm is the natural-language collaborator boundary: turning
// conversation turns into structured classifications via forced tool calls,
// and synthesizing the final workflow document with bounded retry.
package llm

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
)

// MentionedParam is one field the user supplied in the latest turns.
type MentionedParam struct {
	Path  string `json:"path" jsonschema:"description=Dotted field path of the parameter,required"`
	Value string `json:"value" jsonschema:"description=Value or description the user gave for the parameter,required"`
}

// Classification is the structured verdict on one conversation turn: which
// required fields are still missing, what the user just supplied, whether
// the document can be generated, and what to say back.
type Classification struct {
	Missing         []string         `json:"missing" jsonschema:"description=Field paths still required for generation; empty when everything is present,required"`
	MentionedParams []MentionedParam `json:"mentioned_params" jsonschema:"description=Fields the user filled in with their messages,required"`
	CanGenerate     bool             `json:"can_generate_schema" jsonschema:"description=True when enough information exists to generate the workflow document,required"`
	Message         string           `json:"message" jsonschema:"description=Reply asking the user to clarify the missing fields,required"`
}

// ClassifyRequest carries everything the clarifier sees for one turn.
type ClassifyRequest struct {
	Messages        []string
	RequiredFields  []string
	SchemaContext   string
	CollectedParams string
}

// Classifier asks the chat model to classify the conversation against the
// schema. The call forces a single tool invocation whose argument schema is
// derived from Classification, so a well-behaved model can only answer in
// the expected shape.
type Classifier struct {
	chatModel model.ToolCallingChatModel
	toolInfo  *schema.ToolInfo
}

func NewClassifier(chatModel model.ToolCallingChatModel) (*Classifier, error) {
	toolInfo, err := utils.GoStruct2ToolInfo[Classification](
		"report_classification",
		"Report which workflow fields are missing, which the user supplied, and whether generation can proceed",
	)
	if err != nil {
		return nil, fmt.Errorf("create classifier: %w", err)
	}
	return &Classifier{chatModel: chatModel, toolInfo: toolInfo}, nil
}

// Classify runs one classification round. Transport failures come back as
// ErrCollaboratorUnavailable and are not retried here; unusable model output
// comes back as ErrClassificationParse, with no partial result.
func (c *Classifier) Classify(ctx context.Context, req *ClassifyRequest) (*Classification, error) {
	response, err := c.chatModel.Generate(ctx, buildClassifyPrompt(req),
		model.WithTools([]*schema.ToolInfo{c.toolInfo}),
		model.WithToolChoice(schema.ToolChoiceForced, c.toolInfo.Name),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCollaboratorUnavailable, err)
	}
	if len(response.ToolCalls) == 0 {
		return nil, fmt.Errorf("%w: model answered in prose instead of the %s call",
			ErrClassificationParse, c.toolInfo.Name)
	}

	var result Classification
	if err := sonic.UnmarshalString(response.ToolCalls[0].Function.Arguments, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassificationParse, err)
	}
	return &result, nil
}
