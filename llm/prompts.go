package llm

import (
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
)

const classifierSystemPrompt = `You help a user assemble a workflow definition document through conversation.
Compare what the user has said against the required fields and the schema documentation.
Report which required fields are still missing, which fields the user filled in, whether the document can already be generated, and a short friendly message asking the user for the missing information.
Do not invent field paths: only use paths from the required fields list or the schema documentation.`

const creatorSystemPrompt = `Using the schema documentation and the collected parameters, create the workflow definition JSON document.
The answer must contain only the JSON document, without additional commentary.`

const strictFormatPrompt = `The previous answer was not valid JSON.
Return only the raw JSON document: no markdown fences, no commentary, no explanations.`

func buildClassifyPrompt(req *ClassifyRequest) []*schema.Message {
	var b strings.Builder
	b.WriteString("# Conversation:\n")
	b.WriteString(strings.Join(req.Messages, "\n"))
	if section := formatRequiredFields(req.RequiredFields); section != "" {
		b.WriteString("\n\n")
		b.WriteString(section)
	}
	if req.CollectedParams != "" {
		b.WriteString("\n\n# Collected parameters:\n")
		b.WriteString(req.CollectedParams)
	}
	if req.SchemaContext != "" {
		b.WriteString("\n\n# Schema documentation:\n")
		b.WriteString(req.SchemaContext)
	}
	return []*schema.Message{
		schema.SystemMessage(classifierSystemPrompt),
		schema.UserMessage(b.String()),
	}
}

func formatRequiredFields(fields []string) string {
	if len(fields) == 0 {
		return "# Missing required fields:\n none"
	}
	var b strings.Builder
	b.WriteString("# Missing required fields:\n")
	for _, f := range fields {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	return strings.TrimRight(b.String(), "\n")
}

func buildGeneratePrompt(req *GenerateRequest, strict bool) []*schema.Message {
	var b strings.Builder
	b.WriteString("Create the workflow definition JSON document for the following request.\n\n")
	b.WriteString("# Conversation:\n")
	b.WriteString(strings.Join(req.Messages, " "))
	if req.CollectedParams != "" {
		b.WriteString("\n\n# Collected parameters:\n")
		b.WriteString(req.CollectedParams)
	}
	if req.SchemaContext != "" {
		b.WriteString("\n\n# Schema documentation:\n")
		b.WriteString(req.SchemaContext)
	}
	if strict {
		b.WriteString("\n\n")
		b.WriteString(strictFormatPrompt)
	}
	return []*schema.Message{
		schema.SystemMessage(creatorSystemPrompt),
		schema.UserMessage(b.String()),
	}
}

// StripFences removes a single wrapping markdown code fence, with or without
// a language tag, from model output.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	body := s[3:]
	if idx := strings.IndexByte(body, '\n'); idx >= 0 {
		// Drop the language tag line ("json", "JSON", or empty).
		body = body[idx+1:]
	}
	body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	return strings.TrimSpace(body)
}
