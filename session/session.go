// Package session holds per-conversation mutable state. A Context lives in
// process memory for the life of the process and is reset, never persisted:
// losing sessions on restart is a deliberate limitation of the design.
package session

import (
	"sort"
	"strings"
)

// Context is the state of one conversation. It is not safe for concurrent
// use on its own; the Manager serializes access per session.
type Context struct {
	// Messages are the raw user utterances, append-only within a session.
	Messages []string
	// CollectedParams maps field paths to the last description the user gave
	// for them. Writes overwrite; nothing is removed short of Reset.
	CollectedParams map[string]string
	// MissingFields is the current required-and-unknown set. Each cycle
	// replaces it wholesale; it is not an accumulating log.
	MissingFields []string
	// SchemaContext is the most recent schema fragment from retrieval, with
	// ModelType identifying which part of the schema it documents.
	SchemaContext string
	ModelType     string
	// CurrentDocument is the last successfully parsed candidate output.
	CurrentDocument string
	// AwaitingClarification is derived: true iff MissingFields is non-empty.
	AwaitingClarification bool
}

func newContext() *Context {
	return &Context{CollectedParams: make(map[string]string)}
}

// AppendUserMessage records one user utterance. It never fails.
func (c *Context) AppendUserMessage(text string) {
	c.Messages = append(c.Messages, text)
}

// RecordCollectedParam stores a field description; the last write wins.
func (c *Context) RecordCollectedParam(path, value string) {
	c.CollectedParams[path] = value
}

// SetMissing replaces the missing-field set and derives the awaiting flag.
func (c *Context) SetMissing(fields []string) {
	c.MissingFields = fields
	c.AwaitingClarification = len(fields) > 0
}

// ClearMissing empties the missing-field set.
func (c *Context) ClearMissing() {
	c.MissingFields = nil
	c.AwaitingClarification = false
}

// SetSchemaContext stores the retrieved schema fragment and its tag.
func (c *Context) SetSchemaContext(content, modelType string) {
	c.SchemaContext = content
	c.ModelType = modelType
}

// SetDocument stores the last parsed candidate document.
func (c *Context) SetDocument(doc string) {
	c.CurrentDocument = doc
}

// Reset restores the context to its construction-time state.
func (c *Context) Reset() {
	c.Messages = nil
	c.CollectedParams = make(map[string]string)
	c.MissingFields = nil
	c.SchemaContext = ""
	c.ModelType = ""
	c.CurrentDocument = ""
	c.AwaitingClarification = false
}

// JoinedMessages returns the conversation as a single space-separated string
// for prompt assembly.
func (c *Context) JoinedMessages() string {
	return strings.Join(c.Messages, " ")
}

// ParamsSummary renders the collected parameters as "path: value" lines in
// stable order.
func (c *Context) ParamsSummary() string {
	if len(c.CollectedParams) == 0 {
		return ""
	}
	paths := make([]string, 0, len(c.CollectedParams))
	for p := range c.CollectedParams {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	var b strings.Builder
	for i, p := range paths {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(p)
		b.WriteString(": ")
		b.WriteString(c.CollectedParams[p])
	}
	return b.String()
}

// Len returns the number of messages in the session.
func (c *Context) Len() int { return len(c.Messages) }
