// Package chat runs the clarification cycle: each user message is classified
// against the schema's currently required fields, the session accumulates
// what the user has supplied, and once enough is known the final workflow
// document is generated. One message is one synchronous turn; turns for the
// same session run in FIFO order, different sessions run concurrently.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/Timik232/Mts-json-generator/llm"
	"github.com/Timik232/Mts-json-generator/retrieval"
	"github.com/Timik232/Mts-json-generator/schema"
	"github.com/Timik232/Mts-json-generator/session"
)

// User-facing replies for failed turns. Raw error text never crosses the
// transport boundary.
const (
	internalErrorReply = "Sorry, I could not process that message. Please send it again."
	unavailableReply   = "Sorry, the assistant is temporarily unavailable. Please try again in a moment."
	unparsedReply      = "I prepared a document but could not verify its format, please review it carefully."
	documentReadyReply = "Here is the workflow definition built from our conversation."
)

// Classifier is the per-turn NLU collaborator.
type Classifier interface {
	Classify(ctx context.Context, req *llm.ClassifyRequest) (*llm.Classification, error)
}

// Generator is the final-document collaborator.
type Generator interface {
	Generate(ctx context.Context, req *llm.GenerateRequest) (*llm.Document, error)
}

// Retriever supplies schema documentation fragments. An empty result means
// "no context available", not an error.
type Retriever interface {
	Search(ctx context.Context, query string) []retrieval.Result
}

// Reply is one turn's outcome. Document is empty until generation happens;
// Unparsed marks best-effort raw text that failed JSON validation.
type Reply struct {
	Message  string
	Document string
	Unparsed bool
}

// Manager orchestrates turns across sessions.
type Manager struct {
	tree       *schema.Tree
	sessions   *session.Manager
	classifier Classifier
	generator  Generator
	retriever  Retriever
}

type Option func(*Manager)

// WithRetriever enables schema-context retrieval. Without it every turn runs
// on the required-fields list alone.
func WithRetriever(r Retriever) Option {
	return func(m *Manager) { m.retriever = r }
}

func NewManager(tree *schema.Tree, classifier Classifier, generator Generator, opts ...Option) *Manager {
	m := &Manager{
		tree:       tree,
		sessions:   session.NewManager(),
		classifier: classifier,
		generator:  generator,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// HandleMessage processes one user message end to end. The returned Reply is
// always usable at the transport boundary; the error, when non-nil, carries
// the taxonomy sentinel for callers that need to distinguish failure modes.
func (m *Manager) HandleMessage(ctx context.Context, sessionID, text string) (*Reply, error) {
	sess, release := m.sessions.Acquire(sessionID)
	defer release()

	schemaContext, modelType := sess.SchemaContext, sess.ModelType
	if schemaContext == "" && m.retriever != nil {
		query := strings.TrimSpace(sess.JoinedMessages() + " " + text)
		if results := m.retriever.Search(ctx, query); len(results) > 0 {
			schemaContext, modelType = results[0].Payload, results[0].ModelType
			slog.Debug("retrieved schema context",
				"session", sessionID, "model_type", modelType, "score", results[0].Score)
		} else {
			slog.Debug("no schema context available", "session", sessionID)
		}
	}

	messages := make([]string, 0, sess.Len()+1)
	messages = append(messages, sess.Messages...)
	messages = append(messages, text)

	classification, err := m.classifier.Classify(ctx, &llm.ClassifyRequest{
		Messages:        messages,
		RequiredFields:  m.requiredMissing(sess.CollectedParams),
		SchemaContext:   schemaContext,
		CollectedParams: sess.ParamsSummary(),
	})
	if err != nil {
		// No partial merge: the session stays exactly as it was this turn.
		slog.Error("turn classification failed", "session", sessionID, "error", err)
		if errors.Is(err, llm.ErrCollaboratorUnavailable) {
			return &Reply{Message: unavailableReply}, err
		}
		return &Reply{Message: internalErrorReply}, err
	}

	m.commit(sess, sessionID, text, schemaContext, modelType, classification)

	if !classification.CanGenerate {
		slog.Debug("awaiting clarification",
			"session", sessionID, "missing", len(sess.MissingFields))
		return &Reply{Message: classification.Message}, nil
	}
	return m.generate(ctx, sess, sessionID, classification.Message)
}

// commit merges one successfully classified turn into the session: the
// message is appended, retrieved context is pinned, mentioned parameters are
// recorded and patched into the draft, and the missing set is replaced by the
// classifier's list filtered against what the resolver still requires.
func (m *Manager) commit(sess *session.Context, sessionID, text, schemaContext, modelType string, cls *llm.Classification) {
	sess.AppendUserMessage(text)
	if sess.SchemaContext == "" && schemaContext != "" {
		sess.SetSchemaContext(schemaContext, modelType)
	}

	for _, param := range cls.MentionedParams {
		sess.RecordCollectedParam(param.Path, param.Value)
	}
	if len(cls.MentionedParams) > 0 {
		draft, err := UpdateDraft(sess.CurrentDocument, cls.MentionedParams)
		if err != nil {
			slog.Warn("draft update failed, keeping previous draft",
				"session", sessionID, "error", err)
		} else {
			sess.SetDocument(draft)
		}
	}

	stillRequired := make(map[string]bool)
	for _, path := range m.requiredMissing(sess.CollectedParams) {
		stillRequired[path] = true
	}
	missing := make([]string, 0, len(cls.Missing))
	for _, path := range cls.Missing {
		if stillRequired[path] {
			missing = append(missing, path)
		} else {
			slog.Debug("dropping reported field the schema does not require",
				"session", sessionID, "path", path)
		}
	}
	sess.SetMissing(missing)
}

func (m *Manager) generate(ctx context.Context, sess *session.Context, sessionID, message string) (*Reply, error) {
	doc, err := m.generator.Generate(ctx, &llm.GenerateRequest{
		Messages:        sess.Messages,
		SchemaContext:   sess.SchemaContext,
		CollectedParams: sess.ParamsSummary(),
	})
	switch {
	case err == nil:
		sess.SetDocument(doc.Raw)
		sess.ClearMissing()
		if message == "" {
			message = documentReadyReply
		}
		return &Reply{Message: message, Document: doc.Raw}, nil
	case errors.Is(err, llm.ErrDocumentParse) && doc != nil:
		slog.Warn("returning unparsed document", "session", sessionID, "error", err)
		return &Reply{Message: unparsedReply, Document: doc.Raw, Unparsed: true}, err
	default:
		slog.Error("document generation failed", "session", sessionID, "error", err)
		return &Reply{Message: unavailableReply}, err
	}
}

// ClearSession starts the session over; it reports whether the session
// existed. The entry stays registered so in-flight turns land in the fresh
// context.
func (m *Manager) ClearSession(sessionID string) bool {
	cleared := m.sessions.Reset(sessionID)
	slog.Info("session cleared", "session", sessionID, "existed", cleared)
	return cleared
}

func (m *Manager) requiredMissing(collected map[string]string) []string {
	values := make(schema.Values, len(collected))
	for path, value := range collected {
		values[schema.FieldPath(path)] = value
	}
	paths := m.tree.ComputeMissing(values)
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = string(p)
	}
	return out
}
