// Command server exposes the workflow-definition assistant over HTTP: POST
// /chat drives the clarification cycle, POST /clear starts a session over.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino-ext/components/model/openai"

	"github.com/Timik232/Mts-json-generator/chat"
	"github.com/Timik232/Mts-json-generator/llm"
	"github.com/Timik232/Mts-json-generator/retrieval"
	"github.com/Timik232/Mts-json-generator/schema"
)

func main() {
	if err := run(context.Background(), loadConfig()); err != nil {
		log.Fatalf("start server: %v", err)
	}
}

func run(ctx context.Context, cfg *Config) error {
	slog.SetLogLoggerLevel(slog.LevelInfo)

	tree, err := schema.Load()
	if err != nil {
		return fmt.Errorf("load workflow schema: %w", err)
	}

	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  cfg.SecretToken,
		Model:   cfg.ModelName,
		BaseURL: cfg.APIURL,
	})
	if err != nil {
		return fmt.Errorf("create chat model: %w", err)
	}
	classifier, err := llm.NewClassifier(chatModel)
	if err != nil {
		return err
	}
	generator := llm.NewGenerator(chatModel)

	var opts []chat.Option
	if cfg.SchemaDocs != "" {
		retriever, err := buildRetriever(ctx, cfg)
		if err != nil {
			return err
		}
		opts = append(opts, chat.WithRetriever(retriever))
	}

	manager := chat.NewManager(tree, classifier, generator, opts...)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /", handleHealth)
	mux.HandleFunc("POST /chat", handleChat(manager))
	mux.HandleFunc("POST /clear", handleClear(manager))

	slog.Info("listening", "addr", cfg.Addr)
	return http.ListenAndServe(cfg.Addr, mux)
}

func buildRetriever(ctx context.Context, cfg *Config) (*retrieval.Retriever, error) {
	raw, err := os.ReadFile(cfg.SchemaDocs)
	if err != nil {
		return nil, fmt.Errorf("read schema docs: %w", err)
	}
	store, err := retrieval.OpenStore(cfg.RetrievalDB)
	if err != nil {
		return nil, err
	}

	var embedder retrieval.Embedder
	if cfg.GenAIAPIKey != "" {
		genAI, err := retrieval.NewGenAIEmbedder(ctx, cfg.GenAIAPIKey, "")
		if err != nil {
			return nil, err
		}
		embedder = genAI
	} else {
		slog.Warn("no embedding key configured, retrieval runs lexical-only")
	}

	n, err := retrieval.IndexSchemaJSON(ctx, store, embedder, raw)
	if err != nil {
		return nil, err
	}
	slog.Info("schema documentation indexed", "fragments", n)
	return retrieval.NewRetriever(ctx, store, embedder)
}

// chatService is the slice of chat.Manager the handlers need.
type chatService interface {
	HandleMessage(ctx context.Context, sessionID, message string) (*chat.Reply, error)
	ClearSession(sessionID string) bool
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	Message    string `json:"message"`
	JSONSchema string `json:"json_schema,omitempty"`
	Unparsed   bool   `json:"unparsed,omitempty"`
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleChat(manager chatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" || req.Message == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "session_id and message are required"})
			return
		}
		// The turn outlives an abandoned request: a completed classification
		// still merges into the session, so the user is not under-counted.
		reply, err := manager.HandleMessage(context.WithoutCancel(r.Context()), req.SessionID, req.Message)
		if err != nil {
			// The reply already carries a user-safe message.
			slog.Error("turn failed", "session", req.SessionID, "error", err)
		}
		writeJSON(w, http.StatusOK, chatResponse{
			Message:    reply.Message,
			JSONSchema: reply.Document,
			Unparsed:   reply.Unparsed,
		})
	}
}

func handleClear(manager chatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "session_id is required"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"cleared": manager.ClearSession(req.SessionID)})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := sonic.ConfigDefault.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}
