package main

import (
	"os"

	"github.com/joho/godotenv"
)

// Config is read from the environment, optionally seeded from a .env file.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string
	// APIURL, ModelName and SecretToken configure the OpenAI-compatible chat
	// model endpoint.
	APIURL      string
	ModelName   string
	SecretToken string
	// GenAIAPIKey enables semantic retrieval; empty means BM25-only.
	GenAIAPIKey string
	// RetrievalDB is the SQLite file for schema fragments.
	RetrievalDB string
	// SchemaDocs is the documentation JSON to index at startup; empty skips
	// retrieval entirely.
	SchemaDocs string
}

func loadConfig() *Config {
	_ = godotenv.Load()
	return &Config{
		Addr:        getenv("ADDR", ":8080"),
		APIURL:      os.Getenv("API_URL"),
		ModelName:   getenv("MODEL_NAME", "gpt-4o-mini"),
		SecretToken: os.Getenv("SECRET_TOKEN"),
		GenAIAPIKey: os.Getenv("GENAI_API_KEY"),
		RetrievalDB: getenv("RETRIEVAL_DB", "fragments.db"),
		SchemaDocs:  os.Getenv("SCHEMA_DOCS"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
