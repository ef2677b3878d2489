package main

import (
	"context"
	"io"
	"testing"

	"github.com/justibot/justibot/internal/ai/aitest"
	"github.com/justibot/justibot/internal/e2etest"
	"github.com/stretchr/testify/require"
)

// testEnv configures the server with an in-memory database, a fake model provider and a temporary document directory.
// overrides take precedence.
func testEnv(t *testing.T, provider *aitest.Server, overrides map[string]string) func(string) (string, bool) {
	t.Helper()
	env := map[string]string{
		"JUSTIBOT_ADDR":           "localhost:0",
		"JUSTIBOT_SQLITE_URL":     ":memory:",
		"JUSTIBOT_AI_PROVIDER":    "openai",
		"JUSTIBOT_AI_API_KEY":     "test-key",
		"JUSTIBOT_AI_BASE_URL":    provider.BaseURL(),
		"JUSTIBOT_DOCUMENT_STORE": "filesystem",
		"JUSTIBOT_DOCUMENT_DIR":   t.TempDir(),
	}
	for k, v := range overrides {
		env[k] = v
	}
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

// startTestServer starts the server against a fake provider listing an embedding and a chat model.
func startTestServer(t *testing.T, overrides map[string]string) (*e2etest.Server, *aitest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	provider := aitest.NewServer("text-embedding-3-small", "gpt-4o-mini")
	t.Cleanup(func() {
		cancel()
		provider.Close()
	})

	server, err := e2etest.StartServer(ctx, io.Discard, testEnv(t, provider, overrides), run)
	require.NoError(t, err)
	return server, provider
}
