package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteSendsTranscript(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  多休息。 \n"}}]}`))
	}))
	defer srv.Close()

	c := NewClient("sk-test", "", srv.URL, srv.Client())
	answer, err := c.Complete(context.Background(), "我很累 ")
	require.NoError(t, err)
	assert.Equal(t, "多休息。", answer)

	assert.Equal(t, DefaultModel, got.Model)
	assert.Equal(t, 0.7, got.Temperature)
	assert.Equal(t, 500, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, Message{Role: "system", Content: SystemPrompt}, got.Messages[0])
	assert.Equal(t, Message{Role: "user", Content: "我很累 "}, got.Messages[1])
}

func TestCompleteErrors(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
	}{
		"server error":  {http.StatusInternalServerError, `{"error":"boom"}`},
		"invalid json":  {http.StatusOK, `not json`},
		"empty choices": {http.StatusOK, `{"choices":[]}`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewClient("k", "gpt-4o-mini", srv.URL, srv.Client()).Complete(context.Background(), "hi")
			assert.Error(t, err)

			reply := NewAssistant(NewClient("k", "gpt-4o-mini", srv.URL, srv.Client())).Reply(context.Background(), "hi")
			assert.Equal(t, Fallback, reply)
		})
	}
}
