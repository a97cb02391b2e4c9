package claude

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/safetyaudit/internal/domain"
)

var testAudit = domain.AuditRecord{
	Auditor: "Ana López",
	Area:    "Recibo",
	Date:    "2026-10-01",
	Answers: map[int]domain.AnswerEntry{
		0: {Answer: domain.AnswerNo, Observation: "Sin localizadores en rack 3"},
	},
}

func TestClaudeSummarize(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sk-test", r.Header.Get("x-api-key"))
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &gotBody)

		resp := map[string]interface{}{
			"id":          "msg_01",
			"type":        "message",
			"role":        "assistant",
			"model":       "claude-test",
			"stop_reason": "end_turn",
			"content": []map[string]interface{}{
				{"type": "text", "text": "```markdown\n## Resumen\n- **Prioridad alta:** localizadores\n```"},
			},
			"usage": map[string]int{"input_tokens": 10, "output_tokens": 20},
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	s := NewSummarizer("sk-test", "claude-test", WithBaseURL(server.URL))

	text, err := s.Summarize(context.Background(), testAudit, []string{"¿Posiciones identificadas?"})
	require.NoError(t, err)
	assert.Equal(t, "## Resumen\n- **Prioridad alta:** localizadores", text)

	assert.Equal(t, "claude-test", gotBody["model"])
	messages, ok := gotBody["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 1)
	assert.Contains(t, string(mustJSON(t, messages[0])), "Sin localizadores en rack 3")
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestClaudeSummarizeAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer server.Close()

	s := NewSummarizer("sk-test", "claude-test", WithBaseURL(server.URL))

	_, err := s.Summarize(context.Background(), testAudit, nil)
	assert.Error(t, err)
}

func TestClaudeSummarizeEmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_02","type":"message","role":"assistant","content":[],"usage":{"input_tokens":1,"output_tokens":0}}`))
	}))
	defer server.Close()

	s := NewSummarizer("sk-test", "claude-test", WithBaseURL(server.URL))

	_, err := s.Summarize(context.Background(), testAudit, nil)
	assert.ErrorContains(t, err, "no text")
}
