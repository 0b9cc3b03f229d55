package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/assessment"
)

type gatewayReq struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	Messages    []struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"messages"`
}

func completionBody(content string) string {
	b, _ := json.Marshal(map[string]interface{}{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "test-model",
		"choices": []map[string]interface{}{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]interface{}{"role": "assistant", "content": content},
		}},
	})
	return string(b)
}

func newGateway(t *testing.T, status int, body string, got *gatewayReq) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if got != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(got))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestClient(url, apiKey string) *Client {
	return NewClient(core.AIConfig{
		GatewayURL:  url + "/v1/",
		APIKey:      apiKey,
		Model:       "test-model",
		Temperature: 0.3,
		Timeout:     5 * time.Second,
	})
}

func TestClient_Complete(t *testing.T) {
	var got gatewayReq
	srv, calls := newGateway(t, http.StatusOK, completionBody("  Grade: A-\nWell argued.  "), &got)
	client := newTestClient(srv.URL, "test-key")

	out, err := client.Complete(context.Background(), assessment.CompletionRequest{
		System: "You grade essays.",
		Parts:  []assessment.ContentPart{{Text: "Essay about cells"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Grade: A-\nWell argued.", out)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))

	assert.Equal(t, "test-model", got.Model)
	assert.InDelta(t, 0.3, got.Temperature, 1e-9)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.JSONEq(t, `"Essay about cells"`, string(got.Messages[1].Content))
}

func TestClient_CompleteWithImage(t *testing.T) {
	var got gatewayReq
	srv, _ := newGateway(t, http.StatusOK, completionBody("Grade: B\nOk"), &got)
	client := newTestClient(srv.URL, "test-key")

	_, err := client.Complete(context.Background(), assessment.CompletionRequest{
		System: "sys",
		Parts: []assessment.ContentPart{
			{Text: "Assignment: Diagram"},
			{ImageURL: "data:image/png;base64,iVBORw0KGgo="},
		},
	})
	require.NoError(t, err)
	require.Len(t, got.Messages, 2)

	var parts []map[string]interface{}
	require.NoError(t, json.Unmarshal(got.Messages[1].Content, &parts))
	require.Len(t, parts, 2)
	assert.Equal(t, "text", parts[0]["type"])
	assert.Equal(t, "image_url", parts[1]["type"])
	imageURL, _ := parts[1]["image_url"].(map[string]interface{})
	assert.Equal(t, "data:image/png;base64,iVBORw0KGgo=", imageURL["url"])
}

func TestClient_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantStatus int
		wantMsg    string
	}{
		{"rate limited", http.StatusTooManyRequests, http.StatusTooManyRequests, "Rate limit exceeded, please try again later."},
		{"no credits", http.StatusPaymentRequired, http.StatusPaymentRequired, "AI credits exhausted, please add funds to continue."},
		{"server error", http.StatusBadGateway, http.StatusInternalServerError, "AI gateway error"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv, calls := newGateway(t, tc.status, `{"error":{"message":"upstream says no","type":"error"}}`, nil)
			client := newTestClient(srv.URL, "test-key")

			_, err := client.Complete(context.Background(), assessment.CompletionRequest{
				Parts: []assessment.ContentPart{{Text: "hi"}},
			})
			var upErr *assessment.UpstreamError
			require.ErrorAs(t, err, &upErr)
			assert.Equal(t, tc.status, upErr.StatusCode)
			assert.Equal(t, tc.wantStatus, upErr.HTTPStatus())
			assert.Equal(t, tc.wantMsg, upErr.PublicMessage())
			assert.EqualValues(t, 1, atomic.LoadInt32(calls), "no retries")
		})
	}
}

func TestClient_EmptyCompletion(t *testing.T) {
	srv, _ := newGateway(t, http.StatusOK, completionBody("   "), nil)
	client := newTestClient(srv.URL, "test-key")

	_, err := client.Complete(context.Background(), assessment.CompletionRequest{
		Parts: []assessment.ContentPart{{Text: "hi"}},
	})
	assert.Equal(t, errEmptyCompletion, err)
}

func TestClient_MissingAPIKey(t *testing.T) {
	srv, calls := newGateway(t, http.StatusOK, completionBody("Grade: A"), nil)
	client := newTestClient(srv.URL, " ")

	assert.Equal(t, assessment.ErrMissingAPIKey, client.Ready())
	_, err := client.Complete(context.Background(), assessment.CompletionRequest{
		Parts: []assessment.ContentPart{{Text: "hi"}},
	})
	assert.Equal(t, assessment.ErrMissingAPIKey, err)
	assert.EqualValues(t, 0, atomic.LoadInt32(calls))
}
