package insight

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStripCodeFence(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"no fence", `{"a":1}`, `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"json tag", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  ```json\n{\"a\":1}\n```  ", `{"a":1}`},
		{"multiline body", "```json\n{\n  \"a\": 1\n}\n```", "{\n  \"a\": 1\n}"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, stripCodeFence(tc.in))
		})
	}
}

// newTestClient 构造指向 httptest 服务器的客户端
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(ClientConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Model:   "test-model",
	}, zap.NewNop())
	require.NoError(t, err)
	return client
}

// textHandler 返回包含给定文本的 generateContent 响应
func textHandler(text string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"parts": []map[string]string{{"text": text}},
				}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(ClientConfig{}, zap.NewNop())
	require.Error(t, err)
}

func TestGenerateText(t *testing.T) {
	client := newTestClient(t, textHandler("hello from the model"))

	got, err := client.GenerateText(context.Background(), "say hello")
	require.NoError(t, err)
	assert.Equal(t, "hello from the model", got)
}

func TestGenerateJSONFencedAndUnfencedAreEquivalent(t *testing.T) {
	body := `{"signal":"BUY","confidence":0.82,"reasoning":"RSI oversold"}`

	type signal struct {
		Signal     string  `json:"signal"`
		Confidence float64 `json:"confidence"`
		Reasoning  string  `json:"reasoning"`
	}

	var plain, fenced signal

	client := newTestClient(t, textHandler(body))
	require.NoError(t, client.GenerateJSON(context.Background(), "p", &plain))

	client = newTestClient(t, textHandler("```json\n"+body+"\n```"))
	require.NoError(t, client.GenerateJSON(context.Background(), "p", &fenced))

	assert.Equal(t, plain, fenced)
	assert.Equal(t, "BUY", fenced.Signal)
	assert.InDelta(t, 0.82, fenced.Confidence, 1e-9)
}

func TestGenerateJSONParseErrorMentionsRawContent(t *testing.T) {
	client := newTestClient(t, textHandler("I am sorry, I cannot produce JSON today."))

	var out map[string]interface{}
	err := client.GenerateJSON(context.Background(), "p", &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse JSON response")
	assert.Contains(t, err.Error(), "I am sorry")
}

func TestGenerateJSONParseErrorTruncatesRawContent(t *testing.T) {
	long := strings.Repeat("x", 5000)
	client := newTestClient(t, textHandler(long))

	var out map[string]interface{}
	err := client.GenerateJSON(context.Background(), "p", &out)
	require.Error(t, err)
	assert.Less(t, len(err.Error()), 1200)
}

func TestGenerateTextSurfacesAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`))
	})

	_, err := client.GenerateText(context.Background(), "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key not valid")
}

func TestGenerateRequestShape(t *testing.T) {
	var captured generateRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		textHandler(`{}`)(w, r)
	})

	var out map[string]interface{}
	require.NoError(t, client.GenerateJSON(context.Background(), "the prompt", &out))

	require.Len(t, captured.Contents, 1)
	require.Len(t, captured.Contents[0].Parts, 1)
	assert.Equal(t, "the prompt", captured.Contents[0].Parts[0].Text)
	require.NotNil(t, captured.GenerationConfig)
	assert.Equal(t, "application/json", captured.GenerationConfig.ResponseMimeType)
}
