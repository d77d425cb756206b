package classifier_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/NeuralTrust/NewsGuard/pkg/domain/moderation"
	"github.com/NeuralTrust/NewsGuard/pkg/infra/classifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const moderationResponse = `{
  "id": "modr-123",
  "model": "omni-moderation-latest",
  "results": [{
    "flagged": true,
    "categories": {},
    "category_applied_input_types": {},
    "category_scores": {
      "harassment": 0.62,
      "harassment/threatening": 0.91,
      "hate": 0.30,
      "hate/threatening": 0.10,
      "illicit": 0.0,
      "illicit/violent": 0.0,
      "self-harm": 0.01,
      "self-harm/instructions": 0.02,
      "self-harm/intent": 0.0,
      "sexual": 0.05,
      "sexual/minors": 0.0,
      "violence": 0.70,
      "violence/graphic": 0.20
    }
  }]
}`

func newOpenAIServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/moderations", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestOpenAIClient_MapsCategories(t *testing.T) {
	server := newOpenAIServer(t, http.StatusOK, moderationResponse)
	client := classifier.NewOpenAIClient(classifier.Config{
		APIKey:  "sk-test",
		BaseURL: server.URL + "/v1/",
		Timeout: 2 * time.Second,
	})

	scores, err := client.Analyze(context.Background(), "a long enough piece of text")
	require.NoError(t, err)
	assert.Equal(t, "openai", client.Name())
	assert.InDelta(t, 0.62, scores.Get(moderation.CategoryToxicity), 1e-9)
	assert.InDelta(t, 0.91, scores.Get(moderation.CategoryThreat), 1e-9)
	assert.InDelta(t, 0.91, scores.Get(moderation.CategorySevereToxicity), 1e-9)
	assert.InDelta(t, 0.30, scores.Get(moderation.CategoryIdentityAttack), 1e-9)
	assert.InDelta(t, 0.62, scores.Get(moderation.CategoryInsult), 1e-9)
	assert.InDelta(t, 0.05, scores.Get(moderation.CategorySexuallyExplicit), 1e-9)
	assert.InDelta(t, 0.70, scores.Get(classifier.CategoryViolence), 1e-9)
	assert.InDelta(t, 0.91, scores.Overall, 1e-9)
}

func TestOpenAIClient_ErrorStatus(t *testing.T) {
	server := newOpenAIServer(t, http.StatusTooManyRequests, `{"error":{"message":"rate limited","type":"requests"}}`)
	client := classifier.NewOpenAIClient(classifier.Config{APIKey: "sk-test", BaseURL: server.URL + "/v1/"})

	_, err := client.Analyze(context.Background(), "a long enough piece of text")
	assert.ErrorIs(t, err, classifier.ErrUnexpectedStatus)
}

func TestOpenAIClient_NoResults(t *testing.T) {
	server := newOpenAIServer(t, http.StatusOK, `{"id":"modr-1","model":"omni-moderation-latest","results":[]}`)
	client := classifier.NewOpenAIClient(classifier.Config{APIKey: "sk-test", BaseURL: server.URL + "/v1/"})

	_, err := client.Analyze(context.Background(), "a long enough piece of text")
	assert.ErrorIs(t, err, classifier.ErrMalformedResponse)
}
