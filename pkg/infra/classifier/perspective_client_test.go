package classifier_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/NeuralTrust/NewsGuard/pkg/domain/moderation"
	"github.com/NeuralTrust/NewsGuard/pkg/infra/classifier"
	"github.com/NeuralTrust/NewsGuard/pkg/infra/httpx/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const perspectiveResponse = `{
  "attributeScores": {
    "TOXICITY": {"summaryScore": {"value": 0.91, "type": "PROBABILITY"}},
    "SEVERE_TOXICITY": {"summaryScore": {"value": 0.88, "type": "PROBABILITY"}},
    "INSULT": {"summaryScore": {"value": 0.40, "type": "PROBABILITY"}},
    "THREAT": {"summaryScore": {"value": 0.05, "type": "PROBABILITY"}}
  },
  "languages": ["en"]
}`

func newPerspective(t *testing.T, handler http.HandlerFunc) *classifier.PerspectiveClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return classifier.NewPerspectiveClient(classifier.Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Timeout: 2 * time.Second,
	}, classifier.WithLogger(logrus.New()))
}

func TestPerspectiveClient_Analyze(t *testing.T) {
	client := newPerspective(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1alpha1/comments:analyze", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a long enough piece of text", body["comment"].(map[string]interface{})["text"])
		assert.Equal(t, true, body["doNotStore"])
		assert.Len(t, body["requestedAttributes"], 7)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(perspectiveResponse))
	})

	scores, err := client.Analyze(context.Background(), "a long enough piece of text")
	require.NoError(t, err)
	assert.Equal(t, "perspective", client.Name())
	assert.InDelta(t, 0.91, scores.Get(moderation.CategoryToxicity), 1e-9)
	assert.InDelta(t, 0.88, scores.Get(moderation.CategorySevereToxicity), 1e-9)
	assert.InDelta(t, 0.40, scores.Get(moderation.CategoryInsult), 1e-9)
	assert.InDelta(t, 0.91, scores.Overall, 1e-9)
	_, present := scores.Categories[moderation.CategoryProfanity]
	assert.False(t, present)
}

func TestPerspectiveClient_GzipResponse(t *testing.T) {
	client := newPerspective(t, func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		_, _ = gz.Write([]byte(perspectiveResponse))
		_ = gz.Close()
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write(buf.Bytes())
	})

	scores, err := client.Analyze(context.Background(), "a long enough piece of text")
	require.NoError(t, err)
	assert.InDelta(t, 0.91, scores.Overall, 1e-9)
}

func TestPerspectiveClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{"error":{}}`, wantErr: classifier.ErrUnexpectedStatus},
		{name: "server error", status: http.StatusInternalServerError, body: ``, wantErr: classifier.ErrUnexpectedStatus},
		{name: "not json", status: http.StatusOK, body: `<html>`, wantErr: classifier.ErrMalformedResponse},
		{name: "no scores", status: http.StatusOK, body: `{"languages":["en"]}`, wantErr: classifier.ErrMalformedResponse},
		{name: "empty scores", status: http.StatusOK, body: `{"attributeScores":{}}`, wantErr: classifier.ErrMalformedResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newPerspective(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := client.Analyze(context.Background(), "a long enough piece of text")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPerspectiveClient_TransportError(t *testing.T) {
	httpClient := new(mocks.MockHTTPClient)
	httpClient.On("Do", mock.Anything).Return(nil, errors.New("dial tcp: connection refused"))

	client := classifier.NewPerspectiveClient(
		classifier.Config{APIKey: "k"},
		classifier.WithHTTPClient(httpClient),
	)
	_, err := client.Analyze(context.Background(), "a long enough piece of text")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	httpClient.AssertExpectations(t)
}

func TestPerspectiveClient_ClampsScores(t *testing.T) {
	httpClient := new(mocks.MockHTTPClient)
	httpClient.On("Do", mock.Anything).Return(&http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader([]byte(`{"attributeScores":{"TOXICITY":{"summaryScore":{"value":1.7}}}}`))),
	}, nil)

	client := classifier.NewPerspectiveClient(classifier.Config{APIKey: "k"}, classifier.WithHTTPClient(httpClient))
	scores, err := client.Analyze(context.Background(), "a long enough piece of text")
	require.NoError(t, err)
	assert.Equal(t, 1.0, scores.Get(moderation.CategoryToxicity))
}
