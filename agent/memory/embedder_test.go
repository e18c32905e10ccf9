package memory

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashEmbedderDeterministicAndNormalised(t *testing.T) {
	t.Parallel()

	e := NewHashEmbedder(64)
	out, err := e.Embed(context.Background(), []string{"User ate Rice", "user ATE rice!"})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, out[0], out[1])

	var sum float64
	for _, v := range out[0] {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, sum, 1e-5)
}

func TestHashEmbedderEmptyTextIsZeroVector(t *testing.T) {
	t.Parallel()

	out, err := NewHashEmbedder(0).Embed(context.Background(), []string{"  "})
	require.NoError(t, err)
	require.Len(t, out[0], defaultHashDims)
	for _, v := range out[0] {
		assert.Zero(t, v)
	}
}

func TestCosine(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.0, cosine([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Zero(t, cosine([]float32{1}, []float32{1, 0}))
	assert.Zero(t, cosine([]float32{0, 0}, []float32{1, 0}))
	assert.False(t, math.IsNaN(cosine(nil, nil)))
}

func TestOpenAIEmbedderPreservesInputOrder(t *testing.T) {
	t.Parallel()

	var gotModel string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotModel, _ = body["model"].(string)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"object": "list",
			"model": "text-embedding-3-small",
			"data": [
				{"object": "embedding", "index": 1, "embedding": [0, 1]},
				{"object": "embedding", "index": 0, "embedding": [1, 0]}
			],
			"usage": {"prompt_tokens": 4, "total_tokens": 4}
		}`))
	}))
	t.Cleanup(server.Close)

	client := openaisdk.NewClient(
		option.WithAPIKey("test"),
		option.WithBaseURL(server.URL),
		option.WithMaxRetries(0),
	)
	e, err := NewOpenAIEmbedder(&client, "text-embedding-3-small")
	require.NoError(t, err)

	out, err := e.Embed(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-3-small", gotModel)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, out)
}

func TestNewOpenAIEmbedderValidation(t *testing.T) {
	t.Parallel()

	_, err := NewOpenAIEmbedder(nil, "m")
	require.Error(t, err)

	client := openaisdk.NewClient(option.WithAPIKey("test"))
	_, err = NewOpenAIEmbedder(&client, " ")
	require.Error(t, err)
}
