package classify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobscreen/internal/domain"
)

type fakeBackend struct {
	reply  string
	system string
	user   string
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Complete(_ context.Context, system, user string) (string, error) {
	f.system = system
	f.user = user
	return f.reply, nil
}

func testRec() domain.Record {
	return domain.Record{
		ID:           "123",
		Title:        "Go Engineer",
		Organization: "Acme",
		Location:     "Remote",
		Body:         "Build services in Go.",
	}
}

func TestClassifyValidResponse(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{reply: `{"status":"suitable","score":9,"gaps":["no k8s"],"reasoning":"strong match"}`}
	c := New(backend, "ten years of Go")

	result, err := c.Classify(context.Background(), testRec())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuitable, result.Status)
	assert.Equal(t, 9.0, result.Score)
	assert.Equal(t, []string{"no k8s"}, result.Gaps)

	// fixed prefix carries instructions and profile; record text is user content
	assert.Contains(t, backend.system, "ten years of Go")
	assert.Contains(t, backend.user, "Go Engineer")
}

func TestClassifyRejectsInvalid(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"missing status": `{"score":5}`,
		"missing score":  `{"status":"suitable"}`,
		"score too high": `{"status":"suitable","score":11}`,
		"score negative": `{"status":"suitable","score":-1}`,
		"bad status":     `{"status":"great","score":5}`,
		"not json":       `the posting looks fine to me`,
	}
	for name, reply := range cases {
		t.Run(name, func(t *testing.T) {
			c := New(&fakeBackend{reply: reply}, "profile")
			_, err := c.Classify(context.Background(), testRec())
			require.Error(t, err)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestClassifyTruncatesGaps(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{reply: `{"status":"maybe_suitable","score":5,"gaps":["a","b","c","d","e","f","g"]}`}
	c := New(backend, "profile")

	result, err := c.Classify(context.Background(), testRec())
	require.NoError(t, err)
	assert.Len(t, result.Gaps, domain.MaxGaps)
}

func TestClassifyStripsCodeFence(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{reply: "```json\n{\"status\":\"not_suitable\",\"score\":2}\n```"}
	c := New(backend, "profile")

	result, err := c.Classify(context.Background(), testRec())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNotSuitable, result.Status)
}

func TestOpenAIBackendRoundTrip(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"status\":\"suitable\",\"score\":8}"}}]}`))
	}))
	defer srv.Close()

	backend := NewOpenAIBackend(srv.URL, "gpt-4o-mini", "test-key")
	raw, err := backend.Complete(context.Background(), "sys", "user")
	require.NoError(t, err)

	result, err := parseResult(raw)
	require.NoError(t, err)
	assert.Equal(t, 8.0, result.Score)
}

func TestAnthropicBackendRoundTrip(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("x-api-key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"{\"status\":\"not_suitable\",\"score\":1}"}]}`))
	}))
	defer srv.Close()

	backend := NewAnthropicBackend(srv.URL, "claude-sonnet-4-5", "test-key")
	raw, err := backend.Complete(context.Background(), "sys", "user")
	require.NoError(t, err)

	result, err := parseResult(raw)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNotSuitable, result.Status)
}

func TestBackendErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"overloaded"}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	backend := NewOpenAIBackend(srv.URL, "gpt-4o-mini", "test-key")
	_, err := backend.Complete(context.Background(), "sys", "user")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
