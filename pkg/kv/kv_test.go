package kv

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, found, err := s.Get(ctx, "chatHistory")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, "chatHistory", `[{"role":"user","content":"hi"}]`))
	v, found, err := s.Get(ctx, "chatHistory")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[{"role":"user","content":"hi"}]`, v)

	require.NoError(t, s.Set(ctx, "chatHistory", `[]`))
	v, _, err = s.Get(ctx, "chatHistory")
	require.NoError(t, err)
	assert.Equal(t, `[]`, v, "set overwrites the previous value")
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStoreCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewMemoryStore()
	assert.Error(t, s.Set(ctx, "k", "v"))
	_, _, err := s.Get(ctx, "k")
	assert.Error(t, err)
}

// fakeElastic 模拟 _doc 的 GET 与 PUT。
type fakeElastic struct {
	mu   sync.Mutex
	docs map[string]json.RawMessage
}

func (f *fakeElastic) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 3 || parts[1] != "_doc" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	id := parts[2]

	f.mu.Lock()
	defer f.mu.Unlock()
	switch r.Method {
	case http.MethodGet:
		src, ok := f.docs[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"found":false}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"found": true, "_id": id, "_source": src})
	case http.MethodPut, http.MethodPost:
		var body json.RawMessage
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.docs[id] = body
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestElasticStore(t *testing.T) {
	srv := httptest.NewServer(&fakeElastic{docs: map[string]json.RawMessage{}})
	defer srv.Close()

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	exerciseStore(t, NewElasticStore(client, "chatbot_kv"))
}

func TestElasticStoreServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"forbidden"}`))
	}))
	defer srv.Close()

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	s := NewElasticStore(client, "chatbot_kv")

	_, _, err = s.Get(context.Background(), "chatHistory")
	assert.Error(t, err)
	assert.Error(t, s.Set(context.Background(), "chatHistory", "[]"))
}
