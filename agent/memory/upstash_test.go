package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	contractx "github.com/tanpawarit/meal-planner-agent/agent/contract"
)

// fakeUpstash serves RPUSH, LRANGE and LLEN against an in-process list.
type fakeUpstash struct {
	mu       sync.Mutex
	lists    map[string][]string
	commands [][]any
	token    string
}

func newFakeUpstash(t *testing.T) (*fakeUpstash, *httptest.Server) {
	t.Helper()
	f := &fakeUpstash{lists: map[string][]string{}, token: "token"}
	server := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(server.Close)
	return f, server
}

func (f *fakeUpstash) serve(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	if r.Header.Get("Authorization") != "Bearer "+f.token {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"unauthorized"}`)
		return
	}

	var cmd []any
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil || len(cmd) < 2 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, cmd)

	key, _ := cmd[1].(string)
	var result any
	switch strings.ToUpper(fmt.Sprint(cmd[0])) {
	case "RPUSH":
		for _, v := range cmd[2:] {
			f.lists[key] = append(f.lists[key], fmt.Sprint(v))
		}
		result = len(f.lists[key])
	case "LRANGE":
		result = append([]string{}, f.lists[key]...)
	case "LLEN":
		result = len(f.lists[key])
	default:
		fmt.Fprintf(w, `{"error":"unknown command %v"}`, cmd[0])
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]any{"result": result})
}

func newTestUpstashStore(t *testing.T, server *httptest.Server) *UpstashStore {
	t.Helper()
	store, err := NewUpstashStore(
		UpstashConfig{URL: server.URL, Token: "token", Timeout: time.Second},
		WithHTTPClient(server.Client()),
		WithListKey("test:memory"),
	)
	if err != nil {
		t.Fatalf("NewUpstashStore() error = %v", err)
	}
	return store
}

func TestUpstashStoreAppendUsesRPush(t *testing.T) {
	t.Parallel()

	fake, server := newFakeUpstash(t)
	store := newTestUpstashStore(t, server)

	records := []contractx.MemoryRecord{
		{ID: "a", Text: "User ate Rice for LUNCH on MONDAY"},
		{ID: "b", Text: "User ate Eggs for BREAKFAST on TUESDAY"},
	}
	if err := store.Append(context.Background(), records...); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if len(fake.commands) != 1 {
		t.Fatalf("expected one command, got %d", len(fake.commands))
	}
	cmd := fake.commands[0]
	if cmd[0] != "RPUSH" || cmd[1] != "test:memory" || len(cmd) != 4 {
		t.Fatalf("unexpected command: %#v", cmd)
	}

	n, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("Count() = %d, want 2", n)
	}
}

func TestUpstashStoreServiceRoundTrip(t *testing.T) {
	t.Parallel()

	_, server := newFakeUpstash(t)
	svc, err := NewService(newTestUpstashStore(t, server), NewHashEmbedder(256))
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	ctx := context.Background()

	if err := svc.Save(ctx, samplePlan()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	out, err := svc.RetrieveContext(ctx, "salmon", 1)
	if err != nil {
		t.Fatalf("RetrieveContext() error = %v", err)
	}
	if out != "User ate Salmon Curry for DINNER on MONDAY" {
		t.Fatalf("RetrieveContext() = %q", out)
	}
}

func TestUpstashStoreEmptyList(t *testing.T) {
	t.Parallel()

	_, server := newFakeUpstash(t)
	store := newTestUpstashStore(t, server)

	hits, err := store.SimilaritySearch(context.Background(), []float32{1}, 3, 0)
	if err != nil {
		t.Fatalf("SimilaritySearch() error = %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits, got %d", len(hits))
	}
}

func TestUpstashStoreErrorResponse(t *testing.T) {
	t.Parallel()

	fake, server := newFakeUpstash(t)
	fake.token = "other"
	store := newTestUpstashStore(t, server)

	if err := store.Append(context.Background(), contractx.MemoryRecord{ID: "x"}); err == nil {
		t.Fatal("expected error for unauthorized request")
	}
}

func TestNewUpstashStoreValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewUpstashStore(UpstashConfig{Token: "t"}); err == nil {
		t.Fatal("expected error for empty url")
	}
	if _, err := NewUpstashStore(UpstashConfig{URL: "https://example.upstash.io"}); err == nil {
		t.Fatal("expected error for empty token")
	}
	if _, err := NewUpstashStore(UpstashConfig{URL: "::bad", Token: "t"}); err == nil {
		t.Fatal("expected error for invalid url")
	}
}
