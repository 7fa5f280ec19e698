package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestClient_Query(t *testing.T) {
	var receivedBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/graph/test-graph/q" {
			t.Errorf("Expected path /api/graph/test-graph/q, got %s", r.URL.Path)
		}
		if r.Header.Get("x-authorization") != "Bearer test-token" {
			t.Errorf("Expected x-authorization header")
		}
		json.NewDecoder(r.Body).Decode(&receivedBody)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"result": [["abc"]]}`))
	}))
	defer server.Close()

	client := NewClient("test-graph", "test-token", WithBaseURL(server.URL))

	rows, err := client.Query(context.Background(), "[:find ?uid :in $ ?t]", "Title")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(rows) != 1 || rows[0][0] != "abc" {
		t.Errorf("unexpected rows: %v", rows)
	}
	args, ok := receivedBody["args"].([]interface{})
	if !ok || len(args) != 1 || args[0] != "Title" {
		t.Errorf("expected args to be forwarded, got %v", receivedBody["args"])
	}
}

func TestClient_Pull(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if body["selector"] != "[*]" {
			t.Errorf("expected selector to be forwarded, got %v", body["selector"])
		}
		w.Write([]byte(`{"result": {":node/title": "Page"}}`))
	}))
	defer server.Close()

	client := NewClient("test-graph", "test-token", WithBaseURL(server.URL))

	raw, err := client.Pull(context.Background(), `[:block/uid "abc"]`, "[*]")
	if err != nil {
		t.Fatalf("Pull failed: %v", err)
	}
	if string(raw) != `{":node/title": "Page"}` {
		t.Errorf("unexpected pull result: %s", raw)
	}
}

func TestClient_WriteCreatesPageAndBlock(t *testing.T) {
	var bodies []map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		bodies = append(bodies, body)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient("test-graph", "test-token", WithBaseURL(server.URL))
	ctx := context.Background()

	if err := client.Write(ctx, ActionCreatePage, map[string]interface{}{"page": Page{Title: "Notes", UID: "page1"}}); err != nil {
		t.Fatalf("create page failed: %v", err)
	}
	heading := 2
	if err := client.Write(ctx, ActionCreateBlock, map[string]interface{}{
		"location": BlockLocation{ParentUID: "page1", Order: 0},
		"block":    Block{String: "Title", UID: "blk1", Heading: &heading},
	}); err != nil {
		t.Fatalf("create block failed: %v", err)
	}

	if len(bodies) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(bodies))
	}
	if bodies[0]["action"] != "create-page" {
		t.Errorf("expected create-page, got %v", bodies[0]["action"])
	}
	page := bodies[0]["page"].(map[string]interface{})
	if page["title"] != "Notes" || page["uid"] != "page1" {
		t.Errorf("unexpected page: %v", page)
	}

	if bodies[1]["action"] != "create-block" {
		t.Errorf("expected create-block, got %v", bodies[1]["action"])
	}
	location := bodies[1]["location"].(map[string]interface{})
	if location["parent-uid"] != "page1" || location["order"] != float64(0) {
		t.Errorf("unexpected location: %v", location)
	}
	block := bodies[1]["block"].(map[string]interface{})
	if block["string"] != "Title" || block["heading"] != float64(2) {
		t.Errorf("unexpected block: %v", block)
	}
}

func TestClient_WriteBatchActions(t *testing.T) {
	var receivedBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&receivedBody)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient("test-graph", "test-token", WithBaseURL(server.URL))

	batch := NewBatchBuilder()
	pageRef := batch.CreatePage(Page{Title: "Batch Page"})
	batch.CreateBlock(pageRef, "last", Block{String: "Batch block"})

	if err := client.Write(context.Background(), ActionBatchActions, map[string]interface{}{"actions": batch.Build()}); err != nil {
		t.Fatalf("batch write failed: %v", err)
	}

	if receivedBody["action"] != "batch-actions" {
		t.Errorf("Expected action 'batch-actions', got %v", receivedBody["action"])
	}
	actions, ok := receivedBody["actions"].([]interface{})
	if !ok {
		t.Fatal("Expected 'actions' array in request body")
	}
	if len(actions) != 2 {
		t.Errorf("Expected 2 actions, got %d", len(actions))
	}
}

func TestClient_StatusErrors(t *testing.T) {
	tests := []struct {
		status int
		check  func(error) bool
	}{
		{http.StatusUnauthorized, func(err error) bool { var e AuthenticationError; return errors.As(err, &e) }},
		{http.StatusBadRequest, func(err error) bool { var e ValidationError; return errors.As(err, &e) }},
		{http.StatusNotFound, func(err error) bool { var e NotFoundError; return errors.As(err, &e) }},
	}

	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			w.Write([]byte(`nope`))
		}))

		client := NewClient("test-graph", "test-token", WithBaseURL(server.URL))
		_, err := client.Query(context.Background(), "[:find ?e]")
		if err == nil || !tt.check(err) {
			t.Errorf("status %d: unexpected error %v", tt.status, err)
		}
		server.Close()
	}
}

func TestClient_RetriesRateLimit(t *testing.T) {
	var calls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"result": []}`))
	}))
	defer server.Close()

	client := NewClient("test-graph", "test-token", WithBaseURL(server.URL), WithBackoff(time.Millisecond))

	if _, err := client.Query(context.Background(), "[:find ?e]"); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("expected 3 calls, got %d", got)
	}
}

func TestClient_RateLimitGivesUp(t *testing.T) {
	var calls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient("test-graph", "test-token", WithBaseURL(server.URL), WithBackoff(time.Millisecond))

	_, err := client.Query(context.Background(), "[:find ?e]")
	var rateLimited RateLimitError
	if !errors.As(err, &rateLimited) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != MaxRetries+1 {
		t.Errorf("expected %d calls, got %d", MaxRetries+1, got)
	}
}

func TestClient_RetryHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient("test-graph", "test-token", WithBaseURL(server.URL), WithBackoff(time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := client.Query(ctx, "[:find ?e]"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestClient_RedirectWithoutLocation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTemporaryRedirect)
	}))
	defer server.Close()

	client := NewClient("test-graph", "test-token", WithBaseURL(server.URL))
	if _, err := client.Query(context.Background(), "[:find ?e]"); err == nil {
		t.Fatal("expected error for redirect without Location")
	}
}
