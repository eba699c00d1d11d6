package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vidfriends/ratingclient/internal/models"
)

type recordedRequest struct {
	Method        string
	Path          string
	Authorization string
	ContentType   string
	Body          string
}

type recorder struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (r *recorder) add(req *http.Request) {
	body, _ := io.ReadAll(req.Body)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, recordedRequest{
		Method:        req.Method,
		Path:          req.URL.Path,
		Authorization: req.Header.Get("Authorization"),
		ContentType:   req.Header.Get("Content-Type"),
		Body:          string(body),
	})
}

func (r *recorder) all() []recordedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedRequest(nil), r.requests...)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.add(r)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := New(srv.URL, WithTimeout(time.Second))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, rec
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	if _, err := New("ftp://example.com"); err == nil {
		t.Fatal("expected error for non-http scheme")
	}
	client, err := New("")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if client.BaseURL() != DefaultBaseURL {
		t.Fatalf("expected default base url got %q", client.BaseURL())
	}
}

func TestClientLogin(t *testing.T) {
	client, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"accessToken": "T1"})
	})

	resp, err := client.Login(context.Background(), models.Credential{Username: "alice", Password: "pw"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.AccessToken != "T1" {
		t.Fatalf("unexpected token %q", resp.AccessToken)
	}

	reqs := rec.all()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request got %d", len(reqs))
	}
	got := reqs[0]
	if got.Method != http.MethodPost || got.Path != "/auth/login" {
		t.Fatalf("unexpected request %s %s", got.Method, got.Path)
	}
	if got.Authorization != "" {
		t.Fatalf("login must not send authorization, got %q", got.Authorization)
	}
	if got.ContentType != "application/json" {
		t.Fatalf("unexpected content type %q", got.ContentType)
	}
	if !strings.Contains(got.Body, `"username":"alice"`) || !strings.Contains(got.Body, `"password":"pw"`) {
		t.Fatalf("unexpected body %s", got.Body)
	}
}

func TestClientMeStatuses(t *testing.T) {
	status := http.StatusOK
	client, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, status, map[string]string{"error": "nope"})
	})

	got, err := client.Me(context.Background(), "tok")
	if err != nil || got != http.StatusOK {
		t.Fatalf("expected 200 nil got %d %v", got, err)
	}
	if auth := rec.all()[0].Authorization; auth != "Bearer tok" {
		t.Fatalf("unexpected authorization %q", auth)
	}

	status = http.StatusForbidden
	got, err = client.Me(context.Background(), "tok")
	if got != http.StatusForbidden || !IsStatus(err, http.StatusForbidden) {
		t.Fatalf("expected 403 status error got %d %v", got, err)
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *StatusError got %T", err)
	}
	if statusErr.Message != "nope" || statusErr.Path != "/auth/me" {
		t.Fatalf("unexpected status error %+v", statusErr)
	}
}

func TestClientContentEndpoints(t *testing.T) {
	client, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/content":
			writeJSON(w, http.StatusOK, models.Contents{Data: []models.ContentRecord{{ID: "1"}, {ID: "2"}}})
		case r.Method == http.MethodGet && r.URL.Path == "/content/42":
			writeJSON(w, http.StatusOK, models.ContentRecord{ID: "42", Comment: "hi", Rating: 3})
		default:
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		}
	})
	ctx := context.Background()

	list, err := client.ListContent(ctx)
	if err != nil || len(list) != 2 {
		t.Fatalf("list: %v %+v", err, list)
	}

	record, err := client.GetContent(ctx, "42")
	if err != nil || record.Rating != 3 {
		t.Fatalf("get: %v %+v", err, record)
	}

	if err := client.CreateContent(ctx, "tok", models.CreateContent{VideoURL: "https://v", Comment: "c", Rating: 4}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := client.UpdateContent(ctx, "tok", "42", models.UpdateContent{Comment: "new comment", Rating: 5}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := client.DeleteContent(ctx, "tok", "42"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	want := []struct {
		method string
		path   string
		auth   string
	}{
		{http.MethodGet, "/content", ""},
		{http.MethodGet, "/content/42", ""},
		{http.MethodPost, "/content", "Bearer tok"},
		{http.MethodPatch, "/content/42", "Bearer tok"},
		{http.MethodDelete, "/content/42", "Bearer tok"},
	}
	reqs := rec.all()
	if len(reqs) != len(want) {
		t.Fatalf("expected %d requests got %d", len(want), len(reqs))
	}
	for i, w := range want {
		if reqs[i].Method != w.method || reqs[i].Path != w.path || reqs[i].Authorization != w.auth {
			t.Fatalf("request %d: got %+v want %+v", i, reqs[i], w)
		}
	}
	if reqs[3].Body != `{"comment":"new comment","rating":5}` {
		t.Fatalf("unexpected patch body %s", reqs[3].Body)
	}
	if reqs[2].Body != `{"videoUrl":"https://v","comment":"c","rating":4}` {
		t.Fatalf("unexpected create body %s", reqs[2].Body)
	}
}

func TestClientTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := New(url)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	_, err = client.Me(context.Background(), "tok")
	if err == nil {
		t.Fatal("expected transport error")
	}
	if _, ok := StatusCode(err); ok {
		t.Fatalf("transport error must not carry a status: %v", err)
	}
}

func TestClientDecodeError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("not json"))
	})
	if _, err := client.ListContent(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestClientRateLimitHonoursContext(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	WithRateLimit(0.001, 1)(client)

	if err := client.Logout(context.Background(), "tok"); err != nil {
		t.Fatalf("first call should use the burst: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := client.Logout(ctx, "tok"); err == nil {
		t.Fatal("expected limiter wait to fail")
	}
}

func TestErrorMessage(t *testing.T) {
	if got := errorMessage([]byte(`{"message":"bad"}`)); got != "bad" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := errorMessage([]byte("plain text\n")); got != "plain text" {
		t.Fatalf("unexpected message %q", got)
	}
}
