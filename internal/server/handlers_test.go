package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/tmc/langchaingo/llms"

	"pdf-rag/internal/config"
	"pdf-rag/internal/memory"
	"pdf-rag/internal/models"
	"pdf-rag/internal/rag"
)

type stubRetriever struct{}

func (stubRetriever) Retrieve(context.Context, string, int) ([]models.Passage, error) {
	return []models.Passage{
		{ID: "1", Text: "Pumps must be primed.", SourcePage: models.PageRef(4)},
		{ID: "2", Text: "Check weekly.", SourcePage: nil},
	}, nil
}

type stubGenerator struct {
	err error
}

func (g stubGenerator) Generate(context.Context, []llms.MessageContent) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return "You must **prime** the pump.", nil
}

func newTestServer(t *testing.T, gen rag.Generator) (*Server, *memory.Store) {
	t.Helper()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	orch := rag.NewOrchestrator(rag.TemplateContextualizer{}, stubRetriever{}, rag.NewTemplateAssembler("English"), gen, rag.Options{
		TopK:            cfg.RAG.TopK,
		SourceTextLimit: cfg.RAG.SourceTextLimit,
	})
	sessions := memory.NewStore()
	return NewServer(orch, sessions, cfg), sessions
}

func postChat(srv *Server, body string, header map[string]string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		r.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)
	return w
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t, stubGenerator{})
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out map[string]string
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out["status"] != "ok" {
		t.Errorf("status field: got %q", out["status"])
	}
}

func TestHandleChat(t *testing.T) {
	srv, _ := newTestServer(t, stubGenerator{})
	w := postChat(srv, `{"question":"How do I start the pump?"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
	if w.Header().Get(SessionHeader) == "" {
		t.Error("session id not returned in header")
	}
	var resp models.ChatResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Answer != "You must **prime** the pump." {
		t.Errorf("answer: got %q", resp.Answer)
	}
	if len(resp.Sources) != 2 {
		t.Fatalf("sources: got %d", len(resp.Sources))
	}
	if resp.Sources[0].Page == nil || *resp.Sources[0].Page != 4 {
		t.Errorf("first source page: got %v", resp.Sources[0].Page)
	}
	if resp.Sources[1].Page != nil {
		t.Errorf("unknown page should be null")
	}
}

func TestHandleChat_NullPageEncoding(t *testing.T) {
	srv, _ := newTestServer(t, stubGenerator{})
	w := postChat(srv, `{"question":"q"}`, nil)
	if !strings.Contains(w.Body.String(), `{"page":null,"text":"Check weekly."}`) {
		t.Errorf("unknown page not encoded as null: %s", w.Body.String())
	}
}

func TestHandleChat_BadRequests(t *testing.T) {
	srv, sessions := newTestServer(t, stubGenerator{})
	cases := map[string]string{
		"invalid json":  `{"question":`,
		"empty":         `{"question":"   "}`,
		"missing":       `{}`,
		"trailing data": `{"question":"q"}{"question":"r"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := postChat(srv, body, map[string]string{SessionHeader: "bad"})
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status: got %d", w.Code)
			}
			var out map[string]string
			if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
				t.Fatal(err)
			}
			if out["error"] == "" {
				t.Error("expected error message")
			}
		})
	}
	if _, ok := sessions.Lookup("bad"); ok {
		t.Error("rejected requests should not create a session")
	}
}

func TestHandleChat_IgnoresUnknownFields(t *testing.T) {
	srv, _ := newTestServer(t, stubGenerator{})
	w := postChat(srv, `{"question":"How do I start the pump?","extra":1}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
	var resp models.ChatResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Answer == "" {
		t.Error("expected an answer")
	}
}

func TestHandleChat_GenerationFailureStillAnswers(t *testing.T) {
	srv, sessions := newTestServer(t, stubGenerator{err: errors.New("upstream 503")})
	w := postChat(srv, `{"question":"How do I start the pump?"}`, map[string]string{SessionHeader: "s1"})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"sources":[]`) {
		t.Errorf("expected empty sources array: %s", w.Body.String())
	}
	var resp models.ChatResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Answer != models.FallbackAnswer {
		t.Errorf("answer: got %q", resp.Answer)
	}
	sess, ok := sessions.Lookup("s1")
	if !ok {
		t.Fatal("session not created")
	}
	if sess.Memory.Len() != 0 {
		t.Errorf("memory mutated on failure")
	}
}

func TestHandleChat_SessionsAreSeparate(t *testing.T) {
	srv, sessions := newTestServer(t, stubGenerator{})
	postChat(srv, `{"question":"one"}`, map[string]string{SessionHeader: "a"})
	postChat(srv, `{"question":"two"}`, map[string]string{SessionHeader: "a"})
	postChat(srv, `{"question":"three"}`, map[string]string{SessionHeader: "b"})

	a, _ := sessions.Lookup("a")
	b, _ := sessions.Lookup("b")
	if a.Memory.Len() != 4 || b.Memory.Len() != 2 {
		t.Errorf("turns: a=%d b=%d", a.Memory.Len(), b.Memory.Len())
	}
}

func TestChatPage(t *testing.T) {
	srv, _ := newTestServer(t, stubGenerator{})

	form := url.Values{"question": {"How do I start the pump?"}}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "ui"})
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d", w.Code)
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "ui"})
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		"How do I start the pump?",
		"<strong>prime</strong>",
		"Source 1, page 4",
		"Pumps must be primed.",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestChatPage_DoesNotWaitForBusySession(t *testing.T) {
	srv, sessions := newTestServer(t, stubGenerator{})
	sess := sessions.Get("busy")
	sess.SetLastSources([]models.Source{{Page: models.PageRef(7), Text: "earlier citation"}})
	sess.Lock()
	defer sess.Unlock()

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "busy"})
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, r)
		done <- w
	}()

	select {
	case w := <-done:
		if w.Code != http.StatusOK {
			t.Fatalf("status: got %d", w.Code)
		}
		if !strings.Contains(w.Body.String(), "Source 1, page 7") {
			t.Error("page missing the last sources")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("chat page blocked on the session lock")
	}
}

func TestRenderMarkdown_EscapesRawHTML(t *testing.T) {
	got := string(renderMarkdown("hello <script>alert(1)</script>"))
	if strings.Contains(got, "<script>") {
		t.Errorf("raw html passed through: %s", got)
	}
}

func TestSourceViews_Preview(t *testing.T) {
	srv, _ := newTestServer(t, stubGenerator{})
	views := srv.sourceViews([]models.Source{{Text: string(bytes.Repeat([]byte("a"), 500))}})
	if len(views[0].Preview) != 200 {
		t.Errorf("preview length: got %d", len(views[0].Preview))
	}
}
