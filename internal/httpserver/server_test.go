package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vancelk/switchboard/core/tools"
	"github.com/vancelk/switchboard/internal/config"
	"github.com/vancelk/switchboard/internal/transcripts"
)

func newTestServer(t *testing.T) (*Server, *transcripts.Store) {
	t.Helper()

	registry, err := tools.NewRegistry(nil)
	if err != nil {
		t.Fatalf("expected empty registry to build, got %v", err)
	}

	store := transcripts.NewStore()
	cfg := config.Config{Server: "voice.example.com"}
	return New(cfg, store, registry, nil), store
}

func TestHealthz(t *testing.T) {
	server, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestIncomingAnswersWithMediaStreamTwiML(t *testing.T) {
	server, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/incoming", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/xml") {
		t.Fatalf("expected xml response, got %q", got)
	}
	if !strings.Contains(rec.Body.String(), "wss://voice.example.com/connection") {
		t.Fatalf("expected the websocket url in the twiml, got %q", rec.Body.String())
	}
}

func TestTranscriptEndpoints(t *testing.T) {
	server, store := newTestServer(t)

	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transcripts/CA404", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for an unknown call, got %d", rec.Code)
	}

	store.Append("CA1", "Customer", "hello")

	rec = httptest.NewRecorder()
	server.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transcripts/CA1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload map[string][]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("expected JSON transcript, got %q", rec.Body.String())
	}
	if lines := payload["transcription"]; len(lines) != 1 || lines[0] != "Customer: hello" {
		t.Fatalf("expected the stored transcript, got %v", payload)
	}

	rec = httptest.NewRecorder()
	server.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transcripts", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("expected JSON listing, got %q", rec.Body.String())
	}
	if sids := payload["callSids"]; len(sids) != 1 || sids[0] != "CA1" {
		t.Fatalf("expected CA1 listed, got %v", payload)
	}
}
