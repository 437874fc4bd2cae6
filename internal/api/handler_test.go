package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/findelabs/mongo-alerts-2teams/internal/api"
	"github.com/findelabs/mongo-alerts-2teams/internal/config"
	"github.com/findelabs/mongo-alerts-2teams/internal/deliver"
)

// stubDeliverer records the last Post call and answers with a fixed outcome.
type stubDeliverer struct {
	outcome deliver.Outcome
	called  int
	url     string
	card    []byte
}

func (s *stubDeliverer) Post(_ context.Context, card []byte, url string) deliver.Outcome {
	s.called++
	s.url = url
	s.card = card
	return s.outcome
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "ops:\n  url: https://teams.example.com/webhookb2/secret-path\n  kind: teams\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

func newTestHandler(t *testing.T, outcome deliver.Outcome) (*api.Handler, *stubDeliverer) {
	t.Helper()
	stub := &stubDeliverer{outcome: outcome}
	return api.New(testConfig(t), stub), stub
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

const sampleAlert = `{"id":"a1","status":"OPEN","eventTypeName":"HOST_DOWN","hostnameAndPort":"db1:27017"}`

func TestAlert_Delivered(t *testing.T) {
	h, stub := newTestHandler(t, deliver.Delivered)

	w := do(h, http.MethodPost, "/alert?channel=ops", sampleAlert)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}
	if stub.called != 1 {
		t.Fatalf("deliverer called %d times, want 1", stub.called)
	}
	if stub.url != "https://teams.example.com/webhookb2/secret-path" {
		t.Errorf("destination: got %q", stub.url)
	}

	var card map[string]interface{}
	if err := json.Unmarshal(stub.card, &card); err != nil {
		t.Fatalf("posted card is not JSON: %v", err)
	}
	if card["@type"] != "MessageCard" {
		t.Errorf("posted card @type: got %v", card["@type"])
	}
	if card["title"] != "New Alert Triggered" {
		t.Errorf("posted card title: got %v", card["title"])
	}
}

func TestAlert_Exhausted(t *testing.T) {
	h, _ := newTestHandler(t, deliver.Exhausted)

	w := do(h, http.MethodPost, "/alert?channel=ops", sampleAlert)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status: got %d, want 429", w.Code)
	}
}

func TestAlert_Failed(t *testing.T) {
	h, _ := newTestHandler(t, deliver.Failed)

	w := do(h, http.MethodPost, "/alert?channel=ops", sampleAlert)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status: got %d, want 502", w.Code)
	}
}

func TestAlert_MissingChannel(t *testing.T) {
	h, stub := newTestHandler(t, deliver.Delivered)

	w := do(h, http.MethodPost, "/alert", sampleAlert)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", w.Code)
	}
	if stub.called != 0 {
		t.Errorf("deliverer called %d times, want 0", stub.called)
	}
}

func TestAlert_UnknownChannel(t *testing.T) {
	h, stub := newTestHandler(t, deliver.Delivered)

	w := do(h, http.MethodPost, "/alert?channel=nosuch", sampleAlert)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", w.Code)
	}
	if stub.called != 0 {
		t.Errorf("deliverer called %d times, want 0", stub.called)
	}
}

func TestAlert_InvalidBody(t *testing.T) {
	h, stub := newTestHandler(t, deliver.Delivered)

	w := do(h, http.MethodPost, "/alert?channel=ops", `{"status":`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", w.Code)
	}
	if stub.called != 0 {
		t.Errorf("deliverer called %d times, want 0", stub.called)
	}
}

func TestTestAlert_ReturnsCardWithoutDelivering(t *testing.T) {
	h, stub := newTestHandler(t, deliver.Delivered)

	w := do(h, http.MethodPost, "/testalert", sampleAlert)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}
	if stub.called != 0 {
		t.Errorf("deliverer called %d times, want 0", stub.called)
	}

	var card map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &card); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if card["themeColor"] != "D7000C" {
		t.Errorf("themeColor: got %v", card["themeColor"])
	}
}

func TestEcho_CompactsBody(t *testing.T) {
	h, _ := newTestHandler(t, deliver.Delivered)

	w := do(h, http.MethodPost, "/echo", "{\n  \"a\": 1,\n  \"b\": [2, 3]\n}")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}
	if got := w.Body.String(); got != `{"a":1,"b":[2,3]}` {
		t.Errorf("body: got %q", got)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type: got %q", ct)
	}
}

func TestStdout_Acknowledges(t *testing.T) {
	h, _ := newTestHandler(t, deliver.Delivered)

	w := do(h, http.MethodPost, "/stdout", `{"a":1}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}
	if got := w.Body.String(); got != "json accepted and written to stdout" {
		t.Errorf("body: got %q", got)
	}
}

func TestHealth(t *testing.T) {
	h, _ := newTestHandler(t, deliver.Delivered)

	w := do(h, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("got %d %q, want 200 ok", w.Code, w.Body.String())
	}
}

func TestConfig_RedactsWebhookPath(t *testing.T) {
	h, _ := newTestHandler(t, deliver.Delivered)

	w := do(h, http.MethodGet, "/config", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}
	body := w.Body.String()
	if strings.Contains(body, "secret-path") {
		t.Errorf("response leaks webhook path: %s", body)
	}
	if !strings.Contains(body, "https://teams.example.com") {
		t.Errorf("response missing redacted host: %s", body)
	}
}

func TestRoot_Help(t *testing.T) {
	h, _ := newTestHandler(t, deliver.Delivered)

	w := do(h, http.MethodGet, "/", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}
	for _, path := range []string{"/echo", "/stdout", "/alert", "/testalert"} {
		if !strings.Contains(w.Body.String(), path) {
			t.Errorf("help text missing %s", path)
		}
	}
}

func TestUnknownRoute(t *testing.T) {
	h, _ := newTestHandler(t, deliver.Delivered)

	if w := do(h, http.MethodGet, "/nosuch", ""); w.Code != http.StatusNotFound {
		t.Errorf("GET /nosuch: got %d, want 404", w.Code)
	}
}

func TestAlert_MethodNotAllowed(t *testing.T) {
	h, _ := newTestHandler(t, deliver.Delivered)

	if w := do(h, http.MethodGet, "/alert?channel=ops", ""); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /alert: got %d, want 405", w.Code)
	}
}

func TestMetrics_CountsDeliveredCards(t *testing.T) {
	h, _ := newTestHandler(t, deliver.Delivered)

	if w := do(h, http.MethodPost, "/alert?channel=ops", sampleAlert); w.Code != http.StatusOK {
		t.Fatalf("alert: got %d, want 200", w.Code)
	}

	w := do(h, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("metrics: got %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `mongoalerts_alerts_received_total 1`) {
		t.Errorf("metrics missing received counter:\n%s", body)
	}
	if !strings.Contains(body, `mongoalerts_cards_delivered_total{channel="ops"} 1`) {
		t.Errorf("metrics missing delivered counter:\n%s", body)
	}
}
