package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/buger/jsonparser"

	"github.com/findelabs/mongo-alerts-2teams/internal/config"
	"github.com/findelabs/mongo-alerts-2teams/internal/deliver"
	"github.com/findelabs/mongo-alerts-2teams/internal/transform"
)

// maxBodySize caps inbound request bodies at 5 MB.
const maxBodySize = 5 << 20

const rootHelp = "Paths:\n\t/echo: Returns json back\n\t/stdout: Write posted json to stdout\n\t/alert: Send alert to teams\n\t/testalert: Returns body of post to teams"

// Deliverer posts a serialized card to a destination URL.
// *deliver.Client satisfies it; tests substitute a stub.
type Deliverer interface {
	Post(ctx context.Context, card []byte, url string) deliver.Outcome
}

// Handler is the HTTP handler for all relay endpoints.
type Handler struct {
	cfg     *config.Config
	client  Deliverer
	metrics *Metrics
	mux     *http.ServeMux
}

// New creates a Handler wired to the given channel config and delivery
// client and registers all routes.
func New(cfg *config.Config, client Deliverer) *Handler {
	h := &Handler{
		cfg:     cfg,
		client:  client,
		metrics: NewMetrics(),
		mux:     http.NewServeMux(),
	}

	h.mux.HandleFunc("GET /{$}", h.root)
	h.mux.HandleFunc("GET /health", h.health)
	h.mux.HandleFunc("GET /config", h.configView)
	h.mux.Handle("GET /metrics", h.metrics.handler())
	h.mux.HandleFunc("POST /echo", h.echo)
	h.mux.HandleFunc("POST /stdout", h.stdout)
	h.mux.HandleFunc("POST /testalert", h.testAlert)
	h.mux.HandleFunc("POST /alert", h.alert)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// alert handles POST /alert?channel=<name>: transform the body into a card,
// resolve the channel, deliver. The delivery outcome becomes the response
// code: 200 delivered, 429 rate-limit exhaustion, 502 any other failure.
func (h *Handler) alert(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readJSONBody(w, r)
	if !ok {
		return
	}
	h.metrics.alertsReceived.Inc()

	card, err := transform.CreateCard(body)
	if err != nil {
		slog.Error("alert: transform failed", "err", err)
		http.Error(w, "invalid alert body", http.StatusBadRequest)
		return
	}

	channel := r.URL.Query().Get("channel")
	dest, err := h.cfg.Resolve(r.URL.Query())
	if err != nil {
		h.metrics.resolutionErrors.Inc()
		switch {
		case errors.Is(err, config.ErrMissingChannel):
			slog.Error("alert: missing channel parameter", "path", r.URL.Path)
		case errors.Is(err, config.ErrChannelNotFound):
			slog.Error("alert: channel not found", "channel", channel, "path", r.URL.Path)
		}
		http.Error(w, "bad channel specified", http.StatusBadRequest)
		return
	}

	payload, err := json.Marshal(card)
	if err != nil {
		slog.Error("alert: encode card", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	id := alertID(body)
	switch h.client.Post(r.Context(), payload, dest) {
	case deliver.Delivered:
		h.metrics.cardsDelivered.WithLabelValues(channel).Inc()
		slog.Info("alert: card delivered", "id", id, "channel", channel)
		w.WriteHeader(http.StatusOK)
	case deliver.Exhausted:
		h.metrics.cardsExhausted.WithLabelValues(channel).Inc()
		slog.Error("alert: bulk post failure", "id", id, "channel", channel)
		w.WriteHeader(http.StatusTooManyRequests)
	default:
		h.metrics.cardsFailed.WithLabelValues(channel).Inc()
		slog.Error("alert: post failed", "id", id, "channel", channel)
		w.WriteHeader(http.StatusBadGateway)
	}
}

// testAlert handles POST /testalert: returns the card the body would
// produce, without delivering it.
func (h *Handler) testAlert(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readJSONBody(w, r)
	if !ok {
		return
	}

	card, err := transform.CreateCard(body)
	if err != nil {
		slog.Error("testalert: transform failed", "err", err)
		http.Error(w, "invalid alert body", http.StatusBadRequest)
		return
	}

	jsonResp(w, http.StatusOK, card)
}

// echo handles POST /echo: the body is parsed and returned compacted, so
// callers can verify what the relay actually received.
func (h *Handler) echo(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readJSONBody(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, body); err != nil {
		http.Error(w, "invalid JSON in request body", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(buf.Bytes())
}

// stdout handles POST /stdout: the body is logged and acknowledged.
func (h *Handler) stdout(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readJSONBody(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, body); err != nil {
		http.Error(w, "invalid JSON in request body", http.StatusBadRequest)
		return
	}
	slog.Info("stdout: posted json", "body", buf.String())
	_, _ = io.WriteString(w, "json accepted and written to stdout")
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	_, _ = io.WriteString(w, "ok")
}

// configView handles GET /config: the channel map with URLs reduced to
// scheme and host, since webhook paths carry the destination secret.
func (h *Handler) configView(w http.ResponseWriter, _ *http.Request) {
	jsonResp(w, http.StatusOK, h.cfg.Redacted())
}

func (h *Handler) root(w http.ResponseWriter, _ *http.Request) {
	_, _ = io.WriteString(w, rootHelp)
}

// --- helpers ----------------------------------------------------------------

// readJSONBody reads the request body and checks it is JSON. On failure it
// writes a 400 and reports ok=false.
func (h *Handler) readJSONBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	defer r.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		slog.Error("api: read request body", "path", r.URL.Path, "err", err)
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return nil, false
	}
	if !json.Valid(body) {
		slog.Error("api: request body is not valid JSON", "path", r.URL.Path)
		http.Error(w, "invalid JSON in request body", http.StatusBadRequest)
		return nil, false
	}
	return body, true
}

// alertID extracts the alert's id field for log correlation.
func alertID(body []byte) string {
	id, err := jsonparser.GetString(body, "id")
	if err != nil {
		return "unknown"
	}
	return id
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
