package sse

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/fwojciec/docserve"
	"github.com/fwojciec/docserve/jsonrpc"
)

const maxRequestBytes = 1 << 20

// Dispatcher handles one protocol request and always produces a response.
type Dispatcher interface {
	Dispatch(ctx context.Context, raw []byte) jsonrpc.Response
}

// Handler serves the streaming binding on a single endpoint. GET opens an
// event stream bound to a fresh session; POST with a sessionId query
// parameter submits a protocol request for that session.
type Handler struct {
	dispatcher Dispatcher
	sessions   docserve.SessionRegistry
	logger     *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// NewHandler creates a Handler over the given dispatcher and registry.
func NewHandler(dispatcher Dispatcher, sessions docserve.SessionRegistry, opts ...Option) *Handler {
	h := &Handler{
		dispatcher: dispatcher,
		sessions:   sessions,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.stream(w, r)
	case http.MethodPost:
		h.message(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// stream opens the event stream, announces the session-scoped message
// endpoint, and holds the connection open until the client goes away. The
// session dies with the connection.
func (h *Handler) stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	headers := w.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("X-Accel-Buffering", "no")

	session := h.sessions.Open()
	defer h.sessions.Close(session.ID)

	h.logger.Info("sse: session opened", "session", session.ID)

	writer := bufio.NewWriter(w)
	endpoint := r.URL.Path + "?sessionId=" + session.ID
	if err := writeEvent(writer, "endpoint", []byte(endpoint)); err != nil {
		return
	}
	flusher.Flush()

	<-r.Context().Done()
	h.logger.Info("sse: session closed", "session", session.ID)
}

// message validates the session and relays the body to the dispatcher. The
// dispatcher owns all protocol-level failures, so the HTTP status is 200
// whenever a session was presented and found.
func (h *Handler) message(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("sessionId")
	if id == "" {
		http.Error(w, "missing sessionId", http.StatusBadRequest)
		return
	}
	if _, ok := h.sessions.Get(id); !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		http.Error(w, "unreadable body", http.StatusBadRequest)
		return
	}

	resp := h.dispatcher.Dispatch(r.Context(), body)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("sse: writing response", "session", id, "error", err)
	}
}

// writeEvent emits one named text/event-stream event and flushes the
// buffered writer.
func writeEvent(w *bufio.Writer, name string, data []byte) error {
	if _, err := w.WriteString("event: " + name + "\n"); err != nil {
		return err
	}
	if _, err := w.WriteString("data: "); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if _, err := w.WriteString("\n\n"); err != nil {
		return err
	}
	return w.Flush()
}
