package sse_test

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/docserve/jsonrpc"
	"github.com/fwojciec/docserve/sse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoDispatcher answers every request with a fixed result, echoing
// nothing of the body.
type echoDispatcher struct{}

func (echoDispatcher) Dispatch(_ context.Context, raw []byte) jsonrpc.Response {
	var req jsonrpc.Request
	_ = json.Unmarshal(raw, &req)
	return jsonrpc.Response{
		JSONRPC: jsonrpc.Version,
		ID:      req.ID,
		Result:  map[string]string{"echo": req.Method},
	}
}

func newServer(t *testing.T) (*httptest.Server, *sse.Registry) {
	t.Helper()
	registry := sse.NewRegistry()
	srv := httptest.NewServer(sse.NewHandler(echoDispatcher{}, registry))
	t.Cleanup(srv.Close)
	return srv, registry
}

// openStream opens the event stream and returns the announced message
// endpoint. Cancelling the returned context closes the stream.
func openStream(t *testing.T, srv *httptest.Server) (endpoint string, cancel context.CancelFunc) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))

	scanner := bufio.NewScanner(resp.Body)
	sawEndpointEvent := false
	for scanner.Scan() {
		line := scanner.Text()
		if line == "event: endpoint" {
			sawEndpointEvent = true
			continue
		}
		if sawEndpointEvent && strings.HasPrefix(line, "data: ") {
			return strings.TrimPrefix(line, "data: "), cancel
		}
	}
	t.Fatal("stream closed before the endpoint event arrived")
	return "", cancel
}

func TestHandler_StreamAnnouncesSessionEndpoint(t *testing.T) {
	t.Parallel()

	srv, registry := newServer(t)

	endpoint, _ := openStream(t, srv)

	require.True(t, strings.HasPrefix(endpoint, "/events?sessionId="), "endpoint: %s", endpoint)
	id := strings.TrimPrefix(endpoint, "/events?sessionId=")
	_, ok := registry.Get(id)
	assert.True(t, ok, "announced session should be live")
}

func TestHandler_PostDispatchesForLiveSession(t *testing.T) {
	t.Parallel()

	srv, _ := newServer(t)
	endpoint, _ := openStream(t, srv)

	body := `{"jsonrpc":"2.0","id":1,"method":"initialize"}`
	resp, err := srv.Client().Post(srv.URL+endpoint, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got jsonrpc.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.JSONEq(t, "1", string(got.ID))
	assert.Nil(t, got.Error)
}

func TestHandler_PostWithoutSessionID(t *testing.T) {
	t.Parallel()

	srv, _ := newServer(t)

	resp, err := srv.Client().Post(srv.URL+"/events", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandler_PostWithUnknownSessionID(t *testing.T) {
	t.Parallel()

	srv, _ := newServer(t)

	resp, err := srv.Client().Post(srv.URL+"/events?sessionId=nope", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "session not found", "unknown id is distinguishable from a missing one")
}

// Story: Session Lifecycle
// A session lives exactly as long as its stream; a request bearing a dead
// session id is rejected.

func TestHandler_SessionDiesWithStream(t *testing.T) {
	t.Parallel()

	srv, registry := newServer(t)
	endpoint, cancel := openStream(t, srv)

	require.Equal(t, 1, registry.Len())

	cancel()
	require.Eventually(t, func() bool {
		return registry.Len() == 0
	}, 2*time.Second, 10*time.Millisecond, "session should be destroyed when the stream closes")

	resp, err := srv.Client().Post(srv.URL+endpoint, "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandler_ConcurrentStreamsGetDistinctSessions(t *testing.T) {
	t.Parallel()

	srv, registry := newServer(t)

	a, _ := openStream(t, srv)
	b, _ := openStream(t, srv)

	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, registry.Len())
}

func TestHandler_RejectsOtherMethods(t *testing.T) {
	t.Parallel()

	srv, _ := newServer(t)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
