package stdio_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/fwojciec/docserve/jsonrpc"
	"github.com/fwojciec/docserve/mock"
	"github.com/fwojciec/docserve/stdio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_AnswersEachLineInOrder(t *testing.T) {
	t.Parallel()

	in := strings.NewReader(
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}` + "\n" +
			"\n" +
			`{"jsonrpc":"2.0","id":2,"method":"list-capabilities"}` + "\n")
	var out bytes.Buffer

	dispatcher := jsonrpc.NewDispatcher(&mock.Orchestrator{})
	srv := stdio.NewServer(dispatcher, in, &out)

	require.NoError(t, srv.Serve(context.Background()))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2, "blank input lines produce no output")

	var first, second jsonrpc.Response
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.JSONEq(t, "1", string(first.ID))
	assert.JSONEq(t, "2", string(second.ID))
	assert.Nil(t, first.Error)
	assert.Nil(t, second.Error)
}

func TestServer_MalformedLineGetsErrorResponse(t *testing.T) {
	t.Parallel()

	in := strings.NewReader("{not json}\n")
	var out bytes.Buffer

	srv := stdio.NewServer(jsonrpc.NewDispatcher(&mock.Orchestrator{}), in, &out)
	require.NoError(t, srv.Serve(context.Background()))

	var resp jsonrpc.Response
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, jsonrpc.CodeParseError, resp.Error.Code)
	assert.JSONEq(t, "null", string(resp.ID))
}

func TestServer_StopsOnContextCancellation(t *testing.T) {
	t.Parallel()

	pr, pw := io.Pipe()
	t.Cleanup(func() { pr.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	srv := stdio.NewServer(jsonrpc.NewDispatcher(&mock.Orchestrator{}), pr, io.Discard)
	go func() {
		done <- srv.Serve(ctx)
	}()

	_, err := pw.Write([]byte(`{"jsonrpc":"2.0","id":1,"method":"initialize"}` + "\n"))
	require.NoError(t, err)
	pw.Close()

	assert.ErrorIs(t, <-done, context.Canceled)
}
