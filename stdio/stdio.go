// Package stdio implements the direct request/response binding: one
// protocol request per line on the input stream, one response per line on
// the output stream, for a single local peer.
package stdio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/fwojciec/docserve/jsonrpc"
)

const maxLineBytes = 1 << 20

// Dispatcher handles one protocol request and always produces a response.
type Dispatcher interface {
	Dispatch(ctx context.Context, raw []byte) jsonrpc.Response
}

// Server reads newline-delimited requests and writes newline-delimited
// responses in order. It serves exactly one peer, so requests are handled
// sequentially.
type Server struct {
	dispatcher Dispatcher
	in         io.Reader
	out        io.Writer
	logger     *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a Server over the given streams.
func NewServer(dispatcher Dispatcher, in io.Reader, out io.Writer, opts ...Option) *Server {
	s := &Server{
		dispatcher: dispatcher,
		in:         in,
		out:        out,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Serve processes requests until the input stream ends, the context is
// cancelled, or the output stream fails. Blank lines are skipped.
func (s *Server) Serve(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		resp := s.dispatcher.Dispatch(ctx, line)
		if err := s.write(resp); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return err
	}
	s.logger.Info("stdio: input stream closed")
	return nil
}

func (s *Server) write(resp jsonrpc.Response) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	raw = append(raw, '\n')
	_, err = s.out.Write(raw)
	return err
}
