package main

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/fwojciec/docserve/sse"
)

const shutdownTimeout = 5 * time.Second

// Run executes the serve command.
func (c *ServeCmd) Run(deps *Dependencies) error {
	handler := sse.NewHandler(deps.Dispatcher, deps.Sessions, sse.WithLogger(deps.Logger))

	mux := http.NewServeMux()
	mux.Handle(c.Path, handler)

	server := &http.Server{
		Addr:              c.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		// Tie request contexts to the run context so open streams unwind
		// on shutdown instead of holding Shutdown hostage.
		BaseContext: func(net.Listener) context.Context { return deps.Ctx },
	}

	errc := make(chan error, 1)
	go func() {
		deps.Logger.Info("serving", "addr", c.Addr, "path", c.Path)
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-deps.Ctx.Done():
	}

	deps.Logger.Info("shutting down")
	defer deps.Sessions.CloseAll()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(ctx)
}
