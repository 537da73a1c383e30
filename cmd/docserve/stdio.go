package main

import (
	"context"
	"errors"

	"github.com/fwojciec/docserve/stdio"
)

// Run executes the stdio command.
func (c *StdioCmd) Run(deps *Dependencies) error {
	deps.Logger.Info("stdio: serving a single peer")

	srv := stdio.NewServer(deps.Dispatcher, deps.Stdin, deps.Stdout, stdio.WithLogger(deps.Logger))
	if err := srv.Serve(deps.Ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
