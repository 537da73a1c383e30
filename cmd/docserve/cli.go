package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/fwojciec/docserve/jsonrpc"
	"github.com/fwojciec/docserve/sse"
)

// Dependencies holds the wired instances commands run against.
type Dependencies struct {
	Ctx        context.Context
	Stdin      io.Reader
	Stdout     io.Writer
	Stderr     io.Writer
	Logger     *slog.Logger
	Dispatcher *jsonrpc.Dispatcher
	Sessions   *sse.Registry
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	CacheDir string `env:"DOCSERVE_CACHE_DIR" help:"Durable cache directory (defaults to ~/.docserve/cache)"`
	LogLevel string `default:"info" enum:"debug,info,warn,error" help:"Log verbosity"`

	Serve ServeCmd `cmd:"" help:"Serve the streaming HTTP binding"`
	Stdio StdioCmd `cmd:"" help:"Serve a single local peer over stdin/stdout"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Addr string `default:":8787" env:"DOCSERVE_ADDR" help:"HTTP listen address"`
	Path string `default:"/events" help:"Stream endpoint path"`
}

// StdioCmd is the "stdio" subcommand.
type StdioCmd struct{}
