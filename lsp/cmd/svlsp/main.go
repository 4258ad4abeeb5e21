// Package main provides the entry point for the svlsp language server.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/svlsp/svlsp/lsp"
)

var version = "dev"

// isCleanShutdown checks if an error represents a normal client disconnect.
// LSP clients commonly close the transport on exit, which should not be
// reported as fatal.
func isCleanShutdown(err error) bool {
	if errors.Is(err, io.EOF) {
		return true
	}
	if errors.Is(err, os.ErrClosed) {
		return true
	}
	errStr := err.Error()
	if strings.Contains(errStr, "broken pipe") || strings.Contains(errStr, "EPIPE") {
		return true
	}
	return false
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "svlsp: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("svlsp", flag.ContinueOnError)
	fs.SetOutput(io.Discard) // Suppress default output; we print usage ourselves

	var (
		pipe     = fs.String("pipe", "", "named pipe (unix socket) to use as LSP transport; stdio when empty")
		logLevel = fs.String("log-level", "info", "log level: error|warn|info|debug")
		logFile  = fs.String("log-file", "", "log file path (empty to log to stderr)")
		showVer  = fs.Bool("version", false, "print version and exit")
		_        = fs.Bool("stdio", false, "use stdio transport (default, accepted for VS Code compatibility)")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: svlsp [options]\n\n")
		fmt.Fprintf(os.Stderr, "SystemVerilog Language Server Protocol implementation.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.SetOutput(os.Stderr)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil // -help was requested, usage already printed
		}
		fs.Usage()
		return fmt.Errorf("parse flags: %w", err)
	}

	if *showVer {
		fmt.Printf("svlsp %s\n", version)
		return nil
	}

	// Pause for a debugger before any real work when requested. The
	// process stops itself; `kill -CONT` or a debugger attach resumes it.
	if os.Getenv("WAIT_FOR_GDB") != "" {
		fmt.Fprintf(os.Stderr, "svlsp: WAIT_FOR_GDB set, stopping pid %d for debugger attach\n", os.Getpid())
		_ = syscall.Kill(os.Getpid(), syscall.SIGSTOP)
	}

	logger, cleanup, err := setupLogger(*logLevel, *logFile)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer cleanup()

	logger.Info("starting svlsp",
		slog.String("version", version),
		slog.String("log_level", *logLevel),
	)

	server := lsp.NewServer(logger, version)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	// Run the server in a goroutine so we can select on signals
	errCh := make(chan error, 1)
	go func() {
		if *pipe != "" {
			errCh <- server.RunPipe(*pipe)
		} else {
			errCh <- server.RunStdio()
		}
	}()

	if *pipe != "" {
		logger.Info("running on pipe", slog.String("pipe", *pipe))
	} else {
		logger.Info("running on stdio")
	}

	select {
	case err := <-errCh:
		if err != nil {
			if isCleanShutdown(err) {
				logger.Debug("client closed connection")
			} else {
				return fmt.Errorf("run server: %w", err)
			}
		}
		logger.Info("server shutdown complete")
		return nil
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", slog.String("signal", sig.String()))
		server.Shutdown()
		if err := server.Close(); err != nil {
			logger.Warn("error closing connection", slog.String("error", err.Error()))
		}

		// Close stdin to unblock RunStdio's read operation. When running
		// manually (not connected to an LSP client), the JSON-RPC
		// connection's Close() doesn't close the underlying stdin, leaving
		// RunStdio blocked on os.Stdin.Read().
		if err := os.Stdin.Close(); err != nil {
			logger.Debug("error closing stdin", slog.String("error", err.Error()))
		}

		// Bounded wait for the transport to return. This prevents hanging
		// forever if Close() was called before the connection was
		// initialized.
		select {
		case err := <-errCh:
			if err != nil {
				logger.Debug("transport returned after close", slog.String("error", err.Error()))
			}
		case <-time.After(5 * time.Second):
			logger.Warn("shutdown timed out, forcing exit")
		}

		logger.Info("server shutdown complete")
		return nil
	}
}

func setupLogger(level, logFile string) (*slog.Logger, func(), error) {
	var slogLevel slog.Level
	switch level {
	case "error":
		slogLevel = slog.LevelError
	case "warn":
		slogLevel = slog.LevelWarn
	case "info":
		slogLevel = slog.LevelInfo
	case "debug":
		slogLevel = slog.LevelDebug
	default:
		return nil, nil, fmt.Errorf("invalid log level: %q", level)
	}

	var w io.Writer = os.Stderr
	cleanup := func() {}

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		cleanup = func() { _ = f.Close() }
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: slogLevel})
	return slog.New(handler), cleanup, nil
}
