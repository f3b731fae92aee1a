package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/Belphemur/callcache/internal/config"
)

const usage = `usage: callcache <command> [flags]

commands:
  demo     store "first", "second" and "third" and replay the history
  replay   print the recorded history of an operation
  fetch    fetch a URL through the page cache
  serve    expose gRPC health and Prometheus metrics
`

var errUsage = errors.New("invalid usage")

func main() {
	cfg := config.GetConfig()
	logger := config.GetLogger()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN}); err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Sentry, continuing without error reporting")
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		sentry.CaptureException(err)
		logger.Error().Err(err).Msg("Command failed")
		sentry.Flush(2 * time.Second)
		os.Exit(1)
	}
}

// run dispatches args[0] to its subcommand.
func run(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "demo":
		return runDemo(ctx, cfg, args[1:], out)
	case "replay":
		return runReplay(ctx, cfg, args[1:], out)
	case "fetch":
		return runFetch(ctx, cfg, args[1:], out)
	case "serve":
		return runServe(ctx, cfg, args[1:])
	case "help", "-h", "--help":
		_, err := fmt.Fprint(out, usage)
		return err
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}
