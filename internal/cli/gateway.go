package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/casesync/internal/config"
	"github.com/roach88/casesync/internal/remote"
)

// loadConfig reads --config.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	if opts.ConfigPath == "" {
		return nil, NewExitError(ExitCommandError, "--config is required")
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	return cfg, nil
}

// buildGateway assembles the HTTP gateway and, when a fallback DSN is
// configured, the direct store reader for truncated results. The returned
// func releases the fallback connection.
func buildGateway(cfg *config.Config, logger *slog.Logger) (remote.Gateway, func(), error) {
	timeout, err := cfg.RemoteTimeout()
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "invalid remote timeout", err)
	}
	ro := remote.Options{
		URL:                cfg.Remote.URL,
		Username:           cfg.Remote.Username,
		Password:           cfg.Remote.Password,
		Database:           cfg.Remote.Database,
		Customer:           cfg.Remote.Customer,
		Timeout:            timeout,
		CAFile:             cfg.Remote.CAFile,
		InsecureSkipVerify: cfg.Remote.InsecureSkipVerify,
		MaxRows:            cfg.Remote.MaxRows,
		Logger:             logger,
	}

	cleanup := func() {}
	if cfg.Fallback.DSN != "" {
		reader, err := remote.OpenSQLReader(cfg.Fallback.Driver, cfg.Fallback.DSN)
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "failed to open fallback store", err)
		}
		ro.Fallback = reader
		cleanup = func() {
			if err := reader.Close(); err != nil {
				logger.Error("error closing fallback store", "error", err)
			}
		}
		logger.Debug("fallback store configured", "driver", cfg.Fallback.Driver)
	}

	gw, err := remote.NewHTTPGateway(ro)
	if err != nil {
		cleanup()
		return nil, nil, WrapExitError(ExitCommandError, "failed to configure remote gateway", err)
	}
	return gw, cleanup, nil
}

// signalContext derives a context cancelled on SIGINT or SIGTERM. The
// returned stop func releases the signal handler.
func signalContext(parent context.Context) (context.Context, func()) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, stopping after the current person", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

func isCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
