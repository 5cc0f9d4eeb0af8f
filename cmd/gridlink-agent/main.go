package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-kit/log/level"
	"github.com/jessevdk/go-flags"
)

const shutdownTimeout = 10 * time.Second

func main() {
	p := flags.NewParser(&opts, flags.Default)

	if _, err := p.Parse(); err != nil {
		if err.(*flags.Error).Type != flags.ErrHelp {
			fmt.Println("cli error:", err)
		}

		os.Exit(2)
	}

	wg := sync.WaitGroup{}
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM)

	startCtx, cancelStart := context.WithCancel(context.Background())

	go func() {
		// Interrupting a slow start aborts it.
		select {
		case <-interrupt:
			cancelStart()
		case <-startCtx.Done():
		}
	}()

	// Initialize all components.
	logger, closeLogger := setupLogger()
	reg := setupRegistry()
	c, closeClient := setupClient(startCtx, logger, reg)
	cancelStart()

	// Components must be shut down in a particular order.
	shutdownOrder := []shutdownFunc{
		closeClient,
		closeLogger,
	}

	if opts.RestAPI.Enabled {
		_, closeRestServer := setupRestServer(&wg, c, reg, logger)
		shutdownOrder = append([]shutdownFunc{closeRestServer}, shutdownOrder...)
	}

	// Block until we receive a signal or the client gives up on the cluster.
	select {
	case <-interrupt:
		level.Info(logger).Log("msg", "received interrupt signal, shutting down")
	case <-c.Done():
		level.Warn(logger).Log("msg", "client has shut down, exiting")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Shutdown all components.
	for _, f := range shutdownOrder {
		if err := f(ctx); err != nil {
			level.Error(logger).Log("msg", "failed to shutdown component", "err", err)
		}
	}

	// Wait for all components to finish background tasks.
	wg.Wait()
}
