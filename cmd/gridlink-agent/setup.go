package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/maxpoletaev/gridlink/api"
	"github.com/maxpoletaev/gridlink/client"
	"github.com/maxpoletaev/gridlink/cluster"
	"github.com/maxpoletaev/gridlink/connmgr"
)

type shutdownFunc func(ctx context.Context) error

var noopShutdown = func(ctx context.Context) error { return nil }

func setupLogger() (kitlog.Logger, shutdownFunc) {
	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stderr))
	logger = kitlog.With(logger, "ts", kitlog.DefaultTimestampUTC)

	if !opts.Verbose {
		logger = level.NewFilter(logger, level.AllowInfo())
	}

	return logger, noopShutdown
}

func setupRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return reg
}

func millis(ms int) time.Duration {
	return time.Millisecond * time.Duration(ms)
}

func clientConfig(logger kitlog.Logger, reg prometheus.Registerer) client.Config {
	conf := client.DefaultConfig()
	conf.Logger = logger
	conf.Registerer = reg

	if opts.Cloud.Token != "" {
		conf.Discovery.Cloud.Enabled = true
		conf.Discovery.Cloud.Token = opts.Cloud.Token

		if opts.Cloud.URL != "" {
			conf.Discovery.Cloud.URL = opts.Cloud.URL
		}
	} else {
		conf.Discovery.Addresses = parseAddrs(opts.Cluster.Addrs)
	}

	network := &conf.Network
	network.ClusterName = opts.Cluster.Name
	network.ClusterConnectTimeout = millis(opts.Cluster.ConnectTimeout)
	network.SmartRouting = !opts.Cluster.Unisocket
	network.AsyncStart = opts.Cluster.AsyncStart
	network.Heartbeat.Interval = millis(opts.Heartbeat.Interval)
	network.Heartbeat.Timeout = millis(opts.Heartbeat.Timeout)
	network.Authenticator = connmgr.PasswordAuthenticator{
		Username: opts.Cluster.Username,
		Password: opts.Cluster.Password,
	}

	if opts.Cluster.PoolSize > 1 {
		network.Strategy = connmgr.PooledConnections(opts.Cluster.PoolSize)
	}

	switch opts.Cluster.Reconnect {
	case "off":
		network.ReconnectMode = connmgr.ReconnectOff
	case "if-previously-connected":
		network.ReconnectMode = connmgr.ReconnectIfPreviouslyConnected
	default:
		network.ReconnectMode = connmgr.ReconnectOn
	}

	if opts.TLS.Enabled {
		tls := &network.Connection.TLS
		tls.Enabled = true
		tls.CAFile = opts.TLS.CAFile
		tls.CertFile = opts.TLS.CertFile
		tls.KeyFile = opts.TLS.KeyFile
		tls.ServerName = opts.TLS.ServerName
		tls.ValidateChain = true
		tls.ValidateHostname = true
	}

	conf.Invocation.InvocationTimeout = millis(opts.Invocation.Timeout)
	conf.Invocation.RedoOperation = opts.Invocation.Redo
	conf.Invocation.MaxConcurrentInvocations = int64(opts.Invocation.MaxInFlight)

	conf.OnMembershipChanged = func(diff cluster.MembershipDiff) {
		for _, m := range diff.Added {
			level.Info(logger).Log("msg", "member added", "member", m)
		}

		for _, m := range diff.Removed {
			level.Info(logger).Log("msg", "member removed", "member", m)
		}
	}

	return conf
}

func setupClient(ctx context.Context, logger kitlog.Logger, reg prometheus.Registerer) (*client.Client, shutdownFunc) {
	c, err := client.New(ctx, clientConfig(logger, reg))
	if err != nil {
		level.Error(logger).Log("msg", "failed to start client", "err", err)
		os.Exit(1)
	}

	shutdown := func(ctx context.Context) error {
		logger.Log("msg", "shutting down client")

		if err := c.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown client: %w", err)
		}

		return nil
	}

	return c, shutdown
}

func setupRestServer(wg *sync.WaitGroup, c *client.Client, gatherer prometheus.Gatherer, logger kitlog.Logger) (*http.Server, shutdownFunc) {
	restAPI := &http.Server{
		Addr:    opts.RestAPI.BindAddr,
		Handler: api.CreateRouter(c, gatherer),
	}

	wg.Add(1)

	go func() {
		defer wg.Done()

		if err := restAPI.ListenAndServe(); err != nil {
			if err != http.ErrServerClosed {
				panic(fmt.Sprintf("failed to start REST API server: %v", err))
			}
		}
	}()

	shutdown := func(ctx context.Context) error {
		logger.Log("msg", "shutting down API server")

		if err := restAPI.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown REST API server: %w", err)
		}

		return nil
	}

	return restAPI, shutdown
}
