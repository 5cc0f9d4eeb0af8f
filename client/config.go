package client

import (
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/maxpoletaev/gridlink/cluster"
	"github.com/maxpoletaev/gridlink/connmgr"
	"github.com/maxpoletaev/gridlink/discovery"
	"github.com/maxpoletaev/gridlink/errs"
	"github.com/maxpoletaev/gridlink/invocation"
)

// MembershipHandler is called with every change of the member list. It runs
// on an event worker and must not block.
type MembershipHandler func(diff cluster.MembershipDiff)

type Config struct {
	Discovery  discovery.Config
	Network    connmgr.Config
	Invocation invocation.Config

	// OnMembershipChanged is notified about members joining and leaving.
	OnMembershipChanged MembershipHandler

	// Registerer receives the client metrics. Nil leaves them unregistered.
	Registerer prometheus.Registerer
	// Logger and Clock replace the ones of the component configs.
	Logger log.Logger
	Clock  clock.Clock
}

func DefaultConfig() Config {
	return Config{
		Discovery:  discovery.DefaultConfig(),
		Network:    connmgr.DefaultConfig(),
		Invocation: invocation.DefaultConfig(),
		Logger:     log.NewNopLogger(),
		Clock:      clock.New(),
	}
}

func (c *Config) Validate() error {
	if c.Logger == nil {
		return errs.ErrConfig.Wrap(fmt.Errorf("logger is not set"))
	}

	if c.Clock == nil {
		return errs.ErrConfig.Wrap(fmt.Errorf("clock is not set"))
	}

	if err := c.Discovery.Validate(); err != nil {
		return fmt.Errorf("discovery: %w", err)
	}

	if err := c.Network.Validate(); err != nil {
		return fmt.Errorf("network: %w", err)
	}

	if err := c.Invocation.Validate(); err != nil {
		return fmt.Errorf("invocation: %w", err)
	}

	return nil
}
