// Package discovery provides the candidate addresses the client tries when it
// connects to the cluster, and translates member addresses into the ones
// reachable from the client.
package discovery

import (
	"context"
	"fmt"

	"github.com/go-kit/log"

	"github.com/maxpoletaev/gridlink/cluster"
	"github.com/maxpoletaev/gridlink/errs"
)

// AddressProvider is the source of candidate member addresses.
type AddressProvider interface {
	// Addresses returns the cached candidate addresses, loading them on
	// first use.
	Addresses(ctx context.Context) ([]cluster.Address, error)

	// TranslateToPublic maps a member address to the address the client
	// should dial. It returns false when the address is not known, in which
	// case the member is considered unreachable.
	TranslateToPublic(ctx context.Context, addr cluster.Address) (cluster.Address, bool)
}

type Config struct {
	// Addresses is the static member list. Addresses without a port expand
	// to the default port range.
	Addresses []string
	Cloud     CloudConfig
}

func DefaultConfig() Config {
	return Config{
		Cloud: DefaultCloudConfig(),
	}
}

func (c *Config) Validate() error {
	if c.Cloud.Enabled && len(c.Addresses) > 0 {
		return errs.ErrConfig.Wrap(fmt.Errorf("static addresses and cloud discovery cannot be used together"))
	}

	if c.Cloud.Enabled {
		return c.Cloud.Validate()
	}

	for _, s := range c.Addresses {
		if _, err := cluster.ParseAddress(s); err != nil {
			return err
		}
	}

	return nil
}

// New returns the provider selected by the configuration.
func New(conf Config, logger log.Logger) (AddressProvider, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	if conf.Cloud.Enabled {
		return NewCloudProvider(conf.Cloud, logger)
	}

	return NewStaticProvider(conf.Addresses)
}
