package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/sync/singleflight"

	"github.com/maxpoletaev/gridlink/cluster"
	"github.com/maxpoletaev/gridlink/errs"
)

const (
	DefaultCloudURL = "https://api.viridian.hazelcast.com"
	discoveryPath   = "/cluster/discovery"
)

type CloudConfig struct {
	Enabled bool
	// Token identifies the cluster in the discovery service.
	Token string
	// URL is the base URL of the discovery service.
	URL string
	// Timeout bounds one discovery request.
	Timeout time.Duration
}

func DefaultCloudConfig() CloudConfig {
	return CloudConfig{
		URL:     DefaultCloudURL,
		Timeout: 10 * time.Second,
	}
}

func (c *CloudConfig) Validate() error {
	if c.Token == "" {
		return errs.ErrConfig.Wrap(fmt.Errorf("cloud discovery token is empty"))
	}

	if _, err := url.ParseRequestURI(c.URL); err != nil {
		return errs.ErrConfig.Wrap(fmt.Errorf("invalid cloud discovery url: %w", err))
	}

	if c.Timeout <= 0 {
		return errs.ErrConfig.Wrap(fmt.Errorf("cloud discovery timeout must be positive"))
	}

	return nil
}

type discoveredNode struct {
	PrivateAddress string `json:"private-address"`
	PublicAddress  string `json:"public-address"`
}

// CloudProvider looks up member addresses in the cloud discovery service.
// It keeps the private to public address map of the last lookup and
// refreshes it on first use and whenever a translation misses.
type CloudProvider struct {
	conf   CloudConfig
	client *http.Client
	logger log.Logger
	group  singleflight.Group

	mut      sync.RWMutex
	loaded   bool
	private  []cluster.Address
	toPublic map[cluster.Address]cluster.Address
}

func NewCloudProvider(conf CloudConfig, logger log.Logger) (*CloudProvider, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	if logger == nil {
		logger = log.NewNopLogger()
	}

	return &CloudProvider{
		conf:     conf,
		logger:   logger,
		client:   &http.Client{Timeout: conf.Timeout},
		toPublic: make(map[cluster.Address]cluster.Address),
	}, nil
}

// Addresses returns the private addresses of the members. They are
// translated with TranslateToPublic before dialing.
func (p *CloudProvider) Addresses(ctx context.Context) ([]cluster.Address, error) {
	p.mut.RLock()
	loaded := p.loaded
	p.mut.RUnlock()

	if !loaded {
		if err := p.refresh(ctx); err != nil {
			return nil, err
		}
	}

	p.mut.RLock()
	defer p.mut.RUnlock()

	addrs := make([]cluster.Address, len(p.private))
	copy(addrs, p.private)

	return addrs, nil
}

func (p *CloudProvider) TranslateToPublic(ctx context.Context, addr cluster.Address) (cluster.Address, bool) {
	if public, ok := p.lookup(addr); ok {
		return public, true
	}

	if err := p.refresh(ctx); err != nil {
		level.Warn(p.logger).Log("msg", "failed to refresh cloud addresses", "addr", addr, "err", err)
		return cluster.Address{}, false
	}

	return p.lookup(addr)
}

func (p *CloudProvider) lookup(addr cluster.Address) (cluster.Address, bool) {
	p.mut.RLock()
	defer p.mut.RUnlock()

	public, ok := p.toPublic[addr.Key()]

	return public, ok
}

// refresh loads the address map. Concurrent callers share one request.
func (p *CloudProvider) refresh(ctx context.Context) error {
	_, err, _ := p.group.Do("refresh", func() (interface{}, error) {
		nodes, err := p.fetch(ctx)
		if err != nil {
			return nil, err
		}

		private := make([]cluster.Address, 0, len(nodes))
		toPublic := make(map[cluster.Address]cluster.Address, len(nodes))

		for _, node := range nodes {
			privateAddr, err := cluster.ParseAddress(node.PrivateAddress)
			if err != nil {
				return nil, fmt.Errorf("invalid private address %q: %w", node.PrivateAddress, err)
			}

			publicAddr, err := cluster.ParseAddress(node.PublicAddress)
			if err != nil {
				return nil, fmt.Errorf("invalid public address %q: %w", node.PublicAddress, err)
			}

			if privateAddr.Port == 0 {
				privateAddr.Port = cluster.DefaultPort
			}

			if publicAddr.Port == 0 {
				publicAddr.Port = privateAddr.Port
			}

			private = append(private, privateAddr)
			toPublic[privateAddr.Key()] = publicAddr
		}

		p.mut.Lock()
		p.loaded = true
		p.private = private
		p.toPublic = toPublic
		p.mut.Unlock()

		level.Debug(p.logger).Log("msg", "cloud addresses refreshed", "count", len(private))

		return nil, nil
	})

	return err
}

func (p *CloudProvider) fetch(ctx context.Context) ([]discoveredNode, error) {
	u := strings.TrimSuffix(p.conf.URL, "/") + discoveryPath + "?token=" + url.QueryEscape(p.conf.Token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errs.ErrConfig.Wrap(err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errs.ErrIO.Wrap(fmt.Errorf("cloud discovery request failed: %w", err))
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Message string `json:"message"`
		}

		_ = json.NewDecoder(resp.Body).Decode(&body)

		return nil, errs.ErrIO.Wrap(fmt.Errorf("cloud discovery returned %s: %s", resp.Status, body.Message))
	}

	var nodes []discoveredNode
	if err := json.NewDecoder(resp.Body).Decode(&nodes); err != nil {
		return nil, errs.ErrIO.Wrap(fmt.Errorf("invalid cloud discovery response: %w", err))
	}

	return nodes, nil
}
