package connmgr

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-kit/log"
	"github.com/google/uuid"

	"github.com/maxpoletaev/gridlink/connection"
	"github.com/maxpoletaev/gridlink/errs"
	"github.com/maxpoletaev/gridlink/internal/metrics"
)

const (
	DefaultClusterName   = "dev"
	DefaultClientVersion = "0.1.0"
	clientType           = "GOO"
	serializationVersion = 1
)

// ReconnectMode tells what the manager does after losing the last connection.
type ReconnectMode int

const (
	// ReconnectOn keeps reconnecting in the background until shutdown,
	// including after a failed asynchronous start.
	ReconnectOn ReconnectMode = iota
	// ReconnectOff shuts the client down.
	ReconnectOff
	// ReconnectIfPreviouslyConnected reconnects only if the client has
	// been connected before, so a failed asynchronous start is final.
	ReconnectIfPreviouslyConnected
)

func (m ReconnectMode) String() string {
	switch m {
	case ReconnectOn:
		return "on"
	case ReconnectOff:
		return "off"
	case ReconnectIfPreviouslyConnected:
		return "if_previously_connected"
	default:
		return fmt.Sprintf("ReconnectMode(%d)", int(m))
	}
}

type HeartbeatConfig struct {
	// Interval is how often connections are checked. A ping is sent over a
	// connection that has not written anything for this long.
	Interval time.Duration
	// Timeout closes a connection that has not read anything for this long.
	Timeout time.Duration
}

type Config struct {
	ClusterName   string
	ClientName    string
	ClientUUID    uuid.UUID
	ClientVersion string
	Labels        []string
	Authenticator Authenticator

	Connection            connection.Config
	Heartbeat             HeartbeatConfig
	Backoff               BackoffConfig
	ClusterConnectTimeout time.Duration
	ReconnectMode         ReconnectMode
	Strategy              ConnectionStrategy

	// SmartRouting keeps a connection to every member so that requests can
	// go straight to the partition owner. Otherwise a single member serves
	// all requests.
	SmartRouting bool
	// ShuffleMembers randomizes the order of candidate addresses.
	ShuffleMembers bool
	// AsyncStart makes Start return before the cluster is connected.
	AsyncStart bool
	// MemberConnectInterval is how often the connector checks for members
	// without a connection.
	MemberConnectInterval time.Duration

	Logger  log.Logger
	Metrics *metrics.Metrics
	Clock   clock.Clock
}

func DefaultConfig() Config {
	return Config{
		ClusterName:   DefaultClusterName,
		ClientVersion: DefaultClientVersion,
		Authenticator: PasswordAuthenticator{},
		Connection:    connection.DefaultConfig(),
		Heartbeat: HeartbeatConfig{
			Interval: 5 * time.Second,
			Timeout:  60 * time.Second,
		},
		Backoff:               DefaultBackoffConfig(),
		ClusterConnectTimeout: 120 * time.Second,
		ReconnectMode:         ReconnectOn,
		Strategy:              SingleConnectionPerMember(),
		SmartRouting:          true,
		ShuffleMembers:        true,
		MemberConnectInterval: time.Second,
		Logger:                log.NewNopLogger(),
		Metrics:               metrics.New(nil),
		Clock:                 clock.New(),
	}
}

func (c *Config) Validate() error {
	if c.ClusterName == "" {
		return errs.ErrConfig.Wrap(fmt.Errorf("cluster name is empty"))
	}

	if c.Authenticator == nil {
		return errs.ErrConfig.Wrap(fmt.Errorf("authenticator is not set"))
	}

	if c.Heartbeat.Interval <= 0 || c.Heartbeat.Timeout <= 0 {
		return errs.ErrConfig.Wrap(fmt.Errorf("heartbeat interval and timeout must be positive"))
	}

	if c.Heartbeat.Timeout < c.Heartbeat.Interval {
		return errs.ErrConfig.Wrap(fmt.Errorf("heartbeat timeout %s is shorter than the interval %s",
			c.Heartbeat.Timeout, c.Heartbeat.Interval))
	}

	if c.ClusterConnectTimeout < 0 {
		return errs.ErrConfig.Wrap(fmt.Errorf("cluster connect timeout must not be negative"))
	}

	if c.MemberConnectInterval <= 0 {
		return errs.ErrConfig.Wrap(fmt.Errorf("member connect interval must be positive"))
	}

	if c.ReconnectMode < ReconnectOn || c.ReconnectMode > ReconnectIfPreviouslyConnected {
		return errs.ErrConfig.Wrap(fmt.Errorf("unknown reconnect mode %s", c.ReconnectMode))
	}

	if err := c.Backoff.Validate(); err != nil {
		return err
	}

	if err := c.Strategy.Validate(); err != nil {
		return err
	}

	return c.Connection.Validate()
}
