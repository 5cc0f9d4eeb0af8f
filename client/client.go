// Package client assembles a data grid client from its components: address
// discovery, the connection manager and the invocation service. It keeps the
// cluster view up to date and restores event subscriptions after reconnects.
package client

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/maxpoletaev/gridlink/cluster"
	"github.com/maxpoletaev/gridlink/connection"
	"github.com/maxpoletaev/gridlink/connmgr"
	"github.com/maxpoletaev/gridlink/discovery"
	"github.com/maxpoletaev/gridlink/errs"
	"github.com/maxpoletaev/gridlink/internal/metrics"
	"github.com/maxpoletaev/gridlink/invocation"
	"github.com/maxpoletaev/gridlink/protocol"
)

type Client struct {
	conf       Config
	logger     log.Logger
	metrics    *metrics.Metrics
	members    *cluster.MembersView
	partitions *cluster.PartitionTable
	service    *invocation.Service
	manager    *connmgr.Manager
	view       *clusterViewListener
	listeners  *listenerRegistry

	ctx    context.Context
	cancel context.CancelFunc

	// mut orders background tasks against shutdown, so that no task is
	// started once Shutdown waits for them.
	mut      sync.Mutex
	wg       sync.WaitGroup
	running  atomic.Bool
	stopOnce sync.Once
	done     chan struct{}
}

// New validates the configuration, connects to the cluster and waits for the
// first member list. With an asynchronous start it returns as soon as the
// components are running.
func New(ctx context.Context, conf Config) (*Client, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	m := metrics.New(conf.Registerer)

	conf.Network.Logger = log.With(conf.Logger, "component", "connmgr")
	conf.Network.Metrics = m
	conf.Network.Clock = conf.Clock
	conf.Invocation.Logger = log.With(conf.Logger, "component", "invocation")
	conf.Invocation.Metrics = m
	conf.Invocation.Clock = conf.Clock
	conf.Invocation.SmartRouting = conf.Network.SmartRouting

	provider, err := discovery.New(conf.Discovery, log.With(conf.Logger, "component", "discovery"))
	if err != nil {
		return nil, err
	}

	c := &Client{
		conf:       conf,
		logger:     conf.Logger,
		metrics:    m,
		members:    cluster.NewMembersView(),
		partitions: cluster.NewPartitionTable(),
		done:       make(chan struct{}),
	}

	c.ctx, c.cancel = context.WithCancel(context.Background())

	routing := &connmgr.Routing{}
	c.service = invocation.NewService(conf.Invocation, routing, c.partitions)
	c.view = newClusterViewListener(c)
	c.listeners = newListenerRegistry(c)

	c.manager, err = connmgr.New(conf.Network, provider, c.service, c.members, c.partitions,
		connmgr.WithConnectionListener(c.view),
		connmgr.WithConnectionListener(c.listeners),
		connmgr.WithClusterChangeHandler(c.clusterChanged),
		connmgr.WithDisconnectHandler(c.disconnected),
	)
	if err != nil {
		c.service.Shutdown()
		c.cancel()

		return nil, err
	}

	routing.Bind(c.manager)
	c.running.Store(true)

	if err := c.manager.Start(ctx); err != nil {
		_ = c.Shutdown(context.Background())
		return nil, err
	}

	if conf.Network.AsyncStart {
		return c, nil
	}

	if err := c.waitForMembers(ctx); err != nil {
		_ = c.Shutdown(context.Background())
		return nil, err
	}

	level.Info(c.logger).Log(
		"msg", "client started",
		"client_uuid", c.manager.ClientUUID(),
		"cluster_id", c.manager.ClusterID(),
		"members", c.members.Len(),
	)

	return c, nil
}

func (c *Client) waitForMembers(ctx context.Context) error {
	if c.conf.Network.ClusterConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.conf.Network.ClusterConnectTimeout)

		defer cancel()
	}

	select {
	case <-c.members.Ready():
		return nil
	case <-c.ctx.Done():
		return errs.ErrClientNotActive
	case <-ctx.Done():
		return errs.ErrTimeout.Wrap(fmt.Errorf("waiting for the member list: %w", ctx.Err()))
	}
}

// Running reports whether the client has not been shut down.
func (c *Client) Running() bool {
	return c.running.Load()
}

// Done is closed when the client shuts down, either by a call to Shutdown
// or after losing the cluster for good.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) ClientUUID() uuid.UUID {
	return c.manager.ClientUUID()
}

func (c *Client) ClusterID() uuid.UUID {
	return c.manager.ClusterID()
}

func (c *Client) State() connmgr.State {
	return c.manager.State()
}

// Members returns the current member list.
func (c *Client) Members() []cluster.Member {
	return c.members.Members()
}

func (c *Client) Connections() []*connection.Conn {
	return c.manager.Connections()
}

func (c *Client) PartitionCount() int32 {
	return c.partitions.Count()
}

// PartitionOwner returns the member owning the partition of the key.
func (c *Client) PartitionOwner(key []byte) (uuid.UUID, int32, bool) {
	partitionID := c.partitions.PartitionID(key)
	owner, ok := c.partitions.Owner(partitionID)

	return owner, partitionID, ok
}

// Invoke sends an encoded request to any member and waits for the response.
func (c *Client) Invoke(ctx context.Context, request *protocol.Message) (*protocol.Message, error) {
	return c.service.Invoke(ctx, request)
}

// InvokeOnKey sends the request to the owner of the partition of the key.
func (c *Client) InvokeOnKey(ctx context.Context, request *protocol.Message, key []byte) (*protocol.Message, error) {
	return c.service.InvokeOnPartition(ctx, request, c.partitions.PartitionID(key))
}

func (c *Client) InvokeOnPartition(ctx context.Context, request *protocol.Message, partitionID int32) (*protocol.Message, error) {
	return c.service.InvokeOnPartition(ctx, request, partitionID)
}

// InvokeOnMember sends the request to the member. It fails right away if
// the member is not in the current member list.
func (c *Client) InvokeOnMember(ctx context.Context, request *protocol.Message, member uuid.UUID) (*protocol.Message, error) {
	if !c.members.HasMember(member) {
		return nil, errs.ErrTargetNotMember.Wrap(fmt.Errorf("member %s is not in the cluster", member))
	}

	return c.service.InvokeOnMember(ctx, request, member)
}

func (c *Client) clusterChanged(prev, next uuid.UUID) {
	removed := c.members.Reset()
	c.partitions.Reset()

	level.Warn(c.logger).Log(
		"msg", "connected to a different cluster, member list and partition table were reset",
		"prev_cluster_id", prev,
		"cluster_id", next,
		"removed_members", len(removed),
	)

	if len(removed) > 0 && c.conf.OnMembershipChanged != nil {
		c.conf.OnMembershipChanged(cluster.MembershipDiff{Removed: removed})
	}
}

func (c *Client) disconnected(err error) {
	level.Error(c.logger).Log("msg", "client is disconnected from the cluster, shutting down", "err", err)

	if err := c.Shutdown(context.Background()); err != nil {
		level.Error(c.logger).Log("msg", "failed to shut down the client", "err", err)
	}
}

// Shutdown closes every connection, fails the pending invocations and waits
// for the background tasks within the context. It is idempotent and safe to
// call from any goroutine.
func (c *Client) Shutdown(ctx context.Context) error {
	var err error

	c.stopOnce.Do(func() {
		c.mut.Lock()
		c.running.Store(false)
		c.mut.Unlock()

		c.cancel()

		c.manager.Shutdown()
		c.service.Shutdown()

		wait := make(chan struct{})

		go func() {
			c.wg.Wait()
			close(wait)
		}()

		select {
		case <-wait:
		case <-ctx.Done():
			err = multierr.Append(err, fmt.Errorf("waiting for background tasks: %w", ctx.Err()))
		}

		if n := c.listeners.clear(); n > 0 {
			level.Debug(c.logger).Log("msg", "dropped event listeners", "count", n)
		}

		close(c.done)

		level.Info(c.logger).Log("msg", "client shut down")
	})

	return err
}

// goAsync runs f in the background unless the client is shutting down.
func (c *Client) goAsync(f func()) bool {
	c.mut.Lock()
	defer c.mut.Unlock()

	if !c.running.Load() {
		return false
	}

	c.wg.Add(1)

	go func() {
		defer c.wg.Done()
		f()
	}()

	return true
}
