// Package connmgr keeps the client connected to the cluster: it opens and
// authenticates member connections, watches them with heartbeats and
// reconnects after the last one is lost.
package connmgr

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/maxpoletaev/gridlink/cluster"
	"github.com/maxpoletaev/gridlink/connection"
	"github.com/maxpoletaev/gridlink/discovery"
	"github.com/maxpoletaev/gridlink/errs"
	"github.com/maxpoletaev/gridlink/internal/generic"
	"github.com/maxpoletaev/gridlink/internal/metrics"
)

// Close reasons of connections closed by the manager.
const (
	ReasonShutdown         = "client shutdown"
	ReasonHeartbeatTimeout = "heartbeat timed out"
	ReasonAuthFailed       = "authentication failed"
	ReasonDuplicate        = "duplicate connection"
	ReasonMemberLeft       = "member left the cluster"
)

type Option func(*Manager)

func WithConnectionListener(l ConnectionListener) Option {
	return func(m *Manager) {
		m.listeners = append(m.listeners, l)
	}
}

func WithClusterChangeHandler(h ClusterChangeHandler) Option {
	return func(m *Manager) {
		m.onClusterChange = h
	}
}

func WithDisconnectHandler(h DisconnectHandler) Option {
	return func(m *Manager) {
		m.onDisconnect = h
	}
}

// WithConnectionIDs makes the manager take connection ids from the given
// counter, so that several managers can share one id space.
func WithConnectionIDs(counter *atomic.Int64) Option {
	return func(m *Manager) {
		m.connIDs = counter
	}
}

// Manager owns the live member connections.
type Manager struct {
	conf       Config
	provider   discovery.AddressProvider
	invoker    Invoker
	members    *cluster.MembersView
	partitions *cluster.PartitionTable
	dialer     *connection.Dialer
	logger     log.Logger
	metrics    *metrics.Metrics
	clock      clock.Clock

	listeners       []ConnectionListener
	onClusterChange ClusterChangeHandler
	onDisconnect    DisconnectHandler

	connIDs    *atomic.Int64
	roundRobin atomic.Uint64
	state      atomic.Int32
	running    atomic.Bool
	connected  atomic.Bool

	// mut guards the live connections and the cluster id. Adding and removing
	// a connection both happen under it, so checking for the last connection
	// does not race with new connections.
	mut       sync.RWMutex
	conns     map[uuid.UUID][]*connection.Conn
	clusterID uuid.UUID

	connectGroup singleflight.Group
	waiting      generic.SyncMap[uuid.UUID, chan struct{}]
	kick         chan struct{}

	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func New(
	conf Config,
	provider discovery.AddressProvider,
	invoker Invoker,
	members *cluster.MembersView,
	partitions *cluster.PartitionTable,
	opts ...Option,
) (*Manager, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	dialer, err := connection.NewDialer(conf.Connection)
	if err != nil {
		return nil, err
	}

	if conf.ClientUUID == uuid.Nil {
		conf.ClientUUID = uuid.New()
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		conf:            conf,
		provider:        provider,
		invoker:         invoker,
		members:         members,
		partitions:      partitions,
		dialer:          dialer,
		logger:          conf.Logger,
		metrics:         conf.Metrics,
		clock:           conf.Clock,
		onClusterChange: func(uuid.UUID, uuid.UUID) {},
		onDisconnect:    func(error) {},
		connIDs:         new(atomic.Int64),
		conns:           make(map[uuid.UUID][]*connection.Conn),
		kick:            make(chan struct{}, 1),
		ctx:             ctx,
		cancel:          cancel,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// ClientUUID is the identity the client authenticates with.
func (m *Manager) ClientUUID() uuid.UUID {
	return m.conf.ClientUUID
}

func (m *Manager) State() State {
	return State(m.state.Load())
}

// SetInitialized marks the client state as sent to the current cluster.
func (m *Manager) SetInitialized() {
	m.state.CompareAndSwap(int32(StateConnectedToCluster), int32(StateInitializedOnCluster))
}

// ClusterID returns the id of the cluster the client is connected to.
func (m *Manager) ClusterID() uuid.UUID {
	m.mut.RLock()
	defer m.mut.RUnlock()

	return m.clusterID
}

// Start connects to the cluster and starts the background loops. Unless the
// start is asynchronous, it returns the connect error, if any.
func (m *Manager) Start(ctx context.Context) error {
	if m.ctx.Err() != nil {
		return errs.ErrClientNotActive
	}

	if !m.running.CompareAndSwap(false, true) {
		return errs.ErrIllegalState.Wrap(fmt.Errorf("connection manager already started"))
	}

	m.startHeartbeat()
	m.startConnector()

	if m.conf.AsyncStart {
		m.wg.Add(1)

		go func() {
			defer m.wg.Done()
			m.reconnectLoop()
		}()

		return nil
	}

	ctx, cancel := mergeContext(ctx, m.ctx)
	defer cancel()

	if err := m.connectToCluster(ctx); err != nil {
		m.Shutdown()
		return err
	}

	return nil
}

// Shutdown stops the background loops and closes every connection. It is
// idempotent and safe to call from any goroutine, including connection
// callbacks.
func (m *Manager) Shutdown() {
	m.stopOnce.Do(func() {
		m.running.Store(false)
		m.cancel()

		for _, conn := range m.Connections() {
			conn.Close(ReasonShutdown, errs.ErrClientNotActive)
		}

		m.wg.Wait()
	})
}

// Connections returns the live connections.
func (m *Manager) Connections() []*connection.Conn {
	m.mut.RLock()
	defer m.mut.RUnlock()

	var conns []*connection.Conn
	for _, pool := range m.conns {
		conns = append(conns, pool...)
	}

	return conns
}

// ConnectionCount returns the number of live connections.
func (m *Manager) ConnectionCount() int {
	m.mut.RLock()
	defer m.mut.RUnlock()

	return m.countLocked()
}

func (m *Manager) countLocked() int {
	n := 0
	for _, pool := range m.conns {
		n += len(pool)
	}

	return n
}

// MemberConnection returns a live connection to the member. With pooled
// connections, consecutive calls take turns over the pool.
func (m *Manager) MemberConnection(id uuid.UUID) (*connection.Conn, bool) {
	m.mut.RLock()
	defer m.mut.RUnlock()

	return m.pick(m.conns[id])
}

// RandomConnection returns a live connection to any member.
func (m *Manager) RandomConnection() (*connection.Conn, bool) {
	m.mut.RLock()
	defer m.mut.RUnlock()

	pools := generic.MapValues(m.conns)
	generic.Shuffle(pools)

	for _, pool := range pools {
		if conn, ok := m.pick(pool); ok {
			return conn, true
		}
	}

	return nil, false
}

func (m *Manager) pick(pool []*connection.Conn) (*connection.Conn, bool) {
	n := len(pool)
	if n == 0 {
		return nil, false
	}

	start := int(m.roundRobin.Add(1) % uint64(n))

	for i := 0; i < n; i++ {
		if conn := pool[(start+i)%n]; conn.IsAlive() {
			return conn, true
		}
	}

	return nil, false
}

// MembersChanged opens connections to the added members and closes the ones
// to the removed members.
func (m *Manager) MembersChanged(diff cluster.MembershipDiff) {
	for _, member := range diff.Removed {
		m.mut.RLock()
		pool := append([]*connection.Conn(nil), m.conns[member.UUID]...)
		m.mut.RUnlock()

		for _, conn := range pool {
			conn.Close(ReasonMemberLeft, errs.ErrTargetNotMember)
		}
	}

	if len(diff.Added) > 0 {
		m.kickConnector()
	}
}

// addConnection puts an authenticated connection into the live set. It fails
// if the connection is already closed or the member already has a full pool.
func (m *Manager) addConnection(conn *connection.Conn, clusterID uuid.UUID) error {
	var (
		changed   bool
		prevID    uuid.UUID
		firstConn bool
	)

	m.mut.Lock()

	// Checked under the lock: a connection closed after this point is
	// removed by connectionClosed, which waits for the lock.
	if !conn.IsAlive() {
		m.mut.Unlock()
		return errs.ErrConnectionClosed
	}

	pool := m.conns[conn.MemberUUID()]
	if len(alive(pool)) >= m.conf.Strategy.PoolSize() {
		m.mut.Unlock()
		return errDuplicateConnection
	}

	if m.countLocked() == 0 {
		firstConn = true
		prevID = m.clusterID
		changed = prevID != uuid.Nil && prevID != clusterID
		m.clusterID = clusterID
	}

	m.conns[conn.MemberUUID()] = append(alive(pool), conn)

	m.mut.Unlock()

	if firstConn {
		if changed {
			level.Warn(m.logger).Log("msg", "switched to a new cluster", "prev_cluster_id", prevID, "cluster_id", clusterID)
			m.state.Store(int32(StateConnectedToCluster))
			m.onClusterChange(prevID, clusterID)
		} else {
			m.state.CompareAndSwap(int32(StateInitial), int32(StateConnectedToCluster))
		}

		if m.connected.Swap(true) {
			m.metrics.ClusterReconnects.Inc()
		}
	}

	m.metrics.ConnectionsActive.Inc()
	m.metrics.ConnectionsOpened.Inc()

	level.Info(m.logger).Log(
		"msg", "connection authenticated",
		"conn_id", conn.ID(),
		"member", conn.MemberUUID(),
		"addr", conn.MemberAddress(),
		"server_version", conn.ServerVersion(),
	)

	for _, l := range m.listeners {
		l.ConnectionAdded(conn)
	}

	return nil
}

func alive(pool []*connection.Conn) []*connection.Conn {
	live := pool[:0:0]

	for _, conn := range pool {
		if conn.IsAlive() {
			live = append(live, conn)
		}
	}

	return live
}

// connectionClosed is the close handler of every connection the manager
// opens, authenticated or not.
func (m *Manager) connectionClosed(conn *connection.Conn) {
	reason, cause := conn.CloseReason()

	m.invoker.ConnectionClosed(conn.ID(), cause)

	m.mut.Lock()

	removed := false
	pool := m.conns[conn.MemberUUID()]

	for i, c := range pool {
		if c == conn {
			pool = append(pool[:i:i], pool[i+1:]...)
			removed = true

			break
		}
	}

	if len(pool) == 0 {
		delete(m.conns, conn.MemberUUID())
	} else {
		m.conns[conn.MemberUUID()] = pool
	}

	empty := m.countLocked() == 0

	m.mut.Unlock()

	m.metrics.ConnectionsClosed.WithLabelValues(reason).Inc()

	if !removed {
		return
	}

	m.metrics.ConnectionsActive.Dec()

	for _, l := range m.listeners {
		l.ConnectionRemoved(conn, cause)
	}

	if empty && m.running.Load() {
		m.lostCluster()
	}
}

func (m *Manager) lostCluster() {
	level.Warn(m.logger).Log("msg", "lost connection to the cluster", "reconnect_mode", m.conf.ReconnectMode)

	if m.conf.ReconnectMode == ReconnectOff {
		go m.onDisconnect(errs.ErrClientOffline.Wrap(fmt.Errorf("reconnect is disabled")))
		return
	}

	m.wg.Add(1)

	go func() {
		defer m.wg.Done()
		m.reconnectLoop()
	}()
}

// reconnectLoop connects to the cluster in the background. Each round is
// bounded by the cluster connect timeout; whether a failed round is retried
// depends on the reconnect mode.
func (m *Manager) reconnectLoop() {
	for {
		err := m.connectToCluster(m.ctx)
		if err == nil {
			return
		}

		if !m.running.Load() || errors.Is(err, errs.ErrClientNotActive) {
			return
		}

		retry := m.conf.ReconnectMode == ReconnectOn ||
			(m.conf.ReconnectMode == ReconnectIfPreviouslyConnected && m.connected.Load())

		if !retry {
			level.Error(m.logger).Log("msg", "unable to connect to the cluster", "err", err)
			go m.onDisconnect(err)

			return
		}

		level.Warn(m.logger).Log("msg", "cluster connect round failed, starting over", "err", err)
	}
}

// mergeContext returns a context that is done when either parent is done.
func mergeContext(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(a)
	stop := context.AfterFunc(b, cancel)

	return ctx, func() {
		stop()
		cancel()
	}
}
