package connmgr

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-kit/log/level"

	"github.com/maxpoletaev/gridlink/cluster"
	"github.com/maxpoletaev/gridlink/connection"
	"github.com/maxpoletaev/gridlink/errs"
	"github.com/maxpoletaev/gridlink/internal/generic"
	"github.com/maxpoletaev/gridlink/internal/multierror"
	"github.com/maxpoletaev/gridlink/protocol"
)

const (
	connectResultSuccess = "success"
	connectResultFailure = "failure"
)

// connectToCluster tries candidate addresses in rounds until one connection
// is authenticated. Concurrent callers share the same attempt.
func (m *Manager) connectToCluster(ctx context.Context) error {
	ch := m.connectGroup.DoChan("cluster", func() (interface{}, error) {
		return nil, m.doConnectToCluster(m.ctx)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return errs.ErrTimeout.Wrap(ctx.Err())
	}
}

func (m *Manager) doConnectToCluster(ctx context.Context) error {
	if m.conf.ClusterConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.conf.ClusterConnectTimeout)

		defer cancel()
	}

	var (
		failures = multierror.New[string]()
		backoff  = newBackoff(m.conf.Backoff)
		round    = 0
	)

	for {
		round++

		for _, addr := range m.candidates(ctx) {
			if !m.running.Load() {
				return errs.ErrClientNotActive
			}

			if m.ConnectionCount() > 0 {
				return nil
			}

			_, err := m.connect(ctx, addr)
			if err == nil {
				return nil
			}

			level.Debug(m.logger).Log("msg", "cluster connect attempt failed", "addr", addr, "round", round, "err", err)

			if ctx.Err() != nil {
				// An attempt cut by the deadline keeps the cause of the
				// previous one for this address.
				if _, ok := failures.Get(addr.String()); !ok {
					failures.Add(addr.String(), err)
				}

				break
			}

			failures.Add(addr.String(), err)
		}

		delay := backoff.next()

		level.Info(m.logger).Log(
			"msg", "unable to connect to any address, waiting before the next round",
			"round", round,
			"delay", delay,
		)

		timer := m.clock.Timer(delay)

		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()

			if !m.running.Load() {
				return errs.ErrClientNotActive
			}

			if failures.Len() == 0 {
				return errs.ErrTimeout.Wrap(fmt.Errorf("no addresses to connect to"))
			}

			return errs.ErrTimeout.Wrap(fmt.Errorf("unable to connect to the cluster: %w", failures.Combined()))
		}
	}
}

// candidates lists known members first, then the addresses of the provider.
func (m *Manager) candidates(ctx context.Context) []cluster.Address {
	var (
		seen   = make(map[cluster.Address]struct{})
		result []cluster.Address
	)

	add := func(addrs []cluster.Address) {
		if m.conf.ShuffleMembers {
			generic.Shuffle(addrs)
		}

		for _, addr := range addrs {
			if _, ok := seen[addr.Key()]; !ok {
				seen[addr.Key()] = struct{}{}
				result = append(result, addr)
			}
		}
	}

	if m.members != nil {
		var known []cluster.Address

		for _, member := range m.members.Members() {
			if addr, ok := m.provider.TranslateToPublic(ctx, member.Address); ok {
				known = append(known, addr)
			}
		}

		add(known)
	}

	provided, err := m.provider.Addresses(ctx)
	if err != nil {
		level.Warn(m.logger).Log("msg", "failed to load addresses", "err", err)
	}

	var translated []cluster.Address

	for _, addr := range provided {
		if public, ok := m.provider.TranslateToPublic(ctx, addr); ok {
			translated = append(translated, public)
		}
	}

	add(translated)

	return result
}

// connect opens and authenticates a connection to the address. The address
// must already be translated.
func (m *Manager) connect(ctx context.Context, addr cluster.Address) (*connection.Conn, error) {
	raw, err := m.dialer.Dial(ctx, addr)
	if err != nil {
		m.metrics.ConnectAttempts.WithLabelValues(connectResultFailure).Inc()
		return nil, err
	}

	opts := append(m.dialer.Options(),
		connection.WithLogger(m.logger),
		connection.WithClock(m.clock),
		connection.WithHandler(func(conn *connection.Conn, msg *protocol.Message) {
			m.invoker.HandleMessage(conn.ID(), msg)
		}),
		connection.WithCloseHandler(m.connectionClosed),
	)

	conn := connection.New(m.connIDs.Add(1), addr, raw, opts...)

	if err := m.handshake(ctx, conn, addr); err != nil {
		m.metrics.ConnectAttempts.WithLabelValues(connectResultFailure).Inc()
		return nil, err
	}

	m.metrics.ConnectAttempts.WithLabelValues(connectResultSuccess).Inc()

	return conn, nil
}

// handshake authenticates the connection and adds it to the live set. The
// connection is closed on any error.
func (m *Manager) handshake(ctx context.Context, conn *connection.Conn, addr cluster.Address) error {
	resp, err := m.authenticate(ctx, conn)
	if err != nil {
		conn.Close(ReasonAuthFailed, err)
		return err
	}

	// The partition count of a cluster never changes, so a different one
	// means a different cluster the client cannot route to.
	if !m.partitions.CheckAndSetCount(resp.PartitionCount) {
		err := errs.ErrNotAllowedInCluster.Wrap(fmt.Errorf(
			"member %s has %d partitions, expected %d",
			resp.MemberUUID, resp.PartitionCount, m.partitions.Count(),
		))

		conn.Close(ReasonAuthFailed, err)

		return err
	}

	conn.SetMember(resp.MemberUUID, memberAddress(resp.Address, addr), resp.ServerVersion)

	if !m.running.Load() {
		conn.Close(ReasonShutdown, errs.ErrClientNotActive)
		return errs.ErrClientNotActive
	}

	if err := m.addConnection(conn, resp.ClusterID); err != nil {
		conn.Close(ReasonDuplicate, nil)
		return err
	}

	return nil
}

var errDuplicateConnection = errors.New("member already has enough connections")

// ConnectToAddress returns a live connection to the member at the address,
// opening and authenticating a new one if there is none.
func (m *Manager) ConnectToAddress(ctx context.Context, addr cluster.Address) (*connection.Conn, error) {
	if !m.running.Load() {
		return nil, errs.ErrClientNotActive
	}

	for _, conn := range m.Connections() {
		if conn.IsAlive() && (conn.RemoteAddress().Equal(addr) || conn.MemberAddress().Equal(addr)) {
			return conn, nil
		}
	}

	public, ok := m.provider.TranslateToPublic(ctx, addr)
	if !ok {
		return nil, errs.ErrIO.Wrap(fmt.Errorf("no public address for %s", addr))
	}

	return m.connect(ctx, public)
}
