package client

import (
	"sync/atomic"

	"github.com/go-kit/log/level"

	"github.com/maxpoletaev/gridlink/cluster"
	"github.com/maxpoletaev/gridlink/connection"
	"github.com/maxpoletaev/gridlink/invocation"
	"github.com/maxpoletaev/gridlink/protocol"
)

// clusterViewListener keeps one subscription to the members and partitions
// views. The subscription lives on a single connection and moves to another
// one when that connection is lost.
type clusterViewListener struct {
	client *Client
	conn   atomic.Pointer[connection.Conn]
}

func newClusterViewListener(c *Client) *clusterViewListener {
	return &clusterViewListener{client: c}
}

func (l *clusterViewListener) ConnectionAdded(conn *connection.Conn) {
	l.tryRegister(conn)
}

func (l *clusterViewListener) ConnectionRemoved(conn *connection.Conn, _ error) {
	if !l.conn.CompareAndSwap(conn, nil) {
		return
	}

	if next, ok := l.client.manager.RandomConnection(); ok {
		l.tryRegister(next)
	}
}

// tryRegister subscribes over the connection unless a subscription already
// exists or is in progress.
func (l *clusterViewListener) tryRegister(conn *connection.Conn) {
	if !l.conn.CompareAndSwap(nil, conn) {
		return
	}

	started := l.client.goAsync(func() {
		err := l.register(conn)
		if err == nil {
			return
		}

		level.Warn(l.client.logger).Log(
			"msg", "failed to register cluster view listener",
			"conn_id", conn.ID(),
			"err", err,
		)

		if !l.conn.CompareAndSwap(conn, nil) {
			return
		}

		if next, ok := l.client.manager.RandomConnection(); ok && next != conn {
			l.tryRegister(next)
		}
	})

	if !started {
		l.conn.CompareAndSwap(conn, nil)
	}
}

func (l *clusterViewListener) register(conn *connection.Conn) error {
	connID := conn.ID()

	handler := func(msg *protocol.Message) {
		l.handleEvent(connID, msg)
	}

	_, _, err := l.client.service.InvokeWithHandler(
		l.client.ctx,
		protocol.EncodeAddClusterViewListenerRequest(),
		handler,
		invocation.OnConnection(conn),
	)
	if err != nil {
		return err
	}

	level.Debug(l.client.logger).Log("msg", "cluster view listener registered", "conn_id", connID, "member", conn.MemberUUID())

	return nil
}

func (l *clusterViewListener) handleEvent(connID int64, msg *protocol.Message) {
	switch msg.Type() {
	case protocol.MembersViewEventType:
		l.applyMembers(protocol.DecodeMembersViewEvent(msg))
	case protocol.PartitionsViewEventType:
		l.applyPartitions(connID, protocol.DecodePartitionsViewEvent(msg))
	default:
		level.Debug(l.client.logger).Log("msg", "unknown cluster view event", "type", msg.Type())
	}
}

func (l *clusterViewListener) applyMembers(ev *protocol.MembersViewEvent) {
	members := make([]cluster.Member, 0, len(ev.Members))
	for _, info := range ev.Members {
		members = append(members, memberFromInfo(info))
	}

	diff, applied := l.client.members.Apply(ev.Version, members)
	if !applied {
		return
	}

	level.Info(l.client.logger).Log(
		"msg", "members view updated",
		"version", ev.Version,
		"members", len(members),
		"added", len(diff.Added),
		"removed", len(diff.Removed),
	)

	if diff.Empty() {
		return
	}

	l.client.manager.MembersChanged(diff)

	if l.client.conf.OnMembershipChanged != nil {
		l.client.conf.OnMembershipChanged(diff)
	}
}

func (l *clusterViewListener) applyPartitions(connID int64, ev *protocol.PartitionsViewEvent) {
	entries := make([]cluster.PartitionOwnership, 0, len(ev.Partitions))
	for _, p := range ev.Partitions {
		entries = append(entries, cluster.PartitionOwnership{
			Member:     p.MemberUUID,
			Partitions: p.Partitions,
		})
	}

	if l.client.partitions.Apply(connID, ev.Version, entries) {
		level.Debug(l.client.logger).Log("msg", "partition table updated", "version", ev.Version, "conn_id", connID)
	}
}

func memberFromInfo(info protocol.MemberInfo) cluster.Member {
	return cluster.Member{
		UUID:       info.UUID,
		Address:    cluster.NewAddress(info.Address.Host, int(info.Address.Port)),
		Attributes: info.Attributes,
		LiteMember: info.LiteMember,
		Version: cluster.Version{
			Major: info.Version.Major,
			Minor: info.Version.Minor,
			Patch: info.Version.Patch,
		},
	}
}
