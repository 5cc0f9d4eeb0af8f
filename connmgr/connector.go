package connmgr

import (
	"context"
	"fmt"

	"github.com/go-kit/log/level"
	"golang.org/x/sync/errgroup"

	"github.com/maxpoletaev/gridlink/cluster"
	"github.com/maxpoletaev/gridlink/errs"
)

const maxParallelConnects = 8

func (m *Manager) kickConnector() {
	select {
	case m.kick <- struct{}{}:
	default:
	}
}

// startConnector runs the loop that keeps connections to the members. With
// smart routing it connects to every member; otherwise it only fills the
// pools of the members the client is already connected to.
func (m *Manager) startConnector() {
	m.wg.Add(1)

	go func() {
		defer m.wg.Done()

		ticker := m.clock.Ticker(m.conf.MemberConnectInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
			case <-m.kick:
			case <-m.ctx.Done():
				return
			}

			m.connectToMembers()
		}
	}()
}

func (m *Manager) connectTargets() []cluster.Member {
	if m.members == nil || m.ConnectionCount() == 0 {
		return nil
	}

	if m.conf.SmartRouting {
		return m.members.Members()
	}

	var targets []cluster.Member

	for _, member := range m.members.Members() {
		if _, ok := m.MemberConnection(member.UUID); ok {
			targets = append(targets, member)
		}
	}

	return targets
}

func (m *Manager) connectToMembers() {
	targets := m.connectTargets()
	if len(targets) == 0 {
		return
	}

	group, ctx := errgroup.WithContext(m.ctx)
	group.SetLimit(maxParallelConnects)

	for _, member := range targets {
		member := member

		if m.poolFull(member) {
			continue
		}

		group.Go(func() error {
			if err := m.connectMember(ctx, member); err != nil {
				level.Debug(m.logger).Log("msg", "failed to connect to member", "member", member, "err", err)
			}

			return nil
		})
	}

	_ = group.Wait()
}

func (m *Manager) poolFull(member cluster.Member) bool {
	m.mut.RLock()
	defer m.mut.RUnlock()

	return len(alive(m.conns[member.UUID])) >= m.conf.Strategy.PoolSize()
}

// connectMember fills the connection pool of the member. Only one goroutine
// connects to a given member at a time; the others wait for it and return.
func (m *Manager) connectMember(ctx context.Context, member cluster.Member) error {
	done := make(chan struct{})

	if wait, loaded := m.waiting.LoadOrStore(member.UUID, done); loaded {
		select {
		case <-wait:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	defer m.waiting.Delete(member.UUID)
	defer close(done)

	addr, ok := m.provider.TranslateToPublic(ctx, member.Address)
	if !ok {
		return errs.ErrIO.Wrap(fmt.Errorf("no public address for %s", member.Address))
	}

	for !m.poolFull(member) {
		if !m.running.Load() {
			return errs.ErrClientNotActive
		}

		conn, err := m.connect(ctx, addr)
		if err != nil {
			return err
		}

		// The address may have been reused by a different member.
		if conn.MemberUUID() != member.UUID {
			level.Warn(m.logger).Log("msg", "member uuid mismatch", "expected", member.UUID, "actual", conn.MemberUUID(), "addr", addr)
			return nil
		}
	}

	return nil
}
