package connmgr

import (
	"fmt"

	"github.com/go-kit/log/level"

	"github.com/maxpoletaev/gridlink/connection"
	"github.com/maxpoletaev/gridlink/errs"
	"github.com/maxpoletaev/gridlink/invocation"
	"github.com/maxpoletaev/gridlink/protocol"
)

func (m *Manager) startHeartbeat() {
	m.wg.Add(1)

	go func() {
		defer m.wg.Done()

		ticker := m.clock.Ticker(m.conf.Heartbeat.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.checkHeartbeats()
			case <-m.ctx.Done():
				return
			}
		}
	}()
}

// checkHeartbeats closes the connections that have been silent for longer
// than the heartbeat timeout, and pings the ones idle on the write side.
func (m *Manager) checkHeartbeats() {
	now := m.clock.Now()

	for _, conn := range m.Connections() {
		if !conn.IsAlive() {
			continue
		}

		if silence := now.Sub(conn.LastRead()); silence > m.conf.Heartbeat.Timeout {
			m.metrics.HeartbeatTimeouts.Inc()

			level.Warn(m.logger).Log(
				"msg", "heartbeat timed out",
				"conn_id", conn.ID(),
				"member", conn.MemberUUID(),
				"silence", silence,
			)

			conn.Close(ReasonHeartbeatTimeout, errs.ErrHeartbeatTimeout.Wrap(
				fmt.Errorf("nothing read for %s", silence),
			))

			continue
		}

		if now.Sub(conn.LastWrite()) > m.conf.Heartbeat.Interval {
			m.ping(conn)
		}
	}
}

// ping sends a ping without waiting for the response. The response only
// moves the last read time forward.
func (m *Manager) ping(conn *connection.Conn) {
	_, err := m.invoker.Send(m.ctx, protocol.EncodePingRequest(), invocation.OnConnection(conn))
	if err != nil {
		level.Debug(m.logger).Log("msg", "failed to send ping", "conn_id", conn.ID(), "err", err)
	}
}
