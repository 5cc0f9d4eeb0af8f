// Package fakemember runs an in-process cluster member that speaks enough of
// the client protocol for socket-level tests: authentication, pings and the
// cluster view listener.
package fakemember

import (
	"io"
	"net"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/maxpoletaev/gridlink/cluster"
	"github.com/maxpoletaev/gridlink/connection"
	"github.com/maxpoletaev/gridlink/protocol"
)

const (
	DefaultPartitionCount = 271
	serverVersion         = "5.3.0"
)

// RequestHandler answers requests the member does not handle itself. A nil
// response leaves the request unanswered.
type RequestHandler func(req *protocol.Message) *protocol.Message

type Config struct {
	ClusterID      uuid.UUID
	MemberUUID     uuid.UUID
	PartitionCount int32
	AuthStatus     protocol.AuthenticationStatus
	// IgnorePings makes the member go silent on an idle connection.
	IgnorePings bool
	Handler     RequestHandler
}

func DefaultConfig() Config {
	return Config{
		ClusterID:      uuid.New(),
		MemberUUID:     uuid.New(),
		PartitionCount: DefaultPartitionCount,
		AuthStatus:     protocol.StatusAuthenticated,
	}
}

// Member is a fake cluster member listening on the loopback interface.
type Member struct {
	conf Config
	ln   net.Listener
	addr cluster.Address

	received sync.Map // int32 -> *atomic.Int32
	connIDs  atomic.Int64

	mut         sync.Mutex
	conns       map[int64]*connection.Conn
	// subscriptions maps a request type to the correlation id of the last
	// such request of every connection.
	subscriptions map[int32]map[int64]int64
	members     []protocol.MemberInfo
	viewVersion int32

	wg     sync.WaitGroup
	closed atomic.Bool
}

// Start listens on a random loopback port and serves connections until Close.
func Start(conf Config) (*Member, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}

	host, portStr, _ := net.SplitHostPort(ln.Addr().String())
	port, _ := strconv.Atoi(portStr)

	m := &Member{
		conf:        conf,
		ln:          ln,
		addr:        cluster.NewAddress(host, port),
		conns:         make(map[int64]*connection.Conn),
		subscriptions: make(map[int32]map[int64]int64),
	}

	m.members = []protocol.MemberInfo{m.Info()}
	m.viewVersion = 1

	m.wg.Add(1)

	go func() {
		defer m.wg.Done()
		m.acceptLoop()
	}()

	return m, nil
}

func (m *Member) Address() cluster.Address {
	return m.addr
}

func (m *Member) UUID() uuid.UUID {
	return m.conf.MemberUUID
}

// Info describes the member as it appears in a members view.
func (m *Member) Info() protocol.MemberInfo {
	return protocol.MemberInfo{
		Address: protocol.AddressInfo{Host: m.addr.Host, Port: int32(m.addr.Port)},
		UUID:    m.conf.MemberUUID,
		Version: protocol.MemberVersion{Major: 5, Minor: 3},
	}
}

// Received returns the number of requests of the given type the member got.
func (m *Member) Received(messageType int32) int {
	if v, ok := m.received.Load(messageType); ok {
		return int(v.(*atomic.Int32).Load())
	}

	return 0
}

// ConnectionCount returns the number of open client connections.
func (m *Member) ConnectionCount() int {
	m.mut.Lock()
	defer m.mut.Unlock()

	return len(m.conns)
}

// SetMembers replaces the members view and pushes it to every subscribed
// connection.
func (m *Member) SetMembers(members ...protocol.MemberInfo) {
	m.mut.Lock()
	m.members = members
	m.viewVersion++
	m.mut.Unlock()

	for connID, corrID := range m.subscribers(protocol.AddClusterViewListenerRequestType) {
		m.pushView(connID, corrID)
	}
}

// Publish sends the event to every connection that has sent a request of the
// given type, using the correlation id of that request.
func (m *Member) Publish(requestType int32, event *protocol.Message) int {
	sent := 0

	for connID, corrID := range m.subscribers(requestType) {
		m.mut.Lock()
		conn, ok := m.conns[connID]
		m.mut.Unlock()

		if !ok {
			continue
		}

		msg := event.Copy()
		msg.SetCorrelationID(corrID)

		if conn.Send(msg) {
			sent++
		}
	}

	return sent
}

func (m *Member) subscribers(requestType int32) map[int64]int64 {
	m.mut.Lock()
	defer m.mut.Unlock()

	result := make(map[int64]int64, len(m.subscriptions[requestType]))
	for connID, corrID := range m.subscriptions[requestType] {
		result[connID] = corrID
	}

	return result
}

func (m *Member) subscribe(requestType int32, connID, corrID int64) {
	m.mut.Lock()
	defer m.mut.Unlock()

	subs, ok := m.subscriptions[requestType]
	if !ok {
		subs = make(map[int64]int64)
		m.subscriptions[requestType] = subs
	}

	subs[connID] = corrID
}

// CloseConnections drops every client connection, keeping the listener.
func (m *Member) CloseConnections() {
	m.mut.Lock()
	conns := make([]*connection.Conn, 0, len(m.conns))

	for _, conn := range m.conns {
		conns = append(conns, conn)
	}
	m.mut.Unlock()

	for _, conn := range conns {
		conn.Close("closed by member", nil)
	}
}

// Close stops the member and drops its connections.
func (m *Member) Close() {
	if !m.closed.CompareAndSwap(false, true) {
		return
	}

	_ = m.ln.Close()
	m.CloseConnections()
	m.wg.Wait()
}

func (m *Member) acceptLoop() {
	for {
		raw, err := m.ln.Accept()
		if err != nil {
			return
		}

		preamble := make([]byte, len(protocol.Preamble))
		if _, err := io.ReadFull(raw, preamble); err != nil || string(preamble) != protocol.Preamble {
			_ = raw.Close()
			continue
		}

		id := m.connIDs.Add(1)

		conn := connection.New(id, cluster.Address{}, raw,
			connection.WithHandler(m.handle),
			connection.WithCloseHandler(func(c *connection.Conn) {
				m.mut.Lock()
				delete(m.conns, c.ID())

				for _, subs := range m.subscriptions {
					delete(subs, c.ID())
				}
				m.mut.Unlock()
			}),
		)

		m.mut.Lock()
		m.conns[id] = conn
		m.mut.Unlock()
	}
}

func (m *Member) count(messageType int32) {
	v, _ := m.received.LoadOrStore(messageType, new(atomic.Int32))
	v.(*atomic.Int32).Add(1)
}

func (m *Member) handle(conn *connection.Conn, req *protocol.Message) {
	m.count(req.Type())

	var resp *protocol.Message

	switch req.Type() {
	case protocol.AuthenticationRequestType, protocol.AuthenticationCustomRequestType:
		resp = m.authResponse()
	case protocol.PingRequestType:
		if m.conf.IgnorePings {
			return
		}

		resp = protocol.EncodePingResponse()
	case protocol.AddClusterViewListenerRequestType:
		resp = protocol.EncodeAddClusterViewListenerResponse()
		resp.SetCorrelationID(req.CorrelationID())
		conn.Send(resp)

		m.subscribe(req.Type(), conn.ID(), req.CorrelationID())
		m.pushView(conn.ID(), req.CorrelationID())

		return
	default:
		m.subscribe(req.Type(), conn.ID(), req.CorrelationID())

		if m.conf.Handler != nil {
			resp = m.conf.Handler(req)
		}
	}

	if resp == nil {
		return
	}

	resp.SetCorrelationID(req.CorrelationID())
	conn.Send(resp)
}

func (m *Member) authResponse() *protocol.Message {
	addr := protocol.AddressInfo{Host: m.addr.Host, Port: int32(m.addr.Port)}

	return protocol.EncodeAuthenticationResponse(&protocol.AuthenticationResponse{
		Status:               m.conf.AuthStatus,
		Address:              &addr,
		MemberUUID:           m.conf.MemberUUID,
		SerializationVersion: 1,
		ServerVersion:        serverVersion,
		PartitionCount:       m.conf.PartitionCount,
		ClusterID:            m.conf.ClusterID,
	})
}

func (m *Member) pushView(connID, corrID int64) {
	m.mut.Lock()
	conn, ok := m.conns[connID]
	version := m.viewVersion
	members := append([]protocol.MemberInfo(nil), m.members...)
	m.mut.Unlock()

	if !ok {
		return
	}

	membersEvent := protocol.EncodeMembersViewEvent(&protocol.MembersViewEvent{
		Version: version,
		Members: members,
	})

	membersEvent.SetCorrelationID(corrID)
	conn.Send(membersEvent)

	partitionsEvent := protocol.EncodePartitionsViewEvent(&protocol.PartitionsViewEvent{
		Version:    version,
		Partitions: m.partitionOwnership(members),
	})

	partitionsEvent.SetCorrelationID(corrID)
	conn.Send(partitionsEvent)
}

// partitionOwnership spreads the partitions over the members round-robin.
func (m *Member) partitionOwnership(members []protocol.MemberInfo) []protocol.PartitionEntry {
	if len(members) == 0 {
		return nil
	}

	entries := make([]protocol.PartitionEntry, len(members))

	for i, member := range members {
		entries[i].MemberUUID = member.UUID
	}

	for p := int32(0); p < m.conf.PartitionCount; p++ {
		i := int(p) % len(members)
		entries[i].Partitions = append(entries[i].Partitions, p)
	}

	return entries
}
