package invocation_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/maxpoletaev/gridlink/errs"
	"github.com/maxpoletaev/gridlink/invocation"
	"github.com/maxpoletaev/gridlink/invocation/mock"
	"github.com/maxpoletaev/gridlink/protocol"
)

type fakeConn struct {
	id     int64
	member uuid.UUID
	corrID atomic.Int64
	alive  atomic.Bool
	sent   chan *protocol.Message
}

func newFakeConn(id int64) *fakeConn {
	c := &fakeConn{
		id:     id,
		member: uuid.New(),
		sent:   make(chan *protocol.Message, 64),
	}

	c.alive.Store(true)

	return c
}

func (c *fakeConn) ID() int64                { return c.id }
func (c *fakeConn) MemberUUID() uuid.UUID    { return c.member }
func (c *fakeConn) NextCorrelationID() int64 { return c.corrID.Add(1) }
func (c *fakeConn) IsAlive() bool            { return c.alive.Load() }

func (c *fakeConn) Send(msg *protocol.Message) bool {
	if !c.alive.Load() {
		return false
	}

	c.sent <- msg

	return true
}

func (c *fakeConn) nextSent(t *testing.T) *protocol.Message {
	t.Helper()

	select {
	case msg := <-c.sent:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message sent")
		return nil
	}
}

type singleConnSource struct {
	mut  sync.Mutex
	conn *fakeConn
}

func (s *singleConnSource) set(conn *fakeConn) {
	s.mut.Lock()
	s.conn = conn
	s.mut.Unlock()
}

func (s *singleConnSource) MemberConnection(id uuid.UUID) (invocation.Connection, bool) {
	s.mut.Lock()
	defer s.mut.Unlock()

	if s.conn == nil || s.conn.member != id {
		return nil, false
	}

	return s.conn, true
}

func (s *singleConnSource) RandomConnection() (invocation.Connection, bool) {
	s.mut.Lock()
	defer s.mut.Unlock()

	if s.conn == nil {
		return nil, false
	}

	return s.conn, true
}

func testConfig() invocation.Config {
	conf := invocation.DefaultConfig()
	conf.InvocationTimeout = 5 * time.Second
	conf.EventWorkers = 2

	return conf
}

func responseFor(req *protocol.Message) *protocol.Message {
	resp := protocol.EncodePingResponse()
	resp.SetCorrelationID(req.CorrelationID())

	return resp
}

func TestService_InvokeResponse(t *testing.T) {
	conn := newFakeConn(1)
	service := invocation.NewService(testConfig(), &singleConnSource{conn: conn}, nil)
	defer service.Shutdown()

	inv, err := service.Send(context.Background(), protocol.EncodePingRequest())
	require.NoError(t, err)

	req := conn.nextSent(t)
	require.Equal(t, int64(1), req.CorrelationID())
	require.Equal(t, 1, service.Registry().Len())

	service.HandleMessage(conn.id, responseFor(req))

	resp, err := inv.Result()
	require.NoError(t, err)
	require.Equal(t, protocol.PingResponseType, resp.Type())
	require.Equal(t, 0, service.Registry().Len())
}

func TestService_RequestNotMutated(t *testing.T) {
	conn := newFakeConn(1)
	service := invocation.NewService(testConfig(), &singleConnSource{conn: conn}, nil)
	defer service.Shutdown()

	request := protocol.EncodePingRequest()

	_, err := service.Send(context.Background(), request, invocation.OnPartition(7))
	require.NoError(t, err)

	sent := conn.nextSent(t)
	require.Equal(t, int32(7), sent.PartitionID())
	require.Equal(t, int64(0), request.CorrelationID())
}

func TestService_ConnectionClosedFailsInvocation(t *testing.T) {
	conn := newFakeConn(1)
	source := &singleConnSource{conn: conn}

	conf := testConfig()
	conf.InvocationTimeout = time.Second

	service := invocation.NewService(conf, source, nil)
	defer service.Shutdown()

	// Listener registration is not retryable, so it fails right away.
	inv, err := service.Send(context.Background(), protocol.EncodeAddClusterViewListenerRequest())
	require.NoError(t, err)
	conn.nextSent(t)

	conn.alive.Store(false)
	source.set(nil)
	service.ConnectionClosed(conn.id, errs.ErrConnectionClosed)

	select {
	case <-inv.Done():
	case <-time.After(time.Second):
		t.Fatal("invocation was not resolved")
	}

	_, err = inv.Result()
	require.ErrorIs(t, err, errs.ErrDisconnected)
	require.Equal(t, 0, service.Registry().Len())
}

func TestService_RetryOnAnotherConnection(t *testing.T) {
	first := newFakeConn(1)
	source := &singleConnSource{conn: first}

	service := invocation.NewService(testConfig(), source, nil)
	defer service.Shutdown()

	inv, err := service.Send(context.Background(), protocol.EncodePingRequest())
	require.NoError(t, err)
	first.nextSent(t)

	second := newFakeConn(2)
	source.set(second)

	first.alive.Store(false)
	service.ConnectionClosed(first.id, errs.ErrConnectionClosed)

	req := second.nextSent(t)
	service.HandleMessage(second.id, responseFor(req))

	_, err = inv.Result()
	require.NoError(t, err)
	require.Equal(t, 2, inv.Attempts())
}

func TestService_RetryableServerError(t *testing.T) {
	conn := newFakeConn(1)
	service := invocation.NewService(testConfig(), &singleConnSource{conn: conn}, nil)
	defer service.Shutdown()

	inv, err := service.Send(context.Background(), protocol.EncodePingRequest())
	require.NoError(t, err)

	req := conn.nextSent(t)
	serverErr := errs.NewServerError(errs.CodePartitionMigrating, "PartitionMigratingException", "migrating", nil)
	service.HandleMessage(conn.id, protocol.EncodeErrorResponse(req.CorrelationID(), serverErr))

	req = conn.nextSent(t)
	require.Equal(t, int64(2), req.CorrelationID())
	service.HandleMessage(conn.id, responseFor(req))

	_, err = inv.Result()
	require.NoError(t, err)
}

func TestService_NonRetryableServerError(t *testing.T) {
	conn := newFakeConn(1)
	service := invocation.NewService(testConfig(), &singleConnSource{conn: conn}, nil)
	defer service.Shutdown()

	inv, err := service.Send(context.Background(), protocol.EncodePingRequest())
	require.NoError(t, err)

	req := conn.nextSent(t)
	serverErr := errs.NewServerError(errs.CodeIllegalArgument, "IllegalArgumentException", "bad key", nil)
	service.HandleMessage(conn.id, protocol.EncodeErrorResponse(req.CorrelationID(), serverErr))

	_, err = inv.Result()
	require.ErrorIs(t, err, errs.ErrServer)

	var target *errs.ServerError
	require.True(t, errors.As(err, &target))
	require.Equal(t, "bad key", target.Message)
}

func TestService_TargetNotMemberNotRetriedOnMember(t *testing.T) {
	conn := newFakeConn(1)
	service := invocation.NewService(testConfig(), &singleConnSource{conn: conn}, nil)
	defer service.Shutdown()

	inv, err := service.Send(context.Background(), protocol.EncodePingRequest(), invocation.OnMember(conn.member))
	require.NoError(t, err)

	req := conn.nextSent(t)
	serverErr := errs.NewServerError(errs.CodeTargetNotMember, "TargetNotMemberException", "", nil)
	service.HandleMessage(conn.id, protocol.EncodeErrorResponse(req.CorrelationID(), serverErr))

	_, err = inv.Result()
	require.ErrorIs(t, err, errs.ErrTargetNotMember)
	require.Equal(t, 1, inv.Attempts())
}

func TestService_OfflineUntilTimeout(t *testing.T) {
	mockClock := clock.NewMock()

	conf := testConfig()
	conf.Clock = mockClock
	conf.InvocationTimeout = 10 * time.Second
	conf.RetryPause = time.Second
	conf.MaxAttempts = 0

	service := invocation.NewService(conf, &singleConnSource{}, nil)
	defer service.Shutdown()

	inv, err := service.Send(context.Background(), protocol.EncodePingRequest())
	require.NoError(t, err)

	// Fast attempts run first, then the service waits on the clock.
	require.Eventually(t, func() bool {
		return inv.Attempts() >= 5
	}, time.Second, time.Millisecond)

	require.False(t, inv.IsDone())

	for i := 0; i < 20 && !inv.IsDone(); i++ {
		mockClock.Add(time.Second)
	}

	_, err = inv.Result()
	require.ErrorIs(t, err, errs.ErrTimeout)
}

func TestService_MaxAttempts(t *testing.T) {
	conf := testConfig()
	conf.MaxAttempts = 3

	service := invocation.NewService(conf, &singleConnSource{}, nil)
	defer service.Shutdown()

	inv, err := service.Send(context.Background(), protocol.EncodePingRequest())
	require.NoError(t, err)

	_, err = inv.Result()
	require.ErrorIs(t, err, errs.ErrClientOffline)
	require.Equal(t, 3, inv.Attempts())
}

func TestService_ContextCancel(t *testing.T) {
	conn := newFakeConn(1)
	service := invocation.NewService(testConfig(), &singleConnSource{conn: conn}, nil)
	defer service.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())

	inv, err := service.Send(ctx, protocol.EncodePingRequest())
	require.NoError(t, err)
	req := conn.nextSent(t)

	cancel()

	_, err = inv.Result()
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 0, service.Registry().Len())

	// A late response is ignored.
	service.HandleMessage(conn.id, responseFor(req))

	_, err = inv.Result()
	require.ErrorIs(t, err, context.Canceled)
}

func TestService_ResolvedOnce(t *testing.T) {
	conn := newFakeConn(1)
	service := invocation.NewService(testConfig(), &singleConnSource{conn: conn}, nil)
	defer service.Shutdown()

	inv, err := service.Send(context.Background(), protocol.EncodeAddClusterViewListenerRequest())
	require.NoError(t, err)
	req := conn.nextSent(t)

	var wg sync.WaitGroup

	wg.Add(2)

	go func() {
		defer wg.Done()
		service.HandleMessage(conn.id, responseFor(req))
	}()

	go func() {
		defer wg.Done()
		service.ConnectionClosed(conn.id, errs.ErrConnectionClosed)
	}()

	wg.Wait()

	resp, err := inv.Result()
	if err != nil {
		require.Nil(t, resp)
		require.ErrorIs(t, err, errs.ErrDisconnected)
	} else {
		require.NotNil(t, resp)
	}

	require.False(t, inv.Fail(errors.New("late")))
	require.False(t, inv.Complete(resp))
}

func TestService_EventHandler(t *testing.T) {
	conn := newFakeConn(1)
	service := invocation.NewService(testConfig(), &singleConnSource{conn: conn}, nil)
	defer service.Shutdown()

	events := make(chan int32, 10)
	handler := func(msg *protocol.Message) {
		events <- protocol.DecodeMembersViewEvent(msg).Version
	}

	inv, err := service.Send(context.Background(), protocol.EncodeAddClusterViewListenerRequest(), invocation.WithEventHandler(handler))
	require.NoError(t, err)

	req := conn.nextSent(t)
	service.HandleMessage(conn.id, responseFor(req))

	_, err = inv.Result()
	require.NoError(t, err)
	require.Equal(t, 1, service.Registry().Len())

	corrID := req.CorrelationID()

	for v := int32(1); v <= 3; v++ {
		ev := protocol.EncodeMembersViewEvent(&protocol.MembersViewEvent{Version: v})
		ev.SetCorrelationID(corrID)
		service.HandleMessage(conn.id, ev)
	}

	for v := int32(1); v <= 3; v++ {
		select {
		case got := <-events:
			require.Equal(t, v, got)
		case <-time.After(time.Second):
			t.Fatal("event was not delivered")
		}
	}

	service.Deregister(inv)
	require.Equal(t, 0, service.Registry().Len())
}

func TestService_EventWithoutHandlerDropped(t *testing.T) {
	conn := newFakeConn(1)
	service := invocation.NewService(testConfig(), &singleConnSource{conn: conn}, nil)
	defer service.Shutdown()

	ev := protocol.EncodeMembersViewEvent(&protocol.MembersViewEvent{Version: 1})
	ev.SetCorrelationID(42)

	require.NotPanics(t, func() {
		service.HandleMessage(conn.id, ev)
	})

	// The connection keeps serving requests.
	inv, err := service.Send(context.Background(), protocol.EncodePingRequest())
	require.NoError(t, err)

	service.HandleMessage(conn.id, responseFor(conn.nextSent(t)))

	_, err = inv.Result()
	require.NoError(t, err)
}

func TestService_Shutdown(t *testing.T) {
	conn := newFakeConn(1)
	service := invocation.NewService(testConfig(), &singleConnSource{conn: conn}, nil)

	inv, err := service.Send(context.Background(), protocol.EncodePingRequest())
	require.NoError(t, err)
	conn.nextSent(t)

	service.Shutdown()
	service.Shutdown()

	_, err = inv.Result()
	require.ErrorIs(t, err, errs.ErrClientNotActive)

	_, err = service.Send(context.Background(), protocol.EncodePingRequest())
	require.ErrorIs(t, err, errs.ErrClientNotActive)
}

func TestService_SmartRouting(t *testing.T) {
	ctrl := gomock.NewController(t)

	owner := mock.NewMockConnection(ctrl)
	owner.EXPECT().ID().Return(int64(5)).AnyTimes()
	owner.EXPECT().NextCorrelationID().Return(int64(1))
	owner.EXPECT().Send(gomock.Any()).Return(true)

	ownerID := uuid.New()

	partitions := mock.NewMockPartitionOwners(ctrl)
	partitions.EXPECT().Owner(int32(3)).Return(ownerID, true)

	conns := mock.NewMockConnectionSource(ctrl)
	conns.EXPECT().MemberConnection(ownerID).Return(owner, true)

	service := invocation.NewService(testConfig(), conns, partitions)
	defer service.Shutdown()

	inv, err := service.Send(context.Background(), protocol.EncodePingRequest(), invocation.OnPartition(3))
	require.NoError(t, err)

	conn, corrID := inv.Connection()
	require.Equal(t, int64(5), conn.ID())
	require.Equal(t, int64(1), corrID)
}

func TestService_SmartRoutingDisabled(t *testing.T) {
	ctrl := gomock.NewController(t)

	random := mock.NewMockConnection(ctrl)
	random.EXPECT().ID().Return(int64(9)).AnyTimes()
	random.EXPECT().NextCorrelationID().Return(int64(1))
	random.EXPECT().Send(gomock.Any()).Return(true)

	conns := mock.NewMockConnectionSource(ctrl)
	conns.EXPECT().RandomConnection().Return(random, true)

	conf := testConfig()
	conf.SmartRouting = false

	service := invocation.NewService(conf, conns, mock.NewMockPartitionOwners(ctrl))
	defer service.Shutdown()

	inv, err := service.Send(context.Background(), protocol.EncodePingRequest(), invocation.OnPartition(3))
	require.NoError(t, err)

	conn, _ := inv.Connection()
	require.Equal(t, int64(9), conn.ID())
}

func TestService_BoundConnectionNotRetried(t *testing.T) {
	conn := newFakeConn(1)
	conn.alive.Store(false)

	service := invocation.NewService(testConfig(), &singleConnSource{conn: newFakeConn(2)}, nil)
	defer service.Shutdown()

	_, err := service.InvokeOnConnection(context.Background(), protocol.EncodePingRequest(), conn)
	require.ErrorIs(t, err, errs.ErrDisconnected)
}

func TestService_ConcurrencyLimit(t *testing.T) {
	conn := newFakeConn(1)

	conf := testConfig()
	conf.MaxConcurrentInvocations = 1

	service := invocation.NewService(conf, &singleConnSource{conn: conn}, nil)
	defer service.Shutdown()

	first, err := service.Send(context.Background(), protocol.EncodePingRequest())
	require.NoError(t, err)
	req := conn.nextSent(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = service.Send(ctx, protocol.EncodePingRequest())
	require.ErrorIs(t, err, errs.ErrTimeout)

	service.HandleMessage(conn.id, responseFor(req))
	_, err = first.Result()
	require.NoError(t, err)

	second, err := service.Send(context.Background(), protocol.EncodePingRequest())
	require.NoError(t, err)
	service.HandleMessage(conn.id, responseFor(conn.nextSent(t)))

	_, err = second.Result()
	require.NoError(t, err)
}

func TestConfig_Validate(t *testing.T) {
	conf := invocation.DefaultConfig()
	require.NoError(t, conf.Validate())

	conf.EventWorkers = 0
	require.ErrorIs(t, conf.Validate(), errs.ErrConfig)
}

// lossyConn accepts only every n-th message and never answers.
type lossyConn struct {
	*fakeConn
	n     int64
	sends atomic.Int64
}

func (c *lossyConn) Send(*protocol.Message) bool {
	return c.sends.Add(1)%c.n == 0
}

func TestService_NoRegistrationLeftAfterFailure(t *testing.T) {
	conn := &lossyConn{fakeConn: newFakeConn(1), n: 50}

	conf := testConfig()
	conf.InvocationTimeout = 200 * time.Microsecond

	service := invocation.NewService(conf, &lossyConnSource{conn: conn}, nil)
	defer service.Shutdown()

	var wg sync.WaitGroup

	for i := 0; i < 3000; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			inv, err := service.Send(context.Background(), protocol.EncodePingRequest())
			if err != nil {
				return
			}

			<-inv.Done()
		}()
	}

	wg.Wait()

	require.Eventually(t, func() bool {
		return service.Registry().Len() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

type lossyConnSource struct {
	conn *lossyConn
}

func (s *lossyConnSource) MemberConnection(uuid.UUID) (invocation.Connection, bool) {
	return s.conn, true
}

func (s *lossyConnSource) RandomConnection() (invocation.Connection, bool) {
	return s.conn, true
}

func TestService_ResponsesOutOfOrder(t *testing.T) {
	conn := newFakeConn(1)
	service := invocation.NewService(testConfig(), &singleConnSource{conn: conn}, nil)
	defer service.Shutdown()

	var (
		invs []*invocation.Invocation
		reqs []*protocol.Message
	)

	for i := 0; i < 5; i++ {
		inv, err := service.Send(context.Background(), protocol.EncodePingRequest())
		require.NoError(t, err)

		invs = append(invs, inv)
		reqs = append(reqs, conn.nextSent(t))
	}

	for i := len(reqs) - 1; i >= 0; i-- {
		service.HandleMessage(conn.id, responseFor(reqs[i]))
	}

	for i, inv := range invs {
		resp, err := inv.Result()
		require.NoError(t, err)
		require.Equal(t, reqs[i].CorrelationID(), resp.CorrelationID())

		_, corrID := inv.Connection()
		require.Equal(t, corrID, resp.CorrelationID())
	}

	require.Equal(t, 0, service.Registry().Len())
}

func TestService_ShutdownFromEventHandler(t *testing.T) {
	conn := newFakeConn(1)
	service := invocation.NewService(testConfig(), &singleConnSource{conn: conn}, nil)

	stopped := make(chan struct{})
	handler := func(*protocol.Message) {
		service.Shutdown()
		close(stopped)
	}

	inv, err := service.Send(context.Background(), protocol.EncodeAddClusterViewListenerRequest(), invocation.WithEventHandler(handler))
	require.NoError(t, err)

	req := conn.nextSent(t)
	service.HandleMessage(conn.id, responseFor(req))

	_, err = inv.Result()
	require.NoError(t, err)

	ev := protocol.EncodeMembersViewEvent(&protocol.MembersViewEvent{Version: 1})
	ev.SetCorrelationID(req.CorrelationID())
	service.HandleMessage(conn.id, ev)

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown from an event handler did not return")
	}

	_, err = service.Send(context.Background(), protocol.EncodePingRequest())
	require.ErrorIs(t, err, errs.ErrClientNotActive)
}
