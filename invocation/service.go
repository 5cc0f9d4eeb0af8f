package invocation

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/maxpoletaev/gridlink/errs"
	"github.com/maxpoletaev/gridlink/internal/metrics"
	"github.com/maxpoletaev/gridlink/protocol"
)

// Attempts sent without a pause before the retry delay starts growing.
const fastAttempts = 5

type Config struct {
	// InvocationTimeout bounds an invocation, including all its retries,
	// unless the caller context has an earlier deadline.
	InvocationTimeout time.Duration
	// RetryPause is the upper bound of the delay between attempts.
	RetryPause time.Duration
	// MaxAttempts bounds the number of attempts across reconnections. Zero
	// leaves the invocation timeout as the only bound.
	MaxAttempts int
	// RedoOperation allows resending requests that are not marked retryable
	// after a connection loss. Such requests may be executed twice.
	RedoOperation bool
	// SmartRouting sends partition-bound requests to the partition owner.
	SmartRouting bool
	// MaxConcurrentInvocations limits the number of invocations in flight.
	// Zero means unlimited.
	MaxConcurrentInvocations int64
	// EventWorkers is the number of goroutines that run event handlers.
	EventWorkers int
	// EventQueueSize is the per-worker queue length.
	EventQueueSize int

	Logger     log.Logger
	Metrics    *metrics.Metrics
	Clock      clock.Clock
	Translator ErrorTranslator
}

func DefaultConfig() Config {
	return Config{
		InvocationTimeout: 120 * time.Second,
		RetryPause:        time.Second,
		MaxAttempts:       100,
		SmartRouting:      true,
		EventWorkers:      8,
		EventQueueSize:    1024,
		Logger:            log.NewNopLogger(),
		Metrics:           metrics.New(nil),
		Clock:             clock.New(),
		Translator:        ServerErrorTranslator{},
	}
}

func (c *Config) Validate() error {
	switch {
	case c.InvocationTimeout <= 0:
		return errs.ErrConfig.Wrap(fmt.Errorf("invocation timeout must be positive"))
	case c.RetryPause < 0:
		return errs.ErrConfig.Wrap(fmt.Errorf("retry pause must not be negative"))
	case c.MaxAttempts < 0:
		return errs.ErrConfig.Wrap(fmt.Errorf("max attempts must not be negative"))
	case c.MaxConcurrentInvocations < 0:
		return errs.ErrConfig.Wrap(fmt.Errorf("max concurrent invocations must not be negative"))
	case c.EventWorkers <= 0:
		return errs.ErrConfig.Wrap(fmt.Errorf("event workers must be positive"))
	}

	return nil
}

type InvokeOption func(*Invocation)

// OnPartition routes the request to the owner of the partition and stamps
// the partition id into the request.
func OnPartition(partitionID int32) InvokeOption {
	return func(inv *Invocation) {
		inv.partitionID = partitionID
	}
}

// OnMember routes the request to the given member. The invocation is not
// retried once the member leaves the cluster.
func OnMember(id uuid.UUID) InvokeOption {
	return func(inv *Invocation) {
		inv.member = id
	}
}

// OnConnection sends the request over the given connection only. Such
// invocations are never retried.
func OnConnection(conn Connection) InvokeOption {
	return func(inv *Invocation) {
		inv.conn = conn
	}
}

// WithEventHandler keeps the invocation registered after its response, and
// passes every event with its correlation id to the handler.
func WithEventHandler(h EventHandler) InvokeOption {
	return func(inv *Invocation) {
		inv.handler = h
	}
}

// Service sends requests to the cluster and matches responses and events to
// them by correlation id.
type Service struct {
	conf       Config
	registry   *Registry
	conns      ConnectionSource
	partitions PartitionOwners
	events     *eventDispatcher
	sem        *semaphore.Weighted
	active     atomic.Bool
	logger     log.Logger
	metrics    *metrics.Metrics
	clock      clock.Clock
}

func NewService(conf Config, conns ConnectionSource, partitions PartitionOwners) *Service {
	s := &Service{
		conf:       conf,
		registry:   NewRegistry(),
		conns:      conns,
		partitions: partitions,
		logger:     conf.Logger,
		metrics:    conf.Metrics,
		clock:      conf.Clock,
		events:     newEventDispatcher(conf.EventWorkers, conf.EventQueueSize, conf.Logger),
	}

	if conf.MaxConcurrentInvocations > 0 {
		s.sem = semaphore.NewWeighted(conf.MaxConcurrentInvocations)
	}

	s.active.Store(true)

	return s
}

// Registry exposes the invocations in flight.
func (s *Service) Registry() *Registry {
	return s.registry
}

// Send starts an invocation and returns its future. The context bounds the
// invocation: when it is done, the invocation fails. It is also used to wait
// for a free slot when the number of concurrent invocations is limited.
func (s *Service) Send(ctx context.Context, request *protocol.Message, opts ...InvokeOption) (*Invocation, error) {
	if !s.active.Load() {
		return nil, errs.ErrClientNotActive
	}

	inv := newInvocation(request)
	for _, opt := range opts {
		opt(inv)
	}

	if s.sem != nil {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			return nil, errs.ErrTimeout.Wrap(fmt.Errorf("waiting for invocation slot: %w", err))
		}

		inv.onDone(func() { s.sem.Release(1) })
	}

	start := s.clock.Now()

	inv.deadline = start.Add(s.conf.InvocationTimeout)
	if deadline, ok := ctx.Deadline(); ok && deadline.Before(inv.deadline) {
		inv.deadline = deadline
	}

	s.metrics.InvocationsPending.Inc()

	inv.onDone(func() {
		s.metrics.InvocationsPending.Dec()
		s.metrics.InvocationDuration.Observe(s.clock.Since(start).Seconds())
	})

	timer := s.clock.AfterFunc(inv.deadline.Sub(start), func() {
		s.expire(inv)
	})

	inv.onDone(func() { timer.Stop() })

	stop := context.AfterFunc(ctx, func() {
		s.cancel(inv, ctx.Err())
	})

	inv.onDone(func() { stop() })

	s.attempt(inv)

	return inv, nil
}

// Invoke sends the request and waits for the response.
func (s *Service) Invoke(ctx context.Context, request *protocol.Message, opts ...InvokeOption) (*protocol.Message, error) {
	inv, err := s.Send(ctx, request, opts...)
	if err != nil {
		return nil, err
	}

	return inv.Result()
}

// InvokeOnPartition sends the request to the owner of the partition.
func (s *Service) InvokeOnPartition(ctx context.Context, request *protocol.Message, partitionID int32) (*protocol.Message, error) {
	return s.Invoke(ctx, request, OnPartition(partitionID))
}

// InvokeOnMember sends the request to the given member.
func (s *Service) InvokeOnMember(ctx context.Context, request *protocol.Message, member uuid.UUID) (*protocol.Message, error) {
	return s.Invoke(ctx, request, OnMember(member))
}

// InvokeOnConnection sends the request over the given connection.
func (s *Service) InvokeOnConnection(ctx context.Context, request *protocol.Message, conn Connection) (*protocol.Message, error) {
	return s.Invoke(ctx, request, OnConnection(conn))
}

// InvokeWithHandler sends a subscription request and keeps the handler
// registered for the events that follow the response. The returned
// invocation identifies the subscription for Deregister.
func (s *Service) InvokeWithHandler(ctx context.Context, request *protocol.Message, handler EventHandler, opts ...InvokeOption) (*Invocation, *protocol.Message, error) {
	inv, err := s.Send(ctx, request, append(opts, WithEventHandler(handler))...)
	if err != nil {
		return nil, nil, err
	}

	resp, err := inv.Result()
	if err != nil {
		return nil, nil, err
	}

	return inv, resp, nil
}

// Deregister stops delivering events to the handler of the invocation.
func (s *Service) Deregister(inv *Invocation) {
	s.unregister(inv)
}

func (s *Service) attempt(inv *Invocation) {
	if inv.IsDone() {
		return
	}

	if !s.active.Load() {
		s.fail(inv, errs.ErrClientNotActive)
		return
	}

	inv.attempts.Add(1)

	conn, err := s.route(inv)
	if err != nil {
		s.handleFailure(inv, err)
		return
	}

	correlationID := conn.NextCorrelationID()

	msg := inv.request.Copy()
	msg.SetCorrelationID(correlationID)

	if inv.partitionID >= 0 {
		msg.SetPartitionID(inv.partitionID)
	}

	inv.bind(conn, correlationID)
	s.registry.Register(conn.ID(), correlationID, inv)

	// Failed while registering, the fail path may have missed this entry.
	if inv.IsDone() {
		s.registry.Remove(conn.ID(), correlationID)
		return
	}

	if !conn.Send(msg) {
		if _, ok := s.registry.Remove(conn.ID(), correlationID); ok {
			s.handleFailure(inv, errs.ErrDisconnected.Wrap(fmt.Errorf("connection %d is closed", conn.ID())))
		}
	}
}

func (s *Service) route(inv *Invocation) (Connection, error) {
	if inv.conn != nil {
		if !inv.conn.IsAlive() {
			return nil, errs.ErrDisconnected.Wrap(fmt.Errorf("connection %d is closed", inv.conn.ID()))
		}

		return inv.conn, nil
	}

	if inv.member != uuid.Nil {
		if conn, ok := s.conns.MemberConnection(inv.member); ok {
			return conn, nil
		}

		return nil, errs.ErrDisconnected.Wrap(fmt.Errorf("no connection to member %s", inv.member))
	}

	if s.conf.SmartRouting && inv.partitionID >= 0 && s.partitions != nil {
		if owner, ok := s.partitions.Owner(inv.partitionID); ok {
			if conn, ok := s.conns.MemberConnection(owner); ok {
				return conn, nil
			}
		}
	}

	if conn, ok := s.conns.RandomConnection(); ok {
		return conn, nil
	}

	return nil, errs.ErrClientOffline.Wrap(fmt.Errorf("no connection to the cluster"))
}

func (s *Service) shouldRetry(inv *Invocation, err error) bool {
	if !s.active.Load() || errors.Is(err, errs.ErrClientNotActive) {
		return false
	}

	// Bound to a connection that is gone.
	if inv.conn != nil {
		return false
	}

	if errors.Is(err, errs.ErrTargetNotMember) && inv.member != uuid.Nil {
		return false
	}

	if errors.Is(err, errs.ErrRetryable) {
		return true
	}

	if errors.Is(err, errs.ErrDisconnected) || errors.Is(err, errs.ErrIO) || errors.Is(err, errs.ErrClientOffline) {
		return inv.request.Retryable || s.conf.RedoOperation
	}

	return false
}

// retryDelay is zero for the first few attempts, then doubles up to the
// retry pause.
func (s *Service) retryDelay(inv *Invocation) time.Duration {
	n := inv.Attempts()
	if n < fastAttempts {
		return 0
	}

	shift := n - fastAttempts
	if shift > 30 {
		return s.conf.RetryPause
	}

	delay := time.Duration(1<<shift) * time.Millisecond
	if delay > s.conf.RetryPause {
		delay = s.conf.RetryPause
	}

	return delay
}

func (s *Service) handleFailure(inv *Invocation, err error) {
	if inv.IsDone() {
		return
	}

	if !s.shouldRetry(inv, err) {
		s.fail(inv, err)
		return
	}

	if limit := s.conf.MaxAttempts; limit > 0 && inv.Attempts() >= limit {
		s.fail(inv, fmt.Errorf("gave up after %d attempts: %w", inv.Attempts(), err))
		return
	}

	delay := s.retryDelay(inv)

	if s.clock.Now().Add(delay).After(inv.deadline) {
		s.fail(inv, errs.ErrTimeout.Wrap(fmt.Errorf("no time left to retry: %w", err)))
		return
	}

	s.metrics.InvocationRetries.Inc()

	level.Debug(s.logger).Log(
		"msg", "retrying invocation",
		"request", inv.request,
		"attempt", inv.Attempts(),
		"delay", delay,
		"err", err,
	)

	if delay == 0 {
		go s.attempt(inv)
		return
	}

	s.clock.AfterFunc(delay, func() {
		s.attempt(inv)
	})
}

func (s *Service) fail(inv *Invocation, err error) {
	if inv.IsDone() {
		return
	}

	if !inv.Fail(err) {
		return
	}

	// Unregistered after resolving, so that a concurrent attempt either
	// sees the invocation done or is bound before this lookup.
	s.unregister(inv)

	if errors.Is(err, errs.ErrTimeout) {
		s.metrics.InvocationsTotal.WithLabelValues(metrics.OutcomeTimeout).Inc()
		return
	}

	s.metrics.InvocationsTotal.WithLabelValues(metrics.OutcomeError).Inc()
}

func (s *Service) unregister(inv *Invocation) {
	if conn, correlationID := inv.Connection(); conn != nil {
		s.registry.Remove(conn.ID(), correlationID)
	}
}

func (s *Service) expire(inv *Invocation) {
	s.fail(inv, errs.ErrTimeout.Wrap(fmt.Errorf("invocation timed out after %d attempts", inv.Attempts())))
}

func (s *Service) cancel(inv *Invocation, cause error) {
	if errors.Is(cause, context.DeadlineExceeded) {
		s.expire(inv)
		return
	}

	s.fail(inv, cause)
}

// HandleMessage is the message handler of every connection. Responses
// resolve their invocations, events go to the registered handlers.
func (s *Service) HandleMessage(connID int64, msg *protocol.Message) {
	correlationID := msg.CorrelationID()

	if msg.IsEvent() {
		s.handleEvent(connID, correlationID, msg)
		return
	}

	if msg.Type() == protocol.ErrorResponseType {
		inv, ok := s.registry.Remove(connID, correlationID)
		if !ok {
			level.Debug(s.logger).Log("msg", "error response for unknown invocation", "conn_id", connID, "correlation_id", correlationID)
			return
		}

		s.handleFailure(inv, s.conf.Translator.Translate(msg))

		return
	}

	inv, ok := s.registry.Get(connID, correlationID)
	if ok && inv.handler == nil {
		inv, ok = s.registry.Remove(connID, correlationID)
	}

	if !ok {
		level.Debug(s.logger).Log("msg", "response for unknown invocation", "conn_id", connID, "correlation_id", correlationID)
		return
	}

	if inv.Complete(msg) {
		s.metrics.InvocationsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	}
}

func (s *Service) handleEvent(connID, correlationID int64, msg *protocol.Message) {
	inv, ok := s.registry.Get(connID, correlationID)
	if !ok || inv.handler == nil {
		s.metrics.EventsUnhandled.Inc()

		level.Warn(s.logger).Log(
			"msg", "dropping event",
			"conn_id", connID,
			"correlation_id", correlationID,
			"type", msg.Type(),
			"err", errs.ErrNoHandler,
		)

		return
	}

	if s.events.dispatch(correlationID, func() { inv.handler(msg) }) {
		s.metrics.EventsDispatched.Inc()
	}
}

// ConnectionClosed fails or retries every invocation waiting on the
// connection.
func (s *Service) ConnectionClosed(connID int64, cause error) {
	for _, inv := range s.registry.RemoveConnection(connID) {
		if inv.IsDone() {
			continue
		}

		if !s.active.Load() {
			s.fail(inv, errs.ErrClientNotActive)
			continue
		}

		s.handleFailure(inv, errs.ErrDisconnected.Wrap(cause))
	}
}

// Shutdown fails all pending invocations with errs.ErrClientNotActive and
// rejects new ones. Queued events are dropped, and handlers that are already
// running are not waited for, so it may be called from an event handler.
// It is idempotent.
func (s *Service) Shutdown() {
	if !s.active.CompareAndSwap(true, false) {
		return
	}

	for _, inv := range s.registry.RemoveAll() {
		s.fail(inv, errs.ErrClientNotActive)
	}

	s.events.close()
}
