// Package errs defines the error taxonomy shared by the client packages.
// Every error returned to callers of the client matches one of the sentinels
// below with errors.Is, so transport-level details never leak as the only
// classification.
package errs

import (
	"github.com/maxpoletaev/gridlink/internal/baseerror"
)

var (
	// ErrClient is the root of all client errors.
	ErrClient = baseerror.New("client error")

	// ErrConfig is returned synchronously for invalid or conflicting settings.
	ErrConfig = ErrClient.New("invalid configuration")

	// ErrIO covers socket connect, TLS handshake and read/write failures.
	ErrIO = ErrClient.New("io error")

	// ErrProtocol is a violation of the wire contract. It is treated as a
	// transport error and closes the connection.
	ErrProtocol = ErrIO.New("protocol violation")

	// ErrHeartbeatTimeout is the close cause of a connection that has not
	// received anything within the heartbeat timeout.
	ErrHeartbeatTimeout = ErrIO.New("heartbeat timed out")

	// ErrConnectionClosed is returned for operations on a closed connection.
	ErrConnectionClosed = ErrIO.New("connection closed")

	// ErrDisconnected fails invocations whose connection was lost while the
	// client keeps running.
	ErrDisconnected = ErrClient.New("target disconnected")

	// ErrClientNotActive fails invocations when the client is shutting down
	// or has shut down.
	ErrClientNotActive = ErrClient.New("client is not active")

	// ErrClientOffline is returned when there is no connection to the cluster
	// and the client is trying to reconnect in the background.
	ErrClientOffline = ErrClient.New("client is offline")

	// ErrTimeout is returned when an invocation or a cluster connect attempt
	// exceeds its deadline.
	ErrTimeout = ErrClient.New("operation timed out")

	// ErrAuthentication is the parent of all authentication outcomes.
	ErrAuthentication = ErrClient.New("authentication failed")

	// ErrCredentialsFailed means the cluster rejected the credentials.
	ErrCredentialsFailed = ErrAuthentication.New("invalid credentials")

	// ErrNotAllowedInCluster means the member refuses this client, or the
	// cluster is not compatible with the state the client already holds.
	ErrNotAllowedInCluster = ErrAuthentication.New("client is not allowed in the cluster")

	// ErrSerializationMismatch means client and member disagree on the
	// serialization version.
	ErrSerializationMismatch = ErrAuthentication.New("serialization version mismatch")

	// ErrAuthenticationUnknown is an authentication status this client does
	// not recognize.
	ErrAuthenticationUnknown = ErrAuthentication.New("unknown authentication status")

	// ErrIllegalState is returned for calls made in a state that does not
	// allow them.
	ErrIllegalState = ErrClient.New("illegal state")

	// ErrNoHandler is logged when an event arrives for a subscription that
	// is no longer registered.
	ErrNoHandler = ErrClient.New("no handler for event")

	// ErrServer is the parent of errors decoded from member responses.
	ErrServer = ErrClient.New("server error")

	// ErrRetryable marks server errors that are safe to resend.
	ErrRetryable = ErrServer.New("retryable server error")

	// ErrTargetNotMember is returned when the target member has left.
	ErrTargetNotMember = ErrRetryable.New("target is not a member")

	// ErrInstanceNotActive is returned by members that are shutting down.
	ErrInstanceNotActive = ErrRetryable.New("instance not active")
)
