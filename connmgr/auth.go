package connmgr

import (
	"context"
	"fmt"

	"github.com/maxpoletaev/gridlink/cluster"
	"github.com/maxpoletaev/gridlink/connection"
	"github.com/maxpoletaev/gridlink/errs"
	"github.com/maxpoletaev/gridlink/invocation"
	"github.com/maxpoletaev/gridlink/protocol"
)

// Authenticator puts the client credentials into an authentication request.
type Authenticator interface {
	Prepare(req *protocol.AuthenticationRequest)
}

// PasswordAuthenticator sends a username and a password. Empty values are
// sent as nulls, which is what a cluster without security expects.
type PasswordAuthenticator struct {
	Username string
	Password string
}

func (a PasswordAuthenticator) Prepare(req *protocol.AuthenticationRequest) {
	if a.Username != "" {
		req.Username = &a.Username
	}

	if a.Password != "" {
		req.Password = &a.Password
	}
}

// TokenAuthenticator sends an opaque token, such as a Kerberos ticket or a
// JWT, using the custom credentials request.
type TokenAuthenticator struct {
	Token []byte
}

func (a TokenAuthenticator) Prepare(req *protocol.AuthenticationRequest) {
	req.Token = a.Token
}

func (m *Manager) authRequest() *protocol.AuthenticationRequest {
	req := &protocol.AuthenticationRequest{
		ClusterName:          m.conf.ClusterName,
		ClientUUID:           m.conf.ClientUUID,
		ClientType:           clientType,
		SerializationVersion: serializationVersion,
		ClientVersion:        m.conf.ClientVersion,
		ClientName:           m.conf.ClientName,
		Labels:               m.conf.Labels,
	}

	m.conf.Authenticator.Prepare(req)

	return req
}

// authenticate sends the authentication request over a fresh connection and
// classifies the response. The caller closes the connection on error.
func (m *Manager) authenticate(ctx context.Context, conn *connection.Conn) (*protocol.AuthenticationResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, m.conf.Connection.ConnectTimeout)
	defer cancel()

	req := protocol.EncodeAuthenticationRequest(m.authRequest())

	inv, err := m.invoker.Send(ctx, req, invocation.OnConnection(conn))
	if err != nil {
		return nil, err
	}

	msg, err := inv.Result()
	if err != nil {
		return nil, fmt.Errorf("authentication request: %w", err)
	}

	resp := protocol.DecodeAuthenticationResponse(msg)

	if resp.Status != protocol.StatusAuthenticated {
		m.metrics.AuthFailures.WithLabelValues(resp.Status.String()).Inc()
	}

	switch resp.Status {
	case protocol.StatusAuthenticated:
		return resp, nil
	case protocol.StatusCredentialsFailed:
		return nil, errs.ErrCredentialsFailed
	case protocol.StatusNotAllowedInCluster:
		return nil, errs.ErrNotAllowedInCluster
	case protocol.StatusSerializationVersionMismatch:
		return nil, errs.ErrSerializationMismatch
	default:
		return nil, errs.ErrAuthenticationUnknown.Wrap(fmt.Errorf("status %d", resp.Status))
	}
}

func memberAddress(info *protocol.AddressInfo, fallback cluster.Address) cluster.Address {
	if info == nil {
		return fallback
	}

	return cluster.NewAddress(info.Host, int(info.Port))
}
