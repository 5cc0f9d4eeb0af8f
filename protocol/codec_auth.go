package protocol

import (
	"github.com/google/uuid"
)

const (
	AuthenticationRequestType        int32 = 0x000100
	AuthenticationResponseType       int32 = 0x000101
	AuthenticationCustomRequestType  int32 = 0x000200
	AuthenticationCustomResponseType int32 = 0x000201
)

// Offsets of the fixed-size fields of authentication messages.
const (
	authRequestUUIDOffset          = RequestInitialFrameSize
	authRequestSerializationOffset = authRequestUUIDOffset + uuidSize
	authRequestInitialFrameSize    = authRequestSerializationOffset + byteSize

	authResponseStatusOffset         = ResponseInitialFrameSize
	authResponseMemberUUIDOffset     = authResponseStatusOffset + byteSize
	authResponseSerializationOffset  = authResponseMemberUUIDOffset + uuidSize
	authResponsePartitionCountOffset = authResponseSerializationOffset + byteSize
	authResponseClusterIDOffset      = authResponsePartitionCountOffset + intSize
	authResponseFailoverOffset       = authResponseClusterIDOffset + uuidSize
	authResponseInitialFrameSize     = authResponseFailoverOffset + boolSize
)

// AuthenticationStatus is the outcome reported by the member.
type AuthenticationStatus uint8

const (
	StatusAuthenticated                AuthenticationStatus = 0
	StatusCredentialsFailed            AuthenticationStatus = 1
	StatusSerializationVersionMismatch AuthenticationStatus = 2
	StatusNotAllowedInCluster          AuthenticationStatus = 3
)

func (s AuthenticationStatus) String() string {
	switch s {
	case StatusAuthenticated:
		return "authenticated"
	case StatusCredentialsFailed:
		return "credentials_failed"
	case StatusSerializationVersionMismatch:
		return "serialization_version_mismatch"
	case StatusNotAllowedInCluster:
		return "not_allowed_in_cluster"
	default:
		return "unknown"
	}
}

// AuthenticationRequest is sent right after the preamble. When Token is set,
// the custom credentials variant is used and Username and Password are
// ignored.
type AuthenticationRequest struct {
	ClusterName          string
	Username             *string
	Password             *string
	Token                []byte
	ClientUUID           uuid.UUID
	ClientType           string
	SerializationVersion uint8
	ClientVersion        string
	ClientName           string
	Labels               []string
}

func EncodeAuthenticationRequest(req *AuthenticationRequest) *Message {
	messageType := AuthenticationRequestType
	if req.Token != nil {
		messageType = AuthenticationCustomRequestType
	}

	initial := newInitialFrame(messageType, authRequestInitialFrameSize-RequestInitialFrameSize)
	putUUID(initial.Content, authRequestUUIDOffset, req.ClientUUID)
	initial.Content[authRequestSerializationOffset] = req.SerializationVersion

	msg := NewMessage(initial)
	msg.Retryable = true

	EncodeString(msg, req.ClusterName)

	if req.Token != nil {
		EncodeBytes(msg, req.Token)
	} else {
		EncodeNullableString(msg, req.Username)
		EncodeNullableString(msg, req.Password)
	}

	EncodeString(msg, req.ClientType)
	EncodeString(msg, req.ClientVersion)
	EncodeString(msg, req.ClientName)
	EncodeStringList(msg, req.Labels)

	return msg
}

func DecodeAuthenticationRequest(msg *Message) *AuthenticationRequest {
	it := msg.Iterator()
	initial := it.Next()

	req := &AuthenticationRequest{
		ClientUUID:           readUUID(initial.Content, authRequestUUIDOffset),
		SerializationVersion: readUint8(initial.Content, authRequestSerializationOffset),
	}

	req.ClusterName = DecodeString(it)

	if msg.Type() == AuthenticationCustomRequestType {
		req.Token = DecodeBytes(it)
	} else {
		req.Username = DecodeNullableString(it)
		req.Password = DecodeNullableString(it)
	}

	req.ClientType = DecodeString(it)
	req.ClientVersion = DecodeString(it)
	req.ClientName = DecodeString(it)
	req.Labels = DecodeStringList(it)

	return req
}

// AuthenticationResponse is the member's answer to an authentication request.
type AuthenticationResponse struct {
	Status               AuthenticationStatus
	Address              *AddressInfo
	MemberUUID           uuid.UUID
	SerializationVersion uint8
	ServerVersion        string
	PartitionCount       int32
	ClusterID            uuid.UUID
	FailoverSupported    bool
}

func EncodeAuthenticationResponse(resp *AuthenticationResponse) *Message {
	initial := newResponseFrame(AuthenticationResponseType, authResponseInitialFrameSize-ResponseInitialFrameSize)
	initial.Content[authResponseStatusOffset] = byte(resp.Status)
	putUUID(initial.Content, authResponseMemberUUIDOffset, resp.MemberUUID)
	initial.Content[authResponseSerializationOffset] = resp.SerializationVersion
	putInt32(initial.Content, authResponsePartitionCountOffset, resp.PartitionCount)
	putUUID(initial.Content, authResponseClusterIDOffset, resp.ClusterID)
	putBool(initial.Content, authResponseFailoverOffset, resp.FailoverSupported)

	msg := NewMessage(initial)
	EncodeNullableAddress(msg, resp.Address)
	EncodeString(msg, resp.ServerVersion)

	return msg
}

func DecodeAuthenticationResponse(msg *Message) *AuthenticationResponse {
	it := msg.Iterator()
	initial := it.Next()

	resp := &AuthenticationResponse{
		Status:               AuthenticationStatus(readUint8(initial.Content, authResponseStatusOffset)),
		MemberUUID:           readUUID(initial.Content, authResponseMemberUUIDOffset),
		SerializationVersion: readUint8(initial.Content, authResponseSerializationOffset),
		PartitionCount:       readInt32(initial.Content, authResponsePartitionCountOffset),
		ClusterID:            readUUID(initial.Content, authResponseClusterIDOffset),
		FailoverSupported:    readBool(initial.Content, authResponseFailoverOffset),
	}

	resp.Address = DecodeNullableAddress(it)
	resp.ServerVersion = DecodeString(it)

	return resp
}
