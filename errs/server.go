package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes reported by members in error responses.
const (
	CodeUndefined             int32 = 0
	CodeAuthentication        int32 = 3
	CodeCallerNotMember       int32 = 8
	CodeDistributedObjectGone int32 = 14
	CodeInstanceNotActive     int32 = 19
	CodeOverload              int32 = 20
	CodeSerialization         int32 = 21
	CodeIllegalArgument       int32 = 23
	CodeIllegalState          int32 = 27
	CodeInvalidConfiguration  int32 = 32
	CodeMemberLeft            int32 = 33
	CodeOperationTimeout      int32 = 38
	CodePartitionMigrating    int32 = 39
	CodeQuery                 int32 = 40
	CodeRetryable             int32 = 46
	CodeRetryableIO           int32 = 47
	CodeSecurity              int32 = 49
	CodeTargetDisconnected    int32 = 52
	CodeTargetNotMember       int32 = 53
	CodeTimeout               int32 = 54
	CodeUnsupportedOperation  int32 = 61
	CodeWrongTarget           int32 = 62
	CodeAccessControl         int32 = 64
	CodeNoDataMember          int32 = 67
	CodeLocalMemberReset      int32 = 79
	CodeTargetNotReplica      int32 = 82
	CodeCannotReplicate       int32 = 90
	CodeStaleAppendRequest    int32 = 92
	CodeNotLeader             int32 = 93
	CodeHazelcastSQL          int32 = 99
)

// StackTraceElement is one frame of a remote stack trace.
type StackTraceElement struct {
	ClassName  string
	MethodName string
	FileName   string
	LineNumber int32
}

func (e StackTraceElement) String() string {
	return fmt.Sprintf("%s.%s(%s:%d)", e.ClassName, e.MethodName, e.FileName, e.LineNumber)
}

// ServerError is an error decoded from a member response. The first element
// of a response error list is the top-level error, the rest are its causes.
type ServerError struct {
	Code       int32
	ClassName  string
	Message    string
	StackTrace []StackTraceElement
	Cause      *ServerError
	kind       error
}

// NewServerError builds a ServerError classified by its code.
func NewServerError(code int32, className, message string, stackTrace []StackTraceElement) *ServerError {
	return &ServerError{
		Code:       code,
		ClassName:  className,
		Message:    message,
		StackTrace: stackTrace,
		kind:       KindOf(code),
	}
}

func (e *ServerError) Error() string {
	var sb strings.Builder

	sb.WriteString(e.ClassName)

	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}

	return sb.String()
}

// Unwrap exposes the classification sentinel and the remote cause.
func (e *ServerError) Unwrap() []error {
	errs := []error{e.kind}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}

	return errs
}

// Retryable reports whether the request may be resent to the cluster.
func (e *ServerError) Retryable() bool {
	return errors.Is(e.kind, ErrRetryable)
}

var (
	errServerIllegalState   = ErrServer.New("illegal state")
	errServerIllegalArg     = ErrServer.New("illegal argument")
	errServerTimeout        = ErrServer.New("operation timeout")
	errServerSerialization  = ErrServer.New("serialization failure")
	errServerSecurity       = ErrServer.New("access denied")
	errServerUnsupported    = ErrServer.New("unsupported operation")
	errServerQuery          = ErrServer.New("query failed")
	errRetryableMigrating   = ErrRetryable.New("partition migrating")
	errRetryableWrongTarget = ErrRetryable.New("wrong target")
	errRetryableIO          = ErrRetryable.New("retryable io")
	errRetryableMemberLeft  = ErrRetryable.New("member left")
	errRetryableNotLeader   = ErrRetryable.New("not leader")
	errRetryableCannotRepl  = ErrRetryable.New("cannot replicate")
	errRetryableNotReplica  = ErrRetryable.New("target not replica")
	errRetryableNoDataMem   = ErrRetryable.New("no data member")
	errRetryableCallerNotM  = ErrRetryable.New("caller not member")
	errRetryableOverload    = ErrRetryable.New("overloaded")
	errRetryableLocalReset  = ErrRetryable.New("local member reset")
	errRetryableStaleAppend = ErrRetryable.New("stale append request")
)

var kinds = map[int32]error{
	CodeAuthentication:        ErrAuthentication,
	CodeCallerNotMember:       errRetryableCallerNotM,
	CodeInstanceNotActive:     ErrInstanceNotActive,
	CodeSerialization:         errServerSerialization,
	CodeIllegalArgument:       errServerIllegalArg,
	CodeIllegalState:          errServerIllegalState,
	CodeMemberLeft:            errRetryableMemberLeft,
	CodeOperationTimeout:      errServerTimeout,
	CodePartitionMigrating:    errRetryableMigrating,
	CodeQuery:                 errServerQuery,
	CodeRetryable:             ErrRetryable,
	CodeRetryableIO:           errRetryableIO,
	CodeSecurity:              errServerSecurity,
	CodeAccessControl:         errServerSecurity,
	CodeTargetDisconnected:    ErrDisconnected,
	CodeTargetNotMember:       ErrTargetNotMember,
	CodeUnsupportedOperation:  errServerUnsupported,
	CodeWrongTarget:           errRetryableWrongTarget,
	CodeTargetNotReplica:      errRetryableNotReplica,
	CodeCannotReplicate:       errRetryableCannotRepl,
	CodeNotLeader:             errRetryableNotLeader,
	CodeNoDataMember:          errRetryableNoDataMem,
	CodeOverload:              errRetryableOverload,
	CodeLocalMemberReset:      errRetryableLocalReset,
	CodeStaleAppendRequest:    errRetryableStaleAppend,
	CodeTimeout:               ErrTimeout,
	CodeHazelcastSQL:          errServerQuery,
	CodeInvalidConfiguration:  ErrConfig,
	CodeDistributedObjectGone: errServerIllegalState,
}

// KindOf returns the sentinel that classifies a member error code. Unknown
// codes are classified as ErrServer.
func KindOf(code int32) error {
	if kind, ok := kinds[code]; ok {
		return kind
	}

	return ErrServer
}
