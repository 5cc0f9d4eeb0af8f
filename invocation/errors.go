package invocation

import (
	"fmt"

	"github.com/maxpoletaev/gridlink/errs"
	"github.com/maxpoletaev/gridlink/protocol"
)

// ServerErrorTranslator decodes error responses into *errs.ServerError.
type ServerErrorTranslator struct{}

func (ServerErrorTranslator) Translate(msg *protocol.Message) error {
	serverErr := protocol.DecodeError(msg)
	if serverErr == nil {
		return errs.ErrServer.Wrap(fmt.Errorf("empty error response"))
	}

	return serverErr
}
