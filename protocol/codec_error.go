package protocol

import (
	"github.com/maxpoletaev/gridlink/errs"
)

// EncodeErrorResponse builds an error response for the given chain of server
// errors. Each error in the chain becomes one holder, the top-level error
// first.
func EncodeErrorResponse(correlationID int64, serverErr *errs.ServerError) *Message {
	msg := NewMessage(newResponseFrame(ErrorResponseType, 0))
	msg.SetCorrelationID(correlationID)

	msg.AddFrame(BeginFrame)

	for e := serverErr; e != nil; e = e.Cause {
		encodeErrorHolder(msg, e)
	}

	msg.AddFrame(EndFrame)

	return msg
}

func encodeErrorHolder(msg *Message, e *errs.ServerError) {
	msg.AddFrame(BeginFrame)

	initial := make([]byte, intSize)
	putInt32(initial, 0, e.Code)
	msg.AddFrame(NewFrame(initial))

	EncodeString(msg, e.ClassName)

	message := e.Message
	EncodeNullableString(msg, &message)

	msg.AddFrame(BeginFrame)

	for _, el := range e.StackTrace {
		msg.AddFrame(BeginFrame)

		line := make([]byte, intSize)
		putInt32(line, 0, el.LineNumber)
		msg.AddFrame(NewFrame(line))

		EncodeString(msg, el.ClassName)
		EncodeString(msg, el.MethodName)

		if el.FileName == "" {
			msg.AddFrame(NullFrame)
		} else {
			EncodeString(msg, el.FileName)
		}

		msg.AddFrame(EndFrame)
	}

	msg.AddFrame(EndFrame)
	msg.AddFrame(EndFrame)
}

// DecodeError decodes an error response into a chain of server errors. It
// returns nil if the message holds no errors.
func DecodeError(msg *Message) *errs.ServerError {
	it := msg.Iterator()
	it.Next() // initial frame
	it.Next() // begin

	var holders []*errs.ServerError

	for !NextFrameIsDataStructureEnd(it) {
		holders = append(holders, decodeErrorHolder(it))
	}

	if len(holders) == 0 {
		return nil
	}

	for i := 0; i < len(holders)-1; i++ {
		holders[i].Cause = holders[i+1]
	}

	return holders[0]
}

func decodeErrorHolder(it *FrameIterator) *errs.ServerError {
	it.Next() // begin

	code := readInt32(it.Next().Content, 0)
	className := DecodeString(it)

	var message string
	if m := DecodeNullableString(it); m != nil {
		message = *m
	}

	var stack []errs.StackTraceElement

	it.Next() // begin

	for !NextFrameIsDataStructureEnd(it) {
		it.Next() // begin

		el := errs.StackTraceElement{
			LineNumber: readInt32(it.Next().Content, 0),
			ClassName:  DecodeString(it),
			MethodName: DecodeString(it),
		}

		if fileName := DecodeNullableString(it); fileName != nil {
			el.FileName = *fileName
		}

		FastForwardToEnd(it)

		stack = append(stack, el)
	}

	it.Next() // end of stack trace
	FastForwardToEnd(it)

	return errs.NewServerError(code, className, message, stack)
}
