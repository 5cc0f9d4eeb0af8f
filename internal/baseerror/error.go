package baseerror

// Error is a sentinel error that may have a parent. errors.Is(child, parent)
// holds for every error created with parent.New.
type Error struct {
	parent error
	msg    string
}

func New(msg string) *Error {
	return &Error{msg: msg}
}

func (err *Error) New(msg string) *Error {
	return &Error{
		parent: err,
		msg:    msg,
	}
}

func (err *Error) Error() string {
	return err.msg
}

func (err *Error) Unwrap() error {
	return err.parent
}

// Wrap attaches a cause to the sentinel. The result matches both the sentinel
// (and its parents) and the cause with errors.Is.
func (err *Error) Wrap(cause error) error {
	if cause == nil {
		return err
	}

	return &wrapped{kind: err, cause: cause}
}

type wrapped struct {
	kind  *Error
	cause error
}

func (w *wrapped) Error() string {
	return w.kind.msg + ": " + w.cause.Error()
}

func (w *wrapped) Unwrap() []error {
	return []error{w.kind, w.cause}
}
