package domain

import "errors"

// PermanentError marks a failure that retrying cannot fix, such as a
// missing summary log or a submission attempted out of status. The job
// dispatcher treats it as terminal.
type PermanentError struct {
	msg string
	err error
}

// NewPermanentError wraps err as non-retryable with a describing message.
// err may be nil when the message stands alone.
func NewPermanentError(msg string, err error) *PermanentError {
	return &PermanentError{msg: msg, err: err}
}

func (e *PermanentError) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *PermanentError) Unwrap() error {
	return e.err
}

// IsPermanent reports whether err carries a PermanentError anywhere in its
// chain.
func IsPermanent(err error) bool {
	var permanent *PermanentError
	return errors.As(err, &permanent)
}
