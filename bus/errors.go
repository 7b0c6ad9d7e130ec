package bus

import "errors"

var (
	// ErrNoChannel means the descriptor does not name an open channel, or
	// the channel was closed while the call was waiting on it.
	ErrNoChannel = errors.New("bus: no such channel")
	// ErrWouldBlock means a non-blocking call could not make progress.
	ErrWouldBlock = errors.New("bus: operation would block")
	// ErrNotImplemented is reserved for operations a build leaves out.
	ErrNotImplemented = errors.New("bus: not implemented")
)
