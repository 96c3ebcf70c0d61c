package modem

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoDialer is returned when a Modem is constructed without a Dialer.
	//
	// This indicates a configuration error. A Dialer is required in order to
	// establish a connection to the modem.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrNotInitialized is returned when the Dialer hands back no Transport.
	ErrNotInitialized = errors.New("modem not initialized")

	// ErrAlreadyClosed is returned when Close is called on a Modem that has
	// already been closed, and by commands issued after Close.
	ErrAlreadyClosed = errors.New("modem already closed")

	// ErrClosed is returned to commands still waiting when the session
	// stops without a transport failure.
	ErrClosed = errors.New("modem session stopped")

	// ErrSIMPinRequired is returned when the SIM card requires a PIN and no
	// PIN was provided in the Config.
	//
	// Callers may handle this error specially (for example, by prompting
	// the user for a PIN) and retry initialization.
	ErrSIMPinRequired = errors.New("SIM PIN required")

	// ErrLineTooLong is returned when a modem response line exceeds the
	// maximum allowed length.
	//
	// This typically indicates malformed input, unexpected binary data,
	// or a protocol framing error.
	ErrLineTooLong = errors.New("response line too long")

	// ErrNoResponse is returned when a command sees its whole budget of
	// consecutive read timeouts without a final result line. The session
	// stays usable.
	ErrNoResponse = errors.New("no response from modem")

	// ErrCommandRejected matches every *CommandRejectedError.
	ErrCommandRejected = errors.New("command rejected")

	// ErrModuleNotReady is returned by New when the readiness probe never
	// succeeds. No setup command has been sent at that point.
	ErrModuleNotReady = errors.New("module not ready")
)

// CommandRejectedError reports a command answered with ERROR, +CME ERROR or
// +CMS ERROR. Lines holds whatever intermediate output arrived before it.
type CommandRejectedError struct {
	Command string
	Status  string
	Lines   []string
}

func (e *CommandRejectedError) Error() string {
	if len(e.Lines) == 0 {
		return fmt.Sprintf("%s: %s", e.Command, e.Status)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Command, e.Status, strings.Join(e.Lines, "; "))
}

func (e *CommandRejectedError) Is(target error) bool {
	return target == ErrCommandRejected
}

// TransportError wraps a failed read or write on the Transport. It is fatal
// to the session.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
