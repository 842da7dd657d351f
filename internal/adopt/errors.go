package adopt

import (
	"errors"
	"strings"
)

// ErrorKind classifies where a session failed
type ErrorKind string

const (
	KindConnection     ErrorKind = "connection"
	KindAuthentication ErrorKind = "authentication"
	KindProtocol       ErrorKind = "protocol"
)

var (
	// ErrConnection matches failures to reach the device
	ErrConnection = errors.New("connection failed")
	// ErrAuthentication matches SSH handshake and login failures
	ErrAuthentication = errors.New("authentication failed")
	// ErrProtocol matches channel, PTY, shell and write failures
	ErrProtocol = errors.New("protocol failure")
)

// SessionError is returned in Result.Err when a session fails
type SessionError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *SessionError) Error() string {
	return e.Message
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind
func (e *SessionError) Is(target error) bool {
	switch target {
	case ErrConnection:
		return e.Kind == KindConnection
	case ErrAuthentication:
		return e.Kind == KindAuthentication
	case ErrProtocol:
		return e.Kind == KindProtocol
	}
	return false
}

// KindOf returns the kind of a session error, or "" for anything else
func KindOf(err error) ErrorKind {
	var se *SessionError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

func newSessionError(kind ErrorKind, message string, err error) *SessionError {
	if err != nil {
		message = message + ": " + err.Error()
	}
	return &SessionError{Kind: kind, Message: message, Err: err}
}

// handshakeError distinguishes a rejected login from a broken handshake
func handshakeError(err error) *SessionError {
	if strings.Contains(err.Error(), "unable to authenticate") {
		return newSessionError(KindAuthentication, "Authentication failed", err)
	}
	return newSessionError(KindAuthentication, "SSH handshake failed", err)
}
