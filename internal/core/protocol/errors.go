package protocol

import (
	"errors"
	"time"
)

// Core protocol errors
var (
	// Connection errors

	ErrConnectionClosed  = errors.New("connection is closed")
	ErrConnectionTimeout = errors.New("connection timeout")
	ErrConnectionLost    = errors.New("connection lost")

	// Message errors

	ErrMessageTooLarge       = errors.New("message too large")
	ErrInvalidMessage        = errors.New("invalid message")
	ErrUnknownMessageType    = errors.New("unknown message type")
	ErrSerializationFailed   = errors.New("message serialization failed")
	ErrDeserializationFailed = errors.New("message deserialization failed")

	// Transport errors

	ErrTransportNotSupported = errors.New("transport not supported")
	ErrInvalidAddress        = errors.New("invalid address")
	ErrDialFailed            = errors.New("dial failed")

	// Frame errors

	ErrInvalidFrame  = errors.New("invalid frame")
	ErrFrameTooLarge = errors.New("frame too large")
)

// ErrorCode represents a numeric error code for efficient error handling
type ErrorCode int

const (
	ErrorCodeSuccess ErrorCode = 0

	// Connection error codes (1000-1999)

	ErrorCodeConnectionClosed  ErrorCode = 1001
	ErrorCodeConnectionTimeout ErrorCode = 1002
	ErrorCodeConnectionLost    ErrorCode = 1004
	ErrorCodeProtocolViolation ErrorCode = 1007

	// Message error codes (3000-3999)

	ErrorCodeMessageTooLarge       ErrorCode = 3001
	ErrorCodeInvalidMessage        ErrorCode = 3003
	ErrorCodeSerializationFailed   ErrorCode = 3005
	ErrorCodeDeserializationFailed ErrorCode = 3006
	ErrorCodeUnknownMessageType    ErrorCode = 3007

	// Frame error codes (4000-4999)

	ErrorCodeInvalidFrame  ErrorCode = 4008
	ErrorCodeFrameTooLarge ErrorCode = 4009

	// Transport error codes (7000-7999)

	ErrorCodeTransportNotSupported ErrorCode = 7001
	ErrorCodeInvalidAddress        ErrorCode = 7004
	ErrorCodeDialFailed            ErrorCode = 7007

	ErrorCodeUnknownError ErrorCode = 9999
)

// Error represents a protocol-specific error with additional context
type Error struct {
	Code      ErrorCode
	Message   string
	Cause     error
	Context   map[string]any
	Timestamp int64
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewProtocolError creates a new protocol error
func NewProtocolError(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Cause:     cause,
		Context:   make(map[string]any),
		Timestamp: time.Now().Unix(),
	}
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value any) *Error {
	e.Context[key] = value
	return e
}

// IsTemporary checks if the error is temporary and the operation can be retried
func (e *Error) IsTemporary() bool {
	return temporary(e.Code)
}

// IsFatal checks if the error is fatal and the connection should be closed
func (e *Error) IsFatal() bool {
	return fatal(e.Code)
}

// IsTemporary reports whether err, a protocol error or one of the sentinel
// errors, can be retried.
func IsTemporary(err error) bool {
	return err != nil && temporary(GetErrorCode(err))
}

// IsFatal reports whether err leaves the connection unusable.
func IsFatal(err error) bool {
	return err != nil && fatal(GetErrorCode(err))
}

func temporary(code ErrorCode) bool {
	return code == ErrorCodeConnectionTimeout
}

func fatal(code ErrorCode) bool {
	switch code {
	case ErrorCodeConnectionClosed,
		ErrorCodeConnectionLost,
		ErrorCodeProtocolViolation,
		ErrorCodeInvalidFrame,
		ErrorCodeFrameTooLarge:
		return true
	default:
		return false
	}
}

var errorCodeMap = map[error]ErrorCode{
	ErrConnectionClosed:  ErrorCodeConnectionClosed,
	ErrConnectionTimeout: ErrorCodeConnectionTimeout,
	ErrConnectionLost:    ErrorCodeConnectionLost,

	ErrMessageTooLarge:       ErrorCodeMessageTooLarge,
	ErrInvalidMessage:        ErrorCodeInvalidMessage,
	ErrUnknownMessageType:    ErrorCodeUnknownMessageType,
	ErrSerializationFailed:   ErrorCodeSerializationFailed,
	ErrDeserializationFailed: ErrorCodeDeserializationFailed,

	ErrTransportNotSupported: ErrorCodeTransportNotSupported,
	ErrInvalidAddress:        ErrorCodeInvalidAddress,
	ErrDialFailed:            ErrorCodeDialFailed,

	ErrInvalidFrame:  ErrorCodeInvalidFrame,
	ErrFrameTooLarge: ErrorCodeFrameTooLarge,
}

// GetErrorCode returns the error code for a given error
func GetErrorCode(err error) ErrorCode {
	var protocolErr *Error
	if errors.As(err, &protocolErr) {
		return protocolErr.Code
	}
	for sentinel, code := range errorCodeMap {
		if errors.Is(err, sentinel) {
			return code
		}
	}
	return ErrorCodeUnknownError
}

// WrapError wraps a standard error into a protocol Error
func WrapError(err error, message string) *Error {
	return NewProtocolError(GetErrorCode(err), message, err)
}
