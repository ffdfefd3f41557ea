// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gateway provides the HTTP client for the policy assistant backend.
package gateway

import (
	"context"
	"errors"
	"net"
	"strconv"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the gateway client.
type ClientError struct {
	Type    ErrorType
	Message string
	Status  int
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches sentinel errors by type so errors.Is(err, ErrMissingCredential)
// works for any missing-credential error.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	if !ok {
		return false
	}
	return t.Type == e.Type && (t.Status == 0 || t.Status == e.Status)
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeMissingCredential
	ErrTypeCredential
	ErrTypeConnection
	ErrTypeTimeout
	ErrTypeRemote
	ErrTypeInvalidResponse
)

// String returns the name of the error type.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeMissingCredential:
		return "missing_credential"
	case ErrTypeCredential:
		return "credential"
	case ErrTypeConnection:
		return "connection"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeRemote:
		return "remote"
	case ErrTypeInvalidResponse:
		return "invalid_response"
	default:
		return "unknown"
	}
}

// Sentinel errors for easy checking.
var (
	ErrMissingCredential = &ClientError{Type: ErrTypeMissingCredential, Message: "로그인이 필요합니다."}
	ErrTimeout           = &ClientError{Type: ErrTypeTimeout, Message: "요청 시간이 초과되었습니다"}
	ErrNotFound          = &ClientError{Type: ErrTypeRemote, Status: 404, Message: "찾을 수 없습니다"}
	ErrUnauthorized      = &ClientError{Type: ErrTypeRemote, Status: 401, Message: "인증에 실패했습니다"}
)

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsMissingCredential reports whether err is a missing-credential failure.
func IsMissingCredential(err error) bool {
	return errors.Is(err, ErrMissingCredential)
}

// IsTimeout reports whether err is a timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsNotFound reports whether the backend answered 404.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Describe returns the human-readable description of err suitable for
// embedding in a chat message. Client errors surface their message without
// the transport cause, except credential read failures whose cause is the
// only useful detail.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var ce *ClientError
	if errors.As(err, &ce) && ce.Message != "" {
		if ce.Type == ErrTypeCredential && ce.Cause != nil {
			return ce.Error()
		}
		return ce.Message
	}
	return err.Error()
}

// CredentialError wraps a failure to read a stored token. It is distinct
// from ErrMissingCredential so the cause reaches the user.
func CredentialError(err error) error {
	return &ClientError{Type: ErrTypeCredential, Message: "로그인 정보를 읽을 수 없습니다", Cause: err}
}

// transportError converts an http.Client error into a ClientError.
func transportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	return &ClientError{Type: ErrTypeConnection, Message: "서버에 연결할 수 없습니다", Cause: err}
}

// statusError builds the error for a non-success response. detail is the
// server supplied description, if any.
func statusError(status int, detail string) error {
	if detail == "" {
		detail = "HTTP error! status: " + strconv.Itoa(status)
	}
	return &ClientError{Type: ErrTypeRemote, Status: status, Message: detail}
}
