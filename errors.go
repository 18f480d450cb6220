// go-spisim
// Copyright (c) 2026 The AccessLab Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-spisim.
//
// go-spisim is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-spisim is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-spisim; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package spisim

import (
	"errors"
	"fmt"
)

// Transport-level errors. These originate on the host side of a Master,
// never inside a peripheral model: the modeled hardware reports its
// conditions in-band (interrupt flags, failure bytes, silent no-ops).
var (
	ErrTransportTimeout    = errors.New("transport timeout")
	ErrTransportRead       = errors.New("transport read failed")
	ErrTransportWrite      = errors.New("transport write failed")
	ErrCommunicationFailed = errors.New("communication failed")
	ErrInvalidResponse     = errors.New("invalid response")
	ErrChecksumMismatch    = errors.New("checksum mismatch")
	ErrDeviceNotFound      = errors.New("device not found")
	ErrInvalidParameter    = errors.New("invalid parameter")
)

// Protocol-level errors raised by the host-side clients in accessctl.
var (
	// ErrNoCard is returned when the reader reports a timeout interrupt,
	// meaning nothing in the field answered.
	ErrNoCard = errors.New("no card in field")
	// ErrAuthFailed is returned when the card answers the handshake with
	// its in-band failure byte.
	ErrAuthFailed = errors.New("authentication failed")
	// ErrNotAuthenticated is returned when an operation requires a
	// session key that has not been derived.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// ErrorType classifies an error for retry decisions.
type ErrorType int

const (
	// ErrorTypePermanent indicates retrying will not help.
	ErrorTypePermanent ErrorType = iota
	// ErrorTypeTransient indicates the operation may succeed if retried.
	ErrorTypeTransient
	// ErrorTypeTimeout indicates the operation timed out.
	ErrorTypeTimeout
)

// String returns a human-readable name for the error type.
func (t ErrorType) String() string {
	switch t {
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypeTimeout:
		return "timeout"
	default:
		return "permanent"
	}
}

// TransportError wraps a failure on a hardware master with enough context
// to decide whether to retry.
type TransportError struct {
	Err       error
	Op        string
	Port      string
	Type      ErrorType
	Retryable bool
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("spisim: %s %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("spisim: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error { return e.Err }

// NewTransportError creates a TransportError with the retryable flag
// derived from the error type.
func NewTransportError(op, port string, err error, errType ErrorType) *TransportError {
	return &TransportError{
		Err:       err,
		Op:        op,
		Port:      port,
		Type:      errType,
		Retryable: errType != ErrorTypePermanent,
	}
}

// NewTimeoutError creates a retryable timeout TransportError.
func NewTimeoutError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportTimeout, ErrorTypeTimeout)
}

// NewInvalidResponseError creates a permanent TransportError for a reply
// that does not match the wire protocol.
func NewInvalidResponseError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrInvalidResponse, ErrorTypePermanent)
}

// IsRetryable reports whether the operation that produced err is worth
// retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}
	switch {
	case errors.Is(err, ErrTransportTimeout),
		errors.Is(err, ErrTransportRead),
		errors.Is(err, ErrTransportWrite),
		errors.Is(err, ErrCommunicationFailed),
		errors.Is(err, ErrChecksumMismatch):
		return true
	}
	return false
}

// GetErrorType classifies err for retry/backoff decisions.
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ErrorTypePermanent
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.Type
	}
	switch {
	case errors.Is(err, ErrTransportTimeout):
		return ErrorTypeTimeout
	case errors.Is(err, ErrTransportRead),
		errors.Is(err, ErrTransportWrite),
		errors.Is(err, ErrCommunicationFailed),
		errors.Is(err, ErrChecksumMismatch):
		return ErrorTypeTransient
	}
	return ErrorTypePermanent
}

// ModelFault reports a broken invariant inside a peripheral model, such
// as the FIFO level register diverging from the queue length. It is a
// defect in the model itself, not a condition of the simulated hardware,
// so models panic with it rather than absorbing it.
type ModelFault struct {
	Model     string
	Invariant string
}

// Error implements the error interface.
func (f *ModelFault) Error() string {
	return fmt.Sprintf("spisim: model fault in %s: %s", f.Model, f.Invariant)
}
