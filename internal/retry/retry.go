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

// Package retry provides the small retry and polling helpers shared by
// the host-side clients and hardware transports.
package retry

import (
	"time"

	spisim "github.com/accesslab/go-spisim"
)

// Operation represents a function that can be retried.
// Returns: data, shouldRetry, error
//   - data: the result if successful
//   - shouldRetry: true if the operation should be retried
//   - error: any permanent error that should stop retries
type Operation[T any] func() (T, bool, error)

// Config configures retry behavior.
type Config struct {
	OnRetry     func() error
	Description string
	MaxRetries  int
	Delay       time.Duration
}

// WithRetry executes an operation with retry logic.
func WithRetry[T any](config Config, operation Operation[T]) (T, error) {
	var zero T

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		result, shouldRetry, err := operation()
		if err != nil {
			return zero, err
		}
		if !shouldRetry {
			return result, nil
		}
		if attempt >= config.MaxRetries {
			break
		}
		if config.OnRetry != nil {
			if err := config.OnRetry(); err != nil {
				return zero, err
			}
		}
		if config.Delay > 0 {
			time.Sleep(config.Delay)
		}
	}

	return zero, spisim.NewTransportError("retry", config.Description,
		spisim.ErrCommunicationFailed, spisim.ErrorTypeTransient)
}

// Timeout executes an operation with deadline-based retry logic. Common
// pattern for polling operations, like waiting for an interrupt flag.
func Timeout[T any](timeout time.Duration, operation Operation[T]) (T, error) {
	var zero T
	deadline := time.Now().Add(timeout)

	for {
		result, shouldRetry, err := operation()
		if err != nil {
			return zero, err
		}
		if !shouldRetry {
			return result, nil
		}
		if !time.Now().Before(deadline) {
			break
		}
		time.Sleep(time.Millisecond)
	}

	return zero, spisim.NewTimeoutError("timeoutRetry", "")
}
