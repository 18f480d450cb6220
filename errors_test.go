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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransportErrorFormat(t *testing.T) {
	t.Parallel()

	withPort := NewTransportError("exchange", "/dev/ttyUSB0", ErrTransportRead, ErrorTypeTransient)
	assert.Equal(t, "spisim: exchange /dev/ttyUSB0: transport read failed", withPort.Error())

	withoutPort := NewTransportError("exchange", "", ErrTransportRead, ErrorTypeTransient)
	assert.Equal(t, "spisim: exchange: transport read failed", withoutPort.Error())
}

func TestTransportErrorUnwrap(t *testing.T) {
	t.Parallel()

	err := NewTimeoutError("readFull", "COM3")
	require.ErrorIs(t, err, ErrTransportTimeout)

	var te *TransportError
	require.ErrorAs(t, fmt.Errorf("outer: %w", err), &te)
	assert.Equal(t, "readFull", te.Op)
	assert.Equal(t, "COM3", te.Port)
}

func TestTransportErrorRetryableFromType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		errType   ErrorType
		retryable bool
	}{
		{name: "permanent", errType: ErrorTypePermanent, retryable: false},
		{name: "transient", errType: ErrorTypeTransient, retryable: true},
		{name: "timeout", errType: ErrorTypeTimeout, retryable: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := NewTransportError("op", "port", ErrCommunicationFailed, tt.errType)
			assert.Equal(t, tt.retryable, err.Retryable)
			assert.Equal(t, tt.retryable, IsRetryable(err))
			assert.Equal(t, tt.errType, GetErrorType(err))
		})
	}
}

func TestIsRetryableBareSentinels(t *testing.T) {
	t.Parallel()

	assert.True(t, IsRetryable(ErrTransportTimeout))
	assert.True(t, IsRetryable(ErrChecksumMismatch))
	assert.True(t, IsRetryable(fmt.Errorf("wrapped: %w", ErrCommunicationFailed)))

	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(ErrInvalidParameter))
	assert.False(t, IsRetryable(errors.New("some unrelated error")))
}

func TestGetErrorTypeBareSentinels(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ErrorTypeTimeout, GetErrorType(ErrTransportTimeout))
	assert.Equal(t, ErrorTypeTransient, GetErrorType(ErrTransportWrite))
	assert.Equal(t, ErrorTypePermanent, GetErrorType(ErrDeviceNotFound))
	assert.Equal(t, ErrorTypePermanent, GetErrorType(nil))
}

func TestErrorTypeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "permanent", ErrorTypePermanent.String())
	assert.Equal(t, "transient", ErrorTypeTransient.String())
	assert.Equal(t, "timeout", ErrorTypeTimeout.String())
}

func TestModelFaultError(t *testing.T) {
	t.Parallel()

	fault := &ModelFault{Model: "reader", Invariant: "FIFO level register diverged from queue length"}
	assert.Equal(t,
		"spisim: model fault in reader: FIFO level register diverged from queue length",
		fault.Error())
}
