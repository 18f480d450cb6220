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
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Master is one side of a chip-selected SPI conversation. Implementations
// exist for the simulated bus (BusMaster), a Bus Pirate bridge
// (transport/buspirate) and a host SPI port (transport/periphspi), so
// scenario code runs unchanged against models or real silicon.
type Master interface {
	// Exchange asserts select, shifts out tx while capturing the same
	// number of bytes back, and deasserts select. The whole call is one
	// transaction.
	Exchange(tx []byte) ([]byte, error)

	// SetTimeout sets the read timeout for masters that talk to real
	// hardware. The simulated master ignores it.
	SetTimeout(timeout time.Duration) error

	// Close releases the underlying port.
	Close() error

	// Type returns the master type.
	Type() MasterType
}

// MasterType identifies a Master implementation.
type MasterType string

const (
	// MasterSim drives a simulated Bus.
	MasterSim MasterType = "sim"
	// MasterBusPirate drives real hardware through a Bus Pirate.
	MasterBusPirate MasterType = "buspirate"
	// MasterSPI drives real hardware through a host SPI port.
	MasterSPI MasterType = "spi"
)

// BusMaster bit-bangs a simulated Bus: it drives MOSI, raises the clock
// so the peripheral samples, captures MISO, and lowers the clock so the
// peripheral can drive its next output bit.
type BusMaster struct {
	bus *Bus
}

// NewBusMaster returns a Master for the given simulated bus.
func NewBusMaster(bus *Bus) *BusMaster {
	return &BusMaster{bus: bus}
}

// Exchange runs one full-duplex transaction against the simulated bus.
func (m *BusMaster) Exchange(tx []byte) ([]byte, error) {
	if len(tx) == 0 {
		return nil, ErrInvalidParameter
	}
	b := m.bus
	b.SetCS(gpio.Low)
	rx := make([]byte, len(tx))
	for i, out := range tx {
		var in byte
		for bit := 7; bit >= 0; bit-- {
			b.SetMOSI(gpio.Level(out>>uint(bit)&1 == 1))
			b.SetClock(gpio.High)
			if b.MISO() == gpio.High {
				in |= 1 << uint(bit)
			}
			b.SetClock(gpio.Low)
		}
		rx[i] = in
	}
	b.SetCS(gpio.High)
	return rx, nil
}

// SetTimeout is a no-op; the simulation has no wall-clock behavior.
func (*BusMaster) SetTimeout(time.Duration) error { return nil }

// Close is a no-op for the simulated bus.
func (*BusMaster) Close() error { return nil }

// Type returns MasterSim.
func (*BusMaster) Type() MasterType { return MasterSim }

// Bus returns the underlying simulated bus.
func (m *BusMaster) Bus() *Bus { return m.bus }

// Ensure BusMaster implements Master
var _ Master = (*BusMaster)(nil)
