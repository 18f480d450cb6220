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

// Package periphspi provides a Master implementation over a kernel SPI
// device through periph.io, for running the host-side logic against
// real hardware.
package periphspi

import (
	"fmt"
	"time"

	spisim "github.com/accesslab/go-spisim"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// Default clock; both modelled parts are comfortable at 1 MHz.
const defaultSpeed = physic.MegaHertz

// Transport implements spisim.Master over a periph.io SPI port.
type Transport struct {
	port    spi.PortCloser
	conn    spi.Conn
	devName string
}

// New opens the named SPI device (for example "/dev/spidev0.0" or
// "SPI0.0") in mode 0 with 8-bit words.
func New(devName string) (*Transport, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}
	port, err := spireg.Open(devName)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI device %s: %w", devName, err)
	}
	conn, err := port.Connect(defaultSpeed, spi.Mode0, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to configure SPI device %s: %w", devName, err)
	}
	return &Transport{port: port, conn: conn, devName: devName}, nil
}

// Exchange runs one full-duplex transfer with chip select asserted for
// its duration; the kernel driver handles the select line.
func (t *Transport) Exchange(tx []byte) ([]byte, error) {
	if len(tx) == 0 {
		return nil, spisim.ErrInvalidParameter
	}
	rx := make([]byte, len(tx))
	if err := t.conn.Tx(tx, rx); err != nil {
		return nil, spisim.NewTransportError("exchange", t.devName, err, spisim.ErrorTypeTransient)
	}
	return rx, nil
}

// SetTimeout is accepted for interface compatibility; the kernel driver
// does not expose a transfer timeout.
func (*Transport) SetTimeout(_ time.Duration) error {
	return nil
}

// Close releases the SPI port.
func (t *Transport) Close() error {
	if err := t.port.Close(); err != nil {
		return fmt.Errorf("failed to close SPI device %s: %w", t.devName, err)
	}
	return nil
}

// Type returns the master type.
func (*Transport) Type() spisim.MasterType {
	return spisim.MasterSPI
}

// Ensure Transport implements spisim.Master
var _ spisim.Master = (*Transport)(nil)
