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

// Package buspirate provides a Master implementation over a Bus Pirate
// in binary SPI mode, so the same host code that drives the simulated
// models can talk to real parts on a bench.
package buspirate

import (
	"bytes"
	"fmt"
	"time"

	spisim "github.com/accesslab/go-spisim"
	"go.bug.st/serial"
)

// Binary protocol bytes.
const (
	cmdResetBitbang = 0x00 // answered with "BBIO1"
	cmdEnterSPI     = 0x01 // answered with "SPI1"
	cmdCSLow        = 0x02
	cmdCSHigh       = 0x03
	cmdResetPirate  = 0x0F
	cmdBulkBase     = 0x10 // low nibble is transfer length - 1
	cmdConfigPeriph = 0x40 // power, pull-ups, AUX, CS
	cmdSetSpeed     = 0x60
	cmdConfigSPI    = 0x80

	ackByte = 0x01

	// Pin output 3.3V, clock idle low, data changes on active-to-idle
	// edge. This matches the models' sampling convention.
	spiConfig = cmdConfigSPI | 0x0A
	// Power and CS pins enabled.
	periphConfig = cmdConfigPeriph | 0x09
	// 1 MHz.
	speedConfig = cmdSetSpeed | 0x04

	// The Bus Pirate leaves binary mode only after enough consecutive
	// zero bytes; 20 covers the worst case of a partially consumed
	// command.
	resetAttempts = 20

	bulkMax = 16
)

var (
	bitbangBanner = []byte("BBIO1")
	spiBanner     = []byte("SPI1")
)

// Transport implements spisim.Master over a Bus Pirate serial port.
type Transport struct {
	port     serial.Port
	portName string
	timeout  time.Duration
}

// New opens the named serial port and brings the Bus Pirate into binary
// SPI mode.
func New(portName string) (*Transport, error) {
	mode := &serial.Mode{
		BaudRate: 115200,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open port %s: %w", portName, err)
	}
	t, err := newWithPort(port, portName)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	return t, nil
}

// newWithPort wires a transport over an already open port and runs the
// mode negotiation. Split out so tests can substitute a scripted port.
func newWithPort(port serial.Port, portName string) (*Transport, error) {
	t := &Transport{
		port:     port,
		portName: portName,
		timeout:  500 * time.Millisecond,
	}
	if err := port.SetReadTimeout(t.timeout); err != nil {
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}
	if err := t.enterBinaryMode(); err != nil {
		return nil, err
	}
	if err := t.configureSPI(); err != nil {
		return nil, err
	}
	return t, nil
}

// enterBinaryMode sends reset bytes until the bitbang banner shows up,
// then switches to raw SPI.
func (t *Transport) enterBinaryMode() error {
	for attempt := 0; attempt < resetAttempts; attempt++ {
		if _, err := t.port.Write([]byte{cmdResetBitbang}); err != nil {
			return fmt.Errorf("failed to write reset: %w", err)
		}
		banner := make([]byte, len(bitbangBanner))
		if err := t.readFull("enterBinaryMode", banner); err != nil {
			continue
		}
		if bytes.Equal(banner, bitbangBanner) {
			return t.enterSPIMode()
		}
	}
	return spisim.NewTransportError("enterBinaryMode", t.portName,
		spisim.ErrDeviceNotFound, spisim.ErrorTypePermanent)
}

func (t *Transport) enterSPIMode() error {
	if _, err := t.port.Write([]byte{cmdEnterSPI}); err != nil {
		return fmt.Errorf("failed to enter SPI mode: %w", err)
	}
	banner := make([]byte, len(spiBanner))
	if err := t.readFull("enterSPIMode", banner); err != nil {
		return err
	}
	if !bytes.Equal(banner, spiBanner) {
		return spisim.NewInvalidResponseError("enterSPIMode", t.portName)
	}
	return nil
}

func (t *Transport) configureSPI() error {
	for _, cmd := range []byte{periphConfig, speedConfig, spiConfig} {
		if err := t.command(cmd); err != nil {
			return err
		}
	}
	return nil
}

// command sends a single configuration byte and checks the ack.
func (t *Transport) command(cmd byte) error {
	if _, err := t.port.Write([]byte{cmd}); err != nil {
		return fmt.Errorf("failed to write command %#02x: %w", cmd, err)
	}
	ack := make([]byte, 1)
	if err := t.readFull("command", ack); err != nil {
		return err
	}
	if ack[0] != ackByte {
		return spisim.NewInvalidResponseError("command", t.portName)
	}
	return nil
}

// Exchange clocks tx out with chip select asserted and returns the
// bytes read back. Transfers longer than the bulk limit are split into
// chunks without releasing chip select.
func (t *Transport) Exchange(tx []byte) ([]byte, error) {
	if len(tx) == 0 {
		return nil, spisim.ErrInvalidParameter
	}
	if err := t.command(cmdCSLow); err != nil {
		return nil, err
	}
	rx := make([]byte, 0, len(tx))
	for len(tx) > 0 {
		n := len(tx)
		if n > bulkMax {
			n = bulkMax
		}
		chunk, err := t.bulkTransfer(tx[:n])
		if err != nil {
			// Try to release the bus before reporting the failure.
			_ = t.command(cmdCSHigh)
			return nil, err
		}
		rx = append(rx, chunk...)
		tx = tx[n:]
	}
	if err := t.command(cmdCSHigh); err != nil {
		return nil, err
	}
	return rx, nil
}

func (t *Transport) bulkTransfer(chunk []byte) ([]byte, error) {
	if _, err := t.port.Write([]byte{cmdBulkBase | byte(len(chunk)-1)}); err != nil {
		return nil, fmt.Errorf("failed to write bulk header: %w", err)
	}
	ack := make([]byte, 1)
	if err := t.readFull("bulkTransfer", ack); err != nil {
		return nil, err
	}
	if ack[0] != ackByte {
		return nil, spisim.NewInvalidResponseError("bulkTransfer", t.portName)
	}
	if _, err := t.port.Write(chunk); err != nil {
		return nil, fmt.Errorf("failed to write bulk data: %w", err)
	}
	rx := make([]byte, len(chunk))
	if err := t.readFull("bulkTransfer", rx); err != nil {
		return nil, err
	}
	return rx, nil
}

// readFull fills buf from the port. A zero-byte read means the serial
// read timeout expired with nothing pending.
func (t *Transport) readFull(op string, buf []byte) error {
	for got := 0; got < len(buf); {
		n, err := t.port.Read(buf[got:])
		if err != nil {
			return fmt.Errorf("read failed: %w", err)
		}
		if n == 0 {
			return spisim.NewTimeoutError(op, t.portName)
		}
		got += n
	}
	return nil
}

// SetTimeout adjusts the serial read timeout.
func (t *Transport) SetTimeout(timeout time.Duration) error {
	t.timeout = timeout
	if err := t.port.SetReadTimeout(timeout); err != nil {
		return fmt.Errorf("failed to set read timeout: %w", err)
	}
	return nil
}

// Close returns the Bus Pirate to its terminal mode and closes the
// port.
func (t *Transport) Close() error {
	// Best effort: drop to bitbang, then full reset.
	_, _ = t.port.Write([]byte{cmdResetBitbang})
	_, _ = t.port.Write([]byte{cmdResetPirate})
	if err := t.port.Close(); err != nil {
		return fmt.Errorf("failed to close port: %w", err)
	}
	return nil
}

// Type returns the master type.
func (*Transport) Type() spisim.MasterType {
	return spisim.MasterBusPirate
}

// Ensure Transport implements spisim.Master
var _ spisim.Master = (*Transport)(nil)
