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

// Package eeprom models an AT25010-style 128-byte serial EEPROM. It
// implements the spisim.Interpreter contract: the bus delivers whole
// received bytes, the model mutates its storage and hands back response
// bytes for the return path.
package eeprom

import (
	spisim "github.com/accesslab/go-spisim"
)

// Size is the number of byte cells. Addresses wrap through AddrMask.
const (
	Size     = 128
	AddrMask = 0x7F
)

// Opcodes.
const (
	OpWREN  = 0x06 // Set the write-enable latch
	OpWRDI  = 0x04 // Clear the write-enable latch
	OpRDSR  = 0x05 // Read the status register
	OpWRSR  = 0x01 // Write the status register
	OpWRITE = 0x02 // Write one byte: opcode, address, data
	OpREAD  = 0x03 // Read one byte: opcode, address
)

// welBit is where the write-enable latch shows up in RDSR output.
const welBit = 0x02

type state int

const (
	stateOpcode state = iota
	stateStatusData
	stateWriteAddr
	stateWriteData
	stateReadAddr
	stateDone
)

// Device is the EEPROM model. It is the sole owner of its storage; the
// only way in is through bus transactions or the raw provisioning
// accessors.
type Device struct {
	mem    [Size]byte
	status byte
	wel    bool

	st   state
	addr byte
}

// New returns an EEPROM in the erased state, every cell 0xFF.
func New() *Device {
	d := &Device{}
	for i := range d.mem {
		d.mem[i] = 0xFF
	}
	return d
}

// Reset begins a new transaction. Storage, status and the write-enable
// latch persist across transactions.
func (d *Device) Reset() {
	d.st = stateOpcode
}

// Feed consumes one received byte and returns any response bytes.
func (d *Device) Feed(b byte) []byte {
	switch d.st {
	case stateOpcode:
		return d.opcode(b)
	case stateStatusData:
		d.status = b
		d.st = stateDone
	case stateWriteAddr:
		d.addr = b & AddrMask
		d.st = stateWriteData
	case stateWriteData:
		if d.wel {
			d.mem[d.addr] = b
			// WEL always drops after a successful write, whatever the
			// data was.
			d.wel = false
		}
		d.st = stateDone
	case stateReadAddr:
		d.st = stateDone
		return []byte{d.mem[b&AddrMask]}
	case stateDone:
		// Extra clocked bytes after the operation completed are ignored.
	}
	return nil
}

func (d *Device) opcode(b byte) []byte {
	switch b {
	case OpWREN:
		d.wel = true
		d.st = stateDone
	case OpWRDI:
		d.wel = false
		d.st = stateDone
	case OpRDSR:
		d.st = stateDone
		s := d.status
		if d.wel {
			s |= welBit
		}
		return []byte{s}
	case OpWRSR:
		d.st = stateStatusData
	case OpWRITE:
		d.st = stateWriteAddr
	case OpREAD:
		d.st = stateReadAddr
	default:
		// Unknown opcode: no response, no state change.
		d.st = stateDone
	}
	return nil
}

// WriteEnabled reports the write-enable latch.
func (d *Device) WriteEnabled() bool { return d.wel }

// Status returns the stored status byte, without the dynamic WEL bit.
func (d *Device) Status() byte { return d.status }

// Peek returns the cell at addr without going through the bus.
func (d *Device) Peek(addr byte) byte { return d.mem[addr&AddrMask] }

// Poke sets the cell at addr without going through the bus.
func (d *Device) Poke(addr, v byte) { d.mem[addr&AddrMask] = v }

// Load copies data into storage starting at addr, wrapping through the
// address mask. Used to provision factory content such as the pre-shared
// key before a simulation run.
func (d *Device) Load(addr byte, data []byte) {
	for i, b := range data {
		d.mem[(addr+byte(i))&AddrMask] = b
	}
}

// Ensure Device implements spisim.Interpreter
var _ spisim.Interpreter = (*Device)(nil)
