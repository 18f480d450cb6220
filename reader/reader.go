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

// Package reader models an MFRC522-style contactless reader front end:
// a 64-slot register file, a byte FIFO, and a command processor that
// relays FIFO contents to an emulated card and queues the card's reply.
package reader

import (
	spisim "github.com/accesslab/go-spisim"
	"github.com/accesslab/go-spisim/internal/debug"
	"github.com/accesslab/go-spisim/internal/mfrc522"
)

type state int

const (
	stateAddr state = iota
	stateWriteData
	stateDone
)

// Device is the reader model. Each bus transaction carries exactly one
// register operation: the first byte encodes direction and address
// (bit 7 = 1 for read, bits 6..1 the address), a write carries one data
// byte after it.
type Device struct {
	regs [64]byte
	fifo []byte
	card *Card

	st   state
	addr byte
}

// New returns a reader with a cleared register file and the fixed
// version identifier in place.
func New() *Device {
	d := &Device{}
	d.regs[mfrc522.RegVersion] = mfrc522.VersionChip
	return d
}

// AttachCard places a card in the reader's field. A nil card, or one
// whose Present flag is down, leaves transceive commands answering with
// the timeout interrupt.
func (d *Device) AttachCard(c *Card) { d.card = c }

// Card returns the attached card, nil if none.
func (d *Device) Card() *Card { return d.card }

// Reset begins a new transaction. Registers, FIFO and the attached card
// persist across transactions.
func (d *Device) Reset() {
	d.st = stateAddr
}

// Feed consumes one received byte and returns any response bytes.
func (d *Device) Feed(b byte) []byte {
	switch d.st {
	case stateAddr:
		addr := (b >> 1) & 0x3F
		if b&0x80 != 0 {
			d.st = stateDone
			return []byte{d.readReg(addr)}
		}
		d.addr = addr
		d.st = stateWriteData
	case stateWriteData:
		d.writeReg(d.addr, b)
		d.st = stateDone
	case stateDone:
		// Extra clocked bytes after the operation completed are ignored.
	}
	return nil
}

// Reg returns the current value of a register without going through the
// bus. Diagnostic accessor.
func (d *Device) Reg(addr byte) byte { return d.regs[addr&0x3F] }

// FIFOLen returns the number of queued FIFO bytes.
func (d *Device) FIFOLen() int { return len(d.fifo) }

func (d *Device) readReg(addr byte) byte {
	if addr == mfrc522.RegFIFOData {
		return d.popFIFO()
	}
	return d.regs[addr]
}

func (d *Device) writeReg(addr, v byte) {
	switch addr {
	case mfrc522.RegFIFOData:
		d.pushFIFO(v)
	case mfrc522.RegCommand:
		d.regs[addr] = v
		d.execute(v)
	case mfrc522.RegVersion:
		// The version identifier is read-only.
	default:
		d.regs[addr] = v
	}
}

func (d *Device) pushFIFO(v byte) {
	d.fifo = append(d.fifo, v)
	d.syncLevel()
}

func (d *Device) popFIFO() byte {
	if len(d.fifo) == 0 {
		return 0x00
	}
	v := d.fifo[0]
	d.fifo = d.fifo[1:]
	d.syncLevel()
	return v
}

// syncLevel keeps the level register equal to the queue length after
// every FIFO mutation. Divergence means the model itself is broken, not
// the simulated firmware, so it propagates as a fault.
func (d *Device) syncLevel() {
	d.regs[mfrc522.RegFIFOLevel] = byte(len(d.fifo))
	if int(d.regs[mfrc522.RegFIFOLevel]) != len(d.fifo) {
		panic(&spisim.ModelFault{
			Model:     "reader",
			Invariant: "FIFO level register diverged from queue length",
		})
	}
}

func (d *Device) execute(cmd byte) {
	switch cmd {
	case mfrc522.CmdTransceive:
		d.transceive()
	case mfrc522.CmdIdle:
		// Halts any in-progress command context; nothing to do here.
	}
}

// transceive drains the FIFO into an outgoing frame, runs it against the
// card, and loads the reply back into the FIFO. The outcome is reported
// through the interrupt request register: receive-complete when a reply
// was queued, timeout when the card is absent or stayed silent.
func (d *Device) transceive() {
	frame := d.fifo
	d.fifo = nil
	d.syncLevel()

	debug.Debugf("reader: transceive % 02x", frame)

	if d.card == nil || !d.card.Present {
		d.regs[mfrc522.RegComIrq] |= mfrc522.IrqTimer
		return
	}

	reply := d.card.Exchange(frame)
	if len(reply) == 0 {
		d.regs[mfrc522.RegComIrq] |= mfrc522.IrqTimer
		return
	}

	d.fifo = append(d.fifo, reply...)
	d.syncLevel()
	d.regs[mfrc522.RegComIrq] |= mfrc522.IrqRx
	debug.Debugf("reader: card replied % 02x", reply)
}

// Ensure Device implements spisim.Interpreter
var _ spisim.Interpreter = (*Device)(nil)
