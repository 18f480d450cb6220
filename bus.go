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
	"periph.io/x/conn/v3/gpio"
)

// Interpreter is the device-specific half of a peripheral model. The Bus
// owns the bit-level discipline; the interpreter only ever sees whole
// bytes of one select-assert..deassert conversation.
type Interpreter interface {
	// Reset is called when chip select is asserted and a new
	// transaction begins. No state carries over from the previous
	// transaction except the peripheral's own persistent storage.
	Reset()

	// Feed consumes one received byte and returns any bytes to queue
	// on the return path. Returned bytes are shifted out on subsequent
	// falling clock edges, most-significant-bit first.
	Feed(b byte) []byte
}

// Bus models the four SPI lines of a single peripheral. The external
// master mutates CS, SCLK and MOSI through the setters; edges are
// dispatched synchronously to the attached interpreter, and the
// peripheral's MISO level is readable at any time.
//
// Input is sampled on the rising clock edge, output is driven on the
// falling clock edge, MSB first. Deasserting select mid-byte discards
// the partial byte without delivering it to the interpreter; this is the
// only condition the transport swallows, and it is counted so tests can
// tell an abort apart from a protocol-level silence.
type Bus struct {
	dev  Interpreter
	name string

	cs   gpio.Level
	sclk gpio.Level
	mosi gpio.Level
	miso gpio.Level

	// misoIdle is the level MISO parks at while deselected. The EEPROM
	// line idles high, the reader line idles low.
	misoIdle gpio.Level

	out      []byte
	shift    byte
	nbits    int
	outBit   int
	selected bool

	aborts uint64
}

// NewBus attaches dev to a fresh set of lines. misoIdle is the level the
// peripheral holds its output at while not selected.
func NewBus(name string, dev Interpreter, misoIdle gpio.Level) *Bus {
	return &Bus{
		dev:      dev,
		name:     name,
		cs:       gpio.High,
		sclk:     gpio.Low,
		mosi:     gpio.Low,
		miso:     misoIdle,
		misoIdle: misoIdle,
		outBit:   7,
	}
}

// Name returns the bus label used in debug output.
func (b *Bus) Name() string { return b.name }

// MISO returns the level the peripheral is currently driving.
func (b *Bus) MISO() gpio.Level { return b.miso }

// Selected reports whether chip select is asserted.
func (b *Bus) Selected() bool { return b.selected }

// Aborts returns how many transfers ended with select deasserted
// mid-byte. The discarded partial bytes were never delivered to the
// interpreter.
func (b *Bus) Aborts() uint64 { return b.aborts }

// SetCS drives the chip-select line. Select is active low.
func (b *Bus) SetCS(l gpio.Level) {
	if l == b.cs {
		return
	}
	b.cs = l
	if l == gpio.Low {
		b.selected = true
		b.shift, b.nbits = 0, 0
		b.out = nil
		b.outBit = 7
		b.dev.Reset()
		return
	}
	if b.selected && b.nbits > 0 {
		b.aborts++
		debugf("%s: deselected after %d bits, partial byte discarded", b.name, b.nbits)
	}
	b.selected = false
	b.shift, b.nbits = 0, 0
	b.out = nil
	b.miso = b.misoIdle
}

// SetClock drives the clock line. Rising edges sample MOSI into the
// shift register; falling edges shift queued response bits onto MISO.
// Edges while deselected are ignored.
func (b *Bus) SetClock(l gpio.Level) {
	if l == b.sclk {
		return
	}
	b.sclk = l
	if !b.selected {
		return
	}
	if l == gpio.High {
		b.shift <<= 1
		if b.mosi == gpio.High {
			b.shift |= 1
		}
		b.nbits++
		if b.nbits == 8 {
			if resp := b.dev.Feed(b.shift); len(resp) > 0 {
				b.out = append(b.out, resp...)
			}
			b.shift, b.nbits = 0, 0
		}
		return
	}
	if len(b.out) == 0 {
		return
	}
	b.miso = gpio.Level(b.out[0]>>uint(b.outBit)&1 == 1)
	if b.outBit == 0 {
		b.out = b.out[1:]
		b.outBit = 7
	} else {
		b.outBit--
	}
}

// SetMOSI drives the master-out line. The level is sampled on the next
// rising clock edge.
func (b *Bus) SetMOSI(l gpio.Level) { b.mosi = l }
