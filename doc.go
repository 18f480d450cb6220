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

/*
Package spisim provides bit-accurate behavioral models of the SPI
peripherals found in a physical-access-control device: a small serial
EEPROM and a contactless-card reader front end, together with the
card-side challenge-response authentication protocol they carry.

The models exist to exercise an SPI master and authentication controller
without real silicon on the bench. Each peripheral sits behind a Bus that
reproduces the electrical contract at signal-edge granularity: chip select
is active low, input is sampled on the rising clock edge, output is driven
on the falling clock edge, bytes travel most-significant-bit first, and
deasserting select mid-byte aborts the transfer without delivering the
partial byte.

Features:
  - Edge-accurate SPI transport shared by all peripheral models
  - AT25010-style EEPROM with write-enable-latch semantics
  - MFRC522-style reader with register file, FIFO and transceive command
  - Emulated contactless card with AES-ECB challenge-response handshake
  - Host-side reference controller implementing the full unlock sequence
  - Interchangeable masters: simulated bus, Bus Pirate, Linux spidev

Basic Usage:

	import (
	    spisim "github.com/accesslab/go-spisim"
	    "github.com/accesslab/go-spisim/eeprom"
	    "periph.io/x/conn/v3/gpio"
	)

	ee := eeprom.New()
	bus := spisim.NewBus("eeprom", ee, gpio.High)
	master := spisim.NewBusMaster(bus)

	// WREN; WRITE 0xAB at 0x10; READ it back.
	_, _ = master.Exchange([]byte{0x06})
	_, _ = master.Exchange([]byte{0x02, 0x10, 0xAB})
	rx, _ := master.Exchange([]byte{0x03, 0x10, 0x00})
	fmt.Printf("%#02x\n", rx[2])

The same Master interface is implemented by transport/buspirate and
transport/periphspi, so scenarios written against the simulated bus run
unchanged against real hardware.

Error Handling:

Protocol-level outcomes are in-band, exactly as the modeled hardware
behaves: a missing card surfaces as a timeout interrupt flag, a failed
authentication as a failure byte, a write without the write-enable latch
as a silent no-op. Go errors are reserved for host-side transport
failures, inspectable via:

	if errors.Is(err, spisim.ErrNoCard) {
	    // nothing in the field
	}

A panic carrying *ModelFault indicates a broken invariant inside a model
itself, never a condition of the simulated hardware.

Concurrency:

The simulation is single-threaded and event-driven. Line mutations made
through a Bus dispatch synchronously to the attached peripheral model, so
no locking is required as long as one goroutine owns a given bus.
*/
package spisim
