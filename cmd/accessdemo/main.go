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

// Command accessdemo runs the complete access-control sequence: key
// load from the EEPROM, card detection, mutual authentication and
// secret id retrieval. By default everything runs against the in-process
// simulated devices; the -eeprom and -reader flags can point either port
// at real hardware instead.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	spisim "github.com/accesslab/go-spisim"
	"github.com/accesslab/go-spisim/accessctl"
	"github.com/accesslab/go-spisim/eeprom"
	"github.com/accesslab/go-spisim/reader"
	"github.com/accesslab/go-spisim/transport/buspirate"
	"github.com/accesslab/go-spisim/transport/periphspi"
	"periph.io/x/conn/v3/gpio"
)

var (
	eepromSpec = flag.String("eeprom", "sim", "EEPROM port: sim, buspirate:<serial port>, spi:<device>")
	readerSpec = flag.String("reader", "sim", "reader port: sim, buspirate:<serial port>, spi:<device>")
	timeout    = flag.Duration("timeout", time.Second, "reader transceive timeout")
	debug      = flag.Bool("debug", false, "enable debug output")
)

// demoPSK is the key provisioned into the simulated EEPROM and card.
var demoPSK = [16]byte{
	0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07,
	0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F,
}

var demoSecretID = [16]byte{
	0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA,
	0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA,
}

func main() {
	flag.Parse()

	if *debug {
		spisim.SetDebugEnabled(true)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	eepromPort, err := newMaster(*eepromSpec, newSimEEPROM)
	if err != nil {
		return fmt.Errorf("eeprom port: %w", err)
	}
	defer func() { _ = eepromPort.Close() }()

	readerPort, err := newMaster(*readerSpec, newSimReader)
	if err != nil {
		return fmt.Errorf("reader port: %w", err)
	}
	defer func() { _ = readerPort.Close() }()

	ctl := accessctl.New(eepromPort, readerPort, accessctl.WithTimeout(*timeout))

	// The simulated EEPROM starts erased; provision the key through the
	// bus the same way a factory step would.
	if *eepromSpec == "sim" {
		for i, b := range demoPSK {
			if err := ctl.EEPROM.Program(byte(i), b); err != nil {
				return fmt.Errorf("provision key: %w", err)
			}
		}
	}

	info, id, err := ctl.Run()
	if err != nil {
		return err
	}

	fmt.Printf("Card detected:\n")
	fmt.Printf("  UID:  %s\n", hex.EncodeToString(info.UID[:]))
	fmt.Printf("  ATQA: %s\n", hex.EncodeToString(info.ATQA[:]))
	fmt.Printf("  SAK:  %02x\n", info.SAK)
	fmt.Printf("Authentication succeeded\n")
	fmt.Printf("Secret id: %s\n", hex.EncodeToString(id))
	return nil
}

// newMaster builds a Master port from a flag spec. The sim constructor
// is called only for the "sim" spec so each port gets its own device.
func newMaster(spec string, newSim func() spisim.Master) (spisim.Master, error) {
	switch {
	case spec == "sim":
		return newSim(), nil
	case strings.HasPrefix(spec, "buspirate:"):
		return buspirate.New(strings.TrimPrefix(spec, "buspirate:"))
	case strings.HasPrefix(spec, "spi:"):
		return periphspi.New(strings.TrimPrefix(spec, "spi:"))
	default:
		return nil, fmt.Errorf("unknown port spec %q: %w", spec, spisim.ErrInvalidParameter)
	}
}

func newSimEEPROM() spisim.Master {
	dev := eeprom.New()
	bus := spisim.NewBus("eeprom", dev, gpio.High)
	return spisim.NewBusMaster(bus)
}

func newSimReader() spisim.Master {
	dev := reader.New()
	dev.AttachCard(reader.NewCard([4]byte{0x01, 0x02, 0x03, 0x04}, demoPSK, demoSecretID))
	bus := spisim.NewBus("reader", dev, gpio.Low)
	return spisim.NewBusMaster(bus)
}
