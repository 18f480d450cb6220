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

package accessctl

import (
	"errors"
	"fmt"

	spisim "github.com/accesslab/go-spisim"
	"github.com/accesslab/go-spisim/eeprom"
)

// ErrVerify is returned by Program when the readback does not match the
// written data, which is what a write without the write-enable latch
// looks like from the host side.
var ErrVerify = errors.New("write verification failed")

// KeySize is the length of the pre-shared key stored at the start of the
// EEPROM.
const KeySize = 16

// EEPROMClient drives the serial EEPROM through a Master port.
type EEPROMClient struct {
	m spisim.Master
}

// NewEEPROMClient returns a client for the given master.
func NewEEPROMClient(m spisim.Master) *EEPROMClient {
	return &EEPROMClient{m: m}
}

// Status reads the status register. Bit 1 is the write-enable latch.
func (c *EEPROMClient) Status() (byte, error) {
	rx, err := c.m.Exchange([]byte{eeprom.OpRDSR, 0x00})
	if err != nil {
		return 0, fmt.Errorf("read status: %w", err)
	}
	return rx[1], nil
}

// WriteEnable sets the write-enable latch.
func (c *EEPROMClient) WriteEnable() error {
	if _, err := c.m.Exchange([]byte{eeprom.OpWREN}); err != nil {
		return fmt.Errorf("write enable: %w", err)
	}
	return nil
}

// WriteDisable clears the write-enable latch.
func (c *EEPROMClient) WriteDisable() error {
	if _, err := c.m.Exchange([]byte{eeprom.OpWRDI}); err != nil {
		return fmt.Errorf("write disable: %w", err)
	}
	return nil
}

// WriteStatus stores v in the status register.
func (c *EEPROMClient) WriteStatus(v byte) error {
	if _, err := c.m.Exchange([]byte{eeprom.OpWRSR, v}); err != nil {
		return fmt.Errorf("write status: %w", err)
	}
	return nil
}

// ReadByte returns the cell at addr.
func (c *EEPROMClient) ReadByte(addr byte) (byte, error) {
	rx, err := c.m.Exchange([]byte{eeprom.OpREAD, addr, 0x00})
	if err != nil {
		return 0, fmt.Errorf("read %#02x: %w", addr, err)
	}
	return rx[2], nil
}

// WriteByte stores v at addr. The device silently ignores this unless
// the write-enable latch is set; use Program for the checked sequence.
func (c *EEPROMClient) WriteByte(addr, v byte) error {
	if _, err := c.m.Exchange([]byte{eeprom.OpWRITE, addr, v}); err != nil {
		return fmt.Errorf("write %#02x: %w", addr, err)
	}
	return nil
}

// Program runs the full checked write sequence: enable, write, read
// back. The device clears the latch on its own after the write.
func (c *EEPROMClient) Program(addr, v byte) error {
	if err := c.WriteEnable(); err != nil {
		return err
	}
	if err := c.WriteByte(addr, v); err != nil {
		return err
	}
	got, err := c.ReadByte(addr)
	if err != nil {
		return err
	}
	if got != v {
		return fmt.Errorf("program %#02x: wrote %#02x, read %#02x: %w", addr, v, got, ErrVerify)
	}
	return nil
}

// ReadKey returns the pre-shared key stored at the start of the EEPROM.
func (c *EEPROMClient) ReadKey() ([KeySize]byte, error) {
	var key [KeySize]byte
	for i := range key {
		b, err := c.ReadByte(byte(i))
		if err != nil {
			return key, fmt.Errorf("read key: %w", err)
		}
		key[i] = b
	}
	return key, nil
}
