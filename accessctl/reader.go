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
	"fmt"
	"time"

	spisim "github.com/accesslab/go-spisim"
	"github.com/accesslab/go-spisim/internal/mfrc522"
	"github.com/accesslab/go-spisim/internal/retry"
)

// ReaderClient drives the contactless reader through a Master port.
type ReaderClient struct {
	m       spisim.Master
	timeout time.Duration
}

// NewReaderClient returns a client for the given master.
func NewReaderClient(m spisim.Master) *ReaderClient {
	return &ReaderClient{m: m, timeout: time.Second}
}

// SetTimeout bounds how long Transceive waits for an interrupt flag.
func (c *ReaderClient) SetTimeout(d time.Duration) { c.timeout = d }

// ReadReg reads one register.
func (c *ReaderClient) ReadReg(addr byte) (byte, error) {
	rx, err := c.m.Exchange([]byte{mfrc522.ReadAddr(addr), 0x00})
	if err != nil {
		return 0, fmt.Errorf("read reg %#02x: %w", addr, err)
	}
	return rx[1], nil
}

// WriteReg writes one register.
func (c *ReaderClient) WriteReg(addr, v byte) error {
	if _, err := c.m.Exchange([]byte{mfrc522.WriteAddr(addr), v}); err != nil {
		return fmt.Errorf("write reg %#02x: %w", addr, err)
	}
	return nil
}

// Version returns the chip version identifier.
func (c *ReaderClient) Version() (byte, error) {
	return c.ReadReg(mfrc522.RegVersion)
}

// Idle cancels any in-progress command.
func (c *ReaderClient) Idle() error {
	return c.WriteReg(mfrc522.RegCommand, mfrc522.CmdIdle)
}

func (c *ReaderClient) writeFIFO(data []byte) error {
	for _, b := range data {
		if err := c.WriteReg(mfrc522.RegFIFOData, b); err != nil {
			return err
		}
	}
	return nil
}

func (c *ReaderClient) readFIFO() ([]byte, error) {
	level, err := c.ReadReg(mfrc522.RegFIFOLevel)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, level)
	for i := 0; i < int(level); i++ {
		b, err := c.ReadReg(mfrc522.RegFIFOData)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// Transceive sends a frame to the card through the reader and returns
// the card's reply. spisim.ErrNoCard is returned when the reader
// reports a timeout, meaning nothing in the field answered.
func (c *ReaderClient) Transceive(frame []byte) ([]byte, error) {
	// Clear stale interrupt flags first; the reader only ever sets them.
	if err := c.WriteReg(mfrc522.RegComIrq, 0x00); err != nil {
		return nil, err
	}
	if err := c.writeFIFO(frame); err != nil {
		return nil, err
	}
	if err := c.WriteReg(mfrc522.RegCommand, mfrc522.CmdTransceive); err != nil {
		return nil, err
	}

	irq, err := retry.Timeout(c.timeout, func() (byte, bool, error) {
		v, err := c.ReadReg(mfrc522.RegComIrq)
		if err != nil {
			return 0, false, err
		}
		if v&(mfrc522.IrqRx|mfrc522.IrqTimer) == 0 {
			return 0, true, nil
		}
		return v, false, nil
	})
	if err != nil {
		return nil, fmt.Errorf("transceive: %w", err)
	}
	if irq&mfrc522.IrqRx == 0 {
		return nil, spisim.ErrNoCard
	}
	return c.readFIFO()
}
