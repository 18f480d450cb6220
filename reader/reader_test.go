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

package reader_test

import (
	"testing"

	spisim "github.com/accesslab/go-spisim"
	"github.com/accesslab/go-spisim/internal/mfrc522"
	"github.com/accesslab/go-spisim/reader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
)

var (
	testPSK      = [16]byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F}
	testSecretID = [16]byte{0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA}
	testUID      = [4]byte{0x01, 0x02, 0x03, 0x04}
)

func newMaster(t *testing.T) (*spisim.BusMaster, *reader.Device) {
	t.Helper()
	dev := reader.New()
	bus := spisim.NewBus("reader", dev, gpio.Low)
	return spisim.NewBusMaster(bus), dev
}

func readReg(t *testing.T, m *spisim.BusMaster, addr byte) byte {
	t.Helper()
	rx, err := m.Exchange([]byte{mfrc522.ReadAddr(addr), 0x00})
	require.NoError(t, err)
	return rx[1]
}

func writeReg(t *testing.T, m *spisim.BusMaster, addr, v byte) {
	t.Helper()
	_, err := m.Exchange([]byte{mfrc522.WriteAddr(addr), v})
	require.NoError(t, err)
}

// transceive loads a frame, runs the command, and returns the interrupt
// flags plus the FIFO content.
func transceive(t *testing.T, m *spisim.BusMaster, frame []byte) (irq byte, reply []byte) {
	t.Helper()
	writeReg(t, m, mfrc522.RegComIrq, 0x00)
	for _, b := range frame {
		writeReg(t, m, mfrc522.RegFIFOData, b)
	}
	writeReg(t, m, mfrc522.RegCommand, mfrc522.CmdTransceive)
	irq = readReg(t, m, mfrc522.RegComIrq)
	level := readReg(t, m, mfrc522.RegFIFOLevel)
	for i := 0; i < int(level); i++ {
		reply = append(reply, readReg(t, m, mfrc522.RegFIFOData))
	}
	return irq, reply
}

func TestReaderVersionRegister(t *testing.T) {
	t.Parallel()

	m, _ := newMaster(t)
	assert.Equal(t, byte(mfrc522.VersionChip), readReg(t, m, mfrc522.RegVersion))

	// The identifier is read-only.
	writeReg(t, m, mfrc522.RegVersion, 0x00)
	assert.Equal(t, byte(mfrc522.VersionChip), readReg(t, m, mfrc522.RegVersion))
}

func TestReaderRegisterRoundTrip(t *testing.T) {
	t.Parallel()

	m, _ := newMaster(t)

	writeReg(t, m, 0x2A, 0x8D)
	assert.Equal(t, byte(0x8D), readReg(t, m, 0x2A))

	// Unwritten registers read back zero.
	assert.Equal(t, byte(0x00), readReg(t, m, 0x2B))
}

func TestReaderFIFOLevelTracksQueue(t *testing.T) {
	t.Parallel()

	m, dev := newMaster(t)

	for i, b := range []byte{0x11, 0x22, 0x33} {
		writeReg(t, m, mfrc522.RegFIFOData, b)
		assert.Equal(t, byte(i+1), readReg(t, m, mfrc522.RegFIFOLevel))
	}
	require.Equal(t, 3, dev.FIFOLen())

	assert.Equal(t, byte(0x11), readReg(t, m, mfrc522.RegFIFOData))
	assert.Equal(t, byte(2), readReg(t, m, mfrc522.RegFIFOLevel))
	assert.Equal(t, byte(0x22), readReg(t, m, mfrc522.RegFIFOData))
	assert.Equal(t, byte(0x33), readReg(t, m, mfrc522.RegFIFOData))
	assert.Equal(t, byte(0), readReg(t, m, mfrc522.RegFIFOLevel))
}

func TestReaderEmptyFIFOReadsZero(t *testing.T) {
	t.Parallel()

	m, _ := newMaster(t)
	assert.Equal(t, byte(0x00), readReg(t, m, mfrc522.RegFIFOData))
	assert.Equal(t, byte(0x00), readReg(t, m, mfrc522.RegFIFOLevel))
}

func TestReaderTransceiveWithoutCard(t *testing.T) {
	t.Parallel()

	m, dev := newMaster(t)

	irq, reply := transceive(t, m, []byte{mfrc522.PiccREQA})
	assert.Equal(t, byte(mfrc522.IrqTimer), irq&mfrc522.IrqTimer)
	assert.Zero(t, irq&mfrc522.IrqRx)
	assert.Empty(t, reply)
	assert.Zero(t, dev.FIFOLen(), "request frame must be drained even on timeout")
}

func TestReaderTransceiveWithRemovedCard(t *testing.T) {
	t.Parallel()

	m, dev := newMaster(t)
	card := reader.NewCard(testUID, testPSK, testSecretID)
	card.Remove()
	dev.AttachCard(card)

	irq, reply := transceive(t, m, []byte{mfrc522.PiccREQA})
	assert.Equal(t, byte(mfrc522.IrqTimer), irq&mfrc522.IrqTimer)
	assert.Empty(t, reply)
}

func TestReaderRequestAnswered(t *testing.T) {
	t.Parallel()

	m, dev := newMaster(t)
	dev.AttachCard(reader.NewCard(testUID, testPSK, testSecretID))

	irq, reply := transceive(t, m, []byte{mfrc522.PiccREQA})
	assert.Equal(t, byte(mfrc522.IrqRx), irq&mfrc522.IrqRx)
	assert.Equal(t, []byte{0x04, 0x00}, reply)
}

func TestReaderAnticollisionReturnsUIDWithChecksum(t *testing.T) {
	t.Parallel()

	m, dev := newMaster(t)
	dev.AttachCard(reader.NewCard(testUID, testPSK, testSecretID))

	_, reply := transceive(t, m, []byte{mfrc522.PiccAnticoll, mfrc522.PiccAnticollNVB})
	require.Len(t, reply, 5)
	assert.Equal(t, testUID[:], reply[:4])
	assert.Equal(t, byte(0x01^0x02^0x03^0x04), reply[4])
}

func TestReaderSelectAcknowledged(t *testing.T) {
	t.Parallel()

	m, dev := newMaster(t)
	card := reader.NewCard(testUID, testPSK, testSecretID)
	dev.AttachCard(card)

	frame := append([]byte{mfrc522.PiccSelect, mfrc522.PiccSelectNVB}, testUID[:]...)
	frame = append(frame, card.BCC())
	_, reply := transceive(t, m, frame)
	assert.Equal(t, []byte{0x08, 0xB6, 0xDD}, reply)
}

func TestReaderUnknownFrameTimesOut(t *testing.T) {
	t.Parallel()

	m, dev := newMaster(t)
	dev.AttachCard(reader.NewCard(testUID, testPSK, testSecretID))

	irq, reply := transceive(t, m, []byte{0xE7, 0x00})
	assert.Equal(t, byte(mfrc522.IrqTimer), irq&mfrc522.IrqTimer)
	assert.Empty(t, reply)
}

func TestReaderInterruptFlagsAccumulate(t *testing.T) {
	t.Parallel()

	m, dev := newMaster(t)
	dev.AttachCard(reader.NewCard(testUID, testPSK, testSecretID))

	// Timeout, then success, without clearing in between: both flags
	// stay latched until the host writes the register.
	_, err := m.Exchange([]byte{mfrc522.WriteAddr(mfrc522.RegFIFOData), 0xE7})
	require.NoError(t, err)
	writeReg(t, m, mfrc522.RegCommand, mfrc522.CmdTransceive)

	for _, b := range []byte{mfrc522.PiccREQA} {
		writeReg(t, m, mfrc522.RegFIFOData, b)
	}
	writeReg(t, m, mfrc522.RegCommand, mfrc522.CmdTransceive)

	irq := readReg(t, m, mfrc522.RegComIrq)
	assert.Equal(t, byte(mfrc522.IrqTimer|mfrc522.IrqRx), irq&(mfrc522.IrqTimer|mfrc522.IrqRx))

	writeReg(t, m, mfrc522.RegComIrq, 0x00)
	assert.Equal(t, byte(0x00), readReg(t, m, mfrc522.RegComIrq))
}

func TestReaderIdleCommandIsNoOp(t *testing.T) {
	t.Parallel()

	m, _ := newMaster(t)
	writeReg(t, m, mfrc522.RegFIFOData, 0x42)
	writeReg(t, m, mfrc522.RegCommand, mfrc522.CmdIdle)
	assert.Equal(t, byte(1), readReg(t, m, mfrc522.RegFIFOLevel), "idle must not drain the FIFO")
}
