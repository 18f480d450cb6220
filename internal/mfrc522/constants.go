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

// Package mfrc522 holds the register map, command values and card
// protocol constants shared by the reader model and its host-side
// clients.
package mfrc522

// Register addresses (6 bits).
const (
	RegCommand    = 0x01 // Starts and stops command execution
	RegComIEn     = 0x02 // Interrupt request enable bits
	RegDivIEn     = 0x03 // More interrupt request enable bits
	RegComIrq     = 0x04 // Interrupt request bits
	RegDivIrq     = 0x05 // More interrupt request bits
	RegError      = 0x06 // Error status of the last command
	RegStatus1    = 0x07 // Communication status bits
	RegStatus2    = 0x08 // Receiver and transmitter status bits
	RegFIFOData   = 0x09 // In/out exchange register of the FIFO
	RegFIFOLevel  = 0x0A // Number of bytes stored in the FIFO
	RegControl    = 0x0C // Miscellaneous control bits
	RegBitFraming = 0x0D // Bit-oriented frame adjustments
	RegColl       = 0x0E // Collision position on the RF interface
	RegMode       = 0x11 // General transmit and receive mode
	RegTxControl  = 0x14 // Antenna driver control
	RegTxASK      = 0x15 // Transmit modulation control
	RegVersion    = 0x37 // Chip version identifier, read-only
)

// Command register values.
const (
	CmdIdle       = 0x00 // Cancel any running command
	CmdTransceive = 0x0C // Transmit FIFO contents and receive the reply
)

// Interrupt request flag bits in RegComIrq. The model only ever sets
// these; clearing is the host's job via a register write.
const (
	IrqTimer = 0x01 // Timeout: nothing in the field answered
	IrqRx    = 0x20 // Receive complete: the reply is in the FIFO
)

// VersionChip is the fixed identifier reported by RegVersion.
const VersionChip = 0x92

// ISO14443A card commands, sent as transceive payloads.
const (
	PiccREQA        = 0x26 // Request, 1-byte frame
	PiccAnticoll    = 0x93 // Anticollision cascade level 1
	PiccSelect      = 0x93 // Select, same leading byte as anticollision
	PiccAnticollNVB = 0x20 // NVB byte distinguishing anticollision
	PiccSelectNVB   = 0x70 // NVB byte for a full select frame
)

// Proprietary authentication protocol, carried as transceive payloads.
const (
	AuthClass  = 0x80 // Leading byte of every authentication frame
	AuthInit   = 0x10 // Request an encrypted challenge
	AuthVerify = 0x11 // Return the mutual-authentication block
	AuthGetID  = 0x12 // Retrieve the secret id under the session key
)

// In-band authentication results.
const (
	AuthOK   = 0x00
	AuthFail = 0xFF
)

// ReadAddr encodes the first transaction byte for a register read:
// bit 7 set, the 6-bit address in bits 6..1, bit 0 clear.
func ReadAddr(addr byte) byte { return 0x80 | (addr&0x3F)<<1 }

// WriteAddr encodes the first transaction byte for a register write.
func WriteAddr(addr byte) byte { return (addr & 0x3F) << 1 }
