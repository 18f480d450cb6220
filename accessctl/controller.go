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

// Package accessctl is the host side of the access-control device: it
// drives the EEPROM and reader models (or real hardware behind the same
// Master interface) through key loading, card detection and the
// AES-based challenge-response handshake.
package accessctl

import (
	"bytes"
	"fmt"
	"time"

	spisim "github.com/accesslab/go-spisim"
	"github.com/accesslab/go-spisim/internal/ecb"
	"github.com/accesslab/go-spisim/internal/mfrc522"
)

// defaultHostNonce is the terminal's half of the mutual authentication.
// Deterministic by default so runs are reproducible; override with
// WithHostNonce.
var defaultHostNonce = [8]byte{0xA1, 0xB2, 0xC3, 0xD4, 0xE5, 0xF6, 0x07, 0x18}

// CardInfo describes a detected card.
type CardInfo struct {
	UID  [4]byte
	ATQA [2]byte
	SAK  byte
}

// Controller orchestrates the access-control sequence over two SPI
// ports: the key store and the contactless reader.
type Controller struct {
	EEPROM *EEPROMClient
	Reader *ReaderClient

	timeout   time.Duration
	hostNonce [8]byte

	psk     [KeySize]byte
	havePSK bool
	session []byte
}

// Option configures a Controller.
type Option func(*Controller)

// WithTimeout bounds each reader transceive.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

// WithHostNonce replaces the deterministic terminal nonce used during
// authentication.
func WithHostNonce(nonce [8]byte) Option {
	return func(c *Controller) { c.hostNonce = nonce }
}

// New returns a controller over the given EEPROM and reader ports.
func New(eepromPort, readerPort spisim.Master, opts ...Option) *Controller {
	c := &Controller{
		EEPROM:    NewEEPROMClient(eepromPort),
		Reader:    NewReaderClient(readerPort),
		timeout:   time.Second,
		hostNonce: defaultHostNonce,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Reader.SetTimeout(c.timeout)
	return c
}

// LoadKey reads the pre-shared key out of the EEPROM. Must run before
// Authenticate.
func (c *Controller) LoadKey() error {
	key, err := c.EEPROM.ReadKey()
	if err != nil {
		return err
	}
	c.psk = key
	c.havePSK = true
	return nil
}

// Detect runs the ISO 14443-style selection sequence: request, then
// anticollision for the UID, then select for the SAK. Returns
// spisim.ErrNoCard when nothing answers the request.
func (c *Controller) Detect() (*CardInfo, error) {
	atqa, err := c.Reader.Transceive([]byte{mfrc522.PiccREQA})
	if err != nil {
		return nil, err
	}
	if len(atqa) != 2 {
		return nil, fmt.Errorf("detect: ATQA length %d, want 2: %w", len(atqa), spisim.ErrInvalidResponse)
	}

	anticoll, err := c.Reader.Transceive([]byte{mfrc522.PiccAnticoll, mfrc522.PiccAnticollNVB})
	if err != nil {
		return nil, err
	}
	if len(anticoll) != 5 {
		return nil, fmt.Errorf("detect: anticollision length %d, want 5: %w", len(anticoll), spisim.ErrInvalidResponse)
	}
	var bcc byte
	for _, b := range anticoll[:4] {
		bcc ^= b
	}
	if bcc != anticoll[4] {
		return nil, fmt.Errorf("detect: UID checksum %#02x, computed %#02x: %w",
			anticoll[4], bcc, spisim.ErrChecksumMismatch)
	}

	sel := append([]byte{mfrc522.PiccSelect, mfrc522.PiccSelectNVB}, anticoll...)
	sak, err := c.Reader.Transceive(sel)
	if err != nil {
		return nil, err
	}
	if len(sak) != 3 {
		return nil, fmt.Errorf("detect: SAK length %d, want 3: %w", len(sak), spisim.ErrInvalidResponse)
	}

	info := &CardInfo{SAK: sak[0]}
	copy(info.ATQA[:], atqa)
	copy(info.UID[:], anticoll[:4])
	return info, nil
}

// Authenticate runs the mutual challenge-response handshake and derives
// the session key. The card encrypts its challenge under the pre-shared
// key; the terminal answers with its own nonce and the echoed challenge,
// also encrypted. spisim.ErrAuthFailed means the card rejected the
// answer, which is what a wrong key looks like.
func (c *Controller) Authenticate() error {
	if !c.havePSK {
		return fmt.Errorf("authenticate: key not loaded: %w", spisim.ErrNotAuthenticated)
	}
	c.session = nil

	ct, err := c.Reader.Transceive([]byte{mfrc522.AuthClass, mfrc522.AuthInit})
	if err != nil {
		return err
	}
	if len(ct) != 16 {
		return fmt.Errorf("authenticate: challenge length %d, want 16: %w", len(ct), spisim.ErrInvalidResponse)
	}
	pt, err := ecb.Decrypt(c.psk[:], ct)
	if err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}
	cardChallenge := pt[:8]

	var block [16]byte
	copy(block[:8], c.hostNonce[:])
	copy(block[8:], cardChallenge)
	answer, err := ecb.Encrypt(c.psk[:], block[:])
	if err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}

	verdict, err := c.Reader.Transceive(append([]byte{mfrc522.AuthClass, mfrc522.AuthVerify}, answer...))
	if err != nil {
		return err
	}
	if !bytes.Equal(verdict, []byte{mfrc522.AuthOK}) {
		return fmt.Errorf("authenticate: card replied % 02x: %w", verdict, spisim.ErrAuthFailed)
	}

	// Session key: the card encrypts (challenge || host nonce) under the
	// shared key. Both sides can derive it independently.
	copy(block[:8], cardChallenge)
	copy(block[8:], c.hostNonce[:])
	c.session, err = ecb.Encrypt(c.psk[:], block[:])
	if err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}
	return nil
}

// SessionKey returns a copy of the derived session key, nil before a
// successful Authenticate.
func (c *Controller) SessionKey() []byte {
	if c.session == nil {
		return nil
	}
	return append([]byte(nil), c.session...)
}

// FetchID retrieves and decrypts the card's secret identifier. Requires
// a prior successful Authenticate.
func (c *Controller) FetchID() ([]byte, error) {
	if c.session == nil {
		return nil, fmt.Errorf("fetch id: %w", spisim.ErrNotAuthenticated)
	}
	reply, err := c.Reader.Transceive([]byte{mfrc522.AuthClass, mfrc522.AuthGetID})
	if err != nil {
		return nil, err
	}
	if len(reply) == 1 && reply[0] == mfrc522.AuthFail {
		return nil, fmt.Errorf("fetch id: card refused: %w", spisim.ErrAuthFailed)
	}
	if len(reply) != 16 {
		return nil, fmt.Errorf("fetch id: payload length %d, want 16: %w", len(reply), spisim.ErrInvalidResponse)
	}
	id, err := ecb.Decrypt(c.session, reply)
	if err != nil {
		return nil, fmt.Errorf("fetch id: %w", err)
	}
	return id, nil
}

// Run executes the whole access sequence: load the key, detect a card,
// authenticate and fetch its secret identifier.
func (c *Controller) Run() (*CardInfo, []byte, error) {
	if err := c.LoadKey(); err != nil {
		return nil, nil, err
	}
	info, err := c.Detect()
	if err != nil {
		return nil, nil, err
	}
	if err := c.Authenticate(); err != nil {
		return info, nil, err
	}
	id, err := c.FetchID()
	if err != nil {
		return info, nil, err
	}
	return info, id, nil
}
