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

package reader

import (
	"bytes"

	"github.com/accesslab/go-spisim/internal/ecb"
	"github.com/accesslab/go-spisim/internal/mfrc522"
)

// AuthState is the card's position in the challenge-response handshake.
type AuthState int

const (
	// Unauthenticated is the resting state; also where any failed
	// verification lands.
	Unauthenticated AuthState = iota
	// ChallengeIssued means a challenge is outstanding and only valid
	// until the next verification attempt.
	ChallengeIssued
	// Authenticated means the session key has been derived.
	Authenticated
)

// String returns a human-readable state name.
func (s AuthState) String() string {
	switch s {
	case ChallengeIssued:
		return "challenge-issued"
	case Authenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Card replies.
var (
	atqa     = []byte{0x04, 0x00}       // answer to request
	sakReply = []byte{0x08, 0xB6, 0xDD} // select acknowledge + checksum
)

// defaultChallenge keeps the handshake deterministic. There is no
// randomness requirement in this model.
var defaultChallenge = [8]byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88}

// Card emulates the contactless credential held against the reader. The
// UID, pre-shared key and secret id payload are fixed for the lifetime
// of the card; the challenge and session key follow the handshake.
type Card struct {
	UID      [4]byte
	PSK      [16]byte
	SecretID [16]byte

	// Present gates whether the card answers at all; a lowered flag
	// makes every transceive end in a reader timeout.
	Present bool

	// Challenge is issued verbatim by the next AUTH_INIT.
	Challenge [8]byte

	state   AuthState
	issued  [8]byte
	session []byte
}

// NewCard returns a present card with the default deterministic
// challenge.
func NewCard(uid [4]byte, psk, secretID [16]byte) *Card {
	return &Card{
		UID:       uid,
		PSK:       psk,
		SecretID:  secretID,
		Present:   true,
		Challenge: defaultChallenge,
	}
}

// Insert places the card in the reader's field.
func (c *Card) Insert() { c.Present = true }

// Remove takes the card out of the reader's field.
func (c *Card) Remove() { c.Present = false }

// State returns the card's authentication state.
func (c *Card) State() AuthState { return c.state }

// SessionKey returns a copy of the derived session key, nil before a
// successful authentication.
func (c *Card) SessionKey() []byte {
	if c.session == nil {
		return nil
	}
	return append([]byte(nil), c.session...)
}

// BCC returns the XOR checksum over the UID bytes.
func (c *Card) BCC() byte {
	var bcc byte
	for _, b := range c.UID {
		bcc ^= b
	}
	return bcc
}

type frameHandler func(c *Card, frame []byte) []byte

// dispatchEntry matches a frame by its leading bytes and length. A
// length of -1 selects prefix matching with a separate minimum.
type dispatchEntry struct {
	lead   []byte
	length int
	min    int
	handle frameHandler
}

func (e *dispatchEntry) matches(frame []byte) bool {
	if e.length >= 0 {
		if len(frame) != e.length {
			return false
		}
	} else if len(frame) < e.min {
		return false
	}
	return bytes.HasPrefix(frame, e.lead)
}

// cardDispatch is evaluated in order; first match wins. Anticollision
// must come before select because they share a leading byte; any other
// frame of two or more bytes leading with the select code is a select.
var cardDispatch = []dispatchEntry{
	{lead: []byte{mfrc522.PiccREQA}, length: 1, handle: (*Card).reqa},
	{lead: []byte{mfrc522.PiccAnticoll, mfrc522.PiccAnticollNVB}, length: 2, handle: (*Card).anticoll},
	{lead: []byte{mfrc522.PiccSelect}, length: -1, min: 2, handle: (*Card).selectAck},
	{lead: []byte{mfrc522.AuthClass, mfrc522.AuthInit}, length: 2, handle: (*Card).authInit},
	{lead: []byte{mfrc522.AuthClass, mfrc522.AuthVerify}, length: 18, handle: (*Card).authVerify},
	{lead: []byte{mfrc522.AuthClass, mfrc522.AuthGetID}, length: 2, handle: (*Card).getID},
}

// Exchange runs one over-the-air frame against the card. A nil return
// means the card stayed silent and the reader will report a timeout.
func (c *Card) Exchange(frame []byte) []byte {
	for i := range cardDispatch {
		if cardDispatch[i].matches(frame) {
			return cardDispatch[i].handle(c, frame)
		}
	}
	// No match: the card stays silent.
	return nil
}

func (c *Card) reqa([]byte) []byte {
	return append([]byte(nil), atqa...)
}

func (c *Card) anticoll([]byte) []byte {
	out := append([]byte(nil), c.UID[:]...)
	return append(out, c.BCC())
}

func (c *Card) selectAck([]byte) []byte {
	return append([]byte(nil), sakReply...)
}

// authInit issues a fresh challenge: the 8 challenge bytes padded with 8
// zero bytes, encrypted under the pre-shared key. Issuing a challenge
// always restarts the handshake, invalidating any prior session key.
func (c *Card) authInit([]byte) []byte {
	var block [16]byte
	copy(block[:8], c.Challenge[:])
	ct := mustECB(ecb.Encrypt(c.PSK[:], block[:]))
	c.issued = c.Challenge
	c.session = nil
	c.state = ChallengeIssued
	return ct
}

// authVerify checks the mutual-authentication block. The received
// ciphertext decrypts to rt followed by the echoed challenge; on a match
// the session key is the encryption of the two halves swapped.
func (c *Card) authVerify(frame []byte) []byte {
	if c.state != ChallengeIssued {
		c.state = Unauthenticated
		return []byte{mfrc522.AuthFail}
	}
	pt := mustECB(ecb.Decrypt(c.PSK[:], frame[2:18]))
	rt, rc := pt[:8], pt[8:]
	if !bytes.Equal(rc, c.issued[:]) {
		c.state = Unauthenticated
		c.session = nil
		return []byte{mfrc522.AuthFail}
	}
	var block [16]byte
	copy(block[:8], rc)
	copy(block[8:], rt)
	c.session = mustECB(ecb.Encrypt(c.PSK[:], block[:]))
	c.state = Authenticated
	return []byte{mfrc522.AuthOK}
}

func (c *Card) getID([]byte) []byte {
	if c.state != Authenticated {
		return []byte{mfrc522.AuthFail}
	}
	return mustECB(ecb.Encrypt(c.session, c.SecretID[:]))
}

// mustECB unwraps cipher results. Key and block sizes are fixed by the
// card's types, so a failure here is a defect in the model.
func mustECB(out []byte, err error) []byte {
	if err != nil {
		panic(err)
	}
	return out
}
