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

package accessctl_test

import (
	"testing"
	"time"

	spisim "github.com/accesslab/go-spisim"
	"github.com/accesslab/go-spisim/accessctl"
	"github.com/accesslab/go-spisim/eeprom"
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

// rig is a complete simulated device: provisioned key store, reader and
// card, and a controller wired over both buses.
type rig struct {
	ctl    *accessctl.Controller
	eeprom *eeprom.Device
	card   *reader.Card
}

func newRig(t *testing.T, storedKey [16]byte) *rig {
	t.Helper()

	eepromDev := eeprom.New()
	eepromDev.Load(0, storedKey[:])
	eepromBus := spisim.NewBus("eeprom", eepromDev, gpio.High)

	readerDev := reader.New()
	card := reader.NewCard(testUID, testPSK, testSecretID)
	readerDev.AttachCard(card)
	readerBus := spisim.NewBus("reader", readerDev, gpio.Low)

	ctl := accessctl.New(
		spisim.NewBusMaster(eepromBus),
		spisim.NewBusMaster(readerBus),
		accessctl.WithTimeout(100*time.Millisecond),
	)
	return &rig{ctl: ctl, eeprom: eepromDev, card: card}
}

func TestControllerRun(t *testing.T) {
	t.Parallel()

	r := newRig(t, testPSK)
	info, id, err := r.ctl.Run()
	require.NoError(t, err)

	assert.Equal(t, testUID, info.UID)
	assert.Equal(t, [2]byte{0x04, 0x00}, info.ATQA)
	assert.Equal(t, byte(0x08), info.SAK)
	assert.Equal(t, testSecretID[:], id)

	// Both ends derived the same session key.
	assert.Equal(t, r.card.SessionKey(), r.ctl.SessionKey())
}

func TestControllerDetect(t *testing.T) {
	t.Parallel()

	r := newRig(t, testPSK)
	info, err := r.ctl.Detect()
	require.NoError(t, err)
	assert.Equal(t, testUID, info.UID)
}

func TestControllerDetectNoCard(t *testing.T) {
	t.Parallel()

	r := newRig(t, testPSK)
	r.card.Remove()

	_, err := r.ctl.Detect()
	require.ErrorIs(t, err, spisim.ErrNoCard)
}

func TestControllerCardRemovedMidSequence(t *testing.T) {
	t.Parallel()

	r := newRig(t, testPSK)
	require.NoError(t, r.ctl.LoadKey())
	_, err := r.ctl.Detect()
	require.NoError(t, err)

	r.card.Remove()
	err = r.ctl.Authenticate()
	require.ErrorIs(t, err, spisim.ErrNoCard)
}

func TestControllerAuthenticateWrongKey(t *testing.T) {
	t.Parallel()

	wrongKey := testPSK
	wrongKey[0] ^= 0xFF
	r := newRig(t, wrongKey)

	require.NoError(t, r.ctl.LoadKey())
	err := r.ctl.Authenticate()
	require.ErrorIs(t, err, spisim.ErrAuthFailed)
	assert.Nil(t, r.ctl.SessionKey())

	// The card also refuses the payload afterwards.
	assert.Equal(t, reader.Unauthenticated, r.card.State())
}

func TestControllerAuthenticateWithoutKeyLoaded(t *testing.T) {
	t.Parallel()

	r := newRig(t, testPSK)
	err := r.ctl.Authenticate()
	require.ErrorIs(t, err, spisim.ErrNotAuthenticated)
}

func TestControllerFetchIDBeforeAuthenticate(t *testing.T) {
	t.Parallel()

	r := newRig(t, testPSK)
	_, err := r.ctl.FetchID()
	require.ErrorIs(t, err, spisim.ErrNotAuthenticated)
}

func TestControllerFetchID(t *testing.T) {
	t.Parallel()

	r := newRig(t, testPSK)
	require.NoError(t, r.ctl.LoadKey())
	require.NoError(t, r.ctl.Authenticate())

	id, err := r.ctl.FetchID()
	require.NoError(t, err)
	assert.Equal(t, testSecretID[:], id)
}

func TestControllerHostNonceOption(t *testing.T) {
	t.Parallel()

	eepromDev := eeprom.New()
	eepromDev.Load(0, testPSK[:])
	readerDev := reader.New()
	readerDev.AttachCard(reader.NewCard(testUID, testPSK, testSecretID))

	nonce := [8]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	ctl := accessctl.New(
		spisim.NewBusMaster(spisim.NewBus("eeprom", eepromDev, gpio.High)),
		spisim.NewBusMaster(spisim.NewBus("reader", readerDev, gpio.Low)),
		accessctl.WithHostNonce(nonce),
	)

	require.NoError(t, ctl.LoadKey())
	require.NoError(t, ctl.Authenticate())
	assert.Equal(t, readerDev.Card().SessionKey(), ctl.SessionKey())
}

func TestReaderClientVersion(t *testing.T) {
	t.Parallel()

	r := newRig(t, testPSK)
	v, err := r.ctl.Reader.Version()
	require.NoError(t, err)
	assert.Equal(t, byte(0x92), v)
}

func TestEEPROMClientProgramAndReadKey(t *testing.T) {
	t.Parallel()

	r := newRig(t, [16]byte{})
	c := r.ctl.EEPROM

	for i, b := range testPSK {
		require.NoError(t, c.Program(byte(i), b))
	}

	key, err := c.ReadKey()
	require.NoError(t, err)
	assert.Equal(t, testPSK, key)
}

func TestEEPROMClientWriteWithoutEnableFailsVerify(t *testing.T) {
	t.Parallel()

	r := newRig(t, testPSK)
	c := r.ctl.EEPROM

	// A bare write silently does nothing, so readback still sees the
	// provisioned key byte.
	require.NoError(t, c.WriteByte(0x00, 0x55))
	got, err := c.ReadByte(0x00)
	require.NoError(t, err)
	assert.Equal(t, testPSK[0], got)
}

func TestEEPROMClientStatus(t *testing.T) {
	t.Parallel()

	r := newRig(t, testPSK)
	c := r.ctl.EEPROM

	status, err := c.Status()
	require.NoError(t, err)
	assert.Equal(t, byte(0x00), status)

	require.NoError(t, c.WriteEnable())
	status, err = c.Status()
	require.NoError(t, err)
	assert.Equal(t, byte(0x02), status)

	require.NoError(t, c.WriteDisable())
	status, err = c.Status()
	require.NoError(t, err)
	assert.Equal(t, byte(0x00), status)
}
