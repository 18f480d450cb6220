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

// Package ecb implements the AES electronic-codebook operations the card
// protocol is built on. The protocol exchanges single 16-byte blocks, so
// ECB is the wire format here, not a recommendation.
package ecb

import (
	"crypto/aes"
	"fmt"
)

// Encrypt runs AES-ECB over src, which must be a whole number of blocks.
func Encrypt(key, src []byte) ([]byte, error) {
	return apply(key, src, true)
}

// Decrypt runs AES-ECB decryption over src, which must be a whole number
// of blocks.
func Decrypt(key, src []byte) ([]byte, error) {
	return apply(key, src, false)
}

func apply(key, src []byte, encrypt bool) ([]byte, error) {
	blk, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("ecb: %w", err)
	}
	if len(src)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("ecb: input length %d is not a multiple of the block size", len(src))
	}
	out := make([]byte, len(src))
	for i := 0; i < len(src); i += aes.BlockSize {
		if encrypt {
			blk.Encrypt(out[i:i+aes.BlockSize], src[i:i+aes.BlockSize])
		} else {
			blk.Decrypt(out[i:i+aes.BlockSize], src[i:i+aes.BlockSize])
		}
	}
	return out, nil
}
