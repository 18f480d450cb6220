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

// Package polling watches the reader for card arrival and removal and
// reports transitions through callbacks.
package polling

import (
	"context"
	"errors"
	"fmt"
	"time"

	spisim "github.com/accesslab/go-spisim"
	"github.com/accesslab/go-spisim/accessctl"
)

// Config controls the polling cadence.
type Config struct {
	// Interval between detection attempts.
	Interval time.Duration
}

// DefaultConfig returns the default polling configuration.
func DefaultConfig() *Config {
	return &Config{Interval: 100 * time.Millisecond}
}

// CardState tracks what the monitor last saw in the field.
type CardState struct {
	Present bool
	LastUID [4]byte
}

// Monitor polls the controller for card presence and drives the state
// machine between absent and present.
type Monitor struct {
	ctl            *accessctl.Controller
	config         *Config
	OnCardDetected func(info *accessctl.CardInfo) error
	OnCardRemoved  func()
	OnCardChanged  func(info *accessctl.CardInfo) error
	state          CardState
}

// NewMonitor creates a monitor over the given controller. A nil config
// selects the defaults.
func NewMonitor(ctl *accessctl.Controller, config *Config) *Monitor {
	if config == nil {
		config = DefaultConfig()
	}
	return &Monitor{ctl: ctl, config: config}
}

// GetState returns the current card state.
func (m *Monitor) GetState() CardState {
	return m.state
}

// Start polls until the context is cancelled. Detection errors other
// than an empty field are returned; an empty field is a state, not an
// error.
func (m *Monitor) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		info, err := m.ctl.Detect()
		switch {
		case err == nil:
			m.handleCardPresent(info)
		case errors.Is(err, spisim.ErrNoCard):
			m.handleCardAbsent()
		default:
			return fmt.Errorf("polling: %w", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.config.Interval):
		}
	}
}

func (m *Monitor) handleCardPresent(info *accessctl.CardInfo) {
	if !m.state.Present {
		m.state.Present = true
		m.state.LastUID = info.UID
		if m.OnCardDetected != nil {
			_ = m.OnCardDetected(info)
		}
		return
	}
	if m.state.LastUID != info.UID {
		m.state.LastUID = info.UID
		if m.OnCardChanged != nil {
			_ = m.OnCardChanged(info)
		}
	}
}

func (m *Monitor) handleCardAbsent() {
	if m.state.Present {
		m.state = CardState{}
		if m.OnCardRemoved != nil {
			m.OnCardRemoved()
		}
	}
}
