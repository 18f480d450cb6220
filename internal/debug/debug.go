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

// Package debug provides the trace logging shared by the models and
// transports. Output is disabled unless switched on explicitly or via
// the SPISIM_DEBUG environment variable.
package debug

import (
	"fmt"
	"log"
	"os"
	"sync/atomic"
)

var enabled atomic.Bool

func init() {
	if os.Getenv("SPISIM_DEBUG") != "" {
		enabled.Store(true)
	}
}

// SetEnabled turns trace output on or off.
func SetEnabled(v bool) { enabled.Store(v) }

// Enabled reports whether trace output is on.
func Enabled() bool { return enabled.Load() }

// Debugf writes a formatted trace line when enabled.
func Debugf(format string, args ...any) {
	if enabled.Load() {
		_ = log.Output(3, fmt.Sprintf("spisim: "+format, args...))
	}
}

// Debugln writes a trace line when enabled.
func Debugln(args ...any) {
	if enabled.Load() {
		_ = log.Output(3, "spisim: "+fmt.Sprintln(args...))
	}
}
