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

package spisim

import (
	"github.com/accesslab/go-spisim/internal/debug"
)

// SetDebugEnabled turns trace output from the models and transports on
// or off. It can also be enabled by setting the SPISIM_DEBUG environment
// variable to any non-empty value.
func SetDebugEnabled(enabled bool) {
	debug.SetEnabled(enabled)
}

// DebugEnabled reports whether trace output is enabled.
func DebugEnabled() bool {
	return debug.Enabled()
}

func debugf(format string, args ...any) {
	debug.Debugf(format, args...)
}

func debugln(args ...any) {
	debug.Debugln(args...)
}
