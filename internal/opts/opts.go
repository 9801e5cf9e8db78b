/*
 * Copyright 2025 r2dec2 Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package opts

import (
	"os"
	"strconv"
)

const (
	_DefaultTabSize  = 4
	_DefaultGuides   = 1       // 0: none, 1: solid, 2: dashed
	_DefaultTheme    = "dark+" // "none", "default", "dark+"
	_DefaultMaxIters = 256     // fixpoint cap per pass
)

var (
	MaxFixpointIters = parseOrDefault("PDD_MAX_FIXPOINT_ITERS", _DefaultMaxIters, 8)
	DebugCheck       = os.Getenv("PDD_DEBUG_CHECK") != ""
)

// Options is the full configuration surface consumed by the pipeline
// and the printer. The zero value is not usable; start from Default.
type Options struct {
	/* optimization settings */
	NoAlias bool // assume memory dereferences do not alias

	/* control flow settings */
	Converge bool // collapse related conditions via the relation lattice

	/* output settings */
	Offsets bool
	Guides  int
	NewLine bool
	TabSize int
	Theme   string

	/* pass settings */
	MaxIters int
}

func Default() *Options {
	return &Options{
		NoAlias:  false,
		Converge: true,
		Offsets:  true,
		Guides:   _DefaultGuides,
		NewLine:  true,
		TabSize:  _DefaultTabSize,
		Theme:    _DefaultTheme,
		MaxIters: MaxFixpointIters,
	}
}

func parseOrDefault(key string, def int, min int) int {
	if env := os.Getenv(key); env == "" {
		return def
	} else if val, err := strconv.ParseUint(env, 0, 64); err != nil {
		panic("pdd: invalid value for " + key)
	} else if ret := int(val); ret <= min {
		panic("pdd: value too small for " + key)
	} else {
		return ret
	}
}
