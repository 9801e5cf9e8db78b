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

package pdd

import (
	"fmt"

	"github.com/r2dec2/pdd/internal/opts"
)

// Option is the property setter function for opts.Options.
type Option func(*opts.Options)

// WithNoAlias assumes memory dereferences never alias, enabling
// aggressive dead-store elimination.
//
// Unsound on hand-written assembly; compiler output is normally fine.
func WithNoAlias(v bool) Option {
	return func(o *opts.Options) { o.NoAlias = v }
}

// WithConverge collapses related conditions through the relation
// lattice, e.g. (x < y) || (x == y) into x <= y.
func WithConverge(v bool) Option {
	return func(o *opts.Options) { o.Converge = v }
}

// WithOffsets prefixes every output line with its address.
func WithOffsets(v bool) Option {
	return func(o *opts.Options) { o.Offsets = v }
}

// WithGuides selects the scope guide style: 0 none, 1 solid, 2 dashed.
func WithGuides(style int) Option {
	if style < 0 || style > 2 {
		panic(fmt.Sprintf("pdd: invalid guide style: %d", style))
	}
	return func(o *opts.Options) { o.Guides = style }
}

// WithTabSize sets the indent width.
func WithTabSize(n int) Option {
	if n <= 0 {
		panic(fmt.Sprintf("pdd: invalid tab size: %d", n))
	}
	return func(o *opts.Options) { o.TabSize = n }
}

// WithTheme selects the highlight palette: "none", "default" or
// "dark+".
func WithTheme(name string) Option {
	return func(o *opts.Options) { o.Theme = name }
}

// WithNewLine puts the opening curly bracket on its own line.
func WithNewLine(v bool) Option {
	return func(o *opts.Options) { o.NewLine = v }
}
