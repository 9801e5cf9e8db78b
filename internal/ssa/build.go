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

package ssa

import (
	"context"

	"tlog.app/go/tlog"

	"github.com/r2dec2/pdd/internal/graph"
	"github.com/r2dec2/pdd/internal/ir"
)

// Wave is one SSA construction pass over a single name class.
type Wave struct {
	Name string
	Sel  Selector
}

// DefaultWaves is the construction order: registers first, then named
// locals, then memory dereferences. Earlier waves canonicalize the
// address expressions the later waves key on.
var DefaultWaves = []Wave{
	{Name: "registers", Sel: Registers},
	{Name: "variables", Sel: Variables},
	{Name: "derefs", Sel: Derefs},
}

// Build runs the full SSA construction: for every wave, phi insertion,
// renaming and relaxation. The between hook runs after each wave so the
// caller can interpose location-propagation passes (stack pointer,
// flags) before the next wave keys on the rewritten addresses.
func Build(ctx context.Context, sc *ir.Ctx, dt *graph.DominatorTree, between func(wave string)) {
	tr := tlog.SpanFromContext(ctx)

	for _, w := range DefaultWaves {
		InsertPhis(sc, dt, w.Sel)
		Rename(sc, dt, w.Sel)
		Relax(sc)

		tr.V("ssa_wave").Printw("ssa wave done", "wave", w.Name, "defs", len(sc.Defs))

		if between != nil {
			between(w.Name)
		}
	}
}
