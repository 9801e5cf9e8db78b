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
	"sort"

	"github.com/oleiade/lane"

	"github.com/r2dec2/pdd/internal/graph"
	"github.com/r2dec2/pdd/internal/ir"
)

// cloneLoc copies a location expression for use as a phi operand or
// phi target. Address subtrees keep their SSA attributes from earlier
// waves; the location itself starts unsubscripted and undefined, and
// every inner leaf carrying a def link is re-registered as a use.
func cloneLoc(e *ir.Expr) *ir.Expr {
	p := ir.Clone(e, ir.KeepSSA)
	p.Idx = ir.NoIdx
	p.IsDef = false
	p.Def = nil
	p.Weak = false

	for _, s := range p.Sub {
		s.Walk(func(q *ir.Expr) {
			if q.Def != nil {
				q.Def.AddUse(q)
			}
		})
	}
	return p
}

// InsertPhis places phi assignments for every location of the selected
// class, per Cytron et al.: seed a worklist with the blocks defining
// each location, then plant a phi on every dominance-frontier block not
// yet covered, feeding newly-defining blocks back into the worklist.
// Inserted phi targets are weak so later passes may drop them freely.
func InsertPhis(ctx *ir.Ctx, dt *graph.DominatorTree, sel Selector) {
	fn := ctx.Fn

	/* locally defined operands per block; the last def of a location
	 * in a block is the one visible at the block exit */
	orig := make(map[uint64]map[string]*ir.Expr)
	names := []string(nil)
	exemplar := make(map[string]*ir.Expr)

	for _, bb := range fn.Blocks {
		defs := make(map[string]*ir.Expr)
		for _, st := range bb.Body.Stmts {
			for _, e := range st.Expr {
				e.Walk(func(p *ir.Expr) {
					if p.IsDef && sel(p) {
						defs[p.Key()] = p
					}
				})
			}
		}
		orig[bb.Addr] = defs
		for k, p := range defs {
			if _, ok := exemplar[k]; !ok {
				exemplar[k] = p
				names = append(names, k)
			}
		}
	}

	/* stable location order keeps the inserted phi order stable */
	sort.Strings(names)

	/* phi insertion worklist per location */
	for _, v := range names {
		q := lane.NewQueue()
		hasPhi := make(map[uint64]bool)

		for _, bb := range fn.Blocks {
			if _, ok := orig[bb.Addr][v]; ok {
				q.Enqueue(bb)
			}
		}

		for !q.Empty() {
			n := q.Dequeue().(*ir.BasicBlock)

			for _, ya := range dt.Frontier(n.Addr) {
				if hasPhi[ya] {
					continue
				}
				y := fn.BlockAt(ya)
				if y == nil {
					continue
				}
				hasPhi[ya] = true

				/* one phi argument per predecessor, in predecessor order */
				args := make([]*ir.Expr, 0, len(y.Pred))
				for range y.Pred {
					args = append(args, cloneLoc(exemplar[v]))
				}

				lhs := cloneLoc(exemplar[v])
				asg := ir.Assign(lhs, ir.Phi(args...))
				lhs.Weak = true

				y.Body.Prepend(ir.NewStmt(y.Addr, ir.Normal, asg))

				/* the phi is itself a definition of v in y */
				if _, ok := orig[ya][v]; !ok {
					orig[ya][v] = lhs
					q.Enqueue(y)
				}
			}
		}
	}
}
