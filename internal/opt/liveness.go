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

package opt

import (
	"github.com/oleiade/lane"

	"github.com/r2dec2/pdd/internal/ir"
)

// Liveness holds per-block live ranges: the definitions alive at block
// entry and exit, and for each definition used within a block, the
// earliest killing statement in that block's container.
type Liveness struct {
	In   map[uint64]map[*ir.Expr]bool
	Out  map[uint64]map[*ir.Expr]bool
	Kill map[uint64]map[*ir.Expr]*ir.Stmt
}

// ComputeLiveness walks the CFG backwards from the exit blocks to a
// fixpoint. With ignoreWeak set, uses sitting in phi argument position
// do not keep a definition alive, matching the relaxed notion the
// preserved-location analysis wants.
func ComputeLiveness(sc *ir.Ctx, ignoreWeak bool) *Liveness {
	fn := sc.Fn

	lv := &Liveness{
		In:   make(map[uint64]map[*ir.Expr]bool, len(fn.Blocks)),
		Out:  make(map[uint64]map[*ir.Expr]bool, len(fn.Blocks)),
		Kill: make(map[uint64]map[*ir.Expr]*ir.Stmt, len(fn.Blocks)),
	}

	uses := make(map[uint64]map[*ir.Expr]bool, len(fn.Blocks))
	defs := make(map[uint64]map[*ir.Expr]bool, len(fn.Blocks))

	/* per-block use/def sets and earliest kills */
	for _, bb := range fn.Blocks {
		u := make(map[*ir.Expr]bool)
		d := make(map[*ir.Expr]bool)
		k := make(map[*ir.Expr]*ir.Stmt)

		for _, st := range bb.Body.Stmts {
			for _, e := range st.Expr {
				e.Walk(func(p *ir.Expr) {
					if p.IsDef {
						d[p] = true
						return
					}
					if p.Def == nil {
						return
					}
					if ignoreWeak && p.Parent != nil && p.Parent.Op == ir.OpPhi {
						return
					}
					if !d[p.Def] {
						u[p.Def] = true
					}
					if _, ok := k[p.Def]; !ok {
						k[p.Def] = st
					}
				})
			}
		}

		uses[bb.Addr], defs[bb.Addr], lv.Kill[bb.Addr] = u, d, k
		lv.In[bb.Addr] = make(map[*ir.Expr]bool)
		lv.Out[bb.Addr] = make(map[*ir.Expr]bool)
	}

	/* backward fixpoint, seeded from the exits */
	q := lane.NewQueue()
	queued := make(map[uint64]bool, len(fn.Blocks))

	push := func(bb *ir.BasicBlock) {
		if !queued[bb.Addr] {
			queued[bb.Addr] = true
			q.Enqueue(bb)
		}
	}
	for _, bb := range fn.Exits {
		push(bb)
	}
	for _, bb := range fn.Blocks {
		push(bb)
	}

	for !q.Empty() {
		bb := q.Dequeue().(*ir.BasicBlock)
		queued[bb.Addr] = false

		out := lv.Out[bb.Addr]
		for _, s := range bb.Succs() {
			for d := range lv.In[s.Addr] {
				out[d] = true
			}
		}

		in := lv.In[bb.Addr]
		n := len(in)
		for d := range uses[bb.Addr] {
			in[d] = true
		}
		for d := range out {
			if !defs[bb.Addr][d] {
				in[d] = true
			}
		}

		if len(in) != n {
			for _, p := range bb.Pred {
				push(p)
			}
		}
	}
	return lv
}
