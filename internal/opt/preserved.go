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
	"github.com/r2dec2/pdd/internal/graph"
	"github.com/r2dec2/pdd/internal/ir"
)

// Preserved detects callee-saved save/restore pairs: locations whose
// value at every exit traces back, through copy assignments only, to
// the location's own uninitialized entry value. The pair and every
// copy between them are marked weak and prunable; the ordinary dead
// pruners then sweep them.
type Preserved struct {
	DT *graph.DominatorTree
}

func (self *Preserved) Name() string { return "preserved locations" }

func (self *Preserved) Run(sc *ir.Ctx) bool {
	/* entry values live in the uninit container as name_0 defs */
	orig := make(map[string]*ir.Expr)
	for _, st := range sc.Uninit.Stmts {
		for _, e := range st.Expr {
			if e.Op == ir.OpAssign {
				orig[e.Lhs().Key()] = e.Lhs()
			}
		}
	}
	if len(orig) == 0 {
		return false
	}

	reach := self.reachingAtExits(sc)

	/* weak uses (phi arguments) do not make a restored value real */
	lv := ComputeLiveness(sc, true)

	changed := false
	for name, o := range orig {
		if o.Op != ir.OpReg {
			continue
		}

		/* the value reaching every exit must trace back to name_0 */
		pairs := [][2]*ir.Expr(nil)
		chains := [][]*ir.Expr(nil)
		ok := true
		for _, defs := range reach {
			d := defs[name]
			if d == nil || d == o {
				continue
			}
			chain := traceToOrig(d, o)
			if chain == nil || consumed(lv, d) {
				ok = false
				break
			}
			pairs = append(pairs, [2]*ir.Expr{chain[len(chain)-1], d})
			chains = append(chains, chain)
		}
		if !ok || len(pairs) == 0 {
			continue
		}

		fresh := false
		for _, chain := range chains {
			for _, c := range chain {
				if !c.Weak || !c.Prune {
					fresh = true
				}
				c.Weak = true
				c.Prune = true
				if c.Op == ir.OpDeref {
					c.Safe = true
				}
			}
		}

		/* re-running over an already marked chain records nothing new */
		if fresh {
			sc.Preserved = append(sc.Preserved, pairs...)
			changed = true
		}
	}
	return changed
}

// reachingAtExits replays the renaming discipline down the dominator
// tree, tracking the innermost definition per base name, and snapshots
// the map at every exit block.
func (self *Preserved) reachingAtExits(sc *ir.Ctx) map[uint64]map[string]*ir.Expr {
	out := make(map[uint64]map[string]*ir.Expr)
	stack := make(map[string][]*ir.Expr)

	var walk func(bb *ir.BasicBlock)
	walk = func(bb *ir.BasicBlock) {
		if bb == nil {
			return
		}
		var pushed []string

		for _, st := range bb.Body.Stmts {
			for _, e := range st.Expr {
				e.Walk(func(p *ir.Expr) {
					if p.IsDef && p.Op != ir.OpDeref {
						k := p.Key()
						stack[k] = append(stack[k], p)
						pushed = append(pushed, k)
					}
				})
			}
		}

		if bb.Exit {
			snap := make(map[string]*ir.Expr)
			for k, s := range stack {
				if len(s) != 0 {
					snap[k] = s[len(s)-1]
				}
			}
			out[bb.Addr] = snap
		}

		for _, c := range self.DT.Children(bb.Addr) {
			walk(sc.Fn.BlockAt(c))
		}

		for i := len(pushed) - 1; i >= 0; i-- {
			k := pushed[i]
			stack[k] = stack[k][:len(stack[k])-1]
		}
	}

	walk(sc.Fn.BlockAt(self.DT.Root()))
	return out
}

// consumed reports whether the candidate restore value is actually
// read anywhere, which disqualifies the pair.
func consumed(lv *Liveness, d *ir.Expr) bool {
	for _, kills := range lv.Kill {
		if kills[d] != nil {
			return true
		}
	}
	return false
}

// traceToOrig follows the copy chain backwards from def to the entry
// value orig. Returns the chain of intermediate definitions (def
// first), or nil when the chain breaks into real computation.
func traceToOrig(def *ir.Expr, orig *ir.Expr) []*ir.Expr {
	chain := []*ir.Expr{def}
	seen := map[*ir.Expr]bool{def: true}

	d := def
	for {
		asg := d.Parent
		if asg == nil || asg.Op != ir.OpAssign {
			return nil
		}
		rhs := asg.Rhs()
		if !rhs.IsLocation() || rhs.IsDef {
			return nil
		}
		n := rhs.Def
		if n == nil || seen[n] {
			return nil
		}
		if n == orig {
			return chain
		}
		seen[n] = true
		chain = append(chain, n)
		d = n
	}
}
