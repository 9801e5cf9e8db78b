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
	"github.com/r2dec2/pdd/internal/opts"
)

// PruneSelector decides whether a definition's assignment is dead and
// may be removed wholesale.
type PruneSelector func(def *ir.Expr, val *ir.Expr, conf *opts.Options) bool

// Pruner deletes selected assignments. With Extract set, a call on the
// right-hand side survives as a standalone expression statement: the
// result is dead, the side effects are not.
type Pruner struct {
	Desc    string
	Sel     PruneSelector
	Extract bool
}

func (self *Pruner) Name() string { return self.Desc }

func (self *Pruner) Run(sc *ir.Ctx) (changed bool) {
	for _, k := range sc.Keys() {
		d, ok := sc.Defs[k]
		if !ok {
			continue
		}
		asg := d.Parent
		if asg == nil || asg.Op != ir.OpAssign || asg.Lhs() != d {
			continue
		}
		val := asg.Rhs()

		if !self.Sel(d, val, sc.Conf) {
			continue
		}

		st := asg.StmtRoot()

		if self.Extract && val.Op == ir.OpCall && st != nil && st.Parent != nil {
			/* keep the call, drop the dead result */
			c := st.Parent
			call := ir.Pluck(val, false)
			c.InsertBefore(ir.NewStmt(st.Addr, st.Kind, call), st)
		}

		if st != nil {
			st.Detach()
		}
		sc.DelDef(k)
		changed = true
	}
	return
}

/* built-in prune selectors */

// DeadRegs removes register assignments nobody reads. Call results are
// kept unless explicitly marked for pruning; their extraction belongs
// to DeadResults.
func DeadRegs(def *ir.Expr, val *ir.Expr, conf *opts.Options) bool {
	if len(def.Uses) != 0 || def.Op != ir.OpReg {
		return false
	}
	return val.Op != ir.OpCall || def.Prune
}

// DeadDerefs removes unread memory stores when aliasing cannot bite:
// the value is a phi, aliasing is configured away, or the store was
// proven safe. The store address must not read a location that is
// still live elsewhere, or the deleted store could have been the
// aliased producer.
func DeadDerefs(def *ir.Expr, val *ir.Expr, conf *opts.Options) bool {
	if len(def.Uses) != 0 || def.Op != ir.OpDeref {
		return false
	}
	if val.Op != ir.OpPhi && !conf.NoAlias && !def.Safe {
		return false
	}
	return def.Safe || !addrReadsLive(def)
}

// DeadResults matches dead call results; paired with Extract the call
// itself survives as its own statement.
func DeadResults(def *ir.Expr, val *ir.Expr, conf *opts.Options) bool {
	return len(def.Uses) == 0 && def.Op == ir.OpReg && val.Op == ir.OpCall
}

// addrReadsLive reports whether the store address reads any location
// whose definition is not weak and has readers other than this address.
func addrReadsLive(def *ir.Expr) bool {
	live := false
	for _, s := range def.Sub {
		s.Walk(func(p *ir.Expr) {
			if p.Def == nil || p.IsDef {
				return
			}
			if p.Def.Weak {
				return
			}
			for _, u := range p.Def.Uses {
				if u != p {
					live = true
				}
			}
		})
	}
	return live
}

// CircularPhis matches phi assignments that feed only themselves: the
// visited-set DFS follows every use; if it never escapes into a
// non-phi reader, the whole cycle is dead weight and its members fall
// one per fixpoint round.
func CircularPhis(def *ir.Expr, val *ir.Expr, conf *opts.Options) bool {
	if val.Op != ir.OpPhi {
		return false
	}

	visited := map[*ir.Expr]bool{def: true}
	s := lane.NewStack()
	s.Push(def)

	for !s.Empty() {
		d := s.Pop().(*ir.Expr)

		for _, u := range d.Uses {
			p := u.Parent
			if p == nil || p.Op != ir.OpPhi {
				return false /* escapes the cycle */
			}
			asg := p.Parent
			if asg == nil || asg.Op != ir.OpAssign {
				return false
			}
			next := asg.Lhs()
			if !visited[next] {
				visited[next] = true
				s.Push(next)
			}
		}
	}
	return true
}
