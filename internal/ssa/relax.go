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
	"github.com/r2dec2/pdd/internal/ir"
)

// Relax collapses degenerate phi assignments after a renaming wave:
// single-argument phis, phis referring back to their own target, and
// single-use phis feeding another phi. Runs to fixpoint over the
// definition map; keys are snapshotted because entries die mid-walk.
//
// Phi argument order mirrors predecessor order, so chained phis are
// absorbed only when doing so keeps the argument count intact: the
// absorbed value must collapse to a single source, or to sources the
// outer phi already carries (a duplicate argument slot is harmless,
// a missing one is not).
func Relax(ctx *ir.Ctx) {
	for i := 0; ; i++ {
		if !relaxOnce(ctx) {
			return
		}
		if i >= ctx.Conf.MaxIters {
			return
		}
	}
}

func relaxOnce(ctx *ir.Ctx) (changed bool) {
	for _, k := range ctx.Keys() {
		d, ok := ctx.Defs[k]
		if !ok {
			continue
		}
		asg := d.Parent
		if asg == nil || asg.Op != ir.OpAssign || asg.Rhs().Op != ir.OpPhi {
			continue
		}
		phi := asg.Rhs()

		/* single surviving value: Phi(y) and Phi(a, x) collapse to a copy */
		if v := soleValue(d, phi); v != nil {
			ir.Replace(phi, ir.Pluck(v, false))
			changed = true
			continue
		}

		if absorbChained(ctx, k, d, phi) {
			changed = true
		}
	}
	return
}

// soleValue returns the one non-self argument of the phi when every
// argument is either that value or the phi target itself, nil
// otherwise.
func soleValue(d *ir.Expr, phi *ir.Expr) *ir.Expr {
	var v *ir.Expr
	for _, a := range phi.Sub {
		if a.DefKey() == d.DefKey() {
			continue
		}
		if v != nil && a.DefKey() != v.DefKey() {
			return nil
		}
		if v == nil {
			v = a
		}
	}
	return v
}

// absorbChained folds a single-use phi whose only reader is another
// phi's argument slot.
func absorbChained(ctx *ir.Ctx, key string, d *ir.Expr, phi *ir.Expr) bool {
	if len(d.Uses) != 1 {
		return false
	}
	u := d.Uses[0]
	outer := u.Parent
	if outer == nil || outer.Op != ir.OpPhi {
		return false
	}
	oasg := outer.Parent
	if oasg == nil || oasg.Op != ir.OpAssign {
		return false
	}
	olhs := oasg.Lhs()

	/* distinct sources of the inner phi, self and outer-target refs
	 * excluded */
	sources := []*ir.Expr(nil)
	keys := make(map[string]bool)
	for _, a := range phi.Sub {
		ak := a.DefKey()
		if ak == d.DefKey() || ak == olhs.DefKey() {
			continue
		}
		if !keys[ak] {
			keys[ak] = true
			sources = append(sources, a)
		}
	}
	if len(sources) == 0 {
		return false
	}

	/* sources already present in the outer phi */
	have := make(map[string]bool)
	for _, a := range outer.Sub {
		if a != u {
			have[a.DefKey()] = true
		}
	}

	var repl *ir.Expr
	if len(sources) == 1 {
		repl = sources[0]
	} else {
		for _, s := range sources {
			if !have[s.DefKey()] {
				return false
			}
		}
		repl = sources[0]
	}

	ir.Replace(u, ir.Clone(repl, ir.KeepSSA))

	/* the inner phi is no longer read; drop its assignment */
	if st := asgStmt(d); st != nil {
		st.Detach()
	}
	ctx.DelDef(key)
	return true
}

func asgStmt(d *ir.Expr) *ir.Stmt {
	if d.Parent != nil {
		return d.Parent.StmtRoot()
	}
	return nil
}
