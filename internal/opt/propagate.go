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
	"github.com/r2dec2/pdd/internal/ir"
	"github.com/r2dec2/pdd/internal/opts"
)

// PropSelector decides whether a definition's value may be propagated
// into its uses.
type PropSelector func(def *ir.Expr, val *ir.Expr, conf *opts.Options) bool

// Replacer builds the expression replacing one use; returning nil
// leaves that use alone.
type Replacer func(use *ir.Expr, val *ir.Expr) *ir.Expr

// Propagator rewrites every use of a selected definition with its
// value. When all uses are gone the assignment itself is plucked and
// its entry dropped from the definition map.
type Propagator struct {
	Desc string
	Sel  PropSelector
	Repl Replacer
}

func (self *Propagator) Name() string { return self.Desc }

func (self *Propagator) Run(sc *ir.Ctx) (changed bool) {
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

		for _, u := range append([]*ir.Expr(nil), d.Uses...) {
			rep := self.Repl(u, val)
			if rep == nil {
				continue
			}
			ir.Replace(u, rep)
			changed = true
		}

		if len(d.Uses) == 0 {
			if st := asg.StmtRoot(); st != nil {
				st.Detach()
			}
			sc.DelDef(k)
			changed = true
		}
	}
	return
}

// CloneVal is the default replacer: a deep copy of the defining value
// with SSA attributes intact.
func CloneVal(use *ir.Expr, val *ir.Expr) *ir.Expr {
	return ir.Clone(val, ir.KeepSSA)
}

// SafeDefs is the conservative copy-propagation selector: single-use,
// non-phi, non-uninitialized definitions.
func SafeDefs(def *ir.Expr, val *ir.Expr, conf *opts.Options) bool {
	return def.Idx != 0 && val.Op != ir.OpPhi && len(def.Uses) == 1
}

/* architecture-specific location matchers */

var stackRegs = map[string]bool{
	"rsp": true, "esp": true, "sp": true,
	"rbp": true, "ebp": true, "fp": true,
}

var flagRegs = map[string]bool{
	"zf": true, "cf": true, "sf": true, "of": true, "pf": true, "af": true,
}

// StackRegs propagates stack-pointer arithmetic so that later renaming
// waves see canonicalized addresses. The value must be pure address
// arithmetic over constants and registers.
func StackRegs(def *ir.Expr, val *ir.Expr, conf *opts.Options) bool {
	return def.Op == ir.OpReg && stackRegs[def.Name] && simpleAddr(val)
}

// FlagRegs propagates comparison results out of flag registers into
// their branch uses.
func FlagRegs(def *ir.Expr, val *ir.Expr, conf *opts.Options) bool {
	return def.Op == ir.OpReg && flagRegs[def.Name] && val.Op != ir.OpPhi && val.Op != ir.OpCall
}

// simpleAddr reports whether the expression is built purely from
// constants and register reads with +, -, & — the shapes frame-pointer
// and alignment math take.
func simpleAddr(e *ir.Expr) bool {
	switch e.Op {
	case ir.OpVal, ir.OpReg:
		return true
	case ir.OpAdd, ir.OpSub, ir.OpAnd:
		return simpleAddr(e.Sub[0]) && simpleAddr(e.Sub[1])
	default:
		return false
	}
}
