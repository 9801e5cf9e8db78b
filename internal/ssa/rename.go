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
	"github.com/r2dec2/pdd/internal/graph"
	"github.com/r2dec2/pdd/internal/ir"
)

type _Renamer struct {
	ctx *ir.Ctx
	dt  *graph.DominatorTree
	sel Selector
}

// Rename walks the dominator tree in pre-order and assigns subscripts
// to every selected location: uses take the top of the name's stack,
// definitions push a fresh index. Successor phi arguments are patched
// with the value leaving the current block. Stacks unwind on the way
// back up the tree.
func Rename(ctx *ir.Ctx, dt *graph.DominatorTree, sel Selector) {
	r := &_Renamer{ctx: ctx, dt: dt, sel: sel}
	r.block(ctx.Fn.BlockAt(dt.Root()))
}

func (self *_Renamer) block(bb *ir.BasicBlock) {
	if bb == nil {
		return
	}
	var pushed []string

	/* Step 1: rename within the block. Phi right-hand sides are
	 * patched from predecessors, never here. */
	for _, st := range bb.Body.Stmts {
		for _, e := range st.Expr {
			if e.Op == ir.OpAssign {
				if e.Rhs().Op != ir.OpPhi {
					self.uses(e.Rhs())
				}
				lhs := e.Lhs()

				/* a deref target reads its address operands */
				for _, s := range lhs.Sub {
					self.uses(s)
				}
				if self.sel(lhs) {
					pushed = append(pushed, self.def(lhs))
				}
			} else {
				self.uses(e)
			}
		}
	}

	/* Step 2: patch the phi arguments of every CFG successor slot
	 * belonging to this block */
	for _, y := range bb.Succs() {
		j := y.PredIndex(bb)
		if j < 0 {
			continue
		}
		for _, st := range y.Body.Phis() {
			lhs := st.Expr[0].Lhs()
			if !self.sel(lhs) {
				continue
			}
			arg := st.Expr[0].Rhs().Sub[j]
			self.use(arg)
		}
	}

	/* Step 3: recurse into the dominator-tree children */
	for _, c := range self.dt.Children(bb.Addr) {
		self.block(self.ctx.Fn.BlockAt(c))
	}

	/* Step 4: unwind the stacks for this block's definitions */
	for i := len(pushed) - 1; i >= 0; i-- {
		self.ctx.PopIdx(pushed[i])
	}
}

// uses subscribes every selected non-def leaf under e, innermost
// first so a dereference key sees its address already renamed.
func (self *_Renamer) uses(e *ir.Expr) {
	for _, s := range e.Sub {
		self.uses(s)
	}
	if self.sel(e) && !e.IsDef && e.Idx == ir.NoIdx {
		self.use(e)
	}
}

// use resolves one operand against the current stack, synthesizing an
// uninitialized definition when the location was never defined.
func (self *_Renamer) use(e *ir.Expr) {
	name := e.Key()
	e.Idx = self.ctx.TopIdx(name)

	d, ok := self.ctx.Defs[e.DefKey()]
	if !ok {
		d = self.uninitDef(e)
	}
	d.AddUse(e)
}

// def pushes a fresh subscript for the defined location and records it
// in the context. Returns the stack key for unwinding.
func (self *_Renamer) def(e *ir.Expr) string {
	name := e.Key()
	e.Idx = self.ctx.PushIdx(name)
	self.ctx.AddDef(e)
	return name
}

// uninitDef synthesizes a weak `name_0 = 0` assignment in the uninit
// container for a location read before any write. This is recovery,
// not failure: argument registers and the stack pointer are live at
// entry by calling convention.
func (self *_Renamer) uninitDef(e *ir.Expr) *ir.Expr {
	lhs := cloneLoc(e)
	lhs.Idx = 0

	size := e.Size
	if size == 0 {
		size = 64
	}

	asg := ir.Assign(lhs, ir.Val(0, size))
	lhs.Weak = true

	self.ctx.Uninit.Append(ir.NewStmt(self.ctx.Uninit.Addr, ir.Normal, asg))
	self.ctx.AddDef(lhs)
	return lhs
}
