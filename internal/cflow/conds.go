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

package cflow

import (
	"github.com/r2dec2/pdd/internal/graph"
	"github.com/r2dec2/pdd/internal/ir"
)

// FindConds recognizes two-way condition shapes rooted at every block
// ending in a conditional branch:
//
//	if-then:      b -> {fail: T, jump: J},  T -> J
//	if-then-else: b -> {fail: T, jump: E},  T -> J,  E -> J
//
// The fall-through arm is the then-body: the lifted branch jumps when
// the condition holds, so the printed condition is the branch condition
// negated by the printer. Loop back edges are left to FindLoops.
func FindConds(fn *ir.Func, dt *graph.DominatorTree) []*ir.Scope {
	scopes := []*ir.Scope(nil)

	for _, bb := range fn.Blocks {
		t, e := bb.Fail, bb.Jump
		if t == nil || e == nil || len(bb.Cases) != 0 {
			continue
		}

		/* back edges belong to loop recovery */
		if dt.Dominates(t.Addr, bb.Addr) || dt.Dominates(e.Addr, bb.Addr) {
			continue
		}

		cond := branchCond(bb)

		switch {
		case soleFlow(t) == e:
			/* if-then: the taken edge skips the then-body */
			sc := &ir.Scope{Kind: ir.ScopeIf, Head: t, Tail: lastOf(t), Cond: cond}
			t.Opens = append(t.Opens, sc)
			sc.Tail.Closes = append(sc.Tail.Closes, sc)
			scopes = append(scopes, sc)

		case soleFlow(t) != nil && soleFlow(t) == soleFlow(e):
			/* if-then-else diamond */
			sif := &ir.Scope{Kind: ir.ScopeIf, Head: t, Tail: lastOf(t), Cond: cond}
			sel := &ir.Scope{Kind: ir.ScopeElse, Head: e, Tail: lastOf(e)}

			t.Opens = append(t.Opens, sif)
			sif.Tail.Closes = append(sif.Tail.Closes, sif)
			e.Opens = append(e.Opens, sel)
			sel.Tail.Closes = append(sel.Tail.Closes, sel)
			scopes = append(scopes, sif, sel)
		}
	}
	return scopes
}

// soleFlow returns the unique successor of a straight-line arm, nil
// when the arm branches further.
func soleFlow(bb *ir.BasicBlock) *ir.BasicBlock {
	if bb.Fail != nil || len(bb.Cases) != 0 {
		return nil
	}
	return bb.Jump
}

// lastOf is the closing block of a single-entry arm; with merged
// fall-throughs an arm is one block.
func lastOf(bb *ir.BasicBlock) *ir.BasicBlock {
	return bb
}
