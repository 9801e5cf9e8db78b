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
	"github.com/oleiade/lane"

	"github.com/r2dec2/pdd/internal/graph"
	"github.com/r2dec2/pdd/internal/ir"
)

// FindLoops tags natural loops: every edge u -> h where h dominates u
// is a back edge, h the loop header. The body is collected backwards
// from u; the loop scope opens at the header and closes after the
// body block with the highest address.
func FindLoops(fn *ir.Func, dt *graph.DominatorTree) []*ir.Scope {
	scopes := []*ir.Scope(nil)
	seen := make(map[*ir.BasicBlock]bool)

	for _, h := range fn.Blocks {
		for _, u := range h.Pred {
			if !dt.Dominates(h.Addr, u.Addr) {
				continue
			}
			if seen[h] {
				continue
			}
			seen[h] = true

			body := naturalLoop(h, u)

			tail := h
			for bb := range body {
				if bb.Addr > tail.Addr {
					tail = bb
				}
			}

			sc := &ir.Scope{
				Kind: ir.ScopeLoop,
				Head: h,
				Tail: tail,
				Cond: branchCond(tail),
			}
			h.Opens = append(h.Opens, sc)
			tail.Closes = append(tail.Closes, sc)
			scopes = append(scopes, sc)
		}
	}
	return scopes
}

// naturalLoop returns the blocks of the loop with header h and back
// edge from u: everything that reaches u without passing through h.
func naturalLoop(h *ir.BasicBlock, u *ir.BasicBlock) map[*ir.BasicBlock]bool {
	body := map[*ir.BasicBlock]bool{h: true}

	s := lane.NewStack()
	if !body[u] {
		body[u] = true
		s.Push(u)
	}

	for !s.Empty() {
		bb := s.Pop().(*ir.BasicBlock)
		for _, p := range bb.Pred {
			if !body[p] {
				body[p] = true
				s.Push(p)
			}
		}
	}
	return body
}

// branchCond digs the condition expression out of a block's trailing
// branch statement, nil when the block exits unconditionally.
func branchCond(bb *ir.BasicBlock) *ir.Expr {
	for i := len(bb.Body.Stmts) - 1; i >= 0; i-- {
		st := bb.Body.Stmts[i]
		if st.Kind == ir.Branch && len(st.Expr) != 0 {
			return st.Expr[0]
		}
	}
	return nil
}
