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

// Package cflow recovers structured control flow from the CFG: it
// merges fall-through chains, tags natural loops, and recognizes
// if/else diamonds, leaving scope brackets for the printer.
package cflow

import (
	"github.com/r2dec2/pdd/internal/ir"
)

// MergeFallthroughs folds every pair of blocks joined by a sole
// unconditional edge into one. Predecessor slots of downstream blocks
// are patched in place rather than rebuilt: phi argument order is tied
// to predecessor order and must not shuffle.
func MergeFallthroughs(fn *ir.Func) (changed bool) {
	for {
		merged := false

		for _, bb := range fn.Blocks {
			c := bb.Jump
			if c == nil || bb.Fail != nil || len(bb.Cases) != 0 {
				continue
			}
			if len(c.Pred) != 1 || c.Pred[0] != bb || c == bb {
				continue
			}

			/* move statements over */
			for _, st := range c.Body.Stmts {
				st.Parent = bb.Body
				bb.Body.Stmts = append(bb.Body.Stmts, st)
			}
			c.Body.Stmts = nil

			/* inherit the edges and the exit flag */
			bb.Jump, bb.Fail, bb.Cases = c.Jump, c.Fail, c.Cases
			bb.Exit = c.Exit

			/* patch successor predecessor slots in place */
			for _, s := range c.Succs() {
				if j := s.PredIndex(c); j >= 0 {
					s.Pred[j] = bb
				}
			}

			dropBlock(fn, c)
			merged, changed = true, true
			break
		}

		if !merged {
			return
		}
	}
}

func dropBlock(fn *ir.Func, bb *ir.BasicBlock) {
	for i, p := range fn.Blocks {
		if p == bb {
			fn.Blocks = append(fn.Blocks[:i], fn.Blocks[i+1:]...)
			break
		}
	}
	for i, p := range fn.Exits {
		if p == bb {
			fn.Exits = append(fn.Exits[:i], fn.Exits[i+1:]...)
			break
		}
	}
	/* the merged-into block may have taken over an exit flag */
	for _, p := range fn.Blocks {
		if p.Exit && !exitListed(fn, p) {
			fn.Exits = append(fn.Exits, p)
		}
	}
}

func exitListed(fn *ir.Func, bb *ir.BasicBlock) bool {
	for _, p := range fn.Exits {
		if p == bb {
			return true
		}
	}
	return false
}
