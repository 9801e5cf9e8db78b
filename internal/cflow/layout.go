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
	"context"

	"nikand.dev/go/heap"
	"tlog.app/go/tlog"

	"github.com/r2dec2/pdd/internal/graph"
	"github.com/r2dec2/pdd/internal/ir"
)

// Recover runs the three recognizers in their required order and
// returns the printable block order.
func Recover(ctx context.Context, fn *ir.Func) []*ir.BasicBlock {
	tr := tlog.SpanFromContext(ctx)

	MergeFallthroughs(fn)

	/* dominators over the merged graph */
	dt := graph.Dominators(fn.Graph())

	loops := FindLoops(fn, dt)
	conds := FindConds(fn, dt)

	tr.V("cflow").Printw("control flow recovered",
		"blocks", len(fn.Blocks), "loops", len(loops), "conds", len(conds))

	return Layout(fn)
}

// Layout orders blocks for printing: fall-through edges glue blocks
// together, and otherwise the pending block with the lowest address
// comes first, which reproduces source order for compiler output.
func Layout(fn *ir.Func) []*ir.BasicBlock {
	pending := heap.Heap[*ir.BasicBlock]{
		Less: func(d []*ir.BasicBlock, i, j int) bool {
			return d[i].Addr < d[j].Addr
		},
	}

	seen := make(map[*ir.BasicBlock]bool, len(fn.Blocks))
	out := make([]*ir.BasicBlock, 0, len(fn.Blocks))

	push := func(bb *ir.BasicBlock) {
		if bb != nil && !seen[bb] {
			seen[bb] = true
			pending.Push(bb)
		}
	}
	push(fn.Entry)

	for pending.Len() != 0 {
		bb := pending.Pop()

		/* glue the fall-through chain */
		for bb != nil && !contains(out, bb) {
			out = append(out, bb)
			seen[bb] = true

			push(bb.Jump)
			for _, c := range bb.Cases {
				push(c)
			}

			next := bb.Fail
			if next != nil && contains(out, next) {
				next = nil
			}
			bb = next
		}
	}

	/* unreachable leftovers print last, in list order */
	for _, bb := range fn.Blocks {
		if !contains(out, bb) {
			out = append(out, bb)
		}
	}
	return out
}

func contains(s []*ir.BasicBlock, bb *ir.BasicBlock) bool {
	for _, p := range s {
		if p == bb {
			return true
		}
	}
	return false
}
