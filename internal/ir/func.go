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

package ir

import (
	"github.com/r2dec2/pdd/internal/graph"
)

// Arg describes one incoming argument or named local of a function.
type Arg struct {
	Name string
	Kind string // "arg", "reg" or "var"
	Ref  string // register name, or base register for stack refs
	Off  int64  // stack offset when Ref is a base register
	Type string
}

// Func is the per-function IR root: the block list, the designated
// entry, and every exit block.
type Func struct {
	Addr uint64
	Name string
	Ret  string

	Args   []Arg
	Locals []Arg

	Blocks []*BasicBlock
	Entry  *BasicBlock
	Exits  []*BasicBlock
}

// BlockAt finds the block whose entry address is addr.
func (self *Func) BlockAt(addr uint64) *BasicBlock {
	for _, bb := range self.Blocks {
		if bb.Addr == addr {
			return bb
		}
	}
	return nil
}

// Rebuild recomputes predecessor lists and the exit set from the
// successor edges. Call after any pass that rewires the CFG. Phi
// argument order is tied to predecessor order, so Rebuild walks blocks
// and successors in their stored order to keep the result stable.
func (self *Func) Rebuild() {
	for _, bb := range self.Blocks {
		bb.Pred = bb.Pred[:0]
	}

	self.Exits = self.Exits[:0]

	for _, bb := range self.Blocks {
		for _, s := range bb.Succs() {
			s.Pred = append(s.Pred, bb)
		}
		if bb.Jump == nil && bb.Fail == nil && len(bb.Cases) == 0 {
			bb.Exit = true
		}
		if bb.Exit {
			self.Exits = append(self.Exits, bb)
		}
	}

	if self.Entry != nil {
		self.Entry.Entry = true
	}
}

// DropUnreachable removes blocks not reachable from the entry. The
// caller rebuilds afterwards.
func (self *Func) DropUnreachable(reach map[uint64]bool) {
	out := self.Blocks[:0]
	for _, bb := range self.Blocks {
		if reach[bb.Addr] || bb == self.Entry {
			out = append(out, bb)
		}
	}
	self.Blocks = out
}

// Graph projects the CFG onto the graph package, keyed by block
// address.
func (self *Func) Graph() *graph.Directed {
	nodes := make([]uint64, 0, len(self.Blocks))
	edges := []graph.Edge(nil)

	for _, bb := range self.Blocks {
		nodes = append(nodes, bb.Addr)
		for _, s := range bb.Succs() {
			edges = append(edges, graph.Edge{From: bb.Addr, To: s.Addr})
		}
	}
	return graph.NewDirected(self.Entry.Addr, nodes, edges)
}

// Stmts visits every statement of every block in block order.
func (self *Func) Stmts(fn func(*BasicBlock, *Stmt)) {
	for _, bb := range self.Blocks {
		for _, s := range append([]*Stmt(nil), bb.Body.Stmts...) {
			fn(bb, s)
		}
	}
}
