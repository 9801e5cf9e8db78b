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
	"fmt"
)

// ScopeKind tags a recovered control-flow region.
type ScopeKind uint8

const (
	ScopeSeq ScopeKind = iota
	ScopeLoop
	ScopeIf
	ScopeElse
)

var scopeNames = [...]string{
	ScopeSeq:  "seq",
	ScopeLoop: "loop",
	ScopeIf:   "if",
	ScopeElse: "else",
}

func (self ScopeKind) String() string { return scopeNames[self] }

// Scope is a bracket pair recovered by control-flow analysis and
// consumed by the printer: it opens at Head and closes after Tail.
type Scope struct {
	Kind ScopeKind
	Head *BasicBlock
	Tail *BasicBlock
	Cond *Expr // loop/if condition, nil for seq
}

// BasicBlock is one CFG node. Jump is the taken (or unconditional)
// successor, Fail the fall-through, Cases the switch targets. Pred is
// recomputed by Func.Rebuild; phi argument order follows Pred order.
type BasicBlock struct {
	Addr uint64
	Body *Container

	Jump  *BasicBlock
	Fail  *BasicBlock
	Cases []*BasicBlock

	Entry bool
	Exit  bool

	Pred []*BasicBlock

	Opens  []*Scope
	Closes []*Scope
}

func NewBlock(addr uint64) *BasicBlock {
	bb := &BasicBlock{Addr: addr, Body: NewContainer(addr)}
	bb.Body.Block = bb
	return bb
}

// Succs returns the successors in the fixed jump, fail, cases order.
// Predecessor indices on the other side are derived from this order, so
// it must not change across passes.
func (self *BasicBlock) Succs() []*BasicBlock {
	out := make([]*BasicBlock, 0, 2+len(self.Cases))
	if self.Jump != nil {
		out = append(out, self.Jump)
	}
	if self.Fail != nil {
		out = append(out, self.Fail)
	}
	out = append(out, self.Cases...)
	return out
}

// PredIndex returns the position of p in this block's predecessor list,
// -1 when p is not a predecessor.
func (self *BasicBlock) PredIndex(p *BasicBlock) int {
	for i, q := range self.Pred {
		if q == p {
			return i
		}
	}
	return -1
}

func (self *BasicBlock) String() string {
	return fmt.Sprintf("bb_%x", self.Addr)
}
