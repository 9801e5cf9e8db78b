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
	"strings"
)

// Kind classifies a statement for the control-flow passes and the
// printer; the expression payload is the same for every kind.
type Kind uint8

const (
	Normal Kind = iota
	Return
	Goto
	Branch
)

var kindNames = [...]string{
	Normal: "",
	Return: "return",
	Goto:   "goto",
	Branch: "branch",
}

func (self Kind) String() string { return kindNames[self] }

// Stmt holds one instruction-level step: an address and its top-level
// expressions (typically one).
type Stmt struct {
	Addr   uint64
	Kind   Kind
	Expr   []*Expr
	Parent *Container
}

func NewStmt(addr uint64, kind Kind, exprs ...*Expr) *Stmt {
	s := &Stmt{Addr: addr, Kind: kind}
	for _, e := range exprs {
		s.AddExpr(e)
	}
	return s
}

// AddExpr appends e as a top-level expression of the statement.
func (self *Stmt) AddExpr(e *Expr) {
	e.Parent = nil
	e.Root = self
	self.Expr = append(self.Expr, e)
}

// IsPhi reports whether the statement is a phi assignment.
func (self *Stmt) IsPhi() bool {
	return len(self.Expr) == 1 &&
		self.Expr[0].Op == OpAssign &&
		self.Expr[0].Rhs().Op == OpPhi
}

// Detach removes the statement from its container, unlinking every use
// below it from the def-use web.
func (self *Stmt) Detach() {
	for _, e := range self.Expr {
		detachUses(e)
	}
	if self.Parent != nil {
		self.Parent.Remove(self)
	}
}

func (self *Stmt) String() string {
	parts := make([]string, 0, len(self.Expr)+1)
	if self.Kind != Normal {
		parts = append(parts, self.Kind.String())
	}
	for _, e := range self.Expr {
		parts = append(parts, e.String())
	}
	return strings.Join(parts, " ")
}

// Container is a basic block body: the block entry address and an
// ordered statement list. Phi statements are always grouped at the top.
type Container struct {
	Addr  uint64
	Stmts []*Stmt
	Block *BasicBlock
}

func NewContainer(addr uint64) *Container {
	return &Container{Addr: addr}
}

// Append adds s at the end of the container.
func (self *Container) Append(s *Stmt) {
	s.Parent = self
	self.Stmts = append(self.Stmts, s)
}

// Prepend adds s at the top of the container. A phi statement goes
// first, ahead of any phis already there; any other statement goes
// right after the existing phis, preserving the phis-first grouping.
func (self *Container) Prepend(s *Stmt) {
	s.Parent = self
	i := 0
	if !s.IsPhi() {
		for i < len(self.Stmts) && self.Stmts[i].IsPhi() {
			i++
		}
	}
	self.Stmts = append(self.Stmts, nil)
	copy(self.Stmts[i+1:], self.Stmts[i:])
	self.Stmts[i] = s
}

// InsertBefore places s immediately before mark, or appends when mark
// is not in this container.
func (self *Container) InsertBefore(s *Stmt, mark *Stmt) {
	s.Parent = self
	for i, p := range self.Stmts {
		if p == mark {
			self.Stmts = append(self.Stmts, nil)
			copy(self.Stmts[i+1:], self.Stmts[i:])
			self.Stmts[i] = s
			return
		}
	}
	self.Stmts = append(self.Stmts, s)
}

// Remove unlinks s from the container without touching the def-use web.
func (self *Container) Remove(s *Stmt) {
	for i, p := range self.Stmts {
		if p == s {
			self.Stmts = append(self.Stmts[:i], self.Stmts[i+1:]...)
			s.Parent = nil
			return
		}
	}
}

// Phis returns the phi statements grouped at the top of the container.
func (self *Container) Phis() []*Stmt {
	i := 0
	for i < len(self.Stmts) && self.Stmts[i].IsPhi() {
		i++
	}
	return self.Stmts[:i]
}
