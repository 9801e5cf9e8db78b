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

package simplify

import (
	"github.com/r2dec2/pdd/internal/ir"
)

var binaryRules = []rule{
	ruleFoldConst,
	ruleIdentity,
	ruleSignCorrect,
	ruleShrShl,
	ruleAssoc,
	ruleArithAssoc,
	ruleEquality,
	ruleConverge,
}

func ruleFoldConst(self *Reducer, e *ir.Expr) *ir.Expr {
	x, y := e.Sub[0], e.Sub[1]
	if !x.IsConst() || !y.IsConst() {
		return nil
	}

	/* relations: only EQ/NE are signedness-safe on raw constants */
	if e.Op.IsCompare() {
		if e.Op != ir.OpEQ && e.Op != ir.OpNE {
			return nil
		}
		m := sizeMask(e.Sub[0].Size)
		eq := x.Val&m == y.Val&m
		if e.Op == ir.OpNE {
			eq = !eq
		}
		if eq {
			return ir.Val(1, 1)
		}
		return ir.Val(0, 1)
	}

	if v, ok := foldBinary(e.Op, x.Val, y.Val, e.Size); ok {
		return ir.Val(v, e.Size)
	}
	return nil
}

func ruleIdentity(self *Reducer, e *ir.Expr) *ir.Expr {
	x, y := e.Sub[0], e.Sub[1]
	ones := allOnes(e.Size)

	isZero := func(p *ir.Expr) bool { return p.IsConst() && p.Val&sizeMask(e.Size) == 0 }
	isOne := func(p *ir.Expr) bool { return p.IsConst() && p.Val&sizeMask(e.Size) == 1 }
	isOnes := func(p *ir.Expr) bool { return p.IsConst() && p.Val&sizeMask(e.Size) == ones }

	switch e.Op {
	case ir.OpAdd:
		if isZero(y) {
			return take(x)
		}
		if isZero(x) {
			return take(y)
		}
	case ir.OpSub:
		if isZero(y) {
			return take(x)
		}
	case ir.OpMul:
		if isOne(y) {
			return take(x)
		}
		if isOne(x) {
			return take(y)
		}
	case ir.OpDiv:
		if isOne(y) {
			return take(x)
		}
	case ir.OpXor:
		if isZero(x) {
			return take(y)
		}
		if isZero(y) {
			return take(x)
		}
		if equal(x, y) {
			return ir.Val(0, e.Size)
		}
		if isOnes(y) {
			return ir.Unary(ir.OpNot, take(x))
		}
		if isOnes(x) {
			return ir.Unary(ir.OpNot, take(y))
		}
	case ir.OpAnd:
		if equal(x, y) {
			return take(x)
		}
		if isZero(x) || isZero(y) {
			return ir.Val(0, e.Size)
		}
		if isOnes(y) {
			return take(x)
		}
		if isOnes(x) {
			return take(y)
		}
	case ir.OpOr:
		if equal(x, y) {
			return take(x)
		}
		if isOnes(x) || isOnes(y) {
			return ir.Val(ones, e.Size)
		}
		if isZero(y) {
			return take(x)
		}
		if isZero(x) {
			return take(y)
		}
	case ir.OpShl:
		if isZero(x) {
			return ir.Val(0, e.Size)
		}
		if isZero(y) {
			return take(x)
		}
	case ir.OpShr:
		if isZero(y) {
			return take(x)
		}
	}
	return nil
}

// ruleSignCorrect rewrites additions and subtractions of negative
// constants into their positive-constant duals.
func ruleSignCorrect(self *Reducer, e *ir.Expr) *ir.Expr {
	if e.Op != ir.OpAdd && e.Op != ir.OpSub {
		return nil
	}
	y := e.Sub[1]
	if !y.IsConst() {
		return nil
	}
	mag, neg := negVal(y.Val, e.Size)
	if !neg {
		return nil
	}
	op := ir.OpSub
	if e.Op == ir.OpSub {
		op = ir.OpAdd
	}
	return ir.Binary(op, take(e.Sub[0]), ir.Val(mag, e.Size))
}

// ruleShrShl cancels a shift pair (x >> c) << c into a mask.
func ruleShrShl(self *Reducer, e *ir.Expr) *ir.Expr {
	if e.Op != ir.OpShl {
		return nil
	}
	x, y := e.Sub[0], e.Sub[1]
	if x.Op != ir.OpShr || !y.IsConst() {
		return nil
	}
	c := x.Sub[1]
	if !c.IsConst() || c.Val != y.Val || c.Val >= 64 {
		return nil
	}
	mask := ^((uint64(1) << uint(c.Val)) - 1) & sizeMask(e.Size)
	return ir.Binary(ir.OpAnd, take(x.Sub[0]), ir.Val(mask, e.Size))
}

// ruleAssoc moves constants rootward through a same-op associative
// chain so folding can catch them: ((x op c1) op c0) -> x op (c1 op c0).
func ruleAssoc(self *Reducer, e *ir.Expr) *ir.Expr {
	switch e.Op {
	case ir.OpAdd, ir.OpMul, ir.OpAnd, ir.OpOr, ir.OpXor:
	default:
		return nil
	}
	x, c0 := e.Sub[0], e.Sub[1]
	if !c0.IsConst() || x.Op != e.Op {
		return nil
	}
	c1 := x.Sub[1]
	if !c1.IsConst() {
		return nil
	}
	v, ok := combineAssoc(e.Op, c1.Val, c0.Val, e.Size)
	if !ok {
		return nil
	}
	return ir.Binary(e.Op, take(x.Sub[0]), ir.Val(v, e.Size))
}

// ruleArithAssoc handles the mixed add/sub chain (x ± c1) ± c0. The
// result keeps the inner operator; the constants combine with + when
// outer and inner agree and with - otherwise.
func ruleArithAssoc(self *Reducer, e *ir.Expr) *ir.Expr {
	if e.Op != ir.OpAdd && e.Op != ir.OpSub {
		return nil
	}
	x, c0 := e.Sub[0], e.Sub[1]
	if !c0.IsConst() {
		return nil
	}
	if x.Op != ir.OpAdd && x.Op != ir.OpSub {
		return nil
	}
	if x.Op == ir.OpAdd && e.Op == ir.OpAdd {
		/* the same-op add chain already went through ruleAssoc */
		return nil
	}
	c1 := x.Sub[1]
	if !c1.IsConst() {
		return nil
	}

	var v uint64
	if x.Op == e.Op {
		v, _ = foldBinary(ir.OpAdd, c1.Val, c0.Val, e.Size)
	} else {
		v, _ = foldBinary(ir.OpSub, c1.Val, c0.Val, e.Size)
	}
	return ir.Binary(x.Op, take(x.Sub[0]), ir.Val(v, e.Size))
}

// ruleEquality is the relational algebra over arithmetic operands.
func ruleEquality(self *Reducer, e *ir.Expr) *ir.Expr {
	if !e.Op.IsCompare() {
		return nil
	}
	x, y := e.Sub[0], e.Sub[1]

	/* (x ± c1) ⋈ c2  ->  x ⋈ (c2 ∓ c1) */
	if y.IsConst() && (x.Op == ir.OpAdd || x.Op == ir.OpSub) && x.Sub[1].IsConst() {
		inv := ir.OpSub
		if x.Op == ir.OpSub {
			inv = ir.OpAdd
		}
		v, _ := foldBinary(inv, y.Val, x.Sub[1].Val, x.Size)
		return ir.Binary(e.Op, take(x.Sub[0]), ir.Val(v, x.Size))
	}

	if (e.Op == ir.OpEQ || e.Op == ir.OpNE) && y.IsConst() && y.Val&sizeMask(x.Size) == 0 {
		switch x.Op {
		case ir.OpSub:
			/* (a - b) == 0  ->  a == b */
			a, b := x.Sub[0], x.Sub[1]
			return ir.Binary(e.Op, take(a), take(b))
		case ir.OpAdd:
			/* (a + b) == 0  ->  a == -b */
			a, b := x.Sub[0], x.Sub[1]
			return ir.Binary(e.Op, take(a), ir.Unary(ir.OpNeg, take(b)))
		}
	}
	return nil
}

// ruleConverge combines two relations over the same operand pair via
// the rank lattice.
func ruleConverge(self *Reducer, e *ir.Expr) *ir.Expr {
	if !self.Converge {
		return nil
	}
	if e.Op != ir.OpBoolOr && e.Op != ir.OpBoolAnd && e.Op != ir.OpEQ {
		return nil
	}

	a, b := e.Sub[0], e.Sub[1]
	ra, oka := relRank(a.Op)
	rb, okb := relRank(b.Op)
	if !oka || !okb {
		return nil
	}
	if !equal(a.Sub[0], b.Sub[0]) || !equal(a.Sub[1], b.Sub[1]) {
		return nil
	}

	var rank uint8
	switch e.Op {
	case ir.OpBoolOr:
		rank = ra | rb
	case ir.OpBoolAnd:
		rank = ra & rb
	case ir.OpEQ:
		rank = ^(ra ^ rb) & 7
	}
	p, q := a.Sub[0], a.Sub[1]
	return relOfRank(rank, take(p), take(q))
}
