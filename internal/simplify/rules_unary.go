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

var unaryRules = []rule{
	ruleFoldUnary,
	ruleDoubleUnary,
	ruleBoolNot,
}

var refRules = []rule{
	ruleRefDeref,
}

func ruleFoldUnary(self *Reducer, e *ir.Expr) *ir.Expr {
	x := e.Sub[0]
	if !x.IsConst() {
		return nil
	}
	m := sizeMask(e.Size)

	switch e.Op {
	case ir.OpNeg:
		return ir.Val((-x.Val)&m, e.Size)
	case ir.OpNot:
		return ir.Val(^x.Val&m, e.Size)
	case ir.OpBoolNot:
		if x.Val&m == 0 {
			return ir.Val(1, 1)
		}
		return ir.Val(0, 1)
	}
	return nil
}

func ruleDoubleUnary(self *Reducer, e *ir.Expr) *ir.Expr {
	x := e.Sub[0]
	if x.Op != e.Op {
		return nil
	}
	switch e.Op {
	case ir.OpNeg, ir.OpNot, ir.OpBoolNot:
		return take(x.Sub[0])
	}
	return nil
}

func ruleBoolNot(self *Reducer, e *ir.Expr) *ir.Expr {
	if e.Op != ir.OpBoolNot {
		return nil
	}
	x := e.Sub[0]

	switch x.Op {
	case ir.OpBoolAnd:
		/* deMorgan */
		a, b := x.Sub[0], x.Sub[1]
		return ir.Binary(ir.OpBoolOr,
			ir.Unary(ir.OpBoolNot, take(a)),
			ir.Unary(ir.OpBoolNot, take(b)))
	case ir.OpBoolOr:
		a, b := x.Sub[0], x.Sub[1]
		return ir.Binary(ir.OpBoolAnd,
			ir.Unary(ir.OpBoolNot, take(a)),
			ir.Unary(ir.OpBoolNot, take(b)))
	case ir.OpAdd:
		/* !(a + b)  ->  a == -b */
		a, b := x.Sub[0], x.Sub[1]
		return ir.Binary(ir.OpEQ, take(a), ir.Unary(ir.OpNeg, take(b)))
	case ir.OpSub:
		/* !(a - b)  ->  a == b */
		a, b := x.Sub[0], x.Sub[1]
		return ir.Binary(ir.OpEQ, take(a), take(b))
	}

	/* relation complement through the rank lattice */
	if r, ok := relRank(x.Op); ok {
		a, b := x.Sub[0], x.Sub[1]
		return relOfRank(r^7, take(a), take(b))
	}
	return nil
}

// ruleRefDeref cancels address-of/dereference pairs. Renamed memory
// locations are left alone: their def links carry meaning.
func ruleRefDeref(self *Reducer, e *ir.Expr) *ir.Expr {
	if e.IsDef || e.Idx != ir.NoIdx {
		return nil
	}
	x := e.Sub[0]

	switch {
	case e.Op == ir.OpAddrOf && x.Op == ir.OpDeref && !x.IsDef && x.Idx == ir.NoIdx:
		/* &(*a)  ->  a */
		return take(x.Sub[0])
	case e.Op == ir.OpDeref && x.Op == ir.OpAddrOf:
		/* *(&a)  ->  a */
		return take(x.Sub[0])
	}
	return nil
}
