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
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r2dec2/pdd/internal/ir"
)

func x32() *ir.Expr { return ir.Reg("x", 32) }
func y32() *ir.Expr { return ir.Reg("y", 32) }

func structEq(t *testing.T, want *ir.Expr, got *ir.Expr) {
	t.Helper()
	if d := cmp.Diff(want.String(), got.String()); d != "" {
		t.Fatalf("expression mismatch (-want +got):\n%s", d)
	}
}

func TestArithmeticIdentities(t *testing.T) {
	structEq(t, x32(), Reduce(ir.Binary(ir.OpAdd, x32(), ir.Val(0, 32))))
	structEq(t, x32(), Reduce(ir.Binary(ir.OpSub, x32(), ir.Val(0, 32))))
	structEq(t, x32(), Reduce(ir.Binary(ir.OpMul, x32(), ir.Val(1, 32))))
	structEq(t, x32(), Reduce(ir.Binary(ir.OpDiv, x32(), ir.Val(1, 32))))
}

func TestBitwiseIdentities(t *testing.T) {
	structEq(t, x32(), Reduce(ir.Binary(ir.OpXor, ir.Val(0, 32), x32())))
	structEq(t, ir.Val(0, 32), Reduce(ir.Binary(ir.OpXor, x32(), x32())))
	structEq(t, ir.Unary(ir.OpNot, x32()), Reduce(ir.Binary(ir.OpXor, x32(), ir.Val(0xffffffff, 32))))
	structEq(t, x32(), Reduce(ir.Binary(ir.OpAnd, x32(), x32())))
	structEq(t, x32(), Reduce(ir.Binary(ir.OpOr, x32(), x32())))
	structEq(t, ir.Val(0, 32), Reduce(ir.Binary(ir.OpAnd, x32(), ir.Val(0, 32))))
	structEq(t, ir.Val(0xffffffff, 32), Reduce(ir.Binary(ir.OpOr, x32(), ir.Val(0xffffffff, 32))))
	structEq(t, ir.Val(0, 32), Reduce(ir.Binary(ir.OpShl, ir.Val(0, 32), x32())))
	structEq(t, x32(), Reduce(ir.Binary(ir.OpShl, x32(), ir.Val(0, 32))))
}

func TestShrShlMask(t *testing.T) {
	e := ir.Binary(ir.OpShl, ir.Binary(ir.OpShr, x32(), ir.Val(4, 32)), ir.Val(4, 32))
	structEq(t, ir.Binary(ir.OpAnd, x32(), ir.Val(0xfffffff0, 32)), Reduce(e))
}

func TestConstantFolding(t *testing.T) {
	structEq(t, ir.Val(5, 32), Reduce(ir.Binary(ir.OpAdd, ir.Val(2, 32), ir.Val(3, 32))))
	structEq(t, ir.Val(6, 32), Reduce(ir.Binary(ir.OpMul, ir.Val(2, 32), ir.Val(3, 32))))

	/* a right shift of a constant with the MSB set must not fold */
	e := ir.Binary(ir.OpShr, ir.Val(0x80000000, 32), ir.Val(1, 32))
	structEq(t, e, Reduce(ir.Binary(ir.OpShr, ir.Val(0x80000000, 32), ir.Val(1, 32))))

	/* MSB clear folds fine */
	structEq(t, ir.Val(0x10, 32), Reduce(ir.Binary(ir.OpShr, ir.Val(0x20, 32), ir.Val(1, 32))))
}

func TestSignCorrection(t *testing.T) {
	neg2 := ir.Val(0xfffffffe, 32)
	structEq(t, ir.Binary(ir.OpSub, x32(), ir.Val(2, 32)), Reduce(ir.Binary(ir.OpAdd, x32(), neg2)))
	structEq(t, ir.Binary(ir.OpAdd, x32(), ir.Val(2, 32)), Reduce(ir.Binary(ir.OpSub, x32(), ir.Val(0xfffffffe, 32))))
}

func TestReassociation(t *testing.T) {
	inner := ir.Binary(ir.OpAdd, x32(), ir.Val(3, 32))
	structEq(t, ir.Binary(ir.OpAdd, x32(), ir.Val(5, 32)), Reduce(ir.Binary(ir.OpAdd, inner, ir.Val(2, 32))))

	inner = ir.Binary(ir.OpSub, x32(), ir.Val(3, 32))
	structEq(t, ir.Binary(ir.OpSub, x32(), ir.Val(5, 32)), Reduce(ir.Binary(ir.OpSub, inner, ir.Val(2, 32))))

	/* (x + 3) - 2  ->  x + 1 */
	inner = ir.Binary(ir.OpAdd, x32(), ir.Val(3, 32))
	structEq(t, ir.Binary(ir.OpAdd, x32(), ir.Val(1, 32)), Reduce(ir.Binary(ir.OpSub, inner, ir.Val(2, 32))))
}

func TestEqualityAlgebra(t *testing.T) {
	/* (x - y) == 0  ->  x == y */
	e := ir.Binary(ir.OpEQ, ir.Binary(ir.OpSub, x32(), y32()), ir.Val(0, 32))
	structEq(t, ir.Binary(ir.OpEQ, x32(), y32()), Reduce(e))

	/* (x + 5) == 7  ->  x == 2 */
	e = ir.Binary(ir.OpEQ, ir.Binary(ir.OpAdd, x32(), ir.Val(5, 32)), ir.Val(7, 32))
	structEq(t, ir.Binary(ir.OpEQ, x32(), ir.Val(2, 32)), Reduce(e))

	/* constant relations fold both ways */
	structEq(t, ir.Val(1, 1), Reduce(ir.Binary(ir.OpEQ, ir.Val(3, 32), ir.Val(3, 32))))
	structEq(t, ir.Val(0, 1), Reduce(ir.Binary(ir.OpEQ, ir.Val(3, 32), ir.Val(4, 32))))
	structEq(t, ir.Val(1, 1), Reduce(ir.Binary(ir.OpNE, ir.Val(3, 32), ir.Val(4, 32))))
	structEq(t, ir.Val(0, 1), Reduce(ir.Binary(ir.OpNE, ir.Val(3, 32), ir.Val(3, 32))))
}

func TestBoolNot(t *testing.T) {
	structEq(t, x32(), Reduce(ir.Unary(ir.OpBoolNot, ir.Unary(ir.OpBoolNot, x32()))))
	structEq(t, ir.Val(1, 1), Reduce(ir.Unary(ir.OpBoolNot, ir.Val(0, 32))))
	structEq(t, ir.Val(0, 1), Reduce(ir.Unary(ir.OpBoolNot, ir.Val(7, 32))))

	/* !(x - y)  ->  x == y */
	structEq(t, ir.Binary(ir.OpEQ, x32(), y32()),
		Reduce(ir.Unary(ir.OpBoolNot, ir.Binary(ir.OpSub, x32(), y32()))))

	/* deMorgan */
	e := ir.Unary(ir.OpBoolNot, ir.Binary(ir.OpBoolAnd, x32(), y32()))
	structEq(t, ir.Binary(ir.OpBoolOr, ir.Unary(ir.OpBoolNot, x32()), ir.Unary(ir.OpBoolNot, y32())), Reduce(e))
}

func TestRelationalConvergence(t *testing.T) {
	/* (x < y) || (x == y)  ->  x <= y */
	e := ir.Binary(ir.OpBoolOr, ir.Binary(ir.OpLT, x32(), y32()), ir.Binary(ir.OpEQ, x32(), y32()))
	structEq(t, ir.Binary(ir.OpLE, x32(), y32()), Reduce(e))

	/* (x <= y) && (x >= y)  ->  x == y */
	e = ir.Binary(ir.OpBoolAnd, ir.Binary(ir.OpLE, x32(), y32()), ir.Binary(ir.OpGE, x32(), y32()))
	structEq(t, ir.Binary(ir.OpEQ, x32(), y32()), Reduce(e))

	/* !(x < y)  ->  x >= y */
	e = ir.Unary(ir.OpBoolNot, ir.Binary(ir.OpLT, x32(), y32()))
	structEq(t, ir.Binary(ir.OpGE, x32(), y32()), Reduce(e))

	/* (x < y) || (x > y)  ->  x != y */
	e = ir.Binary(ir.OpBoolOr, ir.Binary(ir.OpLT, x32(), y32()), ir.Binary(ir.OpGT, x32(), y32()))
	structEq(t, ir.Binary(ir.OpNE, x32(), y32()), Reduce(e))

	/* (x < y) && (x > y)  ->  false */
	e = ir.Binary(ir.OpBoolAnd, ir.Binary(ir.OpLT, x32(), y32()), ir.Binary(ir.OpGT, x32(), y32()))
	structEq(t, ir.Val(0, 1), Reduce(e))
}

func TestConvergeDisabled(t *testing.T) {
	r := &Reducer{Converge: false}
	e := ir.Binary(ir.OpBoolOr, ir.Binary(ir.OpLT, x32(), y32()), ir.Binary(ir.OpEQ, x32(), y32()))
	got := r.ReduceExpr(e)
	assert.Equal(t, ir.OpBoolOr, got.Op)
}

func TestRefDeref(t *testing.T) {
	structEq(t, x32(), Reduce(ir.AddrOf(ir.Deref(x32(), 32))))
	structEq(t, x32(), Reduce(ir.Deref(ir.AddrOf(x32()), 32)))
}

func TestTernaryFolding(t *testing.T) {
	structEq(t, x32(), Reduce(ir.TCond(ir.Val(1, 1), x32(), y32())))
	structEq(t, y32(), Reduce(ir.TCond(ir.Val(0, 1), x32(), y32())))
}

// randExpr builds a random expression over a couple of registers and
// small constants.
func randExpr(f *gofakeit.Faker, depth int) *ir.Expr {
	if depth == 0 || f.Number(0, 3) == 0 {
		if f.Bool() {
			return ir.Val(uint64(f.Number(0, 255)), 32)
		}
		return ir.Reg(f.RandomString([]string{"a", "b", "c"}), 32)
	}

	ops := []ir.Op{ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpAnd, ir.OpOr, ir.OpXor, ir.OpShl, ir.OpShr, ir.OpEQ, ir.OpNE, ir.OpLT, ir.OpLE}
	op := ops[f.Number(0, len(ops)-1)]
	return ir.Binary(op, randExpr(f, depth-1), randExpr(f, depth-1))
}

func TestReduceIdempotent(t *testing.T) {
	f := gofakeit.New(42)

	for i := 0; i < 500; i++ {
		e := randExpr(f, 4)

		once := Reduce(e)
		s1 := once.String()
		twice := Reduce(once)
		require.Equal(t, s1, twice.String(), "reduction not idempotent")
	}
}

func TestReduceKeepsDefUseLinks(t *testing.T) {
	def := ir.Reg("a", 32)
	ir.Assign(def, ir.Val(1, 32))

	use := ir.Reg("a", 32)
	def.AddUse(use)

	e := ir.Binary(ir.OpAdd, use, ir.Val(0, 32))
	got := Reduce(e)

	require.Same(t, use, got)
	require.Len(t, def.Uses, 1)
	require.Same(t, use, def.Uses[0])
}
