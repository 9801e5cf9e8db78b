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

package ssa

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r2dec2/pdd/internal/graph"
	"github.com/r2dec2/pdd/internal/ir"
)

func assign(addr uint64, name string, rhs *ir.Expr) *ir.Stmt {
	return ir.NewStmt(addr, ir.Normal, ir.Assign(ir.Reg(name, 32), rhs))
}

func ret(addr uint64, name string) *ir.Stmt {
	return ir.NewStmt(addr, ir.Return, ir.Reg(name, 32))
}

// diamondFunc is the phi scenario: A -> {B, C} -> D with x defined in
// both arms and read at the join.
func diamondFunc() *ir.Func {
	a := ir.NewBlock(0x100)
	b := ir.NewBlock(0x200)
	c := ir.NewBlock(0x300)
	d := ir.NewBlock(0x400)

	a.Jump, a.Fail = b, c
	b.Jump = d
	c.Jump = d
	d.Exit = true

	b.Body.Append(assign(0x200, "x", ir.Val(1, 32)))
	c.Body.Append(assign(0x300, "x", ir.Val(2, 32)))
	d.Body.Append(ret(0x400, "x"))

	fn := &ir.Func{
		Addr:   0x100,
		Name:   "diamond",
		Blocks: []*ir.BasicBlock{a, b, c, d},
		Entry:  a,
	}
	fn.Rebuild()
	return fn
}

// loopFunc is a single back-edge counter loop:
//
//	A: i = 0
//	B: i = i + 1; branch (i < 10) -> B, else C
//	C: return i
func loopFunc() *ir.Func {
	a := ir.NewBlock(0x100)
	b := ir.NewBlock(0x200)
	c := ir.NewBlock(0x300)

	a.Jump = b
	b.Jump, b.Fail = b, c
	c.Exit = true

	a.Body.Append(assign(0x100, "i", ir.Val(0, 32)))
	b.Body.Append(assign(0x200, "i", ir.Binary(ir.OpAdd, ir.Reg("i", 32), ir.Val(1, 32))))
	b.Body.Append(ir.NewStmt(0x204, ir.Branch, ir.Binary(ir.OpLT, ir.Reg("i", 32), ir.Val(10, 32))))
	c.Body.Append(ret(0x300, "i"))

	fn := &ir.Func{
		Addr:   0x100,
		Name:   "loop",
		Blocks: []*ir.BasicBlock{a, b, c},
		Entry:  a,
	}
	fn.Rebuild()
	return fn
}

func buildSSA(t *testing.T, fn *ir.Func) *ir.Ctx {
	t.Helper()

	dt := graph.Dominators(fn.Graph())
	sc := ir.NewCtx(fn, nil)

	Build(context.Background(), sc, dt, nil)

	for _, err := range ir.CheckFunc(fn, sc) {
		t.Errorf("invariant: %v", err)
	}
	return sc
}

func TestDiamondPhi(t *testing.T) {
	fn := diamondFunc()
	sc := buildSSA(t, fn)

	d := fn.BlockAt(0x400)
	phis := d.Body.Phis()
	require.Len(t, phis, 1)

	asg := phis[0].Expr[0]
	lhs, phi := asg.Lhs(), asg.Rhs()

	require.Equal(t, ir.OpPhi, phi.Op)
	require.Len(t, phi.Sub, 2)
	assert.Equal(t, 3, lhs.Idx)
	assert.True(t, lhs.Weak)

	/* argument order mirrors predecessor order */
	for j, arg := range phi.Sub {
		pred := d.Pred[j]
		var def *ir.Expr
		for _, st := range pred.Body.Stmts {
			if e := st.Expr[0]; e.Op == ir.OpAssign {
				def = e.Lhs()
			}
		}
		require.NotNil(t, def)
		assert.Equal(t, def.Idx, arg.Idx, "phi arg %d", j)
		assert.Same(t, def, arg.Def)
	}

	/* the return reads the phi target */
	r := d.Body.Stmts[len(d.Body.Stmts)-1]
	require.Equal(t, ir.Return, r.Kind)
	assert.Equal(t, lhs.Idx, r.Expr[0].Idx)
	assert.Same(t, lhs, r.Expr[0].Def)

	/* subscripts are unique per location */
	seen := map[string]bool{}
	for _, k := range sc.Keys() {
		require.False(t, seen[k], "duplicate def key %s", k)
		seen[k] = true
	}
}

func TestDiamondTransformOut(t *testing.T) {
	fn := diamondFunc()
	buildSSA(t, fn)

	ir.TransformOut(fn)

	/* the phi survives for the printer, unsubscripted */
	d := fn.BlockAt(0x400)
	phis := d.Body.Phis()
	require.Len(t, phis, 1)
	phis[0].Expr[0].Walk(func(p *ir.Expr) {
		assert.Equal(t, ir.NoIdx, p.Idx)
	})
}

func TestLoopPhi(t *testing.T) {
	fn := loopFunc()
	buildSSA(t, fn)

	b := fn.BlockAt(0x200)
	phis := b.Body.Phis()
	require.Len(t, phis, 1)

	phi := phis[0].Expr[0].Rhs()
	require.Len(t, phi.Sub, 2)

	/* one argument from the pre-header, one from the back edge */
	j0 := b.PredIndex(fn.BlockAt(0x100))
	j1 := b.PredIndex(b)
	require.GreaterOrEqual(t, j0, 0)
	require.GreaterOrEqual(t, j1, 0)

	inc := b.Body.Stmts[1].Expr[0]
	require.Equal(t, ir.OpAssign, inc.Op)
	assert.Equal(t, inc.Lhs().Idx, phi.Sub[j1].Idx, "back edge argument carries the incremented value")

	/* the increment reads the phi value */
	use := inc.Rhs().Sub[0]
	assert.Same(t, phis[0].Expr[0].Lhs(), use.Def)
}

func TestUninitUse(t *testing.T) {
	/* return of a never-written register synthesizes a weak rax_0 */
	a := ir.NewBlock(0x100)
	a.Exit = true
	a.Body.Append(ret(0x100, "rax"))

	fn := &ir.Func{Addr: 0x100, Name: "uninit", Blocks: []*ir.BasicBlock{a}, Entry: a}
	fn.Rebuild()

	sc := buildSSA(t, fn)

	d, ok := sc.Defs["rax#0"]
	require.True(t, ok)
	assert.True(t, d.Weak)
	require.Len(t, sc.Uninit.Stmts, 1)

	u := a.Body.Stmts[0].Expr[0]
	assert.Equal(t, 0, u.Idx)
	assert.Same(t, d, u.Def)
}

func TestStraightLineNoPhi(t *testing.T) {
	/* straight line A -> B: B has a single predecessor, so no block has
	 * a dominance frontier and no phi is inserted for the definition */
	a := ir.NewBlock(0x100)
	b := ir.NewBlock(0x200)
	a.Jump = b
	b.Exit = true

	a.Body.Append(assign(0x100, "x", ir.Val(1, 32)))
	b.Body.Append(ret(0x200, "x"))

	fn := &ir.Func{Addr: 0x100, Name: "line", Blocks: []*ir.BasicBlock{a, b}, Entry: a}
	fn.Rebuild()

	buildSSA(t, fn)

	for _, bb := range fn.Blocks {
		assert.Empty(t, bb.Body.Phis(), "no phi should survive in %s", bb)
	}
}
