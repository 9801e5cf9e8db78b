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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaceMaintainsLinks(t *testing.T) {
	def := Reg("a", 32)
	Assign(def, Val(1, 32))

	u1 := Reg("a", 32)
	u2 := Reg("a", 32)
	def.AddUse(u1)
	def.AddUse(u2)

	sum := Binary(OpAdd, u1, u2)
	st := NewStmt(0x100, Normal, sum)
	require.Same(t, st, sum.StmtRoot())

	/* replacing u2 with a constant unhooks it from the def */
	Replace(u2, Val(7, 32))

	require.Len(t, def.Uses, 1)
	assert.Same(t, u1, def.Uses[0])
	assert.Nil(t, u2.Def)
	assert.Equal(t, "(a + 7)", sum.String())
}

func TestReplaceStmtRoot(t *testing.T) {
	e := Binary(OpAdd, Val(1, 32), Val(2, 32))
	st := NewStmt(0x100, Normal, e)

	r := Val(3, 32)
	Replace(e, r)

	require.Len(t, st.Expr, 1)
	assert.Same(t, r, st.Expr[0])
	assert.Same(t, st, r.StmtRoot())
	assert.Nil(t, e.Root)
}

func TestPluckDetaches(t *testing.T) {
	def := Reg("a", 32)
	Assign(def, Val(1, 32))

	u := Reg("a", 32)
	def.AddUse(u)

	e := Binary(OpAdd, u, Val(2, 32))
	NewStmt(0x100, Normal, e)

	Pluck(e, true)
	assert.Empty(t, def.Uses)
	assert.Nil(t, u.Def)
}

func TestCloneKeep(t *testing.T) {
	def := Reg("a", 32)
	Assign(def, Val(1, 32))

	u := Reg("a", 32)
	u.Idx = 3
	u.Safe = true
	u.Weak = true
	def.AddUse(u)

	bare := Clone(u, 0)
	assert.Equal(t, NoIdx, bare.Idx)
	assert.Nil(t, bare.Def)
	assert.False(t, bare.Safe)
	assert.False(t, bare.Weak)

	full := Clone(u, KeepSSA)
	assert.Equal(t, 3, full.Idx)
	assert.Same(t, def, full.Def)
	assert.True(t, full.Safe)
	assert.True(t, full.Weak)

	/* clones never inherit readers */
	assert.Empty(t, full.Uses)
	require.Len(t, def.Uses, 1)
}

func TestContainerPhiGrouping(t *testing.T) {
	c := NewContainer(0x100)

	body := NewStmt(0x100, Normal, Assign(Reg("a", 32), Val(1, 32)))
	c.Append(body)

	phi := NewStmt(0x100, Normal, Assign(Reg("x", 32), Phi(Reg("x", 32), Reg("x", 32))))
	c.Prepend(phi)

	phi2 := NewStmt(0x100, Normal, Assign(Reg("y", 32), Phi(Reg("y", 32), Reg("y", 32))))
	c.Prepend(phi2)

	require.Len(t, c.Phis(), 2)
	assert.Same(t, body, c.Stmts[2])

	/* a non-phi prepend lands below the phi group */
	head := NewStmt(0x100, Normal, Assign(Reg("b", 32), Val(2, 32)))
	c.Prepend(head)
	require.Len(t, c.Phis(), 2)
	assert.Same(t, head, c.Stmts[2])
}

func TestDefKey(t *testing.T) {
	r := Reg("rax", 64)
	assert.Equal(t, "rax", r.DefKey())

	r.Idx = 2
	assert.Equal(t, "rax#2", r.DefKey())

	d := Deref(Binary(OpSub, Reg("rsp", 64), Val(8, 64)), 64)
	d.Idx = 1
	assert.Equal(t, "*((rsp - 8))#1", d.DefKey())
}

func TestCtxKeysSnapshot(t *testing.T) {
	fn := &Func{Addr: 0x100}
	ctx := NewCtx(fn, nil)

	a := Reg("a", 32)
	a.Idx = 1
	Assign(a, Val(1, 32))
	ctx.AddDef(a)

	b := Reg("b", 32)
	b.Idx = 1
	Assign(b, Val(2, 32))
	ctx.AddDef(b)

	keys := ctx.Keys()
	require.Equal(t, []string{"a#1", "b#1"}, keys)

	/* deletions mid-iteration do not disturb the snapshot */
	ctx.DelDef("a#1")
	assert.Equal(t, []string{"a#1", "b#1"}, keys)
	assert.Equal(t, []string{"b#1"}, ctx.Keys())
}

func TestTransformOut(t *testing.T) {
	fn := &Func{Addr: 0x100}
	bb := NewBlock(0x100)
	fn.Blocks = []*BasicBlock{bb}
	fn.Entry = bb

	a := Reg("a", 32)
	a.Idx = 1
	bb.Body.Append(NewStmt(0x100, Normal, Assign(a, Val(1, 32))))

	u := Reg("a", 32)
	u.Idx = 1
	bb.Body.Append(NewStmt(0x101, Return, u))

	TransformOut(fn)

	fn.Stmts(func(_ *BasicBlock, st *Stmt) {
		for _, e := range st.Expr {
			e.Walk(func(p *Expr) {
				assert.Equal(t, NoIdx, p.Idx)
			})
		}
	})
}

func TestCheckFuncCatchesBrokenUses(t *testing.T) {
	fn := &Func{Addr: 0x100}
	bb := NewBlock(0x100)
	fn.Blocks = []*BasicBlock{bb}
	fn.Entry = bb

	def := Reg("a", 32)
	def.Idx = 1
	bb.Body.Append(NewStmt(0x100, Normal, Assign(def, Val(1, 32))))

	u := Reg("a", 32)
	u.Idx = 1
	u.Def = def /* not registered in def.Uses: inconsistent on purpose */
	bb.Body.Append(NewStmt(0x101, Return, u))

	errs := CheckFunc(fn, nil)
	require.NotEmpty(t, errs)
}

func TestCheckFuncPhiArity(t *testing.T) {
	fn := &Func{Addr: 0x100}
	a := NewBlock(0x100)
	b := NewBlock(0x200)
	a.Jump = b
	fn.Blocks = []*BasicBlock{a, b}
	fn.Entry = a
	b.Exit = true
	fn.Rebuild()

	/* two-argument phi in a single-predecessor block */
	b.Body.Prepend(NewStmt(0x200, Normal, Assign(Reg("x", 32), Phi(Reg("x", 32), Reg("x", 32)))))

	errs := CheckFunc(fn, nil)
	require.NotEmpty(t, errs)
}
