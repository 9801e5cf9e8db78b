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

package pdd

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r2dec2/pdd/internal/ir"
	"github.com/r2dec2/pdd/internal/lifter"
	_ "github.com/r2dec2/pdd/internal/lifter/x86"
	"github.com/r2dec2/pdd/internal/opts"
)

func plainConf() *opts.Options {
	conf := opts.Default()
	conf.Theme = "none"
	conf.Offsets = false
	conf.Guides = 0
	return conf
}

// straight-line arithmetic collapses to a single constant return.
func TestPipelineStraightLine(t *testing.T) {
	bb := ir.NewBlock(0x100)
	bb.Exit = true
	bb.Body.Append(ir.NewStmt(0x100, ir.Normal, ir.Assign(ir.Reg("a", 32), ir.Val(2, 32))))
	bb.Body.Append(ir.NewStmt(0x104, ir.Normal, ir.Assign(ir.Reg("b", 32), ir.Val(3, 32))))
	bb.Body.Append(ir.NewStmt(0x108, ir.Normal,
		ir.Assign(ir.Reg("c", 32), ir.Binary(ir.OpAdd, ir.Reg("a", 32), ir.Reg("b", 32)))))
	bb.Body.Append(ir.NewStmt(0x10c, ir.Return, ir.Reg("c", 32)))

	fn := &ir.Func{Addr: 0x100, Name: "arith", Ret: "int", Blocks: []*ir.BasicBlock{bb}, Entry: bb}

	out, err := DecompileFunc(context.Background(), fn, plainConf())
	require.NoError(t, err)

	assert.Contains(t, out, "return 5;")
	assert.NotContains(t, out, "a =")
}

// the diamond keeps its phi through transform-out; the printed join
// reads the merged location.
func TestPipelineDiamond(t *testing.T) {
	a := ir.NewBlock(0x100)
	b := ir.NewBlock(0x200)
	c := ir.NewBlock(0x300)
	d := ir.NewBlock(0x400)

	a.Jump, a.Fail = c, b
	a.Body.Append(ir.NewStmt(0x100, ir.Branch, ir.Binary(ir.OpEQ, ir.Reg("edi", 32), ir.Val(0, 32))))
	b.Jump = d
	b.Body.Append(ir.NewStmt(0x200, ir.Normal, ir.Assign(ir.Reg("x", 32), ir.Val(1, 32))))
	c.Jump = d
	c.Body.Append(ir.NewStmt(0x300, ir.Normal, ir.Assign(ir.Reg("x", 32), ir.Val(2, 32))))
	d.Exit = true
	d.Body.Append(ir.NewStmt(0x400, ir.Return, ir.Reg("x", 32)))

	fn := &ir.Func{Addr: 0x100, Name: "pick", Ret: "int", Blocks: []*ir.BasicBlock{a, b, c, d}, Entry: a}

	out, err := DecompileFunc(context.Background(), fn, plainConf())
	require.NoError(t, err)

	assert.Contains(t, out, "Φ(")
	assert.Contains(t, out, "return x;")
	assert.NotContains(t, out, "x_1", "subscripts must be stripped")
}

// lifted x86: mov eax, 2; add eax, 3; ret  ->  return 5
func TestPipelineFromMachineCode(t *testing.T) {
	desc := &lifter.FuncDesc{
		Addr: 0x1000,
		Name: "five",
		Ret:  "int",
		Arch: "x86.64",
		Blocks: []lifter.BlockDesc{{
			Addr:  0x1000,
			Entry: true,
			Exit:  true,
			Ins: []lifter.InsDesc{
				{Addr: 0x1000, Bytes: "b802000000"}, /* mov eax, 2 */
				{Addr: 0x1005, Bytes: "83c003"},     /* add eax, 3 */
				{Addr: 0x1008, Bytes: "c3"},         /* ret */
			},
		}},
	}

	out, err := Decompile(context.Background(), desc,
		WithTheme("none"), WithOffsets(false), WithGuides(0))
	require.NoError(t, err)

	assert.Contains(t, out, "five")
	assert.Contains(t, out, "return")
	assert.Contains(t, out, "5")
}

func TestPipelineUnknownArch(t *testing.T) {
	_, err := Decompile(context.Background(), &lifter.FuncDesc{Name: "f", Arch: "dalvik"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown architecture")
}

// running the whole pipeline twice over equal inputs produces
// identical output.
func TestPipelineDeterministic(t *testing.T) {
	mk := func() *ir.Func {
		a := ir.NewBlock(0x100)
		b := ir.NewBlock(0x200)
		c := ir.NewBlock(0x300)
		a.Jump = b
		b.Jump, b.Fail = b, c
		a.Body.Append(ir.NewStmt(0x100, ir.Normal, ir.Assign(ir.Reg("i", 32), ir.Val(0, 32))))
		b.Body.Append(ir.NewStmt(0x200, ir.Normal,
			ir.Assign(ir.Reg("i", 32), ir.Binary(ir.OpAdd, ir.Reg("i", 32), ir.Val(1, 32)))))
		b.Body.Append(ir.NewStmt(0x204, ir.Branch, ir.Binary(ir.OpLT, ir.Reg("i", 32), ir.Val(10, 32))))
		c.Exit = true
		c.Body.Append(ir.NewStmt(0x300, ir.Return, ir.Reg("i", 32)))
		return &ir.Func{Addr: 0x100, Name: "loop", Ret: "int", Blocks: []*ir.BasicBlock{a, b, c}, Entry: a}
	}

	out1, err := DecompileFunc(context.Background(), mk(), plainConf())
	require.NoError(t, err)
	out2, err := DecompileFunc(context.Background(), mk(), plainConf())
	require.NoError(t, err)

	require.Equal(t, out1, out2)
	assert.True(t, strings.Contains(out1, "while (true)") || strings.Contains(out1, "Φ("),
		"loop structure or its phi must be visible:\n%s", out1)
}
