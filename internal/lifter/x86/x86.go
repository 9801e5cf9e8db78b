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

// Package x86 lifts 64-bit x86 instructions into the IR. Decoding is
// done by golang.org/x/arch; the lifter pairs compare instructions
// with the conditional branches that consume them, the way the
// pseudo-code reader expects conditions to look.
package x86

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/arch/x86/x86asm"

	"github.com/r2dec2/pdd/internal/ir"
	"github.com/r2dec2/pdd/internal/lifter"
)

const _WordSize = 64

func init() {
	lifter.Register("x86", New)
	lifter.Register("x86.64", New)
}

type _Lifter struct {
	/* last flag-setting comparison within the block */
	cmpL *ir.Expr
	cmpR *ir.Expr
}

func New() lifter.Arch { return new(_Lifter) }

func (self *_Lifter) Name() string { return "x86.64" }

func (self *_Lifter) LiftBlock(b *lifter.BlockDesc) (*ir.Container, error) {
	c := ir.NewContainer(b.Addr)
	self.cmpL, self.cmpR = nil, nil

	for i := range b.Ins {
		p := &b.Ins[i]

		code, err := hex.DecodeString(strings.ReplaceAll(p.Bytes, " ", ""))
		if err != nil {
			return nil, fmt.Errorf("block %x: bad instruction bytes at %x: %w", b.Addr, p.Addr, err)
		}

		inst, err := x86asm.Decode(code, _WordSize)
		if err != nil {
			/* undecodable bytes survive as an opaque intrinsic */
			c.Append(ir.NewStmt(p.Addr, ir.Normal, ir.Intrinsic("__asm", ir.Var(p.Text, 0))))
			continue
		}

		for _, st := range self.lift(p.Addr, inst, p.Text) {
			c.Append(st)
		}
	}
	return c, nil
}

func (self *_Lifter) lift(addr uint64, inst x86asm.Inst, text string) []*ir.Stmt {
	one := func(k ir.Kind, e *ir.Expr) []*ir.Stmt {
		return []*ir.Stmt{ir.NewStmt(addr, k, e)}
	}

	switch inst.Op {
	case x86asm.NOP:
		return nil

	case x86asm.MOV, x86asm.MOVZX, x86asm.MOVSX, x86asm.MOVSXD:
		dst := self.operand(inst.Args[0], inst)
		src := self.operand(inst.Args[1], inst)
		return one(ir.Normal, ir.Assign(dst, src))

	case x86asm.LEA:
		dst := self.operand(inst.Args[0], inst)
		src := self.operand(inst.Args[1], inst)
		if src.Op == ir.OpDeref {
			src = ir.Pluck(src.Sub[0], false)
		}
		return one(ir.Normal, ir.Assign(dst, src))

	case x86asm.ADD, x86asm.SUB, x86asm.IMUL, x86asm.MUL,
		x86asm.AND, x86asm.OR, x86asm.XOR,
		x86asm.SHL, x86asm.SHR, x86asm.SAR:
		if inst.Args[1] == nil {
			break /* one-operand forms are rare in compiler output */
		}
		dst := self.operand(inst.Args[0], inst)
		lhs := self.operand(inst.Args[0], inst)
		rhs := self.operand(inst.Args[1], inst)
		e := ir.Binary(binOp(inst.Op), lhs, rhs)

		/* arithmetic results feed later conditional branches */
		self.cmpL, self.cmpR = lhs, ir.Val(0, lhs.Size)
		return one(ir.Normal, ir.Assign(dst, e))

	case x86asm.INC, x86asm.DEC:
		dst := self.operand(inst.Args[0], inst)
		lhs := self.operand(inst.Args[0], inst)
		op := ir.OpAdd
		if inst.Op == x86asm.DEC {
			op = ir.OpSub
		}
		return one(ir.Normal, ir.Assign(dst, ir.Binary(op, lhs, ir.Val(1, lhs.Size))))

	case x86asm.NEG, x86asm.NOT:
		dst := self.operand(inst.Args[0], inst)
		lhs := self.operand(inst.Args[0], inst)
		op := ir.OpNeg
		if inst.Op == x86asm.NOT {
			op = ir.OpNot
		}
		return one(ir.Normal, ir.Assign(dst, ir.Unary(op, lhs)))

	case x86asm.CMP:
		self.cmpL = self.operand(inst.Args[0], inst)
		self.cmpR = self.operand(inst.Args[1], inst)
		return nil

	case x86asm.TEST:
		l := self.operand(inst.Args[0], inst)
		r := self.operand(inst.Args[1], inst)
		self.cmpL = ir.Binary(ir.OpAnd, l, r)
		self.cmpR = ir.Val(0, l.Size)
		return nil

	case x86asm.PUSH:
		src := self.operand(inst.Args[0], inst)
		sp := ir.Reg("rsp", _WordSize)
		dec := ir.Assign(ir.Reg("rsp", _WordSize), ir.Binary(ir.OpSub, sp, ir.Val(8, _WordSize)))
		store := ir.Assign(ir.Deref(ir.Reg("rsp", _WordSize), _WordSize), src)
		return []*ir.Stmt{
			ir.NewStmt(addr, ir.Normal, dec),
			ir.NewStmt(addr, ir.Normal, store),
		}

	case x86asm.POP:
		dst := self.operand(inst.Args[0], inst)
		load := ir.Assign(dst, ir.Deref(ir.Reg("rsp", _WordSize), _WordSize))
		sp := ir.Reg("rsp", _WordSize)
		inc := ir.Assign(ir.Reg("rsp", _WordSize), ir.Binary(ir.OpAdd, sp, ir.Val(8, _WordSize)))
		return []*ir.Stmt{
			ir.NewStmt(addr, ir.Normal, load),
			ir.NewStmt(addr, ir.Normal, inc),
		}

	case x86asm.CALL:
		callee := self.callTarget(addr, inst.Args[0], inst)
		return one(ir.Normal, ir.Assign(ir.Reg("rax", _WordSize), ir.Call(callee)))

	case x86asm.RET:
		return one(ir.Return, ir.Reg("rax", _WordSize))

	case x86asm.JMP:
		if rel, ok := inst.Args[0].(x86asm.Rel); ok {
			return one(ir.Goto, ir.Val(addr+uint64(inst.Len)+uint64(int64(rel)), _WordSize))
		}
		return one(ir.Goto, self.operand(inst.Args[0], inst))

	case x86asm.JE, x86asm.JNE, x86asm.JL, x86asm.JLE, x86asm.JG, x86asm.JGE,
		x86asm.JB, x86asm.JBE, x86asm.JA, x86asm.JAE, x86asm.JS, x86asm.JNS:
		return one(ir.Branch, self.branch(inst.Op))
	}

	/* anything unhandled survives as an opaque intrinsic so the
	 * output never silently drops an instruction */
	return one(ir.Normal, ir.Intrinsic("__asm", ir.Var(text, 0)))
}

func (self *_Lifter) branch(op x86asm.Op) *ir.Expr {
	l, r := self.cmpL, self.cmpR
	if l == nil {
		l, r = ir.Reg("zf", 1), ir.Val(0, 1)
	}

	var rel ir.Op
	switch op {
	case x86asm.JE:
		rel = ir.OpEQ
	case x86asm.JNE:
		rel = ir.OpNE
	case x86asm.JL, x86asm.JB, x86asm.JS:
		rel = ir.OpLT
	case x86asm.JLE, x86asm.JBE:
		rel = ir.OpLE
	case x86asm.JG, x86asm.JA:
		rel = ir.OpGT
	case x86asm.JGE, x86asm.JAE, x86asm.JNS:
		rel = ir.OpGE
	}

	return ir.Binary(rel, ir.Clone(l, 0), ir.Clone(r, 0))
}

func (self *_Lifter) operand(arg x86asm.Arg, inst x86asm.Inst) *ir.Expr {
	switch a := arg.(type) {
	case x86asm.Reg:
		return ir.Reg(regName(a), regSize(a))

	case x86asm.Imm:
		return ir.Val(uint64(a), int(inst.DataSize))

	case x86asm.Mem:
		var e *ir.Expr
		if a.Base != 0 {
			e = ir.Reg(regName(a.Base), regSize(a.Base))
		}
		if a.Index != 0 {
			idx := ir.Binary(ir.OpMul, ir.Reg(regName(a.Index), regSize(a.Index)), ir.Val(uint64(a.Scale), _WordSize))
			if e == nil {
				e = idx
			} else {
				e = ir.Binary(ir.OpAdd, e, idx)
			}
		}
		if a.Disp != 0 || e == nil {
			d := ir.Val(uint64(a.Disp), _WordSize)
			if e == nil {
				e = d
			} else {
				e = ir.Binary(ir.OpAdd, e, d)
			}
		}
		return ir.Deref(e, int(inst.MemBytes)*8)

	case x86asm.Rel:
		return ir.Val(uint64(int64(inst.Len)+int64(a)), _WordSize)

	default:
		return ir.Var(strings.ToLower(arg.String()), 0)
	}
}

func (self *_Lifter) callTarget(addr uint64, arg x86asm.Arg, inst x86asm.Inst) string {
	switch a := arg.(type) {
	case x86asm.Rel:
		return fmt.Sprintf("fcn_%x", addr+uint64(inst.Len)+uint64(int64(a)))
	default:
		return strings.ToLower(arg.String())
	}
}

func binOp(op x86asm.Op) ir.Op {
	switch op {
	case x86asm.ADD:
		return ir.OpAdd
	case x86asm.SUB:
		return ir.OpSub
	case x86asm.IMUL, x86asm.MUL:
		return ir.OpMul
	case x86asm.AND:
		return ir.OpAnd
	case x86asm.OR:
		return ir.OpOr
	case x86asm.XOR:
		return ir.OpXor
	case x86asm.SHL:
		return ir.OpShl
	case x86asm.SHR, x86asm.SAR:
		return ir.OpShr
	default:
		return ir.OpAdd
	}
}

// regName canonicalizes sub-registers onto their full-width parent so
// that eax and rax alias the same SSA location; the operand size still
// reflects the narrow access.
func regName(r x86asm.Reg) string {
	s := strings.ToLower(r.String())

	switch s {
	case "al", "ah", "ax", "eax":
		return "rax"
	case "bl", "bh", "bx", "ebx":
		return "rbx"
	case "cl", "ch", "cx", "ecx":
		return "rcx"
	case "dl", "dh", "dx", "edx":
		return "rdx"
	case "sil", "si", "esi":
		return "rsi"
	case "dil", "di", "edi":
		return "rdi"
	case "bpl", "bp", "ebp":
		return "rbp"
	case "spl", "sp", "esp":
		return "rsp"
	}

	/* r8b / r8w / r8d and friends */
	if strings.HasPrefix(s, "r") && len(s) > 2 {
		switch s[len(s)-1] {
		case 'b', 'w', 'd':
			if c := s[1]; c >= '0' && c <= '9' {
				return s[:len(s)-1]
			}
		}
	}
	return s
}

func regSize(r x86asm.Reg) int {
	switch {
	case r >= x86asm.AL && r <= x86asm.R15B:
		return 8
	case r >= x86asm.AX && r <= x86asm.R15W:
		return 16
	case r >= x86asm.EAX && r <= x86asm.R15L:
		return 32
	default:
		return 64
	}
}
