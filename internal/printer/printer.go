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

// Package printer renders recovered IR as pseudo source. It consumes
// the function after the SSA subscripts are stripped and the scope
// brackets attached; subscripted input is a programming error.
package printer

import (
	"fmt"
	"strings"

	"github.com/r2dec2/pdd/internal/ir"
	"github.com/r2dec2/pdd/internal/opts"
)

type _Printer struct {
	conf  *opts.Options
	buf   strings.Builder
	depth int
}

// Print renders the function over the printable block order.
func Print(fn *ir.Func, order []*ir.BasicBlock, conf *opts.Options) string {
	if conf == nil {
		conf = opts.Default()
	}
	p := &_Printer{conf: conf}

	p.line(fn.Addr, p.signature(fn))
	if !conf.NewLine {
		p.buf.WriteString(" {\n")
	} else {
		p.line(fn.Addr, "{")
	}
	p.depth++

	labels := wantLabels(fn, order)

	for i, bb := range order {
		for _, sc := range bb.Opens {
			p.open(bb, sc)
		}

		if labels[bb] {
			p.raw(fmt.Sprintf("label_%x:", bb.Addr))
		}

		for _, st := range bb.Body.Stmts {
			/* a jump to the block printed next is pure layout */
			if st.Kind == ir.Goto && i+1 < len(order) &&
				len(st.Expr) != 0 && st.Expr[0].IsConst() && st.Expr[0].Val == order[i+1].Addr {
				continue
			}
			p.stmt(st)
		}

		for i := len(bb.Closes) - 1; i >= 0; i-- {
			p.depth--
			p.line(bb.Addr, "}")
		}
	}

	p.depth--
	p.line(fn.Addr, "}")
	return p.buf.String()
}

func (self *_Printer) signature(fn *ir.Func) string {
	ret := fn.Ret
	if ret == "" {
		ret = "void"
	}
	args := make([]string, 0, len(fn.Args))
	for _, a := range fn.Args {
		t := a.Type
		if t == "" {
			t = "int64_t"
		}
		args = append(args, t+" "+a.Name)
	}
	return fmt.Sprintf("%s %s (%s)", ret, fn.Name, strings.Join(args, ", "))
}

func (self *_Printer) open(bb *ir.BasicBlock, sc *ir.Scope) {
	switch sc.Kind {
	case ir.ScopeLoop:
		self.scopeLine(bb.Addr, self.kw("while")+" (true)")
	case ir.ScopeIf:
		cond := "?"
		if sc.Cond != nil {
			cond = ir.Unary(ir.OpBoolNot, ir.Clone(sc.Cond, 0)).String()
		}
		self.scopeLine(bb.Addr, self.kw("if")+" ("+cond+")")
	case ir.ScopeElse:
		self.scopeLine(bb.Addr, self.kw("else"))
	default:
		self.scopeLine(bb.Addr, "")
	}
	self.depth++
}

func (self *_Printer) scopeLine(addr uint64, head string) {
	if self.conf.NewLine {
		self.line(addr, head)
		self.line(addr, "{")
	} else {
		self.line(addr, head+" {")
	}
}

func (self *_Printer) stmt(st *ir.Stmt) {
	switch st.Kind {
	case ir.Return:
		if len(st.Expr) == 0 {
			self.line(st.Addr, self.kw("return")+";")
			return
		}
		self.line(st.Addr, self.kw("return")+" "+st.Expr[0].String()+";")
	case ir.Goto:
		if len(st.Expr) != 0 && st.Expr[0].IsConst() {
			self.line(st.Addr, self.kw("goto")+fmt.Sprintf(" label_%x;", st.Expr[0].Val))
			return
		}
		self.line(st.Addr, self.kw("goto")+" "+exprOrEmpty(st)+";")
	case ir.Branch:
		/* branches folded into scopes print nothing */
	default:
		for _, e := range st.Expr {
			self.line(st.Addr, e.String()+";")
		}
	}
}

func exprOrEmpty(st *ir.Stmt) string {
	if len(st.Expr) == 0 {
		return ""
	}
	return st.Expr[0].String()
}

func (self *_Printer) kw(s string) string {
	switch self.conf.Theme {
	case "none", "":
		return s
	case "default":
		return "\x1b[32m" + s + "\x1b[0m"
	default: /* dark+ */
		return "\x1b[36m" + s + "\x1b[0m"
	}
}

func (self *_Printer) line(addr uint64, s string) {
	if self.conf.Offsets {
		fmt.Fprintf(&self.buf, "0x%08x  ", addr)
	}
	self.buf.WriteString(self.indent())
	self.buf.WriteString(s)
	self.buf.WriteByte('\n')
}

func (self *_Printer) raw(s string) {
	if self.conf.Offsets {
		self.buf.WriteString(strings.Repeat(" ", 12))
	}
	self.buf.WriteString(s)
	self.buf.WriteByte('\n')
}

func (self *_Printer) indent() string {
	pad := strings.Repeat(" ", self.conf.TabSize-1)
	switch self.conf.Guides {
	case 1:
		return strings.Repeat("|"+pad, self.depth)
	case 2:
		return strings.Repeat("¦"+pad, self.depth)
	default:
		return strings.Repeat(" "+pad, self.depth)
	}
}

// wantLabels marks blocks still entered by an explicit goto.
func wantLabels(fn *ir.Func, order []*ir.BasicBlock) map[*ir.BasicBlock]bool {
	out := make(map[*ir.BasicBlock]bool)
	for _, bb := range order {
		for _, st := range bb.Body.Stmts {
			if st.Kind == ir.Goto && len(st.Expr) != 0 && st.Expr[0].IsConst() {
				if t := fn.BlockAt(st.Expr[0].Val); t != nil {
					out[t] = true
				}
			}
		}
	}
	return out
}
