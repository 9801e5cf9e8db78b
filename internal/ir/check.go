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

	"github.com/davecgh/go-spew/spew"
)

// CheckFunc asserts the structural invariants that must hold after
// every pass: def-use symmetry, def reachability, assignable LHS,
// unique name#subscript per definition, phi arity against predecessor
// count, and phi grouping at container tops. Returns one error per
// violation; an empty result means the web is consistent.
func CheckFunc(fn *Func, ctx *Ctx) (errs []error) {
	report := func(f string, args ...interface{}) {
		errs = append(errs, fmt.Errorf(f, args...))
	}

	defs := make(map[string]*Expr)
	reach := make(map[*Expr]bool)

	walkDefs := func(c *Container) {
		for _, st := range c.Stmts {
			for _, e := range st.Expr {
				e.Walk(func(p *Expr) {
					reach[p] = true
					if !p.IsDef {
						return
					}
					if p.Parent == nil || p.Parent.Op != OpAssign || p.Parent.Sub[0] != p {
						report("def %s is not an assign lhs", p)
						return
					}
					if !p.Op.IsAssignable() {
						report("def %s is not assignable", p)
					}
					if p.Idx != NoIdx {
						k := p.DefKey()
						if prev, ok := defs[k]; ok && prev != p {
							report("two defs share key %s", k)
						}
						defs[k] = p
					}
				})
			}
		}
	}

	for _, bb := range fn.Blocks {
		walkDefs(bb.Body)
	}
	if ctx != nil {
		walkDefs(ctx.Uninit)
	}

	/* def-use symmetry over every reachable expression */
	for e := range reach {
		if e.Def != nil && !e.IsDef {
			n := 0
			for _, u := range e.Def.Uses {
				if u == e {
					n++
				}
			}
			if n != 1 {
				report("use %s appears %d times in def %s uses", e, n, e.Def)
			}
		}
		if e.IsDef {
			for _, u := range e.Uses {
				if u.Def != e {
					report("def %s lists use %s with foreign def", e, u)
				}
			}
		}
	}

	/* ctx.Defs entries must be live is-def assign operands */
	if ctx != nil {
		for _, k := range ctx.Keys() {
			d := ctx.Defs[k]
			if !d.IsDef {
				report("ctx def %s is not a def", k)
			}
			if d.Parent == nil || d.Parent.Op != OpAssign || d.Parent.Sub[0] != d {
				report("ctx def %s is not an assign lhs", k)
			} else if !reach[d] {
				report("ctx def %s is unreachable", k)
			}
		}
	}

	/* phi arity and grouping */
	for _, bb := range fn.Blocks {
		seenBody := false
		for _, st := range bb.Body.Stmts {
			if !st.IsPhi() {
				seenBody = true
				continue
			}
			if seenBody {
				report("phi below non-phi in %s: %s", bb, st)
			}
			if n := len(st.Expr[0].Rhs().Sub); n != len(bb.Pred) {
				report("phi arity %d != %d preds in %s: %s", n, len(bb.Pred), bb, st)
			}
		}
	}

	return
}

// Dump renders the whole function body for debug logging. spew keeps
// the cyclic links readable where String would recurse.
func Dump(fn *Func) string {
	cfg := spew.ConfigState{Indent: "  ", MaxDepth: 4, DisablePointerAddresses: true}
	out := ""
	for _, bb := range fn.Blocks {
		out += fmt.Sprintf("%s:\n", bb)
		for _, st := range bb.Body.Stmts {
			out += fmt.Sprintf("  %06x | %s\n", st.Addr, st)
		}
	}
	if out == "" {
		out = cfg.Sdump(fn)
	}
	return out
}
