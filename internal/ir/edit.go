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

// Keep selects which per-node attributes survive a Clone. Anything not
// named is reset to its zero state on the copy.
type Keep uint8

const (
	KeepIdx Keep = 1 << iota
	KeepDef
	KeepSafe
	KeepWeak

	KeepSSA = KeepIdx | KeepDef | KeepSafe | KeepWeak
)

// Clone deep-copies an expression tree. Uses lists never survive: a
// clone is not read by anyone until it is spliced in, and Replace
// re-registers its leaves with their definitions when KeepDef was set.
func Clone(e *Expr, keep Keep) *Expr {
	p := &Expr{
		Op:   e.Op,
		Name: e.Name,
		Val:  e.Val,
		Size: e.Size,
		Idx:  NoIdx,
	}

	if keep&KeepIdx != 0 {
		p.Idx = e.Idx
	}
	if keep&KeepDef != 0 {
		p.Def = e.Def
	}
	if keep&KeepSafe != 0 {
		p.Safe = e.Safe
	}
	if keep&KeepWeak != 0 {
		p.Weak = e.Weak
	}

	for _, s := range e.Sub {
		p.Append(Clone(s, keep))
	}
	return p
}

// Replace splices rep into old's parent slot. Every leaf of old is
// first unlinked from its definition, then every leaf of rep carrying a
// Def pointer is registered back as a use, so the def-use chains stay
// consistent across the splice. The detached old keeps its subtree but
// no cross links.
func Replace(old *Expr, rep *Expr) {
	detachUses(old)

	if old.Parent != nil {
		for i, s := range old.Parent.Sub {
			if s == old {
				old.Parent.Sub[i] = rep
				break
			}
		}
		rep.Parent = old.Parent
		rep.Root = nil
	} else if old.Root != nil {
		for i, s := range old.Root.Expr {
			if s == old {
				old.Root.Expr[i] = rep
				break
			}
		}
		rep.Parent = nil
		rep.Root = old.Root
	}

	old.Parent = nil
	old.Root = nil

	attachUses(rep)
}

// Pluck removes e from its parent slot. With detach set, every leaf of
// the removed subtree is unlinked from its definition first; without it
// the caller is about to splice the subtree elsewhere and keeps the
// links live.
func Pluck(e *Expr, detach bool) *Expr {
	if detach {
		detachUses(e)
	}

	if e.Parent != nil {
		for i, s := range e.Parent.Sub {
			if s == e {
				e.Parent.Sub = append(e.Parent.Sub[:i], e.Parent.Sub[i+1:]...)
				break
			}
		}
		e.Parent = nil
	} else if e.Root != nil {
		st := e.Root
		for i, s := range st.Expr {
			if s == e {
				st.Expr = append(st.Expr[:i], st.Expr[i+1:]...)
				break
			}
		}
		e.Root = nil
	}
	return e
}

func detachUses(e *Expr) {
	e.Leaves(func(p *Expr) {
		if p.Def != nil {
			p.Def.DelUse(p)
		}
	})
}

func attachUses(e *Expr) {
	e.Leaves(func(p *Expr) {
		if p.Def != nil && !p.IsDef {
			p.Def.AddUse(p)
		}
	})
}
