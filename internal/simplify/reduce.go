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
	"github.com/r2dec2/pdd/internal/opts"
)

// A rule inspects a node whose operands are already fully reduced and
// returns a replacement, or nil when it does not fire.
type rule func(self *Reducer, e *ir.Expr) *ir.Expr

// Reducer applies the rewrite rules bottom-up to fixpoint. Rules are
// partitioned by arity and tried in a fixed order; every firing rule
// strictly shrinks the tree or moves constants rootward through a
// finite associative chain, so the fixpoint terminates.
type Reducer struct {
	Converge bool

	// Fires counts rule firings since construction; callers diff it
	// around a reduction to learn whether anything changed.
	Fires int
}

func New(conf *opts.Options) *Reducer {
	r := &Reducer{Converge: true}
	if conf != nil {
		r.Converge = conf.Converge
	}
	return r
}

// Reduce runs the default reducer over a detached expression and
// returns the reduced root.
func Reduce(e *ir.Expr) *ir.Expr {
	return New(nil).ReduceExpr(e)
}

// ReduceExpr reduces the tree rooted at e and returns the new root
// (which replaced e in its parent slot if e had one).
func (self *Reducer) ReduceExpr(e *ir.Expr) *ir.Expr {
	return self.reduceRec(e)
}

// ReduceStmt reduces every top-level expression of the statement.
func (self *Reducer) ReduceStmt(s *ir.Stmt) {
	for _, e := range append([]*ir.Expr(nil), s.Expr...) {
		self.reduceRec(e)
	}
}

func (self *Reducer) reduceRec(e *ir.Expr) *ir.Expr {
	for {
		/* reduce every operand to its own fixpoint first */
		for i := 0; i < len(e.Sub); i++ {
			self.reduceRec(e.Sub[i])
		}

		/* then try the rules for this node, first hit wins */
		r := self.fire(e)
		if r == nil {
			return e
		}

		self.Fires++
		ir.Replace(e, r)
		e = r
	}
}

func (self *Reducer) fire(e *ir.Expr) *ir.Expr {
	var rules []rule

	switch {
	case e.Op == ir.OpDeref || e.Op == ir.OpAddrOf:
		rules = refRules
	case e.Op.IsUnary():
		rules = unaryRules
	case e.Op.IsBinary():
		rules = binaryRules
	case e.Op == ir.OpTCond:
		rules = ternaryRules
	default:
		return nil
	}

	for _, r := range rules {
		if p := r(self, e); p != nil {
			return p
		}
	}
	return nil
}
