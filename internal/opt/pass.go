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

package opt

import (
	"context"

	"tlog.app/go/tlog"

	"github.com/r2dec2/pdd/internal/ir"
	"github.com/r2dec2/pdd/internal/opts"
	"github.com/r2dec2/pdd/internal/simplify"
)

// Pass is one rewrite over the function IR. Run reports whether it
// changed anything; the driver re-invokes it until it stabilizes. A
// pass never fails across its boundary: recoveries are logged and the
// IR is left in its current, consistent state.
type Pass interface {
	Name() string
	Run(sc *ir.Ctx) bool
}

// Optimizer runs each pass to its own fixpoint before moving on.
type Optimizer struct {
	passes []Pass
}

func NewOptimizer(passes ...Pass) *Optimizer {
	return &Optimizer{passes: passes}
}

// Run drives every pass. A pass that keeps reporting changes past the
// configured cap is abandoned where it stands: the IR is merely less
// simplified, never broken.
func (self *Optimizer) Run(ctx context.Context, sc *ir.Ctx) {
	tr := tlog.SpanFromContext(ctx)

	for _, p := range self.passes {
		n := 0
		for p.Run(sc) {
			n++
			if n >= sc.Conf.MaxIters {
				tr.Printw("fixpoint diverged, giving up on pass",
					"pass", p.Name(), "func", sc.Fn.Name, "iters", n)
				break
			}
		}

		tr.V("opt_pass").Printw("pass stable", "pass", p.Name(), "iters", n, "defs", len(sc.Defs))

		if opts.DebugCheck {
			for _, err := range ir.CheckFunc(sc.Fn, sc) {
				tr.Printw("invariant violated after pass", "pass", p.Name(), "err", err)
			}
		}
	}
}

// Reduction applies the algebraic simplifier to every statement as an
// optimizer pass; a nil R uses a reducer built from the context options.
type Reduction struct {
	R *simplify.Reducer
}

func (self Reduction) Name() string { return "reduction" }

func (self Reduction) Run(sc *ir.Ctx) bool {
	r := self.R
	if r == nil {
		r = simplify.New(sc.Conf)
	}

	before := r.Fires
	sc.Fn.Stmts(func(bb *ir.BasicBlock, st *ir.Stmt) {
		r.ReduceStmt(st)
	})
	return r.Fires != before
}
