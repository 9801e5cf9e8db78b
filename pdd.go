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

// Package pdd decompiles single functions: it lifts the host's CFG
// into IR, rebuilds it in SSA form with def-use chains, simplifies and
// prunes it to a fixpoint, recovers structured control flow and
// renders pseudo source.
package pdd

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/r2dec2/pdd/internal/cflow"
	"github.com/r2dec2/pdd/internal/graph"
	"github.com/r2dec2/pdd/internal/ir"
	"github.com/r2dec2/pdd/internal/lifter"
	"github.com/r2dec2/pdd/internal/opt"
	"github.com/r2dec2/pdd/internal/opts"
	"github.com/r2dec2/pdd/internal/printer"
	"github.com/r2dec2/pdd/internal/simplify"
	"github.com/r2dec2/pdd/internal/ssa"
)

// Decompile lifts and decompiles one function descriptor.
func Decompile(ctx context.Context, desc *lifter.FuncDesc, options ...Option) (_ string, err error) {
	conf := opts.Default()
	for _, o := range options {
		o(conf)
	}

	arch, err := lifter.ByName(desc.Arch)
	if err != nil {
		return "", err
	}

	fn, err := lifter.BuildFunc(ctx, desc, arch)
	if err != nil {
		return "", errors.Wrap(err, "lift %v", desc.Name)
	}

	return DecompileFunc(ctx, fn, conf)
}

// DecompileFunc runs the mid-end pipeline over already lifted IR and
// prints the result.
func DecompileFunc(ctx context.Context, fn *ir.Func, conf *opts.Options) (_ string, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "decompile function", "name", fn.Name, "addr", fn.Addr)
	defer tr.Finish("err", &err)

	if conf == nil {
		conf = opts.Default()
	}
	if fn.Entry == nil {
		return "", errors.New("function %v has no entry block", fn.Name)
	}

	fn.Rebuild()

	dt := graph.Dominators(fn.Graph())
	sc := ir.NewCtx(fn, conf)
	red := simplify.New(conf)

	if tr.If("dump_lift") {
		tr.Printw("lifted ir", "func", fn.Name, "ir", ir.Dump(fn))
	}

	/* SSA construction: between waves, propagate the locations the
	 * next wave keys on */
	between := opt.NewOptimizer(
		&opt.Propagator{Desc: "stack pointer propagation", Sel: opt.StackRegs, Repl: opt.CloneVal},
		&opt.Propagator{Desc: "flags propagation", Sel: opt.FlagRegs, Repl: opt.CloneVal},
		opt.Reduction{R: red},
	)
	ssa.Build(ctx, sc, dt, func(wave string) {
		between.Run(ctx, sc)
	})

	o := opt.NewOptimizer(
		opt.Reduction{R: red},
		&opt.Preserved{DT: dt},
		&opt.Propagator{Desc: "safe-def propagation", Sel: opt.SafeDefs, Repl: opt.CloneVal},
		opt.Reduction{R: red},
		&opt.Pruner{Desc: "dead results", Sel: opt.DeadResults, Extract: true},
		&opt.Pruner{Desc: "dead registers", Sel: opt.DeadRegs},
		&opt.Pruner{Desc: "dead derefs", Sel: opt.DeadDerefs},
		&opt.Pruner{Desc: "circular phis", Sel: opt.CircularPhis},
		&opt.Pruner{Desc: "dead registers", Sel: opt.DeadRegs},
		&opt.Pruner{Desc: "dead derefs", Sel: opt.DeadDerefs},
		opt.Reduction{R: red},
	)
	o.Run(ctx, sc)

	ir.TransformOut(fn)

	order := cflow.Recover(ctx, fn)

	if tr.If("dump_out") {
		tr.Printw("final ir", "func", fn.Name, "ir", ir.Dump(fn))
	}

	return printer.Print(fn, order, conf), nil
}
