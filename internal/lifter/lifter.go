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

// Package lifter defines the front-end contract: the function metadata
// shape the analysis host hands over, and the architecture modules
// that turn raw instructions into IR statements.
package lifter

import (
	"context"
	"encoding/json"
	"fmt"

	"tlog.app/go/errors"

	"github.com/r2dec2/pdd/internal/graph"
	"github.com/r2dec2/pdd/internal/ir"
)

// InsDesc is one disassembled instruction of a block.
type InsDesc struct {
	Addr  uint64 `json:"offset"`
	Bytes string `json:"bytes"` // hex encoded
	Text  string `json:"opcode"`
}

// BlockDesc describes one basic block of the host's CFG.
type BlockDesc struct {
	Addr     uint64    `json:"addr"`
	Jump     uint64    `json:"jump,omitempty"`
	Fail     uint64    `json:"fail,omitempty"`
	SwitchOp []uint64  `json:"switch,omitempty"`
	Entry    bool      `json:"entry,omitempty"`
	Exit     bool      `json:"exit,omitempty"`
	Ins      []InsDesc `json:"ops"`
}

// ArgDesc is one incoming argument or local variable descriptor.
type ArgDesc struct {
	Name string `json:"name"`
	Kind string `json:"kind"` // "arg", "reg" or "var"
	Ref  string `json:"ref"`
	Off  int64  `json:"off,omitempty"`
	Type string `json:"type"`
}

// FuncDesc is the full per-function input contract.
type FuncDesc struct {
	Addr   uint64      `json:"offset"`
	Name   string      `json:"name"`
	Min    uint64      `json:"minbound"`
	Max    uint64      `json:"maxbound"`
	Ret    string      `json:"rettype"`
	Arch   string      `json:"arch"`
	Conv   string      `json:"calltype,omitempty"`
	Args   []ArgDesc   `json:"args,omitempty"`
	Vars   []ArgDesc   `json:"vars,omitempty"`
	Blocks []BlockDesc `json:"blocks"`
}

// ParseFuncDesc decodes the host's JSON form of a function.
func ParseFuncDesc(data []byte) (*FuncDesc, error) {
	d := new(FuncDesc)
	if err := json.Unmarshal(data, d); err != nil {
		return nil, errors.Wrap(err, "parse function descriptor")
	}
	return d, nil
}

// Arch lifts one block of machine instructions into IR statements.
// Lifting is stateful within a block (compare/branch pairing) and
// stateless across blocks.
type Arch interface {
	Name() string
	LiftBlock(b *BlockDesc) (*ir.Container, error)
}

// UnknownArchError is surfaced when no architecture module matches;
// no decompilation is emitted for the whole run.
type UnknownArchError struct{ Arch string }

func (e UnknownArchError) Error() string {
	return fmt.Sprintf("unknown architecture: %q", e.Arch)
}

// UnknownCallConvError fails the current function only.
type UnknownCallConvError struct{ Conv string }

func (e UnknownCallConvError) Error() string {
	return fmt.Sprintf("unknown calling convention: %q", e.Conv)
}

var archs = map[string]func() Arch{}

// Register installs an architecture module under its name.
func Register(name string, mk func() Arch) { archs[name] = mk }

// ByName resolves an architecture module.
func ByName(name string) (Arch, error) {
	if mk, ok := archs[name]; ok {
		return mk(), nil
	}
	return nil, UnknownArchError{Arch: name}
}

// BuildFunc lifts a full function descriptor into the IR: one block
// per descriptor, edges resolved by address, unreachable blocks
// discarded via the DFS spanning tree.
func BuildFunc(ctx context.Context, desc *FuncDesc, arch Arch) (*ir.Func, error) {
	if _, err := CallArgs(desc.Conv); err != nil {
		return nil, err
	}

	fn := &ir.Func{
		Addr: desc.Addr,
		Name: desc.Name,
		Ret:  desc.Ret,
	}
	for _, a := range desc.Args {
		fn.Args = append(fn.Args, ir.Arg{Name: a.Name, Kind: a.Kind, Ref: a.Ref, Off: a.Off, Type: a.Type})
	}
	for _, a := range desc.Vars {
		fn.Locals = append(fn.Locals, ir.Arg{Name: a.Name, Kind: a.Kind, Ref: a.Ref, Off: a.Off, Type: a.Type})
	}

	index := make(map[uint64]*ir.BasicBlock, len(desc.Blocks))

	for i := range desc.Blocks {
		bd := &desc.Blocks[i]

		body, err := arch.LiftBlock(bd)
		if err != nil {
			return nil, errors.Wrap(err, "lift block %x", bd.Addr)
		}

		bb := ir.NewBlock(bd.Addr)
		bb.Body = body
		body.Block = bb
		bb.Exit = bd.Exit

		index[bd.Addr] = bb
		fn.Blocks = append(fn.Blocks, bb)

		if bd.Entry || (fn.Entry == nil && bd.Addr == desc.Addr) {
			fn.Entry = bb
		}
	}
	if fn.Entry == nil && len(fn.Blocks) != 0 {
		fn.Entry = fn.Blocks[0]
	}

	/* resolve the edges by address */
	for i := range desc.Blocks {
		bd := &desc.Blocks[i]
		bb := index[bd.Addr]

		if bd.Jump != 0 {
			bb.Jump = index[bd.Jump]
		}
		if bd.Fail != 0 {
			bb.Fail = index[bd.Fail]
		}
		for _, c := range bd.SwitchOp {
			if t := index[c]; t != nil {
				bb.Cases = append(bb.Cases, t)
			}
		}
	}

	fn.Rebuild()

	/* functions with several entry candidates carry dead blocks */
	g := fn.Graph()
	reach := make(map[uint64]bool)
	for _, n := range graph.DFSpanningTree(g) {
		reach[n] = true
	}
	if len(reach) != len(fn.Blocks) {
		fn.DropUnreachable(reach)
		fn.Rebuild()
	}

	return fn, nil
}
