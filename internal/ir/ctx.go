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
	"github.com/r2dec2/pdd/internal/opts"
)

// Ctx is the per-function SSA bookkeeping: the live definition map, the
// renaming counters and stacks, the synthetic container for
// used-before-defined locations, and the preserved save/restore pairs.
//
// Defs iteration order is insertion order; passes that mutate the map
// while iterating must go through Keys, which snapshots.
type Ctx struct {
	Fn   *Func
	Conf *opts.Options

	Defs map[string]*Expr
	keys []string

	Count map[string]int
	Stack map[string][]int

	Uninit    *Container
	Preserved [][2]*Expr
}

func NewCtx(fn *Func, conf *opts.Options) *Ctx {
	if conf == nil {
		conf = opts.Default()
	}
	return &Ctx{
		Fn:     fn,
		Conf:   conf,
		Defs:   make(map[string]*Expr),
		Count:  make(map[string]int),
		Stack:  make(map[string][]int),
		Uninit: NewContainer(fn.Addr),
	}
}

// AddDef records def under its subscripted key.
func (self *Ctx) AddDef(def *Expr) {
	k := def.DefKey()
	if _, ok := self.Defs[k]; !ok {
		self.keys = append(self.keys, k)
	}
	self.Defs[k] = def
}

// DelDef drops the entry for key. The keys slice keeps the tombstone;
// Keys filters it out.
func (self *Ctx) DelDef(key string) {
	delete(self.Defs, key)
}

// Keys returns a snapshot of the live definition keys in insertion
// order. Safe to hold across mutations of Defs.
func (self *Ctx) Keys() []string {
	out := make([]string, 0, len(self.Defs))
	for _, k := range self.keys {
		if _, ok := self.Defs[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

/* renaming stack helpers */

func (self *Ctx) TopIdx(name string) int {
	if s := self.Stack[name]; len(s) != 0 {
		return s[len(s)-1]
	}
	return 0
}

func (self *Ctx) PushIdx(name string) int {
	self.Count[name]++
	i := self.Count[name]
	self.Stack[name] = append(self.Stack[name], i)
	return i
}

func (self *Ctx) PopIdx(name string) {
	if s := self.Stack[name]; len(s) != 0 {
		self.Stack[name] = s[:len(s)-1]
	}
}
