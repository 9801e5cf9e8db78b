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

package ssa

import (
	"github.com/r2dec2/pdd/internal/ir"
)

// Selector picks which SSA name class a construction wave processes,
// so the same phi-insertion and renaming code runs once per class.
type Selector func(e *ir.Expr) bool

// Registers selects machine register locations.
func Registers(e *ir.Expr) bool { return e.Op == ir.OpReg }

// Variables selects named local variables.
func Variables(e *ir.Expr) bool { return e.Op == ir.OpVar }

// Derefs selects memory dereference locations.
func Derefs(e *ir.Expr) bool { return e.Op == ir.OpDeref }
