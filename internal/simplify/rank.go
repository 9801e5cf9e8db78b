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
)

/* The six relations form a lattice over a 3-bit rank:
 *
 *   EQ=001  LT=010  LE=011  GT=100  GE=101  NE=110
 *
 * with 000 = always-false and 111 = always-true. Disjunction is rank
 * OR, conjunction is rank AND, equality of relations is XNOR, negation
 * is complement. */

const (
	_R_false = 0
	_R_true  = 7
)

var rankOf = [...]uint8{
	ir.OpEQ: 1,
	ir.OpLT: 2,
	ir.OpLE: 3,
	ir.OpGT: 4,
	ir.OpGE: 5,
	ir.OpNE: 6,
}

var opOf = [...]ir.Op{
	1: ir.OpEQ,
	2: ir.OpLT,
	3: ir.OpLE,
	4: ir.OpGT,
	5: ir.OpGE,
	6: ir.OpNE,
}

func relRank(op ir.Op) (uint8, bool) {
	if op.IsCompare() {
		return rankOf[op], true
	}
	return 0, false
}

// relOfRank materializes a combined rank back into an expression over
// the operand pair (x, y). Rank 000 and 111 collapse to constants.
func relOfRank(rank uint8, x *ir.Expr, y *ir.Expr) *ir.Expr {
	switch rank {
	case _R_false:
		return ir.Val(0, 1)
	case _R_true:
		return ir.Val(1, 1)
	default:
		return ir.Binary(opOf[rank], x, y)
	}
}
