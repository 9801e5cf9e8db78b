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

var ternaryRules = []rule{
	ruleTCondFold,
}

func ruleTCondFold(self *Reducer, e *ir.Expr) *ir.Expr {
	c := e.Sub[0]
	if !c.IsConst() {
		return nil
	}
	if c.Val&sizeMask(c.Size) != 0 {
		return take(e.Sub[1])
	}
	return take(e.Sub[2])
}
