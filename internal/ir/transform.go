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

// TransformOut strips every SSA subscript from the function, handing
// the printer plain locations. The def-use web stays linked; only the
// rendered names lose their indices. Always run before printing.
func TransformOut(fn *Func) {
	for _, bb := range fn.Blocks {
		for _, st := range bb.Body.Stmts {
			for _, e := range st.Expr {
				e.Walk(func(p *Expr) {
					p.Idx = NoIdx
				})
			}
		}
	}
}
