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

package graph

import (
	"github.com/oleiade/lane"
)

// DFSpanningTree returns the nodes reachable from the root in DFS
// pre-order. Unreachable nodes are simply absent, which is how callers
// discard dead blocks when a function has several entry candidates.
func DFSpanningTree(g *Directed) []uint64 {
	s := lane.NewStack()
	s.Push(g.Root())

	seen := map[uint64]bool{}
	out := make([]uint64, 0, len(g.nodes))

	for !s.Empty() {
		n := s.Pop().(uint64)
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)

		/* push in reverse so the first successor pops first */
		succ := g.Successors(n)
		for i := len(succ) - 1; i >= 0; i-- {
			if w := succ[i]; !seen[w] {
				s.Push(w)
			}
		}
	}
	return out
}
