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

// computeFrontiers derives the dominance frontier of every reachable
// node with the Cytron et al. join-point walk: for each node with two
// or more predecessors, every predecessor chain up to (but excluding)
// the node's immediate dominator has the node in its frontier.
func computeFrontiers(g *Directed, t *DominatorTree) map[uint64][]uint64 {
	df := make(map[uint64][]uint64, len(t.idom)+1)
	in := make(map[uint64]map[uint64]bool)

	add := func(n uint64, y uint64) {
		if in[n] == nil {
			in[n] = make(map[uint64]bool)
		}
		if !in[n][y] {
			in[n][y] = true
			df[n] = append(df[n], y)
		}
	}

	for _, y := range DFSpanningTree(g) {
		pred := g.Predecessors(y)
		if len(pred) < 2 {
			continue
		}

		idom, ok := t.IDom(y)
		if !ok {
			continue
		}

		for _, p := range pred {
			/* skip predecessors not reachable from the root */
			if _, ok := t.IDom(p); !ok && p != t.root {
				continue
			}

			runner := p
			for runner != idom {
				add(runner, y)
				d, ok := t.IDom(runner)
				if !ok {
					break
				}
				runner = d
			}
		}
	}
	return df
}
