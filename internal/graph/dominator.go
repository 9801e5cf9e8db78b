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

/** This is an implementation of the Lengauer-Tarjan algorithm described in
 *  https://doi.org/10.1145%2F357062.357071
 */

package graph

import (
	"sort"
)

type _LtNode struct {
	semi     int
	key      uint64
	dom      *_LtNode
	label    *_LtNode
	parent   *_LtNode
	ancestor *_LtNode
	pred     []*_LtNode
	bucket   map[*_LtNode]struct{}
}

type _LengauerTarjan struct {
	g      *Directed
	nodes  []*_LtNode
	vertex map[uint64]int
}

func newLengauerTarjan(g *Directed) *_LengauerTarjan {
	return &_LengauerTarjan{
		g:      g,
		vertex: make(map[uint64]int),
	}
}

func (self *_LengauerTarjan) dfs(k uint64) {
	i := len(self.nodes)
	self.vertex[k] = i

	/* create a new node */
	p := &_LtNode{
		semi:   i,
		key:    k,
		bucket: make(map[*_LtNode]struct{}),
	}

	/* add to node list */
	p.label = p
	self.nodes = append(self.nodes, p)

	/* traverse the successors */
	for _, w := range self.g.Successors(k) {
		idx, ok := self.vertex[w]

		/* not visited yet */
		if !ok {
			self.dfs(w)
			idx = self.vertex[w]
			self.nodes[idx].parent = p
		}

		/* add predecessors */
		q := self.nodes[idx]
		q.pred = append(q.pred, p)
	}
}

func (self *_LengauerTarjan) eval(p *_LtNode) *_LtNode {
	if p.ancestor == nil {
		return p
	}
	self.compress(p)
	return p.label
}

func (self *_LengauerTarjan) link(p *_LtNode, q *_LtNode) {
	q.ancestor = p
}

func (self *_LengauerTarjan) compress(p *_LtNode) {
	if p.ancestor.ancestor != nil {
		self.compress(p.ancestor)
		if p.label.semi > p.ancestor.label.semi {
			p.label = p.ancestor.label
		}
		p.ancestor = p.ancestor.ancestor
	}
}

// DominatorTree holds immediate dominator links for every node
// reachable from the graph root, the inverted child lists, and the
// dominance frontiers.
type DominatorTree struct {
	root     uint64
	idom     map[uint64]uint64
	children map[uint64][]uint64
	frontier map[uint64][]uint64
	g        *Directed
}

// Dominators runs Lengauer-Tarjan over the graph and derives the
// dominance frontiers.
func Dominators(g *Directed) *DominatorTree {
	lt := newLengauerTarjan(g)

	/* Step 1: Carry out a depth-first search of the problem graph. Number the
	 * vertices from 1 to n as they are reached during the search. */
	lt.dfs(g.Root())

	/* perform Step 2 and Step 3 simultaneously */
	for i := len(lt.nodes) - 1; i > 0; i-- {
		p := lt.nodes[i]
		q := (*_LtNode)(nil)

		/* Step 2: Compute the semidominators of all vertices by applying
		 * Theorem 4, vertex by vertex in decreasing order by number. */
		for _, v := range p.pred {
			q = lt.eval(v)
			if q.semi < p.semi {
				p.semi = q.semi
			}
		}

		/* link the ancestor */
		lt.link(p.parent, p)
		lt.nodes[p.semi].bucket[p] = struct{}{}

		/* Step 3: Implicitly define the immediate dominator of each vertex
		 * by applying Corollary 1. */
		for v := range p.parent.bucket {
			if q = lt.eval(v); q.semi < v.semi {
				v.dom = q
			} else {
				v.dom = p.parent
			}
		}

		/* clear the bucket */
		for v := range p.parent.bucket {
			delete(p.parent.bucket, v)
		}
	}

	/* Step 4: Explicitly define the immediate dominator of each vertex,
	 * in increasing order by number. */
	for _, p := range lt.nodes[1:] {
		if p.dom.key != lt.nodes[p.semi].key {
			p.dom = p.dom.dom
		}
	}

	/* map the dominator relations */
	t := &DominatorTree{
		root:     g.Root(),
		idom:     make(map[uint64]uint64, len(lt.nodes)),
		children: make(map[uint64][]uint64, len(lt.nodes)),
		g:        g,
	}
	for _, p := range lt.nodes[1:] {
		t.idom[p.key] = p.dom.key
		t.children[p.dom.key] = append(t.children[p.dom.key], p.key)
	}

	/* child order is walk order downstream; keep it at address order
	 * so renaming visits join blocks after their contributing arms */
	for _, c := range t.children {
		sort.Slice(c, func(i int, j int) bool { return c[i] < c[j] })
	}

	t.frontier = computeFrontiers(g, t)
	return t
}

// Root returns the tree root, which always equals the graph root.
func (self *DominatorTree) Root() uint64 { return self.root }

// IDom returns the immediate dominator of n; ok is false at the root
// and for unreachable nodes.
func (self *DominatorTree) IDom(n uint64) (uint64, bool) {
	d, ok := self.idom[n]
	return d, ok
}

// Children returns the nodes immediately dominated by n.
func (self *DominatorTree) Children(n uint64) []uint64 {
	return self.children[n]
}

// Frontier returns the dominance frontier of n.
func (self *DominatorTree) Frontier(n uint64) []uint64 {
	return self.frontier[n]
}

// Dominates reports whether a dominates b (reflexively).
func (self *DominatorTree) Dominates(a uint64, b uint64) bool {
	for {
		if a == b {
			return true
		}
		d, ok := self.idom[b]
		if !ok {
			return false
		}
		b = d
	}
}
