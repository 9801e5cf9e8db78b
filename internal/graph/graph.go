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

// Edge is one directed edge between node keys.
type Edge struct {
	From uint64
	To   uint64
}

// Directed is a directed graph over opaque uint64 node keys (block
// addresses in practice). Successor and predecessor lists keep the
// insertion order of the edges that produced them.
type Directed struct {
	root  uint64
	nodes []uint64
	index map[uint64]int
	succ  map[uint64][]uint64
	pred  map[uint64][]uint64
}

func NewDirected(root uint64, nodes []uint64, edges []Edge) *Directed {
	g := &Directed{
		root:  root,
		index: make(map[uint64]int, len(nodes)),
		succ:  make(map[uint64][]uint64, len(nodes)),
		pred:  make(map[uint64][]uint64, len(nodes)),
	}
	for _, n := range nodes {
		g.addNode(n)
	}
	for _, e := range edges {
		g.AddEdge(e.From, e.To)
	}
	return g
}

func (self *Directed) addNode(n uint64) {
	if _, ok := self.index[n]; ok {
		return
	}
	self.index[n] = len(self.nodes)
	self.nodes = append(self.nodes, n)
}

// AddEdge links from -> to, creating missing nodes.
func (self *Directed) AddEdge(from uint64, to uint64) {
	self.addNode(from)
	self.addNode(to)
	self.succ[from] = append(self.succ[from], to)
	self.pred[to] = append(self.pred[to], from)
}

func (self *Directed) Root() uint64 { return self.root }

// Nodes returns every node key in insertion order.
func (self *Directed) Nodes() []uint64 { return self.nodes }

// HasNode reports whether key names a node of the graph.
func (self *Directed) HasNode(key uint64) bool {
	_, ok := self.index[key]
	return ok
}

// Successors returns the out-neighbors of n in edge order.
func (self *Directed) Successors(n uint64) []uint64 { return self.succ[n] }

// Predecessors returns the in-neighbors of n in edge order.
func (self *Directed) Predecessors(n uint64) []uint64 { return self.pred[n] }
