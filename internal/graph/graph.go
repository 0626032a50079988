// Package graph builds the dependency graph of a task list and orders it.
package graph

import (
	"container/heap"
	"slices"

	"github.com/twiced-technology-gmbh/backplan/internal/task"
)

// Graph is a validated, acyclic dependency graph. Edges run from a
// dependency to the task that depends on it.
type Graph struct {
	ids        []int
	deps       map[int][]int
	successors map[int][]int
	indegree   map[int]int
	order      []int
}

// Build validates the dependency lists of tasks and returns their graph.
// Unknown or repeated dependency ids fail with ErrInvalidGraph; a cycle
// fails with ErrCycle and carries one witness path.
func Build(tasks []*task.Task) (*Graph, error) {
	g := &Graph{
		ids:        make([]int, 0, len(tasks)),
		deps:       make(map[int][]int, len(tasks)),
		successors: make(map[int][]int, len(tasks)),
		indegree:   make(map[int]int, len(tasks)),
	}
	for _, t := range tasks {
		if _, dup := g.deps[t.ID]; dup {
			return nil, invalidf("task id %d used twice", t.ID)
		}
		g.ids = append(g.ids, t.ID)
		g.deps[t.ID] = slices.Clone(t.DependsOn)
	}
	slices.Sort(g.ids)

	for _, id := range g.ids {
		seen := make(map[int]bool, len(g.deps[id]))
		for _, dep := range g.deps[id] {
			if _, ok := g.deps[dep]; !ok {
				return nil, invalidf("task %d depends on unknown task %d", id, dep)
			}
			if seen[dep] {
				continue
			}
			seen[dep] = true
			g.successors[dep] = append(g.successors[dep], id)
			g.indegree[id]++
		}
		if g.indegree[id] != len(g.deps[id]) {
			return nil, invalidf("task %d lists a dependency more than once", id)
		}
	}

	g.order = g.OrderBy(nil)
	if len(g.order) < len(g.ids) {
		return nil, cycleError(findCycle(g.ids, g.deps))
	}
	return g, nil
}

// Len returns the number of tasks in the graph.
func (g *Graph) Len() int { return len(g.ids) }

// IDs returns every task id in ascending order.
func (g *Graph) IDs() []int { return slices.Clone(g.ids) }

// Order returns a topological order, dependencies first, ties by ascending id.
func (g *Graph) Order() []int { return slices.Clone(g.order) }

// Dependencies returns the ids id depends on.
func (g *Graph) Dependencies(id int) []int { return slices.Clone(g.deps[id]) }

// Successors returns the ids of tasks that depend on id, ascending.
func (g *Graph) Successors(id int) []int { return slices.Clone(g.successors[id]) }

// Terminals returns the tasks no other task depends on, ascending.
func (g *Graph) Terminals() []int {
	var out []int
	for _, id := range g.ids {
		if len(g.successors[id]) == 0 {
			out = append(out, id)
		}
	}
	return out
}

// OrderBy runs Kahn's algorithm with less deciding between ready tasks.
// A nil less orders ready tasks by ascending id. On a cyclic graph the
// result is shorter than Len.
func (g *Graph) OrderBy(less func(a, b int) bool) []int {
	if less == nil {
		less = func(a, b int) bool { return a < b }
	}
	indeg := make(map[int]int, len(g.indegree))
	for id, n := range g.indegree {
		indeg[id] = n
	}

	ready := &readyQueue{less: less}
	for _, id := range g.ids {
		if indeg[id] == 0 {
			ready.items = append(ready.items, id)
		}
	}
	heap.Init(ready)

	out := make([]int, 0, len(g.ids))
	for ready.Len() > 0 {
		id := heap.Pop(ready).(int)
		out = append(out, id)
		for _, next := range g.successors[id] {
			indeg[next]--
			if indeg[next] == 0 {
				heap.Push(ready, next)
			}
		}
	}
	return out
}

type readyQueue struct {
	items []int
	less  func(a, b int) bool
}

func (q *readyQueue) Len() int           { return len(q.items) }
func (q *readyQueue) Less(i, j int) bool { return q.less(q.items[i], q.items[j]) }
func (q *readyQueue) Swap(i, j int)      { q.items[i], q.items[j] = q.items[j], q.items[i] }
func (q *readyQueue) Push(x any)         { q.items = append(q.items, x.(int)) }
func (q *readyQueue) Pop() any {
	n := len(q.items)
	x := q.items[n-1]
	q.items = q.items[:n-1]
	return x
}
