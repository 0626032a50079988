package graph

import (
	"slices"

	"github.com/twiced-technology-gmbh/backplan/internal/task"
)

// WouldCreateCycle reports whether giving taskID the dependency list
// proposedDeps closes a cycle among allTasks.
func WouldCreateCycle(taskID int, proposedDeps []int, allTasks []*task.Task) bool {
	return CyclePath(taskID, proposedDeps, allTasks) != nil
}

// CyclePath returns the cycle that proposedDeps would close for taskID, as
// ids in depends-on order starting and ending with taskID, or nil. Unknown
// ids are treated as having no dependencies.
func CyclePath(taskID int, proposedDeps []int, allTasks []*task.Task) []int {
	deps := make(map[int][]int, len(allTasks)+1)
	for _, t := range allTasks {
		deps[t.ID] = t.DependsOn
	}
	deps[taskID] = proposedDeps

	visited := make(map[int]bool)
	var path []int
	var reach func(id int) bool
	reach = func(id int) bool {
		path = append(path, id)
		if id == taskID {
			return true
		}
		if !visited[id] {
			visited[id] = true
			for _, dep := range deps[id] {
				if reach(dep) {
					return true
				}
			}
		}
		path = path[:len(path)-1]
		return false
	}

	for _, dep := range proposedDeps {
		path = path[:0]
		if reach(dep) {
			return append([]int{taskID}, path...)
		}
	}
	return nil
}

// findCycle returns one cycle among ids following deps, found by a DFS in
// ascending id order so the witness is stable.
func findCycle(ids []int, deps map[int][]int) []int {
	const (
		white = iota
		gray
		black
	)

	state := make(map[int]int, len(ids))
	var stack, found []int

	var visit func(id int) bool
	visit = func(id int) bool {
		state[id] = gray
		stack = append(stack, id)
		next := slices.Clone(deps[id])
		slices.Sort(next)
		for _, dep := range next {
			switch state[dep] {
			case white:
				if visit(dep) {
					return true
				}
			case gray:
				i := slices.Index(stack, dep)
				found = append(slices.Clone(stack[i:]), dep)
				return true
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = black
		return false
	}

	for _, id := range ids {
		if state[id] == white && visit(id) {
			break
		}
	}
	return found
}
