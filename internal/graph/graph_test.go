package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twiced-technology-gmbh/backplan/internal/task"
)

func tk(id int, deps ...int) *task.Task {
	return &task.Task{ID: id, Name: "t", Duration: 1, DependsOn: deps}
}

func TestBuildChain(t *testing.T) {
	g, err := Build([]*task.Task{tk(3, 2), tk(1), tk(2, 1)})
	require.NoError(t, err)
	assert.Equal(t, 3, g.Len())
	assert.Equal(t, []int{1, 2, 3}, g.IDs())
	assert.Equal(t, []int{1, 2, 3}, g.Order())
	assert.Equal(t, []int{3}, g.Terminals())
	assert.Equal(t, []int{2}, g.Successors(1))
	assert.Equal(t, []int{1}, g.Dependencies(2))
	assert.Empty(t, g.Successors(3))
}

func TestBuildDiamondOrder(t *testing.T) {
	// 1 -> {2,3} -> 4
	g, err := Build([]*task.Task{tk(4, 3, 2), tk(3, 1), tk(2, 1), tk(1)})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, g.Order())
	assert.Equal(t, []int{2, 3}, g.Successors(1))
	assert.Equal(t, []int{4}, g.Terminals())
}

func TestBuildIndependentTasksAreAllTerminal(t *testing.T) {
	g, err := Build([]*task.Task{tk(2), tk(1)})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, g.Terminals())
}

func TestBuildEmpty(t *testing.T) {
	g, err := Build(nil)
	require.NoError(t, err)
	assert.Zero(t, g.Len())
	assert.Empty(t, g.Order())
}

func TestOrderByCustomTieBreak(t *testing.T) {
	g, err := Build([]*task.Task{tk(1), tk(2), tk(3, 1, 2)})
	require.NoError(t, err)
	desc := g.OrderBy(func(a, b int) bool { return a > b })
	assert.Equal(t, []int{2, 1, 3}, desc)
}

func TestBuildInvalid(t *testing.T) {
	tests := []struct {
		name  string
		tasks []*task.Task
	}{
		{"unknown dependency", []*task.Task{tk(1, 7)}},
		{"duplicate dependency", []*task.Task{tk(1), tk(2, 1, 1)}},
		{"duplicate task id", []*task.Task{tk(1), tk(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.tasks)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidGraph)
		})
	}
}

func TestBuildCycleWitness(t *testing.T) {
	// 1 depends on 3, 3 depends on 2, 2 depends on 1.
	_, err := Build([]*task.Task{tk(1, 3), tk(2, 1), tk(3, 2), tk(4)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCycle)

	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, []int{1, 3, 2, 1}, gerr.Path)
	assert.Equal(t, "dependency cycle: #1 -> #3 -> #2 -> #1", err.Error())
}

func TestBuildSelfLoopIsCycle(t *testing.T) {
	_, err := Build([]*task.Task{tk(1, 1)})
	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, []int{1, 1}, gerr.Path)
}

func TestWouldCreateCycle(t *testing.T) {
	tasks := []*task.Task{tk(1), tk(2, 1), tk(3, 2)}

	assert.True(t, WouldCreateCycle(1, []int{3}, tasks))
	assert.Equal(t, []int{1, 3, 2, 1}, CyclePath(1, []int{3}, tasks))

	assert.True(t, WouldCreateCycle(2, []int{2}, tasks))
	assert.False(t, WouldCreateCycle(3, []int{1, 2}, tasks))
	assert.False(t, WouldCreateCycle(4, []int{3}, tasks), "new task cannot close a cycle")
	assert.False(t, WouldCreateCycle(1, nil, tasks))
}

func TestWouldCreateCycleUsesProposedList(t *testing.T) {
	// 2 currently depends on 1; proposing 2 -> 3 drops that edge,
	// so 1 depending on 2 stays acyclic through the proposal.
	tasks := []*task.Task{tk(1, 2), tk(2, 1), tk(3)}
	assert.False(t, WouldCreateCycle(2, []int{3}, tasks))
}
