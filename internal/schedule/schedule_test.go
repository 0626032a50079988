package schedule

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twiced-technology-gmbh/backplan/internal/calendar"
	"github.com/twiced-technology-gmbh/backplan/internal/date"
	"github.com/twiced-technology-gmbh/backplan/internal/graph"
	"github.com/twiced-technology-gmbh/backplan/internal/task"
)

func d(s string) date.Date {
	parsed, err := date.Parse(s)
	if err != nil {
		panic(err)
	}
	return parsed
}

func tk(id, duration int, deps ...int) *task.Task {
	return &task.Task{ID: id, Name: "task", Duration: duration, DependsOn: deps}
}

// webProject is a small plan with a fan-out, a fan-in and independent work.
func webProject() []*task.Task {
	return []*task.Task{
		tk(1, 3),
		tk(2, 5, 1),
		tk(3, 2, 1),
		tk(4, 4, 2, 3),
		tk(5, 1, 4),
		tk(6, 2),
	}
}

func usCalendar() calendar.Calendar {
	h := calendar.Holidays{}
	h.Add("usa", d("2024-07-04"))
	h.Add("usa", d("2024-05-27"))
	return calendar.New(h, "usa")
}

func TestScenarioSingleTask(t *testing.T) {
	res, err := New(Options{}).Schedule([]*task.Task{tk(1, 3)}, d("2024-06-14"), calendar.WeekendsOnly())
	require.NoError(t, err)
	got := res.Task(1)
	assert.Equal(t, "2024-06-12", got.Start.String())
	assert.Equal(t, "2024-06-14", got.End.String())
	assert.Equal(t, "2024-06-12", res.Start.String())
}

func TestScenarioDependentPair(t *testing.T) {
	res, err := New(Options{}).Schedule([]*task.Task{tk(1, 2), tk(2, 1, 1)}, d("2024-06-14"), calendar.WeekendsOnly())
	require.NoError(t, err)

	y := res.Task(2)
	assert.Equal(t, "2024-06-14", y.Start.String())
	assert.Equal(t, "2024-06-14", y.End.String())

	x := res.Task(1)
	assert.Equal(t, "2024-06-13", x.End.String())
	assert.Equal(t, "2024-06-12", x.Start.String())
	assert.Equal(t, []int{1, 2}, res.Order)
}

func TestScenarioWeekendDeadline(t *testing.T) {
	tasks := []*task.Task{tk(1, 2)}
	sat := d("2024-06-15")

	literal, err := New(Options{Anchor: AnchorLiteral}).Schedule(tasks, sat, calendar.WeekendsOnly())
	require.NoError(t, err)
	assert.Equal(t, "2024-06-15", literal.Task(1).End.String(), "literal anchor keeps the saturday")
	assert.Equal(t, "2024-06-14", literal.Task(1).Start.String())

	adjusted, err := New(Options{Anchor: AnchorPreviousWorkingDay}).Schedule(tasks, sat, calendar.WeekendsOnly())
	require.NoError(t, err)
	assert.Equal(t, "2024-06-14", adjusted.Task(1).End.String())
	assert.Equal(t, "2024-06-13", adjusted.Task(1).Start.String())
	assert.Equal(t, "2024-06-14", adjusted.End.String())
}

func TestScenarioCycleRejected(t *testing.T) {
	tasks := []*task.Task{tk(1, 1, 2), tk(2, 1, 1)}
	_, err := New(Options{}).Schedule(tasks, d("2024-06-14"), calendar.WeekendsOnly())
	require.Error(t, err)
	assert.ErrorIs(t, err, graph.ErrCycle)
	assert.Equal(t, []int{2}, tasks[0].DependsOn, "input untouched")
	assert.Nil(t, tasks[0].Start)
}

func TestHolidaySkipped(t *testing.T) {
	// Deadline Friday 2024-07-05; Thursday is Independence Day.
	res, err := New(Options{}).Schedule([]*task.Task{tk(1, 2), tk(2, 1, 1)}, d("2024-07-05"), usCalendar())
	require.NoError(t, err)
	assert.Equal(t, "2024-07-03", res.Task(1).End.String())
	assert.Equal(t, "2024-07-02", res.Task(1).Start.String())
}

func TestDeadlineAnchoring(t *testing.T) {
	deadline := d("2024-06-28")
	res, err := New(Options{}).Schedule(webProject(), deadline, usCalendar())
	require.NoError(t, err)

	g, err := graph.Build(webProject())
	require.NoError(t, err)
	for _, id := range g.Terminals() {
		assert.True(t, res.Task(id).End.Equal(deadline), "terminal %d", id)
	}
	for _, tt := range res.Tasks {
		assert.False(t, tt.End.After(deadline))
		assert.False(t, tt.Start.Before(*res.Start))
	}
}

func TestPredecessorOrdering(t *testing.T) {
	cal := usCalendar()
	res, err := New(Options{}).Schedule(webProject(), d("2024-06-28"), cal)
	require.NoError(t, err)

	g, err := graph.Build(webProject())
	require.NoError(t, err)
	for _, id := range g.IDs() {
		succ := g.Successors(id)
		if len(succ) == 0 {
			continue
		}
		dep := res.Task(id)
		earliest := res.Task(succ[0]).Start
		for _, sid := range succ {
			s := res.Task(sid)
			assert.True(t, dep.End.Before(*s.Start), "#%d must end before #%d starts", id, sid)
			if s.Start.Before(*earliest) {
				earliest = s.Start
			}
		}
		gap := cal.CountWorkingDays(dep.End.AddDays(1), earliest.AddDays(-1))
		assert.Zero(t, gap, "#%d ends right before its earliest successor", id)
	}
}

func TestDurationCorrectness(t *testing.T) {
	cal := usCalendar()
	for _, deadline := range []string{"2024-06-28", "2024-07-08", "2024-06-29"} {
		res, err := New(Options{Anchor: AnchorPreviousWorkingDay}).Schedule(webProject(), d(deadline), cal)
		require.NoError(t, err)
		for _, tt := range res.Tasks {
			assert.Equal(t, tt.Duration, cal.CountWorkingDays(*tt.Start, *tt.End), "task %d deadline %s", tt.ID, deadline)
		}
	}
}

func TestIdempotent(t *testing.T) {
	s := New(Options{})
	first, err := s.Schedule(webProject(), d("2024-06-28"), usCalendar())
	require.NoError(t, err)
	second, err := s.Schedule(webProject(), d("2024-06-28"), usCalendar())
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))

	// Stale dates on the input are ignored.
	again, err := s.Schedule(first.Tasks, d("2024-06-28"), usCalendar())
	require.NoError(t, err)
	c, err := json.Marshal(again)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(c))
}

func TestMonotonicRecompute(t *testing.T) {
	cal := usCalendar()
	s := New(Options{})
	base := d("2024-06-28")
	before, err := s.Schedule(webProject(), base, cal)
	require.NoError(t, err)

	const k = 3
	later, err := cal.AddWorkingDays(base, k)
	require.NoError(t, err)
	after, err := s.Schedule(webProject(), later, cal)
	require.NoError(t, err)

	for _, tt := range before.Tasks {
		wantStart, err := cal.AddWorkingDays(*tt.Start, k)
		require.NoError(t, err)
		wantEnd, err := cal.AddWorkingDays(*tt.End, k)
		require.NoError(t, err)
		moved := after.Task(tt.ID)
		assert.Equal(t, wantStart.String(), moved.Start.String(), "task %d start", tt.ID)
		assert.Equal(t, wantEnd.String(), moved.End.String(), "task %d end", tt.ID)
	}
}

func TestOrderTieBreak(t *testing.T) {
	// 3 starts earlier than 2 (longer), both independent of each other.
	res, err := New(Options{}).Schedule([]*task.Task{tk(1, 1), tk(2, 1), tk(3, 4)}, d("2024-06-14"), calendar.WeekendsOnly())
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1, 2}, res.Order)
	assert.Equal(t, 3, res.Tasks[0].ID)
}

func TestInputNotMutated(t *testing.T) {
	tasks := webProject()
	_, err := New(Options{}).Schedule(tasks, d("2024-06-28"), usCalendar())
	require.NoError(t, err)
	for _, tt := range tasks {
		assert.Nil(t, tt.Start)
		assert.Nil(t, tt.End)
	}
}

func TestEmptyProject(t *testing.T) {
	res, err := New(Options{}).Schedule(nil, d("2024-06-14"), calendar.WeekendsOnly())
	require.NoError(t, err)
	assert.Nil(t, res.Start)
	assert.Empty(t, res.Tasks)
	assert.Zero(t, res.Passes)
}

func TestInvalidDuration(t *testing.T) {
	_, err := New(Options{}).Schedule([]*task.Task{tk(1, 0)}, d("2024-06-14"), calendar.WeekendsOnly())
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestPassCap(t *testing.T) {
	// Chain resolving last-to-first needs one pass per task.
	chain := []*task.Task{tk(1, 1), tk(2, 1, 1), tk(3, 1, 2)}

	res, err := New(Options{}).Schedule(chain, d("2024-06-14"), calendar.WeekendsOnly())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Passes)

	_, err = New(Options{MaxPasses: 2}).Schedule(chain, d("2024-06-14"), calendar.WeekendsOnly())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrScheduling)
	var serr *Error
	assert.ErrorAs(t, err, &serr)
}

func TestNoWorkingDaysIsSchedulingError(t *testing.T) {
	h := calendar.Holidays{}
	deadline := d("2024-06-14")
	for i := 0; i <= calendar.MaxNonWorkingRun+5; i++ {
		h.Add("closed", deadline.AddDays(-1-i))
	}
	_, err := New(Options{}).Schedule([]*task.Task{tk(1, 2)}, deadline, calendar.New(h, "closed"))
	assert.ErrorIs(t, err, ErrScheduling)
	assert.ErrorIs(t, err, calendar.ErrNoWorkingDays)
}

func TestParseAnchor(t *testing.T) {
	a, err := ParseAnchor("")
	require.NoError(t, err)
	assert.Equal(t, AnchorLiteral, a)
	a, err = ParseAnchor("previous-working-day")
	require.NoError(t, err)
	assert.Equal(t, AnchorPreviousWorkingDay, a)
	_, err = ParseAnchor("next")
	assert.Error(t, err)
}
