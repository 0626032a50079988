package activity

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/twiced-technology-gmbh/backplan/internal/date"
	"github.com/twiced-technology-gmbh/backplan/internal/project"
	"github.com/twiced-technology-gmbh/backplan/internal/task"
)

func event() project.Event {
	p := project.New("Launch", date.New(2024, 6, 14))
	start := date.New(2024, 6, 12)
	p.Start = &start
	p.Tasks = []*task.Task{{ID: 1, Name: "Build", Duration: 3, Start: &start, End: p.Deadline.Ptr()}}
	return project.Event{
		Timestamp: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
		Action:    project.ActionAddTask,
		TaskID:    1,
		Detail:    "Build",
		Project:   p,
	}
}

func TestLogObserver(t *testing.T) {
	dir := t.TempDir()
	l := NewLog(dir, zaptest.NewLogger(t))
	l.ProjectChanged(event())
	l.ProjectChanged(project.Event{Timestamp: time.Now(), Action: project.ActionDeadline, Detail: "2024-06-21"})

	entries, err := ReadLog(dir, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, project.ActionAddTask, entries[0].Action)
	assert.Equal(t, 1, entries[0].TaskID)
	assert.Equal(t, "2024-06-21", entries[1].Detail)

	last, err := ReadLog(dir, 1)
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, project.ActionDeadline, last[0].Action)
}

func TestLogObserverReportsWriteFailure(t *testing.T) {
	notDir := filepath.Join(t.TempDir(), "plan")
	require.NoError(t, os.WriteFile(notDir, nil, 0o600))

	core, logs := observer.New(zap.WarnLevel)
	l := NewLog(notDir, zap.New(core))
	assert.NotPanics(t, func() { l.ProjectChanged(event()) })

	entries := logs.FilterMessage("Failed to record activity").All()
	require.Len(t, entries, 1)
	assert.Equal(t, project.ActionAddTask, entries[0].ContextMap()["action"])
}

func TestReadLogMissing(t *testing.T) {
	entries, err := ReadLog(t.TempDir(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLogTruncates(t *testing.T) {
	dir := t.TempDir()
	line := `{"timestamp":"2024-06-01T00:00:00Z","action":"add","detail":"x"}` + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, logFileName), []byte(strings.Repeat(line, maxLogEntries)), 0o600))

	require.NoError(t, AppendLog(dir, LogEntry{Timestamp: time.Now(), Action: "delete"}))

	entries, err := ReadLog(dir, 0)
	require.NoError(t, err)
	assert.Len(t, entries, maxLogEntries)
	assert.Equal(t, "delete", entries[len(entries)-1].Action)
}

type published struct {
	exchange, key string
	msg           amqp091.Publishing
}

type fakeChannel struct {
	got []published
	err error
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp091.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.got = append(f.got, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func TestPublisher(t *testing.T) {
	ch := &fakeChannel{}
	p := NewPublisher(ch, "backplan.events", zaptest.NewLogger(t))
	ev := event()
	p.ProjectChanged(ev)

	require.Len(t, ch.got, 1)
	assert.Equal(t, "backplan.events", ch.got[0].exchange)
	assert.Equal(t, "schedule.add", ch.got[0].key)
	assert.Equal(t, "application/json", ch.got[0].msg.ContentType)

	var body ScheduleEvent
	require.NoError(t, json.Unmarshal(ch.got[0].msg.Body, &body))
	assert.Equal(t, ev.Project.ID.String(), body.ProjectID)
	assert.Equal(t, "2024-06-14", body.Deadline.String())
	require.Len(t, body.Tasks, 1)
	assert.Equal(t, "2024-06-12", body.Tasks[0].Start.String())
}

func TestPublisherSwallowsErrors(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	p := NewPublisher(ch, "x", zaptest.NewLogger(t))
	assert.NotPanics(t, func() { p.ProjectChanged(event()) })
	p.Close()
}

func TestScheduleEventWithoutProject(t *testing.T) {
	ev := NewScheduleEvent(project.Event{Action: project.ActionRecompute})
	assert.Empty(t, ev.ProjectID)
	assert.NotNil(t, ev.Tasks)
}
