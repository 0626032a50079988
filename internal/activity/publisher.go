package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/twiced-technology-gmbh/backplan/internal/date"
	"github.com/twiced-technology-gmbh/backplan/internal/project"
)

const publishTimeout = 5 * time.Second

// Channel is the part of an AMQP channel the publisher uses.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// ScheduleEvent is the message body published for every committed change.
type ScheduleEvent struct {
	ProjectID string          `json:"project_id"`
	Action    string          `json:"action"`
	TaskID    int             `json:"task_id,omitempty"`
	Detail    string          `json:"detail,omitempty"`
	Deadline  date.Date       `json:"deadline"`
	Start     *date.Date      `json:"start,omitempty"`
	Tasks     []ScheduledTask `json:"tasks"`
	At        time.Time       `json:"at"`
}

// ScheduledTask is one task's computed window.
type ScheduledTask struct {
	ID    int        `json:"id"`
	Name  string     `json:"name"`
	Start *date.Date `json:"start,omitempty"`
	End   *date.Date `json:"end,omitempty"`
}

// Publisher sends schedule changes to an AMQP exchange with routing key
// "schedule.<action>". Publish failures are logged, never returned.
type Publisher struct {
	ch       Channel
	exchange string
	logger   *zap.Logger
	closers  []func() error
}

// NewPublisher wraps an open channel.
func NewPublisher(ch Channel, exchange string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{ch: ch, exchange: exchange, logger: logger}
}

// DialPublisher connects to url and declares a durable topic exchange.
func DialPublisher(url, exchange string, logger *zap.Logger) (*Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, amqp091.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declaring exchange: %w", err)
	}

	p := NewPublisher(ch, exchange, logger)
	p.closers = []func() error{ch.Close, conn.Close}
	return p, nil
}

// Close releases the channel and connection opened by DialPublisher.
func (p *Publisher) Close() {
	for _, c := range p.closers {
		_ = c()
	}
}

// ProjectChanged implements project.Observer.
func (p *Publisher) ProjectChanged(e project.Event) {
	body, err := json.Marshal(NewScheduleEvent(e))
	if err != nil {
		p.logger.Error("Failed to encode schedule event", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	key := "schedule." + e.Action
	err = p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    e.Timestamp,
	})
	if err != nil {
		p.logger.Warn("Failed to publish schedule event",
			zap.String("routing_key", key),
			zap.Error(err),
		)
		return
	}
	p.logger.Debug("Published schedule event", zap.String("routing_key", key))
}

// NewScheduleEvent builds the message body for e.
func NewScheduleEvent(e project.Event) ScheduleEvent {
	ev := ScheduleEvent{
		Action: e.Action,
		TaskID: e.TaskID,
		Detail: e.Detail,
		At:     e.Timestamp,
		Tasks:  []ScheduledTask{},
	}
	if p := e.Project; p != nil {
		ev.ProjectID = p.ID.String()
		ev.Deadline = p.Deadline
		ev.Start = p.Start
		for _, t := range p.Tasks {
			ev.Tasks = append(ev.Tasks, ScheduledTask{ID: t.ID, Name: t.Name, Start: t.Start, End: t.End})
		}
	}
	return ev
}
