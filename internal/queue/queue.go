// Package queue decouples webhook latency from LLM latency: the web
// process publishes thread tasks to NATS and returns immediately; worker
// processes consume them in a queue group.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/nats-io/nats.go"
)

// SubjectThreadProcess carries one thread to be drafted.
const SubjectThreadProcess = "mail.thread.process"

// WorkerGroup is the queue group name; NATS delivers each task to exactly
// one member.
const WorkerGroup = "assistant-workers"

// ThreadTask is the unit of work handed to the automation pipeline. A scan
// task carries no thread ID; the worker resolves recent inbox threads
// itself, keeping the webhook handler free of Gmail calls.
type ThreadTask struct {
	ThreadID string `json:"thread_id,omitempty"`
	Account  string `json:"account"`
	Scan     bool   `json:"scan,omitempty"`
}

// Connect dials the NATS server.
func Connect(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats at %s: %w", url, err)
	}
	return nc, nil
}

// Publisher enqueues thread tasks.
type Publisher struct {
	nc     *nats.Conn
	logger *log.Logger
}

// NewPublisher builds a Publisher over an established connection.
func NewPublisher(nc *nats.Conn, logger *log.Logger) *Publisher {
	return &Publisher{nc: nc, logger: logger}
}

// EnqueueThread publishes a task for the worker pool.
func (p *Publisher) EnqueueThread(task ThreadTask) error {
	if task.ThreadID == "" && !task.Scan {
		return fmt.Errorf("thread task requires a thread ID")
	}

	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("encoding thread task: %w", err)
	}
	if err := p.nc.Publish(SubjectThreadProcess, data); err != nil {
		return fmt.Errorf("publishing thread task: %w", err)
	}

	if p.logger != nil {
		p.logger.Debug("thread task enqueued", "thread_id", task.ThreadID, "scan", task.Scan)
	}
	return nil
}

// EnqueueScan publishes an inbox scan task for the account.
func (p *Publisher) EnqueueScan(account string) error {
	return p.EnqueueThread(ThreadTask{Account: account, Scan: true})
}

// Handler processes one dequeued thread task.
type Handler func(ctx context.Context, task ThreadTask) error

// Consumer subscribes the automation pipeline to the task subject.
type Consumer struct {
	nc     *nats.Conn
	logger *log.Logger
}

// NewConsumer builds a Consumer over an established connection.
func NewConsumer(nc *nats.Conn, logger *log.Logger) *Consumer {
	return &Consumer{nc: nc, logger: logger}
}

// Run subscribes in the worker queue group and dispatches tasks to handle
// until ctx is done. Handler errors are logged, never retried; a duplicate
// delivery would be caught by the processed-thread check anyway.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	sub, err := c.nc.QueueSubscribe(SubjectThreadProcess, WorkerGroup, func(msg *nats.Msg) {
		var task ThreadTask
		if err := json.Unmarshal(msg.Data, &task); err != nil {
			c.logger.Error("dropping malformed thread task", "error", err)
			return
		}

		c.logger.Info("processing thread task", "thread_id", task.ThreadID)
		if err := handle(ctx, task); err != nil {
			c.logger.Error("thread task failed", "thread_id", task.ThreadID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", SubjectThreadProcess, err)
	}
	defer sub.Unsubscribe()

	<-ctx.Done()
	return ctx.Err()
}
