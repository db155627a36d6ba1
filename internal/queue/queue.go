// Package queue holds task messages until a report slot is free and tracks
// their QUEUED -> PENDING -> SENT lifecycle.
package queue

import (
	"LoraReport/internal/model"
	"LoraReport/internal/report"
	"LoraReport/internal/schema"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Queue is safe for concurrent use by producers and one reporter.
type Queue struct {
	schema *schema.Registry

	mu     sync.Mutex
	nextID uint64
	msgs   []*model.Message // arrival order
	now    func() time.Time
}

// New returns an empty queue validating task ids against reg.
func New(reg *schema.Registry) *Queue {
	return &Queue{schema: reg, now: time.Now}
}

// Enqueue adds a message for a registered task and returns its id.
// A recurring message replaces a recurring message of the same task that is
// still waiting.
func (q *Queue) Enqueue(taskID uint8, typ model.MessageType, data []byte) (uint64, error) {
	switch typ {
	case model.Singleton, model.Recurring, model.Stream:
	default:
		return 0, fmt.Errorf("unknown message type %q", typ)
	}
	if _, err := q.schema.Task(taskID); err != nil {
		return 0, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.nextID++
	msg := &model.Message{
		ID:     q.nextID,
		TaskID: taskID,
		Type:   typ,
		Status: model.StatusQueued,
		Added:  q.now(),
		Data:   append([]byte(nil), data...),
	}
	if typ == model.Recurring {
		for i, m := range q.msgs {
			if m.TaskID == taskID && m.Type == model.Recurring && m.Status == model.StatusQueued {
				q.msgs = append(q.msgs[:i], q.msgs[i+1:]...)
				break
			}
		}
	}
	q.msgs = append(q.msgs, msg)
	return msg.ID, nil
}

// Accept decides whether a message of a task with the given payload width
// still fits the report being filled.
type Accept func(taskID uint8, width int) bool

// Fill writes the oldest queued message of each task into r, marks those
// messages pending and returns their ids. A nil accept takes every task.
// Messages the report cannot hold are dropped before accept sees them.
func (q *Queue) Fill(r *report.Report, accept Accept) []uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()

	var ids []uint64
	taken := make(map[uint8]bool)
	kept := q.msgs[:0]
	for _, m := range q.msgs {
		if m.Status != model.StatusQueued || taken[m.TaskID] {
			kept = append(kept, m)
			continue
		}
		task, err := q.schema.Task(m.TaskID)
		if err == nil && len(m.Data) < task.StorageBytes() {
			err = fmt.Errorf("%w: task %d needs %d bytes, got %d", report.ErrInvalidPayloadLength, m.TaskID, task.StorageBytes(), len(m.Data))
		}
		if err == nil && accept != nil && !accept(m.TaskID, task.ReportMessageSize) {
			kept = append(kept, m)
			continue
		}
		if err == nil {
			err = r.Write(m.TaskID, m.Data)
		}
		if err != nil {
			zap.L().Warn("dropping message", zap.Uint64("id", m.ID), zap.Uint8("task", m.TaskID), zap.Error(err))
			continue
		}
		taken[m.TaskID] = true
		m.Status = model.StatusPending
		ids = append(ids, m.ID)
		kept = append(kept, m)
	}
	q.msgs = kept
	return ids
}

// Ack marks pending messages sent and removes them from the queue.
func (q *Queue) Ack(ids []uint64) []model.Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	set := idSet(ids)
	var sent []model.Message
	kept := q.msgs[:0]
	for _, m := range q.msgs {
		if set[m.ID] && m.Status == model.StatusPending {
			m.Status = model.StatusSent
			m.Sent = q.now()
			sent = append(sent, *m)
			continue
		}
		kept = append(kept, m)
	}
	q.msgs = kept
	return sent
}

// Nack returns pending messages after a failed transmission: singleton and
// stream messages are queued again, recurring ones are dropped.
func (q *Queue) Nack(ids []uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	set := idSet(ids)
	kept := q.msgs[:0]
	for _, m := range q.msgs {
		if set[m.ID] && m.Status == model.StatusPending {
			if m.Type == model.Recurring {
				continue
			}
			m.Status = model.StatusQueued
		}
		kept = append(kept, m)
	}
	q.msgs = kept
}

// Cancel removes every message of a task and returns how many were removed.
func (q *Queue) Cancel(taskID uint8) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	kept := q.msgs[:0]
	for _, m := range q.msgs {
		if m.TaskID == taskID {
			n++
			continue
		}
		kept = append(kept, m)
	}
	q.msgs = kept
	return n
}

// Len returns the number of queued or pending messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.msgs)
}

// Snapshot returns copies of all messages in arrival order.
func (q *Queue) Snapshot() []model.Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]model.Message, len(q.msgs))
	for i, m := range q.msgs {
		out[i] = *m
	}
	return out
}

func idSet(ids []uint64) map[uint64]bool {
	set := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
