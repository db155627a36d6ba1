package core

import (
	"LoraReport/internal/model"
	"LoraReport/internal/queue"
	"LoraReport/internal/schema"
	"errors"
	"sync"
	"testing"
	"time"
)

// memDevice records written frames and serves queued frames to readers.
type memDevice struct {
	mu       sync.Mutex
	written  [][]byte
	writeErr error
	closed   bool
}

func (d *memDevice) ReadFrame(size int, _ time.Duration) ([]byte, error) {
	return nil, errors.New("memDevice cannot read")
}

func (d *memDevice) WriteFrame(b []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.writeErr != nil {
		return d.writeErr
	}
	d.written = append(d.written, append([]byte(nil), b...))
	return nil
}

func (d *memDevice) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}

func (d *memDevice) frames() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.written
}

// chanPublisher forwards published records to a channel.
type chanPublisher chan model.Record

func (p chanPublisher) Publish(rec model.Record) { p <- rec }

func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg := schema.NewRegistry()
	for _, task := range []struct {
		id    uint8
		width int
	}{{1, 12}, {2, 9}, {3, 7}} {
		if err := reg.RegisterTask(task.id, task.width); err != nil {
			t.Fatal(err)
		}
	}
	if err := reg.RegisterTemplate(1, []uint8{2, 1}); err != nil {
		t.Fatal(err)
	}
	return reg
}

func mustEnqueue(t *testing.T, q *queue.Queue, taskID uint8, typ model.MessageType, data []byte) uint64 {
	t.Helper()
	id, err := q.Enqueue(taskID, typ, data)
	if err != nil {
		t.Fatalf("Enqueue(%d): %v", taskID, err)
	}
	return id
}
