// Package schema holds the task and template layout tables that drive report
// encoding. It is a pure data holder with bounds-checked accessors.
package schema

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

const (
	// TaskIDBits is the width of a task identifier on the wire.
	TaskIDBits = 4
	// TemplateIDBits is the width of a template identifier on the wire.
	TemplateIDBits = 4

	MaxTaskID     = 1<<TaskIDBits - 1
	MaxTemplateID = 1<<TemplateIDBits - 1
)

var (
	ErrOutOfRange        = errors.New("id out of range")
	ErrUndefinedTask     = errors.New("task not defined")
	ErrUndefinedTemplate = errors.New("template not defined")
	ErrInvalidWidth      = errors.New("invalid report message size")
)

// Task describes one telemetry field.
type Task struct {
	ID uint8
	// ReportMessageSize is the payload width in bits.
	ReportMessageSize int
}

// StorageBytes is the byte-aligned storage a payload of this task occupies.
func (t Task) StorageBytes() int { return (t.ReportMessageSize + 7) / 8 }

// Template is a fixed ordering of tasks sent without per-task identifiers.
type Template struct {
	ID        uint8
	TaskOrder []uint8
}

// Registry maps task and template ids to their descriptors.
// Id 0 is reserved in both tables and can never be registered: the key-value
// report layout relies on a zero task id marking the end of the message.
type Registry struct {
	mu        sync.RWMutex
	tasks     map[uint8]Task
	templates map[uint8]Template
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tasks:     make(map[uint8]Task),
		templates: make(map[uint8]Template),
	}
}

func checkTaskID(id uint8) error {
	if id == 0 || id > MaxTaskID {
		return fmt.Errorf("%w: task %d (allowed 1..%d)", ErrOutOfRange, id, MaxTaskID)
	}
	return nil
}

func checkTemplateID(id uint8) error {
	if id == 0 || id > MaxTemplateID {
		return fmt.Errorf("%w: template %d (allowed 1..%d)", ErrOutOfRange, id, MaxTemplateID)
	}
	return nil
}

// RegisterTask defines or replaces the task with the given id.
func (r *Registry) RegisterTask(id uint8, reportMessageSize int) error {
	if err := checkTaskID(id); err != nil {
		return err
	}
	if reportMessageSize < 1 {
		return fmt.Errorf("%w: task %d size %d", ErrInvalidWidth, id, reportMessageSize)
	}
	r.mu.Lock()
	r.tasks[id] = Task{ID: id, ReportMessageSize: reportMessageSize}
	r.mu.Unlock()
	return nil
}

// Task returns the descriptor registered for id.
func (r *Registry) Task(id uint8) (Task, error) {
	if err := checkTaskID(id); err != nil {
		return Task{}, err
	}
	r.mu.RLock()
	t, ok := r.tasks[id]
	r.mu.RUnlock()
	if !ok {
		return Task{}, fmt.Errorf("%w: %d", ErrUndefinedTask, id)
	}
	return t, nil
}

// RegisterTemplate defines or replaces a template. Member tasks are resolved
// when the template is used, not here.
func (r *Registry) RegisterTemplate(id uint8, taskOrder []uint8) error {
	if err := checkTemplateID(id); err != nil {
		return err
	}
	order := append([]uint8(nil), taskOrder...)
	r.mu.Lock()
	r.templates[id] = Template{ID: id, TaskOrder: order}
	r.mu.Unlock()
	return nil
}

// Template returns the template registered for id. The returned task order
// is a copy.
func (r *Registry) Template(id uint8) (Template, error) {
	if err := checkTemplateID(id); err != nil {
		return Template{}, err
	}
	r.mu.RLock()
	t, ok := r.templates[id]
	r.mu.RUnlock()
	if !ok {
		return Template{}, fmt.Errorf("%w: %d", ErrUndefinedTemplate, id)
	}
	t.TaskOrder = append([]uint8(nil), t.TaskOrder...)
	return t, nil
}

// Tasks lists registered tasks by ascending id.
func (r *Registry) Tasks() []Task {
	r.mu.RLock()
	out := make([]Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, t)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Templates lists registered templates by ascending id.
func (r *Registry) Templates() []Template {
	r.mu.RLock()
	out := make([]Template, 0, len(r.templates))
	for _, t := range r.templates {
		t.TaskOrder = append([]uint8(nil), t.TaskOrder...)
		out = append(out, t)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
