// Package report encodes and decodes fixed-size client reports.
//
// A report is MaxSize bytes, written MSB first:
//
//	[2-bit mode][body...][zero padding]
//
// Template body: 4-bit template id, then each task payload of the template
// at its declared width. Key-value body: repeated [4-bit task id][payload]
// pairs in insertion order; a zero task id (or the end of the buffer) ends
// the list, which is why the schema never admits task id 0.
package report

import (
	"LoraReport/internal/bitstream"
	"LoraReport/internal/schema"
	"errors"
	"fmt"
)

const (
	// MaxSize is the fixed length in bytes of an encoded report.
	MaxSize = 320
	// ModeBits is the width of the mode tag.
	ModeBits = 2
)

var (
	ErrNoDataForTask        = errors.New("no data for task")
	ErrTemplateIDRequired   = errors.New("template id required")
	ErrUnsupportedType      = errors.New("report type not supported")
	ErrInvalidPayloadLength = errors.New("payload shorter than task size")
	ErrShortBuffer          = errors.New("report truncated")
	ErrOverflow             = errors.New("report content exceeds maximum size")
)

// Report is the working set of task payloads for one message.
// It is not safe for concurrent use.
type Report struct {
	schema *schema.Registry
	order  []uint8
	data   map[uint8][]byte

	decoded    bool
	mode       Mode
	templateID uint8
}

// New returns an empty report for encoding.
func New(reg *schema.Registry) *Report {
	return &Report{schema: reg, data: make(map[uint8][]byte)}
}

// Decode parses a received report. Buffers of any length are accepted;
// fields running past the end fail with ErrShortBuffer.
func Decode(reg *schema.Registry, buf []byte) (*Report, error) {
	r := New(reg)
	in := bitstream.NewReader(buf)

	tag, err := in.ReadBits(ModeBits)
	if err != nil {
		return nil, fmt.Errorf("%w: mode tag", ErrShortBuffer)
	}
	mode := Mode(tag)

	switch mode {
	case ModeTemplate:
		id, err := in.ReadBits(schema.TemplateIDBits)
		if err != nil {
			return nil, fmt.Errorf("%w: template id", ErrShortBuffer)
		}
		tpl, err := reg.Template(uint8(id))
		if err != nil {
			return nil, err
		}
		for _, taskID := range tpl.TaskOrder {
			if err := r.readPayload(in, taskID); err != nil {
				return nil, err
			}
		}
		r.templateID = tpl.ID
	case ModeKeyValue:
		for in.Remaining() >= schema.TaskIDBits {
			id, err := in.ReadBits(schema.TaskIDBits)
			if err != nil {
				return nil, fmt.Errorf("%w: task id", ErrShortBuffer)
			}
			if id == 0 {
				break
			}
			if err := r.readPayload(in, uint8(id)); err != nil {
				return nil, err
			}
		}
	case ModeCustom, ModeSystem:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mode)
	}

	r.decoded = true
	r.mode = mode
	return r, nil
}

func (r *Report) readPayload(in *bitstream.Reader, taskID uint8) error {
	task, err := r.schema.Task(taskID)
	if err != nil {
		return err
	}
	payload := make([]byte, task.StorageBytes())
	if err := in.ReadInto(payload, task.ReportMessageSize); err != nil {
		return fmt.Errorf("%w: task %d payload", ErrShortBuffer, taskID)
	}
	r.set(taskID, payload)
	return nil
}

func (r *Report) set(taskID uint8, payload []byte) {
	if _, ok := r.data[taskID]; !ok {
		r.order = append(r.order, taskID)
	}
	r.data[taskID] = payload
}

// Write stores the leading bits of payload for a task, as many as the task
// declares. The payload must hold at least that many bits; extra input bits
// are dropped and the unused tail of the stored last byte is zero.
func (r *Report) Write(taskID uint8, payload []byte) error {
	task, err := r.schema.Task(taskID)
	if err != nil {
		return err
	}
	need := task.StorageBytes()
	if len(payload) < need {
		return fmt.Errorf("%w: task %d needs %d bytes, got %d", ErrInvalidPayloadLength, taskID, need, len(payload))
	}
	stored := make([]byte, need)
	if err := bitstream.NewWriter(stored).WriteFrom(payload, task.ReportMessageSize); err != nil {
		return err
	}
	r.set(taskID, stored)
	return nil
}

// Read returns a copy of the byte-aligned payload stored for a task,
// zero padding included.
func (r *Report) Read(taskID uint8) ([]byte, error) {
	payload, ok := r.data[taskID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNoDataForTask, taskID)
	}
	return append([]byte(nil), payload...), nil
}

// Tasks returns the ids holding data, in insertion order.
func (r *Report) Tasks() []uint8 { return append([]uint8(nil), r.order...) }

// Len returns the number of tasks holding data.
func (r *Report) Len() int { return len(r.order) }

// Mode returns the mode a decoded report was read with. ok is false for
// reports built with New.
func (r *Report) Mode() (mode Mode, ok bool) { return r.mode, r.decoded }

// TemplateID returns the template id of a decoded template report, or 0.
func (r *Report) TemplateID() uint8 { return r.templateID }

// Bytes serializes the report into a zero-filled MaxSize buffer. templateID
// is only used by ModeTemplate, where 0 means it was not given.
func (r *Report) Bytes(mode Mode, templateID uint8) ([]byte, error) {
	buf := make([]byte, MaxSize)
	out := bitstream.NewWriter(buf)

	switch mode {
	case ModeKeyValue:
		if err := out.WriteBits(uint64(mode), ModeBits); err != nil {
			return nil, err
		}
		for _, taskID := range r.order {
			task, err := r.schema.Task(taskID)
			if err != nil {
				return nil, err
			}
			if err := out.WriteBits(uint64(taskID), schema.TaskIDBits); err != nil {
				return nil, fmt.Errorf("%w: task %d id", ErrOverflow, taskID)
			}
			if err := r.writePayload(out, task); err != nil {
				return nil, err
			}
		}
	case ModeTemplate:
		if templateID == 0 {
			return nil, ErrTemplateIDRequired
		}
		tpl, err := r.schema.Template(templateID)
		if err != nil {
			return nil, err
		}
		if err := out.WriteBits(uint64(mode), ModeBits); err != nil {
			return nil, err
		}
		if err := out.WriteBits(uint64(tpl.ID), schema.TemplateIDBits); err != nil {
			return nil, err
		}
		for _, taskID := range tpl.TaskOrder {
			task, err := r.schema.Task(taskID)
			if err != nil {
				return nil, err
			}
			if err := r.writePayload(out, task); err != nil {
				return nil, err
			}
		}
	case ModeCustom, ModeSystem:
		if err := out.WriteBits(uint64(mode), ModeBits); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mode)
	}
	return buf, nil
}

// writePayload writes the stored payload of task, or zero bits when the
// report holds nothing for it.
func (r *Report) writePayload(out *bitstream.Writer, task schema.Task) error {
	var err error
	if payload, ok := r.data[task.ID]; ok {
		if need := task.StorageBytes(); len(payload) < need {
			return fmt.Errorf("%w: task %d now needs %d bytes, holds %d", ErrInvalidPayloadLength, task.ID, need, len(payload))
		}
		err = out.WriteFrom(payload, task.ReportMessageSize)
	} else {
		err = out.WriteZeros(task.ReportMessageSize)
	}
	if err != nil {
		return fmt.Errorf("%w: task %d payload", ErrOverflow, task.ID)
	}
	return nil
}
