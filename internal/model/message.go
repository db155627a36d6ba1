// Package model defines shared message structures for LoraReport.
package model

import "time"

// MessageStatus is the lifecycle state of a queued task message.
type MessageStatus string

const (
	StatusQueued  MessageStatus = "QUEUED"
	StatusPending MessageStatus = "PENDING"
	StatusSent    MessageStatus = "SENT"
)

// MessageType decides what happens to a message that could not be sent.
type MessageType string

const (
	// Singleton is a one-off message that must be delivered; it is retried.
	Singleton MessageType = "SINGLETON"
	// Recurring is a periodic sample; an unsent one is dropped and a newer
	// sample supersedes it.
	Recurring MessageType = "RECURRING"
	// Stream messages are retried until the server cancels the task.
	Stream MessageType = "STREAM"
)

// Message is a task payload waiting for a report slot.
type Message struct {
	ID     uint64        `json:"id"`
	TaskID uint8         `json:"task_id"`
	Type   MessageType   `json:"type"`
	Status MessageStatus `json:"status"`
	Added  time.Time     `json:"added"`
	Sent   time.Time     `json:"sent,omitempty"`
	Data   []byte        `json:"data"`
}

// Record is a decoded report as archived by the collector and broadcast to subscribers.
type Record struct {
	Seq        uint64           `cbor:"seq" json:"seq"`
	Received   time.Time        `cbor:"received" json:"received"`
	Mode       string           `cbor:"mode" json:"mode"`
	TemplateID uint8            `cbor:"template_id,omitempty" json:"template_id,omitempty"`
	FCnt       uint32           `cbor:"fcnt,omitempty" json:"fcnt,omitempty"`
	Tasks      []uint8          `cbor:"tasks" json:"tasks"`
	Values     map[uint8][]byte `cbor:"values" json:"values"`
	Raw        []byte           `cbor:"raw" json:"-"`
}
