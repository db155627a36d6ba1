package parser

import (
	"LoraReport/internal/model"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"time"
)

// JSONParser renders records as JSON objects with hex payloads.
type JSONParser struct{}

// NewJSONParser creates a new JSON parser.
func NewJSONParser() *JSONParser { return &JSONParser{} }

// Document is the JSON shape of a record. Task ids stay numeric and
// payloads are hex.
type Document struct {
	Seq        uint64            `json:"seq"`
	Received   time.Time         `json:"received"`
	Mode       string            `json:"mode"`
	TemplateID uint8             `json:"template_id,omitempty"`
	FCnt       uint32            `json:"fcnt,omitempty"`
	Tasks      []int             `json:"tasks"`
	Values     map[string]string `json:"values"`
}

// NewDocument converts rec into its JSON shape.
func NewDocument(rec model.Record) Document {
	doc := Document{
		Seq:        rec.Seq,
		Received:   rec.Received,
		Mode:       rec.Mode,
		TemplateID: rec.TemplateID,
		FCnt:       rec.FCnt,
		Tasks:      make([]int, len(rec.Tasks)),
		Values:     make(map[string]string, len(rec.Values)),
	}
	for i, id := range rec.Tasks {
		doc.Tasks[i] = int(id)
	}
	for id, v := range rec.Values {
		doc.Values[strconv.Itoa(int(id))] = hex.EncodeToString(v)
	}
	return doc
}

// Format encodes rec as a single-line JSON document.
func (p *JSONParser) Format(rec model.Record) (string, error) {
	b, err := json.Marshal(NewDocument(rec))
	return string(b), err
}
