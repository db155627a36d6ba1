package parser

import (
	"LoraReport/internal/model"
	"encoding/hex"
	"strconv"
	"strings"
)

// CSVParser renders records as comma-separated values.
// Example: 12,key_value,0,1=77f0;2=ff80
type CSVParser struct{}

// NewCSVParser creates a new CSV parser instance.
func NewCSVParser() *CSVParser { return &CSVParser{} }

// Format writes SEQ,MODE,TEMPLATE,TASK=HEX;TASK=HEX with tasks in report order.
func (p *CSVParser) Format(rec model.Record) (string, error) {
	values := make([]string, 0, len(rec.Tasks))
	for _, id := range rec.Tasks {
		values = append(values, strconv.Itoa(int(id))+"="+hex.EncodeToString(rec.Values[id]))
	}
	fields := []string{
		strconv.FormatUint(rec.Seq, 10),
		rec.Mode,
		strconv.Itoa(int(rec.TemplateID)),
		strings.Join(values, ";"),
	}
	return strings.Join(fields, ","), nil
}
