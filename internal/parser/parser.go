// Package parser renders archived report records for subscribers and logs.
package parser

import (
	"LoraReport/internal/model"
	"fmt"
	"strings"
)

// Formatter turns a decoded record into one line of text.
type Formatter interface {
	Format(rec model.Record) (string, error)
}

// New returns the formatter registered under name ("csv" or "json").
func New(name string) (Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return NewJSONParser(), nil
	case "csv":
		return NewCSVParser(), nil
	}
	return nil, fmt.Errorf("unknown record format %q", name)
}
