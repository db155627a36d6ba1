package report

import (
	"fmt"
	"strings"
)

// Mode is the 2-bit tag at the front of every report.
type Mode uint8

const (
	// ModeTemplate: template id followed by the template's payloads in order.
	ModeTemplate Mode = 0b00
	// ModeKeyValue: repeated [task id][payload] pairs, ended by a zero id.
	ModeKeyValue Mode = 0b01
	// ModeCustom is reserved; only the tag is written.
	ModeCustom Mode = 0b10
	// ModeSystem is reserved; only the tag is written.
	ModeSystem Mode = 0b11
)

func (m Mode) String() string {
	switch m {
	case ModeTemplate:
		return "template"
	case ModeKeyValue:
		return "key_value"
	case ModeCustom:
		return "custom"
	case ModeSystem:
		return "system"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// ParseMode accepts the names produced by String.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "template":
		return ModeTemplate, nil
	case "key_value", "key-value", "kv":
		return ModeKeyValue, nil
	case "custom":
		return ModeCustom, nil
	case "system":
		return ModeSystem, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedType, s)
}
