// reportctl encodes and decodes single reports against a schema file.
//
//	reportctl -s schema.yml encode --mode key_value 1=77f0 2=ff80
//	reportctl -s schema.yml decode 45dfcbfe...
package main

import (
	"LoraReport/internal/core"
	"LoraReport/internal/parser"
	"LoraReport/internal/report"
	"LoraReport/internal/schema"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	var schemaPath, mode, format string
	var templateID uint8

	flagSet := pflag.NewFlagSet("reportctl", pflag.ContinueOnError)
	flagSet.StringVarP(&schemaPath, "schema", "s", "configs/config.yml", "YAML file with a top-level schema section")
	flagSet.StringVarP(&mode, "mode", "m", "key_value", "report mode for encode: template or key_value")
	flagSet.Uint8VarP(&templateID, "template", "t", 0, "template id for template mode")
	flagSet.StringVarP(&format, "format", "f", "json", "decode output format: json or csv")
	flagSet.SetInterspersed(true)
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	rest := flagSet.Args()
	if len(rest) == 0 {
		return fmt.Errorf("usage: reportctl [flags] encode TASK=HEX... | decode HEX")
	}

	cfg, err := core.LoadConfig(schemaPath)
	if err != nil {
		return err
	}
	reg, err := schema.FromConfig(cfg.Schema)
	if err != nil {
		return err
	}

	switch rest[0] {
	case "encode":
		m, err := report.ParseMode(mode)
		if err != nil {
			return err
		}
		buf, err := encode(reg, m, templateID, rest[1:])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, hex.EncodeToString(buf))
		return err
	case "decode":
		if len(rest) != 2 {
			return fmt.Errorf("decode takes one hex argument")
		}
		f, err := parser.New(format)
		if err != nil {
			return err
		}
		line, err := decode(reg, f, rest[1])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, line)
		return err
	}
	return fmt.Errorf("unknown command %q", rest[0])
}

func encode(reg *schema.Registry, mode report.Mode, templateID uint8, pairs []string) ([]byte, error) {
	rep := report.New(reg)
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("expected TASK=HEX, got %q", p)
		}
		id, err := strconv.ParseUint(k, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("task id %q: %w", k, err)
		}
		payload, err := hex.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("payload for task %d: %w", id, err)
		}
		if err := rep.Write(uint8(id), payload); err != nil {
			return nil, err
		}
	}
	return rep.Bytes(mode, templateID)
}

func decode(reg *schema.Registry, f parser.Formatter, s string) (string, error) {
	buf, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return "", err
	}
	rep, err := report.Decode(reg, buf)
	if err != nil {
		return "", err
	}
	return f.Format(core.NewRecord(rep, buf, time.Now().UTC()))
}
