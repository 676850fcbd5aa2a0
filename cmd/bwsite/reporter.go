package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Output formats of commands that print structured data.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

type reporter struct {
	out io.Writer
}

func newReporter(out io.Writer) *reporter {
	return &reporter{out: out}
}

func (r *reporter) Section(heading string) {
	fmt.Fprintf(r.out, "=== %s ===\n", heading)
}

func (r *reporter) Table(columns []string, rows [][]string) {
	w := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	if len(columns) > 0 {
		fmt.Fprintln(w, strings.Join(columns, "\t"))
	}
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()
}

func (r *reporter) Linef(format string, args ...any) {
	fmt.Fprintf(r.out, format+"\n", args...)
}

// Encode writes v as JSON or YAML.
func (r *reporter) Encode(format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(r.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return errors.Wrap(err, "encoding yaml")
		}
		return enc.Close()
	default:
		return errors.Newf("unsupported format %q", format)
	}
}
