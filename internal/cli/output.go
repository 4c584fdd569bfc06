package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

var errUnknownFormat = fmt.Errorf("unknown output format (want %s, %s or %s)", FormatTable, FormatJSON, FormatYAML)

// Printer renders view models. JSON and YAML share the JSON field names so
// both formats can be fed to the same tooling.
type Printer struct {
	out    io.Writer
	format string
}

func NewPrinter(out io.Writer, format string) (*Printer, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatTable
	}
	switch format {
	case FormatTable, FormatJSON, FormatYAML:
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownFormat, format)
	}
	return &Printer{out: out, format: format}, nil
}

// Print writes v in the structured formats and calls table otherwise.
func (p *Printer) Print(v any, table func(tw *tabwriter.Writer)) error {
	switch p.format {
	case FormatJSON:
		enc := json.NewEncoder(p.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(b, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(p.out)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	default:
		tw := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
		table(tw)
		return tw.Flush()
	}
}

func row(tw *tabwriter.Writer, cols ...string) {
	for i, c := range cols {
		if c == "" {
			cols[i] = "-"
		}
	}
	fmt.Fprintln(tw, strings.Join(cols, "\t"))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
