package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/yuriy-kovalchuk/cloudflare-record/internal/reconcile"
)

const (
	FormatJSON  = "json"
	FormatTable = "table"
)

// failure is the document the host reads when an invocation fails.
type failure struct {
	Failed  bool   `json:"failed"`
	Changed bool   `json:"changed"`
	Msg     string `json:"msg"`
}

// Writer emits exactly one result or failure document per invocation.
type Writer struct {
	w      io.Writer
	format string
}

func NewWriter(w io.Writer, format string) (*Writer, error) {
	switch format {
	case "", FormatJSON:
		format = FormatJSON
	case FormatTable:
	default:
		return nil, fmt.Errorf("unknown output format %q, expected json or table", format)
	}
	return &Writer{w: w, format: format}, nil
}

func (o *Writer) Success(res reconcile.Result) error {
	if o.format == FormatTable {
		return o.table(res)
	}
	return json.NewEncoder(o.w).Encode(res)
}

func (o *Writer) Failure(msg string) error {
	if o.format == FormatTable {
		_, err := fmt.Fprintf(o.w, "FAILED: %s\n", msg)
		return err
	}
	return json.NewEncoder(o.w).Encode(failure{Failed: true, Msg: msg})
}

const maxContentWidth = 48

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func (o *Writer) table(res reconcile.Result) error {
	table := tablewriter.NewWriter(o.w)
	table.SetHeader([]string{"Action", "Changed", "ID", "Name", "Type", "Content"})
	table.SetAutoWrapText(false)

	id, name, typ, content := res.RecordID, res.Name, res.Type, res.Content
	if res.Record != nil {
		id = res.Delete
		name, typ, content = res.Record.Name, res.Record.Type, res.Record.Content
	}
	content = truncate(content, maxContentWidth)
	table.Append([]string{string(res.Action), strconv.FormatBool(res.Changed), id, name, typ, content})
	table.Render()
	return nil
}
