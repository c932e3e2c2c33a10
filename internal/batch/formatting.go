package batch

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/MeKo-Tech/slipscan/internal/pipeline"
)

// formatDocuments renders documents in the requested format.
func formatDocuments(docs []pipeline.Document, fields []string, format string) (string, error) {
	switch strings.ToLower(format) {
	case FormatJSON:
		return formatJSON(docs, fields)
	case FormatCSV:
		return formatCSV(docs, fields)
	case FormatText, "":
		return formatText(docs, fields), nil
	}
	return "", fmt.Errorf("unsupported output format %q", format)
}

// row is one flattened document serialised with stable key order.
type row struct {
	cols []string
	vals map[string]string
}

func (r row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.cols {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.vals[c])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// formatJSON emits an array of flat objects, one per document.
func formatJSON(docs []pipeline.Document, fields []string) (string, error) {
	cols := pipeline.Columns(fields)
	rows := make([]row, len(docs))
	for i, d := range docs {
		rows[i] = row{cols: cols, vals: d.Flatten()}
	}
	bts, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", err
	}
	return string(bts) + "\n", nil
}

// formatCSV emits a header row and one row per document.
func formatCSV(docs []pipeline.Document, fields []string) (string, error) {
	cols := pipeline.Columns(fields)
	var output strings.Builder
	writer := csv.NewWriter(&output)
	if err := writer.Write(cols); err != nil {
		return "", err
	}
	for _, d := range docs {
		flat := d.Flatten()
		record := make([]string, len(cols))
		for i, c := range cols {
			record[i] = flat[c]
		}
		if err := writer.Write(record); err != nil {
			return "", err
		}
	}
	writer.Flush()
	return output.String(), writer.Error()
}

// FieldLabel turns a field name such as "account_number" into
// "Account Number".
func FieldLabel(name string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(name, "_", " "))
}

// formatText renders a human-readable summary per document.
func formatText(docs []pipeline.Document, fields []string) string {
	width := 0
	for _, f := range fields {
		width = max(width, len(FieldLabel(f)))
	}

	var output strings.Builder
	for i, d := range docs {
		if i > 0 {
			output.WriteString("\n")
		}
		fmt.Fprintf(&output, "# %s\n", d.SourceFile)
		if d.Status == pipeline.StatusError {
			fmt.Fprintf(&output, "  Error: %s\n", d.Error)
			continue
		}
		if d.Status == pipeline.StatusNoText {
			fmt.Fprintf(&output, "  Warning: %s\n", d.Error)
		}
		for _, f := range fields {
			v := d.Record.Fields[f]
			if v == "" {
				v = "Not found"
			}
			fmt.Fprintf(&output, "  %-*s %s\n", width+1, FieldLabel(f)+":", v)
		}
	}
	return output.String()
}
