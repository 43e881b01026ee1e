// Package report renders extraction results for the command line.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/a3tai/mcp-drawing-fields/internal/fields"
	"github.com/a3tai/mcp-drawing-fields/internal/pdf"
)

// Format is an output encoding
type Format string

const (
	Text Format = "text"
	JSON Format = "json"
	YAML Format = "yaml"
)

// ParseFormat accepts text, json or yaml in any case
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case Text, JSON, YAML:
		return f, nil
	case "":
		return Text, nil
	default:
		return "", fmt.Errorf("unknown output format %q (must be one of: text, json, yaml)", s)
	}
}

var (
	heading  = color.New(color.Bold)
	missing  = color.New(color.FgYellow)
	okMarker = color.New(color.FgGreen)
)

// Write renders v in format f. v must be a *pdf.DrawingExtractFieldsResult
// or a *pdf.DrawingExtractTokensResult for the text format; JSON and YAML
// accept any value.
func Write(w io.Writer, f Format, v any) error {
	switch f {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case Text, "":
		switch r := v.(type) {
		case *pdf.DrawingExtractFieldsResult:
			return writeFields(w, r)
		case *pdf.DrawingExtractTokensResult:
			return writeTokens(w, r)
		default:
			return fmt.Errorf("no text rendering for %T", v)
		}
	default:
		return fmt.Errorf("unknown output format %q", f)
	}
}

func summary(path string, source pdf.SourceKind, pages int, ocrPages []int) string {
	s := fmt.Sprintf("%s (%s, %d page", path, source, pages)
	if pages != 1 {
		s += "s"
	}
	if len(ocrPages) > 0 {
		nums := make([]string, len(ocrPages))
		for i, p := range ocrPages {
			nums[i] = strconv.Itoa(p)
		}
		s += ", OCR: " + strings.Join(nums, ",")
	}
	return s + ")"
}

func writeFields(w io.Writer, r *pdf.DrawingExtractFieldsResult) error {
	if _, err := heading.Fprintln(w, summary(r.Path, r.Source, r.Pages, r.OCRPages)); err != nil {
		return err
	}

	table := newTable(w)
	table.SetHeader([]string{"Field", "Value", "Label", "Position"})
	for _, res := range r.Fields {
		table.Append(fieldRow(res))
	}
	table.Render()

	_, err := fmt.Fprintf(w, "%d of %d fields found in %d tokens\n", r.Found, len(r.Fields), r.Tokens)
	return err
}

func fieldRow(res fields.Result) []string {
	if !res.Found() {
		return []string{string(res.Field), missing.Sprint("not found"), "", ""}
	}

	value := res.Text()
	if list, ok := res.Value().(fields.List); ok {
		texts := make([]string, len(list.Candidates))
		for i, c := range list.Candidates {
			texts[i] = c.Value.Text
		}
		value = strings.Join(texts, "; ")
	}
	if value == "" {
		value = okMarker.Sprint(`""`)
	}

	label, pos := "", ""
	if cands := res.Candidates(); len(cands) > 0 {
		label = cands[0].Label.Text
		pos = fmt.Sprintf("%.1f, %.1f", cands[0].Value.X, cands[0].Value.Y)
	}
	return []string{string(res.Field), value, label, pos}
}

func writeTokens(w io.Writer, r *pdf.DrawingExtractTokensResult) error {
	if _, err := heading.Fprintln(w, summary(r.Path, r.Source, r.Pages, r.OCRPages)); err != nil {
		return err
	}

	table := newTable(w)
	table.SetHeader([]string{"Page", "X", "Y", "Text"})
	for _, t := range r.Tokens {
		table.Append([]string{
			strconv.Itoa(t.Page),
			strconv.FormatFloat(t.X, 'f', 1, 64),
			strconv.FormatFloat(t.Y, 'f', 1, 64),
			t.Text,
		})
	}
	table.Render()

	_, err := fmt.Fprintf(w, "%d tokens\n", r.Count)
	return err
}

func newTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	return table
}
