// Package output renders resolution reports.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/StinkyLord/cpp-depfinder/internal/model"
)

// Format selects a report renderer.
type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatText, FormatJSON, FormatYAML, FormatTable}
}

// ParseFormat parses a format name. The empty string selects text.
func ParseFormat(s string) (Format, error) {
	if s == "" {
		return FormatText, nil
	}
	for _, f := range Formats() {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q (want text, json, yaml or table)", s)
}

// Report is everything a run found out about a source tree.
type Report struct {
	Root       string            `json:"root" yaml:"root"`
	Raw        []string          `json:"rawIncludes" yaml:"raw_includes"`
	Includes   []model.Include   `json:"includes,omitempty" yaml:"includes,omitempty"`
	External   []string          `json:"externalIncludes" yaml:"external_includes"`
	Candidates []string          `json:"candidates" yaml:"candidates"`
	Skipped    int               `json:"skippedMalformed,omitempty" yaml:"skipped_malformed,omitempty"`
	Resolution *model.Resolution `json:"resolution" yaml:"resolution"`
}

// Write renders r to w in the given format.
func Write(w io.Writer, format Format, r *Report) error {
	if r.Resolution == nil {
		r.Resolution = &model.Resolution{}
		r.Resolution.Partition()
	}
	switch format {
	case FormatText, "":
		return writeText(w, r.Resolution)
	case FormatJSON:
		return writeJSON(w, r)
	case FormatYAML:
		return writeYAML(w, r)
	case FormatTable:
		return writeTable(w, r.Resolution)
	}
	return fmt.Errorf("unknown output format %q", format)
}

// WriteFile renders r into the file at outputPath. If outputPath is "-",
// it writes to stdout.
func WriteFile(outputPath string, format Format, r *Report) error {
	if outputPath == "-" {
		return Write(os.Stdout, format, r)
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	if err := Write(f, format, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeText prints one line per hit, a blank line, then one line per
// candidate no backend knows. Colours are only used when w is a terminal.
func writeText(w io.Writer, res *model.Resolution) error {
	re := lipgloss.NewRenderer(w)
	found := re.NewStyle().Foreground(lipgloss.Color("35"))
	missing := re.NewStyle().Foreground(lipgloss.Color("167"))

	var b strings.Builder
	for _, h := range res.Hits {
		b.WriteString(found.Render(fmt.Sprintf("'%s' found with %s!", h.Package, h.Backend)))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	for _, name := range res.NotFound {
		b.WriteString(missing.Render(fmt.Sprintf("'%s' not found.", name)))
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeJSON(w io.Writer, r *Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report JSON: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

func writeYAML(w io.Writer, r *Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to marshal report YAML: %w", err)
	}
	return enc.Close()
}

// writeTable lists every candidate with its status and attributing backends.
// The footer names the backends that were actually queried.
func writeTable(w io.Writer, res *model.Resolution) error {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Package", "Status", "Backends"})

	for _, c := range res.Candidates {
		if backends, ok := res.Found[c]; ok {
			tbl.AppendRow(table.Row{c, "found", strings.Join(backends, ", ")})
		} else {
			tbl.AppendRow(table.Row{c, "not found", ""})
		}
	}
	var queried []string
	for _, b := range res.Backends {
		if b.Queried() {
			queried = append(queried, b.Name)
		}
	}
	tbl.AppendFooter(table.Row{"", fmt.Sprintf("%d/%d found", len(res.Found), len(res.Candidates)), strings.Join(queried, ", ")})

	_, err := io.WriteString(w, tbl.Render()+"\n")
	return err
}
