// Package report formats analysis results for people and for machines.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/f3rmion/dhfr/internal/analysis"
)

// Format selects an output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text, json or yaml)", s)
	}
}

// Number renders a value exactly as received. Missing values render empty.
func Number(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// Text renders an optional string.
func Text(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// Funcs are the helpers available to report templates.
var Funcs = template.FuncMap{
	"num": Number,
	"str": Text,
}

const textTemplate = `Compound: {{.SMILES}}
{{- with str .Name}}
IUPAC name: {{.}}
{{- end}}
{{- if .ErrorMessage}}

Error: {{.ErrorMessage}}
{{- end}}
{{- if .HasResult}}

Drug Properties
  Molecular Weight: {{num .Properties.MolecularWeight}} g/mol
  LogP: {{num .Properties.LogP}}
  H-Bond Donors: {{num .Properties.HBondDonors}}
  H-Bond Acceptors: {{num .Properties.HBondAcceptors}}

Potency Prediction
  This compound is predicted to be an {{str .Potency.InhibitorType}} inhibitor of DHFR.
  IC50: {{num .Potency.IC50}} nM
{{- end}}
`

var textTmpl = template.Must(template.New("report").Funcs(Funcs).Parse(textTemplate))

// Write encodes st to w in the requested format.
func Write(w io.Writer, st analysis.State, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(st); err != nil {
			return fmt.Errorf("encoding json report: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(st); err != nil {
			return fmt.Errorf("encoding yaml report: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encoding yaml report: %w", err)
		}
		return nil
	default:
		var buf bytes.Buffer
		if err := textTmpl.Execute(&buf, st); err != nil {
			return fmt.Errorf("rendering report: %w", err)
		}
		_, err := w.Write(buf.Bytes())
		return err
	}
}

// Summary is a one-line description of a finished analysis.
func Summary(st analysis.State) string {
	if !st.HasResult {
		if st.ErrorMessage != "" {
			return fmt.Sprintf("%s: %s", st.SMILES, st.ErrorMessage)
		}
		return st.SMILES
	}

	var b strings.Builder
	b.WriteString(st.SMILES)
	if name := Text(st.Name); name != "" {
		fmt.Fprintf(&b, " (%s)", name)
	}
	fmt.Fprintf(&b, ": %s DHFR inhibitor, IC50 %s nM, MW %s g/mol, LogP %s, HBD %s, HBA %s",
		Text(st.Potency.InhibitorType),
		Number(st.Potency.IC50),
		Number(st.Properties.MolecularWeight),
		Number(st.Properties.LogP),
		Number(st.Properties.HBondDonors),
		Number(st.Properties.HBondAcceptors),
	)
	return b.String()
}
