package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/f3rmion/dhfr/internal/analysis"
)

func float(v float64) *float64 { return &v }
func str(v string) *string      { return &v }

func ethanolState() analysis.State {
	return analysis.State{
		Seq:       1,
		SMILES:    "CCO",
		HasResult: true,
		Properties: analysis.DrugProperties{
			MolecularWeight: float(46.07),
			LogP:            float(-0.31),
			HBondDonors:     float(1),
			HBondAcceptors:  float(1),
		},
		Potency: analysis.Potency{
			IsPotent:      true,
			InhibitorType: str("Active"),
			IC50:          float(120.5),
		},
		Markup: "<svg></svg>",
		Name:   str("ethanol"),
	}
}

func TestNumber(t *testing.T) {
	require.Equal(t, "46.07", Number(float(46.07)))
	require.Equal(t, "-0.31", Number(float(-0.31)))
	require.Equal(t, "1", Number(float(1)))
	require.Equal(t, "120.5", Number(float(120.5)))
	require.Equal(t, "0.000123", Number(float(0.000123)))
	require.Equal(t, "", Number(nil))
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, ethanolState(), FormatText))

	want := `Compound: CCO
IUPAC name: ethanol

Drug Properties
  Molecular Weight: 46.07 g/mol
  LogP: -0.31
  H-Bond Donors: 1
  H-Bond Acceptors: 1

Potency Prediction
  This compound is predicted to be an Active inhibitor of DHFR.
  IC50: 120.5 nM
`
	require.Equal(t, want, buf.String())
}

func TestWriteText_Failure(t *testing.T) {
	var buf bytes.Buffer
	st := analysis.State{Seq: 1, SMILES: "CCO", ErrorMessage: "Failed to get prediction"}
	require.NoError(t, Write(&buf, st, FormatText))

	require.Equal(t, "Compound: CCO\n\nError: Failed to get prediction\n", buf.String())
	require.NotContains(t, buf.String(), "Drug Properties")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, ethanolState(), FormatJSON))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Equal(t, true, got["hasResult"])
	require.Equal(t, "ethanol", got["iupac"])
	props := got["properties"].(map[string]any)
	require.Equal(t, 46.07, props["molecularWeight"])
	potency := got["potency"].(map[string]any)
	require.Equal(t, "Active", potency["inhibitorType"])
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, ethanolState(), FormatYAML))

	var got analysis.State
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Equal(t, ethanolState(), got)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatText, "TEXT": FormatText, "json": FormatJSON, " yaml ": FormatYAML} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := ParseFormat("xml")
	require.Error(t, err)
}

func TestSummary(t *testing.T) {
	require.Equal(t,
		"CCO (ethanol): Active DHFR inhibitor, IC50 120.5 nM, MW 46.07 g/mol, LogP -0.31, HBD 1, HBA 1",
		Summary(ethanolState()),
	)
	require.Equal(t, "CCO: timeout", Summary(analysis.State{SMILES: "CCO", ErrorMessage: "timeout"}))
}
