package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/f3rmion/dhfr/internal/analysis"
	"github.com/f3rmion/dhfr/internal/report"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <smiles>",
	Short: "Predict DHFR potency for one compound",
	Long: `Submit one compound to the prediction service and print the result.

The SMILES string is sent as typed; quote it so the shell leaves
brackets and parentheses alone.

Example:
  dhfr analyze CCO
  dhfr analyze 'Nc1nc(N)c2nc(CNc3ccc(cc3)C(=O)O)cnc2n1' --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringP("format", "f", "text", "output format (text, json, yaml)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("format")
	format, err := report.ParseFormat(name)
	if err != nil {
		return err
	}

	_, logger, client, err := setup(false)
	if err != nil {
		return err
	}
	defer logger.Sync()

	form := analysis.NewForm(analysis.WithLogger(logger.Named("form")))
	form.SetInput(args[0])
	st := form.Submit(cmd.Context(), client)

	if err := report.Write(cmd.OutOrStdout(), st, format); err != nil {
		return err
	}
	if !st.HasResult {
		return errors.New(st.ErrorMessage)
	}
	return nil
}
