package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/f3rmion/dhfr/internal/tui"
)

var interactiveCmd = &cobra.Command{
	Use:     "interactive",
	Aliases: []string{"i", "ui"},
	Short:   "Launch the interactive compound form",
	Long: `Launch an interactive terminal form for analyzing compounds.

Type a canonical SMILES string and press Enter. The form shows the
molecular properties, the predicted DHFR potency and a preview of the
structure drawing.

Controls:
  Enter            Analyze compound
  Ctrl+Y           Copy result summary
  Tab/Shift+Tab    Switch tabs
  F1-F4            Jump to tab
  Esc, Ctrl+C      Quit`,
	RunE: runInteractive,
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}

func runInteractive(cmd *cobra.Command, args []string) error {
	_, logger, client, err := setup(true)
	if err != nil {
		return err
	}
	defer logger.Sync()

	p := tea.NewProgram(
		tui.NewApp(client, logger.Named("tui")),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}

	return nil
}
