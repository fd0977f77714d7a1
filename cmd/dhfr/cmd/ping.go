package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the prediction service is up",
	Long: `Call the root endpoint of the prediction service and print the JSON
it answers with.`,
	Args: cobra.NoArgs,
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
	pingCmd.Flags().Duration("wait", 10*time.Second, "how long to wait for an answer")
}

func runPing(cmd *cobra.Command, args []string) error {
	wait, _ := cmd.Flags().GetDuration("wait")

	_, logger, client, err := setup(false)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(cmd.Context(), wait)
	defer cancel()

	body, err := client.Ping(ctx)
	if err != nil {
		logger.Warn("liveness probe failed", zap.String("url", client.BaseURL()), zap.Error(err))
		return fmt.Errorf("pinging %s: %w", client.BaseURL(), err)
	}
	logger.Debug("liveness probe", zap.Any("body", body))

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(body)
}
