package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check the connection to the configured vision model",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		client, err := newVisionClient(ctx, cfg)
		if err != nil {
			return err
		}
		defer client.Close()

		reply, err := client.Ping(ctx)
		if err != nil {
			return fmt.Errorf("%s connection test failed: %w", cfg.VisionProvider, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s connection test successful: %s\n", cfg.VisionProvider, reply)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pingCmd)
}
