package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"
)

var healthOutput string

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the daemon's health",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

func init() {
	healthCmd.Flags().StringVarP(&healthOutput, "output", "o", "text", "Output format (text, json)")
}

func runHealth(cmd *cobra.Command, _ []string) error {
	h, err := newClient().Health(cmd.Context())
	if err != nil {
		return err
	}

	if healthOutput == outputJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(h)
	}

	cmd.Printf("%s (v%s, up %s, %d buffered, %d waiting)\n",
		h.Status, h.Version, h.Uptime.Round(time.Second), h.Buffered, h.WaitDepth)
	return nil
}
