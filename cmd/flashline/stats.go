package main

import (
	"encoding/json"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statsOutput string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show buffer and scheduler state",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().StringVarP(&statsOutput, "output", "o", "text", "Output format (text, json)")
}

func runStats(cmd *cobra.Command, _ []string) error {
	s, err := newClient().Stats(cmd.Context())
	if err != nil {
		return err
	}

	if statsOutput == outputJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}

	header := color.New(color.FgCyan, color.Bold)
	header.Fprintln(cmd.OutOrStdout(), "Bar state:")
	cmd.Printf("  buffered:   %d/%d\n", s.Length, s.Capacity)
	cmd.Printf("  cursor:     %d\n", s.Cursor)
	cmd.Printf("  waiting:    %d\n", s.WaitDepth)
	cmd.Printf("  scheduler:  %s\n", s.State)
	if s.Visible != nil {
		cmd.Printf("  visible:    %s\n", s.Visible.Text)
	}
	return nil
}
