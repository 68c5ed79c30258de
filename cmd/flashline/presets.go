package main

import (
	"encoding/json"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var presetsOutput string

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the server's named style presets",
	Args:  cobra.NoArgs,
	RunE:  runPresets,
}

func init() {
	presetsCmd.Flags().StringVarP(&presetsOutput, "output", "o", "text", "Output format (text, json)")
}

func runPresets(cmd *cobra.Command, _ []string) error {
	presets, err := newClient().Presets(cmd.Context())
	if err != nil {
		return err
	}

	if presetsOutput == outputJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(presets)
	}

	header := color.New(color.FgCyan, color.Bold)
	header.Fprintln(cmd.OutOrStdout(), "Presets:")
	for _, p := range presets {
		fg, bg := p.Style.Foreground, p.Style.Background
		if fg == "" {
			fg = "-"
		}
		if bg == "" {
			bg = "-"
		}
		bold := ""
		if p.Style.Bold {
			bold = "  bold"
		}
		cmd.Printf("  %-16s fg=%-22s bg=%-22s%s\n", p.Name, fg, bg, bold)
	}
	return nil
}
