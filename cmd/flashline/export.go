package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sneh-joshi/flashline/pkg/client"
)

var exportDir string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the buffer to a timestamped file on the server",
	Long: `Write the buffer to a timestamped file on the server.

The file lands in the server's configured export directory unless --dir
overrides it. Export must be enabled in the server config.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportDir, "dir", "", "Server-side directory to write into (default: server config)")
}

func runExport(cmd *cobra.Command, _ []string) error {
	var opts []client.ExportOption
	if exportDir != "" {
		opts = append(opts, client.WithExportDir(exportDir))
	}

	file, n, err := newClient().Export(cmd.Context(), opts...)
	if err != nil {
		return err
	}

	mark := color.New(color.FgGreen).Sprint("✓")
	cmd.Printf("%s exported %d messages to %s\n", mark, n, file)
	return nil
}
