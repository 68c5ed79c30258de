package main

import (
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sneh-joshi/flashline/pkg/client"
)

const outputJSON = "json"

var (
	serverURL     string
	apiKey        string
	clientTimeout time.Duration
	noColor       bool
)

var rootCmd = &cobra.Command{
	Use:   "flashline",
	Short: "Client for the flashline status bar daemon",
	Long: `flashline talks to a flashlined instance over HTTP.

It submits messages, follows the live event stream, inspects buffered
history, and triggers exports.

The server address defaults to the local daemon; set --server or
FLASHLINE_SERVER to point elsewhere.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		if noColor {
			color.NoColor = true
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServer(), "Base URL of the flashlined API")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key (falls back to FLASHLINE_API_KEY)")
	rootCmd.PersistentFlags().DurationVar(&clientTimeout, "timeout", 30*time.Second, "HTTP request timeout")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		submitCmd,
		tailCmd,
		messagesCmd,
		statsCmd,
		healthCmd,
		presetsCmd,
		exportCmd,
		deleteCmd,
		versionCmd,
	)
}

func defaultServer() string {
	if v := os.Getenv("FLASHLINE_SERVER"); v != "" {
		return v
	}
	return "http://127.0.0.1:8080"
}

func newClient() *client.Client {
	opts := []client.ClientOption{client.WithTimeout(clientTimeout)}
	key := apiKey
	if key == "" {
		key = os.Getenv("FLASHLINE_API_KEY")
	}
	if key != "" {
		opts = append(opts, client.WithAPIKey(key))
	}
	return client.New(serverURL, opts...)
}
