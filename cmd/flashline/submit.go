package main

import (
	"errors"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sneh-joshi/flashline/pkg/client"
)

var (
	submitFor    time.Duration
	submitPreset string
	submitFg     string
	submitBg     string
	submitBold   bool
)

var submitCmd = &cobra.Command{
	Use:   "submit <text>...",
	Short: "Submit a message to the bar",
	Long: `Submit a message to the bar.

Without --for the message stays on the display until the next one arrives.
With --for it holds the display for that long, queueing later messages
behind it.

Examples:
  flashline submit deploy finished
  flashline submit --for 10s --preset error "build failed"
  flashline submit --bg "#aa0000" --bold "disk almost full"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().DurationVar(&submitFor, "for", 0, "Display duration (0 keeps the message until replaced)")
	submitCmd.Flags().StringVar(&submitPreset, "preset", "", "Named style preset")
	submitCmd.Flags().StringVar(&submitFg, "fg", "", "Foreground color (#rrggbb or rgba(r,g,b,a))")
	submitCmd.Flags().StringVar(&submitBg, "bg", "", "Background color (#rrggbb or rgba(r,g,b,a))")
	submitCmd.Flags().BoolVar(&submitBold, "bold", false, "Bold text")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	styled := submitFg != "" || submitBg != "" || submitBold
	if submitPreset != "" && styled {
		return errors.New("--preset and --fg/--bg/--bold are mutually exclusive")
	}

	var opts []client.SubmitOption
	if submitFor > 0 {
		opts = append(opts, client.WithDisplayFor(submitFor))
	}
	if submitPreset != "" {
		opts = append(opts, client.WithPreset(submitPreset))
	}
	if styled {
		opts = append(opts, client.WithStyle(client.Style{
			Foreground: submitFg,
			Background: submitBg,
			Bold:       submitBold,
		}))
	}

	res, err := newClient().Submit(cmd.Context(), strings.Join(args, " "), opts...)
	if err != nil {
		return err
	}

	mark := color.New(color.FgGreen).Sprint("✓")
	state := "displayed"
	if res.Queued {
		mark = color.New(color.FgYellow).Sprint("…")
		state = "queued"
	}
	cmd.Printf("%s %s %s\n", mark, state, res.ID)
	return nil
}
