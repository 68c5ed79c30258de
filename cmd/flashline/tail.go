package main

import (
	"errors"
	"fmt"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sneh-joshi/flashline/pkg/client"
)

var tailTicks bool

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Follow the bar's live event stream",
	Long: `Follow the bar's live event stream over WebSocket.

On connect the current display is replayed, then every display, clear, and
position change is printed as it happens. Interrupt with Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: runTail,
}

func init() {
	tailCmd.Flags().BoolVar(&tailTicks, "ticks", false, "Also print per-second progress ticks for timed displays")
}

func runTail(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	events, err := newClient().Tail(ctx)
	if err != nil {
		return err
	}

	display := color.New(color.FgCyan)
	bold := color.New(color.Bold)
	dim := color.New(color.Faint)
	warn := color.New(color.FgYellow)

	// Ticks carry per-second increments; fold them into an elapsed fraction
	// the way a renderer would.
	var progress float64

	for ev := range events {
		switch ev.Type {
		case client.EventDisplay:
			if ev.Entry == nil {
				continue
			}
			progress = 0
			text := ev.Entry.Text
			if ev.Entry.Style.Bold {
				text = bold.Sprint(text)
			}
			line := fmt.Sprintf("%s %s", display.Sprint("▶"), text)
			if ev.Waiting {
				line += dim.Sprint("  (more waiting)")
			}
			cmd.Println(line)
		case client.EventClear:
			progress = 0
			cmd.Println(dim.Sprint("· cleared"))
		case client.EventProgressTick:
			progress += ev.Fraction
			if progress > 1 {
				progress = 1
			}
			if tailTicks {
				cmd.Println(dim.Sprintf("  elapsed %3.0f%%", progress*100))
			}
		case client.EventIndexLabel:
			if ev.Label != nil {
				cmd.Println(dim.Sprintf("  %s", formatLabel(*ev.Label)))
			}
		case client.EventWaitQueueEmptied:
			cmd.Println(warn.Sprint("⚑ wait queue emptied"))
		}
	}

	// The channel closes on cancellation or when the server goes away.
	if ctx.Err() != nil {
		return nil
	}
	return errors.New("stream closed by server")
}

// formatLabel renders a position label the way the bar widget does:
// zero-padded cursor/last-index to the capacity's width, plus wait depth.
func formatLabel(l client.IndexLabel) string {
	w := len(strconv.Itoa(l.Capacity))
	if l.Cursor < 0 {
		dashes := strings.Repeat("-", w+1)
		return dashes + "/" + dashes + " [-]"
	}
	return fmt.Sprintf("%0*d/%0*d [%d]", w, l.Cursor, w, l.Length-1, l.WaitDepth)
}
