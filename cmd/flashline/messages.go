package main

import (
	"encoding/json"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sneh-joshi/flashline/pkg/client"
)

var (
	messagesLimit  int
	messagesOutput string
)

var messagesCmd = &cobra.Command{
	Use:   "messages",
	Short: "List buffered messages, oldest first",
	Args:  cobra.NoArgs,
	RunE:  runMessages,
}

func init() {
	messagesCmd.Flags().IntVar(&messagesLimit, "limit", 0, "Only show the newest N messages (0 = all)")
	messagesCmd.Flags().StringVarP(&messagesOutput, "output", "o", "text", "Output format (text, json)")
}

func runMessages(cmd *cobra.Command, _ []string) error {
	var opts []client.ListOption
	if messagesLimit > 0 {
		opts = append(opts, client.WithLimit(messagesLimit))
	}

	msgs, err := newClient().Messages(cmd.Context(), opts...)
	if err != nil {
		return err
	}

	if messagesOutput == outputJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(msgs)
	}

	if len(msgs) == 0 {
		cmd.Println("No buffered messages.")
		return nil
	}

	dim := color.New(color.Faint)
	for i, m := range msgs {
		stamp := dim.Sprint(m.CreatedAt.Local().Format("15:04:05"))
		cmd.Printf("%3d  %s  %s\n", i, stamp, m.Text)
	}
	return nil
}
