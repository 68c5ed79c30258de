package main

import (
	"errors"

	"github.com/spf13/cobra"
)

var deleteAll bool

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete buffered messages",
	Long: `Delete buffered messages.

Only whole-buffer deletion is supported over the API; pass --all to
confirm. Whether messages still waiting to be displayed are dropped too is
controlled by the server's strict_delete_all setting.`,
	Args: cobra.NoArgs,
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolVar(&deleteAll, "all", false, "Delete every buffered message")
}

func runDelete(cmd *cobra.Command, _ []string) error {
	if !deleteAll {
		return errors.New("refusing to delete without --all")
	}

	n, err := newClient().DeleteAll(cmd.Context())
	if err != nil {
		return err
	}
	cmd.Printf("deleted %d messages\n", n)
	return nil
}
