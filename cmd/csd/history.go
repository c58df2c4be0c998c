package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history <service>",
	Short: "List all stored versions of a service, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		service := args[0]

		history, err := cl.GetHistory(context.Background(), service)
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(history)
			return nil
		}
		if len(history) == 0 {
			fmt.Printf("no versions stored for %s\n", service)
			return nil
		}
		printHistoryTable(service, history)
		return nil
	},
}
