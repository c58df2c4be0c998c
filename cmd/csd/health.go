package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check server and database health",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := cl.Health(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "server unreachable: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printJSON(status)
		} else {
			fmt.Printf("status:   %s\ndatabase: %s\n", status.Status, status.Database)
		}
		if status.Status != "ok" {
			os.Exit(1)
		}
		return nil
	},
}
