package main

import (
	"context"
	"fmt"
	"os"

	"github.com/groblegark/confstore/internal/client"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <service> <version>",
	Short: "Show the full record for a stored version",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		service := args[0]
		version, err := parseVersionArg(args[1])
		if err != nil {
			return err
		}

		rec, err := cl.GetVersion(context.Background(), service, version)
		if err != nil {
			if client.IsNotFound(err) {
				fmt.Fprintf(os.Stderr, "no configuration found for %s version %d\n", service, version)
				os.Exit(1)
			}
			return err
		}

		if jsonOutput {
			printJSON(rec)
			return nil
		}
		printRecord(rec)
		return nil
	},
}
