package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var servicesCmd = &cobra.Command{
	Use:   "services",
	Short: "List known services ordered by most recent update",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sinceStr, _ := cmd.Flags().GetString("since")

		var since *time.Time
		if sinceStr != "" {
			// Accept either an RFC 3339 timestamp or a relative duration.
			if t, err := time.Parse(time.RFC3339, sinceStr); err == nil {
				since = &t
			} else if d, err := time.ParseDuration(sinceStr); err == nil {
				t := time.Now().Add(-d)
				since = &t
			} else {
				return fmt.Errorf("invalid --since %q, want RFC 3339 timestamp or duration like 24h", sinceStr)
			}
		}

		services, err := cl.ListServices(context.Background(), since)
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(services)
			return nil
		}
		if len(services) == 0 {
			fmt.Println("no services found")
			return nil
		}
		printServicesTable(services)
		return nil
	},
}

func init() {
	servicesCmd.Flags().String("since", "", "only services updated since (RFC 3339 or duration)")
}
