package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/groblegark/confstore/internal/client"
	"github.com/spf13/cobra"
)

var putCmd = &cobra.Command{
	Use:   "put <service> [file]",
	Short: "Store a configuration payload (YAML or JSON) for a service",
	Long: `Store a configuration payload for a service. The payload is read from the
given file, or from stdin when no file is named. Without --version the server
assigns the next free version; with --version the write is idempotent and
re-putting an existing version is a no-op.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		service := args[0]
		version, _ := cmd.Flags().GetInt64("version")

		var payload []byte
		var err error
		if len(args) == 2 {
			payload, err = os.ReadFile(args[1])
		} else {
			payload, err = io.ReadAll(os.Stdin)
		}
		if err != nil {
			return fmt.Errorf("reading payload: %w", err)
		}

		ctx := context.Background()
		var resp *client.PutResponse
		if version > 0 {
			resp, err = cl.PutVersion(ctx, service, version, payload)
		} else {
			resp, err = cl.PutConfig(ctx, service, payload)
		}
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(resp)
			return nil
		}
		fmt.Printf("%s: version %d %s\n", resp.Service, resp.Version, resp.Status)
		return nil
	},
}

func init() {
	putCmd.Flags().Int64("version", 0, "explicit version (0 = assign next)")
}
