package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/groblegark/confstore/internal/client"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <service>",
	Short: "Fetch a configuration payload",
	Long: `Fetch the latest configuration payload for a service, or a pinned one with
--version. With --template the server renders the payload before returning it;
template data is supplied as repeated --param key=value flags.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		service := args[0]
		version, _ := cmd.Flags().GetInt64("version")
		useTemplate, _ := cmd.Flags().GetBool("template")
		rawParams, _ := cmd.Flags().GetStringArray("param")

		params := make(map[string]string, len(rawParams))
		for _, p := range rawParams {
			key, val, ok := strings.Cut(p, "=")
			if !ok {
				return fmt.Errorf("invalid --param %q, want key=value", p)
			}
			params[key] = val
		}

		payload, err := cl.GetConfig(context.Background(), service, &client.GetOptions{
			Version:  version,
			Template: useTemplate,
			Params:   params,
		})
		if err != nil {
			if client.IsNotFound(err) {
				fmt.Fprintf(os.Stderr, "no configuration found for service %q\n", service)
				os.Exit(1)
			}
			return err
		}

		os.Stdout.Write(payload)
		if len(payload) > 0 && payload[len(payload)-1] != '\n' {
			fmt.Println()
		}
		return nil
	},
}

func init() {
	getCmd.Flags().Int64("version", 0, "fetch a specific version (0 = latest)")
	getCmd.Flags().Bool("template", false, "render the payload on the server")
	getCmd.Flags().StringArray("param", nil, "template parameter as key=value (repeatable)")
}
