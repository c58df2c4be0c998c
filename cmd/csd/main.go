package main

import (
	"os"

	"github.com/groblegark/confstore/internal/client"
	"github.com/spf13/cobra"
)

var (
	serverURL  string
	jsonOutput bool

	cl client.ConfigClient
)

func defaultServer() string {
	if s := os.Getenv("CONFSTORE_SERVER"); s != "" {
		return s
	}
	if url := activeRemoteURL(); url != "" {
		return url
	}
	return "http://localhost:8080"
}

var rootCmd = &cobra.Command{
	Use:   "csd",
	Short: "CLI client and server for the confstore configuration service",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cl = client.NewHTTPClient(serverURL)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if cl != nil {
			cl.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServer(), "confstore server base URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(putCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(servicesCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(remoteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
