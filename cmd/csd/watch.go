package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/groblegark/confstore/internal/events"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch [service]",
	Short: "Stream configuration change events from NATS",
	Long: `Subscribe to configuration change events and print one line per stored
version. With a service argument only that service's events are shown. Requires
CONFSTORE_NATS_URL (or a remote with a NATS URL) pointing at the server's NATS.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		natsURL := os.Getenv("CONFSTORE_NATS_URL")
		if natsURL == "" {
			natsURL = activeRemoteNATSURL()
		}
		if natsURL == "" {
			return fmt.Errorf("CONFSTORE_NATS_URL is not set and the active remote has no NATS URL")
		}

		var filter string
		if len(args) == 1 {
			filter = args[0]
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		sub, err := events.NewNATSSubscriber(natsURL,
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				log.Printf("nats: disconnected: %v", err)
			}),
			nats.ReconnectHandler(func(_ *nats.Conn) {
				log.Printf("nats: reconnected")
			}),
		)
		if err != nil {
			return fmt.Errorf("connecting to NATS: %w", err)
		}
		defer sub.Close()

		ch, cancel, err := sub.Subscribe("confstore.>")
		if err != nil {
			return fmt.Errorf("subscribing to events: %w", err)
		}
		defer cancel()

		fmt.Fprintln(os.Stderr, "watching for configuration changes (ctrl-c to stop)")
		for {
			select {
			case <-ctx.Done():
				return nil
			case data, ok := <-ch:
				if !ok {
					return nil
				}
				printEvent(data, filter)
			}
		}
	},
}

// printEvent decodes a ConfigCreated payload and prints it, skipping services
// that don't match the filter.
func printEvent(data []byte, filter string) {
	var ev events.ConfigCreated
	if err := json.Unmarshal(data, &ev); err != nil || ev.Record == nil {
		return
	}
	if filter != "" && ev.Record.Service != filter {
		return
	}
	if jsonOutput {
		printJSON(ev.Record)
		return
	}
	fmt.Printf("%s  %s version %d stored\n",
		ev.Record.CreatedAt.Format("2006-01-02 15:04:05"),
		ev.Record.Service,
		ev.Record.Version,
	)
}
