package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/groblegark/confstore/internal/model"
)

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func printRecord(rec *model.ConfigRecord) {
	fmt.Printf("Service:    %s\n", rec.Service)
	fmt.Printf("Version:    %d\n", rec.Version)
	fmt.Printf("Created At: %s\n", rec.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Payload:\n%s\n", rec.Payload)
}

func printHistoryTable(service string, history []model.VersionInfo) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tCREATED")
	for _, v := range history {
		fmt.Fprintf(w, "%d\t%s\n", v.Version, v.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	w.Flush()
	fmt.Printf("\n%d versions of %s\n", len(history), service)
}

func printServicesTable(services []model.ServiceActivity) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SERVICE\tLAST UPDATE")
	for _, s := range services {
		fmt.Fprintf(w, "%s\t%s\n", s.Service, s.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	w.Flush()
	fmt.Printf("\n%d services\n", len(services))
}

func parseVersionArg(raw string) (int64, error) {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("version must be a positive integer, got %q", raw)
	}
	return v, nil
}
