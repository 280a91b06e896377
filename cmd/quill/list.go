package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	listJSON  bool
	listMatch string
)

type listEntry struct {
	Name            string   `json:"name"`
	MissingUploads  []string `json:"missing_uploads"`
	PublishBlockers []string `json:"publish_blockers"`
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the entities of the store",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		svc := openService()

		names, err := svc.ListEntities(ctx, listMatch)
		if err != nil {
			fatal("Failed to list entities", err)
		}

		entries := make([]listEntry, 0, len(names))
		for _, name := range names {
			rec, err := svc.GetRecord(ctx, name)
			if err != nil {
				fatal("Failed to read "+name, err)
			}
			entries = append(entries, listEntry{
				Name:            name,
				MissingUploads:  rec.MissingUploads(),
				PublishBlockers: rec.PublishBlockers(),
			})
		}

		if listJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(entries); err != nil {
				fatal("Failed to encode JSON", err)
			}
			return
		}

		for _, e := range entries {
			status := "ready"
			if len(e.PublishBlockers) > 0 {
				status = "missing " + strings.Join(e.PublishBlockers, ", ")
			}
			fmt.Printf("%s - %s\n", e.Name, status)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().StringVar(&listMatch, "match", "", "Only list entities whose name matches this glob")
}
