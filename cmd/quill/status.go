package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status [entity]",
	Short: "Report the store state, or what an entity still needs",
	Long: `Without an entity, print the state of the store as JSON. With one, report
the missing uploads and what is still needed before publishing.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc := openService()

		if len(args) == 0 {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(svc.State()); err != nil {
				fatal("Failed to encode JSON", err)
			}
			return
		}

		rec, err := svc.GetRecord(context.Background(), args[0])
		if err != nil {
			fatal("Failed to read record", err)
		}

		if missing := rec.MissingUploads(); len(missing) > 0 {
			fmt.Printf("Missing uploads: %s\n", strings.Join(missing, ", "))
		} else {
			fmt.Println("All uploads present")
		}

		if blockers := rec.PublishBlockers(); len(blockers) > 0 {
			fmt.Printf("Cannot publish yet, missing: %s\n", strings.Join(blockers, ", "))
		} else {
			fmt.Println("Ready to publish")
		}
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
