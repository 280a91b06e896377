package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/quill"
	qlifecycle "github.com/aretw0/quill/pkg/adapters/lifecycle"
)

var (
	watchJSON     bool
	watchMatch    string
	watchSections []string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream changes made under the store",
	Long:  `Print one line per changed file until interrupted. --match filters on the root-relative path, e.g. "*/generated/**".`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := commandContext()
		defer cancel()

		svc := openService(quill.WithWatcherErrorHandler(func(err error) {
			slog.Error("watcher failed", "error", err)
		}))

		events, err := svc.Watch(ctx, watchMatch)
		if err != nil {
			fatal("Failed to watch store", err)
		}
		slog.Info("watching", "root", storeRoot, "match", watchMatch, "sections", watchSections)

		source := qlifecycle.NewSource(events, watchSections...)
		if err := source.Start(ctx); err != nil {
			fatal("Failed to start event source", err)
		}

		encoder := json.NewEncoder(os.Stdout)
		for e := range source.Events() {
			if watchJSON {
				if err := encoder.Encode(e); err != nil {
					fatal("Failed to encode JSON", err)
				}
				continue
			}
			fmt.Println(e.String())
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().BoolVar(&watchJSON, "json", false, "Output one JSON object per event")
	watchCmd.Flags().StringVar(&watchMatch, "match", "", "Glob over root-relative paths")
	watchCmd.Flags().StringSliceVar(&watchSections, "section", nil, "Only show changes owned by these sections")
}
