package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/quill/pkg/core"
)

var (
	showJSON     bool
	showYAML     bool
	showMarkdown bool
)

var showCmd = &cobra.Command{
	Use:   "show [entity]",
	Short: "Show the record of an entity",
	Long: `Show a record. Prints a summary by default, the full record with --json or
--yaml, or the publishable draft with --markdown. Raster images are left out.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc := openService()

		rec, err := svc.GetRecord(context.Background(), args[0])
		if err != nil {
			fatal("Failed to read record", err)
		}

		switch {
		case showMarkdown:
			fmt.Print(rec.MarkdownDraft())
		case showJSON:
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(withoutRasters(rec)); err != nil {
				fatal("Failed to encode JSON", err)
			}
		case showYAML:
			// Round trip through JSON so the keys match the on-disk documents.
			data, err := json.Marshal(withoutRasters(rec))
			if err != nil {
				fatal("Failed to encode record", err)
			}
			var doc any
			if err := json.Unmarshal(data, &doc); err != nil {
				fatal("Failed to encode record", err)
			}
			encoder := yaml.NewEncoder(os.Stdout)
			encoder.SetIndent(2)
			if err := encoder.Encode(doc); err != nil {
				fatal("Failed to encode YAML", err)
			}
			_ = encoder.Close()
		default:
			fmt.Print(rec.Summary())
		}
	},
}

func withoutRasters(rec core.Record) core.Record {
	rec.Thumbnails.PhotoNoBg = nil
	rec.Thumbnails.Landscape = nil
	rec.Thumbnails.Square = nil
	return rec
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Output in JSON format")
	showCmd.Flags().BoolVar(&showYAML, "yaml", false, "Output in YAML format")
	showCmd.Flags().BoolVar(&showMarkdown, "markdown", false, "Output the markdown draft")
	showCmd.MarkFlagsMutuallyExclusive("json", "yaml", "markdown")
}
