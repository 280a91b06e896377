package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/quill/pkg/core"
)

var catVersion int

var catCmd = &cobra.Command{
	Use:   "cat [entity] [attribute]",
	Short: "Print a generated attribute",
	Long:  `Print the current value of a generated attribute, or an earlier one with --version.`,
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		entity, attr := args[0], args[1]
		svc := openService()

		if cmd.Flags().Changed("version") {
			content, found, err := svc.ReadVersion(ctx, entity, attr, catVersion)
			if err != nil {
				fatal("Failed to read version", err)
			}
			if !found {
				fatal("Failed to read version", fmt.Errorf("%s/%s has no version %d", entity, attr, catVersion))
			}
			fmt.Print(content)
			return
		}

		if !core.IsBlogAttribute(attr) {
			fatal("Failed to read attribute", core.UnknownAttribute(attr))
		}
		rec, err := svc.GetRecord(ctx, entity)
		if err != nil {
			fatal("Failed to read record", err)
		}
		value := rec.Blog.Get(attr)
		if value == nil {
			fatal("Failed to read attribute", fmt.Errorf("%s/%s has not been generated", entity, attr))
		}
		fmt.Print(*value)
	},
}

func init() {
	rootCmd.AddCommand(catCmd)
	catCmd.Flags().IntVar(&catVersion, "version", 0, "Version to print")
}
