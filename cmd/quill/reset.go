package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset [entity]",
	Short: "Erase everything generated for an entity",
	Long:  `Erase the metadata, thumbnails and every version of the generated attributes of an entity. Uploads are kept.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if !resetYes {
			fatal("Refusing to reset", errors.New("pass --yes to confirm"))
		}

		ctx, cancel := commandContext()
		defer cancel()

		svc := openService()
		if err := svc.ResetRecord(ctx, args[0]); err != nil {
			fatal("Failed to reset record", err)
		}

		fmt.Println("Reset", args[0])
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
	resetCmd.Flags().BoolVar(&resetYes, "yes", false, "Confirm the reset")
}
