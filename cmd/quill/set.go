package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	setValue string
	setFile  string
)

var setCmd = &cobra.Command{
	Use:   "set [entity] [attribute]",
	Short: "Write a new version of a generated attribute",
	Long: `Write a new version of structure, content, title, description or linkedin.
The value comes from --value, --file, or standard input when neither is given.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		entity, attr := args[0], args[1]

		var value string
		switch {
		case cmd.Flags().Changed("value"):
			value = setValue
		case setFile != "":
			data, err := os.ReadFile(setFile)
			if err != nil {
				fatal("Failed to read file", err)
			}
			value = string(data)
		default:
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				fatal("Failed to read stdin", err)
			}
			value = string(data)
		}

		ctx, cancel := commandContext()
		defer cancel()

		svc := openService()
		version, err := svc.SetAttribute(ctx, entity, attr, value)
		if err != nil {
			fatal("Failed to set attribute", err)
		}

		fmt.Printf("%s/%s is now at version %d\n", entity, attr, version)
	},
}

func init() {
	rootCmd.AddCommand(setCmd)
	setCmd.Flags().StringVar(&setValue, "value", "", "Attribute value")
	setCmd.Flags().StringVarP(&setFile, "file", "f", "", "Read the value from a file")
	setCmd.MarkFlagsMutuallyExclusive("value", "file")
}
