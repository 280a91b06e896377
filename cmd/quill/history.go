package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var historyJSON bool

var historyCmd = &cobra.Command{
	Use:   "history [entity] [attribute]",
	Short: "List every stored version of a generated attribute",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		svc := openService()

		versions, err := svc.History(context.Background(), args[0], args[1])
		if err != nil {
			fatal("Failed to read history", err)
		}

		if historyJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(versions); err != nil {
				fatal("Failed to encode JSON", err)
			}
			return
		}

		for _, v := range versions {
			line, _, _ := strings.Cut(v.Content, "\n")
			fmt.Printf("v%d\t%s\n", v.Number, line)
		}
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Output in JSON format")
}
