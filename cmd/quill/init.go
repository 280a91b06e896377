package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/quill"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Initialize a quill store",
	Long:  `Initialize a new store in the given directory (default: the working directory). This creates the system directory and writes quill.yaml.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := rootFlag
		if len(args) == 1 {
			path = args[0]
		}
		if path == "" {
			cwd, err := os.Getwd()
			if err != nil {
				fatal("Failed to get CWD", err)
			}
			path = cwd
		}

		_, err := quill.Init(path, quill.WithAutoInit(true), quill.WithLogger(slog.Default()))
		if err != nil {
			fatal("Failed to initialize store", err)
		}

		fmt.Println("Initialized empty quill store in", path)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
