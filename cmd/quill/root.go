package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/quill"
)

var (
	verbose  bool
	rootFlag string
	timeout  time.Duration

	// storeRoot and storeConfig are resolved once per invocation.
	storeRoot   string
	storeConfig quill.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quill",
	Short: "A record store for interview uploads and the content generated from them",
	Long: `Quill keeps one directory per guest interview. It locates the uploads,
stores the extracted metadata and thumbnails, and versions every generated
blog attribute so earlier drafts can always be read back.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		storeRoot = locateRoot()

		cfgPath := ""
		if storeRoot != "" {
			cfgPath = quill.MarkerPath(storeRoot)
		}
		cfg, err := quill.LoadConfig(cfgPath)
		if err != nil {
			fatal("Failed to load configuration", err)
		}
		storeConfig = cfg

		level := slog.LevelInfo
		if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
			level = slog.LevelInfo
		}
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
		if strings.EqualFold(cfg.Log.Format, "json") {
			handler = slog.NewJSONHandler(os.Stderr, opts)
		}
		slog.SetDefault(slog.New(handler))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", "", "Store root (default: search upwards from the working directory)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Give up after this long, e.g. when another writer holds the entity lock (0 waits until interrupted)")
}

// commandContext is cancelled on interrupt and, when --timeout is set, once it elapses.
func commandContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

// locateRoot returns the --root flag, QUILL_ROOT, or the nearest enclosing
// store, in that order. It returns "" when none applies.
func locateRoot() string {
	if rootFlag != "" {
		return rootFlag
	}
	if env := os.Getenv("QUILL_ROOT"); env != "" {
		return env
	}
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	root, err := quill.FindRoot(wd)
	if err != nil {
		return ""
	}
	return root
}

// openService opens the located store. The store must already exist.
func openService(extra ...quill.Option) *quill.Service {
	if storeRoot == "" {
		fatal("No store found", fmt.Errorf("%w: run 'quill init' or pass --root", quill.ErrRootNotFound))
	}

	opts := append(storeConfig.Options(),
		quill.WithMustExist(true),
		quill.WithLogger(slog.Default()),
	)
	opts = append(opts, extra...)

	svc, err := quill.New(storeRoot, opts...)
	if err != nil {
		fatal("Failed to open store", err)
	}
	return svc
}
