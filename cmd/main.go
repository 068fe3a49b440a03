package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"sharp2ts/translator"
)

var (
	sourceDir  string
	outputDir  string
	watchMode  bool
	debugMode  bool
	configPath string
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sharp2ts",
		Short:         "Translate C# worker modules into TypeScript",
		Long:          "sharp2ts translates a constrained subset of C# worker algorithm modules\ninto equivalent TypeScript runnable inside a browser worker.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	rootCmd.Flags().StringVarP(&sourceDir, "source", "s", "", "Source directory (required)")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (required)")
	rootCmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "Re-translate on source changes")
	rootCmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug output")
	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to YAML policy file")
	_ = rootCmd.MarkFlagRequired("source")
	_ = rootCmd.MarkFlagRequired("output")
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if debugMode {
		translator.DebugMode = true
		log.SetLevel(log.DebugLevel)
	}

	cfg := translator.DefaultConfig()
	if configPath != "" {
		loaded, err := translator.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	opts := translator.Options{
		SourceDir: sourceDir,
		OutputDir: outputDir,
		Config:    cfg,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if watchMode {
		return translator.Watch(ctx, opts)
	}

	result, err := translator.RunBatch(ctx, opts)
	if err != nil {
		return err
	}

	green := "\033[32m"
	bold := "\033[1m"
	reset := "\033[0m"
	if err := result.Err(); err != nil {
		fmt.Printf("\n%s translated, %d failed\n", plural(len(result.Translated), "file"), len(result.Failed))
		return err
	}
	fmt.Printf("\n%s%s✓ Translation successful!%s\n", bold, green, reset)
	fmt.Printf("%s  Generated:%s %s\n", green, reset, plural(len(result.Translated), "file"))
	return nil
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
