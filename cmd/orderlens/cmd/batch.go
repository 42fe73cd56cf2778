package cmd

import (
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/orderlens/orderlens/internal/batch"
	"github.com/orderlens/orderlens/internal/config"
	"github.com/orderlens/orderlens/internal/pipeline"
)

// batchCmd represents the batch command for parallel order extraction.
var batchCmd = &cobra.Command{
	Use:   "batch [files or directories...]",
	Short: "Extract order data from multiple screenshots in parallel",
	Long: `Process multiple screenshot files or directories in parallel and
write the extracted order records to the configured output.

Supported formats: PNG, JPEG, BMP, TIFF, WebP

Examples:
  orderlens batch screenshots/
  orderlens batch screenshots/ --recursive --workers 8
  orderlens batch *.png --format json --output orders.json
  orderlens batch orders/ --ai-mode never --no-duplicates
  orderlens batch orders/ --format all --output results.csv`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runBatchCommand,
}

// applyBatchFlags maps CLI flag overrides onto the resolved
// configuration. Flags win over config file and environment values.
func applyBatchFlags(cfg *config.Config, cmd *cobra.Command) {
	if cmd.Flags().Changed("workers") {
		cfg.Batch.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if cmd.Flags().Changed("recursive") {
		cfg.Batch.Recursive, _ = cmd.Flags().GetBool("recursive")
	}
	if cmd.Flags().Changed("include") {
		cfg.Batch.Include, _ = cmd.Flags().GetStringSlice("include")
	}
	if cmd.Flags().Changed("exclude") {
		cfg.Batch.Exclude, _ = cmd.Flags().GetStringSlice("exclude")
	}
	if cmd.Flags().Changed("no-duplicates") {
		noDup, _ := cmd.Flags().GetBool("no-duplicates")
		cfg.Batch.DetectDuplicates = !noDup
	}

	if cmd.Flags().Changed("format") {
		cfg.Output.Format, _ = cmd.Flags().GetString("format")
	}
	if cmd.Flags().Changed("output") {
		cfg.Output.File, _ = cmd.Flags().GetString("output")
	}

	if cmd.Flags().Changed("ai-mode") {
		cfg.AI.Mode, _ = cmd.Flags().GetString("ai-mode")
	}
	if cmd.Flags().Changed("ai-provider") {
		cfg.AI.Provider, _ = cmd.Flags().GetString("ai-provider")
	}
	if cmd.Flags().Changed("confidence-threshold") {
		cfg.Pipeline.ConfidenceThreshold, _ = cmd.Flags().GetFloat64("confidence-threshold")
	}

	if cmd.Flags().Changed("debug-images") {
		cfg.Debug.SaveImages, _ = cmd.Flags().GetBool("debug-images")
	}
	if cmd.Flags().Changed("debug-dir") {
		cfg.Debug.Dir, _ = cmd.Flags().GetString("debug-dir")
	}
}

func runBatchCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	applyBatchFlags(cfg, cmd)

	p, err := pipeline.NewBuilder().
		WithConfig(cfg).
		WithLogger(slog.Default()).
		Build()
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	quiet, _ := cmd.Flags().GetBool("quiet")
	progress := buildProgress(cmd, quiet)
	rc := pipeline.NewRunContext(slog.Default(), progress)

	result, err := batch.Run(cmd.Context(), cfg, p, rc, args)
	if err != nil {
		return err
	}

	if err := batch.WriteOutput(result.Batch, result.Summary, cfg.Output.Format, cfg.Output.File); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	if !quiet {
		_, _ = fmt.Fprint(cmd.OutOrStdout(), result.Summary.Render())
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Output written to %s (%s) in %s\n",
			cfg.Output.File, cfg.Output.Format, result.Duration.Round(time.Millisecond))
	}
	return nil
}

func buildProgress(cmd *cobra.Command, quiet bool) pipeline.ProgressCallback {
	if quiet {
		return pipeline.NewLogProgressCallback(slog.Default())
	}
	showBar, _ := cmd.Flags().GetBool("progress")
	if !showBar {
		return pipeline.NewLogProgressCallback(slog.Default())
	}
	interval, _ := cmd.Flags().GetDuration("progress-interval")
	return pipeline.NewThrottledProgressCallback(pipeline.NewConsoleProgressCallback(), interval)
}

func init() {
	rootCmd.AddCommand(batchCmd)

	// Parallel processing flags
	batchCmd.Flags().IntP("workers", "w", 0,
		fmt.Sprintf("number of parallel workers (default: %d)", runtime.NumCPU()))

	// File discovery flags
	batchCmd.Flags().BoolP("recursive", "r", false, "recursively scan directories")
	batchCmd.Flags().StringSlice("include", nil, "file patterns to include")
	batchCmd.Flags().StringSlice("exclude", nil, "file patterns to exclude")
	batchCmd.Flags().Bool("no-duplicates", false, "skip duplicate order detection")

	// Output flags
	batchCmd.Flags().StringP("format", "f", "", "output format: csv, json, spreadsheet, report, all")
	batchCmd.Flags().StringP("output", "o", "", "output file")

	// AI fallback flags
	batchCmd.Flags().String("ai-mode", "", "AI fallback mode: never, hybrid, always")
	batchCmd.Flags().String("ai-provider", "", "AI provider: openai, anthropic, gemini, ollama")
	batchCmd.Flags().Float64("confidence-threshold", 0, "OCR confidence below which the AI path runs (0-100)")

	// Progress and debugging flags
	batchCmd.Flags().Bool("progress", false, "show progress bar")
	batchCmd.Flags().Duration("progress-interval", 500*time.Millisecond, "progress update interval")
	batchCmd.Flags().Bool("quiet", false, "suppress progress output")
	batchCmd.Flags().Bool("debug-images", false, "save winning crop candidates as images")
	batchCmd.Flags().String("debug-dir", "", "directory for debug images")
}
