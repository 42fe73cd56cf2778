package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/orderlens/orderlens/internal/pipeline"
	"github.com/orderlens/orderlens/internal/record"
)

// imageCmd represents the image command for single-file extraction.
var imageCmd = &cobra.Command{
	Use:   "image [file]",
	Short: "Extract order data from a single screenshot",
	Long: `Process one screenshot and print the extracted order record as JSON.

Examples:
  orderlens image order.png
  orderlens image order.png --ai-mode always --ai-provider openai
  orderlens image order.png --debug-images --debug-dir crops/`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runImageCommand,
}

func runImageCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	applyBatchFlags(cfg, cmd)
	cfg.Batch.Workers = 1

	p, err := pipeline.NewBuilder().
		WithConfig(cfg).
		WithLogger(slog.Default()).
		Build()
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	rc := pipeline.NewRunContext(slog.Default(), nil)
	b, err := p.Run(cmd.Context(), rc, []string{args[0]})
	if err != nil {
		return err
	}

	r := b.Records[0]
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}

	if out, _ := cmd.Flags().GetString("output"); out != "" {
		return os.WriteFile(out, append(data, '\n'), 0o644)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(data))

	if r.Status == record.StatusFailed {
		return fmt.Errorf("extraction failed: %s", r.Note)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(imageCmd)

	imageCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	imageCmd.Flags().String("ai-mode", "", "AI fallback mode: never, hybrid, always")
	imageCmd.Flags().String("ai-provider", "", "AI provider: openai, anthropic, gemini, ollama")
	imageCmd.Flags().Float64("confidence-threshold", 0, "OCR confidence below which the AI path runs (0-100)")
	imageCmd.Flags().Bool("debug-images", false, "save winning crop candidates as images")
	imageCmd.Flags().String("debug-dir", "", "directory for debug images")
}
