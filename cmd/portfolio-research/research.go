// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/portfolio-research/internal/history"
	"github.com/pdiddy/portfolio-research/internal/llm"
	"github.com/pdiddy/portfolio-research/internal/research"
	"github.com/pdiddy/portfolio-research/internal/search"
	"github.com/pdiddy/portfolio-research/pkg/types"
)

var researchCmd = &cobra.Command{
	Use:   "research [firm...]",
	Short: "Research the portfolios of one or more venture capital firms",
	Long: `Research runs the layered search for each firm: a broad web search, LLM
extraction of startup records, gap enrichment of missing fields, and a
supplemental search when too few startups were found. Firms are given as
arguments or with --targets (comma-separated).

The command exits with a non-zero status when no startup was found.`,
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().String("targets", "", "comma-separated list of firms")
	researchCmd.Flags().String("format", "table", "output format: table, json, yaml, or csv")
	researchCmd.Flags().Bool("save", false, "append the result to the history database")
	researchCmd.Flags().Int("concurrency", 0, "number of firms researched at once (default from config)")
	researchCmd.Flags().Int("limit", 0, "maximum startups kept per firm (default from config)")
	researchCmd.Flags().Bool("no-progress", false, "disable the progress bar")

	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	targets := append([]string{}, args...)
	if raw, _ := cmd.Flags().GetString("targets"); raw != "" {
		targets = append(targets, strings.Split(raw, ",")...)
	}
	if len(targets) == 0 {
		return fmt.Errorf("at least one firm is required: pass it as an argument or with --targets")
	}

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "table", history.FormatJSON, history.FormatYAML, history.FormatCSV:
	default:
		return fmt.Errorf("unsupported format %q: use table, json, yaml, or csv", format)
	}

	rc := cfg.Research
	if n, _ := cmd.Flags().GetInt("concurrency"); n > 0 {
		rc.Concurrency = n
	}
	if n, _ := cmd.Flags().GetInt("limit"); n > 0 {
		rc.Limit = n
	}

	opts := []research.Option{research.WithLogger(logger)}
	if noProgress, _ := cmd.Flags().GetBool("no-progress"); !noProgress {
		opts = append(opts, research.WithProgress(progressReporter()))
	}
	orch := newOrchestrator(rc, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result := orch.Run(ctx, targets)

	if save, _ := cmd.Flags().GetBool("save"); save {
		if err := saveResult(ctx, result); err != nil {
			return err
		}
	}

	if err := writeResult(os.Stdout, format, result); err != nil {
		return err
	}

	if !result.Success {
		return fmt.Errorf("research failed (%s): %s", result.Error, result.Message)
	}
	return nil
}

// newOrchestrator builds the providers from cfg. A provider that cannot be
// built is logged and left nil so that Run reports a configuration error.
func newOrchestrator(rc types.ResearchConfig, opts ...research.Option) *research.Orchestrator {
	var (
		sp search.Provider
		lp llm.Provider
	)
	if p, err := search.New(cfg.Search); err != nil {
		logger.Error("search provider unavailable", zap.Error(err))
	} else {
		sp = p
	}
	if p, err := llm.New(cfg.LLM); err != nil {
		logger.Error("language model provider unavailable", zap.Error(err))
	} else {
		lp = p
	}
	return research.NewOrchestrator(sp, lp, rc, opts...)
}

func saveResult(ctx context.Context, result types.ResearchResult) error {
	store, err := history.NewStore(cfg.History)
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.Save(ctx, result)
	if err != nil {
		return fmt.Errorf("saving result: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Saved as history entry %d\n", id)
	return nil
}

// progressReporter renders a progress bar on stderr, created on the first
// finished target.
func progressReporter() research.ProgressFunc {
	var bar *progressbar.ProgressBar
	return func(done, total int, meta types.TargetMetadata) {
		if bar == nil {
			bar = newProgressBar(total, "Researching")
		}
		status := color.GreenString("✓ %s (%d)", meta.Target, meta.RecordCount)
		if !meta.Success {
			status = color.RedString("✗ %s", meta.Target)
		}
		bar.Describe(status)
		_ = bar.Set(done)
		if done == total {
			_ = bar.Finish()
			fmt.Fprintln(os.Stderr)
		}
	}
}

func newProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("firms"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}
