// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pdiddy/portfolio-research/internal/history"
	"github.com/pdiddy/portfolio-research/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse and export saved research results",
	Long: `History reads the local SQLite database of saved research results.
Use subcommands to list runs, show or export one run, or find a startup
across all runs.`,
}

// --- list subcommand ---

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved research runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := history.NewStore(cfg.History)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(context.Background(), limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No saved results.")
		return nil
	}

	headerColor.Printf("%-5s  %-20s  %-7s  %-8s  %s\n", "ID", "Created", "Status", "Startups", "Firms")
	fmt.Println(strings.Repeat("-", 80))
	for _, e := range entries {
		status := color.GreenString("%-7s", "ok")
		if !e.Success {
			status = color.RedString("%-7s", "failed")
		}
		fmt.Printf("%-5d  %-20s  %s  %-8d  %s\n",
			e.ID, e.CreatedAt.Local().Format("2006-01-02 15:04:05"), status,
			len(e.Result.Records), strings.Join(e.Targets, ", "))
	}
	return nil
}

// --- show subcommand ---

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one saved research run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	entry, err := loadEntry(args[0])
	if err != nil {
		return err
	}

	if format == "table" || format == "" {
		fmt.Printf("Run %d (%s) for %s\n\n", entry.ID, entry.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			strings.Join(entry.Targets, ", "))
		return writeResult(os.Stdout, "table", entry.Result)
	}
	return history.Write(os.Stdout, format, entry.Result.Records, entry)
}

// --- export subcommand ---

var historyExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export the startups of one saved run as CSV, JSON, or YAML",
	Long: `Export writes the startup records of a saved run. CSV output carries a
UTF-8 byte order mark and a header row of field names so that spreadsheet
applications open it directly. Output goes to stdout unless --output is set.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistoryExport,
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	entry, err := loadEntry(args[0])
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", output, err)
		}
		defer f.Close()
		w = f
	}

	if err := history.Write(w, format, entry.Result.Records, entry.Result.Records); err != nil {
		return err
	}
	if output != "" {
		fmt.Fprintf(os.Stderr, "Exported %d startups to %s\n", len(entry.Result.Records), output)
	}
	return nil
}

// --- find subcommand ---

var historyFindCmd = &cobra.Command{
	Use:   "find <name>",
	Short: "Find a startup by name across all saved runs",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryFind,
}

func runHistoryFind(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := history.NewStore(cfg.History)
	if err != nil {
		return err
	}
	defer store.Close()

	hits, err := store.FindRecords(context.Background(), args[0], limit)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Printf("No startup matching %q.\n", args[0])
		return nil
	}

	records := make([]types.StartupRecord, 0, len(hits))
	for _, h := range hits {
		records = append(records, h.Record)
	}
	printRecordsTable(os.Stdout, records)
	fmt.Printf("\n%d matches\n", len(hits))
	return nil
}

// --- shared helpers ---

func loadEntry(rawID string) (*history.Entry, error) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid history id %q", rawID)
	}

	store, err := history.NewStore(cfg.History)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	return store.Get(context.Background(), id)
}

func init() {
	historyListCmd.Flags().Int("limit", 20, "maximum number of runs to list (0 = all)")
	historyShowCmd.Flags().String("format", "table", "output format: table, json, or yaml")
	historyExportCmd.Flags().String("format", history.FormatCSV, "export format: csv, json, or yaml")
	historyExportCmd.Flags().StringP("output", "o", "", "write to this file instead of stdout")
	historyFindCmd.Flags().Int("limit", 50, "maximum number of matches")

	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyExportCmd, historyFindCmd)
	rootCmd.AddCommand(historyCmd)
}
