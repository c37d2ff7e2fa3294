// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"

	"github.com/pdiddy/portfolio-research/internal/history"
	"github.com/pdiddy/portfolio-research/pkg/types"
)

// tableColumn is one column of the records table.
type tableColumn struct {
	field string
	title string
	width int
}

var recordColumns = []tableColumn{
	{types.FieldName, "Startup", 24},
	{types.FieldSector, "Setor", 16},
	{types.FieldRound, "Rodada", 12},
	{types.FieldInvestmentAmount, "Valor", 18},
	{types.FieldInvestmentDate, "Data", 10},
	{types.FieldInvestor, "VC", 16},
	{types.FieldSite, "Site", 32},
}

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	missingColor = color.New(color.Faint)
)

// writeResult prints result in the named format. Table output includes a
// per-firm summary.
func writeResult(w io.Writer, format string, result types.ResearchResult) error {
	switch format {
	case "table", "":
		printRecordsTable(w, result.Records)
		printSummary(w, result)
		return nil
	case history.FormatCSV:
		return history.WriteCSV(w, result.Records)
	}
	return history.Write(w, format, result.Records, result)
}

func printRecordsTable(w io.Writer, records []types.StartupRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No startups found.")
		return
	}

	var header strings.Builder
	for i, c := range recordColumns {
		if i > 0 {
			header.WriteString("  ")
		}
		header.WriteString(pad(c.title, c.width))
	}
	headerColor.Fprintln(w, header.String())
	fmt.Fprintln(w, strings.Repeat("-", tableWidth()))

	for _, r := range records {
		var line strings.Builder
		for i, c := range recordColumns {
			if i > 0 {
				line.WriteString("  ")
			}
			v := r.Get(c.field)
			cell := pad(v, c.width)
			if !types.IsKnown(v) {
				cell = missingColor.Sprint(cell)
			}
			line.WriteString(cell)
		}
		fmt.Fprintln(w, line.String())
	}
}

func printSummary(w io.Writer, result types.ResearchResult) {
	fmt.Fprintln(w)
	for _, m := range result.Metadata.PerTarget {
		status := color.GreenString("ok")
		if !m.Success {
			status = color.RedString("failed: %s", m.Reason)
		}
		fmt.Fprintf(w, "%s: %d startups, %d sources, %d layers (%s)\n",
			m.Target, m.RecordCount, m.SourceCount, m.Layers, status)
	}
	fmt.Fprintf(w, "\n%d startups from %d sources\n", len(result.Records), result.Metadata.TotalSources)
	if result.Message != "" {
		color.New(color.FgYellow).Fprintln(w, result.Message)
	}
}

func tableWidth() int {
	n := 2 * (len(recordColumns) - 1)
	for _, c := range recordColumns {
		n += c.width
	}
	return n
}

// pad truncates or right-pads s to width runes.
func pad(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n > width {
		r := []rune(s)
		return string(r[:width-3]) + "..."
	}
	return s + strings.Repeat(" ", width-n)
}
