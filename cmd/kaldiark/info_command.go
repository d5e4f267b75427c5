package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"kaldiark/internal/ark"
)

func newInfoCommand(ctx *commandContext) *cobra.Command {
	var filterPath string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "info <ark>",
		Short: "Summarize the records of a Kaldi text archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.logger(cmd, "info")
			if err != nil {
				return err
			}
			archive, err := ctx.readArchive(args[0], filterPath, logger)
			if err != nil {
				return err
			}

			summary := ark.Summarize(archive)
			if jsonOutput {
				return writeJSON(cmd, summary)
			}

			out := cmd.OutOrStdout()
			if summary.Records == 0 {
				fmt.Fprintln(out, "No records")
				return nil
			}
			fmt.Fprintln(out, renderSummaryTable(summary, shouldColorize(cmd)))
			fmt.Fprintf(out, "%d records, %d rows, dims %s\n", summary.Records, summary.TotalRows, formatDims(summary.Dims))
			return nil
		},
	}

	cmd.Flags().StringVar(&filterPath, "filter", "", "File listing identifiers to keep, one per line")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func renderSummaryTable(summary ark.Summary, colorize bool) string {
	headers := []string{"ID", "Rows", "Cols", "Min", "Max", "Mean"}
	aligns := []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight}
	rows := make([][]string, 0, len(summary.Entries))
	for _, entry := range summary.Entries {
		row := []string{entry.ID, strconv.Itoa(entry.Rows), strconv.Itoa(entry.Cols), "-", "-", "-"}
		if entry.Rows > 0 {
			row[3] = formatStat(entry.Min)
			row[4] = formatStat(entry.Max)
			row[5] = formatStat(entry.Mean)
		}
		rows = append(rows, row)
	}
	return renderTable(headers, rows, aligns, colorize)
}

func formatStat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func formatDims(dims []int) string {
	if len(dims) == 0 {
		return "none"
	}
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}
