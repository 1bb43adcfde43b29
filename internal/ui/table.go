package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// SummaryRow is one rendered line of a run summary
type SummaryRow struct {
	Object   string
	Status   string
	Reason   string
	Duration string
}

// RenderSummary prints per-object outcomes as a table
func RenderSummary(rows []SummaryRow) {
	if len(rows) == 0 {
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Object", "Status", "Reason", "Duration"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, row := range rows {
		table.Append([]string{row.Object, statusCell(row.Status), row.Reason, row.Duration})
	}

	fmt.Println()
	table.Render()
}

// statusCell colors a status value for terminal display
func statusCell(status string) string {
	if !supportsColor {
		return status
	}

	switch status {
	case "DONE":
		return color.GreenString(status)
	case "SKIPPED":
		return color.YellowString(status)
	case "FAILED":
		return color.RedString(status)
	default:
		return status
	}
}

// ShowRunTotals prints the aggregate counts after a summary table
func ShowRunTotals(done, skipped, failed int) {
	failedText := fmt.Sprintf("%d failed", failed)
	if failed > 0 {
		failedText = ColorError(failedText)
	}

	fmt.Printf("\n%s %d done, %d skipped, %s\n", ColorBold("Totals:"), done, skipped, failedText)
}
