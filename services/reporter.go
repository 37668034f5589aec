package services

import (
	"fmt"
	"io"
	"strings"

	"hotel-bookings/models"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const barWidth = 30

// PrintInsightReport formats the insight report with one bar chart per breakdown
func PrintInsightReport(w io.Writer, report *models.InsightReport) {
	num := message.NewPrinter(language.English)
	border := strings.Repeat("═", 64)
	thin := strings.Repeat("─", 64)

	fmt.Fprintf(w, "\n╔%s╗\n", border)
	fmt.Fprintf(w, "║%s║\n", center("HOTEL BOOKING CANCELLATION INSIGHTS", 64))
	fmt.Fprintf(w, "╚%s╝\n", border)

	fmt.Fprintf(w, "\n OVERVIEW\n%s\n", thin)
	num.Fprintf(w, "  Reservations            : %d\n", report.TotalReservations)
	num.Fprintf(w, "  Canceled                : %d\n", report.Canceled)
	fmt.Fprintf(w, "  Cancellation Rate       : %s\n", percent(report.CancelRate))
	fmt.Fprintf(w, "  Average Daily Rate      : %.2f\n", report.AverageADR)
	fmt.Fprintf(w, "  Average Stay (nights)   : %.2f\n", report.AverageStay)
	fmt.Fprintf(w, "  Average Guests          : %.2f\n", report.AverageGuests)
	if len(report.DroppedColumns) > 0 {
		fmt.Fprintf(w, "  Dropped Columns         : %s\n", strings.Join(report.DroppedColumns, ", "))
	}

	for _, b := range report.Breakdowns {
		fmt.Fprintf(w, "\n CANCELLATION RATE BY %s\n%s\n", strings.ToUpper(strings.Join(b.GroupBy, " × ")), thin)
		for _, row := range b.Rows {
			bar := strings.Repeat("▓", int(row.CancelRate*barWidth+0.5))
			num.Fprintf(w, "  %-28s %6s  n=%-7d %s\n", truncate(row.Key(), 28)+":", percent(row.CancelRate), row.Count, bar)
		}
	}

	if len(report.Hypotheses) > 0 {
		fmt.Fprintf(w, "\n HYPOTHESES\n%s\n", thin)
		for _, h := range report.Hypotheses {
			verdict := "not supported"
			if h.Supported {
				verdict = "supported"
			}
			fmt.Fprintf(w, "  %s %s: %s\n", h.ID, h.Statement, verdict)
			fmt.Fprintf(w, "     %s\n", h.Evidence)
		}
	}

	fmt.Fprintf(w, "\n%s\n\n", border)
}

func center(s string, width int) string {
	runes := []rune(s)
	if len(runes) >= width {
		return s
	}
	pad := (width - len(runes)) / 2
	return strings.Repeat(" ", pad) + s + strings.Repeat(" ", width-len(runes)-pad)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
