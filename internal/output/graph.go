package output

import (
	"os"
	"strings"
	"time"

	"golang.org/x/term"
)

const (
	graphIndent  = "    "
	defaultWidth = 80
)

// RenderGraph returns the ASCII contribution graph for the trailing window
// of days ending today. Each day renders as a two-column cell under a month
// header row; windows wider than width wrap onto additional header/cell
// pairs.
func RenderGraph(commitsByDate map[string]int, days, width int) string {
	return renderGraphEnding(time.Now(), commitsByDate, days, width)
}

func renderGraphEnding(end time.Time, commitsByDate map[string]int, days, width int) string {
	dates := dateRange(end, days)

	perRow := (width - len(graphIndent)) / 2
	if perRow < 1 {
		perRow = 1
	}

	var lines []string
	for start := 0; start < len(dates); start += perRow {
		stop := start + perRow
		if stop > len(dates) {
			stop = len(dates)
		}
		if start > 0 {
			lines = append(lines, "")
		}
		segment := dates[start:stop]
		lines = append(lines, monthHeader(segment), cellRow(segment, commitsByDate))
	}

	lines = append(lines,
		"",
		"Legend:",
		"· - No commits",
		"▪ - 1-4 commits",
		"▫ - 5-9 commits",
		"█ - 10+ commits",
	)

	return strings.Join(lines, "\n")
}

// dateRange lists the days-long span of calendar dates ending on end's date,
// midnight-anchored in end's zone.
func dateRange(end time.Time, days int) []time.Time {
	last := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, end.Location())
	dates := make([]time.Time, 0, days)
	for i := days - 1; i >= 0; i-- {
		dates = append(dates, last.AddDate(0, 0, -i))
	}
	return dates
}

// monthHeader labels each month change at the column of its first cell.
func monthHeader(dates []time.Time) string {
	var b strings.Builder
	b.WriteString(graphIndent)
	written := 0
	previous := time.Month(0)
	for i, d := range dates {
		if d.Month() == previous {
			continue
		}
		previous = d.Month()
		for written < i*2 {
			b.WriteByte(' ')
			written++
		}
		label := d.Format("Jan")
		b.WriteString(label)
		written += len(label)
	}
	return b.String()
}

func cellRow(dates []time.Time, commitsByDate map[string]int) string {
	var b strings.Builder
	b.WriteString(graphIndent)
	for _, d := range dates {
		b.WriteString(cellGlyph(commitsByDate[d.Format(time.DateOnly)]))
		b.WriteByte(' ')
	}
	return b.String()
}

func cellGlyph(count int) string {
	switch {
	case count == 0:
		return "·"
	case count < 5:
		return "▪"
	case count < 10:
		return "▫"
	default:
		return "█"
	}
}

// TerminalWidth reports the width of the attached terminal, falling back to
// 80 columns when stdout is not a terminal.
func TerminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return defaultWidth
}
