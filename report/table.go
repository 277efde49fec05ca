package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"OnnxRocEval/roc"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorTeal  = lipgloss.Color("#019EA9")
	colorMuted = lipgloss.Color("#2C4A54")
	colorWarn  = lipgloss.Color("#F4D03F")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorTeal)
	headerStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	warnStyle   = lipgloss.NewStyle().Foreground(colorWarn)
	boxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorTeal).
			Padding(0, 1)
)

func pad(s string, w int) string {
	return s + strings.Repeat(" ", max(0, w-lipgloss.Width(s)))
}

func labelWidth(labels []string) int {
	width := len("class")
	for _, l := range labels {
		width = max(width, lipgloss.Width(l))
	}
	return width
}

// Table renders per-class AUCs as a boxed terminal table.
func Table(curves []roc.Curve, macro float64) string {
	labels := make([]string, len(curves))
	for i, c := range curves {
		labels[i] = c.Label
	}
	width := labelWidth(labels)

	lines := []string{
		titleStyle.Render("ROC AUC per class"),
		headerStyle.Render(pad("class", width) + "   images      AUC"),
	}
	for _, c := range curves {
		auc := fmt.Sprintf("%8.4f", c.AUC)
		style := lipgloss.NewStyle()
		if !c.Defined() {
			auc = fmt.Sprintf("%8s", "n/a")
			style = warnStyle
		}
		lines = append(lines, style.Render(fmt.Sprintf("%s   %6d %s", pad(c.Label, width), c.Positives, auc)))
	}
	footer := fmt.Sprintf("%8s", "n/a")
	if !math.IsNaN(macro) {
		footer = fmt.Sprintf("%8.4f", macro)
	}
	lines = append(lines, mutedStyle.Render(fmt.Sprintf("%s   %6s %s", pad("macro", width), "", footer)))
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func PrintTable(w io.Writer, curves []roc.Curve, macro float64) {
	fmt.Fprintln(w, Table(curves, macro))
}

// ClassTable renders the class order and image counts of a validation
// set. Empty classes are highlighted.
func ClassTable(labels []string, counts []int) string {
	width := labelWidth(labels)
	lines := []string{
		titleStyle.Render("Validation classes"),
		headerStyle.Render(fmt.Sprintf("%5s   %s   %6s", "index", pad("class", width), "images")),
	}
	total := 0
	for i, l := range labels {
		style := lipgloss.NewStyle()
		if counts[i] == 0 {
			style = warnStyle
		}
		total += counts[i]
		lines = append(lines, style.Render(fmt.Sprintf("%5d   %s   %6d", i, pad(l, width), counts[i])))
	}
	lines = append(lines, mutedStyle.Render(fmt.Sprintf("%5s   %s   %6d", "", pad("total", width), total)))
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func PrintClassTable(w io.Writer, labels []string, counts []int) {
	fmt.Fprintln(w, ClassTable(labels, counts))
}
