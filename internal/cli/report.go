package cli

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/credit-risk-model/internal/dataset"
	"github.com/Veraticus/credit-risk-model/internal/evaluation"
	"github.com/Veraticus/credit-risk-model/internal/model"
	"github.com/charmbracelet/lipgloss"
)

func metric(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", v)
}

// RenderEvaluation shows the metrics of a training run and where they were
// measured.
func RenderEvaluation(r evaluation.Report, evaluatedOn string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Evaluated on: %s (%d samples)\n\n", evaluatedOn, r.Samples)
	fmt.Fprintf(&b, "  • ROC-AUC:   %s\n", metric(r.AUC))
	fmt.Fprintf(&b, "  • F1:        %s\n", metric(r.F1))
	fmt.Fprintf(&b, "  • Accuracy:  %s\n", metric(r.Accuracy))
	fmt.Fprintf(&b, "  • Precision: %s\n", metric(r.Precision))
	fmt.Fprintf(&b, "  • Recall:    %s\n", metric(r.Recall))
	fmt.Fprintf(&b, "  • Log loss:  %s\n\n", metric(r.LogLoss))
	b.WriteString(SubtleStyle.Render(r.Confusion.String()))
	return RenderBox(ChartIcon+" Model Evaluation", b.String())
}

// RenderCleanReport summarizes what cleaning changed.
func RenderCleanReport(r dataset.CleanReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  • Rows: %d → %d\n", r.RowsIn, r.RowsOut)
	fmt.Fprintf(&b, "  • Duplicates dropped: %d\n", r.DuplicatesDropped)
	fmt.Fprintf(&b, "  • Invalid timestamps: %d\n", r.InvalidTimestamps)

	for _, name := range sortedKeys(r.CategoricalFills) {
		if n := r.CategoricalFills[name]; n > 0 {
			fmt.Fprintf(&b, "  • %s filled with Unknown: %d\n", name, n)
		}
	}
	for _, name := range sortedKeys(r.Caps) {
		bounds := r.Caps[name]
		fmt.Fprintf(&b, "  • %s median %.2f, capped to [%.2f, %.2f] (%d values)\n",
			name, r.Medians[name], bounds.Lower, bounds.Upper, r.CappedValues[name])
	}
	if r.FraudResultFills > 0 {
		fmt.Fprintf(&b, "  • FraudResult filled with %s: %d\n", r.FraudResultMode, r.FraudResultFills)
	}
	return RenderBox(FolderIcon+" Cleaning Summary", strings.TrimRight(b.String(), "\n"))
}

// RenderPrediction shows one scored record with its strongest features.
func RenderPrediction(p model.Prediction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Customer:    %s\n", p.Transaction.CustomerID)
	fmt.Fprintf(&b, "Probability: %.4f\n", p.Probability)
	fmt.Fprintf(&b, "Label:       %d\n", p.Label)
	fmt.Fprintf(&b, "Risk band:   %s", BandStyle(p.Band).Render(string(p.Band)))
	if len(p.TopFeatures) > 0 {
		b.WriteString("\n\nTop contributing features:")
		for _, c := range p.TopFeatures {
			direction := SuccessStyle.Render("lowers risk")
			if c.Value > 0 {
				direction = ErrorStyle.Render("raises risk")
			}
			fmt.Fprintf(&b, "\n  • %s %+.4f (%s)", c.Feature, c.Value, direction)
		}
	}
	return RenderBox("Credit Risk Prediction", b.String())
}

// RenderRuns lays out registry entries as a table, newest first.
func RenderRuns(runs []model.TrainingRun) string {
	if len(runs) == 0 {
		return FormatInfo("No training runs recorded yet")
	}
	header := []string{"ID", "Started", "Duration", "Customers", "High risk", "ROC-AUC", "F1"}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			shortID(r.ID),
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.Duration().Round(time.Millisecond).String(),
			fmt.Sprintf("%d", r.Customers),
			fmt.Sprintf("%d", r.HighRisk),
			metricOf(r.Metrics, "roc_auc"),
			metricOf(r.Metrics, "f1"),
		})
	}
	return renderTable(header, rows)
}

func renderTable(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	line := func(cells []string, style lipgloss.Style) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = TableCellStyle.Render(style.Width(widths[i]).Render(cell))
		}
		return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	}

	lines := []string{TableHeaderStyle.Render(line(header, lipgloss.NewStyle()))}
	for _, row := range rows {
		lines = append(lines, line(row, lipgloss.NewStyle()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func metricOf(m map[string]float64, name string) string {
	v, ok := m[name]
	if !ok {
		return "n/a"
	}
	return metric(v)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
