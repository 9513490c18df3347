package tui

import (
	"fmt"
	"strings"

	"github.com/Veraticus/credit-risk-model/internal/model"
	"github.com/charmbracelet/lipgloss"
)

// View renders the form, the scoring spinner or the prediction summary.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("🔍 Credit Risk Prediction"))
	b.WriteString("\n")
	b.WriteString(m.theme.Subtitle.Render("Enter transaction details below to evaluate the customer's credit risk."))
	b.WriteString("\n")

	switch m.state {
	case StateResult:
		b.WriteString(m.resultView())
	case StateScoring:
		b.WriteString(m.formView())
		b.WriteString("\n" + m.spinner.View() + " Scoring risk...")
	default:
		b.WriteString(m.formView())
	}

	if m.err != nil {
		b.WriteString("\n\n" + m.theme.StatusError.Render("✗ "+m.err.Error()))
	}
	b.WriteString("\n\n" + m.help.View(m.keymap))
	return b.String()
}

func (m Model) formView() string {
	rows := make([]string, 0, fieldCount)
	for i, in := range m.inputs {
		label := m.theme.Label
		if i == m.focus && m.state == StateEditing {
			label = m.theme.FocusedLabel
		}
		row := label.Render(fieldLabels[i]) + in.View()
		if msg := m.fieldErrs[i]; msg != "" {
			row += "  " + m.theme.StatusError.Render(msg)
		}
		rows = append(rows, row)
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) resultView() string {
	p := m.result
	band := m.theme.Band(p.Band)

	var summary strings.Builder
	summary.WriteString(band.Render(fmt.Sprintf("%s Risk Customer", p.Band)))
	fmt.Fprintf(&summary, "\nThis customer has a %s probability of defaulting on credit.",
		m.theme.Bold.Render(fmt.Sprintf("%.2f%%", p.Probability*100)))
	fmt.Fprintf(&summary, "\nRisk probability: %.6f  (predicted label %d)", p.Probability, p.Label)

	sections := []string{m.theme.BandBox(p.Band).Render(summary.String())}

	if len(p.TopFeatures) > 0 {
		lines := []string{m.theme.Bold.Render("Top contributing features")}
		for _, c := range p.TopFeatures {
			lines = append(lines, fmt.Sprintf("- %s: contribution = %.4f", c.Feature, c.Value))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	sections = append(sections, m.inputDetails(p.Transaction))
	sections = append(sections, m.theme.Muted.Render(
		"Prediction generated at "+m.scoredAt.Format("2006-01-02 15:04:05")))
	return strings.Join(sections, "\n\n")
}

func (m Model) inputDetails(t model.Transaction) string {
	lines := []string{m.theme.Bold.Render("Input details")}
	for i, v := range t.Fields() {
		lines = append(lines, fmt.Sprintf("  %-22s %s", model.InputColumns[i], v))
	}
	return strings.Join(lines, "\n")
}
