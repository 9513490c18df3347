// Package tui provides an interactive terminal form for scoring one
// transaction at a time.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/credit-risk-model/internal/model"
	"github.com/Veraticus/credit-risk-model/internal/tui/themes"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Scorer scores a single record.
type Scorer interface {
	ScoreOne(ctx context.Context, record model.Transaction) (model.Prediction, error)
}

// State represents the current state of the TUI.
type State int

const (
	StateEditing State = iota
	StateScoring
	StateResult
)

// Field indexes, in display order.
const (
	FieldAmount = iota
	FieldValue
	FieldProductCategory
	FieldChannelID
	FieldProviderID
	FieldCustomerID
	FieldStartTime
	fieldCount
)

var fieldLabels = [fieldCount]string{
	FieldAmount:          "Transaction Amount",
	FieldValue:           "Transaction Value",
	FieldProductCategory: "Product Category",
	FieldChannelID:       "Channel ID",
	FieldProviderID:      "Provider ID",
	FieldCustomerID:      "Customer ID",
	FieldStartTime:       "Transaction Start Time",
}

// errInvalidNumbers is shown when a submit is blocked by a numeric field.
var errInvalidNumbers = errors.New("invalid numeric input, please check 'Amount' and 'Value'")

// Model holds the form state.
type Model struct {
	ctx       context.Context
	scorer    Scorer
	scoredAt  time.Time
	err       error
	now       func() time.Time
	result    *model.Prediction
	theme     themes.Theme
	help      help.Model
	spinner   spinner.Model
	fieldErrs [fieldCount]string
	inputs    [fieldCount]textinput.Model
	keymap    KeyMap
	opts      Options
	submitted model.Transaction
	focus     int
	width     int
	state     State
}

// New creates a form bound to scorer. ctx bounds every scoring call.
func New(ctx context.Context, scorer Scorer, opts Options, theme themes.Theme) Model {
	m := Model{
		ctx:     ctx,
		scorer:  scorer,
		opts:    opts,
		theme:   theme,
		keymap:  DefaultKeyMap(),
		help:    help.New(),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		now:     time.Now,
	}
	m.spinner.Style = theme.Muted.Foreground(theme.Primary)

	for i := range m.inputs {
		in := textinput.New()
		in.Prompt = "› "
		in.CharLimit = 64
		in.Width = 32
		in.KeyMap.AcceptSuggestion = m.keymap.AcceptSuggestion
		m.inputs[i] = in
	}
	m.inputs[FieldAmount].Placeholder = "1000.0"
	m.inputs[FieldValue].Placeholder = "1000.0"
	m.inputs[FieldStartTime].Placeholder = "YYYY-MM-DD HH:MM:SS+00:00"

	m.setSuggestions(FieldProductCategory, opts.Categories)
	m.setSuggestions(FieldChannelID, opts.Channels)
	m.setSuggestions(FieldProviderID, opts.Providers)
	m.setSuggestions(FieldCustomerID, opts.Customers)

	m.reset()
	return m
}

func (m *Model) setSuggestions(field int, values []string) {
	if len(values) == 0 {
		return
	}
	m.inputs[field].SetSuggestions(values)
	m.inputs[field].ShowSuggestions = true
}

// reset restores the default values and focuses the first field.
func (m *Model) reset() {
	d := m.opts.Defaults
	values := [fieldCount]string{
		FieldAmount:          model.FormatFloat(d.Amount),
		FieldValue:           model.FormatFloat(d.Value),
		FieldProductCategory: d.ProductCategory,
		FieldChannelID:       d.ChannelID,
		FieldProviderID:      d.ProviderID,
		FieldCustomerID:      d.CustomerID,
		FieldStartTime:       d.StartTime,
	}
	for i := range m.inputs {
		m.inputs[i].SetValue(values[i])
		m.inputs[i].Blur()
		m.fieldErrs[i] = ""
	}
	m.focus = 0
	m.inputs[0].Focus()
	m.state = StateEditing
	m.result = nil
	m.err = nil
}

// Init starts the cursor blinking.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case scoredMsg:
		m.scoredAt = m.now()
		if msg.err != nil {
			m.err = fmt.Errorf("prediction failed: %w", msg.err)
			m.state = StateEditing
			return m, nil
		}
		pred := msg.prediction
		m.result = &pred
		m.err = nil
		m.state = StateResult
		return m, nil

	case spinner.TickMsg:
		if m.state != StateScoring {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateFocused(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keymap.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	switch m.state {
	case StateScoring:
		return m, nil
	case StateResult:
		if key.Matches(msg, m.keymap.Submit) || key.Matches(msg, m.keymap.Reset) {
			// Keep the submitted values for the next edit.
			m.state = StateEditing
			m.result = nil
			if key.Matches(msg, m.keymap.Reset) {
				m.reset()
			}
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keymap.Next):
		return m, m.moveFocus(1)
	case key.Matches(msg, m.keymap.Prev):
		return m, m.moveFocus(-1)
	case key.Matches(msg, m.keymap.Reset):
		m.reset()
		return m, textinput.Blink
	case key.Matches(msg, m.keymap.Submit):
		return m.submit()
	}
	return m.updateFocused(msg)
}

func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state != StateEditing {
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	m.validateField(m.focus)
	return m, cmd
}

func (m *Model) moveFocus(delta int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + fieldCount) % fieldCount
	return m.inputs[m.focus].Focus()
}

// validateField checks numeric fields as they are typed.
func (m *Model) validateField(field int) {
	if field != FieldAmount && field != FieldValue {
		return
	}
	m.fieldErrs[field] = ""
	raw := strings.TrimSpace(m.inputs[field].Value())
	v, err := strconv.ParseFloat(raw, 64)
	switch {
	case raw == "":
		m.fieldErrs[field] = "required"
	case err != nil:
		m.fieldErrs[field] = "not a number"
	case v < 0:
		m.fieldErrs[field] = "must be at least 0"
	}
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	m.validateField(FieldAmount)
	m.validateField(FieldValue)
	if m.fieldErrs[FieldAmount] != "" || m.fieldErrs[FieldValue] != "" {
		m.err = errInvalidNumbers
		return m, nil
	}

	amount, _ := strconv.ParseFloat(strings.TrimSpace(m.inputs[FieldAmount].Value()), 64)
	value, _ := strconv.ParseFloat(strings.TrimSpace(m.inputs[FieldValue].Value()), 64)
	record := model.Transaction{
		CustomerID:      strings.TrimSpace(m.inputs[FieldCustomerID].Value()),
		Amount:          amount,
		Value:           value,
		ProductCategory: strings.TrimSpace(m.inputs[FieldProductCategory].Value()),
		ChannelID:       strings.TrimSpace(m.inputs[FieldChannelID].Value()),
		ProviderID:      strings.TrimSpace(m.inputs[FieldProviderID].Value()),
		StartTime:       strings.TrimSpace(m.inputs[FieldStartTime].Value()),
	}

	m.err = nil
	m.submitted = record
	m.state = StateScoring
	return m, tea.Batch(m.spinner.Tick, m.score(record))
}

func (m Model) score(record model.Transaction) tea.Cmd {
	ctx, scorer := m.ctx, m.scorer
	return func() tea.Msg {
		pred, err := scorer.ScoreOne(ctx, record)
		return scoredMsg{prediction: pred, err: err}
	}
}

// State returns the current form state.
func (m Model) State() State {
	return m.state
}

// Result returns the last prediction, if the form is showing one.
func (m Model) Result() (model.Prediction, bool) {
	if m.result == nil {
		return model.Prediction{}, false
	}
	return *m.result, true
}
