// Package tui is a terminal front end for the settings form. It drives the
// same controller and document the web page contract describes.
package tui

import (
	"context"
	"html"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/microcosm-cc/bluemonday"

	"github.com/jetsetgo/sidekick-setup/internal/controller"
)

type focusArea int

const (
	focusUserName focusArea = iota
	focusSidekickName
	focusSave
	focusDefaults
	focusCount
)

// saveDoneMsg is sent when a save has been rendered into the overlay
type saveDoneMsg struct {
	result controller.SaveResult
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#667eea")).MarginBottom(1)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	buttonStyle  = lipgloss.NewStyle().Padding(0, 2).Background(lipgloss.Color("#e5e7eb")).Foreground(lipgloss.Color("#374151"))
	focusedStyle = buttonStyle.Background(lipgloss.Color("#667eea")).Foreground(lipgloss.Color("#ffffff"))
	overlayStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(1, 2).MarginTop(1)
	successStyle = overlayStyle.BorderForeground(lipgloss.Color("#22c55e"))
	errorStyle   = overlayStyle.BorderForeground(lipgloss.Color("#ef4444"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ca3af")).MarginTop(1)

	textOnly = bluemonday.StrictPolicy()
)

// Model is the bubbletea model for the settings form
type Model struct {
	ctx  context.Context
	doc  *controller.Document
	ctrl *controller.Controller

	inputs   [2]textinput.Model
	focus    focusArea
	inflight int
}

// New creates the model. The document must be the one ctrl was bound to.
func New(ctx context.Context, doc *controller.Document, ctrl *controller.Controller) Model {
	m := Model{ctx: ctx, doc: doc, ctrl: ctrl}

	for i, id := range []string{controller.UserNameID, controller.SidekickNameID} {
		ti := textinput.New()
		ti.CharLimit = 0 // names are unbounded
		ti.Width = 32
		ti.SetValue(doc.Input(id).Value())
		m.inputs[i] = ti
	}
	m.inputs[0].Focus()
	return m
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case saveDoneMsg:
		m.inflight--
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.ctrl.State() == controller.ShowingError {
			switch msg.String() {
			case "enter", "esc":
				if b := m.doc.Button(controller.DismissButtonID); b != nil {
					b.Click()
				}
			}
			return m, nil
		}

		switch msg.String() {
		case "esc":
			return m, tea.Quit
		case "tab", "down":
			m.setFocus((m.focus + 1) % focusCount)
			return m, nil
		case "shift+tab", "up":
			m.setFocus((m.focus + focusCount - 1) % focusCount)
			return m, nil
		case "ctrl+s":
			return m.save()
		case "ctrl+d":
			m.resetDefaults()
			return m, nil
		case "enter":
			switch m.focus {
			case focusSave:
				return m.save()
			case focusDefaults:
				m.resetDefaults()
				return m, nil
			default:
				m.setFocus(m.focus + 1)
				return m, nil
			}
		}
	}

	if m.focus == focusUserName || m.focus == focusSidekickName {
		var cmd tea.Cmd
		i := int(m.focus)
		m.inputs[i], cmd = m.inputs[i].Update(msg)
		m.syncToDocument()
		return m, cmd
	}
	return m, nil
}

func (m *Model) setFocus(f focusArea) {
	m.focus = f
	for i := range m.inputs {
		if focusArea(i) == f {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

func (m *Model) syncToDocument() {
	m.doc.Input(controller.UserNameID).SetValue(m.inputs[0].Value())
	m.doc.Input(controller.SidekickNameID).SetValue(m.inputs[1].Value())
}

func (m *Model) syncFromDocument() {
	m.inputs[0].SetValue(m.doc.Input(controller.UserNameID).Value())
	m.inputs[1].SetValue(m.doc.Input(controller.SidekickNameID).Value())
}

func (m *Model) resetDefaults() {
	m.doc.Button(controller.DefaultsButtonID).Click()
	m.syncFromDocument()
}

func (m Model) save() (tea.Model, tea.Cmd) {
	m.syncToDocument()
	m.inflight++
	ctrl, ctx := m.ctrl, m.ctx
	return m, func() tea.Msg {
		return saveDoneMsg{result: ctrl.Save(ctx)}
	}
}

// View implements tea.Model
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Sidekick Setup"))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Your name"))
	b.WriteString("\n")
	b.WriteString(m.inputs[0].View())
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render("Sidekick name"))
	b.WriteString("\n")
	b.WriteString(m.inputs[1].View())
	b.WriteString("\n\n")
	b.WriteString(m.button("Save", focusSave))
	b.WriteString(" ")
	b.WriteString(m.button("Defaults", focusDefaults))
	b.WriteString("\n")

	if m.inflight > 0 {
		b.WriteString(labelStyle.Render("Saving..."))
		b.WriteString("\n")
	}

	overlay := m.ctrl.Overlay()
	if overlay.Visible() {
		text := OverlayText(overlay.HTML())
		switch m.ctrl.State() {
		case controller.ShowingError:
			b.WriteString(errorStyle.Render(text + "\n\n" + focusedStyle.Render("OK")))
		default:
			b.WriteString(successStyle.Render(text))
		}
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("tab: next • enter: select • ctrl+s: save • ctrl+d: defaults • esc: quit"))
	return b.String()
}

func (m Model) button(label string, f focusArea) string {
	if m.focus == f {
		return focusedStyle.Render(label)
	}
	return buttonStyle.Render(label)
}

// OverlayText reduces overlay markup to its visible text, dropping controls
func OverlayText(markup string) string {
	// Controls are drawn separately
	if i := strings.Index(markup, "<button"); i >= 0 {
		markup = markup[:i]
	}
	return strings.TrimSpace(html.UnescapeString(textOnly.Sanitize(markup)))
}
