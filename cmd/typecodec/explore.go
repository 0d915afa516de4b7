package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/wippyai/typecodec/descriptor"
	"github.com/wippyai/typecodec/tree"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

func newExploreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "explore",
		Short: "Interactively convert values against schema types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := a.loadSchema()
			if err != nil {
				return err
			}
			var types []typeInfo
			for _, name := range doc.Names() {
				t, err := doc.Lookup(name)
				if err != nil {
					return err
				}
				if len(t.Params) == 0 {
					types = append(types, typeInfo{name: name, typ: t})
				}
			}
			_, err = tea.NewProgram(newExploreModel(a, types)).Run()
			return err
		},
	}
}

type typeInfo struct {
	typ  *descriptor.Type
	name string
}

type modelState int

const (
	stateSelectType modelState = iota
	stateInputValue
	stateShowResult
)

type exploreModel struct {
	app      *app
	err      error
	result   string
	problems []string
	types    []typeInfo
	input    textinput.Model
	selected int
	state    modelState
}

func newExploreModel(a *app, types []typeInfo) *exploreModel {
	return &exploreModel{app: a, types: types, state: stateSelectType}
}

type convertedMsg struct {
	err      error
	result   string
	problems []string
}

func (m *exploreModel) Init() tea.Cmd {
	return nil
}

func (m *exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state != stateInputValue {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectType && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectType && m.selected < len(m.types)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectType:
				if len(m.types) > 0 {
					m.prepareInput()
					m.state = stateInputValue
				}
				return m, nil

			case stateInputValue:
				return m, m.convertValue

			case stateShowResult:
				m.reset()
				return m, nil
			}

		case "esc":
			if m.state != stateSelectType {
				m.reset()
				return m, nil
			}
		}

	case convertedMsg:
		m.result = msg.result
		m.problems = msg.problems
		m.err = msg.err
		m.state = stateShowResult
		return m, nil
	}

	if m.state == stateInputValue {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *exploreModel) reset() {
	m.state = stateSelectType
	m.result = ""
	m.problems = nil
	m.err = nil
}

func (m *exploreModel) prepareInput() {
	ti := textinput.New()
	ti.Placeholder = "JSON " + m.types[m.selected].typ.Kind.String()
	ti.Prompt = "value: "
	ti.Width = 60
	ti.Focus()
	m.input = ti
}

func (m *exploreModel) convertValue() tea.Msg {
	v, err := tree.ParseJSON([]byte(m.input.Value()))
	if err != nil {
		return convertedMsg{err: err}
	}
	_, out, err := m.app.convert(m.types[m.selected].typ, v)
	if err != nil {
		return convertedMsg{problems: describeError(err)}
	}
	rendered, err := tree.RenderJSON(out, tree.RenderOptions{Indent: "  "})
	if err != nil {
		return convertedMsg{err: err}
	}
	return convertedMsg{result: strings.TrimSpace(string(rendered))}
}

func (m *exploreModel) View() string {
	if len(m.types) == 0 {
		return errorStyle.Render("The schema document has no concrete types.\n\nPress q to quit.")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("typecodec explore"))
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectType:
		b.WriteString("Select a type:\n\n")
		for i, t := range m.types {
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + t.name))
			} else {
				b.WriteString("  " + t.name)
			}
			b.WriteString("  " + typeStyle.Render(t.typ.Kind.String()))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter convert • q quit"))

	case stateInputValue:
		t := m.types[m.selected]
		b.WriteString(fmt.Sprintf("Converting to %s\n\n", nameStyle.Render(t.name)))
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter convert • esc back"))

	case stateShowResult:
		t := m.types[m.selected]
		b.WriteString(fmt.Sprintf("Result for %s:\n\n", nameStyle.Render(t.name)))
		switch {
		case m.err != nil:
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		case len(m.problems) > 0:
			b.WriteString(errorStyle.Render(strings.Join(m.problems, "\n")))
		default:
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}
