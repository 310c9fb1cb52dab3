package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Azzybana/astd/config"
	"github.com/Azzybana/astd/manifest"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	detailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type browseState int

const (
	stateBrowse browseState = iota
	stateFilter
	stateDetail
)

type browseModel struct {
	err      error
	cfg      config.Config
	man      *manifest.InterfaceManifest
	filter   textinput.Model
	selected int
	state    browseState
}

type extractedMsg struct {
	err error
	man *manifest.InterfaceManifest
}

func newBrowseModel(cfg config.Config) *browseModel {
	ti := textinput.New()
	ti.Placeholder = "filter"
	ti.Prompt = "/ "
	ti.Width = 32
	return &browseModel{cfg: cfg, filter: ti}
}

func (m *browseModel) Init() tea.Cmd {
	return m.extract
}

func (m *browseModel) extract() tea.Msg {
	man, err := extractManifest(m.cfg)
	return extractedMsg{err: err, man: man}
}

// visible returns the functions matching the current filter.
func (m *browseModel) visible() []manifest.FunctionSignature {
	if m.man == nil {
		return nil
	}
	needle := strings.ToLower(m.filter.Value())
	if needle == "" {
		return m.man.Functions
	}
	var out []manifest.FunctionSignature
	for _, fn := range m.man.Functions {
		if strings.Contains(strings.ToLower(fn.Name), needle) {
			out = append(out, fn)
		}
	}
	return out
}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.state == stateFilter {
			switch msg.String() {
			case "enter", "esc":
				m.state = stateBrowse
				m.filter.Blur()
				m.selected = 0
				return m, nil
			default:
				var cmd tea.Cmd
				m.filter, cmd = m.filter.Update(msg)
				m.selected = 0
				return m, cmd
			}
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.state == stateBrowse && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateBrowse && m.selected < len(m.visible())-1 {
				m.selected++
			}

		case "/":
			if m.state == stateBrowse {
				m.state = stateFilter
				m.filter.Focus()
			}

		case "enter":
			if m.state == stateBrowse && len(m.visible()) > 0 {
				m.state = stateDetail
			}

		case "esc":
			if m.state == stateDetail {
				m.state = stateBrowse
			}
		}

	case extractedMsg:
		m.err = msg.err
		m.man = msg.man
	}

	return m, nil
}

func (m *browseModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if m.man == nil {
		return "Extracting interface..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("astdgen"))
	b.WriteString(" ")
	b.WriteString(m.cfg.Header.Root)
	b.WriteString("\n\n")

	funcs := m.visible()

	switch m.state {
	case stateDetail:
		fn := funcs[m.selected]
		b.WriteString(funcStyle.Render(fn.Name))
		b.WriteString("\n\n")
		b.WriteString(detailStyle.Render(formatSignature(fn, m.man)))
		b.WriteString("\n\nParameters:\n")
		for _, p := range fn.Params {
			td, _ := m.man.Type(p.Type)
			b.WriteString(fmt.Sprintf("  %-16s %s  %s\n",
				p.Name, typeStyle.Render(p.Type),
				helpStyle.Render(fmt.Sprintf("%s, size=%d, %s", td.Class, td.Size, p.Ownership))))
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("esc back • q quit"))

	default:
		if m.state == stateFilter || m.filter.Value() != "" {
			b.WriteString(m.filter.View())
			b.WriteString("\n\n")
		}
		if len(funcs) == 0 {
			b.WriteString(helpStyle.Render("no matching functions"))
		}
		for i, fn := range funcs {
			line := m.formatLine(fn)
			if i == m.selected && m.state == stateBrowse {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter details • / filter • q quit"))
	}

	return b.String()
}

func (m *browseModel) formatLine(fn manifest.FunctionSignature) string {
	var params []string
	for _, p := range fn.Params {
		params = append(params, p.Name+": "+typeStyle.Render(p.Type))
	}
	ret := ""
	if fn.Return.Type != "" {
		ret = " -> " + typeStyle.Render(fn.Return.Type)
	}
	return funcStyle.Render(fn.Name) + "(" + strings.Join(params, ", ") + ")" + ret
}

func runInteractive(cfg config.Config) error {
	p := tea.NewProgram(newBrowseModel(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
