package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/psdltools/scenograph/pkg/outline"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// OutlineBrowserModel - Interactive outline inspection
// =============================================================================

// outlineEntry is one row in the browser: a signal, trend, or logic rule.
type outlineEntry struct {
	Kind      string
	Name      string
	Expr      string
	Severity  string
	DependsOn []string
	UsedBy    []string
}

// OutlineBrowserModel is the bubbletea model for stepping through an
// outline's entities.
type OutlineBrowserModel struct {
	Scenario string
	Entries  []outlineEntry
	Cursor   int
	ShowDeps bool
	Height   int
	Offset   int
}

// NewOutlineBrowserModel creates a browser over all entities of an outline
// in declaration order.
func NewOutlineBrowserModel(o outline.Outline) OutlineBrowserModel {
	entries := make([]outlineEntry, 0, len(o.Signals)+len(o.Trends)+len(o.Logic))
	for _, s := range o.Signals {
		entries = append(entries, outlineEntry{
			Kind:   "signal",
			Name:   s.Name,
			Expr:   s.Source,
			UsedBy: s.UsedBy,
		})
	}
	for _, t := range o.Trends {
		entries = append(entries, outlineEntry{
			Kind:      "trend",
			Name:      t.Name,
			Expr:      t.Expr,
			DependsOn: t.DependsOn,
			UsedBy:    t.UsedBy,
		})
	}
	for _, l := range o.Logic {
		entries = append(entries, outlineEntry{
			Kind:      "logic",
			Name:      l.Name,
			Expr:      l.Expr,
			Severity:  l.Severity,
			DependsOn: l.DependsOn,
		})
	}
	return OutlineBrowserModel{
		Scenario: o.Scenario,
		Entries:  entries,
		Height:   15,
	}
}

func (m OutlineBrowserModel) Init() tea.Cmd {
	return nil
}

func (m OutlineBrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Entries)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter", "d":
			m.ShowDeps = !m.ShowDeps
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 8
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m OutlineBrowserModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Outline: " + m.Scenario))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ toggle deps  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Entries) {
		end = len(m.Entries)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		e := m.Entries[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		expr := e.Expr
		if expr == "" {
			expr = "-"
		}
		severity := e.Severity
		if severity == "" {
			severity = "-"
		}
		rows = append(rows, []string{cursor, e.Kind, e.Name, expr, severity})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Kind", "Name", "Expr", "Severity").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			actualIdx := m.Offset + row
			if actualIdx >= len(m.Entries) {
				return lipgloss.NewStyle()
			}
			if actualIdx == m.Cursor {
				return listSelectedStyle
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n")

	if m.ShowDeps && m.Cursor < len(m.Entries) {
		e := m.Entries[m.Cursor]
		b.WriteString("\n")
		b.WriteString(StyleHighlight.Render(e.Name))
		b.WriteString("\n")
		b.WriteString(listDimStyle.Render("  depends_on: " + joinOrDash(e.DependsOn)))
		b.WriteString("\n")
		b.WriteString(listDimStyle.Render("  used_by:    " + joinOrDash(e.UsedBy)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Entries))))

	return b.String()
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
