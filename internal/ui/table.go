package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Table renders rows under headers with a rounded border in the palette's help color.
func (p *Palette) Table(headers []string, rows [][]string) string {
	header := p.title.Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(p.frame)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	return t.Render()
}

// KeyValue renders label/value pairs one per line with aligned labels.
func (p *Palette) KeyValue(pairs [][2]string) string {
	width := 0
	for _, kv := range pairs {
		width = max(width, lipgloss.Width(kv[0]))
	}

	label := p.help.Width(width + 2)
	lines := make([]string, 0, len(pairs))
	for _, kv := range pairs {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, label.Render(kv[0]+":"), kv[1]))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
