package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tmc-solana/lytra/internal/signal"
)

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.title.Render("lytra"))
	b.WriteString("\n\n")
	b.WriteString(m.styles.panel.Render(m.accountsView()))
	b.WriteString("\n")
	b.WriteString(m.styles.panel.Render(m.walletView()))
	b.WriteString("\n")
	if m.confirm && m.selected < len(m.wallet.Holdings) {
		h := m.wallet.Holdings[m.selected]
		b.WriteString(m.styles.prompt.Render(fmt.Sprintf("Sell %g %s? (y/n)", h.Amount, h.Symbol)))
		b.WriteString("\n")
	}
	for _, a := range m.alerts {
		b.WriteString(m.styles.prompt.Render(a))
		b.WriteString("\n")
	}
	if len(m.logs) > 0 {
		b.WriteString(m.styles.panel.Render(m.styles.faint.Render(strings.Join(m.logs, "\n"))))
		b.WriteString("\n")
	}
	b.WriteString(m.styles.faint.Render("q quit • ↑/↓ select • s sell"))
	return b.String()
}

func (m Model) accountsView() string {
	rows := [][]string{{"#", "Username", "Last Tweet", "Status"}}
	for i, u := range m.users {
		rows = append(rows, []string{fmt.Sprint(i + 1), "@" + u.Username, truncate(u.LastPost, 48), u.Status})
	}
	widths := columnWidths(rows)

	var lines []string
	for i, r := range rows {
		if i == 0 {
			lines = append(lines, m.styles.header.Render(pad(r, widths)))
			continue
		}
		line := pad(r[:3], widths[:3]) + "  " + m.statusStyle(m.users[i-1].Status)
		lines = append(lines, line)
	}
	if len(m.users) == 0 {
		lines = append(lines, m.styles.faint.Render("no accounts yet"))
	}
	return strings.Join(lines, "\n")
}

func (m Model) statusStyle(status string) string {
	switch {
	case status == signal.StatusInitializing:
		return m.spinner.View() + " " + status
	case strings.HasPrefix(status, "Found") || strings.HasPrefix(status, "Selling"):
		return m.styles.found.Render(status)
	case status == signal.StatusError || status == signal.StatusSessionLost || strings.Contains(status, "failed"):
		return m.styles.failure.Render(status)
	default:
		return m.styles.cell.Render(status)
	}
}

func (m Model) walletView() string {
	w := m.wallet
	if w.Pubkey == "" {
		return m.styles.faint.Render("wallet not loaded")
	}
	head := fmt.Sprintf("Wallet %s  SOL %.4f  updated %s", w.Pubkey, w.SOL, w.Updated.Format("15:04:05"))
	lines := []string{m.styles.header.Render(head)}
	if len(w.Holdings) == 0 {
		lines = append(lines, m.styles.faint.Render("no tokens held"))
		return strings.Join(lines, "\n")
	}
	rows := [][]string{{"Token", "Amount", "Cost", "Worth", "P/L %"}}
	for _, h := range w.Holdings {
		rows = append(rows, []string{h.Symbol, fmt.Sprintf("%.2f", h.Amount), fmt.Sprintf("%.5f", h.CostSOL), fmt.Sprintf("%.5f", h.WorthSOL), fmt.Sprintf("%.2f", h.GainPct)})
	}
	widths := columnWidths(rows)
	lines = append(lines, m.styles.header.Render(pad(rows[0], widths)))
	for i, r := range rows[1:] {
		line := pad(r, widths)
		switch {
		case i == m.selected:
			line = m.styles.selected.Render(line)
		case w.Holdings[i].GainPct >= 0:
			line = m.styles.gain.Render(line)
		default:
			line = m.styles.loss.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func columnWidths(rows [][]string) []int {
	widths := make([]int, len(rows[0]))
	for _, r := range rows {
		for i, c := range r {
			widths[i] = max(widths[i], lipgloss.Width(c))
		}
	}
	return widths
}

func pad(cells []string, widths []int) string {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = c + strings.Repeat(" ", widths[i]-lipgloss.Width(c))
	}
	return strings.Join(parts, "  ")
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
