// Package console is the operator's terminal view: account rows, wallet holdings and logs.
package console

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tmc-solana/lytra/internal/broadcast"
	"github.com/tmc-solana/lytra/internal/signal"
)

const (
	renderTick = 100 * time.Millisecond
	maxAlerts  = 5
	logLines   = 8
)

// Sources is everything the console reads from and the one command it sends.
type Sources struct {
	Users  *broadcast.Latest[[]signal.UserInfo]
	Wallet *broadcast.Latest[signal.WalletInfo]
	Alerts <-chan string
	Logs   interface{ Tail(n int) []string }
	Sell   func(asset string, amount float64) bool
}

type keyMap struct {
	Quit    key.Binding
	Up      key.Binding
	Down    key.Binding
	Sell    key.Binding
	Confirm key.Binding
	Cancel  key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓", "down")),
		Sell:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sell selected")),
		Confirm: key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "confirm")),
		Cancel:  key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "cancel")),
	}
}

type tickMsg time.Time

type sellQueuedMsg struct {
	symbol string
	ok     bool
}

// Model is the bubbletea model behind the console.
type Model struct {
	src      Sources
	keys     keyMap
	styles   styles
	spinner  spinner.Model
	users    []signal.UserInfo
	wallet   signal.WalletInfo
	selected int
	confirm  bool
	alerts   []string
	logs     []string
	width    int
}

func New(src Sources) Model {
	return Model{
		src:    src,
		keys:   newKeyMap(),
		styles: newStyles(),
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
		),
	}
}

func tick() tea.Cmd {
	return tea.Tick(renderTick, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(), m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.refresh()
		return m, tick()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case sellQueuedMsg:
		if msg.ok {
			m.pushAlert(fmt.Sprintf("Sell of %s queued", msg.symbol))
		} else {
			m.pushAlert(fmt.Sprintf("Sell of %s refused, monitor busy or stopped", msg.symbol))
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.wallet.Holdings)-1 {
			m.selected++
		}
	case key.Matches(msg, m.keys.Sell):
		if len(m.wallet.Holdings) > 0 {
			m.confirm = true
		}
	case key.Matches(msg, m.keys.Confirm):
		if !m.confirm {
			return m, nil
		}
		m.confirm = false
		if m.selected >= len(m.wallet.Holdings) || m.src.Sell == nil {
			return m, nil
		}
		h := m.wallet.Holdings[m.selected]
		sell := m.src.Sell
		return m, func() tea.Msg {
			return sellQueuedMsg{symbol: h.Symbol, ok: sell(h.Mint, h.Amount)}
		}
	case key.Matches(msg, m.keys.Cancel):
		m.confirm = false
	}
	return m, nil
}

// refresh pulls whatever the producers published since the last tick.
func (m *Model) refresh() {
	if m.src.Users != nil {
		if rows, ok := m.src.Users.Poll(); ok {
			m.users = rows
		}
	}
	if m.src.Wallet != nil {
		if w, ok := m.src.Wallet.Poll(); ok {
			m.wallet = w
			if m.selected >= len(w.Holdings) {
				m.selected = max(0, len(w.Holdings)-1)
			}
		}
	}
	for drained := false; !drained && m.src.Alerts != nil; {
		select {
		case a := <-m.src.Alerts:
			m.pushAlert(a)
		default:
			drained = true
		}
	}
	if m.src.Logs != nil {
		m.logs = m.src.Logs.Tail(logLines)
	}
}

func (m *Model) pushAlert(a string) {
	m.alerts = append(m.alerts, time.Now().Format("15:04:05")+" "+a)
	if len(m.alerts) > maxAlerts {
		m.alerts = m.alerts[len(m.alerts)-maxAlerts:]
	}
}

// Run shows the console until the operator quits or ctx is cancelled.
func Run(ctx context.Context, src Sources) error {
	p := tea.NewProgram(New(src), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && (ctx.Err() != nil || errors.Is(err, tea.ErrProgramKilled)) {
		return nil
	}
	return err
}
