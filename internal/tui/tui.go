package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"adb-commander/internal/util"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

type menuItem string

func (m menuItem) Title() string       { return string(m) }
func (m menuItem) Description() string { return "" }
func (m menuItem) FilterValue() string { return string(m) }

type menuModel struct {
	list   list.Model
	choice string

	logMu    sync.Mutex
	logLines []string
}

// message type used to transport printed strings into Bubble Tea update loop
type printMsg string

// ShowMenuWithPrints runs the menu program while subscribing to util.PrintChan so
// printed messages are delivered into the TUI model. It restores any previous
// print channel on exit. Cancelling ctx quits the menu, releasing stdin
// before the caller moves on.
func ShowMenuWithPrints(ctx context.Context, items []string, title string) (string, error) {
	ch := make(chan string, 256)
	prevCh := util.PrintChan
	util.SetPrintChannel(ch)

	m := NewMenu(items, title)
	p := tea.NewProgram(m)

	done := make(chan struct{})
	go func() {
		for s := range ch {
			// strip the clear sequences SafePrinter uses before display
			sClean := strings.ReplaceAll(s, "\r\x1b[K", "")
			sClean = strings.ReplaceAll(sClean, "\x1b[2J\x1b[1;1H", "")

			for _, part := range strings.Split(sClean, "\n") {
				line := strings.TrimSpace(part)
				if line == "" {
					continue
				}
				p.Send(printMsg(line + "\n"))
			}
		}
		close(done)
	}()

	finished := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			p.Quit()
		case <-finished:
		}
	}()

	_, err := p.Run()
	close(finished)
	util.SetPrintChannel(prevCh)
	close(ch)
	<-done
	if err != nil {
		return "", err
	}
	return m.choice, nil
}

func (m *menuModel) Init() tea.Cmd { return nil }

func (m *menuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case printMsg:
		m.logMu.Lock()
		m.logLines = append(m.logLines, string(msg))
		// keep last 200 lines to avoid unbounded memory
		if len(m.logLines) > 200 {
			m.logLines = m.logLines[len(m.logLines)-200:]
		}
		m.logMu.Unlock()
		return m, nil
	case tea.KeyMsg:
		// explicit cursor movement so up/down work with the compact delegate
		switch msg.String() {
		case "enter":
			if itm := m.list.SelectedItem(); itm != nil {
				m.choice = itm.(menuItem).Title()
			}
			return m, tea.Quit
		case "esc", "q":
			m.choice = "cancelled"
			return m, tea.Quit
		case "up", "k":
			m.list.CursorUp()
			return m, nil
		case "down", "j":
			m.list.CursorDown()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *menuModel) View() string {
	if m.choice != "" {
		return fmt.Sprintf("Selected: %s\n", m.choice)
	}
	menuView := m.list.View()
	m.logMu.Lock()
	defer m.logMu.Unlock()
	n := len(m.logLines)
	start := 0
	if n > 8 {
		start = n - 8
	}
	logBlock := ""
	for _, l := range m.logLines[start:] {
		logBlock += l
		if len(l) == 0 || l[len(l)-1] != '\n' {
			logBlock += "\n"
		}
	}
	if logBlock != "" {
		return menuView + "\n--- recent ---\n" + logBlock
	}
	return menuView
}

// ShowMenu blocks and returns the selected item (or "cancelled")
func ShowMenu(items []string, title string) (string, error) {
	m := NewMenu(items, title)
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return "", err
	}
	return m.choice, nil
}
