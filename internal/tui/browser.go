package tui

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"adb-commander/internal/adb"
	"adb-commander/internal/browser"
	"adb-commander/internal/events"
	"adb-commander/internal/transfer"
)

// rowItem adapts a presenter row to the bubbles list.
type rowItem struct {
	row browser.Row
}

func (r rowItem) Title() string {
	indent := strings.Repeat("  ", r.row.Depth)
	e := r.row.Entry
	switch e.Kind {
	case adb.KindDirectory:
		marker := "▸"
		if r.row.Expanded {
			marker = "▾"
		}
		return fmt.Sprintf("%s%s %s/", indent, marker, e.Name)
	case adb.KindSymlink:
		return fmt.Sprintf("%s  %s -> %s", indent, e.Name, e.LinkTarget)
	default:
		return fmt.Sprintf("%s  %s  (%s)", indent, e.Name, humanize.Bytes(uint64(e.Size)))
	}
}

func (r rowItem) Description() string { return "" }
func (r rowItem) FilterValue() string { return r.row.Entry.Name }

type listingMsg struct{ err error }

type progressMsg transfer.Progress

type doneMsg transfer.Result

type statusMsg string

type jobStartedMsg struct {
	job  *transfer.Job
	desc string
}

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8be9fd")).Bold(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#f1fa8c"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5555"))
)

// linkResolver resolves symlink rows so enter can follow directory links.
type linkResolver interface {
	ReadLink(ctx context.Context, serial, linkPath string) (string, error)
	IsDir(ctx context.Context, serial, remotePath string) bool
}

// BrowserModel is the interactive remote file browser. Navigation and
// transfers run as commands so the UI never blocks on adb.
type BrowserModel struct {
	presenter *browser.Presenter
	coord     *transfer.Coordinator
	links     linkResolver

	list  list.Model
	bar   progress.Model
	input textinput.Model

	localDir  string
	pushMode  bool
	status    string
	lastError string

	job     *transfer.Job
	jobDesc string
	percent float64

	width  int
	height int
}

// NewBrowserModel builds the browser over an already-navigated presenter.
func NewBrowserModel(p *browser.Presenter, coord *transfer.Coordinator, links linkResolver, localDir string) *BrowserModel {
	l := list.New(nil, newCompactDelegate(), 60, 20)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.SetShowStatusBar(false)
	l.SetShowTitle(false)

	in := textinput.New()
	in.Placeholder = "local file to push"
	in.CharLimit = 512

	m := &BrowserModel{
		presenter: p,
		coord:     coord,
		links:     links,
		list:      l,
		bar:       progress.New(progress.WithDefaultGradient()),
		input:     in,
		localDir:  localDir,
	}
	m.reloadRows()
	return m
}

func (m *BrowserModel) Init() tea.Cmd { return nil }

// reloadRows syncs the visible list with the presenter's current rows.
func (m *BrowserModel) reloadRows() {
	rows := m.presenter.Rows()
	items := make([]list.Item, 0, len(rows))
	for _, r := range rows {
		items = append(items, rowItem{row: r})
	}
	m.list.SetItems(items)
	if m.list.Index() >= len(items) && len(items) > 0 {
		m.list.Select(len(items) - 1)
	}
}

func (m *BrowserModel) selectedRow() (browser.Row, bool) {
	itm := m.list.SelectedItem()
	if itm == nil {
		return browser.Row{}, false
	}
	return itm.(rowItem).row, true
}

func (m *BrowserModel) navigateCmd(fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return listingMsg{err: fn(ctx)}
	}
}

// followLink resolves a symlink and navigates into it when the target is
// a directory.
func (m *BrowserModel) followLink(row browser.Row) tea.Cmd {
	serial := m.presenter.Serial()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		target, err := m.links.ReadLink(ctx, serial, row.Entry.Path)
		if err != nil {
			return listingMsg{err: err}
		}
		if !path.IsAbs(target) {
			target = path.Join(path.Dir(row.Entry.Path), target)
		}
		if !m.links.IsDir(ctx, serial, target) {
			return statusMsg(fmt.Sprintf("%s is not a directory", target))
		}
		return listingMsg{err: m.presenter.Navigate(ctx, target)}
	}
}

func (m *BrowserModel) startPull(row browser.Row) tea.Cmd {
	remote := row.Entry.Path
	local := filepath.Join(m.localDir, row.Entry.Name)
	serial := m.presenter.Serial()
	return func() tea.Msg {
		job, err := m.coord.Pull(context.Background(), serial, remote, local)
		if err != nil {
			return statusMsg(errorStyle.Render(fmt.Sprintf("pull failed: %v", err)))
		}
		return jobStartedMsg{job: job, desc: fmt.Sprintf("pull %s -> %s", remote, local)}
	}
}

func (m *BrowserModel) startPush(localPath string) tea.Cmd {
	remote := m.presenter.Path()
	serial := m.presenter.Serial()
	return func() tea.Msg {
		job, err := m.coord.Push(context.Background(), serial, localPath, path.Join(remote, filepath.Base(localPath)))
		if err != nil {
			return statusMsg(errorStyle.Render(fmt.Sprintf("push failed: %v", err)))
		}
		return jobStartedMsg{job: job, desc: fmt.Sprintf("push %s -> %s", localPath, remote)}
	}
}

func (m *BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(msg.Width-2, msg.Height-6)
		m.bar.Width = msg.Width - 10
		return m, nil

	case listingMsg:
		if msg.err != nil {
			m.lastError = msg.err.Error()
		} else {
			m.lastError = ""
		}
		m.reloadRows()
		return m, nil

	case progressMsg:
		if m.job != nil && msg.JobID == m.job.ID {
			if msg.Total > 0 {
				m.percent = float64(msg.Bytes) / float64(msg.Total)
			}
		}
		return m, nil

	case doneMsg:
		if m.job != nil && msg.JobID == m.job.ID {
			switch msg.State {
			case transfer.StateCompleted:
				m.status = fmt.Sprintf("done: %s (%s)", m.jobDesc, humanize.Bytes(uint64(msg.Bytes)))
				m.percent = 1
			case transfer.StateCancelled:
				m.status = "cancelled: " + m.jobDesc
			default:
				m.status = errorStyle.Render(fmt.Sprintf("failed: %s: %v", m.jobDesc, msg.Err))
			}
			m.job = nil
			if msg.Direction == transfer.DirectionPush {
				return m, m.navigateCmd(m.presenter.Refresh)
			}
		}
		return m, nil

	case jobStartedMsg:
		m.job = msg.job
		m.jobDesc = msg.desc
		m.status = msg.desc
		return m, nil

	case statusMsg:
		m.status = string(msg)
		return m, nil

	case tea.KeyMsg:
		if m.pushMode {
			switch msg.String() {
			case "enter":
				m.pushMode = false
				src := strings.TrimSpace(m.input.Value())
				m.input.Blur()
				if src == "" {
					return m, nil
				}
				m.percent = 0
				return m, m.startPush(src)
			case "esc":
				m.pushMode = false
				m.input.Blur()
				return m, nil
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			m.list.CursorUp()
			return m, nil
		case "down", "j":
			m.list.CursorDown()
			return m, nil
		case "enter":
			row, ok := m.selectedRow()
			if !ok {
				return m, nil
			}
			if row.Entry.Kind == adb.KindSymlink && m.links != nil {
				return m, m.followLink(row)
			}
			if !row.Entry.IsDir() {
				return m, nil
			}
			return m, m.navigateCmd(func(ctx context.Context) error {
				return m.presenter.Navigate(ctx, row.Entry.Path)
			})
		case "tab", " ":
			row, ok := m.selectedRow()
			if !ok || !row.Entry.IsDir() {
				return m, nil
			}
			if m.presenter.IsExpanded(row.Entry.Path) {
				m.presenter.Collapse(row.Entry.Path)
				m.reloadRows()
				return m, nil
			}
			return m, m.navigateCmd(func(ctx context.Context) error {
				return m.presenter.Expand(ctx, row.Entry)
			})
		case "backspace", "left", "h":
			return m, m.navigateCmd(m.presenter.Up)
		case "r":
			return m, m.navigateCmd(m.presenter.Refresh)
		case "p":
			row, ok := m.selectedRow()
			if !ok || row.Entry.IsDir() {
				m.status = "select a file to pull"
				return m, nil
			}
			m.percent = 0
			return m, m.startPull(row)
		case "u":
			m.pushMode = true
			m.input.SetValue("")
			m.input.Focus()
			return m, textinput.Blink
		case "c":
			if m.job != nil {
				m.job.Cancel()
				m.status = "cancel requested"
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *BrowserModel) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("📱 %s  %s", m.presenter.Serial(), m.presenter.Path())))
	b.WriteString("\n")
	if m.lastError != "" {
		b.WriteString(errorStyle.Render("⚠️  " + m.lastError))
		b.WriteString("\n")
	}
	b.WriteString(m.list.View())
	b.WriteString("\n")
	if m.pushMode {
		b.WriteString("push: " + m.input.View())
		b.WriteString("\n")
	}
	if m.job != nil {
		b.WriteString(m.bar.ViewAs(m.percent))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString("enter:open  tab:expand  backspace:up  p:pull  u:push  c:cancel  r:refresh  q:quit")
	return b.String()
}

// Browse runs the file browser for one device until the user quits.
// Transfer events published on the global bus are forwarded into the
// program so the progress bar tracks background jobs.
func Browse(client *adb.Client, coord *transfer.Coordinator, serial, startPath, localDir string) error {
	p := browser.NewPresenter(client, serial, startPath)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err := p.Navigate(ctx, startPath)
	cancel()
	if err != nil {
		return err
	}

	m := NewBrowserModel(p, coord, client, localDir)
	prog := tea.NewProgram(m, tea.WithAltScreen())

	onProgress := func(u transfer.Progress) { prog.Send(progressMsg(u)) }
	onDone := func(r transfer.Result) { prog.Send(doneMsg(r)) }
	_ = events.GlobalBus.Subscribe(events.EventTransferProgress, onProgress)
	_ = events.GlobalBus.Subscribe(events.EventTransferDone, onDone)
	defer func() {
		_ = events.GlobalBus.Unsubscribe(events.EventTransferProgress, onProgress)
		_ = events.GlobalBus.Unsubscribe(events.EventTransferDone, onDone)
	}()

	_, err = prog.Run()
	return err
}
