package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// adminModel is the admin panel: create, upload into, process, and delete
// categories. Long operations run in a command; only one is in flight at a
// time, matching the one-writer-per-category model.
type adminModel struct {
	app      *App
	input    textinput.Model
	viewport viewport.Model
	spin     spinner.Model
	rows     []categoryRow
	status   string
	busy     bool
	ready    bool
}

type categoryRow struct {
	name      string
	files     int
	processed bool
	stale     bool
}

type adminRefreshMsg struct {
	rows []categoryRow
	err  error
}

type adminOpDoneMsg struct {
	summary string
	err     error
}

func newAdminModel(a *App) adminModel {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "create <name> | upload <name> <pdf...> | process <name> | delete <name>"
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return adminModel{
		app:      a,
		input:    ti,
		viewport: viewport.New(0, 0),
		spin:     sp,
		status:   "Admin panel ready.",
	}
}

func (m adminModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.refreshCmd())
}

func (m adminModel) refreshCmd() tea.Cmd {
	a := m.app
	return func() tea.Msg {
		names, err := a.store.List()
		if err != nil {
			return adminRefreshMsg{err: err}
		}
		processed := make(map[string]bool)
		procNames, err := a.store.Processed()
		if err != nil {
			return adminRefreshMsg{err: err}
		}
		for _, n := range procNames {
			processed[n] = true
		}

		rows := make([]categoryRow, 0, len(names))
		for _, n := range names {
			row := categoryRow{name: n, processed: processed[n]}
			if files, err := a.store.DocumentFiles(n); err == nil {
				row.files = len(files)
			}
			if row.processed {
				if stale, err := a.store.Stale(n); err == nil {
					row.stale = stale
				}
			}
			rows = append(rows, row)
		}
		return adminRefreshMsg{rows: rows}
	}
}

func (m adminModel) runCmd(line string) tea.Cmd {
	a := m.app
	return func() tea.Msg {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			return adminOpDoneMsg{}
		}
		op := fields[0]
		args := fields[1:]

		var summary string
		var err error
		switch op {
		case "create":
			if len(args) != 1 {
				err = fmt.Errorf("usage: create <name>")
				break
			}
			if err = a.store.Create(args[0]); err == nil {
				summary = fmt.Sprintf("Category %q created.", args[0])
			}
		case "upload":
			if len(args) < 2 {
				err = fmt.Errorf("usage: upload <name> <pdf...>")
				break
			}
			if err = a.store.Upload(args[0], args[1:]); err == nil {
				summary = fmt.Sprintf("Uploaded %d file(s) to %q.", len(args)-1, args[0])
			}
		case "process":
			if len(args) != 1 {
				err = fmt.Errorf("usage: process <name>")
				break
			}
			if err = a.processor.Process(context.Background(), args[0]); err == nil {
				a.retriever.Invalidate()
				summary = fmt.Sprintf("Category %q processed.", args[0])
			}
		case "delete":
			if len(args) != 1 {
				err = fmt.Errorf("usage: delete <name>")
				break
			}
			if err = a.store.Delete(args[0]); err == nil {
				a.retriever.Invalidate()
				summary = fmt.Sprintf("Category %q deleted.", args[0])
			}
		default:
			err = fmt.Errorf("unknown command %q", op)
		}

		if err != nil {
			a.log.Error("admin operation failed",
				zap.String("op", op), zap.Error(err))
			return adminOpDoneMsg{err: err}
		}
		return adminOpDoneMsg{summary: summary}
	}
}

func (m adminModel) Update(msg tea.Msg) (adminModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = max(3, msg.Height-8)
		m.viewport.SetContent(m.renderRows())
		return m, nil
	case adminRefreshMsg:
		if msg.err != nil {
			m.status = errorStyle.Render("Error: " + msg.err.Error())
		} else {
			m.rows = msg.rows
		}
		m.viewport.SetContent(m.renderRows())
		return m, nil
	case adminOpDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.status = errorStyle.Render("Error: " + msg.err.Error())
		} else if msg.summary != "" {
			m.status = okStyle.Render(msg.summary)
		}
		return m, m.refreshCmd()
	case spinner.TickMsg:
		if m.busy {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
		return m, nil
	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "enter":
			line := strings.TrimSpace(m.input.Value())
			if line == "" {
				return m, nil
			}
			m.input.SetValue("")
			m.busy = true
			m.status = "Working..."
			return m, tea.Batch(m.spin.Tick, m.runCmd(line))
		case "esc":
			return m, func() tea.Msg { return loggedOutMsg{} }
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m adminModel) renderRows() string {
	if len(m.rows) == 0 {
		return subtleStyle.Render("No categories yet. Create one to get started.")
	}
	var b strings.Builder
	for _, r := range m.rows {
		state := subtleStyle.Render("not processed")
		if r.processed {
			if r.stale {
				state = warnStyle.Render("processed (stale)")
			} else {
				state = okStyle.Render("processed")
			}
		}
		fmt.Fprintf(&b, "%-30s %3d file(s)  %s\n", r.name, r.files, state)
	}
	return b.String()
}

func (m adminModel) View() string {
	if !m.ready {
		return "Loading..."
	}
	title := titleStyle.Render("DocuQuery — Admin")
	status := m.status
	if m.busy {
		status = m.spin.View() + " Working... processing can take a while."
	}
	help := subtleStyle.Render("enter: run command • esc: logout • ctrl+c: quit")
	return title + "\n" +
		boxStyle.Render(m.viewport.View()) + "\n" +
		boxStyle.Render(m.input.View()) + "\n" +
		status + "\n" + help
}
