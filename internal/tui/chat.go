package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/docuquery/cli/internal/rag"
	"github.com/docuquery/cli/internal/session"
	"github.com/docuquery/cli/internal/vectorindex"
)

// chatModel is the user surface: pick a processed category, then converse
// with the documents behind it.
type chatModel struct {
	app      *App
	input    textinput.Model
	viewport viewport.Model
	spin     spinner.Model
	topics   []string
	cursor   int
	status   string
	busy     bool
	ready    bool
	width    int
}

type topicsMsg struct {
	topics []string
	err    error
}

type answerMsg struct {
	question string
	answer   *rag.Answer
	err      error
}

func newChatModel(a *App) chatModel {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question"
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return chatModel{
		app:      a,
		input:    ti,
		viewport: viewport.New(0, 0),
		spin:     sp,
	}
}

func (m chatModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadTopicsCmd())
}

func (m chatModel) loadTopicsCmd() tea.Cmd {
	a := m.app
	return func() tea.Msg {
		topics, err := a.store.Processed()
		return topicsMsg{topics: topics, err: err}
	}
}

func (m chatModel) askCmd(question string) tea.Cmd {
	a := m.app
	category := a.session.ActiveCategory()
	return func() tea.Msg {
		results, err := a.retriever.Retrieve(context.Background(), category, question, a.topK)
		if err != nil {
			return answerMsg{question: question, err: err}
		}
		answer, err := a.composer.Answer(context.Background(), question, results)
		if err != nil {
			return answerMsg{question: question, err: err}
		}
		return answerMsg{question: question, answer: answer}
	}
}

func (m chatModel) Update(msg tea.Msg) (chatModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = max(3, msg.Height-8)
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()
		return m, nil
	case topicsMsg:
		if msg.err != nil {
			m.status = errorStyle.Render("Error: " + msg.err.Error())
		} else {
			m.topics = msg.topics
			if len(m.topics) == 0 {
				m.status = "No topics have been processed yet. Please check back later."
			} else {
				m.status = "Select a topic and press enter."
			}
		}
		return m, nil
	case answerMsg:
		m.busy = false
		m.recordExchange(msg)
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()
		return m, nil
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
		if m.app.session.State() == session.UserNoCategory {
			return m.updateTopicPicker(msg)
		}
		return m.updateConversation(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m chatModel) updateTopicPicker(msg tea.KeyMsg) (chatModel, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.topics)-1 {
			m.cursor++
		}
	case "enter":
		if len(m.topics) == 0 {
			return m, m.loadTopicsCmd()
		}
		topic := m.topics[m.cursor]
		if err := m.app.session.SelectCategory(topic); err != nil {
			m.status = errorStyle.Render(err.Error())
			return m, nil
		}
		m.status = okStyle.Render(fmt.Sprintf("Ready to answer questions about %q.", topic))
		m.viewport.SetContent(m.renderHistory())
		return m, nil
	case "r":
		return m, m.loadTopicsCmd()
	case "esc":
		return m, func() tea.Msg { return loggedOutMsg{} }
	}
	return m, nil
}

func (m chatModel) updateConversation(msg tea.KeyMsg) (chatModel, tea.Cmd) {
	switch msg.String() {
	case "enter":
		question := strings.TrimSpace(m.input.Value())
		if question == "" {
			return m, nil
		}
		m.input.SetValue("")
		m.busy = true
		m.app.session.AddTurn(session.Turn{Role: "user", Content: question})
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()
		return m, tea.Batch(m.spin.Tick, m.askCmd(question))
	case "esc":
		// back to topic list; picking a different topic clears the history
		m.app.session.Browse()
		m.cursor = 0
		return m, m.loadTopicsCmd()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// recordExchange appends the assistant turn, mapping error classes to the
// user-facing messages the history must keep.
func (m *chatModel) recordExchange(msg answerMsg) {
	switch {
	case msg.err == nil:
		m.app.session.AddTurn(session.Turn{
			Role:    "assistant",
			Content: msg.answer.Text,
			Sources: msg.answer.Sources,
		})
		m.status = ""
	case errors.Is(msg.err, vectorindex.ErrIndexMissing):
		m.app.session.AddTurn(session.Turn{
			Role:    "assistant",
			Content: "This topic has not been processed yet. Please ask the administrator to process it.",
			IsError: true,
		})
		m.status = ""
	default:
		m.app.log.Error("question failed", zap.Error(msg.err))
		m.app.session.AddTurn(session.Turn{
			Role:    "assistant",
			Content: "An error occurred: " + msg.err.Error(),
			IsError: true,
		})
		m.status = ""
	}
}

func (m chatModel) renderHistory() string {
	turns := m.app.session.Turns()
	if len(turns) == 0 {
		return subtleStyle.Render("Ask something about " + m.app.session.ActiveCategory() + "...")
	}
	var b strings.Builder
	for _, t := range turns {
		switch {
		case t.Role == "user":
			b.WriteString(titleStyle.Render("You: ") + t.Content + "\n\n")
		case t.IsError:
			b.WriteString(errorStyle.Render("Assistant: "+t.Content) + "\n\n")
		default:
			b.WriteString(okStyle.Render("Assistant: ") + t.Content + "\n")
			for i, src := range t.Sources {
				excerpt := src.Text
				if len(excerpt) > 350 {
					excerpt = excerpt[:350] + "..."
				}
				b.WriteString(sourceStyle.Render(fmt.Sprintf("  Source %d (%s, page %d): %s",
					i+1, src.Source, src.Page+1, excerpt)) + "\n")
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m chatModel) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.app.session.State() == session.UserNoCategory {
		return m.viewTopicPicker()
	}

	title := titleStyle.Render("DocuQuery — " + m.app.session.ActiveCategory())
	status := m.status
	if m.busy {
		status = m.spin.View() + " Searching for the answer..."
	}
	help := subtleStyle.Render("enter: ask • esc: change topic • ctrl+c: quit")
	return title + "\n" +
		boxStyle.Render(m.viewport.View()) + "\n" +
		boxStyle.Render(m.input.View()) + "\n" +
		status + "\n" + help
}

func (m chatModel) viewTopicPicker() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("DocuQuery — Topics") + "\n\n")
	if len(m.topics) == 0 {
		b.WriteString(subtleStyle.Render("No topics available.") + "\n")
	}
	for i, t := range m.topics {
		line := "  " + t
		if i == m.cursor {
			line = selectedStyle.Render("> " + t)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n" + m.status + "\n")
	b.WriteString(subtleStyle.Render("up/down: move • enter: select • r: refresh • esc: logout"))
	return boxStyle.Render(b.String())
}
