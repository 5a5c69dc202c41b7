package tui

import (
	"errors"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/docuquery/cli/internal/session"
)

// loginModel is the credential gate shown before either role surface.
type loginModel struct {
	app      *App
	username textinput.Model
	password textinput.Model
	focused  int
	errMsg   string
}

func newLoginModel(a *App) loginModel {
	user := textinput.New()
	user.Prompt = "Username: "
	user.Placeholder = "admin or student"
	user.Focus()

	pass := textinput.New()
	pass.Prompt = "Password: "
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '*'

	return loginModel{app: a, username: user, password: pass}
}

func (m loginModel) Init() tea.Cmd { return textinput.Blink }

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "shift+tab":
			m.focused = 1 - m.focused
			if m.focused == 0 {
				m.username.Focus()
				m.password.Blur()
			} else {
				m.password.Focus()
				m.username.Blur()
			}
			return m, nil
		case "enter":
			if m.focused == 0 {
				m.focused = 1
				m.username.Blur()
				m.password.Focus()
				return m, nil
			}
			err := m.app.session.Login(m.username.Value(), m.password.Value())
			if err != nil {
				if errors.Is(err, session.ErrInvalidCredentials) {
					m.errMsg = "Invalid username or password"
				} else {
					m.errMsg = err.Error()
				}
				m.password.SetValue("")
				return m, nil
			}
			m.errMsg = ""
			return m, func() tea.Msg { return loggedInMsg{} }
		case "esc":
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	if m.focused == 0 {
		m.username, cmd = m.username.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m loginModel) View() string {
	s := titleStyle.Render("DocuQuery — Login") + "\n\n"
	s += m.username.View() + "\n"
	s += m.password.View() + "\n\n"
	if m.errMsg != "" {
		s += errorStyle.Render(m.errMsg) + "\n\n"
	}
	s += subtleStyle.Render("tab: switch field • enter: submit • esc: quit")
	return boxStyle.Render(s)
}
