package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/docuquery/cli/config"
	"github.com/docuquery/cli/internal/documents"
	"github.com/docuquery/cli/internal/embeddings"
	"github.com/docuquery/cli/internal/library"
	"github.com/docuquery/cli/internal/ollama"
	"github.com/docuquery/cli/internal/rag"
	"github.com/docuquery/cli/internal/session"
)

// App wires the core components and owns the Bubble Tea program. All
// capability instances are constructed once here and shared by reference.
type App struct {
	cfg       *config.Config
	log       *zap.Logger
	store     *library.Store
	processor *documents.Processor
	retriever *rag.Retriever
	composer  *rag.Composer
	session   *session.Session
	topK      int
}

// NewApp creates a new TUI application
func NewApp(cfg *config.Config, log *zap.Logger) (*App, error) {
	store, err := library.NewStore(cfg.Paths.DataDir, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open category store: %w", err)
	}

	client := ollama.NewClient(cfg.Ollama.BaseURL)
	embedder := embeddings.NewTextEmbedder(client, cfg.Embeddings.TextModel)
	parser := documents.NewPDFParser()

	processor := documents.NewProcessor(
		store,
		parser,
		embedder,
		cfg.Processing.ChunkSize,
		cfg.Processing.ChunkOverlap,
		log,
	)
	retriever := rag.NewRetriever(store, embedder, cfg.Processing.TopK)

	chatModel, err := ollama.NewModelSelector(client).GetDefaultModel(context.Background(), cfg.Ollama.ChatModel)
	if err != nil {
		chatModel = "llama3.2" // resolved again on first use if missing
		log.Warn("model selection failed, using fallback",
			zap.String("model", chatModel), zap.Error(err))
	}
	composer := rag.NewComposer(rag.NewOllamaGenerator(client, chatModel))

	return &App{
		cfg:       cfg,
		log:       log,
		store:     store,
		processor: processor,
		retriever: retriever,
		composer:  composer,
		session:   session.New(cfg.Auth.AdminPassword, cfg.Auth.UserPassword),
		topK:      cfg.Processing.TopK,
	}, nil
}

// Run starts the TUI and blocks until the user quits.
func (a *App) Run() error {
	_, err := tea.NewProgram(newRootModel(a), tea.WithAltScreen()).Run()
	return err
}

// rootModel routes all messages to the view matching the session state.
type rootModel struct {
	app    *App
	login  loginModel
	admin  adminModel
	chat   chatModel
	width  int
	height int
}

func newRootModel(a *App) rootModel {
	return rootModel{
		app:   a,
		login: newLoginModel(a),
		admin: newAdminModel(a),
		chat:  newChatModel(a),
	}
}

func (m rootModel) Init() tea.Cmd {
	return m.login.Init()
}

// loggedInMsg is emitted by the login view after a successful Login.
type loggedInMsg struct{}

// loggedOutMsg is emitted by any view when the user logs out.
type loggedOutMsg struct{}

func (m rootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		var cmds []tea.Cmd
		var cmd tea.Cmd
		m.login, cmd = m.login.Update(msg)
		cmds = append(cmds, cmd)
		m.admin, cmd = m.admin.Update(msg)
		cmds = append(cmds, cmd)
		m.chat, cmd = m.chat.Update(msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
	case loggedInMsg:
		switch m.app.session.Role() {
		case session.RoleAdmin:
			m.admin = newAdminModel(m.app)
			return m.propagateSize(m.admin.Init())
		default:
			m.chat = newChatModel(m.app)
			return m.propagateSize(m.chat.Init())
		}
	case loggedOutMsg:
		m.app.session.Logout()
		m.login = newLoginModel(m.app)
		return m.propagateSize(m.login.Init())
	}

	var cmd tea.Cmd
	switch m.app.session.State() {
	case session.Unauthenticated:
		m.login, cmd = m.login.Update(msg)
	case session.Admin:
		m.admin, cmd = m.admin.Update(msg)
	default:
		m.chat, cmd = m.chat.Update(msg)
	}
	return m, cmd
}

// propagateSize replays the last known terminal size into a freshly created
// view so it lays out without waiting for a resize.
func (m rootModel) propagateSize(init tea.Cmd) (tea.Model, tea.Cmd) {
	if m.width == 0 {
		return m, init
	}
	size := tea.WindowSizeMsg{Width: m.width, Height: m.height}
	var cmd tea.Cmd
	switch m.app.session.State() {
	case session.Admin:
		m.admin, cmd = m.admin.Update(size)
	case session.UserNoCategory, session.UserActiveCategory:
		m.chat, cmd = m.chat.Update(size)
	default:
		m.login, cmd = m.login.Update(size)
	}
	return m, tea.Batch(init, cmd)
}

func (m rootModel) View() string {
	switch m.app.session.State() {
	case session.Unauthenticated:
		return m.login.View()
	case session.Admin:
		return m.admin.View()
	default:
		return m.chat.View()
	}
}
