package session

import (
	"errors"

	"github.com/docuquery/cli/internal/rag"
)

// State enumerates the user-visible application states. Transitions are
// explicit and independent of any rendering framework.
type State int

const (
	Unauthenticated State = iota
	Admin
	UserNoCategory
	UserActiveCategory
)

// Role distinguishes the two gated surfaces.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotUser            = errors.New("only the user role holds a conversation")
	ErrNoActiveCategory   = errors.New("no category selected")
)

// Turn is one entry of the conversation history. Failed generation attempts
// are recorded as assistant turns too, so the history is a faithful record
// of what the user saw.
type Turn struct {
	Role    string // "user" or "assistant"
	Content string
	Sources []rag.Source
	IsError bool
}

type credential struct {
	password string
	role     Role
}

// Session holds authentication state, the active category, and the ordered
// conversation turns of one user.
type Session struct {
	credentials map[string]credential

	state          State
	role           Role
	activeCategory string
	turns          []Turn
}

// New creates an unauthenticated session with the two fixed accounts.
func New(adminPassword, userPassword string) *Session {
	return &Session{
		credentials: map[string]credential{
			"admin":   {password: adminPassword, role: RoleAdmin},
			"student": {password: userPassword, role: RoleUser},
		},
		state: Unauthenticated,
	}
}

// State returns the current state.
func (s *Session) State() State { return s.state }

// Role returns the authenticated role, or "" when unauthenticated.
func (s *Session) Role() Role { return s.role }

// ActiveCategory returns the selected category, or "" when none is active.
func (s *Session) ActiveCategory() string { return s.activeCategory }

// Login authenticates and moves to the role's entry state.
func (s *Session) Login(username, password string) error {
	cred, ok := s.credentials[username]
	if !ok || cred.password != password {
		return ErrInvalidCredentials
	}
	s.role = cred.role
	if cred.role == RoleAdmin {
		s.state = Admin
	} else {
		s.state = UserNoCategory
	}
	s.activeCategory = ""
	s.turns = nil
	return nil
}

// Logout discards all session state.
func (s *Session) Logout() {
	s.state = Unauthenticated
	s.role = ""
	s.activeCategory = ""
	s.turns = nil
}

// SelectCategory makes a category the active conversation context. Changing
// category clears the conversation: the old Q&A history belongs to a
// different semantic context.
func (s *Session) SelectCategory(name string) error {
	if s.role != RoleUser {
		return ErrNotUser
	}
	if name != s.activeCategory {
		s.turns = nil
	}
	s.activeCategory = name
	s.state = UserActiveCategory
	return nil
}

// Browse returns a user to topic selection without dropping the current
// conversation. Reselecting the same category keeps it; picking another
// clears it in SelectCategory.
func (s *Session) Browse() error {
	if s.role != RoleUser {
		return ErrNotUser
	}
	s.state = UserNoCategory
	return nil
}

// AddTurn appends one turn to the conversation history.
func (s *Session) AddTurn(t Turn) error {
	if s.state != UserActiveCategory {
		return ErrNoActiveCategory
	}
	s.turns = append(s.turns, t)
	return nil
}

// Turns returns a copy of the conversation history in order.
func (s *Session) Turns() []Turn {
	return append([]Turn(nil), s.turns...)
}
