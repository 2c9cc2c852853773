// Package session is the client's view of authentication: who is logged in,
// kept in the same browser-style storage as the board, and what the page
// header shows for it. Task operations never look at it.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"todoboard-backend/internal/storage"
)

const (
	tokenKey = "token"
	userKey  = "user"
)

const AppTitle = "Todo App"

type User struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// DisplayName prefers Name and falls back to Email.
func (u User) DisplayName() string {
	if strings.TrimSpace(u.Name) != "" {
		return u.Name
	}
	return u.Email
}

type Link struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

// HeaderView is what the page header renders.
type HeaderView struct {
	Title       string `json:"title"`
	LoggedIn    bool   `json:"loggedIn"`
	DisplayName string `json:"displayName,omitempty"`
	Links       []Link `json:"links,omitempty"`
}

type Session struct {
	mu    sync.Mutex
	kv    storage.KV
	token string
	user  *User
}

func New(kv storage.KV) *Session {
	return &Session{kv: kv}
}

// Restore logs the session in from stored token and user, if both are
// present and the user parses. Anything else leaves it anonymous.
func (s *Session) Restore() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token, s.user = "", nil

	token, hasToken, err := s.kv.GetItem(tokenKey)
	if err != nil || !hasToken || token == "" {
		return
	}
	raw, hasUser, err := s.kv.GetItem(userKey)
	if err != nil || !hasUser {
		return
	}

	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		slog.Warn("stored user is malformed, staying logged out", "error", err)
		return
	}
	if strings.TrimSpace(u.Email) == "" && strings.TrimSpace(u.Name) == "" {
		// "null" or "{}" names nobody
		return
	}

	s.token, s.user = token, &u
}

// Login stores the token and user and makes them current.
func (s *Session) Login(token string, u User) error {
	if token == "" {
		return errors.New("empty token")
	}

	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.SetItem(tokenKey, token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	if err := s.kv.SetItem(userKey, string(data)); err != nil {
		return fmt.Errorf("save user: %w", err)
	}

	s.token, s.user = token, &u
	return nil
}

// Logout forgets the user. The in-memory session is cleared even when
// storage fails, and the storage error is returned.
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token, s.user = "", nil

	return errors.Join(s.kv.RemoveItem(tokenKey), s.kv.RemoveItem(userKey))
}

// User returns the logged-in user, or nil.
func (s *Session) User() *User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Session) Header() HeaderView {
	u := s.User()
	if u == nil {
		return HeaderView{
			Title: AppTitle,
			Links: []Link{
				{Label: "Login", Path: "/login"},
				{Label: "Sign Up", Path: "/signup"},
			},
		}
	}
	return HeaderView{
		Title:       AppTitle,
		LoggedIn:    true,
		DisplayName: u.DisplayName(),
	}
}
