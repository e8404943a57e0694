package appstate

import (
	"errors"
	"fmt"

	"github.com/Skotchmaster/echoshop/internal/transport"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

var (
	ErrInvalidTheme  = errors.New("theme must be light or dark")
	ErrLoginRequired = errors.New("you must be logged in")
	ErrAdminRequired = errors.New("not authorized as an admin")
)

// State holds the signed-in user and the theme. The cart lives under
// KeyCart in the same Store and is owned by cart.Manager.
type State struct {
	store Store
	auth  *transport.AuthUser
	theme Theme
}

// Open rehydrates auth and theme. Missing keys give a signed-out, light
// session.
func Open(store Store) (*State, error) {
	s := &State{store: store, theme: ThemeLight}

	var au transport.AuthUser
	ok, err := store.Load(KeyAuth, &au)
	if err != nil {
		return nil, err
	}
	if ok && au.Token != "" {
		s.auth = &au
	}

	var theme Theme
	ok, err = store.Load(KeyTheme, &theme)
	if err != nil {
		return nil, err
	}
	if ok && (theme == ThemeLight || theme == ThemeDark) {
		s.theme = theme
	}
	return s, nil
}

func (s *State) Store() Store { return s.store }

// Auth returns a copy of the signed-in user, or nil.
func (s *State) Auth() *transport.AuthUser {
	if s.auth == nil {
		return nil
	}
	au := *s.auth
	return &au
}

func (s *State) LoggedIn() bool { return s.auth != nil && s.auth.Token != "" }

func (s *State) IsAdmin() bool { return s.LoggedIn() && s.auth.IsAdmin }

func (s *State) Token() string {
	if s.auth == nil {
		return ""
	}
	return s.auth.Token
}

func (s *State) SetAuth(au transport.AuthUser) error {
	if au.Token == "" {
		return fmt.Errorf("auth without token")
	}
	if err := s.store.Save(KeyAuth, au); err != nil {
		return err
	}
	s.auth = &au
	return nil
}

func (s *State) ClearAuth() error {
	if err := s.store.Delete(KeyAuth); err != nil {
		return err
	}
	s.auth = nil
	return nil
}

func (s *State) RequireLogin() error {
	if !s.LoggedIn() {
		return ErrLoginRequired
	}
	return nil
}

// RequireAdmin is the client-side guard for admin screens. The server checks
// again on every call.
func (s *State) RequireAdmin() error {
	if err := s.RequireLogin(); err != nil {
		return err
	}
	if !s.auth.IsAdmin {
		return ErrAdminRequired
	}
	return nil
}

func (s *State) Theme() Theme { return s.theme }

func (s *State) SetTheme(t Theme) error {
	if t != ThemeLight && t != ThemeDark {
		return ErrInvalidTheme
	}
	if err := s.store.Save(KeyTheme, t); err != nil {
		return err
	}
	s.theme = t
	return nil
}

func (s *State) ToggleTheme() (Theme, error) {
	next := ThemeDark
	if s.theme == ThemeDark {
		next = ThemeLight
	}
	return next, s.SetTheme(next)
}
