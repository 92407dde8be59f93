// Package session implements the authentication collaborator consumed by
// the board store: it resolves the current owner from a signed token and
// announces session changes so the board can be loaded or discarded.
package session

import (
	"errors"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Session tracks the signed-in owner. One Session exists per client
// process; the board store and HTTP facade both read it.
type Session struct {
	secret []byte

	mu        sync.Mutex
	userID    uuid.UUID
	listeners map[int]func()
	nextID    int
}

func New(secret string) *Session {
	return &Session{
		secret:    []byte(secret),
		listeners: make(map[int]func()),
	}
}

// ParseToken extracts the user id from a signed token without touching
// session state. The facade middleware uses it per request.
func (s *Session) ParseToken(tokenStr string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["user_id"] == nil {
		return uuid.Nil, ErrInvalidToken
	}

	raw, ok := claims["user_id"].(string)
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return userID, nil
}

// SignIn validates the token and switches the session to its owner.
func (s *Session) SignIn(tokenStr string) error {
	userID, err := s.ParseToken(tokenStr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	changed := s.userID != userID
	s.userID = userID
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	if changed {
		notify(listeners)
	}
	return nil
}

// SignOut clears the signed-in owner.
func (s *Session) SignOut() {
	s.mu.Lock()
	changed := s.userID != uuid.Nil
	s.userID = uuid.Nil
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	if changed {
		notify(listeners)
	}
}

// CurrentUserID returns the signed-in owner, or false when signed out.
func (s *Session) CurrentUserID() (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID, s.userID != uuid.Nil
}

// OnChange registers a callback fired after every sign-in, sign-out and
// user switch. The returned function unregisters it.
func (s *Session) OnChange(fn func()) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Session) snapshotListeners() []func() {
	out := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		out = append(out, fn)
	}
	return out
}

func notify(listeners []func()) {
	for _, fn := range listeners {
		fn()
	}
}
