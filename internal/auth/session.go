// Package auth adapts the hosted identity provider into an explicit session
// object that workflow operations receive as an argument. No ambient global
// session state exists; anything that cares about sign-in changes registers a
// subscriber.
package auth

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	id "github.com/stagelink/stagelink/pkg/domain"
	dErrors "github.com/stagelink/stagelink/pkg/domain-errors"
)

// Session is the authenticated caller identity passed to workflow operations.
type Session struct {
	UserID id.UserID
	Email  string
}

// Event classifies a session change for subscribers.
type Event string

const (
	EventSignedIn  Event = "signed_in"
	EventSignedOut Event = "signed_out"
)

// Manager verifies bearer tokens minted by the identity provider and fans out
// session-change notifications.
type Manager struct {
	signingKey []byte

	mu   sync.Mutex
	subs map[int]func(Session, Event)
	next int
}

func NewManager(signingKey string) *Manager {
	return &Manager{
		signingKey: []byte(signingKey),
		subs:       make(map[int]func(Session, Event)),
	}
}

type sessionClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Verify parses and validates a bearer token into a Session.
func (m *Manager) Verify(tokenString string) (Session, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "unexpected signing method")
		}
		return m.signingKey, nil
	})
	if err != nil || !token.Valid {
		return Session{}, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid or expired token")
	}

	userID, err := id.ParseUserID(claims.Subject)
	if err != nil {
		return Session{}, dErrors.Wrap(err, dErrors.CodeUnauthorized, "token subject is not a user id")
	}
	return Session{UserID: userID, Email: claims.Email}, nil
}

// Issue mints a signed session token. Used by tests and local development;
// production tokens come from the hosted identity provider with the shared
// signing key.
func (m *Manager) Issue(session Session, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		Email: session.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "sign session token")
	}
	m.notify(session, EventSignedIn)
	return signed, nil
}

// Subscribe registers a session-change callback and returns its unsubscribe
// function. Callbacks run synchronously on the notifying goroutine.
func (m *Manager) Subscribe(fn func(Session, Event)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := m.next
	m.next++
	m.subs[key] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, key)
	}
}

// NotifySignedOut announces that a session ended. The identity provider owns
// revocation; this only fans the fact out to subscribers.
func (m *Manager) NotifySignedOut(session Session) {
	m.notify(session, EventSignedOut)
}

func (m *Manager) notify(session Session, event Event) {
	m.mu.Lock()
	subs := make([]func(Session, Event), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(session, event)
	}
}
