package identity

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid session token")

// Verifier checks bearer session tokens minted by the identity provider.
// Tokens are HMAC-signed JWTs whose subject is the rider id.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// RiderID validates the token and returns its subject.
func (v *Verifier) RiderID(token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	sub, err := parsed.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return sub, nil
}

// Sign mints a token for the given rider. Used by tests and local tooling;
// production tokens come from the identity provider.
func (v *Verifier) Sign(riderID string, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   riderID,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Event is an auth lifecycle change for one rider.
type Event struct {
	RiderID  string
	SignedIn bool
}

// Events fans auth changes out to subscribers. Subscribe returns an
// unsubscribe func; callers unsubscribe when their session ends.
type Events struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]func(Event)
}

func NewEvents() *Events {
	return &Events{listeners: make(map[int]func(Event))}
}

func (e *Events) Subscribe(fn func(Event)) func() {
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.listeners[id] = fn
	e.mu.Unlock()
	return func() {
		e.mu.Lock()
		delete(e.listeners, id)
		e.mu.Unlock()
	}
}

func (e *Events) Publish(ev Event) {
	e.mu.Lock()
	fns := make([]func(Event), 0, len(e.listeners))
	for _, fn := range e.listeners {
		fns = append(fns, fn)
	}
	e.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}
