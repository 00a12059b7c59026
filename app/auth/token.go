package auth

import (
	"time"

	"github.com/gorilla/securecookie"
)

// Signer issues and checks the session cookie value carrying a session id.
type Signer struct {
	codec *securecookie.SecureCookie
}

// NewSigner signs with key. Values older than maxAge are refused; 0 disables the check.
func NewSigner(key []byte, maxAge time.Duration) *Signer {
	codec := securecookie.New(key, nil).
		MaxAge(int(maxAge / time.Second)).
		SetSerializer(securecookie.JSONEncoder{})
	return &Signer{codec: codec}
}

// Sign returns the token handed to the client for session id.
func (s *Signer) Sign(id string) (string, error) {
	return s.codec.Encode(CookieName, id)
}

// Open returns the session id carried by token if its signature is valid.
func (s *Signer) Open(token string) (string, bool) {
	var id string
	if err := s.codec.Decode(CookieName, token, &id); err != nil || id == "" {
		return "", false
	}
	return id, true
}
