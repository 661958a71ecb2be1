package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CredentialExpiry reports the exp claim of the current credential when it
// is a JWT. The token is parsed without verification: the client holds no
// key and the value is only shown to the user, it never gates access.
func (s *Store) CredentialExpiry() (time.Time, bool) {
	s.mu.RLock()
	token := s.credential
	s.mu.RUnlock()
	return expiryOf(token)
}

func expiryOf(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
