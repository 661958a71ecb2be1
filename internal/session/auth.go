package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/mindcareplus/mindcare/client/internal/models"
	"github.com/mindcareplus/mindcare/client/pkg/logger"
)

var errEmptyAuthResult = errors.New("empty authentication response")

// Login authenticates against /auth/login. On success credential and profile
// are replaced together; on failure the session is left untouched.
func (s *Store) Login(ctx context.Context, email, password string) (*models.AuthResult, error) {
	return s.authenticate(ctx, "login", s.auth.Login, email, password)
}

// Register creates an account via /auth/register with the same contract as Login.
func (s *Store) Register(ctx context.Context, email, password string) (*models.AuthResult, error) {
	return s.authenticate(ctx, "register", s.auth.Register, email, password)
}

type authCall func(ctx context.Context, email, password string) (*models.AuthResult, error)

func (s *Store) authenticate(ctx context.Context, op string, call authCall, email, password string) (*models.AuthResult, error) {
	s.mu.Lock()
	s.loading++
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.loading--
		s.mu.Unlock()
	}()

	res, err := call(ctx, email, password)
	if err != nil {
		logger.Debugf("session: %s failed: %v", op, err)
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("%s: %w", op, errEmptyAuthResult)
	}
	if res.Token == "" {
		// a profile is only kept alongside a credential
		s.SetSession(ctx, "", nil)
	} else {
		s.SetSession(ctx, res.Token, res.User)
	}
	logger.Infof("session: %s ok authenticated=%v", op, res.Token != "")
	return res, nil
}
