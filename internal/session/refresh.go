package session

import (
	"context"
	"errors"

	"github.com/mindcareplus/mindcare/client/internal/models"
	"github.com/mindcareplus/mindcare/client/pkg/logger"
	"github.com/mindcareplus/mindcare/client/pkg/metrics"
)

// ErrSessionChanged is returned to refresh callers when the session was
// replaced or cleared while their /me call was in flight.
var ErrSessionChanged = errors.New("session changed during refresh")

// Refresh re-reads the profile from /me using the current credential.
//
// Without a credential it is a no-op returning (nil, nil). On success the
// response is merged over the cached profile and the merged copy returned.
// On any failure the whole session is cleared and the error returned.
//
// Concurrent calls for the same credential share one request. The request is
// not cancelled when a caller's ctx ends; that caller just stops waiting.
// An outcome is only applied while the credential it was issued with is
// still current.
func (s *Store) Refresh(ctx context.Context) (*models.Profile, error) {
	s.mu.RLock()
	token := s.credential
	s.mu.RUnlock()
	if token == "" {
		metrics.SessionRefresh.WithLabelValues("skipped").Inc()
		return nil, nil
	}

	detached := context.WithoutCancel(ctx)
	ch := s.flight.DoChan("refresh:"+token, func() (interface{}, error) {
		return s.refresh(detached, token)
	})

	select {
	case res := <-ch:
		if res.Shared {
			metrics.SessionRefresh.WithLabelValues("shared").Inc()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return clone(res.Val.(*models.Profile)), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Store) refresh(ctx context.Context, token string) (*models.Profile, error) {
	raw, err := s.auth.Whoami(ctx, token)

	s.mu.Lock()
	defer s.unlockAndPersist(ctx)

	if s.credential != token {
		metrics.SessionRefresh.WithLabelValues("stale").Inc()
		logger.Debugf("session: dropping stale refresh outcome (err=%v)", err)
		if err != nil {
			return nil, err
		}
		return nil, ErrSessionChanged
	}

	var merged *models.Profile
	if err == nil {
		merged, err = models.Merge(s.profile, raw)
	}
	if err != nil {
		metrics.SessionRefresh.WithLabelValues("failed").Inc()
		logger.Infof("session: refresh failed, clearing session: %v", err)
		s.clearLocked()
		return nil, err
	}

	s.setProfileLocked(merged)
	metrics.SessionRefresh.WithLabelValues("ok").Inc()
	return clone(s.profile), nil
}
