// Package session holds the client's authenticated state: the bearer
// credential and the cached user profile, mirrored to durable storage.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/mindcareplus/mindcare/client/internal/models"
	"github.com/mindcareplus/mindcare/client/internal/storage"
	"github.com/mindcareplus/mindcare/client/pkg/logger"
	"github.com/mindcareplus/mindcare/client/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

// Durable entry names.
const (
	TokenKey   = "mc_token"
	ProfileKey = "mc_user"
)

// Authenticator is the slice of the remote API the store calls.
type Authenticator interface {
	Register(ctx context.Context, email, password string) (*models.AuthResult, error)
	Login(ctx context.Context, email, password string) (*models.AuthResult, error)
	// Whoami fetches /me with an explicit bearer token and returns the raw object.
	Whoami(ctx context.Context, token string) (json.RawMessage, error)
}

// Snapshot is a point-in-time copy of the session.
type Snapshot struct {
	Credential string
	Profile    *models.Profile
}

// Store is the single source of truth for who the current user is.
// All methods are safe for concurrent use.
type Store struct {
	storage storage.Storage
	auth    Authenticator

	mu         sync.RWMutex
	credential string
	profile    *models.Profile
	loading    int
	seq        uint64
	pending    []change

	// persistMu orders backend writes; it is never held together with mu.
	persistMu sync.Mutex
	applied   map[string]uint64

	flight singleflight.Group
}

// change is one durable write recorded under mu and applied after mu is
// released. A nil value deletes the key.
type change struct {
	key   string
	value []byte
	seq   uint64
}

// NewStore returns an empty store. Call Hydrate to restore a persisted session.
func NewStore(st storage.Storage, auth Authenticator) *Store {
	return &Store{storage: st, auth: auth, applied: map[string]uint64{}}
}

// Hydrate restores the session from durable storage. Missing, unreadable or
// malformed entries count as absent; it never fails and makes no network call.
func (s *Store) Hydrate(ctx context.Context) {
	token := s.loadCredential(ctx)
	profile := s.loadProfile(ctx)

	s.mu.Lock()
	defer s.unlockAndPersist(ctx)
	if token == "" && profile != nil {
		logger.Warnf("session: discarding persisted profile without credential")
		profile = nil
		s.record(ProfileKey, nil)
	}
	s.credential = token
	s.profile = profile
	logger.Debugf("session: hydrated authenticated=%v", token != "")
}

func (s *Store) loadCredential(ctx context.Context) string {
	raw, err := s.storage.Get(ctx, TokenKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logger.Warnf("session: read %s: %v", TokenKey, err)
		}
		return ""
	}
	var token string
	if err := json.Unmarshal(raw, &token); err != nil {
		logger.Warnf("session: ignoring malformed %s: %v", TokenKey, err)
		return ""
	}
	return token
}

func (s *Store) loadProfile(ctx context.Context) *models.Profile {
	raw, err := s.storage.Get(ctx, ProfileKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logger.Warnf("session: read %s: %v", ProfileKey, err)
		}
		return nil
	}
	var p *models.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		logger.Warnf("session: ignoring malformed %s: %v", ProfileKey, err)
		return nil
	}
	return p
}

// SetCredential sets the bearer token; "" clears it.
func (s *Store) SetCredential(ctx context.Context, token string) {
	s.mu.Lock()
	defer s.unlockAndPersist(ctx)
	s.setCredentialLocked(token)
}

// SetProfile sets the cached profile; nil clears it.
func (s *Store) SetProfile(ctx context.Context, p *models.Profile) {
	s.mu.Lock()
	defer s.unlockAndPersist(ctx)
	s.setProfileLocked(p)
}

// SetSession sets credential and profile together.
func (s *Store) SetSession(ctx context.Context, token string, p *models.Profile) {
	s.mu.Lock()
	defer s.unlockAndPersist(ctx)
	s.setCredentialLocked(token)
	s.setProfileLocked(p)
}

// ApplyPlan sets the plan of the cached profile, but only while credential
// is still the current one. It reports whether the profile changed.
func (s *Store) ApplyPlan(ctx context.Context, credential, plan string) bool {
	s.mu.Lock()
	defer s.unlockAndPersist(ctx)
	if plan == "" || credential == "" || s.credential != credential || s.profile == nil {
		return false
	}
	p := clone(s.profile)
	p.Plan = plan
	s.setProfileLocked(p)
	return true
}

// Logout clears the session. No network call.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	defer s.unlockAndPersist(ctx)
	s.clearLocked()
	logger.Debugf("session: logged out")
}

func (s *Store) clearLocked() {
	s.setCredentialLocked("")
	s.setProfileLocked(nil)
}

func (s *Store) setCredentialLocked(token string) {
	s.credential = token
	if token == "" {
		s.record(TokenKey, nil)
		return
	}
	s.record(TokenKey, token)
}

func (s *Store) setProfileLocked(p *models.Profile) {
	s.profile = clone(p)
	if p == nil {
		s.record(ProfileKey, nil)
		return
	}
	s.record(ProfileKey, s.profile)
}

// record queues the durable form of v under key; nil removes the key.
// Callers hold mu.
func (s *Store) record(key string, v interface{}) {
	s.seq++
	c := change{key: key, seq: s.seq}
	if v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			metrics.SessionPersistErrors.WithLabelValues("set").Inc()
			logger.Warnf("session: encode %s: %v", key, err)
			return
		}
		c.value = b
	}
	s.pending = append(s.pending, c)
}

// unlockAndPersist releases mu, then writes what was recorded under it.
// Readers never wait on the backend.
func (s *Store) unlockAndPersist(ctx context.Context) {
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()
	s.persist(ctx, pending)
}

// persist applies changes in sequence order per key. A change older than one
// already applied for its key is dropped. Failures never reach the caller:
// in-memory state stays authoritative.
func (s *Store) persist(ctx context.Context, changes []change) {
	for _, c := range changes {
		s.persistMu.Lock()
		if s.applied[c.key] > c.seq {
			s.persistMu.Unlock()
			continue
		}
		s.applied[c.key] = c.seq
		if c.value == nil {
			if err := s.storage.Delete(ctx, c.key); err != nil {
				metrics.SessionPersistErrors.WithLabelValues("delete").Inc()
				logger.Warnf("session: remove %s: %v", c.key, err)
			}
		} else if err := s.storage.Set(ctx, c.key, c.value); err != nil {
			metrics.SessionPersistErrors.WithLabelValues("set").Inc()
			logger.Warnf("session: persist %s: %v", c.key, err)
		}
		s.persistMu.Unlock()
	}
}

// AuthorizationHeader returns a fresh header set: empty when unauthenticated,
// otherwise a single bearer Authorization header.
func (s *Store) AuthorizationHeader() http.Header {
	h := http.Header{}
	s.mu.RLock()
	token := s.credential
	s.mu.RUnlock()
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential != ""
}

// Profile returns a copy of the cached profile, nil when absent.
func (s *Store) Profile() *models.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.profile)
}

// Plan returns the plan tier, "free" without a profile or plan.
func (s *Store) Plan() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile.PlanOrDefault()
}

// Email returns the profile email or "".
func (s *Store) Email() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return ""
	}
	return s.profile.Email
}

// Loading reports whether a login or register call is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading > 0
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Credential: s.credential, Profile: clone(s.profile)}
}

func clone(p *models.Profile) *models.Profile {
	if p == nil {
		return nil
	}
	c := *p
	if p.Extra != nil {
		c.Extra = make(map[string]json.RawMessage, len(p.Extra))
		for k, v := range p.Extra {
			c.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return &c
}
