package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mindcareplus/mindcare/client/internal/api"
	"github.com/mindcareplus/mindcare/client/internal/router"
	"github.com/mindcareplus/mindcare/client/internal/session"
	"github.com/mindcareplus/mindcare/client/internal/storage"
	"github.com/mindcareplus/mindcare/client/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI is a stand-in for the remote MindCare+ API.
type fakeAPI struct {
	mu      sync.Mutex
	queries map[string]string
}

func (f *fakeAPI) handler() http.Handler {
	authed := func(r *http.Request) bool { return r.Header.Get("Authorization") == "Bearer tok-1" }
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["password"] != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Invalid credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"token":"tok-1","user":{"id":1,"email":"a@b.c","plan":"free"}}`))
	})
	mux.HandleFunc("/auth/register", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"Email already registered"}`))
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		if !authed(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"id":1,"email":"a@b.c","plan":"premium","name":"Ada"}`))
	})
	mux.HandleFunc("/checkins", func(w http.ResponseWriter, r *http.Request) {
		if !authed(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f.mu.Lock()
		f.queries["/checkins"] = r.URL.RawQuery
		f.mu.Unlock()
		_, _ = w.Write([]byte(`[{"id":4,"mood":"calm","stress_level":2,"notes":null,"created_at":"2024-01-01T00:00:00"}]`))
	})
	mux.HandleFunc("/bookings", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"detail":"Premium required"}`))
	})
	mux.HandleFunc("/analytics/overview", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/billing/upgrade", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true,"plan":"premium"}`))
	})
	mux.HandleFunc("/counselors", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	})
	return mux
}

type shellFixture struct {
	engine *gin.Engine
	store  *session.Store
	st     *storage.MemoryStorage
}

func newShell(t *testing.T) *shellFixture {
	t.Helper()
	fa := &fakeAPI{queries: map[string]string{}}
	srv := httptest.NewServer(fa.handler())
	t.Cleanup(srv.Close)
	return newShellAt(t, srv.URL)
}

func newShellAt(t *testing.T, baseURL string) *shellFixture {
	t.Helper()
	st := storage.NewMemoryStorage()
	authClient := api.NewClient(api.Options{BaseURL: baseURL, Timeout: 2 * time.Second}, nil)
	store := session.NewStore(st, authClient)
	client := api.NewClient(api.Options{BaseURL: baseURL, Timeout: 300 * time.Millisecond}, store)

	tbl, err := router.NewTable(router.DefaultRoutes())
	require.NoError(t, err)
	nav, err := router.NewNavigator(tbl, store)
	require.NoError(t, err)

	g := gin.New()
	g.Use(middleware.LocalOnly(middleware.OriginPolicy{AllowedOrigins: []string{frontOrigin}}))
	RegisterOps(g, st, time.Now())
	sh := NewShellHandler(store, nav)
	sh.RegisterActions(g, func(action string) gin.HandlerFunc {
		return middleware.ActionRateLimit("test-"+action+"-"+t.Name(), 100, 100)
	})
	NewDataHandler(client, store).Register(g)
	sh.RegisterPages(g)
	return &shellFixture{engine: g, store: store, st: st}
}

// frontOrigin is the separately served front-end the test shell trusts.
const frontOrigin = "http://localhost:5173"

// request builds a same-machine request; writes are sent as JSON.
func request(method, path, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	req.Host = "127.0.0.1:8080"
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func (f *shellFixture) do(method, path, body string) *httptest.ResponseRecorder {
	return f.serve(request(method, path, body))
}

func (f *shellFixture) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func (f *shellFixture) login(t *testing.T) {
	t.Helper()
	w := f.do(http.MethodPost, "/actions/login", `{"email":"a@b.c","password":"pw"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestShell_ProtectedPageRedirectsToLogin(t *testing.T) {
	f := newShell(t)
	w := f.do(http.MethodGet, "/checkin", "")
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login?redirect=/checkin", w.Header().Get("Location"))

	w = f.do(http.MethodGet, "/login?redirect=/checkin", "")
	require.Equal(t, http.StatusOK, w.Code)
	var v View
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	assert.Equal(t, "login", v.Route)
	assert.Equal(t, "Sign in · MindCare+", v.Title)
	assert.False(t, v.Authenticated)
	assert.Equal(t, "free", v.Plan)
}

func TestShell_LoginThenPage(t *testing.T) {
	f := newShell(t)
	w := f.do(http.MethodPost, "/actions/login", `{"email":"a@b.c","password":"pw","redirect":"/checkin"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"authenticated":true,"user":{"id":1,"email":"a@b.c","plan":"free"},"redirect":"/checkin"}`, w.Body.String())

	raw, err := f.st.Get(t.Context(), session.TokenKey)
	require.NoError(t, err)
	assert.JSONEq(t, `"tok-1"`, string(raw))

	w = f.do(http.MethodGet, "/checkin", "")
	require.Equal(t, http.StatusOK, w.Code)
	var v View
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	assert.Equal(t, "checkin", v.Route)
	assert.Equal(t, "a@b.c", v.Email)
	assert.True(t, v.Authenticated)
}

func TestShell_LoginRedirectMustBeLocal(t *testing.T) {
	f := newShell(t)
	w := f.do(http.MethodPost, "/actions/login", `{"email":"a@b.c","password":"pw","redirect":"//evil.example"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "/dashboard", out["redirect"])
}

func TestShell_LoginFailurePassesStatusThrough(t *testing.T) {
	f := newShell(t)
	w := f.do(http.MethodPost, "/actions/login", `{"email":"a@b.c","password":"nope"}`)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"detail":"Invalid credentials"}`, w.Body.String())
	assert.False(t, f.store.IsAuthenticated())

	w = f.do(http.MethodPost, "/actions/register", `{"email":"a@b.c","password":"pw"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Email already registered")

	w = f.do(http.MethodPost, "/actions/login", `{"email":"a@b.c"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestShell_GuestOnlyWhileAuthenticated(t *testing.T) {
	f := newShell(t)
	f.login(t)
	w := f.do(http.MethodGet, "/register", "")
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))
}

func TestShell_RefreshMergesProfile(t *testing.T) {
	f := newShell(t)
	f.login(t)

	w := f.do(http.MethodPost, "/actions/refresh", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "premium", f.store.Plan())
	assert.Contains(t, w.Body.String(), `"name":"Ada"`)

	w = f.do(http.MethodGet, "/actions/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	var st map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, true, st["authenticated"])
	assert.Equal(t, "premium", st["plan"])
	assert.Equal(t, false, st["loading"])
}

func TestShell_RefreshWithoutSession(t *testing.T) {
	f := newShell(t)
	w := f.do(http.MethodPost, "/actions/refresh", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"authenticated":false,"user":null}`, w.Body.String())
}

func TestShell_Logout(t *testing.T) {
	f := newShell(t)
	f.login(t)

	w := f.do(http.MethodPost, "/actions/logout", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, f.store.IsAuthenticated())
	_, err := f.st.Get(t.Context(), session.TokenKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	w = f.do(http.MethodGet, "/dashboard", "")
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login?redirect=/dashboard", w.Header().Get("Location"))
}

func TestShell_RootAndUnknownPaths(t *testing.T) {
	f := newShell(t)
	f.login(t)

	w := f.do(http.MethodGet, "/", "")
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))

	w = f.do(http.MethodGet, "/definitely/unknown", "")
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))
}

func TestOps_HealthAndReady(t *testing.T) {
	f := newShell(t)
	w := f.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", w.Body.String())

	w = f.do(http.MethodGet, "/ready", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"storage":true`)
}
