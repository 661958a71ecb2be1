package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mindcareplus/mindcare/client/internal/models"
	"github.com/mindcareplus/mindcare/client/internal/router"
	"github.com/mindcareplus/mindcare/client/internal/session"
	"github.com/mindcareplus/mindcare/client/pkg/logger"
	"github.com/mindcareplus/mindcare/client/pkg/middleware"
)

// CredentialsRequest is the body of the login and register actions.
type CredentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	// Redirect is where the caller wants to land afterwards, usually the
	// redirect query of the login page.
	Redirect string `json:"redirect"`
}

// View is what a page route renders once the guard lets it through.
type View struct {
	Route         string `json:"route"`
	Path          string `json:"path"`
	Title         string `json:"title"`
	Authenticated bool   `json:"authenticated"`
	Email         string `json:"email"`
	Plan          string `json:"plan"`
}

// ShellHandler serves guarded pages and the session actions.
type ShellHandler struct {
	store *session.Store
	nav   *router.Navigator
}

func NewShellHandler(store *session.Store, nav *router.Navigator) *ShellHandler {
	return &ShellHandler{store: store, nav: nav}
}

// RegisterPages serves every route of the table through the navigation guard.
// Unknown GET paths fall through to the guard as well.
func (h *ShellHandler) RegisterPages(r *gin.Engine) {
	guard := middleware.NavigationGuard(h.nav)
	for _, p := range h.nav.Table().Paths() {
		r.GET(p, guard, h.Page)
	}
	r.NoRoute(guard, h.Page)
}

// Limiter builds the rate limiting middleware for one action.
type Limiter func(action string) gin.HandlerFunc

// RegisterActions registers the session actions under /actions. Writes must
// be JSON.
func (h *ShellHandler) RegisterActions(r *gin.Engine, limit Limiter) {
	a := r.Group("/actions", middleware.RequireJSON())
	a.POST("/login", limit("login"), h.Login)
	a.POST("/register", limit("register"), h.Register)
	a.POST("/logout", h.Logout)
	a.POST("/refresh", h.Refresh)
	a.GET("/status", h.Status)
}

// Page renders the view descriptor of the matched route.
func (h *ShellHandler) Page(c *gin.Context) {
	m, ok := middleware.CurrentMatch(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, View{
		Route:         m.Name,
		Path:          m.FullPath(),
		Title:         m.Meta().Title,
		Authenticated: h.store.IsAuthenticated(),
		Email:         h.store.Email(),
		Plan:          h.store.Plan(),
	})
}

func (h *ShellHandler) Login(c *gin.Context) {
	h.authenticate(c, h.store.Login)
}

func (h *ShellHandler) Register(c *gin.Context) {
	h.authenticate(c, h.store.Register)
}

type authFunc func(ctx context.Context, email, password string) (*models.AuthResult, error)

func (h *ShellHandler) authenticate(c *gin.Context, call authFunc) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := call(c.Request.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"authenticated": h.store.IsAuthenticated(),
		"user":          res.User,
		"redirect":      h.safeRedirect(req.Redirect),
	})
}

// safeRedirect keeps only local absolute paths, defaulting to the dashboard.
func (h *ShellHandler) safeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, "\\") {
		if p, ok := h.nav.Table().PathOf(router.DashboardRoute); ok {
			return p
		}
		return "/"
	}
	return target
}

func (h *ShellHandler) Logout(c *gin.Context) {
	h.store.Logout(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Refresh re-reads the profile. Without a credential it reports an
// unauthenticated session; a failed refresh has already cleared it.
func (h *ShellHandler) Refresh(c *gin.Context) {
	p, err := h.store.Refresh(c.Request.Context())
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": h.store.IsAuthenticated(), "user": p})
}

// Status reports the session and navigation state without network calls.
func (h *ShellHandler) Status(c *gin.Context) {
	out := gin.H{
		"authenticated": h.store.IsAuthenticated(),
		"email":         h.store.Email(),
		"plan":          h.store.Plan(),
		"loading":       h.store.Loading(),
		"title":         h.nav.Title(),
		"current":       nil,
	}
	if m := h.nav.Current(); m != nil {
		out["current"] = m.FullPath()
	}
	if exp, ok := h.store.CredentialExpiry(); ok {
		out["expires_at"] = exp.UTC().Format(time.RFC3339)
	}
	logger.Debugf("shell: status authenticated=%v", out["authenticated"])
	c.JSON(http.StatusOK, out)
}
