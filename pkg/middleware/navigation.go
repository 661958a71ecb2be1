package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mindcareplus/mindcare/client/internal/router"
	"github.com/mindcareplus/mindcare/client/pkg/logger"
)

// MatchKey is the gin context key holding the *router.Match a page renders.
const MatchKey = "route_match"

// Navigator is the minimal interface the middleware depends on
type Navigator interface {
	Visit(ctx context.Context, raw string) (*router.Result, error)
}

// NavigationGuard runs every page load through the navigator. A redirect
// decision becomes a 302 to the final location; otherwise the match is
// stored under MatchKey for the page handler.
func NavigationGuard(nav Navigator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		res, err := nav.Visit(c.Request.Context(), c.Request.URL.RequestURI())
		if err != nil {
			if errors.Is(err, router.ErrRedirectLoop) {
				logger.Errorf("navigation: %s: %v", c.Request.URL.Path, err)
				c.AbortWithStatusJSON(http.StatusLoopDetected, gin.H{"error": "redirect loop"})
				return
			}
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no route", "details": err.Error()})
			return
		}
		if len(res.Redirects) > 0 || res.Match.RedirectedFrom != "" {
			c.Redirect(http.StatusFound, res.Match.FullPath())
			c.Abort()
			return
		}
		c.Set(MatchKey, res.Match)
		c.Next()
	}
}

// CurrentMatch returns the match stored by NavigationGuard.
func CurrentMatch(c *gin.Context) (*router.Match, bool) {
	v, ok := c.Get(MatchKey)
	if !ok {
		return nil, false
	}
	m, ok := v.(*router.Match)
	return m, ok
}
