package middleware

import (
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mindcareplus/mindcare/client/pkg/metrics"
)

// OriginPolicy says which browsers may talk to the shell. The shell attaches
// the stored credential itself, so anything it answers is answered as the user.
type OriginPolicy struct {
	// AllowedOrigins are scheme://host[:port] values of front-ends served
	// elsewhere. Same-origin requests are always allowed.
	AllowedOrigins []string
	// Hosts are extra Host header names to accept besides loopback.
	Hosts []string
}

// LocalOnly enforces p on every request: the Host header must name this
// machine, and a request carrying a foreign Origin is refused without CORS
// headers. Allowed origins get a CORS response for that origin only.
func LocalOnly(p OriginPolicy) gin.HandlerFunc {
	origins := make(map[string]bool, len(p.AllowedOrigins))
	for _, o := range p.AllowedOrigins {
		if o = normalizeOrigin(o); o != "" {
			origins[o] = true
		}
	}
	hosts := make(map[string]bool, len(p.Hosts))
	for _, h := range p.Hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" && h != "0.0.0.0" && h != "::" {
			hosts[h] = true
		}
	}

	return func(c *gin.Context) {
		if !localHost(c.Request.Host, hosts) {
			reject(c, "host", "host not allowed")
			return
		}

		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}
		o := normalizeOrigin(origin)
		if o == "" || (!origins[o] && !sameOrigin(o, c.Request.Host)) {
			reject(c, "origin", "origin not allowed")
			return
		}

		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", o)
		h.Add("Vary", "Origin")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Accept")
		h.Set("Access-Control-Expose-Headers", "Content-Length, Location")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RequireJSON refuses POST, PUT and PATCH requests not declared as JSON.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			c.Next()
			return
		}
		mt, _, err := mime.ParseMediaType(c.GetHeader("Content-Type"))
		if err != nil || mt != "application/json" {
			metrics.ShellRejected.WithLabelValues("content_type").Inc()
			c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{"error": "Content-Type must be application/json"})
			return
		}
		c.Next()
	}
}

func reject(c *gin.Context, reason, msg string) {
	metrics.ShellRejected.WithLabelValues(reason).Inc()
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": msg})
}

func localHost(hostport string, extra map[string]bool) bool {
	host := hostport
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		host = h
	}
	host = strings.ToLower(strings.Trim(host, "[]"))
	if host == "localhost" || extra[host] {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func sameOrigin(origin, host string) bool {
	u, err := url.Parse(origin)
	return err == nil && u.Scheme == "http" && strings.EqualFold(u.Host, host)
}

// normalizeOrigin returns scheme://host[:port] in lower case, "" when o is
// not an http(s) origin.
func normalizeOrigin(o string) string {
	u, err := url.Parse(strings.TrimSpace(o))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	if (u.Path != "" && u.Path != "/") || u.RawQuery != "" || u.User != nil {
		return ""
	}
	return strings.ToLower(u.Scheme + "://" + u.Host)
}
