package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the shell.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>mindcare-client · Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// Minimal OpenAPI document describing the shell's own endpoints.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "mindcare-client", "version": "v0.1.0" },
  "paths": {
    "/actions/login": {
      "post": {
        "summary": "Sign in with email and password",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["email","password"],"properties":{"email":{"type":"string"},"password":{"type":"string"},"redirect":{"type":"string"}}}}}},
        "responses": { "200": { "description": "session established" }, "401": { "description": "bad credentials" }, "429": { "description": "rate limited" } }
      }
    },
    "/actions/register": {
      "post": {
        "summary": "Create an account and sign in",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["email","password"],"properties":{"email":{"type":"string"},"password":{"type":"string"}}}}}},
        "responses": { "200": { "description": "session established" }, "400": { "description": "rejected by the API" }, "429": { "description": "rate limited" } }
      }
    },
    "/actions/logout": { "post": { "summary": "Clear the local session", "responses": { "200": { "description": "logged out" } } } },
    "/actions/refresh": { "post": { "summary": "Re-read the profile from /me", "responses": { "200": { "description": "current session" }, "401": { "description": "session cleared" } } } },
    "/actions/status": { "get": { "summary": "Session and navigation state", "responses": { "200": { "description": "status" } } } },
    "/data/checkins": { "get": { "summary": "Recent check-ins", "parameters": [{"name":"limit","in":"query","schema":{"type":"integer","default":7}}], "responses": { "200": { "description": "check-ins" } } } },
    "/data/bookings": { "post": { "summary": "Book a counselor slot", "responses": { "200": { "description": "booking" }, "402": { "description": "premium required" }, "409": { "description": "slot taken" } } } },
    "/data/analytics/overview": { "get": { "summary": "Usage overview, null when unavailable", "responses": { "200": { "description": "overview or null" } } } },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
