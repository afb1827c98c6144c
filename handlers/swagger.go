package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Header("Content-Type", "application/json")
		c.String(http.StatusOK, swaggerJSON)
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>versebook API docs</title>
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

// Minimal OpenAPI document for the poem and auth surfaces. All /poems and
// /dashboard routes require a Bearer token.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "versebook", "version": "v0.1.0" },
  "paths": {
    "/auth/login": {
      "post": {
        "summary": "Exchange authorization code or credentials for tokens",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"mode":{"type":"string"},"username":{"type":"string"},"password":{"type":"string"},"code":{"type":"string"},"redirect_uri":{"type":"string"}}}}}},
        "responses": { "200": { "description": "tokens and user" } }
      }
    },
    "/auth/refresh": {
      "post": { "summary": "Exchange a refresh token for a new access token", "responses": { "200": { "description": "access token" } } }
    },
    "/auth/logout": {
      "post": { "summary": "Invalidate the refresh session", "responses": { "200": { "description": "logged out" } } }
    },
    "/poems": {
      "get": { "summary": "List public poems, newest first", "responses": { "200": { "description": "rendered list view" } } },
      "post": { "summary": "Create a poem owned by the caller", "responses": { "302": { "description": "redirect to /dashboard" } } }
    },
    "/poems/add": {
      "get": { "summary": "Render the creation form", "responses": { "200": { "description": "rendered form" } } }
    },
    "/poems/{id}": {
      "get": { "summary": "View one poem", "responses": { "200": { "description": "rendered detail view" }, "404": { "description": "not-found page" } } },
      "put": { "summary": "Update an owned poem", "responses": { "302": { "description": "redirect to /dashboard, or to /poems for non-owners" }, "404": { "description": "not-found page" } } },
      "delete": { "summary": "Delete an owned poem", "responses": { "302": { "description": "redirect to /dashboard, or to /poems for non-owners" }, "404": { "description": "not-found page" } } }
    },
    "/poems/edit/{id}": {
      "get": { "summary": "Render the edit form (owner only)", "responses": { "200": { "description": "rendered form" }, "302": { "description": "redirect to /poems for non-owners" }, "404": { "description": "not-found page" } } }
    },
    "/poems/user/{userId}": {
      "get": { "summary": "List a user's public poems", "responses": { "200": { "description": "rendered list view" } } }
    },
    "/poems/{id}/cover": {
      "post": { "summary": "Upload a cover image for an owned poem", "responses": { "302": { "description": "redirect to the poem" } } }
    },
    "/dashboard": {
      "get": { "summary": "List the caller's poems, any status", "responses": { "200": { "description": "rendered dashboard" } } }
    },
    "/api/v1/poems": {
      "get": { "summary": "List public poems as JSON", "responses": { "200": { "description": "poem list" } } },
      "post": { "summary": "Create a poem owned by the caller", "responses": { "201": { "description": "created id" }, "400": { "description": "invalid input" } } }
    },
    "/api/v1/poems/mine": {
      "get": { "summary": "List the caller's poems as JSON, any status", "responses": { "200": { "description": "poem list" } } }
    },
    "/api/v1/poems/{id}": {
      "get": { "summary": "Fetch one poem as JSON", "responses": { "200": { "description": "poem" }, "404": { "description": "not found" } } },
      "patch": { "summary": "Update an owned poem", "responses": { "200": { "description": "updated" }, "403": { "description": "not the owner" }, "404": { "description": "not found" } } },
      "delete": { "summary": "Delete an owned poem", "responses": { "204": { "description": "deleted" }, "403": { "description": "not the owner" }, "404": { "description": "not found" } } }
    },
    "/api/v1/me": {
      "get": { "summary": "Upsert and return the caller's user record", "responses": { "200": { "description": "user" } } }
    }
  }
}`
