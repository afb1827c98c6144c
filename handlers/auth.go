package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/versebook/versebook/internal/config"
	"github.com/versebook/versebook/internal/render"
	"github.com/versebook/versebook/internal/sessions"
	"github.com/versebook/versebook/internal/tokens"
	"github.com/versebook/versebook/internal/users"
	"github.com/versebook/versebook/pkg/logger"
	"github.com/versebook/versebook/pkg/middleware"
)

// LoginRequest supports password-mode login (dev/testing) and the
// authorization-code exchange used by the web frontend.
type LoginRequest struct {
	Mode        string `json:"mode" binding:"required"` // "password" | "auth_code"
	Username    string `json:"username"`
	Password    string `json:"password"`
	Code        string `json:"code"`
	RedirectURI string `json:"redirect_uri"`
}

// AuthHandler implements the login/session backend in front of the OIDC
// provider. The poem handlers never see any of this; they only read the
// claims the auth middleware puts on the context.
type AuthHandler struct {
	cfg         *config.Config
	usersSvc    *users.Service
	sessionsSvc *sessions.Service
	verifier    middleware.Verifier
	render      render.Renderer
}

func NewAuthHandler(cfg *config.Config, u *users.Service, s *sessions.Service, ver middleware.Verifier, r render.Renderer) *AuthHandler {
	return &AuthHandler{cfg: cfg, usersSvc: u, sessionsSvc: s, verifier: ver, render: r}
}

// Register mounts the login page and the /auth endpoints.
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/", h.LoginPage)
	a := rg.Group("/auth")
	a.POST("/login", h.Login)
	a.POST("/refresh", h.Refresh)
	a.POST("/logout", h.Logout)
}

// LoginPage renders the public landing/login view.
func (h *AuthHandler) LoginPage(c *gin.Context) {
	h.render.HTML(c, http.StatusOK, render.ViewLogin, gin.H{})
}

// Login exchanges credentials or an authorization code for tokens, upserts
// the user from the verified claims and opens a refresh session.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Mode != "password" && req.Mode != "auth_code" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported mode"})
		return
	}
	if h.cfg.OIDC.IssuerURL == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "identity provider not configured"})
		return
	}

	grant := url.Values{}
	grant.Set("client_id", h.cfg.OIDC.ClientID)
	grant.Set("client_secret", h.cfg.OIDC.ClientSecret)
	if req.Mode == "password" {
		grant.Set("grant_type", "password")
		grant.Set("username", req.Username)
		grant.Set("password", req.Password)
	} else {
		if req.Code == "" || req.RedirectURI == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "code and redirect_uri required for auth_code mode"})
			return
		}
		grant.Set("grant_type", "authorization_code")
		grant.Set("code", req.Code)
		grant.Set("redirect_uri", req.RedirectURI)
	}
	grant.Set("scope", "openid profile email")

	tr, err := h.requestToken(c.Request.Context(), grant)
	if err != nil {
		logger.Errorf("token exchange (%s) failed: %v", req.Mode, err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
		return
	}

	claims, err := h.verifyIDToken(c.Request.Context(), tr.IDToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid id token"})
		return
	}
	u, err := h.usersSvc.UpsertFromClaims(c.Request.Context(), claims)
	if err != nil || u == nil {
		logger.Errorf("user upsert failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user upsert failed"})
		return
	}

	rft, err := h.sessionsSvc.CreateSession(c.Request.Context(), u.Sub, h.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		logger.Errorf("failed to create session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}
	access, err := tokens.GenerateAccessToken(h.cfg, u, h.cfg.JWT.AccessTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create access token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"accessToken":  access,
		"refreshToken": rft,
		"user":         u,
		"expiresIn":    int(h.cfg.JWT.AccessTokenTTL.Seconds()),
	})
}

// Refresh accepts a refresh token and returns a new access token
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, err := h.sessionsSvc.ValidateRefresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "validation failed"})
		return
	}
	if sess == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	u, err := h.usersSvc.GetBySub(c.Request.Context(), sess.Sub)
	if err != nil || u == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user lookup failed"})
		return
	}
	access, err := tokens.GenerateAccessToken(h.cfg, u, h.cfg.JWT.AccessTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create access token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": access, "expires_in": int(h.cfg.JWT.AccessTokenTTL.Seconds())})
}

// Logout invalidates the refresh session and blacklists the presented access
// token for its remaining lifetime.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if at, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); ok && at != "" {
		if exp, err := parseExpFromJWT(at); err == nil {
			if ttl := time.Until(exp); ttl > 0 {
				if err := sessions.BlacklistAccessToken(c.Request.Context(), at, ttl); err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to blacklist access token"})
					return
				}
			}
		}
	}
	if err := h.sessionsSvc.DeleteRefresh(c.Request.Context(), req.RefreshToken); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	IDToken     string `json:"id_token"`
}

// requestToken posts a grant to the provider's token endpoint.
func (h *AuthHandler) requestToken(ctx context.Context, form url.Values) (*tokenResponse, error) {
	tokenURL := strings.TrimRight(h.cfg.OIDC.IssuerURL, "/") + "/protocol/openid-connect/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, string(b))
	}
	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, err
	}
	if tr.IDToken == "" {
		return nil, fmt.Errorf("token response missing id_token")
	}
	return &tr, nil
}

// verifyIDToken validates the id_token with the configured verifier. Without
// a verifier (insecure integration mode) the payload claims are parsed
// without signature verification.
func (h *AuthHandler) verifyIDToken(ctx context.Context, raw string) (map[string]interface{}, error) {
	var claims map[string]interface{}
	if h.verifier != nil {
		tok, err := h.verifier.Verify(ctx, raw)
		if err != nil {
			return nil, err
		}
		if err := tok.Claims(&claims); err != nil {
			return nil, err
		}
		return claims, nil
	}
	b, err := decodeJWTPayload(raw)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(b, &claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func decodeJWTPayload(tok string) ([]byte, error) {
	parts := strings.Split(tok, ".")
	if len(parts) < 2 {
		return nil, fmt.Errorf("invalid token")
	}
	b, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		// fall back to padded encoding
		return base64.URLEncoding.DecodeString(parts[1])
	}
	return b, nil
}

// parseExpFromJWT decodes the JWT payload and returns the `exp` claim.
// Payload-only parsing, no signature verification; used to size the
// blacklist TTL.
func parseExpFromJWT(tok string) (time.Time, error) {
	b, err := decodeJWTPayload(tok)
	if err != nil {
		return time.Time{}, err
	}
	var claims struct {
		Exp float64 `json:"exp"`
	}
	if err := json.Unmarshal(b, &claims); err != nil {
		return time.Time{}, err
	}
	if claims.Exp == 0 {
		return time.Time{}, fmt.Errorf("exp claim not present")
	}
	return time.Unix(int64(claims.Exp), 0), nil
}
