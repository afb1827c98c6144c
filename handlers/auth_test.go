package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/versebook/versebook/internal/config"
	"github.com/versebook/versebook/internal/models"
	"github.com/versebook/versebook/internal/render"
	"github.com/versebook/versebook/internal/sessions"
	"github.com/versebook/versebook/internal/users"
)

// fake user repo
type fakeUserRepo struct{}

func (f *fakeUserRepo) UpsertBySub(ctx context.Context, u *models.User) (*models.User, error) {
	u.ID = "uid-1"
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	return u, nil
}

func (f *fakeUserRepo) GetBySub(ctx context.Context, sub string) (*models.User, error) {
	return &models.User{Sub: sub, Email: "a@b.c", Name: "Alice"}, nil
}

// fake sessions repo
type fakeSessionsRepo struct {
	store map[string]*sessions.Session
}

func (f *fakeSessionsRepo) Create(ctx context.Context, s *sessions.Session) error {
	if f.store == nil {
		f.store = map[string]*sessions.Session{}
	}
	f.store[s.RefreshToken] = s
	return nil
}
func (f *fakeSessionsRepo) GetByRefresh(ctx context.Context, refresh string) (*sessions.Session, error) {
	s, ok := f.store[refresh]
	if !ok {
		return nil, nil
	}
	return s, nil
}
func (f *fakeSessionsRepo) DeleteByRefresh(ctx context.Context, refresh string) error {
	delete(f.store, refresh)
	return nil
}

// recordingRenderer captures rendered views for assertions
type recordingRenderer struct {
	views []string
}

func (r *recordingRenderer) HTML(c *gin.Context, status int, view string, data gin.H) {
	r.views = append(r.views, view)
	c.String(status, view)
}

func newTestHandler(cfg *config.Config) (*AuthHandler, *fakeSessionsRepo, *recordingRenderer) {
	uSvc := users.NewService(&fakeUserRepo{})
	repo := &fakeSessionsRepo{}
	sSvc := sessions.NewService(repo)
	rr := &recordingRenderer{}
	return NewAuthHandler(cfg, uSvc, sSvc, nil, rr), repo, rr
}

func TestLoginAuthCodeSuccess(t *testing.T) {
	// craft an id_token with payload claims (verifier nil -> payload parse)
	claims := map[string]interface{}{"sub": "test-sub", "email": "a@b.c", "name": "Alice"}
	b, _ := json.Marshal(claims)
	idToken := "hdr." + base64.RawURLEncoding.EncodeToString(b) + ".sig"

	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "at", "id_token": idToken})
	}))
	defer tokenSrv.Close()

	cfg := &config.Config{}
	cfg.OIDC.IssuerURL = tokenSrv.URL
	cfg.OIDC.ClientID = "cid"
	cfg.OIDC.ClientSecret = "csecret"
	cfg.JWT.Secret = "login-test-secret-32-bytes-xxxxx"
	cfg.JWT.AccessTokenTTL = 15 * time.Minute
	cfg.JWT.RefreshTokenTTL = time.Hour

	h, repo, _ := newTestHandler(cfg)

	r := gin.New()
	h.Register(r.Group("/"))

	reqBody := `{"mode":"auth_code","code":"abc","redirect_uri":"http://localhost/cb"}`
	req := httptest.NewRequest("POST", "/auth/login", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.NotEmpty(t, got["accessToken"])
	assert.NotEmpty(t, got["refreshToken"])
	// session stored for the verified subject
	rft, _ := got["refreshToken"].(string)
	sess, err := repo.GetByRefresh(context.Background(), rft)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "test-sub", sess.Sub)
}

func TestLoginRejectsUnsupportedMode(t *testing.T) {
	cfg := &config.Config{}
	h, _, _ := newTestHandler(cfg)

	r := gin.New()
	h.Register(r.Group("/"))

	req := httptest.NewRequest("POST", "/auth/login", strings.NewReader(`{"mode":"magic"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefreshFlow(t *testing.T) {
	cfg := &config.Config{}
	cfg.JWT.Secret = "refresh-test-secret-32-bytes-xxx"
	cfg.JWT.AccessTokenTTL = 15 * time.Minute
	h, _, _ := newTestHandler(cfg)

	// seed a session
	rft, err := h.sessionsSvc.CreateSession(context.Background(), "sub-9", time.Hour)
	require.NoError(t, err)

	r := gin.New()
	h.Register(r.Group("/"))

	req := httptest.NewRequest("POST", "/auth/refresh", strings.NewReader(`{"refresh_token":"`+rft+`"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.NotEmpty(t, got["access_token"])

	// unknown refresh token is rejected
	req2 := httptest.NewRequest("POST", "/auth/refresh", strings.NewReader(`{"refresh_token":"nope"}`))
	req2.Header.Set("Content-Type", "application/json")
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req2)
	require.Equal(t, http.StatusUnauthorized, w2.Code)
}

func TestLogoutRemovesSession(t *testing.T) {
	cfg := &config.Config{}
	h, repo, _ := newTestHandler(cfg)

	rft, err := h.sessionsSvc.CreateSession(context.Background(), "sub-2", time.Hour)
	require.NoError(t, err)

	r := gin.New()
	h.Register(r.Group("/"))

	req := httptest.NewRequest("POST", "/auth/logout", strings.NewReader(`{"refresh_token":"`+rft+`"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	sess, err := repo.GetByRefresh(context.Background(), rft)
	require.NoError(t, err)
	require.Nil(t, sess)
}

func TestLoginPageRendersLoginView(t *testing.T) {
	cfg := &config.Config{}
	h, _, rr := newTestHandler(cfg)

	r := gin.New()
	h.Register(r.Group("/"))

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []string{render.ViewLogin}, rr.views)
}

func TestParseExpFromJWT(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	payload, _ := json.Marshal(map[string]interface{}{"exp": exp})
	tok := "hdr." + base64.RawURLEncoding.EncodeToString(payload) + ".sig"

	got, err := parseExpFromJWT(tok)
	require.NoError(t, err)
	assert.Equal(t, exp, got.Unix())

	_, err = parseExpFromJWT("garbage")
	require.Error(t, err)
}
