package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/yatube/config"
	"github.com/cppla/yatube/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setTestConfig(t *testing.T) {
	t.Helper()
	config.Set(config.AppConfig{JWTSecret: "middleware-secret", RateLimitPerMinute: 60})
	utils.SetRedis(nil)
}

func whoamiRouter() *gin.Engine {
	r := gin.New()
	r.Use(Identify())
	r.GET("/whoami", func(ctx *gin.Context) {
		id, ok := UserID(ctx)
		ctx.JSON(http.StatusOK, gin.H{"id": id, "ok": ok, "username": Username(ctx)})
	})
	r.GET("/private/", LoginRequired(), func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "secret")
	})
	return r
}

func TestIdentifyFromHeaderAndCookie(t *testing.T) {
	setTestConfig(t)
	token, err := utils.GenerateToken(7, "alice", time.Hour)
	require.NoError(t, err)
	r := whoamiRouter()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.JSONEq(t, `{"id":7,"ok":true,"username":"alice"}`, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: token})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.JSONEq(t, `{"id":7,"ok":true,"username":"alice"}`, w.Body.String())
}

func TestIdentifyLeavesBadTokensAnonymous(t *testing.T) {
	setTestConfig(t)
	expired, err := utils.GenerateToken(7, "alice", -time.Minute)
	require.NoError(t, err)
	revoked, err := utils.GenerateToken(8, "bob", time.Hour)
	require.NoError(t, err)
	claims, err := utils.ParseToken(revoked)
	require.NoError(t, err)
	utils.BlacklistToken(claims.ID, claims.ExpiresAt.Time)

	r := whoamiRouter()
	for name, header := range map[string]string{
		"garbage": "Bearer not-a-jwt",
		"expired": "Bearer " + expired,
		"revoked": "Bearer " + revoked,
		"scheme":  "Basic " + revoked,
	} {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.JSONEq(t, `{"id":0,"ok":false,"username":""}`, w.Body.String(), name)
	}
}

func TestLoginRequiredRedirects(t *testing.T) {
	setTestConfig(t)
	r := whoamiRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/private/?x=1", nil))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login/?next=%2Fprivate%2F%3Fx%3D1", w.Header().Get("Location"))

	token, err := utils.GenerateToken(1, "alice", time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/private/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "secret", w.Body.String())
}

func TestLoginRedirectURLUsesConfiguredLogin(t *testing.T) {
	config.Set(config.AppConfig{JWTSecret: "x", LoginURL: "/signin/"})
	assert.Equal(t, "/signin/?next=%2Fcreate%2F", LoginRedirectURL("/create/"))
}
