package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/yatube/config"
	"github.com/cppla/yatube/utils"
)

const (
	// ContextUserIDKey is the key used to store authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextUsernameKey stores the username inside Gin context.
	ContextUsernameKey = "username"
	// ContextClaimsKey stores the parsed token claims.
	ContextClaimsKey = "claims"
	// TokenCookie is the cookie carrying the JWT for browser clients.
	TokenCookie = "token"
)

// Identify resolves the viewer from a bearer header or the token cookie.
// Missing, invalid and revoked tokens leave the request anonymous.
func Identify() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString := BearerToken(ctx)
		if tokenString == "" {
			ctx.Next()
			return
		}
		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			utils.Sugar.Debugf("ignoring invalid token: %v", err)
			ctx.Next()
			return
		}
		if utils.IsTokenBlacklisted(claims.ID) {
			ctx.Next()
			return
		}
		ctx.Set(ContextClaimsKey, claims)
		ctx.Set(ContextUserIDKey, claims.UserID)
		ctx.Set(ContextUsernameKey, claims.Username)
		ctx.Next()
	}
}

// LoginRequired sends anonymous viewers to the login page, remembering where they were going.
func LoginRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if _, ok := UserID(ctx); ok {
			ctx.Next()
			return
		}
		ctx.Redirect(http.StatusFound, LoginRedirectURL(ctx.Request.URL.RequestURI()))
		ctx.Abort()
	}
}

// LoginRedirectURL builds "<login url>?next=<escaped target>".
func LoginRedirectURL(next string) string {
	return config.Get().LoginURL + "?" + url.Values{"next": {next}}.Encode()
}

// BearerToken extracts the raw token from the Authorization header or the token cookie.
func BearerToken(ctx *gin.Context) string {
	if authHeader := ctx.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if c, err := ctx.Cookie(TokenCookie); err == nil {
		return strings.TrimSpace(c)
	}
	return ""
}

// UserID returns the authenticated user id, if any.
func UserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(ContextUserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok && id != 0
}

// Username returns the authenticated username, if any.
func Username(ctx *gin.Context) string {
	return ctx.GetString(ContextUsernameKey)
}

// Claims returns the parsed token claims of the authenticated viewer.
func Claims(ctx *gin.Context) (*utils.Claims, bool) {
	value, exists := ctx.Get(ContextClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*utils.Claims)
	return claims, ok
}
