package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/yatube/config"
	"github.com/cppla/yatube/middleware"
	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/utils"
)

const (
	msgBadCredentials = "Please enter a correct username and password. Note that both fields may be case-sensitive."
	msgUsernameTaken  = "A user with that username already exists."
	msgBadUsername    = "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
)

// AuthController handles registration, login and logout.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

// SignupForm returns the empty registration form.
func (a *AuthController) SignupForm(ctx *gin.Context) {
	utils.Success(ctx, gin.H{"form": signupForm(nil, nil)})
}

// Signup creates a local account and signs it in.
func (a *AuthController) Signup(ctx *gin.Context) {
	var in signupInput
	errs := map[string]string{}
	if err := ctx.ShouldBind(&in); err != nil {
		fe, ok := fieldErrors(err)
		if !ok {
			utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
			return
		}
		errs = fe
	}

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if _, bad := errs["username"]; !bad {
		if !utils.ValidUsername(in.Username) {
			errs["username"] = msgBadUsername
		} else {
			var n int64
			if err := a.db.Model(&models.User{}).Where("username = ?", in.Username).Count(&n).Error; err != nil {
				serverError(ctx, 50001, "failed to check username", err)
				return
			}
			if n > 0 {
				errs["username"] = msgUsernameTaken
			}
		}
	}

	if len(errs) > 0 {
		values := map[string]any{
			"first_name": in.FirstName,
			"last_name":  in.LastName,
			"username":   in.Username,
			"email":      in.Email,
		}
		utils.Invalid(ctx, 40002, signupForm(values, errs))
		return
	}

	ip := ctx.ClientIP()
	if !utils.SignupCooldownTry(ip) {
		utils.Error(ctx, http.StatusTooManyRequests, 42910, "too many signup attempts, try again later")
		return
	}
	if !utils.SignupDailyLimitCheck(ip) {
		utils.Error(ctx, http.StatusTooManyRequests, 42911, "daily signup limit reached")
		return
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		serverError(ctx, 50002, "failed to hash password", err)
		return
	}
	user := models.User{
		Username:     in.Username,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        in.Email,
		PasswordHash: hash,
	}
	if err := a.db.Create(&user).Error; err != nil {
		serverError(ctx, 50003, "failed to create user", err)
		return
	}
	utils.SignupDailyIncrement(ip)

	token, err := a.issueToken(ctx, user)
	if err != nil {
		serverError(ctx, 50004, "failed to generate token", err)
		return
	}
	utils.Sugar.Infow("user signed up", "user_id", user.ID, "ip", ip)
	utils.Success(ctx, gin.H{"token": token, "user": publicUser(user)})
}

// LoginForm returns the login form, carrying the page to return to.
func (a *AuthController) LoginForm(ctx *gin.Context) {
	utils.Success(ctx, gin.H{"form": loginForm(ctx.Query("next"), nil, nil)})
}

// Login verifies credentials, sets the token cookie and returns to next when it is a local path.
func (a *AuthController) Login(ctx *gin.Context) {
	var in loginInput
	errs := map[string]string{}
	if err := ctx.ShouldBind(&in); err != nil {
		fe, ok := fieldErrors(err)
		if !ok {
			utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
			return
		}
		errs = fe
	}
	next := in.Next
	if next == "" {
		next = ctx.Query("next")
	}

	var user models.User
	if len(errs) == 0 {
		err := a.db.Where("username = ?", strings.TrimSpace(in.Username)).First(&user).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			errs["__all__"] = msgBadCredentials
		case err != nil:
			serverError(ctx, 50005, "failed to load user", err)
			return
		case !utils.CheckPassword(user.PasswordHash, in.Password):
			errs["__all__"] = msgBadCredentials
		}
	}
	if len(errs) > 0 {
		utils.Invalid(ctx, 40004, loginForm(next, map[string]any{"username": in.Username}, errs))
		return
	}

	token, err := a.issueToken(ctx, user)
	if err != nil {
		serverError(ctx, 50006, "failed to generate token", err)
		return
	}
	if safeRedirect(next) {
		ctx.Redirect(http.StatusFound, next)
		return
	}
	utils.Success(ctx, gin.H{"token": token, "user": publicUser(user)})
}

// Logout revokes the presented token until its expiry and clears the cookie.
func (a *AuthController) Logout(ctx *gin.Context) {
	if claims, ok := middleware.Claims(ctx); ok {
		expiresAt := time.Now().Add(time.Duration(config.Get().TokenTTLHours) * time.Hour)
		if claims.ExpiresAt != nil {
			expiresAt = claims.ExpiresAt.Time
		}
		utils.BlacklistToken(claims.ID, expiresAt)
	}
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(middleware.TokenCookie, "", -1, "/", "", false, true)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// issueToken signs a token for user and stores it in the session cookie.
func (a *AuthController) issueToken(ctx *gin.Context, user models.User) (string, error) {
	ttl := time.Duration(config.Get().TokenTTLHours) * time.Hour
	token, err := utils.GenerateToken(user.ID, user.Username, ttl)
	if err != nil {
		return "", err
	}
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(middleware.TokenCookie, token, int(ttl.Seconds()), "/", "", false, true)
	return token, nil
}

// safeRedirect accepts only local absolute paths, never "//host" or a full URL.
func safeRedirect(next string) bool {
	return strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") && !strings.HasPrefix(next, "/\\")
}
