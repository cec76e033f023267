package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"Gin_postgres_redis_tool_issuance/app"
	"Gin_postgres_redis_tool_issuance/logger"
	"Gin_postgres_redis_tool_issuance/store"
)

type AuthController struct{ *Srv }

func NewAuthController(s *Srv) *AuthController { return &AuthController{Srv: s} }

// POST /login
func (ac *AuthController) Login(c *gin.Context) {
	var in struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	u, err := ac.Store.GetUser(ctx, in.Username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		writeError(c, err)
		return
	}
	if u == nil || !app.CheckPassword(u.PasswordHash, in.Password) {
		logger.Warn(ctx).Str("username", in.Username).Msg("Login rejected")
		c.JSON(http.StatusUnauthorized, app.H{"error": "Invalid credentials"})
		return
	}

	if err := ac.issueSession(ctx, c.Writer, u); err != nil {
		writeError(c, err)
		return
	}
	logger.Info(ctx).Str("username", u.Username).Str("role", u.Role).Msg("User logged in")
	c.JSON(http.StatusOK, app.H{"success": true, "user": u})
}

// POST /logout
func (ac *AuthController) Logout(c *gin.Context) {
	if ck, err := c.Request.Cookie(app.AppSessionCookie); err == nil && ck.Value != "" {
		_ = ac.Sessions.Delete(c.Request.Context(), ck.Value)
	}
	ac.clearAppCookie(c.Writer)
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// GET /api/user
func (ac *AuthController) Me(c *gin.Context) {
	c.JSON(http.StatusOK, app.H{"user": app.CurrentUser(c)})
}
