package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"Gin_postgres_redis_tool_issuance/app"
	"Gin_postgres_redis_tool_issuance/logger"
	"Gin_postgres_redis_tool_issuance/models"
	"Gin_postgres_redis_tool_issuance/shift"
)

type UserController struct{ *Srv }

func NewUserController(s *Srv) *UserController { return &UserController{Srv: s} }

// GET /api/admin/users
func (uc *UserController) ListAttendants(c *gin.Context) {
	users, err := uc.Store.ListUsers(c.Request.Context(), models.RoleAttendant)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// POST /api/admin/users
func (uc *UserController) CreateAttendant(c *gin.Context) {
	var in struct {
		Username  string `json:"username" binding:"required"`
		Password  string `json:"password" binding:"required"`
		Shift     string `json:"shift"`
		ShiftTime string `json:"shift_time"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	u := &models.User{
		Username: strings.TrimSpace(in.Username),
		Role:     models.RoleAttendant,
		Shift:    strings.ToUpper(strings.TrimSpace(in.Shift)),
	}
	if in.ShiftTime != "" {
		tod, err := shift.ParseTimeOfDay(in.ShiftTime)
		if err != nil {
			c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
			return
		}
		u.ShiftTime = tod
	}

	hash, err := app.HashPassword(in.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	u.PasswordHash = hash
	u.CreatedAt = uc.Now()

	if err := uc.Store.CreateUser(c.Request.Context(), u); err != nil {
		writeError(c, err)
		return
	}
	logger.Info(c.Request.Context()).
		Str("username", u.Username).
		Str("shift", u.Shift).
		Str("shift_time", string(u.ShiftTime)).
		Msg("Attendant created")
	c.JSON(http.StatusCreated, app.H{"success": true, "id": u.ID, "user": u})
}

// DELETE /api/admin/users/:id
func (uc *UserController) DeleteUser(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}

	// Deleting yourself would lock the admin out.
	if me := app.CurrentUser(c); me != nil && me.ID == id {
		c.JSON(http.StatusBadRequest, app.H{"error": "cannot delete yourself"})
		return
	}

	ctx := c.Request.Context()
	target, err := uc.Store.GetUserByID(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	if target.IsAdmin() {
		c.JSON(http.StatusForbidden, app.H{"error": "cannot delete an admin"})
		return
	}

	if err := uc.Store.DeleteUser(ctx, id); err != nil {
		writeError(c, err)
		return
	}
	if err := uc.Sessions.RevokeAllForUser(ctx, id); err != nil {
		logger.Warn(ctx).Err(err).Uint("user_id", id).Msg("Failed to revoke sessions")
	}
	logger.Info(ctx).Str("username", target.Username).Msg("Attendant deleted")
	c.JSON(http.StatusOK, app.H{"ok": true})
}
