// controllers/srv.go
package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"Gin_postgres_redis_tool_issuance/app"
	"Gin_postgres_redis_tool_issuance/issuance"
	"Gin_postgres_redis_tool_issuance/ledger"
	"Gin_postgres_redis_tool_issuance/logger"
	"Gin_postgres_redis_tool_issuance/models"
	"Gin_postgres_redis_tool_issuance/report"
	"Gin_postgres_redis_tool_issuance/session"
	"Gin_postgres_redis_tool_issuance/shift"
	"Gin_postgres_redis_tool_issuance/store"
)

type Srv struct {
	Store     store.Store
	Sessions  session.Store
	Issuances *issuance.Service
	Reports   *report.Aggregator
	Cfg       app.Config
	Now       func() time.Time
}

func GetSrv(a *app.App) *Srv {
	now := a.Now
	if now == nil {
		now = time.Now
	}
	return &Srv{
		Store:     a.Store,
		Sessions:  a.Sessions,
		Issuances: a.Issuances,
		Reports:   a.Reports,
		Cfg:       a.Config,
		Now:       now,
	}
}

// --- helpers ---

func (s *Srv) setAppCookie(w http.ResponseWriter, sessionID string, maxAge time.Duration) {
	secure := strings.HasPrefix(s.Cfg.WebOrigin, "https://")
	http.SetCookie(w, &http.Cookie{
		Name:     app.AppSessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
		MaxAge:   int(maxAge / time.Second),
	})
}

func (s *Srv) clearAppCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     app.AppSessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   strings.HasPrefix(s.Cfg.WebOrigin, "https://"),
	})
}

func (s *Srv) issueSession(ctx context.Context, w http.ResponseWriter, u *models.User) error {
	id := uuid.NewString()
	if err := s.Sessions.Create(ctx, id, u); err != nil {
		return err
	}
	s.setAppCookie(w, id, s.Cfg.SessionTTL)
	return nil
}

// writeError maps domain errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	var verr *issuance.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, app.H{"error": verr.Error(), "missing": verr.Missing, "invalid": verr.Invalid})
	case errors.Is(err, shift.ErrInvalidShiftTimeOfDay):
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
	case errors.Is(err, issuance.ErrIssuanceNotFound),
		errors.Is(err, ledger.ErrToolNotFound),
		errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, app.H{"error": err.Error()})
	case errors.Is(err, issuance.ErrNotIssued), errors.Is(err, store.ErrConflict):
		c.JSON(http.StatusConflict, app.H{"error": err.Error()})
	default:
		logger.Error(c.Request.Context()).Err(err).Str("path", c.FullPath()).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
	}
}

func paramInt64(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func paramUint(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 0)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}
