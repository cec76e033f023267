package app

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"Gin_postgres_redis_tool_issuance/logger"
	"Gin_postgres_redis_tool_issuance/models"
	"Gin_postgres_redis_tool_issuance/session"
	"Gin_postgres_redis_tool_issuance/store"
)

const AppSessionCookie = "app_session"

const userKey = "user"

func AuthRequired(sess session.Store, users store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ck, err := c.Request.Cookie(AppSessionCookie)
		if err != nil || ck.Value == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}
		as, err := sess.Get(c.Request.Context(), ck.Value)
		if err != nil {
			if !errors.Is(err, session.ErrNoSession) {
				logger.Error(c.Request.Context()).Err(err).Msg("Failed to load session")
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "invalid session"})
			return
		}

		// The user may have been deleted since login.
		u, err := users.GetUserByID(c.Request.Context(), as.UserID)
		if err != nil {
			_ = sess.Delete(c.Request.Context(), ck.Value)
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}

		l := logger.WithContext(c.Request.Context()).With().Str("user", u.Username).Logger()
		c.Request = c.Request.WithContext(logger.Into(c.Request.Context(), l))
		c.Set(userKey, u)
		c.Next()
	}
}

// AdminOnly must run after AuthRequired.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		u := CurrentUser(c)
		if u == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}
		if !u.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user AuthRequired loaded, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}
