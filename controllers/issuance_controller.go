package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"Gin_postgres_redis_tool_issuance/app"
	"Gin_postgres_redis_tool_issuance/issuance"
	"Gin_postgres_redis_tool_issuance/logger"
	"Gin_postgres_redis_tool_issuance/store"
)

type IssuanceController struct{ *Srv }

func NewIssuanceController(s *Srv) *IssuanceController { return &IssuanceController{Srv: s} }

// POST /api/tool-issuances
func (ic *IssuanceController) Issue(c *gin.Context) {
	var req issuance.IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	req.Attendant = app.CurrentUser(c).Username

	is, err := ic.Issuances.Issue(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app.H{"success": true, "id": is.ID, "issuance": is})
}

// GET /api/tool-issuances: attendants only see what they issued.
func (ic *IssuanceController) List(c *gin.Context) {
	var f store.IssuanceFilter
	if u := app.CurrentUser(c); !u.IsAdmin() {
		f.Attendant = u.Username
	}
	rows, err := ic.Issuances.List(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// PUT /api/tool-issuances/:id/return
func (ic *IssuanceController) Return(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	var in issuance.ReturnInput
	if err := c.ShouldBindJSON(&in); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	is, err := ic.Issuances.Return(c.Request.Context(), id, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true, "issuance": is})
}

// PUT /api/tool-issuances/:id/lost
func (ic *IssuanceController) MarkLost(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	var in struct {
		Comments string `json:"comments"`
	}
	// The body is optional; only a malformed one is rejected.
	if err := c.ShouldBindJSON(&in); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	is, err := ic.Issuances.MarkLost(c.Request.Context(), id, in.Comments)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true, "issuance": is})
}

// PUT /api/tool-issuances/:id/clear-overdue
func (ic *IssuanceController) ClearOverdue(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	is, err := ic.Issuances.ClearOverdue(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	logger.Info(ctx).
		Int64("issuance_id", id).
		Str("cleared_by", app.CurrentUser(c).Username).
		Msg("Overdue alert cleared by admin")
	c.JSON(http.StatusOK, app.H{"success": true, "issuance": is})
}

// GET /api/overdue-tools
func (ic *IssuanceController) Overdue(c *gin.Context) {
	rows, err := ic.Issuances.ListOverdue(c.Request.Context(), ic.Now())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// GET /api/overdue-tools/count
func (ic *IssuanceController) OverdueCount(c *gin.Context) {
	rows, err := ic.Issuances.ListOverdue(c.Request.Context(), ic.Now())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"count": len(rows)})
}
