package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"Gin_postgres_redis_tool_issuance/app"
	"Gin_postgres_redis_tool_issuance/logger"
	"Gin_postgres_redis_tool_issuance/models"
)

type ToolController struct{ *Srv }

func NewToolController(s *Srv) *ToolController { return &ToolController{Srv: s} }

// GET /api/admin/tools
func (tc *ToolController) ListTools(c *gin.Context) {
	tools, err := tc.Store.ListTools(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tools)
}

// GET /api/tools: only what can still be handed out.
func (tc *ToolController) AvailableTools(c *gin.Context) {
	tools, err := tc.Store.ListTools(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]models.Tool, 0, len(tools))
	for _, t := range tools {
		if t.AvailableQuantity > 0 {
			out = append(out, t)
		}
	}
	c.JSON(http.StatusOK, out)
}

type toolInput struct {
	Code        string `json:"tool_code"`
	Description string `json:"description"`
	Quantity    *int   `json:"quantity"`
}

func (in *toolInput) problems() []string {
	var p []string
	in.Code = strings.TrimSpace(in.Code)
	in.Description = strings.TrimSpace(in.Description)
	if in.Code == "" {
		p = append(p, "tool_code is required")
	}
	if in.Description == "" {
		p = append(p, "description is required")
	}
	if in.Quantity == nil {
		p = append(p, "quantity is required")
	} else if *in.Quantity < 0 {
		p = append(p, "quantity must not be negative")
	}
	return p
}

// POST /api/admin/tools
func (tc *ToolController) CreateTool(c *gin.Context) {
	var in toolInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	if p := in.problems(); len(p) > 0 {
		c.JSON(http.StatusBadRequest, app.H{"error": strings.Join(p, "; ")})
		return
	}

	now := tc.Now()
	t := &models.Tool{
		Code:              in.Code,
		Description:       in.Description,
		Quantity:          *in.Quantity,
		AvailableQuantity: *in.Quantity,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := tc.Store.CreateTool(c.Request.Context(), t); err != nil {
		writeError(c, err)
		return
	}
	logger.Info(c.Request.Context()).Str("tool_code", t.Code).Int("quantity", t.Quantity).Msg("Tool added")
	c.JSON(http.StatusCreated, app.H{"success": true, "id": t.ID, "tool": t})
}

// PUT /api/admin/tools/:id changes code, description and total quantity.
// Available stock is left to the ledger.
func (tc *ToolController) UpdateTool(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	var in toolInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	t, err := tc.Store.GetToolByID(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	if code := strings.TrimSpace(in.Code); code != "" {
		t.Code = code
	}
	if desc := strings.TrimSpace(in.Description); desc != "" {
		t.Description = desc
	}
	if in.Quantity != nil {
		if *in.Quantity < 0 {
			c.JSON(http.StatusBadRequest, app.H{"error": "quantity must not be negative"})
			return
		}
		t.Quantity = *in.Quantity
	}
	t.UpdatedAt = tc.Now()

	if err := tc.Store.PutTool(ctx, t); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true, "tool": t})
}

// POST /api/admin/import-tools replaces tools by code; each imported row
// starts with its full quantity available.
func (tc *ToolController) ImportTools(c *gin.Context) {
	var in struct {
		Tools []toolInput `json:"tools" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	now := tc.Now()
	rows := make([]models.Tool, 0, len(in.Tools))
	rowErrors := make([]string, 0)
	for i := range in.Tools {
		r := &in.Tools[i]
		if p := r.problems(); len(p) > 0 {
			rowErrors = append(rowErrors, fmt.Sprintf("Row %d: %s", i+1, strings.Join(p, "; ")))
			continue
		}
		rows = append(rows, models.Tool{
			Code:              r.Code,
			Description:       r.Description,
			Quantity:          *r.Quantity,
			AvailableQuantity: *r.Quantity,
			CreatedAt:         now,
			UpdatedAt:         now,
		})
	}

	if err := tc.Store.ReplaceTools(c.Request.Context(), rows); err != nil {
		writeError(c, err)
		return
	}
	logger.Info(c.Request.Context()).Int("imported", len(rows)).Int("rejected", len(rowErrors)).Msg("Tools imported")
	c.JSON(http.StatusOK, app.H{"success": true, "imported": len(rows), "errors": rowErrors})
}
