package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"Gin_postgres_redis_tool_issuance/app"
	"Gin_postgres_redis_tool_issuance/report"
)

type ReportController struct{ *Srv }

func NewReportController(s *Srv) *ReportController { return &ReportController{Srv: s} }

// GET /api/export/issuances?startDate=&endDate=&shift=
func (rc *ReportController) Export(c *gin.Context) {
	var f report.Filter
	if err := c.ShouldBindQuery(&f); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	rows, err := rc.Reports.Issuances(c.Request.Context(), f.ScopedTo(app.CurrentUser(c)))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// GET /api/reports/10-day
func (rc *ReportController) TenDay(c *gin.Context) {
	rows, err := rc.Reports.TenDayExceptions(c.Request.Context(), rc.Now())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"title": "10-Day Shift Report", "generated_at": rc.Now(), "issuances": rows})
}

// GET /api/reports/monthly
func (rc *ReportController) Monthly(c *gin.Context) {
	rows, err := rc.Reports.Monthly(c.Request.Context(), rc.Now())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"title": "Monthly Report", "generated_at": rc.Now(), "issuances": rows})
}

// GET /api/admin/statistics
func (rc *ReportController) Statistics(c *gin.Context) {
	stats, err := rc.Reports.Statistics(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GET /api/attendant/summary; admins may ask for ?attendant=name.
func (rc *ReportController) AttendantSummary(c *gin.Context) {
	u := app.CurrentUser(c)
	attendant := u.Username
	if q := c.Query("attendant"); q != "" && u.IsAdmin() {
		attendant = q
	}
	sum, err := rc.Reports.AttendantSummary(c.Request.Context(), attendant, rc.Now())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// GET /api/attendant/10-day: the caller's own records of the last ten days.
func (rc *ReportController) AttendantTenDay(c *gin.Context) {
	u := app.CurrentUser(c)
	rows, err := rc.Reports.AttendantTenDay(c.Request.Context(), u.Username, rc.Now())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"title": "10-Day Shift Report - " + u.Username, "generated_at": rc.Now(), "issuances": rows})
}
