package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"Gin_postgres_redis_tool_issuance/app"
	"Gin_postgres_redis_tool_issuance/controllers"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	s := controllers.GetSrv(a)
	authCtl := controllers.NewAuthController(s)
	userCtl := controllers.NewUserController(s)
	toolCtl := controllers.NewToolController(s)
	issCtl := controllers.NewIssuanceController(s)
	reportCtl := controllers.NewReportController(s)

	authMW := app.AuthRequired(a.Sessions, a.Store)
	adminMW := app.AdminOnly()

	r.GET("/healthz", func(c *app.Ctx) { c.JSON(http.StatusOK, app.H{"ok": true}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/login", authCtl.Login)
	r.POST("/logout", authCtl.Logout)

	api := r.Group("/api", authMW)
	{
		api.GET("/user", authCtl.Me)

		api.GET("/overdue-tools", issCtl.Overdue)
		api.GET("/overdue-tools/count", issCtl.OverdueCount)

		api.GET("/tools", toolCtl.AvailableTools)

		api.POST("/tool-issuances", issCtl.Issue)
		api.GET("/tool-issuances", issCtl.List)
		api.PUT("/tool-issuances/:id/return", issCtl.Return)
		api.PUT("/tool-issuances/:id/lost", issCtl.MarkLost)
		api.PUT("/tool-issuances/:id/clear-overdue", adminMW, issCtl.ClearOverdue)

		api.GET("/export/issuances", reportCtl.Export)
		api.GET("/attendant/summary", reportCtl.AttendantSummary)
		api.GET("/attendant/10-day", reportCtl.AttendantTenDay)
	}

	reports := r.Group("/api/reports", authMW, adminMW)
	{
		reports.GET("/10-day", reportCtl.TenDay)
		reports.GET("/monthly", reportCtl.Monthly)
	}

	admin := r.Group("/api/admin", authMW, adminMW)
	{
		admin.GET("/users", userCtl.ListAttendants)
		admin.POST("/users", userCtl.CreateAttendant)
		admin.DELETE("/users/:id", userCtl.DeleteUser)

		admin.GET("/tools", toolCtl.ListTools)
		admin.POST("/tools", toolCtl.CreateTool)
		admin.PUT("/tools/:id", toolCtl.UpdateTool)
		admin.POST("/import-tools", toolCtl.ImportTools)

		admin.GET("/statistics", reportCtl.Statistics)
	}
}
