// Package api exposes the mounted dashboard view over HTTP for the browser
// front end.
package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"shuttle-tracker/internal/dashboard"
	"shuttle-tracker/internal/shuttle"
)

type Options struct {
	CORSOrigins []string
}

// NewRouter wires every route onto a fresh gin engine.
func NewRouter(host *dashboard.Host, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger())

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type"},
	}))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.POST("/login", LoginHandler(host))
	api.POST("/logout", LogoutHandler(host))
	api.GET("/session", SessionHandler(host))

	mounted := api.Group("")
	mounted.Use(MountedView(host))
	{
		mounted.GET("/buses", BusesHandler())
		mounted.GET("/notifications", NotificationsHandler())
		mounted.DELETE("/notifications/:id", DismissHandler())
	}

	student := mounted.Group("")
	student.Use(RequireRole(shuttle.RoleStudent))
	{
		student.GET("/routes", RoutesHandler())
		student.PUT("/routes/selected", SelectRouteHandler())
		student.GET("/routes/selected/stops", StopsHandler())
		student.GET("/map", MapHandler())
		student.PUT("/map/key", MapKeyHandler())
	}

	admin := mounted.Group("/admin")
	admin.Use(RequireRole(shuttle.RoleAdmin))
	{
		admin.GET("/buses/stats", StatsHandler())
		admin.POST("/buses", AddBusHandler())
		admin.PUT("/buses/:id", UpdateBusHandler())
		admin.PATCH("/buses/:id/status", BusStatusHandler())
		admin.DELETE("/buses/:id", DeleteBusHandler())
		admin.GET("/notifications", AdminNotificationsHandler())
	}

	return router
}
