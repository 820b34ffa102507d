// router/router.go

package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gateguard/gateguard/config"
	"github.com/gateguard/gateguard/controller"
	"github.com/gateguard/gateguard/engine"
	"github.com/gateguard/gateguard/middleware"
	"github.com/gateguard/gateguard/util"
)

func SetupRouter(
	eng *engine.Engine,
	policies *config.PolicySet,
	bus *util.EventBus,
	auditController *controller.AuditController,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Admission(eng, policies, bus))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if auditController != nil {
		api := router.Group("/audit")
		auditController.RegisterRoutes(api)
	}

	return router
}
