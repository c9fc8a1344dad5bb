// Package http wires the gin engine: middleware, route groups, and the
// admin/partner split. Campaign administration and redemption recording are
// admin-only; partners operate on their own subtree.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/trellis-inc/trellis/internal/interfaces/http/handlers"
	"github.com/trellis-inc/trellis/internal/interfaces/http/middleware"
	"github.com/trellis-inc/trellis/internal/shared/authorization"
	"github.com/trellis-inc/trellis/internal/shared/logger"
)

type Router struct {
	partnerHandler    *handlers.PartnerHandler
	campaignHandler   *handlers.CampaignHandler
	allocationHandler *handlers.AllocationHandler
	bindingHandler    *handlers.BindingHandler
	hierarchyHandler  *handlers.HierarchyHandler
	authMiddleware    *middleware.AuthMiddleware
}

func NewRouter(
	partnerHandler *handlers.PartnerHandler,
	campaignHandler *handlers.CampaignHandler,
	allocationHandler *handlers.AllocationHandler,
	bindingHandler *handlers.BindingHandler,
	hierarchyHandler *handlers.HierarchyHandler,
	authMiddleware *middleware.AuthMiddleware,
) *Router {
	return &Router{
		partnerHandler:    partnerHandler,
		campaignHandler:   campaignHandler,
		allocationHandler: allocationHandler,
		bindingHandler:    bindingHandler,
		hierarchyHandler:  hierarchyHandler,
		authMiddleware:    authMiddleware,
	}
}

// Setup registers middleware and routes on the engine.
func (r *Router) Setup(engine *gin.Engine) {
	engine.Use(middleware.Recovery())
	engine.Use(middleware.Logger(logger.NewLogger()))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := engine.Group("/api/v1")
	authed := api.Group("", r.authMiddleware.RequireAuth())
	admin := authed.Group("", authorization.RequireAdmin())

	// Partner tree
	admin.POST("/partners", r.partnerHandler.Create)
	authed.GET("/partners", r.partnerHandler.List)
	authed.GET("/partners/:sid", r.partnerHandler.Get)
	authed.GET("/partners/:sid/subtree", r.hierarchyHandler.Subtree)
	authed.GET("/partners/:sid/summary", r.hierarchyHandler.Summary)
	authed.GET("/partners/:sid/utilization", r.hierarchyHandler.Utilization)

	// Invitation codes
	authed.GET("/partners/:sid/codes", r.bindingHandler.Codes)
	authed.POST("/partners/:sid/codes/activate", r.bindingHandler.Activate)

	// Campaign registry
	admin.POST("/campaigns", r.campaignHandler.Create)
	admin.PATCH("/campaigns/:sid", r.campaignHandler.Update)
	admin.PUT("/campaigns/:sid/status", r.campaignHandler.SetStatus)
	admin.POST("/campaigns/:sid/grant", r.campaignHandler.GrantRoot)
	authed.GET("/campaigns", r.campaignHandler.List)
	authed.GET("/campaigns/:sid", r.campaignHandler.Get)

	// Allocation engine
	authed.POST("/allocations", r.allocationHandler.Allocate)
	authed.GET("/allocations/history", r.allocationHandler.History)
	authed.POST("/entries/:sid/revoke", r.allocationHandler.Revoke)

	// Redemptions are written by the downstream signup service, which
	// authenticates with an admin service token.
	admin.POST("/redemptions", r.allocationHandler.Redeem)
	admin.POST("/redemptions/:sid/conversion", r.allocationHandler.MarkConversion)
}
