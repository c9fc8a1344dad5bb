package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/trellis-inc/trellis/internal/application/hierarchy/usecases"
	"github.com/trellis-inc/trellis/internal/shared/logger"
	"github.com/trellis-inc/trellis/internal/shared/utils"
)

// HierarchyHandler exposes read-only rollups over the partner tree.
type HierarchyHandler struct {
	subtreeUC            *usecases.SubtreeUseCase
	performanceSummaryUC *usecases.PerformanceSummaryUseCase
	quotaUtilizationUC   *usecases.QuotaUtilizationUseCase
	logger               logger.Interface
}

func NewHierarchyHandler(
	subtreeUC *usecases.SubtreeUseCase,
	performanceSummaryUC *usecases.PerformanceSummaryUseCase,
	quotaUtilizationUC *usecases.QuotaUtilizationUseCase,
) *HierarchyHandler {
	return &HierarchyHandler{
		subtreeUC:            subtreeUC,
		performanceSummaryUC: performanceSummaryUC,
		quotaUtilizationUC:   quotaUtilizationUC,
		logger:               logger.NewLogger(),
	}
}

// Subtree returns a partner and all of its descendants.
func (h *HierarchyHandler) Subtree(c *gin.Context) {
	actorID, actorRole := actorFromContext(c)
	result, err := h.subtreeUC.Execute(c.Request.Context(), usecases.SubtreeQuery{
		PartnerSID:     c.Param("sid"),
		ActorPartnerID: actorID,
		ActorRole:      actorRole,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, 200, "", gin.H{
		"root":        toPartnerResponse(result.Root),
		"descendants": toPartnerResponses(result.Descendants),
	})
}

// Summary returns invitation and conversion totals for a partner,
// optionally rolled up over its subtree and filtered by campaign or time
// window.
func (h *HierarchyHandler) Summary(c *gin.Context) {
	query := usecases.PerformanceSummaryQuery{
		PartnerSID:    c.Param("sid"),
		CampaignSID:   c.Query("campaign_sid"),
		FullHierarchy: c.Query("full_hierarchy") == "true",
	}
	query.ActorPartnerID, query.ActorRole = actorFromContext(c)

	if fromStr := c.Query("from"); fromStr != "" {
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			utils.ErrorResponse(c, 400, "invalid from parameter, expected RFC3339")
			return
		}
		query.From = &from
	}
	if toStr := c.Query("to"); toStr != "" {
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			utils.ErrorResponse(c, 400, "invalid to parameter, expected RFC3339")
			return
		}
		query.To = &to
	}

	summary, err := h.performanceSummaryUC.Execute(c.Request.Context(), query)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, 200, "", summary)
}

// Utilization returns a partner's ledger entries with their stored
// counters and the aggregated totals.
func (h *HierarchyHandler) Utilization(c *gin.Context) {
	actorID, actorRole := actorFromContext(c)
	result, err := h.quotaUtilizationUC.Execute(c.Request.Context(), usecases.QuotaUtilizationQuery{
		PartnerSID:     c.Param("sid"),
		ActorPartnerID: actorID,
		ActorRole:      actorRole,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, 200, "", result)
}
