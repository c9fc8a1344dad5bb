package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	allocationUsecases "github.com/trellis-inc/trellis/internal/application/allocation/usecases"
	"github.com/trellis-inc/trellis/internal/application/campaign/usecases"
	"github.com/trellis-inc/trellis/internal/domain/campaign"
	"github.com/trellis-inc/trellis/internal/shared/logger"
	"github.com/trellis-inc/trellis/internal/shared/utils"
)

type CampaignHandler struct {
	createCampaignUC    *usecases.CreateCampaignUseCase
	updateCampaignUC    *usecases.UpdateCampaignUseCase
	getCampaignUC       *usecases.GetCampaignUseCase
	listCampaignsUC     *usecases.ListCampaignsUseCase
	setCampaignStatusUC *usecases.SetCampaignStatusUseCase
	grantRootUC         *allocationUsecases.GrantRootUseCase
	logger              logger.Interface
}

func NewCampaignHandler(
	createCampaignUC *usecases.CreateCampaignUseCase,
	updateCampaignUC *usecases.UpdateCampaignUseCase,
	getCampaignUC *usecases.GetCampaignUseCase,
	listCampaignsUC *usecases.ListCampaignsUseCase,
	setCampaignStatusUC *usecases.SetCampaignStatusUseCase,
	grantRootUC *allocationUsecases.GrantRootUseCase,
) *CampaignHandler {
	return &CampaignHandler{
		createCampaignUC:    createCampaignUC,
		updateCampaignUC:    updateCampaignUC,
		getCampaignUC:       getCampaignUC,
		listCampaignsUC:     listCampaignsUC,
		setCampaignStatusUC: setCampaignStatusUC,
		grantRootUC:         grantRootUC,
		logger:              logger.NewLogger(),
	}
}

type CreateCampaignRequest struct {
	OwnerPartnerSID    string    `json:"owner_partner_sid" binding:"required"`
	TotalAllocated     int64     `json:"total_allocated" binding:"required,gt=0"`
	RenewalRequirement int64     `json:"renewal_requirement" binding:"gte=0"`
	StartDate          time.Time `json:"start_date" binding:"required"`
	EndDate            time.Time `json:"end_date" binding:"required"`
}

// Create issues a campaign grant to a top-level partner.
func (h *CampaignHandler) Create(c *gin.Context) {
	var req CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, utils.FormatBindingError(err))
		return
	}

	result, err := h.createCampaignUC.Execute(c.Request.Context(), usecases.CreateCampaignCommand{
		OwnerPartnerSID:    req.OwnerPartnerSID,
		TotalAllocated:     req.TotalAllocated,
		RenewalRequirement: req.RenewalRequirement,
		StartDate:          req.StartDate,
		EndDate:            req.EndDate,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, toCampaignResponse(result.Campaign))
}

type UpdateCampaignRequest struct {
	TotalAllocated     *int64     `json:"total_allocated"`
	RenewalRequirement *int64     `json:"renewal_requirement"`
	StartDate          *time.Time `json:"start_date"`
	EndDate            *time.Time `json:"end_date"`
}

// Update edits campaign dates, renewal requirement, or tops up the
// allocation.
func (h *CampaignHandler) Update(c *gin.Context) {
	var req UpdateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, utils.FormatBindingError(err))
		return
	}

	result, err := h.updateCampaignUC.Execute(c.Request.Context(), usecases.UpdateCampaignCommand{
		CampaignSID:        c.Param("sid"),
		TotalAllocated:     req.TotalAllocated,
		RenewalRequirement: req.RenewalRequirement,
		StartDate:          req.StartDate,
		EndDate:            req.EndDate,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, 200, "campaign updated", toCampaignResponse(result.Campaign))
}

// Get returns a single campaign by SID.
func (h *CampaignHandler) Get(c *gin.Context) {
	result, err := h.getCampaignUC.Execute(c.Request.Context(), c.Param("sid"))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, 200, "", toCampaignResponse(result))
}

// List returns campaigns filtered by status and owner.
func (h *CampaignHandler) List(c *gin.Context) {
	pagination := utils.ParsePagination(c)
	result, err := h.listCampaignsUC.Execute(c.Request.Context(), usecases.ListCampaignsQuery{
		Status:          c.Query("status"),
		OwnerPartnerSID: c.Query("owner_partner_sid"),
		Page:            pagination.Page,
		PageSize:        pagination.PageSize,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	campaigns := make([]CampaignResponse, 0, len(result.Campaigns))
	for _, cam := range result.Campaigns {
		campaigns = append(campaigns, toCampaignResponse(cam))
	}
	utils.ListSuccessResponse(c, campaigns, result.Total, result.Page, result.PageSize)
}

type SetCampaignStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetStatus moves a campaign through its lifecycle, cascading into the
// ledger tree.
func (h *CampaignHandler) SetStatus(c *gin.Context) {
	var req SetCampaignStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, utils.FormatBindingError(err))
		return
	}

	result, err := h.setCampaignStatusUC.Execute(c.Request.Context(), usecases.SetCampaignStatusCommand{
		CampaignSID: c.Param("sid"),
		Status:      campaign.Status(req.Status),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, 200, "campaign status updated", toCampaignResponse(result.Campaign))
}

type GrantRootRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// GrantRoot creates the campaign's root ledger entry, handing the full
// grant to the owner partner.
func (h *CampaignHandler) GrantRoot(c *gin.Context) {
	var req GrantRootRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, utils.FormatBindingError(err))
		return
	}

	result, err := h.grantRootUC.Execute(c.Request.Context(), allocationUsecases.GrantRootCommand{
		CampaignSID: c.Param("sid"),
		Amount:      req.Amount,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, toEntryResponse(result.Entry))
}
