package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/trellis-inc/trellis/internal/application/allocation/usecases"
	bindingUsecases "github.com/trellis-inc/trellis/internal/application/binding/usecases"
	"github.com/trellis-inc/trellis/internal/shared/logger"
	"github.com/trellis-inc/trellis/internal/shared/utils"
)

// AllocationHandler exposes the allocation engine: sub-allocation,
// revocation, redemption, and allocation history.
type AllocationHandler struct {
	allocateToChildUC   *usecases.AllocateToChildUseCase
	revokeFromChildUC   *usecases.RevokeFromChildUseCase
	consumeUC           *usecases.ConsumeUseCase
	allocationHistoryUC *usecases.AllocationHistoryUseCase
	markConversionUC    *bindingUsecases.MarkConversionUseCase
	logger              logger.Interface
}

func NewAllocationHandler(
	allocateToChildUC *usecases.AllocateToChildUseCase,
	revokeFromChildUC *usecases.RevokeFromChildUseCase,
	consumeUC *usecases.ConsumeUseCase,
	allocationHistoryUC *usecases.AllocationHistoryUseCase,
	markConversionUC *bindingUsecases.MarkConversionUseCase,
) *AllocationHandler {
	return &AllocationHandler{
		allocateToChildUC:   allocateToChildUC,
		revokeFromChildUC:   revokeFromChildUC,
		consumeUC:           consumeUC,
		allocationHistoryUC: allocationHistoryUC,
		markConversionUC:    markConversionUC,
		logger:              logger.NewLogger(),
	}
}

type AllocateRequest struct {
	SourceEntrySID  string `json:"source_entry_sid" binding:"required"`
	ChildPartnerSID string `json:"child_partner_sid" binding:"required"`
	Amount          int64  `json:"amount" binding:"required,gt=0"`
}

// Allocate moves quota from the caller's entry to a direct child partner.
func (h *AllocationHandler) Allocate(c *gin.Context) {
	var req AllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, utils.FormatBindingError(err))
		return
	}

	actorID, actorRole := actorFromContext(c)
	result, err := h.allocateToChildUC.Execute(c.Request.Context(), usecases.AllocateToChildCommand{
		SourceEntrySID:  req.SourceEntrySID,
		ChildPartnerSID: req.ChildPartnerSID,
		Amount:          req.Amount,
		ActorPartnerID:  actorID,
		ActorRole:       actorRole,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"child_entry":  toEntryResponse(result.ChildEntry),
		"source_entry": toEntryResponse(result.SourceEntry),
	})
}

type RevokeRequest struct {
	Amount int64 `json:"amount" binding:"gte=0"`
	All    bool  `json:"all"`
}

// Revoke claws back available quota from a child entry into its parent.
func (h *AllocationHandler) Revoke(c *gin.Context) {
	var req RevokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, utils.FormatBindingError(err))
		return
	}

	actorID, actorRole := actorFromContext(c)
	result, err := h.revokeFromChildUC.Execute(c.Request.Context(), usecases.RevokeFromChildCommand{
		ChildEntrySID:  c.Param("sid"),
		Amount:         req.Amount,
		All:            req.All,
		ActorPartnerID: actorID,
		ActorRole:      actorRole,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, 200, "quota revoked", gin.H{
		"child_entry":    toEntryResponse(result.ChildEntry),
		"parent_entry":   toEntryResponse(result.ParentEntry),
		"revoked_amount": result.RevokedAmount,
	})
}

type RedeemRequest struct {
	Code          string `json:"code" binding:"required"`
	InvitedUserID uint   `json:"invited_user_id" binding:"required"`
}

// Redeem spends one unit of quota through an invitation code. Called by the
// downstream signup service.
func (h *AllocationHandler) Redeem(c *gin.Context) {
	var req RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, utils.FormatBindingError(err))
		return
	}

	result, err := h.consumeUC.Execute(c.Request.Context(), usecases.ConsumeCommand{
		CodeValue:     req.Code,
		InvitedUserID: req.InvitedUserID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"redemption": toRedemptionResponse(result.Redemption),
		"entry":      toEntryResponse(result.Entry),
	})
}

// History lists the quota grants one partner made to another.
func (h *AllocationHandler) History(c *gin.Context) {
	actorID, actorRole := actorFromContext(c)
	result, err := h.allocationHistoryUC.Execute(c.Request.Context(), usecases.AllocationHistoryQuery{
		GranterPartnerSID: c.Query("granter_sid"),
		HolderPartnerSID:  c.Query("holder_sid"),
		ActorPartnerID:    actorID,
		ActorRole:         actorRole,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, 200, "", toEntryResponses(result.Entries))
}

// MarkConversion records that an invited user converted downstream.
func (h *AllocationHandler) MarkConversion(c *gin.Context) {
	result, err := h.markConversionUC.Execute(c.Request.Context(), bindingUsecases.MarkConversionCommand{
		RedemptionSID: c.Param("sid"),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, 200, "conversion recorded", toRedemptionResponse(result.Redemption))
}
