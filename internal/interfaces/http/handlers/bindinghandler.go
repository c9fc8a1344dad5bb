package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/trellis-inc/trellis/internal/application/binding/usecases"
	"github.com/trellis-inc/trellis/internal/shared/logger"
	"github.com/trellis-inc/trellis/internal/shared/utils"
)

// BindingHandler manages the invitation code surface of a partner.
type BindingHandler struct {
	activateCodeUC      *usecases.ActivateCodeUseCase
	getCodesByPartnerUC *usecases.GetCodesByPartnerUseCase
	logger              logger.Interface
}

func NewBindingHandler(
	activateCodeUC *usecases.ActivateCodeUseCase,
	getCodesByPartnerUC *usecases.GetCodesByPartnerUseCase,
) *BindingHandler {
	return &BindingHandler{
		activateCodeUC:      activateCodeUC,
		getCodesByPartnerUC: getCodesByPartnerUC,
		logger:              logger.NewLogger(),
	}
}

// Activate binds all of a partner's codes to its oldest eligible entry.
func (h *BindingHandler) Activate(c *gin.Context) {
	actorID, actorRole := actorFromContext(c)
	result, err := h.activateCodeUC.Execute(c.Request.Context(), usecases.ActivateCodeCommand{
		PartnerSID:     c.Param("sid"),
		ActorPartnerID: actorID,
		ActorRole:      actorRole,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, 200, "codes activated", gin.H{
		"codes": toCodeResponses(result.Codes),
		"entry": toEntryResponse(result.Entry),
	})
}

// Codes lists the partner's invitation codes.
func (h *BindingHandler) Codes(c *gin.Context) {
	actorID, actorRole := actorFromContext(c)
	result, err := h.getCodesByPartnerUC.Execute(c.Request.Context(), usecases.GetCodesByPartnerQuery{
		PartnerSID:     c.Param("sid"),
		ActorPartnerID: actorID,
		ActorRole:      actorRole,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, 200, "", toCodeResponses(result.Codes))
}
