package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/trellis-inc/trellis/internal/application/partner/usecases"
	"github.com/trellis-inc/trellis/internal/shared/logger"
	"github.com/trellis-inc/trellis/internal/shared/utils"
)

type PartnerHandler struct {
	createPartnerUC *usecases.CreatePartnerUseCase
	getPartnerUC    *usecases.GetPartnerUseCase
	listPartnersUC  *usecases.ListPartnersUseCase
	logger          logger.Interface
}

func NewPartnerHandler(
	createPartnerUC *usecases.CreatePartnerUseCase,
	getPartnerUC *usecases.GetPartnerUseCase,
	listPartnersUC *usecases.ListPartnersUseCase,
) *PartnerHandler {
	return &PartnerHandler{
		createPartnerUC: createPartnerUC,
		getPartnerUC:    getPartnerUC,
		listPartnersUC:  listPartnersUC,
		logger:          logger.NewLogger(),
	}
}

type CreatePartnerRequest struct {
	Name      string `json:"name" binding:"required,min=1,max=100"`
	ParentSID string `json:"parent_sid"`
}

// Create onboards a partner node and mints its invitation code.
func (h *PartnerHandler) Create(c *gin.Context) {
	var req CreatePartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, utils.FormatBindingError(err))
		return
	}

	result, err := h.createPartnerUC.Execute(c.Request.Context(), usecases.CreatePartnerCommand{
		Name:      req.Name,
		ParentSID: req.ParentSID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"partner": toPartnerResponse(result.Partner),
		"code":    toCodeResponse(result.Code),
	})
}

// Get returns a single partner by SID.
func (h *PartnerHandler) Get(c *gin.Context) {
	p, err := h.getPartnerUC.Execute(c.Request.Context(), c.Param("sid"))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, 200, "", toPartnerResponse(p))
}

// List returns partners filtered by parent and level.
func (h *PartnerHandler) List(c *gin.Context) {
	pagination := utils.ParsePagination(c)
	query := usecases.ListPartnersQuery{
		ParentSID: c.Query("parent_sid"),
		Page:      pagination.Page,
		PageSize:  pagination.PageSize,
	}
	if levelStr := c.Query("level"); levelStr != "" {
		level, err := strconv.Atoi(levelStr)
		if err != nil || level < 0 {
			utils.ErrorResponse(c, 400, "invalid level parameter")
			return
		}
		query.Level = &level
	}

	result, err := h.listPartnersUC.Execute(c.Request.Context(), query)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.ListSuccessResponse(c, toPartnerResponses(result.Partners), result.Total, result.Page, result.PageSize)
}
