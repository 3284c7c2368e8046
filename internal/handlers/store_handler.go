package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/tutor-service/internal/models"
	"github.com/SAP-F-2025/tutor-service/internal/services"
	"github.com/SAP-F-2025/tutor-service/internal/utils"
	"github.com/SAP-F-2025/tutor-service/internal/validator"
)

type StoreHandler struct {
	BaseHandler
	service services.StoreService
}

func NewStoreHandler(service services.StoreService, validator *validator.Validator, logger utils.Logger) *StoreHandler {
	return &StoreHandler{
		BaseHandler: NewBaseHandler(logger, validator),
		service:     service,
	}
}

// GetCatalog lists frames and backgrounds
// @Summary Store catalog
// @Tags store
// @Produce json
// @Success 200 {object} services.StoreCatalog
// @Router /store/catalog [get]
func (h *StoreHandler) GetCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Catalog())
}

// Purchase buys a cosmetic item with points
// @Summary Purchase item
// @Tags store
// @Accept json
// @Produce json
// @Param request body models.StoreItemRequest true "Item"
// @Success 200 {object} models.StudentProfile
// @Failure 409 {object} ErrorResponse "Already owned"
// @Failure 422 {object} ErrorResponse "Not enough points"
// @Router /store/purchase [post]
func (h *StoreHandler) Purchase(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}

	var req models.StoreItemRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	h.LogRequest(c, "Purchasing item", "item_id", req.ItemID)

	profile, err := h.service.Purchase(c.Request.Context(), sess, req.ItemID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// Equip toggles an owned item on or off
// @Summary Equip item
// @Tags store
// @Accept json
// @Produce json
// @Param request body models.StoreItemRequest true "Item"
// @Success 200 {object} models.StudentProfile
// @Failure 409 {object} ErrorResponse "Not owned"
// @Router /store/equip [post]
func (h *StoreHandler) Equip(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}

	var req models.StoreItemRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	profile, err := h.service.Equip(c.Request.Context(), sess, req.ItemID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}
