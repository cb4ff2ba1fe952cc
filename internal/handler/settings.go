package handler

import (
	"net/http"

	"github.com/Tchelovb/clinicpro-manager-sub008/internal/dto"
	"github.com/Tchelovb/clinicpro-manager-sub008/internal/service"

	"github.com/gin-gonic/gin"
)

type SettingsHandler struct{ svc service.SettingsService }

func NewSettingsHandler(svc service.SettingsService) *SettingsHandler {
	return &SettingsHandler{svc: svc}
}

// Get godoc
// @Summary Configurações financeiras da clínica
// @Tags configuracoes
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.FinancialSettingsResponse
// @Router /v1/configuracoes/financeiro [get]
func (h *SettingsHandler) Get(c *gin.Context) {
	clinicID, _, ok := callerIDs(c)
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), clinicID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary Atualiza as configurações financeiras da clínica
// @Tags configuracoes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.FinancialSettingsRequest true "Novas configurações"
// @Success 200 {object} dto.FinancialSettingsResponse
// @Router /v1/configuracoes/financeiro [put]
func (h *SettingsHandler) Update(c *gin.Context) {
	var req dto.FinancialSettingsRequest
	if !bindAndValidate(c, &req) {
		return
	}
	clinicID, _, ok := callerIDs(c)
	if !ok {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), clinicID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
