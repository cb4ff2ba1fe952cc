package handler

import (
	"net/http"

	"github.com/Tchelovb/clinicpro-manager-sub008/internal/dto"
	"github.com/Tchelovb/clinicpro-manager-sub008/internal/service"

	"github.com/gin-gonic/gin"
)

type CheckoutHandler struct{ svc service.CheckoutService }

func NewCheckoutHandler(svc service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{svc: svc}
}

// Simulate godoc
// @Summary Simula um plano de pagamento para o perfil de crédito
// @Tags checkout
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.SimulatePlanRequest true "Parâmetros da simulação"
// @Success 200 {object} dto.PlanResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/checkout/simular [post]
func (h *CheckoutHandler) Simulate(c *gin.Context) {
	var req dto.SimulatePlanRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Simulate(req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Confirm godoc
// @Summary Confirma a venda, gera parcelas e lança o recebimento no caixa
// @Tags checkout
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.ConfirmSaleRequest true "Dados da venda"
// @Success 201 {object} dto.SaleResponse
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/checkout/confirmar [post]
func (h *CheckoutHandler) Confirm(c *gin.Context) {
	var req dto.ConfirmSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	clinicID, userID, ok := callerIDs(c)
	if !ok {
		return
	}
	resp, err := h.svc.Confirm(c.Request.Context(), clinicID, userID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
