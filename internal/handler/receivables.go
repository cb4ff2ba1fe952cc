package handler

import (
	"net/http"
	"time"

	"github.com/Tchelovb/clinicpro-manager-sub008/internal/apierror"
	"github.com/Tchelovb/clinicpro-manager-sub008/internal/dto"
	"github.com/Tchelovb/clinicpro-manager-sub008/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReceivablesHandler struct{ svc service.ReceivablesService }

func NewReceivablesHandler(svc service.ReceivablesService) *ReceivablesHandler {
	return &ReceivablesHandler{svc: svc}
}

// List godoc
// @Summary Parcelas pendentes com vencimento até a data informada
// @Tags recebiveis
// @Produce json
// @Security BearerAuth
// @Param ate query string false "Data limite (AAAA-MM-DD); padrão: 30 dias à frente"
// @Success 200 {object} map[string]interface{}
// @Router /v1/recebiveis [get]
func (h *ReceivablesHandler) List(c *gin.Context) {
	clinicID, _, ok := callerIDs(c)
	if !ok {
		return
	}

	until := time.Now().AddDate(0, 1, 0)
	if raw := c.Query("ate"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, apierror.New("Parâmetro 'ate' inválido, use AAAA-MM-DD"))
			return
		}
		until = parsed.Add(24*time.Hour - time.Nanosecond)
	}

	items, err := h.svc.ListDue(c.Request.Context(), clinicID, until)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

// Settle godoc
// @Summary Baixa uma parcela recebida, lançando o valor no caixa
// @Tags recebiveis
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID da parcela"
// @Param body body dto.SettleInstallmentRequest true "Forma de pagamento"
// @Success 204
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/recebiveis/{id}/pagar [post]
func (h *ReceivablesHandler) Settle(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	var req dto.SettleInstallmentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	clinicID, userID, ok := callerIDs(c)
	if !ok {
		return
	}
	if err := h.svc.Settle(c.Request.Context(), clinicID, userID, id, req); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Forgive godoc
// @Summary Concede desconto integral (perdão) em uma parcela pendente
// @Tags recebiveis
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID da parcela"
// @Success 204
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/recebiveis/{id}/perdoar [post]
func (h *ReceivablesHandler) Forgive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	clinicID, _, ok := callerIDs(c)
	if !ok {
		return
	}
	if err := h.svc.Forgive(c.Request.Context(), clinicID, id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
