package handler

import (
	"net/http"
	"strconv"

	"github.com/Tchelovb/clinicpro-manager-sub008/internal/apierror"
	"github.com/Tchelovb/clinicpro-manager-sub008/internal/dto"
	"github.com/Tchelovb/clinicpro-manager-sub008/internal/middleware"
	"github.com/Tchelovb/clinicpro-manager-sub008/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CaixaHandler struct{ svc service.CaixaService }

func NewCaixaHandler(svc service.CaixaService) *CaixaHandler { return &CaixaHandler{svc: svc} }

// callerIDs extracts the authenticated (clinic, user) pair; clinic scoping
// always comes from the token, never the body.
func callerIDs(c *gin.Context) (clinicID, userID uuid.UUID, ok bool) {
	claims := middleware.GetClaims(c)
	clinicID, err1 := uuid.Parse(claims.ClinicID)
	userID, err2 := uuid.Parse(claims.UserID)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusUnauthorized, apierror.New("Token mal formado"))
		return uuid.Nil, uuid.Nil, false
	}
	return clinicID, userID, true
}

// Open godoc
// @Summary Abre uma nova sessão de caixa
// @Tags caixa
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.OpenSessionRequest true "Dados de abertura"
// @Success 201 {object} dto.SessionResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/caixa/abrir [post]
func (h *CaixaHandler) Open(c *gin.Context) {
	var req dto.OpenSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	clinicID, userID, ok := callerIDs(c)
	if !ok {
		return
	}

	resp, err := h.svc.Open(c.Request.Context(), clinicID, userID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// GetActive returns the caller's open cash session, or 404 when none exists.
func (h *CaixaHandler) GetActive(c *gin.Context) {
	clinicID, userID, ok := callerIDs(c)
	if !ok {
		return
	}
	resp, err := h.svc.GetActive(c.Request.Context(), clinicID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if resp == nil {
		c.JSON(http.StatusNotFound, apierror.New("Sem sessão ativa"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RegisterMovement godoc
// @Summary Registra sangria ou suprimento na sessão aberta
// @Tags caixa
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.MovementRequest true "Movimento manual"
// @Success 204
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/caixa/movimento [post]
func (h *CaixaHandler) RegisterMovement(c *gin.Context) {
	var req dto.MovementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	clinicID, userID, ok := callerIDs(c)
	if !ok {
		return
	}
	if err := h.svc.RegisterMovement(c.Request.Context(), clinicID, userID, req); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RecordExpense registers an expense payment into the ledger.
func (h *CaixaHandler) RecordExpense(c *gin.Context) {
	var req dto.ExpenseRequest
	if !bindAndValidate(c, &req) {
		return
	}
	clinicID, userID, ok := callerIDs(c)
	if !ok {
		return
	}
	if err := h.svc.RecordExpense(c.Request.Context(), clinicID, userID, req); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SettleExpense godoc
// @Summary Baixa uma despesa pendente (conta a pagar)
// @Tags despesas
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID da despesa"
// @Success 204
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/despesas/{id}/pagar [post]
func (h *CaixaHandler) SettleExpense(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	clinicID, _, ok := callerIDs(c)
	if !ok {
		return
	}
	if err := h.svc.SettleExpense(c.Request.Context(), clinicID, id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Conference godoc
// @Summary Totais esperados para a conferência de fechamento
// @Tags caixa
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID da sessão"
// @Success 200 {object} dto.ConferenceResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/caixa/{id}/conferencia [get]
func (h *CaixaHandler) Conference(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	clinicID, _, ok := callerIDs(c)
	if !ok {
		return
	}
	resp, err := h.svc.Conference(c.Request.Context(), clinicID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Close godoc
// @Summary Fecha a sessão com conciliação declarada vs. esperado
// @Tags caixa
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CloseSessionRequest true "Declaração de fechamento"
// @Success 200 {object} dto.CloseSessionResponse
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/caixa/fechar [post]
func (h *CaixaHandler) Close(c *gin.Context) {
	var req dto.CloseSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	clinicID, _, ok := callerIDs(c)
	if !ok {
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.Close(c.Request.Context(), clinicID, claims.Role, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Report returns the full session report with its ledger entries.
func (h *CaixaHandler) Report(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	clinicID, _, ok := callerIDs(c)
	if !ok {
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.Report(c.Request.Context(), clinicID, claims.Role, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// History returns a paginated list of terminal (closed/audit) sessions.
func (h *CaixaHandler) History(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	clinicID, _, ok := callerIDs(c)
	if !ok {
		return
	}
	sessions, total, err := h.svc.History(c.Request.Context(), clinicID, page, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": sessions, "total": total, "page": page, "limit": limit})
}
