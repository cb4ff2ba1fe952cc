package handler

import (
	"net/http"
	"time"

	"github.com/Tchelovb/clinicpro-manager-sub008/internal/apierror"
	"github.com/Tchelovb/clinicpro-manager-sub008/internal/service"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct{ svc service.ReportService }

func NewReportHandler(svc service.ReportService) *ReportHandler { return &ReportHandler{svc: svc} }

// DRE godoc
// @Summary Demonstrativo de resultado do período
// @Tags relatorios
// @Produce json
// @Security BearerAuth
// @Param de query string true "Data inicial (AAAA-MM-DD)"
// @Param ate query string true "Data final (AAAA-MM-DD)"
// @Success 200 {object} dto.DREResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/relatorios/dre [get]
func (h *ReportHandler) DRE(c *gin.Context) {
	from, err := time.Parse("2006-01-02", c.Query("de"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, apierror.New("Parâmetro 'de' inválido, use AAAA-MM-DD"))
		return
	}
	to, err := time.Parse("2006-01-02", c.Query("ate"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, apierror.New("Parâmetro 'ate' inválido, use AAAA-MM-DD"))
		return
	}
	if to.Before(from) {
		c.JSON(http.StatusUnprocessableEntity, apierror.New("Período inválido: 'ate' anterior a 'de'"))
		return
	}
	// inclusive end of day
	to = to.Add(24*time.Hour - time.Nanosecond)

	clinicID, _, ok := callerIDs(c)
	if !ok {
		return
	}
	resp, err := h.svc.DRE(c.Request.Context(), clinicID, from, to)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
