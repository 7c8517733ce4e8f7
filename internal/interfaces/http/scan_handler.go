package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/bipagem/opme-api/internal/application/dto"
	appscan "github.com/bipagem/opme-api/internal/application/scan"
	"github.com/bipagem/opme-api/internal/domain"
)

// ScanHandler trata as requisições HTTP de bipagem e histórico (protegido).
type ScanHandler struct {
	uc *appscan.RecordScanUseCase
}

// NewScanHandler constrói o handler.
func NewScanHandler(uc *appscan.RecordScanUseCase) *ScanHandler {
	return &ScanHandler{uc: uc}
}

// RecordScan godoc
// @Summary      Bipar um OPME para um CPS
// @Tags         scans
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        cpsID  path  int  true  "CPS"
// @Param        body   body  dto.ScanRequest  true  "barcode; confirm_replacement após veredito diverted"
// @Success      200    {object}  dto.ScanResponse  "veredito diverted (nada gravado)"
// @Success      201    {object}  dto.ScanResponse  "bipagem gravada"
// @Failure      400    {object}  dto.ErrorResponse
// @Failure      403    {object}  dto.ErrorResponse  "bloqueado por regra do convênio"
// @Failure      404    {object}  dto.ErrorResponse
// @Router       /api/cases/{cpsID}/scans [post]
func (h *ScanHandler) RecordScan(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	cpsID, err := c.ParamsInt("cpsID")
	if err != nil || cpsID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "CPS inválido"})
	}
	var in dto.ScanRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corpo inválido"})
	}

	result, err := h.uc.RecordScan(c.Context(), userID, appscan.ScanInput{
		CpsID:   int64(cpsID),
		Barcode: in.Barcode,
		Confirm: in.ConfirmReplacement,
	})
	if err != nil {
		var blocked *domain.BlockedError
		switch {
		case errors.As(err, &blocked):
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "OPME_BLOCKED", Message: blocked.Message})
		case errors.Is(err, domain.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "dados inválidos"})
		case errors.Is(err, domain.ErrItemNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "ITEM_NOT_FOUND", Message: domain.ErrItemNotFound.Error()})
		case errors.Is(err, domain.ErrCaseNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "CASE_NOT_FOUND", Message: "CPS não está no cache local; resolva ou sincronize antes"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}

	// Diverted devolve 200 sem gravação; o cliente confirma e reenvia.
	if result.Verdict == "diverted" {
		return c.JSON(result)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// History godoc
// @Summary      Histórico de bipagem de um CPS
// @Tags         scans
// @Security     Bearer
// @Produce      json
// @Param        cpsID  path  int  true  "CPS"
// @Success      200  {array}   dto.LinkedOpmeDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/cases/{cpsID}/scans [get]
func (h *ScanHandler) History(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	cpsID, err := c.ParamsInt("cpsID")
	if err != nil || cpsID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "CPS inválido"})
	}
	list, err := h.uc.History(c.Context(), userID, int64(cpsID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(list)
}

// DeleteLinkage godoc
// @Summary      Remover um vínculo de bipagem
// @Description  MANAGER remove qualquer vínculo; OPERATOR apenas os próprios
//
//	e dentro de uma hora da primeira bipagem.
//
// @Tags         scans
// @Security     Bearer
// @Param        id  path  string  true  "id do vínculo"
// @Success      204
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/scans/{id} [delete]
func (h *ScanHandler) DeleteLinkage(c *fiber.Ctx) error {
	user := SessionUser(c)
	if user.ID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	err := h.uc.DeleteLinkage(c.Context(), user, c.Params("id"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrForbidden):
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "fora da janela de remoção ou vínculo de outro usuário"})
		case errors.Is(err, domain.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "vínculo não encontrado"})
		case errors.Is(err, domain.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id inválido"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DailySummary godoc
// @Summary      Resumo de bipagens do dia por CPS
// @Tags         scans
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.DailySummaryDTO
// @Router       /api/scans/daily-summary [get]
func (h *ScanHandler) DailySummary(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	list, err := h.uc.DailySummary(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(list)
}
