package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/bipagem/opme-api/internal/application/dto"
	approles "github.com/bipagem/opme-api/internal/application/rules"
	"github.com/bipagem/opme-api/internal/domain"
	"github.com/bipagem/opme-api/internal/domain/entity"
)

// RuleHandler administra as regras de bipagem por convênio (somente gestores
// criam e removem; a listagem é aberta a qualquer usuário autenticado).
type RuleHandler struct {
	uc *approles.ConfigUseCase
}

// NewRuleHandler constrói o handler.
func NewRuleHandler(uc *approles.ConfigUseCase) *RuleHandler {
	return &RuleHandler{uc: uc}
}

// Create godoc
// @Summary      Criar regra de bipagem
// @Tags         rules
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateRuleRequest  true  "regra"
// @Success      201   {object}  dto.ScanRuleDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse  "regra duplicada para o mesmo barcode/convênio/tipo"
// @Router       /api/rules [post]
func (h *RuleHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corpo inválido"})
	}

	rule, err := h.uc.Create(c.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_RULE", Message: "campos obrigatórios ausentes ou tipo de regra desconhecido"})
		case errors.Is(err, domain.ErrDuplicate):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE_RULE", Message: "já existe regra deste tipo para o barcode e convênio"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "erro interno"})
	}
	return c.Status(fiber.StatusCreated).JSON(toRuleDTO(rule))
}

// List godoc
// @Summary      Listar regras de bipagem
// @Tags         rules
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ScanRuleDTO
// @Router       /api/rules [get]
func (h *RuleHandler) List(c *fiber.Ctx) error {
	rules, err := h.uc.List(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "erro interno"})
	}
	out := make([]dto.ScanRuleDTO, 0, len(rules))
	for i := range rules {
		out = append(out, toRuleDTO(&rules[i]))
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Remover regra de bipagem
// @Tags         rules
// @Security     Bearer
// @Param        id  path  string  true  "id da regra"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/rules/{id} [delete]
func (h *RuleHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.uc.Delete(c.Context(), id); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_ID", Message: "id inválido"})
		case errors.Is(err, domain.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "RULE_NOT_FOUND", Message: "regra não encontrada"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "erro interno"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func toRuleDTO(r *entity.ScanRule) dto.ScanRuleDTO {
	return dto.ScanRuleDTO{
		ID:                     r.ID,
		OpmeBarcode:            r.OpmeBarcode,
		ConvenioName:           r.ConvenioName,
		RuleType:               r.RuleType,
		Message:                r.Message,
		ReplacementOpmeBarcode: r.ReplacementOpmeBarcode,
		CreatedAt:              r.CreatedAt,
	}
}
