package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	appcases "github.com/bipagem/opme-api/internal/application/cases"
	"github.com/bipagem/opme-api/internal/application/dto"
	"github.com/bipagem/opme-api/internal/domain"
	"github.com/bipagem/opme-api/internal/domain/entity"
)

// CaseHandler trata resolução de CPS, sincronização e listagem do cache local.
type CaseHandler struct {
	uc *appcases.CaseSyncUseCase
}

// NewCaseHandler constrói o handler.
func NewCaseHandler(uc *appcases.CaseSyncUseCase) *CaseHandler {
	return &CaseHandler{uc: uc}
}

// Resolve godoc
// @Summary      Resolver um CPS (cache local com fallback remoto)
// @Tags         cases
// @Security     Bearer
// @Produce      json
// @Param        cpsID  path  int  true  "CPS"
// @Success      200    {object}  dto.ResolveCaseResponse
// @Failure      404    {object}  dto.ErrorResponse  "CPS não encontrado nem no diretório remoto"
// @Failure      502    {object}  dto.ErrorResponse  "diretório remoto indisponível"
// @Router       /api/cases/{cpsID} [get]
func (h *CaseHandler) Resolve(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	cpsID, err := c.ParamsInt("cpsID")
	if err != nil || cpsID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_CPS", Message: "cps_id inválido"})
	}

	result, err := h.uc.ResolveCase(c.Context(), int64(cpsID), userID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCaseNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "CASE_NOT_FOUND", Message: "CPS não encontrado"})
		case errors.Is(err, domain.ErrRemoteDirectory):
			return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "DIRECTORY_UNAVAILABLE", Message: "diretório de CPS indisponível"})
		case errors.Is(err, domain.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "erro interno"})
	}

	return c.JSON(dto.ResolveCaseResponse{
		Case:          toCpsDTO(result.Record),
		Cached:        result.FromCache,
		CacheDegraded: result.CacheDegraded,
	})
}

// Sync godoc
// @Summary      Sincronizar CPS por intervalo de datas
// @Tags         cases
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SyncRequest  true  "intervalo yyyy-mm-dd (inclusive)"
// @Success      200   {object}  dto.SyncResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Router       /api/cases/sync [post]
func (h *CaseHandler) Sync(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}

	var req dto.SyncRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corpo inválido"})
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_DATE", Message: "start_date deve ser yyyy-mm-dd"})
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_DATE", Message: "end_date deve ser yyyy-mm-dd"})
	}

	synced, err := h.uc.SyncRange(c.Context(), userID, start, end)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_RANGE", Message: "intervalo de datas inválido"})
		case errors.Is(err, domain.ErrRemoteDirectory):
			return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "DIRECTORY_UNAVAILABLE", Message: "diretório de CPS indisponível"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "erro interno"})
	}
	return c.JSON(dto.SyncResponse{Synced: synced})
}

// List godoc
// @Summary      Listar CPS do cache local
// @Tags         cases
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "itens por página (padrão 20)"
// @Param        offset  query  int  false  "deslocamento"
// @Success      200     {array}  dto.CpsRecordDTO
// @Router       /api/cases [get]
func (h *CaseHandler) List(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}

	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "paginação inválida"})
	}
	page.DefaultPage()

	recs, err := h.uc.ListLocal(c.Context(), userID, page.Limit, page.Offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "erro interno"})
	}
	out := make([]dto.CpsRecordDTO, 0, len(recs))
	for _, r := range recs {
		out = append(out, toCpsDTO(r))
	}
	return c.JSON(out)
}

func toCpsDTO(r *entity.CpsRecord) dto.CpsRecordDTO {
	return dto.CpsRecordDTO{
		CpsID:        r.CpsID,
		Patient:      r.Patient,
		Professional: r.Professional,
		Agreement:    r.Agreement,
		BusinessUnit: r.BusinessUnit,
		OpenedAt:     r.OpenedAt,
	}
}
