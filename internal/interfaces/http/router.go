// Package http expõe a API REST (fiber) da bipagem de OPME: resolução e
// sincronização de CPS, bipagem com veredito, histórico e regras.
package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/bipagem/opme-api/internal/application/cases"
	"github.com/bipagem/opme-api/internal/application/rules"
	"github.com/bipagem/opme-api/internal/application/scan"
	"github.com/bipagem/opme-api/internal/domain/entity"
)

// RouterDeps dependências do router.
type RouterDeps struct {
	ScanUC    *scan.RecordScanUseCase
	CaseUC    *cases.CaseSyncUseCase
	RuleUC    *rules.ConfigUseCase
	JWTSecret string
}

// Router registra as rotas da API. Tudo exige Bearer token; a administração
// de regras exige papel MANAGER.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	// CPS (cache local + diretório remoto)
	caseHandler := NewCaseHandler(deps.CaseUC)
	casesGroup := api.Group("/cases")
	casesGroup.Get("/", caseHandler.List)
	casesGroup.Post("/sync", caseHandler.Sync)
	casesGroup.Get("/:cpsID", caseHandler.Resolve)

	// Bipagem (veredito + vínculo)
	scanHandler := NewScanHandler(deps.ScanUC)
	casesGroup.Post("/:cpsID/scans", scanHandler.RecordScan)
	casesGroup.Get("/:cpsID/scans", scanHandler.History)

	scansGroup := api.Group("/scans")
	scansGroup.Get("/daily-summary", scanHandler.DailySummary)
	scansGroup.Delete("/:id", scanHandler.DeleteLinkage)

	// Regras por convênio (mutações restritas a gestores)
	ruleHandler := NewRuleHandler(deps.RuleUC)
	rulesGroup := api.Group("/rules")
	rulesGroup.Get("/", ruleHandler.List)
	rulesGroup.Post("/", RequireRole(entity.RoleManager), ruleHandler.Create)
	rulesGroup.Delete("/:id", RequireRole(entity.RoleManager), ruleHandler.Delete)
}
