package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appcases "github.com/bipagem/opme-api/internal/application/cases"
	approles "github.com/bipagem/opme-api/internal/application/rules"
	appscan "github.com/bipagem/opme-api/internal/application/scan"
	"github.com/bipagem/opme-api/internal/infrastructure/cpsdir"
	"github.com/bipagem/opme-api/internal/infrastructure/postgres"
	"github.com/bipagem/opme-api/internal/infrastructure/whatsapp"
	httpRouter "github.com/bipagem/opme-api/internal/interfaces/http"
	"github.com/bipagem/opme-api/internal/metrics"
	"github.com/bipagem/opme-api/pkg/config"
	"github.com/bipagem/opme-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("carregar configuração: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicação")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexão ao PostgreSQL")
	}
	defer pool.Close()

	itemRepo := postgres.NewOpmeItemRepository(pool)
	cpsRepo := postgres.NewCpsRecordRepository(pool)
	ruleRepo := postgres.NewScanRuleRepository(pool)
	linkRepo := postgres.NewScanLinkageRepository(pool)

	m := metrics.New()

	directory := cpsdir.NewClient(cfg.CPSDir)
	caseUC := appcases.NewCaseSyncUseCase(cpsRepo, directory, appcases.Options{
		BusinessUnits: cfg.CPSDir.BusinessUnits,
		LookbackDays:  cfg.CPSDir.LookbackDays,
	}, log, m)

	// Notificador WhatsApp — opcional; sem URL configurada a bipagem segue
	// sem disparo de mensagem.
	var notifier appscan.Notifier
	if cfg.Notify.APIURL != "" {
		notifier = whatsapp.NewNotifier(cfg.Notify)
	}

	scanUC := appscan.NewRecordScanUseCase(itemRepo, cpsRepo, ruleRepo, linkRepo, notifier, log, m)
	ruleUC := approles.NewConfigUseCase(ruleRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Bipagem OPME API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	httpRouter.Router(app, httpRouter.RouterDeps{
		ScanUC:    scanUC,
		CaseUC:    caseUC,
		RuleUC:    ruleUC,
		JWTSecret: cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("sinal de desligamento recebido, encerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("encerramento do servidor")
	}

	log.Info().Msg("aplicação encerrada")
}
