package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/invosell/factura-api/internal/application/auth"
	"github.com/invosell/factura-api/internal/application/billing"
	"github.com/invosell/factura-api/internal/application/usecase"
	infrahacienda "github.com/invosell/factura-api/internal/infrastructure/hacienda"
	"github.com/invosell/factura-api/internal/infrastructure/hacienda/signer"
	"github.com/invosell/factura-api/internal/infrastructure/notify"
	infrapdf "github.com/invosell/factura-api/internal/infrastructure/pdf"
	"github.com/invosell/factura-api/internal/infrastructure/postgres"
	"github.com/invosell/factura-api/internal/infrastructure/rates"
	httpRouter "github.com/invosell/factura-api/internal/interfaces/http"
	"github.com/invosell/factura-api/pkg/config"
	"github.com/invosell/factura-api/pkg/logger"
	"github.com/invosell/factura-api/pkg/secrets"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	vault, err := secrets.NewVault(cfg.Secrets.MasterKey)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar la bóveda de credenciales")
	}

	companyRepo := postgres.NewCompanyRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	clientRepo := postgres.NewClientRepository(pool)
	docRepo := postgres.NewDocumentRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	xmlBuilder := infrahacienda.NewXMLBuilder()
	signerSvc := signer.NewXAdESService()
	idpClient := infrahacienda.NewIDPClient(cfg.Hacienda.IDPTokenURL, cfg.Hacienda.ClientID, cfg.Hacienda.Timeout)
	apiClient := infrahacienda.NewAPIClient(cfg.Hacienda.APIBaseURL, cfg.Hacienda.Timeout)
	ratesClient := rates.NewClient(cfg.Hacienda.RatesURL)
	mailer := notify.NewMailer(cfg.SMTP)

	// Orquestador: XML v4.4 → XAdES-EPES → envío al API de recepción
	orchestrator := billing.NewOrchestrator(
		docRepo, companyRepo, clientRepo,
		xmlBuilder, signerSvc, idpClient, apiClient,
		vault, cfg.Hacienda.ProveedorSistemas, log,
	)

	createDocumentUC := billing.NewCreateDocumentUseCase(
		txRunner, companyRepo, clientRepo, docRepo,
		ratesClient, orchestrator, cfg.Hacienda.CountryCode, log,
	)
	statusUC := billing.NewStatusUseCase(
		docRepo, companyRepo, clientRepo,
		idpClient, apiClient, vault, mailer, log,
	)

	pdfGenerator := infrapdf.NewMarotoPDFGenerator()
	pdfUC := billing.NewPDFUseCase(docRepo, companyRepo, clientRepo, pdfGenerator)

	companyUC := usecase.NewCompanyUseCase(companyRepo, vault)
	userUC := usecase.NewUserUseCase(userRepo)
	clientUC := billing.NewClientUseCase(clientRepo)
	authUC := auth.NewAuthUseCase(userRepo, companyRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Factura API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		CompanyUC:      companyUC,
		ClientUC:       clientUC,
		CreateDocument: createDocumentUC,
		StatusUC:       statusUC,
		PDFUC:          pdfUC,
		AuthUC:         authUC,
		UserUC:         userUC,
		JWTSecret:      cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
