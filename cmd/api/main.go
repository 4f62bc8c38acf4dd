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

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/application/auth"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/application/billing"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/application/signing"
	appttn "github.com/zhanisana-byte/facturetn-crm-sub001/internal/application/ttn"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/application/usecase"
	infradigigo "github.com/zhanisana-byte/facturetn-crm-sub001/internal/infrastructure/digigo"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/infrastructure/postgres"
	infrateif "github.com/zhanisana-byte/facturetn-crm-sub001/internal/infrastructure/teif"
	infrattn "github.com/zhanisana-byte/facturetn-crm-sub001/internal/infrastructure/ttn"
	httpRouter "github.com/zhanisana-byte/facturetn-crm-sub001/internal/interfaces/http"
	"github.com/zhanisana-byte/facturetn-crm-sub001/pkg/config"
	"github.com/zhanisana-byte/facturetn-crm-sub001/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("chargement de la configuration: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("ttn_env", cfg.TTN.Environment).
		Msg("démarrage de l'application")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("connexion à PostgreSQL")
	}
	defer pool.Close()

	companyRepo := postgres.NewCompanyRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	invoiceRepo := postgres.NewInvoiceRepository(pool)
	credentialRepo := postgres.NewCredentialRepository(pool)
	signatureRepo := postgres.NewSignatureRepository(pool)
	sessionRepo := postgres.NewSignSessionRepository(pool)
	pairingRepo := postgres.NewPairingTokenRepository(pool)
	signTokenRepo := postgres.NewSignTokenRepository(pool)
	queueRepo := postgres.NewQueueRepository(pool)
	eventRepo := postgres.NewEventRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	xmlBuilder := infrateif.NewXMLBuilderService()
	soapClient := infrattn.NewSOAPClient()
	digigoClient := infradigigo.NewClient(infradigigo.Config{
		BaseURL:     cfg.DigiGo.BaseURL,
		ClientID:    cfg.DigiGo.ClientID,
		RedirectURI: cfg.DigiGo.RedirectURI,
	})

	authUC := auth.NewAuthUseCase(userRepo, companyRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	companyUC := usecase.NewCompanyUseCase(companyRepo)
	credentialUC := usecase.NewCredentialUseCase(credentialRepo, companyRepo, log)
	customerUC := billing.NewCustomerUseCase(customerRepo)
	invoiceUC := billing.NewInvoiceUseCase(invoiceRepo, customerRepo, companyRepo)

	// Pipeline El Fatoora: TEIF → saveEfact → consultEfact
	ttnUC := appttn.NewTTNUseCase(
		invoiceRepo, companyRepo, customerRepo, credentialRepo,
		signatureRepo, queueRepo, eventRepo, txRunner,
		xmlBuilder, soapClient,
		appttn.Config{
			DefaultWSURL: cfg.TTN.DefaultWSURL,
			Environment:  cfg.TTN.Environment,
		},
		log,
	)

	// Signature électronique: DigiGo distant et agent local USB
	signingUC := signing.NewUseCase(
		invoiceRepo, companyRepo, customerRepo, credentialRepo,
		signatureRepo, sessionRepo, pairingRepo, signTokenRepo,
		eventRepo, txRunner, xmlBuilder, digigoClient,
		signing.Config{
			Environment: cfg.TTN.Environment,
			PublicURL:   cfg.App.PublicURL,
		},
		log,
	)

	// Traitement des envois différés, dans sa propre goroutine
	scheduler := appttn.NewScheduler(ttnUC, queueRepo, cfg.Scheduler.PollInterval, cfg.Scheduler.BatchSize, log)
	go scheduler.Run(ctx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "FactureTN API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:       authUC,
		CompanyUC:    companyUC,
		CredentialUC: credentialUC,
		CustomerUC:   customerUC,
		InvoiceUC:    invoiceUC,
		TTNUC:        ttnUC,
		SigningUC:    signingUC,
		JWTSecret:    cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("serveur HTTP terminé")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("signal d'arrêt reçu, fermeture du serveur...")
	stop() // arrête le scheduler

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("arrêt du serveur")
	}

	log.Info().Msg("application arrêtée")
}
