package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/contablebot/portal-api/internal/application/ports"
	"github.com/contablebot/portal-api/internal/application/usecase"
	infracache "github.com/contablebot/portal-api/internal/infrastructure/cache"
	infrapdf "github.com/contablebot/portal-api/internal/infrastructure/pdf"
	"github.com/contablebot/portal-api/internal/infrastructure/postgres"
	infrastorage "github.com/contablebot/portal-api/internal/infrastructure/storage"
	httpRouter "github.com/contablebot/portal-api/internal/interfaces/http"
	"github.com/contablebot/portal-api/pkg/config"
	"github.com/contablebot/portal-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
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

	firmRepo := postgres.NewFirmRepository(pool)
	clientRepo := postgres.NewClientRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	invoiceRepo := postgres.NewInvoiceRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Caché de planes: opcional, sin REDIS_URL se consulta siempre la DB.
	var planCache ports.PlanCache
	if cfg.Redis.URL != "" {
		rdb, err := infracache.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			log.Warn().Err(err).Msg("redis no disponible, caché de planes desactivada")
		} else {
			defer rdb.Close()
			planCache = infracache.NewRedisPlanCache(rdb)
		}
	}
	plans := usecase.NewPlanService(firmRepo, planCache, cfg.Redis.PlanTTL, log)

	// Imágenes de facturas: sin S3_BUCKET la carga responde 409.
	var objectStorage ports.ObjectStorage
	if cfg.Storage.Enabled() {
		s3, err := infrastorage.NewS3Storage(ctx, cfg.Storage)
		if err != nil {
			log.Fatal().Err(err).Msg("configuración de S3")
		}
		objectStorage = s3
	} else {
		log.Warn().Msg("S3_BUCKET vacío, carga de facturas deshabilitada")
	}

	clientUC := usecase.NewClientUseCase(clientRepo, invoiceRepo, userRepo, txRunner)
	invoiceUC := usecase.NewInvoiceUseCase(invoiceRepo, clientRepo, userRepo, firmRepo, plans, objectStorage,
		usecase.UploadLimits{MaxFiles: cfg.Upload.MaxFiles, MaxFileBytes: cfg.Upload.MaxFileBytes},
		log.Component("invoices"))
	userUC := usecase.NewUserUseCase(userRepo, clientRepo, firmRepo, plans, txRunner)
	reportUC := usecase.NewReportUseCase(invoiceRepo, clientRepo, userRepo, firmRepo, infrapdf.NewReport606PDF())

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    cfg.HTTP.BodyLimitMB << 20,
		ReadTimeout:  time.Second * 30,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.HTTP.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders: strings.Join([]string{
			fiber.HeaderContentDisposition,
			fiber.HeaderXRequestID,
		}, ", "),
	}))
	app.Use(httpRouter.RequestLogger(log.Component("http")))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "ContableBot Portal API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := pool.Ping(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": cfg.App.Name})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		ClientUC:  clientUC,
		InvoiceUC: invoiceUC,
		UserUC:    userUC,
		ReportUC:  reportUC,
		Plans:     plans,
		JWTSecret: cfg.JWT.Secret,
		Logger:    log.Component("api"),
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
