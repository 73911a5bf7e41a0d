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

	"github.com/inventasur/bodega-api/internal/application/auth"
	appclosure "github.com/inventasur/bodega-api/internal/application/closure"
	appdte "github.com/inventasur/bodega-api/internal/application/dte"
	"github.com/inventasur/bodega-api/internal/application/inventory"
	"github.com/inventasur/bodega-api/internal/application/usecase"
	infradte "github.com/inventasur/bodega-api/internal/infrastructure/dte"
	"github.com/inventasur/bodega-api/internal/infrastructure/postgres"
	"github.com/inventasur/bodega-api/internal/infrastructure/report"
	httpRouter "github.com/inventasur/bodega-api/internal/interfaces/http"
	"github.com/inventasur/bodega-api/pkg/config"
	"github.com/inventasur/bodega-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   "info",
		Service: cfg.App.Name,
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

	companyRepo := postgres.NewCompanyRepository(pool)
	branchRepo := postgres.NewBranchRepository(pool)
	warehouseRepo := postgres.NewWarehouseRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	roleRepo := postgres.NewRoleRepository(pool)
	movementRepo := postgres.NewInventoryMovementRepository(pool)
	closureRepo := postgres.NewInventoryClosureRepository(pool)
	dteRepo := postgres.NewDTEDocumentRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	registerMovementUC := inventory.NewRegisterMovementUseCase(txRunner, productRepo, warehouseRepo)
	listMovementsUC := inventory.NewListMovementsUseCase(movementRepo, warehouseRepo, productRepo)

	reportGen := report.NewClosureReportGenerator()
	closureUC := appclosure.NewUseCase(txRunner, closureRepo, warehouseRepo, productRepo, reportGen)

	dteParser := infradte.NewXMLParser()
	dteUC := appdte.NewUseCase(dteParser, txRunner, dteRepo, warehouseRepo, productRepo, registerMovementUC)

	companyUC := usecase.NewCompanyUseCase(companyRepo)
	branchUC := usecase.NewBranchUseCase(branchRepo)
	warehouseUC := usecase.NewWarehouseUseCase(warehouseRepo, branchRepo)
	customerUC := usecase.NewCustomerUseCase(customerRepo)
	productUC := usecase.NewProductUseCase(productRepo)
	roleUC := usecase.NewRoleUseCase(roleRepo)
	userUC := usecase.NewUserUseCase(userRepo, roleRepo)
	authUC := auth.NewAuthUseCase(userRepo, companyRepo, roleRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

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
		Title:    "Bodega API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:           authUC,
		CompanyUC:        companyUC,
		BranchUC:         branchUC,
		WarehouseUC:      warehouseUC,
		CustomerUC:       customerUC,
		ProductUC:        productUC,
		RoleUC:           roleUC,
		UserUC:           userUC,
		RegisterMovement: registerMovementUC,
		ListMovements:    listMovementsUC,
		ClosureUC:        closureUC,
		DTEUC:            dteUC,
		JWTSecret:        cfg.JWT.Secret,
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
