// seedadmin crea una empresa con sus roles base (admin, bodeguero, contador)
// y su primer usuario administrador. Pensado para ambientes de desarrollo y
// para el alta inicial de un tenant.
//
// Uso: go run ./cmd/seedadmin -rut 76543210-K -name "Mi Empresa SpA" -email admin@empresa.cl -password <pass>
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/inventasur/bodega-api/internal/application/auth"
	"github.com/inventasur/bodega-api/internal/application/dto"
	"github.com/inventasur/bodega-api/internal/application/usecase"
	"github.com/inventasur/bodega-api/internal/domain/entity"
	"github.com/inventasur/bodega-api/internal/infrastructure/postgres"
	"github.com/inventasur/bodega-api/pkg/config"
	"github.com/inventasur/bodega-api/pkg/logger"
)

func main() {
	rut := flag.String("rut", "", "RUT de la empresa (obligatorio)")
	name := flag.String("name", "", "razón social de la empresa (obligatorio)")
	email := flag.String("email", "", "email del usuario administrador (obligatorio)")
	password := flag.String("password", "", "contraseña del administrador (obligatorio, mínimo 8)")
	adminName := flag.String("admin-name", "Administrador", "nombre del usuario administrador")
	flag.Parse()

	if *rut == "" || *name == "" || *email == "" || len(*password) < 8 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: "info", Service: "seedadmin"})

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	userRepo := postgres.NewUserRepository(pool)
	companyRepo := postgres.NewCompanyRepository(pool)
	roleRepo := postgres.NewRoleRepository(pool)

	authUC := auth.NewAuthUseCase(userRepo, companyRepo, roleRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	// Empresa + rol admin + primer usuario
	user, err := authUC.Register(dto.RegisterRequest{
		Email:       *email,
		Password:    *password,
		Name:        *adminName,
		CompanyName: *name,
		CompanyRUT:  *rut,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("crear empresa y administrador")
	}
	log.Info().
		Str("company_id", user.CompanyID).
		Str("user_id", user.ID).
		Str("email", user.Email).
		Msg("empresa y administrador creados")

	// Roles operativos adicionales
	roleUC := usecase.NewRoleUseCase(roleRepo)
	extra := []dto.CreateRoleRequest{
		{
			Name:        "bodeguero",
			Description: "Opera bodegas: movimientos, cierres y conteos físicos",
			Permissions: []string{
				entity.PermMovementsCreate,
				entity.PermClosuresView,
				entity.PermClosuresManage,
				entity.PermDTEImport,
			},
		},
		{
			Name:        "contador",
			Description: "Revisa y aprueba cierres; solo lectura del resto",
			Permissions: []string{
				entity.PermClosuresView,
				entity.PermClosuresApprove,
			},
		},
	}
	for _, r := range extra {
		role, err := roleUC.Create(user.CompanyID, r)
		if err != nil {
			log.Fatal().Err(err).Str("role", r.Name).Msg("crear rol")
		}
		log.Info().Str("role_id", role.ID).Str("role", role.Name).Msg("rol creado")
	}
}
