package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/inventasur/bodega-api/internal/application/auth"
	appclosure "github.com/inventasur/bodega-api/internal/application/closure"
	appdte "github.com/inventasur/bodega-api/internal/application/dte"
	"github.com/inventasur/bodega-api/internal/application/inventory"
	"github.com/inventasur/bodega-api/internal/application/usecase"
	"github.com/inventasur/bodega-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC           *auth.AuthUseCase
	CompanyUC        *usecase.CompanyUseCase
	BranchUC         *usecase.BranchUseCase
	WarehouseUC      *usecase.WarehouseUseCase
	CustomerUC       *usecase.CustomerUseCase
	ProductUC        *usecase.ProductUseCase
	RoleUC           *usecase.RoleUseCase
	UserUC           *usecase.UserUseCase
	RegisterMovement *inventory.RegisterMovementUseCase
	ListMovements    *inventory.ListMovementsUseCase
	ClosureUC        *appclosure.UseCase
	DTEUC            *appdte.UseCase
	JWTSecret        string
}

// Router registra las rutas de la API. Todo salvo /auth exige Bearer Token;
// las operaciones de escritura exigen además el permiso del rol.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Company (la del token)
	companyHandler := NewCompanyHandler(deps.CompanyUC)
	protected.Get("/company", companyHandler.Get)
	protected.Put("/company", companyHandler.Update)

	// Branches
	branches := protected.Group("/branches")
	branchHandler := NewBranchHandler(deps.BranchUC)
	branches.Get("/", branchHandler.List)
	branches.Get("/:id", branchHandler.GetByID)
	branches.Post("/", RequirePermission(entity.PermBranchesManage), branchHandler.Create)
	branches.Put("/:id", RequirePermission(entity.PermBranchesManage), branchHandler.Update)
	branches.Delete("/:id", RequirePermission(entity.PermBranchesManage), branchHandler.Delete)

	// Warehouses
	warehouses := protected.Group("/warehouses")
	warehouseHandler := NewWarehouseHandler(deps.WarehouseUC)
	warehouses.Get("/", warehouseHandler.List)
	warehouses.Get("/:id", warehouseHandler.GetByID)
	warehouses.Post("/", RequirePermission(entity.PermWarehousesManage), warehouseHandler.Create)
	warehouses.Put("/:id", RequirePermission(entity.PermWarehousesManage), warehouseHandler.Update)
	warehouses.Delete("/:id", RequirePermission(entity.PermWarehousesManage), warehouseHandler.Delete)

	// Customers
	customers := protected.Group("/customers")
	customerHandler := NewCustomerHandler(deps.CustomerUC)
	customers.Get("/", customerHandler.List)
	customers.Get("/:id", customerHandler.GetByID)
	customers.Post("/", RequirePermission(entity.PermCustomersManage), customerHandler.Create)
	customers.Put("/:id", RequirePermission(entity.PermCustomersManage), customerHandler.Update)
	customers.Delete("/:id", RequirePermission(entity.PermCustomersManage), customerHandler.Delete)

	// Products
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Post("/", RequirePermission(entity.PermProductsManage), productHandler.Create)
	products.Put("/:id", RequirePermission(entity.PermProductsManage), productHandler.Update)
	products.Delete("/:id", RequirePermission(entity.PermProductsManage), productHandler.Delete)

	// Inventory movements
	invGroup := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.RegisterMovement, deps.ListMovements)
	invGroup.Get("/movements", inventoryHandler.ListMovements)
	invGroup.Post("/movements", RequirePermission(entity.PermMovementsCreate), inventoryHandler.RegisterMovement)

	// Closures: ciclo de vida del cierre mensual
	closures := protected.Group("/closures")
	closureHandler := NewClosureHandler(deps.ClosureUC)
	closures.Get("/", RequirePermission(entity.PermClosuresView), closureHandler.List)
	closures.Get("/:id", RequirePermission(entity.PermClosuresView), closureHandler.Get)
	closures.Get("/:id/export/xlsx", RequirePermission(entity.PermClosuresView), closureHandler.ExportXLSX)
	closures.Get("/:id/export/pdf", RequirePermission(entity.PermClosuresView), closureHandler.ExportPDF)
	closures.Post("/", RequirePermission(entity.PermClosuresManage), closureHandler.Create)
	closures.Post("/:id/process", RequirePermission(entity.PermClosuresManage), closureHandler.Process)
	closures.Post("/:id/cancel", RequirePermission(entity.PermClosuresManage), closureHandler.Cancel)
	closures.Delete("/:id", RequirePermission(entity.PermClosuresManage), closureHandler.Delete)
	closures.Post("/:id/details/:detailId/count", RequirePermission(entity.PermClosuresManage), closureHandler.RecordCount)
	closures.Post("/:id/approve", RequirePermission(entity.PermClosuresApprove), closureHandler.Approve)
	closures.Post("/:id/close", RequirePermission(entity.PermClosuresApprove), closureHandler.Close)
	closures.Post("/:id/reopen", RequirePermission(entity.PermClosuresApprove), closureHandler.Reopen)

	// DTE: importación y conciliación de facturas de compra
	dteGroup := protected.Group("/dte")
	dteHandler := NewDTEHandler(deps.DTEUC)
	dteGroup.Get("/", dteHandler.List)
	dteGroup.Get("/:id", dteHandler.Get)
	dteGroup.Post("/import", RequirePermission(entity.PermDTEImport), dteHandler.Import)
	dteGroup.Post("/:id/lines/:lineId/resolve", RequirePermission(entity.PermDTEImport), dteHandler.ResolveLine)
	dteGroup.Post("/:id/apply", RequirePermission(entity.PermDTEImport), dteHandler.Apply)
	dteGroup.Post("/:id/discard", RequirePermission(entity.PermDTEImport), dteHandler.Discard)

	// Roles
	roles := protected.Group("/roles", RequirePermission(entity.PermRolesManage))
	roleHandler := NewRoleHandler(deps.RoleUC)
	roles.Get("/", roleHandler.List)
	roles.Get("/:id", roleHandler.GetByID)
	roles.Post("/", roleHandler.Create)
	roles.Put("/:id", roleHandler.Update)
	roles.Delete("/:id", roleHandler.Delete)

	// Users
	users := protected.Group("/users", RequirePermission(entity.PermUsersManage))
	userHandler := NewUserHandler(deps.UserUC)
	users.Get("/", userHandler.List)
	users.Get("/:id", userHandler.GetByID)
	users.Post("/", userHandler.Create)
	users.Put("/:id/role", userHandler.AssignRole)
}
