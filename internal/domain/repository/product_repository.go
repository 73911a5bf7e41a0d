package repository

import (
	"github.com/shopspring/decimal"

	"github.com/inventasur/bodega-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
type ProductRepository interface {
	Create(product *entity.Product) error
	GetByID(id string) (*entity.Product, error)
	GetByCompanyAndSKU(companyID, sku string) (*entity.Product, error)
	Update(product *entity.Product) error
	UpdateCost(productID string, cost decimal.Decimal) error
	ListByCompany(companyID string, limit, offset int) ([]*entity.Product, error)
	// ListAllByCompany devuelve el catálogo completo (sin paginar) para la
	// conciliación de DTE.
	ListAllByCompany(companyID string) ([]*entity.Product, error)
	Delete(id string) error
}
