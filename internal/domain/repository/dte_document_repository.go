package repository

import (
	"context"

	"github.com/inventasur/bodega-api/internal/domain/entity"
)

// DTEDocumentRepository define el puerto de persistencia para DTE importados.
type DTEDocumentRepository interface {
	// Create persiste el documento y sus líneas.
	Create(ctx context.Context, doc *entity.DTEDocument) error
	// GetByID devuelve el documento con sus líneas cargadas.
	GetByID(ctx context.Context, id string) (*entity.DTEDocument, error)
	// GetForUpdate relee el documento con bloqueo de fila; aplicar y descartar
	// re-verifican el estado sobre esta lectura.
	GetForUpdate(ctx context.Context, id string) (*entity.DTEDocument, error)
	// GetByCompanyAndDigest detecta reimportaciones del mismo XML.
	GetByCompanyAndDigest(ctx context.Context, companyID, digest string) (*entity.DTEDocument, error)
	Update(ctx context.Context, doc *entity.DTEDocument) error
	UpdateLine(ctx context.Context, line *entity.DTELine) error
	ListByCompany(ctx context.Context, companyID, status string, limit, offset int) ([]*entity.DTEDocument, error)
}
