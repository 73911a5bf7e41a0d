package dte

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/inventasur/bodega-api/internal/domain/repository"
)

// ParsedDTE es el encabezado y detalle extraídos del XML de un DTE.
type ParsedDTE struct {
	DocType    int
	Folio      int64
	IssuerRUT  string
	IssuerName string
	IssueDate  time.Time

	NetTotal   decimal.Decimal
	TaxTotal   decimal.Decimal
	GrandTotal decimal.Decimal

	Lines []ParsedLine
}

// ParsedLine es una línea de detalle extraída del XML.
type ParsedLine struct {
	LineNumber  int
	ItemCode    string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

// Parser extrae los datos de un DTE desde su XML y calcula el digest que
// identifica reimportaciones del mismo documento.
type Parser interface {
	Parse(xml []byte) (*ParsedDTE, error)
	// Digest devuelve el SHA-256 hex del XML canonicalizado (C14N): dos
	// serializaciones del mismo documento producen el mismo digest.
	Digest(xml []byte) (string, error)
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Aplicar un DTE toca documento, stock, costos
// y movimientos: o todo o nada.
type TxRunner interface {
	RunDTE(ctx context.Context, fn func(
		dteRepo repository.DTEDocumentRepository,
		movRepo repository.InventoryMovementRepository,
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
	) error) error
}
