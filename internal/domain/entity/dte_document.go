package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un DTE importado.
const (
	DTEPendiente  = "pendiente"  // importado, con líneas sin conciliar
	DTEConciliado = "conciliado" // todas las líneas tienen producto asignado
	DTEAplicado   = "aplicado"   // movimientos IN registrados en inventario
	DTEDescartado = "descartado" // terminal
)

// Resultado de la conciliación de una línea contra el catálogo de productos.
const (
	MatchExacto       = "exacto"           // código interno del emisor == SKU
	MatchCodigoBarras = "codigo_barras"    // coincidencia por código de barras
	MatchAproximado   = "aproximado"       // similitud de descripción normalizada
	MatchManual       = "manual"           // asignado a mano por un usuario
	MatchSinProducto  = "sin_coincidencia" // nadie superó el umbral
)

// DTEDocument representa una factura electrónica importada (documento
// tributario electrónico). Digest es el SHA-256 del XML canonicalizado y
// desambigua reimportaciones del mismo documento.
type DTEDocument struct {
	ID          string
	CompanyID   string
	WarehouseID string // bodega destino al aplicar las entradas

	DocType    int    // código de tipo (33 factura electrónica, 34 exenta, ...)
	Folio      int64  // folio del documento
	IssuerRUT  string // RUT del emisor
	IssuerName string
	IssueDate  time.Time

	NetTotal   decimal.Decimal
	TaxTotal   decimal.Decimal
	GrandTotal decimal.Decimal

	Digest string // SHA-256 hex del XML canonicalizado (C14N)
	RawXML string

	Status    string // ver constantes DTE*
	Lines     []DTELine
	CreatedAt time.Time
	UpdatedAt time.Time
	CreatedBy string
	AppliedAt *time.Time
	AppliedBy string
}

// DTELine representa una línea de detalle del DTE y su conciliación.
type DTELine struct {
	ID          string
	DocumentID  string
	LineNumber  int
	ItemCode    string // código del ítem según el emisor
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal

	MatchStatus string  // ver constantes Match*
	MatchScore  float64 // 0..1, solo para aproximado
	ProductID   string  // vacío si sin_coincidencia
}

// Reconciled indica si todas las líneas tienen producto asignado.
func (d *DTEDocument) Reconciled() bool {
	for _, l := range d.Lines {
		if l.ProductID == "" {
			return false
		}
	}
	return len(d.Lines) > 0
}
