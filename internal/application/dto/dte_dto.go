package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ImportDTERequest body para POST /api/dte/import. XML en base64 o texto plano
// según Content-Type; el handler lo entrega como bytes.
type ImportDTERequest struct {
	WarehouseID string `json:"warehouse_id" validate:"required,uuid"`
	XML         string `json:"xml" validate:"required"`
}

// ResolveLineRequest asigna manualmente un producto a una línea sin conciliar.
type ResolveLineRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
}

// DTELineResponse salida de una línea del DTE con su conciliación.
type DTELineResponse struct {
	ID          string          `json:"id"`
	LineNumber  int             `json:"line_number"`
	ItemCode    string          `json:"item_code"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
	MatchStatus string          `json:"match_status"`
	MatchScore  float64         `json:"match_score,omitempty"`
	ProductID   string          `json:"product_id,omitempty"`
}

// DTEDocumentResponse salida de un DTE importado.
type DTEDocumentResponse struct {
	ID          string            `json:"id"`
	CompanyID   string            `json:"company_id"`
	WarehouseID string            `json:"warehouse_id"`
	DocType     int               `json:"doc_type"`
	Folio       int64             `json:"folio"`
	IssuerRUT   string            `json:"issuer_rut"`
	IssuerName  string            `json:"issuer_name"`
	IssueDate   time.Time         `json:"issue_date"`
	NetTotal    decimal.Decimal   `json:"net_total"`
	TaxTotal    decimal.Decimal   `json:"tax_total"`
	GrandTotal  decimal.Decimal   `json:"grand_total"`
	Digest      string            `json:"digest"`
	Status      string            `json:"status"`
	Lines       []DTELineResponse `json:"lines"`
	CreatedAt   time.Time         `json:"created_at"`
	AppliedAt   *time.Time        `json:"applied_at,omitempty"`
}

// DTEListResponse lista paginada de DTE importados.
type DTEListResponse struct {
	Items []DTEDocumentResponse `json:"items"`
	Page  PageResponse          `json:"page"`
}
