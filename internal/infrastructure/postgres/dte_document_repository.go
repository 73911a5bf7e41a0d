package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/inventasur/bodega-api/internal/domain"
	"github.com/inventasur/bodega-api/internal/domain/entity"
	"github.com/inventasur/bodega-api/internal/domain/repository"
)

var _ repository.DTEDocumentRepository = (*DTEDocumentRepo)(nil)

const dteColumns = `id, company_id, warehouse_id, doc_type, folio, issuer_rut, issuer_name, issue_date,
	net_total, tax_total, grand_total, digest, raw_xml, status,
	created_at, updated_at, created_by, applied_at, applied_by`

const dteLineColumns = `id, document_id, line_number, item_code, description,
	quantity, unit_price, line_total, match_status, match_score, product_id`

// DTEDocumentRepo implementación sobre PostgreSQL (usable con pool o tx).
// La unicidad de (company_id, digest) la garantiza un constraint único.
type DTEDocumentRepo struct {
	q Querier
}

// NewDTEDocumentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDTEDocumentRepository(q Querier) *DTEDocumentRepo {
	return &DTEDocumentRepo{q: q}
}

// Create persiste el documento y sus líneas. Devuelve domain.ErrDuplicate si
// ya existe un documento con el mismo digest para la empresa.
func (r *DTEDocumentRepo) Create(ctx context.Context, doc *entity.DTEDocument) error {
	query := `
		INSERT INTO dte_documents (` + dteColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	_, err := r.q.Exec(ctx, query,
		doc.ID, doc.CompanyID, doc.WarehouseID, doc.DocType, doc.Folio,
		doc.IssuerRUT, doc.IssuerName, doc.IssueDate,
		doc.NetTotal, doc.TaxTotal, doc.GrandTotal, doc.Digest, doc.RawXML, doc.Status,
		doc.CreatedAt, doc.UpdatedAt, nullable(doc.CreatedBy), doc.AppliedAt, nullable(doc.AppliedBy),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert dte document: %w", err)
	}
	lineQuery := `
		INSERT INTO dte_lines (` + dteLineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	for _, l := range doc.Lines {
		_, err := r.q.Exec(ctx, lineQuery,
			l.ID, doc.ID, l.LineNumber, l.ItemCode, l.Description,
			l.Quantity, l.UnitPrice, l.LineTotal,
			l.MatchStatus, l.MatchScore, nullable(l.ProductID),
		)
		if err != nil {
			return fmt.Errorf("insert dte line: %w", err)
		}
	}
	return nil
}

func (r *DTEDocumentRepo) scanDocument(row pgx.Row) (*entity.DTEDocument, error) {
	var d entity.DTEDocument
	var createdBy, appliedBy *string
	err := row.Scan(
		&d.ID, &d.CompanyID, &d.WarehouseID, &d.DocType, &d.Folio,
		&d.IssuerRUT, &d.IssuerName, &d.IssueDate,
		&d.NetTotal, &d.TaxTotal, &d.GrandTotal, &d.Digest, &d.RawXML, &d.Status,
		&d.CreatedAt, &d.UpdatedAt, &createdBy, &d.AppliedAt, &appliedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	d.CreatedBy = deref(createdBy)
	d.AppliedBy = deref(appliedBy)
	return &d, nil
}

func (r *DTEDocumentRepo) loadLines(ctx context.Context, doc *entity.DTEDocument) error {
	query := `SELECT ` + dteLineColumns + ` FROM dte_lines WHERE document_id = $1 ORDER BY line_number`
	rows, err := r.q.Query(ctx, query, doc.ID)
	if err != nil {
		return fmt.Errorf("list dte lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l entity.DTELine
		var productID *string
		err := rows.Scan(
			&l.ID, &l.DocumentID, &l.LineNumber, &l.ItemCode, &l.Description,
			&l.Quantity, &l.UnitPrice, &l.LineTotal,
			&l.MatchStatus, &l.MatchScore, &productID,
		)
		if err != nil {
			return fmt.Errorf("scan dte line: %w", err)
		}
		l.ProductID = deref(productID)
		doc.Lines = append(doc.Lines, l)
	}
	return rows.Err()
}

// GetByID devuelve el documento con sus líneas cargadas, o nil.
func (r *DTEDocumentRepo) GetByID(ctx context.Context, id string) (*entity.DTEDocument, error) {
	query := `SELECT ` + dteColumns + ` FROM dte_documents WHERE id = $1`
	doc, err := r.scanDocument(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get dte document: %w", err)
	}
	if doc == nil {
		return nil, nil
	}
	if err := r.loadLines(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// GetForUpdate relee el documento con bloqueo de fila (SELECT FOR UPDATE).
func (r *DTEDocumentRepo) GetForUpdate(ctx context.Context, id string) (*entity.DTEDocument, error) {
	query := `SELECT ` + dteColumns + ` FROM dte_documents WHERE id = $1 FOR UPDATE`
	doc, err := r.scanDocument(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get dte document for update: %w", err)
	}
	if doc == nil {
		return nil, nil
	}
	if err := r.loadLines(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// GetByCompanyAndDigest busca una importación previa del mismo XML, o nil.
func (r *DTEDocumentRepo) GetByCompanyAndDigest(ctx context.Context, companyID, digest string) (*entity.DTEDocument, error) {
	query := `SELECT ` + dteColumns + ` FROM dte_documents WHERE company_id = $1 AND digest = $2`
	doc, err := r.scanDocument(r.q.QueryRow(ctx, query, companyID, digest))
	if err != nil {
		return nil, fmt.Errorf("get dte by digest: %w", err)
	}
	return doc, nil
}

// Update persiste el estado del documento (no toca líneas).
func (r *DTEDocumentRepo) Update(ctx context.Context, doc *entity.DTEDocument) error {
	query := `
		UPDATE dte_documents SET
			status = $2, updated_at = $3, applied_at = $4, applied_by = $5
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		doc.ID, doc.Status, doc.UpdatedAt, doc.AppliedAt, nullable(doc.AppliedBy),
	)
	if err != nil {
		return fmt.Errorf("update dte document: %w", err)
	}
	return nil
}

// UpdateLine persiste la conciliación de una línea.
func (r *DTEDocumentRepo) UpdateLine(ctx context.Context, line *entity.DTELine) error {
	query := `
		UPDATE dte_lines SET
			match_status = $2, match_score = $3, product_id = $4
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		line.ID, line.MatchStatus, line.MatchScore, nullable(line.ProductID),
	)
	if err != nil {
		return fmt.Errorf("update dte line: %w", err)
	}
	return nil
}

// ListByCompany lista documentos de la empresa, más recientes primero.
// status filtra por estado si no viene vacío. No carga líneas.
func (r *DTEDocumentRepo) ListByCompany(ctx context.Context, companyID, status string, limit, offset int) ([]*entity.DTEDocument, error) {
	query := `SELECT ` + dteColumns + ` FROM dte_documents WHERE company_id = $1`
	args := []any{companyID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY issue_date DESC, folio DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list dte documents: %w", err)
	}
	defer rows.Close()
	var list []*entity.DTEDocument
	for rows.Next() {
		doc, err := r.scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan dte document: %w", err)
		}
		list = append(list, doc)
	}
	return list, rows.Err()
}
