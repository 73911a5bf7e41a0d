// Package dte implementa la importación de facturas electrónicas (DTE) y su
// conciliación contra el catálogo: import → conciliar líneas → aplicar las
// entradas al inventario, o descartar.
package dte

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/inventasur/bodega-api/internal/application/dto"
	"github.com/inventasur/bodega-api/internal/application/inventory"
	"github.com/inventasur/bodega-api/internal/domain"
	domdte "github.com/inventasur/bodega-api/internal/domain/dte"
	"github.com/inventasur/bodega-api/internal/domain/entity"
	"github.com/inventasur/bodega-api/internal/domain/repository"
)

// UseCase casos de uso de importación y conciliación de DTE.
type UseCase struct {
	parser        Parser
	txRunner      TxRunner
	dteRepo       repository.DTEDocumentRepository
	warehouseRepo repository.WarehouseRepository
	productRepo   repository.ProductRepository
	movements     *inventory.RegisterMovementUseCase
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	parser Parser,
	txRunner TxRunner,
	dteRepo repository.DTEDocumentRepository,
	warehouseRepo repository.WarehouseRepository,
	productRepo repository.ProductRepository,
	movements *inventory.RegisterMovementUseCase,
) *UseCase {
	return &UseCase{
		parser:        parser,
		txRunner:      txRunner,
		dteRepo:       dteRepo,
		warehouseRepo: warehouseRepo,
		productRepo:   productRepo,
		movements:     movements,
	}
}

// Import parsea el XML, detecta reimportaciones por digest y concilia cada
// línea contra el catálogo de la empresa. El documento queda pendiente (o
// conciliado si todas las líneas encontraron producto); nada toca el
// inventario todavía.
func (uc *UseCase) Import(ctx context.Context, companyID, userID string, in dto.ImportDTERequest) (*dto.DTEDocumentResponse, error) {
	wh, err := uc.warehouseRepo.GetByID(in.WarehouseID)
	if err != nil {
		return nil, err
	}
	if wh == nil || wh.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}

	raw := []byte(in.XML)
	digest, err := uc.parser.Digest(raw)
	if err != nil {
		return nil, fmt.Errorf("calculando digest del DTE: %w", err)
	}
	existing, err := uc.dteRepo.GetByCompanyAndDigest(ctx, companyID, digest)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDTEAlreadyImported
	}

	parsed, err := uc.parser.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parseando DTE: %w", err)
	}

	catalog, err := uc.productRepo.ListAllByCompany(companyID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	doc := &entity.DTEDocument{
		ID:          uuid.New().String(),
		CompanyID:   companyID,
		WarehouseID: in.WarehouseID,
		DocType:     parsed.DocType,
		Folio:       parsed.Folio,
		IssuerRUT:   parsed.IssuerRUT,
		IssuerName:  parsed.IssuerName,
		IssueDate:   parsed.IssueDate,
		NetTotal:    parsed.NetTotal,
		TaxTotal:    parsed.TaxTotal,
		GrandTotal:  parsed.GrandTotal,
		Digest:      digest,
		RawXML:      in.XML,
		Status:      entity.DTEPendiente,
		CreatedAt:   now,
		UpdatedAt:   now,
		CreatedBy:   userID,
	}
	doc.Lines = make([]entity.DTELine, 0, len(parsed.Lines))
	for _, pl := range parsed.Lines {
		line := entity.DTELine{
			ID:          uuid.New().String(),
			DocumentID:  doc.ID,
			LineNumber:  pl.LineNumber,
			ItemCode:    pl.ItemCode,
			Description: pl.Description,
			Quantity:    pl.Quantity,
			UnitPrice:   pl.UnitPrice,
			LineTotal:   pl.LineTotal,
		}
		m := domdte.MatchLine(&line, catalog)
		line.MatchStatus = m.Status
		line.MatchScore = m.Score
		line.ProductID = m.ProductID
		doc.Lines = append(doc.Lines, line)
	}
	if doc.Reconciled() {
		doc.Status = entity.DTEConciliado
	}

	if err := uc.dteRepo.Create(ctx, doc); err != nil {
		// Dos imports concurrentes del mismo XML: el índice único sobre
		// (company_id, digest) decide al ganador.
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.ErrDTEAlreadyImported
		}
		return nil, err
	}
	return toDocumentResponse(doc), nil
}

// ResolveLine asigna a mano un producto a una línea. Vale mientras el
// documento no haya sido aplicado ni descartado.
func (uc *UseCase) ResolveLine(ctx context.Context, companyID, docID, lineID string, in dto.ResolveLineRequest) (*dto.DTEDocumentResponse, error) {
	var out *dto.DTEDocumentResponse
	err := uc.txRunner.RunDTE(ctx, func(
		dteRepo repository.DTEDocumentRepository,
		_ repository.InventoryMovementRepository,
		_ repository.StockRepository,
		productRepo repository.ProductRepository,
	) error {
		doc, err := lockOwned(ctx, dteRepo, companyID, docID)
		if err != nil {
			return err
		}
		switch doc.Status {
		case entity.DTEAplicado:
			return domain.ErrDTEAlreadyApplied
		case entity.DTEDescartado:
			return domain.ErrDTEDiscarded
		}

		p, err := productRepo.GetByID(in.ProductID)
		if err != nil {
			return err
		}
		if p == nil || p.CompanyID != companyID {
			return domain.ErrNotFound
		}

		var line *entity.DTELine
		for i := range doc.Lines {
			if doc.Lines[i].ID == lineID {
				line = &doc.Lines[i]
				break
			}
		}
		if line == nil {
			return domain.ErrNotFound
		}
		line.MatchStatus = entity.MatchManual
		line.MatchScore = 0
		line.ProductID = p.ID
		if err := dteRepo.UpdateLine(ctx, line); err != nil {
			return err
		}

		if doc.Reconciled() {
			doc.Status = entity.DTEConciliado
		}
		doc.UpdatedAt = time.Now()
		if err := dteRepo.Update(ctx, doc); err != nil {
			return err
		}
		out = toDocumentResponse(doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Apply registra una entrada (IN) por cada línea conciliada, al costo de la
// línea, en una sola transacción; el documento queda aplicado. El
// TransactionID de los movimientos es el ID del documento.
func (uc *UseCase) Apply(ctx context.Context, companyID, userID, docID string) (*dto.DTEDocumentResponse, error) {
	var out *dto.DTEDocumentResponse
	err := uc.txRunner.RunDTE(ctx, func(
		dteRepo repository.DTEDocumentRepository,
		movRepo repository.InventoryMovementRepository,
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
	) error {
		doc, err := lockOwned(ctx, dteRepo, companyID, docID)
		if err != nil {
			return err
		}
		switch doc.Status {
		case entity.DTEAplicado:
			return domain.ErrDTEAlreadyApplied
		case entity.DTEDescartado:
			return domain.ErrDTEDiscarded
		}
		if !doc.Reconciled() {
			return domain.ErrDTENotReconciled
		}

		now := time.Now()
		reference := fmt.Sprintf("DTE %d-%d", doc.DocType, doc.Folio)
		for i := range doc.Lines {
			line := &doc.Lines[i]
			p, err := productRepo.GetByID(line.ProductID)
			if err != nil {
				return err
			}
			if p == nil || p.CompanyID != companyID {
				return domain.ErrNotFound
			}
			if err := uc.movements.RegisterINInTx(
				ctx, movRepo, stockRepo, productRepo,
				p, companyID, doc.WarehouseID, userID,
				line.Quantity, line.UnitPrice, reference, now, doc.ID,
			); err != nil {
				return err
			}
		}

		doc.Status = entity.DTEAplicado
		doc.AppliedAt = &now
		doc.AppliedBy = userID
		doc.UpdatedAt = now
		if err := dteRepo.Update(ctx, doc); err != nil {
			return err
		}
		out = toDocumentResponse(doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Discard marca el documento como descartado (terminal). Un DTE ya aplicado
// no se descarta: sus movimientos ya están en el libro.
func (uc *UseCase) Discard(ctx context.Context, companyID, userID, docID string) (*dto.DTEDocumentResponse, error) {
	var out *dto.DTEDocumentResponse
	err := uc.txRunner.RunDTE(ctx, func(
		dteRepo repository.DTEDocumentRepository,
		_ repository.InventoryMovementRepository,
		_ repository.StockRepository,
		_ repository.ProductRepository,
	) error {
		doc, err := lockOwned(ctx, dteRepo, companyID, docID)
		if err != nil {
			return err
		}
		switch doc.Status {
		case entity.DTEAplicado:
			return domain.ErrDTEAlreadyApplied
		case entity.DTEDescartado:
			return domain.ErrDTEDiscarded
		}
		doc.Status = entity.DTEDescartado
		doc.UpdatedAt = time.Now()
		if err := dteRepo.Update(ctx, doc); err != nil {
			return err
		}
		out = toDocumentResponse(doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get devuelve un DTE con sus líneas.
func (uc *UseCase) Get(ctx context.Context, companyID, docID string) (*dto.DTEDocumentResponse, error) {
	doc, err := uc.dteRepo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc == nil || doc.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	return toDocumentResponse(doc), nil
}

// List lista los DTE de la empresa, con filtro opcional por estado.
func (uc *UseCase) List(ctx context.Context, companyID, status string, limit, offset int) (*dto.DTEListResponse, error) {
	docs, err := uc.dteRepo.ListByCompany(ctx, companyID, status, limit, offset)
	if err != nil {
		return nil, err
	}
	out := &dto.DTEListResponse{
		Items: make([]dto.DTEDocumentResponse, 0, len(docs)),
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}
	for _, doc := range docs {
		out.Items = append(out.Items, *toDocumentResponse(doc))
	}
	return out, nil
}

// lockOwned relee el documento con SELECT FOR UPDATE y verifica el tenant.
func lockOwned(ctx context.Context, dteRepo repository.DTEDocumentRepository, companyID, docID string) (*entity.DTEDocument, error) {
	doc, err := dteRepo.GetForUpdate(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc == nil || doc.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

func toDocumentResponse(doc *entity.DTEDocument) *dto.DTEDocumentResponse {
	if doc == nil {
		return nil
	}
	resp := &dto.DTEDocumentResponse{
		ID:          doc.ID,
		CompanyID:   doc.CompanyID,
		WarehouseID: doc.WarehouseID,
		DocType:     doc.DocType,
		Folio:       doc.Folio,
		IssuerRUT:   doc.IssuerRUT,
		IssuerName:  doc.IssuerName,
		IssueDate:   doc.IssueDate,
		NetTotal:    doc.NetTotal,
		TaxTotal:    doc.TaxTotal,
		GrandTotal:  doc.GrandTotal,
		Digest:      doc.Digest,
		Status:      doc.Status,
		Lines:       make([]dto.DTELineResponse, 0, len(doc.Lines)),
		CreatedAt:   doc.CreatedAt,
		AppliedAt:   doc.AppliedAt,
	}
	for _, l := range doc.Lines {
		resp.Lines = append(resp.Lines, dto.DTELineResponse{
			ID:          l.ID,
			LineNumber:  l.LineNumber,
			ItemCode:    l.ItemCode,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			LineTotal:   l.LineTotal,
			MatchStatus: l.MatchStatus,
			MatchScore:  l.MatchScore,
			ProductID:   l.ProductID,
		})
	}
	return resp
}
