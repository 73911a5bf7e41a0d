package dte_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appdte "github.com/inventasur/bodega-api/internal/application/dte"
	"github.com/inventasur/bodega-api/internal/application/dto"
	"github.com/inventasur/bodega-api/internal/application/inventory"
	"github.com/inventasur/bodega-api/internal/domain"
	"github.com/inventasur/bodega-api/internal/domain/closure"
	"github.com/inventasur/bodega-api/internal/domain/entity"
	"github.com/inventasur/bodega-api/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria
// ──────────────────────────────────────────────────────────────────────────────

// fakeParser devuelve un documento fijo; el digest sí depende del XML para
// poder probar la detección de reimportaciones.
type fakeParser struct {
	doc *appdte.ParsedDTE
}

func (p *fakeParser) Parse([]byte) (*appdte.ParsedDTE, error) { return p.doc, nil }

func (p *fakeParser) Digest(xml []byte) (string, error) {
	sum := sha256.Sum256(xml)
	return hex.EncodeToString(sum[:]), nil
}

type fakeDTERepo struct {
	docs map[string]*entity.DTEDocument
}

func newFakeDTERepo() *fakeDTERepo {
	return &fakeDTERepo{docs: map[string]*entity.DTEDocument{}}
}

func (r *fakeDTERepo) Create(_ context.Context, doc *entity.DTEDocument) error {
	for _, other := range r.docs {
		if other.CompanyID == doc.CompanyID && other.Digest == doc.Digest {
			return domain.ErrDuplicate
		}
	}
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *fakeDTERepo) GetByID(_ context.Context, id string) (*entity.DTEDocument, error) {
	doc, ok := r.docs[id]
	if !ok {
		return nil, nil
	}
	cp := *doc
	return &cp, nil
}

func (r *fakeDTERepo) GetForUpdate(ctx context.Context, id string) (*entity.DTEDocument, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeDTERepo) GetByCompanyAndDigest(_ context.Context, companyID, digest string) (*entity.DTEDocument, error) {
	for _, doc := range r.docs {
		if doc.CompanyID == companyID && doc.Digest == digest {
			cp := *doc
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeDTERepo) Update(_ context.Context, doc *entity.DTEDocument) error {
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *fakeDTERepo) UpdateLine(_ context.Context, line *entity.DTELine) error {
	doc, ok := r.docs[line.DocumentID]
	if !ok {
		return domain.ErrNotFound
	}
	for i := range doc.Lines {
		if doc.Lines[i].ID == line.ID {
			doc.Lines[i] = *line
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *fakeDTERepo) ListByCompany(_ context.Context, companyID, status string, _, _ int) ([]*entity.DTEDocument, error) {
	var out []*entity.DTEDocument
	for _, doc := range r.docs {
		if doc.CompanyID != companyID {
			continue
		}
		if status != "" && doc.Status != status {
			continue
		}
		cp := *doc
		out = append(out, &cp)
	}
	return out, nil
}

type fakeProductRepo struct {
	products map[string]*entity.Product
}

func (r *fakeProductRepo) Create(*entity.Product) error { return nil }
func (r *fakeProductRepo) GetByID(id string) (*entity.Product, error) {
	return r.products[id], nil
}
func (r *fakeProductRepo) GetByCompanyAndSKU(string, string) (*entity.Product, error) {
	return nil, nil
}
func (r *fakeProductRepo) Update(*entity.Product) error { return nil }
func (r *fakeProductRepo) UpdateCost(productID string, cost decimal.Decimal) error {
	if p, ok := r.products[productID]; ok {
		p.Cost = cost
	}
	return nil
}
func (r *fakeProductRepo) ListByCompany(string, int, int) ([]*entity.Product, error) {
	return nil, nil
}
func (r *fakeProductRepo) ListAllByCompany(companyID string) ([]*entity.Product, error) {
	var out []*entity.Product
	for _, p := range r.products {
		if p.CompanyID == companyID {
			out = append(out, p)
		}
	}
	return out, nil
}
func (r *fakeProductRepo) Delete(string) error { return nil }

type fakeWarehouseRepo struct{ warehouses map[string]*entity.Warehouse }

func (r *fakeWarehouseRepo) Create(*entity.Warehouse) error { return nil }
func (r *fakeWarehouseRepo) GetByID(id string) (*entity.Warehouse, error) {
	return r.warehouses[id], nil
}
func (r *fakeWarehouseRepo) Update(*entity.Warehouse) error { return nil }
func (r *fakeWarehouseRepo) ListByCompany(string, int, int) ([]*entity.Warehouse, error) {
	return nil, nil
}
func (r *fakeWarehouseRepo) ListByBranch(string, int, int) ([]*entity.Warehouse, error) {
	return nil, nil
}
func (r *fakeWarehouseRepo) Delete(string) error { return nil }

type stockKey struct{ productID, warehouseID string }

type fakeStockRepo struct {
	stocks map[stockKey]*entity.Stock
}

func (r *fakeStockRepo) Get(productID, warehouseID string) (*entity.Stock, error) {
	return r.stocks[stockKey{productID, warehouseID}], nil
}

func (r *fakeStockRepo) GetForUpdate(productID, warehouseID string) (*entity.Stock, error) {
	key := stockKey{productID, warehouseID}
	if s, ok := r.stocks[key]; ok {
		return s, nil
	}
	s := &entity.Stock{ProductID: productID, WarehouseID: warehouseID, Quantity: decimal.Zero}
	r.stocks[key] = s
	return s, nil
}

func (r *fakeStockRepo) Upsert(stock *entity.Stock) error {
	r.stocks[stockKey{stock.ProductID, stock.WarehouseID}] = stock
	return nil
}

type fakeMovementRepo struct {
	created []*entity.InventoryMovement
}

func (r *fakeMovementRepo) Create(m *entity.InventoryMovement) error {
	r.created = append(r.created, m)
	return nil
}
func (r *fakeMovementRepo) GetByID(string) (*entity.InventoryMovement, error) { return nil, nil }
func (r *fakeMovementRepo) ListByWarehouse(string, *time.Time, *time.Time, int, int) ([]*entity.InventoryMovement, error) {
	return nil, nil
}
func (r *fakeMovementRepo) ListByProduct(string, *time.Time, *time.Time, int, int) ([]*entity.InventoryMovement, error) {
	return nil, nil
}
func (r *fakeMovementRepo) SumsByProduct(string, time.Time, time.Time) (map[string]closure.MovementSums, error) {
	return nil, nil
}

type fakeTxRunner struct {
	dte   *fakeDTERepo
	mov   *fakeMovementRepo
	stock *fakeStockRepo
	prod  *fakeProductRepo
}

func (t *fakeTxRunner) RunDTE(ctx context.Context, fn func(
	dteRepo repository.DTEDocumentRepository,
	movRepo repository.InventoryMovementRepository,
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
) error) error {
	return fn(t.dte, t.mov, t.stock, t.prod)
}

// ──────────────────────────────────────────────────────────────────────────────
// Armado
// ──────────────────────────────────────────────────────────────────────────────

const (
	testCompany   = "co-1"
	testUser      = "user-1"
	testWarehouse = "bod-1"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// parsedFactura arma una factura tipo 33 con tres líneas: una con código
// exacto, una con descripción parecida y una desconocida.
func parsedFactura() *appdte.ParsedDTE {
	return &appdte.ParsedDTE{
		DocType:    33,
		Folio:      4512,
		IssuerRUT:  "76.543.210-K",
		IssuerName: "Distribuidora Andes SpA",
		IssueDate:  time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC),
		NetTotal:   dec("100000"),
		TaxTotal:   dec("19000"),
		GrandTotal: dec("119000"),
		Lines: []appdte.ParsedLine{
			{LineNumber: 1, ItemCode: "CAF-250", Description: "Cafe molido 250 g", Quantity: dec("10"), UnitPrice: dec("4500"), LineTotal: dec("45000")},
			{LineNumber: 2, ItemCode: "X-999", Description: "AZUCAR GRANULADA 1KG", Quantity: dec("20"), UnitPrice: dec("1200"), LineTotal: dec("24000")},
			{LineNumber: 3, ItemCode: "ZZZ", Description: "Pallet retornable", Quantity: dec("1"), UnitPrice: dec("31000"), LineTotal: dec("31000")},
		},
	}
}

type fixture struct {
	uc    *appdte.UseCase
	dte   *fakeDTERepo
	mov   *fakeMovementRepo
	stock *fakeStockRepo
	prod  *fakeProductRepo
}

func newFixture(parsed *appdte.ParsedDTE) *fixture {
	dteRepo := newFakeDTERepo()
	mov := &fakeMovementRepo{}
	stock := &fakeStockRepo{stocks: map[stockKey]*entity.Stock{}}
	prod := &fakeProductRepo{products: map[string]*entity.Product{
		"prod-cafe": {
			ID: "prod-cafe", CompanyID: testCompany, SKU: "CAF-250",
			Name: "Café Molido 250g", Cost: dec("4000"),
		},
		"prod-azucar": {
			ID: "prod-azucar", CompanyID: testCompany, SKU: "AZ-1000", Barcode: "7801234567890",
			Name: "Azúcar granulada 1 kg", Cost: dec("1000"),
		},
	}}
	wh := &fakeWarehouseRepo{warehouses: map[string]*entity.Warehouse{
		testWarehouse: {ID: testWarehouse, CompanyID: testCompany, Name: "Bodega Central"},
	}}
	movements := inventory.NewRegisterMovementUseCase(nil, prod, wh)
	uc := appdte.NewUseCase(
		&fakeParser{doc: parsed},
		&fakeTxRunner{dte: dteRepo, mov: mov, stock: stock, prod: prod},
		dteRepo, wh, prod, movements,
	)
	return &fixture{uc: uc, dte: dteRepo, mov: mov, stock: stock, prod: prod}
}

func (f *fixture) importar(t *testing.T, xml string) *dto.DTEDocumentResponse {
	t.Helper()
	out, err := f.uc.Import(context.Background(), testCompany, testUser, dto.ImportDTERequest{
		WarehouseID: testWarehouse, XML: xml,
	})
	require.NoError(t, err)
	return out
}

func lineByNumber(t *testing.T, doc *dto.DTEDocumentResponse, n int) dto.DTELineResponse {
	t.Helper()
	for _, l := range doc.Lines {
		if l.LineNumber == n {
			return l
		}
	}
	t.Fatalf("línea %d no encontrada", n)
	return dto.DTELineResponse{}
}

// ──────────────────────────────────────────────────────────────────────────────
// Import
// ──────────────────────────────────────────────────────────────────────────────

func TestImport_ConciliaPorNivel(t *testing.T) {
	f := newFixture(parsedFactura())
	doc := f.importar(t, "<DTE>factura-4512</DTE>")

	assert.Equal(t, entity.DTEPendiente, doc.Status)
	assert.Equal(t, 33, doc.DocType)
	assert.Equal(t, int64(4512), doc.Folio)
	require.Len(t, doc.Lines, 3)

	// Código interno coincide con el SKU, aunque cambie mayúscula/minúscula.
	l1 := lineByNumber(t, doc, 1)
	assert.Equal(t, entity.MatchExacto, l1.MatchStatus)
	assert.Equal(t, "prod-cafe", l1.ProductID)

	// Sin código conocido cae a similitud de descripción normalizada.
	l2 := lineByNumber(t, doc, 2)
	assert.Equal(t, entity.MatchAproximado, l2.MatchStatus)
	assert.Equal(t, "prod-azucar", l2.ProductID)
	assert.Greater(t, l2.MatchScore, 0.0)

	l3 := lineByNumber(t, doc, 3)
	assert.Equal(t, entity.MatchSinProducto, l3.MatchStatus)
	assert.Empty(t, l3.ProductID)
}

func TestImport_ReimportacionMismoXML(t *testing.T) {
	f := newFixture(parsedFactura())
	f.importar(t, "<DTE>factura-4512</DTE>")

	_, err := f.uc.Import(context.Background(), testCompany, testUser, dto.ImportDTERequest{
		WarehouseID: testWarehouse, XML: "<DTE>factura-4512</DTE>",
	})
	assert.ErrorIs(t, err, domain.ErrDTEAlreadyImported)
}

func TestImport_TodoConciliadoQuedaConciliado(t *testing.T) {
	parsed := parsedFactura()
	parsed.Lines = parsed.Lines[:2] // solo las líneas con producto
	f := newFixture(parsed)
	doc := f.importar(t, "<DTE>factura-4512</DTE>")
	assert.Equal(t, entity.DTEConciliado, doc.Status)
}

func TestImport_BodegaDeOtraEmpresa(t *testing.T) {
	f := newFixture(parsedFactura())
	_, err := f.uc.Import(context.Background(), "otra-empresa", testUser, dto.ImportDTERequest{
		WarehouseID: testWarehouse, XML: "<DTE/>",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// ResolveLine
// ──────────────────────────────────────────────────────────────────────────────

func TestResolveLine_AsignacionManualConcilia(t *testing.T) {
	f := newFixture(parsedFactura())
	doc := f.importar(t, "<DTE>factura-4512</DTE>")
	pending := lineByNumber(t, doc, 3)

	out, err := f.uc.ResolveLine(context.Background(), testCompany, doc.ID, pending.ID, dto.ResolveLineRequest{
		ProductID: "prod-azucar",
	})
	require.NoError(t, err)

	resolved := lineByNumber(t, out, 3)
	assert.Equal(t, entity.MatchManual, resolved.MatchStatus)
	assert.Equal(t, "prod-azucar", resolved.ProductID)
	// Con todas las líneas resueltas el documento queda conciliado.
	assert.Equal(t, entity.DTEConciliado, out.Status)
}

func TestResolveLine_ProductoDeOtraEmpresa(t *testing.T) {
	f := newFixture(parsedFactura())
	f.prod.products["prod-ajeno"] = &entity.Product{ID: "prod-ajeno", CompanyID: "otra-empresa", Name: "Ajeno"}
	doc := f.importar(t, "<DTE>factura-4512</DTE>")
	pending := lineByNumber(t, doc, 3)

	_, err := f.uc.ResolveLine(context.Background(), testCompany, doc.ID, pending.ID, dto.ResolveLineRequest{
		ProductID: "prod-ajeno",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Apply
// ──────────────────────────────────────────────────────────────────────────────

func applied(t *testing.T, f *fixture) *dto.DTEDocumentResponse {
	t.Helper()
	doc := f.importar(t, "<DTE>factura-4512</DTE>")
	out, err := f.uc.Apply(context.Background(), testCompany, testUser, doc.ID)
	require.NoError(t, err)
	return out
}

func TestApply_RegistraEntradasPorLinea(t *testing.T) {
	parsed := parsedFactura()
	parsed.Lines = parsed.Lines[:2]
	f := newFixture(parsed)
	out := applied(t, f)

	assert.Equal(t, entity.DTEAplicado, out.Status)
	require.NotNil(t, out.AppliedAt)

	require.Len(t, f.mov.created, 2)
	for _, m := range f.mov.created {
		assert.Equal(t, entity.MovementTypeIN, m.Type)
		assert.Equal(t, out.ID, m.TransactionID)
		assert.Equal(t, testCompany, m.CompanyID)
		assert.Equal(t, "DTE 33-4512", m.Reference)
	}
	// 10 unidades de café al costo de la línea.
	cafe := f.mov.created[0]
	assert.True(t, cafe.Quantity.Equal(dec("10")))
	assert.True(t, cafe.UnitCost.Equal(dec("4500")))

	// El stock de la bodega destino quedó actualizado.
	stock, err := f.stock.Get("prod-cafe", testWarehouse)
	require.NoError(t, err)
	require.NotNil(t, stock)
	assert.True(t, stock.Quantity.Equal(dec("10")))

	// Y el costo promedio del producto se recalculó (stock previo 0 → costo de la entrada).
	assert.True(t, f.prod.products["prod-cafe"].Cost.Equal(dec("4500")))
}

func TestApply_SinConciliarRechaza(t *testing.T) {
	f := newFixture(parsedFactura()) // la línea 3 queda sin producto
	doc := f.importar(t, "<DTE>factura-4512</DTE>")

	_, err := f.uc.Apply(context.Background(), testCompany, testUser, doc.ID)
	assert.ErrorIs(t, err, domain.ErrDTENotReconciled)
	assert.Empty(t, f.mov.created)
}

func TestApply_DobleAplicacion(t *testing.T) {
	parsed := parsedFactura()
	parsed.Lines = parsed.Lines[:2]
	f := newFixture(parsed)
	out := applied(t, f)

	_, err := f.uc.Apply(context.Background(), testCompany, testUser, out.ID)
	assert.ErrorIs(t, err, domain.ErrDTEAlreadyApplied)
	assert.Len(t, f.mov.created, 2, "no se duplicaron movimientos")
}

// ──────────────────────────────────────────────────────────────────────────────
// Discard
// ──────────────────────────────────────────────────────────────────────────────

func TestDiscard_PendienteSeDescarta(t *testing.T) {
	f := newFixture(parsedFactura())
	doc := f.importar(t, "<DTE>factura-4512</DTE>")

	out, err := f.uc.Discard(context.Background(), testCompany, testUser, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DTEDescartado, out.Status)

	// Terminal: no se puede aplicar después.
	_, err = f.uc.Apply(context.Background(), testCompany, testUser, doc.ID)
	assert.ErrorIs(t, err, domain.ErrDTEDiscarded)
}

func TestDiscard_AplicadoNoSeDescarta(t *testing.T) {
	parsed := parsedFactura()
	parsed.Lines = parsed.Lines[:2]
	f := newFixture(parsed)
	out := applied(t, f)

	_, err := f.uc.Discard(context.Background(), testCompany, testUser, out.ID)
	assert.ErrorIs(t, err, domain.ErrDTEAlreadyApplied)
}
