package report

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/inventasur/bodega-api/internal/domain/entity"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// GeneratePDF genera el acta imprimible del cierre en A4: encabezado con el
// período, tabla de saldos por producto y bloque de totales.
func (g *ClosureReportGenerator) GeneratePDF(
	_ context.Context,
	c *entity.InventoryClosure,
	details []*entity.InventoryClosureDetail,
	products map[string]*entity.Product,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Cierre de Inventario "+c.ClosureNumber, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(c))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(tableHeaderRow())
	for _, r := range tableDetailRows(details, products) {
		m.AddRows(r)
	}
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(c))
	if c.ReopeningReason != "" {
		m.AddRows(row.New(8).Add(col.New(12).Add(
			text.New("Motivo de reapertura: "+c.ReopeningReason, props.Text{
				Size: 8, Color: colorGray, Top: 2,
			}),
		)))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("report: generar PDF: %w", err)
	}
	return doc.GetBytes(), nil
}

// headerRow: número de cierre (izq) y período + estado (der).
func headerRow(c *entity.InventoryClosure) core.Row {
	periodo := fmt.Sprintf("%04d-%02d", c.Year, int(c.Month))
	return row.New(16).Add(
		col.New(7).Add(
			text.New("CIERRE DE INVENTARIO", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(c.ClosureNumber, props.Text{
				Style: fontstyle.Bold, Size: 13, Top: 6,
			}),
		),
		col.New(5).Add(
			text.New("Período: "+periodo, props.Text{
				Size: 9, Align: align.Right, Top: 2,
			}),
			text.New("Estado: "+string(c.Status), props.Text{
				Size: 9, Align: align.Right, Top: 8, Color: colorGray,
			}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 7.5, Align: a,
			Color: colorPrimary, Top: 2,
		}))
	}
	return row.New(7).Add(
		h("SKU", 2, align.Left),
		h("Producto", 3, align.Left),
		h("Apertura", 1, align.Right),
		h("Entradas", 1, align.Right),
		h("Salidas", 1, align.Right),
		h("Cierre", 1, align.Right),
		h("Conteo", 1, align.Right),
		h("Dif.", 1, align.Right),
		h("Valor", 1, align.Right),
	)
}

func tableDetailRows(details []*entity.InventoryClosureDetail, products map[string]*entity.Product) []core.Row {
	cell := func(s string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(s, props.Text{Size: 7.5, Align: a, Top: 1}))
	}
	result := make([]core.Row, 0, len(details))
	for _, d := range details {
		sku, name := d.ProductID, ""
		if p := products[d.ProductID]; p != nil {
			sku, name = p.SKU, p.Name
		}
		conteo, dif := "—", "—"
		if d.PhysicalCountQuantity != nil {
			conteo = d.PhysicalCountQuantity.StringFixed(2)
		}
		if diff := d.DiscrepancyQuantity(); diff != nil {
			dif = diff.StringFixed(2)
		}
		valor := d.CalculatedClosingQuantity.Mul(d.CalculatedClosingUnitCost)
		result = append(result, row.New(6).Add(
			cell(sku, 2, align.Left),
			cell(name, 3, align.Left),
			cell(d.OpeningQuantity.StringFixed(2), 1, align.Right),
			cell(d.QuantityIn.StringFixed(2), 1, align.Right),
			cell(d.QuantityOut.StringFixed(2), 1, align.Right),
			cell(d.CalculatedClosingQuantity.StringFixed(2), 1, align.Right),
			cell(conteo, 1, align.Right),
			cell(dif, 1, align.Right),
			cell("$"+valor.StringFixed(0), 1, align.Right),
		))
	}
	return result
}

func totalsRow(c *entity.InventoryClosure) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2,
		})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	return row.New(24).Add(
		col.New(4),
		col.New(4).Add(
			label("Productos:"),
			label("Valor total:"),
			label("Diferencias:"),
		),
		col.New(4).Add(
			value(fmt.Sprintf("%d", c.TotalProducts)),
			value("$"+c.TotalValue.StringFixed(0)),
			value(fmt.Sprintf("%d productos / $%s", c.ProductsWithDiscrepancies, c.TotalDiscrepancyValue.StringFixed(0))),
		),
	)
}
