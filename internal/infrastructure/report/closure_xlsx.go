// Package report implementa las representaciones exportables de un cierre de
// inventario: planilla XLSX para revisión contable y PDF como acta imprimible.
package report

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/inventasur/bodega-api/internal/application/closure"
	"github.com/inventasur/bodega-api/internal/domain/entity"
)

var _ closure.ReportGenerator = (*ClosureReportGenerator)(nil)

// ClosureReportGenerator produce XLSX (excelize) y PDF (maroto) de un cierre.
type ClosureReportGenerator struct{}

func NewClosureReportGenerator() *ClosureReportGenerator {
	return &ClosureReportGenerator{}
}

const sheetName = "Cierre"

// GenerateXLSX genera la planilla del cierre: encabezado con los datos del
// período y una fila por producto con saldos, conteo y diferencia.
func (g *ClosureReportGenerator) GenerateXLSX(
	_ context.Context,
	c *entity.InventoryClosure,
	details []*entity.InventoryClosureDetail,
	products map[string]*entity.Product,
) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("report: crear hoja: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	// Encabezado del cierre
	f.SetCellValue(sheetName, "A1", "Cierre de inventario")
	f.SetCellValue(sheetName, "B1", c.ClosureNumber)
	f.SetCellValue(sheetName, "A2", "Período")
	f.SetCellValue(sheetName, "B2", fmt.Sprintf("%04d-%02d", c.Year, int(c.Month)))
	f.SetCellValue(sheetName, "A3", "Estado")
	f.SetCellValue(sheetName, "B3", string(c.Status))
	f.SetCellValue(sheetName, "A4", "Productos")
	f.SetCellValue(sheetName, "B4", c.TotalProducts)
	f.SetCellValue(sheetName, "A5", "Valor total")
	f.SetCellValue(sheetName, "B5", c.TotalValue.InexactFloat64())
	f.SetCellValue(sheetName, "A6", "Productos con diferencia")
	f.SetCellValue(sheetName, "B6", c.ProductsWithDiscrepancies)
	f.SetCellValue(sheetName, "A7", "Valor de diferencias")
	f.SetCellValue(sheetName, "B7", c.TotalDiscrepancyValue.InexactFloat64())

	// Cabecera de la tabla
	headers := []string{
		"SKU", "Producto", "Apertura", "Costo apertura", "Entradas", "Salidas",
		"Cierre calculado", "Costo unitario", "Valor cierre", "Conteo físico", "Diferencia",
	}
	const headerRow = 9
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		f.SetCellValue(sheetName, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		first, _ := excelize.CoordinatesToCellName(1, headerRow)
		last, _ := excelize.CoordinatesToCellName(len(headers), headerRow)
		f.SetCellStyle(sheetName, first, last, style)
	}

	// Una fila por detalle
	for i, d := range details {
		rowNum := headerRow + 1 + i
		sku, name := d.ProductID, ""
		if p := products[d.ProductID]; p != nil {
			sku, name = p.SKU, p.Name
		}
		set := func(colNum int, v any) {
			cell, _ := excelize.CoordinatesToCellName(colNum, rowNum)
			f.SetCellValue(sheetName, cell, v)
		}
		set(1, sku)
		set(2, name)
		set(3, d.OpeningQuantity.InexactFloat64())
		set(4, d.OpeningUnitCost.InexactFloat64())
		set(5, d.QuantityIn.InexactFloat64())
		set(6, d.QuantityOut.InexactFloat64())
		set(7, d.CalculatedClosingQuantity.InexactFloat64())
		set(8, d.CalculatedClosingUnitCost.InexactFloat64())
		set(9, d.CalculatedClosingQuantity.Mul(d.CalculatedClosingUnitCost).InexactFloat64())
		if d.PhysicalCountQuantity != nil {
			set(10, d.PhysicalCountQuantity.InexactFloat64())
		}
		if diff := d.DiscrepancyQuantity(); diff != nil {
			set(11, diff.InexactFloat64())
		}
	}

	f.SetColWidth(sheetName, "A", "A", 16)
	f.SetColWidth(sheetName, "B", "B", 36)
	f.SetColWidth(sheetName, "C", "K", 14)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("report: escribir XLSX: %w", err)
	}
	return buf.Bytes(), nil
}
