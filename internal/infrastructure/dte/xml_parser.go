package dte

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"

	appdte "github.com/inventasur/bodega-api/internal/application/dte"
)

var _ appdte.Parser = (*XMLParser)(nil)

// XMLParser extrae encabezado y detalle desde el XML de un DTE del SII.
// Acepta tanto el documento suelto (<DTE>) como el sobre (<EnvioDTE>); en el
// sobre toma el primer documento.
type XMLParser struct{}

func NewXMLParser() *XMLParser {
	return &XMLParser{}
}

// Parse extrae los datos del DTE. Las fechas vienen en formato FchEmis
// (2006-01-02) y los montos como enteros o decimales con punto.
func (p *XMLParser) Parse(xmlBytes []byte) (*appdte.ParsedDTE, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charsetReader
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return nil, fmt.Errorf("dte: parsear XML: %w", err)
	}
	documento := findFirst(doc.Root(), "Documento")
	if documento == nil {
		return nil, fmt.Errorf("dte: no se encontró el elemento Documento")
	}
	encabezado := childByTag(documento, "Encabezado")
	if encabezado == nil {
		return nil, fmt.Errorf("dte: no se encontró el Encabezado")
	}

	parsed := &appdte.ParsedDTE{}

	idDoc := childByTag(encabezado, "IdDoc")
	if idDoc == nil {
		return nil, fmt.Errorf("dte: no se encontró IdDoc")
	}
	docType, err := strconv.Atoi(childText(idDoc, "TipoDTE"))
	if err != nil {
		return nil, fmt.Errorf("dte: TipoDTE inválido: %w", err)
	}
	parsed.DocType = docType
	folio, err := strconv.ParseInt(childText(idDoc, "Folio"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("dte: Folio inválido: %w", err)
	}
	parsed.Folio = folio
	issueDate, err := time.Parse("2006-01-02", childText(idDoc, "FchEmis"))
	if err != nil {
		return nil, fmt.Errorf("dte: FchEmis inválida: %w", err)
	}
	parsed.IssueDate = issueDate

	emisor := childByTag(encabezado, "Emisor")
	if emisor == nil {
		return nil, fmt.Errorf("dte: no se encontró el Emisor")
	}
	parsed.IssuerRUT = childText(emisor, "RUTEmisor")
	parsed.IssuerName = childText(emisor, "RznSoc")
	if parsed.IssuerName == "" {
		parsed.IssuerName = childText(emisor, "RznSocEmisor")
	}

	totales := childByTag(encabezado, "Totales")
	if totales == nil {
		return nil, fmt.Errorf("dte: no se encontraron los Totales")
	}
	if parsed.NetTotal, err = parseAmount(childText(totales, "MntNeto")); err != nil {
		return nil, fmt.Errorf("dte: MntNeto inválido: %w", err)
	}
	if parsed.TaxTotal, err = parseAmount(childText(totales, "IVA")); err != nil {
		return nil, fmt.Errorf("dte: IVA inválido: %w", err)
	}
	if parsed.GrandTotal, err = parseAmount(childText(totales, "MntTotal")); err != nil {
		return nil, fmt.Errorf("dte: MntTotal inválido: %w", err)
	}

	for _, det := range childrenByTag(documento, "Detalle") {
		line, err := parseLine(det)
		if err != nil {
			return nil, err
		}
		parsed.Lines = append(parsed.Lines, line)
	}
	if len(parsed.Lines) == 0 {
		return nil, fmt.Errorf("dte: el documento no tiene líneas de Detalle")
	}
	return parsed, nil
}

func parseLine(det *etree.Element) (appdte.ParsedLine, error) {
	var line appdte.ParsedLine
	num, err := strconv.Atoi(childText(det, "NroLinDet"))
	if err != nil {
		return line, fmt.Errorf("dte: NroLinDet inválido: %w", err)
	}
	line.LineNumber = num
	if cdg := childByTag(det, "CdgItem"); cdg != nil {
		line.ItemCode = childText(cdg, "VlrCodigo")
	}
	line.Description = strings.TrimSpace(childText(det, "NmbItem"))

	// QtyItem y PrcItem son opcionales en el esquema; sin cantidad se asume 1
	// y el precio se deriva del monto de la línea.
	if line.LineTotal, err = parseAmount(childText(det, "MontoItem")); err != nil {
		return line, fmt.Errorf("dte: MontoItem inválido en línea %d: %w", num, err)
	}
	if qty := childText(det, "QtyItem"); qty != "" {
		if line.Quantity, err = parseAmount(qty); err != nil {
			return line, fmt.Errorf("dte: QtyItem inválido en línea %d: %w", num, err)
		}
	} else {
		line.Quantity = decimal.NewFromInt(1)
	}
	if prc := childText(det, "PrcItem"); prc != "" {
		if line.UnitPrice, err = parseAmount(prc); err != nil {
			return line, fmt.Errorf("dte: PrcItem inválido en línea %d: %w", num, err)
		}
	} else if !line.Quantity.IsZero() {
		line.UnitPrice = line.LineTotal.Div(line.Quantity).Round(4)
	}
	return line, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// findFirst busca en profundidad el primer elemento con ese tag local,
// ignorando prefijos de namespace.
func findFirst(el *etree.Element, tag string) *etree.Element {
	if el == nil {
		return nil
	}
	if localTag(el) == tag {
		return el
	}
	for _, child := range el.ChildElements() {
		if found := findFirst(child, tag); found != nil {
			return found
		}
	}
	return nil
}

func childByTag(el *etree.Element, tag string) *etree.Element {
	for _, child := range el.ChildElements() {
		if localTag(child) == tag {
			return child
		}
	}
	return nil
}

func childrenByTag(el *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	for _, child := range el.ChildElements() {
		if localTag(child) == tag {
			out = append(out, child)
		}
	}
	return out
}

func childText(el *etree.Element, tag string) string {
	if child := childByTag(el, tag); child != nil {
		return strings.TrimSpace(child.Text())
	}
	return ""
}

// charsetReader soporta el ISO-8859-1 con que el SII distribuye los DTE.
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(charset) {
	case "iso-8859-1", "latin1", "windows-1252":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	case "utf-8", "":
		return input, nil
	}
	return nil, fmt.Errorf("dte: charset no soportado: %s", charset)
}

func localTag(el *etree.Element) string {
	if i := strings.Index(el.Tag, ":"); i >= 0 {
		return el.Tag[i+1:]
	}
	return el.Tag
}
