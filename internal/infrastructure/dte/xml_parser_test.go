package dte

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const facturaXML = `<?xml version="1.0" encoding="ISO-8859-1"?>
<DTE version="1.0">
  <Documento ID="F4512T33">
    <Encabezado>
      <IdDoc>
        <TipoDTE>33</TipoDTE>
        <Folio>4512</Folio>
        <FchEmis>2024-01-15</FchEmis>
      </IdDoc>
      <Emisor>
        <RUTEmisor>76543210-K</RUTEmisor>
        <RznSoc>Distribuidora del Sur SpA</RznSoc>
      </Emisor>
      <Totales>
        <MntNeto>50000</MntNeto>
        <IVA>9500</IVA>
        <MntTotal>59500</MntTotal>
      </Totales>
    </Encabezado>
    <Detalle>
      <NroLinDet>1</NroLinDet>
      <CdgItem>
        <TpoCodigo>INT1</TpoCodigo>
        <VlrCodigo>CAF-250</VlrCodigo>
      </CdgItem>
      <NmbItem>Cafe Molido 250g</NmbItem>
      <QtyItem>10</QtyItem>
      <PrcItem>4500</PrcItem>
      <MontoItem>45000</MontoItem>
    </Detalle>
    <Detalle>
      <NroLinDet>2</NroLinDet>
      <NmbItem>Flete despacho</NmbItem>
      <MontoItem>5000</MontoItem>
    </Detalle>
  </Documento>
</DTE>`

// ────────────────────────────────────────────────────────────────────────────
// Parse
// ────────────────────────────────────────────────────────────────────────────

func TestParse_FacturaCompleta(t *testing.T) {
	parsed, err := NewXMLParser().Parse([]byte(facturaXML))
	require.NoError(t, err)

	assert.Equal(t, 33, parsed.DocType)
	assert.Equal(t, int64(4512), parsed.Folio)
	assert.Equal(t, "76543210-K", parsed.IssuerRUT)
	assert.Equal(t, "Distribuidora del Sur SpA", parsed.IssuerName)
	assert.Equal(t, time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC), parsed.IssueDate)
	assert.True(t, parsed.NetTotal.Equal(decimal.NewFromInt(50000)))
	assert.True(t, parsed.TaxTotal.Equal(decimal.NewFromInt(9500)))
	assert.True(t, parsed.GrandTotal.Equal(decimal.NewFromInt(59500)))
	require.Len(t, parsed.Lines, 2)

	l1 := parsed.Lines[0]
	assert.Equal(t, 1, l1.LineNumber)
	assert.Equal(t, "CAF-250", l1.ItemCode)
	assert.Equal(t, "Cafe Molido 250g", l1.Description)
	assert.True(t, l1.Quantity.Equal(decimal.NewFromInt(10)))
	assert.True(t, l1.UnitPrice.Equal(decimal.NewFromInt(4500)))
	assert.True(t, l1.LineTotal.Equal(decimal.NewFromInt(45000)))
}

// Línea sin QtyItem ni PrcItem: cantidad 1 y precio derivado del monto.
func TestParse_LineaSinCantidadNiPrecio(t *testing.T) {
	parsed, err := NewXMLParser().Parse([]byte(facturaXML))
	require.NoError(t, err)

	l2 := parsed.Lines[1]
	assert.Equal(t, 2, l2.LineNumber)
	assert.Empty(t, l2.ItemCode)
	assert.True(t, l2.Quantity.Equal(decimal.NewFromInt(1)))
	assert.True(t, l2.UnitPrice.Equal(decimal.NewFromInt(5000)))
	assert.True(t, l2.LineTotal.Equal(decimal.NewFromInt(5000)))
}

func TestParse_SinDocumentoFalla(t *testing.T) {
	_, err := NewXMLParser().Parse([]byte(`<DTE version="1.0"></DTE>`))
	assert.Error(t, err)
}

func TestParse_XMLMalformadoFalla(t *testing.T) {
	_, err := NewXMLParser().Parse([]byte(`<DTE><Documento>`))
	assert.Error(t, err)
}

// ────────────────────────────────────────────────────────────────────────────
// Digest
// ────────────────────────────────────────────────────────────────────────────

func TestDigest_Deterministico(t *testing.T) {
	p := NewXMLParser()
	a, err := p.Digest([]byte(facturaXML))
	require.NoError(t, err)
	b, err := p.Digest([]byte(facturaXML))
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.Equal(t, a, b)
}

// El autocierre y el orden de atributos no cambian el digest (C14N).
func TestDigest_NormalizaSerializacion(t *testing.T) {
	p := NewXMLParser()
	a, err := p.Digest([]byte(`<Doc b="2" a="1"><Vacio></Vacio></Doc>`))
	require.NoError(t, err)
	b, err := p.Digest([]byte(`<Doc a="1" b="2"><Vacio/></Doc>`))
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestDigest_DocumentosDistintos(t *testing.T) {
	p := NewXMLParser()
	a, err := p.Digest([]byte(facturaXML))
	require.NoError(t, err)
	otro := []byte(`<DTE><Documento><Encabezado><IdDoc><Folio>9999</Folio></IdDoc></Encabezado></Documento></DTE>`)
	b, err := p.Digest(otro)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}
