package dte_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/inventasur/bodega-api/internal/domain/dte"
	"github.com/inventasur/bodega-api/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Normalización
// ──────────────────────────────────────────────────────────────────────────────

func TestNormalize_TildesMayusculasPuntuacion(t *testing.T) {
	cases := map[string]string{
		"Café Molido 250g":    "cafe molido 250g",
		"CAFE  MOLIDO, 250G":  "cafe molido 250g",
		"  Azúcar-Refinada  ": "azucar refinada",
		"ñandú":               "nandu",
		"":                    "",
	}
	for in, want := range cases {
		assert.Equal(t, want, dte.Normalize(in), "entrada %q", in)
	}
}

func TestSimilarity_Extremos(t *testing.T) {
	assert.Equal(t, 1.0, dte.Similarity("cafe molido", "cafe molido"))
	assert.Equal(t, 0.0, dte.Similarity("cafe", "harina"))
	assert.Equal(t, 0.0, dte.Similarity("", "algo"))
}

// ──────────────────────────────────────────────────────────────────────────────
// Conciliación de líneas
// ──────────────────────────────────────────────────────────────────────────────

func catalogo() []*entity.Product {
	return []*entity.Product{
		{ID: "p-cafe", SKU: "CAF-250", Barcode: "7801234567890", Name: "Café Molido 250g"},
		{ID: "p-azucar", SKU: "AZU-1K", Name: "Azúcar Refinada 1kg"},
		{ID: "p-harina", SKU: "HAR-1K", Barcode: "7809876543210", Name: "Harina Sin Polvos 1kg"},
	}
}

func TestMatchLine_CodigoExacto(t *testing.T) {
	m := dte.MatchLine(&entity.DTELine{ItemCode: "caf-250", Description: "otra cosa"}, catalogo())
	assert.Equal(t, entity.MatchExacto, m.Status)
	assert.Equal(t, "p-cafe", m.ProductID)
}

func TestMatchLine_CodigoBarras(t *testing.T) {
	m := dte.MatchLine(&entity.DTELine{ItemCode: "7809876543210", Description: ""}, catalogo())
	assert.Equal(t, entity.MatchCodigoBarras, m.Status)
	assert.Equal(t, "p-harina", m.ProductID)
}

// El código del emisor no existe pero la descripción normalizada coincide.
func TestMatchLine_Aproximado(t *testing.T) {
	line := &entity.DTELine{ItemCode: "PROV-99", Description: "CAFE MOLIDO 250G"}
	m := dte.MatchLine(line, catalogo())
	assert.Equal(t, entity.MatchAproximado, m.Status)
	assert.Equal(t, "p-cafe", m.ProductID)
	assert.GreaterOrEqual(t, m.Score, dte.FuzzyThreshold)
}

func TestMatchLine_SinCoincidencia(t *testing.T) {
	line := &entity.DTELine{ItemCode: "XX-1", Description: "repuesto bomba hidráulica"}
	m := dte.MatchLine(line, catalogo())
	assert.Equal(t, entity.MatchSinProducto, m.Status)
	assert.Empty(t, m.ProductID)
}

func TestMatchLine_CatalogoVacio(t *testing.T) {
	m := dte.MatchLine(&entity.DTELine{ItemCode: "CAF-250", Description: "café"}, nil)
	assert.Equal(t, entity.MatchSinProducto, m.Status)
}
