// Package dte contiene la lógica pura de conciliación de líneas de un DTE
// importado contra el catálogo de productos: primero por código interno,
// luego por código de barras y por último por similitud de descripción.
package dte

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/inventasur/bodega-api/internal/domain/entity"
)

// FuzzyThreshold es el puntaje mínimo (0..1) para aceptar una coincidencia
// aproximada por descripción.
const FuzzyThreshold = 0.65

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize deja una descripción en minúsculas, sin tildes ni puntuación,
// con espacios colapsados. "Café Molido 250g" y "CAFE  MOLIDO, 250G"
// normalizan igual.
func Normalize(s string) string {
	out, _, err := transform.String(stripAccents, s)
	if err != nil {
		out = s
	}
	out = strings.ToLower(out)
	var b strings.Builder
	lastSpace := true
	for _, r := range out {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// Similarity calcula el puntaje de solapamiento de tokens (coeficiente de
// Dice) entre dos descripciones ya normalizadas por Normalize.
func Similarity(a, b string) float64 {
	ta := strings.Fields(a)
	tb := strings.Fields(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	set := make(map[string]int, len(ta))
	for _, tok := range ta {
		set[tok]++
	}
	common := 0
	for _, tok := range tb {
		if set[tok] > 0 {
			set[tok]--
			common++
		}
	}
	return 2 * float64(common) / float64(len(ta)+len(tb))
}

// Match es el resultado de conciliar una línea.
type Match struct {
	Status    string // entity.Match*
	ProductID string
	Score     float64 // solo para aproximado
}

// MatchLine concilia una línea del DTE contra los productos de la empresa.
// Orden de resolución: SKU exacto, código de barras, mejor similitud de
// descripción que supere FuzzyThreshold. Con catálogo vacío o sin candidatos
// devuelve sin_coincidencia.
func MatchLine(line *entity.DTELine, products []*entity.Product) Match {
	code := strings.TrimSpace(line.ItemCode)
	if code != "" {
		for _, p := range products {
			if strings.EqualFold(p.SKU, code) {
				return Match{Status: entity.MatchExacto, ProductID: p.ID}
			}
		}
		for _, p := range products {
			if p.Barcode != "" && p.Barcode == code {
				return Match{Status: entity.MatchCodigoBarras, ProductID: p.ID}
			}
		}
	}

	want := Normalize(line.Description)
	if want == "" {
		return Match{Status: entity.MatchSinProducto}
	}
	var best *entity.Product
	bestScore := 0.0
	for _, p := range products {
		score := Similarity(want, Normalize(p.Name))
		if score > bestScore {
			best, bestScore = p, score
		}
	}
	if best != nil && bestScore >= FuzzyThreshold {
		return Match{Status: entity.MatchAproximado, ProductID: best.ID, Score: bestScore}
	}
	return Match{Status: entity.MatchSinProducto}
}
