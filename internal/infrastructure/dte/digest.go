package dte

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"

	"github.com/ucarion/c14n"
)

// Digest devuelve el SHA-256 hex del XML canonicalizado (C14N). Dos
// serializaciones del mismo documento (espacios, orden de atributos,
// autocierre) producen el mismo digest, lo que detecta reimportaciones.
func (p *XMLParser) Digest(xmlBytes []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(xmlBytes))
	dec.Entity = map[string]string{}
	dec.CharsetReader = charsetReader
	canonical, err := c14n.Canonicalize(dec)
	if err != nil {
		return "", fmt.Errorf("dte: canonicalizar XML: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
