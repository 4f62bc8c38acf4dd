package teif

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/xml"

	"github.com/ucarion/c14n"
)

// Canonicalize applique la canonisation XML C14N 1.0 au document.
func Canonicalize(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	return c14n.Canonicalize(dec)
}

// CanonicalDigest retourne le SHA-256 (base64) du document canonisé.
// Si la canonisation échoue, le digest est calculé sur les octets bruts
// pour rester cohérent avec ce que recevra effectivement le signataire.
func CanonicalDigest(data []byte) string {
	canonical, err := Canonicalize(data)
	if err != nil {
		canonical = data
	}
	sum := sha256.Sum256(canonical)
	return base64.StdEncoding.EncodeToString(sum[:])
}
