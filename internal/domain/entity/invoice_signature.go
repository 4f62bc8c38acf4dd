package entity

import "time"

// InvoiceSignature conserve les deux états du document d'une facture signée
// (relation 1:1): le XML soumis à signature et le XML final avec la
// ds:Signature injectée, chacun avec son empreinte canonisée.
type InvoiceSignature struct {
	ID           string
	InvoiceID    string
	Provider     string // digigo, usb_agent
	UnsignedXML  string // Document TEIF soumis à signature
	UnsignedHash string // SHA-256 (base64) du XML canonisé avant signature
	SignedXML    string // Document complet avec ds:Signature injectée
	SignedHash   string // SHA-256 (base64) du XML canonisé après injection
	SignedAt     time.Time
	CreatedAt    time.Time
}
