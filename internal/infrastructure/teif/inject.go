package teif

import (
	"bytes"
	"fmt"

	"github.com/beevik/etree"
)

// InjectSignature insère le bloc <ds:Signature> comme dernier enfant de la
// racine <TEIF>, après </InvoiceBody> (signature enveloppée, exigence TTN).
// Le bloc reçu peut être un document complet: seul le nœud ds:Signature en
// est extrait.
func InjectSignature(unsignedXML []byte, signatureBlock []byte) ([]byte, error) {
	sigDoc := etree.NewDocument()
	if err := sigDoc.ReadFromBytes(bytes.TrimSpace(signatureBlock)); err != nil {
		return nil, fmt.Errorf("teif: bloc de signature illisible: %w", err)
	}
	sigEl := sigDoc.Root()
	if sigEl == nil || sigEl.Tag != "Signature" {
		sigEl = sigDoc.FindElement("//Signature")
	}
	if sigEl == nil {
		return nil, fmt.Errorf("teif: aucun nœud ds:Signature dans le bloc fourni")
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(unsignedXML); err != nil {
		return nil, fmt.Errorf("teif: document TEIF illisible: %w", err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "TEIF" {
		return nil, fmt.Errorf("teif: racine TEIF absente")
	}
	if doc.FindElement("//InvoiceBody") == nil {
		return nil, fmt.Errorf("teif: structure invalide, InvoiceBody absent")
	}
	// Une re-signature remplace la précédente, quel que soit son préfixe.
	for _, old := range root.ChildElements() {
		if old.Tag == "Signature" {
			root.RemoveChild(old)
		}
	}
	root.AddChild(sigEl.Copy())

	var out bytes.Buffer
	if _, err := doc.WriteTo(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
