package teif

import (
	"bytes"
	"fmt"

	"github.com/beevik/etree"

	"github.com/zhanisana-byte/facturetn-crm-sub001/pkg/teif"
)

// SizeReport décrit le résultat du contrôle de taille avant dépôt.
type SizeReport struct {
	OriginalSize int
	FinalSize    int
	Trimmed      bool
}

// EnforceMaxSize garantit que le document ne dépasse pas la taille acceptée
// par saveEfact (50 Ko). Les blocs facultatifs sont retirés dans l'ordre:
// d'abord les Ftx (notes libres), puis les AmountDescription. Un document
// toujours trop gros après élagage est refusé avant tout appel webservice.
func EnforceMaxSize(xmlBytes []byte) ([]byte, SizeReport, error) {
	report := SizeReport{OriginalSize: len(xmlBytes), FinalSize: len(xmlBytes)}
	if len(xmlBytes) <= teif.MaxDocumentBytes {
		return xmlBytes, report, nil
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return nil, report, err
	}

	removeAll(doc, "//Ftx")
	out, err := serialize(doc)
	if err != nil {
		return nil, report, err
	}
	report.Trimmed = true
	report.FinalSize = len(out)
	if len(out) <= teif.MaxDocumentBytes {
		return out, report, nil
	}

	removeAll(doc, "//AmountDescription")
	out, err = serialize(doc)
	if err != nil {
		return nil, report, err
	}
	report.FinalSize = len(out)
	if len(out) > teif.MaxDocumentBytes {
		return nil, report, fmt.Errorf("teif: document de %d octets au-delà de la limite de %d après élagage", len(out), teif.MaxDocumentBytes)
	}
	return out, report, nil
}

func removeAll(doc *etree.Document, path string) {
	for _, el := range doc.FindElements(path) {
		if parent := el.Parent(); parent != nil {
			parent.RemoveChild(el)
		}
	}
}

func serialize(doc *etree.Document) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
