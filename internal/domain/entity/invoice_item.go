package entity

import "github.com/shopspring/decimal"

// InvoiceItem représente une ligne de facture.
type InvoiceItem struct {
	ID          string
	InvoiceID   string
	Position    int // Ordre d'affichage, 1..n
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal // Prix unitaire HT
	VATRate     decimal.Decimal // Taux de TVA en pourcentage (0, 7, 13, 19)
	Discount    decimal.Decimal // Remise en pourcentage sur la ligne
	LineHT      decimal.Decimal // Montant HT de la ligne après remise
	LineVAT     decimal.Decimal
	LineTTC     decimal.Decimal
}
