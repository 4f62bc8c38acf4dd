// Package teif contient la logique de domaine du format TEIF 1.8.8 (Tunisie):
// calcul des totaux en millimes, validation avant dépôt El Fatoora et
// interprétation des états retournés par le webservice. Utilise les
// catalogues de pkg/teif.
package teif

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/entity"
	"github.com/zhanisana-byte/facturetn-crm-sub001/pkg/teif"
)

var hundred = decimal.NewFromInt(100)

// LineTotals calcule les montants d'une ligne en millimes (3 décimales).
// La remise est bornée à [0, 100] pour cent.
func LineTotals(item *entity.InvoiceItem) (ht, vat, ttc decimal.Decimal) {
	discount := item.Discount
	if discount.LessThan(decimal.Zero) {
		discount = decimal.Zero
	}
	if discount.GreaterThan(hundred) {
		discount = hundred
	}
	factor := hundred.Sub(discount).Div(hundred)
	ht = item.Quantity.Mul(item.UnitPrice).Mul(factor).Round(teif.AmountDecimals)
	vat = ht.Mul(item.VATRate).Div(hundred).Round(teif.AmountDecimals)
	ttc = ht.Add(vat)
	return ht, vat, ttc
}

// Totals porte les montants agrégés d'une facture.
type Totals struct {
	HT        decimal.Decimal
	VAT       decimal.Decimal
	StampDuty decimal.Decimal
	TTC       decimal.Decimal
	ByRate    []RateTotals // Trié par taux croissant
}

// RateTotals agrège base imposable et taxe pour un taux de TVA donné.
type RateTotals struct {
	Rate decimal.Decimal
	Base decimal.Decimal
	Tax  decimal.Decimal
}

// ComputeTotals agrège les lignes en totaux facture. Le droit de timbre
// s'ajoute au TTC mais n'entre ni dans le HT ni dans la TVA.
func ComputeTotals(items []*entity.InvoiceItem, stampDuty decimal.Decimal) Totals {
	byRate := make(map[string]*RateTotals)
	var ht, vat decimal.Decimal
	for _, item := range items {
		lineHT, lineVAT, _ := LineTotals(item)
		ht = ht.Add(lineHT)
		vat = vat.Add(lineVAT)

		key := item.VATRate.String()
		agg, ok := byRate[key]
		if !ok {
			agg = &RateTotals{Rate: item.VATRate}
			byRate[key] = agg
		}
		agg.Base = agg.Base.Add(lineHT)
		agg.Tax = agg.Tax.Add(lineVAT)
	}

	rates := make([]RateTotals, 0, len(byRate))
	for _, agg := range byRate {
		rates = append(rates, *agg)
	}
	sort.Slice(rates, func(i, j int) bool { return rates[i].Rate.LessThan(rates[j].Rate) })

	if stampDuty.LessThan(decimal.Zero) {
		stampDuty = decimal.Zero
	}
	return Totals{
		HT:        ht,
		VAT:       vat,
		StampDuty: stampDuty,
		TTC:       ht.Add(vat).Add(stampDuty),
		ByRate:    rates,
	}
}
