package teif_test

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/entity"
	domteif "github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/teif"
	infra "github.com/zhanisana-byte/facturetn-crm-sub001/internal/infrastructure/teif"
)

func buildContext(purpose string) *infra.BuildContext {
	due := time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)
	items := []*entity.InvoiceItem{
		{
			Description: "Abonnement annuel",
			Quantity:    decimal.NewFromInt(2),
			UnitPrice:   decimal.RequireFromString("10.005"),
			VATRate:     decimal.NewFromInt(19),
		},
		{
			Description: "Formation sur site",
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   decimal.NewFromInt(300),
			VATRate:     decimal.NewFromInt(7),
		},
	}
	stamp := decimal.RequireFromString("1.000")
	return &infra.BuildContext{
		Invoice: &entity.Invoice{
			ID:       "inv-1",
			DocType:  entity.DocTypeInvoice,
			Number:   "FAC-2026-0042",
			Date:     time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
			DueDate:  &due,
			Currency: "TND",
			Notes:    "Paiement par virement",
		},
		Company:  &entity.Company{Name: "Société Test", TaxID: "1234567A/A/M/000", Address: "10 Av. Habib Bourguiba, Tunis", City: "Tunis", PostalCode: "1000"},
		Customer: &entity.Customer{Name: "Client SARL", TaxID: "7654321B/A/M/000", Address: "5 Rue de Marseille, Sfax", City: "Sfax", PostalCode: "3000"},
		Items:    items,
		Totals:   domteif.ComputeTotals(items, stamp),
		Purpose:  purpose,
	}
}

// TestBuild_StructureTEIF vérifie la présence de tous les blocs obligatoires
// du format 1.8.8 et des codes de catalogue attendus.
func TestBuild_StructureTEIF(t *testing.T) {
	svc := infra.NewXMLBuilderService()

	out, err := svc.Build(buildContext(infra.PurposeTTN))
	require.NoError(t, err)
	xml := string(out)

	assert.Contains(t, xml, `<TEIF controlingAgency="TTN" version="1.8.8">`)
	assert.Contains(t, xml, "<InvoiceHeader>")
	assert.Contains(t, xml, "<InvoiceBody>")
	assert.Contains(t, xml, "<DocumentIdentifier>FAC-2026-0042</DocumentIdentifier>")
	assert.Contains(t, xml, `<DocumentType code="I-11">Facture</DocumentType>`)
	assert.Contains(t, xml, `functionCode="I-62"`)
	assert.Contains(t, xml, `functionCode="I-64"`)
	assert.Contains(t, xml, `<PartnerIdentifier type="I-01">1234567A/A/M/000</PartnerIdentifier>`)
	assert.Contains(t, xml, "<LinSection>")
	assert.Contains(t, xml, "<InvoiceMoa>")
	assert.Contains(t, xml, "<InvoiceTax>")
}

// TestBuild_DatesDdMMyy vérifie le format de date TTN (I-31 émission, I-32 échéance).
func TestBuild_DatesDdMMyy(t *testing.T) {
	svc := infra.NewXMLBuilderService()

	out, err := svc.Build(buildContext(infra.PurposeTTN))
	require.NoError(t, err)
	xml := string(out)

	assert.Contains(t, xml, `<DateText format="ddMMyy" functionCode="I-31">150326</DateText>`)
	assert.Contains(t, xml, `<DateText format="ddMMyy" functionCode="I-32">150426</DateText>`)
}

// TestBuild_MontantsMillimes vérifie l'arrondi à 3 décimales dans les Moa,
// dont le vecteur 2 × 10,005 à 19%.
func TestBuild_MontantsMillimes(t *testing.T) {
	svc := infra.NewXMLBuilderService()

	out, err := svc.Build(buildContext(infra.PurposeTTN))
	require.NoError(t, err)
	xml := string(out)

	// HT = 20,010 + 300,000 ; TVA = 3,802 + 21,000 ; timbre 1,000
	assert.Contains(t, xml, `<Moa amountTypeCode="I-176" currencyCodeList="ISO_4217"><Amount currencyIdentifier="TND">320.010</Amount></Moa>`)
	assert.Contains(t, xml, `<Moa amountTypeCode="I-181" currencyCodeList="ISO_4217"><Amount currencyIdentifier="TND">24.802</Amount></Moa>`)
	assert.Contains(t, xml, `<Moa amountTypeCode="I-180" currencyCodeList="ISO_4217"><Amount currencyIdentifier="TND">345.812</Amount></Moa>`)
	// Prix unitaire et HT par ligne
	assert.Contains(t, xml, `amountTypeCode="I-183"`)
	assert.Contains(t, xml, `amountTypeCode="I-171"`)
}

// TestBuild_VentilationTVA vérifie un bloc InvoiceTaxDetails par taux (7 puis
// 19) et le bloc droit de timbre I-1601.
func TestBuild_VentilationTVA(t *testing.T) {
	svc := infra.NewXMLBuilderService()

	out, err := svc.Build(buildContext(infra.PurposeTTN))
	require.NoError(t, err)
	xml := string(out)

	assert.Contains(t, xml, `<TaxTypeName code="I-1601">droit de timbre</TaxTypeName>`)
	// Un bloc TVA par ligne (2) plus un par taux dans InvoiceTax (2).
	assert.Equal(t, 4, strings.Count(xml, `<TaxTypeName code="I-1602">TVA</TaxTypeName>`))
	idx7 := strings.Index(xml, "<TaxRate>7</TaxRate>")
	idx19 := strings.LastIndex(xml, "<TaxRate>19</TaxRate>")
	assert.True(t, idx7 >= 0 && idx19 >= 0 && idx7 < idx19, "ventilation triée par taux croissant")
}

// TestBuild_StrictRejetteIncomplet vérifie qu'en finalité ttn un document
// incomplet est rejeté avec la liste des problèmes.
func TestBuild_StrictRejetteIncomplet(t *testing.T) {
	svc := infra.NewXMLBuilderService()
	bctx := buildContext(infra.PurposeTTN)
	bctx.Customer = nil

	_, err := svc.Build(bctx)

	require.Error(t, err)
	var issues domain.ValidationIssues
	require.ErrorAs(t, err, &issues)
	assert.NotEmpty(t, issues)
}

// TestBuild_ApercuTolerant vérifie qu'en aperçu les champs manquants sont
// remplacés par des valeurs neutres au lieu d'échouer.
func TestBuild_ApercuTolerant(t *testing.T) {
	svc := infra.NewXMLBuilderService()
	bctx := buildContext(infra.PurposePreview)
	bctx.Customer = nil
	bctx.Company = nil

	out, err := svc.Build(bctx)
	require.NoError(t, err)
	xml := string(out)

	assert.Contains(t, xml, `<MessageSenderIdentifier type="I-01">NA</MessageSenderIdentifier>`)
	assert.Contains(t, xml, `<MessageRecieverIdentifier type="I-01">NA</MessageRecieverIdentifier>`)
}

// TestBuild_Avoir vérifie le code I-12 pour une facture d'avoir.
func TestBuild_Avoir(t *testing.T) {
	svc := infra.NewXMLBuilderService()
	bctx := buildContext(infra.PurposeTTN)
	bctx.Invoice.DocType = entity.DocTypeCreditNote

	out, err := svc.Build(bctx)
	require.NoError(t, err)

	assert.Contains(t, string(out), `<DocumentType code="I-12">Facture d&#39;avoir</DocumentType>`)
}
