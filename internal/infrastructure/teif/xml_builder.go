package teif

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/entity"
	domteif "github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/teif"
	"github.com/zhanisana-byte/facturetn-crm-sub001/pkg/teif"
)

// XMLBuilderService construit le document TEIF 1.8.8 (sans signature).
type XMLBuilderService struct{}

// NewXMLBuilderService crée le service.
func NewXMLBuilderService() *XMLBuilderService {
	return &XMLBuilderService{}
}

// Build génère le []byte du document TEIF. En finalité ttn, les données
// manquantes sont rejetées via ValidateForSubmission avant de commencer;
// en aperçu, les champs vides sont remplacés par des valeurs neutres.
func (s *XMLBuilderService) Build(bctx *BuildContext) ([]byte, error) {
	if bctx == nil || bctx.Invoice == nil {
		return nil, fmt.Errorf("teif: contexte de construction incomplet")
	}
	if bctx.Purpose == PurposeTTN {
		if issues := domteif.ValidateForSubmission(bctx.Invoice, bctx.Items, bctx.Company, bctx.Customer); len(issues) > 0 {
			return nil, issues
		}
	}

	supplierMF := bctx.Matricule
	if supplierMF == "" && bctx.Company != nil {
		supplierMF = bctx.Company.TaxID
	}
	if supplierMF == "" {
		supplierMF = "NA"
	}
	customerMF := "NA"
	if bctx.Customer != nil && bctx.Customer.TaxID != "" {
		customerMF = bctx.Customer.TaxID
	}
	currency := bctx.Invoice.Currency
	if currency == "" {
		currency = teif.CurrencyTND
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)

	// Racine <TEIF> avec les attributs imposés par la TTN.
	root := xml.StartElement{
		Name: xml.Name{Local: "TEIF"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "controlingAgency"}, Value: teif.ControlingAgency},
			{Name: xml.Name{Local: "version"}, Value: teif.Version},
		},
	}
	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}

	// ---- InvoiceHeader: émetteur et destinataire (matricules fiscaux)
	open(enc, "InvoiceHeader")
	writeTextAttr(enc, "MessageSenderIdentifier", supplierMF, attr("type", teif.PartnerIDTypeMF))
	writeTextAttr(enc, "MessageRecieverIdentifier", customerMF, attr("type", teif.PartnerIDTypeMF))
	closeEl(enc, "InvoiceHeader")

	open(enc, "InvoiceBody")

	// ---- Bgm: identifiant et type de document
	s.writeBgm(enc, bctx)

	// ---- Dtm: dates au format ddMMyy
	s.writeDtm(enc, bctx)

	// ---- PartnerSection: fournisseur (I-62) puis client (I-64)
	s.writePartner(enc, teif.PartnerSupplier, supplierMF, bctx.Company)
	s.writeCustomerPartner(enc, customerMF, bctx.Customer)

	// ---- Ftx: notes libres (retirées en premier si le document dépasse 50 Ko)
	if notes := bctx.Invoice.Notes; notes != "" {
		open(enc, "Ftx")
		_ = enc.EncodeToken(xml.StartElement{
			Name: xml.Name{Local: "FtxDetail"},
			Attr: []xml.Attr{attr("functionCode", teif.FtxNotes)},
		})
		writeTextAttr(enc, "Text", notes, attr("lang", "fr"))
		closeEl(enc, "FtxDetail")
		closeEl(enc, "Ftx")
	}

	// ---- LinSection: lignes de la facture
	open(enc, "LinSection")
	for i, item := range bctx.Items {
		s.writeLin(enc, i+1, item, currency)
	}
	closeEl(enc, "LinSection")

	// ---- InvoiceMoa: totaux facture
	s.writeInvoiceMoa(enc, bctx.Totals, currency)

	// ---- InvoiceTax: droit de timbre puis ventilation TVA par taux
	s.writeInvoiceTax(enc, bctx.Totals, currency)

	closeEl(enc, "InvoiceBody")
	if err := enc.EncodeToken(root.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *XMLBuilderService) writeBgm(enc *xml.Encoder, bctx *BuildContext) {
	number := bctx.Invoice.Number
	if number == "" {
		number = bctx.Invoice.ID
	}
	code := teif.DocTypeFacture
	if bctx.Invoice.DocType == entity.DocTypeCreditNote {
		code = teif.DocTypeAvoir
	}
	open(enc, "Bgm")
	writeText(enc, "DocumentIdentifier", number)
	writeTextAttr(enc, "DocumentType", teif.DocTypeLabels[code], attr("code", code))
	closeEl(enc, "Bgm")
}

func (s *XMLBuilderService) writeDtm(enc *xml.Encoder, bctx *BuildContext) {
	open(enc, "Dtm")
	writeTextAttr(enc, "DateText", formatDate(bctx.Invoice.Date),
		attr("format", teif.DateFormat), attr("functionCode", teif.DateIssue))
	if bctx.Invoice.DueDate != nil {
		writeTextAttr(enc, "DateText", formatDate(*bctx.Invoice.DueDate),
			attr("format", teif.DateFormat), attr("functionCode", teif.DateDue))
	}
	closeEl(enc, "Dtm")
}

func (s *XMLBuilderService) writePartner(enc *xml.Encoder, functionCode, mf string, company *entity.Company) {
	name, address, city, postal := "Société", "", "", ""
	if company != nil {
		if company.Name != "" {
			name = company.Name
		}
		address, city, postal = company.Address, company.City, company.PostalCode
	}
	s.writePartnerDetails(enc, functionCode, mf, name, address, city, postal)
}

func (s *XMLBuilderService) writeCustomerPartner(enc *xml.Encoder, mf string, customer *entity.Customer) {
	name, address, city, postal := "Client", "", "", ""
	if customer != nil {
		if customer.Name != "" {
			name = customer.Name
		}
		address, city, postal = customer.Address, customer.City, customer.PostalCode
	}
	s.writePartnerDetails(enc, teif.PartnerCustomer, mf, name, address, city, postal)
}

func (s *XMLBuilderService) writePartnerDetails(enc *xml.Encoder, functionCode, mf, name, address, city, postal string) {
	_ = enc.EncodeToken(xml.StartElement{
		Name: xml.Name{Local: "PartnerDetails"},
		Attr: []xml.Attr{attr("functionCode", functionCode)},
	})
	open(enc, "Nad")
	writeTextAttr(enc, "PartnerIdentifier", mf, attr("type", teif.PartnerIDTypeMF))
	writeTextAttr(enc, "PartnerName", name, attr("nameType", "Qualification"))
	_ = enc.EncodeToken(xml.StartElement{
		Name: xml.Name{Local: "PartnerAdresses"},
		Attr: []xml.Attr{attr("lang", "fr")},
	})
	writeText(enc, "AdressDescription", address)
	writeText(enc, "Street", "")
	writeText(enc, "CityName", city)
	writeText(enc, "PostalCode", postal)
	writeTextAttr(enc, "Country", teif.CountryTN, attr("codeList", teif.CountryCodeList))
	closeEl(enc, "PartnerAdresses")
	closeEl(enc, "Nad")
	closeEl(enc, "PartnerDetails")
}

func (s *XMLBuilderService) writeLin(enc *xml.Encoder, position int, item *entity.InvoiceItem, currency string) {
	lineHT, _, _ := domteif.LineTotals(item)

	open(enc, "Lin")
	writeText(enc, "ItemIdentifier", strconv.Itoa(position))

	open(enc, "LinImd")
	writeText(enc, "ItemCode", strconv.Itoa(position))
	writeText(enc, "ItemDescription", item.Description)
	closeEl(enc, "LinImd")

	open(enc, "LinQty")
	writeTextAttr(enc, "Quantity", item.Quantity.String(), attr("measurementUnit", teif.UnitDefault))
	closeEl(enc, "LinQty")

	open(enc, "LinTax")
	writeTextAttr(enc, "TaxTypeName", teif.TaxLabels[teif.TaxTVA], attr("code", teif.TaxTVA))
	open(enc, "TaxDetails")
	writeText(enc, "TaxRate", item.VATRate.String())
	closeEl(enc, "TaxDetails")
	closeEl(enc, "LinTax")

	open(enc, "LinMoa")
	open(enc, "MoaDetails")
	writeMoa(enc, teif.MoaLineUnitPrice, currency, item.UnitPrice)
	closeEl(enc, "MoaDetails")
	open(enc, "MoaDetails")
	writeMoa(enc, teif.MoaLineHT, currency, lineHT)
	closeEl(enc, "MoaDetails")
	closeEl(enc, "LinMoa")

	closeEl(enc, "Lin")
}

func (s *XMLBuilderService) writeInvoiceMoa(enc *xml.Encoder, totals domteif.Totals, currency string) {
	open(enc, "InvoiceMoa")
	for _, moa := range []struct {
		code   string
		amount decimal.Decimal
	}{
		{teif.MoaInvoiceHT, totals.HT},
		{teif.MoaTotalBase, totals.HT},
		{teif.MoaTotalTax, totals.VAT},
		{teif.MoaInvoiceTTC, totals.TTC},
	} {
		open(enc, "AmountDetails")
		writeMoa(enc, moa.code, currency, moa.amount)
		closeEl(enc, "AmountDetails")
	}
	closeEl(enc, "InvoiceMoa")
}

func (s *XMLBuilderService) writeInvoiceTax(enc *xml.Encoder, totals domteif.Totals, currency string) {
	open(enc, "InvoiceTax")

	if totals.StampDuty.IsPositive() {
		open(enc, "InvoiceTaxDetails")
		open(enc, "Tax")
		writeTextAttr(enc, "TaxTypeName", teif.TaxLabels[teif.TaxDroitTimbre], attr("code", teif.TaxDroitTimbre))
		open(enc, "TaxDetails")
		writeText(enc, "TaxRate", "0")
		closeEl(enc, "TaxDetails")
		closeEl(enc, "Tax")
		open(enc, "AmountDetails")
		writeMoa(enc, teif.MoaTaxAmount, currency, totals.StampDuty)
		closeEl(enc, "AmountDetails")
		closeEl(enc, "InvoiceTaxDetails")
	}

	rates := totals.ByRate
	if len(rates) == 0 {
		rates = []domteif.RateTotals{{Rate: decimal.Zero, Base: totals.HT, Tax: totals.VAT}}
	}
	for _, rate := range rates {
		open(enc, "InvoiceTaxDetails")
		open(enc, "Tax")
		writeTextAttr(enc, "TaxTypeName", teif.TaxLabels[teif.TaxTVA], attr("code", teif.TaxTVA))
		open(enc, "TaxDetails")
		writeText(enc, "TaxRate", rate.Rate.String())
		closeEl(enc, "TaxDetails")
		closeEl(enc, "Tax")
		open(enc, "AmountDetails")
		writeMoa(enc, teif.MoaTaxBase, currency, rate.Base)
		closeEl(enc, "AmountDetails")
		open(enc, "AmountDetails")
		writeMoa(enc, teif.MoaTaxAmount, currency, rate.Tax)
		closeEl(enc, "AmountDetails")
		closeEl(enc, "InvoiceTaxDetails")
	}

	closeEl(enc, "InvoiceTax")
}

// ── helpers d'encodage ────────────────────────────────────────────────────────

func attr(local, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: local}, Value: value}
}

func open(enc *xml.Encoder, local string) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: local}})
}

func closeEl(enc *xml.Encoder, local string) {
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: local}})
}

func writeText(enc *xml.Encoder, local, value string) {
	open(enc, local)
	_ = enc.EncodeToken(xml.CharData(value))
	closeEl(enc, local)
}

func writeTextAttr(enc *xml.Encoder, local, value string, attrs ...xml.Attr) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: local}, Attr: attrs})
	_ = enc.EncodeToken(xml.CharData(value))
	closeEl(enc, local)
}

// writeMoa écrit un bloc Moa/Amount avec le montant en millimes.
func writeMoa(enc *xml.Encoder, amountTypeCode, currency string, amount decimal.Decimal) {
	_ = enc.EncodeToken(xml.StartElement{
		Name: xml.Name{Local: "Moa"},
		Attr: []xml.Attr{attr("amountTypeCode", amountTypeCode), attr("currencyCodeList", teif.CurrencyCodeList)},
	})
	writeTextAttr(enc, "Amount", amount.StringFixed(teif.AmountDecimals), attr("currencyIdentifier", currency))
	closeEl(enc, "Moa")
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("020106") // ddMMyy
}
