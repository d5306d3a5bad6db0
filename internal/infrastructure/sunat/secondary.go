package sunat

import (
	"ferrex/internal/domain/fiscal"
)

// Secondary wire format: structured camelCase JSON with native numbers and
// ISO currency codes, authenticated with a bearer token. Intentionally a
// separate transformation from the primary one: the two vocabularies do
// not align field-for-field (this provider keeps the address structured).

type secondaryDocument struct {
	DocumentType string  `json:"documentType"`
	Series       string  `json:"series"`
	Number       int64   `json:"number"`
	IssueDate    string  `json:"issueDate"`
	IssueTime    string  `json:"issueTime"`
	DueDate      string  `json:"dueDate,omitempty"`
	Currency     string  `json:"currency"`
	PaymentMeans string  `json:"paymentMeans,omitempty"`

	// PersonaID carries the issuer's own registration at this provider,
	// when they have one.
	PersonaID string `json:"personaId,omitempty"`

	Issuer   secondaryParty `json:"issuer"`
	Customer secondaryParty `json:"customer"`

	TaxableAmount    float64 `json:"taxableAmount"`
	TaxAmount        float64 `json:"taxAmount"`
	ExemptAmount     float64 `json:"exemptAmount"`
	UnaffectedAmount float64 `json:"unaffectedAmount"`
	TotalAmount      float64 `json:"totalAmount"`

	Note string `json:"note,omitempty"`

	Items []secondaryItem `json:"items"`
}

type secondaryParty struct {
	IdentityType   string            `json:"identityDocumentType,omitempty"`
	IdentityNumber string            `json:"identityDocumentNumber"`
	LegalName      string            `json:"legalName"`
	TradeName      string            `json:"tradeName,omitempty"`
	Address        *secondaryAddress `json:"address,omitempty"`
}

type secondaryAddress struct {
	Street   string `json:"street"`
	District string `json:"district,omitempty"`
	Province string `json:"province,omitempty"`
	Region   string `json:"region,omitempty"`
	GeoCode  string `json:"ubigeo,omitempty"`
}

type secondaryItem struct {
	Description    string  `json:"description"`
	Quantity       float64 `json:"quantity"`
	UnitPrice      float64 `json:"unitPrice"`
	ProductCode    string  `json:"productCode,omitempty"`
	SunatCode      string  `json:"sunatCode,omitempty"`
	Unit           string  `json:"unit"`
	IGVAffectation string  `json:"igvAffectation"`
}

// secondaryCurrency maps internal currency codes onto this provider's
// ISO vocabulary.
var secondaryCurrency = map[string]string{
	fiscal.CurrencyPEN: "PEN",
	fiscal.CurrencyUSD: "USD",
}

// buildSecondaryPayload reshapes a validated document into the secondary
// wire format. No re-validation happens here.
func buildSecondaryPayload(doc *fiscal.Document) secondaryDocument {
	t := doc.Transaction

	out := secondaryDocument{
		DocumentType: string(t.Type),
		Series:       t.Series,
		Number:       t.Number,
		IssueDate:    t.IssueDate.Format("2006-01-02"),
		IssueTime:    t.IssueTime,
		Currency:     secondaryCurrency[t.Currency],
		PaymentMeans: t.PaymentForm,
		PersonaID:    doc.Issuer.SecondaryUser,

		Issuer: secondaryParty{
			IdentityNumber: doc.Issuer.RUC,
			LegalName:      doc.Issuer.LegalName,
			TradeName:      doc.Issuer.TradeName,
			Address: &secondaryAddress{
				Street:   doc.Issuer.FiscalAddress,
				District: doc.Issuer.District,
				Province: doc.Issuer.Province,
				Region:   doc.Issuer.Region,
				GeoCode:  doc.Issuer.GeoCode,
			},
		},
		Customer: secondaryParty{
			IdentityType:   doc.Counterparty.IdentityType,
			IdentityNumber: doc.Counterparty.IdentityNumber,
			LegalName:      doc.Counterparty.Name,
		},

		TaxableAmount:    t.Taxable.InexactFloat64(),
		TaxAmount:        t.Tax.InexactFloat64(),
		ExemptAmount:     t.Exempt.InexactFloat64(),
		UnaffectedAmount: t.Unaffected.InexactFloat64(),
		TotalAmount:      doc.Total().InexactFloat64(),

		Note: t.Note,
	}

	if t.DueDate != nil {
		out.DueDate = t.DueDate.Format("2006-01-02")
	}
	if doc.Counterparty.Address != "" {
		out.Customer.Address = &secondaryAddress{Street: doc.Counterparty.Address}
	}

	out.Items = make([]secondaryItem, 0, len(doc.Items))
	for _, it := range doc.Items {
		unit := it.Unit
		if unit == "" {
			unit = defaultUnit
		}
		affectation := it.TaxAffectation
		if affectation == "" {
			affectation = defaultTaxAffectation
		}
		out.Items = append(out.Items, secondaryItem{
			Description:    it.Description,
			Quantity:       it.Quantity.InexactFloat64(),
			UnitPrice:      it.UnitPrice.InexactFloat64(),
			ProductCode:    it.ProductCode,
			SunatCode:      it.AuthorityCode,
			Unit:           unit,
			IGVAffectation: affectation,
		})
	}

	return out
}

// --- Secondary response shape ---

type secondaryResponse struct {
	Status     string `json:"status"`
	DocumentID string `json:"documentId"`
	Message    string `json:"message"`
	XMLURL     string `json:"xmlUrl"`
	CDRURL     string `json:"cdrUrl"`
	PDFURL     string `json:"pdfUrl"`
	Hash       string `json:"hash"`
	XMLBase64  string `json:"xmlBase64"`
	CDRBase64  string `json:"cdrBase64"`
}
