// Package fiscal provides the electronic fiscal document domain:
// the document model, validation rules and the submission contract.
package fiscal

import (
	"time"

	"ferrex/internal/core/id"
	"ferrex/internal/core/types"
)

// DocumentType is the fiscal document type code assigned by the tax authority.
type DocumentType string

const (
	DocumentTypeInvoice       DocumentType = "01"
	DocumentTypeReceipt       DocumentType = "03"
	DocumentTypeCreditNote    DocumentType = "07"
	DocumentTypeDebitNote     DocumentType = "08"
	DocumentTypeDispatchGuide DocumentType = "09"
)

// Valid reports whether the code belongs to the supported document types.
func (t DocumentType) Valid() bool {
	switch t {
	case DocumentTypeInvoice, DocumentTypeReceipt, DocumentTypeCreditNote,
		DocumentTypeDebitNote, DocumentTypeDispatchGuide:
		return true
	}
	return false
}

// Counterparty identity document type codes (tax authority catalog 06).
const (
	IdentityTypeDNI = "1"
	IdentityTypeRUC = "6"
)

// Currency codes accepted on outbound documents.
const (
	CurrencyPEN = "1"
	CurrencyUSD = "2"
)

// Submission lifecycle status of a stored document.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusErrored  Status = "errored"
	StatusInvalid  Status = "invalid"
)

// Issuer is the business entity submitting the fiscal document.
type Issuer struct {
	RUC           string `db:"issuer_ruc" json:"ruc"`
	LegalName     string `db:"issuer_legal_name" json:"legalName"`
	TradeName     string `db:"issuer_trade_name" json:"tradeName"`
	FiscalAddress string `db:"issuer_address" json:"fiscalAddress"`
	GeoCode       string `db:"issuer_geo_code" json:"geoCode"`
	District      string `db:"issuer_district" json:"district"`
	Province      string `db:"issuer_province" json:"province"`
	Region        string `db:"issuer_region" json:"region"`

	// Production selects the live tax-authority environment over the sandbox.
	Production bool `db:"issuer_production" json:"production"`

	// Optional credentials for the fallback provider, when the issuer has
	// their own registration there.
	SecondaryUser string `db:"issuer_secondary_user" json:"secondaryUser,omitempty"`
}

// Counterparty is the customer/recipient named on the document.
type Counterparty struct {
	IdentityType   string `db:"customer_identity_type" json:"identityType"`
	IdentityNumber string `db:"customer_identity_number" json:"identityNumber"`
	Name           string `db:"customer_name" json:"name"`
	Address        string `db:"customer_address" json:"address,omitempty"`
}

// Transaction carries the header-level commercial data of the document.
type Transaction struct {
	Type        DocumentType `db:"doc_type" json:"type"`
	Series      string       `db:"series" json:"series"`
	Number      int64        `db:"number" json:"number"`
	IssueDate   time.Time    `db:"issue_date" json:"issueDate"`
	IssueTime   string       `db:"issue_time" json:"issueTime"`
	DueDate     *time.Time   `db:"due_date" json:"dueDate,omitempty"`
	Currency    string       `db:"currency" json:"currency"`
	PaymentForm string       `db:"payment_form" json:"paymentForm"`

	Taxable    types.Money `db:"taxable_amount" json:"taxableAmount"`
	Tax        types.Money `db:"tax_amount" json:"taxAmount"`
	Exempt     types.Money `db:"exempt_amount" json:"exemptAmount"`
	Unaffected types.Money `db:"unaffected_amount" json:"unaffectedAmount"`

	Note string `db:"note" json:"note,omitempty"`
}

// Item is one line entry of the document.
type Item struct {
	LineNo      int         `db:"line_no" json:"lineNo"`
	Description string      `db:"description" json:"description"`
	Quantity    types.Money `db:"quantity" json:"quantity"`
	UnitPrice   types.Money `db:"unit_price" json:"unitPrice"`

	// ProductCode is the store's own SKU; AuthorityCode is the external
	// tax-authority product code, both optional.
	ProductCode   string `db:"product_code" json:"productCode,omitempty"`
	AuthorityCode string `db:"authority_code" json:"authorityCode,omitempty"`

	Unit           string `db:"unit" json:"unit,omitempty"`
	TaxAffectation string `db:"tax_affectation" json:"taxAffectation,omitempty"`
}

// Document is the outbound fiscal document, immutable once validated.
type Document struct {
	ID id.ID `db:"id" json:"id"`

	Issuer       Issuer       `json:"issuer"`
	Counterparty Counterparty `json:"counterparty"`
	Transaction  Transaction  `json:"transaction"`
	Items        []Item       `json:"items"`

	Status    Status    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Total returns the document grand total.
func (d *Document) Total() types.Money {
	t := d.Transaction
	return t.Taxable.Add(t.Tax).Add(t.Exempt).Add(t.Unaffected)
}

// Result is the canonical submission outcome, the only artifact that
// crosses the subsystem boundary outward. All optional fields may be empty
// when the provider acknowledged the document without returning artifacts.
type Result struct {
	Accepted bool   `json:"accepted"`
	Code     string `json:"code"`
	Message  string `json:"message,omitempty"`
	Provider string `json:"provider"`

	XMLURL string `json:"xmlUrl,omitempty"`
	CDRURL string `json:"cdrUrl,omitempty"`
	PDFURL string `json:"pdfUrl,omitempty"`

	Hash      string `json:"hash,omitempty"`
	XMLBase64 string `json:"xmlBase64,omitempty"`
	CDRBase64 string `json:"cdrBase64,omitempty"`

	CompletedAt time.Time `json:"completedAt"`
}
