package fiscal

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"ferrex/internal/core/apperror"
)

// Finding is a non-blocking validation observation. Findings are reported
// through diagnostics/logs and never abort a submission.
type Finding struct {
	Check   string
	Field   string
	Message string
}

// igvRate is the ad-valorem tax rate applied to the taxable amount.
var igvRate = decimal.NewFromFloat(0.18)

// igvTolerance is the accepted drift between the declared tax amount and
// the recomputed one. Mismatches inside the tolerance are silent; outside
// it they become findings, never errors. The leniency is intentional:
// rounding conventions differ between upstream POS terminals.
var igvTolerance = decimal.NewFromFloat(0.02)

// maxIssueAge flags documents issued suspiciously far from the current date.
const maxIssueAge = 365 * 24 * time.Hour

// Validate runs all structural and business-rule checks on the document.
// It is pure: no I/O, no mutation. Hard failures return an apperror with
// the matching validation code; soft checks come back as findings.
func Validate(doc *Document) ([]Finding, error) {
	return validateAt(doc, time.Now().UTC())
}

func validateAt(doc *Document, now time.Time) ([]Finding, error) {
	// Presence of the fields nothing else can be checked without.
	if doc.Issuer.RUC == "" {
		return nil, apperror.NewMissingField("issuer.ruc")
	}
	if doc.Counterparty.IdentityNumber == "" {
		return nil, apperror.NewMissingField("counterparty.identityNumber")
	}
	if doc.Transaction.Series == "" {
		return nil, apperror.NewMissingField("transaction.series")
	}
	if doc.Transaction.Number <= 0 {
		return nil, apperror.NewMissingField("transaction.number")
	}
	if len(doc.Items) == 0 {
		return nil, apperror.NewMissingField("items")
	}

	if !validRUC(doc.Issuer.RUC) {
		return nil, apperror.NewInvalidTaxID(doc.Issuer.RUC)
	}

	if err := validateIdentity(doc.Counterparty); err != nil {
		return nil, err
	}

	if c := doc.Transaction.Currency; c != CurrencyPEN && c != CurrencyUSD {
		return nil, apperror.NewInvalidCurrency(c)
	}

	for _, rf := range requiredFields(doc) {
		if rf.value == "" {
			return nil, apperror.NewMissingField(rf.path)
		}
	}
	if doc.Transaction.IssueDate.IsZero() {
		return nil, apperror.NewMissingField("transaction.issueDate")
	}

	var findings []Finding

	if age := now.Sub(doc.Transaction.IssueDate); age > maxIssueAge || age < -maxIssueAge {
		findings = append(findings, Finding{
			Check:   "issue_date_staleness",
			Field:   "transaction.issueDate",
			Message: fmt.Sprintf("issue date %s is more than 365 days from today", doc.Transaction.IssueDate.Format("2006-01-02")),
		})
	}

	expected := doc.Transaction.Taxable.Mul(igvRate).Round(2)
	if doc.Transaction.Tax.Sub(expected).Abs().GreaterThan(igvTolerance) {
		findings = append(findings, Finding{
			Check:   "tax_amount_mismatch",
			Field:   "transaction.taxAmount",
			Message: fmt.Sprintf("declared tax %s differs from computed %s", doc.Transaction.Tax.StringFixed(2), expected.StringFixed(2)),
		})
	}

	return findings, nil
}

type requiredField struct {
	path  string
	value string
}

func requiredFields(doc *Document) []requiredField {
	return []requiredField{
		{"issuer.legalName", doc.Issuer.LegalName},
		{"issuer.tradeName", doc.Issuer.TradeName},
		{"issuer.fiscalAddress", doc.Issuer.FiscalAddress},
		{"issuer.geoCode", doc.Issuer.GeoCode},
		{"issuer.district", doc.Issuer.District},
		{"issuer.province", doc.Issuer.Province},
		{"issuer.region", doc.Issuer.Region},
		{"counterparty.name", doc.Counterparty.Name},
		{"transaction.issueTime", doc.Transaction.IssueTime},
	}
}

// validateIdentity dispatches on the declared identity-document type.
// The switch is deliberately exhaustive over the typed catalog so adding a
// type is a compile-visible decision, not a silent fallthrough.
func validateIdentity(c Counterparty) error {
	switch c.IdentityType {
	case IdentityTypeDNI:
		if !validDNI(c.IdentityNumber) {
			return apperror.NewInvalidDocumentNumber(c.IdentityType, c.IdentityNumber)
		}
	case IdentityTypeRUC:
		if !validRUC(c.IdentityNumber) {
			return apperror.NewInvalidDocumentNumber(c.IdentityType, c.IdentityNumber)
		}
	default:
		// Foreign ids, passports and the rest of catalog 06 carry no
		// checksum; presence was already enforced.
	}
	return nil
}

// rucWeights are the fixed modulus-11 weights over the first 10 digits.
var rucWeights = [10]int{5, 4, 3, 2, 7, 6, 5, 4, 3, 2}

// validRUC verifies the 11-digit taxpayer identifier checksum.
// The weighted sum mod 11 determines the check digit: 0 when the remainder
// is 0, otherwise 11-remainder reduced mod 10 (the reduction makes e.g.
// 20100070970 valid, matching the authority's published algorithm).
func validRUC(s string) bool {
	if len(s) != 11 || !allDigits(s) || allZero(s) {
		return false
	}

	sum := 0
	for i, w := range rucWeights {
		sum += w * int(s[i]-'0')
	}

	r := sum % 11
	want := 0
	if r != 0 {
		want = (11 - r) % 10
	}
	return int(s[10]-'0') == want
}

// validDNI verifies the 8-digit personal identifier.
func validDNI(s string) bool {
	return len(s) == 8 && allDigits(s) && !allZero(s)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}

func allZero(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != '0' {
			return false
		}
	}
	return true
}
