package sunat

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"ferrex/internal/core/types"
	"ferrex/internal/domain/fiscal"
)

// Primary wire format: flat Spanish snake_case document, every numeric
// field stringified, issuer address flattened into a single string and
// credentials embedded in the payload. The field names are the provider's
// contract and must not be renamed.

const (
	primaryOperation   = "generar_comprobante"
	primarySuccessCode = "0"

	defaultUnit           = "NIU"
	defaultTaxAffectation = "10"
	defaultAmount         = "0"
)

type primaryDocument struct {
	Operacion          string `json:"operacion"`
	TipoDeComprobante  string `json:"tipo_de_comprobante"`
	Serie              string `json:"serie"`
	Numero             string `json:"numero"`
	SunatTransaction   string `json:"sunat_transaction"`
	FechaDeEmision     string `json:"fecha_de_emision"`
	Hora               string `json:"hora"`
	FechaDeVencimiento string `json:"fecha_de_vencimiento,omitempty"`
	Moneda             string `json:"moneda"`

	CredencialUsuario string `json:"credencial_usuario"`
	CredencialClave   string `json:"credencial_clave"`
	ModoProduccion    string `json:"modo_produccion"`

	EmisorDenominacion    string `json:"emisor_denominacion"`
	EmisorNombreComercial string `json:"emisor_nombre_comercial"`
	EmisorDireccion       string `json:"emisor_direccion"`

	ClienteTipoDeDocumento    string `json:"cliente_tipo_de_documento"`
	ClienteNumeroDeDocumento  string `json:"cliente_numero_de_documento"`
	ClienteDenominacion       string `json:"cliente_denominacion"`
	ClienteDireccion          string `json:"cliente_direccion,omitempty"`

	TotalGravada   string `json:"total_gravada"`
	TotalIGV       string `json:"total_igv"`
	TotalExonerada string `json:"total_exonerada"`
	TotalInafecta  string `json:"total_inafecta"`
	Total          string `json:"total"`

	Observaciones string `json:"observaciones,omitempty"`

	Items []primaryItem `json:"items"`
}

type primaryItem struct {
	UnidadDeMedida      string `json:"unidad_de_medida"`
	Codigo              string `json:"codigo,omitempty"`
	CodigoProductoSunat string `json:"codigo_producto_sunat,omitempty"`
	Descripcion         string `json:"descripcion"`
	Cantidad            string `json:"cantidad"`
	ValorUnitario       string `json:"valor_unitario"`
	PrecioUnitario      string `json:"precio_unitario"`
	Subtotal            string `json:"subtotal"`
	TipoDeIGV           string `json:"tipo_de_igv"`
	IGV                 string `json:"igv"`
	Total               string `json:"total"`
}

// buildPrimaryPayload reshapes a validated document into the primary wire
// format. No re-validation happens here.
func buildPrimaryPayload(doc *fiscal.Document, p Profile) primaryDocument {
	t := doc.Transaction

	out := primaryDocument{
		Operacion:         primaryOperation,
		TipoDeComprobante: string(t.Type),
		Serie:             t.Series,
		Numero:            strconv.FormatInt(t.Number, 10),
		SunatTransaction:  "1",
		FechaDeEmision:    t.IssueDate.Format("02-01-2006"),
		Hora:              t.IssueTime,
		Moneda:            t.Currency,

		CredencialUsuario: p.User,
		CredencialClave:   p.Password,
		ModoProduccion:    boolString(doc.Issuer.Production),

		EmisorDenominacion:    doc.Issuer.LegalName,
		EmisorNombreComercial: doc.Issuer.TradeName,
		EmisorDireccion:       flattenAddress(doc.Issuer),

		ClienteTipoDeDocumento:   doc.Counterparty.IdentityType,
		ClienteNumeroDeDocumento: doc.Counterparty.IdentityNumber,
		ClienteDenominacion:      doc.Counterparty.Name,
		ClienteDireccion:         doc.Counterparty.Address,

		TotalGravada:   types.MoneyString(t.Taxable),
		TotalIGV:       types.MoneyString(t.Tax),
		TotalExonerada: amountOrDefault(t.Exempt),
		TotalInafecta:  amountOrDefault(t.Unaffected),
		Total:          types.MoneyString(doc.Total()),

		Observaciones: t.Note,
	}

	if t.DueDate != nil {
		out.FechaDeVencimiento = t.DueDate.Format("02-01-2006")
	}

	out.Items = make([]primaryItem, 0, len(doc.Items))
	for _, it := range doc.Items {
		out.Items = append(out.Items, buildPrimaryItem(it))
	}

	return out
}

func buildPrimaryItem(it fiscal.Item) primaryItem {
	affectation := it.TaxAffectation
	if affectation == "" {
		affectation = defaultTaxAffectation
	}
	unit := it.Unit
	if unit == "" {
		unit = defaultUnit
	}

	subtotal := it.Quantity.Mul(it.UnitPrice).Round(2)
	igv := decimal.Zero
	if affectation == defaultTaxAffectation {
		igv = subtotal.Mul(igvRate).Round(2)
	}
	total := subtotal.Add(igv)

	priceWithTax := it.UnitPrice
	if affectation == defaultTaxAffectation {
		priceWithTax = it.UnitPrice.Mul(onePlusIGV).Round(2)
	}

	return primaryItem{
		UnidadDeMedida:      unit,
		Codigo:              it.ProductCode,
		CodigoProductoSunat: it.AuthorityCode,
		Descripcion:         it.Description,
		Cantidad:            it.Quantity.String(),
		ValorUnitario:       types.MoneyString(it.UnitPrice),
		PrecioUnitario:      types.MoneyString(priceWithTax),
		Subtotal:            types.MoneyString(subtotal),
		TipoDeIGV:           affectation,
		IGV:                 types.MoneyString(igv),
		Total:               types.MoneyString(total),
	}
}

var (
	igvRate    = decimal.NewFromFloat(0.18)
	onePlusIGV = decimal.NewFromFloat(1.18)
)

// flattenAddress joins the structured issuer address into the single
// string the primary provider expects.
func flattenAddress(i fiscal.Issuer) string {
	parts := []string{i.FiscalAddress, i.District, i.Province, i.Region}
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

func amountOrDefault(m types.Money) string {
	if m.IsZero() {
		return defaultAmount
	}
	return types.MoneyString(m)
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// --- Primary response shape ---

type primaryResponse struct {
	Respuesta *primaryAck `json:"respuesta"`
	Errors    string      `json:"errors"`
	Mensaje   string      `json:"mensaje"`
}

type primaryAck struct {
	Codigo       string `json:"codigo"`
	Mensaje      string `json:"mensaje"`
	EnlaceDelXML string `json:"enlace_del_xml"`
	EnlaceDelCDR string `json:"enlace_del_cdr"`
	EnlaceDelPDF string `json:"enlace_del_pdf"`
	CodigoHash   string `json:"codigo_hash"`
	XMLBase64    string `json:"xml_base64"`
	CDRBase64    string `json:"cdr_base64"`
}
