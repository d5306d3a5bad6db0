package sunat

import (
	"testing"
	"time"

	"ferrex/internal/core/types"
	"ferrex/internal/domain/fiscal"
)

func paymentDoc() *fiscal.Document {
	due := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	return &fiscal.Document{
		Issuer: fiscal.Issuer{
			RUC:           "20100070970",
			LegalName:     "Ferreteria El Tornillo S.A.C.",
			TradeName:     "El Tornillo",
			FiscalAddress: "Av. Industrial 1234",
			GeoCode:       "150101",
			District:      "Lima",
			Province:      "Lima",
			Region:        "Lima",
			Production:    true,
			SecondaryUser: "persona-77",
		},
		Counterparty: fiscal.Counterparty{
			IdentityType:   fiscal.IdentityTypeRUC,
			IdentityNumber: "20503644968",
			Name:           "Constructora Andina S.A.",
			Address:        "Jr. Union 500",
		},
		Transaction: fiscal.Transaction{
			Type:      fiscal.DocumentTypeInvoice,
			Series:    "F001",
			Number:    4021,
			IssueDate: time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC),
			IssueTime: "16:45:10",
			DueDate:   &due,
			Currency:  fiscal.CurrencyUSD,
			Taxable:   types.MustMoney("250.00"),
			Tax:       types.MustMoney("45.00"),
			Exempt:    types.MustMoney("0"),
		},
		Items: []fiscal.Item{
			{
				LineNo:      1,
				Description: "Cemento Portland x 42.5kg",
				Quantity:    types.MustMoney("10"),
				UnitPrice:   types.MustMoney("25.00"),
				ProductCode: "CEM-425",
				Unit:        "BG",
			},
			{
				LineNo:      2,
				Description: "Flete",
				Quantity:    types.MustMoney("1"),
				UnitPrice:   types.MustMoney("30.00"),
				// Unit and TaxAffectation blank on purpose.
			},
		},
	}
}

func TestBuildPrimaryPayload(t *testing.T) {
	doc := paymentDoc()
	p := Profile{User: "FERREX", Password: "secret"}

	out := buildPrimaryPayload(doc, p)

	if out.Operacion != "generar_comprobante" {
		t.Errorf("operacion = %q", out.Operacion)
	}
	if out.Numero != "4021" {
		t.Errorf("numero must be stringified, got %q", out.Numero)
	}
	if out.FechaDeEmision != "29-08-2026" {
		t.Errorf("fecha_de_emision = %q, want day-month-year", out.FechaDeEmision)
	}
	if out.FechaDeVencimiento != "15-09-2026" {
		t.Errorf("fecha_de_vencimiento = %q", out.FechaDeVencimiento)
	}
	if out.Moneda != "2" {
		t.Errorf("moneda must stay in internal code, got %q", out.Moneda)
	}
	if out.ModoProduccion != "true" {
		t.Errorf("modo_produccion = %q", out.ModoProduccion)
	}
	if out.CredencialUsuario != "FERREX" || out.CredencialClave != "secret" {
		t.Error("credentials must be embedded in the payload")
	}
	if want := "Av. Industrial 1234, Lima, Lima, Lima"; out.EmisorDireccion != want {
		t.Errorf("emisor_direccion = %q, want %q", out.EmisorDireccion, want)
	}
	if out.TotalGravada != "250.00" || out.TotalIGV != "45.00" {
		t.Errorf("totals = %q / %q", out.TotalGravada, out.TotalIGV)
	}
	if out.TotalExonerada != "0" || out.TotalInafecta != "0" {
		t.Errorf("zero amounts must render as %q, got %q / %q", "0", out.TotalExonerada, out.TotalInafecta)
	}
	if out.Total != "295.00" {
		t.Errorf("total = %q", out.Total)
	}
}

func TestBuildPrimaryItem_Defaults(t *testing.T) {
	doc := paymentDoc()
	out := buildPrimaryPayload(doc, Profile{})

	if len(out.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(out.Items))
	}

	first := out.Items[0]
	if first.UnidadDeMedida != "BG" {
		t.Errorf("explicit unit must survive, got %q", first.UnidadDeMedida)
	}

	second := out.Items[1]
	if second.UnidadDeMedida != "NIU" {
		t.Errorf("blank unit must default to NIU, got %q", second.UnidadDeMedida)
	}
	if second.TipoDeIGV != "10" {
		t.Errorf("blank affectation must default to 10, got %q", second.TipoDeIGV)
	}
	// 30.00 taxed at 18%: subtotal 30.00, igv 5.40, total 35.40.
	if second.Subtotal != "30.00" || second.IGV != "5.40" || second.Total != "35.40" {
		t.Errorf("line math: subtotal %q igv %q total %q", second.Subtotal, second.IGV, second.Total)
	}
	if second.PrecioUnitario != "35.40" {
		t.Errorf("precio_unitario must include tax, got %q", second.PrecioUnitario)
	}
}

func TestBuildSecondaryPayload(t *testing.T) {
	doc := paymentDoc()
	out := buildSecondaryPayload(doc)

	if out.Number != 4021 {
		t.Errorf("number must stay numeric, got %v", out.Number)
	}
	if out.IssueDate != "2026-08-29" {
		t.Errorf("issueDate = %q, want ISO order", out.IssueDate)
	}
	if out.DueDate != "2026-09-15" {
		t.Errorf("dueDate = %q", out.DueDate)
	}
	if out.Currency != "USD" {
		t.Errorf("currency must map to ISO code, got %q", out.Currency)
	}
	if out.PersonaID != "persona-77" {
		t.Errorf("personaId = %q", out.PersonaID)
	}
	if out.Issuer.Address == nil || out.Issuer.Address.GeoCode != "150101" {
		t.Error("issuer address must stay structured with ubigeo")
	}
	if out.Customer.Address == nil || out.Customer.Address.Street != "Jr. Union 500" {
		t.Error("customer address lost")
	}
	if out.TotalAmount != 295.00 {
		t.Errorf("totalAmount = %v", out.TotalAmount)
	}
	if len(out.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(out.Items))
	}
	if out.Items[1].Unit != "NIU" || out.Items[1].IGVAffectation != "10" {
		t.Errorf("defaults must apply on both wire formats, got %q / %q",
			out.Items[1].Unit, out.Items[1].IGVAffectation)
	}
}

func TestNormalize_TrimsURLs(t *testing.T) {
	raw := []byte(`{"respuesta":{"codigo":"0","enlace_del_xml":"  https://cdn/doc.xml\n","enlace_del_cdr":"https://cdn/doc-cdr.zip "}}`)

	res := normalize(KindPrimary, raw)
	if res.XMLURL != "https://cdn/doc.xml" {
		t.Errorf("xml url = %q", res.XMLURL)
	}
	if res.CDRURL != "https://cdn/doc-cdr.zip" {
		t.Errorf("cdr url = %q", res.CDRURL)
	}
	if res.Accepted {
		t.Error("normalize must not decide acceptance")
	}
	if res.CompletedAt.IsZero() {
		t.Error("completion timestamp missing")
	}
}

func TestNormalize_SecondaryFields(t *testing.T) {
	raw := []byte(`{"status":"ACEPTADO","message":"ok","pdfUrl":" https://cdn/d.pdf","hash":"h1","xmlBase64":"PGE+"}`)

	res := normalize(KindSecondary, raw)
	if res.Provider != string(KindSecondary) {
		t.Errorf("provider = %q", res.Provider)
	}
	if res.Code != "ACEPTADO" || res.Message != "ok" {
		t.Errorf("code/message = %q / %q", res.Code, res.Message)
	}
	if res.PDFURL != "https://cdn/d.pdf" {
		t.Errorf("pdf url = %q", res.PDFURL)
	}
	if res.XMLBase64 != "PGE+" {
		t.Errorf("xml base64 = %q", res.XMLBase64)
	}
}
