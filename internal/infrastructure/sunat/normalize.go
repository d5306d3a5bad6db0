package sunat

import (
	"encoding/json"
	"strings"
	"time"

	"ferrex/internal/domain/fiscal"
)

// normalize maps a provider's raw response body onto the canonical Result.
// URL fields are trimmed of incidental whitespace and the completion
// timestamp is stamped here, at normalization time. The accepted flag is
// NOT derived from the raw fields; the orchestrator sets it from the
// interpretation it already performed, so the two logic paths cannot
// disagree.
func normalize(kind Kind, raw []byte) *fiscal.Result {
	res := &fiscal.Result{
		Provider:    string(kind),
		CompletedAt: time.Now().UTC(),
	}

	switch kind {
	case KindPrimary:
		var body primaryResponse
		_ = json.Unmarshal(raw, &body)
		if body.Respuesta == nil {
			return res
		}
		ack := body.Respuesta
		res.Code = ack.Codigo
		res.Message = ack.Mensaje
		res.XMLURL = strings.TrimSpace(ack.EnlaceDelXML)
		res.CDRURL = strings.TrimSpace(ack.EnlaceDelCDR)
		res.PDFURL = strings.TrimSpace(ack.EnlaceDelPDF)
		res.Hash = ack.CodigoHash
		res.XMLBase64 = ack.XMLBase64
		res.CDRBase64 = ack.CDRBase64

	case KindSecondary:
		var body secondaryResponse
		_ = json.Unmarshal(raw, &body)
		res.Code = body.Status
		res.Message = body.Message
		res.XMLURL = strings.TrimSpace(body.XMLURL)
		res.CDRURL = strings.TrimSpace(body.CDRURL)
		res.PDFURL = strings.TrimSpace(body.PDFURL)
		res.Hash = body.Hash
		res.XMLBase64 = body.XMLBase64
		res.CDRBase64 = body.CDRBase64
	}

	return res
}

// acceptedWithoutArtifacts represents a provider that answered 2xx with a
// body carrying none of the known markers. Treated as accepted with all
// optional fields empty. This tolerance mirrors observed provider
// behavior and is kept behind this one branch so it can be disabled
// independently if the provider confirms it masks silent failures.
func acceptedWithoutArtifacts(kind Kind) *fiscal.Result {
	return &fiscal.Result{
		Accepted:    true,
		Provider:    string(kind),
		Code:        primarySuccessCode,
		CompletedAt: time.Now().UTC(),
	}
}
