package sunat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ferrex/internal/core/apperror"
	"ferrex/internal/core/types"
	"ferrex/internal/domain/fiscal"
)

// fakeDoer replays scripted responses and records every attempted request.
type fakeDoer struct {
	responses []fakeResponse
	requests  []*http.Request
	bodies    [][]byte
}

type fakeResponse struct {
	status int
	body   string
	err    error
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	body, _ := io.ReadAll(req.Body)
	f.requests = append(f.requests, req)
	f.bodies = append(f.bodies, body)

	if len(f.responses) == 0 {
		return nil, errors.New("no scripted response")
	}
	r := f.responses[0]
	f.responses = f.responses[1:]

	if r.err != nil {
		return nil, r.err
	}
	return &http.Response{
		StatusCode: r.status,
		Body:       io.NopCloser(bytes.NewReader([]byte(r.body))),
		Header:     http.Header{},
	}, nil
}

func testProfiles() Profiles {
	return Profiles{
		Primary: Profile{
			BaseURL:  "https://primary.example.com",
			Path:     "/api/v1/invoice/send",
			Timeout:  5 * time.Second,
			User:     "FERREX",
			Password: "secret",
		},
		Secondary: Profile{
			BaseURL: "https://secondary.example.com",
			Path:    "/api/v1/documents",
			Timeout: 5 * time.Second,
			Token:   "tok-123",
		},
	}
}

func testDocument() *fiscal.Document {
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
		},
		Counterparty: fiscal.Counterparty{
			IdentityType:   fiscal.IdentityTypeDNI,
			IdentityNumber: "45871236",
			Name:           "Juan Perez",
		},
		Transaction: fiscal.Transaction{
			Type:      fiscal.DocumentTypeReceipt,
			Series:    "B001",
			Number:    57,
			IssueDate: time.Now().UTC(),
			IssueTime: "10:30:00",
			Currency:  fiscal.CurrencyPEN,
			Taxable:   types.MustMoney("100.00"),
			Tax:       types.MustMoney("18.00"),
		},
		Items: []fiscal.Item{
			{LineNo: 1, Description: "Martillo", Quantity: types.MustMoney("2"), UnitPrice: types.MustMoney("50.00")},
		},
	}
}

const primaryAccepted = `{"respuesta":{"codigo":"0","mensaje":"aceptado","enlace_del_pdf":"https://cdn/doc.pdf","codigo_hash":"abc123"}}`

func TestSubmit_PrimaryAccepted(t *testing.T) {
	doer := &fakeDoer{responses: []fakeResponse{{status: 200, body: primaryAccepted}}}
	s := NewSubmitter(testProfiles(), doer)

	res, err := s.Submit(context.Background(), testDocument())
	require.NoError(t, err)
	require.True(t, res.Accepted)
	assert.Equal(t, string(KindPrimary), res.Provider)
	assert.Equal(t, "0", res.Code)
	assert.Equal(t, "abc123", res.Hash)

	// Success on primary means the secondary is never contacted.
	require.Len(t, doer.requests, 1)
	assert.Equal(t, "https://primary.example.com/api/v1/invoice/send", doer.requests[0].URL.String())
	assert.Empty(t, doer.requests[0].Header.Get("Authorization"))

	// Credentials travel inside the primary payload.
	var payload map[string]any
	require.NoError(t, json.Unmarshal(doer.bodies[0], &payload))
	assert.Equal(t, "FERREX", payload["credencial_usuario"])
	assert.Equal(t, "secret", payload["credencial_clave"])
}

func TestSubmit_ValidationFailureMakesNoCalls(t *testing.T) {
	doer := &fakeDoer{}
	s := NewSubmitter(testProfiles(), doer)

	doc := testDocument()
	doc.Issuer.RUC = "20100070971"

	_, err := s.Submit(context.Background(), doc)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTaxID))
	assert.Empty(t, doer.requests, "invalid documents must never reach a provider")
}

func TestSubmit_FailoverToSecondary(t *testing.T) {
	doer := &fakeDoer{responses: []fakeResponse{
		{err: errors.New("connection refused")},
		{status: 200, body: `{"status":"ACEPTADO","xmlUrl":" https://cdn/doc.xml ","hash":"h2"}`},
	}}
	s := NewSubmitter(testProfiles(), doer)

	res, err := s.Submit(context.Background(), testDocument())
	require.NoError(t, err)
	require.True(t, res.Accepted)
	assert.Equal(t, string(KindSecondary), res.Provider)
	assert.Equal(t, "https://cdn/doc.xml", res.XMLURL, "URLs must be trimmed")

	require.Len(t, doer.requests, 2)
	assert.Equal(t, "Bearer tok-123", doer.requests[1].Header.Get("Authorization"))

	// The secondary payload is the camelCase shape, no embedded credentials.
	var payload map[string]any
	require.NoError(t, json.Unmarshal(doer.bodies[1], &payload))
	assert.Equal(t, "B001", payload["series"])
	assert.Equal(t, float64(57), payload["number"])
	assert.NotContains(t, payload, "credencial_usuario")
}

func TestSubmit_SecondaryFailureReportsPrimaryError(t *testing.T) {
	doer := &fakeDoer{responses: []fakeResponse{
		{status: 500, body: `{}`},
		{err: errors.New("connection refused")},
	}}
	s := NewSubmitter(testProfiles(), doer)

	_, err := s.Submit(context.Background(), testDocument())
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeProviderInternal),
		"primary cause must win over the secondary failure: %v", err)
	require.Len(t, doer.requests, 2)
}

func TestSubmit_UnusableSecondarySkipsFailover(t *testing.T) {
	profiles := testProfiles()
	profiles.Secondary.Token = ""

	doer := &fakeDoer{responses: []fakeResponse{{err: errors.New("connection refused")}}}
	s := NewSubmitter(profiles, doer)

	_, err := s.Submit(context.Background(), testDocument())
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeProviderTransport))
	require.Len(t, doer.requests, 1, "tokenless secondary must never be attempted")
}

func TestSubmit_CancelledContextSkipsFailover(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	callCount := 0
	cancellingDoer := doerFunc(func(req *http.Request) (*http.Response, error) {
		callCount++
		cancel()
		return nil, ctx.Err()
	})

	s := NewSubmitter(testProfiles(), cancellingDoer)

	_, err := s.Submit(ctx, testDocument())
	require.Error(t, err)
	assert.Equal(t, 1, callCount, "cancelled caller gets no rescue attempt")
}

type doerFunc func(req *http.Request) (*http.Response, error)

func (f doerFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

func TestSubmit_PrimaryStatusMapping(t *testing.T) {
	tests := []struct {
		status   int
		wantCode string
	}{
		{http.StatusUnauthorized, apperror.CodeProviderAuth},
		{http.StatusBadRequest, apperror.CodeProviderInvalidPayload},
		{http.StatusInternalServerError, apperror.CodeProviderInternal},
		{http.StatusBadGateway, apperror.CodeProviderTransport},
	}

	profiles := testProfiles()
	profiles.Secondary.Token = "" // isolate the primary mapping

	for _, tt := range tests {
		doer := &fakeDoer{responses: []fakeResponse{{status: tt.status, body: `{}`}}}
		s := NewSubmitter(profiles, doer)

		_, err := s.Submit(context.Background(), testDocument())
		require.Error(t, err)
		assert.True(t, apperror.HasCode(err, tt.wantCode),
			"status %d should map to %s, got %v", tt.status, tt.wantCode, err)
	}
}

func TestInterpretPrimary(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		wantAccepted bool
		wantCode     string
		wantErrCode  string
	}{
		{
			name:         "success code",
			body:         primaryAccepted,
			wantAccepted: true,
			wantCode:     "0",
		},
		{
			name:        "errors field wins over nothing",
			body:        `{"errors":"RUC del emisor no existe"}`,
			wantErrCode: apperror.CodeProviderRejected,
		},
		{
			name:        "mensaje without respuesta",
			body:        `{"mensaje":"comprobante duplicado"}`,
			wantErrCode: apperror.CodeProviderRejected,
		},
		{
			name:        "non-success codigo with errors",
			body:        `{"respuesta":{"codigo":"98"},"errors":"en proceso"}`,
			wantErrCode: apperror.CodeProviderRejected,
		},
		{
			name:         "empty body tolerated as accepted",
			body:         ``,
			wantAccepted: true,
			wantCode:     primarySuccessCode,
		},
		{
			name:         "unknown markers tolerated as accepted",
			body:         `{"foo":"bar"}`,
			wantAccepted: true,
			wantCode:     primarySuccessCode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := interpretPrimary([]byte(tt.body))
			if tt.wantErrCode != "" {
				require.Error(t, err)
				assert.True(t, apperror.HasCode(err, tt.wantErrCode), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAccepted, res.Accepted)
			assert.Equal(t, tt.wantCode, res.Code)
			assert.False(t, res.CompletedAt.IsZero())

			// Interpretation is pure: a second pass over the same body
			// must classify identically.
			again, err := interpretPrimary([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, res.Accepted, again.Accepted)
			assert.Equal(t, res.Code, again.Code)
		})
	}
}
