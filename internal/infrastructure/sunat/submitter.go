package sunat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"ferrex/internal/core/apperror"
	"ferrex/internal/domain/fiscal"
	"ferrex/pkg/logger"
)

var tracer = otel.Tracer("ferrex/sunat")

// Doer executes HTTP requests. *http.Client satisfies it; tests substitute
// a fake to assert on attempted calls.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Submitter orchestrates the two-provider failover protocol. It holds no
// mutable state across submissions; concurrent use is safe.
type Submitter struct {
	profiles Profiles
	client   Doer
}

// NewSubmitter creates a Submitter over the given provider pair.
// The client's own timeout is not relied upon: each attempt gets a
// per-provider deadline from the profile.
func NewSubmitter(profiles Profiles, client Doer) *Submitter {
	if client == nil {
		client = http.DefaultClient
	}
	return &Submitter{profiles: profiles, client: client}
}

var _ fiscal.Submitter = (*Submitter)(nil)

// Submit validates the document, submits it to the primary provider and,
// if that fails and the secondary profile is usable, hands it to the
// secondary. Exactly one attempt per provider. When both fail, the
// PRIMARY's error is returned: the secondary is a best-effort rescue path
// and its own failure is logged, never surfaced as the reported cause.
func (s *Submitter) Submit(ctx context.Context, doc *fiscal.Document) (*fiscal.Result, error) {
	findings, err := fiscal.Validate(doc)
	if err != nil {
		return nil, err
	}
	for _, f := range findings {
		logger.Warn(ctx, "validation finding",
			"check", f.Check,
			"field", f.Field,
			"detail", f.Message,
			"series", doc.Transaction.Series,
			"number", doc.Transaction.Number)
	}

	res, primaryErr := s.submitPrimary(ctx, doc)
	if primaryErr == nil {
		return res, nil
	}

	// A cancelled caller gets no rescue attempt.
	if ctx.Err() != nil {
		return nil, primaryErr
	}

	if !s.profiles.Secondary.Usable() {
		return nil, primaryErr
	}

	res, secondaryErr := s.submitSecondary(ctx, doc)
	if secondaryErr != nil {
		logger.Warn(ctx, "secondary provider failed, reporting primary cause",
			"secondary_error", secondaryErr,
			"primary_error", primaryErr)
		return nil, primaryErr
	}

	logger.Info(ctx, "document rescued by secondary provider",
		"primary_error", primaryErr,
		"series", doc.Transaction.Series,
		"number", doc.Transaction.Number)
	return res, nil
}

func (s *Submitter) submitPrimary(ctx context.Context, doc *fiscal.Document) (*fiscal.Result, error) {
	ctx, span := tracer.Start(ctx, "sunat.submit")
	defer span.End()
	span.SetAttributes(attribute.String("provider", string(KindPrimary)))

	status, raw, err := s.post(ctx, s.profiles.Primary, buildPrimaryPayload(doc, s.profiles.Primary), "")
	if err != nil {
		return nil, apperror.NewProviderTransport(string(KindPrimary), "primary provider unreachable").WithCause(err)
	}
	span.SetAttributes(attribute.Int("http.status", status))

	if status < 200 || status >= 300 {
		return nil, statusError(KindPrimary, status)
	}

	return interpretPrimary(raw)
}

// interpretPrimary applies the primary response markers in priority order:
// nested success code, explicit error field, alternate message field,
// then the accepted-without-artifacts tolerance.
func interpretPrimary(raw []byte) (*fiscal.Result, error) {
	var body primaryResponse
	_ = json.Unmarshal(raw, &body)

	if body.Respuesta != nil && body.Respuesta.Codigo == primarySuccessCode {
		res := normalize(KindPrimary, raw)
		res.Accepted = true
		return res, nil
	}
	if body.Errors != "" {
		return nil, apperror.NewProviderRejected(string(KindPrimary), body.Errors)
	}
	if body.Mensaje != "" {
		return nil, apperror.NewProviderRejected(string(KindPrimary), body.Mensaje)
	}

	return acceptedWithoutArtifacts(KindPrimary), nil
}

func (s *Submitter) submitSecondary(ctx context.Context, doc *fiscal.Document) (*fiscal.Result, error) {
	ctx, span := tracer.Start(ctx, "sunat.submit")
	defer span.End()
	span.SetAttributes(attribute.String("provider", string(KindSecondary)))

	status, raw, err := s.post(ctx, s.profiles.Secondary, buildSecondaryPayload(doc), s.profiles.Secondary.Token)
	if err != nil {
		return nil, apperror.NewProviderUnavailable(string(KindSecondary), "secondary provider unreachable").WithCause(err)
	}
	span.SetAttributes(attribute.Int("http.status", status))

	if status < 200 || status >= 300 {
		return nil, apperror.NewProviderUnavailable(string(KindSecondary),
			fmt.Sprintf("secondary provider answered status %d", status))
	}

	res := normalize(KindSecondary, raw)
	res.Accepted = true
	return res, nil
}

// post marshals the payload and executes one HTTP attempt with the
// profile's timeout. Cancelling ctx aborts the in-flight call.
func (s *Submitter) post(ctx context.Context, p Profile, payload any, bearer string) (int, []byte, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint(), bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}

	return resp.StatusCode, raw, nil
}

// statusError translates a non-2xx primary status into the submission
// error sub-kind the caller can act on.
func statusError(kind Kind, status int) *apperror.AppError {
	switch status {
	case http.StatusUnauthorized:
		return apperror.NewProviderAuth(string(kind))
	case http.StatusBadRequest:
		return apperror.NewProviderInvalidPayload(string(kind))
	case http.StatusInternalServerError:
		return apperror.NewProviderInternal(string(kind))
	default:
		return apperror.NewProviderTransport(string(kind),
			fmt.Sprintf("provider answered status %d", status)).
			WithDetail("status", status)
	}
}
