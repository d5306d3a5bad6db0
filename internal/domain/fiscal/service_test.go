package fiscal

import (
	"context"
	"errors"
	"testing"
	"time"

	"ferrex/internal/core/apperror"
	"ferrex/internal/core/id"
	"ferrex/internal/core/numerator"
	"ferrex/internal/core/types"
)

// fakeRepo records calls in memory.
type fakeRepo struct {
	docs        map[id.ID]*Document
	statuses    map[id.ID]Status
	submissions map[id.ID][]*Result
	createErr   error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		docs:        make(map[id.ID]*Document),
		statuses:    make(map[id.ID]Status),
		submissions: make(map[id.ID][]*Result),
	}
}

func (r *fakeRepo) Create(ctx context.Context, doc *Document) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.docs[doc.ID] = doc
	r.statuses[doc.ID] = doc.Status
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, docID id.ID) (*Document, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("fiscal document", docID)
	}
	return doc, nil
}

func (r *fakeRepo) List(ctx context.Context, filter ListFilter) ([]*Document, error) {
	out := make([]*Document, 0, len(r.docs))
	for _, d := range r.docs {
		out = append(out, d)
	}
	return out, nil
}

func (r *fakeRepo) SetStatus(ctx context.Context, docID id.ID, status Status) error {
	r.statuses[docID] = status
	return nil
}

func (r *fakeRepo) RecordSubmission(ctx context.Context, docID id.ID, res *Result) error {
	r.submissions[docID] = append(r.submissions[docID], res)
	return nil
}

func (r *fakeRepo) GetSubmissions(ctx context.Context, docID id.ID) ([]*Result, error) {
	return r.submissions[docID], nil
}

type fakeSubmitter struct {
	res   *Result
	err   error
	calls int
}

func (s *fakeSubmitter) Submit(ctx context.Context, doc *Document) (*Result, error) {
	s.calls++
	return s.res, s.err
}

func issuableDocument() *Document {
	return &Document{
		Issuer: Issuer{
			RUC:           "20100070970",
			LegalName:     "Ferreteria El Tornillo S.A.C.",
			TradeName:     "El Tornillo",
			FiscalAddress: "Av. Industrial 1234",
			GeoCode:       "150101",
			District:      "Lima",
			Province:      "Lima",
			Region:        "Lima",
		},
		Counterparty: Counterparty{
			IdentityType:   IdentityTypeDNI,
			IdentityNumber: "45871236",
			Name:           "Juan Perez",
		},
		Transaction: Transaction{
			Type:      DocumentTypeReceipt,
			Series:    "B001",
			IssueDate: time.Now().UTC(),
			IssueTime: "10:30:00",
			Currency:  CurrencyPEN,
			Taxable:   types.MustMoney("100.00"),
			Tax:       types.MustMoney("18.00"),
		},
		Items: []Item{
			{LineNo: 1, Description: "Martillo", Quantity: types.MustMoney("2"), UnitPrice: types.MustMoney("50.00")},
		},
	}
}

func TestIssue_Accepted(t *testing.T) {
	repo := newFakeRepo()
	sub := &fakeSubmitter{res: &Result{Accepted: true, Code: "0", Provider: "primary"}}
	svc := NewService(repo, sub, &numerator.MockGenerator{})
	ctx := context.Background()

	doc := issuableDocument()
	res, err := svc.Issue(ctx, doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Accepted {
		t.Error("expected accepted result")
	}
	if doc.Transaction.Number != 1 {
		t.Errorf("expected allocated correlative 1, got %d", doc.Transaction.Number)
	}
	if id.IsNil(doc.ID) {
		t.Error("document id not assigned")
	}
	if repo.statuses[doc.ID] != StatusAccepted {
		t.Errorf("stored status = %s, want accepted", repo.statuses[doc.ID])
	}
	if len(repo.submissions[doc.ID]) != 1 {
		t.Errorf("expected 1 recorded submission, got %d", len(repo.submissions[doc.ID]))
	}
}

func TestIssue_PresetNumberIsKept(t *testing.T) {
	repo := newFakeRepo()
	sub := &fakeSubmitter{res: &Result{Accepted: true}}
	num := &numerator.MockGenerator{
		NextCorrelativeFunc: func(ctx context.Context, series string) (int64, error) {
			t.Error("numerator must not run for pre-numbered documents")
			return 0, nil
		},
	}
	svc := NewService(repo, sub, num)

	doc := issuableDocument()
	doc.Transaction.Number = 777

	if _, err := svc.Issue(context.Background(), doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Transaction.Number != 777 {
		t.Errorf("number = %d, want 777", doc.Transaction.Number)
	}
}

func TestIssue_StatusOnFailure(t *testing.T) {
	tests := []struct {
		name       string
		submitErr  error
		wantStatus Status
	}{
		{"validation failure", apperror.NewInvalidTaxID("20100070971"), StatusInvalid},
		{"provider rejection", apperror.NewProviderRejected("primary", "RUC no existe"), StatusRejected},
		{"transport failure", apperror.NewProviderTransport("primary", "unreachable"), StatusErrored},
		{"auth failure", apperror.NewProviderAuth("primary"), StatusErrored},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo()
			sub := &fakeSubmitter{err: tt.submitErr}
			svc := NewService(repo, sub, &numerator.MockGenerator{})

			doc := issuableDocument()
			_, err := svc.Issue(context.Background(), doc)
			if err == nil {
				t.Fatal("expected error")
			}
			if repo.statuses[doc.ID] != tt.wantStatus {
				t.Errorf("stored status = %s, want %s", repo.statuses[doc.ID], tt.wantStatus)
			}
			if len(repo.submissions[doc.ID]) != 0 {
				t.Error("failed submissions must not record an outcome result")
			}
		})
	}
}

func TestIssue_NumeratorFailureAborts(t *testing.T) {
	repo := newFakeRepo()
	sub := &fakeSubmitter{res: &Result{Accepted: true}}
	num := &numerator.MockGenerator{
		NextCorrelativeFunc: func(ctx context.Context, series string) (int64, error) {
			return 0, errors.New("sequence unavailable")
		},
	}
	svc := NewService(repo, sub, num)

	_, err := svc.Issue(context.Background(), issuableDocument())
	if err == nil {
		t.Fatal("expected error")
	}
	if sub.calls != 0 {
		t.Error("submitter must not run without a correlative")
	}
	if len(repo.docs) != 0 {
		t.Error("document must not be stored without a correlative")
	}
}

func TestGetSubmissions_UnknownDocument(t *testing.T) {
	svc := NewService(newFakeRepo(), &fakeSubmitter{}, &numerator.MockGenerator{})

	_, err := svc.GetSubmissions(context.Background(), id.New())
	if !apperror.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}
