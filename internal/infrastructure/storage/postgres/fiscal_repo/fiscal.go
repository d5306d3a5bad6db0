// Package fiscal_repo provides the PostgreSQL implementation of the
// fiscal document repository.
package fiscal_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"ferrex/internal/core/apperror"
	"ferrex/internal/core/id"
	"ferrex/internal/domain/fiscal"
	"ferrex/internal/infrastructure/storage/postgres"
)

const (
	documentsTable   = "fiscal_documents"
	itemsTable       = "fiscal_items"
	submissionsTable = "fiscal_submissions"
)

// Repo implements fiscal.Repository on PostgreSQL.
type Repo struct {
	txm   *postgres.TxManager
	blobs *postgres.BlobCodec
}

// New creates a fiscal document repository.
func New(txm *postgres.TxManager, blobs *postgres.BlobCodec) *Repo {
	return &Repo{txm: txm, blobs: blobs}
}

var _ fiscal.Repository = (*Repo)(nil)

// builder returns a squirrel builder with PostgreSQL placeholder format.
func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// --- row types ---

type documentRow struct {
	ID        id.ID     `db:"id"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	IssuerRUC           string `db:"issuer_ruc"`
	IssuerLegalName     string `db:"issuer_legal_name"`
	IssuerTradeName     string `db:"issuer_trade_name"`
	IssuerAddress       string `db:"issuer_address"`
	IssuerGeoCode       string `db:"issuer_geo_code"`
	IssuerDistrict      string `db:"issuer_district"`
	IssuerProvince      string `db:"issuer_province"`
	IssuerRegion        string `db:"issuer_region"`
	IssuerProduction    bool   `db:"issuer_production"`
	IssuerSecondaryUser string `db:"issuer_secondary_user"`

	CustomerIdentityType   string `db:"customer_identity_type"`
	CustomerIdentityNumber string `db:"customer_identity_number"`
	CustomerName           string `db:"customer_name"`
	CustomerAddress        string `db:"customer_address"`

	DocType     string          `db:"doc_type"`
	Series      string          `db:"series"`
	Number      int64           `db:"number"`
	IssueDate   time.Time       `db:"issue_date"`
	IssueTime   string          `db:"issue_time"`
	DueDate     *time.Time      `db:"due_date"`
	Currency    string          `db:"currency"`
	PaymentForm string          `db:"payment_form"`
	Taxable     decimal.Decimal `db:"taxable_amount"`
	Tax         decimal.Decimal `db:"tax_amount"`
	Exempt      decimal.Decimal `db:"exempt_amount"`
	Unaffected  decimal.Decimal `db:"unaffected_amount"`
	Note        string          `db:"note"`
}

type itemRow struct {
	DocumentID     id.ID           `db:"document_id"`
	LineNo         int             `db:"line_no"`
	Description    string          `db:"description"`
	Quantity       decimal.Decimal `db:"quantity"`
	UnitPrice      decimal.Decimal `db:"unit_price"`
	ProductCode    string          `db:"product_code"`
	AuthorityCode  string          `db:"authority_code"`
	Unit           string          `db:"unit"`
	TaxAffectation string          `db:"tax_affectation"`
}

type submissionRow struct {
	ID          id.ID     `db:"id"`
	DocumentID  id.ID     `db:"document_id"`
	Provider    string    `db:"provider"`
	Accepted    bool      `db:"accepted"`
	Code        string    `db:"code"`
	Message     string    `db:"message"`
	XMLURL      string    `db:"xml_url"`
	CDRURL      string    `db:"cdr_url"`
	PDFURL      string    `db:"pdf_url"`
	Hash        string    `db:"hash"`
	XMLZstd     []byte    `db:"xml_zstd"`
	CDRZstd     []byte    `db:"cdr_zstd"`
	CompletedAt time.Time `db:"completed_at"`
}

func toDocumentRow(doc *fiscal.Document) documentRow {
	t := doc.Transaction
	return documentRow{
		ID:        doc.ID,
		Status:    string(doc.Status),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,

		IssuerRUC:           doc.Issuer.RUC,
		IssuerLegalName:     doc.Issuer.LegalName,
		IssuerTradeName:     doc.Issuer.TradeName,
		IssuerAddress:       doc.Issuer.FiscalAddress,
		IssuerGeoCode:       doc.Issuer.GeoCode,
		IssuerDistrict:      doc.Issuer.District,
		IssuerProvince:      doc.Issuer.Province,
		IssuerRegion:        doc.Issuer.Region,
		IssuerProduction:    doc.Issuer.Production,
		IssuerSecondaryUser: doc.Issuer.SecondaryUser,

		CustomerIdentityType:   doc.Counterparty.IdentityType,
		CustomerIdentityNumber: doc.Counterparty.IdentityNumber,
		CustomerName:           doc.Counterparty.Name,
		CustomerAddress:        doc.Counterparty.Address,

		DocType:     string(t.Type),
		Series:      t.Series,
		Number:      t.Number,
		IssueDate:   t.IssueDate,
		IssueTime:   t.IssueTime,
		DueDate:     t.DueDate,
		Currency:    t.Currency,
		PaymentForm: t.PaymentForm,
		Taxable:     t.Taxable,
		Tax:         t.Tax,
		Exempt:      t.Exempt,
		Unaffected:  t.Unaffected,
		Note:        t.Note,
	}
}

func (r documentRow) toDomain() *fiscal.Document {
	return &fiscal.Document{
		ID:        r.ID,
		Status:    fiscal.Status(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		Issuer: fiscal.Issuer{
			RUC:           r.IssuerRUC,
			LegalName:     r.IssuerLegalName,
			TradeName:     r.IssuerTradeName,
			FiscalAddress: r.IssuerAddress,
			GeoCode:       r.IssuerGeoCode,
			District:      r.IssuerDistrict,
			Province:      r.IssuerProvince,
			Region:        r.IssuerRegion,
			Production:    r.IssuerProduction,
			SecondaryUser: r.IssuerSecondaryUser,
		},
		Counterparty: fiscal.Counterparty{
			IdentityType:   r.CustomerIdentityType,
			IdentityNumber: r.CustomerIdentityNumber,
			Name:           r.CustomerName,
			Address:        r.CustomerAddress,
		},
		Transaction: fiscal.Transaction{
			Type:        fiscal.DocumentType(r.DocType),
			Series:      r.Series,
			Number:      r.Number,
			IssueDate:   r.IssueDate,
			IssueTime:   r.IssueTime,
			DueDate:     r.DueDate,
			Currency:    r.Currency,
			PaymentForm: r.PaymentForm,
			Taxable:     r.Taxable,
			Tax:         r.Tax,
			Exempt:      r.Exempt,
			Unaffected:  r.Unaffected,
			Note:        r.Note,
		},
	}
}

// --- Repository implementation ---

// Create stores the document header and its items in one transaction.
func (r *Repo) Create(ctx context.Context, doc *fiscal.Document) error {
	return r.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		q := r.txm.GetQuerier(ctx)
		row := toDocumentRow(doc)

		sql, args, err := builder().
			Insert(documentsTable).
			Columns(
				"id", "status", "created_at", "updated_at",
				"issuer_ruc", "issuer_legal_name", "issuer_trade_name", "issuer_address",
				"issuer_geo_code", "issuer_district", "issuer_province", "issuer_region",
				"issuer_production", "issuer_secondary_user",
				"customer_identity_type", "customer_identity_number", "customer_name", "customer_address",
				"doc_type", "series", "number", "issue_date", "issue_time", "due_date",
				"currency", "payment_form", "taxable_amount", "tax_amount",
				"exempt_amount", "unaffected_amount", "note",
			).
			Values(
				row.ID, row.Status, row.CreatedAt, row.UpdatedAt,
				row.IssuerRUC, row.IssuerLegalName, row.IssuerTradeName, row.IssuerAddress,
				row.IssuerGeoCode, row.IssuerDistrict, row.IssuerProvince, row.IssuerRegion,
				row.IssuerProduction, row.IssuerSecondaryUser,
				row.CustomerIdentityType, row.CustomerIdentityNumber, row.CustomerName, row.CustomerAddress,
				row.DocType, row.Series, row.Number, row.IssueDate, row.IssueTime, row.DueDate,
				row.Currency, row.PaymentForm, row.Taxable, row.Tax,
				row.Exempt, row.Unaffected, row.Note,
			).
			ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		if _, err := q.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert %s: %w", documentsTable, err)
		}

		for i, it := range doc.Items {
			lineNo := it.LineNo
			if lineNo == 0 {
				lineNo = i + 1
			}
			sql, args, err := builder().
				Insert(itemsTable).
				Columns("document_id", "line_no", "description", "quantity", "unit_price",
					"product_code", "authority_code", "unit", "tax_affectation").
				Values(doc.ID, lineNo, it.Description, it.Quantity, it.UnitPrice,
					it.ProductCode, it.AuthorityCode, it.Unit, it.TaxAffectation).
				ToSql()
			if err != nil {
				return fmt.Errorf("build item insert: %w", err)
			}
			if _, err := q.Exec(ctx, sql, args...); err != nil {
				return fmt.Errorf("insert %s: %w", itemsTable, err)
			}
		}

		return nil
	})
}

// GetByID retrieves a document with its items.
func (r *Repo) GetByID(ctx context.Context, docID id.ID) (*fiscal.Document, error) {
	q := r.txm.GetQuerier(ctx)

	sql, args, err := builder().
		Select("*").
		From(documentsTable).
		Where(squirrel.Eq{"id": docID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var row documentRow
	if err := pgxscan.Get(ctx, q, &row, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("fiscal document", docID)
		}
		return nil, fmt.Errorf("select %s: %w", documentsTable, err)
	}

	doc := row.toDomain()

	sql, args, err = builder().
		Select("*").
		From(itemsTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build items select: %w", err)
	}

	var items []itemRow
	if err := pgxscan.Select(ctx, q, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select %s: %w", itemsTable, err)
	}

	doc.Items = make([]fiscal.Item, 0, len(items))
	for _, it := range items {
		doc.Items = append(doc.Items, fiscal.Item{
			LineNo:         it.LineNo,
			Description:    it.Description,
			Quantity:       it.Quantity,
			UnitPrice:      it.UnitPrice,
			ProductCode:    it.ProductCode,
			AuthorityCode:  it.AuthorityCode,
			Unit:           it.Unit,
			TaxAffectation: it.TaxAffectation,
		})
	}

	return doc, nil
}

// List returns document headers matching the filter, newest first.
// Items are not loaded for listings.
func (r *Repo) List(ctx context.Context, filter fiscal.ListFilter) ([]*fiscal.Document, error) {
	q := r.txm.GetQuerier(ctx)

	qb := builder().
		Select("*").
		From(documentsTable).
		OrderBy("created_at DESC").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset))

	if filter.Series != "" {
		qb = qb.Where(squirrel.Eq{"series": filter.Series})
	}
	if filter.Status != "" {
		qb = qb.Where(squirrel.Eq{"status": string(filter.Status)})
	}

	sql, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list: %w", err)
	}

	var rows []documentRow
	if err := pgxscan.Select(ctx, q, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select %s: %w", documentsTable, err)
	}

	docs := make([]*fiscal.Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, row.toDomain())
	}
	return docs, nil
}

// SetStatus updates the document submission status.
func (r *Repo) SetStatus(ctx context.Context, docID id.ID, status fiscal.Status) error {
	q := r.txm.GetQuerier(ctx)

	sql, args, err := builder().
		Update(documentsTable).
		Set("status", string(status)).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": docID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", documentsTable, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("fiscal document", docID)
	}
	return nil
}

// RecordSubmission stores one submission outcome. XML and CDR payloads are
// zstd-compressed before storage.
func (r *Repo) RecordSubmission(ctx context.Context, docID id.ID, res *fiscal.Result) error {
	q := r.txm.GetQuerier(ctx)

	sql, args, err := builder().
		Insert(submissionsTable).
		Columns("id", "document_id", "provider", "accepted", "code", "message",
			"xml_url", "cdr_url", "pdf_url", "hash", "xml_zstd", "cdr_zstd", "completed_at").
		Values(id.New(), docID, res.Provider, res.Accepted, res.Code, res.Message,
			res.XMLURL, res.CDRURL, res.PDFURL, res.Hash,
			r.blobs.Compress(res.XMLBase64), r.blobs.Compress(res.CDRBase64),
			res.CompletedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", submissionsTable, err)
	}
	return nil
}

// GetSubmissions returns recorded outcomes for a document, newest first.
func (r *Repo) GetSubmissions(ctx context.Context, docID id.ID) ([]*fiscal.Result, error) {
	q := r.txm.GetQuerier(ctx)

	sql, args, err := builder().
		Select("*").
		From(submissionsTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("completed_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var rows []submissionRow
	if err := pgxscan.Select(ctx, q, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select %s: %w", submissionsTable, err)
	}

	out := make([]*fiscal.Result, 0, len(rows))
	for _, row := range rows {
		xmlB64, err := r.blobs.Decompress(row.XMLZstd)
		if err != nil {
			return nil, err
		}
		cdrB64, err := r.blobs.Decompress(row.CDRZstd)
		if err != nil {
			return nil, err
		}
		out = append(out, &fiscal.Result{
			Accepted:    row.Accepted,
			Code:        row.Code,
			Message:     row.Message,
			Provider:    row.Provider,
			XMLURL:      row.XMLURL,
			CDRURL:      row.CDRURL,
			PDFURL:      row.PDFURL,
			Hash:        row.Hash,
			XMLBase64:   xmlB64,
			CDRBase64:   cdrB64,
			CompletedAt: row.CompletedAt,
		})
	}
	return out, nil
}
