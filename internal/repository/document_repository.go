package repository

import (
	"context"
	"errors"
	"strings"

	"invoice-scanner/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var documentColumns = []string{
	"d.id", "d.file_name", "d.vendor_name", "d.invoice_date",
	"d.total_amount", "d.subtotal", "d.tax_amount", "d.currency",
	"d.confidence_score", "d.category_id", "d.created_at",
	"c.name", "c.icon",
}

type DocumentRepository struct {
	db     DB
	atomic bool
	logger *zap.Logger
}

// NewDocumentRepository builds the repository. With atomic set, Save writes a
// document and its line items in one transaction; otherwise a failed line item
// leaves the document and the items written before it in place.
func NewDocumentRepository(db DB, atomic bool, logger *zap.Logger) *DocumentRepository {
	return &DocumentRepository{
		db:     db,
		atomic: atomic,
		logger: logger,
	}
}

// Save inserts the document, then its line items in order. It is not
// idempotent: every call creates a new document.
func (r *DocumentRepository) Save(ctx context.Context, ext models.NormalizedExtraction, fileName string) (int64, error) {
	if !r.atomic {
		return r.insert(ctx, r.db, ext, fileName)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, &PersistenceError{Stage: StageBegin, Err: err}
	}

	id, err := r.insert(ctx, tx, ext, fileName)
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			r.logger.Error("Failed to roll back document insert", zap.Error(rbErr))
		}
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, &PersistenceError{Stage: StageCommit, Err: err}
	}
	return id, nil
}

func (r *DocumentRepository) insert(ctx context.Context, q querier, ext models.NormalizedExtraction, fileName string) (int64, error) {
	query := squirrel.Insert("documents").
		Columns("file_name", "vendor_name", "invoice_date", "total_amount", "subtotal", "tax_amount", "currency", "confidence_score", "raw_text").
		Values(fileName, ext.VendorName, ext.DocumentDate, ext.TotalAmount, ext.Subtotal, ext.TaxAmount, ext.Currency, ext.Confidence, ext.RawText).
		Suffix("RETURNING id").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, &PersistenceError{Stage: StageInsertDocument, Err: err}
	}

	var id int64
	if err := q.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return 0, &PersistenceError{Stage: StageInsertDocument, Err: err}
	}

	for i, item := range ext.LineItems {
		query := squirrel.Insert("line_items").
			Columns("document_id", "description", "quantity", "unit_price", "amount").
			Values(id, item.Description, item.Quantity, item.UnitPrice, item.Amount).
			PlaceholderFormat(squirrel.Dollar)

		sql, args, err := query.ToSql()
		if err != nil {
			return 0, &PersistenceError{Stage: StageInsertLineItem, Index: i, Err: err}
		}
		if _, err := q.Exec(ctx, sql, args...); err != nil {
			if !r.atomic {
				r.logger.Warn("Document stored with partial line items",
					zap.Int64("document_id", id),
					zap.Int("written", i),
					zap.Int("expected", len(ext.LineItems)),
				)
			}
			return 0, &PersistenceError{Stage: StageInsertLineItem, Index: i, Err: err}
		}
	}

	return id, nil
}

// List returns documents newest first with their category and item count.
// likeEscaper makes search text match literally under ILIKE's default
// backslash escape.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *DocumentRepository) List(ctx context.Context, filter models.DocumentFilter) ([]*models.DocumentSummary, error) {
	columns := append(append([]string{}, documentColumns...),
		"(SELECT COUNT(*) FROM line_items li WHERE li.document_id = d.id) AS item_count")

	query := squirrel.Select(columns...).
		From("documents d").
		LeftJoin("categories c ON d.category_id = c.id").
		OrderBy("d.created_at DESC", "d.id DESC").
		PlaceholderFormat(squirrel.Dollar)

	if filter.CategoryID != nil {
		query = query.Where(squirrel.Eq{"d.category_id": *filter.CategoryID})
	}
	if filter.StartDate != nil {
		query = query.Where(squirrel.GtOrEq{"d.invoice_date": *filter.StartDate})
	}
	if filter.EndDate != nil {
		query = query.Where(squirrel.LtOrEq{"d.invoice_date": *filter.EndDate})
	}
	if filter.Search != "" {
		pattern := "%" + likeEscaper.Replace(filter.Search) + "%"
		query = query.Where(squirrel.Or{
			squirrel.ILike{"d.vendor_name": pattern},
			squirrel.ILike{"d.file_name": pattern},
		})
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	documents := []*models.DocumentSummary{}
	for rows.Next() {
		var doc models.DocumentSummary
		dest := append(documentDest(&doc.Document), &doc.ItemCount)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		documents = append(documents, &doc)
	}

	return documents, rows.Err()
}

// Get returns one document with raw text, and its line items ordered by id.
func (r *DocumentRepository) Get(ctx context.Context, id int64) (*models.Document, []*models.LineItem, error) {
	query := squirrel.Select(append(append([]string{}, documentColumns...), "d.raw_text")...).
		From("documents d").
		LeftJoin("categories c ON d.category_id = c.id").
		Where(squirrel.Eq{"d.id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, nil, err
	}

	var doc models.Document
	if err := r.db.QueryRow(ctx, sql, args...).Scan(append(documentDest(&doc), &doc.RawText)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}

	items, err := r.lineItems(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return &doc, items, nil
}

func (r *DocumentRepository) lineItems(ctx context.Context, documentID int64) ([]*models.LineItem, error) {
	query := squirrel.Select("id", "document_id", "description", "quantity", "unit_price", "amount").
		From("line_items").
		Where(squirrel.Eq{"document_id": documentID}).
		OrderBy("id").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*models.LineItem{}
	for rows.Next() {
		var item models.LineItem
		if err := rows.Scan(&item.ID, &item.DocumentID, &item.Description, &item.Quantity, &item.UnitPrice, &item.Amount); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}

	return items, rows.Err()
}

// UpdateCategory sets or, with a nil categoryID, clears the document category.
func (r *DocumentRepository) UpdateCategory(ctx context.Context, id int64, categoryID *int64) error {
	query := squirrel.Update("documents").
		Set("category_id", categoryID).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUnknownCategory
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a document; its line items go with it via ON DELETE CASCADE.
func (r *DocumentRepository) Delete(ctx context.Context, id int64) error {
	query := squirrel.Delete("documents").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func documentDest(doc *models.Document) []any {
	return []any{
		&doc.ID, &doc.FileName, &doc.VendorName, &doc.InvoiceDate,
		&doc.TotalAmount, &doc.Subtotal, &doc.TaxAmount, &doc.Currency,
		&doc.ConfidenceScore, &doc.CategoryID, &doc.CreatedAt,
		&doc.CategoryName, &doc.CategoryIcon,
	}
}
