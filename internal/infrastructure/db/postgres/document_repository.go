package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/docvault/document-service/internal/core/domain"
	"github.com/docvault/document-service/internal/core/ports"
	"github.com/docvault/document-service/internal/pkg/dbx"
)

var documentColumns = []string{
	"d.id", "d.title", "d.filename", "d.storage_path", "d.file_size", "d.file_type",
	"d.description", "d.uploaded_at", "d.user_id", "u.username",
	"d.category_id", "c.name", "c.color",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// DocumentRepository implements ports.DocumentRepository on PostgreSQL.
type DocumentRepository struct {
	db *sql.DB
	qb sq.StatementBuilderType
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{
		db: db,
		qb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

var _ ports.DocumentRepository = (*DocumentRepository)(nil)

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) (*domain.Document, error) {
	out := *doc
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		query := `INSERT INTO documents
			(title, filename, storage_path, file_size, file_type, description, uploaded_at, user_id, category_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id`
		if err := tx.QueryRowContext(ctx, query,
			doc.Title, doc.Filename, doc.StoragePath, doc.FileSize, doc.FileType,
			doc.Description, doc.UploadedAt, doc.OwnerID, nullableID(doc.CategoryID),
		).Scan(&out.ID); err != nil {
			return err
		}
		return r.insertTags(ctx, tx, out.ID, doc.Tags)
	})
	if err != nil {
		return nil, mapDocumentWriteError(err)
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	return &out, nil
}

func (r *DocumentRepository) FindByID(ctx context.Context, id int64) (*domain.Document, error) {
	query, args, err := r.selectDocuments().Where(sq.Eq{"d.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	doc, err := scanDocument(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if err := r.loadTags(ctx, r.db, []*domain.Document{doc}); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return doc, nil
}

func (r *DocumentRepository) List(ctx context.Context, filter ports.ListDocumentsFilter) ([]*domain.Document, int64, error) {
	conds := documentConditions(filter)

	countQ := r.qb.Select("COUNT(*)").From("documents d")
	pageQ := r.selectDocuments().OrderBy("d.uploaded_at DESC", "d.id DESC")
	if len(conds) > 0 {
		countQ = countQ.Where(conds)
		pageQ = pageQ.Where(conds)
	}
	if filter.PerPage > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		pageQ = pageQ.Limit(uint64(filter.PerPage)).Offset(uint64((page - 1) * filter.PerPage))
	}

	query, args, err := countQ.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build query: %w", err)
	}
	var total int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	query, args, err = pageQ.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build query: %w", err)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	docs := make([]*domain.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("db error: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	if err := r.loadTags(ctx, r.db, docs); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	return docs, total, nil
}

func (r *DocumentRepository) Update(ctx context.Context, id int64, patch ports.DocumentPatch) error {
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var locked int64
		if err := tx.QueryRowContext(ctx, `SELECT id FROM documents WHERE id = $1 FOR UPDATE`, id).Scan(&locked); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrDocumentNotFound
			}
			return err
		}

		set := map[string]any{}
		if patch.Title != nil {
			set["title"] = *patch.Title
		}
		if patch.Description != nil {
			set["description"] = *patch.Description
		}
		if patch.SetCategory {
			set["category_id"] = nullableID(patch.CategoryID)
		}
		if len(set) > 0 {
			query, args, err := r.qb.Update("documents").SetMap(set).Where(sq.Eq{"id": id}).ToSql()
			if err != nil {
				return fmt.Errorf("build query: %w", err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return err
			}
		}

		if patch.SetTags {
			if _, err := tx.ExecContext(ctx, `DELETE FROM document_tags WHERE document_id = $1`, id); err != nil {
				return err
			}
			return r.insertTags(ctx, tx, id, patch.Tags)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			return err
		}
		return mapDocumentWriteError(err)
	}
	return nil
}

func (r *DocumentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func (r *DocumentRepository) Stats(ctx context.Context, ownerID *int64) (ports.DocumentStats, error) {
	q := r.qb.Select("COUNT(*)", "COALESCE(SUM(file_size), 0)").From("documents")
	if ownerID != nil {
		q = q.Where(sq.Eq{"user_id": *ownerID})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return ports.DocumentStats{}, fmt.Errorf("build query: %w", err)
	}

	var st ports.DocumentStats
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&st.Documents, &st.Bytes); err != nil {
		return ports.DocumentStats{}, fmt.Errorf("db error: %w", err)
	}
	return st, nil
}

func (r *DocumentRepository) selectDocuments() sq.SelectBuilder {
	return r.qb.Select(documentColumns...).
		From("documents d").
		Join("users u ON u.id = d.user_id").
		LeftJoin("categories c ON c.id = d.category_id")
}

func (r *DocumentRepository) insertTags(ctx context.Context, tx dbx.DBTX, documentID int64, tags []string) error {
	if len(tags) == 0 {
		return nil
	}
	ins := r.qb.Insert("document_tags").Columns("document_id", "tag_name")
	for _, t := range tags {
		ins = ins.Values(documentID, t)
	}
	query, args, err := ins.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

func (r *DocumentRepository) loadTags(ctx context.Context, q dbx.DBTX, docs []*domain.Document) error {
	if len(docs) == 0 {
		return nil
	}
	byID := make(map[int64]*domain.Document, len(docs))
	ids := make([]int64, 0, len(docs))
	for _, d := range docs {
		d.Tags = []string{}
		byID[d.ID] = d
		ids = append(ids, d.ID)
	}

	query, args, err := r.qb.Select("document_id", "tag_name").
		From("document_tags").
		Where(sq.Eq{"document_id": ids}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			docID int64
			tag   string
		)
		if err := rows.Scan(&docID, &tag); err != nil {
			return err
		}
		if d, ok := byID[docID]; ok {
			d.Tags = append(d.Tags, tag)
		}
	}
	return rows.Err()
}

func documentConditions(f ports.ListDocumentsFilter) sq.And {
	conds := sq.And{}
	if f.OwnerID != nil {
		conds = append(conds, sq.Eq{"d.user_id": *f.OwnerID})
	}
	if f.CategoryID != nil {
		conds = append(conds, sq.Eq{"d.category_id": *f.CategoryID})
	}
	if f.FileType != "" {
		conds = append(conds, sq.Eq{"d.file_type": f.FileType})
	}
	if f.Search != "" {
		pattern := "%" + likeEscaper.Replace(f.Search) + "%"
		conds = append(conds, sq.Or{
			sq.ILike{"d.title": pattern},
			sq.ILike{"d.description": pattern},
		})
	}
	return conds
}

func scanDocument(row scanner) (*domain.Document, error) {
	var (
		d             domain.Document
		categoryID    sql.NullInt64
		categoryName  sql.NullString
		categoryColor sql.NullString
	)
	if err := row.Scan(
		&d.ID, &d.Title, &d.Filename, &d.StoragePath, &d.FileSize, &d.FileType,
		&d.Description, &d.UploadedAt, &d.OwnerID, &d.OwnerName,
		&categoryID, &categoryName, &categoryColor,
	); err != nil {
		return nil, err
	}
	if categoryID.Valid {
		id := categoryID.Int64
		d.CategoryID = &id
		d.Category = &domain.CategoryRef{ID: id, Name: categoryName.String, Color: categoryColor.String}
	}
	return &d, nil
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func mapDocumentWriteError(err error) error {
	if code, constraint := pgError(err); code == foreignKeyViolation {
		switch constraint {
		case "documents_category_id_fkey":
			return domain.ErrCategoryNotFound
		case "documents_user_id_fkey":
			return domain.ErrUserNotFound
		}
	}
	return fmt.Errorf("db error: %w", err)
}
