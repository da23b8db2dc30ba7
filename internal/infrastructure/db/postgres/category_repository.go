package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/docvault/document-service/internal/core/domain"
	"github.com/docvault/document-service/internal/core/ports"
	"github.com/docvault/document-service/internal/pkg/dbx"
)

const categoryColumns = `c.id, c.name, c.description, c.color, c.created_at,
	(SELECT COUNT(*) FROM documents d WHERE d.category_id = c.id)`

// CategoryRepository implements ports.CategoryRepository on PostgreSQL.
type CategoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

var _ ports.CategoryRepository = (*CategoryRepository)(nil)

func (r *CategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+categoryColumns+` FROM categories c ORDER BY c.id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *CategoryRepository) FindByID(ctx context.Context, id int64) (*domain.Category, error) {
	c, err := findCategory(ctx, r.db, id)
	if err != nil && !errors.Is(err, domain.ErrCategoryNotFound) {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, err
}

func (r *CategoryRepository) Create(ctx context.Context, c *domain.Category) (*domain.Category, error) {
	out := *c
	query := `INSERT INTO categories (name, description, color, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, c.Name, c.Description, c.Color, c.CreatedAt).Scan(&out.ID); err != nil {
		if code, _ := pgError(err); code == uniqueViolation {
			return nil, domain.ErrCategoryExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	out.DocumentsCount = 0
	return &out, nil
}

func (r *CategoryRepository) Update(ctx context.Context, c *domain.Category) (*domain.Category, error) {
	var out *domain.Category
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE categories SET name = $1, description = $2, color = $3 WHERE id = $4`,
			c.Name, c.Description, c.Color, c.ID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return domain.ErrCategoryNotFound
		}

		out, err = findCategory(ctx, tx, c.ID)
		return err
	})
	if err != nil {
		if code, _ := pgError(err); code == uniqueViolation {
			return nil, domain.ErrCategoryExists
		}
		if errors.Is(err, domain.ErrCategoryNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

// Delete locks the category row first; uploads that reference it wait on the
// lock and then fail the foreign key check, so the count cannot go stale.
func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var locked int64
		if err := tx.QueryRowContext(ctx, `SELECT id FROM categories WHERE id = $1 FOR UPDATE`, id).Scan(&locked); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrCategoryNotFound
			}
			return err
		}

		var count int64
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE category_id = $1`, id).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			return &domain.CategoryNotEmptyError{Count: count}
		}

		_, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
		return err
	})
	if err != nil {
		var notEmpty *domain.CategoryNotEmptyError
		if errors.Is(err, domain.ErrCategoryNotFound) || errors.As(err, &notEmpty) {
			return err
		}
		if code, _ := pgError(err); code == foreignKeyViolation {
			return domain.Errorf(domain.ErrPrecondition, "cannot delete category: it still contains documents")
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *CategoryRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func findCategory(ctx context.Context, q dbx.DBTX, id int64) (*domain.Category, error) {
	c, err := scanCategory(q.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories c WHERE c.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	return c, nil
}

func scanCategory(row scanner) (*domain.Category, error) {
	var c domain.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Color, &c.CreatedAt, &c.DocumentsCount); err != nil {
		return nil, err
	}
	return &c, nil
}
