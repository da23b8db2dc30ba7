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

// firstUserLock serializes registrations so exactly one user can observe an
// empty users table.
const firstUserLock = 0x646f6375

const userColumns = `u.id, u.username, u.email, u.password_hash, u.role, u.created_at,
	(SELECT COUNT(*) FROM documents d WHERE d.user_id = u.id)`

// UserRepository implements ports.UserRepository on PostgreSQL.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

var _ ports.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	out := *user
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, firstUserLock); err != nil {
			return err
		}

		query := `INSERT INTO users (username, email, password_hash, role, created_at)
			VALUES ($1, $2, $3, CASE WHEN EXISTS (SELECT 1 FROM users) THEN 'user' ELSE 'admin' END, $4)
			RETURNING id, role`
		return tx.QueryRowContext(ctx, query,
			user.Username, user.Email, user.PasswordHash, user.CreatedAt,
		).Scan(&out.ID, &out.Role)
	})
	if err != nil {
		if code, constraint := pgError(err); code == uniqueViolation {
			switch constraint {
			case "users_username_key":
				return nil, domain.ErrUsernameTaken
			case "users_email_key":
				return nil, domain.ErrEmailTaken
			}
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &out, nil
}

// FindByLogin prefers a username match over an email match.
func (r *UserRepository) FindByLogin(ctx context.Context, login string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u
		WHERE u.username = $1 OR u.email = $1
		ORDER BY (u.username = $1) DESC, u.id
		LIMIT 1`
	return r.findOne(ctx, query, login)
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1`
	return r.findOne(ctx, query, id)
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users u ORDER BY u.id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return users, nil
}

// Delete locks the user row so no upload can slip in, removes the user's
// documents (tags cascade) and then the user.
func (r *UserRepository) Delete(ctx context.Context, id int64) ([]string, error) {
	var paths []string
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var locked int64
		if err := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&locked); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrUserNotFound
			}
			return err
		}

		rows, err := tx.QueryContext(ctx, `DELETE FROM documents WHERE user_id = $1 RETURNING storage_path`, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var p string
			if err := rows.Scan(&p); err != nil {
				return err
			}
			paths = append(paths, p)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return paths, nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.DocumentsCount); err != nil {
		return nil, err
	}
	return &u, nil
}
