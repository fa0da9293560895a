package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"knowledgebase/internal/domain/entity"
	"knowledgebase/internal/repository"

	"github.com/google/uuid"
)

type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) repository.UserRepository {
	return &UserRepo{db: db}
}

const userSelect = `SELECT id, email, first_name, last_name, created_at FROM users`

func (repo *UserRepo) scanOne(ctx context.Context, op, query string, arg any) (*entity.User, error) {
	var u entity.User
	err := conn(ctx, repo.db).QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &u, nil
}

func (repo *UserRepo) Get(ctx context.Context, id string) (*entity.User, error) {
	return repo.scanOne(ctx, "Get", userSelect+" WHERE id = $1 LIMIT 1", id)
}

func (repo *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return repo.scanOne(ctx, "GetByEmail", userSelect+" WHERE email = $1 LIMIT 1", email)
}

func (repo *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := conn(ctx, repo.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ExistsByEmail: %w", err)
	}
	return exists, nil
}

func (repo *UserRepo) Create(ctx context.Context, user *entity.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	const query = `
INSERT INTO users (id, email, first_name, last_name, created_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err := conn(ctx, repo.db).ExecContext(ctx, query,
		user.ID, user.Email, user.FirstName, user.LastName, user.CreatedAt)
	if err != nil {
		if uniqueConstraint(err) == "users_email_key" {
			return fmt.Errorf("Create: %w", repository.ErrDuplicateEmail)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// Delete removes the user; the credential row goes with it via ON DELETE CASCADE.
func (repo *UserRepo) Delete(ctx context.Context, id string) error {
	res, err := conn(ctx, repo.db).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Delete: %w", entity.ErrNotFound)
	}
	return nil
}

type CredentialRepo struct{ db *sql.DB }

func NewCredentialRepo(db *sql.DB) repository.CredentialRepository {
	return &CredentialRepo{db: db}
}

func (repo *CredentialRepo) Create(ctx context.Context, cred *entity.Credential) error {
	const query = `
INSERT INTO credentials (user_id, password_hash, updated_at)
VALUES ($1, $2, $3)`
	if _, err := conn(ctx, repo.db).ExecContext(ctx, query, cred.UserID, cred.PasswordHash, cred.UpdatedAt); err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *CredentialRepo) GetByUserID(ctx context.Context, userID string) (*entity.Credential, error) {
	const query = `SELECT user_id, password_hash, updated_at FROM credentials WHERE user_id = $1 LIMIT 1`
	var c entity.Credential
	err := conn(ctx, repo.db).QueryRowContext(ctx, query, userID).Scan(&c.UserID, &c.PasswordHash, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetByUserID: %w", err)
	}
	return &c, nil
}

func (repo *CredentialRepo) UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error {
	const query = `UPDATE credentials SET password_hash = $1, updated_at = now() WHERE user_id = $2`
	res, err := conn(ctx, repo.db).ExecContext(ctx, query, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("UpdatePasswordHash: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("UpdatePasswordHash: %w", entity.ErrNotFound)
	}
	return nil
}

func (repo *CredentialRepo) Delete(ctx context.Context, userID string) error {
	if _, err := conn(ctx, repo.db).ExecContext(ctx, `DELETE FROM credentials WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return nil
}
