package repository

import (
	"context"

	"knowledgebase/internal/domain/entity"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	Get(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Delete(ctx context.Context, id string) error
}

type CredentialRepository interface {
	Create(ctx context.Context, cred *entity.Credential) error
	GetByUserID(ctx context.Context, userID string) (*entity.Credential, error)
	// UpdatePasswordHash replaces the hash and therefore the user's signing secret.
	UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error
	Delete(ctx context.Context, userID string) error
}
