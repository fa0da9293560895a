package credential

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"knowledgebase/internal/domain/entity"
	"knowledgebase/internal/observability/metrics"
	"knowledgebase/internal/repository"
	"knowledgebase/internal/service/auth"
)

// RegisterInput is the payload of Register.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Session is the result of Login and Refresh.
type Session struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
	User             *entity.User
}

// Service provides the credential use cases.
type Service struct {
	Users       repository.UserRepository
	Credentials repository.CredentialRepository
	Sessions    repository.SessionStore
	Tokens      *auth.TokenService
	Tx          repository.Transactor
}

// Register creates a user and its credential in one transaction.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	in.Email = normalizeEmail(in.Email)
	var errs entity.ValidationErrors
	if err := entity.ValidateEmail(in.Email); err != nil {
		errs = append(errs, err.(*entity.ValidationError))
	}
	if err := entity.ValidatePassword("password", in.Password); err != nil {
		errs = append(errs, err.(*entity.ValidationError))
	}
	if err := errs.ErrOrNil(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	user := &entity.User{
		Email:     in.Email,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		CreatedAt: time.Now().UTC(),
	}
	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		exists, err := s.Users.ExistsByEmail(ctx, user.Email)
		if err != nil {
			return err
		}
		if exists {
			return ErrEmailTaken
		}
		if err := s.Users.Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicateEmail) {
				return ErrEmailTaken
			}
			return err
		}
		return s.Credentials.Create(ctx, &entity.Credential{
			UserID:       user.ID,
			PasswordHash: hash,
			UpdatedAt:    user.CreatedAt,
		})
	})
	metrics.RecordAuthEvent("register", err == nil)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	slog.InfoContext(ctx, "user registered", slog.String("user_id", user.ID))
	return user, nil
}

// Login checks email and password and opens a refresh session. Unknown
// emails and wrong passwords fail identically and take the same time.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	sess, err := s.login(ctx, normalizeEmail(email), password)
	metrics.RecordAuthEvent("login", err == nil)
	return sess, err
}

func (s *Service) login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if user == nil {
		auth.BurnPasswordCheck(password)
		return nil, ErrInvalidCredentials
	}
	cred, err := s.Credentials.GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if cred == nil {
		auth.BurnPasswordCheck(password)
		return nil, ErrInvalidCredentials
	}
	if !auth.VerifyPassword(cred.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return s.open(ctx, user, cred.PasswordHash)
}

// Refresh exchanges a refresh token for a new pair. Each refresh token can be
// used once; presenting it again fails.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	sess, err := s.refresh(ctx, refreshToken)
	metrics.RecordAuthEvent("refresh", err == nil)
	return sess, err
}

func (s *Service) refresh(ctx context.Context, refreshToken string) (*Session, error) {
	user, claims, hash, err := s.verify(ctx, refreshToken, auth.TokenRefresh)
	if err != nil {
		return nil, err
	}

	owner, err := s.Sessions.Consume(ctx, claims.ID)
	if errors.Is(err, repository.ErrSessionNotFound) {
		slog.WarnContext(ctx, "refresh token reused or revoked", slog.String("user_id", user.ID))
		return nil, entity.ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	if owner != user.ID {
		return nil, entity.ErrUnauthorized
	}
	return s.open(ctx, user, hash)
}

// Logout revokes the refresh session of refreshToken. Access tokens are left
// to expire. An empty token is a no-op.
func (s *Service) Logout(ctx context.Context, userID, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	user, claims, _, err := s.verify(ctx, refreshToken, auth.TokenRefresh)
	if err != nil {
		return err
	}
	if user.ID != userID {
		return entity.ErrUnauthorized
	}
	if err := s.Sessions.Revoke(ctx, claims.ID); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	metrics.RecordAuthEvent("logout", true)
	return nil
}

// ChangePassword replaces the password of userID after checking the current
// one. Every token issued before stops verifying and all refresh sessions
// are dropped.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	if err := entity.ValidatePassword("newPassword", next); err != nil {
		return err
	}
	cred, err := s.Credentials.GetByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if cred == nil {
		return entity.ErrUnauthorized
	}
	if !auth.VerifyPassword(cred.PasswordHash, current) {
		metrics.RecordAuthEvent("change_password", false)
		return &entity.ValidationError{Field: "currentPassword", Message: "current password is incorrect"}
	}
	if err := s.setPassword(ctx, userID, next); err != nil {
		return err
	}
	metrics.RecordAuthEvent("change_password", true)
	return nil
}

// ResetPassword sets a new password for the user with email without knowing
// the old one. It backs the admin CLI.
func (s *Service) ResetPassword(ctx context.Context, email, next string) error {
	if err := entity.ValidatePassword("password", next); err != nil {
		return err
	}
	user, err := s.Users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}
	return s.setPassword(ctx, user.ID, next)
}

func (s *Service) setPassword(ctx context.Context, userID, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.Credentials.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := s.Sessions.RevokeUser(ctx, userID); err != nil {
		// the new hash already invalidates the refresh tokens
		slog.WarnContext(ctx, "failed to drop refresh sessions",
			slog.String("user_id", userID), slog.Any("error", err))
	}
	slog.InfoContext(ctx, "password changed", slog.String("user_id", userID))
	return nil
}

// Authenticate resolves a bearer access token to its user.
func (s *Service) Authenticate(ctx context.Context, bearer string) (*entity.User, error) {
	user, _, _, err := s.verify(ctx, bearer, auth.TokenAccess)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Me returns the user with id userID.
func (s *Service) Me(ctx context.Context, userID string) (*entity.User, error) {
	user, err := s.Users.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("me: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// verify performs the two-step check: read the user id from the unverified
// payload, then verify the signature with that user's current hash.
func (s *Service) verify(ctx context.Context, token string, want auth.TokenType) (user *entity.User, claims *auth.Claims, passwordHash string, err error) {
	if token == "" {
		return nil, nil, "", entity.ErrUnauthorized
	}
	unverified, err := s.Tokens.ParseUnverified(token)
	if err != nil {
		return nil, nil, "", entity.ErrUnauthorized
	}
	cred, err := s.Credentials.GetByUserID(ctx, unverified.UserID)
	if err != nil {
		return nil, nil, "", fmt.Errorf("load credential: %w", err)
	}
	if cred == nil {
		return nil, nil, "", entity.ErrUnauthorized
	}
	claims, err = s.Tokens.Verify(token, cred.PasswordHash, want)
	if err != nil {
		return nil, nil, "", entity.ErrUnauthorized
	}
	user, err = s.Users.Get(ctx, claims.UserID)
	if err != nil {
		return nil, nil, "", fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, nil, "", entity.ErrUnauthorized
	}
	return user, claims, cred.PasswordHash, nil
}

// open issues a token pair and stores the refresh session.
func (s *Service) open(ctx context.Context, user *entity.User, passwordHash string) (*Session, error) {
	pair, err := s.Tokens.IssuePair(user, passwordHash)
	if err != nil {
		return nil, err
	}
	if err := s.Sessions.Save(ctx, pair.RefreshID, user.ID, s.Tokens.RefreshTTL()); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return &Session{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
		User:             user,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
