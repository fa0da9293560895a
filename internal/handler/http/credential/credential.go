// Package credential provides HTTP handlers for registration, login, token
// refresh and the signed-in user's own account.
package credential

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"knowledgebase/internal/domain/entity"
	"knowledgebase/internal/handler/http/auth"
	"knowledgebase/internal/handler/http/respond"
	"knowledgebase/internal/observability/logging"
	credUC "knowledgebase/internal/usecase/credential"
)

// Service is the credential use case as seen by the handlers.
type Service interface {
	Register(ctx context.Context, in credUC.RegisterInput) (*entity.User, error)
	Login(ctx context.Context, email, password string) (*credUC.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*credUC.Session, error)
	Logout(ctx context.Context, userID, refreshToken string) error
	ChangePassword(ctx context.Context, userID, current, next string) error
	Me(ctx context.Context, userID string) (*entity.User, error)
}

// UserDTO is the public view of a user.
type UserDTO struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	CreatedAt time.Time `json:"createdAt"`
}

// SessionDTO is returned by login and refresh.
type SessionDTO struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	AccessExpiresAt  time.Time `json:"accessTokenExpiresAt"`
	RefreshExpiresAt time.Time `json:"refreshTokenExpiresAt"`
	User             UserDTO   `json:"user"`
}

func toUserDTO(u *entity.User) UserDTO {
	return UserDTO{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName, CreatedAt: u.CreatedAt}
}

func toSessionDTO(s *credUC.Session) SessionDTO {
	return SessionDTO{
		AccessToken:      s.AccessToken,
		RefreshToken:     s.RefreshToken,
		AccessExpiresAt:  s.AccessExpiresAt,
		RefreshExpiresAt: s.RefreshExpiresAt,
		User:             toUserDTO(s.User),
	}
}

// Register registers the credential routes with the given mux. limit, when
// set, wraps the endpoints that accept a password.
func Register(mux *http.ServeMux, svc Service, guard auth.Guard, limit func(http.Handler) http.Handler) {
	if limit == nil {
		limit = func(h http.Handler) http.Handler { return h }
	}
	h := handlers{svc: svc}

	mux.Handle("POST /credentials", limit(http.HandlerFunc(h.register)))
	mux.Handle("POST /credentials/login", limit(http.HandlerFunc(h.login)))
	mux.HandleFunc("POST /credentials/refresh", h.refresh)

	mux.Handle("GET /credentials/me", guard.RequireFunc(h.me))
	mux.Handle("DELETE /credentials/me", guard.RequireFunc(h.logout))
	mux.Handle("PUT /credentials/me/password", limit(guard.RequireFunc(h.changePassword)))
}

type handlers struct{ svc Service }

func (h handlers) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}
	u, err := h.svc.Register(r.Context(), credUC.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Created(w, toUserDTO(u))
}

func (h handlers) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}
	var errs entity.ValidationErrors
	if req.Email == "" {
		errs.Add("email", "email is required")
	}
	if req.Password == "" {
		errs.Add("password", "password is required")
	}
	if err := errs.ErrOrNil(); err != nil {
		respond.Error(w, r, err)
		return
	}

	sess, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if entity.KindOf(err) == entity.KindUnauthorized {
			logging.FromContext(r.Context()).Info("login failed")
		}
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, toSessionDTO(sess))
}

func (h handlers) refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}
	if req.RefreshToken == "" {
		respond.Error(w, r, &entity.ValidationError{Field: "refreshToken", Message: "refreshToken is required"})
		return
	}
	sess, err := h.svc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, toSessionDTO(sess))
}

func (h handlers) me(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	u, err := h.svc.Me(r.Context(), user.ID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, toUserDTO(u))
}

// logout revokes the refresh token in the body, if any. The access token
// used for the call stays valid until it expires.
func (h handlers) logout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if r.ContentLength != 0 {
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}
	}
	user, _ := auth.UserFromContext(r.Context())
	if err := h.svc.Logout(r.Context(), user.ID, req.RefreshToken); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Message(w, "logged out")
}

func (h handlers) changePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}
	user, _ := auth.UserFromContext(r.Context())
	if err := h.svc.ChangePassword(r.Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		respond.Error(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Info("password changed", slog.String("user_id", user.ID))
	respond.Message(w, "password changed; sign in again")
}
