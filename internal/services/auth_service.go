package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/transferwiki/backend/internal/config"
	"github.com/transferwiki/backend/internal/models"
	"github.com/transferwiki/backend/internal/providers"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	// ErrMissingCredentials rejects a credential login before any lookup.
	ErrMissingCredentials = errors.New("email and password are required")

	// ErrInvalidCredentials is the single external error for every
	// credential rejection. The distinct internal reason (not found, no
	// password set, mismatch) is logged only, so responses cannot be used
	// to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrUserNotFound = errors.New("user not found")
)

// Identity is the minimal verified identity a successful login produces.
// It never carries password material.
type Identity struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
	Image string    `json:"image"`
	Role  string    `json:"role"`
}

type AuthService struct {
	db          *gorm.DB
	adminEmails []string
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	return &AuthService{
		db:          db,
		adminEmails: cfg.AdminEmailList(),
	}
}

// CredentialsLogin verifies an email/password pair against the user store.
func (s *AuthService) CredentialsLogin(email, password string) (*Identity, error) {
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		slog.Info("credentials login rejected", "reason", "user not found", "email", email)
		return nil, ErrInvalidCredentials
	}

	if user.Password == "" {
		slog.Info("credentials login rejected", "reason", "no password set", "email", email)
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		slog.Info("credentials login rejected", "reason", "password mismatch", "email", email)
		return nil, ErrInvalidCredentials
	}

	slog.Info("user logged in", "email", user.Email, "name", user.Name)
	return identityOf(&user), nil
}

// OAuthSignIn runs the full OAuth leg: code exchange, profile fetch, then
// identity reconciliation against the user store.
func (s *AuthService) OAuthSignIn(ctx context.Context, provider providers.Provider, code string) (*Identity, error) {
	tokens, err := provider.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	profile, err := provider.FetchProfile(ctx, tokens)
	if err != nil {
		return nil, err
	}

	return s.reconcile(profile), nil
}

// GetUser loads the identity behind a session token's subject claim.
func (s *AuthService) GetUser(id uuid.UUID) (*Identity, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", id).Error; err != nil {
		return nil, ErrUserNotFound
	}
	return identityOf(&user), nil
}

// reconcile maps a verified provider profile onto a local User row:
// creates the row on first login, and promotes to ADMIN when the email is
// on the allow-list. Roles are never demoted here.
//
// Fail-open by policy: every storage error is logged and swallowed so a
// store hiccup cannot block a sign-in the provider already verified. The
// trade-off is availability over strict consistency of the user table.
func (s *AuthService) reconcile(profile *providers.Profile) *Identity {
	ident := &Identity{
		Email: profile.Email,
		Name:  profile.Name,
		Image: profile.Image,
		Role:  models.RoleUser,
	}
	if s.isAdminEmail(profile.Email) {
		ident.Role = models.RoleAdmin
	}

	var user models.User
	err := s.db.Where("email = ?", profile.Email).First(&user).Error
	switch {
	case err == nil:
		ident.ID = user.ID
		if user.Role == models.RoleAdmin {
			ident.Role = models.RoleAdmin
		}
		if ident.Role == models.RoleAdmin && user.Role != models.RoleAdmin {
			if uerr := s.db.Model(&user).Update("role", models.RoleAdmin).Error; uerr != nil {
				slog.Error("reconciliation: role promotion failed", "email", profile.Email, "error", uerr)
			}
		}

	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{
			ID:    uuid.New(),
			Email: profile.Email,
			Name:  profile.Name,
			Image: profile.Image,
			Role:  ident.Role,
		}
		if cerr := s.db.Create(&user).Error; cerr != nil {
			// Includes the duplicate-email race between two simultaneous
			// first logins: the unique index rejects the loser and the
			// winner's row stands.
			slog.Error("reconciliation: user create failed", "email", profile.Email, "error", cerr)
		} else {
			ident.ID = user.ID
		}

	default:
		slog.Error("reconciliation: user lookup failed", "email", profile.Email, "error", err)
	}

	return ident
}

func (s *AuthService) isAdminEmail(email string) bool {
	if email == "" {
		return false
	}
	for _, admin := range s.adminEmails {
		if admin == email {
			return true
		}
	}
	return false
}

func identityOf(user *models.User) *Identity {
	return &Identity{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Image: user.Image,
		Role:  user.Role,
	}
}
