package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/transferwiki/backend/internal/config"
	"github.com/transferwiki/backend/internal/models"
	"github.com/transferwiki/backend/internal/providers"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

type stubProvider struct {
	profile     *providers.Profile
	exchangeErr error
	profileErr  error
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) AuthCodeURL(state string) string {
	return "https://idp.example.com/authorize?state=" + state
}

func (s *stubProvider) Exchange(_ context.Context, _ string) (*providers.TokenSet, error) {
	if s.exchangeErr != nil {
		return nil, s.exchangeErr
	}
	return &providers.TokenSet{AccessToken: "access", IdentityToken: "identity"}, nil
}

func (s *stubProvider) FetchProfile(_ context.Context, _ *providers.TokenSet) (*providers.Profile, error) {
	if s.profileErr != nil {
		return nil, s.profileErr
	}
	return s.profile, nil
}

func TestCredentialsLogin_MissingFields(t *testing.T) {
	// A nil DB proves validation rejects the request before any lookup:
	// touching the store would panic.
	svc := NewAuthService(nil, &config.Config{})

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"no email", "", "secret123"},
		{"no password", "user@example.com", ""},
		{"both missing", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CredentialsLogin(tt.email, tt.password)
			require.ErrorIs(t, err, ErrMissingCredentials)
		})
	}
}

func TestCredentialsLogin_EnumerationResistance(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuthService(db, &config.Config{})

	require.NoError(t, db.Create(&models.User{
		ID:       uuid.New(),
		Email:    "known@example.com",
		Name:     "Known",
		Password: mustHash(t, "correct-horse"),
		Role:     models.RoleUser,
	}).Error)
	require.NoError(t, db.Create(&models.User{
		ID:    uuid.New(),
		Email: "oauth-only@example.com",
		Name:  "OAuth Only",
		Role:  models.RoleUser,
	}).Error)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "nobody@example.com", "whatever"},
		{"wrong password", "known@example.com", "wrong-password"},
		{"no password set", "oauth-only@example.com", "whatever"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CredentialsLogin(tt.email, tt.password)
			// Every rejection is the same error so responses cannot
			// distinguish accounts.
			require.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func TestCredentialsLogin_Success(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuthService(db, &config.Config{})

	user := models.User{
		ID:       uuid.New(),
		Email:    "known@example.com",
		Name:     "Known",
		Image:    "https://cdn.example.com/a.png",
		Password: mustHash(t, "correct-horse"),
		Role:     models.RoleAdmin,
	}
	require.NoError(t, db.Create(&user).Error)

	ident, err := svc.CredentialsLogin("known@example.com", "correct-horse")
	require.NoError(t, err)
	require.Equal(t, user.ID, ident.ID)
	require.Equal(t, "known@example.com", ident.Email)
	require.Equal(t, "Known", ident.Name)
	require.Equal(t, "https://cdn.example.com/a.png", ident.Image)
	require.Equal(t, models.RoleAdmin, ident.Role)
}

func TestOAuthSignIn_FirstLoginCreatesUser(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuthService(db, &config.Config{})

	prov := &stubProvider{profile: &providers.Profile{
		ID:    "openid-1",
		Name:  "新用户",
		Email: "new@example.com",
		Image: "https://cdn.example.com/n.png",
	}}

	ident, err := svc.OAuthSignIn(context.Background(), prov, "code")
	require.NoError(t, err)
	require.Equal(t, models.RoleUser, ident.Role)

	var stored models.User
	require.NoError(t, db.Where("email = ?", "new@example.com").First(&stored).Error)
	require.Equal(t, stored.ID, ident.ID)
	require.Equal(t, models.RoleUser, stored.Role)
	require.Equal(t, "新用户", stored.Name)
	require.Empty(t, stored.Password)
}

func TestOAuthSignIn_AllowListPromotion(t *testing.T) {
	cfg := &config.Config{AdminEmails: "boss@example.com, chief@example.com"}

	t.Run("first login on allow-list persists ADMIN", func(t *testing.T) {
		db := setupTestDB(t)
		svc := NewAuthService(db, cfg)

		prov := &stubProvider{profile: &providers.Profile{Email: "boss@example.com", Name: "Boss"}}
		ident, err := svc.OAuthSignIn(context.Background(), prov, "code")
		require.NoError(t, err)
		require.Equal(t, models.RoleAdmin, ident.Role)

		var stored models.User
		require.NoError(t, db.Where("email = ?", "boss@example.com").First(&stored).Error)
		require.Equal(t, models.RoleAdmin, stored.Role)
	})

	t.Run("existing user on allow-list is promoted", func(t *testing.T) {
		db := setupTestDB(t)
		svc := NewAuthService(db, cfg)

		require.NoError(t, db.Create(&models.User{
			ID:    uuid.New(),
			Email: "chief@example.com",
			Role:  models.RoleUser,
		}).Error)

		prov := &stubProvider{profile: &providers.Profile{Email: "chief@example.com", Name: "Chief"}}
		ident, err := svc.OAuthSignIn(context.Background(), prov, "code")
		require.NoError(t, err)
		require.Equal(t, models.RoleAdmin, ident.Role)

		var stored models.User
		require.NoError(t, db.Where("email = ?", "chief@example.com").First(&stored).Error)
		require.Equal(t, models.RoleAdmin, stored.Role)
	})

	t.Run("email absent from allow-list stays USER", func(t *testing.T) {
		db := setupTestDB(t)
		svc := NewAuthService(db, cfg)

		prov := &stubProvider{profile: &providers.Profile{Email: "regular@example.com"}}
		ident, err := svc.OAuthSignIn(context.Background(), prov, "code")
		require.NoError(t, err)
		require.Equal(t, models.RoleUser, ident.Role)
	})
}

func TestOAuthSignIn_RoleNeverDemoted(t *testing.T) {
	db := setupTestDB(t)
	// Allow-list does not contain the user: an existing ADMIN must stay ADMIN.
	svc := NewAuthService(db, &config.Config{})

	require.NoError(t, db.Create(&models.User{
		ID:    uuid.New(),
		Email: "admin@example.com",
		Role:  models.RoleAdmin,
	}).Error)

	prov := &stubProvider{profile: &providers.Profile{Email: "admin@example.com"}}
	ident, err := svc.OAuthSignIn(context.Background(), prov, "code")
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, ident.Role)

	var stored models.User
	require.NoError(t, db.Where("email = ?", "admin@example.com").First(&stored).Error)
	require.Equal(t, models.RoleAdmin, stored.Role)
}

func TestOAuthSignIn_ReconciliationFailOpen(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuthService(db, &config.Config{})

	// Simulate the user store being unavailable mid-request.
	require.NoError(t, db.Migrator().DropTable(&models.User{}))

	prov := &stubProvider{profile: &providers.Profile{
		Email: "new@example.com",
		Name:  "New",
	}}

	ident, err := svc.OAuthSignIn(context.Background(), prov, "code")
	require.NoError(t, err, "store failure must not block the sign-in")
	require.Equal(t, "new@example.com", ident.Email)
	require.Equal(t, models.RoleUser, ident.Role)
}

func TestOAuthSignIn_ProviderErrorAborts(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuthService(db, &config.Config{})

	prov := &stubProvider{exchangeErr: providers.ErrProvider}
	_, err := svc.OAuthSignIn(context.Background(), prov, "code")
	require.ErrorIs(t, err, providers.ErrProvider)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	require.Zero(t, count, "no user row may exist after a failed exchange")
}

func TestGetUser(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuthService(db, &config.Config{})

	user := models.User{ID: uuid.New(), Email: "known@example.com", Role: models.RoleUser}
	require.NoError(t, db.Create(&user).Error)

	ident, err := svc.GetUser(user.ID)
	require.NoError(t, err)
	require.Equal(t, user.Email, ident.Email)

	_, err = svc.GetUser(uuid.New())
	require.True(t, errors.Is(err, ErrUserNotFound))
}
