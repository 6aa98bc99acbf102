// Package session issues and verifies the stateless session token: user
// id and role signed as JWT claims, with the compact JWS then encrypted
// whole. The double wrap matches previously issued tokens and must stay
// bit-compatible with them.
package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Cookie names. Attributes are HTTP-only, SameSite=Lax, Path=/ for all
// three; Secure comes from config.
const (
	CookieName     = "wiki.session-token"
	CallbackCookie = "wiki.callback-url"
	CSRFCookie     = "wiki.csrf-token"
)

var (
	ErrTokenInvalid = errors.New("invalid session token")
	ErrTokenExpired = errors.New("session token expired")
)

// Claims are the attributes embedded in a session token.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Manager mints and verifies session tokens. Tokens live for maxAge
// total; a valid token older than updateAge is transparently reissued
// with a fresh issuance time (sliding expiration).
type Manager struct {
	signKey   []byte
	encKey    []byte
	maxAge    time.Duration
	updateAge time.Duration
	secure    bool

	now func() time.Time
}

func NewManager(secret string, maxAge, updateAge time.Duration, secure bool) *Manager {
	encKey := sha256.Sum256([]byte(secret))
	return &Manager{
		signKey:   []byte(secret),
		encKey:    encKey[:],
		maxAge:    maxAge,
		updateAge: updateAge,
		secure:    secure,
		now:       time.Now,
	}
}

// SigningKey exposes the HS256 key for middleware that verifies the inner
// signed token after Decrypt has removed the outer layer.
func (m *Manager) SigningKey() []byte { return m.signKey }

// Issue mints a token for the given user id and role.
func (m *Manager) Issue(userID, role string) (string, error) {
	now := m.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.maxAge)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.signKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return m.encrypt(signed)
}

// Verify decrypts and validates a token, returning its claims.
func (m *Manager) Verify(token string) (*Claims, error) {
	signed, err := m.Decrypt(token)
	if err != nil {
		return nil, err
	}

	var claims Claims
	parsed, err := jwt.ParseWithClaims(signed, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.signKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	return &claims, nil
}

// Refresh reissues a token when the presented claims are older than
// updateAge. Returns ok=false when the token is still fresh enough to be
// returned unchanged.
func (m *Manager) Refresh(claims *Claims) (token string, ok bool, err error) {
	if claims.IssuedAt == nil {
		return "", false, nil
	}
	if m.now().Sub(claims.IssuedAt.Time) <= m.updateAge {
		return "", false, nil
	}
	token, err = m.Issue(claims.Subject, claims.Role)
	if err != nil {
		return "", false, err
	}
	return token, true, nil
}

// RefreshMap is Refresh for the map claims the route middleware stores in
// request locals.
func (m *Manager) RefreshMap(claims jwt.MapClaims) (string, bool, error) {
	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	iat, ok := claims["iat"].(float64)
	if sub == "" || !ok {
		return "", false, nil
	}
	c := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  sub,
			IssuedAt: jwt.NewNumericDate(time.Unix(int64(iat), 0)),
		},
	}
	return m.Refresh(c)
}

// MaxAge is the total session lifetime.
func (m *Manager) MaxAge() time.Duration { return m.maxAge }

func (m *Manager) encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(m.encKey)
	if err != nil {
		return "", fmt.Errorf("failed to init cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to init GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt removes the outer encryption layer and returns the signed inner
// token.
func (m *Manager) Decrypt(token string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	block, err := aes.NewCipher(m.encKey)
	if err != nil {
		return "", fmt.Errorf("failed to init cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to init GCM: %w", err)
	}

	if len(raw) < gcm.NonceSize() {
		return "", ErrTokenInvalid
	}
	plaintext, err := gcm.Open(nil, raw[:gcm.NonceSize()], raw[gcm.NonceSize():], nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	return string(plaintext), nil
}
