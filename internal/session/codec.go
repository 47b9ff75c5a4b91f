// Package session manages the authenticated session lifecycle: an
// encrypted/signed token blob persisted between requests, a fallback
// refresh-token record, and transparent access-token refresh.
package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/nacl/secretbox"
)

// Session is the decoded state of one authenticated user.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

type sessionClaims struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresAtMS  int64  `json:"expires_at"`
	jwt.RegisteredClaims
}

// Codec signs session blobs and seals refresh tokens so the browser can
// hold them without being able to read or forge either.
type Codec struct {
	signKey []byte
	sealKey [32]byte
}

// NewCodec derives the signing and sealing keys from a single secret.
// The secret should be a strong random string (e.g. 32 bytes).
func NewCodec(secret string) *Codec {
	return &Codec{
		signKey: []byte(secret),
		sealKey: sha256.Sum256([]byte(secret)),
	}
}

// Encode signs the session into a compact blob. The blob itself expires at
// the session's expiry, so a stale cookie decodes as absent and callers fall
// back to the separately stored refresh token.
func (c *Codec) Encode(s Session) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAtMS:  s.ExpiresAt.UnixMilli(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	blob, err := token.SignedString(c.signKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign session: %w", err)
	}
	return blob, nil
}

// Decode verifies and parses a session blob. Missing, corrupt, tampered or
// expired blobs all decode to nil; a bad cookie is indistinguishable from no
// cookie at all.
func (c *Codec) Decode(blob string) *Session {
	if blob == "" {
		return nil
	}

	var claims sessionClaims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(blob, &claims, func(*jwt.Token) (any, error) {
		return c.signKey, nil
	})
	if err != nil || !token.Valid || claims.AccessToken == "" {
		return nil
	}

	return &Session{
		AccessToken:  claims.AccessToken,
		RefreshToken: claims.RefreshToken,
		ExpiresAt:    time.UnixMilli(claims.ExpiresAtMS),
	}
}

// SealRefreshToken encrypts and authenticates a raw refresh token for
// cookie storage. The nonce is prepended to the box.
func (c *Codec) SealRefreshToken(token string) (string, error) {
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], []byte(token), &nonce, &c.sealKey)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// OpenRefreshToken decrypts a sealed refresh token. Corrupt or tampered
// values report !ok rather than an error, mirroring Decode.
func (c *Codec) OpenRefreshToken(sealed string) (string, bool) {
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil || len(raw) < 24 {
		return "", false
	}
	var nonce [24]byte
	copy(nonce[:], raw[:24])
	opened, ok := secretbox.Open(nil, raw[24:], &nonce, &c.sealKey)
	if !ok {
		return "", false
	}
	return string(opened), true
}
