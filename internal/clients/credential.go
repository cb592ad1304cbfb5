package clients

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"chargeamps/internal/models"
)

// CredentialStore persists credentials between client instances. The key
// identifies the account.
type CredentialStore interface {
	Load(ctx context.Context, key string) (models.Credential, bool, error)
	Save(ctx context.Context, key string, cred models.Credential) error
	Delete(ctx context.Context, key string) error
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// parseCredential reads the exp claim of token without verifying the
// signature. A missing exp yields expiry 0.
func parseCredential(token string) (models.Credential, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return models.Credential{}, fmt.Errorf("parse token: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return models.Credential{}, fmt.Errorf("parse token exp: %w", err)
	}
	cred := models.Credential{Token: token}
	if exp != nil {
		cred.ExpiresAt = exp.Unix()
	}
	return cred, nil
}
