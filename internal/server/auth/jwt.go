// Package auth implements the signed-token codec: self-contained HS256
// JWTs carrying the user's identity, verifiable without a store lookup.
package auth

import (
	"errors"
	"time"

	"github.com/agropath/farmauth/internal/common"
	"github.com/agropath/farmauth/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// TokenIssuer identifies this service in the iss claim.
	TokenIssuer = "auth-service"
	// TokenAudience identifies the intended consumer in the aud claim.
	TokenAudience = "auth-service-backend"
)

// Claims is the claim set carried by both access and refresh tokens.
// RefreshJti is set only on refresh tokens and mirrors the jti of the
// server-side record.
type Claims struct {
	jwt.RegisteredClaims
	UserID     string `json:"userId"`
	Phone      string `json:"phone"`
	Name       string `json:"name"`
	RefreshJti string `json:"refreshJti,omitempty"`
}

func newClaims(user *models.User, validity time.Duration) Claims {
	now := time.Now()
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuer,
			Audience:  jwt.ClaimStrings{TokenAudience},
			Subject:   user.Phone,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		UserID: user.ID,
		Phone:  user.Phone,
		Name:   user.Name,
	}
}

// GenerateAccessToken mints a short-lived access token for the user.
func GenerateAccessToken(user *models.User, secretKey []byte, validity time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, newClaims(user, validity))
	return token.SignedString(secretKey)
}

// GenerateRefreshToken mints a long-lived refresh token for the user,
// embedding the jti that keys its server-side record.
func GenerateRefreshToken(user *models.User, jti string, secretKey []byte, validity time.Duration) (string, error) {
	claims := newClaims(user, validity)
	claims.RefreshJti = jti
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey)
}

func hmacKeyFunc(secretKey []byte) jwt.Keyfunc {
	return func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return secretKey, nil
	}
}

// ParseAccessToken verifies the signature and expiry of an access token
// and returns its claims. The signature is checked before expiry, so a
// forged token is always reported as common.ErrInvalidToken even when its
// exp has also passed.
func ParseAccessToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, hmacKeyFunc(secretKey),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}
	if !token.Valid {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

// ParseRefreshToken verifies the signature of a refresh token and returns
// its claims without validating expiry. The refresh flow needs the claims
// of an expired-but-genuine token so the stored record can still be
// revoked on first use; expiry classification happens against the record.
func ParseRefreshToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, hmacKeyFunc(secretKey),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation())
	if err != nil || !token.Valid {
		return nil, common.ErrInvalidToken
	}
	if claims.RefreshJti == "" {
		// an access token presented as a refresh token
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}
