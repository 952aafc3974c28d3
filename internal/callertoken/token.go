// Package callertoken mints and validates the signed tokens that carry a
// caller's address into the HTTP API.
package callertoken

import (
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "skillchain/pkg/domain-errors"
)

// Claims represents the JWT claims for caller tokens.
type Claims struct {
	Caller string `json:"caller"`
	jwt.RegisteredClaims
}

// Service handles caller token creation and validation.
type Service struct {
	signingKey []byte
	issuer     string
	audience   string
	now        func() time.Time
}

func NewService(signingKey string, issuer string, audience string) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
		now:        time.Now,
	}
}

// GenerateCallerToken signs a token asserting caller for expiresIn.
func (s *Service) GenerateCallerToken(caller common.Address, expiresIn time.Duration) (string, error) {
	if caller == (common.Address{}) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "caller must not be the zero address")
	}
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Caller: caller.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   caller.Hex(),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// ParseToken validates the signature, issuer, audience and expiry of a
// caller token and returns its claims.
func (s *Service) ParseToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthenticated, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthenticated, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthenticated, "invalid token claims")
	}
	if !common.IsHexAddress(claims.Caller) {
		return nil, dErrors.New(dErrors.CodeUnauthenticated, "invalid token caller")
	}
	return claims, nil
}
