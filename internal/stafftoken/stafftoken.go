// Package stafftoken backs the placeholder staff gate with signed bearer
// tokens. There is no account model; a token is minted out of band for the
// lost-and-found desk and validated on staff-only endpoints.
package stafftoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	dErrors "cardreturn/pkg/domain-errors"
)

// Claims are the staff token claims.
type Claims struct {
	StaffID string `json:"staff_id"`
	jwt.RegisteredClaims
}

// Service issues and validates staff tokens.
type Service struct {
	signingKey []byte
	issuer     string
}

func New(signingKey, issuer string) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
	}
}

// Generate mints a staff token valid for expiresIn.
func (s *Service) Generate(staffID string, expiresIn time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		StaffID: staffID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			Subject:   staffID,
		},
	})

	return token.SignedString(s.signingKey)
}

// Validate parses and verifies a staff token, returning its claims.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUnauthorized, "invalid staff token", err)
	}
	if !token.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid staff token")
	}
	return claims, nil
}

// ValidateSubject satisfies the middleware gate, which only needs the staff
// subject.
func (s *Service) ValidateSubject(tokenString string) (string, error) {
	claims, err := s.Validate(tokenString)
	if err != nil {
		return "", err
	}
	return claims.StaffID, nil
}
