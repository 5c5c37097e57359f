package token

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Signer turns a claim set into a signed string and back.
type Signer interface {
	Sign(claims map[string]any) (string, error)
	Verify(raw string) (map[string]any, error)
}

// JWTSigner signs compact JWS tokens with a shared HMAC secret.
type JWTSigner struct {
	secret []byte
	method jwt.SigningMethod
}

func NewJWTSigner(secret string, algorithm string) (*JWTSigner, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("signing secret is required")
	}

	method := jwt.GetSigningMethod(strings.ToUpper(strings.TrimSpace(algorithm)))
	if method == nil {
		return nil, fmt.Errorf("unknown signing algorithm %q", algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("signing algorithm %q is not an HMAC algorithm", algorithm)
	}

	return &JWTSigner{secret: []byte(secret), method: method}, nil
}

func (s *JWTSigner) Algorithm() string {
	return s.method.Alg()
}

func (s *JWTSigner) Sign(claims map[string]any) (string, error) {
	signed, err := jwt.NewWithClaims(s.method, jwt.MapClaims(claims)).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and algorithm only; registered claims such as
// exp are left to the caller.
func (s *JWTSigner) Verify(raw string) (map[string]any, error) {
	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != s.method.Alg() {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrBadSignature, err)
	}
	if !parsed.Valid {
		return nil, ErrBadSignature
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected claims type %T", ErrMalformed, parsed.Claims)
	}

	return map[string]any(claims), nil
}
