package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"slotbook/internal/domain"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
	ErrUnknownParty = errors.New("unknown party")
)

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier issues and checks HS256 tokens whose subject is the party id.
type Verifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewVerifier(secret []byte, issuer string) (*Verifier, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret is required")
	}
	return &Verifier{secret: secret, issuer: issuer, now: time.Now}, nil
}

func (v *Verifier) Issue(p domain.Party, ttl time.Duration) (string, error) {
	if p.ID == "" {
		return "", errors.New("party id is required")
	}
	if _, ok := domain.ParseRole(string(p.Role)); !ok {
		return "", fmt.Errorf("unsupported role %q", p.Role)
	}
	if ttl <= 0 {
		ttl = time.Hour
	}

	now := v.now()
	claims := Claims{
		Role: string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

func (v *Verifier) Verify(token string) (domain.Party, error) {
	if strings.TrimSpace(token) == "" {
		return domain.Party{}, ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return domain.Party{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return domain.Party{}, ErrInvalidToken
	}

	if claims.Subject == "" {
		return domain.Party{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	role, ok := domain.ParseRole(claims.Role)
	if !ok {
		return domain.Party{}, fmt.Errorf("%w: unsupported role %q", ErrInvalidToken, claims.Role)
	}
	return domain.Party{ID: claims.Subject, Role: role}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingToken
	}
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", ErrInvalidToken
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

type partyKey struct{}

func WithParty(ctx context.Context, p domain.Party) context.Context {
	return context.WithValue(ctx, partyKey{}, p)
}

func PartyFrom(ctx context.Context) (domain.Party, bool) {
	p, ok := ctx.Value(partyKey{}).(domain.Party)
	return p, ok
}

// ContextRoles answers role lookups from the party verified for the current
// request. It never vouches for any other party.
type ContextRoles struct{}

func (ContextRoles) Role(ctx context.Context, partyID string) (domain.Role, error) {
	p, ok := PartyFrom(ctx)
	if !ok || p.ID != partyID {
		return "", ErrUnknownParty
	}
	return p.Role, nil
}
