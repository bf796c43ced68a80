package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"slotbook/internal/domain"
)

func newTestVerifier(t *testing.T, now time.Time) *Verifier {
	t.Helper()
	v, err := NewVerifier([]byte("test-secret"), "slotbook")
	if err != nil {
		t.Fatalf("NewVerifier error: %v", err)
	}
	v.now = func() time.Time { return now }
	return v
}

func TestVerifier_IssueVerifyRoundTrip(t *testing.T) {
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	v := newTestVerifier(t, now)

	token, err := v.Issue(domain.Party{ID: "doc-1", Role: domain.RoleOffering}, time.Hour)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	p, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if p.ID != "doc-1" || p.Role != domain.RoleOffering {
		t.Fatalf("party = %+v", p)
	}
}

func TestVerifier_RejectsExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	v := newTestVerifier(t, now)

	token, err := v.Issue(domain.Party{ID: "p1", Role: domain.RoleRequesting}, time.Minute)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	v.now = func() time.Time { return now.Add(time.Hour) }
	if _, err := v.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want %v", err, ErrInvalidToken)
	}
}

func TestVerifier_RejectsWrongSecretAndIssuer(t *testing.T) {
	now := time.Now()
	v := newTestVerifier(t, now)

	other, err := NewVerifier([]byte("other-secret"), "slotbook")
	if err != nil {
		t.Fatalf("NewVerifier error: %v", err)
	}
	token, err := other.Issue(domain.Party{ID: "p1", Role: domain.RoleRequesting}, time.Hour)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if _, err := v.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("wrong secret err = %v, want %v", err, ErrInvalidToken)
	}

	foreign, err := NewVerifier([]byte("test-secret"), "someone-else")
	if err != nil {
		t.Fatalf("NewVerifier error: %v", err)
	}
	token, err = foreign.Issue(domain.Party{ID: "p1", Role: domain.RoleRequesting}, time.Hour)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if _, err := v.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("wrong issuer err = %v, want %v", err, ErrInvalidToken)
	}
}

func TestVerifier_RejectsUnknownRole(t *testing.T) {
	now := time.Now()
	v := newTestVerifier(t, now)

	claims := Claims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "p1",
			Issuer:    "slotbook",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("SignedString error: %v", err)
	}
	if _, err := v.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want %v", err, ErrInvalidToken)
	}
}

func TestVerifier_IssueValidation(t *testing.T) {
	v := newTestVerifier(t, time.Now())
	if _, err := v.Issue(domain.Party{Role: domain.RoleOffering}, time.Hour); err == nil {
		t.Fatalf("expected error for empty id")
	}
	if _, err := v.Issue(domain.Party{ID: "x", Role: "nurse"}, time.Hour); err == nil {
		t.Fatalf("expected error for unknown role")
	}
	if _, err := NewVerifier(nil, ""); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr error
	}{
		{header: "Bearer abc", want: "abc"},
		{header: "bearer   abc  ", want: "abc"},
		{header: "", wantErr: ErrMissingToken},
		{header: "Basic abc", wantErr: ErrInvalidToken},
		{header: "Bearer", wantErr: ErrInvalidToken},
	}
	for _, tt := range tests {
		got, err := BearerToken(tt.header)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("BearerToken(%q) err = %v, want %v", tt.header, err, tt.wantErr)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("BearerToken(%q) = %q, %v; want %q", tt.header, got, err, tt.want)
		}
	}
}

func TestContextRoles(t *testing.T) {
	var roles ContextRoles

	if _, err := roles.Role(context.Background(), "p1"); !errors.Is(err, ErrUnknownParty) {
		t.Fatalf("err = %v, want %v", err, ErrUnknownParty)
	}

	ctx := WithParty(context.Background(), domain.Party{ID: "p1", Role: domain.RoleRequesting})
	role, err := roles.Role(ctx, "p1")
	if err != nil || role != domain.RoleRequesting {
		t.Fatalf("Role = %q, %v", role, err)
	}

	if _, err := roles.Role(ctx, "p2"); !errors.Is(err, ErrUnknownParty) {
		t.Fatalf("err = %v, want %v", err, ErrUnknownParty)
	}
}
