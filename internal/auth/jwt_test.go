package auth

import (
	"testing"
	"time"
)

func TestIssueAndValidate(t *testing.T) {
	mgr := NewJWTManager("test-secret-key-123")
	tok, err := mgr.Issue("ops-42", RoleOperator)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if tok.AccessToken == "" {
		t.Fatal("expected non-empty token")
	}
	if tok.ExpiresIn != 12*60*60 {
		t.Errorf("expected expires_in=43200, got %d", tok.ExpiresIn)
	}

	claims, err := mgr.ValidateToken(tok.AccessToken)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.Subject != "ops-42" {
		t.Errorf("expected subject=ops-42, got %s", claims.Subject)
	}
	if claims.Role != RoleOperator {
		t.Errorf("expected operator role, got %s", claims.Role)
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"operator", RoleOperator, false},
		{"observer", RoleObserver, false},
		{"admin", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseRole(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("%q: expected error=%v, got %v", tt.in, tt.wantErr, err)
		}
		if got != tt.want {
			t.Errorf("%q: expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestRoleAllows(t *testing.T) {
	if !RoleOperator.Allows(RoleObserver) {
		t.Error("operator should satisfy observer routes")
	}
	if RoleObserver.Allows(RoleOperator) {
		t.Error("observer should not satisfy operator routes")
	}
	if Role("").Allows(RoleObserver) {
		t.Error("empty role should satisfy nothing")
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	mgr1 := NewJWTManager("secret-one")
	mgr2 := NewJWTManager("secret-two")

	tok, err := mgr1.Issue("ops-1", RoleObserver)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := mgr2.ValidateToken(tok.AccessToken); err == nil {
		t.Error("expected validation to fail with wrong secret")
	}
}

func TestValidateTokenGarbage(t *testing.T) {
	mgr := NewJWTManager("test-secret")
	if _, err := mgr.ValidateToken("not-a-jwt"); err == nil {
		t.Error("expected error for garbage token")
	}
	if _, err := mgr.ValidateToken(""); err == nil {
		t.Error("expected error for empty token")
	}
}

func TestValidateTokenUnknownRole(t *testing.T) {
	mgr := NewJWTManager("test-secret")
	tok, err := mgr.Issue("ops-1", Role("admin"))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := mgr.ValidateToken(tok.AccessToken); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestExpiredToken(t *testing.T) {
	mgr := &JWTManager{secret: []byte("test-secret"), expiry: -1 * time.Second}
	tok, err := mgr.Issue("ops-1", RoleOperator)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := mgr.ValidateToken(tok.AccessToken); err == nil {
		t.Error("expected error for expired token")
	}
}
