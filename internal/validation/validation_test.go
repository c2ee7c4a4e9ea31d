package validation

import "testing"

func TestValidateDisplayName(t *testing.T) {
	if err := ValidateDisplayName(""); err == nil {
		t.Fatal("expected error for empty name")
	}
	if err := ValidateDisplayName("Player One"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	long := make([]byte, 31)
	for i := range long {
		long[i] = 'a'
	}
	if err := ValidateDisplayName(string(long)); err == nil {
		t.Fatal("expected error for overlong name")
	}
}

func TestValidateEmail(t *testing.T) {
	valid := []string{"a@b.co", "user.name+tag@example.org"}
	for _, e := range valid {
		if err := ValidateEmail(e); err != nil {
			t.Errorf("ValidateEmail(%q) = %v, want nil", e, err)
		}
	}

	invalid := []string{"", "plain", "no@tld", "@example.com"}
	for _, e := range invalid {
		if err := ValidateEmail(e); err == nil {
			t.Errorf("ValidateEmail(%q) = nil, want error", e)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword(""); err == nil {
		t.Fatal("expected error for empty password")
	}
	if err := ValidatePassword("short"); err == nil {
		t.Fatal("expected error for short password")
	}
	if err := ValidatePassword("longenough1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRegistrationPasswordMismatch(t *testing.T) {
	err := ValidateRegistration("Player", "p@example.com", "longenough1", "different1x")
	if err == nil {
		t.Fatal("expected mismatch error")
	}
}

func TestValidateRegistrationOK(t *testing.T) {
	if err := ValidateRegistration("Player", "p@example.com", "longenough1", "longenough1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
